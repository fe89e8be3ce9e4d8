package api

import (
	"github.com/danjglick/scorefirst-sub000/internal/game"
	"github.com/danjglick/scorefirst-sub000/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SessionAPI is the slice of game.Manager the HTTP layer uses.
type SessionAPI interface {
	Create(opts game.SessionOptions) (*game.Engine, error)
	Get(id string) (*game.Engine, error)
	Remove(id string) error
	Count() int
}

var _ SessionAPI = (*game.Manager)(nil)

// RouterConfig contains all dependencies needed to construct the HTTP router.
//
// Example usage in tests:
//
//	router := api.NewRouter(api.RouterConfig{
//	    Sessions: game.NewManualManager(game.ManagerConfig{Clock: clock}),
//	    Scores:   store.NewMemoryStore(),
//	    RateLimitConfig: &api.RateLimitConfig{
//	        RequestsPerSecond: 1000,
//	        Burst:             1000,
//	    },
//	})
//	ts := httptest.NewServer(router)
type RouterConfig struct {
	// Sessions hosts the games (required)
	Sessions SessionAPI

	// Scores serves the leaderboard. Defaults to an in-memory store.
	Scores store.ScoreStore

	// Events is the shared event log, surfaced on /api/events. May be nil.
	Events *game.EventLog

	// RateLimiter is an optional pre-configured rate limiter.
	// If nil, a new one will be created using RateLimitConfig.
	RateLimiter *IPRateLimiter

	// RateLimitConfig is only used if RateLimiter is nil.
	RateLimitConfig *RateLimitConfig

	// CORSOrigins overrides the default localhost origins.
	CORSOrigins []string

	// DisableLogging disables the request logger middleware.
	DisableLogging bool
}

type routerHandlers struct {
	sessions    SessionAPI
	scores      store.ScoreStore
	events      *game.EventLog
	rateLimiter *IPRateLimiter
}

// NewRouter constructs the HTTP router with all middleware and routes.
// Apart from the rate limiter's cleanup goroutine it has no side effects,
// so it is safe to wrap in httptest.NewServer.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)

	// Rate limiting before CORS to reject early
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = []string{
			"http://localhost:*",
			"http://127.0.0.1:*",
		}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	scores := cfg.Scores
	if scores == nil {
		scores = store.NewMemoryStore()
	}

	h := &routerHandlers{
		sessions:    cfg.Sessions,
		scores:      scores,
		events:      cfg.Events,
		rateLimiter: rateLimiter,
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/stats", h.handleGetStats)
		r.Get("/leaderboard", h.handleGetLeaderboard)
		r.Get("/events", h.handleRecentEvents)

		r.Post("/sessions", h.handleCreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Delete("/", h.handleDeleteSession)
			r.Get("/state", h.handleGetState)

			// Pointer input
			r.Post("/press", h.handlePress)
			r.Post("/drag", h.handleDrag)
			r.Post("/release", h.handleRelease)

			// Arena
			r.Post("/resize", h.handleResize)
			r.Post("/walls", h.handleSetWalls)
		})
	})

	return r
}
