package api

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/danjglick/scorefirst-sub000/internal/game"
	"github.com/danjglick/scorefirst-sub000/internal/store"

	"github.com/go-chi/chi/v5"
)

// ServerConfig wires the API server to the game and score backends.
type ServerConfig struct {
	Sessions SessionAPI
	Scores   store.ScoreStore
	Events   *game.EventLog
}

// Server is the HTTP API server with WebSocket support.
type Server struct {
	router      *chi.Mux
	wsHub       *WebSocketHub
	rateLimiter *IPRateLimiter

	mu         sync.Mutex
	httpServer *http.Server
}

// NewServer creates a new API server with default production configuration.
//
// Background workers do not start until Start() is called, so the server
// can be constructed in tests and exercised through Router().
func NewServer(cfg ServerConfig) *Server {
	s := &Server{
		wsHub:       NewWebSocketHub(cfg.Sessions),
		rateLimiter: NewIPRateLimiter(DefaultRateLimitConfig),
	}

	s.router = NewRouter(RouterConfig{
		Sessions:    cfg.Sessions,
		Scores:      cfg.Scores,
		Events:      cfg.Events,
		RateLimiter: s.rateLimiter,
	})

	// The hub is per-server, so its route is added here rather than in NewRouter
	s.router.Get("/ws", s.wsHub.HandleWebSocket)

	return s
}

// Start starts the hub and broadcast loop, then serves HTTP until Stop.
// It returns nil after a graceful shutdown.
func (s *Server) Start(addr string) error {
	go s.wsHub.Run()
	s.wsHub.StartBroadcastLoop(BroadcastInterval)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	log.Printf("🌐 API server starting on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Router returns the HTTP handler for use with httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Stop shuts the listener down, then detaches WebSocket clients.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()

	var err error
	if srv != nil {
		err = srv.Shutdown(ctx)
	}
	s.wsHub.Stop()
	s.rateLimiter.Stop()
	return err
}
