package api

import (
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"time"

	"github.com/danjglick/scorefirst-sub000/internal/game"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics with bounded cardinality (no per-session labels)
var (
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "game_tick_duration_seconds",
		Help:    "Time spent in one session tick",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.033},
	})

	sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "game_sessions_active",
		Help: "Currently hosted game sessions",
	})

	levelsCleared = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "game_levels_cleared_total",
		Help: "Levels cleared, by grade",
	}, []string{"grade"}) // Bounded: grade strings from game.GradeFor

	stallsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "game_stalls_total",
		Help: "Shots that stalled and auto-reset",
	})

	trophiesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "game_trophies_total",
		Help: "Trophies collected across all sessions",
	})

	placementFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "game_placement_fallbacks_total",
		Help: "Entities placed after the retry budget ran out",
	})

	eventLogTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "event_log_total",
		Help: "Total events logged",
	})

	eventLogDropped = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "event_log_dropped",
		Help: "Events dropped due to rate limiting or buffer full",
	})

	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connection_rejected_total",
		Help: "Connections rejected by rate limiter or origin check",
	}, []string{"reason"}) // Bounded: "rate_limit", "origin", "ws_total_limit", "ws_ip_limit"

	requestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"}) // endpoint is the chi route pattern

	requestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "endpoint", "status"})

	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_connections_active",
		Help: "Currently active WebSocket connections",
	})

	wsMessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "websocket_messages_total",
		Help: "Total WebSocket messages sent",
	})
)

// MetricsHooks returns engine hooks that feed the Prometheus collectors.
// Hooks run under the engine lock; every call here is non-blocking.
func MetricsHooks() game.Hooks {
	return game.Hooks{
		OnTick: func(_ string, took time.Duration) {
			tickDuration.Observe(took.Seconds())
		},
		OnLevelCleared: func(_ string, _ int, grade string) {
			levelsCleared.WithLabelValues(grade).Inc()
		},
		OnStall: func(string) {
			stallsTotal.Inc()
		},
		OnTrophy: func(string, int, int) {
			trophiesTotal.Inc()
		},
		OnPlacementFallback: func(_ string, count int) {
			placementFallbacks.Add(float64(count))
		},
	}
}

// ObservabilityConfig configures the debug server
type ObservabilityConfig struct {
	Enabled       bool
	ListenAddr    string // loopback only unless ALLOW_DEBUG_EXTERNAL=true
	BasicAuthUser string // Optional basic auth
	BasicAuthPass string
}

// DefaultObservabilityConfig returns safe defaults
func DefaultObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		Enabled:    true,
		ListenAddr: "127.0.0.1:6060",
	}
}

// NewDebugHandler builds the metrics/pprof/health mux.
func NewDebugHandler(cfg ObservabilityConfig) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	if cfg.BasicAuthUser != "" {
		return basicAuthMiddleware(cfg.BasicAuthUser, cfg.BasicAuthPass, mux)
	}
	return mux
}

// StartDebugServer starts the internal observability server. It returns
// nil when disabled.
func StartDebugServer(cfg ObservabilityConfig) *http.Server {
	if !cfg.Enabled {
		log.Println("📊 Debug server disabled")
		return nil
	}

	if !isLoopback(cfg.ListenAddr) && os.Getenv("ALLOW_DEBUG_EXTERNAL") != "true" {
		log.Println("⚠️ Debug server forced to localhost for security")
		cfg.ListenAddr = DefaultObservabilityConfig().ListenAddr
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           NewDebugHandler(cfg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("📊 Debug server starting on %s", cfg.ListenAddr)
		log.Printf("   - pprof:   http://%s/debug/pprof/", cfg.ListenAddr)
		log.Printf("   - metrics: http://%s/metrics", cfg.ListenAddr)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("⚠️ Debug server error: %v", err)
		}
	}()

	return srv
}

func isLoopback(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// basicAuthMiddleware adds basic authentication to the handler
func basicAuthMiddleware(user, pass string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || u != user || p != pass {
			w.Header().Set("WWW-Authenticate", `Basic realm="debug"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// metricsMiddleware records latency per route pattern. It must be mounted
// on the chi router so the pattern is known once the handler returns.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		endpoint := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				endpoint = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		RecordRequest(r.Method, endpoint, status, time.Since(start))
	})
}

// UpdateSessionCount updates the session gauge
func UpdateSessionCount(count int) {
	sessionsActive.Set(float64(count))
}

// UpdateEventLogStats mirrors the event log counters into gauges.
func UpdateEventLogStats(total, dropped uint64) {
	eventLogTotal.Set(float64(total))
	eventLogDropped.Set(float64(dropped))
}

// RecordConnectionRejected increments the rejection counter
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

// RecordRequest records HTTP request metrics
func RecordRequest(method, endpoint string, status int, duration time.Duration) {
	requestLatency.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	requestTotal.WithLabelValues(method, endpoint, http.StatusText(status)).Inc()
}

// UpdateWSConnections updates WebSocket connection count
func UpdateWSConnections(count int) {
	wsConnectionsActive.Set(float64(count))
}

// IncrementWSMessages increments WebSocket message counter
func IncrementWSMessages() {
	wsMessagesTotal.Inc()
}
