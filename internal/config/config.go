// Package config provides centralized configuration management.
// Gameplay tuning lives in internal/game as constants; this package only
// carries values that legitimately differ between deployments.
package config

import (
	"os"
	"strconv"
	"time"
)

// =============================================================================
// ARENA CONFIGURATION
// =============================================================================

// ArenaConfig holds the default arena size and tick cadence for new sessions.
type ArenaConfig struct {
	Width    float64 // Arena width in pixels (drives ball/teammate radii)
	Height   float64 // Arena height in pixels
	TickRate int     // Ticks per second (~30 => 33ms cadence)
}

// DefaultArena returns the default arena configuration.
func DefaultArena() ArenaConfig {
	return ArenaConfig{
		Width:    400,
		Height:   800,
		TickRate: 30,
	}
}

// ArenaFromEnv returns arena configuration with environment variable overrides.
func ArenaFromEnv() ArenaConfig {
	cfg := DefaultArena()

	if w := getEnvFloat("ARENA_WIDTH", 0); w > 0 {
		cfg.Width = w
	}
	if h := getEnvFloat("ARENA_HEIGHT", 0); h > 0 {
		cfg.Height = h
	}
	if tr := getEnvInt("TICK_RATE", 0); tr > 0 {
		cfg.TickRate = tr
	}

	return cfg
}

// TickInterval converts the tick rate into a ticker period.
func (a ArenaConfig) TickInterval() time.Duration {
	if a.TickRate <= 0 {
		return 33 * time.Millisecond
	}
	return time.Second / time.Duration(a.TickRate)
}

// =============================================================================
// RESOURCE LIMITS
// =============================================================================

// ResourceLimits caps per-process and per-session resources.
type ResourceLimits struct {
	MaxSessions  int           // Hard cap on concurrently hosted games
	MaxParticles int           // Per-session particle limit
	SessionIdle  time.Duration // Sessions without input for this long are reaped
}

// DefaultLimits returns the default resource limits.
func DefaultLimits() ResourceLimits {
	return ResourceLimits{
		MaxSessions:  500,
		MaxParticles: 120,
		SessionIdle:  15 * time.Minute,
	}
}

// LimitsFromEnv returns resource limits with environment variable overrides.
func LimitsFromEnv() ResourceLimits {
	cfg := DefaultLimits()

	if ms := getEnvInt("MAX_SESSIONS", 0); ms > 0 {
		cfg.MaxSessions = ms
	}
	if mp := getEnvInt("MAX_PARTICLES", 0); mp > 0 {
		cfg.MaxParticles = mp
	}
	if idle := getEnvInt("SESSION_IDLE_MINUTES", 0); idle > 0 {
		cfg.SessionIdle = time.Duration(idle) * time.Minute
	}

	return cfg
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int
	EventLogPath string // Empty disables the JSONL event log
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:         3000,
		EventLogPath: "events.jsonl",
	}
}

// ServerFromEnv returns server configuration with environment variable overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if path, ok := os.LookupEnv("EVENT_LOG_PATH"); ok {
		cfg.EventLogPath = path
	}

	return cfg
}

// =============================================================================
// STORE CONFIGURATION
// =============================================================================

// StoreConfig selects the score store backend.
type StoreConfig struct {
	RedisURL string // Empty selects the in-memory store
}

// StoreFromEnv returns store configuration from the environment.
func StoreFromEnv() StoreConfig {
	return StoreConfig{RedisURL: os.Getenv("REDIS_URL")}
}

// =============================================================================
// DEBUG CONFIGURATION
// =============================================================================

// DebugConfig controls the localhost-only metrics/pprof server.
type DebugConfig struct {
	Enabled    bool
	ListenAddr string
}

// DebugFromEnv returns debug server configuration with environment overrides.
func DebugFromEnv() DebugConfig {
	cfg := DebugConfig{
		Enabled:    true,
		ListenAddr: "127.0.0.1:6060",
	}
	if os.Getenv("DISABLE_DEBUG_SERVER") == "true" {
		cfg.Enabled = false
	}
	if addr := os.Getenv("DEBUG_ADDR"); addr != "" {
		cfg.ListenAddr = addr
	}
	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Arena  ArenaConfig
	Server ServerConfig
	Limits ResourceLimits
	Store  StoreConfig
	Debug  DebugConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Arena:  ArenaFromEnv(),
		Server: ServerFromEnv(),
		Limits: LimitsFromEnv(),
		Store:  StoreFromEnv(),
		Debug:  DebugFromEnv(),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
