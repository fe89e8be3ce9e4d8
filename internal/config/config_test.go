package config

import (
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	arena := DefaultArena()
	if arena.Width != 400 || arena.Height != 800 {
		t.Errorf("unexpected default arena %vx%v", arena.Width, arena.Height)
	}
	if got := arena.TickInterval(); got != time.Second/30 {
		t.Errorf("TickInterval = %v, want %v", got, time.Second/30)
	}

	limits := DefaultLimits()
	if limits.MaxSessions <= 0 || limits.MaxParticles <= 0 {
		t.Errorf("limits must be positive: %+v", limits)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ARENA_WIDTH", "600")
	t.Setenv("ARENA_HEIGHT", "900")
	t.Setenv("TICK_RATE", "60")
	t.Setenv("PORT", "8081")
	t.Setenv("MAX_SESSIONS", "7")
	t.Setenv("SESSION_IDLE_MINUTES", "2")
	t.Setenv("EVENT_LOG_PATH", "")
	t.Setenv("REDIS_URL", "redis://localhost:6379/1")
	t.Setenv("DISABLE_DEBUG_SERVER", "true")

	cfg := Load()

	if cfg.Arena.Width != 600 || cfg.Arena.Height != 900 || cfg.Arena.TickRate != 60 {
		t.Errorf("arena overrides not applied: %+v", cfg.Arena)
	}
	if cfg.Server.Port != 8081 {
		t.Errorf("Port = %d, want 8081", cfg.Server.Port)
	}
	if cfg.Server.EventLogPath != "" {
		t.Errorf("explicitly empty EVENT_LOG_PATH should disable the log, got %q", cfg.Server.EventLogPath)
	}
	if cfg.Limits.MaxSessions != 7 || cfg.Limits.SessionIdle != 2*time.Minute {
		t.Errorf("limit overrides not applied: %+v", cfg.Limits)
	}
	if cfg.Store.RedisURL != "redis://localhost:6379/1" {
		t.Errorf("RedisURL = %q", cfg.Store.RedisURL)
	}
	if cfg.Debug.Enabled {
		t.Error("debug server should be disabled")
	}
}

func TestInvalidEnvFallsBack(t *testing.T) {
	t.Setenv("TICK_RATE", "fast")
	t.Setenv("ARENA_WIDTH", "-5")

	cfg := ArenaFromEnv()
	if cfg.TickRate != 30 {
		t.Errorf("TickRate = %d, want default 30", cfg.TickRate)
	}
	if cfg.Width != 400 {
		t.Errorf("Width = %v, want default 400", cfg.Width)
	}
}
