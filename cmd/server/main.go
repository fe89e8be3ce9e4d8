package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/danjglick/scorefirst-sub000/internal/api"
	"github.com/danjglick/scorefirst-sub000/internal/config"
	"github.com/danjglick/scorefirst-sub000/internal/game"
	"github.com/danjglick/scorefirst-sub000/internal/store"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("💡 No .env file found, using environment variables only")
	} else {
		log.Println("✅ Loaded environment from .env")
	}

	log.Println("🎮 ================================")
	log.Println("🎮  SCORE FIRST - GAME SERVER")
	log.Println("🎮 ================================")

	cfg := config.Load()
	log.Printf("🎮 Config: %.0fx%.0f arena, %d TPS, %d max sessions, %d particles",
		cfg.Arena.Width, cfg.Arena.Height, cfg.Arena.TickRate, cfg.Limits.MaxSessions, cfg.Limits.MaxParticles)

	// Score store: Redis when configured, in-process otherwise
	var scores store.ScoreStore = store.NewMemoryStore()
	if cfg.Store.RedisURL != "" {
		rs, err := store.OpenRedis(cfg.Store.RedisURL)
		if err != nil {
			log.Printf("⚠️ Redis unavailable, falling back to memory store: %v", err)
		} else {
			scores = rs
			log.Println("✅ Leaderboard backed by Redis")
		}
	}

	events := game.NewEventLog()
	if err := events.Start(cfg.Server.EventLogPath); err != nil {
		log.Printf("⚠️ Event log disabled: %v", err)
	} else if cfg.Server.EventLogPath != "" {
		log.Printf("📝 Event log: %s", cfg.Server.EventLogPath)
	}

	manager := game.NewManager(game.ManagerConfig{
		Width:        cfg.Arena.Width,
		Height:       cfg.Arena.Height,
		TickInterval: cfg.Arena.TickInterval(),
		MaxSessions:  cfg.Limits.MaxSessions,
		MaxParticles: cfg.Limits.MaxParticles,
		IdleTimeout:  cfg.Limits.SessionIdle,
		Hooks:        api.MetricsHooks(),
		EventLog:     events,
		Scores:       scores,
	})
	manager.StartReaper(time.Minute)

	debugSrv := api.StartDebugServer(api.ObservabilityConfig{
		Enabled:       cfg.Debug.Enabled,
		ListenAddr:    cfg.Debug.ListenAddr,
		BasicAuthUser: os.Getenv("DEBUG_USER"),
		BasicAuthPass: os.Getenv("DEBUG_PASS"),
	})

	server := api.NewServer(api.ServerConfig{
		Sessions: manager,
		Scores:   scores,
		Events:   events,
	})

	go func() {
		addr := ":" + strconv.Itoa(cfg.Server.Port)
		log.Printf("🌐 API server on http://localhost%s", addr)
		if err := server.Start(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("✅ Server ready! Press Ctrl+C to stop.")
	<-quit

	log.Println("🛑 Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		log.Printf("⚠️ API shutdown: %v", err)
	}
	if debugSrv != nil {
		debugSrv.Shutdown(ctx)
	}
	// Sessions stop before the store closes so pending trophy writes land
	manager.Shutdown()
	events.Stop()
	if err := scores.Close(); err != nil {
		log.Printf("⚠️ Store close: %v", err)
	}
	log.Println("👋 Goodbye!")
}
