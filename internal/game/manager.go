package game

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"sort"
	"sync"
	"time"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionLimit    = errors.New("session limit reached")
)

// ManagerConfig holds the defaults applied to every session.
type ManagerConfig struct {
	Width        float64
	Height       float64
	TickInterval time.Duration
	MaxSessions  int
	MaxParticles int
	IdleTimeout  time.Duration
	Clock        Clock
	Hooks        Hooks
	EventLog     *EventLog
	Scores       TrophyRecorder // may be nil
}

// TrophyRecorder persists a session's completion score.
type TrophyRecorder interface {
	RecordTrophies(ctx context.Context, sessionID string, trophies int) error
}

// recordTimeout bounds one trophy write.
const recordTimeout = 2 * time.Second

// SessionOptions overrides per-session settings. Zero values fall back to
// the manager defaults.
type SessionOptions struct {
	Width  float64
	Height float64
	Seed   int64
}

// Manager owns every running game, keyed by session ID.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Engine
	cfg      ManagerConfig

	// Tick-less sessions are driven by the caller (tests).
	autoStart bool

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewManager creates a manager. Sessions start their tick loop on Create.
func NewManager(cfg ManagerConfig) *Manager {
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	return &Manager{
		sessions:  make(map[string]*Engine),
		cfg:       cfg,
		autoStart: true,
		stopChan:  make(chan struct{}),
	}
}

// NewManualManager creates a manager whose sessions never tick on their
// own; callers drive them with Engine.Step.
func NewManualManager(cfg ManagerConfig) *Manager {
	m := NewManager(cfg)
	m.autoStart = false
	return m
}

func generateSessionID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return "s_" + hex.EncodeToString(b)
}

// Create starts a new session.
func (m *Manager) Create(opts SessionOptions) (*Engine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cfg.MaxSessions > 0 && len(m.sessions) >= m.cfg.MaxSessions {
		return nil, ErrSessionLimit
	}

	width, height := opts.Width, opts.Height
	if width <= 0 || height <= 0 {
		width, height = m.cfg.Width, m.cfg.Height
	}

	id := generateSessionID()
	for m.sessions[id] != nil {
		id = generateSessionID()
	}

	e := NewEngine(EngineConfig{
		SessionID:    id,
		Width:        width,
		Height:       height,
		TickInterval: m.cfg.TickInterval,
		Clock:        m.cfg.Clock,
		Seed:         opts.Seed,
		MaxParticles: m.cfg.MaxParticles,
		Hooks:        m.sessionHooks(),
		EventLog:     m.cfg.EventLog,
	})
	m.sessions[id] = e
	if m.autoStart {
		e.Start()
	}

	log.Printf("➕ Session %s created (%.0fx%.0f, %d active)", id, width, height, len(m.sessions))
	return e, nil
}

// sessionHooks wraps the configured hooks so trophies are also persisted.
// Writes run off the tick goroutine.
func (m *Manager) sessionHooks() Hooks {
	hooks := m.cfg.Hooks
	if m.cfg.Scores == nil {
		return hooks
	}
	next := hooks.OnTrophy
	scores := m.cfg.Scores
	hooks.OnTrophy = func(sessionID string, trophies, total int) {
		if next != nil {
			next(sessionID, trophies, total)
		}
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
			defer cancel()
			if err := scores.RecordTrophies(ctx, sessionID, trophies); err != nil {
				log.Printf("⚠️ Failed to record trophies for %s: %v", sessionID, err)
			}
		}()
	}
	return hooks
}

// Get returns the engine for a session.
func (m *Manager) Get(id string) (*Engine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return e, nil
}

// Remove stops and forgets a session.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	e, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	e.Stop()
	log.Printf("➖ Session %s removed", id)
	return nil
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// IDs returns the live session IDs in sorted order.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// ReapIdle removes sessions with no input for longer than maxIdle.
func (m *Manager) ReapIdle(maxIdle time.Duration) int {
	if maxIdle <= 0 {
		return 0
	}
	cutoff := m.cfg.Clock.Now().Add(-maxIdle)

	m.mu.RLock()
	var stale []string
	for id, e := range m.sessions {
		if e.LastActive().Before(cutoff) {
			stale = append(stale, id)
		}
	}
	m.mu.RUnlock()

	removed := 0
	for _, id := range stale {
		if m.Remove(id) == nil {
			removed++
		}
	}
	if removed > 0 {
		log.Printf("🧹 Reaped %d idle sessions", removed)
	}
	return removed
}

// StartReaper runs ReapIdle on every interval until Shutdown.
func (m *Manager) StartReaper(interval time.Duration) {
	if interval <= 0 || m.cfg.IdleTimeout <= 0 {
		return
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.ReapIdle(m.cfg.IdleTimeout)
			case <-m.stopChan:
				return
			}
		}
	}()
}

// Shutdown stops the reaper and every session.
func (m *Manager) Shutdown() {
	m.stopOnce.Do(func() {
		close(m.stopChan)

		m.mu.Lock()
		engines := make([]*Engine, 0, len(m.sessions))
		for id, e := range m.sessions {
			engines = append(engines, e)
			delete(m.sessions, id)
		}
		m.mu.Unlock()

		for _, e := range engines {
			e.Stop()
		}
		m.wg.Wait()
		log.Printf("🛑 Session manager stopped (%d sessions closed)", len(engines))
	})
}
