package game

import (
	"log"
	"math/rand"
	"sync"
	"time"
)

// Hooks are optional callbacks fired with the engine lock held. They must
// not block or call back into the engine.
type Hooks struct {
	OnTick              func(sessionID string, took time.Duration)
	OnLevelCleared      func(sessionID string, level int, grade string)
	OnStall             func(sessionID string)
	OnTrophy            func(sessionID string, trophies, total int)
	OnPlacementFallback func(sessionID string, count int)
}

// EngineConfig configures one game instance.
type EngineConfig struct {
	SessionID    string
	Width        float64
	Height       float64
	TickInterval time.Duration
	Clock        Clock // defaults to SystemClock
	Seed         int64 // 0 picks a time-based seed
	MaxParticles int
	Options      LevelOptions
	Hooks        Hooks
	EventLog     *EventLog // shared; may be nil
}

// DefaultEngineConfig returns a 400x800 arena ticking at ~30 TPS.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Width:        400,
		Height:       800,
		TickInterval: time.Second / 30,
		MaxParticles: 120,
	}
}

// Engine runs one game: it owns the state, the clock, the effect scheduler
// and the RNG. Ticks and input are serialized by a single mutex.
type Engine struct {
	mu    sync.Mutex
	id    string
	state *GameState

	clock  Clock
	sched  *Scheduler
	rng    *rand.Rand
	seed   int64
	placer *Placer
	opts   LevelOptions

	maxParticles int
	tickInterval time.Duration
	tickCount    uint64
	lastActive   time.Time

	running  bool
	ticker   *time.Ticker
	stopChan chan struct{}
	done     chan struct{}

	hooks        Hooks
	eventLog     *EventLog
	snapshotPool *SnapshotPool
}

// NewEngine creates an engine and generates level 1.
func NewEngine(cfg EngineConfig) *Engine {
	def := DefaultEngineConfig()
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = def.Width, def.Height
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = def.TickInterval
	}
	if cfg.MaxParticles <= 0 {
		cfg.MaxParticles = def.MaxParticles
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	e := &Engine{
		id:           cfg.SessionID,
		state:        NewGameState(cfg.Width, cfg.Height),
		clock:        cfg.Clock,
		sched:        NewScheduler(),
		rng:          rng,
		seed:         cfg.Seed,
		placer:       NewPlacer(rng),
		opts:         cfg.Options,
		maxParticles: cfg.MaxParticles,
		tickInterval: cfg.TickInterval,
		stopChan:     make(chan struct{}),
		done:         make(chan struct{}),
		hooks:        cfg.Hooks,
		eventLog:     cfg.EventLog,
		snapshotPool: NewSnapshotPool(cfg.MaxParticles),
	}

	now := e.clock.Now()
	e.lastActive = now
	e.startLevel(now)
	e.produceSnapshot(now)
	return e
}

// Start begins the tick loop
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.ticker = time.NewTicker(e.tickInterval)
	e.mu.Unlock()

	go func() {
		defer close(e.done)
		for {
			select {
			case <-e.ticker.C:
				e.Step()
			case <-e.stopChan:
				return
			}
		}
	}()

	log.Printf("🎮 [%s] engine started, tick every %v", e.id, e.tickInterval)
}

// Stop stops the tick loop and waits for it to exit.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	e.ticker.Stop()
	close(e.stopChan)
	e.mu.Unlock()

	<-e.done
	log.Printf("🛑 [%s] engine stopped", e.id)
}

// Step runs one tick at the clock's current time. The loop calls it on
// every ticker fire; tests call it directly with a ManualClock.
func (e *Engine) Step() {
	started := time.Now()

	e.mu.Lock()
	now := e.clock.Now()
	e.tick(now)
	e.produceSnapshot(now)
	e.mu.Unlock()

	if e.hooks.OnTick != nil {
		e.hooks.OnTick(e.id, time.Since(started))
	}
}

// tick advances the simulation: due effects, fades, the ball, the shot
// lifecycle, then collisions in fixed order.
func (e *Engine) tick(now time.Time) {
	e.tickCount++
	s := e.state

	e.sched.RunDue(now)
	s.updateFades(now)
	s.Particles = updateParticles(s.Particles)

	if s.Door != nil && s.Door.Animating {
		if flyDoor(s.Door, now) {
			e.onDoorArrived(now)
		}
	}

	if s.Spawning || s.AutoReset {
		if glideBall(&s.Ball, now) {
			s.finishGlide()
		}
		return
	}

	integrate(&s.Ball)

	if s.ShotActive && s.Ball.Speed() < StopSpeed {
		e.checkStall(now)
	}
	if s.Animating() {
		return
	}

	if hit := collectTeammates(s); len(hit) > 0 {
		s.syncSelection()
		e.onPickup(hit, now)
	}
	reflectWalls(s)
	bounceObstacles(s)
	bounceEdges(s)
	if touchesDoor(s) {
		e.onDoorContact(now)
	}
}

// PressStart handles the start of a tap or drag at p (arena coordinates).
func (e *Engine) PressStart(p Vec2) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	e.lastActive = now
	s := e.state
	if s.Animating() {
		return
	}

	if Distance(p, s.Ball.Pos) < BallRadius(s.Width) {
		if s.Ball.Speed() > StopSpeed {
			return
		}
		s.Selection = Selection{}
		e.beginFling(p)
		e.produceSnapshot(now)
		return
	}

	if i := s.teammateAt(p); i >= 0 {
		e.tapTarget(KindTeammate, i, now)
	} else if i := s.obstacleAt(p); i >= 0 {
		e.tapTarget(KindObstacle, i, now)
	} else {
		s.Selection = Selection{}
	}
	e.produceSnapshot(now)
}

// DragMove updates the fling gesture.
func (e *Engine) DragMove(p Vec2) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.lastActive = e.clock.Now()
	if e.state.Phase == PhaseFlinging {
		e.state.dragCurrent = p
	}
}

// PressEnd releases the fling gesture, if any.
func (e *Engine) PressEnd() {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	e.lastActive = now
	e.releaseFling(now)
	e.produceSnapshot(now)
}

// Resize changes the arena. Derived radii follow immediately; obstacle
// radii keep the value they were created with.
func (e *Engine) Resize(width, height float64) bool {
	if width <= 0 || height <= 0 {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state.Width = width
	e.state.Height = height
	e.produceSnapshot(e.clock.Now())
	return true
}

// SetWalls installs wall polylines for the current level. Walls are
// cleared on the next level.
func (e *Engine) SetWalls(walls []Wall) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state.Walls = make([]Wall, len(walls))
	for i, w := range walls {
		e.state.Walls[i] = Wall{Points: append([]Vec2(nil), w.Points...)}
	}
}

// Snapshot returns a copy of the latest published snapshot.
func (e *Engine) Snapshot() GameSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotPool.AcquireRead().Clone()
}

// SessionID returns the session this engine serves.
func (e *Engine) SessionID() string {
	return e.id
}

// Seed returns the RNG seed the engine was created with.
func (e *Engine) Seed() int64 {
	return e.seed
}

// LastActive returns the time of the latest player input.
func (e *Engine) LastActive() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastActive
}

// Score returns the current score.
func (e *Engine) Score() Score {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Score
}

// PendingEffects lists scheduled effect kinds in deadline order.
func (e *Engine) PendingEffects() []EffectKind {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sched.PendingKinds()
}

func (e *Engine) emit(t EventType, now time.Time, payload interface{}) {
	e.eventLog.EmitSimple(t, now, e.tickCount, e.id, payload)
}
