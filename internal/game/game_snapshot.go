package game

import (
	"sync/atomic"
	"time"
)

// BallSnapshot is an immutable copy of the ball for rendering
type BallSnapshot struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	VX         float64 `json:"vx"`
	VY         float64 `json:"vy"`
	Radius     float64 `json:"radius"`
	BeingFlung bool    `json:"beingFlung"`
	Animating  bool    `json:"animating"`
}

// TargetSnapshot is an immutable teammate or obstacle
type TargetSnapshot struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Radius   float64 `json:"radius"`
	Alpha    float64 `json:"alpha"`
	Selected bool    `json:"selected"`
}

// WallSnapshot is an immutable wall polyline
type WallSnapshot struct {
	Points []Vec2 `json:"points"`
}

// DoorSnapshot is the trophy, when present
type DoorSnapshot struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Radius    float64 `json:"radius"`
	Alpha     float64 `json:"alpha"`
	Animating bool    `json:"animating"`
}

// ParticleSnapshot is an immutable particle for rendering
type ParticleSnapshot struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Color string  `json:"color"`
	Alpha float64 `json:"alpha"`
}

// GameSnapshot is a complete immutable game state for rendering.
// Slices are pre-allocated in the pool and reused between ticks; callers
// outside the engine receive a Clone.
type GameSnapshot struct {
	Sequence   uint64    `json:"sequence"`
	Timestamp  time.Time `json:"timestamp"`
	TickNumber uint64    `json:"tick"`
	SessionID  string    `json:"sessionId"`

	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	Ball      BallSnapshot       `json:"ball"`
	Team      []TargetSnapshot   `json:"team"`
	Obstacles []TargetSnapshot   `json:"obstacles"`
	Walls     []WallSnapshot     `json:"walls"`
	Door      *DoorSnapshot      `json:"door,omitempty"`
	Particles []ParticleSnapshot `json:"particles"`

	Score         Score  `json:"score"`
	Phase         string `json:"phase"`
	ShotActive    bool   `json:"shotActive"`
	AutoReset     bool   `json:"autoReset"`
	Spawning      bool   `json:"spawning"`
	PendingLevel  bool   `json:"pendingLevel"`
	Grade         string `json:"grade,omitempty"`
	BannerVisible bool   `json:"bannerVisible"`

	door DoorSnapshot // backing storage for Door
}

// Clone returns a deep copy that stays valid after the pool reuses its slot.
func (s *GameSnapshot) Clone() GameSnapshot {
	c := *s
	c.Team = append([]TargetSnapshot(nil), s.Team...)
	c.Obstacles = append([]TargetSnapshot(nil), s.Obstacles...)
	c.Particles = append([]ParticleSnapshot(nil), s.Particles...)
	c.Walls = make([]WallSnapshot, len(s.Walls))
	for i, w := range s.Walls {
		c.Walls[i] = WallSnapshot{Points: append([]Vec2(nil), w.Points...)}
	}
	if s.Door != nil {
		c.door = *s.Door
		c.Door = &c.door
	}
	return c
}

// SnapshotPool pre-allocates snapshots to avoid GC pressure.
// Uses triple buffering so the tick can write while readers copy the
// last published slot.
type SnapshotPool struct {
	snapshots    [3]GameSnapshot
	maxParticles int
	writeIdx     uint32 // atomic - producer index
	readIdx      uint32 // atomic - consumer index
	sequence     uint64 // atomic - monotonic sequence
}

// NewSnapshotPool creates a pool with pre-allocated slices
func NewSnapshotPool(maxParticles int) *SnapshotPool {
	pool := &SnapshotPool{maxParticles: maxParticles}
	for i := 0; i < 3; i++ {
		pool.snapshots[i] = GameSnapshot{
			Team:      make([]TargetSnapshot, 0, TeammateCount),
			Obstacles: make([]TargetSnapshot, 0, ObstacleCount),
			Particles: make([]ParticleSnapshot, 0, maxParticles),
		}
	}
	return pool
}

// AcquireWrite gets the next write slot (producer only).
// Returns a snapshot with reset slices but preserved capacity.
func (p *SnapshotPool) AcquireWrite(now time.Time) *GameSnapshot {
	idx := atomic.AddUint32(&p.writeIdx, 1) % 3
	snap := &p.snapshots[idx]

	snap.Team = snap.Team[:0]
	snap.Obstacles = snap.Obstacles[:0]
	snap.Walls = snap.Walls[:0]
	snap.Particles = snap.Particles[:0]
	snap.Door = nil

	snap.Sequence = atomic.AddUint64(&p.sequence, 1)
	snap.Timestamp = now
	return snap
}

// PublishWrite marks the write slot as the latest complete snapshot.
func (p *SnapshotPool) PublishWrite() {
	atomic.StoreUint32(&p.readIdx, atomic.LoadUint32(&p.writeIdx))
}

// AcquireRead returns the latest published snapshot. The slot is reused
// two writes later, so copy it before releasing the producer's lock.
func (p *SnapshotPool) AcquireRead() *GameSnapshot {
	idx := atomic.LoadUint32(&p.readIdx) % 3
	return &p.snapshots[idx]
}

// produceSnapshot copies the state into the next pool slot. Called with
// the engine lock held.
func (e *Engine) produceSnapshot(now time.Time) {
	s := e.state
	snap := e.snapshotPool.AcquireWrite(now)

	snap.TickNumber = e.tickCount
	snap.SessionID = e.id
	snap.Width = s.Width
	snap.Height = s.Height

	snap.Ball = BallSnapshot{
		X:          s.Ball.Pos.X,
		Y:          s.Ball.Pos.Y,
		VX:         s.Ball.Vel.X,
		VY:         s.Ball.Vel.Y,
		Radius:     BallRadius(s.Width),
		BeingFlung: s.Ball.BeingFlung,
		Animating:  s.Ball.Animating,
	}

	mateR := TeammateRadius(s.Width)
	for i, t := range s.TeamRemaining {
		snap.Team = append(snap.Team, TargetSnapshot{
			X:        t.Pos.X,
			Y:        t.Pos.Y,
			Radius:   mateR,
			Alpha:    t.FadeIn,
			Selected: s.Selection.Kind == KindTeammate && s.Selection.Index == i,
		})
	}
	for i, o := range s.Obstacles {
		alpha := o.FadeIn
		if o.Fading {
			alpha *= o.FadeOut
		}
		snap.Obstacles = append(snap.Obstacles, TargetSnapshot{
			X:        o.Pos.X,
			Y:        o.Pos.Y,
			Radius:   o.Radius,
			Alpha:    alpha,
			Selected: s.Selection.Kind == KindObstacle && s.Selection.Index == i,
		})
	}
	for _, w := range s.Walls {
		snap.Walls = append(snap.Walls, WallSnapshot{Points: append([]Vec2(nil), w.Points...)})
	}
	if d := s.Door; d != nil {
		snap.door = DoorSnapshot{
			X:         d.Pos.X,
			Y:         d.Pos.Y,
			Radius:    d.Radius,
			Alpha:     d.FadeIn,
			Animating: d.Animating,
		}
		snap.Door = &snap.door
	}
	for _, p := range s.Particles {
		if len(snap.Particles) >= e.maxParticles {
			break
		}
		snap.Particles = append(snap.Particles, ParticleSnapshot{
			X:     p.Pos.X,
			Y:     p.Pos.Y,
			Color: p.Color,
			Alpha: p.Life,
		})
	}

	snap.Score = s.Score
	snap.Phase = s.Phase.String()
	snap.ShotActive = s.ShotActive
	snap.AutoReset = s.AutoReset
	snap.Spawning = s.Spawning
	snap.PendingLevel = s.PendingLevel
	snap.Grade = s.Grade
	snap.BannerVisible = s.BannerVisible

	e.snapshotPool.PublishWrite()
}
