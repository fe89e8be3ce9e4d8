package game

import "time"

// Ball is the cue ball. Exactly one exists per level; it is replaced
// wholesale when a level is generated.
type Ball struct {
	Pos        Vec2 `json:"pos"`
	Vel        Vec2 `json:"vel"`
	BeingFlung bool `json:"beingFlung"`

	// Glide animation (spawn-to-start or auto-reset)
	AnimFrom  Vec2          `json:"-"`
	AnimTo    Vec2          `json:"-"`
	AnimStart time.Time     `json:"-"`
	AnimDur   time.Duration `json:"-"`
	Animating bool          `json:"animating"`
}

// Speed returns the ball's current speed in px/tick.
func (b *Ball) Speed() float64 {
	return b.Vel.Magnitude()
}

// Teammate is a collectible target.
type Teammate struct {
	Pos       Vec2      `json:"pos"`
	FadeIn    float64   `json:"fadeIn"`
	FadeStart time.Time `json:"-"`
}

// Obstacle bounces the ball. Radius is fixed at creation and only changes
// through the conversion mechanic.
type Obstacle struct {
	Pos       Vec2      `json:"pos"`
	Radius    float64   `json:"radius"`
	FadeIn    float64   `json:"fadeIn"`
	FadeStart time.Time `json:"-"`
	FadeOut   float64   `json:"fadeOut"`
	Fading    bool      `json:"fading"`
}

// Wall is a polyline; each consecutive point pair is one reflecting segment.
type Wall struct {
	Points []Vec2 `json:"points"`
}

// Door is the end-of-level trophy.
type Door struct {
	Pos       Vec2      `json:"pos"`
	Radius    float64   `json:"radius"`
	FadeIn    float64   `json:"fadeIn"`
	FadeStart time.Time `json:"-"`

	Animating    bool          `json:"animating"`
	From         Vec2          `json:"-"`
	To           Vec2          `json:"-"`
	AnimStart    time.Time     `json:"-"`
	AnimDur      time.Duration `json:"-"`
	ReachedScore bool          `json:"reachedScore"`
	LevelChanged bool          `json:"-"`
}

// TargetKind distinguishes the two convertible target types.
type TargetKind int

const (
	KindNone TargetKind = iota
	KindTeammate
	KindObstacle
)

func (k TargetKind) String() string {
	switch k {
	case KindTeammate:
		return "teammate"
	case KindObstacle:
		return "obstacle"
	default:
		return "none"
	}
}

// Selection is the conversion selection: at most one target is selected.
// Pos identifies the target; Index is its current slot and is re-derived
// whenever the roster or obstacle slices change.
type Selection struct {
	Kind  TargetKind `json:"kind"`
	Index int        `json:"index"`
	Pos   Vec2       `json:"pos"`
}

// Active reports whether a target is selected.
func (s Selection) Active() bool {
	return s.Kind != KindNone
}

// Phase is the shot lifecycle state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseFlinging
	PhaseInFlight
	PhaseCleared
	PhaseStalled
)

func (p Phase) String() string {
	switch p {
	case PhaseFlinging:
		return "flinging"
	case PhaseInFlight:
		return "in_flight"
	case PhaseCleared:
		return "cleared"
	case PhaseStalled:
		return "stalled"
	default:
		return "idle"
	}
}

// Score holds level progression and scoring.
type Score struct {
	Level       int `json:"level"`       // completed-level counter, 1-based for the current level
	Tries       int `json:"tries"`       // shots taken this level
	LevelPoints int `json:"levelPoints"` // reversible on a failed shot
	Total       int `json:"total"`       // running score across levels
	Trophies    int `json:"trophies"`    // completion score
}

// GameState is the complete mutable state of one game instance. It is
// owned by exactly one Engine and mutated only under its lock.
type GameState struct {
	Width  float64
	Height float64

	Ball          Ball
	Team          []Teammate // full roster for the level
	TeamRemaining []Teammate // live working set, positional subset of Team
	Obstacles     []Obstacle
	Walls         []Wall
	Door          *Door

	Selection Selection
	Phase     Phase
	Score     Score

	ShotActive    bool
	AutoReset     bool
	Spawning      bool
	StartPos      Vec2
	HasStartPos   bool
	PendingLevel  bool
	Grade         string
	BannerVisible bool
	LastCollected Vec2

	// Fling gesture
	dragStart   Vec2
	dragCurrent Vec2
	flingFrom   Phase

	// Teammates and points collected since the current shot began; a stall
	// returns exactly these to the roster
	shotCollected []Teammate
	shotPoints    int

	Particles []*Particle
}

// NewGameState creates an empty state for an arena of the given size.
func NewGameState(width, height float64) *GameState {
	return &GameState{
		Width:  width,
		Height: height,
		Score:  Score{Level: 1},
	}
}

// Animating reports whether any animation override is active. While true,
// collisions are skipped and taps that would start a fling are ignored.
func (s *GameState) Animating() bool {
	return s.Spawning || s.AutoReset || (s.Door != nil && s.Door.Animating)
}

// ObstacleCount returns the number of obstacles still in play.
func (s *GameState) ObstacleCount() int {
	return len(s.Obstacles)
}
