package game

import "time"

// Simulation tuning. The predictive continuation check reads the same
// constants as the live simulation; keep them in one place.
const (
	Friction        = 0.99 // velocity multiplier applied after each displacement
	StopSpeed       = 10.0 // px/tick below which a shot may be declared stalled
	PredictTicks    = 90   // look-ahead horizon (~3s at 30 TPS)
	PredictMinSpeed = 0.5  // look-ahead stops once the virtual ball is this slow

	ObstacleNudge    = 0.5 // outward velocity added on obstacle bounce
	ObstacleClearGap = 1.0 // post-bounce separation beyond touching

	PlacementAttempts = 100
	PlacementGap      = 5.0
	BottomBandFactor  = 8.0 // exclusion band height in ball radii

	TeammateCount      = 5
	FirstLevelObstacle = 3
	ObstacleCount      = 5
	FewerSpritesCount  = 5 // both counts stay at 5; "one fewer" is intentionally not applied

	FlingGain = 0.25 // drag delta (px) to velocity (px/tick)
)

// Animation and staged-reveal timings.
const (
	SpawnDuration   = 700 * time.Millisecond
	ResetDuration   = 1000 * time.Millisecond
	FadeInDuration  = 500 * time.Millisecond
	TrophyFlight    = 800 * time.Millisecond
	ObstacleFadeAt  = 1000 * time.Millisecond
	DoorPlacementAt = 2000 * time.Millisecond
	BannerAt        = 3000 * time.Millisecond
	NextLevelDelay  = 400 * time.Millisecond

	ObstacleFadeStep = 0.05 // fade-out per tick once an obstacle is fading
)

// Particle tuning.
const (
	PickupParticles   = 12
	ObstacleParticles = 8
	ParticleDecay     = 0.04
)

// Grades shown on the result banner.
const (
	GradeGood = "GOOD JOB"
	GradeOK   = "OK JOB"
	GradeBad  = "BAD JOB"
)

// Shim is the arena margin unit; it doubles as the wall contact distance.
// Derived sizes are recomputed from the current arena on every call.
func Shim(arenaWidth float64) float64 { return arenaWidth / 10 }

// BallRadius returns the cue ball radius for the given arena width.
func BallRadius(arenaWidth float64) float64 { return arenaWidth / 20 }

// TeammateRadius returns the teammate (and trophy) radius.
func TeammateRadius(arenaWidth float64) float64 { return arenaWidth / 20 }

// ObstacleRadius returns the radius assigned to newly created obstacles.
func ObstacleRadius(arenaWidth float64) float64 { return arenaWidth / 16 }
