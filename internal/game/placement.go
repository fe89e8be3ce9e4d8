package game

import (
	"log"
	"math/rand"
)

// Circle is a placed or excluded disc.
type Circle struct {
	Pos    Vec2
	Radius float64
}

// Region bounds the centers a placement may sample.
type Region struct {
	MinX, MaxX float64
	MinY, MaxY float64
}

// PlacementResult is the outcome of placing N circles. GaveUp[i] is true
// when circle i exhausted its retries and the last sample was accepted.
type PlacementResult struct {
	Positions []Vec2
	GaveUp    []bool
}

// Fallbacks counts the circles that were accepted without validation.
func (r PlacementResult) Fallbacks() int {
	n := 0
	for _, g := range r.GaveUp {
		if g {
			n++
		}
	}
	return n
}

// Layout is a freshly generated level.
type Layout struct {
	Ball      Vec2
	Team      []Vec2
	Obstacles []Circle
	Fallbacks int
}

// LevelOptions tweaks entity counts for a generated level.
type LevelOptions struct {
	// FewerSprites forces both counts to FewerSpritesCount.
	FewerSprites bool
}

// Placer scatters non-overlapping entities. Radii are derived from the
// arena size passed to each call and never cached.
type Placer struct {
	rng *rand.Rand
}

// NewPlacer creates a placer drawing from rng.
func NewPlacer(rng *rand.Rand) *Placer {
	return &Placer{rng: rng}
}

// EntityRegion is the sampling region for a target of radius r: inside the
// arena and above the bottom exclusion band that protects the launch zone.
func EntityRegion(width, height, r float64) Region {
	band := BottomBandFactor * BallRadius(width)
	reg := Region{
		MinX: r,
		MaxX: width - r,
		MinY: r,
		MaxY: height - band - r,
	}
	if reg.MaxX < reg.MinX {
		reg.MaxX = reg.MinX
	}
	if reg.MaxY < reg.MinY {
		reg.MaxY = reg.MinY
	}
	return reg
}

func (p *Placer) sample(reg Region) Vec2 {
	return Vec2{
		X: reg.MinX + p.rng.Float64()*(reg.MaxX-reg.MinX),
		Y: reg.MinY + p.rng.Float64()*(reg.MaxY-reg.MinY),
	}
}

// PlaceCircles places n circles of the given radius inside reg. Each one
// keeps radius+other.Radius+PlacementGap away from every exclusion and from
// the circles placed before it. After PlacementAttempts failed samples the
// last one is accepted unconditionally.
func (p *Placer) PlaceCircles(n int, radius float64, reg Region, exclusions []Circle) PlacementResult {
	res := PlacementResult{
		Positions: make([]Vec2, 0, n),
		GaveUp:    make([]bool, 0, n),
	}
	placed := make([]Circle, 0, len(exclusions)+n)
	placed = append(placed, exclusions...)

	for i := 0; i < n; i++ {
		var candidate Vec2
		ok := false
		for attempt := 0; attempt < PlacementAttempts; attempt++ {
			candidate = p.sample(reg)
			if clearOf(candidate, radius, placed) {
				ok = true
				break
			}
		}
		if !ok {
			log.Printf("⚠️ placement gave up after %d attempts, accepting (%.0f, %.0f)",
				PlacementAttempts, candidate.X, candidate.Y)
		}
		res.Positions = append(res.Positions, candidate)
		res.GaveUp = append(res.GaveUp, !ok)
		placed = append(placed, Circle{Pos: candidate, Radius: radius})
	}
	return res
}

func clearOf(pos Vec2, radius float64, others []Circle) bool {
	for _, o := range others {
		if IsNear(pos, radius+o.Radius+PlacementGap, o.Pos) {
			return false
		}
	}
	return true
}

// PlaceBall returns the launch position: random x, near the bottom edge.
func (p *Placer) PlaceBall(width, height float64) Vec2 {
	r := BallRadius(width)
	x := r + p.rng.Float64()*(width-2*r)
	if width < 2*r {
		x = width / 2
	}
	y := height - Shim(width)
	if y > height-r {
		y = height - r
	}
	if y < r {
		y = r
	}
	return Vec2{X: x, Y: y}
}

// LevelCounts returns (teammates, obstacles) for a level.
func LevelCounts(level int, opts LevelOptions) (int, int) {
	if opts.FewerSprites {
		return FewerSpritesCount, FewerSpritesCount
	}
	if level <= 1 {
		return TeammateCount, FirstLevelObstacle
	}
	return TeammateCount, ObstacleCount
}

// GenerateLevel places the ball, then teammates against the ball, then
// obstacles against the ball and the teammates.
func (p *Placer) GenerateLevel(level int, width, height float64, opts LevelOptions) Layout {
	nTeam, nObs := LevelCounts(level, opts)
	ballR := BallRadius(width)
	mateR := TeammateRadius(width)
	obsR := ObstacleRadius(width)

	ball := p.PlaceBall(width, height)
	exclusions := []Circle{{Pos: ball, Radius: ballR}}

	team := p.PlaceCircles(nTeam, mateR, EntityRegion(width, height, mateR), exclusions)
	for _, pos := range team.Positions {
		exclusions = append(exclusions, Circle{Pos: pos, Radius: mateR})
	}

	obs := p.PlaceCircles(nObs, obsR, EntityRegion(width, height, obsR), exclusions)
	obstacles := make([]Circle, len(obs.Positions))
	for i, pos := range obs.Positions {
		obstacles[i] = Circle{Pos: pos, Radius: obsR}
	}

	return Layout{
		Ball:      ball,
		Team:      team.Positions,
		Obstacles: obstacles,
		Fallbacks: team.Fallbacks() + obs.Fallbacks(),
	}
}

// PlaceDoor picks a trophy position clear of the ball and the obstacles.
func (p *Placer) PlaceDoor(width, height float64, ball Vec2, obstacles []Obstacle) (Vec2, bool) {
	r := TeammateRadius(width)
	exclusions := make([]Circle, 0, len(obstacles)+1)
	exclusions = append(exclusions, Circle{Pos: ball, Radius: BallRadius(width)})
	for _, o := range obstacles {
		exclusions = append(exclusions, Circle{Pos: o.Pos, Radius: o.Radius})
	}
	res := p.PlaceCircles(1, r, EntityRegion(width, height, r), exclusions)
	return res.Positions[0], res.GaveUp[0]
}
