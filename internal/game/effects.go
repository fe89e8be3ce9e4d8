package game

import (
	"math"
	"math/rand"
	"time"
)

// Particle colors
const (
	PickupColor   = "#4ade80"
	ObstacleColor = "#f87171"
)

// Particle is a short-lived visual spark. Particles never affect gameplay.
type Particle struct {
	Pos   Vec2
	Vel   Vec2
	Life  float64 // 1 at spawn, removed at 0
	Color string
}

// Update moves the particle and decays its life.
// Returns false once the particle should be removed.
func (p *Particle) Update() bool {
	p.Pos = p.Pos.Plus(p.Vel)
	p.Vel = p.Vel.Times(0.92)
	p.Life -= ParticleDecay
	return p.Life > 0
}

// burst appends count particles radiating from pos, never exceeding limit.
func burst(particles []*Particle, rng *rand.Rand, pos Vec2, count int, color string, limit int) []*Particle {
	for i := 0; i < count; i++ {
		if limit > 0 && len(particles) >= limit {
			break
		}
		angle := rng.Float64() * 2 * math.Pi
		speed := 1 + rng.Float64()*3
		particles = append(particles, &Particle{
			Pos:   pos,
			Vel:   Vec2{X: math.Cos(angle) * speed, Y: math.Sin(angle) * speed},
			Life:  1,
			Color: color,
		})
	}
	return particles
}

// updateParticles advances every particle and filters dead ones in place.
func updateParticles(particles []*Particle) []*Particle {
	alive := particles[:0]
	for _, p := range particles {
		if p.Update() {
			alive = append(alive, p)
		}
	}
	for i := len(alive); i < len(particles); i++ {
		particles[i] = nil
	}
	return alive
}

// fadeProgress maps the time since start onto [0,1] over FadeInDuration.
func fadeProgress(now, start time.Time) float64 {
	if start.IsZero() {
		return 1
	}
	return clamp01(float64(now.Sub(start)) / float64(FadeInDuration))
}

// updateFades advances time-based fade-ins and per-tick obstacle fade-outs.
// Fully faded obstacles are purged.
func (s *GameState) updateFades(now time.Time) {
	for i := range s.TeamRemaining {
		s.TeamRemaining[i].FadeIn = fadeProgress(now, s.TeamRemaining[i].FadeStart)
	}

	kept := s.Obstacles[:0]
	for _, o := range s.Obstacles {
		o.FadeIn = fadeProgress(now, o.FadeStart)
		if o.Fading {
			o.FadeOut -= ObstacleFadeStep
			if o.FadeOut <= 0 {
				continue
			}
		}
		kept = append(kept, o)
	}
	purged := len(kept) != len(s.Obstacles)
	s.Obstacles = kept
	if purged {
		s.syncSelection()
	}

	if s.Door != nil {
		s.Door.FadeIn = fadeProgress(now, s.Door.FadeStart)
	}
}
