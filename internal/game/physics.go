package game

import (
	"math"
	"time"
)

// integrate advances the ball one tick: displacement first, then friction.
func integrate(b *Ball) {
	b.Pos = b.Pos.Plus(b.Vel)
	b.Vel = b.Vel.Times(Friction)
}

// glideBall drives the ball along its spawn or reset glide. It reports
// whether the glide finished on this call; the final position is set to the
// destination exactly.
func glideBall(b *Ball, now time.Time) bool {
	b.Vel = Vec2{}
	t := 1.0
	if b.AnimDur > 0 {
		t = clamp01(float64(now.Sub(b.AnimStart)) / float64(b.AnimDur))
	}
	if t >= 1 {
		b.Pos = b.AnimTo
		b.Animating = false
		return true
	}
	b.Pos = b.AnimFrom.Lerp(b.AnimTo, EaseOut(t))
	return false
}

// startGlide begins an eased glide from the ball's current position.
func startGlide(b *Ball, to Vec2, now time.Time, d time.Duration) {
	b.AnimFrom = b.Pos
	b.AnimTo = to
	b.AnimStart = now
	b.AnimDur = d
	b.Animating = true
	b.Vel = Vec2{}
	b.BeingFlung = false
}

// reflectWalls reflects the ball's velocity off every wall segment whose
// closest point lies within shim of the ball's center and which the ball is
// approaching. Position is never corrected.
func reflectWalls(s *GameState) int {
	reach := Shim(s.Width)
	hits := 0
	for _, w := range s.Walls {
		for i := 0; i+1 < len(w.Points); i++ {
			a, b := w.Points[i], w.Points[i+1]
			cp := ClosestPointOnSegment(s.Ball.Pos, a, b)
			offset := s.Ball.Pos.Minus(cp)
			if offset.Magnitude() >= reach {
				continue
			}
			if s.Ball.Vel.Dot(offset) >= 0 {
				continue
			}

			n := b.Minus(a).LeftNormal().Normalize()
			if n.IsZero() {
				n = offset.Normalize()
			}
			if n.IsZero() {
				continue
			}
			s.Ball.Vel = reflect(s.Ball.Vel, n)
			hits++
		}
	}
	return hits
}

// reflect returns v mirrored about the unit normal n.
func reflect(v, n Vec2) Vec2 {
	return v.Minus(n.Times(2 * v.Dot(n)))
}

// bounceObstacles resolves ball/obstacle overlaps: the ball is pushed out to
// collisionDistance+ObstacleClearGap along the contact normal, its velocity
// is reflected when approaching, and a small outward nudge is added.
func bounceObstacles(s *GameState) int {
	ballR := BallRadius(s.Width)
	hits := 0
	for _, o := range s.Obstacles {
		if o.Fading {
			continue
		}
		collision := ballR + o.Radius
		offset := s.Ball.Pos.Minus(o.Pos)
		dist := offset.Magnitude()
		if dist >= collision {
			continue
		}

		n := offset.Normalize()
		if n.IsZero() {
			n = Vec2{X: 0, Y: -1}
		}
		s.Ball.Pos = o.Pos.Plus(n.Times(collision + ObstacleClearGap))
		if s.Ball.Vel.Dot(n) < 0 {
			s.Ball.Vel = reflect(s.Ball.Vel, n)
		}
		s.Ball.Vel = s.Ball.Vel.Plus(n.Times(ObstacleNudge))
		hits++
	}
	return hits
}

// bounceEdges clamps the ball inside the arena and flips the crossing axis.
func bounceEdges(s *GameState) bool {
	r := BallRadius(s.Width)
	b := &s.Ball
	hit := false

	if b.Pos.X-r < 0 {
		b.Pos.X = r
		b.Vel.X = math.Abs(b.Vel.X)
		hit = true
	} else if b.Pos.X+r > s.Width {
		b.Pos.X = s.Width - r
		b.Vel.X = -math.Abs(b.Vel.X)
		hit = true
	}

	if b.Pos.Y-r < 0 {
		b.Pos.Y = r
		b.Vel.Y = math.Abs(b.Vel.Y)
		hit = true
	} else if b.Pos.Y+r > s.Height {
		b.Pos.Y = s.Height - r
		b.Vel.Y = -math.Abs(b.Vel.Y)
		hit = true
	}
	return hit
}

// collectTeammates removes every remaining teammate the ball overlaps and
// returns them in roster order.
func collectTeammates(s *GameState) []Teammate {
	reach := BallRadius(s.Width) + TeammateRadius(s.Width)
	var hit []Teammate
	kept := s.TeamRemaining[:0]
	for _, t := range s.TeamRemaining {
		if Distance(s.Ball.Pos, t.Pos) < reach {
			hit = append(hit, t)
			continue
		}
		kept = append(kept, t)
	}
	s.TeamRemaining = kept
	return hit
}

// touchesDoor reports first contact between the ball and a visible trophy.
func touchesDoor(s *GameState) bool {
	d := s.Door
	if d == nil || d.Animating || d.ReachedScore {
		return false
	}
	return Distance(s.Ball.Pos, d.Pos) < BallRadius(s.Width)+d.Radius
}

// flyDoor advances the trophy toward the score indicator. It reports
// whether the flight finished on this call.
func flyDoor(d *Door, now time.Time) bool {
	t := 1.0
	if d.AnimDur > 0 {
		t = clamp01(float64(now.Sub(d.AnimStart)) / float64(d.AnimDur))
	}
	if t >= 1 {
		d.Pos = d.To
		d.Animating = false
		d.ReachedScore = true
		return true
	}
	d.Pos = d.From.Lerp(d.To, EaseOut(t))
	return false
}

// willClearAllTeammatesOnCurrentPath replays up to PredictTicks of
// straight-line, friction-only motion and reports whether every teammate
// in remaining would be touched. Walls and obstacles are ignored.
func willClearAllTeammatesOnCurrentPath(pos, vel Vec2, remaining []Teammate, ballR, mateR float64) bool {
	left := make([]Vec2, len(remaining))
	for i, t := range remaining {
		left[i] = t.Pos
	}
	reach := ballR + mateR
	dropTouched := func(pos Vec2) {
		kept := left[:0]
		for _, p := range left {
			if Distance(pos, p) >= reach {
				kept = append(kept, p)
			}
		}
		left = kept
	}

	// Overlaps at the current position are collected later this same tick.
	dropTouched(pos)
	for tick := 0; tick < PredictTicks && len(left) > 0; tick++ {
		if vel.Magnitude() < PredictMinSpeed {
			break
		}
		pos = pos.Plus(vel)
		vel = vel.Times(Friction)
		dropTouched(pos)
	}
	return len(left) == 0
}
