package game

import (
	"log"
	"time"
)

// beginFling starts a drag on the ball. The caller has already applied the
// speed gate.
func (e *Engine) beginFling(p Vec2) {
	s := e.state
	if s.ShotActive || s.Phase == PhaseFlinging {
		return
	}
	s.flingFrom = s.Phase
	s.Phase = PhaseFlinging
	s.Ball.BeingFlung = true
	s.dragStart = p
	s.dragCurrent = p
}

// releaseFling converts the drag into a velocity. A zero-length drag is
// cancelled without counting a try. Flings after the level is cleared only
// steer the ball toward the trophy and never start a shot.
func (e *Engine) releaseFling(now time.Time) {
	s := e.state
	if s.Phase != PhaseFlinging {
		return
	}
	s.Ball.BeingFlung = false
	s.Phase = s.flingFrom

	delta := s.dragCurrent.Minus(s.dragStart)
	if delta.IsZero() {
		return
	}
	s.Ball.Vel = delta.Times(FlingGain)

	if s.PendingLevel {
		return
	}
	s.Score.Tries++
	s.ShotActive = true
	s.shotCollected = s.shotCollected[:0]
	s.shotPoints = 0
	s.Phase = PhaseInFlight

	e.emit(EventTypeFling, now, FlingPayload{
		Tries: s.Score.Tries,
		VX:    s.Ball.Vel.X,
		VY:    s.Ball.Vel.Y,
	})
}

// checkStall runs when an active shot has dropped below StopSpeed. The shot
// survives if the straight-line look-ahead would still clear the roster.
func (e *Engine) checkStall(now time.Time) {
	s := e.state
	if len(s.TeamRemaining) == 0 {
		return
	}
	w := s.Width
	if willClearAllTeammatesOnCurrentPath(s.Ball.Pos, s.Ball.Vel, s.TeamRemaining, BallRadius(w), TeammateRadius(w)) {
		return
	}
	e.stall(now)
}

// stall fails the current shot: the ball glides back to the level's start
// position and teammates collected during the shot return.
func (e *Engine) stall(now time.Time) {
	s := e.state
	s.ShotActive = false
	s.Phase = PhaseStalled
	s.AutoReset = true

	target := s.StartPos
	if !s.HasStartPos {
		log.Printf("⚠️ [%s] no saved start position, resetting in place", e.id)
		target = s.Ball.Pos
	}
	from := s.Ball.Pos
	startGlide(&s.Ball, target, now, ResetDuration)

	restored := s.restoreRoster(now)
	s.Score.LevelPoints -= s.shotPoints
	s.shotPoints = 0
	s.shotCollected = s.shotCollected[:0]

	e.emit(EventTypeStall, now, StallPayload{X: from.X, Y: from.Y, Restored: restored})
	if e.hooks.OnStall != nil {
		e.hooks.OnStall(e.id)
	}
}

// restoreRoster returns the teammates collected during the failed shot to
// TeamRemaining, in roster order, each with a fresh fade-in starting at now.
// Returns how many returned.
func (s *GameState) restoreRoster(now time.Time) int {
	rebuilt := make([]Teammate, 0, len(s.Team))
	restored := 0
	for _, t := range s.Team {
		if i := indexByPos(s.TeamRemaining, t.Pos); i >= 0 {
			rebuilt = append(rebuilt, s.TeamRemaining[i])
			continue
		}
		if indexByPos(s.shotCollected, t.Pos) < 0 {
			continue
		}
		t.FadeIn = 0
		t.FadeStart = now
		rebuilt = append(rebuilt, t)
		restored++
	}
	s.TeamRemaining = rebuilt
	s.syncSelection()
	return restored
}

func indexByPos(team []Teammate, pos Vec2) int {
	for i, t := range team {
		if t.Pos == pos {
			return i
		}
	}
	return -1
}

// finishGlide ends a spawn or reset glide and hands control back to input.
func (s *GameState) finishGlide() {
	s.Spawning = false
	s.AutoReset = false
	if s.Phase != PhaseCleared {
		s.Phase = PhaseIdle
	}
}

// onPickup scores every teammate struck this tick and starts the clear
// sequence once the roster is empty.
func (e *Engine) onPickup(hit []Teammate, now time.Time) {
	s := e.state
	for _, t := range hit {
		pts := PointsForTries(s.Score.Tries)
		s.Score.LevelPoints += pts
		s.shotPoints += pts
		s.shotCollected = append(s.shotCollected, t)
		s.Particles = burst(s.Particles, e.rng, t.Pos, PickupParticles, PickupColor, e.maxParticles)

		e.emit(EventTypePickup, now, PickupPayload{
			X:         t.Pos.X,
			Y:         t.Pos.Y,
			Points:    pts,
			Remaining: len(s.TeamRemaining),
		})
	}

	if len(s.TeamRemaining) == 0 && s.Phase != PhaseCleared {
		e.clearLevel(now, hit[len(hit)-1].Pos)
	}
}
