package game

import (
	"log"
	"math"
	"time"
)

// PointsForTries is the award for one teammate: round(100 / max(tries, 1)).
func PointsForTries(tries int) int {
	if tries < 1 {
		tries = 1
	}
	return int(math.Round(100 / float64(tries)))
}

// GradeFor rates a cleared level from the shot count against the number
// of obstacles in play when the level was cleared.
func GradeFor(tries, obstacles int) string {
	switch {
	case tries == 1:
		return GradeGood
	case tries < obstacles-1:
		return GradeGood
	case tries <= obstacles+1:
		return GradeOK
	default:
		return GradeBad
	}
}

// startLevel generates the current level and glides the ball in from below
// the arena. Effects left over from earlier levels are cancelled.
func (e *Engine) startLevel(now time.Time) {
	s := e.state
	level := s.Score.Level
	if dropped := e.sched.CancelBefore(level); dropped > 0 {
		log.Printf("🧹 [%s] cancelled %d effects from previous levels", e.id, dropped)
	}

	layout := e.placer.GenerateLevel(level, s.Width, s.Height, e.opts)

	s.Team = make([]Teammate, len(layout.Team))
	for i, pos := range layout.Team {
		s.Team[i] = Teammate{Pos: pos, FadeStart: now}
	}
	s.TeamRemaining = append([]Teammate(nil), s.Team...)

	s.Obstacles = make([]Obstacle, len(layout.Obstacles))
	for i, c := range layout.Obstacles {
		s.Obstacles[i] = Obstacle{Pos: c.Pos, Radius: c.Radius, FadeStart: now}
	}

	s.Walls = nil
	s.Door = nil
	s.Selection = Selection{}
	s.Phase = PhaseIdle
	s.ShotActive = false
	s.AutoReset = false
	s.PendingLevel = false
	s.Grade = ""
	s.BannerVisible = false
	s.LastCollected = Vec2{}
	s.shotCollected = nil
	s.shotPoints = 0
	s.Score.Tries = 0
	s.Score.LevelPoints = 0

	s.StartPos = layout.Ball
	s.HasStartPos = true
	s.Ball = Ball{Pos: Vec2{X: layout.Ball.X, Y: s.Height + BallRadius(s.Width)}}
	startGlide(&s.Ball, layout.Ball, now, SpawnDuration)
	s.Spawning = true

	if layout.Fallbacks > 0 {
		e.emit(EventTypePlacementFallback, now, PlacementFallbackPayload{What: "level", Count: layout.Fallbacks})
		if e.hooks.OnPlacementFallback != nil {
			e.hooks.OnPlacementFallback(e.id, layout.Fallbacks)
		}
	}
	e.emit(EventTypeLevelStart, now, LevelStartPayload{
		Level:     level,
		Teammates: len(s.Team),
		Obstacles: len(s.Obstacles),
		BallX:     layout.Ball.X,
		BallY:     layout.Ball.Y,
	})
}

// clearLevel freezes the shot, grades it, and stages the reveal effects.
func (e *Engine) clearLevel(now time.Time, last Vec2) {
	s := e.state
	s.ShotActive = false
	s.Phase = PhaseCleared
	s.PendingLevel = true
	s.LastCollected = last
	s.Selection = Selection{}
	s.Grade = GradeFor(s.Score.Tries, len(s.Obstacles))
	s.shotCollected = s.shotCollected[:0]
	s.shotPoints = 0

	level := s.Score.Level
	e.sched.After(now, ObstacleFadeAt, level, EffectObstacleFade, e.fadeObstacles)
	e.sched.After(now, DoorPlacementAt, level, EffectPlaceDoor, e.placeDoor)
	e.sched.After(now, BannerAt, level, EffectBanner, func(time.Time) {
		e.state.BannerVisible = true
	})

	log.Printf("🏁 [%s] level %d cleared in %d tries: %s", e.id, level, s.Score.Tries, s.Grade)
	e.emit(EventTypeLevelCleared, now, LevelClearedPayload{
		Level:     level,
		Tries:     s.Score.Tries,
		Obstacles: len(s.Obstacles),
		Grade:     s.Grade,
	})
	if e.hooks.OnLevelCleared != nil {
		e.hooks.OnLevelCleared(e.id, level, s.Grade)
	}
}

// fadeObstacles starts every obstacle's fade-out with a spark burst.
func (e *Engine) fadeObstacles(time.Time) {
	s := e.state
	for i := range s.Obstacles {
		o := &s.Obstacles[i]
		if o.Fading {
			continue
		}
		o.Fading = true
		o.FadeOut = 1
		s.Particles = burst(s.Particles, e.rng, o.Pos, ObstacleParticles, ObstacleColor, e.maxParticles)
	}
	if s.Selection.Kind == KindObstacle {
		s.Selection = Selection{}
	}
}

// placeDoor reveals the trophy away from the ball and any obstacles left.
func (e *Engine) placeDoor(now time.Time) {
	s := e.state
	pos, gaveUp := e.placer.PlaceDoor(s.Width, s.Height, s.Ball.Pos, s.Obstacles)
	if gaveUp {
		e.emit(EventTypePlacementFallback, now, PlacementFallbackPayload{What: "door", Count: 1})
		if e.hooks.OnPlacementFallback != nil {
			e.hooks.OnPlacementFallback(e.id, 1)
		}
	}
	s.Door = &Door{
		Pos:       pos,
		Radius:    TeammateRadius(s.Width),
		FadeStart: now,
	}
}

// onDoorContact launches the trophy toward the score indicator.
func (e *Engine) onDoorContact(now time.Time) {
	s := e.state
	d := s.Door
	shim := Shim(s.Width)

	d.Animating = true
	d.From = d.Pos
	d.To = Vec2{X: s.Width - shim, Y: shim}
	d.AnimStart = now
	d.AnimDur = TrophyFlight
	s.PendingLevel = true
	s.Ball.Vel = Vec2{}
}

// onDoorArrived stages the trophy award and the next level.
func (e *Engine) onDoorArrived(now time.Time) {
	level := e.state.Score.Level
	e.sched.After(now, 0, level, EffectScoreTrophy, e.scoreTrophy)
	e.sched.After(now, NextLevelDelay, level, EffectNextLevel, e.advanceLevel)
}

func (e *Engine) scoreTrophy(now time.Time) {
	s := e.state
	s.Score.Trophies++
	s.Score.Total += s.Score.LevelPoints

	e.emit(EventTypeTrophy, now, TrophyPayload{Trophies: s.Score.Trophies, Total: s.Score.Total})
	if e.hooks.OnTrophy != nil {
		e.hooks.OnTrophy(e.id, s.Score.Trophies, s.Score.Total)
	}
}

// advanceLevel moves to the next level exactly once per trophy.
func (e *Engine) advanceLevel(now time.Time) {
	s := e.state
	if s.Door == nil || s.Door.LevelChanged {
		return
	}
	s.Door.LevelChanged = true
	s.Score.Level++
	e.startLevel(now)
}
