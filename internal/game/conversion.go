package game

import "time"

// teammateAt returns the index of the remaining teammate under p, or -1.
// Teammate taps use a true circular test.
func (s *GameState) teammateAt(p Vec2) int {
	r := TeammateRadius(s.Width)
	for i, t := range s.TeamRemaining {
		if Distance(p, t.Pos) < r {
			return i
		}
	}
	return -1
}

// obstacleAt returns the index of the live obstacle under p, or -1.
// Obstacle taps use the looser box test.
func (s *GameState) obstacleAt(p Vec2) int {
	for i, o := range s.Obstacles {
		if o.Fading {
			continue
		}
		if IsNear(p, o.Radius, o.Pos) {
			return i
		}
	}
	return -1
}

// targetPos returns the position of the target at index, if it exists.
func (s *GameState) targetPos(kind TargetKind, index int) (Vec2, bool) {
	switch kind {
	case KindTeammate:
		if index >= 0 && index < len(s.TeamRemaining) {
			return s.TeamRemaining[index].Pos, true
		}
	case KindObstacle:
		if index >= 0 && index < len(s.Obstacles) && !s.Obstacles[index].Fading {
			return s.Obstacles[index].Pos, true
		}
	}
	return Vec2{}, false
}

// syncSelection re-derives the selected slot from its position after the
// slices were compacted or rebuilt. A target that is gone clears the
// selection.
func (s *GameState) syncSelection() {
	sel := &s.Selection
	i := -1
	switch sel.Kind {
	case KindNone:
		return
	case KindTeammate:
		i = indexByPos(s.TeamRemaining, sel.Pos)
	case KindObstacle:
		for j, o := range s.Obstacles {
			if o.Pos == sel.Pos && !o.Fading {
				i = j
				break
			}
		}
	}
	if i < 0 {
		*sel = Selection{}
		return
	}
	sel.Index = i
}

// selectTarget advances the selection machine for a tap on a target.
// A tap on the opposite kind reports the pair to swap and clears the
// selection; a tap on the same kind moves the selection.
func (s *GameState) selectTarget(kind TargetKind, index int) (teammate, obstacle int, swap bool) {
	pos, ok := s.targetPos(kind, index)
	if !ok {
		return -1, -1, false
	}
	s.syncSelection()
	sel := s.Selection
	if !sel.Active() || sel.Kind == kind {
		s.Selection = Selection{Kind: kind, Index: index, Pos: pos}
		return -1, -1, false
	}

	s.Selection = Selection{}
	if kind == KindObstacle {
		return sel.Index, index, true
	}
	return index, sel.Index, true
}

// swapRoles converts teammate ti into an obstacle and obstacle oi into a
// teammate, each keeping its position and slot. The full roster follows
// the live one so restoration stays consistent.
func (s *GameState) swapRoles(ti, oi int) bool {
	if ti < 0 || ti >= len(s.TeamRemaining) || oi < 0 || oi >= len(s.Obstacles) {
		return false
	}
	mate := s.TeamRemaining[ti]
	obs := s.Obstacles[oi]

	s.TeamRemaining[ti] = Teammate{Pos: obs.Pos, FadeIn: 1}
	s.Obstacles[oi] = Obstacle{
		Pos:    mate.Pos,
		Radius: ObstacleRadius(s.Width),
		FadeIn: 1,
	}
	if j := indexByPos(s.Team, mate.Pos); j >= 0 {
		s.Team[j] = Teammate{Pos: obs.Pos, FadeIn: 1}
	}
	return true
}

// tapTarget handles a tap on a teammate or obstacle.
func (e *Engine) tapTarget(kind TargetKind, index int, now time.Time) {
	s := e.state
	ti, oi, swap := s.selectTarget(kind, index)
	if !swap {
		return
	}
	if s.swapRoles(ti, oi) {
		e.emit(EventTypeSwap, now, SwapPayload{TeammateIndex: ti, ObstacleIndex: oi})
	}
}
