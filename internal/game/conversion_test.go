package game

import "testing"

func newSwapState() *GameState {
	s := NewGameState(400, 800)
	s.Team = []Teammate{{Pos: NewVec2(100, 100)}, {Pos: NewVec2(300, 100)}}
	s.TeamRemaining = append([]Teammate(nil), s.Team...)
	s.Obstacles = []Obstacle{
		{Pos: NewVec2(100, 400), Radius: 30},
		{Pos: NewVec2(300, 400), Radius: 30},
	}
	return s
}

func TestSelectionMachine(t *testing.T) {
	s := newSwapState()

	if _, _, swap := s.selectTarget(KindTeammate, 0); swap {
		t.Fatal("first tap must only select")
	}
	if s.Selection != (Selection{Kind: KindTeammate, Index: 0, Pos: NewVec2(100, 100)}) {
		t.Fatalf("selection = %+v", s.Selection)
	}

	// same kind moves the selection
	if _, _, swap := s.selectTarget(KindTeammate, 1); swap {
		t.Fatal("same-kind tap must not swap")
	}
	if s.Selection.Index != 1 {
		t.Errorf("selection did not move: %+v", s.Selection)
	}

	ti, oi, swap := s.selectTarget(KindObstacle, 0)
	if !swap || ti != 1 || oi != 0 {
		t.Fatalf("opposite-kind tap = (%d,%d,%v), want (1,0,true)", ti, oi, swap)
	}
	if s.Selection.Active() {
		t.Error("selection should clear after a swap")
	}

	// obstacle first, teammate second
	s.selectTarget(KindObstacle, 1)
	ti, oi, swap = s.selectTarget(KindTeammate, 0)
	if !swap || ti != 0 || oi != 1 {
		t.Errorf("reverse order = (%d,%d,%v), want (0,1,true)", ti, oi, swap)
	}
}

func TestSwapRolesExchangesPositions(t *testing.T) {
	s := newSwapState()
	mate := s.TeamRemaining[1].Pos
	obs := s.Obstacles[0].Pos

	if !s.swapRoles(1, 0) {
		t.Fatal("swap rejected")
	}

	if len(s.TeamRemaining) != 2 || len(s.Obstacles) != 2 {
		t.Fatalf("counts changed: %d teammates, %d obstacles", len(s.TeamRemaining), len(s.Obstacles))
	}
	if s.TeamRemaining[1].Pos != obs {
		t.Errorf("teammate slot holds %v, want %v", s.TeamRemaining[1].Pos, obs)
	}
	if s.Obstacles[0].Pos != mate {
		t.Errorf("obstacle slot holds %v, want %v", s.Obstacles[0].Pos, mate)
	}
	if s.Obstacles[0].Radius != ObstacleRadius(400) {
		t.Errorf("new obstacle radius = %v, want %v", s.Obstacles[0].Radius, ObstacleRadius(400))
	}
	if s.Obstacles[1].Radius != 30 {
		t.Error("untouched obstacle radius changed")
	}
	if indexByPos(s.Team, obs) < 0 || indexByPos(s.Team, mate) >= 0 {
		t.Error("full roster should follow the swap")
	}
}

func TestSwapRolesRejectsBadIndex(t *testing.T) {
	s := newSwapState()
	if s.swapRoles(5, 0) || s.swapRoles(0, -1) {
		t.Error("out-of-range swap accepted")
	}
}

func TestTapsDriveConversion(t *testing.T) {
	e, _ := newTestEngine(t)
	arrange(e, NewVec2(200, 760),
		[]Vec2{NewVec2(100, 100), NewVec2(300, 100)},
		[]Vec2{NewVec2(100, 400), NewVec2(300, 400)})

	// obstacle taps use a box: the corner of the box still hits
	r := ObstacleRadius(400)
	e.PressStart(NewVec2(300+r*0.9, 400+r*0.9))
	if e.state.Selection != (Selection{Kind: KindObstacle, Index: 1, Pos: NewVec2(300, 400)}) {
		t.Fatalf("obstacle corner tap missed: %+v", e.state.Selection)
	}

	e.PressStart(NewVec2(102, 98))
	s := e.state
	if s.Selection.Active() {
		t.Error("selection should clear after the swap")
	}
	if s.Obstacles[1].Pos != NewVec2(100, 100) || s.TeamRemaining[0].Pos != NewVec2(300, 400) {
		t.Errorf("swap did not happen: team=%v obstacles=%v", s.TeamRemaining, s.Obstacles)
	}

	e.PressStart(NewVec2(300, 100))
	if !s.Selection.Active() {
		t.Fatal("teammate tap should select")
	}
	e.PressStart(NewVec2(200, 600))
	if s.Selection.Active() {
		t.Error("tap on empty space should clear the selection")
	}

	e.PressStart(NewVec2(300, 100))
	e.PressStart(NewVec2(200, 760))
	if s.Selection.Active() {
		t.Error("tap on the ball should clear the selection")
	}
}

func TestTeammateTapIsCircular(t *testing.T) {
	s := newSwapState()
	r := TeammateRadius(400)

	if s.teammateAt(NewVec2(100+r*0.9, 100+r*0.9)) >= 0 {
		t.Error("teammate hit test should be circular, corner of the box matched")
	}
	if s.teammateAt(NewVec2(100+r*0.5, 100)) != 0 {
		t.Error("tap inside the teammate missed")
	}
}

func TestSelectionFollowsTeammateAcrossPickup(t *testing.T) {
	e, clock := newTestEngine(t)
	a, b, c := NewVec2(60, 300), NewVec2(200, 150), NewVec2(340, 300)
	obs := NewVec2(200, 500)
	arrange(e, NewVec2(60, 420), []Vec2{a, b, c}, []Vec2{obs})
	s := e.state

	// Shot in flight toward a; c is selected mid-flight.
	s.Score.Tries = 1
	s.ShotActive = true
	s.Phase = PhaseInFlight
	s.Ball.Vel = NewVec2(0, -30)
	e.PressStart(c)
	if s.Selection.Kind != KindTeammate || s.Selection.Index != 2 {
		t.Fatalf("selection = %+v", s.Selection)
	}

	for i := 0; i < 10 && indexByPos(s.TeamRemaining, a) >= 0; i++ {
		clock.Advance(tick)
		e.Step()
	}
	if indexByPos(s.TeamRemaining, a) >= 0 {
		t.Fatal("ball never collected the first teammate")
	}
	if s.Selection.Index != indexByPos(s.TeamRemaining, c) {
		t.Fatalf("selection index %d does not follow %v: %+v", s.Selection.Index, c, s.TeamRemaining)
	}
	if snap := e.Snapshot(); !snap.Team[s.Selection.Index].Selected {
		t.Error("snapshot highlight is not on the selected teammate")
	}

	e.PressStart(obs)
	if s.Selection.Active() {
		t.Error("selection should clear after the swap")
	}
	if len(s.Obstacles) != 1 || s.Obstacles[0].Pos != c {
		t.Errorf("selected teammate %v was not converted: obstacles=%+v", c, s.Obstacles)
	}
	if indexByPos(s.TeamRemaining, obs) < 0 || indexByPos(s.TeamRemaining, b) < 0 {
		t.Errorf("roster after swap = %+v", s.TeamRemaining)
	}
}

func TestSelectionClearsWhenTargetCollected(t *testing.T) {
	s := newSwapState()
	s.selectTarget(KindTeammate, 1)

	s.Ball.Pos = NewVec2(300, 100)
	collectTeammates(s)
	s.syncSelection()

	if s.Selection.Active() {
		t.Errorf("selection survived its teammate: %+v", s.Selection)
	}
	if _, _, swap := s.selectTarget(KindObstacle, 0); swap {
		t.Error("swap fired against a collected teammate")
	}
}
