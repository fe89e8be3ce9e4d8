package game

import (
	"testing"
	"time"
)

func TestSchedulerRunsInDeadlineOrder(t *testing.T) {
	s := NewScheduler()
	start := time.Unix(1000, 0)

	var order []EffectKind
	record := func(kind EffectKind) func(time.Time) {
		return func(time.Time) { order = append(order, kind) }
	}

	s.After(start, BannerAt, 1, EffectBanner, record(EffectBanner))
	s.After(start, ObstacleFadeAt, 1, EffectObstacleFade, record(EffectObstacleFade))
	s.After(start, DoorPlacementAt, 1, EffectPlaceDoor, record(EffectPlaceDoor))

	if got := s.RunDue(start.Add(999 * time.Millisecond)); got != 0 {
		t.Fatalf("nothing should be due yet, ran %d", got)
	}

	if got := s.RunDue(start.Add(2 * time.Second)); got != 2 {
		t.Fatalf("expected 2 effects due at +2s, ran %d", got)
	}
	if got := s.RunDue(start.Add(3 * time.Second)); got != 1 {
		t.Fatalf("expected banner at +3s, ran %d", got)
	}

	want := []EffectKind{EffectObstacleFade, EffectPlaceDoor, EffectBanner}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %s, want %s", i, order[i], want[i])
		}
	}
	if s.Pending() != 0 {
		t.Errorf("Pending = %d after draining", s.Pending())
	}
}

func TestSchedulerTiesAreFIFO(t *testing.T) {
	s := NewScheduler()
	now := time.Unix(0, 0)

	var got []int
	for i := 0; i < 5; i++ {
		i := i
		s.After(now, time.Second, 1, EffectBanner, func(time.Time) { got = append(got, i) })
	}
	s.RunDue(now.Add(time.Second))

	for i, v := range got {
		if v != i {
			t.Fatalf("tie order = %v, want insertion order", got)
		}
	}
}

func TestSchedulerCancelBefore(t *testing.T) {
	s := NewScheduler()
	now := time.Unix(0, 0)

	fired := false
	s.After(now, time.Second, 1, EffectBanner, func(time.Time) { fired = true })
	s.After(now, 2*time.Second, 1, EffectPlaceDoor, func(time.Time) { fired = true })
	s.After(now, time.Second, 2, EffectObstacleFade, func(time.Time) {})

	if dropped := s.CancelBefore(2); dropped != 2 {
		t.Fatalf("CancelBefore dropped %d, want 2", dropped)
	}
	s.RunDue(now.Add(time.Hour))
	if fired {
		t.Error("cancelled effect from previous level fired")
	}
}

func TestSchedulerNestedScheduling(t *testing.T) {
	s := NewScheduler()
	now := time.Unix(0, 0)

	ran := 0
	s.After(now, time.Second, 1, EffectScoreTrophy, func(at time.Time) {
		ran++
		s.After(at, 0, 1, EffectNextLevel, func(time.Time) { ran++ })
	})

	s.RunDue(now.Add(time.Second))
	if ran != 2 {
		t.Errorf("zero-delay effect scheduled from an effect should run in the same pass, ran=%d", ran)
	}
}

func TestPendingKinds(t *testing.T) {
	s := NewScheduler()
	now := time.Unix(0, 0)
	s.After(now, 3*time.Second, 1, EffectBanner, func(time.Time) {})
	s.After(now, time.Second, 1, EffectObstacleFade, func(time.Time) {})

	kinds := s.PendingKinds()
	if len(kinds) != 2 || kinds[0] != EffectObstacleFade || kinds[1] != EffectBanner {
		t.Errorf("PendingKinds = %v", kinds)
	}
	if s.Pending() != 2 {
		t.Error("PendingKinds must not consume the queue")
	}
}
