package game

import (
	"container/heap"
	"time"
)

// EffectKind labels a scheduled effect for logging and tests.
type EffectKind string

const (
	EffectObstacleFade EffectKind = "obstacle_fade"
	EffectPlaceDoor    EffectKind = "place_door"
	EffectBanner       EffectKind = "banner"
	EffectScoreTrophy  EffectKind = "score_trophy"
	EffectNextLevel    EffectKind = "next_level"
)

// scheduled is one fire-once callback keyed by its wall-clock deadline.
type scheduled struct {
	deadline time.Time
	seq      uint64 // insertion order breaks deadline ties
	level    int
	kind     EffectKind
	fn       func(now time.Time)
}

type effectQueue []*scheduled

func (q effectQueue) Len() int { return len(q) }

func (q effectQueue) Less(i, j int) bool {
	if q[i].deadline.Equal(q[j].deadline) {
		return q[i].seq < q[j].seq
	}
	return q[i].deadline.Before(q[j].deadline)
}

func (q effectQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *effectQueue) Push(x any) { *q = append(*q, x.(*scheduled)) }

func (q *effectQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

// Scheduler runs staged reveal effects from the tick handler. It is not
// safe for concurrent use; the engine lock serializes access.
type Scheduler struct {
	queue effectQueue
	seq   uint64
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// After schedules fn to run once the clock reaches now+d. Deadlines are
// computed at schedule time.
func (s *Scheduler) After(now time.Time, d time.Duration, level int, kind EffectKind, fn func(now time.Time)) {
	s.seq++
	heap.Push(&s.queue, &scheduled{
		deadline: now.Add(d),
		seq:      s.seq,
		level:    level,
		kind:     kind,
		fn:       fn,
	})
}

// RunDue runs every effect whose deadline is at or before now, in deadline
// order, and returns how many ran. Effects scheduled by a running effect
// are eligible in the same call if already due.
func (s *Scheduler) RunDue(now time.Time) int {
	ran := 0
	for len(s.queue) > 0 && !s.queue[0].deadline.After(now) {
		item := heap.Pop(&s.queue).(*scheduled)
		item.fn(now)
		ran++
	}
	return ran
}

// CancelBefore drops every pending effect that belongs to a level earlier
// than level, so a new level never sees the previous level's reveals.
func (s *Scheduler) CancelBefore(level int) int {
	kept := s.queue[:0]
	dropped := 0
	for _, item := range s.queue {
		if item.level < level {
			dropped++
			continue
		}
		kept = append(kept, item)
	}
	for i := len(kept); i < len(s.queue); i++ {
		s.queue[i] = nil
	}
	s.queue = kept
	heap.Init(&s.queue)
	return dropped
}

// Pending returns the number of scheduled effects.
func (s *Scheduler) Pending() int {
	return len(s.queue)
}

// PendingKinds lists pending effect kinds in deadline order.
func (s *Scheduler) PendingKinds() []EffectKind {
	sorted := make(effectQueue, len(s.queue))
	copy(sorted, s.queue)
	kinds := make([]EffectKind, 0, len(sorted))
	for sorted.Len() > 0 {
		kinds = append(kinds, heap.Pop(&sorted).(*scheduled).kind)
	}
	return kinds
}
