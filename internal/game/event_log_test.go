package game

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestEventLogWritesJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	el := NewEventLog()
	if err := el.Start(path); err != nil {
		t.Fatalf("Start: %v", err)
	}

	el.EmitSimple(EventTypeLevelStart, testEpoch, 1, "s_a", LevelStartPayload{Level: 1, Teammates: 5, Obstacles: 3})
	el.EmitSimple(EventTypeFling, testEpoch, 2, "s_a", FlingPayload{Tries: 1, VY: -10})
	el.EmitSimple(EventTypeSwap, testEpoch, 3, "s_b", SwapPayload{TeammateIndex: 0, ObstacleIndex: 2})
	el.Stop()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	var types []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var line struct {
			Type      string `json:"type"`
			SessionID string `json:"sessionId"`
			Sequence  uint64 `json:"sequence"`
		}
		if err := json.Unmarshal(sc.Bytes(), &line); err != nil {
			t.Fatalf("bad line %q: %v", sc.Text(), err)
		}
		types = append(types, line.Type)
	}

	want := []string{"level_start", "fling", "swap"}
	if len(types) != len(want) {
		t.Fatalf("types = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("line %d type = %s, want %s", i, types[i], want[i])
		}
	}
	if el.GetTotalCount() != 3 {
		t.Errorf("total = %d", el.GetTotalCount())
	}
}

func TestEventLogNilAndStoppedAreNoops(t *testing.T) {
	var nilLog *EventLog
	if nilLog.EmitSimple(EventTypeStall, testEpoch, 1, "x", nil) {
		t.Error("nil log accepted an event")
	}

	el := NewEventLog()
	if el.EmitSimple(EventTypeStall, testEpoch, 1, "x", nil) {
		t.Error("log that was never started accepted an event")
	}
}

func TestEventLogSessionRateLimit(t *testing.T) {
	el := NewEventLog()
	if err := el.Start(""); err != nil {
		t.Fatal(err)
	}
	defer el.Stop()

	accepted := 0
	for i := 0; i < MaxEventsPerSession*2; i++ {
		if el.EmitSimple(EventTypePickup, testEpoch, uint64(i), "noisy", PickupPayload{}) {
			accepted++
		}
	}
	if accepted >= MaxEventsPerSession*2 {
		t.Error("per-session limiter never kicked in")
	}
	if el.GetDroppedCount() == 0 {
		t.Error("drops were not counted")
	}
}
