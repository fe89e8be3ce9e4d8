package game

import (
	"encoding/json"
	"time"
)

// EventType classifies domain events written to the event log.
type EventType uint8

const (
	EventTypeUnknown EventType = iota
	EventTypeLevelStart
	EventTypeFling
	EventTypePickup
	EventTypeStall
	EventTypeLevelCleared
	EventTypeTrophy
	EventTypeSwap
	EventTypePlacementFallback
)

// EventVersion for backwards compatibility in replay
const EventVersion uint8 = 1

// Event is one entry in the event log.
type Event struct {
	Version   uint8           `json:"version"`
	Type      EventType       `json:"type"`
	Timestamp int64           `json:"timestamp"` // Unix nano, from the engine clock
	Sequence  uint64          `json:"sequence"`
	TickNum   uint64          `json:"tickNum"`
	SessionID string          `json:"sessionId"` // per-session rate limiting key
	Payload   json.RawMessage `json:"payload"`
}

func (t EventType) String() string {
	switch t {
	case EventTypeLevelStart:
		return "level_start"
	case EventTypeFling:
		return "fling"
	case EventTypePickup:
		return "pickup"
	case EventTypeStall:
		return "stall"
	case EventTypeLevelCleared:
		return "level_cleared"
	case EventTypeTrophy:
		return "trophy"
	case EventTypeSwap:
		return "swap"
	case EventTypePlacementFallback:
		return "placement_fallback"
	default:
		return "unknown"
	}
}

// MarshalText writes the readable name into JSONL output.
func (t EventType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// LevelStartPayload records a freshly generated level.
type LevelStartPayload struct {
	Level     int     `json:"level"`
	Teammates int     `json:"teammates"`
	Obstacles int     `json:"obstacles"`
	BallX     float64 `json:"ballX"`
	BallY     float64 `json:"ballY"`
}

// FlingPayload records a released shot.
type FlingPayload struct {
	Tries int     `json:"tries"`
	VX    float64 `json:"vx"`
	VY    float64 `json:"vy"`
}

// PickupPayload records a teammate collision.
type PickupPayload struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Points    int     `json:"points"`
	Remaining int     `json:"remaining"`
}

// StallPayload records a failed shot.
type StallPayload struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Restored int     `json:"restored"`
}

// LevelClearedPayload records the clear grade.
type LevelClearedPayload struct {
	Level     int    `json:"level"`
	Tries     int    `json:"tries"`
	Obstacles int    `json:"obstacles"`
	Grade     string `json:"grade"`
}

// TrophyPayload records the trophy reaching the score indicator.
type TrophyPayload struct {
	Trophies int `json:"trophies"`
	Total    int `json:"total"`
}

// SwapPayload records a conversion.
type SwapPayload struct {
	TeammateIndex int `json:"teammateIndex"`
	ObstacleIndex int `json:"obstacleIndex"`
}

// PlacementFallbackPayload records a placement that ran out of retries.
type PlacementFallbackPayload struct {
	What  string `json:"what"`
	Count int    `json:"count"`
}

// EncodePayload marshals a payload to JSON bytes
func EncodePayload(payload interface{}) json.RawMessage {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}

// NewEvent creates an event stamped with at.
func NewEvent(eventType EventType, at time.Time, tickNum uint64, sessionID string, payload interface{}) Event {
	return Event{
		Version:   EventVersion,
		Type:      eventType,
		Timestamp: at.UnixNano(),
		TickNum:   tickNum,
		SessionID: sessionID,
		Payload:   EncodePayload(payload),
	}
}
