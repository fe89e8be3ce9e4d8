// Package store persists completion scores and serves the leaderboard.
package store

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ErrInvalidCount is returned when a leaderboard size is not positive.
var ErrInvalidCount = errors.New("store: n must be positive")

// Entry is one leaderboard row.
type Entry struct {
	SessionID string `json:"sessionId"`
	Trophies  int    `json:"trophies"`
	Rank      int    `json:"rank"`
}

// ScoreStore records trophy totals per session and ranks them.
// A lower total never replaces a higher one.
type ScoreStore interface {
	RecordTrophies(ctx context.Context, sessionID string, trophies int) error
	Top(ctx context.Context, n int) ([]Entry, error)
	Close() error
}

// MemoryStore keeps scores in process. Used when no Redis URL is set.
type MemoryStore struct {
	mu     sync.RWMutex
	scores map[string]int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{scores: make(map[string]int)}
}

func (m *MemoryStore) RecordTrophies(ctx context.Context, sessionID string, trophies int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if trophies > m.scores[sessionID] {
		m.scores[sessionID] = trophies
	}
	return nil
}

// Top returns the n best sessions, highest first. Ties rank by session ID.
func (m *MemoryStore) Top(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		return nil, ErrInvalidCount
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	entries := make([]Entry, 0, len(m.scores))
	for id, t := range m.scores {
		entries = append(entries, Entry{SessionID: id, Trophies: t})
	}
	m.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Trophies != entries[j].Trophies {
			return entries[i].Trophies > entries[j].Trophies
		}
		return entries[i].SessionID < entries[j].SessionID
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

func (m *MemoryStore) Close() error { return nil }

var (
	_ ScoreStore = (*MemoryStore)(nil)
	_ ScoreStore = (*RedisStore)(nil)
)
