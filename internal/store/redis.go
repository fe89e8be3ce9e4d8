package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// LeaderboardKey is the sorted set holding trophy totals by session.
const LeaderboardKey = "game:leaderboard"

// Connect establishes a connection to Redis
func Connect(redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	// Verify connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return client, nil
}

// RedisStore keeps the leaderboard in a Redis sorted set so it survives
// restarts and is shared between server instances.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, key: LeaderboardKey}
}

// OpenRedis connects and returns a store.
func OpenRedis(redisURL string) (*RedisStore, error) {
	client, err := Connect(redisURL)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return NewRedisStore(client), nil
}

// RecordTrophies raises the session's total; GT keeps the stored value
// when it is already higher.
func (r *RedisStore) RecordTrophies(ctx context.Context, sessionID string, trophies int) error {
	err := r.client.ZAddArgs(ctx, r.key, redis.ZAddArgs{
		GT:      true,
		Members: []redis.Z{{Score: float64(trophies), Member: sessionID}},
	}).Err()
	if err != nil {
		return fmt.Errorf("record trophies for %s: %w", sessionID, err)
	}
	return nil
}

func (r *RedisStore) Top(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		return nil, ErrInvalidCount
	}
	zs, err := r.client.ZRevRangeWithScores(ctx, r.key, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read leaderboard: %w", err)
	}

	entries := make([]Entry, 0, len(zs))
	for i, z := range zs {
		id, ok := z.Member.(string)
		if !ok {
			id = fmt.Sprint(z.Member)
		}
		entries = append(entries, Entry{SessionID: id, Trophies: int(z.Score), Rank: i + 1})
	}
	return entries, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
