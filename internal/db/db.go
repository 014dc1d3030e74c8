package db

import (
	"context"
	"time"
)

// Store is the main database facade combining all sub-interfaces.
//
//nolint:interfacebloat // facade by design -- consumers use narrow sub-interfaces (ISP)
type Store interface {
	Pinger
	HashStore
	SortedSetStore
	CounterStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashStore provides hash-based key-value operations.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetNX(ctx context.Context, key, field, value string) (bool, error)
	HSetXX(ctx context.Context, key string, fields map[string]string) (bool, error)
	HGet(ctx context.Context, key, field string) (string, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	HDel(ctx context.Context, key string, fields ...string) error
	HIncrBy(ctx context.Context, key, field string, incr int64) (int64, error)
	HIncrByXX(ctx context.Context, key, field string, incr int64) (int64, bool, error)
	Del(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// ScoredMember is a sorted set member with its score.
type ScoredMember struct {
	Member string
	Score  float64
}

// SortedSetStore provides ordered-index operations.
//
//nolint:interfacebloat // mirrors the sorted set command family
type SortedSetStore interface {
	ZAdd(ctx context.Context, key string, score float64, member string) error
	ZAddNX(ctx context.Context, key string, score float64, member string) (bool, error)
	ZRem(ctx context.Context, key string, members ...string) (int64, error)
	ZRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	ZRevRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) ([]ScoredMember, error)
	ZRangeByScore(ctx context.Context, key, minScore, maxScore string) ([]string, error)
	ZCard(ctx context.Context, key string) (int64, error)
	ZCardMulti(ctx context.Context, keys []string) ([]int64, error)
}

// CounterStore provides expiring counters (fixed-window rate limiting).
type CounterStore interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
	PTTL(ctx context.Context, key string) (time.Duration, error)
}
