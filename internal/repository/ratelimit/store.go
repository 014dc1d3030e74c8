package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/abdul7867/SearchAi/internal/domain"
)

// store is the consumer interface for window counters (ISP).
type store interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
	PTTL(ctx context.Context, key string) (time.Duration, error)
}

// Store counts requests per client in fixed windows (INCR + EXPIRE NX).
// Counters are shared by every API replica pointing at the same database.
type Store struct {
	store  store
	window time.Duration
}

// New creates a window counter store.
func New(s store, window time.Duration) *Store {
	if window < time.Second {
		window = time.Second
	}
	return &Store{store: s, window: window}
}

// Window returns the configured window length.
func (s *Store) Window() time.Duration { return s.window }

// Hit counts one request for client and returns the count in the current
// window plus the time left until the window resets.
func (s *Store) Hit(ctx context.Context, client string) (int64, time.Duration, error) {
	key := windowKey(client)

	n, err := s.store.Incr(ctx, key)
	if err != nil {
		return 0, 0, fmt.Errorf("ratelimit INCR %s: %w", key, err)
	}

	// TTL is set once per window (NX), so repeated hits never extend it.
	if err := s.store.Expire(ctx, key, s.window, true); err != nil {
		return 0, 0, fmt.Errorf("ratelimit EXPIRE %s: %w", key, err)
	}

	ttl, err := s.store.PTTL(ctx, key)
	if err != nil {
		return 0, 0, fmt.Errorf("ratelimit PTTL %s: %w", key, err)
	}
	if ttl <= 0 {
		ttl = s.window
	}
	return n, ttl, nil
}

// Valkey key pattern: searchai:ratelimit:{client}
func windowKey(client string) string {
	return fmt.Sprintf("%sratelimit:%s", domain.KeyPrefix, client)
}
