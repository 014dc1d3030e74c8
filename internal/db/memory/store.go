// Package memory is an in-process db.Store used by the "memory" storage driver
// and by repository tests. Data lives only as long as the process.
package memory

import (
	"context"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/abdul7867/SearchAi/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

type counter struct {
	value    int64
	expireAt time.Time
}

// Store keeps hashes, sorted sets and counters in maps guarded by one mutex.
type Store struct {
	mu       sync.Mutex
	hashes   map[string]map[string]string
	zsets    map[string]map[string]float64
	counters map[string]*counter
	now      func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		hashes:   make(map[string]map[string]string),
		zsets:    make(map[string]map[string]float64),
		counters: make(map[string]*counter),
		now:      time.Now,
	}
}

// WithClock overrides the clock used for counter expiry.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() {}

// WaitForReady returns immediately.
func (s *Store) WaitForReady(context.Context, time.Duration) error { return nil }

// HSet sets hash fields.
func (s *Store) HSet(_ context.Context, key string, fields map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.hashes[key]
	if !ok {
		h = make(map[string]string, len(fields))
		s.hashes[key] = h
	}
	for k, v := range fields {
		h[k] = v
	}
	return nil
}

// HSetNX sets a field only if absent.
func (s *Store) HSetNX(_ context.Context, key, field, value string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.hashes[key]
	if !ok {
		h = make(map[string]string)
		s.hashes[key] = h
	}
	if _, exists := h[field]; exists {
		return false, nil
	}
	h[field] = value
	return true, nil
}

// HSetXX sets fields only if the hash exists.
func (s *Store) HSetXX(_ context.Context, key string, fields map[string]string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.hashes[key]
	if !ok || len(fields) == 0 {
		return false, nil
	}
	for k, v := range fields {
		h[k] = v
	}
	return true, nil
}

// HIncrByXX increments a field only if the hash exists.
func (s *Store) HIncrByXX(_ context.Context, key, field string, incr int64) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.hashes[key]
	if !ok {
		return 0, false, nil
	}
	cur, _ := strconv.ParseInt(h[field], 10, 64)
	cur += incr
	h[field] = strconv.FormatInt(cur, 10)
	return cur, true, nil
}

// HGet returns one field or db.ErrKeyNotFound.
func (s *Store) HGet(_ context.Context, key, field string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.hashes[key][field]
	if !ok {
		return "", db.ErrKeyNotFound
	}
	return v, nil
}

// HGetAll returns a copy of the hash, empty when absent.
func (s *Store) HGetAll(_ context.Context, key string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyHash(s.hashes[key]), nil
}

// HGetAllMulti returns copies of several hashes.
func (s *Store) HGetAllMulti(_ context.Context, keys []string) ([]map[string]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]map[string]string, len(keys))
	for i, k := range keys {
		out[i] = copyHash(s.hashes[k])
	}
	return out, nil
}

// HDel removes hash fields.
func (s *Store) HDel(_ context.Context, key string, fields ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.hashes[key]
	for _, f := range fields {
		delete(h, f)
	}
	if len(h) == 0 {
		delete(s.hashes, key)
	}
	return nil
}

// HIncrBy increments a numeric hash field.
func (s *Store) HIncrBy(_ context.Context, key, field string, incr int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.hashes[key]
	if !ok {
		h = make(map[string]string)
		s.hashes[key] = h
	}
	cur, _ := strconv.ParseInt(h[field], 10, 64)
	cur += incr
	h[field] = strconv.FormatInt(cur, 10)
	return cur, nil
}

// Del removes keys of any type.
func (s *Store) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range keys {
		delete(s.hashes, k)
		delete(s.zsets, k)
		delete(s.counters, k)
	}
	return nil
}

// Exists reports whether a key of any type exists.
func (s *Store) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.hashes[key]; ok {
		return true, nil
	}
	if _, ok := s.zsets[key]; ok {
		return true, nil
	}
	_, ok := s.liveCounter(key)
	return ok, nil
}

// ZAdd inserts or updates a member score.
func (s *Store) ZAdd(_ context.Context, key string, score float64, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zset(key)[member] = score
	return nil
}

// ZAddNX inserts a member only if absent.
func (s *Store) ZAddNX(_ context.Context, key string, score float64, member string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	z := s.zset(key)
	if _, ok := z[member]; ok {
		return false, nil
	}
	z[member] = score
	return true, nil
}

// ZRem removes members.
func (s *Store) ZRem(_ context.Context, key string, members ...string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	z, ok := s.zsets[key]
	if !ok {
		return 0, nil
	}
	var n int64
	for _, m := range members {
		if _, ok := z[m]; ok {
			delete(z, m)
			n++
		}
	}
	if len(z) == 0 {
		delete(s.zsets, key)
	}
	return n, nil
}

// ZRange returns members by rank, lowest score first.
func (s *Store) ZRange(_ context.Context, key string, start, stop int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return members(sliceRank(s.sorted(key, false), start, stop)), nil
}

// ZRevRange returns members by rank, highest score first.
func (s *Store) ZRevRange(_ context.Context, key string, start, stop int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return members(sliceRank(s.sorted(key, true), start, stop)), nil
}

// ZRevRangeWithScores is ZRevRange including scores.
func (s *Store) ZRevRangeWithScores(_ context.Context, key string, start, stop int64) ([]db.ScoredMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sliceRank(s.sorted(key, true), start, stop), nil
}

// ZRangeByScore returns members within score bounds ("-inf", "+inf", "(x" exclusive).
func (s *Store) ZRangeByScore(_ context.Context, key, minScore, maxScore string) ([]string, error) {
	lo, loExcl, err := parseBound(minScore)
	if err != nil {
		return nil, err
	}
	hi, hiExcl, err := parseBound(maxScore)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []string
	for _, m := range s.sorted(key, false) {
		if m.Score < lo || (loExcl && m.Score == lo) {
			continue
		}
		if m.Score > hi || (hiExcl && m.Score == hi) {
			continue
		}
		out = append(out, m.Member)
	}
	return out, nil
}

// ZCard returns the set size.
func (s *Store) ZCard(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.zsets[key])), nil
}

// ZCardMulti returns sizes of several sets.
func (s *Store) ZCardMulti(_ context.Context, keys []string) ([]int64, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]int64, len(keys))
	for i, k := range keys {
		out[i] = int64(len(s.zsets[k]))
	}
	return out, nil
}

// Incr increments a counter.
func (s *Store) Incr(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.liveCounter(key)
	if !ok {
		c = &counter{}
		s.counters[key] = c
	}
	c.value++
	return c.value, nil
}

// Expire sets a counter TTL; with nx only when none is set.
func (s *Store) Expire(_ context.Context, key string, ttl time.Duration, nx bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.liveCounter(key)
	if !ok {
		return nil
	}
	if nx && !c.expireAt.IsZero() {
		return nil
	}
	c.expireAt = s.now().Add(ttl)
	return nil
}

// PTTL returns the remaining counter TTL, -1 without expiry and -2 when missing.
func (s *Store) PTTL(_ context.Context, key string) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.liveCounter(key)
	if !ok {
		return -2, nil
	}
	if c.expireAt.IsZero() {
		return -1, nil
	}
	return c.expireAt.Sub(s.now()), nil
}

func (s *Store) liveCounter(key string) (*counter, bool) {
	c, ok := s.counters[key]
	if !ok {
		return nil, false
	}
	if !c.expireAt.IsZero() && !s.now().Before(c.expireAt) {
		delete(s.counters, key)
		return nil, false
	}
	return c, true
}

func (s *Store) zset(key string) map[string]float64 {
	z, ok := s.zsets[key]
	if !ok {
		z = make(map[string]float64)
		s.zsets[key] = z
	}
	return z
}

// sorted orders by score, then member, matching Redis tie-breaking.
func (s *Store) sorted(key string, rev bool) []db.ScoredMember {
	z := s.zsets[key]
	out := make([]db.ScoredMember, 0, len(z))
	for m, sc := range z {
		out = append(out, db.ScoredMember{Member: m, Score: sc})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score < out[j].Score
		}
		return out[i].Member < out[j].Member
	})
	if rev {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

// sliceRank applies Redis rank semantics, including negative indexes.
func sliceRank(in []db.ScoredMember, start, stop int64) []db.ScoredMember {
	n := int64(len(in))
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	start = max(start, 0)
	stop = min(stop, n-1)
	if n == 0 || start > stop {
		return []db.ScoredMember{}
	}
	return in[start : stop+1]
}

func members(in []db.ScoredMember) []string {
	out := make([]string, len(in))
	for i, m := range in {
		out[i] = m.Member
	}
	return out
}

func parseBound(s string) (float64, bool, error) {
	switch s {
	case "-inf":
		return math.Inf(-1), false, nil
	case "+inf", "inf":
		return math.Inf(1), false, nil
	}
	excl := strings.HasPrefix(s, "(")
	v, err := strconv.ParseFloat(strings.TrimPrefix(s, "("), 64)
	if err != nil {
		return 0, false, &db.Error{Op: db.OpZRange, Err: err}
	}
	return v, excl, nil
}

func copyHash(h map[string]string) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}
