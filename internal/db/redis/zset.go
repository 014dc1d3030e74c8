package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/abdul7867/SearchAi/internal/db"
)

// ZAdd inserts or updates a member score.
func (s *Store) ZAdd(ctx context.Context, key string, score float64, member string) error {
	cmd := s.b().Zadd().Key(key).ScoreMember().ScoreMember(score, member).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpZAdd, Err: err}
	}
	return nil
}

// ZAddNX inserts a member only if absent (ZADD NX). Reports whether it was added.
func (s *Store) ZAddNX(ctx context.Context, key string, score float64, member string) (bool, error) {
	cmd := s.b().Zadd().Key(key).Nx().ScoreMember().ScoreMember(score, member).Build()
	n, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return false, &db.Error{Op: db.OpZAdd, Err: err}
	}
	return n == 1, nil
}

// ZRem removes members and returns how many were present.
func (s *Store) ZRem(ctx context.Context, key string, members ...string) (int64, error) {
	if len(members) == 0 {
		return 0, nil
	}
	cmd := s.b().Zrem().Key(key).Member(members...).Build()
	n, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return 0, &db.Error{Op: db.OpZRem, Err: err}
	}
	return n, nil
}

// ZRange returns members by rank, lowest score first.
func (s *Store) ZRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	cmd := s.b().Zrange().Key(key).Min(rank(start)).Max(rank(stop)).Build()
	out, err := s.do(ctx, cmd).AsStrSlice()
	if err != nil {
		return nil, &db.Error{Op: db.OpZRange, Err: err}
	}
	return out, nil
}

// ZRevRange returns members by rank, highest score first.
func (s *Store) ZRevRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	cmd := s.b().Zrange().Key(key).Min(rank(start)).Max(rank(stop)).Rev().Build()
	out, err := s.do(ctx, cmd).AsStrSlice()
	if err != nil {
		return nil, &db.Error{Op: db.OpZRange, Err: err}
	}
	return out, nil
}

// ZRevRangeWithScores is ZRevRange including scores.
func (s *Store) ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) ([]db.ScoredMember, error) {
	cmd := s.b().Zrange().Key(key).Min(rank(start)).Max(rank(stop)).Rev().Withscores().Build()
	scores, err := s.do(ctx, cmd).AsZScores()
	if err != nil {
		return nil, &db.Error{Op: db.OpZRange, Err: err}
	}
	out := make([]db.ScoredMember, len(scores))
	for i, z := range scores {
		out[i] = db.ScoredMember{Member: z.Member, Score: z.Score}
	}
	return out, nil
}

// ZRangeByScore returns members whose score lies within [minScore, maxScore].
// Bounds use Redis syntax: "-inf", "+inf", "(123" for exclusive.
func (s *Store) ZRangeByScore(ctx context.Context, key, minScore, maxScore string) ([]string, error) {
	cmd := s.b().Zrange().Key(key).Min(minScore).Max(maxScore).Byscore().Build()
	out, err := s.do(ctx, cmd).AsStrSlice()
	if err != nil {
		return nil, &db.Error{Op: db.OpZRange, Err: err}
	}
	return out, nil
}

// ZCard returns the set cardinality.
func (s *Store) ZCard(ctx context.Context, key string) (int64, error) {
	cmd := s.b().Zcard().Key(key).Build()
	n, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return 0, &db.Error{Op: db.OpZCard, Err: err}
	}
	return n, nil
}

// ZCardMulti returns cardinalities for several sets in a single DoMulti round-trip.
func (s *Store) ZCardMulti(ctx context.Context, keys []string) ([]int64, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	cmds := make([]rueidis.Completed, len(keys))
	for i, key := range keys {
		cmds[i] = s.b().Zcard().Key(key).Build()
	}

	results := s.client.DoMulti(ctx, cmds...)
	out := make([]int64, len(results))
	for i, res := range results {
		n, err := res.AsInt64()
		if err != nil {
			return nil, &db.Error{Op: db.OpZCard, Err: fmt.Errorf("key %s: %w", keys[i], err)}
		}
		out[i] = n
	}
	return out, nil
}

func rank(i int64) string {
	return strconv.FormatInt(i, 10)
}
