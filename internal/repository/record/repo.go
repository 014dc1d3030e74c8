package record

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/abdul7867/SearchAi/internal/db"
	"github.com/abdul7867/SearchAi/internal/domain"
	domrec "github.com/abdul7867/SearchAi/internal/domain/record"
)

// deleteChunk bounds the number of keys per DEL/ZREM call.
const deleteChunk = 500

// store is the consumer interface for search records (ISP).
//
//nolint:interfacebloat // record repo needs hash + sorted set operations
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetXX(ctx context.Context, key string, fields map[string]string) (bool, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, keys ...string) error
	ZAdd(ctx context.Context, key string, score float64, member string) error
	ZRem(ctx context.Context, key string, members ...string) (int64, error)
	ZRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	ZRevRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) ([]db.ScoredMember, error)
	ZRangeByScore(ctx context.Context, key, minScore, maxScore string) ([]string, error)
	ZCard(ctx context.Context, key string) (int64, error)
}

// Repo stores search records as hashes indexed by per-owner sorted sets
// (score = createdAt in unix millis).
type Repo struct {
	store store
}

// New creates a record repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Save stores a record: HSET hash then ZADD into the owner index.
// On ZADD failure, rolls back the HSET via DEL.
func (r *Repo) Save(ctx context.Context, rec domrec.Record) error {
	fields, err := recordToHash(rec)
	if err != nil {
		return err
	}

	key := recordKey(rec.ID())
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("hset search %s: %w", rec.ID(), err)
	}

	score := float64(rec.CreatedAt().UnixMilli())
	if err := r.store.ZAdd(ctx, searchesKey(rec.Owner()), score, rec.ID()); err != nil {
		cleanupErr := r.store.Del(ctx, key)
		return errors.Join(fmt.Errorf("index search %s: %w", rec.ID(), err), cleanupErr)
	}
	if rec.IsBookmarked() {
		if err := r.store.ZAdd(ctx, bookmarksKey(rec.Owner()), score, rec.ID()); err != nil {
			return fmt.Errorf("index bookmark %s: %w", rec.ID(), err)
		}
	}
	return nil
}

// Get retrieves a record by id regardless of owner.
func (r *Repo) Get(ctx context.Context, id string) (domrec.Record, error) {
	m, err := r.store.HGetAll(ctx, recordKey(id))
	if err != nil {
		return domrec.Record{}, fmt.Errorf("hgetall search %s: %w", id, err)
	}
	if stale(m) {
		return domrec.Record{}, domain.NotFound("search", id)
	}
	return recordFromHash(m)
}

// GetMany retrieves records in the order of ids, skipping missing ones.
func (r *Repo) GetMany(ctx context.Context, ids []string) ([]domrec.Record, error) {
	if len(ids) == 0 {
		return []domrec.Record{}, nil
	}
	return r.hydrate(ctx, ids)
}

// List returns a page of the owner's records, newest first, plus the total count.
func (r *Repo) List(ctx context.Context, owner string, f domrec.ListFilter) ([]domrec.Record, int, error) {
	indexKey := searchesKey(owner)
	if f.BookmarkedOnly {
		indexKey = bookmarksKey(owner)
	}

	total, err := r.store.ZCard(ctx, indexKey)
	if err != nil {
		return nil, 0, fmt.Errorf("count searches: %w", err)
	}
	if f.Limit <= 0 || int64(f.Offset) >= total {
		return []domrec.Record{}, int(total), nil
	}

	start := int64(f.Offset)
	ids, err := r.store.ZRevRange(ctx, indexKey, start, start+int64(f.Limit)-1)
	if err != nil {
		return nil, 0, fmt.Errorf("range searches: %w", err)
	}

	records, err := r.hydrate(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	return records, int(total), nil
}

// SetBookmark persists the bookmark flag and keeps the bookmark index in sync.
// A record deleted since it was read is reported as not found.
func (r *Repo) SetBookmark(ctx context.Context, rec domrec.Record) error {
	fields := map[string]string{
		"bookmarked": strconv.FormatBool(rec.IsBookmarked()),
		"updated_at": strconv.FormatInt(rec.UpdatedAt().UnixMilli(), 10),
	}
	ok, err := r.store.HSetXX(ctx, recordKey(rec.ID()), fields)
	if err != nil {
		return fmt.Errorf("hset bookmark %s: %w", rec.ID(), err)
	}
	if !ok {
		return domain.NotFound("search", rec.ID())
	}

	if rec.IsBookmarked() {
		score := float64(rec.CreatedAt().UnixMilli())
		if err := r.store.ZAdd(ctx, bookmarksKey(rec.Owner()), score, rec.ID()); err != nil {
			return fmt.Errorf("index bookmark %s: %w", rec.ID(), err)
		}
		return nil
	}
	if _, err := r.store.ZRem(ctx, bookmarksKey(rec.Owner()), rec.ID()); err != nil {
		return fmt.Errorf("unindex bookmark %s: %w", rec.ID(), err)
	}
	return nil
}

// Delete removes one record and its index entries.
func (r *Repo) Delete(ctx context.Context, rec domrec.Record) error {
	return r.deleteIDs(ctx, rec.Owner(), []string{rec.ID()})
}

// DeleteAll removes every record of the owner and returns the deleted ids.
func (r *Repo) DeleteAll(ctx context.Context, owner string) ([]string, error) {
	ids, err := r.store.ZRange(ctx, searchesKey(owner), 0, -1)
	if err != nil {
		return nil, fmt.Errorf("range searches: %w", err)
	}
	if err := r.deleteIDs(ctx, owner, ids); err != nil {
		return nil, err
	}
	if err := r.store.Del(ctx, searchesKey(owner), bookmarksKey(owner)); err != nil {
		return nil, fmt.Errorf("del owner indexes: %w", err)
	}
	return ids, nil
}

// Cleanup deletes the owner's non-bookmarked records strictly older than the
// keep-th most recent one and returns the deleted ids. Fewer than keep records is a no-op.
func (r *Repo) Cleanup(ctx context.Context, owner string, keep int) ([]string, error) {
	if keep <= 0 {
		return nil, domain.Invalid("keep must be positive")
	}
	key := searchesKey(owner)

	total, err := r.store.ZCard(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("count searches: %w", err)
	}
	if total < int64(keep) {
		return []string{}, nil
	}

	pivot, err := r.store.ZRevRangeWithScores(ctx, key, int64(keep-1), int64(keep-1))
	if err != nil {
		return nil, fmt.Errorf("find pivot: %w", err)
	}
	if len(pivot) == 0 {
		return []string{}, nil
	}
	below := "(" + strconv.FormatFloat(pivot[0].Score, 'f', -1, 64)

	older, err := r.store.ZRangeByScore(ctx, key, "-inf", below)
	if err != nil {
		return nil, fmt.Errorf("range older searches: %w", err)
	}
	if len(older) == 0 {
		return []string{}, nil
	}
	bookmarked, err := r.store.ZRangeByScore(ctx, bookmarksKey(owner), "-inf", below)
	if err != nil {
		return nil, fmt.Errorf("range older bookmarks: %w", err)
	}

	exempt := make(map[string]struct{}, len(bookmarked))
	for _, id := range bookmarked {
		exempt[id] = struct{}{}
	}
	victims := make([]string, 0, len(older))
	for _, id := range older {
		if _, ok := exempt[id]; !ok {
			victims = append(victims, id)
		}
	}

	if err := r.deleteIDs(ctx, owner, victims); err != nil {
		return nil, err
	}
	return victims, nil
}

func (r *Repo) deleteIDs(ctx context.Context, owner string, ids []string) error {
	for start := 0; start < len(ids); start += deleteChunk {
		end := min(start+deleteChunk, len(ids))
		chunk := ids[start:end]

		keys := make([]string, len(chunk))
		for i, id := range chunk {
			keys[i] = recordKey(id)
		}
		if err := r.store.Del(ctx, keys...); err != nil {
			return fmt.Errorf("del searches: %w", err)
		}
		if _, err := r.store.ZRem(ctx, searchesKey(owner), chunk...); err != nil {
			return fmt.Errorf("unindex searches: %w", err)
		}
		if _, err := r.store.ZRem(ctx, bookmarksKey(owner), chunk...); err != nil {
			return fmt.Errorf("unindex bookmarks: %w", err)
		}
	}
	return nil
}

func (r *Repo) hydrate(ctx context.Context, ids []string) ([]domrec.Record, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = recordKey(id)
	}
	results, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall multi searches: %w", err)
	}

	records := make([]domrec.Record, 0, len(results))
	for i, m := range results {
		// Index entries can briefly outlive their hash; skip them.
		if stale(m) {
			continue
		}
		rec, err := recordFromHash(m)
		if err != nil {
			return nil, fmt.Errorf("parse search %s: %w", ids[i], err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// stale reports a missing or partial hash left behind by a racing delete.
func stale(m map[string]string) bool {
	return m["id"] == "" || m["created_at"] == ""
}

// Valkey key patterns: searchai:search:{id}, searchai:user:{owner}:searches, searchai:user:{owner}:bookmarks

func recordKey(id string) string {
	return fmt.Sprintf("%ssearch:%s", domain.KeyPrefix, id)
}

func searchesKey(owner string) string {
	return fmt.Sprintf("%suser:%s:searches", domain.KeyPrefix, owner)
}

func bookmarksKey(owner string) string {
	return fmt.Sprintf("%suser:%s:bookmarks", domain.KeyPrefix, owner)
}
