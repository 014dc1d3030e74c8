package collection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abdul7867/SearchAi/internal/domain"
	domcol "github.com/abdul7867/SearchAi/internal/domain/collection"
)

const memberSeqField = "member_seq"

// store is the consumer interface for collections (ISP).
//
//nolint:interfacebloat // collection repo needs hash + sorted set operations
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetNX(ctx context.Context, key, field, value string) (bool, error)
	HSetXX(ctx context.Context, key string, fields map[string]string) (bool, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	HDel(ctx context.Context, key string, fields ...string) error
	HIncrByXX(ctx context.Context, key, field string, incr int64) (int64, bool, error)
	Del(ctx context.Context, keys ...string) error
	ZAdd(ctx context.Context, key string, score float64, member string) error
	ZAddNX(ctx context.Context, key string, score float64, member string) (bool, error)
	ZRem(ctx context.Context, key string, members ...string) (int64, error)
	ZRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	ZRevRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	ZCard(ctx context.Context, key string) (int64, error)
	ZCardMulti(ctx context.Context, keys []string) ([]int64, error)
}

// Repo stores collections as hashes. Member ids live in a sorted set scored by a
// per-collection sequence, so ZRANGE yields insertion order. Name uniqueness is
// enforced through a per-owner name -> id hash written with HSETNX.
type Repo struct {
	store store
}

// New creates a collection repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Create reserves the name, then HSET metadata and ZADD into the owner index.
// Later failures roll back the earlier writes.
func (r *Repo) Create(ctx context.Context, col domcol.Collection) error {
	namesKey := namesKey(col.Owner())
	reserved, err := r.store.HSetNX(ctx, namesKey, col.Name(), col.ID())
	if err != nil {
		return fmt.Errorf("reserve collection name: %w", err)
	}
	if !reserved {
		return domain.Conflict("collection", domcol.DuplicateNameMessage)
	}

	metaKey := metaKey(col.ID())
	if err := r.store.HSet(ctx, metaKey, collectionToHash(col)); err != nil {
		cleanupErr := r.store.HDel(ctx, namesKey, col.Name())
		return errors.Join(fmt.Errorf("hset collection %s: %w", col.ID(), err), cleanupErr)
	}

	score := float64(col.CreatedAt().UnixMilli())
	if err := r.store.ZAdd(ctx, ownerKey(col.Owner()), score, col.ID()); err != nil {
		cleanupErr := errors.Join(r.store.Del(ctx, metaKey), r.store.HDel(ctx, namesKey, col.Name()))
		return errors.Join(fmt.Errorf("index collection %s: %w", col.ID(), err), cleanupErr)
	}
	return nil
}

// Get retrieves a collection with its members in insertion order.
func (r *Repo) Get(ctx context.Context, id string) (domcol.Collection, error) {
	m, err := r.store.HGetAll(ctx, metaKey(id))
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("hgetall collection %s: %w", id, err)
	}
	if stale(m) {
		return domcol.Collection{}, domain.NotFound("collection", id)
	}

	members, err := r.store.ZRange(ctx, membersKey(id), 0, -1)
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("range members %s: %w", id, err)
	}
	return collectionFromHash(m, members)
}

// Update persists name/description/color. A rename reserves the new name first
// and releases the old one only after the metadata write succeeds.
func (r *Repo) Update(ctx context.Context, updated, previous domcol.Collection) error {
	namesKey := namesKey(updated.Owner())
	renamed := updated.Name() != previous.Name()

	if renamed {
		reserved, err := r.store.HSetNX(ctx, namesKey, updated.Name(), updated.ID())
		if err != nil {
			return fmt.Errorf("reserve collection name: %w", err)
		}
		if !reserved {
			return domain.Conflict("collection", domcol.DuplicateNameMessage)
		}
	}

	fields := map[string]string{
		"name":        updated.Name(),
		"description": updated.Description(),
		"color":       updated.Color(),
		"updated_at":  millis(updated.UpdatedAt()),
	}
	ok, err := r.store.HSetXX(ctx, metaKey(updated.ID()), fields)
	if err == nil && !ok {
		err = domain.NotFound("collection", updated.ID())
	} else if err != nil {
		err = fmt.Errorf("hset collection %s: %w", updated.ID(), err)
	}
	if err != nil {
		if renamed {
			return errors.Join(err, r.store.HDel(ctx, namesKey, updated.Name()))
		}
		return err
	}

	if renamed {
		if err := r.store.HDel(ctx, namesKey, previous.Name()); err != nil {
			return fmt.Errorf("release collection name: %w", err)
		}
	}
	return nil
}

// Delete removes the collection, its member set and its name reservation.
// Member records are untouched.
func (r *Repo) Delete(ctx context.Context, col domcol.Collection) error {
	if err := r.store.Del(ctx, metaKey(col.ID()), membersKey(col.ID())); err != nil {
		return fmt.Errorf("del collection %s: %w", col.ID(), err)
	}
	if _, err := r.store.ZRem(ctx, ownerKey(col.Owner()), col.ID()); err != nil {
		return fmt.Errorf("unindex collection %s: %w", col.ID(), err)
	}
	if err := r.store.HDel(ctx, namesKey(col.Owner()), col.Name()); err != nil {
		return fmt.Errorf("release collection name: %w", err)
	}
	return nil
}

// AddMember appends searchID unless present. Reports whether the set changed.
// A collection deleted since it was read is reported as not found.
func (r *Repo) AddMember(ctx context.Context, col domcol.Collection, searchID string, now time.Time) (bool, error) {
	seq, ok, err := r.store.HIncrByXX(ctx, metaKey(col.ID()), memberSeqField, 1)
	if err != nil {
		return false, fmt.Errorf("next member seq: %w", err)
	}
	if !ok {
		return false, domain.NotFound("collection", col.ID())
	}
	added, err := r.store.ZAddNX(ctx, membersKey(col.ID()), float64(seq), searchID)
	if err != nil {
		return false, fmt.Errorf("add member %s: %w", searchID, err)
	}
	if added {
		if err := r.touch(ctx, col.ID(), now); err != nil {
			return true, err
		}
	}
	return added, nil
}

// RemoveMember drops searchID. Reports whether the set changed.
func (r *Repo) RemoveMember(ctx context.Context, col domcol.Collection, searchID string, now time.Time) (bool, error) {
	n, err := r.store.ZRem(ctx, membersKey(col.ID()), searchID)
	if err != nil {
		return false, fmt.Errorf("remove member %s: %w", searchID, err)
	}
	if n == 0 {
		return false, nil
	}
	if err := r.touch(ctx, col.ID(), now); err != nil {
		return true, err
	}
	return true, nil
}

// ListWithCounts returns a page of the owner's collections, newest first, with
// member counts and without members, plus the total count.
func (r *Repo) ListWithCounts(ctx context.Context, owner string, offset, limit int) ([]domcol.Listing, int, error) {
	total, err := r.store.ZCard(ctx, ownerKey(owner))
	if err != nil {
		return nil, 0, fmt.Errorf("count collections: %w", err)
	}
	if limit <= 0 || int64(offset) >= total {
		return []domcol.Listing{}, int(total), nil
	}

	ids, err := r.store.ZRevRange(ctx, ownerKey(owner), int64(offset), int64(offset+limit-1))
	if err != nil {
		return nil, 0, fmt.Errorf("range collections: %w", err)
	}
	if len(ids) == 0 {
		return []domcol.Listing{}, int(total), nil
	}

	metaKeys := make([]string, len(ids))
	memberKeys := make([]string, len(ids))
	for i, id := range ids {
		metaKeys[i] = metaKey(id)
		memberKeys[i] = membersKey(id)
	}
	metas, err := r.store.HGetAllMulti(ctx, metaKeys)
	if err != nil {
		return nil, 0, fmt.Errorf("hgetall multi collections: %w", err)
	}
	counts, err := r.store.ZCardMulti(ctx, memberKeys)
	if err != nil {
		return nil, 0, fmt.Errorf("count members: %w", err)
	}

	out := make([]domcol.Listing, 0, len(ids))
	for i, m := range metas {
		if stale(m) {
			continue
		}
		col, err := collectionFromHash(m, nil)
		if err != nil {
			return nil, 0, fmt.Errorf("parse collection %s: %w", ids[i], err)
		}
		out = append(out, domcol.Listing{Collection: col, SearchesCount: int(counts[i])})
	}
	return out, int(total), nil
}

// RemoveEverywhere strips searchIDs from every collection of the owner.
func (r *Repo) RemoveEverywhere(ctx context.Context, owner string, searchIDs []string, now time.Time) error {
	if len(searchIDs) == 0 {
		return nil
	}
	colIDs, err := r.store.ZRange(ctx, ownerKey(owner), 0, -1)
	if err != nil {
		return fmt.Errorf("range collections: %w", err)
	}
	for _, id := range colIDs {
		n, err := r.store.ZRem(ctx, membersKey(id), searchIDs...)
		if err != nil {
			return fmt.Errorf("strip members from %s: %w", id, err)
		}
		if n > 0 {
			if err := r.touch(ctx, id, now); err != nil {
				return err
			}
		}
	}
	return nil
}

// touch bumps updated_at. A collection deleted meanwhile stays deleted.
func (r *Repo) touch(ctx context.Context, id string, now time.Time) error {
	if _, err := r.store.HSetXX(ctx, metaKey(id), map[string]string{"updated_at": millis(now)}); err != nil {
		return fmt.Errorf("touch collection %s: %w", id, err)
	}
	return nil
}

func stale(m map[string]string) bool {
	return m["id"] == "" || m["created_at"] == ""
}

// Valkey key patterns: searchai:collection:{id}, searchai:collection:{id}:members,
// searchai:user:{owner}:collections, searchai:user:{owner}:collection_names

func metaKey(id string) string {
	return fmt.Sprintf("%scollection:%s", domain.KeyPrefix, id)
}

func membersKey(id string) string {
	return fmt.Sprintf("%scollection:%s:members", domain.KeyPrefix, id)
}

func ownerKey(owner string) string {
	return fmt.Sprintf("%suser:%s:collections", domain.KeyPrefix, owner)
}

func namesKey(owner string) string {
	return fmt.Sprintf("%suser:%s:collection_names", domain.KeyPrefix, owner)
}
