package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	mongodb "github.com/abdul7867/SearchAi/internal/db/mongo"
	"github.com/abdul7867/SearchAi/internal/domain"
	domrec "github.com/abdul7867/SearchAi/internal/domain/record"
)

// Records stores search records in the "searches" collection.
type Records struct {
	coll collection
}

// NewRecords creates a MongoDB record repository.
func NewRecords(database *mongo.Database) *Records {
	return newRecords(driverCollection{coll: database.Collection(mongodb.SearchesCollection)})
}

func newRecords(c collection) *Records {
	return &Records{coll: c}
}

// Save inserts a record.
func (r *Records) Save(ctx context.Context, rec domrec.Record) error {
	if err := r.coll.InsertOne(ctx, toSearchDoc(rec)); err != nil {
		return fmt.Errorf("insert search %s: %w", rec.ID(), err)
	}
	return nil
}

// Get retrieves a record by id regardless of owner.
func (r *Records) Get(ctx context.Context, id string) (domrec.Record, error) {
	var doc searchDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}, findQuery{}, &doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domrec.Record{}, domain.NotFound("search", id)
		}
		return domrec.Record{}, fmt.Errorf("find search %s: %w", id, err)
	}
	return doc.toDomain(), nil
}

// GetMany retrieves records in the order of ids, skipping missing ones.
func (r *Records) GetMany(ctx context.Context, ids []string) ([]domrec.Record, error) {
	if len(ids) == 0 {
		return []domrec.Record{}, nil
	}
	var docs []searchDoc
	if err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, findQuery{}, &docs); err != nil {
		return nil, fmt.Errorf("find searches: %w", err)
	}

	byID := make(map[string]searchDoc, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
	}
	out := make([]domrec.Record, 0, len(docs))
	for _, id := range ids {
		if d, ok := byID[id]; ok {
			out = append(out, d.toDomain())
		}
	}
	return out, nil
}

// List returns a page of the owner's records, newest first, plus the total count.
func (r *Records) List(ctx context.Context, owner string, f domrec.ListFilter) ([]domrec.Record, int, error) {
	filter := listFilter(owner, f.BookmarkedOnly)

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count searches: %w", err)
	}
	if f.Limit <= 0 || int64(f.Offset) >= total {
		return []domrec.Record{}, int(total), nil
	}

	q := findQuery{Sort: newestFirst, Skip: int64(f.Offset), Limit: int64(f.Limit)}
	var docs []searchDoc
	if err := r.coll.Find(ctx, filter, q, &docs); err != nil {
		return nil, 0, fmt.Errorf("find searches: %w", err)
	}

	out := make([]domrec.Record, len(docs))
	for i, d := range docs {
		out[i] = d.toDomain()
	}
	return out, int(total), nil
}

// SetBookmark persists the bookmark flag.
func (r *Records) SetBookmark(ctx context.Context, rec domrec.Record) error {
	matched, _, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": rec.ID(), "owner_id": rec.Owner()},
		bson.M{"$set": bson.M{"is_bookmarked": rec.IsBookmarked(), "updated_at": rec.UpdatedAt()}},
	)
	if err != nil {
		return fmt.Errorf("update bookmark %s: %w", rec.ID(), err)
	}
	if matched == 0 {
		return domain.NotFound("search", rec.ID())
	}
	return nil
}

// Delete removes one record.
func (r *Records) Delete(ctx context.Context, rec domrec.Record) error {
	deleted, err := r.coll.DeleteOne(ctx, bson.M{"_id": rec.ID(), "owner_id": rec.Owner()})
	if err != nil {
		return fmt.Errorf("delete search %s: %w", rec.ID(), err)
	}
	if deleted == 0 {
		return domain.NotFound("search", rec.ID())
	}
	return nil
}

// DeleteAll removes every record of the owner and returns the deleted ids.
func (r *Records) DeleteAll(ctx context.Context, owner string) ([]string, error) {
	ids, err := r.findIDs(ctx, bson.M{"owner_id": owner})
	if err != nil {
		return nil, err
	}
	if err := r.deleteIDs(ctx, owner, ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// Cleanup deletes the owner's non-bookmarked records strictly older than the
// keep-th most recent one and returns the deleted ids. Fewer than keep records is a no-op.
func (r *Records) Cleanup(ctx context.Context, owner string, keep int) ([]string, error) {
	if keep <= 0 {
		return nil, domain.Invalid("keep must be positive")
	}

	total, err := r.coll.CountDocuments(ctx, bson.M{"owner_id": owner})
	if err != nil {
		return nil, fmt.Errorf("count searches: %w", err)
	}
	if total < int64(keep) {
		return []string{}, nil
	}

	var pivot searchDoc
	q := findQuery{Sort: newestFirst, Skip: int64(keep - 1), Projection: bson.M{"created_at": 1}}
	if err := r.coll.FindOne(ctx, bson.M{"owner_id": owner}, q, &pivot); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("find pivot: %w", err)
	}

	ids, err := r.findIDs(ctx, cleanupFilter(owner, pivot.CreatedAt))
	if err != nil {
		return nil, err
	}
	if err := r.deleteIDs(ctx, owner, ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *Records) findIDs(ctx context.Context, filter bson.M) ([]string, error) {
	var rows []struct {
		ID string `bson:"_id"`
	}
	if err := r.coll.Find(ctx, filter, findQuery{Projection: bson.M{"_id": 1}}, &rows); err != nil {
		return nil, fmt.Errorf("find search ids: %w", err)
	}
	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	return ids, nil
}

func (r *Records) deleteIDs(ctx context.Context, owner string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := r.coll.DeleteMany(ctx, bson.M{"owner_id": owner, "_id": bson.M{"$in": ids}}); err != nil {
		return fmt.Errorf("delete searches: %w", err)
	}
	return nil
}
