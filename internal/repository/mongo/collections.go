package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	mongodb "github.com/abdul7867/SearchAi/internal/db/mongo"
	"github.com/abdul7867/SearchAi/internal/domain"
	domcol "github.com/abdul7867/SearchAi/internal/domain/collection"
)

// Collections stores collections with embedded member id arrays.
// Name uniqueness per owner relies on the unique (owner_id, name) index.
type Collections struct {
	coll collection
}

// NewCollections creates a MongoDB collection repository.
func NewCollections(database *mongo.Database) *Collections {
	return newCollections(driverCollection{coll: database.Collection(mongodb.CollectionsCollection)})
}

func newCollections(c collection) *Collections {
	return &Collections{coll: c}
}

// Create inserts a collection.
func (c *Collections) Create(ctx context.Context, col domcol.Collection) error {
	if err := c.coll.InsertOne(ctx, toCollectionDoc(col)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.Conflict("collection", domcol.DuplicateNameMessage)
		}
		return fmt.Errorf("insert collection %s: %w", col.ID(), err)
	}
	return nil
}

// Get retrieves a collection with its members.
func (c *Collections) Get(ctx context.Context, id string) (domcol.Collection, error) {
	var doc collectionDoc
	if err := c.coll.FindOne(ctx, bson.M{"_id": id}, findQuery{}, &doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domcol.Collection{}, domain.NotFound("collection", id)
		}
		return domcol.Collection{}, fmt.Errorf("find collection %s: %w", id, err)
	}
	return doc.toDomain(), nil
}

// Update persists name/description/color.
func (c *Collections) Update(ctx context.Context, updated, _ domcol.Collection) error {
	matched, _, err := c.coll.UpdateOne(ctx,
		bson.M{"_id": updated.ID(), "owner_id": updated.Owner()},
		bson.M{"$set": bson.M{
			"name":        updated.Name(),
			"description": updated.Description(),
			"color":       updated.Color(),
			"updated_at":  updated.UpdatedAt(),
		}},
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.Conflict("collection", domcol.DuplicateNameMessage)
		}
		return fmt.Errorf("update collection %s: %w", updated.ID(), err)
	}
	if matched == 0 {
		return domain.NotFound("collection", updated.ID())
	}
	return nil
}

// Delete removes the collection document. Member records are untouched.
func (c *Collections) Delete(ctx context.Context, col domcol.Collection) error {
	deleted, err := c.coll.DeleteOne(ctx, bson.M{"_id": col.ID(), "owner_id": col.Owner()})
	if err != nil {
		return fmt.Errorf("delete collection %s: %w", col.ID(), err)
	}
	if deleted == 0 {
		return domain.NotFound("collection", col.ID())
	}
	return nil
}

// AddMember appends searchID unless present. Reports whether the array changed.
// A collection deleted since it was read is reported as not found.
func (c *Collections) AddMember(ctx context.Context, col domcol.Collection, searchID string, now time.Time) (bool, error) {
	filter, update := addMemberUpdate(col, searchID, now)
	_, modified, err := c.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("add member %s: %w", searchID, err)
	}
	if modified > 0 {
		return true, nil
	}
	n, err := c.coll.CountDocuments(ctx, bson.M{"_id": col.ID(), "owner_id": col.Owner()})
	if err != nil {
		return false, fmt.Errorf("count collection %s: %w", col.ID(), err)
	}
	if n == 0 {
		return false, domain.NotFound("collection", col.ID())
	}
	return false, nil
}

// RemoveMember pulls searchID. Reports whether the array changed.
func (c *Collections) RemoveMember(ctx context.Context, col domcol.Collection, searchID string, now time.Time) (bool, error) {
	_, modified, err := c.coll.UpdateOne(ctx,
		bson.M{"_id": col.ID(), "owner_id": col.Owner(), "members": searchID},
		removeMembersUpdate([]string{searchID}, now),
	)
	if err != nil {
		return false, fmt.Errorf("remove member %s: %w", searchID, err)
	}
	return modified > 0, nil
}

// ListWithCounts returns a page of the owner's collections, newest first, with
// member counts computed server-side, plus the total count.
func (c *Collections) ListWithCounts(ctx context.Context, owner string, offset, limit int) ([]domcol.Listing, int, error) {
	total, err := c.coll.CountDocuments(ctx, bson.M{"owner_id": owner})
	if err != nil {
		return nil, 0, fmt.Errorf("count collections: %w", err)
	}
	if limit <= 0 || int64(offset) >= total {
		return []domcol.Listing{}, int(total), nil
	}

	var docs []listingDoc
	if err := c.coll.Aggregate(ctx, listingPipeline(owner, offset, limit), &docs); err != nil {
		return nil, 0, fmt.Errorf("aggregate collections: %w", err)
	}

	out := make([]domcol.Listing, len(docs))
	for i, d := range docs {
		out[i] = d.toDomain()
	}
	return out, int(total), nil
}

// RemoveEverywhere strips searchIDs from every collection of the owner.
func (c *Collections) RemoveEverywhere(ctx context.Context, owner string, searchIDs []string, now time.Time) error {
	if len(searchIDs) == 0 {
		return nil
	}
	_, err := c.coll.UpdateMany(ctx,
		bson.M{"owner_id": owner, "members": bson.M{"$in": searchIDs}},
		removeMembersUpdate(searchIDs, now),
	)
	if err != nil {
		return fmt.Errorf("strip members: %w", err)
	}
	return nil
}
