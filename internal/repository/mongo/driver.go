package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// findQuery carries the find options the repositories use. Zero values are unset.
type findQuery struct {
	Sort       bson.D
	Skip       int64
	Limit      int64
	Projection bson.M
}

// collection is the consumer interface over a MongoDB collection (ISP).
// FindOne returns mongo.ErrNoDocuments when nothing matches.
//
//nolint:interfacebloat // mirrors the CRUD subset of *mongo.Collection
type collection interface {
	InsertOne(ctx context.Context, doc any) error
	FindOne(ctx context.Context, filter any, q findQuery, out any) error
	Find(ctx context.Context, filter any, q findQuery, out any) error
	CountDocuments(ctx context.Context, filter any) (int64, error)
	UpdateOne(ctx context.Context, filter, update any) (matched, modified int64, err error)
	UpdateMany(ctx context.Context, filter, update any) (int64, error)
	DeleteOne(ctx context.Context, filter any) (int64, error)
	DeleteMany(ctx context.Context, filter any) (int64, error)
	Aggregate(ctx context.Context, pipeline any, out any) error
}

// driverCollection adapts *mongo.Collection to collection.
type driverCollection struct {
	coll *mongo.Collection
}

func (d driverCollection) InsertOne(ctx context.Context, doc any) error {
	_, err := d.coll.InsertOne(ctx, doc)
	return err
}

func (d driverCollection) FindOne(ctx context.Context, filter any, q findQuery, out any) error {
	opts := options.FindOne()
	if q.Sort != nil {
		opts.SetSort(q.Sort)
	}
	if q.Skip > 0 {
		opts.SetSkip(q.Skip)
	}
	if q.Projection != nil {
		opts.SetProjection(q.Projection)
	}
	return d.coll.FindOne(ctx, filter, opts).Decode(out)
}

func (d driverCollection) Find(ctx context.Context, filter any, q findQuery, out any) error {
	opts := options.Find()
	if q.Sort != nil {
		opts.SetSort(q.Sort)
	}
	if q.Skip > 0 {
		opts.SetSkip(q.Skip)
	}
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}
	if q.Projection != nil {
		opts.SetProjection(q.Projection)
	}
	cursor, err := d.coll.Find(ctx, filter, opts)
	if err != nil {
		return err
	}
	return cursor.All(ctx, out)
}

func (d driverCollection) CountDocuments(ctx context.Context, filter any) (int64, error) {
	return d.coll.CountDocuments(ctx, filter)
}

func (d driverCollection) UpdateOne(ctx context.Context, filter, update any) (int64, int64, error) {
	res, err := d.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return 0, 0, err
	}
	return res.MatchedCount, res.ModifiedCount, nil
}

func (d driverCollection) UpdateMany(ctx context.Context, filter, update any) (int64, error) {
	res, err := d.coll.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (d driverCollection) DeleteOne(ctx context.Context, filter any) (int64, error) {
	res, err := d.coll.DeleteOne(ctx, filter)
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (d driverCollection) DeleteMany(ctx context.Context, filter any) (int64, error) {
	res, err := d.coll.DeleteMany(ctx, filter)
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (d driverCollection) Aggregate(ctx context.Context, pipeline any, out any) error {
	cursor, err := d.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	return cursor.All(ctx, out)
}
