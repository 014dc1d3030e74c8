package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// Collection names.
const (
	SearchesCollection    = "searches"
	CollectionsCollection = "collections"
)

// Config holds connection parameters for MongoDB.
type Config struct {
	URI         string
	Database    string
	MaxPoolSize uint64
}

// Client wraps a connected MongoDB client bound to one database.
type Client struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect opens a client. The driver connects lazily; call WaitForReady before serving.
func Connect(cfg Config) (*Client, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("uri is required")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("database is required")
	}

	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}
	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	return &Client{client: client, db: client.Database(cfg.Database)}, nil
}

// Database returns the bound database handle.
func (c *Client) Database() *mongo.Database { return c.db }

// Ping checks connectivity against the primary.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// WaitForReady polls Ping until the server responds or timeout expires.
func (c *Client) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for database: %w", ctx.Err())
		case <-ticker.C:
			if err := c.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// Indexes returns the index models each collection needs.
func Indexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		SearchesCollection: {
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "is_bookmarked", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "conversation_id", Value: 1}}},
		},
		CollectionsCollection: {
			{
				Keys:    bson.D{{Key: "owner_id", Value: 1}, {Key: "name", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("unique_name_per_owner"),
			},
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "members", Value: 1}}},
		},
	}
}

// EnsureIndexes creates the indexes from Indexes. Existing identical indexes are a no-op.
func (c *Client) EnsureIndexes(ctx context.Context) error {
	for name, models := range Indexes() {
		if _, err := c.db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes for %s: %w", name, err)
		}
	}
	return nil
}
