package collection

import (
	"context"
	"time"

	domcol "github.com/abdul7867/SearchAi/internal/domain/collection"
	domrec "github.com/abdul7867/SearchAi/internal/domain/record"
)

// Repository defines the storage contract for collections.
type Repository interface {
	Create(ctx context.Context, col domcol.Collection) error
	Get(ctx context.Context, id string) (domcol.Collection, error)
	Update(ctx context.Context, updated, previous domcol.Collection) error
	Delete(ctx context.Context, col domcol.Collection) error
	AddMember(ctx context.Context, col domcol.Collection, searchID string, now time.Time) (bool, error)
	RemoveMember(ctx context.Context, col domcol.Collection, searchID string, now time.Time) (bool, error)
	ListWithCounts(ctx context.Context, owner string, offset, limit int) ([]domcol.Listing, int, error)
}

// RecordReader reads search records for ownership checks and detail views.
type RecordReader interface {
	Get(ctx context.Context, id string) (domrec.Record, error)
	GetMany(ctx context.Context, ids []string) ([]domrec.Record, error)
}
