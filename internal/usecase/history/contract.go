package history

import (
	"context"
	"time"

	domrec "github.com/abdul7867/SearchAi/internal/domain/record"
)

// RecordRepository defines the storage contract for search records.
type RecordRepository interface {
	List(ctx context.Context, owner string, f domrec.ListFilter) ([]domrec.Record, int, error)
	DeleteAll(ctx context.Context, owner string) ([]string, error)
	Cleanup(ctx context.Context, owner string, keep int) ([]string, error)
}

// MembershipRemover strips deleted record ids from every collection of the owner.
type MembershipRemover interface {
	RemoveEverywhere(ctx context.Context, owner string, searchIDs []string, now time.Time) error
}
