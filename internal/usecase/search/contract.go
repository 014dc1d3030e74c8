package search

import (
	"context"
	"time"

	domrec "github.com/abdul7867/SearchAi/internal/domain/record"
)

// Generator produces an answer with sources for a prompt. Implementations
// report provider failures wrapped in domain.ErrUpstream.
type Generator interface {
	Generate(ctx context.Context, p domrec.Prompt) (domrec.Generation, error)
}

// RecordRepository defines the storage contract for single search records.
type RecordRepository interface {
	Save(ctx context.Context, rec domrec.Record) error
	Get(ctx context.Context, id string) (domrec.Record, error)
	SetBookmark(ctx context.Context, rec domrec.Record) error
	Delete(ctx context.Context, rec domrec.Record) error
}

// MembershipRemover strips deleted record ids from every collection of the owner.
type MembershipRemover interface {
	RemoveEverywhere(ctx context.Context, owner string, searchIDs []string, now time.Time) error
}
