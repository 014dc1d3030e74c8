package history

import (
	"context"
	"fmt"
	"time"

	"github.com/abdul7867/SearchAi/internal/domain"
	domrec "github.com/abdul7867/SearchAi/internal/domain/record"
	"github.com/abdul7867/SearchAi/internal/metrics"
)

// DefaultKeep is the retention size used when none is configured.
const DefaultKeep = 100

// SortCreatedAt is the only accepted sort field (newest first).
const SortCreatedAt = "createdAt"

// Query selects a page of history.
type Query struct {
	Page           int
	Limit          int
	Sort           string
	BookmarkedOnly bool
}

// Page is one page of history summaries.
type Page struct {
	Searches   []domrec.Summary
	Pagination domain.Pagination
}

// Service handles history listing, clearing and retention cleanup.
type Service struct {
	records RecordRepository
	members MembershipRemover
	keep    int
	now     func() time.Time
}

// New creates a history service. keep <= 0 selects DefaultKeep.
func New(records RecordRepository, members MembershipRemover, keep int) *Service {
	if keep <= 0 {
		keep = DefaultKeep
	}
	return &Service{records: records, members: members, keep: keep, now: time.Now}
}

// WithClock overrides the clock used for collection timestamps.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Keep returns the retention size applied by Cleanup.
func (s *Service) Keep() int { return s.keep }

// List returns the owner's records newest first.
func (s *Service) List(ctx context.Context, owner string, q Query) (Page, error) {
	if owner == "" {
		return Page{}, domain.ErrUnauthorized
	}
	if q.Sort != "" && q.Sort != SortCreatedAt {
		return Page{}, domain.Invalid("sort must be %q", SortCreatedAt)
	}
	pr, err := domain.PageRequest{Page: q.Page, Limit: q.Limit}.Normalize(domain.DefaultPageSize, domain.MaxPageSize)
	if err != nil {
		return Page{}, err
	}

	recs, total, err := s.records.List(ctx, owner, domrec.ListFilter{
		Offset:         pr.Offset(),
		Limit:          pr.Limit,
		BookmarkedOnly: q.BookmarkedOnly,
	})
	if err != nil {
		return Page{}, fmt.Errorf("list history: %w", err)
	}

	summaries := make([]domrec.Summary, 0, len(recs))
	for _, r := range recs {
		if !r.OwnedBy(owner) {
			continue
		}
		summaries = append(summaries, r.Summarize())
	}
	return Page{Searches: summaries, Pagination: domain.NewPagination(pr, total)}, nil
}

// Bookmarked is List restricted to bookmarked records.
func (s *Service) Bookmarked(ctx context.Context, owner string, page, limit int) (Page, error) {
	return s.List(ctx, owner, Query{Page: page, Limit: limit, BookmarkedOnly: true})
}

// Clear deletes every record of the owner and strips them from the owner's collections.
func (s *Service) Clear(ctx context.Context, owner string) (int, error) {
	if owner == "" {
		return 0, domain.ErrUnauthorized
	}
	ids, err := s.records.DeleteAll(ctx, owner)
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	if err := s.cascade(ctx, owner, ids); err != nil {
		return len(ids), err
	}
	metrics.HistoryClearedTotal.Add(float64(len(ids)))
	return len(ids), nil
}

// Cleanup keeps the owner's most recent records plus every bookmarked one and
// deletes the rest. Running it twice deletes nothing the second time.
func (s *Service) Cleanup(ctx context.Context, owner string) (int, error) {
	if owner == "" {
		return 0, domain.ErrUnauthorized
	}
	ids, err := s.records.Cleanup(ctx, owner, s.keep)
	if err != nil {
		return 0, fmt.Errorf("cleanup history: %w", err)
	}
	if err := s.cascade(ctx, owner, ids); err != nil {
		return len(ids), err
	}
	metrics.HistoryCleanupDeletedTotal.Add(float64(len(ids)))
	return len(ids), nil
}

func (s *Service) cascade(ctx context.Context, owner string, ids []string) error {
	if len(ids) == 0 || s.members == nil {
		return nil
	}
	if err := s.members.RemoveEverywhere(ctx, owner, ids, s.now()); err != nil {
		return fmt.Errorf("remove deleted searches from collections: %w", err)
	}
	return nil
}
