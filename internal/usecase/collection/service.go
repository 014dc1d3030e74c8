package collection

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/abdul7867/SearchAi/internal/domain"
	domcol "github.com/abdul7867/SearchAi/internal/domain/collection"
	domrec "github.com/abdul7867/SearchAi/internal/domain/record"
)

// CreateInput carries the fields of a new collection.
type CreateInput struct {
	Name        string
	Description string
	Color       string
}

// Page is one page of collections with member counts.
type Page struct {
	Collections []domcol.Listing
	Pagination  domain.Pagination
}

// Detail is a collection with its members resolved to summaries in membership order.
type Detail struct {
	Collection domcol.Collection
	Searches   []domrec.Summary
}

// Service handles collection CRUD and membership, scoped to one owner per call.
type Service struct {
	repo    Repository
	records RecordReader
	newID   func() string
	now     func() time.Time
}

// New creates a collection service.
func New(repo Repository, records RecordReader) *Service {
	return &Service{repo: repo, records: records, newID: uuid.NewString, now: time.Now}
}

// WithClock overrides the clock used for timestamps.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Create validates and stores a new empty collection.
func (s *Service) Create(ctx context.Context, owner string, in CreateInput) (domcol.Collection, error) {
	if owner == "" {
		return domcol.Collection{}, domain.ErrUnauthorized
	}
	col, err := domcol.New(s.newID(), owner, in.Name, in.Description, in.Color, s.now())
	if err != nil {
		return domcol.Collection{}, err
	}
	if err := s.repo.Create(ctx, col); err != nil {
		return domcol.Collection{}, fmt.Errorf("create collection: %w", err)
	}
	return col, nil
}

// Get returns a collection owned by owner.
func (s *Service) Get(ctx context.Context, owner, id string) (domcol.Collection, error) {
	col, err := s.repo.Get(ctx, id)
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("get collection: %w", err)
	}
	// A foreign collection is indistinguishable from a missing one.
	if !col.OwnedBy(owner) {
		return domcol.Collection{}, domain.NotFound("collection", id)
	}
	return col, nil
}

// Update applies a patch. Renaming onto another collection's name is a conflict.
func (s *Service) Update(ctx context.Context, owner, id string, patch domcol.Patch) (domcol.Collection, error) {
	if patch.IsEmpty() {
		return domcol.Collection{}, domain.Invalid("at least one of name, description or color is required")
	}
	prev, err := s.Get(ctx, owner, id)
	if err != nil {
		return domcol.Collection{}, err
	}
	updated, err := prev.Apply(patch, s.now())
	if err != nil {
		return domcol.Collection{}, err
	}
	if err := s.repo.Update(ctx, updated, prev); err != nil {
		return domcol.Collection{}, fmt.Errorf("update collection: %w", err)
	}
	return updated, nil
}

// Delete removes a collection. Member records are untouched.
func (s *Service) Delete(ctx context.Context, owner, id string) error {
	col, err := s.Get(ctx, owner, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, col); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	return nil
}

// AddMember appends searchID to the collection. Both must be owned by owner.
// Adding a present member is a successful no-op; added reports whether the set changed.
func (s *Service) AddMember(ctx context.Context, owner, collectionID, searchID string) (bool, error) {
	if searchID == "" {
		return false, domain.Invalid("searchId is required")
	}
	col, err := s.Get(ctx, owner, collectionID)
	if err != nil {
		return false, err
	}
	rec, err := s.records.Get(ctx, searchID)
	if err != nil {
		return false, fmt.Errorf("get search: %w", err)
	}
	if !rec.OwnedBy(owner) {
		return false, domain.NotFound("search", searchID)
	}
	if col.HasMember(searchID) {
		return false, nil
	}

	added, err := s.repo.AddMember(ctx, col, searchID, s.now())
	if err != nil {
		return false, fmt.Errorf("add member: %w", err)
	}
	return added, nil
}

// RemoveMember drops searchID from the collection. An absent member is a no-op.
func (s *Service) RemoveMember(ctx context.Context, owner, collectionID, searchID string) (bool, error) {
	col, err := s.Get(ctx, owner, collectionID)
	if err != nil {
		return false, err
	}
	removed, err := s.repo.RemoveMember(ctx, col, searchID, s.now())
	if err != nil {
		return false, fmt.Errorf("remove member: %w", err)
	}
	return removed, nil
}

// List returns the owner's collections newest first with member counts.
func (s *Service) List(ctx context.Context, owner string, page, limit int) (Page, error) {
	if owner == "" {
		return Page{}, domain.ErrUnauthorized
	}
	pr, err := domain.PageRequest{Page: page, Limit: limit}.Normalize(domain.DefaultPageSize, domain.MaxPageSize)
	if err != nil {
		return Page{}, err
	}
	listings, total, err := s.repo.ListWithCounts(ctx, owner, pr.Offset(), pr.Limit)
	if err != nil {
		return Page{}, fmt.Errorf("list collections: %w", err)
	}
	return Page{Collections: listings, Pagination: domain.NewPagination(pr, total)}, nil
}

// Detail returns the collection with its member summaries in membership order.
// Members whose record is gone or foreign are skipped.
func (s *Service) Detail(ctx context.Context, owner, id string) (Detail, error) {
	col, err := s.Get(ctx, owner, id)
	if err != nil {
		return Detail{}, err
	}
	recs, err := s.records.GetMany(ctx, col.Members())
	if err != nil {
		return Detail{}, fmt.Errorf("resolve members: %w", err)
	}
	summaries := make([]domrec.Summary, 0, len(recs))
	for _, r := range recs {
		if r.OwnedBy(owner) {
			summaries = append(summaries, r.Summarize())
		}
	}
	return Detail{Collection: col, Searches: summaries}, nil
}
