package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/abdul7867/SearchAi/internal/domain"
	domrec "github.com/abdul7867/SearchAi/internal/domain/record"
	"github.com/abdul7867/SearchAi/internal/metrics"
)

// Execution statuses reported to metrics.
const (
	statusPersisted = "persisted"
	statusAnonymous = "anonymous"
	statusError     = "error"
)

// Input is a search request as received from a client.
type Input struct {
	Query          string
	Focus          string
	ConversationID string
}

// Service runs searches and manages single records.
type Service struct {
	generator Generator
	records   RecordRepository
	members   MembershipRemover
	newID     func() string
	now       func() time.Time
}

// New creates a search service.
func New(generator Generator, records RecordRepository, members MembershipRemover) *Service {
	return &Service{
		generator: generator,
		records:   records,
		members:   members,
		newID:     uuid.NewString,
		now:       time.Now,
	}
}

// WithClock overrides the clock used for timestamps and processing time.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Execute asks the generator and, when owner is set, persists the result.
// Anonymous results carry no id and are not stored.
func (s *Service) Execute(ctx context.Context, owner string, in Input) (domrec.Record, error) {
	query, err := domrec.ValidateQuery(in.Query)
	if err != nil {
		return domrec.Record{}, err
	}
	focus, err := domrec.ParseFocus(in.Focus)
	if err != nil {
		return domrec.Record{}, err
	}
	convID, err := domrec.ValidateConversationID(in.ConversationID)
	if err != nil {
		return domrec.Record{}, err
	}

	start := s.now()
	gen, err := s.generator.Generate(ctx, domrec.Prompt{
		Query:          query,
		Focus:          focus,
		ConversationID: convID,
	})
	if err != nil {
		metrics.SearchExecutionsTotal.WithLabelValues(string(focus), statusError).Inc()
		if errors.Is(err, domain.ErrUpstream) || errors.Is(err, context.Canceled) {
			return domrec.Record{}, fmt.Errorf("generate answer: %w", err)
		}
		return domrec.Record{}, fmt.Errorf("generate answer: %w: %w", domain.ErrUpstream, err)
	}
	end := s.now()

	gen = gen.Fit()
	draft := domrec.Draft{
		Query:          query,
		Answer:         gen.Answer,
		Sources:        gen.Sources,
		Focus:          focus,
		ConversationID: convID,
		Metadata: domrec.Metadata{
			ProcessingTimeMs:   end.Sub(start).Milliseconds(),
			TokensUsed:         gen.TokensUsed,
			SearchResultsCount: gen.SearchResultsCount,
		},
	}

	if owner == "" {
		rec, err := domrec.NewTransient(draft, end)
		if err != nil {
			return domrec.Record{}, err
		}
		metrics.SearchExecutionsTotal.WithLabelValues(string(focus), statusAnonymous).Inc()
		return rec, nil
	}

	rec, err := domrec.New(s.newID(), owner, draft, end)
	if err != nil {
		return domrec.Record{}, err
	}
	if err := s.records.Save(ctx, rec); err != nil {
		metrics.SearchExecutionsTotal.WithLabelValues(string(focus), statusError).Inc()
		return domrec.Record{}, fmt.Errorf("save search: %w", err)
	}
	metrics.SearchExecutionsTotal.WithLabelValues(string(focus), statusPersisted).Inc()
	return rec, nil
}

// Get returns the full record owned by owner.
func (s *Service) Get(ctx context.Context, owner, id string) (domrec.Record, error) {
	rec, err := s.records.Get(ctx, id)
	if err != nil {
		return domrec.Record{}, fmt.Errorf("get search: %w", err)
	}
	if !rec.OwnedBy(owner) {
		return domrec.Record{}, domain.NotFound("search", id)
	}
	return rec, nil
}

// Delete removes one record and strips it from the owner's collections.
func (s *Service) Delete(ctx context.Context, owner, id string) error {
	rec, err := s.Get(ctx, owner, id)
	if err != nil {
		return err
	}
	if err := s.records.Delete(ctx, rec); err != nil {
		return fmt.Errorf("delete search: %w", err)
	}
	if s.members == nil {
		return nil
	}
	if err := s.members.RemoveEverywhere(ctx, owner, []string{id}, s.now()); err != nil {
		return fmt.Errorf("remove deleted search from collections: %w", err)
	}
	return nil
}

// ToggleBookmark flips the bookmark flag and returns the new state.
func (s *Service) ToggleBookmark(ctx context.Context, owner, id string) (bool, error) {
	rec, err := s.Get(ctx, owner, id)
	if err != nil {
		return false, err
	}
	updated := rec.WithBookmark(!rec.IsBookmarked(), s.now())
	if err := s.records.SetBookmark(ctx, updated); err != nil {
		return false, fmt.Errorf("toggle bookmark: %w", err)
	}
	return updated.IsBookmarked(), nil
}
