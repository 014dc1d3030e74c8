package record

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/abdul7867/SearchAi/internal/domain"
)

// Field limits.
const (
	MaxQueryLen          = 500
	MaxAnswerLen         = 10000
	MaxConversationIDLen = 100
	MaxSourceTitleLen    = 200
	MaxSourceURLLen      = 500
	MaxSourceSnippetLen  = 500
	MaxSourceDomainLen   = 100
)

// Focus narrows the kind of answer the generator should produce.
type Focus string

const (
	// FocusGeneral is the default focus.
	FocusGeneral Focus = "general"
	// FocusAcademic prefers scholarly sources.
	FocusAcademic Focus = "academic"
	// FocusNews prefers recent reporting.
	FocusNews Focus = "news"
	// FocusTechnical prefers documentation and code.
	FocusTechnical Focus = "technical"
)

// IsValid reports whether f is one of the known focus values.
func (f Focus) IsValid() bool {
	switch f {
	case FocusGeneral, FocusAcademic, FocusNews, FocusTechnical:
		return true
	}
	return false
}

// ParseFocus maps an empty string to FocusGeneral and rejects unknown values.
func ParseFocus(s string) (Focus, error) {
	if s == "" {
		return FocusGeneral, nil
	}
	f := Focus(strings.ToLower(strings.TrimSpace(s)))
	if !f.IsValid() {
		return "", domain.Invalid("focus must be one of general, academic, news, technical")
	}
	return f, nil
}

// Source is one citation attached to an answer.
type Source struct {
	Title   string
	URL     string
	Snippet string
	Domain  string
}

// Metadata is informational bookkeeping about how an answer was produced.
type Metadata struct {
	ProcessingTimeMs   int64
	TokensUsed         int
	SearchResultsCount int
}

// Draft is the input for creating a record.
type Draft struct {
	Query          string
	Answer         string
	Sources        []Source
	Focus          Focus
	ConversationID string
	Metadata       Metadata
}

// Record is one executed search (immutable value object).
// Owner never changes after creation; the bookmark flag is the only mutable field.
type Record struct {
	id             string
	owner          string
	query          string
	answer         string
	sources        []Source
	focus          Focus
	conversationID string
	metadata       Metadata
	bookmarked     bool
	createdAt      time.Time
	updatedAt      time.Time
}

// New validates a draft and creates a Record stamped with now.
func New(id, owner string, d Draft, now time.Time) (Record, error) {
	if id == "" {
		return Record{}, domain.Invalid("search id is required")
	}
	if owner == "" {
		return Record{}, domain.Invalid("owner is required")
	}
	return build(id, owner, d, now)
}

// NewTransient validates a draft for an anonymous run. The result has no id
// or owner and is never persisted.
func NewTransient(d Draft, now time.Time) (Record, error) {
	return build("", "", d, now)
}

func build(id, owner string, d Draft, now time.Time) (Record, error) {
	query, err := ValidateQuery(d.Query)
	if err != nil {
		return Record{}, err
	}
	if utf8.RuneCountInString(d.Answer) > MaxAnswerLen {
		return Record{}, domain.Invalid("answer cannot exceed %d characters", MaxAnswerLen)
	}

	focus := d.Focus
	if focus == "" {
		focus = FocusGeneral
	}
	if !focus.IsValid() {
		return Record{}, domain.Invalid("focus must be one of general, academic, news, technical")
	}

	convID, err := ValidateConversationID(d.ConversationID)
	if err != nil {
		return Record{}, err
	}

	sources, err := normalizeSources(d.Sources)
	if err != nil {
		return Record{}, err
	}

	ts := now.UTC().Truncate(time.Millisecond)
	return Record{
		id:             id,
		owner:          owner,
		query:          query,
		answer:         d.Answer,
		sources:        sources,
		focus:          focus,
		conversationID: convID,
		metadata:       d.Metadata,
		createdAt:      ts,
		updatedAt:      ts,
	}, nil
}

// ValidateConversationID trims and length-checks an optional conversation id.
func ValidateConversationID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if utf8.RuneCountInString(id) > MaxConversationIDLen {
		return "", domain.Invalid("conversation id cannot exceed %d characters", MaxConversationIDLen)
	}
	return id, nil
}

// ValidateQuery trims the query and checks its length bounds.
func ValidateQuery(q string) (string, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return "", domain.Invalid("search query is required")
	}
	if utf8.RuneCountInString(q) > MaxQueryLen {
		return "", domain.Invalid("query cannot exceed %d characters", MaxQueryLen)
	}
	return q, nil
}

func normalizeSources(in []Source) ([]Source, error) {
	out := make([]Source, 0, len(in))
	for i, s := range in {
		s.Title = strings.TrimSpace(s.Title)
		s.URL = strings.TrimSpace(s.URL)
		s.Snippet = strings.TrimSpace(s.Snippet)
		s.Domain = strings.TrimSpace(s.Domain)
		switch {
		case s.Title == "":
			return nil, domain.Invalid("source %d: title is required", i)
		case s.URL == "":
			return nil, domain.Invalid("source %d: url is required", i)
		case utf8.RuneCountInString(s.Title) > MaxSourceTitleLen:
			return nil, domain.Invalid("source %d: title cannot exceed %d characters", i, MaxSourceTitleLen)
		case utf8.RuneCountInString(s.URL) > MaxSourceURLLen:
			return nil, domain.Invalid("source %d: url cannot exceed %d characters", i, MaxSourceURLLen)
		case utf8.RuneCountInString(s.Snippet) > MaxSourceSnippetLen:
			return nil, domain.Invalid("source %d: snippet cannot exceed %d characters", i, MaxSourceSnippetLen)
		case utf8.RuneCountInString(s.Domain) > MaxSourceDomainLen:
			return nil, domain.Invalid("source %d: domain cannot exceed %d characters", i, MaxSourceDomainLen)
		}
		out = append(out, s)
	}
	return out, nil
}

// Reconstruct creates a Record without validation (storage hydration).
func Reconstruct(
	id, owner, query, answer string, sources []Source, focus Focus, conversationID string,
	metadata Metadata, bookmarked bool, createdAt, updatedAt time.Time,
) Record {
	if focus == "" {
		focus = FocusGeneral
	}
	return Record{
		id:             id,
		owner:          owner,
		query:          query,
		answer:         answer,
		sources:        sources,
		focus:          focus,
		conversationID: conversationID,
		metadata:       metadata,
		bookmarked:     bookmarked,
		createdAt:      createdAt.UTC(),
		updatedAt:      updatedAt.UTC(),
	}
}

// WithBookmark returns a copy with the bookmark flag set and updatedAt bumped.
func (r Record) WithBookmark(bookmarked bool, now time.Time) Record {
	r.bookmarked = bookmarked
	r.updatedAt = now.UTC().Truncate(time.Millisecond)
	return r
}

// ID returns the record identifier.
func (r Record) ID() string { return r.id }

// Owner returns the owning user id.
func (r Record) Owner() string { return r.owner }

// Query returns the trimmed query text.
func (r Record) Query() string { return r.query }

// Answer returns the full generated answer.
func (r Record) Answer() string { return r.answer }

// Sources returns the ordered citations.
func (r Record) Sources() []Source { return r.sources }

// Focus returns the search focus.
func (r Record) Focus() Focus { return r.focus }

// ConversationID returns the multi-turn grouping id, possibly empty.
func (r Record) ConversationID() string { return r.conversationID }

// Metadata returns processing bookkeeping.
func (r Record) Metadata() Metadata { return r.metadata }

// IsBookmarked reports the bookmark flag.
func (r Record) IsBookmarked() bool { return r.bookmarked }

// CreatedAt returns the creation time.
func (r Record) CreatedAt() time.Time { return r.createdAt }

// UpdatedAt returns the last mutation time.
func (r Record) UpdatedAt() time.Time { return r.updatedAt }

// OwnedBy reports whether owner owns the record.
func (r Record) OwnedBy(owner string) bool { return r.owner != "" && r.owner == owner }

// ListFilter selects a page of an owner's records, newest first.
type ListFilter struct {
	Offset         int
	Limit          int
	BookmarkedOnly bool
}
