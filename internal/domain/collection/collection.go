package collection

import (
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/abdul7867/SearchAi/internal/domain"
)

// DefaultColor is applied when no color is supplied.
const DefaultColor = "#3B82F6"

// DuplicateNameMessage is the client message for a per-owner name conflict.
const DuplicateNameMessage = "Collection with this name already exists"

// Field limits.
const (
	MaxNameLen        = 100
	MaxDescriptionLen = 500
)

var colorRegex = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Collection is a named, colored grouping of search record ids (immutable value object).
// Members form an ordered set: insertion order is kept and ids never repeat.
type Collection struct {
	id          string
	owner       string
	name        string
	description string
	color       string
	members     []string
	createdAt   time.Time
	updatedAt   time.Time
}

// Patch carries optional field updates; nil means unchanged.
type Patch struct {
	Name        *string
	Description *string
	Color       *string
}

// IsEmpty reports whether no field is set.
func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Color == nil
}

// ValidateName trims and checks a collection name.
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.Invalid("collection name is required")
	}
	if utf8.RuneCountInString(name) > MaxNameLen {
		return "", domain.Invalid("collection name cannot exceed %d characters", MaxNameLen)
	}
	return name, nil
}

func validateDescription(desc string) (string, error) {
	desc = strings.TrimSpace(desc)
	if utf8.RuneCountInString(desc) > MaxDescriptionLen {
		return "", domain.Invalid("description cannot exceed %d characters", MaxDescriptionLen)
	}
	return desc, nil
}

func validateColor(color string) (string, error) {
	color = strings.TrimSpace(color)
	if color == "" {
		return DefaultColor, nil
	}
	if !colorRegex.MatchString(color) {
		return "", domain.Invalid("color must be a hex value like #3B82F6")
	}
	return strings.ToUpper(color), nil
}

// New validates and creates an empty Collection stamped with now.
func New(id, owner, name, description, color string, now time.Time) (Collection, error) {
	if id == "" {
		return Collection{}, domain.Invalid("collection id is required")
	}
	if owner == "" {
		return Collection{}, domain.Invalid("owner is required")
	}
	name, err := ValidateName(name)
	if err != nil {
		return Collection{}, err
	}
	description, err = validateDescription(description)
	if err != nil {
		return Collection{}, err
	}
	color, err = validateColor(color)
	if err != nil {
		return Collection{}, err
	}

	ts := now.UTC().Truncate(time.Millisecond)
	return Collection{
		id:          id,
		owner:       owner,
		name:        name,
		description: description,
		color:       color,
		createdAt:   ts,
		updatedAt:   ts,
	}, nil
}

// Reconstruct creates a Collection without validation (storage hydration).
func Reconstruct(
	id, owner, name, description, color string, members []string,
	createdAt, updatedAt time.Time,
) Collection {
	if color == "" {
		color = DefaultColor
	}
	return Collection{
		id:          id,
		owner:       owner,
		name:        name,
		description: description,
		color:       color,
		members:     members,
		createdAt:   createdAt.UTC(),
		updatedAt:   updatedAt.UTC(),
	}
}

// Apply validates a patch and returns the updated copy.
func (c Collection) Apply(p Patch, now time.Time) (Collection, error) {
	if p.Name != nil {
		name, err := ValidateName(*p.Name)
		if err != nil {
			return Collection{}, err
		}
		c.name = name
	}
	if p.Description != nil {
		desc, err := validateDescription(*p.Description)
		if err != nil {
			return Collection{}, err
		}
		c.description = desc
	}
	if p.Color != nil {
		color, err := validateColor(*p.Color)
		if err != nil {
			return Collection{}, err
		}
		c.color = color
	}
	c.updatedAt = now.UTC().Truncate(time.Millisecond)
	return c, nil
}

// WithMember appends searchID unless already present. changed is false for a no-op.
func (c Collection) WithMember(searchID string, now time.Time) (Collection, bool) {
	if c.HasMember(searchID) {
		return c, false
	}
	members := make([]string, 0, len(c.members)+1)
	members = append(members, c.members...)
	c.members = append(members, searchID)
	c.updatedAt = now.UTC().Truncate(time.Millisecond)
	return c, true
}

// WithoutMembers drops every listed id. changed is false when none were present.
func (c Collection) WithoutMembers(now time.Time, searchIDs ...string) (Collection, bool) {
	if len(searchIDs) == 0 || len(c.members) == 0 {
		return c, false
	}
	drop := make(map[string]struct{}, len(searchIDs))
	for _, id := range searchIDs {
		drop[id] = struct{}{}
	}
	kept := make([]string, 0, len(c.members))
	for _, m := range c.members {
		if _, ok := drop[m]; !ok {
			kept = append(kept, m)
		}
	}
	if len(kept) == len(c.members) {
		return c, false
	}
	c.members = kept
	c.updatedAt = now.UTC().Truncate(time.Millisecond)
	return c, true
}

// ID returns the collection identifier.
func (c Collection) ID() string { return c.id }

// Owner returns the owning user id.
func (c Collection) Owner() string { return c.owner }

// Name returns the trimmed display name.
func (c Collection) Name() string { return c.name }

// Description returns the optional description.
func (c Collection) Description() string { return c.description }

// Color returns the hex color.
func (c Collection) Color() string { return c.color }

// Members returns member ids in insertion order.
func (c Collection) Members() []string { return c.members }

// HasMember checks membership.
func (c Collection) HasMember(searchID string) bool { return slices.Contains(c.members, searchID) }

// CreatedAt returns the creation time.
func (c Collection) CreatedAt() time.Time { return c.createdAt }

// UpdatedAt returns the last mutation time.
func (c Collection) UpdatedAt() time.Time { return c.updatedAt }

// OwnedBy reports whether owner owns the collection.
func (c Collection) OwnedBy(owner string) bool { return c.owner != "" && c.owner == owner }

// Listing is a collection with its member count, used by list views.
type Listing struct {
	Collection    Collection
	SearchesCount int
}
