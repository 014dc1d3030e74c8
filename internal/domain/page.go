package domain

import "math"

// Page size bounds shared by every paginated listing.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageRequest is an offset-based page selector. Page is 1-based.
type PageRequest struct {
	Page  int
	Limit int
}

// Normalize fills zero values with defaults and rejects out-of-range input.
func (p PageRequest) Normalize(defaultLimit, maxLimit int) (PageRequest, error) {
	if defaultLimit <= 0 {
		defaultLimit = DefaultPageSize
	}
	if maxLimit <= 0 {
		maxLimit = MaxPageSize
	}
	if p.Page == 0 {
		p.Page = 1
	}
	if p.Limit == 0 {
		p.Limit = defaultLimit
	}
	if p.Page < 1 {
		return PageRequest{}, Invalid("page must be >= 1, got %d", p.Page)
	}
	if p.Limit < 1 || p.Limit > maxLimit {
		return PageRequest{}, Invalid("limit must be between 1 and %d, got %d", maxLimit, p.Limit)
	}
	// Offset must not overflow.
	if p.Page-1 > math.MaxInt/p.Limit {
		return PageRequest{}, Invalid("page %d is out of range", p.Page)
	}
	return p, nil
}

// Offset returns the number of items to skip.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Pagination describes a returned page.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// NewPagination computes pages = ceil(total/limit).
func NewPagination(p PageRequest, total int) Pagination {
	pages := 0
	if p.Limit > 0 {
		pages = (total + p.Limit - 1) / p.Limit
	}
	return Pagination{Page: p.Page, Limit: p.Limit, Total: total, Pages: pages}
}
