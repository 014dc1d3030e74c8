package domain

import (
	"errors"
	"math"
	"testing"
)

func TestPageRequest_Normalize(t *testing.T) {
	tests := []struct {
		name    string
		in      PageRequest
		want    PageRequest
		wantErr bool
	}{
		{"defaults", PageRequest{}, PageRequest{Page: 1, Limit: 20}, false},
		{"explicit", PageRequest{Page: 3, Limit: 50}, PageRequest{Page: 3, Limit: 50}, false},
		{"max limit", PageRequest{Page: 1, Limit: 100}, PageRequest{Page: 1, Limit: 100}, false},
		{"limit over max", PageRequest{Page: 1, Limit: 101}, PageRequest{}, true},
		{"negative page", PageRequest{Page: -1, Limit: 10}, PageRequest{}, true},
		{"negative limit", PageRequest{Page: 1, Limit: -5}, PageRequest{}, true},
		{"offset overflow", PageRequest{Page: 1 << 62, Limit: 4}, PageRequest{}, true},
		{"max page at limit 1", PageRequest{Page: math.MaxInt, Limit: 1}, PageRequest{Page: math.MaxInt, Limit: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.in.Normalize(DefaultPageSize, MaxPageSize)
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("expected ErrValidation, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Normalize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPageRequest_Offset(t *testing.T) {
	if got := (PageRequest{Page: 3, Limit: 20}).Offset(); got != 40 {
		t.Errorf("Offset() = %d, want 40", got)
	}
}

func TestNewPagination(t *testing.T) {
	tests := []struct {
		total, limit, wantPages int
	}{
		{0, 20, 0},
		{1, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{105, 20, 6},
	}
	for _, tt := range tests {
		p := NewPagination(PageRequest{Page: 1, Limit: tt.limit}, tt.total)
		if p.Pages != tt.wantPages {
			t.Errorf("total=%d limit=%d: Pages = %d, want %d", tt.total, tt.limit, p.Pages, tt.wantPages)
		}
	}
}
