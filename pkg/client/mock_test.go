package client

import (
	"context"
	"net/http"
)

// --- backend mock ---

type mockBackend struct {
	authenticated bool

	historyFn     func(ctx context.Context, q HistoryQuery) (SearchPage, error)
	bookmarkedFn  func(ctx context.Context, page, limit int) (SearchPage, error)
	clearFn       func(ctx context.Context) (int, string, error)
	cleanupFn     func(ctx context.Context) (int, string, error)
	deleteFn      func(ctx context.Context, id string) error
	toggleFn      func(ctx context.Context, id string) (bool, error)
	collectionsFn func(ctx context.Context, page, limit int) (CollectionPage, error)
	collectionFn  func(ctx context.Context, id string) (CollectionDetail, error)
	createFn      func(ctx context.Context, in CollectionInput) (Collection, error)
	updateFn      func(ctx context.Context, id string, in CollectionInput) (Collection, error)
	deleteColFn   func(ctx context.Context, id string) error
	addFn         func(ctx context.Context, collectionID, searchID string) (Result, error)
	removeFn      func(ctx context.Context, collectionID, searchID string) (Result, error)
}

func (m *mockBackend) Authenticated() bool { return m.authenticated }

func (m *mockBackend) PageLimit() int { return 2 }

func (m *mockBackend) History(ctx context.Context, q HistoryQuery) (SearchPage, error) {
	return m.historyFn(ctx, q)
}

func (m *mockBackend) Bookmarked(ctx context.Context, page, limit int) (SearchPage, error) {
	return m.bookmarkedFn(ctx, page, limit)
}

func (m *mockBackend) ClearHistory(ctx context.Context) (int, string, error) {
	return m.clearFn(ctx)
}

func (m *mockBackend) CleanupHistory(ctx context.Context) (int, string, error) {
	return m.cleanupFn(ctx)
}

func (m *mockBackend) DeleteSearch(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

func (m *mockBackend) ToggleBookmark(ctx context.Context, id string) (bool, error) {
	return m.toggleFn(ctx, id)
}

func (m *mockBackend) Collections(ctx context.Context, page, limit int) (CollectionPage, error) {
	return m.collectionsFn(ctx, page, limit)
}

func (m *mockBackend) Collection(ctx context.Context, id string) (CollectionDetail, error) {
	return m.collectionFn(ctx, id)
}

func (m *mockBackend) CreateCollection(ctx context.Context, in CollectionInput) (Collection, error) {
	return m.createFn(ctx, in)
}

func (m *mockBackend) UpdateCollection(ctx context.Context, id string, in CollectionInput) (Collection, error) {
	return m.updateFn(ctx, id, in)
}

func (m *mockBackend) DeleteCollection(ctx context.Context, id string) error {
	return m.deleteColFn(ctx, id)
}

func (m *mockBackend) AddToCollection(ctx context.Context, collectionID, searchID string) (Result, error) {
	return m.addFn(ctx, collectionID, searchID)
}

func (m *mockBackend) RemoveFromCollection(ctx context.Context, collectionID, searchID string) (Result, error) {
	return m.removeFn(ctx, collectionID, searchID)
}

// unauthorized mimics Client: a 401 drops the token.
func (m *mockBackend) unauthorized(op string) error {
	m.authenticated = false
	return &APIError{Op: op, Status: http.StatusUnauthorized, Message: "Not authorized, token failed"}
}

func summaries(ids ...string) []Summary {
	out := make([]Summary, len(ids))
	for i, id := range ids {
		out[i] = Summary{ID: id, Query: "q-" + id}
	}
	return out
}

func pageOf(page int, total int, ids ...string) SearchPage {
	return SearchPage{
		Searches:   summaries(ids...),
		Pagination: Pagination{Page: page, Limit: 2, Total: total, Pages: (total + 1) / 2},
	}
}

func idsOf(items []Summary) []string {
	out := make([]string, len(items))
	for i, r := range items {
		out[i] = r.ID
	}
	return out
}
