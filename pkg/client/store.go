package client

import (
	"context"
	"slices"
	"sync"
)

// backend is the subset of Client the Store drives.
//
//nolint:interfacebloat // mirrors every synchronized endpoint
type backend interface {
	Authenticated() bool
	PageLimit() int
	History(ctx context.Context, q HistoryQuery) (SearchPage, error)
	Bookmarked(ctx context.Context, page, limit int) (SearchPage, error)
	ClearHistory(ctx context.Context) (int, string, error)
	CleanupHistory(ctx context.Context) (int, string, error)
	DeleteSearch(ctx context.Context, id string) error
	ToggleBookmark(ctx context.Context, id string) (bool, error)
	Collections(ctx context.Context, page, limit int) (CollectionPage, error)
	Collection(ctx context.Context, id string) (CollectionDetail, error)
	CreateCollection(ctx context.Context, in CollectionInput) (Collection, error)
	UpdateCollection(ctx context.Context, id string, in CollectionInput) (Collection, error)
	DeleteCollection(ctx context.Context, id string) error
	AddToCollection(ctx context.Context, collectionID, searchID string) (Result, error)
	RemoveFromCollection(ctx context.Context, collectionID, searchID string) (Result, error)
}

// Snapshot is an immutable copy of the Store's views.
type Snapshot struct {
	Authenticated bool

	History        []Summary
	HistoryPage    Pagination
	HistorySort    string
	Bookmarked     []Summary
	BookmarkedPage Pagination

	Collections     []Collection
	CollectionsPage Pagination
	Current         *CollectionDetail

	// LastError is the user message of the most recent failed action.
	LastError string
}

// Store mirrors history, bookmark and collection state for one session.
// Local state changes only after the server confirms an action.
// Safe for concurrent use; requests run outside the lock.
type Store struct {
	api backend

	mu    sync.Mutex
	state Snapshot
}

// NewStore creates an empty store over c.
func NewStore(c *Client) *Store {
	return newStore(c)
}

func newStore(api backend) *Store {
	return &Store{api: api, state: Snapshot{Authenticated: api.Authenticated()}}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Reset wipes every view, as on logout.
func (s *Store) Reset() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Snapshot{Authenticated: s.api.Authenticated()}
	return s.state.clone()
}

// LoadHistory fetches a history page. Page 1 replaces the view, later pages
// append unseen records. A sort change must start again from page 1.
func (s *Store) LoadHistory(ctx context.Context, page int, sort string) (Snapshot, error) {
	res, err := s.api.History(ctx, HistoryQuery{Page: page, Limit: s.api.PageLimit(), Sort: sort})
	return s.apply(err, func(st *Snapshot) {
		st.History = mergePage(st.History, res.Searches, res.Pagination.Page)
		st.HistoryPage = res.Pagination
		st.HistorySort = sort
	})
}

// LoadBookmarked fetches a page of the bookmarked view with the same merge rule.
func (s *Store) LoadBookmarked(ctx context.Context, page int) (Snapshot, error) {
	res, err := s.api.Bookmarked(ctx, page, s.api.PageLimit())
	return s.apply(err, func(st *Snapshot) {
		st.Bookmarked = mergePage(st.Bookmarked, res.Searches, res.Pagination.Page)
		st.BookmarkedPage = res.Pagination
	})
}

// RefreshBookmarked reloads the bookmarked view from page 1, dropping records
// unbookmarked since the last fetch.
func (s *Store) RefreshBookmarked(ctx context.Context) (Snapshot, error) {
	return s.LoadBookmarked(ctx, 1)
}

// ToggleBookmark flips a bookmark and rewrites the flag wherever the record is
// mirrored. The bookmarked view keeps unbookmarked records until it is refetched.
func (s *Store) ToggleBookmark(ctx context.Context, id string) (Snapshot, error) {
	marked, err := s.api.ToggleBookmark(ctx, id)
	return s.apply(err, func(st *Snapshot) {
		setFlag(st.History, id, marked)
		setFlag(st.Bookmarked, id, marked)
		if st.Current != nil {
			setFlag(st.Current.Searches, id, marked)
		}
	})
}

// DeleteSearch deletes one record and drops it from every view.
func (s *Store) DeleteSearch(ctx context.Context, id string) (Snapshot, error) {
	err := s.api.DeleteSearch(ctx, id)
	return s.apply(err, func(st *Snapshot) {
		var removed bool
		st.History, removed = without(st.History, id)
		if removed {
			st.HistoryPage.Total = max(st.HistoryPage.Total-1, 0)
		}
		st.Bookmarked, removed = without(st.Bookmarked, id)
		if removed {
			st.BookmarkedPage.Total = max(st.BookmarkedPage.Total-1, 0)
		}
		if st.Current != nil {
			st.Current.Searches, removed = without(st.Current.Searches, id)
			if removed {
				st.Current.SearchesCount = len(st.Current.Searches)
				setCount(st.Collections, st.Current.ID, st.Current.SearchesCount)
			}
		}
	})
}

// ClearHistory deletes every record and empties all record views.
func (s *Store) ClearHistory(ctx context.Context) (int, Snapshot, error) {
	n, _, err := s.api.ClearHistory(ctx)
	snap, err := s.apply(err, func(st *Snapshot) {
		st.History = []Summary{}
		st.HistoryPage = Pagination{Page: 1, Limit: s.api.PageLimit()}
		st.Bookmarked = []Summary{}
		st.BookmarkedPage = Pagination{Page: 1, Limit: s.api.PageLimit()}
		for i := range st.Collections {
			st.Collections[i].SearchesCount = 0
		}
		if st.Current != nil {
			st.Current.Searches = []Summary{}
			st.Current.SearchesCount = 0
		}
	})
	return n, snap, err
}

// CleanupHistory prunes old records on the server, then reloads history page 1.
// When records were deleted, the open collection and the collection list are
// refetched too.
func (s *Store) CleanupHistory(ctx context.Context) (int, Snapshot, error) {
	n, _, err := s.api.CleanupHistory(ctx)
	if err != nil {
		snap, _ := s.apply(err, nil)
		return 0, snap, err
	}
	before := s.Snapshot()
	snap, err := s.LoadHistory(ctx, 1, before.HistorySort)
	if err != nil || n == 0 {
		return n, snap, err
	}

	// Deleted records also left every collection.
	if before.Current != nil {
		if snap, err = s.OpenCollection(ctx, before.Current.ID); err != nil {
			return n, snap, err
		}
	}
	if len(before.Collections) > 0 {
		snap, err = s.LoadCollections(ctx, 1)
	}
	return n, snap, err
}

// LoadCollections fetches a page of collections with the page merge rule.
func (s *Store) LoadCollections(ctx context.Context, page int) (Snapshot, error) {
	res, err := s.api.Collections(ctx, page, s.api.PageLimit())
	return s.apply(err, func(st *Snapshot) {
		st.Collections = mergeCollections(st.Collections, res.Collections, res.Pagination.Page)
		st.CollectionsPage = res.Pagination
	})
}

// OpenCollection loads a collection detail as the current collection.
func (s *Store) OpenCollection(ctx context.Context, id string) (Snapshot, error) {
	d, err := s.api.Collection(ctx, id)
	return s.apply(err, func(st *Snapshot) {
		st.Current = &d
		setCount(st.Collections, d.ID, len(d.Searches))
	})
}

// CreateCollection creates a collection and puts it at the head of the list.
func (s *Store) CreateCollection(ctx context.Context, in CollectionInput) (Collection, Snapshot, error) {
	col, err := s.api.CreateCollection(ctx, in)
	snap, err := s.apply(err, func(st *Snapshot) {
		st.Collections = append([]Collection{col}, st.Collections...)
		st.CollectionsPage.Total++
	})
	return col, snap, err
}

// UpdateCollection patches a collection and rewrites its list entry and detail.
func (s *Store) UpdateCollection(ctx context.Context, id string, in CollectionInput) (Snapshot, error) {
	col, err := s.api.UpdateCollection(ctx, id, in)
	return s.apply(err, func(st *Snapshot) {
		if i := slices.IndexFunc(st.Collections, func(c Collection) bool { return c.ID == id }); i >= 0 {
			st.Collections[i] = col
		}
		if st.Current != nil && st.Current.ID == id {
			st.Current.Collection = col
		}
	})
}

// DeleteCollection deletes a collection. Member records stay in history.
func (s *Store) DeleteCollection(ctx context.Context, id string) (Snapshot, error) {
	err := s.api.DeleteCollection(ctx, id)
	return s.apply(err, func(st *Snapshot) {
		before := len(st.Collections)
		st.Collections = slices.DeleteFunc(st.Collections, func(c Collection) bool { return c.ID == id })
		if len(st.Collections) < before {
			st.CollectionsPage.Total = max(st.CollectionsPage.Total-1, 0)
		}
		if st.Current != nil && st.Current.ID == id {
			st.Current = nil
		}
	})
}

// AddToCollection adds a record to a collection.
func (s *Store) AddToCollection(ctx context.Context, collectionID, searchID string) (Result, Snapshot, error) {
	res, err := s.api.AddToCollection(ctx, collectionID, searchID)
	snap, err := s.afterMembership(ctx, collectionID, res, +1, err)
	return res, snap, err
}

// RemoveFromCollection removes a record from a collection.
func (s *Store) RemoveFromCollection(ctx context.Context, collectionID, searchID string) (Result, Snapshot, error) {
	res, err := s.api.RemoveFromCollection(ctx, collectionID, searchID)
	snap, err := s.afterMembership(ctx, collectionID, res, -1, err)
	return res, snap, err
}

// afterMembership refetches the current detail when it is the mutated
// collection, and keeps the list count in step.
func (s *Store) afterMembership(
	ctx context.Context, collectionID string, res Result, delta int, err error,
) (Snapshot, error) {
	if err != nil {
		return s.apply(err, nil)
	}

	s.mu.Lock()
	isCurrent := s.state.Current != nil && s.state.Current.ID == collectionID
	s.mu.Unlock()

	if isCurrent {
		return s.OpenCollection(ctx, collectionID)
	}
	return s.apply(nil, func(st *Snapshot) {
		if !res.Changed {
			return
		}
		if i := slices.IndexFunc(st.Collections, func(c Collection) bool { return c.ID == collectionID }); i >= 0 {
			st.Collections[i].SearchesCount = max(st.Collections[i].SearchesCount+delta, 0)
		}
	})
}

// apply runs mutate under the lock when err is nil. A 401 wipes every view.
// Other failures only record the user message.
func (s *Store) apply(err error, mutate func(*Snapshot)) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		if IsUnauthorized(err) {
			s.state = Snapshot{}
		}
		s.state.Authenticated = s.api.Authenticated()
		s.state.LastError = UserMessage(err)
		return s.state.clone(), err
	}

	if mutate != nil {
		mutate(&s.state)
	}
	s.state.Authenticated = s.api.Authenticated()
	s.state.LastError = ""
	return s.state.clone(), nil
}

// mergePage replaces on page 1 and appends unseen ids otherwise, in arrival order.
func mergePage(local, incoming []Summary, page int) []Summary {
	if page <= 1 {
		return slices.Clone(incoming)
	}
	seen := make(map[string]struct{}, len(local))
	for _, r := range local {
		seen[r.ID] = struct{}{}
	}
	out := slices.Clone(local)
	for _, r := range incoming {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}

func mergeCollections(local, incoming []Collection, page int) []Collection {
	if page <= 1 {
		return slices.Clone(incoming)
	}
	out := slices.Clone(local)
	for _, c := range incoming {
		if !slices.ContainsFunc(out, func(x Collection) bool { return x.ID == c.ID }) {
			out = append(out, c)
		}
	}
	return out
}

func setFlag(items []Summary, id string, marked bool) {
	for i := range items {
		if items[i].ID == id {
			items[i].IsBookmarked = marked
		}
	}
}

func setCount(cols []Collection, id string, n int) {
	for i := range cols {
		if cols[i].ID == id {
			cols[i].SearchesCount = n
		}
	}
}

func without(items []Summary, id string) ([]Summary, bool) {
	before := len(items)
	items = slices.DeleteFunc(items, func(r Summary) bool { return r.ID == id })
	return items, len(items) < before
}

func (s Snapshot) clone() Snapshot {
	out := s
	out.History = slices.Clone(s.History)
	out.Bookmarked = slices.Clone(s.Bookmarked)
	out.Collections = slices.Clone(s.Collections)
	if s.Current != nil {
		cur := *s.Current
		cur.Searches = slices.Clone(s.Current.Searches)
		out.Current = &cur
	}
	return out
}
