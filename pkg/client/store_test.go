package client

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"testing"
)

// --- merge ---

func TestMergePage(t *testing.T) {
	tests := []struct {
		name     string
		local    []string
		incoming []string
		page     int
		want     []string
	}{
		{"page one replaces", []string{"a", "b"}, []string{"c"}, 1, []string{"c"}},
		{"next page appends", []string{"a", "b"}, []string{"c", "d"}, 2, []string{"a", "b", "c", "d"}},
		{"overlap is skipped", []string{"a", "b"}, []string{"b", "c"}, 2, []string{"a", "b", "c"}},
		{"repeated page is idempotent", []string{"a", "b"}, []string{"a", "b"}, 2, []string{"a", "b"}},
		{"duplicates within a page", []string{"a"}, []string{"b", "b"}, 3, []string{"a", "b"}},
		{"empty page one clears", []string{"a"}, nil, 1, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := idsOf(mergePage(summaries(tt.local...), summaries(tt.incoming...), tt.page))
			if !slices.Equal(got, tt.want) {
				t.Errorf("merge = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStore_LoadHistoryMergesPages(t *testing.T) {
	pages := map[int]SearchPage{
		1: pageOf(1, 4, "d", "c"),
		// a new search shifted the window by one
		2: pageOf(2, 5, "c", "b"),
	}
	m := &mockBackend{
		authenticated: true,
		historyFn: func(_ context.Context, q HistoryQuery) (SearchPage, error) {
			if q.Limit != 2 || q.Sort != "createdAt" {
				t.Errorf("unexpected query: %+v", q)
			}
			return pages[q.Page], nil
		},
	}
	st := newStore(m)
	ctx := context.Background()

	if _, err := st.LoadHistory(ctx, 1, "createdAt"); err != nil {
		t.Fatal(err)
	}
	snap, err := st.LoadHistory(ctx, 2, "createdAt")
	if err != nil {
		t.Fatal(err)
	}
	if got := idsOf(snap.History); !slices.Equal(got, []string{"d", "c", "b"}) {
		t.Errorf("history = %v", got)
	}
	if snap.HistoryPage.Total != 5 {
		t.Errorf("pagination not updated: %+v", snap.HistoryPage)
	}
}

// --- bookmarks ---

func TestStore_ToggleBookmark_RewritesBothViewsWithoutRemoving(t *testing.T) {
	marked := map[string]bool{"b": true}
	m := &mockBackend{
		authenticated: true,
		historyFn: func(context.Context, HistoryQuery) (SearchPage, error) {
			return pageOf(1, 2, "a", "b"), nil
		},
		bookmarkedFn: func(context.Context, int, int) (SearchPage, error) {
			var ids []string
			for _, id := range []string{"a", "b"} {
				if marked[id] {
					ids = append(ids, id)
				}
			}
			p := pageOf(1, len(ids), ids...)
			for i := range p.Searches {
				p.Searches[i].IsBookmarked = true
			}
			return p, nil
		},
		toggleFn: func(_ context.Context, id string) (bool, error) {
			marked[id] = !marked[id]
			return marked[id], nil
		},
	}
	st := newStore(m)
	ctx := context.Background()
	_, _ = st.LoadHistory(ctx, 1, "")
	_, _ = st.LoadBookmarked(ctx, 1)

	snap, err := st.ToggleBookmark(ctx, "b")
	if err != nil {
		t.Fatal(err)
	}
	// Unbookmarked record stays in the bookmarked view with its flag cleared.
	if len(snap.Bookmarked) != 1 || snap.Bookmarked[0].ID != "b" || snap.Bookmarked[0].IsBookmarked {
		t.Errorf("bookmarked view = %+v", snap.Bookmarked)
	}
	if snap.History[1].IsBookmarked {
		t.Errorf("history flag not rewritten: %+v", snap.History[1])
	}

	snap, err = st.RefreshBookmarked(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Bookmarked) != 0 {
		t.Errorf("refetch must drop the unbookmarked record, got %v", idsOf(snap.Bookmarked))
	}

	snap, err = st.ToggleBookmark(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	if !snap.History[0].IsBookmarked {
		t.Error("history flag must be set after confirmation")
	}
	if len(snap.Bookmarked) != 0 {
		t.Error("bookmarking must not insert into the bookmarked view before a fetch")
	}
}

func TestStore_ToggleBookmark_FailureLeavesStateUnchanged(t *testing.T) {
	m := &mockBackend{
		authenticated: true,
		historyFn: func(context.Context, HistoryQuery) (SearchPage, error) {
			return pageOf(1, 1, "a"), nil
		},
		toggleFn: func(context.Context, string) (bool, error) {
			return false, &APIError{Op: OpToggleBookmark, Status: http.StatusInternalServerError}
		},
	}
	st := newStore(m)
	before, _ := st.LoadHistory(context.Background(), 1, "")

	snap, err := st.ToggleBookmark(context.Background(), "a")
	if err == nil {
		t.Fatal("expected error")
	}
	if snap.History[0].IsBookmarked != before.History[0].IsBookmarked {
		t.Error("failed toggle must not change the flag")
	}
	if snap.LastError != "An error occurred while toggling bookmark" {
		t.Errorf("LastError = %q", snap.LastError)
	}
}

// --- auth ---

func TestStore_UnauthorizedWipesViews(t *testing.T) {
	m := &mockBackend{authenticated: true}
	m.historyFn = func(context.Context, HistoryQuery) (SearchPage, error) {
		return pageOf(1, 2, "a", "b"), nil
	}
	m.collectionsFn = func(context.Context, int, int) (CollectionPage, error) {
		return CollectionPage{}, m.unauthorized(OpListCollections)
	}
	st := newStore(m)
	ctx := context.Background()
	_, _ = st.LoadHistory(ctx, 1, "")

	snap, err := st.LoadCollections(ctx, 1)
	if !IsUnauthorized(err) {
		t.Fatalf("expected 401, got %v", err)
	}
	if snap.Authenticated || len(snap.History) != 0 {
		t.Errorf("401 must wipe state: %+v", snap)
	}
	if snap.LastError != MsgAuthExpired {
		t.Errorf("LastError = %q", snap.LastError)
	}
}

func TestStore_SnapshotIsImmutable(t *testing.T) {
	m := &mockBackend{
		authenticated: true,
		historyFn: func(context.Context, HistoryQuery) (SearchPage, error) {
			return pageOf(1, 1, "a"), nil
		},
	}
	st := newStore(m)
	snap, _ := st.LoadHistory(context.Background(), 1, "")
	snap.History[0].Query = "mutated"

	if got := st.Snapshot().History[0].Query; got != "q-a" {
		t.Errorf("snapshot aliased store state: %q", got)
	}
}

// --- history mutations ---

func TestStore_DeleteSearch_RemovesEverywhere(t *testing.T) {
	m := &mockBackend{
		authenticated: true,
		historyFn: func(context.Context, HistoryQuery) (SearchPage, error) {
			return pageOf(1, 2, "a", "b"), nil
		},
		bookmarkedFn: func(context.Context, int, int) (SearchPage, error) {
			return pageOf(1, 1, "a"), nil
		},
		collectionsFn: func(context.Context, int, int) (CollectionPage, error) {
			return CollectionPage{Collections: []Collection{{ID: "c1", SearchesCount: 2}}}, nil
		},
		collectionFn: func(context.Context, string) (CollectionDetail, error) {
			return CollectionDetail{Collection: Collection{ID: "c1", SearchesCount: 2}, Searches: summaries("a", "b")}, nil
		},
		deleteFn: func(context.Context, string) error { return nil },
	}
	st := newStore(m)
	ctx := context.Background()
	_, _ = st.LoadHistory(ctx, 1, "")
	_, _ = st.LoadBookmarked(ctx, 1)
	_, _ = st.LoadCollections(ctx, 1)
	_, _ = st.OpenCollection(ctx, "c1")

	snap, err := st.DeleteSearch(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	if got := idsOf(snap.History); !slices.Equal(got, []string{"b"}) {
		t.Errorf("history = %v", got)
	}
	if len(snap.Bookmarked) != 0 || snap.BookmarkedPage.Total != 0 {
		t.Errorf("bookmarked = %v (%+v)", idsOf(snap.Bookmarked), snap.BookmarkedPage)
	}
	if snap.Current.SearchesCount != 1 || snap.Collections[0].SearchesCount != 1 {
		t.Errorf("collection counts not updated: %+v / %+v", snap.Current.Collection, snap.Collections[0])
	}
}

func TestStore_CleanupReloadsFirstPage(t *testing.T) {
	var loads []int
	m := &mockBackend{
		authenticated: true,
		historyFn: func(_ context.Context, q HistoryQuery) (SearchPage, error) {
			loads = append(loads, q.Page)
			if len(loads) == 1 {
				return pageOf(1, 3, "c", "b"), nil
			}
			return pageOf(1, 2, "c", "b"), nil
		},
		cleanupFn: func(context.Context) (int, string, error) {
			return 1, "Cleaned up 1 old search entries.", nil
		},
	}
	st := newStore(m)
	ctx := context.Background()
	_, _ = st.LoadHistory(ctx, 1, "createdAt")

	n, snap, err := st.CleanupHistory(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 || snap.HistoryPage.Total != 2 || snap.HistorySort != "createdAt" {
		t.Errorf("cleanup = %d, %+v sort %q", n, snap.HistoryPage, snap.HistorySort)
	}
	if !slices.Equal(loads, []int{1, 1}) {
		t.Errorf("loads = %v", loads)
	}
}

func TestStore_CleanupRefreshesCollections(t *testing.T) {
	cleaned := false
	var opened, listed int
	m := &mockBackend{
		authenticated: true,
		historyFn: func(context.Context, HistoryQuery) (SearchPage, error) {
			if cleaned {
				return pageOf(1, 1, "c"), nil
			}
			return pageOf(1, 3, "c", "b"), nil
		},
		collectionsFn: func(context.Context, int, int) (CollectionPage, error) {
			listed++
			count := 2
			if cleaned {
				count = 1
			}
			return CollectionPage{
				Collections: []Collection{{ID: "c1", SearchesCount: count}},
				Pagination:  Pagination{Page: 1, Limit: 2, Total: 1, Pages: 1},
			}, nil
		},
		collectionFn: func(context.Context, string) (CollectionDetail, error) {
			opened++
			d := CollectionDetail{Collection: Collection{ID: "c1"}, Searches: summaries("c", "a")}
			if cleaned {
				d.Searches = summaries("c")
			}
			return d, nil
		},
		cleanupFn: func(context.Context) (int, string, error) {
			cleaned = true
			return 2, "Cleaned up 2 old search entries.", nil
		},
	}
	st := newStore(m)
	ctx := context.Background()
	_, _ = st.LoadHistory(ctx, 1, "createdAt")
	_, _ = st.LoadCollections(ctx, 1)
	_, _ = st.OpenCollection(ctx, "c1")

	n, snap, err := st.CleanupHistory(ctx)
	if err != nil || n != 2 {
		t.Fatalf("CleanupHistory = %d, %v", n, err)
	}
	if opened != 2 || listed != 2 {
		t.Errorf("opened = %d, listed = %d, want 2 each", opened, listed)
	}
	if got := idsOf(snap.Current.Searches); !slices.Equal(got, []string{"c"}) {
		t.Errorf("current searches = %v, want [c]", got)
	}
	if snap.Collections[0].SearchesCount != 1 {
		t.Errorf("list count = %d, want 1", snap.Collections[0].SearchesCount)
	}
}

func TestStore_ClearHistoryEmptiesRecordViews(t *testing.T) {
	m := &mockBackend{
		authenticated: true,
		historyFn: func(context.Context, HistoryQuery) (SearchPage, error) {
			return pageOf(1, 2, "a", "b"), nil
		},
		collectionsFn: func(context.Context, int, int) (CollectionPage, error) {
			return CollectionPage{Collections: []Collection{{ID: "c1", SearchesCount: 2}}}, nil
		},
		clearFn: func(context.Context) (int, string, error) { return 2, "Search history cleared successfully", nil },
	}
	st := newStore(m)
	ctx := context.Background()
	_, _ = st.LoadHistory(ctx, 1, "")
	_, _ = st.LoadCollections(ctx, 1)

	n, snap, err := st.ClearHistory(ctx)
	if err != nil || n != 2 {
		t.Fatalf("ClearHistory = %d, %v", n, err)
	}
	if len(snap.History) != 0 || snap.Collections[0].SearchesCount != 0 {
		t.Errorf("unexpected state: %+v", snap)
	}
	if len(snap.Collections) != 1 {
		t.Error("collections themselves must survive a history clear")
	}
}

// --- collections ---

func TestStore_AddToCurrentCollectionRefetchesDetail(t *testing.T) {
	members := []string{"a"}
	fetches := 0
	m := &mockBackend{
		authenticated: true,
		collectionsFn: func(context.Context, int, int) (CollectionPage, error) {
			return CollectionPage{Collections: []Collection{{ID: "c1", SearchesCount: 1}, {ID: "c2"}}}, nil
		},
		collectionFn: func(_ context.Context, id string) (CollectionDetail, error) {
			fetches++
			return CollectionDetail{
				Collection: Collection{ID: id, SearchesCount: len(members)},
				Searches:   summaries(members...),
			}, nil
		},
		addFn: func(_ context.Context, colID, searchID string) (Result, error) {
			if colID == "c1" {
				members = append(members, searchID)
			}
			return Result{Changed: true}, nil
		},
	}
	st := newStore(m)
	ctx := context.Background()
	_, _ = st.LoadCollections(ctx, 1)
	_, _ = st.OpenCollection(ctx, "c1")

	_, snap, err := st.AddToCollection(ctx, "c1", "b")
	if err != nil {
		t.Fatal(err)
	}
	if fetches != 2 {
		t.Errorf("detail fetches = %d, want 2", fetches)
	}
	if got := idsOf(snap.Current.Searches); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("current members = %v", got)
	}
	if snap.Collections[0].SearchesCount != 2 {
		t.Errorf("list count = %d, want 2", snap.Collections[0].SearchesCount)
	}

	// Another collection: no refetch, count adjusted locally.
	_, snap, err = st.AddToCollection(ctx, "c2", "b")
	if err != nil {
		t.Fatal(err)
	}
	if fetches != 2 {
		t.Errorf("non-current add must not refetch, fetches = %d", fetches)
	}
	if snap.Collections[1].SearchesCount != 1 {
		t.Errorf("c2 count = %d, want 1", snap.Collections[1].SearchesCount)
	}
}

func TestStore_NoOpMembershipKeepsCount(t *testing.T) {
	m := &mockBackend{
		authenticated: true,
		collectionsFn: func(context.Context, int, int) (CollectionPage, error) {
			return CollectionPage{Collections: []Collection{{ID: "c1", SearchesCount: 1}}}, nil
		},
		removeFn: func(context.Context, string, string) (Result, error) {
			return Result{Changed: false, Message: "Search was not in this collection"}, nil
		},
	}
	st := newStore(m)
	_, _ = st.LoadCollections(context.Background(), 1)

	res, snap, err := st.RemoveFromCollection(context.Background(), "c1", "zzz")
	if err != nil || res.Changed {
		t.Fatalf("RemoveFromCollection = %+v, %v", res, err)
	}
	if snap.Collections[0].SearchesCount != 1 {
		t.Errorf("count = %d, want 1", snap.Collections[0].SearchesCount)
	}
}

func TestStore_CollectionCRUD(t *testing.T) {
	m := &mockBackend{
		authenticated: true,
		collectionsFn: func(context.Context, int, int) (CollectionPage, error) {
			return CollectionPage{
				Collections: []Collection{{ID: "c1", Name: "Old"}},
				Pagination:  Pagination{Page: 1, Total: 1},
			}, nil
		},
		collectionFn: func(_ context.Context, id string) (CollectionDetail, error) {
			return CollectionDetail{Collection: Collection{ID: id, Name: "Old"}}, nil
		},
		createFn: func(_ context.Context, in CollectionInput) (Collection, error) {
			if *in.Name == "Dup" {
				return Collection{}, &APIError{Op: OpCreateCollection, Status: http.StatusConflict}
			}
			return Collection{ID: "c2", Name: *in.Name}, nil
		},
		updateFn: func(_ context.Context, id string, in CollectionInput) (Collection, error) {
			return Collection{ID: id, Name: *in.Name}, nil
		},
		deleteColFn: func(context.Context, string) error { return nil },
	}
	st := newStore(m)
	ctx := context.Background()
	_, _ = st.LoadCollections(ctx, 1)
	_, _ = st.OpenCollection(ctx, "c1")

	name := "Fresh"
	col, snap, err := st.CreateCollection(ctx, CollectionInput{Name: &name})
	if err != nil {
		t.Fatal(err)
	}
	if col.ID != "c2" || snap.Collections[0].ID != "c2" || snap.CollectionsPage.Total != 2 {
		t.Errorf("create not reflected: %+v", snap.Collections)
	}

	dup := "Dup"
	_, snap, err = st.CreateCollection(ctx, CollectionInput{Name: &dup})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if snap.LastError != MsgDuplicateName || len(snap.Collections) != 2 {
		t.Errorf("failed create changed state: %+v", snap)
	}

	renamed := "Renamed"
	snap, err = st.UpdateCollection(ctx, "c1", CollectionInput{Name: &renamed})
	if err != nil {
		t.Fatal(err)
	}
	if snap.Collections[1].Name != "Renamed" || snap.Current.Name != "Renamed" {
		t.Errorf("update not reflected: %+v / %+v", snap.Collections, snap.Current)
	}

	snap, err = st.DeleteCollection(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Collections) != 1 || snap.Current != nil || snap.CollectionsPage.Total != 1 {
		t.Errorf("delete not reflected: %+v", snap)
	}
}
