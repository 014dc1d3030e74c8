package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/abdul7867/SearchAi/internal/db/memory"
	"github.com/abdul7867/SearchAi/internal/domain"
	domcol "github.com/abdul7867/SearchAi/internal/domain/collection"
	domrec "github.com/abdul7867/SearchAi/internal/domain/record"
	colrepo "github.com/abdul7867/SearchAi/internal/repository/collection"
	recrepo "github.com/abdul7867/SearchAi/internal/repository/record"
)

var baseTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// --- Mocks ---

type mockRecords struct {
	listRecs     []domrec.Record
	listTotal    int
	listErr      error
	lastFilter   domrec.ListFilter
	deleteAllIDs []string
	deleteAllErr error
	cleanupIDs   []string
	cleanupErr   error
	lastKeep     int
}

func (m *mockRecords) List(_ context.Context, _ string, f domrec.ListFilter) ([]domrec.Record, int, error) {
	m.lastFilter = f
	return m.listRecs, m.listTotal, m.listErr
}

func (m *mockRecords) DeleteAll(_ context.Context, _ string) ([]string, error) {
	return m.deleteAllIDs, m.deleteAllErr
}

func (m *mockRecords) Cleanup(_ context.Context, _ string, keep int) ([]string, error) {
	m.lastKeep = keep
	return m.cleanupIDs, m.cleanupErr
}

type mockMembers struct {
	calls   int
	lastIDs []string
	err     error
}

func (m *mockMembers) RemoveEverywhere(_ context.Context, _ string, ids []string, _ time.Time) error {
	m.calls++
	m.lastIDs = ids
	return m.err
}

func makeRecord(t *testing.T, id, owner string, offset time.Duration) domrec.Record {
	t.Helper()
	rec, err := domrec.New(id, owner, domrec.Draft{
		Query:   "query " + id,
		Answer:  strings.Repeat("a", 250),
		Sources: []domrec.Source{{Title: "t", URL: "https://example.com"}},
	}, baseTime.Add(offset))
	if err != nil {
		t.Fatalf("domrec.New: %v", err)
	}
	return rec
}

// --- List ---

func TestList_DefaultsAndSummaries(t *testing.T) {
	recs := &mockRecords{
		listRecs:  []domrec.Record{makeRecord(t, "r1", "alice", 0)},
		listTotal: 41,
	}
	svc := New(recs, &mockMembers{}, 0)

	page, err := svc.List(context.Background(), "alice", Query{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if recs.lastFilter.Offset != 0 || recs.lastFilter.Limit != domain.DefaultPageSize {
		t.Errorf("unexpected filter: %+v", recs.lastFilter)
	}
	if page.Pagination.Pages != 3 || page.Pagination.Total != 41 || page.Pagination.Page != 1 {
		t.Errorf("unexpected pagination: %+v", page.Pagination)
	}
	if len(page.Searches) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(page.Searches))
	}
	s := page.Searches[0]
	if !strings.HasSuffix(s.AnswerPreview, "...") || s.SourcesCount != 1 {
		t.Errorf("unexpected summary: %+v", s)
	}
	if s.URL != "/search?q=query%20r1&focus=general" {
		t.Errorf("URL = %q", s.URL)
	}
}

func TestList_OffsetFromPage(t *testing.T) {
	recs := &mockRecords{}
	svc := New(recs, &mockMembers{}, 0)

	if _, err := svc.List(context.Background(), "alice", Query{Page: 3, Limit: 10, Sort: SortCreatedAt}); err != nil {
		t.Fatal(err)
	}
	if recs.lastFilter.Offset != 20 || recs.lastFilter.Limit != 10 {
		t.Errorf("unexpected filter: %+v", recs.lastFilter)
	}
}

func TestList_Validation(t *testing.T) {
	svc := New(&mockRecords{}, &mockMembers{}, 0)
	cases := []Query{
		{Sort: "query"},
		{Page: -1},
		{Limit: domain.MaxPageSize + 1},
		{Page: 1 << 62, Limit: 4},
	}
	for _, q := range cases {
		if _, err := svc.List(context.Background(), "alice", q); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("%+v: expected ErrValidation, got %v", q, err)
		}
	}
}

func TestList_RequiresOwner(t *testing.T) {
	svc := New(&mockRecords{}, &mockMembers{}, 0)
	if _, err := svc.List(context.Background(), "", Query{}); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestList_DropsForeignRecords(t *testing.T) {
	recs := &mockRecords{listRecs: []domrec.Record{
		makeRecord(t, "mine", "alice", 0),
		makeRecord(t, "theirs", "bob", 0),
	}, listTotal: 2}
	svc := New(recs, &mockMembers{}, 0)

	page, err := svc.List(context.Background(), "alice", Query{})
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Searches) != 1 || page.Searches[0].ID != "mine" {
		t.Errorf("unexpected searches: %+v", page.Searches)
	}
}

func TestBookmarked_SetsFilter(t *testing.T) {
	recs := &mockRecords{}
	svc := New(recs, &mockMembers{}, 0)

	if _, err := svc.Bookmarked(context.Background(), "alice", 2, 5); err != nil {
		t.Fatal(err)
	}
	if !recs.lastFilter.BookmarkedOnly || recs.lastFilter.Offset != 5 {
		t.Errorf("unexpected filter: %+v", recs.lastFilter)
	}
}

func TestList_RepoError(t *testing.T) {
	svc := New(&mockRecords{listErr: errors.New("boom")}, &mockMembers{}, 0)
	if _, err := svc.List(context.Background(), "alice", Query{}); err == nil {
		t.Fatal("expected error")
	}
}

// --- Clear / Cleanup ---

func TestClear_CascadesToCollections(t *testing.T) {
	members := &mockMembers{}
	svc := New(&mockRecords{deleteAllIDs: []string{"a", "b"}}, members, 0)

	n, err := svc.Clear(context.Background(), "alice")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 || members.calls != 1 || len(members.lastIDs) != 2 {
		t.Errorf("n=%d calls=%d ids=%v", n, members.calls, members.lastIDs)
	}
}

func TestClear_NothingDeletedSkipsCascade(t *testing.T) {
	members := &mockMembers{}
	svc := New(&mockRecords{}, members, 0)

	if _, err := svc.Clear(context.Background(), "alice"); err != nil {
		t.Fatal(err)
	}
	if members.calls != 0 {
		t.Errorf("expected no cascade, got %d calls", members.calls)
	}
}

func TestCleanup_UsesConfiguredKeep(t *testing.T) {
	recs := &mockRecords{cleanupIDs: []string{"x"}}
	svc := New(recs, &mockMembers{}, 0)
	if svc.Keep() != DefaultKeep {
		t.Errorf("Keep = %d, want %d", svc.Keep(), DefaultKeep)
	}
	if _, err := svc.Cleanup(context.Background(), "alice"); err != nil {
		t.Fatal(err)
	}
	if recs.lastKeep != DefaultKeep {
		t.Errorf("keep = %d", recs.lastKeep)
	}

	recs = &mockRecords{}
	if _, err := New(recs, &mockMembers{}, 7).Cleanup(context.Background(), "alice"); err != nil {
		t.Fatal(err)
	}
	if recs.lastKeep != 7 {
		t.Errorf("keep = %d, want 7", recs.lastKeep)
	}
}

func TestCleanup_CascadeError(t *testing.T) {
	svc := New(&mockRecords{cleanupIDs: []string{"x"}}, &mockMembers{err: errors.New("down")}, 0)
	n, err := svc.Cleanup(context.Background(), "alice")
	if err == nil {
		t.Fatal("expected cascade error")
	}
	if n != 1 {
		t.Errorf("deleted count must still be reported, got %d", n)
	}
}

// --- Against the in-memory store ---

type fixture struct {
	svc     *Service
	records *recrepo.Repo
	cols    *colrepo.Repo
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	st := memory.New()
	records := recrepo.New(st)
	cols := colrepo.New(st)
	svc := New(records, cols, DefaultKeep).WithClock(func() time.Time { return baseTime.Add(time.Hour) })
	return fixture{svc: svc, records: records, cols: cols}
}

func (f fixture) seed(t *testing.T, owner string, n int) []domrec.Record {
	t.Helper()
	out := make([]domrec.Record, n)
	for i := 0; i < n; i++ {
		rec := makeRecord(t, fmt.Sprintf("%s-%03d", owner, i), owner, time.Duration(i)*time.Minute)
		if err := f.records.Save(context.Background(), rec); err != nil {
			t.Fatalf("Save: %v", err)
		}
		out[i] = rec
	}
	return out
}

func TestList_PagesCoverHistoryExactlyOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	// Runs of three records share a timestamp, so some page boundaries split a run.
	const n = 23
	for i := 0; i < n; i++ {
		rec := makeRecord(t, fmt.Sprintf("alice-%03d", i), "alice", time.Duration(i/3)*time.Minute)
		if err := f.records.Save(ctx, rec); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	for _, limit := range []int{1, 2, 3, 4, 5, 7, 20, 100} {
		t.Run(fmt.Sprintf("limit=%d", limit), func(t *testing.T) {
			seen := make(map[string]bool, n)
			var prev time.Time
			first, err := f.svc.List(ctx, "alice", Query{Page: 1, Limit: limit})
			if err != nil {
				t.Fatal(err)
			}
			for p := 1; p <= first.Pagination.Pages; p++ {
				page, err := f.svc.List(ctx, "alice", Query{Page: p, Limit: limit})
				if err != nil {
					t.Fatalf("page %d: %v", p, err)
				}
				for _, s := range page.Searches {
					if seen[s.ID] {
						t.Fatalf("page %d repeats %s", p, s.ID)
					}
					seen[s.ID] = true
					if !prev.IsZero() && s.CreatedAt.After(prev) {
						t.Errorf("page %d: %s is newer than the previous entry", p, s.ID)
					}
					prev = s.CreatedAt
				}
			}
			if len(seen) != n {
				t.Errorf("walked %d records, want %d", len(seen), n)
			}

			past, err := f.svc.List(ctx, "alice", Query{Page: first.Pagination.Pages + 1, Limit: limit})
			if err != nil {
				t.Fatal(err)
			}
			if len(past.Searches) != 0 {
				t.Errorf("page past the end returned %d records", len(past.Searches))
			}
		})
	}
}

func TestCleanup_BookmarkedExemptAndIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	recs := f.seed(t, "alice", 108)
	for _, i := range []int{0, 1, 2} {
		if err := f.records.SetBookmark(ctx, recs[i].WithBookmark(true, baseTime)); err != nil {
			t.Fatal(err)
		}
	}

	n, err := f.svc.Cleanup(ctx, "alice")
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if n != 5 {
		t.Errorf("deleted = %d, want 5", n)
	}

	page, err := f.svc.List(ctx, "alice", Query{Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if page.Pagination.Total != 103 {
		t.Errorf("remaining = %d, want 103", page.Pagination.Total)
	}
	marked, _ := f.svc.Bookmarked(ctx, "alice", 1, 10)
	if marked.Pagination.Total != 3 {
		t.Errorf("bookmarked = %d, want 3", marked.Pagination.Total)
	}

	again, err := f.svc.Cleanup(ctx, "alice")
	if err != nil || again != 0 {
		t.Errorf("second cleanup: n=%d err=%v", again, err)
	}
}

func TestCleanup_RemovesDeletedFromCollections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	recs := f.seed(t, "alice", 101)

	col, err := domcol.New("c1", "alice", "Research", "", "", baseTime)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.cols.Create(ctx, col); err != nil {
		t.Fatal(err)
	}
	// recs[0] is the oldest and falls outside the retained window.
	for _, r := range []domrec.Record{recs[0], recs[100]} {
		if _, err := f.cols.AddMember(ctx, col, r.ID(), baseTime); err != nil {
			t.Fatal(err)
		}
	}

	n, err := f.svc.Cleanup(ctx, "alice")
	if err != nil || n != 1 {
		t.Fatalf("Cleanup: n=%d err=%v", n, err)
	}

	got, err := f.cols.Get(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Members()) != 1 || got.Members()[0] != recs[100].ID() {
		t.Errorf("members = %v, want [%s]", got.Members(), recs[100].ID())
	}
}

func TestClear_OwnerIsolation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "alice", 3)
	f.seed(t, "bob", 2)

	n, err := f.svc.Clear(ctx, "alice")
	if err != nil || n != 3 {
		t.Fatalf("Clear: n=%d err=%v", n, err)
	}
	bob, err := f.svc.List(ctx, "bob", Query{})
	if err != nil {
		t.Fatal(err)
	}
	if bob.Pagination.Total != 2 {
		t.Errorf("bob total = %d, want 2", bob.Pagination.Total)
	}
	again, _ := f.svc.Clear(ctx, "alice")
	if again != 0 {
		t.Errorf("second clear deleted %d", again)
	}
}
