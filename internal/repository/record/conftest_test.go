package record

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/abdul7867/SearchAi/internal/db/memory"
	domrec "github.com/abdul7867/SearchAi/internal/domain/record"
)

var baseTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// faultyStore wraps the in-memory store with injectable failures.
type faultyStore struct {
	*memory.Store
	zaddErr error
	delKeys []string
}

func (f *faultyStore) ZAdd(ctx context.Context, key string, score float64, member string) error {
	if f.zaddErr != nil {
		return f.zaddErr
	}
	return f.Store.ZAdd(ctx, key, score, member)
}

func (f *faultyStore) Del(ctx context.Context, keys ...string) error {
	f.delKeys = append(f.delKeys, keys...)
	return f.Store.Del(ctx, keys...)
}

func newTestRepo(t *testing.T) (*Repo, *faultyStore) {
	t.Helper()
	fs := &faultyStore{Store: memory.New()}
	return New(fs), fs
}

// makeRecord builds a record created i minutes after baseTime.
func makeRecord(t *testing.T, owner string, i int) domrec.Record {
	t.Helper()
	rec, err := domrec.New(
		fmt.Sprintf("%s-%03d", owner, i), owner,
		domrec.Draft{
			Query:   fmt.Sprintf("query %d", i),
			Answer:  "answer",
			Sources: []domrec.Source{{Title: "Go", URL: "https://go.dev", Domain: "go.dev"}},
		},
		baseTime.Add(time.Duration(i)*time.Minute),
	)
	if err != nil {
		t.Fatalf("domrec.New: %v", err)
	}
	return rec
}

func seed(t *testing.T, repo *Repo, owner string, n int) []domrec.Record {
	t.Helper()
	out := make([]domrec.Record, n)
	for i := 0; i < n; i++ {
		out[i] = makeRecord(t, owner, i)
		if err := repo.Save(context.Background(), out[i]); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	return out
}
