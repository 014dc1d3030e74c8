package collection

import (
	"context"
	"testing"
	"time"

	"github.com/abdul7867/SearchAi/internal/db/memory"
	domcol "github.com/abdul7867/SearchAi/internal/domain/collection"
)

var baseTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// faultyStore wraps the in-memory store with injectable failures.
type faultyStore struct {
	*memory.Store
	hsetErr error
	zaddErr error
}

func (f *faultyStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	if f.hsetErr != nil {
		return f.hsetErr
	}
	return f.Store.HSet(ctx, key, fields)
}

func (f *faultyStore) HSetXX(ctx context.Context, key string, fields map[string]string) (bool, error) {
	if f.hsetErr != nil {
		return false, f.hsetErr
	}
	return f.Store.HSetXX(ctx, key, fields)
}

func (f *faultyStore) ZAdd(ctx context.Context, key string, score float64, member string) error {
	if f.zaddErr != nil {
		return f.zaddErr
	}
	return f.Store.ZAdd(ctx, key, score, member)
}

func newTestRepo(t *testing.T) (*Repo, *faultyStore) {
	t.Helper()
	fs := &faultyStore{Store: memory.New()}
	return New(fs), fs
}

func makeCollection(t *testing.T, id, owner, name string, offset time.Duration) domcol.Collection {
	t.Helper()
	col, err := domcol.New(id, owner, name, "", "", baseTime.Add(offset))
	if err != nil {
		t.Fatalf("domcol.New: %v", err)
	}
	return col
}

func domcolPatchName(name string) domcol.Patch {
	return domcol.Patch{Name: &name}
}
