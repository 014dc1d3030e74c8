package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/abdul7867/SearchAi/internal/db/memory"
)

type fakeStore struct {
	incrErr   error
	expireErr error
	pttl      time.Duration
	n         int64
	nxCalls   int
}

func (f *fakeStore) Incr(context.Context, string) (int64, error) {
	if f.incrErr != nil {
		return 0, f.incrErr
	}
	f.n++
	return f.n, nil
}

func (f *fakeStore) Expire(_ context.Context, _ string, _ time.Duration, nx bool) error {
	if nx {
		f.nxCalls++
	}
	return f.expireErr
}

func (f *fakeStore) PTTL(context.Context, string) (time.Duration, error) {
	return f.pttl, nil
}

func TestHit_CountsWithinWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	ms := memory.New().WithClock(func() time.Time { return now })
	s := New(ms, time.Minute)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		n, ttl, err := s.Hit(ctx, "10.0.0.1")
		if err != nil {
			t.Fatalf("Hit: %v", err)
		}
		if n != want {
			t.Errorf("count = %d, want %d", n, want)
		}
		if ttl != time.Minute {
			t.Errorf("ttl = %v, want 1m", ttl)
		}
	}

	if n, _, _ := s.Hit(ctx, "10.0.0.2"); n != 1 {
		t.Errorf("other client count = %d, want 1", n)
	}
}

func TestHit_WindowResets(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	ms := memory.New().WithClock(func() time.Time { return now })
	s := New(ms, time.Minute)
	ctx := context.Background()

	_, _, _ = s.Hit(ctx, "c")
	now = now.Add(40 * time.Second)
	n, ttl, err := s.Hit(ctx, "c")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 || ttl != 20*time.Second {
		t.Errorf("got count %d ttl %v, want 2 and 20s", n, ttl)
	}

	now = now.Add(21 * time.Second)
	if n, _, _ := s.Hit(ctx, "c"); n != 1 {
		t.Errorf("count after window = %d, want 1", n)
	}
}

func TestHit_UsesExpireNX(t *testing.T) {
	fs := &fakeStore{pttl: 5 * time.Second}
	s := New(fs, time.Minute)
	for j := 0; j < 3; j++ {
		if _, _, err := s.Hit(context.Background(), "c"); err != nil {
			t.Fatal(err)
		}
	}
	if fs.nxCalls != 3 {
		t.Errorf("nx expire calls = %d, want 3", fs.nxCalls)
	}
}

func TestHit_MissingTTLFallsBackToWindow(t *testing.T) {
	fs := &fakeStore{pttl: -1}
	s := New(fs, time.Minute)
	_, ttl, err := s.Hit(context.Background(), "c")
	if err != nil {
		t.Fatal(err)
	}
	if ttl != time.Minute {
		t.Errorf("ttl = %v, want 1m", ttl)
	}
}

func TestHit_StoreErrors(t *testing.T) {
	boom := errors.New("connection lost")

	s := New(&fakeStore{incrErr: boom}, time.Minute)
	if _, _, err := s.Hit(context.Background(), "c"); !errors.Is(err, boom) {
		t.Errorf("incr: expected wrapped error, got %v", err)
	}

	s = New(&fakeStore{expireErr: boom}, time.Minute)
	if _, _, err := s.Hit(context.Background(), "c"); !errors.Is(err, boom) {
		t.Errorf("expire: expected wrapped error, got %v", err)
	}
}
