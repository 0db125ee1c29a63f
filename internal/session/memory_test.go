package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeClock is a manually-advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryStore_PutGetRoundtrip(t *testing.T) {
	m := NewMemoryStore(time.Hour)
	ctx := context.Background()

	s := &Session{ID: "s-1", UserID: "u-1", Metadata: Metadata{Stage: StageGreeting}}
	s.Append("user", "hello", time.Now())

	if err := m.Put(ctx, s); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := m.Get(ctx, "s-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ID != "s-1" || len(got.Messages) != 1 {
		t.Errorf("Get() = %+v, want the stored session", got)
	}

	// The returned session is a copy; mutating it must not leak into the store.
	got.Messages[0].Content = "mutated"
	got.Metadata.Stage = StageRefinement

	again, err := m.Get(ctx, "s-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if again.Messages[0].Content != "hello" || again.Metadata.Stage != StageGreeting {
		t.Error("mutation of a returned session leaked into the store")
	}
}

func TestMemoryStore_GetMissing(t *testing.T) {
	m := NewMemoryStore(time.Hour)
	if _, err := m.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	clock := newFakeClock()
	m := NewMemoryStoreWithClock(time.Hour, time.Minute, clock)
	ctx := context.Background()

	if err := m.Put(ctx, &Session{ID: "s-1"}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	clock.Advance(59 * time.Minute)
	if _, err := m.Get(ctx, "s-1"); err != nil {
		t.Fatalf("Get() before expiry error = %v", err)
	}

	clock.Advance(2 * time.Minute)
	if _, err := m.Get(ctx, "s-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after expiry error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_PutResetsTTL(t *testing.T) {
	clock := newFakeClock()
	m := NewMemoryStoreWithClock(time.Hour, time.Minute, clock)
	ctx := context.Background()

	m.Put(ctx, &Session{ID: "s-1"})
	clock.Advance(50 * time.Minute)
	m.Put(ctx, &Session{ID: "s-1"})
	clock.Advance(50 * time.Minute)

	if _, err := m.Get(ctx, "s-1"); err != nil {
		t.Errorf("Get() error = %v, want TTL reset by second Put", err)
	}
}

func TestMemoryStore_SweepOnce(t *testing.T) {
	clock := newFakeClock()
	m := NewMemoryStoreWithClock(time.Hour, time.Minute, clock)
	ctx := context.Background()

	m.Put(ctx, &Session{ID: "old"})
	clock.Advance(2 * time.Hour)
	m.Put(ctx, &Session{ID: "fresh"})

	if dropped := m.SweepOnce(); dropped != 1 {
		t.Errorf("SweepOnce() = %d, want 1", dropped)
	}
	if _, err := m.Get(ctx, "fresh"); err != nil {
		t.Errorf("fresh entry dropped by sweep: %v", err)
	}
}

func TestMemoryStore_Stats(t *testing.T) {
	clock := newFakeClock()
	m := NewMemoryStoreWithClock(time.Hour, time.Minute, clock)
	ctx := context.Background()

	a := &Session{ID: "a"}
	a.Append("user", "one", clock.Now())
	a.Append("assistant", "two", clock.Now())
	b := &Session{ID: "b"}
	b.Append("user", "three", clock.Now())
	m.Put(ctx, a)
	m.Put(ctx, b)

	st, err := m.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if st.ActiveSessions != 2 || st.TotalMessages != 3 {
		t.Errorf("Stats() = %+v, want 2 sessions / 3 messages", st)
	}
	if st.StorageMode != "memory" {
		t.Errorf("StorageMode = %q, want memory", st.StorageMode)
	}

	// Expired sessions drop out of the counts.
	clock.Advance(2 * time.Hour)
	st, _ = m.Stats(ctx)
	if st.ActiveSessions != 0 || st.TotalMessages != 0 {
		t.Errorf("Stats() after expiry = %+v, want zeros", st)
	}
}

func TestMemoryStore_DeleteIdempotent(t *testing.T) {
	m := NewMemoryStore(time.Hour)
	ctx := context.Background()

	m.Put(ctx, &Session{ID: "s-1"})
	if err := m.Delete(ctx, "s-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := m.Delete(ctx, "s-1"); err != nil {
		t.Errorf("Delete() of missing session error = %v, want nil", err)
	}
	if _, err := m.Get(ctx, "s-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
}
