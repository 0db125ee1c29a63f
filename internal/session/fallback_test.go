package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kalambet/scena/internal/storage"
)

// fakeDurable is an in-memory DurableTier that can be switched to fail every
// call.
type fakeDurable struct {
	mu      sync.Mutex
	data    map[string][]byte
	failAll bool
}

func newFakeDurable() *fakeDurable {
	return &fakeDurable{data: make(map[string][]byte)}
}

func (d *fakeDurable) setFailing(fail bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failAll = fail
}

func (d *fakeDurable) GetSession(id string) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failAll {
		return nil, errors.New("durable tier down")
	}
	p, ok := d.data[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return p, nil
}

func (d *fakeDurable) SetSession(id string, payload []byte, ttl time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failAll {
		return errors.New("durable tier down")
	}
	d.data[id] = payload
	return nil
}

func (d *fakeDurable) DeleteSession(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failAll {
		return errors.New("durable tier down")
	}
	delete(d.data, id)
	return nil
}

func (d *fakeDurable) Ping() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failAll {
		return errors.New("durable tier down")
	}
	return nil
}

func TestFallbackStore_WriteThroughToDurable(t *testing.T) {
	durable := newFakeDurable()
	f := NewFallbackStore(NewMemoryStore(time.Hour), durable, time.Hour)
	ctx := context.Background()

	s := &Session{ID: "s-1", UserID: "u-1"}
	if err := f.Put(ctx, s); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	f.Flush()

	durable.mu.Lock()
	payload, ok := durable.data["s-1"]
	durable.mu.Unlock()
	if !ok {
		t.Fatal("durable tier never received the session")
	}
	var stored Session
	if err := json.Unmarshal(payload, &stored); err != nil {
		t.Fatalf("durable payload is not valid JSON: %v", err)
	}
	if stored.ID != "s-1" || stored.UserID != "u-1" {
		t.Errorf("durable payload = %+v, want the stored session", stored)
	}

	st, _ := f.Stats(ctx)
	if st.StorageMode != "hybrid" {
		t.Errorf("StorageMode = %q, want hybrid", st.StorageMode)
	}
}

func TestFallbackStore_DegradesToMemoryOnDurableFailure(t *testing.T) {
	durable := newFakeDurable()
	durable.setFailing(true)
	f := NewFallbackStore(NewMemoryStore(time.Hour), durable, time.Hour)
	ctx := context.Background()

	// Writes still succeed while the durable tier errors on every call.
	if err := f.Put(ctx, &Session{ID: "s-1"}); err != nil {
		t.Fatalf("Put() with failing durable tier error = %v", err)
	}
	f.Flush()

	got, err := f.Get(ctx, "s-1")
	if err != nil {
		t.Fatalf("Get() with failing durable tier error = %v", err)
	}
	if got.ID != "s-1" {
		t.Errorf("Get() = %+v, want the memory-held session", got)
	}

	if f.Healthy() {
		t.Error("Healthy() = true after a durable write failure")
	}
	st, _ := f.Stats(ctx)
	if st.StorageMode != "memory" {
		t.Errorf("StorageMode = %q, want memory while degraded", st.StorageMode)
	}
}

func TestFallbackStore_RepopulatesMemoryFromDurable(t *testing.T) {
	durable := newFakeDurable()
	payload, _ := json.Marshal(&Session{ID: "s-1", UserID: "u-1"})
	durable.data["s-1"] = payload

	f := NewFallbackStore(NewMemoryStore(time.Hour), durable, time.Hour)
	ctx := context.Background()

	got, err := f.Get(ctx, "s-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.UserID != "u-1" {
		t.Errorf("Get() = %+v, want the durable session", got)
	}

	// The volatile tier now holds the session: remove it from the durable
	// tier and read again.
	durable.mu.Lock()
	delete(durable.data, "s-1")
	durable.mu.Unlock()

	if _, err := f.Get(ctx, "s-1"); err != nil {
		t.Errorf("Get() after repopulation error = %v, want volatile hit", err)
	}
}

func TestFallbackStore_GetMissesBothTiers(t *testing.T) {
	f := NewFallbackStore(NewMemoryStore(time.Hour), newFakeDurable(), time.Hour)
	if _, err := f.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func TestFallbackStore_DurableReadErrorDegrades(t *testing.T) {
	durable := newFakeDurable()
	durable.setFailing(true)
	f := NewFallbackStore(NewMemoryStore(time.Hour), durable, time.Hour)

	if _, err := f.Get(context.Background(), "s-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound when durable read fails", err)
	}
	if f.Healthy() {
		t.Error("Healthy() = true after a durable read failure")
	}
}

func TestFallbackStore_DeleteBothTiers(t *testing.T) {
	durable := newFakeDurable()
	f := NewFallbackStore(NewMemoryStore(time.Hour), durable, time.Hour)
	ctx := context.Background()

	f.Put(ctx, &Session{ID: "s-1"})
	f.Flush()

	if err := f.Delete(ctx, "s-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := f.Get(ctx, "s-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
	durable.mu.Lock()
	_, ok := durable.data["s-1"]
	durable.mu.Unlock()
	if ok {
		t.Error("durable tier still holds the deleted session")
	}
}

func TestFallbackStore_RecoversViaPing(t *testing.T) {
	durable := newFakeDurable()
	durable.setFailing(true)
	f := NewFallbackStore(NewMemoryStore(time.Hour), durable, time.Hour)
	f.ping = 5 * time.Millisecond

	ctx := context.Background()
	f.Put(ctx, &Session{ID: "s-1"})
	f.Flush()
	if f.Healthy() {
		t.Fatal("Healthy() = true after a durable failure")
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go f.Run(runCtx)

	durable.setFailing(false)

	deadline := time.Now().Add(2 * time.Second)
	for !f.Healthy() {
		if time.Now().After(deadline) {
			t.Fatal("durable tier never recovered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	st, _ := f.Stats(ctx)
	if st.StorageMode != "hybrid" {
		t.Errorf("StorageMode = %q, want hybrid after recovery", st.StorageMode)
	}
}
