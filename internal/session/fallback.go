package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kalambet/scena/internal/storage"
)

const (
	// DefaultDurableTTL matches the durable tier's own key expiry.
	DefaultDurableTTL = 24 * time.Hour

	defaultDurableTimeout = 2 * time.Second
	defaultPingInterval   = 15 * time.Second
)

// FallbackStore composes the volatile tier with a durable tier.
//
// Reads hit the volatile tier first; on a miss the durable tier is consulted
// (if healthy) and the volatile tier is repopulated. Writes go to the
// volatile tier synchronously and to the durable tier asynchronously; a
// durable failure is logged, marks the tier unhealthy, and never fails the
// write. While unhealthy the store silently degrades to memory-only
// operation until the ping loop observes recovery. The guarantee is
// "eventually durable, always locally available", not strict durability.
type FallbackStore struct {
	mem     *MemoryStore
	durable DurableTier
	ttl     time.Duration
	timeout time.Duration
	ping    time.Duration
	logger  *slog.Logger

	healthy atomic.Bool
	pending sync.WaitGroup
}

// NewFallbackStore decorates mem with a durable tier. The durable tier starts
// healthy; durableTTL <= 0 defaults to 24h.
func NewFallbackStore(mem *MemoryStore, durable DurableTier, durableTTL time.Duration) *FallbackStore {
	if durableTTL <= 0 {
		durableTTL = DefaultDurableTTL
	}
	f := &FallbackStore{
		mem:     mem,
		durable: durable,
		ttl:     durableTTL,
		timeout: defaultDurableTimeout,
		ping:    defaultPingInterval,
		logger:  slog.Default(),
	}
	f.healthy.Store(true)
	return f
}

// Healthy reports whether the durable tier is currently considered reachable.
func (f *FallbackStore) Healthy() bool {
	return f.healthy.Load()
}

// Get checks the volatile tier first, then the durable tier. A durable read
// hit repopulates the volatile tier. Durable errors degrade to ErrNotFound.
func (f *FallbackStore) Get(ctx context.Context, id string) (*Session, error) {
	s, err := f.mem.Get(ctx, id)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if !f.healthy.Load() {
		return nil, ErrNotFound
	}

	payload, err := f.durableGet(id)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		f.markUnhealthy("read", err)
		return nil, ErrNotFound
	}

	var sess Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		f.logger.Warn("durable session payload is malformed, ignoring", "session_id", id, "error", err)
		return nil, ErrNotFound
	}

	if err := f.mem.Put(ctx, &sess); err != nil {
		return nil, fmt.Errorf("repopulating volatile tier: %w", err)
	}
	return sess.Clone(), nil
}

// Put writes to the volatile tier synchronously; the durable write happens in
// the background and never fails the call.
func (f *FallbackStore) Put(ctx context.Context, s *Session) error {
	if err := f.mem.Put(ctx, s); err != nil {
		return err
	}

	if !f.healthy.Load() {
		return nil
	}

	payload, err := json.Marshal(s)
	if err != nil {
		f.logger.Warn("failed to marshal session for durable write", "session_id", s.ID, "error", err)
		return nil
	}

	id := s.ID
	f.pending.Add(1)
	go func() {
		defer f.pending.Done()
		if err := f.durableSet(id, payload); err != nil {
			f.markUnhealthy("write", err)
		}
	}()
	return nil
}

// Delete removes the session from both tiers.
func (f *FallbackStore) Delete(ctx context.Context, id string) error {
	if err := f.mem.Delete(ctx, id); err != nil {
		return err
	}
	if !f.healthy.Load() {
		return nil
	}
	if err := f.durable.DeleteSession(id); err != nil {
		f.markUnhealthy("delete", err)
	}
	return nil
}

// Stats reports volatile-tier counts and the effective storage mode:
// "hybrid" when the durable tier is healthy, "memory" when degraded.
func (f *FallbackStore) Stats(ctx context.Context) (Stats, error) {
	st, err := f.mem.Stats(ctx)
	if err != nil {
		return Stats{}, err
	}
	if f.healthy.Load() {
		st.StorageMode = "hybrid"
	} else {
		st.StorageMode = "memory"
	}
	return st, nil
}

// Flush waits for all in-flight durable writes to settle. Called on shutdown
// and by tests that need to observe the durable tier.
func (f *FallbackStore) Flush() {
	f.pending.Wait()
}

// Run periodically pings the durable tier and restores health when it
// answers. Exits when ctx is cancelled.
func (f *FallbackStore) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(f.ping):
		}
		if f.healthy.Load() {
			continue
		}
		if err := f.durable.Ping(); err == nil {
			f.healthy.Store(true)
			f.logger.Info("durable session tier recovered")
		}
	}
}

func (f *FallbackStore) markUnhealthy(op string, err error) {
	if f.healthy.CompareAndSwap(true, false) {
		f.logger.Warn("durable session tier unavailable, degrading to memory-only", "op", op, "error", err)
	}
}

// durableGet bounds the durable read so it can never stall the fast path
// callers have already left.
func (f *FallbackStore) durableGet(id string) ([]byte, error) {
	type result struct {
		payload []byte
		err     error
	}
	ch := make(chan result, 1)
	go func() {
		p, err := f.durable.GetSession(id)
		ch <- result{p, err}
	}()
	select {
	case r := <-ch:
		if errors.Is(r.err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return r.payload, r.err
	case <-time.After(f.timeout):
		return nil, fmt.Errorf("durable read timed out after %s", f.timeout)
	}
}

func (f *FallbackStore) durableSet(id string, payload []byte) error {
	ch := make(chan error, 1)
	go func() {
		ch <- f.durable.SetSession(id, payload, f.ttl)
	}()
	select {
	case err := <-ch:
		return err
	case <-time.After(f.timeout):
		return fmt.Errorf("durable write timed out after %s", f.timeout)
	}
}
