package session

import (
	"context"
	"sync"
	"time"
)

const defaultSweepInterval = 5 * time.Minute

type memoryEntry struct {
	sess      *Session
	expiresAt time.Time
}

// MemoryStore is the volatile tier: a process-local map guarded by a RWMutex.
// Reads and writes complete synchronously with no I/O. Entries expire after
// the configured TTL; expired entries are dropped lazily on read and by the
// periodic sweep.
type MemoryStore struct {
	ttl   time.Duration
	sweep time.Duration
	clock Clock

	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewMemoryStore creates a MemoryStore with the given entry TTL.
// A ttl <= 0 means entries never expire.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		sweep:   defaultSweepInterval,
		clock:   realClock{},
		entries: make(map[string]memoryEntry),
	}
}

// NewMemoryStoreWithClock creates a MemoryStore with a custom clock and sweep
// interval (for testing).
func NewMemoryStoreWithClock(ttl, sweep time.Duration, clock Clock) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		sweep:   sweep,
		clock:   clock,
		entries: make(map[string]memoryEntry),
	}
}

// Get returns a deep copy of the stored session, or ErrNotFound.
func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	e, ok := m.entries[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if m.expired(e) {
		m.mu.Lock()
		delete(m.entries, id)
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	return e.sess.Clone(), nil
}

// Put stores a deep copy of the session, resetting its TTL.
func (m *MemoryStore) Put(_ context.Context, s *Session) error {
	e := memoryEntry{sess: s.Clone()}
	if m.ttl > 0 {
		e.expiresAt = m.clock.Now().Add(m.ttl)
	}
	m.mu.Lock()
	m.entries[s.ID] = e
	m.mu.Unlock()
	return nil
}

// Delete removes a session. Deleting a missing session is not an error.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.entries, id)
	m.mu.Unlock()
	return nil
}

// Stats reports live session and message counts.
func (m *MemoryStore) Stats(_ context.Context) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st := Stats{StorageMode: "memory"}
	for _, e := range m.entries {
		if m.expired(e) {
			continue
		}
		st.ActiveSessions++
		st.TotalMessages += len(e.sess.Messages)
	}
	return st, nil
}

// Run sweeps expired entries until ctx is cancelled.
func (m *MemoryStore) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(m.sweep):
		}
		m.SweepOnce()
	}
}

// SweepOnce removes all expired entries and returns how many were dropped.
func (m *MemoryStore) SweepOnce() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	dropped := 0
	for id, e := range m.entries {
		if m.expired(e) {
			delete(m.entries, id)
			dropped++
		}
	}
	return dropped
}

func (m *MemoryStore) expired(e memoryEntry) bool {
	return !e.expiresAt.IsZero() && m.clock.Now().After(e.expiresAt)
}
