package talent

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store defines the persistence operations the Catalog needs.
// Implemented by storage.Store.
type Store interface {
	UpsertTalent(id string, payload []byte) error
	ListTalents() ([][]byte, error)
	CountTalents() (int, error)
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Catalog provides cached read access to the talent profiles persisted in
// SQLite. List order is stable (storage insertion order), which the ranking
// engine relies on for deterministic tie-breaking.
type Catalog struct {
	store Store
	clock Clock
	ttl   time.Duration

	mu       sync.RWMutex
	cached   []Profile
	cachedAt time.Time
}

// NewCatalog creates a Catalog with a 60-second cache TTL.
func NewCatalog(store Store) *Catalog {
	return &Catalog{
		store: store,
		clock: realClock{},
		ttl:   60 * time.Second,
	}
}

// NewCatalogWithClock creates a Catalog with a custom clock and TTL (for testing).
func NewCatalogWithClock(store Store, clock Clock, ttl time.Duration) *Catalog {
	return &Catalog{
		store: store,
		clock: clock,
		ttl:   ttl,
	}
}

// List returns all profiles in stable order. The result is a copy; callers
// may not mutate catalog state through it.
func (c *Catalog) List() ([]Profile, error) {
	// Fast path: read lock for cache hit.
	c.mu.RLock()
	if c.cached != nil && c.clock.Now().Before(c.cachedAt.Add(c.ttl)) {
		out := copyProfiles(c.cached)
		c.mu.RUnlock()
		return out, nil
	}
	c.mu.RUnlock()

	// Slow path: write lock for cache miss.
	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring write lock.
	if c.cached != nil && c.clock.Now().Before(c.cachedAt.Add(c.ttl)) {
		return copyProfiles(c.cached), nil
	}

	rows, err := c.store.ListTalents()
	if err != nil {
		return nil, fmt.Errorf("listing talents: %w", err)
	}

	profiles := make([]Profile, 0, len(rows))
	for _, payload := range rows {
		var p Profile
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, fmt.Errorf("unmarshalling talent: %w", err)
		}
		profiles = append(profiles, p)
	}

	c.cached = profiles
	c.cachedAt = c.clock.Now()
	return copyProfiles(profiles), nil
}

// Add persists a profile (assigning an ID if missing) and invalidates the cache.
func (c *Catalog) Add(p Profile) (Profile, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}

	payload, err := json.Marshal(p)
	if err != nil {
		return Profile{}, fmt.Errorf("marshalling talent: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.UpsertTalent(p.ID, payload); err != nil {
		return Profile{}, fmt.Errorf("storing talent %q: %w", p.ID, err)
	}

	c.cached = nil
	return p, nil
}

func copyProfiles(in []Profile) []Profile {
	out := make([]Profile, len(in))
	for i, p := range in {
		out[i] = p.Clone()
	}
	return out
}
