package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a session does not exist in any tier.
// Callers in the chat flow treat it as "create a fresh session".
var ErrNotFound = errors.New("session not found")

// Stats summarizes the state of a session store.
type Stats struct {
	ActiveSessions int    `json:"active_sessions"`
	TotalMessages  int    `json:"total_messages"`
	StorageMode    string `json:"storage_mode"`
}

// Store is the session storage contract. Implemented by MemoryStore and by
// the FallbackStore decorator that layers a durable tier underneath it.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Put(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (Stats, error)
}

// DurableTier is the boundary contract for the external durable key-value
// tier. Implemented by storage.Store. Any error marks the tier unhealthy in
// the FallbackStore; Ping is used by the recovery loop.
type DurableTier interface {
	GetSession(id string) ([]byte, error)
	SetSession(id string, payload []byte, ttl time.Duration) error
	DeleteSession(id string) error
	Ping() error
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }
