package storage

import (
	"context"
	"strconv"
)

// Key layout of the persisted state. The counter key feeds id allocation;
// each ticket lives in its own hash. No other schema exists.
const (
	counterKey = "ticket:id"
	keyPrefix  = "ticket:"
)

// Store defines the boundary to the key-value collaborator that persists
// tickets. Implementations must be safe for concurrent use.
type Store interface {
	// NextID atomically increments and returns the ticket id counter.
	// No two calls ever return the same value, even under concurrent
	// sessions.
	NextID(ctx context.Context) (int64, error)

	// SetFields writes or overwrites the named fields of the ticket hash,
	// leaving unnamed fields intact.
	SetFields(ctx context.Context, id int64, fields map[string]string) error

	// GetFields returns all fields of the ticket hash. An empty map means
	// the ticket does not exist.
	GetFields(ctx context.Context, id int64) (map[string]string, error)

	// Delete removes the ticket hash entirely and reports whether a record
	// existed.
	Delete(ctx context.Context, id int64) (bool, error)

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	// Close releases resources held by the store.
	Close() error
}

// ticketKey builds the hash key for a ticket id
func ticketKey(id int64) string {
	return keyPrefix + strconv.FormatInt(id, 10)
}
