package storage

import (
	"context"
	"encoding/binary"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
)

// shardCount must be a power of two for mask-based shard selection
const shardCount = 16

// MemoryStore is an in-process ticket store. Tickets are spread across
// xxhash-selected shards, each guarded by its own RWMutex, so sessions
// touching different tickets do not contend.
type MemoryStore struct {
	counter atomic.Int64
	shards  [shardCount]*shard
}

type shard struct {
	mu      sync.RWMutex
	tickets map[int64]map[string]string
}

// NewMemory creates an empty in-process ticket store
func NewMemory() *MemoryStore {
	s := &MemoryStore{}
	for i := range s.shards {
		s.shards[i] = &shard{
			tickets: make(map[int64]map[string]string),
		}
	}
	return s
}

// shardFor selects the shard holding the given ticket id
func (s *MemoryStore) shardFor(id int64) *shard {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(id))
	return s.shards[xxhash.Sum64(buf[:])&(shardCount-1)]
}

// NextID atomically increments and returns the ticket id counter
func (s *MemoryStore) NextID(ctx context.Context) (int64, error) {
	return s.counter.Add(1), nil
}

// SetFields writes the named fields of the ticket, creating it if absent
func (s *MemoryStore) SetFields(ctx context.Context, id int64, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}

	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	existing, ok := sh.tickets[id]
	if !ok {
		existing = make(map[string]string, len(fields))
		sh.tickets[id] = existing
	}
	for k, v := range fields {
		existing[k] = v
	}
	return nil
}

// GetFields returns a copy of the ticket's fields; empty means absent
func (s *MemoryStore) GetFields(ctx context.Context, id int64) (map[string]string, error) {
	sh := s.shardFor(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	existing, ok := sh.tickets[id]
	if !ok {
		return map[string]string{}, nil
	}

	// Copy out so callers never share the underlying map
	fields := make(map[string]string, len(existing))
	for k, v := range existing {
		fields[k] = v
	}
	return fields, nil
}

// Delete removes the ticket and reports whether it existed
func (s *MemoryStore) Delete(ctx context.Context, id int64) (bool, error) {
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	_, ok := sh.tickets[id]
	delete(sh.tickets, id)
	return ok, nil
}

// Ping always succeeds for the in-process store
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op for the in-process store
func (s *MemoryStore) Close() error {
	return nil
}
