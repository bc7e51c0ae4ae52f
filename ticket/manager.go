package ticket

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ticketline/ticketline/storage"
)

// ErrNotFound indicates the requested ticket does not exist
var ErrNotFound = errors.New("ticket not found")

// Manager performs ticket persistence through a storage.Store. A single
// manager instance is shared by all sessions; it holds no mutable state of
// its own, so it is safe for concurrent use.
type Manager struct {
	store storage.Store
	now   func() time.Time
}

// NewManager creates a manager backed by the given store
func NewManager(store storage.Store) *Manager {
	return &Manager{
		store: store,
		now:   time.Now,
	}
}

// Create allocates a fresh id, stamps the creation time and persists the
// ticket. The id and creation time are written back into t.
func (m *Manager) Create(ctx context.Context, t *Ticket) (int64, error) {
	id, err := m.store.NextID(ctx)
	if err != nil {
		return 0, fmt.Errorf("allocate ticket id: %w", err)
	}

	t.ID = id
	t.CreatedAt = m.now().UTC()

	if err := m.store.SetFields(ctx, id, t.Fields()); err != nil {
		return 0, fmt.Errorf("persist ticket %d: %w", id, err)
	}
	return id, nil
}

// Get returns the ticket with the given id, or ErrNotFound
func (m *Manager) Get(ctx context.Context, id int64) (*Ticket, error) {
	fields, err := m.store.GetFields(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load ticket %d: %w", id, err)
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}
	return FromFields(id, fields)
}

// Update overwrites only the supplied fields of an existing ticket.
// Callers are responsible for existence and ownership checks and for
// restricting fields to mutable ones.
func (m *Manager) Update(ctx context.Context, id int64, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	if err := m.store.SetFields(ctx, id, fields); err != nil {
		return fmt.Errorf("update ticket %d: %w", id, err)
	}
	return nil
}

// Delete removes the ticket entirely. Deleting an absent ticket returns
// ErrNotFound, so repeated deletes surface as failures rather than success.
func (m *Manager) Delete(ctx context.Context, id int64) error {
	existed, err := m.store.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete ticket %d: %w", id, err)
	}
	if !existed {
		return ErrNotFound
	}
	return nil
}
