package ticket

import (
	"fmt"
	"strconv"
	"time"
)

// Conventional ticket statuses. The status field is free-form text; these
// are the values the service itself writes.
const (
	StatusPending  = "pending"
	StatusResolved = "resolved"
)

// Field names of the stored ticket hash. The id is carried in the storage
// key, not in the hash.
const (
	FieldTitle       = "title"
	FieldAuthor      = "author"
	FieldDescription = "description"
	FieldStatus      = "status"
	FieldOwner       = "owner"
	FieldCreatedAt   = "created_at"
)

// Ticket is a persisted issue record. Owner is the identity of the creating
// session; it is set at creation and never changes.
type Ticket struct {
	ID          int64
	Title       string
	Author      string
	Description string
	Status      string
	Owner       string
	CreatedAt   time.Time
}

// Fields flattens the ticket into the stored field map
func (t *Ticket) Fields() map[string]string {
	return map[string]string{
		FieldTitle:       t.Title,
		FieldAuthor:      t.Author,
		FieldDescription: t.Description,
		FieldStatus:      t.Status,
		FieldOwner:       t.Owner,
		FieldCreatedAt:   t.CreatedAt.Format(time.RFC3339Nano),
	}
}

// FromFields rebuilds a ticket from its stored field map
func FromFields(id int64, fields map[string]string) (*Ticket, error) {
	t := &Ticket{
		ID:          id,
		Title:       fields[FieldTitle],
		Author:      fields[FieldAuthor],
		Description: fields[FieldDescription],
		Status:      fields[FieldStatus],
		Owner:       fields[FieldOwner],
	}

	if raw := fields[FieldCreatedAt]; raw != "" {
		createdAt, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("ticket %d: bad created_at %q: %w", id, raw, err)
		}
		t.CreatedAt = createdAt
	}

	return t, nil
}

// ResponseMap returns the flattened representation sent to clients,
// including the id.
func (t *Ticket) ResponseMap() map[string]string {
	m := t.Fields()
	m["id"] = strconv.FormatInt(t.ID, 10)
	return m
}
