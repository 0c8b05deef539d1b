package content

import (
	"time"

	"github.com/google/uuid"
)

// EventKind is the mutation that triggered an invalidation.
type EventKind string

const (
	EventInsert EventKind = "insert"
	EventUpdate EventKind = "update"
	EventDelete EventKind = "delete"
)

// Event describes a record mutation reported by the host.
type Event struct {
	ID         uuid.UUID
	Kind       EventKind
	ObjectType string
	ObjectID   int64
	At         time.Time
}

// NewEvent stamps a mutation event with a fresh id.
func NewEvent(kind EventKind, objectType string, objectID int64) Event {
	return Event{
		ID:         uuid.New(),
		Kind:       kind,
		ObjectType: objectType,
		ObjectID:   objectID,
		At:         time.Now(),
	}
}
