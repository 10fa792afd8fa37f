package event

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeAssignmentCreated    Type = "assignment_created"
	TypeAssignmentReassigned Type = "assignment_reassigned"
	TypeStatusChanged        Type = "assignment_status_changed"
)

// Channel is a domain-scoped Postgres NOTIFY channel. All assignment event
// types share one LISTEN connection.
type Channel string

const ChannelAssignment Channel = "assignment"

var typeToChannel = map[Type]Channel{
	TypeAssignmentCreated:    ChannelAssignment,
	TypeAssignmentReassigned: ChannelAssignment,
	TypeStatusChanged:        ChannelAssignment,
}

// ChannelFor returns the domain channel for a given event type.
func ChannelFor(t Type) Channel { return typeToChannel[t] }

// Event carries identifiers only, not full state. Subscribers fetch fresh
// state from the assignment store.
type Event struct {
	Type      Type      `json:"type"`
	EntityID  uuid.UUID `json:"entity_id"`
	Timestamp time.Time `json:"timestamp"`
}

func New(eventType Type, entityID uuid.UUID) Event {
	return Event{
		Type:      eventType,
		EntityID:  entityID,
		Timestamp: time.Now().UTC(),
	}
}
