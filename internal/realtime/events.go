package realtime

import (
	"encoding/json"

	"github.com/google/uuid"
)

// EventType names a realtime event. The values are what clients see.
type EventType string

const (
	EventTaskCreated    EventType = "task-created"
	EventTaskUpdated    EventType = "task-updated"
	EventTaskDeleted    EventType = "task-deleted"
	EventTasksReordered EventType = "tasks-reordered"
	EventProjectUpdated EventType = "project-updated"

	// EventConnected is sent once on every new stream and carries the
	// connection ID used to join project groups.
	EventConnected EventType = "connected"
)

// Envelope is one event addressed to a project group. It is also the
// message format on the Redis relay channel.
type Envelope struct {
	ProjectID uuid.UUID       `json:"project_id"`
	Event     EventType       `json:"event"`
	Data      json.RawMessage `json:"data"`
}

// TaskDeleted is the payload of task-deleted.
type TaskDeleted struct {
	ID uuid.UUID `json:"id"`
}
