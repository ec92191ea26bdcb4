package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/realtime"
)

// Broadcaster delivers an event to every subscriber of a project group.
// Delivery is fire-and-forget; implementations must not block on slow
// subscribers and must treat an empty group as a no-op.
type Broadcaster interface {
	Broadcast(ctx context.Context, projectID uuid.UUID, event realtime.EventType, payload any)
}

// nopBroadcaster discards every event.
type nopBroadcaster struct{}

func (nopBroadcaster) Broadcast(context.Context, uuid.UUID, realtime.EventType, any) {}
