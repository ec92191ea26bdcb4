package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/realtime"
)

// BroadcastCall is one recorded Broadcast invocation.
type BroadcastCall struct {
	ProjectID uuid.UUID
	Event     realtime.EventType
	Payload   any
}

// RecordingBroadcaster records every Broadcast call.
type RecordingBroadcaster struct {
	mu    sync.Mutex
	calls []BroadcastCall
}

// Broadcast records the call.
func (b *RecordingBroadcaster) Broadcast(_ context.Context, projectID uuid.UUID, event realtime.EventType, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, BroadcastCall{ProjectID: projectID, Event: event, Payload: payload})
}

// Calls returns a copy of the recorded calls in order.
func (b *RecordingBroadcaster) Calls() []BroadcastCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]BroadcastCall, len(b.calls))
	copy(out, b.calls)
	return out
}

// Events returns the recorded event types in order.
func (b *RecordingBroadcaster) Events() []realtime.EventType {
	calls := b.Calls()
	out := make([]realtime.EventType, 0, len(calls))
	for _, c := range calls {
		out = append(out, c.Event)
	}
	return out
}

// Reset forgets every recorded call.
func (b *RecordingBroadcaster) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = nil
}
