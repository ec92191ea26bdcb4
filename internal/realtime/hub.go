// Package realtime fans task board events out to connected clients grouped
// by project. Delivery is best-effort and at-most-once: a client whose send
// buffer is full misses the event.
package realtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
)

// ErrUnknownConnection is returned when joining with a connection ID that is
// not registered (never opened, or already disconnected).
var ErrUnknownConnection = errors.New("unknown connection")

const publishTimeout = 2 * time.Second

// Conn is one client connection.
type Conn interface {
	ID() string
	UserID() uuid.UUID
	// Send queues a message without blocking and reports whether it was queued.
	Send(event EventType, data []byte) bool
}

// Relay carries encoded envelopes between server instances.
type Relay interface {
	Publish(ctx context.Context, payload []byte) error
}

// Hub indexes connections by project group and by user.
// The index lives in memory only and starts empty on every boot.
type Hub struct {
	mu          sync.RWMutex
	conns       map[string]Conn
	groups      map[uuid.UUID]map[string]Conn
	memberships map[string]map[uuid.UUID]struct{}
	byUser      map[uuid.UUID]map[string]struct{}

	relay  Relay
	logger *slog.Logger
}

// NewHub creates an empty Hub that delivers in-process.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		conns:       make(map[string]Conn),
		groups:      make(map[uuid.UUID]map[string]Conn),
		memberships: make(map[string]map[uuid.UUID]struct{}),
		byUser:      make(map[uuid.UUID]map[string]struct{}),
		logger:      logger.With(slog.String("component", "realtime_hub")),
	}
}

// UseRelay routes every broadcast through r. Local delivery then happens when
// the relay hands the envelope back via Deliver.
func (h *Hub) UseRelay(r Relay) {
	h.mu.Lock()
	h.relay = r
	h.mu.Unlock()
}

// Register tracks a new connection. It belongs to no group yet.
func (h *Hub) Register(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.conns[c.ID()] = c
	h.memberships[c.ID()] = make(map[uuid.UUID]struct{})
	if h.byUser[c.UserID()] == nil {
		h.byUser[c.UserID()] = make(map[string]struct{})
	}
	h.byUser[c.UserID()][c.ID()] = struct{}{}
}

// Owner returns the user who opened connID.
func (h *Hub) Owner(connID string) (uuid.UUID, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	c, ok := h.conns[connID]
	if !ok {
		return uuid.Nil, false
	}
	return c.UserID(), true
}

// Join adds connID to projectID's group. Joining twice is a no-op.
func (h *Hub) Join(projectID uuid.UUID, connID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.conns[connID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownConnection, connID)
	}
	if h.groups[projectID] == nil {
		h.groups[projectID] = make(map[string]Conn)
	}
	h.groups[projectID][connID] = c
	h.memberships[connID][projectID] = struct{}{}
	return nil
}

// Leave removes connID from projectID's group. Leaving a group the connection
// is not in, or leaving twice, is a no-op.
func (h *Hub) Leave(projectID uuid.UUID, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(projectID, connID)
}

func (h *Hub) leaveLocked(projectID uuid.UUID, connID string) {
	if group, ok := h.groups[projectID]; ok {
		delete(group, connID)
		if len(group) == 0 {
			delete(h.groups, projectID)
		}
	}
	if m, ok := h.memberships[connID]; ok {
		delete(m, projectID)
	}
}

// Disconnect forgets connID and removes it from every group.
func (h *Hub) Disconnect(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for projectID := range h.memberships[connID] {
		h.leaveLocked(projectID, connID)
	}
	delete(h.memberships, connID)

	if c, ok := h.conns[connID]; ok {
		if ids := h.byUser[c.UserID()]; ids != nil {
			delete(ids, connID)
			if len(ids) == 0 {
				delete(h.byUser, c.UserID())
			}
		}
		delete(h.conns, connID)
	}
}

// Members returns the connection IDs in projectID's group, sorted.
func (h *Hub) Members(projectID uuid.UUID) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]string, 0, len(h.groups[projectID]))
	for id := range h.groups[projectID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Groups returns the projects connID has joined.
func (h *Hub) Groups(connID string) []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]uuid.UUID, 0, len(h.memberships[connID]))
	for id := range h.memberships[connID] {
		out = append(out, id)
	}
	return out
}

// UserConnections returns the connection IDs opened by userID.
func (h *Hub) UserConnections(userID uuid.UUID) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]string, 0, len(h.byUser[userID]))
	for id := range h.byUser[userID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Broadcast sends event to projectID's group. It never fails: encoding and
// relay errors are logged, and a relay failure falls back to local delivery.
func (h *Hub) Broadcast(ctx context.Context, projectID uuid.UUID, event EventType, payload any) {
	log := logger.FromContextOrDefault(ctx, h.logger)

	data, err := sonic.Marshal(payload)
	if err != nil {
		log.Error("failed to encode event payload",
			slog.String("event", string(event)),
			slog.String("error", err.Error()))
		return
	}
	env := Envelope{ProjectID: projectID, Event: event, Data: data}

	h.mu.RLock()
	relay := h.relay
	h.mu.RUnlock()

	if relay != nil {
		encoded, err := sonic.Marshal(env)
		if err == nil {
			pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
			err = relay.Publish(pctx, encoded)
			cancel()
			if err == nil {
				return
			}
		}
		log.Warn("relay publish failed, delivering locally",
			slog.String("event", string(event)),
			slog.String("project_id", projectID.String()),
			slog.String("error", err.Error()))
	}

	h.Deliver(env)
}

// Deliver fans env out to the local members of its project group and returns
// how many connections accepted it.
func (h *Hub) Deliver(env Envelope) int {
	h.mu.RLock()
	members := make([]Conn, 0, len(h.groups[env.ProjectID]))
	for _, c := range h.groups[env.ProjectID] {
		members = append(members, c)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, c := range members {
		if c.Send(env.Event, env.Data) {
			delivered++
			continue
		}
		h.logger.Warn("dropping event for slow connection",
			slog.String("connection_id", c.ID()),
			slog.String("event", string(env.Event)))
	}
	return delivered
}

// DeliverEncoded decodes a relayed envelope and delivers it locally.
func (h *Hub) DeliverEncoded(payload []byte) error {
	var env Envelope
	if err := sonic.Unmarshal(payload, &env); err != nil {
		return fmt.Errorf("failed to decode envelope: %w", err)
	}
	h.Deliver(env)
	return nil
}
