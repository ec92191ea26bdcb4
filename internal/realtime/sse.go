package realtime

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
)

type frame struct {
	event EventType
	data  []byte
}

// StreamConn is a Conn backed by a buffered channel drained by an SSE writer.
type StreamConn struct {
	id     string
	userID uuid.UUID
	out    chan frame
}

// NewStreamConn creates a connection for userID with room for buffer
// pending events.
func NewStreamConn(userID uuid.UUID, buffer int) *StreamConn {
	if buffer < 1 {
		buffer = 1
	}
	return &StreamConn{
		id:     uuid.NewString(),
		userID: userID,
		out:    make(chan frame, buffer),
	}
}

// ID implements Conn.
func (c *StreamConn) ID() string { return c.id }

// UserID implements Conn.
func (c *StreamConn) UserID() uuid.UUID { return c.userID }

// Send implements Conn.
func (c *StreamConn) Send(event EventType, data []byte) bool {
	select {
	case c.out <- frame{event: event, data: data}:
		return true
	default:
		return false
	}
}

// StreamOptions configures Serve.
type StreamOptions struct {
	Keepalive time.Duration
	Buffer    int
}

// Serve streams the events of every group the connection joins as
// Server-Sent Events until the client goes away. The first event is
// "connected" with the connection ID.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID uuid.UUID, opts StreamOptions) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	conn := NewStreamConn(userID, opts.Buffer)
	h.Register(conn)
	defer h.Disconnect(conn.ID())

	log := h.logger.With(
		slog.String("connection_id", conn.ID()),
		slog.String("user_id", userID.String()))
	log.Info("stream opened")
	defer log.Info("stream closed")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	hello, _ := sonic.Marshal(map[string]string{"connection_id": conn.ID()})
	if err := writeFrame(w, frame{event: EventConnected, data: hello}); err != nil {
		return
	}
	flusher.Flush()

	keepalive := opts.Keepalive
	if keepalive <= 0 {
		keepalive = 25 * time.Second
	}
	ticker := time.NewTicker(keepalive)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case f := <-conn.out:
			if err := writeFrame(w, f); err != nil {
				log.Debug("stream write failed", slog.String("error", err.Error()))
				return
			}
			flusher.Flush()
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeFrame(w http.ResponseWriter, f frame) error {
	_, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", f.event, f.data)
	return err
}
