package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/api/shared"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/realtime"
	"github.com/phrazzld/taskboard-api/internal/service"
)

// Streamer serves a long-lived event stream for one user.
type Streamer interface {
	Serve(w http.ResponseWriter, r *http.Request, userID uuid.UUID, opts realtime.StreamOptions)
}

// RealtimeHandler opens event streams and manages project group membership.
type RealtimeHandler struct {
	streamer      Streamer
	subscriptions service.SubscriptionService
	opts          realtime.StreamOptions
	logger        *slog.Logger
}

// NewRealtimeHandler creates a new RealtimeHandler.
func NewRealtimeHandler(
	streamer Streamer,
	subscriptions service.SubscriptionService,
	opts realtime.StreamOptions,
	logger *slog.Logger,
) *RealtimeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RealtimeHandler{
		streamer:      streamer,
		subscriptions: subscriptions,
		opts:          opts,
		logger:        logger.With(slog.String("component", "realtime_handler")),
	}
}

// Stream handles GET /realtime/stream. The first event carries the
// connection id used to join project groups.
func (h *RealtimeHandler) Stream(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, logger.FromContextOrDefault(r.Context(), h.logger))
	if !ok {
		return
	}
	h.streamer.Serve(w, r, actor.ID, h.opts)
}

// JoinProject handles POST /realtime/connections/{connId}/projects/{projectId}.
func (h *RealtimeHandler) JoinProject(w http.ResponseWriter, r *http.Request) {
	actor, connID, projectID, ok := h.membershipParams(w, r)
	if !ok {
		return
	}

	if err := h.subscriptions.JoinProject(r.Context(), actor, connID, projectID); err != nil {
		HandleAPIError(w, r, err, "Failed to join project")
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, membershipResponse{
		ConnectionID: connID,
		ProjectID:    projectID,
		Joined:       true,
	})
}

// LeaveProject handles DELETE /realtime/connections/{connId}/projects/{projectId}.
// Leaving a group the connection is not in succeeds.
func (h *RealtimeHandler) LeaveProject(w http.ResponseWriter, r *http.Request) {
	actor, connID, projectID, ok := h.membershipParams(w, r)
	if !ok {
		return
	}

	if err := h.subscriptions.LeaveProject(r.Context(), actor, connID, projectID); err != nil {
		HandleAPIError(w, r, err, "Failed to leave project")
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, membershipResponse{
		ConnectionID: connID,
		ProjectID:    projectID,
		Joined:       false,
	})
}

type membershipResponse struct {
	ConnectionID string    `json:"connection_id"`
	ProjectID    uuid.UUID `json:"project_id"`
	Joined       bool      `json:"joined"`
}

func (h *RealtimeHandler) membershipParams(
	w http.ResponseWriter,
	r *http.Request,
) (domain.Actor, string, uuid.UUID, bool) {
	actor, projectID, ok := handleActorAndPathUUID(w, r, "projectId", h.logger)
	if !ok {
		return domain.Actor{}, "", uuid.Nil, false
	}
	connID := chi.URLParam(r, "connId")
	if connID == "" {
		HandleAPIError(w, r, domain.NewValidationError("connId", "is required", domain.ErrValidation), "")
		return domain.Actor{}, "", uuid.Nil, false
	}
	return actor, connID, projectID, true
}
