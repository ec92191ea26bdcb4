// Package ordering assigns and rewrites task positions. Positions are scoped
// to a (project, status) bucket; they need not be contiguous or unique, and
// display order is resolved by domain.BoardLess.
package ordering

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// ErrReorderFailed is returned when a bulk reorder could not be applied.
// Nothing from the batch is persisted when it is returned.
var ErrReorderFailed = errors.New("failed to reorder tasks")

// Engine computes insertion positions and applies bulk reorders.
type Engine struct {
	tasks  store.TaskStore
	logger *slog.Logger
}

// NewEngine creates an Engine backed by tasks.
func NewEngine(tasks store.TaskStore, logger *slog.Logger) (*Engine, error) {
	if tasks == nil {
		return nil, fmt.Errorf("tasks store cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		tasks:  tasks,
		logger: logger.With(slog.String("component", "ordering_engine")),
	}, nil
}

// NextPosition returns the position that appends a task to the end of the
// (projectID, status) bucket: max+1, or 0 for an empty bucket.
//
// The read and the later insert are not atomic. Two concurrent creates may
// receive the same position; board order still places both deterministically.
func (e *Engine) NextPosition(ctx context.Context, projectID uuid.UUID, status domain.TaskStatus) (int, error) {
	if status == "" {
		status = domain.DefaultTaskStatus
	}

	max, found, err := e.tasks.MaxPosition(ctx, projectID, status)
	if err != nil {
		return 0, fmt.Errorf("failed to read max position: %w", err)
	}
	if !found {
		return 0, nil
	}
	return max + 1, nil
}

// ResolvePosition honors an explicit position, including 0, and otherwise
// falls back to NextPosition.
func (e *Engine) ResolvePosition(
	ctx context.Context,
	projectID uuid.UUID,
	status domain.TaskStatus,
	explicit *int,
) (int, error) {
	if explicit != nil {
		if *explicit < 0 {
			return 0, domain.NewValidationError("position", "must be non-negative", domain.ErrNegativePosition)
		}
		return *explicit, nil
	}
	return e.NextPosition(ctx, projectID, status)
}

// Reorder applies moves to projectID's tasks in a single transaction and
// returns the updated tasks in input order. The caller has already authorized
// the project; tasks are not checked individually. Positions are stored as
// given. If any task is not a live task of the project, or the store fails,
// nothing changes and an error wrapping ErrReorderFailed is returned.
func (e *Engine) Reorder(ctx context.Context, projectID uuid.UUID, moves []store.PositionMove) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, e.logger)

	for i, m := range moves {
		if m.Position < 0 {
			return nil, domain.NewValidationError(
				fmt.Sprintf("tasks[%d].position", i), "must be non-negative", domain.ErrNegativePosition)
		}
		if m.Status != nil && !m.Status.IsValid() {
			return nil, domain.NewValidationError(
				fmt.Sprintf("tasks[%d].status", i), "is not a valid status", domain.ErrInvalidTaskStatus)
		}
	}

	if len(moves) == 0 {
		return []*domain.Task{}, nil
	}

	updated, err := e.tasks.UpdatePositions(ctx, projectID, moves)
	if err != nil {
		log.Warn("reorder rolled back",
			slog.String("project_id", projectID.String()),
			slog.Int("batch_size", len(moves)),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", ErrReorderFailed, err)
	}

	log.Debug("tasks reordered",
		slog.String("project_id", projectID.String()),
		slog.Int("batch_size", len(updated)))
	return updated, nil
}
