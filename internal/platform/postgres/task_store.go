package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/store"
)

const taskColumns = `t.id, t.title, t.description, t.status, t.priority, t.position,
	t.project_id, t.assignee_id, t.due_date, t.created_at, t.updated_at, t.deleted_at`

// live tasks of live projects
const taskFrom = `
	FROM tasks t
	JOIN projects p ON p.id = t.project_id
	LEFT JOIN users a ON a.id = t.assignee_id`

const statusRank = `CASE t.status WHEN 'TODO' THEN 0 WHEN 'IN_PROGRESS' THEN 1 WHEN 'IN_REVIEW' THEN 2 ELSE 3 END`

const priorityRank = `CASE t.priority WHEN 'LOW' THEN 0 WHEN 'MEDIUM' THEN 1 WHEN 'HIGH' THEN 2 ELSE 3 END`

const boardOrder = statusRank + ` ASC, t.position ASC, t.created_at DESC, t.id ASC`

var sortColumns = map[store.TaskSortField]string{
	store.TaskSortTitle:     "t.title",
	store.TaskSortStatus:    statusRank,
	store.TaskSortPriority:  priorityRank,
	store.TaskSortPosition:  "t.position",
	store.TaskSortDueDate:   "t.due_date",
	store.TaskSortCreatedAt: "t.created_at",
	store.TaskSortUpdatedAt: "t.updated_at",
	store.TaskSortProject:   "p.name",
	store.TaskSortAssignee:  "a.name",
}

// PostgresTaskStore implements store.TaskStore on PostgreSQL.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a task store over db. When db is a *sql.DB,
// UpdatePositions opens its own transaction; when it is a *sql.Tx the moves
// join the caller's transaction.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

var _ store.TaskStore = (*PostgresTaskStore)(nil)

// WithTx implements store.TaskStore.WithTx
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{db: tx, logger: s.logger}
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		t           domain.Task
		description sql.NullString
		status      string
		priority    string
		assigneeID  uuid.NullUUID
		dueDate     sql.NullTime
		deletedAt   sql.NullTime
	)
	if err := row.Scan(
		&t.ID,
		&t.Title,
		&description,
		&status,
		&priority,
		&t.Position,
		&t.ProjectID,
		&assigneeID,
		&dueDate,
		&t.CreatedAt,
		&t.UpdatedAt,
		&deletedAt,
	); err != nil {
		return nil, err
	}
	t.Description = stringPtr(description)
	t.Status = domain.TaskStatus(status)
	t.Priority = domain.TaskPriority(priority)
	t.AssigneeID = uuidPtr(assigneeID)
	t.DueDate = timePtr(dueDate)
	t.DeletedAt = timePtr(deletedAt)
	return &t, nil
}

func scanTasks(rows *sql.Rows) ([]*domain.Task, error) {
	defer func() { _ = rows.Close() }()

	tasks := []*domain.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// mapTaskWriteError turns reference violations into store.ErrInvalidEntity
// naming the broken reference.
func mapTaskWriteError(err error, task *domain.Task) error {
	switch constraint := foreignKeyConstraint(err); {
	case strings.Contains(constraint, "assignee"):
		return fmt.Errorf("%w: assignee %v not found", store.ErrInvalidEntity, task.AssigneeID)
	case strings.Contains(constraint, "project"):
		return fmt.Errorf("%w: project %s not found", store.ErrInvalidEntity, task.ProjectID)
	}
	return MapError(err)
}

// Create implements store.TaskStore.Create
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, title, description, status, priority, position,
			project_id, assignee_id, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		task.ID,
		task.Title,
		nullString(task.Description),
		string(task.Status),
		string(task.Priority),
		task.Position,
		task.ProjectID,
		nullUUID(task.AssigneeID),
		nullTime(task.DueDate),
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()),
			slog.String("project_id", task.ProjectID.String()))
		return mapTaskWriteError(err, task)
	}

	log.Debug("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("status", string(task.Status)),
		slog.Int("position", task.Position))
	return nil
}

// GetByID implements store.TaskStore.GetByID
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID, opts ...store.FindOption) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + taskFrom + ` WHERE t.id = $1`
	if !store.ApplyFindOptions(opts...).IncludeDeleted {
		query += ` AND t.deleted_at IS NULL AND p.deleted_at IS NULL`
	}

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get task by ID",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, MapError(err)
	}
	return task, nil
}

// taskWhere renders the filter part of q. Soft-deleted tasks and tasks of
// soft-deleted projects are always excluded.
func taskWhere(q store.TaskQuery, a *args) string {
	conds := []string{"t.deleted_at IS NULL", "p.deleted_at IS NULL"}

	if q.Status != nil {
		conds = append(conds, "t.status = "+a.add(string(*q.Status)))
	}
	if q.Priority != nil {
		conds = append(conds, "t.priority = "+a.add(string(*q.Priority)))
	}
	if q.AssigneeID != nil {
		conds = append(conds, "t.assignee_id = "+a.add(*q.AssigneeID))
	}
	if q.ProjectID != nil {
		conds = append(conds, "t.project_id = "+a.add(*q.ProjectID))
	}
	if search := strings.TrimSpace(q.Search); search != "" {
		ph := a.add(likePattern(search))
		conds = append(conds, "(t.title ILIKE "+ph+" OR t.description ILIKE "+ph+")")
	}
	if q.VisibleTo != nil {
		ph := a.add(*q.VisibleTo)
		conds = append(conds, "(p.owner_id = "+ph+" OR t.assignee_id = "+ph+")")
	}

	return " WHERE " + strings.Join(conds, " AND ")
}

// taskOrder renders ORDER BY for q. Unknown or empty sort fields fall back to
// board order; id always closes the ordering so pages are stable.
func taskOrder(q store.TaskQuery) string {
	col, ok := sortColumns[q.SortBy]
	if !ok {
		return " ORDER BY " + boardOrder
	}
	dir := "ASC"
	if q.Order == store.SortDesc {
		dir = "DESC"
	}
	return " ORDER BY " + col + " " + dir + " NULLS LAST, t.id ASC"
}

// Find implements store.TaskStore.Find
func (s *PostgresTaskStore) Find(ctx context.Context, q store.TaskQuery) ([]*domain.Task, error) {
	var a args
	query := `SELECT ` + taskColumns + taskFrom + taskWhere(q, &a) + taskOrder(q)
	if q.Limit > 0 {
		query += " LIMIT " + a.add(q.Limit)
	}
	if q.Offset > 0 {
		query += " OFFSET " + a.add(q.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, a...)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to find tasks",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	tasks, err := scanTasks(rows)
	return tasks, MapError(err)
}

// Count implements store.TaskStore.Count
func (s *PostgresTaskStore) Count(ctx context.Context, q store.TaskQuery) (int, error) {
	var a args
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*)`+taskFrom+taskWhere(q, &a), a...).Scan(&n)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to count tasks",
			slog.String("error", err.Error()))
		return 0, MapError(err)
	}
	return n, nil
}

// CountByProjects implements store.TaskStore.CountByProjects
func (s *PostgresTaskStore) CountByProjects(ctx context.Context, projectIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int, len(projectIDs))
	if len(projectIDs) == 0 {
		return counts, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT project_id, COUNT(*) FROM tasks
		WHERE deleted_at IS NULL AND project_id = ANY($1::uuid[])
		GROUP BY project_id`, uuidStrings(projectIDs))
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var id uuid.UUID
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, MapError(err)
		}
		counts[id] = n
	}
	return counts, MapError(rows.Err())
}

// Update implements store.TaskStore.Update
func (s *PostgresTaskStore) Update(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	task.UpdatedAt = time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks
		SET title = $2, description = $3, status = $4, priority = $5, position = $6,
			assignee_id = $7, due_date = $8, updated_at = $9
		WHERE id = $1 AND deleted_at IS NULL`,
		task.ID,
		task.Title,
		nullString(task.Description),
		string(task.Status),
		string(task.Priority),
		task.Position,
		nullUUID(task.AssigneeID),
		nullTime(task.DueDate),
		task.UpdatedAt,
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return mapTaskWriteError(err, task)
	}
	return CheckRowsAffected(result, store.ErrTaskNotFound)
}

// SoftDelete implements store.TaskStore.SoftDelete
func (s *PostgresTaskStore) SoftDelete(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	now := time.Now().UTC()
	task, err := scanTask(s.db.QueryRowContext(ctx, `
		UPDATE tasks AS t SET deleted_at = $2, updated_at = $2
		WHERE t.id = $1 AND t.deleted_at IS NULL
		RETURNING `+taskColumns, id, now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to soft delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, MapError(err)
	}

	log.Info("task soft deleted", slog.String("task_id", id.String()))
	return task, nil
}

// MaxPosition implements store.TaskStore.MaxPosition
func (s *PostgresTaskStore) MaxPosition(
	ctx context.Context,
	projectID uuid.UUID,
	status domain.TaskStatus,
) (int, bool, error) {
	var max sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(position) FROM tasks
		WHERE project_id = $1 AND status = $2 AND deleted_at IS NULL`,
		projectID, string(status)).Scan(&max)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to read max position",
			slog.String("error", err.Error()),
			slog.String("project_id", projectID.String()),
			slog.String("status", string(status)))
		return 0, false, MapError(err)
	}
	if !max.Valid {
		return 0, false, nil
	}
	return int(max.Int64), true, nil
}

// UpdatePositions implements store.TaskStore.UpdatePositions
func (s *PostgresTaskStore) UpdatePositions(
	ctx context.Context,
	projectID uuid.UUID,
	moves []store.PositionMove,
) ([]*domain.Task, error) {
	if len(moves) == 0 {
		return []*domain.Task{}, nil
	}

	db, ok := s.db.(*sql.DB)
	if !ok {
		return s.applyMoves(ctx, s.db, projectID, moves)
	}

	var updated []*domain.Task
	err := store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		updated, err = s.applyMoves(ctx, tx, projectID, moves)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// applyMoves updates each task in turn. Any task that is not a live task of
// projectID aborts the batch.
func (s *PostgresTaskStore) applyMoves(
	ctx context.Context,
	db store.DBTX,
	projectID uuid.UUID,
	moves []store.PositionMove,
) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := time.Now().UTC()

	updated := make([]*domain.Task, 0, len(moves))
	for _, m := range moves {
		var status sql.NullString
		if m.Status != nil {
			status = sql.NullString{String: string(*m.Status), Valid: true}
		}

		task, err := scanTask(db.QueryRowContext(ctx, `
			UPDATE tasks AS t
			SET position = $3, status = COALESCE($4, t.status), updated_at = $5
			WHERE t.id = $1 AND t.project_id = $2 AND t.deleted_at IS NULL
			RETURNING `+taskColumns,
			m.TaskID, projectID, m.Position, status, now))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				log.Warn("reorder references a task outside the project",
					slog.String("task_id", m.TaskID.String()),
					slog.String("project_id", projectID.String()))
				return nil, fmt.Errorf("%w: %s", store.ErrTaskNotFound, m.TaskID)
			}
			log.Error("failed to update task position",
				slog.String("error", err.Error()),
				slog.String("task_id", m.TaskID.String()))
			return nil, store.NewStoreError("task", "reorder", "failed to update position", MapError(err))
		}
		updated = append(updated, task)
	}

	log.Debug("task positions updated",
		slog.String("project_id", projectID.String()),
		slog.Int("count", len(updated)))
	return updated, nil
}
