package repositories

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/hawkinslabdev/rideway-sub002/pkg/database"
	"github.com/hawkinslabdev/rideway-sub002/pkg/models"
	"github.com/hawkinslabdev/rideway-sub002/pkg/tracing"
)

const tasksTable = "maintenance_tasks"

var taskStruct = database.NewStruct(new(models.MaintenanceTask))

// TaskRepository handles database operations for maintenance tasks
type TaskRepository struct {
	*Repository
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db database.DB, logger ectologger.Logger) *TaskRepository {
	return &TaskRepository{
		Repository: NewRepository(db, logger),
	}
}

// Create creates a new maintenance task
func (r *TaskRepository) Create(ctx context.Context, task *models.MaintenanceTask) error {
	ctx, span := tracing.StartSpan(ctx, "TaskRepository.Create")
	defer span.End()

	userID, err := GetUserID(ctx)
	if err != nil {
		return err
	}
	task.UserID = userID

	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto(tasksTable).
		Cols("id", "user_id", "motorcycle_id", "name", "description", "interval_miles", "interval_days",
			"interval_base", "base_odometer", "base_date", "next_due_odometer", "next_due_date",
			"priority", "recurring", "archived", "created_at", "updated_at").
		Values(task.ID, task.UserID, task.MotorcycleID, task.Name, task.Description, task.IntervalMiles, task.IntervalDays,
			task.IntervalBase, task.BaseOdometer, task.BaseDate, task.NextDueOdometer, task.NextDueDate,
			task.Priority, task.Recurring, task.Archived,
			sqlbuilder.Raw("NOW()"), sqlbuilder.Raw("NOW()")).
		Returning("created_at", "updated_at")

	query, args := ib.Build()
	err = r.DB().QueryRowContext(ctx, query, args...).Scan(&task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"task_id": task.ID,
		}).Error("failed to create task")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create task")
	}

	return nil
}

// GetByID retrieves a task by ID (user-scoped)
func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.MaintenanceTask, error) {
	ctx, span := tracing.StartSpan(ctx, "TaskRepository.GetByID")
	defer span.End()

	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	sb := taskStruct.SelectFrom(tasksTable)
	sb.Where(sb.Equal("user_id", userID), sb.Equal("id", id))

	query, args := sb.Build()
	var task models.MaintenanceTask
	err = r.DB().GetContext(ctx, &task, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "task %s does not exist", id)
	}
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"task_id": id,
		}).Error("failed to get task by ID")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get task by ID")
	}

	return &task, nil
}

// List retrieves all unarchived tasks for the current user, optionally
// filtered to one motorcycle.
func (r *TaskRepository) List(ctx context.Context, motorcycleID *uuid.UUID) ([]*models.MaintenanceTask, error) {
	ctx, span := tracing.StartSpan(ctx, "TaskRepository.List")
	defer span.End()

	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	sb := taskStruct.SelectFrom(tasksTable)
	sb.Where(sb.Equal("user_id", userID), sb.Equal("archived", false))
	if motorcycleID != nil {
		sb.Where(sb.Equal("motorcycle_id", *motorcycleID))
	}
	sb.OrderBy("name")

	query, args := sb.Build()
	var tasks []*models.MaintenanceTask
	err = r.DB().SelectContext(ctx, &tasks, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list tasks")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list tasks")
	}

	return tasks, nil
}

// ListByMotorcycle retrieves all unarchived tasks for one motorcycle.
func (r *TaskRepository) ListByMotorcycle(ctx context.Context, motorcycleID uuid.UUID) ([]*models.MaintenanceTask, error) {
	return r.List(ctx, &motorcycleID)
}

// Update updates a task's settings and schedule
func (r *TaskRepository) Update(ctx context.Context, task *models.MaintenanceTask) error {
	ctx, span := tracing.StartSpan(ctx, "TaskRepository.Update")
	defer span.End()

	userID, err := GetUserID(ctx)
	if err != nil {
		return err
	}

	ub := database.NewUpdateBuilder()
	ub.Update(tasksTable).
		Set(
			ub.Assign("name", task.Name),
			ub.Assign("description", task.Description),
			ub.Assign("interval_miles", task.IntervalMiles),
			ub.Assign("interval_days", task.IntervalDays),
			ub.Assign("interval_base", task.IntervalBase),
			ub.Assign("base_odometer", task.BaseOdometer),
			ub.Assign("base_date", task.BaseDate),
			ub.Assign("next_due_odometer", task.NextDueOdometer),
			ub.Assign("next_due_date", task.NextDueDate),
			ub.Assign("priority", task.Priority),
			ub.Assign("recurring", task.Recurring),
			ub.Assign("archived", task.Archived),
			ub.Assign("updated_at", sqlbuilder.Raw("NOW()")),
		).
		Where(ub.Equal("user_id", userID), ub.Equal("id", task.ID))
	ub.SQL("RETURNING updated_at")

	query, args := ub.Build()
	err = r.DB().QueryRowContext(ctx, query, args...).Scan(&task.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "task %s does not exist", task.ID)
	}
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"task_id": task.ID,
		}).Error("failed to update task")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update task")
	}

	return nil
}

// UpdateSchedule persists only a task's recomputed due values.
func (r *TaskRepository) UpdateSchedule(ctx context.Context, task *models.MaintenanceTask) error {
	ctx, span := tracing.StartSpan(ctx, "TaskRepository.UpdateSchedule")
	defer span.End()

	userID, err := GetUserID(ctx)
	if err != nil {
		return err
	}

	ub := database.NewUpdateBuilder()
	ub.Update(tasksTable).
		Set(
			ub.Assign("base_odometer", task.BaseOdometer),
			ub.Assign("base_date", task.BaseDate),
			ub.Assign("next_due_odometer", task.NextDueOdometer),
			ub.Assign("next_due_date", task.NextDueDate),
			ub.Assign("updated_at", sqlbuilder.Raw("NOW()")),
		).
		Where(ub.Equal("user_id", userID), ub.Equal("id", task.ID))
	ub.SQL("RETURNING updated_at")

	query, args := ub.Build()
	err = r.DB().QueryRowContext(ctx, query, args...).Scan(&task.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "task %s does not exist", task.ID)
	}
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"task_id": task.ID,
		}).Error("failed to update task schedule")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update task schedule")
	}

	return nil
}

// Archive soft-deletes a task
func (r *TaskRepository) Archive(ctx context.Context, id uuid.UUID) error {
	ctx, span := tracing.StartSpan(ctx, "TaskRepository.Archive")
	defer span.End()

	userID, err := GetUserID(ctx)
	if err != nil {
		return err
	}

	ub := database.NewUpdateBuilder()
	ub.Update(tasksTable).
		Set(
			ub.Assign("archived", true),
			ub.Assign("updated_at", sqlbuilder.Raw("NOW()")),
		).
		Where(ub.Equal("user_id", userID), ub.Equal("id", id))
	ub.SQL("RETURNING id")

	query, args := ub.Build()
	var archivedID uuid.UUID
	err = r.DB().QueryRowContext(ctx, query, args...).Scan(&archivedID)
	if errors.Is(err, sql.ErrNoRows) {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "task %s does not exist", id)
	}
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"task_id": id,
		}).Error("failed to archive task")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to archive task")
	}

	return nil
}

// ListUsersWithDateDueTasks returns the distinct users owning unarchived
// tasks with a date-based due value. Used by the periodic due sweep; not
// user-scoped.
func (r *TaskRepository) ListUsersWithDateDueTasks(ctx context.Context) ([]uuid.UUID, error) {
	ctx, span := tracing.StartSpan(ctx, "TaskRepository.ListUsersWithDateDueTasks")
	defer span.End()

	query := `SELECT DISTINCT user_id FROM maintenance_tasks
		WHERE archived = false AND next_due_date IS NOT NULL`

	var userIDs []uuid.UUID
	err := r.DB().SelectContext(ctx, &userIDs, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list users with due tasks")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list users with due tasks")
	}

	return userIDs, nil
}
