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

const recordsTable = "maintenance_records"

var recordStruct = database.NewStruct(new(models.MaintenanceRecord))

// RecordRepository handles database operations for maintenance records
type RecordRepository struct {
	*Repository
}

// NewRecordRepository creates a new record repository
func NewRecordRepository(db database.DB, logger ectologger.Logger) *RecordRepository {
	return &RecordRepository{
		Repository: NewRepository(db, logger),
	}
}

// Create creates a new maintenance record
func (r *RecordRepository) Create(ctx context.Context, record *models.MaintenanceRecord) error {
	ctx, span := tracing.StartSpan(ctx, "RecordRepository.Create")
	defer span.End()

	userID, err := GetUserID(ctx)
	if err != nil {
		return err
	}
	record.UserID = userID

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto(recordsTable).
		Cols("id", "user_id", "motorcycle_id", "task_id", "service_date", "mileage", "cost", "notes",
			"scheduled", "resets_interval", "next_due_odometer", "next_due_date", "created_at", "updated_at").
		Values(record.ID, record.UserID, record.MotorcycleID, record.TaskID, record.ServiceDate, record.Mileage,
			record.Cost, record.Notes, record.Scheduled, record.ResetsInterval,
			record.NextDueOdometer, record.NextDueDate,
			sqlbuilder.Raw("NOW()"), sqlbuilder.Raw("NOW()")).
		Returning("created_at", "updated_at")

	query, args := ib.Build()
	err = r.DB().QueryRowContext(ctx, query, args...).Scan(&record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"record_id": record.ID,
		}).Error("failed to create record")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create record")
	}

	return nil
}

// GetByID retrieves a record by ID (user-scoped)
func (r *RecordRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.MaintenanceRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "RecordRepository.GetByID")
	defer span.End()

	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	sb := recordStruct.SelectFrom(recordsTable)
	sb.Where(sb.Equal("user_id", userID), sb.Equal("id", id))

	query, args := sb.Build()
	var record models.MaintenanceRecord
	err = r.DB().GetContext(ctx, &record, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "record %s does not exist", id)
	}
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"record_id": id,
		}).Error("failed to get record by ID")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get record by ID")
	}

	return &record, nil
}

// List retrieves records for the current user, newest service date first,
// optionally filtered by motorcycle or task.
func (r *RecordRepository) List(ctx context.Context, motorcycleID, taskID *uuid.UUID) ([]models.MaintenanceRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "RecordRepository.List")
	defer span.End()

	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	sb := recordStruct.SelectFrom(recordsTable)
	sb.Where(sb.Equal("user_id", userID))
	if motorcycleID != nil {
		sb.Where(sb.Equal("motorcycle_id", *motorcycleID))
	}
	if taskID != nil {
		sb.Where(sb.Equal("task_id", *taskID))
	}
	sb.OrderBy("service_date DESC", "created_at DESC")

	query, args := sb.Build()
	var records []models.MaintenanceRecord
	err = r.DB().SelectContext(ctx, &records, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list records")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list records")
	}

	return records, nil
}

// Update applies a correction edit to an existing record
func (r *RecordRepository) Update(ctx context.Context, record *models.MaintenanceRecord) error {
	ctx, span := tracing.StartSpan(ctx, "RecordRepository.Update")
	defer span.End()

	userID, err := GetUserID(ctx)
	if err != nil {
		return err
	}

	ub := database.NewUpdateBuilder()
	ub.Update(recordsTable).
		Set(
			ub.Assign("service_date", record.ServiceDate),
			ub.Assign("mileage", record.Mileage),
			ub.Assign("cost", record.Cost),
			ub.Assign("notes", record.Notes),
			ub.Assign("updated_at", sqlbuilder.Raw("NOW()")),
		).
		Where(ub.Equal("user_id", userID), ub.Equal("id", record.ID))
	ub.SQL("RETURNING updated_at")

	query, args := ub.Build()
	err = r.DB().QueryRowContext(ctx, query, args...).Scan(&record.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "record %s does not exist", record.ID)
	}
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"record_id": record.ID,
		}).Error("failed to update record")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update record")
	}

	return nil
}

// Delete removes a record
func (r *RecordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := tracing.StartSpan(ctx, "RecordRepository.Delete")
	defer span.End()

	userID, err := GetUserID(ctx)
	if err != nil {
		return err
	}

	db := database.NewDeleteBuilder()
	db.DeleteFrom(recordsTable)
	db.Where(db.Equal("user_id", userID), db.Equal("id", id))
	db.SQL("RETURNING id")

	query, args := db.Build()
	var deletedID uuid.UUID
	err = r.DB().QueryRowContext(ctx, query, args...).Scan(&deletedID)
	if errors.Is(err, sql.ErrNoRows) {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "record %s does not exist", id)
	}
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"record_id": id,
		}).Error("failed to delete record")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete record")
	}

	return nil
}
