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

const motorcyclesTable = "motorcycles"

var motorcycleStruct = database.NewStruct(new(models.Motorcycle))

// MotorcycleRepository handles database operations for motorcycles
type MotorcycleRepository struct {
	*Repository
}

// NewMotorcycleRepository creates a new motorcycle repository
func NewMotorcycleRepository(db database.DB, logger ectologger.Logger) *MotorcycleRepository {
	return &MotorcycleRepository{
		Repository: NewRepository(db, logger),
	}
}

// Create creates a new motorcycle
func (r *MotorcycleRepository) Create(ctx context.Context, motorcycle *models.Motorcycle) error {
	ctx, span := tracing.StartSpan(ctx, "MotorcycleRepository.Create")
	defer span.End()

	userID, err := GetUserID(ctx)
	if err != nil {
		return err
	}
	motorcycle.UserID = userID

	if motorcycle.ID == uuid.Nil {
		motorcycle.ID = uuid.New()
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto(motorcyclesTable).
		Cols("id", "user_id", "name", "make", "model", "year", "current_mileage", "is_default", "archived", "created_at", "updated_at").
		Values(motorcycle.ID, motorcycle.UserID, motorcycle.Name, motorcycle.Make, motorcycle.Model, motorcycle.Year,
			motorcycle.CurrentMileage, motorcycle.IsDefault, motorcycle.Archived,
			sqlbuilder.Raw("NOW()"), sqlbuilder.Raw("NOW()")).
		Returning("created_at", "updated_at")

	query, args := ib.Build()
	err = r.DB().QueryRowContext(ctx, query, args...).Scan(&motorcycle.CreatedAt, &motorcycle.UpdatedAt)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"motorcycle_id": motorcycle.ID,
		}).Error("failed to create motorcycle")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create motorcycle")
	}

	return nil
}

// GetByID retrieves a motorcycle by ID (user-scoped)
func (r *MotorcycleRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Motorcycle, error) {
	ctx, span := tracing.StartSpan(ctx, "MotorcycleRepository.GetByID")
	defer span.End()

	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	sb := motorcycleStruct.SelectFrom(motorcyclesTable)
	sb.Where(sb.Equal("user_id", userID), sb.Equal("id", id))

	query, args := sb.Build()
	var motorcycle models.Motorcycle
	err = r.DB().GetContext(ctx, &motorcycle, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "motorcycle %s does not exist", id)
	}
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"motorcycle_id": id,
		}).Error("failed to get motorcycle by ID")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get motorcycle by ID")
	}

	return &motorcycle, nil
}

// List retrieves all motorcycles for the current user. Archived motorcycles
// are included only when includeArchived is set.
func (r *MotorcycleRepository) List(ctx context.Context, includeArchived bool) ([]models.Motorcycle, error) {
	ctx, span := tracing.StartSpan(ctx, "MotorcycleRepository.List")
	defer span.End()

	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	sb := motorcycleStruct.SelectFrom(motorcyclesTable)
	sb.Where(sb.Equal("user_id", userID))
	if !includeArchived {
		sb.Where(sb.Equal("archived", false))
	}
	sb.OrderBy("is_default DESC", "name")

	query, args := sb.Build()
	var motorcycles []models.Motorcycle
	err = r.DB().SelectContext(ctx, &motorcycles, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list motorcycles")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list motorcycles")
	}

	return motorcycles, nil
}

// Update updates an existing motorcycle
func (r *MotorcycleRepository) Update(ctx context.Context, motorcycle *models.Motorcycle) error {
	ctx, span := tracing.StartSpan(ctx, "MotorcycleRepository.Update")
	defer span.End()

	userID, err := GetUserID(ctx)
	if err != nil {
		return err
	}

	ub := database.NewUpdateBuilder()
	ub.Update(motorcyclesTable).
		Set(
			ub.Assign("name", motorcycle.Name),
			ub.Assign("make", motorcycle.Make),
			ub.Assign("model", motorcycle.Model),
			ub.Assign("year", motorcycle.Year),
			ub.Assign("current_mileage", motorcycle.CurrentMileage),
			ub.Assign("is_default", motorcycle.IsDefault),
			ub.Assign("archived", motorcycle.Archived),
			ub.Assign("updated_at", sqlbuilder.Raw("NOW()")),
		).
		Where(ub.Equal("user_id", userID), ub.Equal("id", motorcycle.ID))
	ub.SQL("RETURNING updated_at")

	query, args := ub.Build()
	err = r.DB().QueryRowContext(ctx, query, args...).Scan(&motorcycle.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "motorcycle %s does not exist", motorcycle.ID)
	}
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"motorcycle_id": motorcycle.ID,
		}).Error("failed to update motorcycle")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update motorcycle")
	}

	return nil
}

// UpdateMileage sets the motorcycle's current mileage and returns the
// previous value.
func (r *MotorcycleRepository) UpdateMileage(ctx context.Context, id uuid.UUID, newMileage int) (*int, error) {
	ctx, span := tracing.StartSpan(ctx, "MotorcycleRepository.UpdateMileage")
	defer span.End()

	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	query := `UPDATE motorcycles AS m
		SET current_mileage = $1, updated_at = NOW()
		FROM (SELECT id, current_mileage FROM motorcycles WHERE user_id = $2 AND id = $3 FOR UPDATE) AS prev
		WHERE m.id = prev.id
		RETURNING prev.current_mileage`

	var previous *int
	err = r.DB().QueryRowContext(ctx, query, newMileage, userID, id).Scan(&previous)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "motorcycle %s does not exist", id)
	}
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"motorcycle_id": id,
		}).Error("failed to update mileage")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update mileage")
	}

	return previous, nil
}

// Archive soft-deletes a motorcycle
func (r *MotorcycleRepository) Archive(ctx context.Context, id uuid.UUID) error {
	ctx, span := tracing.StartSpan(ctx, "MotorcycleRepository.Archive")
	defer span.End()

	userID, err := GetUserID(ctx)
	if err != nil {
		return err
	}

	ub := database.NewUpdateBuilder()
	ub.Update(motorcyclesTable).
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
		return httperror.NewHTTPErrorf(http.StatusNotFound, "motorcycle %s does not exist", id)
	}
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"motorcycle_id": id,
		}).Error("failed to archive motorcycle")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to archive motorcycle")
	}

	return nil
}
