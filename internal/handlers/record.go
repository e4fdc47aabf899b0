package handlers

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hawkinslabdev/rideway-sub002/pkg/models"
	"github.com/hawkinslabdev/rideway-sub002/pkg/repositories"
)

// RecordHandler handles maintenance record API requests
type RecordHandler struct {
	repo        *repositories.RecordRepository
	motorcycles *repositories.MotorcycleRepository
}

// NewRecordHandler creates a new record handler
func NewRecordHandler(repo *repositories.RecordRepository, motorcycles *repositories.MotorcycleRepository) *RecordHandler {
	return &RecordHandler{
		repo:        repo,
		motorcycles: motorcycles,
	}
}

// CreateRecordRequest is the request body for a manual service-history entry
type CreateRecordRequest struct {
	MotorcycleID uuid.UUID  `json:"motorcycle_id" validate:"required"`
	TaskID       *uuid.UUID `json:"task_id,omitempty"`
	ServiceDate  time.Time  `json:"service_date" validate:"required"`
	Mileage      *int       `json:"mileage,omitempty" validate:"omitempty,gte=0"`
	Cost         *float64   `json:"cost,omitempty" validate:"omitempty,gte=0"`
	Notes        *string    `json:"notes,omitempty"`
}

// UpdateRecordRequest is the request body for a correction edit
type UpdateRecordRequest struct {
	ServiceDate *time.Time `json:"service_date,omitempty"`
	Mileage     *int       `json:"mileage,omitempty" validate:"omitempty,gte=0"`
	Cost        *float64   `json:"cost,omitempty" validate:"omitempty,gte=0"`
	Notes       *string    `json:"notes,omitempty"`
}

// RegisterRoutes registers the record routes
func (h *RecordHandler) RegisterRoutes(g *echo.Group) {
	records := g.Group("/records")
	records.POST("", h.Create)
	records.GET("", h.List)
	records.GET("/:id", h.Get)
	records.PUT("/:id", h.Update)
	records.DELETE("/:id", h.Delete)
}

// Create handles POST /records
func (h *RecordHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	req, err := BindRequest[CreateRecordRequest](c)
	if err != nil {
		return err
	}

	motorcycle, err := h.motorcycles.GetByID(ctx, req.MotorcycleID)
	if err != nil {
		return err
	}

	if req.Mileage != nil && motorcycle.CurrentMileage != nil && *req.Mileage > *motorcycle.CurrentMileage {
		return BadRequest("record mileage exceeds the motorcycle's current mileage")
	}

	record := &models.MaintenanceRecord{
		MotorcycleID: motorcycle.ID,
		TaskID:       req.TaskID,
		ServiceDate:  req.ServiceDate,
		Mileage:      req.Mileage,
		Cost:         req.Cost,
		Notes:        req.Notes,
	}

	if err := h.repo.Create(ctx, record); err != nil {
		return err
	}

	return CreatedResponse(c, record)
}

// List handles GET /records
func (h *RecordHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	var motorcycleID, taskID *uuid.UUID
	if idStr := c.QueryParam("motorcycle_id"); idStr != "" {
		id, err := uuid.Parse(idStr)
		if err != nil {
			return BadRequest("invalid motorcycle_id")
		}
		motorcycleID = &id
	}
	if idStr := c.QueryParam("task_id"); idStr != "" {
		id, err := uuid.Parse(idStr)
		if err != nil {
			return BadRequest("invalid task_id")
		}
		taskID = &id
	}

	records, err := h.repo.List(ctx, motorcycleID, taskID)
	if err != nil {
		return err
	}

	return SuccessResponse(c, records)
}

// Get handles GET /records/:id
func (h *RecordHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := ParseUUID(c, "id")
	if err != nil {
		return err
	}

	record, err := h.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	return SuccessResponse(c, record)
}

// Update handles PUT /records/:id
func (h *RecordHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := ParseUUID(c, "id")
	if err != nil {
		return err
	}

	req, err := BindRequest[UpdateRecordRequest](c)
	if err != nil {
		return err
	}

	record, err := h.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if req.ServiceDate != nil {
		record.ServiceDate = *req.ServiceDate
	}
	if req.Mileage != nil {
		record.Mileage = req.Mileage
	}
	if req.Cost != nil {
		record.Cost = req.Cost
	}
	if req.Notes != nil {
		record.Notes = req.Notes
	}

	if err := h.repo.Update(ctx, record); err != nil {
		return err
	}

	return SuccessResponse(c, record)
}

// Delete handles DELETE /records/:id
func (h *RecordHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := ParseUUID(c, "id")
	if err != nil {
		return err
	}

	if err := h.repo.Delete(ctx, id); err != nil {
		return err
	}

	return NoContentResponse(c)
}
