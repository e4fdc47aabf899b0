package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/hawkinslabdev/rideway-sub002/pkg/maintenance"
	"github.com/hawkinslabdev/rideway-sub002/pkg/models"
	"github.com/hawkinslabdev/rideway-sub002/pkg/repositories"
)

// MotorcycleHandler handles motorcycle-related API requests
type MotorcycleHandler struct {
	repo    *repositories.MotorcycleRepository
	service *maintenance.Service
}

// NewMotorcycleHandler creates a new motorcycle handler
func NewMotorcycleHandler(repo *repositories.MotorcycleRepository, service *maintenance.Service) *MotorcycleHandler {
	return &MotorcycleHandler{
		repo:    repo,
		service: service,
	}
}

// CreateMotorcycleRequest is the request body for registering a motorcycle
type CreateMotorcycleRequest struct {
	Name           string `json:"name" validate:"required"`
	Make           string `json:"make" validate:"required"`
	Model          string `json:"model" validate:"required"`
	Year           int    `json:"year" validate:"required,gte=1900,lte=2100"`
	CurrentMileage *int   `json:"current_mileage,omitempty" validate:"omitempty,gte=0"`
	IsDefault      bool   `json:"is_default,omitempty"`
}

// UpdateMotorcycleRequest is the request body for updating a motorcycle
type UpdateMotorcycleRequest struct {
	Name      *string `json:"name,omitempty"`
	Make      *string `json:"make,omitempty"`
	Model     *string `json:"model,omitempty"`
	Year      *int    `json:"year,omitempty" validate:"omitempty,gte=1900,lte=2100"`
	IsDefault *bool   `json:"is_default,omitempty"`
}

// UpdateMileageRequest is the request body for recording a new odometer
// reading
type UpdateMileageRequest struct {
	Mileage int `json:"mileage" validate:"gte=0"`
}

// UpdateMileageResponse reports the outcome of a mileage update
type UpdateMileageResponse struct {
	Motorcycle *models.Motorcycle `json:"motorcycle"`
	NewlyDue   int                `json:"newly_due"`
}

// RegisterRoutes registers the motorcycle routes
func (h *MotorcycleHandler) RegisterRoutes(g *echo.Group) {
	motorcycles := g.Group("/motorcycles")
	motorcycles.POST("", h.Create)
	motorcycles.GET("", h.List)
	motorcycles.GET("/:id", h.Get)
	motorcycles.PUT("/:id", h.Update)
	motorcycles.DELETE("/:id", h.Archive)
	motorcycles.POST("/:id/mileage", h.UpdateMileage)
}

// Create handles POST /motorcycles
func (h *MotorcycleHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	req, err := BindRequest[CreateMotorcycleRequest](c)
	if err != nil {
		return err
	}

	motorcycle := &models.Motorcycle{
		Name:           req.Name,
		Make:           req.Make,
		Model:          req.Model,
		Year:           req.Year,
		CurrentMileage: req.CurrentMileage,
		IsDefault:      req.IsDefault,
	}

	if err := h.repo.Create(ctx, motorcycle); err != nil {
		return err
	}

	h.service.NotifyMotorcycleAdded(ctx, motorcycle)

	return CreatedResponse(c, motorcycle)
}

// List handles GET /motorcycles
func (h *MotorcycleHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	includeArchived := c.QueryParam("include_archived") == "true"

	motorcycles, err := h.repo.List(ctx, includeArchived)
	if err != nil {
		return err
	}

	return SuccessResponse(c, motorcycles)
}

// Get handles GET /motorcycles/:id
func (h *MotorcycleHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := ParseUUID(c, "id")
	if err != nil {
		return err
	}

	motorcycle, err := h.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	return SuccessResponse(c, motorcycle)
}

// Update handles PUT /motorcycles/:id
func (h *MotorcycleHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := ParseUUID(c, "id")
	if err != nil {
		return err
	}

	req, err := BindRequest[UpdateMotorcycleRequest](c)
	if err != nil {
		return err
	}

	motorcycle, err := h.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if req.Name != nil {
		motorcycle.Name = *req.Name
	}
	if req.Make != nil {
		motorcycle.Make = *req.Make
	}
	if req.Model != nil {
		motorcycle.Model = *req.Model
	}
	if req.Year != nil {
		motorcycle.Year = *req.Year
	}
	if req.IsDefault != nil {
		motorcycle.IsDefault = *req.IsDefault
	}

	if err := h.repo.Update(ctx, motorcycle); err != nil {
		return err
	}

	return SuccessResponse(c, motorcycle)
}

// Archive handles DELETE /motorcycles/:id. Motorcycles are archived, not
// hard-deleted, so service history is preserved.
func (h *MotorcycleHandler) Archive(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := ParseUUID(c, "id")
	if err != nil {
		return err
	}

	if err := h.repo.Archive(ctx, id); err != nil {
		return err
	}

	return NoContentResponse(c)
}

// UpdateMileage handles POST /motorcycles/:id/mileage
func (h *MotorcycleHandler) UpdateMileage(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := ParseUUID(c, "id")
	if err != nil {
		return err
	}

	req, err := BindRequest[UpdateMileageRequest](c)
	if err != nil {
		return err
	}

	newlyDue, err := h.service.UpdateMileage(ctx, id, req.Mileage)
	if err != nil {
		return err
	}

	motorcycle, err := h.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	return SuccessResponse(c, UpdateMileageResponse{
		Motorcycle: motorcycle,
		NewlyDue:   newlyDue,
	})
}
