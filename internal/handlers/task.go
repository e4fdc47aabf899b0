package handlers

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hawkinslabdev/rideway-sub002/pkg/maintenance"
	"github.com/hawkinslabdev/rideway-sub002/pkg/models"
	"github.com/hawkinslabdev/rideway-sub002/pkg/repositories"
)

// TaskHandler handles maintenance task API requests
type TaskHandler struct {
	repo        *repositories.TaskRepository
	motorcycles *repositories.MotorcycleRepository
	service     *maintenance.Service
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(repo *repositories.TaskRepository, motorcycles *repositories.MotorcycleRepository, service *maintenance.Service) *TaskHandler {
	return &TaskHandler{
		repo:        repo,
		motorcycles: motorcycles,
		service:     service,
	}
}

// CreateTaskRequest is the request body for creating a maintenance task
type CreateTaskRequest struct {
	MotorcycleID  uuid.UUID `json:"motorcycle_id" validate:"required"`
	Name          string    `json:"name" validate:"required"`
	Description   *string   `json:"description,omitempty"`
	IntervalMiles *int      `json:"interval_miles,omitempty" validate:"omitempty,gt=0"`
	IntervalDays  *int      `json:"interval_days,omitempty" validate:"omitempty,gt=0"`
	IntervalBase  string    `json:"interval_base,omitempty" validate:"omitempty,oneof=current zero"`
	Priority      string    `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	Recurring     *bool     `json:"recurring,omitempty"`
}

// UpdateTaskRequest is the request body for editing a task's settings
type UpdateTaskRequest struct {
	Name          *string `json:"name,omitempty"`
	Description   *string `json:"description,omitempty"`
	IntervalMiles *int    `json:"interval_miles,omitempty" validate:"omitempty,gt=0"`
	IntervalDays  *int    `json:"interval_days,omitempty" validate:"omitempty,gt=0"`
	IntervalBase  *string `json:"interval_base,omitempty" validate:"omitempty,oneof=current zero"`
	Priority      *string `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	Recurring     *bool   `json:"recurring,omitempty"`
}

// CompleteTaskRequest is the request body for completing a task
type CompleteTaskRequest struct {
	ServiceDate    time.Time `json:"service_date" validate:"required"`
	ServiceMileage *int      `json:"service_mileage,omitempty" validate:"omitempty,gte=0"`
	Cost           *float64  `json:"cost,omitempty" validate:"omitempty,gte=0"`
	Notes          *string   `json:"notes,omitempty"`
	ResetSchedule  bool      `json:"reset_schedule,omitempty"`
}

// RegisterRoutes registers the task routes
func (h *TaskHandler) RegisterRoutes(g *echo.Group) {
	tasks := g.Group("/tasks")
	tasks.POST("", h.Create)
	tasks.GET("", h.List)
	tasks.GET("/:id", h.Get)
	tasks.PUT("/:id", h.Update)
	tasks.DELETE("/:id", h.Archive)
	tasks.POST("/:id/complete", h.Complete)
}

// Create handles POST /tasks
func (h *TaskHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	req, err := BindRequest[CreateTaskRequest](c)
	if err != nil {
		return err
	}

	// The motorcycle must exist and belong to the user.
	motorcycle, err := h.motorcycles.GetByID(ctx, req.MotorcycleID)
	if err != nil {
		return err
	}

	intervalBase := models.IntervalBase(req.IntervalBase)
	if intervalBase == "" {
		intervalBase = models.IntervalBaseCurrent
	}
	priority := models.Priority(req.Priority)
	if priority == "" {
		priority = models.PriorityMedium
	}
	recurring := true
	if req.Recurring != nil {
		recurring = *req.Recurring
	}

	task := &models.MaintenanceTask{
		MotorcycleID: motorcycle.ID,
		Name:         req.Name,
		Description:  req.Description,
		IntervalMiles: req.IntervalMiles,
		IntervalDays:  req.IntervalDays,
		IntervalBase:  intervalBase,
		Priority:      priority,
		Recurring:     recurring,
	}

	// Seed the schedule from the current reading.
	now := time.Now().UTC()
	due := maintenance.ComputeNextDue(task, motorcycle.CurrentMileage, now, true)
	task.NextDueOdometer = due.Odometer
	task.NextDueDate = due.Date
	task.BaseOdometer = motorcycle.CurrentMileage
	task.BaseDate = &now

	if err := h.repo.Create(ctx, task); err != nil {
		return err
	}

	return CreatedResponse(c, task)
}

// List handles GET /tasks
func (h *TaskHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	var motorcycleID *uuid.UUID
	if idStr := c.QueryParam("motorcycle_id"); idStr != "" {
		id, err := uuid.Parse(idStr)
		if err != nil {
			return BadRequest("invalid motorcycle_id")
		}
		motorcycleID = &id
	}

	tasks, err := h.repo.List(ctx, motorcycleID)
	if err != nil {
		return err
	}

	if c.QueryParam("ranked") == "true" {
		motorcycles, err := h.motorcycles.List(ctx, false)
		if err != nil {
			return err
		}
		byID := make(map[uuid.UUID]*models.Motorcycle, len(motorcycles))
		for i := range motorcycles {
			byID[motorcycles[i].ID] = &motorcycles[i]
		}
		tasks = maintenance.RankTasks(tasks, byID, time.Now().UTC())
	}

	return SuccessResponse(c, tasks)
}

// Get handles GET /tasks/:id
func (h *TaskHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := ParseUUID(c, "id")
	if err != nil {
		return err
	}

	task, err := h.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	return SuccessResponse(c, task)
}

// Update handles PUT /tasks/:id
func (h *TaskHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := ParseUUID(c, "id")
	if err != nil {
		return err
	}

	req, err := BindRequest[UpdateTaskRequest](c)
	if err != nil {
		return err
	}

	task, err := h.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if req.Name != nil {
		task.Name = *req.Name
	}
	if req.Description != nil {
		task.Description = req.Description
	}
	if req.IntervalMiles != nil {
		task.IntervalMiles = req.IntervalMiles
	}
	if req.IntervalDays != nil {
		task.IntervalDays = req.IntervalDays
	}
	if req.IntervalBase != nil {
		task.IntervalBase = models.IntervalBase(*req.IntervalBase)
	}
	if req.Priority != nil {
		task.Priority = models.Priority(*req.Priority)
	}
	if req.Recurring != nil {
		task.Recurring = *req.Recurring
	}

	// Interval edits reseed the schedule from the stored base.
	if req.IntervalMiles != nil || req.IntervalDays != nil || req.IntervalBase != nil {
		baseDate := time.Now().UTC()
		if task.BaseDate != nil {
			baseDate = *task.BaseDate
		}
		due := maintenance.ComputeNextDue(task, task.BaseOdometer, baseDate, true)
		task.NextDueOdometer = due.Odometer
		task.NextDueDate = due.Date
	}

	if err := h.repo.Update(ctx, task); err != nil {
		return err
	}

	return SuccessResponse(c, task)
}

// Archive handles DELETE /tasks/:id
func (h *TaskHandler) Archive(c echo.Context) error {
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

// Complete handles POST /tasks/:id/complete
func (h *TaskHandler) Complete(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := ParseUUID(c, "id")
	if err != nil {
		return err
	}

	req, err := BindRequest[CompleteTaskRequest](c)
	if err != nil {
		return err
	}

	record, err := h.service.CompleteTask(ctx, maintenance.CompleteTaskInput{
		TaskID:         id,
		ServiceMileage: req.ServiceMileage,
		ServiceDate:    req.ServiceDate,
		Cost:           req.Cost,
		Notes:          req.Notes,
		ResetSchedule:  req.ResetSchedule,
	})
	if err != nil {
		return err
	}

	return CreatedResponse(c, record)
}
