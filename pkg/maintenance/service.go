package maintenance

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/hawkinslabdev/rideway-sub002/pkg/dispatch"
	"github.com/hawkinslabdev/rideway-sub002/pkg/events"
	"github.com/hawkinslabdev/rideway-sub002/pkg/metrics"
	"github.com/hawkinslabdev/rideway-sub002/pkg/models"
	"github.com/hawkinslabdev/rideway-sub002/pkg/repositories"
	"github.com/hawkinslabdev/rideway-sub002/pkg/tracing"
)

// MotorcycleStore is the motorcycle persistence the service needs.
type MotorcycleStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Motorcycle, error)
	List(ctx context.Context, includeArchived bool) ([]models.Motorcycle, error)
	UpdateMileage(ctx context.Context, id uuid.UUID, newMileage int) (*int, error)
}

// TaskStore is the task persistence the service needs.
type TaskStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.MaintenanceTask, error)
	List(ctx context.Context, motorcycleID *uuid.UUID) ([]*models.MaintenanceTask, error)
	UpdateSchedule(ctx context.Context, task *models.MaintenanceTask) error
}

// RecordStore is the record persistence the service needs.
type RecordStore interface {
	Create(ctx context.Context, record *models.MaintenanceRecord) error
}

// EventDispatcher fans an event out to the user's integrations.
type EventDispatcher interface {
	Dispatch(ctx context.Context, userID uuid.UUID, event events.EventType, eventData map[string]any) (*dispatch.Result, error)
}

// Service orchestrates the scheduling pipeline: interval computation, due
// detection, debouncing and event dispatch. Dispatch failures are logged and
// never fail the triggering mutation.
type Service struct {
	motorcycles MotorcycleStore
	tasks       TaskStore
	records     RecordStore
	dispatcher  EventDispatcher
	debouncer   *Debouncer
	logger      ectologger.Logger
	now         func() time.Time
}

// NewService creates a maintenance service. now is the clock source; pass
// nil for time.Now.
func NewService(
	motorcycles MotorcycleStore,
	tasks TaskStore,
	records RecordStore,
	dispatcher EventDispatcher,
	debouncer *Debouncer,
	logger ectologger.Logger,
	now func() time.Time,
) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		motorcycles: motorcycles,
		tasks:       tasks,
		records:     records,
		dispatcher:  dispatcher,
		debouncer:   debouncer,
		logger:      logger,
		now:         now,
	}
}

// CompleteTaskInput is the completion trigger for one task.
type CompleteTaskInput struct {
	TaskID         uuid.UUID
	ServiceMileage *int
	ServiceDate    time.Time
	Cost           *float64
	Notes          *string
	ResetSchedule  bool
}

// CompleteTask records a completed maintenance task: computes the next due
// values, persists the updated schedule, writes the history record, and
// dispatches a maintenance_completed event.
func (s *Service) CompleteTask(ctx context.Context, input CompleteTaskInput) (*models.MaintenanceRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "MaintenanceService.CompleteTask")
	defer span.End()

	task, err := s.tasks.GetByID(ctx, input.TaskID)
	if err != nil {
		return nil, err
	}

	motorcycle, err := s.motorcycles.GetByID(ctx, task.MotorcycleID)
	if err != nil {
		return nil, err
	}

	if input.ServiceMileage != nil && motorcycle.CurrentMileage != nil && *input.ServiceMileage > *motorcycle.CurrentMileage {
		return nil, repositories.BadRequest("service mileage exceeds the motorcycle's current mileage")
	}

	due := ComputeNextDue(task, input.ServiceMileage, input.ServiceDate, input.ResetSchedule)

	task.NextDueOdometer = due.Odometer
	task.NextDueDate = due.Date
	task.BaseOdometer = input.ServiceMileage
	baseDate := input.ServiceDate
	task.BaseDate = &baseDate
	if err := s.tasks.UpdateSchedule(ctx, task); err != nil {
		return nil, err
	}

	record := &models.MaintenanceRecord{
		MotorcycleID:    task.MotorcycleID,
		TaskID:          &task.ID,
		ServiceDate:     input.ServiceDate,
		Mileage:         input.ServiceMileage,
		Cost:            input.Cost,
		Notes:           input.Notes,
		Scheduled:       true,
		ResetsInterval:  input.ResetSchedule,
		NextDueOdometer: due.Odometer,
		NextDueDate:     due.Date,
	}
	if err := s.records.Create(ctx, record); err != nil {
		return nil, err
	}

	s.dispatchEvent(ctx, task.UserID, events.EventTypeMaintenanceCompleted, completedPayload(motorcycle, task, record))

	return record, nil
}

// UpdateMileage applies a new odometer reading: detects threshold crossings
// against the previous reading, rolls zero-base schedules forward, and
// dispatches mileage_updated plus a debounced maintenance_due per
// newly-due task. Returns the number of newly-due tasks.
func (s *Service) UpdateMileage(ctx context.Context, motorcycleID uuid.UUID, newMileage int) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "MaintenanceService.UpdateMileage")
	defer span.End()

	motorcycle, err := s.motorcycles.GetByID(ctx, motorcycleID)
	if err != nil {
		return 0, err
	}

	if motorcycle.CurrentMileage != nil && newMileage < *motorcycle.CurrentMileage {
		return 0, repositories.BadRequest("mileage is lower than the motorcycle's current reading")
	}

	oldMileage, err := s.motorcycles.UpdateMileage(ctx, motorcycleID, newMileage)
	if err != nil {
		return 0, err
	}
	motorcycle.CurrentMileage = &newMileage

	tasks, err := s.tasks.List(ctx, &motorcycleID)
	if err != nil {
		return 0, err
	}

	// Detect crossings against the schedules as they were before this
	// reading, then roll zero-base schedules to the next multiple.
	newlyDue := FindNewlyDueByMileage(tasks, oldMileage, newMileage)

	for _, task := range tasks {
		next := RecomputeZeroBase(task, newMileage)
		if next == nil {
			continue
		}
		task.NextDueOdometer = next
		task.BaseOdometer = &newMileage
		if err := s.tasks.UpdateSchedule(ctx, task); err != nil {
			s.logger.WithContext(ctx).WithError(err).WithFields(map[string]interface{}{
				"task_id": task.ID.String(),
			}).Warnf("failed to roll zero-base schedule")
		}
	}

	s.dispatchEvent(ctx, motorcycle.UserID, events.EventTypeMileageUpdated, mileagePayload(motorcycle, oldMileage, newMileage))

	for _, task := range newlyDue {
		metrics.DueTasksDetected.WithLabelValues("mileage").Inc()
		if !s.debouncer.CanNotify(task.ID) {
			metrics.NotificationsDebounced.Inc()
			continue
		}
		s.dispatchEvent(ctx, task.UserID, events.EventTypeMaintenanceDue, duePayload(motorcycle, task))
	}

	return len(newlyDue), nil
}

// RunDueCheck performs the periodic date-based due sweep for one user and
// returns the number of tasks that were dispatched.
func (s *Service) RunDueCheck(ctx context.Context, userID uuid.UUID) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "MaintenanceService.RunDueCheck")
	defer span.End()

	motorcycles, err := s.motorcycles.List(ctx, false)
	if err != nil {
		return 0, err
	}
	byID := make(map[uuid.UUID]*models.Motorcycle, len(motorcycles))
	for i := range motorcycles {
		byID[motorcycles[i].ID] = &motorcycles[i]
	}

	tasks, err := s.tasks.List(ctx, nil)
	if err != nil {
		return 0, err
	}

	dispatched := 0
	for _, task := range FindNewlyDueByDate(tasks, s.now()) {
		motorcycle, ok := byID[task.MotorcycleID]
		if !ok {
			continue
		}

		metrics.DueTasksDetected.WithLabelValues("schedule").Inc()
		if !s.debouncer.CanNotify(task.ID) {
			metrics.NotificationsDebounced.Inc()
			continue
		}

		s.dispatchEvent(ctx, userID, events.EventTypeMaintenanceDue, duePayload(motorcycle, task))
		dispatched++
	}

	return dispatched, nil
}

// NotifyMotorcycleAdded dispatches a motorcycle_added event.
func (s *Service) NotifyMotorcycleAdded(ctx context.Context, motorcycle *models.Motorcycle) {
	s.dispatchEvent(ctx, motorcycle.UserID, events.EventTypeMotorcycleAdded, map[string]any{
		"motorcycle": motorcyclePayload(motorcycle),
	})
}

func (s *Service) dispatchEvent(ctx context.Context, userID uuid.UUID, event events.EventType, data map[string]any) {
	if _, err := s.dispatcher.Dispatch(ctx, userID, event, data); err != nil {
		s.logger.WithContext(ctx).WithError(err).WithFields(map[string]interface{}{
			"event": string(event),
		}).Warnf("event dispatch failed")
	}
}

func motorcyclePayload(m *models.Motorcycle) map[string]any {
	payload := map[string]any{
		"id":    m.ID.String(),
		"name":  m.Name,
		"make":  m.Make,
		"model": m.Model,
		"year":  m.Year,
	}
	if m.CurrentMileage != nil {
		payload["currentMileage"] = *m.CurrentMileage
	}
	return payload
}

func taskPayload(t *models.MaintenanceTask) map[string]any {
	payload := map[string]any{
		"id":   t.ID.String(),
		"name": t.Name,
	}
	if t.NextDueOdometer != nil {
		payload["nextDueOdometer"] = *t.NextDueOdometer
	}
	if t.NextDueDate != nil {
		payload["nextDueDate"] = t.NextDueDate.UTC().Format(time.RFC3339)
	}
	return payload
}

func duePayload(m *models.Motorcycle, t *models.MaintenanceTask) map[string]any {
	return map[string]any{
		"motorcycle": motorcyclePayload(m),
		"task":       taskPayload(t),
	}
}

func completedPayload(m *models.Motorcycle, t *models.MaintenanceTask, r *models.MaintenanceRecord) map[string]any {
	record := map[string]any{
		"id":   r.ID.String(),
		"date": r.ServiceDate.UTC().Format(time.RFC3339),
	}
	if r.Mileage != nil {
		record["mileage"] = *r.Mileage
	}
	if r.Cost != nil {
		record["cost"] = *r.Cost
	}

	return map[string]any{
		"motorcycle": motorcyclePayload(m),
		"task":       taskPayload(t),
		"record":     record,
	}
}

func mileagePayload(m *models.Motorcycle, oldMileage *int, newMileage int) map[string]any {
	payload := map[string]any{
		"motorcycle": motorcyclePayload(m),
		"newMileage": newMileage,
	}
	if oldMileage != nil {
		payload["previousMileage"] = *oldMileage
	}
	return payload
}
