package maintenance

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hawkinslabdev/rideway-sub002/pkg/dispatch"
	"github.com/hawkinslabdev/rideway-sub002/pkg/events"
	"github.com/hawkinslabdev/rideway-sub002/pkg/models"
)

type fakeMotorcycleStore struct {
	motorcycles map[uuid.UUID]*models.Motorcycle
}

func (s *fakeMotorcycleStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Motorcycle, error) {
	if m, ok := s.motorcycles[id]; ok {
		copied := *m
		return &copied, nil
	}
	return nil, httperror.NewHTTPError(http.StatusNotFound, "motorcycle not found")
}

func (s *fakeMotorcycleStore) List(ctx context.Context, includeArchived bool) ([]models.Motorcycle, error) {
	var out []models.Motorcycle
	for _, m := range s.motorcycles {
		if m.Archived && !includeArchived {
			continue
		}
		out = append(out, *m)
	}
	return out, nil
}

func (s *fakeMotorcycleStore) UpdateMileage(ctx context.Context, id uuid.UUID, newMileage int) (*int, error) {
	m, ok := s.motorcycles[id]
	if !ok {
		return nil, httperror.NewHTTPError(http.StatusNotFound, "motorcycle not found")
	}
	old := m.CurrentMileage
	mileage := newMileage
	m.CurrentMileage = &mileage
	return old, nil
}

type fakeTaskStore struct {
	tasks           map[uuid.UUID]*models.MaintenanceTask
	scheduleUpdates int
}

func (s *fakeTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*models.MaintenanceTask, error) {
	if task, ok := s.tasks[id]; ok {
		return task, nil
	}
	return nil, httperror.NewHTTPError(http.StatusNotFound, "task not found")
}

func (s *fakeTaskStore) List(ctx context.Context, motorcycleID *uuid.UUID) ([]*models.MaintenanceTask, error) {
	var out []*models.MaintenanceTask
	for _, task := range s.tasks {
		if task.Archived {
			continue
		}
		if motorcycleID != nil && task.MotorcycleID != *motorcycleID {
			continue
		}
		out = append(out, task)
	}
	return out, nil
}

func (s *fakeTaskStore) UpdateSchedule(ctx context.Context, task *models.MaintenanceTask) error {
	s.scheduleUpdates++
	s.tasks[task.ID] = task
	return nil
}

type fakeRecordStore struct {
	records []*models.MaintenanceRecord
}

func (s *fakeRecordStore) Create(ctx context.Context, record *models.MaintenanceRecord) error {
	record.ID = uuid.New()
	s.records = append(s.records, record)
	return nil
}

type dispatchedEvent struct {
	userID uuid.UUID
	event  events.EventType
	data   map[string]any
}

type fakeDispatcher struct {
	dispatched []dispatchedEvent
}

func (d *fakeDispatcher) Dispatch(ctx context.Context, userID uuid.UUID, event events.EventType, data map[string]any) (*dispatch.Result, error) {
	d.dispatched = append(d.dispatched, dispatchedEvent{userID: userID, event: event, data: data})
	return &dispatch.Result{Success: true}, nil
}

func (d *fakeDispatcher) eventsOfType(event events.EventType) []dispatchedEvent {
	var out []dispatchedEvent
	for _, e := range d.dispatched {
		if e.event == event {
			out = append(out, e)
		}
	}
	return out
}

func newTestService(t *testing.T) (*Service, *fakeMotorcycleStore, *fakeTaskStore, *fakeRecordStore, *fakeDispatcher, *fakeClock) {
	t.Helper()

	zapLogger, _ := zap.NewDevelopment()
	logger := zapadapter.NewZapEctoLogger(zapLogger, nil)

	motorcycles := &fakeMotorcycleStore{motorcycles: map[uuid.UUID]*models.Motorcycle{}}
	tasks := &fakeTaskStore{tasks: map[uuid.UUID]*models.MaintenanceTask{}}
	records := &fakeRecordStore{}
	dispatcher := &fakeDispatcher{}
	clock := &fakeClock{current: time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)}

	service := NewService(motorcycles, tasks, records, dispatcher, NewDebouncer(5*time.Minute, clock.Now), logger, clock.Now)
	return service, motorcycles, tasks, records, dispatcher, clock
}

func TestServiceCompleteTask(t *testing.T) {
	service, motorcycles, tasks, records, dispatcher, clock := newTestService(t)

	userID := uuid.New()
	bike := &models.Motorcycle{ID: uuid.New(), UserID: userID, Name: "SV650", CurrentMileage: intPtr(6400)}
	motorcycles.motorcycles[bike.ID] = bike

	task := &models.MaintenanceTask{
		ID:              uuid.New(),
		UserID:          userID,
		MotorcycleID:    bike.ID,
		Name:            "Oil change",
		IntervalMiles:   intPtr(3000),
		NextDueOdometer: intPtr(6000),
	}
	tasks.tasks[task.ID] = task

	record, err := service.CompleteTask(context.Background(), CompleteTaskInput{
		TaskID:         task.ID,
		ServiceMileage: intPtr(6400),
		ServiceDate:    clock.Now(),
		ResetSchedule:  true,
	})
	require.NoError(t, err)

	require.NotNil(t, record.NextDueOdometer)
	assert.Equal(t, 9400, *record.NextDueOdometer)
	assert.True(t, record.Scheduled)
	assert.Len(t, records.records, 1)

	// Task schedule advanced and rebased at the service point.
	require.NotNil(t, task.NextDueOdometer)
	assert.Equal(t, 9400, *task.NextDueOdometer)
	require.NotNil(t, task.BaseOdometer)
	assert.Equal(t, 6400, *task.BaseOdometer)

	completed := dispatcher.eventsOfType(events.EventTypeMaintenanceCompleted)
	require.Len(t, completed, 1)
	assert.Equal(t, userID, completed[0].userID)
}

func TestServiceCompleteTaskRejectsFutureMileage(t *testing.T) {
	service, motorcycles, tasks, _, _, clock := newTestService(t)

	bike := &models.Motorcycle{ID: uuid.New(), CurrentMileage: intPtr(5000)}
	motorcycles.motorcycles[bike.ID] = bike

	task := &models.MaintenanceTask{ID: uuid.New(), MotorcycleID: bike.ID, IntervalMiles: intPtr(3000)}
	tasks.tasks[task.ID] = task

	_, err := service.CompleteTask(context.Background(), CompleteTaskInput{
		TaskID:         task.ID,
		ServiceMileage: intPtr(6000),
		ServiceDate:    clock.Now(),
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
}

func TestServiceUpdateMileageRejectsLowerReading(t *testing.T) {
	service, motorcycles, tasks, _, dispatcher, _ := newTestService(t)

	bike := &models.Motorcycle{ID: uuid.New(), CurrentMileage: intPtr(6000)}
	motorcycles.motorcycles[bike.ID] = bike

	task := &models.MaintenanceTask{ID: uuid.New(), MotorcycleID: bike.ID, IntervalMiles: intPtr(3000), IntervalBase: models.IntervalBaseZero, NextDueOdometer: intPtr(6000)}
	tasks.tasks[task.ID] = task

	_, err := service.UpdateMileage(context.Background(), bike.ID, 100)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))

	// The reading is rejected before anything mutates.
	require.NotNil(t, bike.CurrentMileage)
	assert.Equal(t, 6000, *bike.CurrentMileage)
	require.NotNil(t, task.NextDueOdometer)
	assert.Equal(t, 6000, *task.NextDueOdometer)
	assert.Empty(t, dispatcher.dispatched)
}

func TestServiceUpdateMileageDetectsCrossing(t *testing.T) {
	service, motorcycles, tasks, _, dispatcher, _ := newTestService(t)

	userID := uuid.New()
	bike := &models.Motorcycle{ID: uuid.New(), UserID: userID, Name: "SV650", CurrentMileage: intPtr(5900)}
	motorcycles.motorcycles[bike.ID] = bike

	task := &models.MaintenanceTask{
		ID:              uuid.New(),
		UserID:          userID,
		MotorcycleID:    bike.ID,
		Name:            "Chain lube",
		NextDueOdometer: intPtr(6000),
	}
	tasks.tasks[task.ID] = task

	count, err := service.UpdateMileage(context.Background(), bike.ID, 6100)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	assert.Len(t, dispatcher.eventsOfType(events.EventTypeMileageUpdated), 1)
	due := dispatcher.eventsOfType(events.EventTypeMaintenanceDue)
	require.Len(t, due, 1)

	mileage := dispatcher.eventsOfType(events.EventTypeMileageUpdated)[0].data
	assert.Equal(t, 5900, mileage["previousMileage"])
	assert.Equal(t, 6100, mileage["newMileage"])
}

func TestServiceUpdateMileageNoRepeatNotification(t *testing.T) {
	service, motorcycles, tasks, _, dispatcher, _ := newTestService(t)

	bike := &models.Motorcycle{ID: uuid.New(), CurrentMileage: intPtr(6100)}
	motorcycles.motorcycles[bike.ID] = bike

	task := &models.MaintenanceTask{ID: uuid.New(), MotorcycleID: bike.ID, NextDueOdometer: intPtr(6000)}
	tasks.tasks[task.ID] = task

	// Threshold was already behind the previous reading.
	count, err := service.UpdateMileage(context.Background(), bike.ID, 6200)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, dispatcher.eventsOfType(events.EventTypeMaintenanceDue))
}

func TestServiceUpdateMileageRollsZeroBaseSchedule(t *testing.T) {
	service, motorcycles, tasks, _, dispatcher, _ := newTestService(t)

	bike := &models.Motorcycle{ID: uuid.New(), CurrentMileage: intPtr(5900)}
	motorcycles.motorcycles[bike.ID] = bike

	task := &models.MaintenanceTask{
		ID:              uuid.New(),
		MotorcycleID:    bike.ID,
		IntervalBase:    models.IntervalBaseZero,
		IntervalMiles:   intPtr(3000),
		NextDueOdometer: intPtr(6000),
	}
	tasks.tasks[task.ID] = task

	// Crossing 6000 both notifies and rolls the pinned schedule to 9000.
	count, err := service.UpdateMileage(context.Background(), bike.ID, 6100)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NotNil(t, task.NextDueOdometer)
	assert.Equal(t, 9000, *task.NextDueOdometer)
	require.Len(t, dispatcher.eventsOfType(events.EventTypeMaintenanceDue), 1)
}

func TestServiceUpdateMileageDebouncesRepeatCrossings(t *testing.T) {
	service, motorcycles, tasks, _, dispatcher, clock := newTestService(t)

	bike := &models.Motorcycle{ID: uuid.New(), CurrentMileage: intPtr(2900)}
	motorcycles.motorcycles[bike.ID] = bike

	task := &models.MaintenanceTask{
		ID:              uuid.New(),
		MotorcycleID:    bike.ID,
		IntervalBase:    models.IntervalBaseZero,
		IntervalMiles:   intPtr(100),
		NextDueOdometer: intPtr(3000),
	}
	tasks.tasks[task.ID] = task

	// Two crossings in quick succession: the second is within the cooldown.
	_, err := service.UpdateMileage(context.Background(), bike.ID, 3000)
	require.NoError(t, err)

	clock.Advance(time.Minute)
	count, err := service.UpdateMileage(context.Background(), bike.ID, 3100)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Detected twice, dispatched once.
	assert.Len(t, dispatcher.eventsOfType(events.EventTypeMaintenanceDue), 1)
}

func TestServiceRunDueCheck(t *testing.T) {
	service, motorcycles, tasks, _, dispatcher, clock := newTestService(t)

	userID := uuid.New()
	bike := &models.Motorcycle{ID: uuid.New(), UserID: userID, Name: "Tenere", CurrentMileage: intPtr(12000)}
	motorcycles.motorcycles[bike.ID] = bike

	dueToday := &models.MaintenanceTask{
		ID:           uuid.New(),
		UserID:       userID,
		MotorcycleID: bike.ID,
		Name:         "Inspection",
		NextDueDate:  timePtr(clock.Now().Add(-2 * time.Hour)),
	}
	dueLastWeek := &models.MaintenanceTask{
		ID:           uuid.New(),
		UserID:       userID,
		MotorcycleID: bike.ID,
		Name:         "Stale",
		NextDueDate:  timePtr(clock.Now().AddDate(0, 0, -7)),
	}
	tasks.tasks[dueToday.ID] = dueToday
	tasks.tasks[dueLastWeek.ID] = dueLastWeek

	count, err := service.RunDueCheck(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	due := dispatcher.eventsOfType(events.EventTypeMaintenanceDue)
	require.Len(t, due, 1)
	assert.Equal(t, userID, due[0].userID)

	// Immediate re-run is fully debounced.
	count, err = service.RunDueCheck(context.Background(), userID)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Len(t, dispatcher.eventsOfType(events.EventTypeMaintenanceDue), 1)
}

func TestServiceNotifyMotorcycleAdded(t *testing.T) {
	service, _, _, _, dispatcher, _ := newTestService(t)

	userID := uuid.New()
	service.NotifyMotorcycleAdded(context.Background(), &models.Motorcycle{
		ID:     uuid.New(),
		UserID: userID,
		Name:   "SV650",
		Make:   "Suzuki",
		Model:  "SV650",
		Year:   2018,
	})

	added := dispatcher.eventsOfType(events.EventTypeMotorcycleAdded)
	require.Len(t, added, 1)

	motorcycle, ok := added[0].data["motorcycle"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "SV650", motorcycle["name"])
}
