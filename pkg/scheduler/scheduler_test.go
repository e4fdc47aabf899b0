package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hawkinslabdev/rideway-sub002/pkg/dispatch"
	"github.com/hawkinslabdev/rideway-sub002/pkg/events"
	"github.com/hawkinslabdev/rideway-sub002/pkg/maintenance"
	"github.com/hawkinslabdev/rideway-sub002/pkg/models"
)

func testLogger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

type fakeUserLister struct {
	userIDs []uuid.UUID
}

func (l *fakeUserLister) ListUsersWithDateDueTasks(ctx context.Context) ([]uuid.UUID, error) {
	return l.userIDs, nil
}

type fakeMotorcycles struct {
	motorcycles []models.Motorcycle
}

func (s *fakeMotorcycles) GetByID(ctx context.Context, id uuid.UUID) (*models.Motorcycle, error) {
	for i := range s.motorcycles {
		if s.motorcycles[i].ID == id {
			return &s.motorcycles[i], nil
		}
	}
	return nil, nil
}

func (s *fakeMotorcycles) List(ctx context.Context, includeArchived bool) ([]models.Motorcycle, error) {
	return s.motorcycles, nil
}

func (s *fakeMotorcycles) UpdateMileage(ctx context.Context, id uuid.UUID, newMileage int) (*int, error) {
	return nil, nil
}

type fakeTasks struct {
	tasks []*models.MaintenanceTask
}

func (s *fakeTasks) GetByID(ctx context.Context, id uuid.UUID) (*models.MaintenanceTask, error) {
	return nil, nil
}

func (s *fakeTasks) List(ctx context.Context, motorcycleID *uuid.UUID) ([]*models.MaintenanceTask, error) {
	return s.tasks, nil
}

func (s *fakeTasks) UpdateSchedule(ctx context.Context, task *models.MaintenanceTask) error {
	return nil
}

type fakeRecords struct{}

func (s *fakeRecords) Create(ctx context.Context, record *models.MaintenanceRecord) error {
	return nil
}

type countingDispatcher struct {
	mu    sync.Mutex
	count int
}

func (d *countingDispatcher) Dispatch(ctx context.Context, userID uuid.UUID, event events.EventType, data map[string]any) (*dispatch.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.count++
	return &dispatch.Result{Success: true}, nil
}

func (d *countingDispatcher) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.count
}

func timePtr(v time.Time) *time.Time {
	return &v
}

func TestSchedulerSweepsOnStart(t *testing.T) {
	logger := testLogger()
	userID := uuid.New()

	bike := models.Motorcycle{ID: uuid.New(), UserID: userID, Name: "Tenere"}
	dueTask := &models.MaintenanceTask{
		ID:           uuid.New(),
		UserID:       userID,
		MotorcycleID: bike.ID,
		Name:         "Inspection",
		NextDueDate:  timePtr(time.Now().Add(-time.Hour)),
	}

	dispatcher := &countingDispatcher{}
	service := maintenance.NewService(
		&fakeMotorcycles{motorcycles: []models.Motorcycle{bike}},
		&fakeTasks{tasks: []*models.MaintenanceTask{dueTask}},
		&fakeRecords{},
		dispatcher,
		maintenance.NewDebouncer(time.Minute, nil),
		logger,
		nil,
	)

	s := NewScheduler(&fakeUserLister{userIDs: []uuid.UUID{userID}}, service, nil, Config{
		PollInterval: time.Hour,
	}, logger)

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop(context.Background())

	assert.True(t, s.IsRunning())

	// The first sweep runs immediately on start.
	require.Eventually(t, func() bool {
		return dispatcher.Count() > 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSchedulerStartTwice(t *testing.T) {
	logger := testLogger()

	service := maintenance.NewService(&fakeMotorcycles{}, &fakeTasks{}, &fakeRecords{}, &countingDispatcher{}, maintenance.NewDebouncer(time.Minute, nil), logger, nil)
	s := NewScheduler(&fakeUserLister{}, service, nil, Config{PollInterval: time.Hour}, logger)

	require.NoError(t, s.Start(context.Background()))
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)

	require.NoError(t, s.Stop(context.Background()))
	assert.False(t, s.IsRunning())
}

func TestSchedulerStopWithoutStart(t *testing.T) {
	logger := testLogger()

	service := maintenance.NewService(&fakeMotorcycles{}, &fakeTasks{}, &fakeRecords{}, &countingDispatcher{}, maintenance.NewDebouncer(time.Minute, nil), logger, nil)
	s := NewScheduler(&fakeUserLister{}, service, nil, Config{PollInterval: time.Hour}, logger)

	assert.NoError(t, s.Stop(context.Background()))
}

func TestSchedulerDefaultPollInterval(t *testing.T) {
	logger := testLogger()

	service := maintenance.NewService(&fakeMotorcycles{}, &fakeTasks{}, &fakeRecords{}, &countingDispatcher{}, maintenance.NewDebouncer(time.Minute, nil), logger, nil)
	s := NewScheduler(&fakeUserLister{}, service, nil, Config{}, logger)

	assert.Equal(t, DefaultPollInterval, s.config.PollInterval)
}
