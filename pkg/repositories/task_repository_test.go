package repositories_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hawkinslabdev/rideway-sub002/pkg/models"
	"github.com/hawkinslabdev/rideway-sub002/pkg/repositories"
)

func createTestMotorcycle(t *testing.T, repo *repositories.MotorcycleRepository, ctx context.Context) *models.Motorcycle {
	t.Helper()
	motorcycle := &models.Motorcycle{
		Name:           "Test Bike",
		Make:           "Honda",
		Model:          "CB500X",
		Year:           2021,
		CurrentMileage: intPtr(4000),
	}
	require.NoError(t, repo.Create(ctx, motorcycle))
	return motorcycle
}

func TestTaskRepository_CRUD(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getTestDB(t)
	logger := getTestLogger()
	motorcycleRepo := repositories.NewMotorcycleRepository(db, logger)
	repo := repositories.NewTaskRepository(db, logger)

	userID := uuid.New()
	ctx := getTestContext(userID)

	motorcycle := createTestMotorcycle(t, motorcycleRepo, ctx)

	// Test Create
	task := &models.MaintenanceTask{
		MotorcycleID:    motorcycle.ID,
		Name:            "Oil Change",
		Description:     strPtr("Full synthetic"),
		IntervalMiles:   intPtr(3000),
		IntervalBase:    models.IntervalBaseCurrent,
		NextDueOdometer: intPtr(7000),
		Priority:        models.PriorityHigh,
		Recurring:       true,
	}

	err := repo.Create(ctx, task)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, task.ID)
	assert.Equal(t, userID, task.UserID)

	// Test GetByID
	fetched, err := repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Oil Change", fetched.Name)
	require.NotNil(t, fetched.NextDueOdometer)
	assert.Equal(t, 7000, *fetched.NextDueOdometer)
	assert.Equal(t, models.PriorityHigh, fetched.Priority)

	// Test List with motorcycle filter
	tasks, err := repo.List(ctx, &motorcycle.ID)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)

	otherID := uuid.New()
	tasks, err = repo.List(ctx, &otherID)
	require.NoError(t, err)
	assert.Empty(t, tasks)

	// Test UpdateSchedule only touches schedule fields
	task.Name = "Renamed Locally Only"
	task.NextDueOdometer = intPtr(10000)
	task.BaseOdometer = intPtr(7000)
	err = repo.UpdateSchedule(ctx, task)
	require.NoError(t, err)

	rescheduled, err := repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Oil Change", rescheduled.Name)
	require.NotNil(t, rescheduled.NextDueOdometer)
	assert.Equal(t, 10000, *rescheduled.NextDueOdometer)
	require.NotNil(t, rescheduled.BaseOdometer)
	assert.Equal(t, 7000, *rescheduled.BaseOdometer)

	// Test Update
	task.Name = "Oil & Filter Change"
	task.Priority = models.PriorityMedium
	err = repo.Update(ctx, task)
	require.NoError(t, err)

	updated, err := repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Oil & Filter Change", updated.Name)
	assert.Equal(t, models.PriorityMedium, updated.Priority)

	// Test user isolation
	otherUserCtx := getTestContext(uuid.New())
	_, err = repo.GetByID(otherUserCtx, task.ID)
	assertNotFound(t, err)

	// Test Archive hides the task from List
	err = repo.Archive(ctx, task.ID)
	require.NoError(t, err)

	tasks, err = repo.List(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestTaskRepository_ListUsersWithDateDueTasks(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getTestDB(t)
	logger := getTestLogger()
	motorcycleRepo := repositories.NewMotorcycleRepository(db, logger)
	repo := repositories.NewTaskRepository(db, logger)

	userID := uuid.New()
	ctx := getTestContext(userID)

	motorcycle := createTestMotorcycle(t, motorcycleRepo, ctx)

	dueDate := time.Now().Add(-time.Hour)
	task := &models.MaintenanceTask{
		MotorcycleID: motorcycle.ID,
		Name:         "Inspection",
		IntervalDays: intPtr(180),
		IntervalBase: models.IntervalBaseCurrent,
		NextDueDate:  &dueDate,
		Priority:     models.PriorityMedium,
	}
	require.NoError(t, repo.Create(ctx, task))

	userIDs, err := repo.ListUsersWithDateDueTasks(ctx)
	require.NoError(t, err)
	assert.Contains(t, userIDs, userID)
}
