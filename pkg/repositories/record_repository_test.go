package repositories_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hawkinslabdev/rideway-sub002/pkg/models"
	"github.com/hawkinslabdev/rideway-sub002/pkg/repositories"
)

func TestRecordRepository_CRUD(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getTestDB(t)
	logger := getTestLogger()
	motorcycleRepo := repositories.NewMotorcycleRepository(db, logger)
	repo := repositories.NewRecordRepository(db, logger)

	userID := uuid.New()
	ctx := getTestContext(userID)

	motorcycle := createTestMotorcycle(t, motorcycleRepo, ctx)

	cost := 89.50
	record := &models.MaintenanceRecord{
		MotorcycleID: motorcycle.ID,
		ServiceDate:  time.Now().Add(-24 * time.Hour),
		Mileage:      intPtr(3800),
		Cost:         &cost,
		Notes:        strPtr("Changed oil and filter"),
	}

	// Test Create
	err := repo.Create(ctx, record)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, record.ID)
	assert.Equal(t, userID, record.UserID)

	// Test GetByID
	fetched, err := repo.GetByID(ctx, record.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched.Mileage)
	assert.Equal(t, 3800, *fetched.Mileage)
	require.NotNil(t, fetched.Cost)
	assert.InDelta(t, 89.50, *fetched.Cost, 0.001)

	// Test List with motorcycle filter
	records, err := repo.List(ctx, &motorcycle.ID, nil)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	// Test Update (correction edit)
	record.Mileage = intPtr(3850)
	record.Notes = strPtr("Corrected mileage")
	err = repo.Update(ctx, record)
	require.NoError(t, err)

	updated, err := repo.GetByID(ctx, record.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.Mileage)
	assert.Equal(t, 3850, *updated.Mileage)

	// Test user isolation
	otherUserCtx := getTestContext(uuid.New())
	_, err = repo.GetByID(otherUserCtx, record.ID)
	assertNotFound(t, err)

	// Test Delete (hard delete)
	err = repo.Delete(ctx, record.ID)
	require.NoError(t, err)

	_, err = repo.GetByID(ctx, record.ID)
	assertNotFound(t, err)
}
