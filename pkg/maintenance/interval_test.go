package maintenance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hawkinslabdev/rideway-sub002/pkg/models"
)

func intPtr(v int) *int {
	return &v
}

func timePtr(v time.Time) *time.Time {
	return &v
}

func TestComputeNextDueResetMiles(t *testing.T) {
	task := &models.MaintenanceTask{
		IntervalMiles:   intPtr(3000),
		NextDueOdometer: intPtr(6000),
	}

	due := ComputeNextDue(task, intPtr(5200), time.Now(), true)

	require.NotNil(t, due.Odometer)
	assert.Equal(t, 8200, *due.Odometer)
	assert.Nil(t, due.Date)
}

func TestComputeNextDueMaintainEarlyServiceKeepsSchedule(t *testing.T) {
	task := &models.MaintenanceTask{
		IntervalMiles:   intPtr(3000),
		NextDueOdometer: intPtr(6000),
	}

	// Serviced at 5200, before the 6000 target: schedule stays put.
	due := ComputeNextDue(task, intPtr(5200), time.Now(), false)

	require.NotNil(t, due.Odometer)
	assert.Equal(t, 6000, *due.Odometer)
}

func TestComputeNextDueMaintainLateServiceAdvances(t *testing.T) {
	task := &models.MaintenanceTask{
		IntervalMiles:   intPtr(3000),
		NextDueOdometer: intPtr(6000),
	}

	due := ComputeNextDue(task, intPtr(6400), time.Now(), false)

	require.NotNil(t, due.Odometer)
	assert.Equal(t, 9400, *due.Odometer)
}

func TestComputeNextDueNoExistingScheduleSeedsFromService(t *testing.T) {
	task := &models.MaintenanceTask{
		IntervalMiles: intPtr(3000),
	}

	due := ComputeNextDue(task, intPtr(1000), time.Now(), false)

	require.NotNil(t, due.Odometer)
	assert.Equal(t, 4000, *due.Odometer)
}

func TestComputeNextDueNilMileageTreatedAsZero(t *testing.T) {
	task := &models.MaintenanceTask{
		IntervalMiles: intPtr(500),
	}

	due := ComputeNextDue(task, nil, time.Now(), true)

	require.NotNil(t, due.Odometer)
	assert.Equal(t, 500, *due.Odometer)
}

func TestComputeNextDueResetDate(t *testing.T) {
	serviceDate := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	task := &models.MaintenanceTask{
		IntervalDays: intPtr(90),
		NextDueDate:  timePtr(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)),
	}

	due := ComputeNextDue(task, nil, serviceDate, true)

	require.NotNil(t, due.Date)
	assert.Equal(t, serviceDate.AddDate(0, 0, 90), *due.Date)
}

func TestComputeNextDueMaintainEarlyDateKeepsSchedule(t *testing.T) {
	existing := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	task := &models.MaintenanceTask{
		IntervalDays: intPtr(90),
		NextDueDate:  timePtr(existing),
	}

	due := ComputeNextDue(task, nil, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), false)

	require.NotNil(t, due.Date)
	assert.Equal(t, existing, *due.Date)
}

func TestComputeNextDueMaintainLateDateAdvances(t *testing.T) {
	serviceDate := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	task := &models.MaintenanceTask{
		IntervalDays: intPtr(90),
		NextDueDate:  timePtr(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)),
	}

	due := ComputeNextDue(task, nil, serviceDate, false)

	require.NotNil(t, due.Date)
	assert.Equal(t, serviceDate.AddDate(0, 0, 90), *due.Date)
}

func TestComputeNextDueBothDimensions(t *testing.T) {
	serviceDate := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	task := &models.MaintenanceTask{
		IntervalMiles: intPtr(3000),
		IntervalDays:  intPtr(180),
	}

	due := ComputeNextDue(task, intPtr(12000), serviceDate, true)

	require.NotNil(t, due.Odometer)
	require.NotNil(t, due.Date)
	assert.Equal(t, 15000, *due.Odometer)
	assert.Equal(t, serviceDate.AddDate(0, 0, 180), *due.Date)
}

func TestComputeNextDueIgnoresZeroIntervals(t *testing.T) {
	task := &models.MaintenanceTask{
		IntervalMiles: intPtr(0),
		IntervalDays:  intPtr(0),
	}

	due := ComputeNextDue(task, intPtr(5000), time.Now(), true)

	assert.Nil(t, due.Odometer)
	assert.Nil(t, due.Date)
}

func TestRecomputeZeroBase(t *testing.T) {
	task := &models.MaintenanceTask{
		IntervalBase:  models.IntervalBaseZero,
		IntervalMiles: intPtr(3000),
	}

	// Mid-interval: next multiple above.
	next := RecomputeZeroBase(task, 7500)
	require.NotNil(t, next)
	assert.Equal(t, 9000, *next)

	// Exactly on a multiple: the following one.
	next = RecomputeZeroBase(task, 6000)
	require.NotNil(t, next)
	assert.Equal(t, 9000, *next)

	next = RecomputeZeroBase(task, 0)
	require.NotNil(t, next)
	assert.Equal(t, 3000, *next)
}

func TestRecomputeZeroBaseNotApplicable(t *testing.T) {
	assert.Nil(t, RecomputeZeroBase(&models.MaintenanceTask{
		IntervalBase:  models.IntervalBaseCurrent,
		IntervalMiles: intPtr(3000),
	}, 7500))

	assert.Nil(t, RecomputeZeroBase(&models.MaintenanceTask{
		IntervalBase: models.IntervalBaseZero,
	}, 7500))

	assert.Nil(t, RecomputeZeroBase(&models.MaintenanceTask{
		IntervalBase:  models.IntervalBaseZero,
		IntervalMiles: intPtr(0),
	}, 7500))
}
