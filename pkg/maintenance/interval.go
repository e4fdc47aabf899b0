// Package maintenance implements the due-date and due-mileage scheduling
// model for recurring maintenance tasks.
package maintenance

import (
	"time"

	"github.com/hawkinslabdev/rideway-sub002/pkg/models"
)

// NextDue is the computed next-due pair for a task. Nil fields mean the
// corresponding interval dimension is not tracked.
type NextDue struct {
	Odometer *int
	Date     *time.Time
}

// ComputeNextDue computes a task's next due odometer/date after a completion
// at serviceMileage/serviceDate. resetSchedule selects the reset strategy:
// when true the schedule restarts from the service point; when false an early
// service keeps the existing schedule and only a late service advances it.
func ComputeNextDue(task *models.MaintenanceTask, serviceMileage *int, serviceDate time.Time, resetSchedule bool) NextDue {
	var due NextDue

	if task.IntervalMiles != nil && *task.IntervalMiles > 0 {
		mileage := 0
		if serviceMileage != nil {
			mileage = *serviceMileage
		}

		if resetSchedule || task.NextDueOdometer == nil || mileage >= *task.NextDueOdometer {
			next := mileage + *task.IntervalMiles
			due.Odometer = &next
		} else {
			// Serviced early, keep the existing schedule.
			due.Odometer = task.NextDueOdometer
		}
	}

	if task.IntervalDays != nil && *task.IntervalDays > 0 {
		if resetSchedule || task.NextDueDate == nil || !serviceDate.Before(*task.NextDueDate) {
			next := serviceDate.AddDate(0, 0, *task.IntervalDays)
			due.Date = &next
		} else {
			due.Date = task.NextDueDate
		}
	}

	return due
}

// RecomputeZeroBase recomputes the next due odometer of a zero-base task
// after a pure mileage bump. Zero-base schedules are pinned to absolute
// multiples of the interval, so crossing a multiple rolls the target forward
// to the next one. Returns nil when the task does not qualify (current-base,
// no mile interval, or interval of zero).
func RecomputeZeroBase(task *models.MaintenanceTask, newMileage int) *int {
	if task.IntervalBase != models.IntervalBaseZero {
		return nil
	}
	if task.IntervalMiles == nil || *task.IntervalMiles <= 0 {
		return nil
	}

	interval := *task.IntervalMiles
	next := (newMileage/interval + 1) * interval
	return &next
}
