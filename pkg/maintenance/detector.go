package maintenance

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/hawkinslabdev/rideway-sub002/pkg/models"
)

// IsDue reports whether a task is currently due for the given motorcycle.
// Archived tasks are never due. A task is due when either its next due date
// has passed or the motorcycle's mileage has reached its next due odometer.
func IsDue(task *models.MaintenanceTask, motorcycle *models.Motorcycle, today time.Time) bool {
	if task.Archived {
		return false
	}

	if task.NextDueDate != nil && !task.NextDueDate.After(today) {
		return true
	}

	if task.NextDueOdometer != nil && motorcycle != nil && motorcycle.CurrentMileage != nil &&
		*task.NextDueOdometer <= *motorcycle.CurrentMileage {
		return true
	}

	return false
}

// FindNewlyDueByMileage returns the tasks whose due threshold lies inside the
// just-traversed interval (oldMileage, newMileage]. Each threshold crossing
// reports a task exactly once no matter how large the mileage jump.
func FindNewlyDueByMileage(tasks []*models.MaintenanceTask, oldMileage *int, newMileage int) []*models.MaintenanceTask {
	var newlyDue []*models.MaintenanceTask

	for _, task := range tasks {
		if task.Archived || task.NextDueOdometer == nil {
			continue
		}
		if *task.NextDueOdometer > newMileage {
			continue
		}
		if oldMileage != nil && *task.NextDueOdometer <= *oldMileage {
			continue
		}
		newlyDue = append(newlyDue, task)
	}

	return newlyDue
}

// FindNewlyDueByDate returns the tasks that became due within the one-day
// window ending at asOf: due now but not due as of a day earlier. This bounds
// date-based notifications to a single calendar day even when checks run
// irregularly.
func FindNewlyDueByDate(tasks []*models.MaintenanceTask, asOf time.Time) []*models.MaintenanceTask {
	windowStart := asOf.AddDate(0, 0, -1)

	var newlyDue []*models.MaintenanceTask
	for _, task := range tasks {
		if task.Archived || task.NextDueDate == nil {
			continue
		}
		if task.NextDueDate.After(asOf) {
			continue
		}
		if !task.NextDueDate.After(windowStart) {
			continue
		}
		newlyDue = append(newlyDue, task)
	}

	return newlyDue
}

// RankTasks sorts tasks for dashboard display: due tasks first, then by
// nearest due date, then by nearest due mileage, then by priority.
// Tasks whose motorcycle is missing from the map are excluded.
func RankTasks(tasks []*models.MaintenanceTask, motorcycles map[uuid.UUID]*models.Motorcycle, today time.Time) []*models.MaintenanceTask {
	ranked := make([]*models.MaintenanceTask, 0, len(tasks))
	for _, task := range tasks {
		if _, ok := motorcycles[task.MotorcycleID]; !ok {
			continue
		}
		ranked = append(ranked, task)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		aDue := IsDue(a, motorcycles[a.MotorcycleID], today)
		bDue := IsDue(b, motorcycles[b.MotorcycleID], today)
		if aDue != bDue {
			return aDue
		}

		if c := compareDueDates(a.NextDueDate, b.NextDueDate); c != 0 {
			return c < 0
		}

		aDist := mileageDistance(a, motorcycles[a.MotorcycleID])
		bDist := mileageDistance(b, motorcycles[b.MotorcycleID])
		if aDist != bDist {
			return aDist < bDist
		}

		return a.Priority.Rank() < b.Priority.Rank()
	})

	return ranked
}

func compareDueDates(a, b *time.Time) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return 1
	}
	if b == nil {
		return -1
	}
	if a.Before(*b) {
		return -1
	}
	if a.After(*b) {
		return 1
	}
	return 0
}

const farAway = int(^uint(0) >> 1)

func mileageDistance(task *models.MaintenanceTask, motorcycle *models.Motorcycle) int {
	if task.NextDueOdometer == nil || motorcycle == nil || motorcycle.CurrentMileage == nil {
		return farAway
	}
	dist := *task.NextDueOdometer - *motorcycle.CurrentMileage
	if dist < 0 {
		dist = 0
	}
	return dist
}
