package models

import (
	"time"

	"github.com/google/uuid"
)

// IntervalBase controls how a recurring interval is anchored.
type IntervalBase string

const (
	// IntervalBaseCurrent anchors the interval to the last actual service or
	// reading. Schedules only advance on explicit completions.
	IntervalBaseCurrent IntervalBase = "current"

	// IntervalBaseZero pins due points to absolute multiples of the interval
	// counted from zero, recomputed as mileage crosses each multiple.
	IntervalBaseZero IntervalBase = "zero"
)

// Priority of a maintenance task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Rank returns the sort weight of the priority, high first.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// MaintenanceTask is a recurring (or one-shot) service item on a motorcycle.
// A task with neither a mile interval nor a day interval can never become due
// through the automatic detector.
type MaintenanceTask struct {
	ID              uuid.UUID    `db:"id" json:"id"`
	UserID          uuid.UUID    `db:"user_id" json:"user_id"`
	MotorcycleID    uuid.UUID    `db:"motorcycle_id" json:"motorcycle_id"`
	Name            string       `db:"name" json:"name"`
	Description     *string      `db:"description" json:"description,omitempty"`
	IntervalMiles   *int         `db:"interval_miles" json:"interval_miles,omitempty"`
	IntervalDays    *int         `db:"interval_days" json:"interval_days,omitempty"`
	IntervalBase    IntervalBase `db:"interval_base" json:"interval_base"`
	BaseOdometer    *int         `db:"base_odometer" json:"base_odometer,omitempty"`
	BaseDate        *time.Time   `db:"base_date" json:"base_date,omitempty"`
	NextDueOdometer *int         `db:"next_due_odometer" json:"next_due_odometer,omitempty"`
	NextDueDate     *time.Time   `db:"next_due_date" json:"next_due_date,omitempty"`
	Priority        Priority     `db:"priority" json:"priority"`
	Recurring       bool         `db:"recurring" json:"recurring"`
	Archived        bool         `db:"archived" json:"archived"`
	CreatedAt       time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time    `db:"updated_at" json:"updated_at"`
}

// TableName returns the database table name
func (MaintenanceTask) TableName() string {
	return "maintenance_tasks"
}

// HasInterval reports whether the task has any recurrence interval at all.
func (t *MaintenanceTask) HasInterval() bool {
	return (t.IntervalMiles != nil && *t.IntervalMiles > 0) ||
		(t.IntervalDays != nil && *t.IntervalDays > 0)
}
