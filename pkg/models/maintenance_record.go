package models

import (
	"time"

	"github.com/google/uuid"
)

// MaintenanceRecord is one completed (or manually entered) service. The next
// due values are a snapshot of what the schedule computed at completion time.
type MaintenanceRecord struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	UserID          uuid.UUID  `db:"user_id" json:"user_id"`
	MotorcycleID    uuid.UUID  `db:"motorcycle_id" json:"motorcycle_id"`
	TaskID          *uuid.UUID `db:"task_id" json:"task_id,omitempty"`
	ServiceDate     time.Time  `db:"service_date" json:"service_date"`
	Mileage         *int       `db:"mileage" json:"mileage,omitempty"`
	Cost            *float64   `db:"cost" json:"cost,omitempty"`
	Notes           *string    `db:"notes" json:"notes,omitempty"`
	Scheduled       bool       `db:"scheduled" json:"scheduled"`
	ResetsInterval  bool       `db:"resets_interval" json:"resets_interval"`
	NextDueOdometer *int       `db:"next_due_odometer" json:"next_due_odometer,omitempty"`
	NextDueDate     *time.Time `db:"next_due_date" json:"next_due_date,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// TableName returns the database table name
func (MaintenanceRecord) TableName() string {
	return "maintenance_records"
}
