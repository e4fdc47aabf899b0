package models

import (
	"time"

	"github.com/google/uuid"
)

// Motorcycle is a tracked bike owned by a user. CurrentMileage is nil until
// the first odometer reading is recorded.
type Motorcycle struct {
	ID             uuid.UUID `db:"id" json:"id"`
	UserID         uuid.UUID `db:"user_id" json:"user_id"`
	Name           string    `db:"name" json:"name"`
	Make           string    `db:"make" json:"make"`
	Model          string    `db:"model" json:"model"`
	Year           int       `db:"year" json:"year"`
	CurrentMileage *int      `db:"current_mileage" json:"current_mileage,omitempty"`
	IsDefault      bool      `db:"is_default" json:"is_default"`
	Archived       bool      `db:"archived" json:"archived"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// TableName returns the database table name
func (Motorcycle) TableName() string {
	return "motorcycles"
}
