package model

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
)

// TaskStatus is the closed set of task lifecycle states.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// Scan implements sql.Scanner interface
func (s *TaskStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*s = TaskStatus(v)
	case []byte:
		*s = TaskStatus(v)
	default:
		*s = TaskStatusPending
	}
	return nil
}

// Value implements driver.Valuer interface
func (s TaskStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// IsValid reports whether s is in the allowed status set.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

// Task is a unit of kitchen work assigned from one user to another.
// Status changes only happen through the explicit update-status operation.
type Task struct {
	ID              int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name            string     `gorm:"not null;size:255" json:"name"`
	ScheduledDate   time.Time  `gorm:"not null" json:"scheduled_date"`
	DurationMinutes int        `gorm:"not null" json:"duration_minutes"`
	AssignedByID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"assigned_by_id"`
	AssignedToID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"assigned_to_id"`
	Status          TaskStatus `gorm:"not null;size:20;default:'pending'" json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	AssignedBy *User `gorm:"foreignKey:AssignedByID" json:"assigned_by,omitempty"`
	AssignedTo *User `gorm:"foreignKey:AssignedToID" json:"assigned_to,omitempty"`
}

// TableName specifies the table name for GORM
func (Task) TableName() string {
	return "tasks"
}
