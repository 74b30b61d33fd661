package models

import (
	"time"

	"github.com/google/uuid"
)

// Task is a unit of work scoped to a conference. Unique by
// (conference, name); order_index is auto-incremented per conference
// when unset.
type Task struct {
	ID           uuid.UUID  `json:"id"`
	ConferenceID uuid.UUID  `json:"conference_id"`
	Name         string     `json:"name"`
	Description  string     `json:"description,omitempty"`
	IsRequired   bool       `json:"is_required"`
	IsActive     bool       `json:"is_active"`
	StartAt      *time.Time `json:"start_at,omitempty"`
	DueAt        *time.Time `json:"due_at,omitempty"`
	OrderIndex   int        `json:"order"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// PersonTaskStatus is the state of one task assignment.
type PersonTaskStatus string

const (
	TaskPending    PersonTaskStatus = "pending"
	TaskInProgress PersonTaskStatus = "in_progress"
	TaskCompleted  PersonTaskStatus = "completed"
	TaskCancelled  PersonTaskStatus = "cancelled"
)

// PersonTask is the assignment of a task to a person. Unique per
// (person, task). Completion is terminal.
type PersonTask struct {
	ID          uuid.UUID        `json:"id"`
	PersonID    uuid.UUID        `json:"person_id"`
	TaskID      uuid.UUID        `json:"task_id"`
	Status      PersonTaskStatus `json:"status"`
	Notes       string           `json:"notes,omitempty"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	CompletedBy *uuid.UUID       `json:"completed_by,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// TaskCompletionStats summarizes assignment progress for one task.
type TaskCompletionStats struct {
	TaskID           uuid.UUID `json:"task_id"`
	TotalAssignments int       `json:"total_assignments"`
	Completed        int       `json:"completed"`
	Pending          int       `json:"pending"`
	CompletionRate   float64   `json:"completion_rate"`
}
