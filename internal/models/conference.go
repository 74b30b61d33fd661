package models

import (
	"time"

	"github.com/google/uuid"
)

// Conference is the tenant root scoping roles, members, attendees and tasks.
type Conference struct {
	ID                    uuid.UUID  `json:"id"`
	Name                  string     `json:"name"`
	Slug                  string     `json:"slug"`
	Description           string     `json:"description,omitempty"`
	StartDate             time.Time  `json:"start_date"`
	EndDate               time.Time  `json:"end_date"`
	IsActive              bool       `json:"is_active"`
	MaxMembers            int        `json:"max_members"`
	MaxExecutives         int        `json:"max_executives"`
	EnableCategorization  bool       `json:"enable_categorization"`
	MaxTasksPerConference int        `json:"max_tasks_per_conference"`
	MaxTasksPerUser       int        `json:"max_tasks_per_user"`
	CreatedBy             *uuid.UUID `json:"created_by,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// Ended reports whether the conference end date has passed.
func (c *Conference) Ended(now time.Time) bool {
	return now.After(c.EndDate)
}

// ConferenceStatistics summarizes a conference for dashboards.
type ConferenceStatistics struct {
	TotalAttendees   int `json:"total_attendees"`
	TotalTasks       int `json:"total_tasks"`
	TotalCategories  int `json:"total_categories"`
	TotalAssignments int `json:"total_assignments"`
	CompletedTasks   int `json:"completed_tasks"`
}
