package models

import (
	"time"

	"github.com/google/uuid"
)

// Category groups attendees inside a conference and declares a set of
// tasks that are auto-assigned to its members. Unique by
// (conference, name).
type Category struct {
	ID           uuid.UUID `json:"id"`
	ConferenceID uuid.UUID `json:"conference_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	MembersCount int       `json:"members_count"`
	TaskIDs      []uuid.UUID `json:"auto_assign_tasks,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
