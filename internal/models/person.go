package models

import (
	"time"

	"github.com/google/uuid"
)

// Person is a conference attendee, distinct from a platform User.
type Person struct {
	ID               uuid.UUID  `json:"id"`
	ConferenceID     uuid.UUID  `json:"conference_id"`
	FirstName        string     `json:"first_name"`
	LastName         string     `json:"last_name"`
	Email            string     `json:"email,omitempty"`
	Telephone        string     `json:"telephone,omitempty"`
	UniqueCode       string     `json:"unique_code"`
	HashedUniqueCode string     `json:"hashed_unique_code"`
	IsActive         bool       `json:"is_active"`
	RegisteredBy     *uuid.UUID `json:"registered_by,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	CategoryIDs      []uuid.UUID `json:"categories,omitempty"`
}

// FullName returns the person's display name.
func (p *Person) FullName() string {
	if p.FirstName == "" {
		return p.LastName
	}
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}
