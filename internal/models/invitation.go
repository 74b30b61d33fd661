package models

import (
	"time"

	"github.com/google/uuid"
)

// InvitationStatus is the state of a conference invitation. All states
// other than pending are terminal.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationRejected InvitationStatus = "rejected"
	InvitationExpired  InvitationStatus = "expired"
)

// Invitation is a pending offer of membership in a conference, resolved
// by accept, reject or expiry.
type Invitation struct {
	ID            uuid.UUID        `json:"id"`
	ConferenceID  uuid.UUID        `json:"conference_id"`
	InvitedUserID uuid.UUID        `json:"invited_user"`
	InvitedByID   uuid.UUID        `json:"invited_by"`
	RoleID        uuid.UUID        `json:"role_id"`
	Message       string           `json:"message,omitempty"`
	Status        InvitationStatus `json:"status"`
	ExpiresAt     time.Time        `json:"expires_at"`
	RespondedAt   *time.Time       `json:"responded_at,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`

	// GrantPermissionIDs optionally seeds the new membership's permission
	// overrides when the invitation is accepted.
	GrantPermissionIDs []uuid.UUID `json:"grant_permission_ids,omitempty"`
}

// IsExpired reports whether a pending invitation has passed its deadline.
func (i *Invitation) IsExpired(now time.Time) bool {
	return i.Status == InvitationPending && now.After(i.ExpiresAt)
}
