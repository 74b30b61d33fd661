package models

import (
	"time"

	"github.com/google/uuid"
)

// MembershipStatus is the lifecycle status of a conference membership.
type MembershipStatus string

const (
	MemberActive    MembershipStatus = "active"
	MemberInactive  MembershipStatus = "inactive"
	MemberSuspended MembershipStatus = "suspended"
)

// Membership binds a user to a conference with a role and status.
// Unique per (user, conference).
type Membership struct {
	ID           uuid.UUID            `json:"id"`
	ConferenceID uuid.UUID            `json:"conference_id"`
	UserID       uuid.UUID            `json:"user_id"`
	RoleID       uuid.UUID            `json:"role_id"`
	Status       MembershipStatus     `json:"status"`
	JoinedAt     time.Time            `json:"joined_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
	Role         *Role                `json:"role,omitempty"`
	Overrides    []PermissionOverride `json:"permission_overrides,omitempty"`
}

// StatusMessage returns the user-facing explanation for a non-active status.
func (m *Membership) StatusMessage() string {
	switch m.Status {
	case MemberSuspended:
		return "Membership suspended."
	case MemberInactive:
		return "Membership inactive."
	default:
		return ""
	}
}

// CanPerformActions reports whether the membership status permits any
// conference-scoped action.
func (m *Membership) CanPerformActions() bool {
	return m.Status == MemberActive
}

// PermissionOverride is a direct per-membership grant or revoke that
// supersedes the role's default permission set. Unique per
// (membership, permission).
type PermissionOverride struct {
	ID           uuid.UUID `json:"id"`
	MembershipID uuid.UUID `json:"membership_id"`
	PermissionID uuid.UUID `json:"permission_id"`
	Codename     string    `json:"codename"`
	IsRevoked    bool      `json:"is_revoked"`
	GrantedBy    uuid.UUID `json:"granted_by"`
	Reason       string    `json:"reason,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
