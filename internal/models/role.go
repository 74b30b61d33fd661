package models

import (
	"time"

	"github.com/google/uuid"
)

// RoleType classifies a conference role.
type RoleType string

const (
	RoleSecretary RoleType = "secretary"
	RoleDeputy    RoleType = "deputy"
	RoleAssistant RoleType = "assistant"
)

// IsExecutive reports whether the role type counts against the
// conference executive capacity.
func (t RoleType) IsExecutive() bool {
	return t == RoleSecretary || t == RoleDeputy || t == RoleAssistant
}

// Permission is a catalog entry naming one capability inside a conference.
// Reference data, seeded idempotently by codename.
type Permission struct {
	ID          uuid.UUID `json:"id"`
	Codename    string    `json:"codename"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Permission codenames. The catalog is fixed per deployment; roles and
// overrides reference these rows.
const (
	PermViewConference   = "view_conference"
	PermEditConference   = "edit_conference"
	PermDeleteConference = "delete_conference"
	PermInviteMembers    = "invite_members"
	PermRemoveMembers    = "remove_members"
	PermManagePerms      = "manage_permissions"
	PermViewPeople       = "view_people"
	PermAddPeople        = "add_people"
	PermEditPeople       = "edit_people"
	PermDeletePeople     = "delete_people"
	PermManageTasks      = "manage_tasks"
	PermAssignTasks      = "assign_tasks"
	PermManageCategories = "manage_categories"
	PermViewReports      = "view_reports"
)

// DefaultPermissions returns the full permission catalog seeded on
// conference creation.
func DefaultPermissions() []Permission {
	return []Permission{
		{Codename: PermViewConference, Name: "View conference"},
		{Codename: PermEditConference, Name: "Edit conference"},
		{Codename: PermDeleteConference, Name: "Delete conference"},
		{Codename: PermInviteMembers, Name: "Invite members"},
		{Codename: PermRemoveMembers, Name: "Remove members"},
		{Codename: PermManagePerms, Name: "Manage member permissions"},
		{Codename: PermViewPeople, Name: "View attendees"},
		{Codename: PermAddPeople, Name: "Add attendees"},
		{Codename: PermEditPeople, Name: "Edit attendees"},
		{Codename: PermDeletePeople, Name: "Delete attendees"},
		{Codename: PermManageTasks, Name: "Manage tasks"},
		{Codename: PermAssignTasks, Name: "Assign tasks"},
		{Codename: PermManageCategories, Name: "Manage categories"},
		{Codename: PermViewReports, Name: "View reports"},
	}
}

// AssistantPermissions is the operational subset granted to the default
// assistant role: view, people CRUD minus delete, tasks, categorization.
func AssistantPermissions() []string {
	return []string{
		PermViewConference,
		PermViewPeople,
		PermAddPeople,
		PermEditPeople,
		PermManageTasks,
		PermAssignTasks,
		PermManageCategories,
	}
}

// Role is a per-conference named bundle of permissions tagged with a
// role type. At most one secretary role exists per conference.
type Role struct {
	ID           uuid.UUID    `json:"id"`
	ConferenceID uuid.UUID    `json:"conference_id"`
	RoleType     RoleType     `json:"role_type"`
	Name         string       `json:"name"`
	Description  string       `json:"description,omitempty"`
	IsActive     bool         `json:"is_active"`
	Permissions  []Permission `json:"permissions,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// PermissionCodenames returns the codenames of the role's permission set.
func (r *Role) PermissionCodenames() []string {
	out := make([]string, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		out = append(out, p.Codename)
	}
	return out
}
