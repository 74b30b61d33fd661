package memberships

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Hamayesh-Negar/Back-end/internal/models"
	"github.com/Hamayesh-Negar/Back-end/pkg/apperrors"
)

// Store is the persistence surface the service needs.
type Store interface {
	GetMembership(ctx context.Context, conferenceID, userID uuid.UUID) (*models.Membership, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Membership, error)
	GetRole(ctx context.Context, roleID uuid.UUID) (*models.Role, error)
	GetRoleByType(ctx context.Context, conferenceID uuid.UUID, roleType models.RoleType) (*models.Role, error)
	CountActive(ctx context.Context, conferenceID uuid.UUID) (int, error)
	CountActiveExecutives(ctx context.Context, conferenceID uuid.UUID) (int, error)
	HasSecretary(ctx context.Context, conferenceID uuid.UUID) (bool, error)
	Create(ctx context.Context, m *models.Membership) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.MembershipStatus) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	ListPermissionsByCodenames(ctx context.Context, codenames []string) ([]models.Permission, error)
	UpsertOverride(ctx context.Context, o *models.PermissionOverride) error
	DeleteOverride(ctx context.Context, membershipID, permissionID uuid.UUID) (bool, error)
}

// ConferenceGetter loads a conference, nil when absent. Implemented by
// the conferences repository.
type ConferenceGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Conference, error)
}

// Notifier publishes best-effort membership events. Implemented by the
// notifications service; delivery failures never fail the operation.
type Notifier interface {
	PermissionsUpdated(ctx context.Context, conferenceID, userID uuid.UUID)
	MembershipRemoved(ctx context.Context, conferenceID, userID uuid.UUID)
}

// Service enforces membership rules: capacity quotas, the secretary
// singleton and direct permission overrides.
type Service struct {
	store       Store
	conferences ConferenceGetter
	notifier    Notifier
	logger      *zap.Logger
}

// NewService creates a membership service.
func NewService(store Store, conferences ConferenceGetter, notifier Notifier, logger *zap.Logger) *Service {
	return &Service{store: store, conferences: conferences, notifier: notifier, logger: logger}
}

// Create enrolls a user into a conference with the given role, enforcing
// the member quota, the executive quota and the secretary singleton.
func (s *Service) Create(ctx context.Context, conferenceID, userID, roleID uuid.UUID) (*models.Membership, error) {
	m, err := s.PrepareEnrollment(ctx, conferenceID, userID, roleID)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// PrepareEnrollment runs every enrollment rule and returns the
// membership row to insert, without persisting it. Invitation acceptance
// uses this to validate first and commit the insert atomically with the
// invitation's status flip.
func (s *Service) PrepareEnrollment(ctx context.Context, conferenceID, userID, roleID uuid.UUID) (*models.Membership, error) {
	conf, err := s.conferences.GetByID(ctx, conferenceID)
	if err != nil {
		return nil, err
	}
	if conf == nil {
		return nil, apperrors.NotFound("conference")
	}

	existing, err := s.store.GetMembership(ctx, conferenceID, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.Uniqueness("membership", "user", "User is already a member of this conference.")
	}

	role, err := s.store.GetRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if role == nil || role.ConferenceID != conferenceID {
		return nil, apperrors.NotFound("role")
	}

	active, err := s.store.CountActive(ctx, conferenceID)
	if err != nil {
		return nil, err
	}
	if active >= conf.MaxMembers {
		return nil, apperrors.CapacityExceeded(apperrors.CapacityMembers)
	}

	if role.RoleType == models.RoleSecretary {
		has, err := s.store.HasSecretary(ctx, conferenceID)
		if err != nil {
			return nil, err
		}
		if has {
			return nil, apperrors.Uniqueness("membership", "secretary", "Conference already has a secretary.")
		}
	}
	if role.RoleType.IsExecutive() {
		execs, err := s.store.CountActiveExecutives(ctx, conferenceID)
		if err != nil {
			return nil, err
		}
		if execs >= conf.MaxExecutives {
			return nil, apperrors.CapacityExceeded(apperrors.CapacityExecutives)
		}
	}

	return &models.Membership{
		ConferenceID: conferenceID,
		UserID:       userID,
		RoleID:       roleID,
		Status:       models.MemberActive,
		Role:         role,
	}, nil
}

// CreateSecretary enrolls a user with the conference's secretary role.
// Used during conference bootstrap and invitation acceptance.
func (s *Service) CreateSecretary(ctx context.Context, conferenceID, userID uuid.UUID) error {
	role, err := s.store.GetRoleByType(ctx, conferenceID, models.RoleSecretary)
	if err != nil {
		return err
	}
	if role == nil {
		return apperrors.NotFound("role")
	}
	_, err = s.Create(ctx, conferenceID, userID, role.ID)
	return err
}

// Remove deletes a membership. The secretary can never be removed; a
// conference without its secretary has no one able to manage it.
func (s *Service) Remove(ctx context.Context, conferenceID, membershipID uuid.UUID) error {
	m, err := s.membershipIn(ctx, conferenceID, membershipID)
	if err != nil {
		return err
	}
	if m.Role != nil && m.Role.RoleType == models.RoleSecretary {
		return apperrors.AccessDenied(apperrors.ReasonSecretaryProtected, "The conference secretary cannot be removed.")
	}
	ok, err := s.store.Delete(ctx, membershipID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NotFound("membership")
	}
	if s.notifier != nil {
		s.notifier.MembershipRemoved(ctx, conferenceID, m.UserID)
	}
	return nil
}

// UpdateStatus transitions a membership between active, inactive and
// suspended. The secretary's status may only be changed by a superuser.
func (s *Service) UpdateStatus(ctx context.Context, conferenceID, membershipID uuid.UUID, status models.MembershipStatus, actor *models.User) (*models.Membership, error) {
	switch status {
	case models.MemberActive, models.MemberInactive, models.MemberSuspended:
	default:
		return nil, apperrors.Validation("status", fmt.Sprintf("unknown status %q", status))
	}
	m, err := s.membershipIn(ctx, conferenceID, membershipID)
	if err != nil {
		return nil, err
	}
	if m.Role != nil && m.Role.RoleType == models.RoleSecretary && (actor == nil || !actor.IsSuperuser) {
		return nil, apperrors.AccessDenied(apperrors.ReasonSecretaryProtected, "Only a superuser can change the secretary's status.")
	}
	if m.Status == status {
		return m, nil
	}
	if err := s.store.UpdateStatus(ctx, membershipID, status); err != nil {
		return nil, err
	}
	m.Status = status
	return m, nil
}

// PermissionUpdate carries a batch of direct permission changes for one
// membership. Grant and Revoke entries are codenames; RemoveDirect
// deletes overrides so the role default applies again.
type PermissionUpdate struct {
	Grant        []string
	Revoke       []string
	RemoveDirect []string
	Reason       string
}

// UpdatePermissions applies direct grants and revokes on a membership.
// A codename listed as both grant and revoke is rejected. Changes to the
// secretary's permissions require a superuser or the secretary acting on
// themself.
func (s *Service) UpdatePermissions(ctx context.Context, conferenceID, membershipID uuid.UUID, update PermissionUpdate, actor *models.User) (*models.Membership, error) {
	granted := make(map[string]bool, len(update.Grant))
	for _, c := range update.Grant {
		granted[c] = true
	}
	for _, c := range update.Revoke {
		if granted[c] {
			return nil, apperrors.Validation("permissions", fmt.Sprintf("%q appears in both grant and revoke", c))
		}
	}

	m, err := s.membershipIn(ctx, conferenceID, membershipID)
	if err != nil {
		return nil, err
	}
	if m.Role != nil && m.Role.RoleType == models.RoleSecretary {
		if actor == nil || (!actor.IsSuperuser && actor.ID != m.UserID) {
			return nil, apperrors.AccessDenied(apperrors.ReasonSecretaryProtected, "Only a superuser or the secretary can change the secretary's permissions.")
		}
	}

	all := make([]string, 0, len(update.Grant)+len(update.Revoke)+len(update.RemoveDirect))
	all = append(all, update.Grant...)
	all = append(all, update.Revoke...)
	all = append(all, update.RemoveDirect...)
	perms, err := s.store.ListPermissionsByCodenames(ctx, all)
	if err != nil {
		return nil, err
	}
	byCodename := make(map[string]models.Permission, len(perms))
	for _, p := range perms {
		byCodename[p.Codename] = p
	}
	for _, c := range all {
		if _, ok := byCodename[c]; !ok {
			return nil, apperrors.Validation("permissions", fmt.Sprintf("unknown permission %q", c))
		}
	}

	var actorID uuid.UUID
	if actor != nil {
		actorID = actor.ID
	}
	apply := func(codenames []string, revoked bool) error {
		for _, c := range codenames {
			o := &models.PermissionOverride{
				MembershipID: membershipID,
				PermissionID: byCodename[c].ID,
				IsRevoked:    revoked,
				GrantedBy:    actorID,
				Reason:       update.Reason,
			}
			if err := s.store.UpsertOverride(ctx, o); err != nil {
				return err
			}
		}
		return nil
	}
	if err := apply(update.Grant, false); err != nil {
		return nil, err
	}
	if err := apply(update.Revoke, true); err != nil {
		return nil, err
	}
	for _, c := range update.RemoveDirect {
		if _, err := s.store.DeleteOverride(ctx, membershipID, byCodename[c].ID); err != nil {
			return nil, err
		}
	}

	updated, err := s.store.GetByID(ctx, membershipID)
	if err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.PermissionsUpdated(ctx, conferenceID, m.UserID)
	}
	return updated, nil
}

func (s *Service) membershipIn(ctx context.Context, conferenceID, membershipID uuid.UUID) (*models.Membership, error) {
	m, err := s.store.GetByID(ctx, membershipID)
	if err != nil {
		return nil, err
	}
	if m == nil || m.ConferenceID != conferenceID {
		return nil, apperrors.NotFound("membership")
	}
	return m, nil
}
