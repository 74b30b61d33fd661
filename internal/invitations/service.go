package invitations

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Hamayesh-Negar/Back-end/internal/models"
	"github.com/Hamayesh-Negar/Back-end/pkg/apperrors"
)

// Store is the persistence surface the service needs.
type Store interface {
	Create(ctx context.Context, inv *models.Invitation) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Invitation, error)
	HasPending(ctx context.Context, conferenceID, userID uuid.UUID) (bool, error)
	ListByConference(ctx context.Context, conferenceID uuid.UUID) ([]*models.Invitation, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Invitation, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.InvitationStatus, respondedAt *time.Time) error
	Accept(ctx context.Context, inv *models.Invitation, m *models.Membership, respondedAt time.Time) error
	ExpirePending(ctx context.Context, now time.Time) (int64, error)
	ExpirePendingByConference(ctx context.Context, conferenceID uuid.UUID, now time.Time) (int64, error)
}

// Memberships is the slice of the membership layer the service needs:
// duplicate checks and role validation.
type Memberships interface {
	GetMembership(ctx context.Context, conferenceID, userID uuid.UUID) (*models.Membership, error)
	GetRole(ctx context.Context, roleID uuid.UUID) (*models.Role, error)
}

// Enroller validates an enrollment without persisting it. Implemented by
// the memberships service so capacity and secretary rules apply to
// invitation acceptance too; the insert itself commits inside the
// acceptance transaction.
type Enroller interface {
	PrepareEnrollment(ctx context.Context, conferenceID, userID, roleID uuid.UUID) (*models.Membership, error)
}

// Notifier publishes best-effort invitation events.
type Notifier interface {
	InvitationCreated(ctx context.Context, inv *models.Invitation)
}

// Service owns the invitation state machine. Pending is the only
// non-terminal state; expiry is detected lazily on read and by the
// maintenance sweep.
type Service struct {
	store      Store
	members    Memberships
	enroller   Enroller
	notifier   Notifier
	logger     *zap.Logger
	expiryDays int
	now        func() time.Time
}

// NewService creates an invitation service. expiryDays is the default
// deadline applied when a create request has none.
func NewService(store Store, members Memberships, enroller Enroller, notifier Notifier, expiryDays int, logger *zap.Logger) *Service {
	return &Service{
		store:      store,
		members:    members,
		enroller:   enroller,
		notifier:   notifier,
		logger:     logger,
		expiryDays: expiryDays,
		now:        time.Now,
	}
}

// CreateInput carries an invitation create request.
type CreateInput struct {
	InvitedUserID      uuid.UUID
	RoleID             uuid.UUID
	Message            string
	ExpiresAt          *time.Time
	GrantPermissionIDs []uuid.UUID
}

// Create issues an invitation. The invitee must not already be a member
// and must not have another pending invitation to the same conference;
// self-invitations are rejected.
func (s *Service) Create(ctx context.Context, conferenceID uuid.UUID, in CreateInput, inviterID uuid.UUID) (*models.Invitation, error) {
	if in.InvitedUserID == inviterID {
		return nil, apperrors.Validation("invited_user", "you cannot invite yourself")
	}

	existing, err := s.members.GetMembership(ctx, conferenceID, in.InvitedUserID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.Uniqueness("membership", "user", "User is already a member of this conference.")
	}

	pending, err := s.store.HasPending(ctx, conferenceID, in.InvitedUserID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, apperrors.Uniqueness("invitation", "pending", "User already has a pending invitation to this conference.")
	}

	role, err := s.members.GetRole(ctx, in.RoleID)
	if err != nil {
		return nil, err
	}
	if role == nil || role.ConferenceID != conferenceID {
		return nil, apperrors.NotFound("role")
	}

	now := s.now()
	expiresAt := now.AddDate(0, 0, s.expiryDays)
	if in.ExpiresAt != nil {
		if !in.ExpiresAt.After(now) {
			return nil, apperrors.Validation("expires_at", "expiry must be in the future")
		}
		expiresAt = *in.ExpiresAt
	}

	inv := &models.Invitation{
		ConferenceID:       conferenceID,
		InvitedUserID:      in.InvitedUserID,
		InvitedByID:        inviterID,
		RoleID:             in.RoleID,
		Message:            in.Message,
		ExpiresAt:          expiresAt,
		GrantPermissionIDs: in.GrantPermissionIDs,
	}
	if err := s.store.Create(ctx, inv); err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.InvitationCreated(ctx, inv)
	}
	return inv, nil
}

// Get loads an invitation, expiring it first when its deadline has
// passed.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Invitation, error) {
	inv, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, apperrors.NotFound("invitation")
	}
	return s.expireIfDue(ctx, inv)
}

// ListByConference returns a conference's invitations with lazy expiry
// applied.
func (s *Service) ListByConference(ctx context.Context, conferenceID uuid.UUID) ([]*models.Invitation, error) {
	list, err := s.store.ListByConference(ctx, conferenceID)
	if err != nil {
		return nil, err
	}
	return s.expireDue(ctx, list)
}

// ListForUser returns a user's incoming invitations with lazy expiry
// applied.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Invitation, error) {
	list, err := s.store.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.expireDue(ctx, list)
}

// Accept resolves a pending invitation into a membership. Only the
// invitee can accept. The membership layer's capacity and secretary
// rules run first, so a quota failure leaves the invitation pending
// with nothing written; the membership insert, the invitation's
// permission grants and the status flip then commit in one transaction.
func (s *Service) Accept(ctx context.Context, id uuid.UUID, actorID uuid.UUID) (*models.Membership, error) {
	inv, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.InvitedUserID != actorID {
		return nil, apperrors.AccessDenied(apperrors.ReasonMissingPermission, "Only the invited user can respond to an invitation.")
	}
	if inv.Status != models.InvitationPending {
		return nil, apperrors.InvalidTransition("invitation", string(inv.Status), string(models.InvitationAccepted))
	}

	m, err := s.enroller.PrepareEnrollment(ctx, inv.ConferenceID, inv.InvitedUserID, inv.RoleID)
	if err != nil {
		return nil, err
	}
	if err := s.store.Accept(ctx, inv, m, s.now()); err != nil {
		return nil, err
	}
	return m, nil
}

// Reject resolves a pending invitation without creating a membership.
// Only the invitee can reject.
func (s *Service) Reject(ctx context.Context, id uuid.UUID, actorID uuid.UUID) (*models.Invitation, error) {
	inv, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.InvitedUserID != actorID {
		return nil, apperrors.AccessDenied(apperrors.ReasonMissingPermission, "Only the invited user can respond to an invitation.")
	}
	if inv.Status != models.InvitationPending {
		return nil, apperrors.InvalidTransition("invitation", string(inv.Status), string(models.InvitationRejected))
	}
	now := s.now()
	if err := s.store.UpdateStatus(ctx, inv.ID, models.InvitationRejected, &now); err != nil {
		return nil, err
	}
	inv.Status = models.InvitationRejected
	inv.RespondedAt = &now
	return inv, nil
}

// ExpirePending sweeps all overdue pending invitations.
func (s *Service) ExpirePending(ctx context.Context) (int64, error) {
	n, err := s.store.ExpirePending(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("expired overdue invitations", zap.Int64("count", n))
	}
	return n, nil
}

// ExpirePendingFor sweeps one conference's overdue pending invitations.
func (s *Service) ExpirePendingFor(ctx context.Context, conferenceID uuid.UUID) (int64, error) {
	n, err := s.store.ExpirePendingByConference(ctx, conferenceID, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("expired overdue invitations",
			zap.String("conference_id", conferenceID.String()),
			zap.Int64("count", n))
	}
	return n, nil
}

func (s *Service) expireIfDue(ctx context.Context, inv *models.Invitation) (*models.Invitation, error) {
	if inv.IsExpired(s.now()) {
		if err := s.store.UpdateStatus(ctx, inv.ID, models.InvitationExpired, nil); err != nil {
			return nil, err
		}
		inv.Status = models.InvitationExpired
	}
	return inv, nil
}

func (s *Service) expireDue(ctx context.Context, list []*models.Invitation) ([]*models.Invitation, error) {
	for i, inv := range list {
		updated, err := s.expireIfDue(ctx, inv)
		if err != nil {
			return nil, err
		}
		list[i] = updated
	}
	return list, nil
}
