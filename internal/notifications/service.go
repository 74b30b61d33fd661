// Package notifications publishes push notification jobs for membership
// and invitation events. Delivery is best effort: enqueue failures are
// logged, never surfaced to the triggering operation.
package notifications

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Hamayesh-Negar/Back-end/internal/models"
	"github.com/Hamayesh-Negar/Back-end/pkg/queue"
)

// TokenLister returns a user's registered device tokens. Implemented by
// the auth repository.
type TokenLister interface {
	ListDeviceTokens(ctx context.Context, userID uuid.UUID) ([]string, error)
}

// Enqueuer pushes notification jobs onto the worker queue.
type Enqueuer interface {
	EnqueuePush(ctx context.Context, payload queue.PushPayload) error
}

// Service builds and enqueues push notification jobs.
type Service struct {
	queue  Enqueuer
	tokens TokenLister
	logger *zap.Logger
}

// NewService creates a notifications service.
func NewService(q Enqueuer, tokens TokenLister, logger *zap.Logger) *Service {
	return &Service{queue: q, tokens: tokens, logger: logger}
}

// InvitationCreated notifies the invitee about a new invitation.
func (s *Service) InvitationCreated(ctx context.Context, inv *models.Invitation) {
	s.push(ctx, inv.InvitedUserID,
		"Conference invitation",
		"You have been invited to join a conference.",
		map[string]string{
			"event":         "invitation_created",
			"invitation_id": inv.ID.String(),
			"conference_id": inv.ConferenceID.String(),
		})
}

// PermissionsUpdated notifies a member that their direct permissions
// changed.
func (s *Service) PermissionsUpdated(ctx context.Context, conferenceID, userID uuid.UUID) {
	s.push(ctx, userID,
		"Permissions updated",
		"Your conference permissions have changed.",
		map[string]string{
			"event":         "permissions_updated",
			"conference_id": conferenceID.String(),
		})
}

// MembershipRemoved notifies a user that they were removed from a
// conference.
func (s *Service) MembershipRemoved(ctx context.Context, conferenceID, userID uuid.UUID) {
	s.push(ctx, userID,
		"Membership removed",
		"You are no longer a member of this conference.",
		map[string]string{
			"event":         "membership_removed",
			"conference_id": conferenceID.String(),
		})
}

func (s *Service) push(ctx context.Context, userID uuid.UUID, title, body string, data map[string]string) {
	tokens, err := s.tokens.ListDeviceTokens(ctx, userID)
	if err != nil {
		s.logger.Warn("listing device tokens failed",
			zap.String("user_id", userID.String()), zap.Error(err))
		return
	}
	if len(tokens) == 0 {
		return
	}
	err = s.queue.EnqueuePush(ctx, queue.PushPayload{
		UserID: userID,
		Tokens: tokens,
		Title:  title,
		Body:   body,
		Data:   data,
	})
	if err != nil {
		s.logger.Warn("enqueueing push notification failed",
			zap.String("user_id", userID.String()), zap.Error(err))
	}
}
