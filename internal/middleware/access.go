package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Hamayesh-Negar/Back-end/internal/access"
	"github.com/Hamayesh-Negar/Back-end/internal/models"
	"github.com/Hamayesh-Negar/Back-end/pkg/apperrors"
	"github.com/Hamayesh-Negar/Back-end/pkg/response"
)

const (
	// ContextMembership is the key for the caller's loaded conference
	// membership (may be absent for superusers).
	ContextMembership = "conference_membership"
	// ContextConferenceID is the key for the resolved conference ID.
	ContextConferenceID = "conference_id"
)

// MembershipLoader loads a membership with its role and permission
// overrides. Implemented by the memberships repository.
type MembershipLoader interface {
	GetMembership(ctx context.Context, conferenceID, userID uuid.UUID) (*models.Membership, error)
}

// ConferenceParam is the URL parameter carrying the conference ID.
const ConferenceParam = "id"

func currentUser(c *gin.Context) *models.User {
	idVal, ok := c.Get(ContextUserID)
	if !ok {
		return nil
	}
	su, _ := c.Get(ContextIsSuperuser)
	isSuper, _ := su.(bool)
	return &models.User{ID: idVal.(uuid.UUID), IsSuperuser: isSuper}
}

func resolveConferenceID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(ConferenceParam))
	if err != nil {
		response.BadRequest(c, "invalid conference id")
		c.Abort()
		return uuid.Nil, false
	}
	return id, true
}

func loadMembership(c *gin.Context, loader MembershipLoader, conferenceID uuid.UUID, user *models.User) (*models.Membership, bool) {
	m, err := loader.GetMembership(c.Request.Context(), conferenceID, user.ID)
	if err != nil {
		response.Internal(c, "failed to load membership")
		c.Abort()
		return nil, false
	}
	return m, true
}

func denyFor(c *gin.Context, d access.Decision) {
	switch d.Reason {
	case access.ReasonNotAuthenticated:
		response.Error(c, apperrors.AuthenticationRequired())
	case access.ReasonNotAMember:
		response.Error(c, apperrors.AccessDenied(apperrors.ReasonNotAMember, "You are not a member of this conference."))
	case access.ReasonSuspended:
		response.Error(c, apperrors.AccessDenied(apperrors.ReasonSuspended, "Membership suspended."))
	case access.ReasonInactive:
		response.Error(c, apperrors.AccessDenied(apperrors.ReasonInactive, "Membership inactive."))
	default:
		response.Error(c, apperrors.AccessDenied(apperrors.ReasonMissingPermission, "You don't have permission for this conference."))
	}
	c.Abort()
}

// RequirePermission gates a conference-scoped route on one permission
// codename, checking membership status before permissions.
func RequirePermission(loader MembershipLoader, codename string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if user == nil {
			response.Error(c, apperrors.AuthenticationRequired())
			c.Abort()
			return
		}
		conferenceID, ok := resolveConferenceID(c)
		if !ok {
			return
		}
		m, ok := loadMembership(c, loader, conferenceID, user)
		if !ok {
			return
		}
		if d := access.Check(user, m, codename); !d.Allowed {
			denyFor(c, d)
			return
		}
		c.Set(ContextConferenceID, conferenceID)
		if m != nil {
			c.Set(ContextMembership, m)
		}
		c.Next()
	}
}

// RequireMember gates a route on active membership only.
func RequireMember(loader MembershipLoader) gin.HandlerFunc {
	return requireRoleTypes(loader)
}

// RequireExecutive gates a route on an active executive membership
// (secretary, deputy or assistant).
func RequireExecutive(loader MembershipLoader) gin.HandlerFunc {
	return requireRoleTypes(loader, models.RoleSecretary, models.RoleDeputy, models.RoleAssistant)
}

// RequireSecretary gates a route on the conference secretary.
func RequireSecretary(loader MembershipLoader) gin.HandlerFunc {
	return requireRoleTypes(loader, models.RoleSecretary)
}

func requireRoleTypes(loader MembershipLoader, types ...models.RoleType) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if user == nil {
			response.Error(c, apperrors.AuthenticationRequired())
			c.Abort()
			return
		}
		conferenceID, ok := resolveConferenceID(c)
		if !ok {
			return
		}
		m, ok := loadMembership(c, loader, conferenceID, user)
		if !ok {
			return
		}
		var d access.Decision
		if len(types) == 0 {
			d = access.CheckStatus(user, m)
		} else {
			d = access.CheckRoleType(user, m, types...)
		}
		if !d.Allowed {
			denyFor(c, d)
			return
		}
		c.Set(ContextConferenceID, conferenceID)
		if m != nil {
			c.Set(ContextMembership, m)
		}
		c.Next()
	}
}
