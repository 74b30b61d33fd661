package invitations

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Hamayesh-Negar/Back-end/internal/middleware"
	"github.com/Hamayesh-Negar/Back-end/pkg/response"
)

// Handler serves invitation endpoints.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates an invitations handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func userID(c *gin.Context) uuid.UUID {
	return c.MustGet(middleware.ContextUserID).(uuid.UUID)
}

type createRequest struct {
	InvitedUserID      uuid.UUID   `json:"invited_user" binding:"required"`
	RoleID             uuid.UUID   `json:"role_id" binding:"required"`
	Message            string      `json:"message"`
	ExpiresAt          *time.Time  `json:"expires_at"`
	GrantPermissionIDs []uuid.UUID `json:"grant_permission_ids"`
}

// Create handles POST /api/v1/conferences/:id/invitations.
func (h *Handler) Create(c *gin.Context) {
	conferenceID := c.MustGet(middleware.ContextConferenceID).(uuid.UUID)
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	inv, err := h.service.Create(c.Request.Context(), conferenceID, CreateInput{
		InvitedUserID:      req.InvitedUserID,
		RoleID:             req.RoleID,
		Message:            req.Message,
		ExpiresAt:          req.ExpiresAt,
		GrantPermissionIDs: req.GrantPermissionIDs,
	}, userID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, inv)
}

// ListByConference handles GET /api/v1/conferences/:id/invitations.
func (h *Handler) ListByConference(c *gin.Context) {
	conferenceID := c.MustGet(middleware.ContextConferenceID).(uuid.UUID)
	list, err := h.service.ListByConference(c.Request.Context(), conferenceID)
	if err != nil {
		h.logger.Error("list invitations", zap.Error(err))
		response.Internal(c, "failed to list invitations")
		return
	}
	response.OK(c, list)
}

// ListMine handles GET /api/v1/invitations.
func (h *Handler) ListMine(c *gin.Context) {
	list, err := h.service.ListForUser(c.Request.Context(), userID(c))
	if err != nil {
		h.logger.Error("list user invitations", zap.Error(err))
		response.Internal(c, "failed to list invitations")
		return
	}
	response.OK(c, list)
}

func invitationParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("invitation_id"))
	if err != nil {
		response.BadRequest(c, "invalid invitation id")
		return uuid.Nil, false
	}
	return id, true
}

// Get handles GET /api/v1/invitations/:invitation_id.
func (h *Handler) Get(c *gin.Context) {
	id, ok := invitationParam(c)
	if !ok {
		return
	}
	inv, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, inv)
}

// Accept handles POST /api/v1/invitations/:invitation_id/accept.
func (h *Handler) Accept(c *gin.Context) {
	id, ok := invitationParam(c)
	if !ok {
		return
	}
	m, err := h.service.Accept(c.Request.Context(), id, userID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, m)
}

// Reject handles POST /api/v1/invitations/:invitation_id/reject.
func (h *Handler) Reject(c *gin.Context) {
	id, ok := invitationParam(c)
	if !ok {
		return
	}
	inv, err := h.service.Reject(c.Request.Context(), id, userID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, inv)
}

// ExpirePending handles POST /api/v1/invitations/maintenance/expire.
func (h *Handler) ExpirePending(c *gin.Context) {
	n, err := h.service.ExpirePending(c.Request.Context())
	if err != nil {
		h.logger.Error("expire invitations", zap.Error(err))
		response.Internal(c, "failed to expire invitations")
		return
	}
	response.OK(c, gin.H{"expired": n})
}

// ExpireForConference handles POST /api/v1/conferences/:id/invitations/expire.
func (h *Handler) ExpireForConference(c *gin.Context) {
	conferenceID := c.MustGet(middleware.ContextConferenceID).(uuid.UUID)
	n, err := h.service.ExpirePendingFor(c.Request.Context(), conferenceID)
	if err != nil {
		h.logger.Error("expire invitations", zap.Error(err))
		response.Internal(c, "failed to expire invitations")
		return
	}
	response.OK(c, gin.H{"expired": n})
}
