package memberships

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Hamayesh-Negar/Back-end/internal/middleware"
	"github.com/Hamayesh-Negar/Back-end/internal/models"
	"github.com/Hamayesh-Negar/Back-end/pkg/response"
)

// Handler serves conference membership endpoints.
type Handler struct {
	service *Service
	repo    *Repository
	logger  *zap.Logger
}

// NewHandler creates a memberships handler.
func NewHandler(service *Service, repo *Repository, logger *zap.Logger) *Handler {
	return &Handler{service: service, repo: repo, logger: logger}
}

func actor(c *gin.Context) *models.User {
	id, ok := c.Get(middleware.ContextUserID)
	if !ok {
		return nil
	}
	su, _ := c.Get(middleware.ContextIsSuperuser)
	isSuper, _ := su.(bool)
	return &models.User{ID: id.(uuid.UUID), IsSuperuser: isSuper}
}

func conferenceID(c *gin.Context) uuid.UUID {
	return c.MustGet(middleware.ContextConferenceID).(uuid.UUID)
}

func memberParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("member_id"))
	if err != nil {
		response.BadRequest(c, "invalid member id")
		return uuid.Nil, false
	}
	return id, true
}

// List handles GET /api/v1/conferences/:id/members.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context(), conferenceID(c))
	if err != nil {
		h.logger.Error("list members", zap.Error(err))
		response.Internal(c, "failed to list members")
		return
	}
	response.OK(c, list)
}

// Get handles GET /api/v1/conferences/:id/members/:member_id.
func (h *Handler) Get(c *gin.Context) {
	memberID, ok := memberParam(c)
	if !ok {
		return
	}
	m, err := h.repo.GetByID(c.Request.Context(), memberID)
	if err != nil {
		h.logger.Error("get member", zap.Error(err))
		response.Internal(c, "failed to load member")
		return
	}
	if m == nil || m.ConferenceID != conferenceID(c) {
		response.NotFound(c, "membership not found")
		return
	}
	response.OK(c, m)
}

type createRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
	RoleID uuid.UUID `json:"role_id" binding:"required"`
}

// Create handles POST /api/v1/conferences/:id/members.
func (h *Handler) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	m, err := h.service.Create(c.Request.Context(), conferenceID(c), req.UserID, req.RoleID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, m)
}

// Remove handles DELETE /api/v1/conferences/:id/members/:member_id.
func (h *Handler) Remove(c *gin.Context) {
	memberID, ok := memberParam(c)
	if !ok {
		return
	}
	if err := h.service.Remove(c.Request.Context(), conferenceID(c), memberID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

type statusRequest struct {
	Status models.MembershipStatus `json:"status" binding:"required"`
}

// UpdateStatus handles PATCH /api/v1/conferences/:id/members/:member_id/status.
func (h *Handler) UpdateStatus(c *gin.Context) {
	memberID, ok := memberParam(c)
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	m, err := h.service.UpdateStatus(c.Request.Context(), conferenceID(c), memberID, req.Status, actor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, m)
}

type permissionsRequest struct {
	Grant        []string `json:"grant"`
	Revoke       []string `json:"revoke"`
	RemoveDirect []string `json:"remove_direct"`
	Reason       string   `json:"reason"`
}

// UpdatePermissions handles PUT /api/v1/conferences/:id/members/:member_id/permissions.
func (h *Handler) UpdatePermissions(c *gin.Context) {
	memberID, ok := memberParam(c)
	if !ok {
		return
	}
	var req permissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	m, err := h.service.UpdatePermissions(c.Request.Context(), conferenceID(c), memberID, PermissionUpdate{
		Grant:        req.Grant,
		Revoke:       req.Revoke,
		RemoveDirect: req.RemoveDirect,
		Reason:       req.Reason,
	}, actor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, m)
}
