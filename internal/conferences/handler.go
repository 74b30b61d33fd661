package conferences

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Hamayesh-Negar/Back-end/internal/middleware"
	"github.com/Hamayesh-Negar/Back-end/pkg/response"
)

// Handler serves conference endpoints.
type Handler struct {
	service *Service
	repo    *Repository
	logger  *zap.Logger
}

// NewHandler creates a conferences handler.
func NewHandler(service *Service, repo *Repository, logger *zap.Logger) *Handler {
	return &Handler{service: service, repo: repo, logger: logger}
}

const dateLayout = "2006-01-02"

type createRequest struct {
	Name                  string `json:"name" binding:"required"`
	Description           string `json:"description"`
	StartDate             string `json:"start_date" binding:"required"`
	EndDate               string `json:"end_date" binding:"required"`
	MaxMembers            int    `json:"max_members"`
	MaxExecutives         int    `json:"max_executives"`
	EnableCategorization  bool   `json:"enable_categorization"`
	MaxTasksPerConference int    `json:"max_tasks_per_conference"`
	MaxTasksPerUser       int    `json:"max_tasks_per_user"`
}

// Create handles POST /api/v1/conferences.
func (h *Handler) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		response.BadRequest(c, "start_date must be YYYY-MM-DD")
		return
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		response.BadRequest(c, "end_date must be YYYY-MM-DD")
		return
	}
	creatorID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	conf, warning, err := h.service.Create(c.Request.Context(), CreateInput{
		Name:                  req.Name,
		Description:           req.Description,
		StartDate:             start,
		EndDate:               end,
		MaxMembers:            req.MaxMembers,
		MaxExecutives:         req.MaxExecutives,
		EnableCategorization:  req.EnableCategorization,
		MaxTasksPerConference: req.MaxTasksPerConference,
		MaxTasksPerUser:       req.MaxTasksPerUser,
	}, creatorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if warning != "" {
		response.CreatedWithWarning(c, conf, warning)
		return
	}
	response.Created(c, conf)
}

// List handles GET /api/v1/conferences. Non-superusers see active
// conferences only.
func (h *Handler) List(c *gin.Context) {
	activeOnly := true
	if su, ok := c.Get(middleware.ContextIsSuperuser); ok && su.(bool) && c.Query("all") == "true" {
		activeOnly = false
	}
	list, err := h.repo.List(c.Request.Context(), activeOnly)
	if err != nil {
		h.logger.Error("list conferences", zap.Error(err))
		response.Internal(c, "failed to list conferences")
		return
	}
	response.OK(c, list)
}

// Get handles GET /api/v1/conferences/:id.
func (h *Handler) Get(c *gin.Context) {
	id := c.MustGet(middleware.ContextConferenceID).(uuid.UUID)
	conf, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, conf)
}

// GetBySlug handles GET /api/v1/conferences/slug/:slug.
func (h *Handler) GetBySlug(c *gin.Context) {
	conf, err := h.service.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, conf)
}

type updateRequest struct {
	Name                  *string `json:"name"`
	Description           *string `json:"description"`
	StartDate             *string `json:"start_date"`
	EndDate               *string `json:"end_date"`
	IsActive              *bool   `json:"is_active"`
	MaxMembers            *int    `json:"max_members"`
	MaxExecutives         *int    `json:"max_executives"`
	EnableCategorization  *bool   `json:"enable_categorization"`
	MaxTasksPerConference *int    `json:"max_tasks_per_conference"`
	MaxTasksPerUser       *int    `json:"max_tasks_per_user"`
}

// Update handles PATCH /api/v1/conferences/:id.
func (h *Handler) Update(c *gin.Context) {
	id := c.MustGet(middleware.ContextConferenceID).(uuid.UUID)
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	in := UpdateInput{
		Name:                  req.Name,
		Description:           req.Description,
		IsActive:              req.IsActive,
		MaxMembers:            req.MaxMembers,
		MaxExecutives:         req.MaxExecutives,
		EnableCategorization:  req.EnableCategorization,
		MaxTasksPerConference: req.MaxTasksPerConference,
		MaxTasksPerUser:       req.MaxTasksPerUser,
	}
	if req.StartDate != nil {
		t, err := time.Parse(dateLayout, *req.StartDate)
		if err != nil {
			response.BadRequest(c, "start_date must be YYYY-MM-DD")
			return
		}
		in.StartDate = &t
	}
	if req.EndDate != nil {
		t, err := time.Parse(dateLayout, *req.EndDate)
		if err != nil {
			response.BadRequest(c, "end_date must be YYYY-MM-DD")
			return
		}
		in.EndDate = &t
	}
	conf, err := h.service.Update(c.Request.Context(), id, in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, conf)
}

// Delete handles DELETE /api/v1/conferences/:id.
func (h *Handler) Delete(c *gin.Context) {
	id := c.MustGet(middleware.ContextConferenceID).(uuid.UUID)
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Statistics handles GET /api/v1/conferences/:id/statistics.
func (h *Handler) Statistics(c *gin.Context) {
	id := c.MustGet(middleware.ContextConferenceID).(uuid.UUID)
	stats, err := h.repo.Statistics(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("conference statistics", zap.Error(err))
		response.Internal(c, "failed to compute statistics")
		return
	}
	response.OK(c, stats)
}

// ListPermissions handles GET /api/v1/permissions.
func (h *Handler) ListPermissions(c *gin.Context) {
	perms, err := h.repo.ListPermissions(c.Request.Context())
	if err != nil {
		h.logger.Error("list permissions", zap.Error(err))
		response.Internal(c, "failed to list permissions")
		return
	}
	response.OK(c, perms)
}

// ListRoles handles GET /api/v1/conferences/:id/roles.
func (h *Handler) ListRoles(c *gin.Context) {
	id := c.MustGet(middleware.ContextConferenceID).(uuid.UUID)
	roles, err := h.repo.ListRoles(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("list roles", zap.Error(err))
		response.Internal(c, "failed to list roles")
		return
	}
	response.OK(c, roles)
}

type rolePermissionsRequest struct {
	PermissionIDs []uuid.UUID `json:"permission_ids" binding:"required"`
}

// SetRolePermissions handles PUT /api/v1/conferences/:id/roles/:role_id/permissions.
func (h *Handler) SetRolePermissions(c *gin.Context) {
	conferenceID := c.MustGet(middleware.ContextConferenceID).(uuid.UUID)
	roleID, err := uuid.Parse(c.Param("role_id"))
	if err != nil {
		response.BadRequest(c, "invalid role id")
		return
	}
	var req rolePermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	role, err := h.repo.GetRole(c.Request.Context(), roleID)
	if err != nil {
		h.logger.Error("get role", zap.Error(err))
		response.Internal(c, "failed to load role")
		return
	}
	if role == nil || role.ConferenceID != conferenceID {
		response.NotFound(c, "role not found")
		return
	}
	if err := h.repo.SetRolePermissions(c.Request.Context(), roleID, req.PermissionIDs); err != nil {
		h.logger.Error("set role permissions", zap.Error(err))
		response.Internal(c, "failed to update role permissions")
		return
	}
	updated, err := h.repo.GetRole(c.Request.Context(), roleID)
	if err != nil {
		h.logger.Error("get role", zap.Error(err))
		response.Internal(c, "failed to load role")
		return
	}
	response.OK(c, updated)
}

// DeactivateEnded handles POST /api/v1/conferences/maintenance/deactivate-ended.
func (h *Handler) DeactivateEnded(c *gin.Context) {
	n, err := h.service.DeactivateEnded(c.Request.Context())
	if err != nil {
		h.logger.Error("deactivate ended", zap.Error(err))
		response.Internal(c, "failed to deactivate ended conferences")
		return
	}
	response.OK(c, gin.H{"deactivated": n})
}
