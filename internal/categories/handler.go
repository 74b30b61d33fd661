package categories

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Hamayesh-Negar/Back-end/internal/middleware"
	"github.com/Hamayesh-Negar/Back-end/pkg/response"
)

// Handler serves category endpoints.
type Handler struct {
	service *Service
	repo    *Repository
	logger  *zap.Logger
}

// NewHandler creates a categories handler.
func NewHandler(service *Service, repo *Repository, logger *zap.Logger) *Handler {
	return &Handler{service: service, repo: repo, logger: logger}
}

func conferenceID(c *gin.Context) uuid.UUID {
	return c.MustGet(middleware.ContextConferenceID).(uuid.UUID)
}

func categoryParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("category_id"))
	if err != nil {
		response.BadRequest(c, "invalid category id")
		return uuid.Nil, false
	}
	return id, true
}

type createRequest struct {
	Name        string      `json:"name" binding:"required"`
	Description string      `json:"description"`
	TaskIDs     []uuid.UUID `json:"auto_assign_tasks"`
}

// Create handles POST /api/v1/conferences/:id/categories.
func (h *Handler) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	cat, err := h.service.Create(c.Request.Context(), conferenceID(c), req.Name, req.Description, req.TaskIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, cat)
}

// List handles GET /api/v1/conferences/:id/categories.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.ListByConference(c.Request.Context(), conferenceID(c))
	if err != nil {
		h.logger.Error("list categories", zap.Error(err))
		response.Internal(c, "failed to list categories")
		return
	}
	response.OK(c, list)
}

// Get handles GET /api/v1/conferences/:id/categories/:category_id.
func (h *Handler) Get(c *gin.Context) {
	categoryID, ok := categoryParam(c)
	if !ok {
		return
	}
	cat, err := h.service.Get(c.Request.Context(), conferenceID(c), categoryID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, cat)
}

type updateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// Update handles PATCH /api/v1/conferences/:id/categories/:category_id.
func (h *Handler) Update(c *gin.Context) {
	categoryID, ok := categoryParam(c)
	if !ok {
		return
	}
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	cat, err := h.service.Update(c.Request.Context(), conferenceID(c), categoryID, req.Name, req.Description)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, cat)
}

// Delete handles DELETE /api/v1/conferences/:id/categories/:category_id.
func (h *Handler) Delete(c *gin.Context) {
	categoryID, ok := categoryParam(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), conferenceID(c), categoryID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

type setTasksRequest struct {
	TaskIDs []uuid.UUID `json:"task_ids"`
}

// SetTasks handles PUT /api/v1/conferences/:id/categories/:category_id/tasks.
func (h *Handler) SetTasks(c *gin.Context) {
	categoryID, ok := categoryParam(c)
	if !ok {
		return
	}
	var req setTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	created, err := h.service.SetTasks(c.Request.Context(), conferenceID(c), categoryID, req.TaskIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"assignments_created": created})
}
