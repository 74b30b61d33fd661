package tasks

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Hamayesh-Negar/Back-end/internal/middleware"
	"github.com/Hamayesh-Negar/Back-end/internal/models"
	"github.com/Hamayesh-Negar/Back-end/pkg/response"
)

// Handler serves task and assignment endpoints.
type Handler struct {
	service *Service
	repo    *Repository
	logger  *zap.Logger
}

// NewHandler creates a tasks handler.
func NewHandler(service *Service, repo *Repository, logger *zap.Logger) *Handler {
	return &Handler{service: service, repo: repo, logger: logger}
}

func conferenceID(c *gin.Context) uuid.UUID {
	return c.MustGet(middleware.ContextConferenceID).(uuid.UUID)
}

func taskParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("task_id"))
	if err != nil {
		response.BadRequest(c, "invalid task id")
		return uuid.Nil, false
	}
	return id, true
}

type createRequest struct {
	Name        string     `json:"name" binding:"required"`
	Description string     `json:"description"`
	IsRequired  bool       `json:"is_required"`
	StartAt     *time.Time `json:"start_at"`
	DueAt       *time.Time `json:"due_at"`
	OrderIndex  int        `json:"order"`
}

// Create handles POST /api/v1/conferences/:id/tasks.
func (h *Handler) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	t, err := h.service.Create(c.Request.Context(), conferenceID(c), CreateInput{
		Name:        req.Name,
		Description: req.Description,
		IsRequired:  req.IsRequired,
		StartAt:     req.StartAt,
		DueAt:       req.DueAt,
		OrderIndex:  req.OrderIndex,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, t)
}

// List handles GET /api/v1/conferences/:id/tasks.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.ListByConference(c.Request.Context(), conferenceID(c))
	if err != nil {
		h.logger.Error("list tasks", zap.Error(err))
		response.Internal(c, "failed to list tasks")
		return
	}
	response.OK(c, list)
}

// Get handles GET /api/v1/conferences/:id/tasks/:task_id.
func (h *Handler) Get(c *gin.Context) {
	taskID, ok := taskParam(c)
	if !ok {
		return
	}
	t, err := h.service.Get(c.Request.Context(), conferenceID(c), taskID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, t)
}

type updateRequest struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	IsRequired  *bool      `json:"is_required"`
	IsActive    *bool      `json:"is_active"`
	StartAt     *time.Time `json:"start_at"`
	DueAt       *time.Time `json:"due_at"`
	OrderIndex  *int       `json:"order"`
}

// Update handles PATCH /api/v1/conferences/:id/tasks/:task_id.
func (h *Handler) Update(c *gin.Context) {
	taskID, ok := taskParam(c)
	if !ok {
		return
	}
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	t, err := h.service.Update(c.Request.Context(), conferenceID(c), taskID, UpdateInput{
		Name:        req.Name,
		Description: req.Description,
		IsRequired:  req.IsRequired,
		IsActive:    req.IsActive,
		StartAt:     req.StartAt,
		DueAt:       req.DueAt,
		OrderIndex:  req.OrderIndex,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, t)
}

// Delete handles DELETE /api/v1/conferences/:id/tasks/:task_id.
func (h *Handler) Delete(c *gin.Context) {
	taskID, ok := taskParam(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), conferenceID(c), taskID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

type reorderRequest struct {
	TaskIDs []uuid.UUID `json:"task_ids" binding:"required"`
}

// Reorder handles PUT /api/v1/conferences/:id/tasks/order.
func (h *Handler) Reorder(c *gin.Context) {
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.service.Reorder(c.Request.Context(), conferenceID(c), req.TaskIDs); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"ordered": len(req.TaskIDs)})
}

type bulkRequest struct {
	PersonIDs []uuid.UUID `json:"person_ids" binding:"required"`
}

// BulkAssign handles POST /api/v1/conferences/:id/tasks/:task_id/assign.
func (h *Handler) BulkAssign(c *gin.Context) {
	taskID, ok := taskParam(c)
	if !ok {
		return
	}
	var req bulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	created, err := h.service.BulkAssign(c.Request.Context(), conferenceID(c), taskID, req.PersonIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"assigned": created, "skipped": len(req.PersonIDs) - created})
}

// BulkUnassign handles POST /api/v1/conferences/:id/tasks/:task_id/unassign.
func (h *Handler) BulkUnassign(c *gin.Context) {
	taskID, ok := taskParam(c)
	if !ok {
		return
	}
	var req bulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	removed, err := h.service.BulkUnassign(c.Request.Context(), conferenceID(c), taskID, req.PersonIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"unassigned": removed})
}

// ListAssignments handles GET /api/v1/conferences/:id/tasks/:task_id/assignments.
func (h *Handler) ListAssignments(c *gin.Context) {
	taskID, ok := taskParam(c)
	if !ok {
		return
	}
	if _, err := h.service.Get(c.Request.Context(), conferenceID(c), taskID); err != nil {
		response.Error(c, err)
		return
	}
	list, err := h.repo.ListAssignmentsByTask(c.Request.Context(), taskID)
	if err != nil {
		h.logger.Error("list assignments", zap.Error(err))
		response.Internal(c, "failed to list assignments")
		return
	}
	response.OK(c, list)
}

type assignmentStatusRequest struct {
	Status models.PersonTaskStatus `json:"status" binding:"required"`
	Notes  string                  `json:"notes"`
}

// UpdateAssignmentStatus handles PATCH /api/v1/conferences/:id/assignments/:assignment_id.
func (h *Handler) UpdateAssignmentStatus(c *gin.Context) {
	assignmentID, err := uuid.Parse(c.Param("assignment_id"))
	if err != nil {
		response.BadRequest(c, "invalid assignment id")
		return
	}
	var req assignmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	actorID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	a, err := h.service.UpdateAssignmentStatus(c.Request.Context(), conferenceID(c), assignmentID, req.Status, req.Notes, actorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, a)
}

// CompletionStats handles GET /api/v1/conferences/:id/tasks/:task_id/stats.
func (h *Handler) CompletionStats(c *gin.Context) {
	taskID, ok := taskParam(c)
	if !ok {
		return
	}
	stats, err := h.service.CompletionStats(c.Request.Context(), conferenceID(c), taskID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, stats)
}
