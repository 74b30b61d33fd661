package reports

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Hamayesh-Negar/Back-end/internal/middleware"
	"github.com/Hamayesh-Negar/Back-end/pkg/response"
)

// Handler serves report endpoints.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a reports handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// TaskCompletion handles POST /api/v1/conferences/:id/reports/task-completion.
func (h *Handler) TaskCompletion(c *gin.Context) {
	conferenceID := c.MustGet(middleware.ContextConferenceID).(uuid.UUID)
	export, err := h.service.TaskCompletionCSV(c.Request.Context(), conferenceID)
	if err != nil {
		h.logger.Error("task completion report", zap.Error(err))
		response.Internal(c, "failed to generate report")
		return
	}
	response.OK(c, export)
}
