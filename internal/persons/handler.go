package persons

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Hamayesh-Negar/Back-end/internal/middleware"
	"github.com/Hamayesh-Negar/Back-end/pkg/response"
)

// Handler serves attendee endpoints.
type Handler struct {
	service *Service
	repo    *Repository
	logger  *zap.Logger
}

// NewHandler creates a persons handler.
func NewHandler(service *Service, repo *Repository, logger *zap.Logger) *Handler {
	return &Handler{service: service, repo: repo, logger: logger}
}

func conferenceID(c *gin.Context) uuid.UUID {
	return c.MustGet(middleware.ContextConferenceID).(uuid.UUID)
}

func personParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("person_id"))
	if err != nil {
		response.BadRequest(c, "invalid person id")
		return uuid.Nil, false
	}
	return id, true
}

type createRequest struct {
	FirstName   string      `json:"first_name"`
	LastName    string      `json:"last_name"`
	Email       string      `json:"email"`
	Telephone   string      `json:"telephone"`
	CategoryIDs []uuid.UUID `json:"categories"`
}

// Create handles POST /api/v1/conferences/:id/persons.
func (h *Handler) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	registeredBy := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	p, err := h.service.Create(c.Request.Context(), conferenceID(c), CreateInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Telephone:   req.Telephone,
		CategoryIDs: req.CategoryIDs,
	}, registeredBy)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, p)
}

// List handles GET /api/v1/conferences/:id/persons.
func (h *Handler) List(c *gin.Context) {
	filter := ListFilter{
		ActiveOnly: c.Query("active") == "true",
		Search:     c.Query("search"),
	}
	if raw := c.Query("category"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "invalid category id")
			return
		}
		filter.CategoryID = &id
	}
	list, err := h.repo.ListByConference(c.Request.Context(), conferenceID(c), filter)
	if err != nil {
		h.logger.Error("list persons", zap.Error(err))
		response.Internal(c, "failed to list attendees")
		return
	}
	response.OK(c, list)
}

// Get handles GET /api/v1/conferences/:id/persons/:person_id.
func (h *Handler) Get(c *gin.Context) {
	personID, ok := personParam(c)
	if !ok {
		return
	}
	p, err := h.service.Get(c.Request.Context(), conferenceID(c), personID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, p)
}

type updateRequest struct {
	FirstName   *string      `json:"first_name"`
	LastName    *string      `json:"last_name"`
	Email       *string      `json:"email"`
	Telephone   *string      `json:"telephone"`
	IsActive    *bool        `json:"is_active"`
	CategoryIDs *[]uuid.UUID `json:"categories"`
}

// Update handles PATCH /api/v1/conferences/:id/persons/:person_id.
func (h *Handler) Update(c *gin.Context) {
	personID, ok := personParam(c)
	if !ok {
		return
	}
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	p, err := h.service.Update(c.Request.Context(), conferenceID(c), personID, UpdateInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Telephone:   req.Telephone,
		IsActive:    req.IsActive,
		CategoryIDs: req.CategoryIDs,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, p)
}

// Delete handles DELETE /api/v1/conferences/:id/persons/:person_id.
func (h *Handler) Delete(c *gin.Context) {
	personID, ok := personParam(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), conferenceID(c), personID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Scan handles GET /api/v1/conferences/:id/persons/scan/:hashed_code.
// Badge scanners submit the SHA-256 of the attendee code; the raw code
// never travels over the wire.
func (h *Handler) Scan(c *gin.Context) {
	hashed := c.Param("hashed_code")
	if hashed == "" {
		response.BadRequest(c, "missing hashed code")
		return
	}
	p, err := h.service.Scan(c.Request.Context(), hashed)
	if err != nil {
		response.Error(c, err)
		return
	}
	if p.ConferenceID != conferenceID(c) {
		response.NotFound(c, "person not found")
		return
	}
	response.OK(c, p)
}
