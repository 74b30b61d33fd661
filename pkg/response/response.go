package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Hamayesh-Negar/Back-end/pkg/apperrors"
)

// Body is the standard API response envelope.
type Body struct {
	Success   bool             `json:"success"`
	Data      interface{}      `json:"data,omitempty"`
	Error     string           `json:"error,omitempty"`
	ErrorKind string           `json:"error_kind,omitempty"`
	Detail    *apperrors.Error `json:"error_detail,omitempty"`
	Warning   string           `json:"warning,omitempty"`
}

// OK sends a 200 JSON response with data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Body{Success: true, Data: data})
}

// Created sends a 201 JSON response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Body{Success: true, Data: data})
}

// CreatedWithWarning sends 201 with data plus a non-fatal warning.
func CreatedWithWarning(c *gin.Context, data interface{}, warning string) {
	c.JSON(http.StatusCreated, Body{Success: true, Data: data, Warning: warning})
}

// NoContent sends 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// BadRequest sends 400 with error message.
func BadRequest(c *gin.Context, err string) {
	c.JSON(http.StatusBadRequest, Body{Success: false, Error: err})
}

// Unauthorized sends 401.
func Unauthorized(c *gin.Context, err string) {
	c.JSON(http.StatusUnauthorized, Body{Success: false, Error: err})
}

// Forbidden sends 403.
func Forbidden(c *gin.Context, err string) {
	c.JSON(http.StatusForbidden, Body{Success: false, Error: err})
}

// NotFound sends 404.
func NotFound(c *gin.Context, err string) {
	c.JSON(http.StatusNotFound, Body{Success: false, Error: err})
}

// Conflict sends 409.
func Conflict(c *gin.Context, err string) {
	c.JSON(http.StatusConflict, Body{Success: false, Error: err})
}

// Internal sends 500.
func Internal(c *gin.Context, err string) {
	c.JSON(http.StatusInternalServerError, Body{Success: false, Error: err})
}

// Error maps a typed application error to its HTTP status and writes the
// structured envelope. Unknown errors become a 500 without leaking detail.
func Error(c *gin.Context, err error) {
	appErr := apperrors.AsError(err)
	if appErr == nil {
		Internal(c, "internal error")
		return
	}
	status := statusFor(appErr)
	c.JSON(status, Body{
		Success:   false,
		Error:     appErr.Message,
		ErrorKind: string(appErr.Kind),
		Detail:    appErr,
	})
}

func statusFor(e *apperrors.Error) int {
	switch e.Kind {
	case apperrors.KindAuthenticationRequired:
		return http.StatusUnauthorized
	case apperrors.KindAccessDenied:
		return http.StatusForbidden
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindCapacityExceeded,
		apperrors.KindUniquenessViolation,
		apperrors.KindInvalidStateTransition:
		return http.StatusConflict
	case apperrors.KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
