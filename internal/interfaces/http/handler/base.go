package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopmirror/backend/internal/domain/shared"
	"github.com/shopmirror/backend/internal/domain/sync"
	"github.com/shopmirror/backend/internal/interfaces/http/dto"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// parseTenantID parses the tenant ID path parameter
func parseTenantID(c *gin.Context) (uuid.UUID, error) {
	return uuid.Parse(c.Param("tenant_id"))
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Accepted sends a 202 response for work that was enqueued, not executed
func (h *BaseHandler) Accepted(c *gin.Context, data any) {
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(data))
}

// Error sends an error response
func (h *BaseHandler) Error(c *gin.Context, code, message string) {
	c.JSON(dto.GetHTTPStatus(code), dto.NewErrorResponse(code, message))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, dto.ErrCodeBadRequest, message)
}

// HandleError maps domain errors to HTTP responses
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound), errors.Is(err, sync.ErrStateNotFound):
		h.Error(c, dto.ErrCodeNotFound, "Resource not found")
	case errors.Is(err, sync.ErrInvalidEntityType):
		h.Error(c, dto.ErrCodeBadRequest, "Unknown entity type")
	case errors.Is(err, sync.ErrLockNotAcquired):
		h.Error(c, dto.ErrCodeConflict, "A sync is already running for this entity type")
	case errors.Is(err, sync.ErrQuarantined):
		h.Error(c, dto.ErrCodeQuarantined, "Sync is quarantined after repeated failures; reset required")
	case errors.Is(err, shared.ErrTenantInactive):
		h.Error(c, dto.ErrCodeTenantInactive, "Tenant is not active")
	case errors.Is(err, sync.ErrQueueUnavailable):
		h.Error(c, dto.ErrCodeUnavailable, "Job queue is unavailable")
	default:
		h.Error(c, dto.ErrCodeInternal, "An unexpected error occurred")
	}
}
