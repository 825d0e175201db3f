package handler

import (
	"github.com/gin-gonic/gin"
	appsync "github.com/shopmirror/backend/internal/application/sync"
	"github.com/shopmirror/backend/internal/domain/sync"
)

// SyncHandler exposes the sync trigger and dashboard endpoints
type SyncHandler struct {
	BaseHandler
	triggers *appsync.TriggerService
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(triggers *appsync.TriggerService) *SyncHandler {
	return &SyncHandler{triggers: triggers}
}

// RegisterRoutes registers the sync routes
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	tenants := rg.Group("/tenants/:tenant_id/sync")
	{
		tenants.GET("/status", h.Status)
		tenants.POST("/initial", h.TriggerInitial)
		tenants.POST("/reset", h.ResetAll)
		tenants.POST("/:entity_type", h.Trigger)
		tenants.POST("/:entity_type/reset", h.ResetEntity)
	}
}

// Status returns the sync dashboard for a tenant
func (h *SyncHandler) Status(c *gin.Context) {
	tenantID, err := parseTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	status, err := h.triggers.Status(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, status)
}

// Trigger enqueues an incremental sync for one entity type
func (h *SyncHandler) Trigger(c *gin.Context) {
	tenantID, err := parseTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	entityType := sync.EntityType(c.Param("entity_type"))

	job, err := h.triggers.TriggerSync(c.Request.Context(), tenantID, entityType)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Accepted(c, job)
}

// TriggerInitial resets sync state and enqueues a full walk of every
// entity type
func (h *SyncHandler) TriggerInitial(c *gin.Context) {
	tenantID, err := parseTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	jobs, err := h.triggers.TriggerInitialSync(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Accepted(c, jobs)
}

// ResetEntity clears quarantine and progress for one entity type
func (h *SyncHandler) ResetEntity(c *gin.Context) {
	tenantID, err := parseTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	entityType := sync.EntityType(c.Param("entity_type"))

	if err := h.triggers.ResetEntity(c.Request.Context(), tenantID, entityType); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"reset": entityType})
}

// ResetAll clears quarantine and progress for every entity type
func (h *SyncHandler) ResetAll(c *gin.Context) {
	tenantID, err := parseTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	if err := h.triggers.ResetAll(c.Request.Context(), tenantID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"reset": "all"})
}
