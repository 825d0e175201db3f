package sync

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopmirror/backend/internal/domain/sync"
)

// EntityStatus is the dashboard view of one (tenant, entity type) state row
type EntityStatus struct {
	EntityType          sync.EntityType `json:"entity_type"`
	Status              sync.Status     `json:"status"`
	IsLocked            bool            `json:"is_locked"`
	IsQuarantined       bool            `json:"is_quarantined"`
	LastCursor          string          `json:"last_cursor,omitempty"`
	LastSyncedID        string          `json:"last_synced_id,omitempty"`
	ConsecutiveFailures int             `json:"consecutive_failures"`
	LastError           string          `json:"last_error,omitempty"`
	LastStartedAt       *time.Time      `json:"last_started_at,omitempty"`
	LastCompletedAt     *time.Time      `json:"last_completed_at,omitempty"`
	LastFailedAt        *time.Time      `json:"last_failed_at,omitempty"`
	TotalRecordsSynced  int64           `json:"total_records_synced"`
	LastRunRecords      int64           `json:"last_run_records"`
}

// TenantSyncStatus is the aggregate dashboard view for one tenant
type TenantSyncStatus struct {
	TenantID      uuid.UUID      `json:"tenant_id"`
	TenantName    string         `json:"tenant_name"`
	LastSyncAt    *time.Time     `json:"last_sync_at,omitempty"`
	IsAnyRunning  bool           `json:"is_any_running"`
	HasErrors     bool           `json:"has_errors"`
	CustomerCount int64          `json:"customer_count"`
	ProductCount  int64          `json:"product_count"`
	OrderCount    int64          `json:"order_count"`
	Entities      []EntityStatus `json:"entities"`
}

func entityStatusFromState(s *sync.State, maxFailures int) EntityStatus {
	return EntityStatus{
		EntityType:          s.EntityType,
		Status:              s.Status,
		IsLocked:            s.IsLocked,
		IsQuarantined:       s.IsQuarantined(maxFailures),
		LastCursor:          s.LastCursor,
		LastSyncedID:        s.LastSyncedID,
		ConsecutiveFailures: s.ConsecutiveFailures,
		LastError:           s.LastError,
		LastStartedAt:       s.LastStartedAt,
		LastCompletedAt:     s.LastCompletedAt,
		LastFailedAt:        s.LastFailedAt,
		TotalRecordsSynced:  s.TotalRecordsSynced,
		LastRunRecords:      s.LastRunRecords,
	}
}
