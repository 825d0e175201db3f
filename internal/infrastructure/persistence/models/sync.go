package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopmirror/backend/internal/domain/sync"
)

// SyncStateModel is the persistence model for the sync.State entity.
// One row per (tenant_id, entity_type); the composite unique index is what
// the conditional lock update races on.
type SyncStateModel struct {
	TenantID   uuid.UUID       `gorm:"type:uuid;primaryKey"`
	EntityType sync.EntityType `gorm:"type:varchar(20);primaryKey"`

	Status sync.Status `gorm:"type:varchar(20);not null;default:'idle'"`

	IsLocked      bool       `gorm:"not null;default:false"`
	LockedAt      *time.Time `gorm:""`
	LockExpiresAt *time.Time `gorm:"index"`

	LastCursor   string `gorm:"type:text"`
	LastSyncedID string `gorm:"type:varchar(100);column:last_synced_id"`

	ConsecutiveFailures int    `gorm:"not null;default:0"`
	LastError           string `gorm:"type:text"`

	LastStartedAt   *time.Time
	LastCompletedAt *time.Time
	LastFailedAt    *time.Time

	TotalRecordsSynced int64 `gorm:"not null;default:0"`
	LastRunRecords     int64 `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SyncStateModel) TableName() string {
	return "sync_states"
}

// ToDomain converts the persistence model to a domain sync.State
func (m *SyncStateModel) ToDomain() *sync.State {
	return &sync.State{
		TenantID:            m.TenantID,
		EntityType:          m.EntityType,
		Status:              m.Status,
		IsLocked:            m.IsLocked,
		LockedAt:            m.LockedAt,
		LockExpiresAt:       m.LockExpiresAt,
		LastCursor:          m.LastCursor,
		LastSyncedID:        m.LastSyncedID,
		ConsecutiveFailures: m.ConsecutiveFailures,
		LastError:           m.LastError,
		LastStartedAt:       m.LastStartedAt,
		LastCompletedAt:     m.LastCompletedAt,
		LastFailedAt:        m.LastFailedAt,
		TotalRecordsSynced:  m.TotalRecordsSynced,
		LastRunRecords:      m.LastRunRecords,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}

// SyncStateModelFromDomain creates a persistence model from a domain sync.State
func SyncStateModelFromDomain(s *sync.State) *SyncStateModel {
	return &SyncStateModel{
		TenantID:            s.TenantID,
		EntityType:          s.EntityType,
		Status:              s.Status,
		IsLocked:            s.IsLocked,
		LockedAt:            s.LockedAt,
		LockExpiresAt:       s.LockExpiresAt,
		LastCursor:          s.LastCursor,
		LastSyncedID:        s.LastSyncedID,
		ConsecutiveFailures: s.ConsecutiveFailures,
		LastError:           s.LastError,
		LastStartedAt:       s.LastStartedAt,
		LastCompletedAt:     s.LastCompletedAt,
		LastFailedAt:        s.LastFailedAt,
		TotalRecordsSynced:  s.TotalRecordsSynced,
		LastRunRecords:      s.LastRunRecords,
		CreatedAt:           s.CreatedAt,
		UpdatedAt:           s.UpdatedAt,
	}
}
