package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopmirror/backend/internal/domain/sync"
	"github.com/shopmirror/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSyncStateRepository implements sync.StateRepository using GORM.
//
// All lock transitions are expressed as single UPDATE statements so that the
// database, not the process, arbitrates races between workers sharing the
// sync_states table.
type GormSyncStateRepository struct {
	db *gorm.DB
}

// NewGormSyncStateRepository creates a new GormSyncStateRepository
func NewGormSyncStateRepository(db *gorm.DB) *GormSyncStateRepository {
	return &GormSyncStateRepository{db: db}
}

// GetOrCreate returns the state row for the pair, inserting the idle baseline
// row on first reference
func (r *GormSyncStateRepository) GetOrCreate(ctx context.Context, tenantID uuid.UUID, entityType sync.EntityType) (*sync.State, error) {
	baseline := models.SyncStateModelFromDomain(sync.NewState(tenantID, entityType))

	// ON CONFLICT DO NOTHING keeps concurrent first references idempotent
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(baseline).Error; err != nil {
		return nil, err
	}

	return r.Get(ctx, tenantID, entityType)
}

// Get returns the state row, or sync.ErrStateNotFound
func (r *GormSyncStateRepository) Get(ctx context.Context, tenantID uuid.UUID, entityType sync.EntityType) (*sync.State, error) {
	var model models.SyncStateModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND entity_type = ?", tenantID, entityType).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sync.ErrStateNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListForTenant returns all state rows for a tenant
func (r *GormSyncStateRepository) ListForTenant(ctx context.Context, tenantID uuid.UUID) ([]sync.State, error) {
	var stateModels []models.SyncStateModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("entity_type ASC").
		Find(&stateModels).Error; err != nil {
		return nil, err
	}

	states := make([]sync.State, len(stateModels))
	for i, model := range stateModels {
		states[i] = *model.ToDomain()
	}
	return states, nil
}

// UpdateCursor persists pagination progress mid-run
func (r *GormSyncStateRepository) UpdateCursor(ctx context.Context, tenantID uuid.UUID, entityType sync.EntityType, cursor, lastSyncedID string) error {
	result := r.db.WithContext(ctx).
		Model(&models.SyncStateModel{}).
		Where("tenant_id = ? AND entity_type = ?", tenantID, entityType).
		Updates(map[string]any{
			"last_cursor":    cursor,
			"last_synced_id": lastSyncedID,
			"updated_at":     time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return sync.ErrStateNotFound
	}
	return nil
}

// UpdateMetrics accumulates the run counters
func (r *GormSyncStateRepository) UpdateMetrics(ctx context.Context, tenantID uuid.UUID, entityType sync.EntityType, recordsThisRun int64) error {
	result := r.db.WithContext(ctx).
		Model(&models.SyncStateModel{}).
		Where("tenant_id = ? AND entity_type = ?", tenantID, entityType).
		Updates(map[string]any{
			"total_records_synced": gorm.Expr("total_records_synced + ?", recordsThisRun),
			"last_run_records":     recordsThisRun,
			"updated_at":           time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return sync.ErrStateNotFound
	}
	return nil
}

// AcquireLock attempts the conditional lease acquisition. The WHERE clause on
// is_locked = false makes the update a compare-and-swap: of two workers racing
// on the same row, exactly one sees RowsAffected == 1.
func (r *GormSyncStateRepository) AcquireLock(ctx context.Context, tenantID uuid.UUID, entityType sync.EntityType, now time.Time, ttl time.Duration) (bool, error) {
	expiresAt := now.Add(ttl)

	result := r.db.WithContext(ctx).
		Model(&models.SyncStateModel{}).
		Where("tenant_id = ? AND entity_type = ? AND is_locked = ?", tenantID, entityType, false).
		Updates(map[string]any{
			"is_locked":       true,
			"locked_at":       now,
			"lock_expires_at": expiresAt,
			"status":          sync.StatusRunning,
			"last_started_at": now,
			"updated_at":      now,
		})

	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ForceAcquireLock overwrites the lock fields regardless of current state.
// Callers must have observed an expired lease first.
func (r *GormSyncStateRepository) ForceAcquireLock(ctx context.Context, tenantID uuid.UUID, entityType sync.EntityType, now time.Time, ttl time.Duration) error {
	expiresAt := now.Add(ttl)

	result := r.db.WithContext(ctx).
		Model(&models.SyncStateModel{}).
		Where("tenant_id = ? AND entity_type = ?", tenantID, entityType).
		Updates(map[string]any{
			"is_locked":       true,
			"locked_at":       now,
			"lock_expires_at": expiresAt,
			"status":          sync.StatusRunning,
			"last_started_at": now,
			"updated_at":      now,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return sync.ErrStateNotFound
	}
	return nil
}

// ReleaseLockSuccess clears the lock and records a successful completion
func (r *GormSyncStateRepository) ReleaseLockSuccess(ctx context.Context, tenantID uuid.UUID, entityType sync.EntityType, now time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.SyncStateModel{}).
		Where("tenant_id = ? AND entity_type = ?", tenantID, entityType).
		Updates(map[string]any{
			"is_locked":            false,
			"locked_at":            nil,
			"lock_expires_at":      nil,
			"status":               sync.StatusCompleted,
			"last_completed_at":    now,
			"consecutive_failures": 0,
			"last_error":           "",
			"updated_at":           now,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return sync.ErrStateNotFound
	}
	return nil
}

// ReleaseLockFailure clears the lock, records the failure and bumps the
// consecutive failure counter
func (r *GormSyncStateRepository) ReleaseLockFailure(ctx context.Context, tenantID uuid.UUID, entityType sync.EntityType, now time.Time, errMsg string) error {
	result := r.db.WithContext(ctx).
		Model(&models.SyncStateModel{}).
		Where("tenant_id = ? AND entity_type = ?", tenantID, entityType).
		Updates(map[string]any{
			"is_locked":            false,
			"locked_at":            nil,
			"lock_expires_at":      nil,
			"status":               sync.StatusFailed,
			"last_failed_at":       now,
			"consecutive_failures": gorm.Expr("consecutive_failures + 1"),
			"last_error":           errMsg,
			"updated_at":           now,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return sync.ErrStateNotFound
	}
	return nil
}

// ResetFailures is the operator recovery path for one pair: back to idle with
// the lock, cursor, failure counter and error cleared. Cumulative metrics
// survive the reset.
func (r *GormSyncStateRepository) ResetFailures(ctx context.Context, tenantID uuid.UUID, entityType sync.EntityType) error {
	result := r.db.WithContext(ctx).
		Model(&models.SyncStateModel{}).
		Where("tenant_id = ? AND entity_type = ?", tenantID, entityType).
		Updates(resetColumns())

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return sync.ErrStateNotFound
	}
	return nil
}

// ResetAll applies the operator reset to every entity type of the tenant
func (r *GormSyncStateRepository) ResetAll(ctx context.Context, tenantID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.SyncStateModel{}).
		Where("tenant_id = ?", tenantID).
		Updates(resetColumns()).Error
}

func resetColumns() map[string]any {
	return map[string]any{
		"is_locked":            false,
		"locked_at":            nil,
		"lock_expires_at":      nil,
		"status":               sync.StatusIdle,
		"last_cursor":          "",
		"last_synced_id":       "",
		"consecutive_failures": 0,
		"last_error":           "",
		"updated_at":           time.Now(),
	}
}

// Ensure GormSyncStateRepository implements sync.StateRepository
var _ sync.StateRepository = (*GormSyncStateRepository)(nil)
