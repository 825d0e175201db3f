package sync

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopmirror/backend/internal/domain/shared"
	"github.com/shopmirror/backend/internal/domain/sync"
	"github.com/shopmirror/backend/internal/domain/tenant"
	"go.uber.org/zap"
)

// loadActiveTenant resolves the tenant for a job. A missing or deactivated
// tenant skips the run; those jobs are expected when a tenant is offboarded
// while work is still queued.
func loadActiveTenant(ctx context.Context, tenants tenant.Repository, tenantID uuid.UUID, logger *zap.Logger) (*tenant.Tenant, sync.Outcome, error) {
	t, err := tenants.FindByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			logger.Warn("Skipping sync for unknown tenant", zap.String("tenant_id", tenantID.String()))
			return nil, sync.OutcomeSkipped, nil
		}
		return nil, sync.OutcomeFailed, err
	}
	if !t.IsActive {
		logger.Info("Skipping sync for inactive tenant", zap.String("tenant_id", tenantID.String()))
		return nil, sync.OutcomeSkipped, nil
	}
	return t, sync.OutcomeCompleted, nil
}

// classifyAcquire distinguishes the acquisition skip conditions from real
// errors. Contention and quarantine are normal states, not failures.
func classifyAcquire(err error) (skip bool, outcome sync.Outcome) {
	if errors.Is(err, sync.ErrLockNotAcquired) || errors.Is(err, sync.ErrQuarantined) {
		return true, sync.OutcomeSkipped
	}
	return false, ""
}

// markTenantSynced updates the tenant's denormalized last-sync timestamp.
// Best effort: a failure here must not fail an otherwise successful run.
func markTenantSynced(ctx context.Context, tenants tenant.Repository, tenantID uuid.UUID, logger *zap.Logger) {
	if err := tenants.UpdateLastSyncAt(ctx, tenantID, time.Now()); err != nil {
		logger.Warn("Failed to update tenant last-sync timestamp",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
	}
}
