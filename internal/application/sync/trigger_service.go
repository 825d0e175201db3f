package sync

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopmirror/backend/internal/domain/mirror"
	"github.com/shopmirror/backend/internal/domain/shared"
	"github.com/shopmirror/backend/internal/domain/sync"
	"github.com/shopmirror/backend/internal/domain/tenant"
	"go.uber.org/zap"
)

// TriggerService is the on-demand entry point into the sync pipeline. It
// enqueues jobs rather than running syncs inline, so an HTTP trigger and a
// scheduler tick go down exactly the same path.
//
// Pre-checks here are advisory fast-fails for the caller's benefit; the
// worker re-checks quarantine and contention authoritatively under the lock.
type TriggerService struct {
	states    sync.StateRepository
	tenants   tenant.Repository
	customers mirror.CustomerRepository
	products  mirror.ProductRepository
	orders    mirror.OrderRepository
	queue     sync.Queue

	maxConsecutiveFailures int
	logger                 *zap.Logger
}

// NewTriggerService creates a new TriggerService
func NewTriggerService(
	states sync.StateRepository,
	tenants tenant.Repository,
	customers mirror.CustomerRepository,
	products mirror.ProductRepository,
	orders mirror.OrderRepository,
	queue sync.Queue,
	maxConsecutiveFailures int,
	logger *zap.Logger,
) *TriggerService {
	return &TriggerService{
		states:                 states,
		tenants:                tenants,
		customers:              customers,
		products:               products,
		orders:                 orders,
		queue:                  queue,
		maxConsecutiveFailures: maxConsecutiveFailures,
		logger:                 logger.Named("trigger"),
	}
}

// TriggerSync enqueues an incremental sync job for one entity type.
//
// Returns sync.ErrInvalidEntityType for an unknown entity type,
// shared.ErrTenantInactive for a deactivated tenant, sync.ErrQuarantined
// when the pair is quarantined and sync.ErrLockNotAcquired when a run is
// already in progress.
func (s *TriggerService) TriggerSync(ctx context.Context, tenantID uuid.UUID, entityType sync.EntityType) (*sync.Job, error) {
	if !entityType.IsValid() {
		return nil, sync.ErrInvalidEntityType
	}
	if err := s.requireActiveTenant(ctx, tenantID); err != nil {
		return nil, err
	}

	state, err := s.states.GetOrCreate(ctx, tenantID, entityType)
	if err != nil {
		return nil, err
	}
	if state.IsQuarantined(s.maxConsecutiveFailures) {
		return nil, sync.ErrQuarantined
	}
	if state.IsRunning(time.Now()) {
		return nil, sync.ErrLockNotAcquired
	}

	return s.enqueue(ctx, tenantID, entityType, false)
}

// TriggerInitialSync resets all sync state for the tenant and enqueues a
// full walk of every entity type. Used at onboarding and for operator-forced
// full resyncs.
func (s *TriggerService) TriggerInitialSync(ctx context.Context, tenantID uuid.UUID) ([]*sync.Job, error) {
	if err := s.requireActiveTenant(ctx, tenantID); err != nil {
		return nil, err
	}

	// Make sure every state row exists before the blanket reset
	for _, entityType := range sync.AllEntityTypes() {
		if _, err := s.states.GetOrCreate(ctx, tenantID, entityType); err != nil {
			return nil, err
		}
	}
	if err := s.states.ResetAll(ctx, tenantID); err != nil {
		return nil, err
	}

	jobs := make([]*sync.Job, 0, len(sync.AllEntityTypes()))
	for _, entityType := range sync.AllEntityTypes() {
		job, err := s.enqueue(ctx, tenantID, entityType, true)
		if err != nil {
			return jobs, err
		}
		jobs = append(jobs, job)
	}

	s.logger.Info("Initial sync triggered", zap.String("tenant_id", tenantID.String()))
	return jobs, nil
}

// Status assembles the dashboard view for one tenant
func (s *TriggerService) Status(ctx context.Context, tenantID uuid.UUID) (*TenantSyncStatus, error) {
	t, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	states, err := s.states.ListForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	status := &TenantSyncStatus{
		TenantID:   t.ID,
		TenantName: t.Name,
		LastSyncAt: t.LastSyncAt,
		Entities:   make([]EntityStatus, 0, len(states)),
	}
	now := time.Now()
	for i := range states {
		status.Entities = append(status.Entities, entityStatusFromState(&states[i], s.maxConsecutiveFailures))
		if states[i].IsRunning(now) {
			status.IsAnyRunning = true
		}
		if states[i].LastError != "" || states[i].ConsecutiveFailures > 0 {
			status.HasErrors = true
		}
	}

	if status.CustomerCount, err = s.customers.CountForTenant(ctx, tenantID); err != nil {
		return nil, err
	}
	if status.ProductCount, err = s.products.CountForTenant(ctx, tenantID); err != nil {
		return nil, err
	}
	if status.OrderCount, err = s.orders.CountForTenant(ctx, tenantID); err != nil {
		return nil, err
	}

	return status, nil
}

// ResetEntity is the operator recovery for one quarantined or wedged pair
func (s *TriggerService) ResetEntity(ctx context.Context, tenantID uuid.UUID, entityType sync.EntityType) error {
	if !entityType.IsValid() {
		return sync.ErrInvalidEntityType
	}
	s.logger.Info("Resetting sync state",
		zap.String("tenant_id", tenantID.String()),
		zap.String("entity_type", entityType.String()),
	)
	return s.states.ResetFailures(ctx, tenantID, entityType)
}

// ResetAll applies the operator reset to every entity type of the tenant
func (s *TriggerService) ResetAll(ctx context.Context, tenantID uuid.UUID) error {
	s.logger.Info("Resetting all sync state", zap.String("tenant_id", tenantID.String()))
	return s.states.ResetAll(ctx, tenantID)
}

func (s *TriggerService) requireActiveTenant(ctx context.Context, tenantID uuid.UUID) error {
	t, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return err
	}
	if !t.IsActive {
		return shared.ErrTenantInactive
	}
	return nil
}

func (s *TriggerService) enqueue(ctx context.Context, tenantID uuid.UUID, entityType sync.EntityType, isInitial bool) (*sync.Job, error) {
	job := sync.NewJob(tenantID, entityType, isInitial)
	if err := s.queue.Enqueue(ctx, sync.QueueForEntityType(entityType), job); err != nil {
		return nil, err
	}
	s.logger.Debug("Sync job enqueued",
		zap.String("job_id", job.ID.String()),
		zap.String("tenant_id", tenantID.String()),
		zap.String("entity_type", entityType.String()),
		zap.Bool("is_initial", isInitial),
	)
	return job, nil
}
