package sync

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopmirror/backend/internal/domain/mirror"
	"github.com/shopmirror/backend/internal/domain/platform"
	"github.com/shopmirror/backend/internal/domain/shared"
	"github.com/shopmirror/backend/internal/domain/sync"
	"github.com/shopmirror/backend/internal/domain/tenant"
	"github.com/shopmirror/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// OrderSyncWorker walks the platform order collection with since-ID
// pagination: each batch fetches orders with IDs strictly greater than the
// persisted high-water mark, in increasing ID order. The mark advances after
// every batch.
//
// Each order's customer reference is resolved best effort against the
// mirrored customers; unresolved references stay null until a later
// customer sync fills the gap and the order is re-upserted.
type OrderSyncWorker struct {
	lock      *LockManager
	states    sync.StateRepository
	tenants   tenant.Repository
	orders    mirror.OrderRepository
	customers mirror.CustomerRepository
	client    platform.Client
	config    WorkerConfig
	logger    *zap.Logger
}

// NewOrderSyncWorker creates a new OrderSyncWorker
func NewOrderSyncWorker(
	lock *LockManager,
	states sync.StateRepository,
	tenants tenant.Repository,
	orders mirror.OrderRepository,
	customers mirror.CustomerRepository,
	client platform.Client,
	config WorkerConfig,
	logger *zap.Logger,
) *OrderSyncWorker {
	return &OrderSyncWorker{
		lock:      lock,
		states:    states,
		tenants:   tenants,
		orders:    orders,
		customers: customers,
		client:    client,
		config:    config,
		logger:    logger.Named("sync.orders"),
	}
}

// EntityType returns the entity type this worker handles
func (w *OrderSyncWorker) EntityType() sync.EntityType {
	return sync.EntityTypeOrders
}

// Run executes one order sync job
func (w *OrderSyncWorker) Run(ctx context.Context, job *sync.Job) (sync.Outcome, error) {
	ctx, span := telemetry.StartSpan(ctx, "sync.orders.run",
		attribute.String("tenant_id", job.TenantID.String()),
		attribute.Bool("is_initial", job.IsInitial),
	)
	defer span.End()

	t, outcome, err := loadActiveTenant(ctx, w.tenants, job.TenantID, w.logger)
	if t == nil {
		return outcome, err
	}

	state, err := w.lock.Acquire(ctx, job.TenantID, sync.EntityTypeOrders)
	if skip, outcome := classifyAcquire(err); skip {
		w.logger.Info("Skipping order sync",
			zap.String("tenant_id", job.TenantID.String()),
			zap.Error(err),
		)
		return outcome, nil
	}
	if err != nil {
		return sync.OutcomeFailed, err
	}

	sinceID := state.LastSyncedID
	if job.IsInitial {
		sinceID = ""
	}

	total, err := w.walk(ctx, t, job.TenantID, sinceID)
	if err != nil {
		telemetry.RecordError(span, err)
		if relErr := w.lock.ReleaseFailure(ctx, job.TenantID, sync.EntityTypeOrders, err); relErr != nil {
			w.logger.Error("Failed to release order sync lock after failure", zap.Error(relErr))
		}
		return sync.OutcomeFailed, err
	}

	if err := w.lock.ReleaseSuccess(ctx, job.TenantID, sync.EntityTypeOrders, total); err != nil {
		return sync.OutcomeFailed, err
	}
	markTenantSynced(ctx, w.tenants, job.TenantID, w.logger)

	w.logger.Info("Order sync completed",
		zap.String("tenant_id", job.TenantID.String()),
		zap.Int64("records", total),
	)
	return sync.OutcomeCompleted, nil
}

func (w *OrderSyncWorker) walk(ctx context.Context, t *tenant.Tenant, tenantID uuid.UUID, sinceID string) (int64, error) {
	creds := t.Credentials()
	var total int64

	for {
		batch, err := w.fetchBatch(ctx, creds, sinceID)
		if err != nil {
			return total, err
		}
		if len(batch) == 0 {
			return total, nil
		}

		for _, o := range batch {
			o.TenantID = tenantID
			if o.ID == uuid.Nil {
				o.ID = uuid.New()
			}
			w.resolveCustomer(ctx, tenantID, o)
		}
		if err := w.orders.UpsertBatch(ctx, batch); err != nil {
			return total, err
		}
		total += int64(len(batch))

		// Orders arrive in increasing ID order; the last one is the new
		// high-water mark
		sinceID = batch[len(batch)-1].ExternalID
		if err := w.states.UpdateCursor(ctx, tenantID, sync.EntityTypeOrders, "", sinceID); err != nil {
			return total, err
		}

		// A short batch means the collection is exhausted
		if len(batch) < w.config.PageSize {
			return total, nil
		}
	}
}

// resolveCustomer fills LocalCustomerID from the mirrored customers when the
// referenced customer is already present. Best effort only.
func (w *OrderSyncWorker) resolveCustomer(ctx context.Context, tenantID uuid.UUID, o *mirror.Order) {
	if o.ExternalCustomerID == "" {
		return
	}
	c, err := w.customers.FindByExternalID(ctx, tenantID, o.ExternalCustomerID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			w.logger.Warn("Customer lookup failed during order sync",
				zap.String("tenant_id", tenantID.String()),
				zap.String("external_customer_id", o.ExternalCustomerID),
				zap.Error(err),
			)
		}
		return
	}
	o.LocalCustomerID = &c.ID
}

func (w *OrderSyncWorker) fetchBatch(ctx context.Context, creds tenant.Credentials, sinceID string) ([]*mirror.Order, error) {
	callCtx, cancel := context.WithTimeout(ctx, w.config.RequestTimeout)
	defer cancel()
	return w.client.FetchOrdersSince(callCtx, creds, sinceID, w.config.PageSize)
}

// Ensure OrderSyncWorker implements sync.Worker
var _ sync.Worker = (*OrderSyncWorker)(nil)
