package sync

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopmirror/backend/internal/domain/mirror"
	"github.com/shopmirror/backend/internal/domain/platform"
	"github.com/shopmirror/backend/internal/domain/sync"
	"github.com/shopmirror/backend/internal/domain/tenant"
	"github.com/shopmirror/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// WorkerConfig holds per-run tuning shared by the entity sync workers
type WorkerConfig struct {
	// PageSize bounds every platform fetch
	PageSize int

	// RequestTimeout bounds each individual platform API call
	RequestTimeout time.Duration
}

// CustomerSyncWorker walks the platform customer collection with cursor
// pagination, upserting each page and persisting the cursor before moving
// on. A crash mid-walk costs at most one page of replayed upserts.
type CustomerSyncWorker struct {
	lock      *LockManager
	states    sync.StateRepository
	tenants   tenant.Repository
	customers mirror.CustomerRepository
	client    platform.Client
	config    WorkerConfig
	logger    *zap.Logger
}

// NewCustomerSyncWorker creates a new CustomerSyncWorker
func NewCustomerSyncWorker(
	lock *LockManager,
	states sync.StateRepository,
	tenants tenant.Repository,
	customers mirror.CustomerRepository,
	client platform.Client,
	config WorkerConfig,
	logger *zap.Logger,
) *CustomerSyncWorker {
	return &CustomerSyncWorker{
		lock:      lock,
		states:    states,
		tenants:   tenants,
		customers: customers,
		client:    client,
		config:    config,
		logger:    logger.Named("sync.customers"),
	}
}

// EntityType returns the entity type this worker handles
func (w *CustomerSyncWorker) EntityType() sync.EntityType {
	return sync.EntityTypeCustomers
}

// Run executes one customer sync job
func (w *CustomerSyncWorker) Run(ctx context.Context, job *sync.Job) (sync.Outcome, error) {
	ctx, span := telemetry.StartSpan(ctx, "sync.customers.run",
		attribute.String("tenant_id", job.TenantID.String()),
		attribute.Bool("is_initial", job.IsInitial),
	)
	defer span.End()

	t, outcome, err := loadActiveTenant(ctx, w.tenants, job.TenantID, w.logger)
	if t == nil {
		return outcome, err
	}

	state, err := w.lock.Acquire(ctx, job.TenantID, sync.EntityTypeCustomers)
	if skip, outcome := classifyAcquire(err); skip {
		w.logger.Info("Skipping customer sync",
			zap.String("tenant_id", job.TenantID.String()),
			zap.Error(err),
		)
		return outcome, nil
	}
	if err != nil {
		return sync.OutcomeFailed, err
	}

	cursor := state.LastCursor
	if job.IsInitial {
		cursor = ""
	}

	total, err := w.walk(ctx, t, job.TenantID, cursor)
	if err != nil {
		telemetry.RecordError(span, err)
		if relErr := w.lock.ReleaseFailure(ctx, job.TenantID, sync.EntityTypeCustomers, err); relErr != nil {
			w.logger.Error("Failed to release customer sync lock after failure", zap.Error(relErr))
		}
		return sync.OutcomeFailed, err
	}

	if err := w.lock.ReleaseSuccess(ctx, job.TenantID, sync.EntityTypeCustomers, total); err != nil {
		return sync.OutcomeFailed, err
	}
	markTenantSynced(ctx, w.tenants, job.TenantID, w.logger)

	w.logger.Info("Customer sync completed",
		zap.String("tenant_id", job.TenantID.String()),
		zap.Int64("records", total),
	)
	return sync.OutcomeCompleted, nil
}

// walk pages through the collection from the given cursor, persisting
// progress after every page
func (w *CustomerSyncWorker) walk(ctx context.Context, t *tenant.Tenant, tenantID uuid.UUID, cursor string) (int64, error) {
	creds := t.Credentials()
	var total int64

	for {
		page, err := w.fetchPage(ctx, creds, cursor)
		if err != nil {
			return total, err
		}

		for _, c := range page.Records {
			c.TenantID = tenantID
			if c.ID == uuid.Nil {
				c.ID = uuid.New()
			}
		}
		if err := w.customers.UpsertBatch(ctx, page.Records); err != nil {
			return total, err
		}
		total += int64(len(page.Records))

		// Persist the cursor before fetching the next page so a crash
		// resumes here instead of from the start
		if err := w.states.UpdateCursor(ctx, tenantID, sync.EntityTypeCustomers, page.NextCursor, ""); err != nil {
			return total, err
		}

		if !page.HasMore {
			return total, nil
		}
		cursor = page.NextCursor
	}
}

func (w *CustomerSyncWorker) fetchPage(ctx context.Context, creds tenant.Credentials, cursor string) (*platform.CustomerPage, error) {
	callCtx, cancel := context.WithTimeout(ctx, w.config.RequestTimeout)
	defer cancel()
	return w.client.FetchCustomersPage(callCtx, creds, cursor, w.config.PageSize)
}

// Ensure CustomerSyncWorker implements sync.Worker
var _ sync.Worker = (*CustomerSyncWorker)(nil)
