package sync

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopmirror/backend/internal/domain/mirror"
	"github.com/shopmirror/backend/internal/domain/platform"
	"github.com/shopmirror/backend/internal/domain/sync"
	"github.com/shopmirror/backend/internal/domain/tenant"
	"github.com/shopmirror/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ProductSyncWorker walks the platform product catalog with cursor
// pagination, variants included, persisting the cursor after every page
type ProductSyncWorker struct {
	lock     *LockManager
	states   sync.StateRepository
	tenants  tenant.Repository
	products mirror.ProductRepository
	client   platform.Client
	config   WorkerConfig
	logger   *zap.Logger
}

// NewProductSyncWorker creates a new ProductSyncWorker
func NewProductSyncWorker(
	lock *LockManager,
	states sync.StateRepository,
	tenants tenant.Repository,
	products mirror.ProductRepository,
	client platform.Client,
	config WorkerConfig,
	logger *zap.Logger,
) *ProductSyncWorker {
	return &ProductSyncWorker{
		lock:     lock,
		states:   states,
		tenants:  tenants,
		products: products,
		client:   client,
		config:   config,
		logger:   logger.Named("sync.products"),
	}
}

// EntityType returns the entity type this worker handles
func (w *ProductSyncWorker) EntityType() sync.EntityType {
	return sync.EntityTypeProducts
}

// Run executes one product sync job
func (w *ProductSyncWorker) Run(ctx context.Context, job *sync.Job) (sync.Outcome, error) {
	ctx, span := telemetry.StartSpan(ctx, "sync.products.run",
		attribute.String("tenant_id", job.TenantID.String()),
		attribute.Bool("is_initial", job.IsInitial),
	)
	defer span.End()

	t, outcome, err := loadActiveTenant(ctx, w.tenants, job.TenantID, w.logger)
	if t == nil {
		return outcome, err
	}

	state, err := w.lock.Acquire(ctx, job.TenantID, sync.EntityTypeProducts)
	if skip, outcome := classifyAcquire(err); skip {
		w.logger.Info("Skipping product sync",
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
		if relErr := w.lock.ReleaseFailure(ctx, job.TenantID, sync.EntityTypeProducts, err); relErr != nil {
			w.logger.Error("Failed to release product sync lock after failure", zap.Error(relErr))
		}
		return sync.OutcomeFailed, err
	}

	if err := w.lock.ReleaseSuccess(ctx, job.TenantID, sync.EntityTypeProducts, total); err != nil {
		return sync.OutcomeFailed, err
	}
	markTenantSynced(ctx, w.tenants, job.TenantID, w.logger)

	w.logger.Info("Product sync completed",
		zap.String("tenant_id", job.TenantID.String()),
		zap.Int64("records", total),
	)
	return sync.OutcomeCompleted, nil
}

func (w *ProductSyncWorker) walk(ctx context.Context, t *tenant.Tenant, tenantID uuid.UUID, cursor string) (int64, error) {
	creds := t.Credentials()
	var total int64

	for {
		page, err := w.fetchPage(ctx, creds, cursor)
		if err != nil {
			return total, err
		}

		for _, p := range page.Records {
			p.TenantID = tenantID
			if p.ID == uuid.Nil {
				p.ID = uuid.New()
			}
		}
		if err := w.products.UpsertBatch(ctx, page.Records); err != nil {
			return total, err
		}
		total += int64(len(page.Records))

		if err := w.states.UpdateCursor(ctx, tenantID, sync.EntityTypeProducts, page.NextCursor, ""); err != nil {
			return total, err
		}

		if !page.HasMore {
			return total, nil
		}
		cursor = page.NextCursor
	}
}

func (w *ProductSyncWorker) fetchPage(ctx context.Context, creds tenant.Credentials, cursor string) (*platform.ProductPage, error) {
	callCtx, cancel := context.WithTimeout(ctx, w.config.RequestTimeout)
	defer cancel()
	return w.client.FetchProductsPage(callCtx, creds, cursor, w.config.PageSize)
}

// Ensure ProductSyncWorker implements sync.Worker
var _ sync.Worker = (*ProductSyncWorker)(nil)
