package scheduler

import (
	"context"
	gosync "sync"
	"time"

	"github.com/shopmirror/backend/internal/domain/sync"
	"github.com/shopmirror/backend/internal/domain/tenant"
	"go.uber.org/zap"
)

// SyncSchedulerConfig holds the per-entity-type sync cadence
type SyncSchedulerConfig struct {
	// CheckInterval is how often the scheduler evaluates what is due
	CheckInterval time.Duration

	// Intervals is the target cadence per entity type
	Intervals map[sync.EntityType]time.Duration

	// MaxConsecutiveFailures is the quarantine threshold; quarantined pairs
	// are never scheduled
	MaxConsecutiveFailures int
}

// SyncScheduler periodically enqueues incremental sync jobs for every active
// tenant whose (tenant, entity type) pair is due.
//
// The scheduler only decides WHEN; the enqueued job goes through the same
// queue and the same lock acquisition as a manual trigger, so an overdue
// pair that is still running simply produces a skipped job. Pre-checks here
// only avoid obviously pointless enqueues.
type SyncScheduler struct {
	tenants tenant.Repository
	states  sync.StateRepository
	queue   sync.Queue
	config  SyncSchedulerConfig
	logger  *zap.Logger

	cancel    context.CancelFunc
	wg        gosync.WaitGroup
	mu        gosync.Mutex
	isRunning bool
}

// NewSyncScheduler creates a new SyncScheduler
func NewSyncScheduler(
	tenants tenant.Repository,
	states sync.StateRepository,
	queue sync.Queue,
	config SyncSchedulerConfig,
	logger *zap.Logger,
) *SyncScheduler {
	return &SyncScheduler{
		tenants: tenants,
		states:  states,
		queue:   queue,
		config:  config,
		logger:  logger.Named("scheduler"),
	}
}

// Start launches the scheduler loop
func (s *SyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.loop(ctx)

	s.logger.Info("Sync scheduler started",
		zap.Duration("check_interval", s.config.CheckInterval),
	)
	return nil
}

// Stop gracefully stops the scheduler
func (s *SyncScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Sync scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Sync scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *SyncScheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one scheduling pass. Exported so tests can drive the scheduler
// without waiting on the ticker.
func (s *SyncScheduler) Tick(ctx context.Context) {
	tenants, err := s.tenants.FindActive(ctx)
	if err != nil {
		s.logger.Error("Failed to list active tenants", zap.Error(err))
		return
	}

	now := time.Now()
	for i := range tenants {
		for entityType, interval := range s.config.Intervals {
			s.scheduleIfDue(ctx, &tenants[i], entityType, interval, now)
		}
	}
}

func (s *SyncScheduler) scheduleIfDue(ctx context.Context, t *tenant.Tenant, entityType sync.EntityType, interval time.Duration, now time.Time) {
	state, err := s.states.GetOrCreate(ctx, t.ID, entityType)
	if err != nil {
		s.logger.Error("Failed to load sync state",
			zap.String("tenant_id", t.ID.String()),
			zap.String("entity_type", entityType.String()),
			zap.Error(err),
		)
		return
	}

	if state.IsQuarantined(s.config.MaxConsecutiveFailures) {
		return
	}
	if state.IsRunning(now) {
		return
	}
	if state.LastStartedAt != nil && now.Sub(*state.LastStartedAt) < interval {
		return
	}

	job := sync.NewJob(t.ID, entityType, false)
	if err := s.queue.Enqueue(ctx, sync.QueueForEntityType(entityType), job); err != nil {
		s.logger.Error("Failed to enqueue scheduled sync job",
			zap.String("tenant_id", t.ID.String()),
			zap.String("entity_type", entityType.String()),
			zap.Error(err),
		)
		return
	}

	s.logger.Debug("Scheduled sync job enqueued",
		zap.String("job_id", job.ID.String()),
		zap.String("tenant_id", t.ID.String()),
		zap.String("entity_type", entityType.String()),
	)
}
