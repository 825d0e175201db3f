package sync

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Queue names carrying sync jobs, one per entity type
const (
	QueueCustomers = "sync:customers"
	QueueProducts  = "sync:products"
	QueueOrders    = "sync:orders"
)

// QueueForEntityType maps an entity type to its queue name
func QueueForEntityType(entityType EntityType) string {
	switch entityType {
	case EntityTypeCustomers:
		return QueueCustomers
	case EntityTypeProducts:
		return QueueProducts
	default:
		return QueueOrders
	}
}

// Job is the payload enqueued by the trigger layer and delivered, at least
// once, to a sync worker. Redelivery after a crash is tolerated because the
// workers upsert idempotently and resume from the persisted cursor.
type Job struct {
	ID         uuid.UUID  `json:"id"`
	TenantID   uuid.UUID  `json:"tenant_id"`
	EntityType EntityType `json:"entity_type"`
	// IsInitial forces a full walk from the beginning of the collection,
	// ignoring any persisted cursor. Used for onboarding and full resyncs.
	IsInitial  bool      `json:"is_initial"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// NewJob creates a sync job for a (tenant, entity type) pair
func NewJob(tenantID uuid.UUID, entityType EntityType, isInitial bool) *Job {
	return &Job{
		ID:         uuid.New(),
		TenantID:   tenantID,
		EntityType: entityType,
		IsInitial:  isInitial,
		EnqueuedAt: time.Now(),
	}
}

// Queue is the broker contract the orchestrator depends on. Delivery is at
// least once; the broker may redeliver on worker crash.
type Queue interface {
	// Enqueue publishes a job to the named queue
	Enqueue(ctx context.Context, queueName string, job *Job) error
}

// Outcome reports how a worker run ended
type Outcome string

const (
	// OutcomeCompleted means the run held the lock and finished the walk
	OutcomeCompleted Outcome = "completed"
	// OutcomeSkipped means the run did not start: lock contention or
	// quarantine. Not a failure.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeFailed means the run started and aborted with an error
	OutcomeFailed Outcome = "failed"
)

// Worker executes one sync job for its entity type
type Worker interface {
	EntityType() EntityType
	Run(ctx context.Context, job *Job) (Outcome, error)
}
