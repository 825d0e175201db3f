package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	gosync "sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopmirror/backend/internal/domain/sync"
	"github.com/shopmirror/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// DeadLetterQueue receives job envelopes that exhausted their delivery budget
const DeadLetterQueue = "sync:dead"

// envelope wraps a job on the wire with its delivery count so the consumer
// can bound redeliveries
type envelope struct {
	Job        *sync.Job `json:"job"`
	Deliveries int       `json:"deliveries"`
}

// RedisQueue implements sync.Queue on a Redis list per queue name.
// LPUSH + BRPOP gives FIFO delivery; the broker guarantees at least once,
// the workers make replays harmless.
type RedisQueue struct {
	client *redis.Client
}

// NewRedisQueue creates a queue producer, verifying the connection
func NewRedisQueue(cfg *config.RedisConfig) (*RedisQueue, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisQueue{client: client}, nil
}

// NewRedisQueueWithClient creates a producer with an existing Redis client.
// Useful for testing or when sharing a client across components.
func NewRedisQueueWithClient(client *redis.Client) *RedisQueue {
	return &RedisQueue{client: client}
}

// Enqueue publishes a job to the named queue
func (q *RedisQueue) Enqueue(ctx context.Context, queueName string, job *sync.Job) error {
	payload, err := json.Marshal(envelope{Job: job, Deliveries: 0})
	if err != nil {
		return fmt.Errorf("queue: failed to marshal job: %w", err)
	}

	if err := q.client.LPush(ctx, queueName, payload).Err(); err != nil {
		return fmt.Errorf("%w: %v", sync.ErrQueueUnavailable, err)
	}
	return nil
}

// Client returns the underlying Redis client
func (q *RedisQueue) Client() *redis.Client {
	return q.client
}

// Close closes the underlying Redis connection
func (q *RedisQueue) Close() error {
	return q.client.Close()
}

// Ensure RedisQueue implements sync.Queue
var _ sync.Queue = (*RedisQueue)(nil)

// ---------------------------------------------------------------------------
// Consumer
// ---------------------------------------------------------------------------

// Handler processes one delivered job. A nil return acknowledges the
// delivery; an error sends the job back for redelivery until the budget is
// exhausted, then to the dead-letter queue.
type Handler func(ctx context.Context, job *sync.Job) error

// Consumer pulls jobs from a set of Redis list queues with a worker pool.
// Each worker BRPOPs across all registered queues so a busy queue cannot
// starve the others of workers entirely.
type Consumer struct {
	client *redis.Client
	cfg    config.QueueConfig
	logger *zap.Logger

	handlers map[string]Handler
	queues   []string

	cancel    context.CancelFunc
	wg        gosync.WaitGroup
	mu        gosync.Mutex
	isRunning bool
}

// NewConsumer creates a consumer over an existing Redis client
func NewConsumer(client *redis.Client, cfg config.QueueConfig, logger *zap.Logger) *Consumer {
	return &Consumer{
		client:   client,
		cfg:      cfg,
		logger:   logger.Named("queue"),
		handlers: make(map[string]Handler),
	}
}

// Register binds a handler to a queue name. Must be called before Start.
func (c *Consumer) Register(queueName string, handler Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.handlers[queueName]; !exists {
		c.queues = append(c.queues, queueName)
	}
	c.handlers[queueName] = handler
}

// Start launches the worker pool
func (c *Consumer) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return nil
	}
	if len(c.queues) == 0 {
		c.mu.Unlock()
		return errors.New("queue: no handlers registered")
	}
	c.isRunning = true
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	for i := 0; i < c.cfg.Workers; i++ {
		c.wg.Add(1)
		go c.worker(ctx, i)
	}

	c.logger.Info("Queue consumer started",
		zap.Int("workers", c.cfg.Workers),
		zap.Strings("queues", c.queues),
	)
	return nil
}

// Stop gracefully stops the consumer, waiting for in-flight jobs
func (c *Consumer) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("Queue consumer stopped gracefully")
		return nil
	case <-ctx.Done():
		c.logger.Warn("Queue consumer stop timed out")
		return ctx.Err()
	}
}

// worker loops on BRPOP until the context is cancelled
func (c *Consumer) worker(ctx context.Context, workerID int) {
	defer c.wg.Done()

	c.logger.Debug("Queue worker started", zap.Int("worker_id", workerID))

	for {
		select {
		case <-ctx.Done():
			c.logger.Debug("Queue worker stopping", zap.Int("worker_id", workerID))
			return
		default:
		}

		result, err := c.client.BRPop(ctx, c.cfg.PollTimeout, c.queues...).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue // poll timeout, no jobs
			}
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("Queue pop failed", zap.Int("worker_id", workerID), zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		// BRPop returns [queueName, payload]
		if len(result) != 2 {
			continue
		}
		// Once a job is popped it must run to completion even if Stop has
		// cancelled the pool context, otherwise shutdown fails every in-flight
		// page mid-write and burns a delivery per job. Stop's wg.Wait still
		// bounds the drain.
		c.handleDelivery(context.WithoutCancel(ctx), workerID, result[0], []byte(result[1]))
	}
}

// handleDelivery decodes and dispatches one envelope
func (c *Consumer) handleDelivery(ctx context.Context, workerID int, queueName string, payload []byte) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil || env.Job == nil {
		// Malformed payloads go straight to the dead-letter queue
		c.logger.Warn("Dead-lettering malformed job payload",
			zap.String("queue", queueName),
			zap.Error(err),
		)
		c.deadLetter(ctx, payload)
		return
	}
	env.Deliveries++

	handler := c.handlers[queueName]
	if handler == nil {
		c.logger.Warn("No handler for queue, dead-lettering", zap.String("queue", queueName))
		c.deadLetter(ctx, payload)
		return
	}

	if err := handler(ctx, env.Job); err != nil {
		c.logger.Error("Job handler failed",
			zap.Int("worker_id", workerID),
			zap.String("queue", queueName),
			zap.String("job_id", env.Job.ID.String()),
			zap.String("tenant_id", env.Job.TenantID.String()),
			zap.Int("deliveries", env.Deliveries),
			zap.Error(err),
		)
		c.redeliver(ctx, queueName, env)
		return
	}

	c.logger.Debug("Job handled",
		zap.Int("worker_id", workerID),
		zap.String("queue", queueName),
		zap.String("job_id", env.Job.ID.String()),
	)
}

// redeliver pushes the envelope back onto its queue, or dead-letters it once
// the delivery budget is spent
func (c *Consumer) redeliver(ctx context.Context, queueName string, env envelope) {
	payload, err := json.Marshal(env)
	if err != nil {
		c.logger.Error("Failed to marshal redelivery envelope", zap.Error(err))
		return
	}

	if env.Deliveries >= c.cfg.MaxDeliveries {
		c.logger.Warn("Delivery budget exhausted, dead-lettering job",
			zap.String("queue", queueName),
			zap.String("job_id", env.Job.ID.String()),
			zap.Int("deliveries", env.Deliveries),
		)
		c.deadLetter(ctx, payload)
		return
	}

	if err := c.client.LPush(ctx, queueName, payload).Err(); err != nil {
		c.logger.Error("Failed to redeliver job", zap.String("queue", queueName), zap.Error(err))
	}
}

func (c *Consumer) deadLetter(ctx context.Context, payload []byte) {
	if err := c.client.LPush(ctx, DeadLetterQueue, payload).Err(); err != nil {
		c.logger.Error("Failed to dead-letter payload", zap.Error(err))
	}
}
