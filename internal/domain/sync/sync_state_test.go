package sync

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestEntityType_IsValid(t *testing.T) {
	assert.True(t, EntityTypeCustomers.IsValid())
	assert.True(t, EntityTypeProducts.IsValid())
	assert.True(t, EntityTypeOrders.IsValid())
	assert.False(t, EntityType("invoices").IsValid())
	assert.False(t, EntityType("").IsValid())
}

func TestQueueForEntityType(t *testing.T) {
	assert.Equal(t, QueueCustomers, QueueForEntityType(EntityTypeCustomers))
	assert.Equal(t, QueueProducts, QueueForEntityType(EntityTypeProducts))
	assert.Equal(t, QueueOrders, QueueForEntityType(EntityTypeOrders))
}

func TestNewState(t *testing.T) {
	tenantID := uuid.New()
	state := NewState(tenantID, EntityTypeCustomers)

	assert.Equal(t, tenantID, state.TenantID)
	assert.Equal(t, EntityTypeCustomers, state.EntityType)
	assert.Equal(t, StatusIdle, state.Status)
	assert.False(t, state.IsLocked)
	assert.Empty(t, state.LastCursor)
	assert.Zero(t, state.ConsecutiveFailures)
}

func TestState_IsRunning(t *testing.T) {
	now := time.Now()

	t.Run("unlocked state is not running", func(t *testing.T) {
		state := NewState(uuid.New(), EntityTypeCustomers)
		assert.False(t, state.IsRunning(now))
	})

	t.Run("locked state with valid lease is running", func(t *testing.T) {
		state := NewState(uuid.New(), EntityTypeCustomers)
		expires := now.Add(30 * time.Minute)
		state.IsLocked = true
		state.LockedAt = &now
		state.LockExpiresAt = &expires
		assert.True(t, state.IsRunning(now))
	})

	t.Run("locked state past its lease is not running", func(t *testing.T) {
		state := NewState(uuid.New(), EntityTypeCustomers)
		lockedAt := now.Add(-time.Hour)
		expires := now.Add(-30 * time.Minute)
		state.IsLocked = true
		state.LockedAt = &lockedAt
		state.LockExpiresAt = &expires
		assert.False(t, state.IsRunning(now))
	})
}

func TestState_IsLockExpired(t *testing.T) {
	now := time.Now()

	t.Run("missing expiry is treated as expired", func(t *testing.T) {
		state := NewState(uuid.New(), EntityTypeOrders)
		state.IsLocked = true
		assert.True(t, state.IsLockExpired(now))
	})

	t.Run("future expiry is not expired", func(t *testing.T) {
		state := NewState(uuid.New(), EntityTypeOrders)
		expires := now.Add(time.Minute)
		state.LockExpiresAt = &expires
		assert.False(t, state.IsLockExpired(now))
	})

	t.Run("past expiry is expired", func(t *testing.T) {
		state := NewState(uuid.New(), EntityTypeOrders)
		expires := now.Add(-time.Second)
		state.LockExpiresAt = &expires
		assert.True(t, state.IsLockExpired(now))
	})
}

func TestState_IsQuarantined(t *testing.T) {
	state := NewState(uuid.New(), EntityTypeProducts)

	state.ConsecutiveFailures = 4
	assert.False(t, state.IsQuarantined(5))

	state.ConsecutiveFailures = 5
	assert.True(t, state.IsQuarantined(5))

	state.ConsecutiveFailures = 6
	assert.True(t, state.IsQuarantined(5))
}

func TestNewJob(t *testing.T) {
	tenantID := uuid.New()
	job := NewJob(tenantID, EntityTypeOrders, true)

	assert.NotEqual(t, uuid.Nil, job.ID)
	assert.Equal(t, tenantID, job.TenantID)
	assert.Equal(t, EntityTypeOrders, job.EntityType)
	assert.True(t, job.IsInitial)
	assert.False(t, job.EnqueuedAt.IsZero())
}
