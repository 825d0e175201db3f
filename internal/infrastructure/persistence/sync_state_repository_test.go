package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopmirror/backend/internal/domain/sync"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockSyncStateRepository creates a GormSyncStateRepository with a mocked SQL connection
func newMockSyncStateRepository(t *testing.T) (*GormSyncStateRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormSyncStateRepository(gormDB), mock, mockDB
}

func TestGormSyncStateRepository_Get(t *testing.T) {
	t.Run("finds existing state row", func(t *testing.T) {
		repo, mock, mockDB := newMockSyncStateRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()

		rows := sqlmock.NewRows([]string{"tenant_id", "entity_type", "status", "is_locked", "last_cursor", "consecutive_failures", "total_records_synced"}).
			AddRow(tenantID, "customers", "completed", false, "abc123", 0, int64(410))

		mock.ExpectQuery(`SELECT \* FROM "sync_states" WHERE tenant_id = \$1 AND entity_type = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, sync.EntityTypeCustomers, 1).
			WillReturnRows(rows)

		state, err := repo.Get(context.Background(), tenantID, sync.EntityTypeCustomers)

		assert.NoError(t, err)
		require.NotNil(t, state)
		assert.Equal(t, tenantID, state.TenantID)
		assert.Equal(t, sync.StatusCompleted, state.Status)
		assert.Equal(t, "abc123", state.LastCursor)
		assert.Equal(t, int64(410), state.TotalRecordsSynced)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrStateNotFound for missing row", func(t *testing.T) {
		repo, mock, mockDB := newMockSyncStateRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "sync_states" WHERE tenant_id = \$1 AND entity_type = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, sync.EntityTypeOrders, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		state, err := repo.Get(context.Background(), tenantID, sync.EntityTypeOrders)

		assert.Nil(t, state)
		assert.ErrorIs(t, err, sync.ErrStateNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormSyncStateRepository_AcquireLock(t *testing.T) {
	t.Run("wins when the row is unlocked", func(t *testing.T) {
		repo, mock, mockDB := newMockSyncStateRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()

		mock.ExpectExec(`UPDATE "sync_states" SET .* WHERE tenant_id = \$\d+ AND entity_type = \$\d+ AND is_locked = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		acquired, err := repo.AcquireLock(context.Background(), tenantID, sync.EntityTypeCustomers, time.Now(), 30*time.Minute)

		assert.NoError(t, err)
		assert.True(t, acquired)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("loses when another holder got there first", func(t *testing.T) {
		repo, mock, mockDB := newMockSyncStateRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()

		mock.ExpectExec(`UPDATE "sync_states" SET .* WHERE tenant_id = \$\d+ AND entity_type = \$\d+ AND is_locked = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		acquired, err := repo.AcquireLock(context.Background(), tenantID, sync.EntityTypeCustomers, time.Now(), 30*time.Minute)

		assert.NoError(t, err)
		assert.False(t, acquired)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormSyncStateRepository_ForceAcquireLock(t *testing.T) {
	t.Run("overwrites the lock fields unconditionally", func(t *testing.T) {
		repo, mock, mockDB := newMockSyncStateRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()

		mock.ExpectExec(`UPDATE "sync_states" SET .* WHERE tenant_id = \$\d+ AND entity_type = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.ForceAcquireLock(context.Background(), tenantID, sync.EntityTypeOrders, time.Now(), 30*time.Minute)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrStateNotFound for missing row", func(t *testing.T) {
		repo, mock, mockDB := newMockSyncStateRepository(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE "sync_states" SET .* WHERE tenant_id = \$\d+ AND entity_type = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.ForceAcquireLock(context.Background(), uuid.New(), sync.EntityTypeOrders, time.Now(), 30*time.Minute)

		assert.ErrorIs(t, err, sync.ErrStateNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormSyncStateRepository_UpdateCursor(t *testing.T) {
	t.Run("persists cursor progress", func(t *testing.T) {
		repo, mock, mockDB := newMockSyncStateRepository(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE "sync_states" SET .* WHERE tenant_id = \$\d+ AND entity_type = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateCursor(context.Background(), uuid.New(), sync.EntityTypeCustomers, "page2", "")

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrStateNotFound for missing row", func(t *testing.T) {
		repo, mock, mockDB := newMockSyncStateRepository(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE "sync_states" SET .* WHERE tenant_id = \$\d+ AND entity_type = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateCursor(context.Background(), uuid.New(), sync.EntityTypeCustomers, "page2", "")

		assert.ErrorIs(t, err, sync.ErrStateNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormSyncStateRepository_ReleaseLockFailure(t *testing.T) {
	t.Run("bumps the consecutive failure counter in SQL", func(t *testing.T) {
		repo, mock, mockDB := newMockSyncStateRepository(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE "sync_states" SET .*consecutive_failures.*=.*consecutive_failures \+ .* WHERE tenant_id = \$\d+ AND entity_type = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.ReleaseLockFailure(context.Background(), uuid.New(), sync.EntityTypeProducts, time.Now(), "rate limited")

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormSyncStateRepository_ResetAll(t *testing.T) {
	t.Run("resets every entity type of the tenant", func(t *testing.T) {
		repo, mock, mockDB := newMockSyncStateRepository(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE "sync_states" SET .* WHERE tenant_id = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 3))

		err := repo.ResetAll(context.Background(), uuid.New())

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
