package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/retailcore/internal/domain/inventory"
	"github.com/erp/retailcore/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSaveTransition_CompareAndSwap checks the UPDATE carries the observed
// version, status and branch, and that a missed row is STALE_STATE
func TestSaveTransition_CompareAndSwap(t *testing.T) {
	updateSQL := `UPDATE "inventory_items" SET .* WHERE id = \$\d+ AND version = \$\d+ AND status = \$\d+ AND branch_id = \$\d+`

	t.Run("row matched", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormItemRepository(gormDB)

		item := newTestItem(t, "SN-1", uuid.New(), uuid.New())
		require.NoError(t, item.Transition(inventory.StatusAvailable, inventory.StatusReserved))

		mock.ExpectExec(updateSQL).WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.SaveTransition(context.Background(), item, inventory.StatusAvailable, item.BranchID))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("row changed underneath", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormItemRepository(gormDB)

		item := newTestItem(t, "SN-2", uuid.New(), uuid.New())
		require.NoError(t, item.Transition(inventory.StatusAvailable, inventory.StatusReserved))

		mock.ExpectExec(updateSQL).WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.SaveTransition(context.Background(), item, inventory.StatusAvailable, item.BranchID)
		assert.True(t, shared.IsCode(err, shared.CodeStaleState))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("driver error is passed through", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormItemRepository(gormDB)

		item := newTestItem(t, "SN-3", uuid.New(), uuid.New())
		require.NoError(t, item.Transition(inventory.StatusAvailable, inventory.StatusReserved))

		mock.ExpectExec(updateSQL).WillReturnError(errors.New("connection reset"))

		err := repo.SaveTransition(context.Background(), item, inventory.StatusAvailable, item.BranchID)
		require.Error(t, err)
		_, isDomain := shared.AsDomainError(err)
		assert.False(t, isDomain)
	})
}

func TestStockCounterSave_Conflict(t *testing.T) {
	gormDB, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	repo := NewGormStockCounterRepository(gormDB)

	counter := inventory.NewStockCounter(uuid.New(), uuid.New())
	require.NoError(t, counter.Reserve(1, 3))

	mock.ExpectExec(`UPDATE "stock_counters" SET .* WHERE product_id = \$\d+ AND branch_id = \$\d+ AND version = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Save(context.Background(), counter)
	assert.True(t, shared.IsCode(err, shared.CodeConcurrencyConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}
