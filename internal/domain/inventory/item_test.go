package inventory

import (
	"testing"

	"github.com/erp/retailcore/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestItem(t *testing.T, serial string) *Item {
	t.Helper()
	item, err := NewItem(serial, uuid.New(), uuid.New(), decimal.NewFromInt(40), decimal.NewFromInt(50))
	require.NoError(t, err)
	return item
}

func TestNewItem(t *testing.T) {
	t.Run("creates an available item with a receipt event", func(t *testing.T) {
		item := newTestItem(t, "SN-001")
		assert.Equal(t, StatusAvailable, item.Status)
		assert.Equal(t, 1, item.Version)
		require.Len(t, item.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeItemReceived, item.GetDomainEvents()[0].EventType())
	})

	t.Run("rejects blank serial", func(t *testing.T) {
		_, err := NewItem("  ", uuid.New(), uuid.New(), decimal.Zero, decimal.Zero)
		assert.True(t, shared.IsCode(err, shared.CodeValidation))
	})

	t.Run("rejects negative cost", func(t *testing.T) {
		_, err := NewItem("SN-1", uuid.New(), uuid.New(), decimal.NewFromInt(-1), decimal.Zero)
		assert.True(t, shared.IsCode(err, shared.CodeValidation))
	})
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to ItemStatus
		ok       bool
	}{
		{StatusAvailable, StatusReserved, true},
		{StatusReserved, StatusInTransit, true},
		{StatusInTransit, StatusSold, true},
		{StatusAvailable, StatusInTransit, true},
		{StatusInTransit, StatusAvailable, true},
		{StatusReserved, StatusAvailable, true},
		{StatusAvailable, StatusDamaged, true},
		{StatusInTransit, StatusDamaged, true},
		{StatusAvailable, StatusSold, false},
		{StatusSold, StatusDamaged, false},
		{StatusDamaged, StatusAvailable, false},
		{StatusAvailable, StatusAvailable, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestItem_Transition(t *testing.T) {
	t.Run("compare-and-swap succeeds on matching status", func(t *testing.T) {
		item := newTestItem(t, "SN-002")
		require.NoError(t, item.Transition(StatusAvailable, StatusReserved))
		assert.Equal(t, StatusReserved, item.Status)
		assert.Equal(t, 2, item.Version)
	})

	t.Run("stale observed status fails", func(t *testing.T) {
		item := newTestItem(t, "SN-003")
		err := item.Transition(StatusReserved, StatusInTransit)
		assert.True(t, shared.IsCode(err, shared.CodeStaleState))
		assert.Equal(t, StatusAvailable, item.Status)
	})

	t.Run("illegal move fails with invalid state", func(t *testing.T) {
		item := newTestItem(t, "SN-004")
		err := item.Transition(StatusAvailable, StatusSold)
		assert.True(t, shared.IsCode(err, shared.CodeInvalidState))
	})
}

func TestItem_ArriveAt(t *testing.T) {
	item := newTestItem(t, "SN-005")
	dest := uuid.New()

	err := item.ArriveAt(dest)
	assert.True(t, shared.IsCode(err, shared.CodeStaleState))

	require.NoError(t, item.Transition(StatusAvailable, StatusInTransit))
	require.NoError(t, item.ArriveAt(dest))
	assert.Equal(t, dest, item.BranchID)
	assert.Equal(t, StatusAvailable, item.Status)
	assert.Equal(t, "SN-005", item.SerialNo)
}

func TestItem_WriteOff(t *testing.T) {
	item := newTestItem(t, "SN-006")
	assert.True(t, shared.IsCode(item.WriteOff(StatusAvailable, ""), shared.CodeValidation))

	require.NoError(t, item.WriteOff(StatusAvailable, "water damage"))
	assert.Equal(t, StatusDamaged, item.Status)
	assert.Equal(t, "water damage", item.WriteOffReason)

	assert.True(t, shared.IsCode(item.WriteOff(StatusDamaged, "again"), shared.CodeInvalidState))
}

func TestStockCounter(t *testing.T) {
	t.Run("reserve within availability", func(t *testing.T) {
		c := NewStockCounter(uuid.New(), uuid.New())
		require.NoError(t, c.Reserve(3, 5))
		level := c.Level(StatusCounts{StatusAvailable: 5, StatusReserved: 1})
		assert.Equal(t, int64(6), level.Physical)
		assert.Equal(t, int64(4), level.Reserved)
		assert.Equal(t, int64(2), level.Available)
	})

	t.Run("reserve beyond availability is rejected unchanged", func(t *testing.T) {
		c := NewStockCounter(uuid.New(), uuid.New())
		require.NoError(t, c.Reserve(2, 3))
		v := c.Version
		err := c.Reserve(2, 3)
		assert.True(t, shared.IsCode(err, shared.CodeInsufficientStock))
		assert.Equal(t, int64(2), c.HeldCount)
		assert.Equal(t, v, c.Version)
	})

	t.Run("release below zero is invalid state", func(t *testing.T) {
		c := NewStockCounter(uuid.New(), uuid.New())
		require.NoError(t, c.Reserve(1, 1))
		assert.True(t, shared.IsCode(c.Release(2), shared.CodeInvalidState))
		require.NoError(t, c.Release(1))
		assert.Equal(t, int64(0), c.HeldCount)
	})

	t.Run("withdraw protects holds", func(t *testing.T) {
		c := NewStockCounter(uuid.New(), uuid.New())
		require.NoError(t, c.Reserve(2, 3))
		require.NoError(t, c.Withdraw(1, 3))
		assert.True(t, shared.IsCode(c.Withdraw(1, 2), shared.CodeInsufficientStock))
	})

	t.Run("non-positive quantity is a validation error", func(t *testing.T) {
		c := NewStockCounter(uuid.New(), uuid.New())
		assert.True(t, shared.IsCode(c.Reserve(0, 10), shared.CodeValidation))
		assert.True(t, shared.IsCode(c.Release(-1), shared.CodeValidation))
	})
}
