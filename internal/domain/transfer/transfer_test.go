package transfer

import (
	"fmt"
	"testing"

	"github.com/erp/retailcore/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func lines(n int, cost, price string) []Line {
	out := make([]Line, n)
	for i := range out {
		out[i] = Line{
			ItemID:        uuid.New(),
			SerialNo:      fmt.Sprintf("SN-%03d", i+1),
			ProductID:     uuid.New(),
			BranchCost:    dec(cost),
			TransferPrice: dec(price),
		}
	}
	return out
}

func newPending(t *testing.T) *Transfer {
	t.Helper()
	tr, err := NewTransfer("TRF-1", uuid.New(), uuid.New(), lines(3, "50", "80"), "restock", "clerk-1")
	require.NoError(t, err)
	return tr
}

func TestNewTransfer(t *testing.T) {
	t.Run("creates a pending proposal with history", func(t *testing.T) {
		tr := newPending(t)
		assert.Equal(t, StatusPending, tr.Status)
		require.Len(t, tr.PendingTransitions(), 1)
		assert.Equal(t, StatusPending, tr.PendingTransitions()[0].ToStatus)
		assert.Equal(t, EventTypeTransferCreated, tr.GetDomainEvents()[0].EventType())
	})

	t.Run("same branch is a validation error", func(t *testing.T) {
		b := uuid.New()
		_, err := NewTransfer("TRF-2", b, b, lines(1, "1", "2"), "", "x")
		assert.True(t, shared.IsCode(err, shared.CodeValidation))
	})

	t.Run("empty items is a validation error", func(t *testing.T) {
		_, err := NewTransfer("TRF-3", uuid.New(), uuid.New(), nil, "", "x")
		assert.True(t, shared.IsCode(err, shared.CodeValidation))
	})

	t.Run("duplicate serial is a validation error", func(t *testing.T) {
		ls := lines(2, "1", "2")
		ls[1].SerialNo = ls[0].SerialNo
		_, err := NewTransfer("TRF-4", uuid.New(), uuid.New(), ls, "", "x")
		assert.True(t, shared.IsCode(err, shared.CodeValidation))
	})
}

func TestTransfer_StateMachine(t *testing.T) {
	t.Run("happy path", func(t *testing.T) {
		tr := newPending(t)
		require.NoError(t, tr.Approve("admin"))
		require.NoError(t, tr.Dispatch("driver"))
		s := ComputeSettlement(tr.Lines, DefaultPoolRatio)
		require.NoError(t, tr.Complete("receiver", s))

		assert.Equal(t, StatusCompleted, tr.Status)
		assert.NotNil(t, tr.CompletedAt)
		assert.Equal(t, 4, tr.Version)
		assert.Len(t, tr.PendingTransitions(), 4)
	})

	t.Run("complete twice fails with already completed", func(t *testing.T) {
		tr := newPending(t)
		require.NoError(t, tr.Approve("admin"))
		require.NoError(t, tr.Dispatch("driver"))
		require.NoError(t, tr.Complete("receiver", Settlement{}))
		version := tr.Version

		err := tr.Complete("receiver", Settlement{Profit: dec("1")})
		assert.True(t, shared.IsCode(err, shared.CodeAlreadyCompleted))
		assert.Equal(t, version, tr.Version)
		assert.True(t, tr.Profit.IsZero())
	})

	t.Run("reject requires a reason and is terminal", func(t *testing.T) {
		tr := newPending(t)
		assert.True(t, shared.IsCode(tr.Reject("admin", " "), shared.CodeValidation))
		require.NoError(t, tr.Reject("admin", "branch is closed"))
		assert.Equal(t, "branch is closed", tr.RejectionReason)
		assert.True(t, shared.IsCode(tr.Approve("admin"), shared.CodeInvalidState))
		assert.True(t, shared.IsCode(tr.Cancel("admin", ""), shared.CodeInvalidState))
	})

	t.Run("cancel allowed from pending and approved only", func(t *testing.T) {
		tr := newPending(t)
		require.NoError(t, tr.Cancel("clerk", "mistake"))
		assert.Equal(t, StatusCancelled, tr.Status)

		tr = newPending(t)
		require.NoError(t, tr.Approve("admin"))
		require.NoError(t, tr.Cancel("clerk", ""))

		tr = newPending(t)
		require.NoError(t, tr.Approve("admin"))
		require.NoError(t, tr.Dispatch("driver"))
		assert.True(t, shared.IsCode(tr.Cancel("clerk", ""), shared.CodeInvalidState))
	})

	t.Run("dispatch requires approval", func(t *testing.T) {
		tr := newPending(t)
		assert.True(t, shared.IsCode(tr.Dispatch("driver"), shared.CodeInvalidState))
		assert.True(t, shared.IsCode(tr.Complete("r", Settlement{}), shared.CodeInvalidState))
	})
}

func TestComputeSettlement(t *testing.T) {
	t.Run("three items at 50 cost sold at 80", func(t *testing.T) {
		s := ComputeSettlement(lines(3, "50", "80"), DefaultPoolRatio)
		assert.Equal(t, "90.00", s.Profit.StringFixed(2))
		assert.Equal(t, "63.00", s.PoolShare.StringFixed(2))
		assert.Equal(t, "27.00", s.MasterShare.StringFixed(2))
	})

	t.Run("legs add up exactly when the split has a remainder", func(t *testing.T) {
		s := ComputeSettlement(lines(1, "0", "0.05"), DefaultPoolRatio)
		assert.True(t, s.PoolShare.Add(s.MasterShare).Equal(s.Profit))
		assert.Equal(t, "0.04", s.PoolShare.StringFixed(2))
		assert.Equal(t, "0.01", s.MasterShare.StringFixed(2))
	})

	t.Run("loss is split the same way", func(t *testing.T) {
		s := ComputeSettlement(lines(2, "100", "90"), DefaultPoolRatio)
		assert.Equal(t, "-20.00", s.Profit.StringFixed(2))
		assert.Equal(t, "-14.00", s.PoolShare.StringFixed(2))
		assert.Equal(t, "-6.00", s.MasterShare.StringFixed(2))
	})
}
