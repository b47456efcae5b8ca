package persistence

import (
	"context"
	"testing"

	"github.com/erp/retailcore/internal/domain/shared"
	"github.com/erp/retailcore/internal/domain/transfer"
	"github.com/erp/retailcore/internal/infrastructure/ids"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTransfer(t *testing.T, from, to uuid.UUID) *transfer.Transfer {
	t.Helper()
	lines := []transfer.Line{
		{ItemID: uuid.New(), SerialNo: "SN-A", ProductID: uuid.New(), BranchCost: decimal.NewFromInt(50), TransferPrice: decimal.NewFromInt(80)},
		{ItemID: uuid.New(), SerialNo: "SN-B", ProductID: uuid.New(), BranchCost: decimal.NewFromInt(50), TransferPrice: decimal.NewFromInt(80)},
	}
	tr, err := transfer.NewTransfer(ids.NewGenerator().NextTransferNo(), from, to, lines, "restock", "alice")
	require.NoError(t, err)
	return tr
}

func TestGormTransferRepository_CreateAndLoad(t *testing.T) {
	db := newTestDatabase(t)
	repo := NewGormTransferRepository(db.DB)
	ctx := context.Background()

	tr := newTestTransfer(t, uuid.New(), uuid.New())
	require.NoError(t, repo.Create(ctx, tr))
	assert.Empty(t, tr.PendingTransitions())

	loaded, err := repo.FindByID(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, tr.TransferNo, loaded.TransferNo)
	assert.Equal(t, transfer.StatusPending, loaded.Status)
	require.Len(t, loaded.Lines, 2)
	assert.Equal(t, "SN-A", loaded.Lines[0].SerialNo)
	assert.True(t, decimal.NewFromInt(80).Equal(loaded.Lines[1].TransferPrice))

	byNo, err := repo.FindByNo(ctx, tr.TransferNo)
	require.NoError(t, err)
	assert.Equal(t, tr.ID, byNo.ID)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.True(t, shared.IsCode(err, shared.CodeNotFound))
}

func TestGormTransferRepository_SaveWithLock(t *testing.T) {
	db := newTestDatabase(t)
	repo := NewGormTransferRepository(db.DB)
	ctx := context.Background()

	tr := newTestTransfer(t, uuid.New(), uuid.New())
	require.NoError(t, repo.Create(ctx, tr))

	first, err := repo.FindByID(ctx, tr.ID)
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, tr.ID)
	require.NoError(t, err)

	require.NoError(t, first.Approve("bob"))
	require.NoError(t, repo.SaveWithLock(ctx, first))

	require.NoError(t, second.Cancel("carol", "changed plans"))
	err = repo.SaveWithLock(ctx, second)
	assert.True(t, shared.IsCode(err, shared.CodeStaleState))

	stored, err := repo.FindByID(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, transfer.StatusApproved, stored.Status)
	assert.Equal(t, "bob", stored.ApprovedBy)
	require.NotNil(t, stored.ApprovedAt)

	history, err := repo.History(ctx, tr.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, transfer.Status(""), history[0].FromStatus)
	assert.Equal(t, transfer.StatusPending, history[0].ToStatus)
	assert.Equal(t, transfer.StatusPending, history[1].FromStatus)
	assert.Equal(t, transfer.StatusApproved, history[1].ToStatus)
	assert.Equal(t, "bob", history[1].ActorID)
}

func TestGormTransferRepository_InTransitTransferNo(t *testing.T) {
	db := newTestDatabase(t)
	repo := NewGormTransferRepository(db.DB)
	ctx := context.Background()

	tr := newTestTransfer(t, uuid.New(), uuid.New())
	require.NoError(t, repo.Create(ctx, tr))
	carried := tr.Lines[0].ItemID

	no, err := repo.InTransitTransferNo(ctx, carried)
	require.NoError(t, err)
	assert.Empty(t, no, "a pending transfer carries nothing yet")

	loaded, err := repo.FindByID(ctx, tr.ID)
	require.NoError(t, err)
	require.NoError(t, loaded.Approve("bob"))
	require.NoError(t, repo.SaveWithLock(ctx, loaded))
	loaded, err = repo.FindByID(ctx, tr.ID)
	require.NoError(t, err)
	require.NoError(t, loaded.Dispatch("bob"))
	require.NoError(t, repo.SaveWithLock(ctx, loaded))

	no, err = repo.InTransitTransferNo(ctx, carried)
	require.NoError(t, err)
	assert.Equal(t, tr.TransferNo, no)

	no, err = repo.InTransitTransferNo(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, no)
}

func TestGormTransferRepository_FindAll(t *testing.T) {
	db := newTestDatabase(t)
	repo := NewGormTransferRepository(db.DB)
	ctx := context.Background()
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	require.NoError(t, repo.Create(ctx, newTestTransfer(t, a, b)))
	require.NoError(t, repo.Create(ctx, newTestTransfer(t, b, c)))
	approved := newTestTransfer(t, a, c)
	require.NoError(t, repo.Create(ctx, approved))
	require.NoError(t, approved.Approve("bob"))
	require.NoError(t, repo.SaveWithLock(ctx, approved))

	_, total, err := repo.FindAll(ctx, transfer.Filter{Filter: shared.DefaultFilter(), BranchID: &b})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	_, total, err = repo.FindAll(ctx, transfer.Filter{Filter: shared.DefaultFilter(), FromBranchID: &a})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	status := transfer.StatusApproved
	list, total, err := repo.FindAll(ctx, transfer.Filter{Filter: shared.DefaultFilter(), Status: &status})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, approved.ID, list[0].ID)
	assert.Len(t, list[0].Lines, 2)
}
