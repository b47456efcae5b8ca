package transfer_test

import (
	"context"
	"testing"

	invapp "github.com/erp/retailcore/internal/application/inventory"
	ledgerapp "github.com/erp/retailcore/internal/application/ledger"
	transferapp "github.com/erp/retailcore/internal/application/transfer"
	"github.com/erp/retailcore/internal/domain/ledger"
	"github.com/erp/retailcore/internal/domain/shared"
	"github.com/erp/retailcore/internal/domain/transfer"
	"github.com/erp/retailcore/internal/infrastructure/ids"
	"github.com/erp/retailcore/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fixture struct {
	h       *testutil.Harness
	from    uuid.UUID
	to      uuid.UUID
	product uuid.UUID
	actor   string
}

func newFixture(t *testing.T) *fixture {
	h := testutil.NewHarness(t)
	return &fixture{
		h:       h,
		from:    h.OpenBranch(t, "master"),
		to:      h.OpenBranch(t, "outlet"),
		product: testutil.NewTestUUID("phone"),
		actor:   testutil.TestActorID(),
	}
}

func (f *fixture) create(t *testing.T, prices map[string]string, serials ...string) *transferapp.TransferResponse {
	t.Helper()
	req := transferapp.CreateTransferRequest{FromBranchID: f.from, ToBranchID: f.to}
	for _, s := range serials {
		req.Items = append(req.Items, transferapp.CreateTransferItem{SerialNo: s, TransferPrice: dec(prices[s])})
	}
	tr, err := f.h.Transfers.Create(context.Background(), req, f.actor)
	require.NoError(t, err)
	return tr
}

func (f *fixture) balance(t *testing.T, kind ledger.OwnerKind, owner uuid.UUID) decimal.Decimal {
	t.Helper()
	acc, err := f.h.Ledger.GetAccount(context.Background(), kind, owner)
	require.NoError(t, err)
	return acc.Balance
}

func TestTransferService_FullLifecycleSettlesProfit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	prices := map[string]string{"S-1": "80", "S-2": "80", "S-3": "80"}
	for s := range prices {
		f.h.Receive(t, f.product, f.from, s, "50")
	}

	tr := f.create(t, prices, "S-1", "S-2", "S-3")
	assert.Equal(t, "PENDING", tr.Status)
	assert.NotEmpty(t, tr.TransferNo)

	_, err := f.h.Transfers.Approve(ctx, tr.ID, f.actor)
	require.NoError(t, err)
	_, err = f.h.Transfers.Dispatch(ctx, tr.ID, f.actor)
	require.NoError(t, err)

	level, err := f.h.Inventory.GetAvailableCount(ctx, f.product, f.from)
	require.NoError(t, err)
	assert.Equal(t, int64(0), level.Available)

	done, err := f.h.Transfers.Complete(ctx, tr.ID, f.actor)
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", done.Status)
	assert.True(t, dec("90").Equal(done.Profit), done.Profit.String())
	assert.True(t, dec("63").Equal(done.PoolShare), done.PoolShare.String())
	assert.True(t, dec("27").Equal(done.MasterShare), done.MasterShare.String())

	assert.True(t, dec("63").Equal(f.balance(t, ledger.OwnerInvestorPool, f.h.PoolOwnerID)))
	assert.True(t, dec("27").Equal(f.balance(t, ledger.OwnerBranch, f.from)))

	level, err = f.h.Inventory.GetAvailableCount(ctx, f.product, f.to)
	require.NoError(t, err)
	assert.Equal(t, int64(3), level.Available)

	item, err := f.h.Inventory.GetItemBySerial(ctx, "S-2")
	require.NoError(t, err)
	assert.Equal(t, f.to, item.BranchID)
	assert.Equal(t, "AVAILABLE", item.Status)

	entries, err := f.h.Ledger.GetEntries(ctx, ledger.OwnerInvestorPool, f.h.PoolOwnerID, ledgerapp.EntryQuery{})
	require.NoError(t, err)
	require.Len(t, entries.Items, 1)
	assert.Equal(t, "TRANSFER", entries.Items[0].EntryType)
	assert.Equal(t, tr.ID.String(), entries.Items[0].ReferenceID)

	history, err := f.h.Transfers.History(ctx, tr.ID)
	require.NoError(t, err)
	statuses := make([]string, len(history))
	for i, h := range history {
		statuses[i] = h.ToStatus
	}
	assert.Equal(t, []string{"PENDING", "APPROVED", "IN_TRANSIT", "COMPLETED"}, statuses)
}

func TestTransferService_CompleteTwiceIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.h.Receive(t, f.product, f.from, "C-1", "100")
	tr := f.create(t, map[string]string{"C-1": "150"}, "C-1")

	_, err := f.h.Transfers.Approve(ctx, tr.ID, f.actor)
	require.NoError(t, err)
	_, err = f.h.Transfers.Dispatch(ctx, tr.ID, f.actor)
	require.NoError(t, err)
	_, err = f.h.Transfers.Complete(ctx, tr.ID, f.actor)
	require.NoError(t, err)

	_, err = f.h.Transfers.Complete(ctx, tr.ID, f.actor)
	assert.True(t, shared.IsCode(err, shared.CodeAlreadyCompleted), "got %v", err)

	// no second settlement
	assert.True(t, dec("35").Equal(f.balance(t, ledger.OwnerInvestorPool, f.h.PoolOwnerID)))
	assert.True(t, dec("15").Equal(f.balance(t, ledger.OwnerBranch, f.from)))
}

func TestTransferService_DispatchAfterSaleMovesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.h.Receive(t, f.product, f.from, "D-1", "10")
	sold := f.h.Receive(t, f.product, f.from, "D-2", "10")

	tr := f.create(t, map[string]string{"D-1": "12", "D-2": "12"}, "D-1", "D-2")
	_, err := f.h.Transfers.Approve(ctx, tr.ID, f.actor)
	require.NoError(t, err)

	_, err = f.h.Inventory.TransitionItem(ctx, sold.ID, invapp.TransitionItemRequest{FromStatus: "AVAILABLE", ToStatus: "RESERVED"})
	require.NoError(t, err)

	_, err = f.h.Transfers.Dispatch(ctx, tr.ID, f.actor)
	assert.True(t, shared.IsCode(err, shared.CodeInsufficientStock), "got %v", err)

	other, err := f.h.Inventory.GetItemBySerial(ctx, "D-1")
	require.NoError(t, err)
	assert.Equal(t, "AVAILABLE", other.Status)
	assert.Equal(t, f.from, other.BranchID)

	current, err := f.h.Transfers.Get(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, "APPROVED", current.Status)
}

func TestTransferService_DispatchRespectsBulkHolds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.h.Receive(t, f.product, f.from, "B-1", "10")
	f.h.Receive(t, f.product, f.from, "B-2", "10")

	tr := f.create(t, map[string]string{"B-1": "12"}, "B-1")
	_, err := f.h.Transfers.Approve(ctx, tr.ID, f.actor)
	require.NoError(t, err)

	_, err = f.h.Inventory.Reserve(ctx, invapp.ReservationRequest{ProductID: f.product, BranchID: f.from, Quantity: 2})
	require.NoError(t, err)

	_, err = f.h.Transfers.Dispatch(ctx, tr.ID, f.actor)
	assert.True(t, shared.IsCode(err, shared.CodeInsufficientStock), "got %v", err)

	level, err := f.h.Inventory.GetAvailableCount(ctx, f.product, f.from)
	require.NoError(t, err)
	assert.Equal(t, int64(0), level.Available)
	assert.Equal(t, int64(2), level.Physical)
}

func TestTransferService_NegativeProfitDebitsLedgers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.h.Receive(t, f.product, f.from, "N-1", "100")
	tr := f.create(t, map[string]string{"N-1": "90"}, "N-1")

	_, err := f.h.Transfers.Approve(ctx, tr.ID, f.actor)
	require.NoError(t, err)
	_, err = f.h.Transfers.Dispatch(ctx, tr.ID, f.actor)
	require.NoError(t, err)
	done, err := f.h.Transfers.Complete(ctx, tr.ID, f.actor)
	require.NoError(t, err)

	assert.True(t, dec("-10").Equal(done.Profit))
	assert.True(t, dec("-7").Equal(f.balance(t, ledger.OwnerInvestorPool, f.h.PoolOwnerID)))
	assert.True(t, dec("-3").Equal(f.balance(t, ledger.OwnerBranch, f.from)))
}

func TestTransferService_CreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.h.Receive(t, f.product, f.from, "V-1", "10")
	f.h.Receive(t, f.product, f.to, "V-2", "10")

	tests := []struct {
		name string
		req  transferapp.CreateTransferRequest
		code string
	}{
		{
			name: "no items",
			req:  transferapp.CreateTransferRequest{FromBranchID: f.from, ToBranchID: f.to},
			code: shared.CodeValidation,
		},
		{
			name: "unknown serial",
			req: transferapp.CreateTransferRequest{FromBranchID: f.from, ToBranchID: f.to,
				Items: []transferapp.CreateTransferItem{{SerialNo: "NOPE", TransferPrice: dec("1")}}},
			code: shared.CodeValidation,
		},
		{
			name: "held by another branch",
			req: transferapp.CreateTransferRequest{FromBranchID: f.from, ToBranchID: f.to,
				Items: []transferapp.CreateTransferItem{{SerialNo: "V-2", TransferPrice: dec("1")}}},
			code: shared.CodeValidation,
		},
		{
			name: "same branch",
			req: transferapp.CreateTransferRequest{FromBranchID: f.from, ToBranchID: f.from,
				Items: []transferapp.CreateTransferItem{{SerialNo: "V-1", TransferPrice: dec("1")}}},
			code: shared.CodeValidation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.h.Transfers.Create(ctx, tt.req, f.actor)
			assert.True(t, shared.IsCode(err, tt.code), "got %v", err)
		})
	}
}

func TestTransferService_StatusGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.h.Receive(t, f.product, f.from, "G-1", "10")
	tr := f.create(t, map[string]string{"G-1": "12"}, "G-1")

	_, err := f.h.Transfers.Dispatch(ctx, tr.ID, f.actor)
	assert.True(t, shared.IsCode(err, shared.CodeInvalidState), "dispatch before approve: %v", err)

	_, err = f.h.Transfers.Reject(ctx, tr.ID, transferapp.RejectTransferRequest{Reason: "not needed"}, f.actor)
	require.NoError(t, err)

	_, err = f.h.Transfers.Approve(ctx, tr.ID, f.actor)
	assert.True(t, shared.IsCode(err, shared.CodeInvalidState), "approve after reject: %v", err)

	_, err = f.h.Transfers.Get(ctx, uuid.New())
	assert.True(t, shared.IsCode(err, shared.CodeNotFound))

	list, err := f.h.Transfers.List(ctx, transferapp.TransferListFilter{Status: "REJECTED"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.Total)
}

func TestTransferService_InTransitItemsMoveOnlyWithTheTransfer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.h.Receive(t, f.product, f.from, "T-1", "50")
	f.h.Receive(t, f.product, f.from, "T-2", "50")
	tr := f.create(t, map[string]string{"T-1": "60", "T-2": "60"}, "T-1", "T-2")

	_, err := f.h.Transfers.Approve(ctx, tr.ID, f.actor)
	require.NoError(t, err)
	_, err = f.h.Transfers.Dispatch(ctx, tr.ID, f.actor)
	require.NoError(t, err)

	for _, to := range []string{"SOLD", "AVAILABLE"} {
		_, err = f.h.Inventory.TransitionItem(ctx, item.ID, invapp.TransitionItemRequest{FromStatus: "IN_TRANSIT", ToStatus: to})
		assert.True(t, shared.IsCode(err, shared.CodeInvalidState), "IN_TRANSIT -> %s: %v", to, err)
	}
	_, err = f.h.Inventory.WriteOff(ctx, item.ID, invapp.WriteOffRequest{Reason: "dropped"})
	assert.True(t, shared.IsCode(err, shared.CodeInvalidState), "write-off: %v", err)

	stored, err := f.h.Inventory.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "IN_TRANSIT", stored.Status)

	done, err := f.h.Transfers.Complete(ctx, tr.ID, f.actor)
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", done.Status)

	// once received the item is ordinary stock again
	_, err = f.h.Inventory.TransitionItem(ctx, item.ID, invapp.TransitionItemRequest{FromStatus: "AVAILABLE", ToStatus: "RESERVED"})
	assert.NoError(t, err)
}

func TestTransferService_FailedPostingRollsBackCompletion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.h.Receive(t, f.product, f.from, "R-1", "50")
	f.h.Receive(t, f.product, f.from, "R-2", "50")
	tr := f.create(t, map[string]string{"R-1": "80", "R-2": "80"}, "R-1", "R-2")

	_, err := f.h.Transfers.Approve(ctx, tr.ID, f.actor)
	require.NoError(t, err)
	_, err = f.h.Transfers.Dispatch(ctx, tr.ID, f.actor)
	require.NoError(t, err)

	// the branch leg posts first, then the pool leg finds no ledger
	unopenedPool := transferapp.NewTransferService(f.h.Scope.Transfer(), f.h.Locker, ids.NewGenerator(), f.h.Exec, transferapp.Settings{
		PoolOwnerID: testutil.NewTestUUID("missing-pool"),
		PoolRatio:   transfer.DefaultPoolRatio,
	})
	_, err = unopenedPool.Complete(ctx, tr.ID, f.actor)
	require.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeNotFound), "got %v", err)

	got, err := f.h.Transfers.Get(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, "IN_TRANSIT", got.Status)
	assert.True(t, got.Profit.IsZero())

	for _, serial := range []string{"R-1", "R-2"} {
		item, err := f.h.Inventory.GetItemBySerial(ctx, serial)
		require.NoError(t, err)
		assert.Equal(t, "IN_TRANSIT", item.Status, serial)
		assert.Equal(t, f.from, item.BranchID, serial)
	}
	level, err := f.h.Inventory.GetAvailableCount(ctx, f.product, f.to)
	require.NoError(t, err)
	assert.Zero(t, level.Available)

	assert.True(t, f.balance(t, ledger.OwnerInvestorPool, f.h.PoolOwnerID).IsZero())
	assert.True(t, f.balance(t, ledger.OwnerBranch, f.from).IsZero())
	entries, err := f.h.Ledger.GetEntries(ctx, ledger.OwnerBranch, f.from, ledgerapp.EntryQuery{})
	require.NoError(t, err)
	assert.Empty(t, entries.Items)

	done, err := f.h.Transfers.Complete(ctx, tr.ID, f.actor)
	require.NoError(t, err)
	assert.True(t, dec("42").Equal(done.PoolShare), done.PoolShare.String())
	assert.True(t, dec("42").Equal(f.balance(t, ledger.OwnerInvestorPool, f.h.PoolOwnerID)))
}

func TestTransferService_CreateRequiresSourceLedger(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	unopened := testutil.NewTestUUID("branch-without-ledger")
	f.h.Receive(t, f.product, unopened, "U-1", "10")

	_, err := f.h.Transfers.Create(ctx, transferapp.CreateTransferRequest{
		FromBranchID: unopened,
		ToBranchID:   f.to,
		Items:        []transferapp.CreateTransferItem{{SerialNo: "U-1", TransferPrice: dec("12")}},
	}, f.actor)
	assert.True(t, shared.IsCode(err, shared.CodeNotFound), "got %v", err)

	list, err := f.h.Transfers.List(ctx, transferapp.TransferListFilter{})
	require.NoError(t, err)
	assert.Zero(t, list.Total)
}
