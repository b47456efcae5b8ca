package inventory_test

import (
	"context"
	"sync"
	"testing"

	invapp "github.com/erp/retailcore/internal/application/inventory"
	"github.com/erp/retailcore/internal/domain/shared"
	"github.com/erp/retailcore/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInventoryService_ReceiveStock(t *testing.T) {
	h := testutil.NewHarness(t)
	ctx := context.Background()
	product, branch := uuid.New(), uuid.New()

	item, err := h.Inventory.ReceiveStock(ctx, invapp.ReceiveStockRequest{
		ProductID:   product,
		BranchID:    branch,
		SerialNo:    "  IMEI-1 ",
		LandingCost: decimal.NewFromInt(40),
		BranchCost:  decimal.NewFromInt(50),
	})
	require.NoError(t, err)
	assert.Equal(t, "IMEI-1", item.SerialNo)
	assert.Equal(t, "AVAILABLE", item.Status)

	_, err = h.Inventory.ReceiveStock(ctx, invapp.ReceiveStockRequest{
		ProductID: product, BranchID: branch, SerialNo: "IMEI-1",
	})
	assert.True(t, shared.IsCode(err, shared.CodeAlreadyExists), "got %v", err)

	_, err = h.Inventory.ReceiveStock(ctx, invapp.ReceiveStockRequest{
		ProductID: product, BranchID: branch, SerialNo: "IMEI-2", BranchCost: decimal.NewFromInt(-1),
	})
	assert.True(t, shared.IsCode(err, shared.CodeValidation), "got %v", err)

	found, err := h.Inventory.GetItemBySerial(ctx, "IMEI-1")
	require.NoError(t, err)
	assert.Equal(t, item.ID, found.ID)
}

func TestInventoryService_TransitionIsCompareAndSwap(t *testing.T) {
	h := testutil.NewHarness(t)
	ctx := context.Background()
	item := h.Receive(t, uuid.New(), uuid.New(), "CAS-1", "10")

	moved, err := h.Inventory.TransitionItem(ctx, item.ID, invapp.TransitionItemRequest{FromStatus: "AVAILABLE", ToStatus: "RESERVED"})
	require.NoError(t, err)
	assert.Equal(t, "RESERVED", moved.Status)
	assert.Greater(t, moved.Version, item.Version)

	_, err = h.Inventory.TransitionItem(ctx, item.ID, invapp.TransitionItemRequest{FromStatus: "AVAILABLE", ToStatus: "RESERVED"})
	assert.True(t, shared.IsCode(err, shared.CodeStaleState), "got %v", err)

	_, err = h.Inventory.TransitionItem(ctx, item.ID, invapp.TransitionItemRequest{FromStatus: "RESERVED", ToStatus: "SOLD"})
	assert.True(t, shared.IsCode(err, shared.CodeInvalidState), "got %v", err)

	_, err = h.Inventory.TransitionItem(ctx, item.ID, invapp.TransitionItemRequest{FromStatus: "RESERVED", ToStatus: "LOST"})
	assert.True(t, shared.IsCode(err, shared.CodeValidation), "got %v", err)

	_, err = h.Inventory.TransitionItem(ctx, uuid.New(), invapp.TransitionItemRequest{FromStatus: "AVAILABLE", ToStatus: "RESERVED"})
	assert.True(t, shared.IsCode(err, shared.CodeNotFound), "got %v", err)
}

func TestInventoryService_ConcurrentTransitionsHaveOneWinner(t *testing.T) {
	h := testutil.NewHarness(t)
	item := h.Receive(t, uuid.New(), uuid.New(), "RACE-1", "10")

	const racers = 5
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.Inventory.TransitionItem(context.Background(), item.ID,
				invapp.TransitionItemRequest{FromStatus: "AVAILABLE", ToStatus: "IN_TRANSIT"})
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
				return
			}
			assert.True(t, shared.IsCode(err, shared.CodeStaleState), "got %v", err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestInventoryService_ReserveAndRelease(t *testing.T) {
	h := testutil.NewHarness(t)
	ctx := context.Background()
	product, branch := uuid.New(), uuid.New()
	for _, s := range []string{"R-1", "R-2", "R-3"} {
		h.Receive(t, product, branch, s, "10")
	}
	req := func(n int64) invapp.ReservationRequest {
		return invapp.ReservationRequest{ProductID: product, BranchID: branch, Quantity: n}
	}

	level, err := h.Inventory.Reserve(ctx, req(2))
	require.NoError(t, err)
	assert.Equal(t, int64(3), level.Physical)
	assert.Equal(t, int64(2), level.Reserved)
	assert.Equal(t, int64(1), level.Available)

	_, err = h.Inventory.Reserve(ctx, req(2))
	assert.True(t, shared.IsCode(err, shared.CodeInsufficientStock), "got %v", err)

	_, err = h.Inventory.Release(ctx, req(3))
	assert.True(t, shared.IsCode(err, shared.CodeInvalidState), "got %v", err)

	level, err = h.Inventory.Release(ctx, req(2))
	require.NoError(t, err)
	assert.Equal(t, int64(3), level.Available)

	_, err = h.Inventory.Reserve(ctx, req(0))
	assert.True(t, shared.IsCode(err, shared.CodeValidation), "got %v", err)
}

func TestInventoryService_AvailabilityNeverNegative(t *testing.T) {
	h := testutil.NewHarness(t)
	ctx := context.Background()
	product, branch := uuid.New(), uuid.New()
	a := h.Receive(t, product, branch, "A-1", "10")
	h.Receive(t, product, branch, "A-2", "10")

	_, err := h.Inventory.Reserve(ctx, invapp.ReservationRequest{ProductID: product, BranchID: branch, Quantity: 2})
	require.NoError(t, err)

	_, err = h.Inventory.TransitionItem(ctx, a.ID, invapp.TransitionItemRequest{FromStatus: "AVAILABLE", ToStatus: "IN_TRANSIT"})
	assert.True(t, shared.IsCode(err, shared.CodeInsufficientStock), "got %v", err)

	_, err = h.Inventory.WriteOff(ctx, a.ID, invapp.WriteOffRequest{Reason: "cracked"})
	assert.True(t, shared.IsCode(err, shared.CodeInsufficientStock), "got %v", err)

	level, err := h.Inventory.GetAvailableCount(ctx, product, branch)
	require.NoError(t, err)
	assert.Equal(t, int64(0), level.Available)
	assert.Equal(t, int64(2), level.Physical)
}

func TestInventoryService_WriteOff(t *testing.T) {
	h := testutil.NewHarness(t)
	ctx := context.Background()
	item := h.Receive(t, uuid.New(), uuid.New(), "W-1", "10")

	_, err := h.Inventory.WriteOff(ctx, item.ID, invapp.WriteOffRequest{Reason: " "})
	assert.True(t, shared.IsCode(err, shared.CodeValidation), "got %v", err)

	damaged, err := h.Inventory.WriteOff(ctx, item.ID, invapp.WriteOffRequest{Reason: "water damage"})
	require.NoError(t, err)
	assert.Equal(t, "DAMAGED", damaged.Status)
	assert.Equal(t, "water damage", damaged.WriteOffReason)

	_, err = h.Inventory.WriteOff(ctx, item.ID, invapp.WriteOffRequest{Reason: "again"})
	assert.True(t, shared.IsCode(err, shared.CodeInvalidState), "got %v", err)
}

func TestInventoryService_LooseInTransitItemStillTransitions(t *testing.T) {
	h := testutil.NewHarness(t)
	ctx := context.Background()
	item := h.Receive(t, uuid.New(), uuid.New(), "L-1", "10")

	_, err := h.Inventory.TransitionItem(ctx, item.ID, invapp.TransitionItemRequest{FromStatus: "AVAILABLE", ToStatus: "IN_TRANSIT"})
	require.NoError(t, err)
	sold, err := h.Inventory.TransitionItem(ctx, item.ID, invapp.TransitionItemRequest{FromStatus: "IN_TRANSIT", ToStatus: "SOLD"})
	require.NoError(t, err)
	assert.Equal(t, "SOLD", sold.Status)
}

func TestInventoryService_ListItems(t *testing.T) {
	h := testutil.NewHarness(t)
	ctx := context.Background()
	product, branch := uuid.New(), uuid.New()
	for _, s := range []string{"L-1", "L-2", "L-3"} {
		h.Receive(t, product, branch, s, "10")
	}
	h.Receive(t, uuid.New(), branch, "L-4", "10")

	page, err := h.Inventory.ListItems(ctx, invapp.ItemListFilter{ProductID: &product, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 2, page.TotalPages)

	page, err = h.Inventory.ListItems(ctx, invapp.ItemListFilter{BranchID: &branch, Status: "AVAILABLE"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), page.Total)

	_, err = h.Inventory.ListItems(ctx, invapp.ItemListFilter{Status: "MISSING"})
	assert.True(t, shared.IsCode(err, shared.CodeValidation), "got %v", err)
}
