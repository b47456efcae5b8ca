package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/erp/retailcore/internal/application/common"
	distapp "github.com/erp/retailcore/internal/application/distribution"
	invapp "github.com/erp/retailcore/internal/application/inventory"
	ledgerapp "github.com/erp/retailcore/internal/application/ledger"
	transferapp "github.com/erp/retailcore/internal/application/transfer"
	"github.com/erp/retailcore/internal/domain/ledger"
	"github.com/erp/retailcore/internal/domain/transfer"
	"github.com/erp/retailcore/internal/infrastructure/cache"
	"github.com/erp/retailcore/internal/infrastructure/config"
	"github.com/erp/retailcore/internal/infrastructure/event"
	"github.com/erp/retailcore/internal/infrastructure/ids"
	"github.com/erp/retailcore/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Harness is the full service graph over a private in-memory sqlite database
type Harness struct {
	DB           *persistence.Database
	Scope        *persistence.GormTransactionScope
	Locker       *cache.LocalLocker
	Exec         *common.Executor
	PoolOwnerID  uuid.UUID
	Inventory    *invapp.InventoryService
	Ledger       *ledgerapp.LedgerService
	Transfers    *transferapp.TransferService
	Distribution *distapp.DistributionService
}

// NewSQLiteDatabase opens a private in-memory sqlite database with the full schema
func NewSQLiteDatabase(t *testing.T) *persistence.Database {
	t.Helper()
	cfg := &config.DatabaseConfig{
		Driver: "sqlite",
		Path:   fmt.Sprintf("file:retailcore_%s?mode=memory&cache=shared", uuid.NewString()),
	}
	db, err := persistence.NewDatabase(cfg, persistence.Options{Logger: zap.NewNop()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.AutoMigrate())
	return db
}

// NewHarness wires every application service the way the server does over
// a private sqlite database and opens the investor pool ledger
func NewHarness(t *testing.T) *Harness {
	t.Helper()
	return NewHarnessWithDB(t, NewSQLiteDatabase(t))
}

// NewHarnessWithDB is NewHarness over an already migrated database
func NewHarnessWithDB(t *testing.T, db *persistence.Database) *Harness {
	t.Helper()
	scope := persistence.NewGormTransactionScope(db.DB, event.NewOutboxPublisher(event.NewDefaultSerializer()))
	locker := cache.NewLocalLocker()
	exec := common.NewExecutor(5*time.Second, common.RetryPolicy{
		Attempts: 3,
		Initial:  time.Millisecond,
		Max:      5 * time.Millisecond,
	}, zap.NewNop())

	h := &Harness{
		DB:          db,
		Scope:       scope,
		Locker:      locker,
		Exec:        exec,
		PoolOwnerID: NewTestUUID("investor-pool"),
	}
	h.Inventory = invapp.NewInventoryService(scope.Inventory(), exec)
	h.Ledger = ledgerapp.NewLedgerService(scope.Ledger(), locker, exec)
	h.Transfers = transferapp.NewTransferService(scope.Transfer(), locker, ids.NewGenerator(), exec, transferapp.Settings{
		PoolOwnerID: h.PoolOwnerID,
		PoolRatio:   transfer.DefaultPoolRatio,
	})
	h.Distribution = distapp.NewDistributionService(scope.Distribution(), locker, exec, transfer.DefaultPoolRatio)

	_, err := h.Ledger.EnsureInvestorPool(context.Background(), h.PoolOwnerID, "Investor Pool")
	require.NoError(t, err)
	return h
}

// OpenBranch opens the ledger of a branch and returns its id
func (h *Harness) OpenBranch(t *testing.T, name string) uuid.UUID {
	t.Helper()
	id := NewTestUUID("branch-" + name + "-" + t.Name())
	_, err := h.Ledger.OpenAccount(context.Background(), ledger.OwnerBranch, ledgerapp.OpenAccountRequest{OwnerID: id, Name: name})
	require.NoError(t, err)
	return id
}

// Receive registers one AVAILABLE item at a branch
func (h *Harness) Receive(t *testing.T, productID, branchID uuid.UUID, serialNo, branchCost string) *invapp.ItemResponse {
	t.Helper()
	cost := decimal.RequireFromString(branchCost)
	item, err := h.Inventory.ReceiveStock(context.Background(), invapp.ReceiveStockRequest{
		ProductID:   productID,
		BranchID:    branchID,
		SerialNo:    serialNo,
		LandingCost: cost,
		BranchCost:  cost,
	})
	require.NoError(t, err)
	return item
}
