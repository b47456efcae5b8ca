package persistence

import (
	"context"

	appdist "github.com/erp/retailcore/internal/application/distribution"
	appinv "github.com/erp/retailcore/internal/application/inventory"
	appledger "github.com/erp/retailcore/internal/application/ledger"
	apptransfer "github.com/erp/retailcore/internal/application/transfer"
	"github.com/erp/retailcore/internal/domain/distribution"
	"github.com/erp/retailcore/internal/domain/inventory"
	"github.com/erp/retailcore/internal/domain/ledger"
	"github.com/erp/retailcore/internal/domain/shared"
	"github.com/erp/retailcore/internal/domain/transfer"
	"github.com/erp/retailcore/internal/infrastructure/event"
	"gorm.io/gorm"
)

// GormTransactionScope implements the TransactionScope ports of every
// application package using GORM transactions. Domain events published
// through Outbox() are stored in the same transaction.
type GormTransactionScope struct {
	db        *gorm.DB
	publisher *event.OutboxPublisher
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB, publisher *event.OutboxPublisher) *GormTransactionScope {
	return &GormTransactionScope{db: db, publisher: publisher}
}

func (s *GormTransactionScope) run(ctx context.Context, fn func(r *gormTransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx, publisher: s.publisher})
	})
}

// Inventory returns the scope as seen by the inventory service
func (s *GormTransactionScope) Inventory() InventoryScope { return InventoryScope{s} }

// Ledger returns the scope as seen by the ledger service
func (s *GormTransactionScope) Ledger() LedgerScope { return LedgerScope{s} }

// Transfer returns the scope as seen by the transfer service
func (s *GormTransactionScope) Transfer() TransferScope { return TransferScope{s} }

// Distribution returns the scope as seen by the distribution service
func (s *GormTransactionScope) Distribution() DistributionScope { return DistributionScope{s} }

// InventoryScope implements appinv.TransactionScope
type InventoryScope struct{ s *GormTransactionScope }

func (i InventoryScope) Execute(ctx context.Context, fn func(repos appinv.TransactionalRepositories) error) error {
	return i.s.run(ctx, func(r *gormTransactionalRepositories) error { return fn(r) })
}

// LedgerScope implements appledger.TransactionScope
type LedgerScope struct{ s *GormTransactionScope }

func (l LedgerScope) Execute(ctx context.Context, fn func(repos appledger.TransactionalRepositories) error) error {
	return l.s.run(ctx, func(r *gormTransactionalRepositories) error { return fn(r) })
}

// TransferScope implements apptransfer.TransactionScope
type TransferScope struct{ s *GormTransactionScope }

func (t TransferScope) Execute(ctx context.Context, fn func(repos apptransfer.TransactionalRepositories) error) error {
	return t.s.run(ctx, func(r *gormTransactionalRepositories) error { return fn(r) })
}

// DistributionScope implements appdist.TransactionScope
type DistributionScope struct{ s *GormTransactionScope }

func (d DistributionScope) Execute(ctx context.Context, fn func(repos appdist.TransactionalRepositories) error) error {
	return d.s.run(ctx, func(r *gormTransactionalRepositories) error { return fn(r) })
}

// gormTransactionalRepositories provides access to all repositories within a transaction
type gormTransactionalRepositories struct {
	tx        *gorm.DB
	publisher *event.OutboxPublisher
}

// ItemRepo returns the serialized item repository scoped to the current transaction
func (r *gormTransactionalRepositories) ItemRepo() inventory.ItemRepository {
	return NewGormItemRepository(r.tx)
}

// CounterRepo returns the stock counter repository scoped to the current transaction
func (r *gormTransactionalRepositories) CounterRepo() inventory.StockCounterRepository {
	return NewGormStockCounterRepository(r.tx)
}

// Shipments returns the in-transit transfer lookup scoped to the current transaction
func (r *gormTransactionalRepositories) Shipments() inventory.ShipmentLookup {
	return NewGormTransferRepository(r.tx)
}

// AccountRepo returns the ledger account repository scoped to the current transaction
func (r *gormTransactionalRepositories) AccountRepo() ledger.AccountRepository {
	return NewGormAccountRepository(r.tx)
}

// EntryRepo returns the ledger entry repository scoped to the current transaction
func (r *gormTransactionalRepositories) EntryRepo() ledger.EntryRepository {
	return NewGormEntryRepository(r.tx)
}

// TransferRepo returns the transfer repository scoped to the current transaction
func (r *gormTransactionalRepositories) TransferRepo() transfer.Repository {
	return NewGormTransferRepository(r.tx)
}

// DistributionRepo returns the distribution repository scoped to the current transaction
func (r *gormTransactionalRepositories) DistributionRepo() distribution.Repository {
	return NewGormDistributionRepository(r.tx)
}

// InvestorRepo returns the investor registry scoped to the current transaction
func (r *gormTransactionalRepositories) InvestorRepo() distribution.InvestorRepository {
	return NewGormInvestorRepository(r.tx)
}

// Outbox returns a publisher writing to the outbox table inside the transaction
func (r *gormTransactionalRepositories) Outbox() shared.EventPublisher {
	return r.publisher.Writer(r.tx)
}

var (
	_ appinv.TransactionScope      = InventoryScope{}
	_ appledger.TransactionScope   = LedgerScope{}
	_ apptransfer.TransactionScope = TransferScope{}
	_ appdist.TransactionScope     = DistributionScope{}

	_ appinv.TransactionalRepositories      = (*gormTransactionalRepositories)(nil)
	_ appledger.TransactionalRepositories   = (*gormTransactionalRepositories)(nil)
	_ apptransfer.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
	_ appdist.TransactionalRepositories     = (*gormTransactionalRepositories)(nil)
)
