package transfer

import (
	"context"

	"github.com/erp/retailcore/internal/domain/inventory"
	"github.com/erp/retailcore/internal/domain/ledger"
	"github.com/erp/retailcore/internal/domain/shared"
	"github.com/erp/retailcore/internal/domain/transfer"
)

// TransactionScope provides transactional access to everything a transfer
// touches: the transfer itself, the stock it moves and the ledgers it posts to
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories share one database transaction
type TransactionalRepositories interface {
	TransferRepo() transfer.Repository
	ItemRepo() inventory.ItemRepository
	CounterRepo() inventory.StockCounterRepository
	AccountRepo() ledger.AccountRepository
	EntryRepo() ledger.EntryRepository
	Outbox() shared.EventPublisher
}
