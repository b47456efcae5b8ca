package inventory

import (
	"context"

	"github.com/erp/retailcore/internal/domain/inventory"
	"github.com/erp/retailcore/internal/domain/shared"
)

// TransactionScope provides transactional access to inventory repositories.
// When a function is executed within a transaction scope, all repository operations
// will be part of the same database transaction and will be committed or rolled back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the inventory repositories within a transaction.
// All repositories returned share the same underlying database transaction.
type TransactionalRepositories interface {
	// ItemRepo returns the serialized item repository
	ItemRepo() inventory.ItemRepository
	// CounterRepo returns the stock counter repository
	CounterRepo() inventory.StockCounterRepository
	// Shipments returns the lookup of transfers carrying items
	Shipments() inventory.ShipmentLookup
	// Outbox returns a publisher that writes events into the same transaction
	Outbox() shared.EventPublisher
}
