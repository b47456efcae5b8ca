package ledger

import (
	"context"

	"github.com/erp/retailcore/internal/domain/ledger"
	"github.com/erp/retailcore/internal/domain/shared"
)

// TransactionScope provides transactional access to ledger repositories
type TransactionScope interface {
	// Execute runs fn within a database transaction, committing on success
	// and rolling back on error
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to ledger repositories sharing one transaction
type TransactionalRepositories interface {
	AccountRepo() ledger.AccountRepository
	EntryRepo() ledger.EntryRepository
	Outbox() shared.EventPublisher
}
