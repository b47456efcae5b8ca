package distribution

import (
	"context"

	"github.com/erp/retailcore/internal/domain/distribution"
	"github.com/erp/retailcore/internal/domain/ledger"
	"github.com/erp/retailcore/internal/domain/shared"
)

// TransactionScope provides transactional access to distribution repositories
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories share one database transaction. EntryRepo is
// read-only here: it supplies branch profit for a period.
type TransactionalRepositories interface {
	DistributionRepo() distribution.Repository
	InvestorRepo() distribution.InvestorRepository
	EntryRepo() ledger.EntryRepository
	Outbox() shared.EventPublisher
}
