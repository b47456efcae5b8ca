package ledger

import (
	"context"
	"time"

	"github.com/erp/retailcore/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountRepository persists ledger accounts
type AccountRepository interface {
	// FindByOwner returns the account of an owner or NOT_FOUND
	FindByOwner(ctx context.Context, kind OwnerKind, ownerID uuid.UUID) (*Account, error)
	// FindByID returns an account or NOT_FOUND
	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)
	// Create inserts a new account; an existing (kind, owner) pair yields ALREADY_EXISTS
	Create(ctx context.Context, account *Account) error
	// SaveWithLock writes balance and sequence if the stored version is
	// account.Version-1, otherwise CONCURRENCY_CONFLICT
	SaveWithLock(ctx context.Context, account *Account) error
	// List returns accounts of a kind
	List(ctx context.Context, kind OwnerKind, filter shared.Filter) ([]*Account, int64, error)
}

// EntryRepository persists immutable entries. It has no update or delete.
type EntryRepository interface {
	// Append inserts an entry
	Append(ctx context.Context, entry *Entry) error
	// FindByID returns an entry or NOT_FOUND
	FindByID(ctx context.Context, id uuid.UUID) (*Entry, error)
	// FindReversalOf returns the entry reversing id, or NOT_FOUND
	FindReversalOf(ctx context.Context, id uuid.UUID) (*Entry, error)
	// FindByAccount returns entries in sequence order within the window
	FindByAccount(ctx context.Context, accountID uuid.UUID, window shared.TimeRange, filter shared.Filter) ([]*Entry, int64, error)
	// FindByReference returns every entry that carries a reference id
	FindByReference(ctx context.Context, referenceID string) ([]*Entry, error)
	// Totals sums debits and credits within the window
	Totals(ctx context.Context, accountID uuid.UUID, window shared.TimeRange) (Totals, error)
	// BalanceBefore returns the running balance of the last entry created before t, or zero
	BalanceBefore(ctx context.Context, accountID uuid.UUID, t time.Time) (decimal.Decimal, error)
	// NetByKind returns Σ(credit - debit) over all accounts of a kind within the window
	NetByKind(ctx context.Context, kind OwnerKind, window shared.TimeRange) (decimal.Decimal, error)
}
