package ledger

import (
	"context"
	"fmt"

	"github.com/erp/retailcore/internal/domain/shared"
	"github.com/google/uuid"
)

// Poster appends entries through the account aggregate. Built over
// transaction scoped repositories, the account update and the entry insert
// commit together; a concurrent writer of the same account makes
// SaveWithLock fail with CONCURRENCY_CONFLICT.
type Poster struct {
	accounts AccountRepository
	entries  EntryRepository
}

// NewPoster creates a Poster
func NewPoster(accounts AccountRepository, entries EntryRepository) *Poster {
	return &Poster{accounts: accounts, entries: entries}
}

// Post appends one entry to the owner's account
func (p *Poster) Post(ctx context.Context, kind OwnerKind, ownerID uuid.UUID, posting Posting) (*Account, *Entry, error) {
	account, err := p.accounts.FindByOwner(ctx, kind, ownerID)
	if err != nil {
		if shared.IsCode(err, shared.CodeNotFound) {
			return nil, nil, shared.NewDomainErrorf(shared.CodeNotFound, "no %s ledger for owner %s", kind, ownerID)
		}
		return nil, nil, err
	}
	entry, err := account.Post(posting)
	if err != nil {
		return nil, nil, err
	}
	if err := p.persist(ctx, account, entry); err != nil {
		return nil, nil, err
	}
	return account, entry, nil
}

// Reverse appends the opposite of an existing entry
func (p *Poster) Reverse(ctx context.Context, entryID uuid.UUID, reason, actorID string) (*Account, *Entry, error) {
	original, err := p.entries.FindByID(ctx, entryID)
	if err != nil {
		return nil, nil, err
	}
	if _, err := p.entries.FindReversalOf(ctx, entryID); err == nil {
		return nil, nil, shared.NewDomainErrorf(shared.CodeInvalidState, "entry %s is already reversed", entryID)
	} else if !shared.IsCode(err, shared.CodeNotFound) {
		return nil, nil, err
	}

	account, err := p.accounts.FindByID(ctx, original.AccountID)
	if err != nil {
		return nil, nil, err
	}
	entry, err := account.Reverse(original, reason, actorID)
	if err != nil {
		return nil, nil, err
	}
	if err := p.persist(ctx, account, entry); err != nil {
		return nil, nil, err
	}
	return account, entry, nil
}

func (p *Poster) persist(ctx context.Context, account *Account, entry *Entry) error {
	if err := p.accounts.SaveWithLock(ctx, account); err != nil {
		return err
	}
	return p.entries.Append(ctx, entry)
}

// LockKey names the per-owner posting lock
func LockKey(kind OwnerKind, ownerID uuid.UUID) string {
	return fmt.Sprintf("ledger:%s:%s", kind, ownerID)
}
