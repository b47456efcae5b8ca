package ledger

import (
	"context"

	"github.com/erp/retailcore/internal/application/common"
	"github.com/erp/retailcore/internal/domain/ledger"
	"github.com/erp/retailcore/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LedgerService keeps the append-only books of branches, suppliers and the investor pool
type LedgerService struct {
	txScope TransactionScope
	locker  shared.Locker
	exec    *common.Executor
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(txScope TransactionScope, locker shared.Locker, exec *common.Executor) *LedgerService {
	return &LedgerService{txScope: txScope, locker: locker, exec: exec}
}

// OpenAccount opens the ledger of an owner. Opening an existing ledger
// returns it unchanged.
func (s *LedgerService) OpenAccount(ctx context.Context, kind ledger.OwnerKind, req OpenAccountRequest) (*AccountResponse, error) {
	var resp AccountResponse
	err := s.exec.Run(ctx, "ledger.open_account", func(ctx context.Context) error {
		account, err := ledger.NewAccount(kind, req.OwnerID, req.Name)
		if err != nil {
			return err
		}

		created := false
		err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			existing, err := repos.AccountRepo().FindByOwner(ctx, kind, req.OwnerID)
			if err == nil {
				resp = ToAccountResponse(existing)
				return nil
			}
			if !shared.IsCode(err, shared.CodeNotFound) {
				return err
			}
			if err := repos.AccountRepo().Create(ctx, account); err != nil {
				return err
			}
			created = true
			resp = ToAccountResponse(account)
			return nil
		})
		if shared.IsCode(err, shared.CodeAlreadyExists) {
			// lost the insert race; the winner's row is the answer
			return s.readAccount(ctx, kind, req.OwnerID, &resp)
		}
		if err == nil && created {
			s.exec.Logger(ctx).Info("ledger account opened",
				zap.String("owner_kind", string(kind)),
				zap.String("owner_id", req.OwnerID.String()),
				zap.String("account_id", resp.ID.String()),
			)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// EnsureInvestorPool opens the designated investor pool ledger if it does not exist yet
func (s *LedgerService) EnsureInvestorPool(ctx context.Context, ownerID uuid.UUID, name string) (*AccountResponse, error) {
	return s.OpenAccount(ctx, ledger.OwnerInvestorPool, OpenAccountRequest{OwnerID: ownerID, Name: name})
}

// GetAccount returns the ledger account of an owner
func (s *LedgerService) GetAccount(ctx context.Context, kind ledger.OwnerKind, ownerID uuid.UUID) (*AccountResponse, error) {
	var resp AccountResponse
	err := s.exec.Run(ctx, "ledger.get_account", func(ctx context.Context) error {
		return s.readAccount(ctx, kind, ownerID, &resp)
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *LedgerService) readAccount(ctx context.Context, kind ledger.OwnerKind, ownerID uuid.UUID, out *AccountResponse) error {
	return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		account, err := repos.AccountRepo().FindByOwner(ctx, kind, ownerID)
		if err != nil {
			return err
		}
		*out = ToAccountResponse(account)
		return nil
	})
}

// ListAccounts returns a page of the accounts of one kind
func (s *LedgerService) ListAccounts(ctx context.Context, kind ledger.OwnerKind, f AccountListFilter) (shared.Paginated[AccountResponse], error) {
	filter := shared.Filter{Page: f.Page, PageSize: f.PageSize, OrderBy: f.OrderBy, OrderDir: f.OrderDir}.Normalize()
	var page shared.Paginated[AccountResponse]
	err := s.exec.Run(ctx, "ledger.list_accounts", func(ctx context.Context) error {
		return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			accounts, total, err := repos.AccountRepo().List(ctx, kind, filter)
			if err != nil {
				return err
			}
			out := make([]AccountResponse, len(accounts))
			for i, a := range accounts {
				out[i] = ToAccountResponse(a)
			}
			page = shared.NewPaginated(out, total, filter.Page, filter.PageSize)
			return nil
		})
	})
	return page, err
}

// Post appends one entry to an owner's ledger and returns it with its running balance
func (s *LedgerService) Post(ctx context.Context, kind ledger.OwnerKind, ownerID uuid.UUID, req PostEntryRequest, actorID string) (*EntryResponse, error) {
	entryType, err := ledger.ParseEntryType(req.EntryType)
	if err != nil {
		return nil, err
	}
	direction, err := ledger.ParseDirection(req.Direction)
	if err != nil {
		return nil, err
	}
	return s.post(ctx, "ledger.post", kind, ownerID, ledger.Posting{
		EntryType:   entryType,
		Amount:      req.Amount,
		Direction:   direction,
		ReferenceID: req.ReferenceID,
		Description: req.Description,
		ActorID:     actorID,
	})
}

// PostPurchase credits a supplier ledger with goods bought on account
func (s *LedgerService) PostPurchase(ctx context.Context, supplierID uuid.UUID, amount decimal.Decimal, referenceID, actorID string) (*EntryResponse, error) {
	return s.post(ctx, "ledger.post_purchase", ledger.OwnerSupplier, supplierID, ledger.Posting{
		EntryType:   ledger.EntryPurchase,
		Amount:      amount,
		Direction:   ledger.Credit,
		ReferenceID: referenceID,
		Description: "purchase",
		ActorID:     actorID,
	})
}

// PostSupplierPayment debits a supplier ledger with a payment made
func (s *LedgerService) PostSupplierPayment(ctx context.Context, supplierID uuid.UUID, amount decimal.Decimal, referenceID, actorID string) (*EntryResponse, error) {
	return s.post(ctx, "ledger.post_supplier_payment", ledger.OwnerSupplier, supplierID, ledger.Posting{
		EntryType:   ledger.EntryPayment,
		Amount:      amount,
		Direction:   ledger.Debit,
		ReferenceID: referenceID,
		Description: "supplier payment",
		ActorID:     actorID,
	})
}

func (s *LedgerService) post(ctx context.Context, op string, kind ledger.OwnerKind, ownerID uuid.UUID, posting ledger.Posting) (*EntryResponse, error) {
	var entry *ledger.Entry
	err := s.exec.Run(ctx, op, func(ctx context.Context) error {
		return common.WithLock(ctx, s.locker, ledger.LockKey(kind, ownerID), func(ctx context.Context) error {
			return s.exec.Retry(ctx, op, func(ctx context.Context) error {
				return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
					account, e, err := ledger.NewPoster(repos.AccountRepo(), repos.EntryRepo()).Post(ctx, kind, ownerID, posting)
					if err != nil {
						return err
					}
					entry = e
					return common.PublishPending(ctx, repos.Outbox(), account)
				})
			})
		})
	})
	if err != nil {
		return nil, err
	}
	s.recordPosted(ctx, entry)
	resp := ToEntryResponse(entry)
	return &resp, nil
}

// Reverse posts the opposite of an earlier entry on the same ledger
func (s *LedgerService) Reverse(ctx context.Context, entryID uuid.UUID, req ReverseEntryRequest, actorID string) (*EntryResponse, error) {
	var entry *ledger.Entry
	err := s.exec.Run(ctx, "ledger.reverse", func(ctx context.Context) error {
		var original *ledger.Entry
		err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			var err error
			original, err = repos.EntryRepo().FindByID(ctx, entryID)
			return err
		})
		if err != nil {
			return err
		}

		return common.WithLock(ctx, s.locker, ledger.LockKey(original.OwnerKind, original.OwnerID), func(ctx context.Context) error {
			return s.exec.Retry(ctx, "ledger.reverse", func(ctx context.Context) error {
				return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
					account, e, err := ledger.NewPoster(repos.AccountRepo(), repos.EntryRepo()).Reverse(ctx, entryID, req.Reason, actorID)
					if err != nil {
						return err
					}
					entry = e
					return common.PublishPending(ctx, repos.Outbox(), account)
				})
			})
		})
	})
	if err != nil {
		return nil, err
	}
	s.recordPosted(ctx, entry)
	resp := ToEntryResponse(entry)
	return &resp, nil
}

func (s *LedgerService) recordPosted(ctx context.Context, e *ledger.Entry) {
	s.exec.Metrics().RecordEntryPosted(ctx, string(e.OwnerKind), string(e.EntryType), string(e.Direction()), e.Amount())
	s.exec.Logger(ctx).Info("ledger entry posted",
		zap.String("owner_kind", string(e.OwnerKind)),
		zap.String("owner_id", e.OwnerID.String()),
		zap.String("entry_id", e.ID.String()),
		zap.Int64("sequence", e.Sequence),
		zap.String("entry_type", string(e.EntryType)),
		zap.String("running_balance", e.RunningBalance.String()),
	)
}

// GetEntries returns entries of an owner's ledger in sequence order
func (s *LedgerService) GetEntries(ctx context.Context, kind ledger.OwnerKind, ownerID uuid.UUID, q EntryQuery) (shared.Paginated[EntryResponse], error) {
	filter := q.Filter()
	var page shared.Paginated[EntryResponse]
	err := s.exec.Run(ctx, "ledger.get_entries", func(ctx context.Context) error {
		return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			account, err := repos.AccountRepo().FindByOwner(ctx, kind, ownerID)
			if err != nil {
				return err
			}
			entries, total, err := repos.EntryRepo().FindByAccount(ctx, account.ID, q.Window(), filter)
			if err != nil {
				return err
			}
			out := make([]EntryResponse, len(entries))
			for i, e := range entries {
				out[i] = ToEntryResponse(e)
			}
			page = shared.NewPaginated(out, total, filter.Page, filter.PageSize)
			return nil
		})
	})
	return page, err
}

// GetSummary totals an owner's ledger over an optional window
func (s *LedgerService) GetSummary(ctx context.Context, kind ledger.OwnerKind, ownerID uuid.UUID, window shared.TimeRange) (*SummaryResponse, error) {
	if window.From != nil && window.To != nil && window.To.Before(*window.From) {
		return nil, shared.NewDomainError(shared.CodeValidation, "window end is before its start")
	}
	var resp SummaryResponse
	err := s.exec.Run(ctx, "ledger.get_summary", func(ctx context.Context) error {
		return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			account, err := repos.AccountRepo().FindByOwner(ctx, kind, ownerID)
			if err != nil {
				return err
			}
			opening := decimal.Zero
			if window.From != nil {
				opening, err = repos.EntryRepo().BalanceBefore(ctx, account.ID, *window.From)
				if err != nil {
					return err
				}
			}
			totals, err := repos.EntryRepo().Totals(ctx, account.ID, window)
			if err != nil {
				return err
			}
			resp = ToSummaryResponse(ledger.NewSummary(account, window, opening, totals))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
