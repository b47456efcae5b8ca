package transfer

import (
	"context"
	"strings"

	"github.com/erp/retailcore/internal/application/common"
	"github.com/erp/retailcore/internal/domain/inventory"
	"github.com/erp/retailcore/internal/domain/ledger"
	"github.com/erp/retailcore/internal/domain/shared"
	"github.com/erp/retailcore/internal/domain/transfer"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Settings are the injected settlement parameters
type Settings struct {
	// PoolOwnerID is the owner id of the designated investor pool ledger
	PoolOwnerID uuid.UUID
	// PoolRatio is the investor pool's share of transfer profit
	PoolRatio decimal.Decimal
}

// TransferService runs the inter-branch transfer workflow
type TransferService struct {
	txScope  TransactionScope
	locker   shared.Locker
	numbers  transfer.NumberGenerator
	exec     *common.Executor
	settings Settings
}

// NewTransferService creates a new TransferService
func NewTransferService(txScope TransactionScope, locker shared.Locker, numbers transfer.NumberGenerator, exec *common.Executor, settings Settings) *TransferService {
	if settings.PoolRatio.IsZero() {
		settings.PoolRatio = transfer.DefaultPoolRatio
	}
	return &TransferService{
		txScope:  txScope,
		locker:   locker,
		numbers:  numbers,
		exec:     exec,
		settings: settings,
	}
}

// Create proposes a transfer. Every serial must be an AVAILABLE item at the
// source branch and the source branch ledger must be open. No stock is touched.
func (s *TransferService) Create(ctx context.Context, req CreateTransferRequest, actorID string) (*TransferResponse, error) {
	if len(req.Items) == 0 {
		return nil, shared.NewDomainError(shared.CodeValidation, "a transfer needs at least one item")
	}
	serials := make([]string, len(req.Items))
	for i, it := range req.Items {
		serials[i] = strings.TrimSpace(it.SerialNo)
		if serials[i] == "" {
			return nil, shared.NewDomainError(shared.CodeValidation, "serial number is required")
		}
	}

	var resp TransferResponse
	err := s.exec.Run(ctx, "transfer.create", func(ctx context.Context) error {
		return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			if _, err := repos.AccountRepo().FindByOwner(ctx, ledger.OwnerBranch, req.FromBranchID); err != nil {
				if shared.IsCode(err, shared.CodeNotFound) {
					return shared.NewDomainErrorf(shared.CodeNotFound,
						"source branch %s has no ledger account to settle into", req.FromBranchID)
				}
				return err
			}
			items, err := repos.ItemRepo().FindBySerials(ctx, serials)
			if err != nil {
				return err
			}
			bySerial := make(map[string]*inventory.Item, len(items))
			for _, it := range items {
				bySerial[it.SerialNo] = it
			}

			lines := make([]transfer.Line, len(req.Items))
			for i, it := range req.Items {
				item, ok := bySerial[serials[i]]
				if !ok {
					return shared.NewDomainErrorf(shared.CodeValidation, "serial %s does not exist", serials[i])
				}
				if item.BranchID != req.FromBranchID || item.Status != inventory.StatusAvailable {
					return shared.NewDomainErrorf(shared.CodeValidation,
						"serial %s is not available at the source branch", serials[i])
				}
				lines[i] = transfer.Line{
					ItemID:        item.ID,
					SerialNo:      item.SerialNo,
					ProductID:     item.ProductID,
					BranchCost:    item.BranchCost,
					TransferPrice: it.TransferPrice,
				}
			}

			t, err := transfer.NewTransfer(s.numbers.NextTransferNo(), req.FromBranchID, req.ToBranchID, lines, req.Notes, actorID)
			if err != nil {
				return err
			}
			if err := repos.TransferRepo().Create(ctx, t); err != nil {
				return err
			}
			resp = ToTransferResponse(t)
			return common.PublishPending(ctx, repos.Outbox(), t)
		})
	})
	if err != nil {
		return nil, err
	}
	s.exec.Metrics().RecordTransferTransition(ctx, "", string(transfer.StatusPending))
	s.exec.Logger(ctx).Info("transfer created",
		zap.String("transfer_id", resp.ID.String()),
		zap.String("transfer_no", resp.TransferNo),
		zap.Int("items", len(resp.Items)),
	)
	return &resp, nil
}

// Approve accepts a pending transfer
func (s *TransferService) Approve(ctx context.Context, id uuid.UUID, actorID string) (*TransferResponse, error) {
	return s.changeStatus(ctx, "transfer.approve", id, func(t *transfer.Transfer) error {
		return t.Approve(actorID)
	})
}

// Reject declines a pending transfer
func (s *TransferService) Reject(ctx context.Context, id uuid.UUID, req RejectTransferRequest, actorID string) (*TransferResponse, error) {
	return s.changeStatus(ctx, "transfer.reject", id, func(t *transfer.Transfer) error {
		return t.Reject(actorID, req.Reason)
	})
}

// Cancel withdraws a pending or approved transfer
func (s *TransferService) Cancel(ctx context.Context, id uuid.UUID, req CancelTransferRequest, actorID string) (*TransferResponse, error) {
	return s.changeStatus(ctx, "transfer.cancel", id, func(t *transfer.Transfer) error {
		return t.Cancel(actorID, req.Reason)
	})
}

func (s *TransferService) changeStatus(ctx context.Context, op string, id uuid.UUID, apply func(*transfer.Transfer) error) (*TransferResponse, error) {
	var (
		resp TransferResponse
		from transfer.Status
	)
	err := s.exec.Run(ctx, op, func(ctx context.Context) error {
		return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			t, err := repos.TransferRepo().FindByID(ctx, id)
			if err != nil {
				return err
			}
			from = t.Status
			if err := apply(t); err != nil {
				return err
			}
			if err := repos.TransferRepo().SaveWithLock(ctx, t); err != nil {
				return err
			}
			resp = ToTransferResponse(t)
			return common.PublishPending(ctx, repos.Outbox(), t)
		})
	})
	if err != nil {
		return nil, staleOnConflict(err)
	}
	s.transitioned(ctx, &resp, from)
	return &resp, nil
}

// Dispatch ships an approved transfer: every item leaves the source branch
// as IN_TRANSIT in one transaction, or nothing moves.
func (s *TransferService) Dispatch(ctx context.Context, id uuid.UUID, actorID string) (*TransferResponse, error) {
	var resp TransferResponse
	err := s.exec.Run(ctx, "transfer.dispatch", func(ctx context.Context) error {
		return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			t, err := repos.TransferRepo().FindByID(ctx, id)
			if err != nil {
				return err
			}
			if err := t.Dispatch(actorID); err != nil {
				return err
			}
			items, err := s.loadItems(ctx, repos, t)
			if err != nil {
				return err
			}
			keeper := inventory.NewStockKeeper(repos.ItemRepo(), repos.CounterRepo())
			if err := keeper.Dispatch(ctx, items, t.FromBranchID); err != nil {
				return err
			}
			if err := repos.TransferRepo().SaveWithLock(ctx, t); err != nil {
				return err
			}
			resp = ToTransferResponse(t)
			return common.PublishPending(ctx, repos.Outbox(), aggregates(t, items, nil)...)
		})
	})
	if err != nil {
		return nil, staleOnConflict(err)
	}
	s.exec.Metrics().RecordItemTransitions(ctx, string(inventory.StatusInTransit), len(resp.Items))
	s.transitioned(ctx, &resp, transfer.StatusApproved)
	return &resp, nil
}

// Complete receives an in-transit transfer at the destination and posts the
// profit split: the master share to the source branch ledger and the pool
// share to the investor pool ledger. Everything commits in one transaction.
func (s *TransferService) Complete(ctx context.Context, id uuid.UUID, actorID string) (*TransferResponse, error) {
	var resp TransferResponse
	err := s.exec.Run(ctx, "transfer.complete", func(ctx context.Context) error {
		var current *transfer.Transfer
		err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			var err error
			current, err = repos.TransferRepo().FindByID(ctx, id)
			return err
		})
		if err != nil {
			return err
		}
		if current.Status == transfer.StatusCompleted {
			return shared.NewDomainErrorf(shared.CodeAlreadyCompleted, "transfer %s is already completed", current.TransferNo)
		}

		keys := []string{
			ledger.LockKey(ledger.OwnerBranch, current.FromBranchID),
			ledger.LockKey(ledger.OwnerInvestorPool, s.settings.PoolOwnerID),
		}
		return common.WithLocks(ctx, s.locker, keys, func(ctx context.Context) error {
			return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
				t, err := repos.TransferRepo().FindByID(ctx, id)
				if err != nil {
					return err
				}
				settlement := transfer.ComputeSettlement(t.Lines, s.settings.PoolRatio)
				if err := t.Complete(actorID, settlement); err != nil {
					return err
				}

				items, err := s.loadItems(ctx, repos, t)
				if err != nil {
					return err
				}
				keeper := inventory.NewStockKeeper(repos.ItemRepo(), repos.CounterRepo())
				if err := keeper.Receive(ctx, items, t.FromBranchID, t.ToBranchID); err != nil {
					return err
				}

				accounts, err := s.postSettlement(ctx, repos, t, actorID)
				if err != nil {
					return err
				}
				if err := repos.TransferRepo().SaveWithLock(ctx, t); err != nil {
					return err
				}
				resp = ToTransferResponse(t)
				return common.PublishPending(ctx, repos.Outbox(), aggregates(t, items, accounts)...)
			})
		})
	})
	if err != nil {
		return nil, staleOnConflict(err)
	}

	s.exec.Metrics().RecordTransferProfit(ctx, resp.Profit)
	s.exec.Metrics().RecordItemTransitions(ctx, string(inventory.StatusAvailable), len(resp.Items))
	s.transitioned(ctx, &resp, transfer.StatusInTransit)
	s.exec.Logger(ctx).Info("transfer settled",
		zap.String("transfer_id", resp.ID.String()),
		zap.String("profit", resp.Profit.String()),
		zap.String("pool_share", resp.PoolShare.String()),
		zap.String("master_share", resp.MasterShare.String()),
	)
	return &resp, nil
}

type settlementLeg struct {
	kind    ledger.OwnerKind
	ownerID uuid.UUID
	amount  decimal.Decimal
}

// postSettlement credits positive shares and debits negative ones. A zero leg posts nothing.
func (s *TransferService) postSettlement(ctx context.Context, repos TransactionalRepositories, t *transfer.Transfer, actorID string) ([]*ledger.Account, error) {
	legs := []settlementLeg{
		{kind: ledger.OwnerBranch, ownerID: t.FromBranchID, amount: t.MasterShare},
		{kind: ledger.OwnerInvestorPool, ownerID: s.settings.PoolOwnerID, amount: t.PoolShare},
	}
	poster := ledger.NewPoster(repos.AccountRepo(), repos.EntryRepo())

	var accounts []*ledger.Account
	for _, leg := range legs {
		if leg.amount.IsZero() {
			continue
		}
		direction := ledger.Credit
		if leg.amount.IsNegative() {
			direction = ledger.Debit
		}
		account, entry, err := poster.Post(ctx, leg.kind, leg.ownerID, ledger.Posting{
			EntryType:   ledger.EntryTransfer,
			Amount:      leg.amount.Abs(),
			Direction:   direction,
			ReferenceID: t.ID.String(),
			Description: "transfer " + t.TransferNo,
			ActorID:     actorID,
		})
		if err != nil {
			return nil, err
		}
		s.exec.Metrics().RecordEntryPosted(ctx, string(entry.OwnerKind), string(entry.EntryType), string(entry.Direction()), entry.Amount())
		accounts = append(accounts, account)
	}
	return accounts, nil
}

func (s *TransferService) loadItems(ctx context.Context, repos TransactionalRepositories, t *transfer.Transfer) ([]*inventory.Item, error) {
	items, err := repos.ItemRepo().FindByIDs(ctx, t.ItemIDs())
	if err != nil {
		return nil, err
	}
	if len(items) != len(t.Lines) {
		return nil, shared.NewDomainErrorf(shared.CodeInvalidState,
			"transfer %s references %d items but %d exist", t.TransferNo, len(t.Lines), len(items))
	}
	return items, nil
}

func (s *TransferService) transitioned(ctx context.Context, resp *TransferResponse, from transfer.Status) {
	s.exec.Metrics().RecordTransferTransition(ctx, string(from), resp.Status)
	s.exec.Logger(ctx).Info("transfer status changed",
		zap.String("transfer_id", resp.ID.String()),
		zap.String("transfer_no", resp.TransferNo),
		zap.String("from", string(from)),
		zap.String("to", resp.Status),
	)
}

// Get returns a transfer by id
func (s *TransferService) Get(ctx context.Context, id uuid.UUID) (*TransferResponse, error) {
	return s.read(ctx, "transfer.get", func(ctx context.Context, repo transfer.Repository) (*transfer.Transfer, error) {
		return repo.FindByID(ctx, id)
	})
}

// GetByNo returns a transfer by its transfer number
func (s *TransferService) GetByNo(ctx context.Context, transferNo string) (*TransferResponse, error) {
	return s.read(ctx, "transfer.get_by_no", func(ctx context.Context, repo transfer.Repository) (*transfer.Transfer, error) {
		return repo.FindByNo(ctx, strings.TrimSpace(transferNo))
	})
}

func (s *TransferService) read(ctx context.Context, op string, find func(context.Context, transfer.Repository) (*transfer.Transfer, error)) (*TransferResponse, error) {
	var resp TransferResponse
	err := s.exec.Run(ctx, op, func(ctx context.Context) error {
		return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			t, err := find(ctx, repos.TransferRepo())
			if err != nil {
				return err
			}
			resp = ToTransferResponse(t)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// List returns a page of transfers
func (s *TransferService) List(ctx context.Context, f TransferListFilter) (shared.Paginated[TransferResponse], error) {
	filter := transfer.Filter{
		Filter: shared.Filter{
			Page:     f.Page,
			PageSize: f.PageSize,
			OrderBy:  f.OrderBy,
			OrderDir: f.OrderDir,
		}.Normalize(),
		FromBranchID: f.FromBranchID,
		ToBranchID:   f.ToBranchID,
		BranchID:     f.BranchID,
		CreatedFrom:  f.CreatedFrom,
		CreatedTo:    f.CreatedTo,
	}
	if f.Status != "" {
		st, err := transfer.ParseStatus(f.Status)
		if err != nil {
			return shared.Paginated[TransferResponse]{}, err
		}
		filter.Status = &st
	}

	var page shared.Paginated[TransferResponse]
	err := s.exec.Run(ctx, "transfer.list", func(ctx context.Context) error {
		return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			transfers, total, err := repos.TransferRepo().FindAll(ctx, filter)
			if err != nil {
				return err
			}
			out := make([]TransferResponse, len(transfers))
			for i, t := range transfers {
				out[i] = ToTransferResponse(t)
			}
			page = shared.NewPaginated(out, total, filter.Page, filter.PageSize)
			return nil
		})
	})
	return page, err
}

// History returns the transition history of a transfer, oldest first
func (s *TransferService) History(ctx context.Context, id uuid.UUID) ([]TransitionResponse, error) {
	var out []TransitionResponse
	err := s.exec.Run(ctx, "transfer.history", func(ctx context.Context) error {
		return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			if _, err := repos.TransferRepo().FindByID(ctx, id); err != nil {
				return err
			}
			history, err := repos.TransferRepo().History(ctx, id)
			if err != nil {
				return err
			}
			out = ToTransitionResponses(history)
			return nil
		})
	})
	return out, err
}

func aggregates(t *transfer.Transfer, items []*inventory.Item, accounts []*ledger.Account) []shared.AggregateRoot {
	out := make([]shared.AggregateRoot, 0, 1+len(items)+len(accounts))
	out = append(out, t)
	for _, it := range items {
		out = append(out, it)
	}
	for _, a := range accounts {
		out = append(out, a)
	}
	return out
}

// staleOnConflict surfaces optimistic conflicts of cross-owner operations as
// STALE_STATE; they are never retried internally
func staleOnConflict(err error) error {
	if shared.IsCode(err, shared.CodeConcurrencyConflict) {
		return shared.NewDomainErrorf(shared.CodeStaleState, "transfer changed concurrently: %v", err)
	}
	return err
}
