package distribution

import (
	"context"
	"time"

	"github.com/erp/retailcore/internal/application/common"
	"github.com/erp/retailcore/internal/domain/distribution"
	"github.com/erp/retailcore/internal/domain/ledger"
	"github.com/erp/retailcore/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DistributionService computes and finalizes the monthly profit split
type DistributionService struct {
	txScope    TransactionScope
	locker     shared.Locker
	exec       *common.Executor
	calculator distribution.Calculator
}

// NewDistributionService creates a new DistributionService. poolRatio is the
// investor pool's fraction of branch profit.
func NewDistributionService(txScope TransactionScope, locker shared.Locker, exec *common.Executor, poolRatio decimal.Decimal) *DistributionService {
	return &DistributionService{
		txScope:    txScope,
		locker:     locker,
		exec:       exec,
		calculator: distribution.NewCalculator(poolRatio),
	}
}

func (s *DistributionService) breakdown(ctx context.Context, repos TransactionalRepositories, period distribution.Period) (distribution.Breakdown, error) {
	profit, err := repos.EntryRepo().NetByKind(ctx, ledger.OwnerBranch, period.Window())
	if err != nil {
		return distribution.Breakdown{}, err
	}
	capitals, err := repos.InvestorRepo().CapitalAsOf(ctx, period.End())
	if err != nil {
		return distribution.Breakdown{}, err
	}
	return s.calculator.Preview(period, profit, capitals), nil
}

// Preview computes the split of a period at full precision without persisting anything
func (s *DistributionService) Preview(ctx context.Context, periodKey string) (*PreviewResponse, error) {
	period, err := distribution.ParsePeriod(periodKey)
	if err != nil {
		return nil, err
	}
	var resp PreviewResponse
	err = s.exec.Run(ctx, "distribution.preview", func(ctx context.Context) error {
		return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			b, err := s.breakdown(ctx, repos, period)
			if err != nil {
				return err
			}
			finalized := true
			if _, err := repos.DistributionRepo().FindByPeriod(ctx, period.String()); err != nil {
				if !shared.IsCode(err, shared.CodeNotFound) {
					return err
				}
				finalized = false
			}
			resp = ToPreviewResponse(b, finalized)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Finalize persists the rounded split of a period. A period is finalized at
// most once; later calls fail with ALREADY_FINALIZED.
func (s *DistributionService) Finalize(ctx context.Context, req FinalizeRequest, actorID string) (*DistributionResponse, error) {
	period, err := distribution.ParsePeriod(req.Period)
	if err != nil {
		return nil, err
	}

	var resp DistributionResponse
	err = s.exec.Run(ctx, "distribution.finalize", func(ctx context.Context) error {
		return common.WithLock(ctx, s.locker, "distribution:"+period.String(), func(ctx context.Context) error {
			return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
				if _, err := repos.DistributionRepo().FindByPeriod(ctx, period.String()); err == nil {
					return shared.NewDomainErrorf(shared.CodeAlreadyFinalized, "period %s is already finalized", period)
				} else if !shared.IsCode(err, shared.CodeNotFound) {
					return err
				}

				b, err := s.breakdown(ctx, repos, period)
				if err != nil {
					return err
				}
				d, err := distribution.Finalize(b, actorID)
				if err != nil {
					return err
				}
				if err := repos.DistributionRepo().Create(ctx, d); err != nil {
					return err
				}
				resp = ToDistributionResponse(d)
				return common.PublishPending(ctx, repos.Outbox(), d)
			})
		})
	})
	if err != nil {
		return nil, err
	}

	s.exec.Metrics().RecordDistributionFinalized(ctx, resp.TotalPool)
	s.exec.Logger(ctx).Info("distribution finalized",
		zap.String("period", resp.Period),
		zap.String("total_profit", resp.TotalProfit.String()),
		zap.String("total_pool", resp.TotalPool.String()),
		zap.Int("investors", len(resp.Details)),
	)
	return &resp, nil
}

// History returns finalized distributions, newest period first, without details
func (s *DistributionService) History(ctx context.Context, q ListQuery) (shared.Paginated[DistributionResponse], error) {
	filter := shared.Filter{Page: q.Page, PageSize: q.PageSize, OrderBy: q.OrderBy, OrderDir: q.OrderDir}.Normalize()
	var page shared.Paginated[DistributionResponse]
	err := s.exec.Run(ctx, "distribution.history", func(ctx context.Context) error {
		return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			list, total, err := repos.DistributionRepo().List(ctx, filter)
			if err != nil {
				return err
			}
			out := make([]DistributionResponse, len(list))
			for i, d := range list {
				out[i] = ToDistributionResponse(d)
			}
			page = shared.NewPaginated(out, total, filter.Page, filter.PageSize)
			return nil
		})
	})
	return page, err
}

// Details returns a finalized distribution with its per-investor shares
func (s *DistributionService) Details(ctx context.Context, id uuid.UUID) (*DistributionResponse, error) {
	var resp DistributionResponse
	err := s.exec.Run(ctx, "distribution.details", func(ctx context.Context) error {
		return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			d, err := repos.DistributionRepo().FindByID(ctx, id)
			if err != nil {
				return err
			}
			resp = ToDistributionResponse(d)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// RegisterInvestor adds an investor without capital
func (s *DistributionService) RegisterInvestor(ctx context.Context, req RegisterInvestorRequest) (*InvestorResponse, error) {
	inv, err := distribution.NewInvestor(req.Name)
	if err != nil {
		return nil, err
	}
	err = s.exec.Run(ctx, "distribution.register_investor", func(ctx context.Context) error {
		return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			return repos.InvestorRepo().Create(ctx, inv)
		})
	})
	if err != nil {
		return nil, err
	}
	s.exec.Logger(ctx).Info("investor registered", zap.String("investor_id", inv.ID.String()))
	return &InvestorResponse{ID: inv.ID, Name: inv.Name, Capital: decimal.Zero, CreatedAt: inv.CreatedAt}, nil
}

// AddCapital appends a capital movement for an investor
func (s *DistributionService) AddCapital(ctx context.Context, investorID uuid.UUID, req AddCapitalRequest) (*ContributionResponse, error) {
	var at time.Time
	if req.ContributedAt != nil {
		at = *req.ContributedAt
	}
	c, err := distribution.NewCapitalContribution(investorID, req.Amount, at, req.Note)
	if err != nil {
		return nil, err
	}
	err = s.exec.Run(ctx, "distribution.add_capital", func(ctx context.Context) error {
		return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			if _, err := repos.InvestorRepo().FindByID(ctx, investorID); err != nil {
				return err
			}
			return repos.InvestorRepo().AddContribution(ctx, c)
		})
	})
	if err != nil {
		return nil, err
	}
	s.exec.Logger(ctx).Info("capital recorded",
		zap.String("investor_id", investorID.String()),
		zap.String("amount", c.Amount.String()),
	)
	return &ContributionResponse{
		ID:            c.ID,
		InvestorID:    c.InvestorID,
		Amount:        c.Amount,
		ContributedAt: c.ContributedAt,
		Note:          c.Note,
	}, nil
}

// ListInvestors returns investors with their capital as of now
func (s *DistributionService) ListInvestors(ctx context.Context, q ListQuery) (shared.Paginated[InvestorResponse], error) {
	filter := shared.Filter{Page: q.Page, PageSize: q.PageSize, OrderBy: q.OrderBy, OrderDir: q.OrderDir}.Normalize()
	var page shared.Paginated[InvestorResponse]
	err := s.exec.Run(ctx, "distribution.list_investors", func(ctx context.Context) error {
		return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			investors, total, err := repos.InvestorRepo().List(ctx, filter)
			if err != nil {
				return err
			}
			capitals, err := repos.InvestorRepo().CapitalAsOf(ctx, time.Now().UTC())
			if err != nil {
				return err
			}
			byID := make(map[uuid.UUID]decimal.Decimal, len(capitals))
			for _, c := range capitals {
				byID[c.InvestorID] = c.Capital
			}
			out := make([]InvestorResponse, len(investors))
			for i, inv := range investors {
				capital, ok := byID[inv.ID]
				if !ok {
					capital = decimal.Zero
				}
				out[i] = InvestorResponse{ID: inv.ID, Name: inv.Name, Capital: capital, CreatedAt: inv.CreatedAt}
			}
			page = shared.NewPaginated(out, total, filter.Page, filter.PageSize)
			return nil
		})
	})
	return page, err
}
