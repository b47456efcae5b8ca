package distribution

import (
	"context"
	"time"

	"github.com/erp/retailcore/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Distribution is the frozen, finalized split of one period. It is only
// ever created finalized and has no mutating methods.
type Distribution struct {
	shared.BaseAggregateRoot
	Period           string
	TotalProfit      decimal.Decimal
	TotalPool        decimal.Decimal
	TotalMasterShare decimal.Decimal
	IsFinalized      bool
	FinalizedAt      *time.Time
	FinalizedBy      string
	Details          []Detail
}

// Detail is one investor's persisted share
type Detail struct {
	ID                  uuid.UUID
	DistributionID      uuid.UUID
	InvestorID          uuid.UUID
	InvestorName        string
	Capital             decimal.Decimal
	CapitalSharePercent decimal.Decimal
	DistributedAmount   decimal.Decimal
}

// Finalize freezes a preview into a finalized distribution
func Finalize(preview Breakdown, actorID string) (*Distribution, error) {
	if len(preview.Lines) == 0 {
		return nil, shared.NewDomainErrorf(shared.CodeValidation,
			"period %s has no investor capital to distribute to", preview.Period)
	}
	rounded := preview.Rounded()

	now := shared.Now()
	d := &Distribution{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Period:            rounded.Period.String(),
		TotalProfit:       rounded.TotalProfit,
		TotalPool:         rounded.TotalPool,
		TotalMasterShare:  rounded.TotalMasterShare,
		IsFinalized:       true,
		FinalizedAt:       &now,
		FinalizedBy:       actorID,
	}
	for _, l := range rounded.Lines {
		investorID, err := uuid.Parse(l.InvestorID)
		if err != nil {
			return nil, shared.NewDomainErrorf(shared.CodeValidation, "invalid investor id %q", l.InvestorID)
		}
		d.Details = append(d.Details, Detail{
			ID:                  uuid.New(),
			DistributionID:      d.ID,
			InvestorID:          investorID,
			InvestorName:        l.InvestorName,
			Capital:             l.Capital,
			CapitalSharePercent: l.SharePercent,
			DistributedAmount:   l.Amount,
		})
	}
	d.AddDomainEvent(NewDistributionFinalizedEvent(d))
	return d, nil
}

// DistributedTotal returns Σ DistributedAmount over the details
func (d *Distribution) DistributedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, det := range d.Details {
		total = total.Add(det.DistributedAmount)
	}
	return total
}

const AggregateTypeDistribution = "Distribution"

const EventTypeDistributionFinalized = "DistributionFinalized"

// DistributionFinalizedEvent is raised once per period
type DistributionFinalizedEvent struct {
	shared.BaseDomainEvent
	Period           string          `json:"period"`
	TotalPool        decimal.Decimal `json:"total_pool"`
	TotalMasterShare decimal.Decimal `json:"total_master_share"`
	InvestorCount    int             `json:"investor_count"`
	FinalizedBy      string          `json:"finalized_by"`
}

func NewDistributionFinalizedEvent(d *Distribution) *DistributionFinalizedEvent {
	return &DistributionFinalizedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeDistributionFinalized, AggregateTypeDistribution, d.ID),
		Period:           d.Period,
		TotalPool:        d.TotalPool,
		TotalMasterShare: d.TotalMasterShare,
		InvestorCount:    len(d.Details),
		FinalizedBy:      d.FinalizedBy,
	}
}

// Repository persists finalized distributions
type Repository interface {
	// FindByID returns a distribution with its details or NOT_FOUND
	FindByID(ctx context.Context, id uuid.UUID) (*Distribution, error)
	// FindByPeriod returns the distribution of a period or NOT_FOUND
	FindByPeriod(ctx context.Context, period string) (*Distribution, error)
	// List returns distributions newest period first, without details
	List(ctx context.Context, filter shared.Filter) ([]*Distribution, int64, error)
	// Create inserts the distribution and its details; an existing period yields ALREADY_FINALIZED
	Create(ctx context.Context, d *Distribution) error
}

// InvestorRepository is the investor and capital registry
type InvestorRepository interface {
	// Create registers an investor
	Create(ctx context.Context, inv *Investor) error
	// FindByID returns an investor or NOT_FOUND
	FindByID(ctx context.Context, id uuid.UUID) (*Investor, error)
	// List returns investors by name
	List(ctx context.Context, filter shared.Filter) ([]*Investor, int64, error)
	// AddContribution appends a capital movement
	AddContribution(ctx context.Context, c *CapitalContribution) error
	// CapitalAsOf sums contributions made strictly before asOf, per investor
	CapitalAsOf(ctx context.Context, asOf time.Time) ([]InvestorCapital, error)
}
