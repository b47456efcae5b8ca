package distribution

import (
	"strings"
	"time"

	"github.com/erp/retailcore/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Investor is a capital holder entitled to a share of the investor pool
type Investor struct {
	shared.BaseEntity
	Name string
}

// NewInvestor registers an investor
func NewInvestor(name string) (*Investor, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "investor name is required")
	}
	return &Investor{BaseEntity: shared.NewBaseEntity(), Name: name}, nil
}

// CapitalContribution is an append-only capital movement. Withdrawals are negative.
type CapitalContribution struct {
	ID            uuid.UUID
	InvestorID    uuid.UUID
	Amount        decimal.Decimal
	ContributedAt time.Time
	Note          string
	CreatedAt     time.Time
}

// NewCapitalContribution validates and creates a capital movement
func NewCapitalContribution(investorID uuid.UUID, amount decimal.Decimal, at time.Time, note string) (*CapitalContribution, error) {
	amount = amount.Round(2)
	if amount.IsZero() {
		return nil, shared.NewDomainError(shared.CodeInvalidAmount, "capital movement cannot be zero")
	}
	if at.IsZero() {
		at = shared.Now()
	}
	return &CapitalContribution{
		ID:            uuid.New(),
		InvestorID:    investorID,
		Amount:        amount,
		ContributedAt: at.UTC(),
		Note:          note,
		CreatedAt:     shared.Now(),
	}, nil
}

// InvestorCapital is an investor's capital total as of a point in time
type InvestorCapital struct {
	InvestorID uuid.UUID
	Name       string
	Capital    decimal.Decimal
}
