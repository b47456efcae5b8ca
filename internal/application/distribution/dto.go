package distribution

import (
	"time"

	"github.com/erp/retailcore/internal/domain/distribution"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FinalizeRequest freezes the distribution of a period
type FinalizeRequest struct {
	Period string `json:"period" binding:"required,period"`
}

// RegisterInvestorRequest adds an investor to the registry
type RegisterInvestorRequest struct {
	Name string `json:"name" binding:"required,max=200"`
}

// AddCapitalRequest appends a capital movement; withdrawals are negative
type AddCapitalRequest struct {
	Amount        decimal.Decimal `json:"amount" binding:"decimal_nonzero"`
	ContributedAt *time.Time      `json:"contributed_at"`
	Note          string          `json:"note" binding:"max=500"`
}

// ListQuery pages through distributions or investors
type ListQuery struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=500"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// PreviewLineResponse is one investor's part of a preview
type PreviewLineResponse struct {
	InvestorID          string          `json:"investor_id"`
	InvestorName        string          `json:"investor_name"`
	Capital             decimal.Decimal `json:"capital"`
	CapitalSharePercent decimal.Decimal `json:"capital_share_percent"`
	Amount              decimal.Decimal `json:"amount"`
}

// PreviewResponse is the full-precision split of a period
type PreviewResponse struct {
	Period           string                `json:"period"`
	PeriodStart      time.Time             `json:"period_start"`
	PeriodEnd        time.Time             `json:"period_end"`
	TotalProfit      decimal.Decimal       `json:"total_profit"`
	TotalPool        decimal.Decimal       `json:"total_pool"`
	TotalMasterShare decimal.Decimal       `json:"total_master_share"`
	TotalCapital     decimal.Decimal       `json:"total_capital"`
	Breakdown        []PreviewLineResponse `json:"breakdown"`
	IsFinalized      bool                  `json:"is_finalized"`
}

// ToPreviewResponse converts a breakdown
func ToPreviewResponse(b distribution.Breakdown, finalized bool) PreviewResponse {
	lines := make([]PreviewLineResponse, len(b.Lines))
	for i, l := range b.Lines {
		lines[i] = PreviewLineResponse{
			InvestorID:          l.InvestorID,
			InvestorName:        l.InvestorName,
			Capital:             l.Capital,
			CapitalSharePercent: l.SharePercent,
			Amount:              l.Amount,
		}
	}
	return PreviewResponse{
		Period:           b.Period.String(),
		PeriodStart:      b.Period.Start(),
		PeriodEnd:        b.Period.End(),
		TotalProfit:      b.TotalProfit,
		TotalPool:        b.TotalPool,
		TotalMasterShare: b.TotalMasterShare,
		TotalCapital:     b.TotalCapital,
		Breakdown:        lines,
		IsFinalized:      finalized,
	}
}

// DetailResponse is one investor's persisted share
type DetailResponse struct {
	InvestorID          uuid.UUID       `json:"investor_id"`
	InvestorName        string          `json:"investor_name"`
	Capital             decimal.Decimal `json:"capital"`
	CapitalSharePercent decimal.Decimal `json:"capital_share_percent"`
	DistributedAmount   decimal.Decimal `json:"distributed_amount"`
}

// DistributionResponse represents a finalized distribution
type DistributionResponse struct {
	ID               uuid.UUID        `json:"id"`
	Period           string           `json:"period"`
	TotalProfit      decimal.Decimal  `json:"total_profit"`
	TotalPool        decimal.Decimal  `json:"total_pool"`
	TotalMasterShare decimal.Decimal  `json:"total_master_share"`
	IsFinalized      bool             `json:"is_finalized"`
	FinalizedAt      *time.Time       `json:"finalized_at,omitempty"`
	FinalizedBy      string           `json:"finalized_by,omitempty"`
	Details          []DetailResponse `json:"details,omitempty"`
}

// ToDistributionResponse converts a domain Distribution
func ToDistributionResponse(d *distribution.Distribution) DistributionResponse {
	resp := DistributionResponse{
		ID:               d.ID,
		Period:           d.Period,
		TotalProfit:      d.TotalProfit,
		TotalPool:        d.TotalPool,
		TotalMasterShare: d.TotalMasterShare,
		IsFinalized:      d.IsFinalized,
		FinalizedAt:      d.FinalizedAt,
		FinalizedBy:      d.FinalizedBy,
	}
	for _, det := range d.Details {
		resp.Details = append(resp.Details, DetailResponse{
			InvestorID:          det.InvestorID,
			InvestorName:        det.InvestorName,
			Capital:             det.Capital,
			CapitalSharePercent: det.CapitalSharePercent,
			DistributedAmount:   det.DistributedAmount,
		})
	}
	return resp
}

// InvestorResponse represents an investor with its current capital
type InvestorResponse struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Capital   decimal.Decimal `json:"capital"`
	CreatedAt time.Time       `json:"created_at"`
}

// ContributionResponse represents a capital movement
type ContributionResponse struct {
	ID            uuid.UUID       `json:"id"`
	InvestorID    uuid.UUID       `json:"investor_id"`
	Amount        decimal.Decimal `json:"amount"`
	ContributedAt time.Time       `json:"contributed_at"`
	Note          string          `json:"note,omitempty"`
}
