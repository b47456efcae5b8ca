package distribution

import (
	"sort"

	"github.com/erp/retailcore/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// PercentScale is the number of decimal places persisted for share percentages
const PercentScale int32 = 4

// Line is one investor's part of a breakdown
type Line struct {
	InvestorID   string
	InvestorName string
	Capital      decimal.Decimal
	// SharePercent is capital / total capital expressed in percent (60 for 60%)
	SharePercent decimal.Decimal
	Amount       decimal.Decimal
}

// Breakdown is the computed split of one period
type Breakdown struct {
	Period           Period
	TotalProfit      decimal.Decimal
	TotalPool        decimal.Decimal
	TotalMasterShare decimal.Decimal
	TotalCapital     decimal.Decimal
	Lines            []Line
}

// Calculator splits period profit between the investor pool and the master share
type Calculator struct {
	poolRatio decimal.Decimal
}

// NewCalculator creates a calculator; poolRatio is the pool's fraction (0.70)
func NewCalculator(poolRatio decimal.Decimal) Calculator {
	return Calculator{poolRatio: poolRatio}
}

// Preview computes the breakdown at full precision. Investors with no
// positive capital take no part; when nobody holds capital the breakdown has
// no lines. A period without positive profit has nothing to share.
func (c Calculator) Preview(period Period, profit decimal.Decimal, capitals []InvestorCapital) Breakdown {
	b := Breakdown{
		Period:           period,
		TotalProfit:      profit,
		TotalPool:        decimal.Zero,
		TotalMasterShare: decimal.Zero,
		TotalCapital:     decimal.Zero,
	}
	if profit.IsPositive() {
		b.TotalPool = profit.Mul(c.poolRatio)
		b.TotalMasterShare = profit.Sub(b.TotalPool)
	}

	eligible := make([]InvestorCapital, 0, len(capitals))
	for _, ic := range capitals {
		if ic.Capital.IsPositive() {
			eligible = append(eligible, ic)
			b.TotalCapital = b.TotalCapital.Add(ic.Capital)
		}
	}
	if b.TotalCapital.IsZero() {
		return b
	}

	for _, ic := range eligible {
		b.Lines = append(b.Lines, Line{
			InvestorID:   ic.InvestorID.String(),
			InvestorName: ic.Name,
			Capital:      ic.Capital,
			SharePercent: ic.Capital.Mul(hundred).Div(b.TotalCapital),
			Amount:       b.TotalPool.Mul(ic.Capital).Div(b.TotalCapital),
		})
	}
	sort.SliceStable(b.Lines, func(i, j int) bool { return b.Lines[i].InvestorID < b.Lines[j].InvestorID })
	return b
}

// Rounded returns the breakdown at persistence precision. Every amount is
// rounded to currency precision and the residual between the rounded pool
// and the sum of rounded amounts goes to the investor with the largest
// capital (ties: smallest investor id), so the lines reconcile exactly.
func (b Breakdown) Rounded() Breakdown {
	out := b
	out.TotalProfit = valueobject.RoundCurrency(b.TotalProfit)
	out.TotalPool = valueobject.RoundCurrency(b.TotalPool)
	out.TotalMasterShare = valueobject.RoundCurrency(b.TotalPool.Add(b.TotalMasterShare)).Sub(out.TotalPool)
	out.Lines = make([]Line, len(b.Lines))

	if len(b.Lines) == 0 {
		return out
	}

	sum := decimal.Zero
	largest := 0
	for i, l := range b.Lines {
		l.Amount = valueobject.RoundCurrency(l.Amount)
		l.SharePercent = l.SharePercent.Round(PercentScale)
		out.Lines[i] = l
		sum = sum.Add(l.Amount)

		best := out.Lines[largest]
		if l.Capital.GreaterThan(best.Capital) ||
			(l.Capital.Equal(best.Capital) && l.InvestorID < best.InvestorID) {
			largest = i
		}
	}
	if residual := out.TotalPool.Sub(sum); !residual.IsZero() {
		out.Lines[largest].Amount = out.Lines[largest].Amount.Add(residual)
	}
	return out
}

// Distributed returns Σ line amounts
func (b Breakdown) Distributed() decimal.Decimal {
	total := decimal.Zero
	for _, l := range b.Lines {
		total = total.Add(l.Amount)
	}
	return total
}
