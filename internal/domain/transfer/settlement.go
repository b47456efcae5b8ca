package transfer

import (
	"github.com/erp/retailcore/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// DefaultPoolRatio is the investor pool's share of transfer profit
var DefaultPoolRatio = decimal.RequireFromString("0.70")

// Settlement is the profit split posted when a transfer completes
type Settlement struct {
	Profit      decimal.Decimal
	PoolShare   decimal.Decimal
	MasterShare decimal.Decimal
}

// ComputeSettlement returns profit = Σ(transferPrice - branchCost), the pool
// share rounded to currency precision and the master share as the remainder,
// so the two legs always add up to the profit exactly.
func ComputeSettlement(lines []Line, poolRatio decimal.Decimal) Settlement {
	profit := valueobject.ZeroMoney()
	for _, l := range lines {
		profit = profit.Add(valueobject.NewMoney(l.TransferPrice.Sub(l.BranchCost)))
	}
	profit = profit.Rounded()
	pool := profit.MulRatio(poolRatio).Rounded()
	return Settlement{
		Profit:      profit.Amount(),
		PoolShare:   pool.Amount(),
		MasterShare: profit.Sub(pool).Amount(),
	}
}
