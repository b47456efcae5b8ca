package valueobject

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CurrencyScale is the number of decimal places amounts are persisted with
const CurrencyScale int32 = 2

// Money is an immutable monetary amount. Arithmetic keeps full precision;
// Rounded() applies currency precision and is only used at persistence time.
type Money struct {
	amount decimal.Decimal
}

// NewMoney wraps a decimal amount
func NewMoney(amount decimal.Decimal) Money {
	return Money{amount: amount}
}

// NewMoneyFromString parses an amount such as "10000.00"
func NewMoneyFromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return Money{amount: d}, nil
}

// MustMoney parses an amount and panics on malformed input; intended for constants and tests
func MustMoney(s string) Money {
	m, err := NewMoneyFromString(s)
	if err != nil {
		panic(err)
	}
	return m
}

// ZeroMoney returns a zero amount
func ZeroMoney() Money {
	return Money{amount: decimal.Zero}
}

func (m Money) Amount() decimal.Decimal { return m.amount }
func (m Money) IsZero() bool            { return m.amount.IsZero() }
func (m Money) IsPositive() bool        { return m.amount.IsPositive() }
func (m Money) IsNegative() bool        { return m.amount.IsNegative() }

func (m Money) Add(other Money) Money { return Money{amount: m.amount.Add(other.amount)} }
func (m Money) Sub(other Money) Money { return Money{amount: m.amount.Sub(other.amount)} }
func (m Money) Neg() Money            { return Money{amount: m.amount.Neg()} }
func (m Money) Abs() Money            { return Money{amount: m.amount.Abs()} }

// MulRatio multiplies by a ratio (e.g. 0.70) without rounding
func (m Money) MulRatio(ratio decimal.Decimal) Money {
	return Money{amount: m.amount.Mul(ratio)}
}

// Rounded rounds half away from zero to currency precision
func (m Money) Rounded() Money {
	return Money{amount: m.amount.Round(CurrencyScale)}
}

// Equal compares amounts numerically
func (m Money) Equal(other Money) bool {
	return m.amount.Equal(other.amount)
}

// GreaterThan compares amounts numerically
func (m Money) GreaterThan(other Money) bool {
	return m.amount.GreaterThan(other.amount)
}

// String renders the amount at currency precision
func (m Money) String() string {
	return m.amount.StringFixed(CurrencyScale)
}

// SumMoney adds up a list of amounts
func SumMoney(values ...Money) Money {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v.amount)
	}
	return Money{amount: total}
}

// RoundCurrency rounds a raw decimal to currency precision
func RoundCurrency(d decimal.Decimal) decimal.Decimal {
	return d.Round(CurrencyScale)
}
