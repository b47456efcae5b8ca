package valueobject

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoney(t *testing.T) {
	t.Run("parses and renders at currency precision", func(t *testing.T) {
		m, err := NewMoneyFromString("10000")
		require.NoError(t, err)
		assert.Equal(t, "10000.00", m.String())
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		_, err := NewMoneyFromString("ten")
		assert.Error(t, err)
	})

	t.Run("ratio keeps full precision until rounded", func(t *testing.T) {
		m := MustMoney("0.05").MulRatio(decimal.RequireFromString("0.7"))
		assert.True(t, m.Amount().Equal(decimal.RequireFromString("0.035")))
		assert.Equal(t, "0.04", m.Rounded().String())
	})

	t.Run("sum and sign helpers", func(t *testing.T) {
		total := SumMoney(MustMoney("1.10"), MustMoney("2.20"), MustMoney("-0.30"))
		assert.True(t, total.Equal(MustMoney("3")))
		assert.True(t, MustMoney("-1").IsNegative())
		assert.True(t, MustMoney("-1").Abs().IsPositive())
		assert.True(t, ZeroMoney().IsZero())
	})
}
