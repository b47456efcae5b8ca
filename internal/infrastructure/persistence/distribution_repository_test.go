package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/erp/retailcore/internal/domain/distribution"
	"github.com/erp/retailcore/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerTestInvestor(t *testing.T, repo *GormInvestorRepository, name string, amounts map[time.Time]int64) *distribution.Investor {
	t.Helper()
	ctx := context.Background()
	inv, err := distribution.NewInvestor(name)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, inv))
	for at, amount := range amounts {
		c, err := distribution.NewCapitalContribution(inv.ID, decimal.NewFromInt(amount), at, "")
		require.NoError(t, err)
		require.NoError(t, repo.AddContribution(ctx, c))
	}
	return inv
}

func TestGormInvestorRepository_CapitalAsOf(t *testing.T) {
	db := newTestDatabase(t)
	repo := NewGormInvestorRepository(db.DB)
	ctx := context.Background()

	may := time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)
	june := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	july := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	a := registerTestInvestor(t, repo, "Alpha", map[time.Time]int64{may: 6000, june: -1000})
	b := registerTestInvestor(t, repo, "Beta", map[time.Time]int64{may: 4000, july: 5000})
	registerTestInvestor(t, repo, "Gamma", nil)

	capitals, err := repo.CapitalAsOf(ctx, july)
	require.NoError(t, err)
	require.Len(t, capitals, 2)

	byID := map[uuid.UUID]distribution.InvestorCapital{}
	for _, c := range capitals {
		byID[c.InvestorID] = c
	}
	assert.Equal(t, "5000", byID[a.ID].Capital.String())
	assert.Equal(t, "Alpha", byID[a.ID].Name)
	assert.Equal(t, "4000", byID[b.ID].Capital.String())

	list, total, err := repo.List(ctx, shared.Filter{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, "Alpha", list[0].Name)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.True(t, shared.IsCode(err, shared.CodeNotFound))
}

func TestGormDistributionRepository_CreateOncePerPeriod(t *testing.T) {
	db := newTestDatabase(t)
	repo := NewGormDistributionRepository(db.DB)
	ctx := context.Background()

	period, err := distribution.ParsePeriod("2025-06")
	require.NoError(t, err)
	capitals := []distribution.InvestorCapital{
		{InvestorID: uuid.New(), Name: "Alpha", Capital: decimal.NewFromInt(6000)},
		{InvestorID: uuid.New(), Name: "Beta", Capital: decimal.NewFromInt(4000)},
	}
	preview := distribution.NewCalculator(decimal.RequireFromString("0.70")).Preview(period, decimal.NewFromInt(10000), capitals)

	d, err := distribution.Finalize(preview, "owner")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, d))

	again, err := distribution.Finalize(preview, "owner")
	require.NoError(t, err)
	err = repo.Create(ctx, again)
	assert.True(t, shared.IsCode(err, shared.CodeAlreadyFinalized))

	stored, err := repo.FindByPeriod(ctx, "2025-06")
	require.NoError(t, err)
	assert.Equal(t, d.ID, stored.ID)
	assert.True(t, stored.IsFinalized)
	assert.Equal(t, "7000", stored.TotalPool.String())
	require.Len(t, stored.Details, 2)
	assert.True(t, stored.DistributedTotal().Equal(stored.TotalPool))

	byID, err := repo.FindByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "2025-06", byID.Period)

	list, total, err := repo.List(ctx, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, list, 1)
}
