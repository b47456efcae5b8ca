package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/retailcore/internal/domain/distribution"
	"github.com/erp/retailcore/internal/domain/shared"
	"github.com/erp/retailcore/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormDistributionRepository implements distribution.Repository using GORM.
// Rows are inserted once at finalization and never updated.
type GormDistributionRepository struct {
	db *gorm.DB
}

// NewGormDistributionRepository creates a new GormDistributionRepository
func NewGormDistributionRepository(db *gorm.DB) *GormDistributionRepository {
	return &GormDistributionRepository{db: db}
}

func preloadDetails(db *gorm.DB) *gorm.DB {
	return db.Preload("Details", func(db *gorm.DB) *gorm.DB {
		return db.Order("investor_id ASC")
	})
}

// FindByID finds a distribution with its details
func (r *GormDistributionRepository) FindByID(ctx context.Context, id uuid.UUID) (*distribution.Distribution, error) {
	var model models.DistributionModel
	if err := preloadDetails(r.db.WithContext(ctx)).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "distribution")
	}
	return model.ToDomain(), nil
}

// FindByPeriod finds the distribution of a period with its details
func (r *GormDistributionRepository) FindByPeriod(ctx context.Context, period string) (*distribution.Distribution, error) {
	var model models.DistributionModel
	if err := preloadDetails(r.db.WithContext(ctx)).First(&model, "period = ?", period).Error; err != nil {
		return nil, translateError(err, "distribution")
	}
	return model.ToDomain(), nil
}

// List returns distributions without details, newest period first by default
func (r *GormDistributionRepository) List(ctx context.Context, filter shared.Filter) ([]*distribution.Distribution, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.DistributionModel{}).Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "distributions")
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "period"
	}
	var rows []models.DistributionModel
	if err := applyPaging(query, filter, DistributionSortFields, "period").Find(&rows).Error; err != nil {
		return nil, 0, translateError(err, "distributions")
	}
	out := make([]*distribution.Distribution, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, total, nil
}

// Create inserts a finalized distribution and its details
func (r *GormDistributionRepository) Create(ctx context.Context, d *distribution.Distribution) error {
	db := r.db.WithContext(ctx)
	model := models.DistributionModelFromDomain(d)
	if err := db.Omit(clause.Associations).Create(model).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.NewDomainErrorf(shared.CodeAlreadyFinalized, "period %s is already finalized", d.Period)
		}
		return fmt.Errorf("create distribution: %w", translateError(err, "distribution"))
	}
	if len(model.Details) > 0 {
		if err := db.Create(&model.Details).Error; err != nil {
			return fmt.Errorf("create distribution details: %w", translateError(err, "distribution detail"))
		}
	}
	return nil
}

// GormInvestorRepository implements distribution.InvestorRepository using GORM
type GormInvestorRepository struct {
	db *gorm.DB
}

// NewGormInvestorRepository creates a new GormInvestorRepository
func NewGormInvestorRepository(db *gorm.DB) *GormInvestorRepository {
	return &GormInvestorRepository{db: db}
}

// Create registers an investor
func (r *GormInvestorRepository) Create(ctx context.Context, inv *distribution.Investor) error {
	if err := r.db.WithContext(ctx).Create(models.InvestorModelFromDomain(inv)).Error; err != nil {
		return fmt.Errorf("create investor: %w", translateError(err, "investor"))
	}
	return nil
}

// FindByID finds an investor by its ID
func (r *GormInvestorRepository) FindByID(ctx context.Context, id uuid.UUID) (*distribution.Investor, error) {
	var model models.InvestorModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "investor")
	}
	return model.ToDomain(), nil
}

// List returns investors ordered by name unless filter says otherwise
func (r *GormInvestorRepository) List(ctx context.Context, filter shared.Filter) ([]*distribution.Investor, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.InvestorModel{}).Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "investors")
	}
	if filter.OrderBy == "" {
		filter.OrderBy, filter.OrderDir = "name", "asc"
	}
	var rows []models.InvestorModel
	if err := applyPaging(query, filter, InvestorSortFields, "name").Find(&rows).Error; err != nil {
		return nil, 0, translateError(err, "investors")
	}
	out := make([]*distribution.Investor, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, total, nil
}

// AddContribution appends a capital movement
func (r *GormInvestorRepository) AddContribution(ctx context.Context, c *distribution.CapitalContribution) error {
	if err := r.db.WithContext(ctx).Create(models.CapitalContributionModelFromDomain(c)).Error; err != nil {
		return fmt.Errorf("add capital contribution: %w", translateError(err, "capital contribution"))
	}
	return nil
}

// CapitalAsOf sums every investor's contributions made strictly before asOf
func (r *GormInvestorRepository) CapitalAsOf(ctx context.Context, asOf time.Time) ([]distribution.InvestorCapital, error) {
	var rows []struct {
		InvestorID uuid.UUID
		Name       string
		Capital    decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Table("capital_contributions AS c").
		Select("c.investor_id AS investor_id, i.name AS name, COALESCE(SUM(c.amount), 0) AS capital").
		Joins("JOIN investors AS i ON i.id = c.investor_id").
		Where("c.contributed_at < ?", asOf.UTC()).
		Group("c.investor_id, i.name").
		Order("c.investor_id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, translateError(err, "capital contributions")
	}
	out := make([]distribution.InvestorCapital, len(rows))
	for i, row := range rows {
		out[i] = distribution.InvestorCapital{
			InvestorID: row.InvestorID,
			Name:       row.Name,
			Capital:    row.Capital.Round(2),
		}
	}
	return out, nil
}

var (
	_ distribution.Repository         = (*GormDistributionRepository)(nil)
	_ distribution.InvestorRepository = (*GormInvestorRepository)(nil)
)
