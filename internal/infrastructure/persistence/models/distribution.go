package models

import (
	"time"

	"github.com/erp/retailcore/internal/domain/distribution"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvestorModel is the persistence model for an Investor
type InvestorModel struct {
	BaseModel
	Name string `gorm:"type:varchar(200);not null"`
}

// TableName returns the table name for GORM
func (InvestorModel) TableName() string {
	return "investors"
}

// ToDomain converts the persistence model to a domain Investor
func (m *InvestorModel) ToDomain() *distribution.Investor {
	return &distribution.Investor{BaseEntity: m.BaseModel.ToDomain(), Name: m.Name}
}

// InvestorModelFromDomain creates a persistence model from a domain Investor
func InvestorModelFromDomain(inv *distribution.Investor) *InvestorModel {
	m := &InvestorModel{Name: inv.Name}
	m.FromDomainBaseEntity(inv.BaseEntity)
	return m
}

// CapitalContributionModel is an append-only capital movement
type CapitalContributionModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key"`
	InvestorID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	ContributedAt time.Time       `gorm:"not null;index"`
	Note          string          `gorm:"type:varchar(500)"`
	CreatedAt     time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CapitalContributionModel) TableName() string {
	return "capital_contributions"
}

// CapitalContributionModelFromDomain creates a persistence model from a domain CapitalContribution
func CapitalContributionModelFromDomain(c *distribution.CapitalContribution) *CapitalContributionModel {
	return &CapitalContributionModel{
		ID:            c.ID,
		InvestorID:    c.InvestorID,
		Amount:        c.Amount,
		ContributedAt: c.ContributedAt,
		Note:          c.Note,
		CreatedAt:     c.CreatedAt,
	}
}

// DistributionModel is the persistence model for a finalized Distribution
type DistributionModel struct {
	AggregateModel
	Period           string                    `gorm:"type:varchar(7);not null;uniqueIndex"`
	TotalProfit      decimal.Decimal           `gorm:"type:decimal(18,2);not null"`
	TotalPool        decimal.Decimal           `gorm:"type:decimal(18,2);not null"`
	TotalMasterShare decimal.Decimal           `gorm:"type:decimal(18,2);not null"`
	IsFinalized      bool                      `gorm:"not null;default:true"`
	FinalizedAt      *time.Time                `gorm:"not null"`
	FinalizedBy      string                    `gorm:"type:varchar(100)"`
	Details          []DistributionDetailModel `gorm:"foreignKey:DistributionID;references:ID"`
}

// TableName returns the table name for GORM
func (DistributionModel) TableName() string {
	return "distributions"
}

// ToDomain converts the persistence model to a domain Distribution
func (m *DistributionModel) ToDomain() *distribution.Distribution {
	d := &distribution.Distribution{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Period:            m.Period,
		TotalProfit:       m.TotalProfit,
		TotalPool:         m.TotalPool,
		TotalMasterShare:  m.TotalMasterShare,
		IsFinalized:       m.IsFinalized,
		FinalizedAt:       m.FinalizedAt,
		FinalizedBy:       m.FinalizedBy,
	}
	for _, det := range m.Details {
		d.Details = append(d.Details, det.ToDomain())
	}
	return d
}

// DistributionModelFromDomain creates a persistence model (with details) from a domain Distribution
func DistributionModelFromDomain(d *distribution.Distribution) *DistributionModel {
	m := &DistributionModel{
		Period:           d.Period,
		TotalProfit:      d.TotalProfit,
		TotalPool:        d.TotalPool,
		TotalMasterShare: d.TotalMasterShare,
		IsFinalized:      d.IsFinalized,
		FinalizedAt:      d.FinalizedAt,
		FinalizedBy:      d.FinalizedBy,
		Details:          make([]DistributionDetailModel, len(d.Details)),
	}
	m.FromDomainAggregateRoot(d.BaseAggregateRoot)
	for i, det := range d.Details {
		m.Details[i] = DistributionDetailModel{
			ID:                  det.ID,
			DistributionID:      d.ID,
			InvestorID:          det.InvestorID,
			InvestorName:        det.InvestorName,
			Capital:             det.Capital,
			CapitalSharePercent: det.CapitalSharePercent,
			DistributedAmount:   det.DistributedAmount,
		}
	}
	return m
}

// DistributionDetailModel is one investor's persisted share
type DistributionDetailModel struct {
	ID                  uuid.UUID       `gorm:"type:uuid;primary_key"`
	DistributionID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_distribution_details_investor,priority:1"`
	InvestorID          uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_distribution_details_investor,priority:2"`
	InvestorName        string          `gorm:"type:varchar(200);not null"`
	Capital             decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CapitalSharePercent decimal.Decimal `gorm:"type:decimal(9,4);not null"`
	DistributedAmount   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (DistributionDetailModel) TableName() string {
	return "distribution_details"
}

// ToDomain converts the persistence model to a domain Detail
func (m *DistributionDetailModel) ToDomain() distribution.Detail {
	return distribution.Detail{
		ID:                  m.ID,
		DistributionID:      m.DistributionID,
		InvestorID:          m.InvestorID,
		InvestorName:        m.InvestorName,
		Capital:             m.Capital,
		CapitalSharePercent: m.CapitalSharePercent,
		DistributedAmount:   m.DistributedAmount,
	}
}
