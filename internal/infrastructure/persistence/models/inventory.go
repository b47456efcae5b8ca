package models

import (
	"time"

	"github.com/erp/retailcore/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryItemModel is the persistence model for a serialized Item
type InventoryItemModel struct {
	AggregateModel
	SerialNo       string          `gorm:"type:varchar(100);not null;uniqueIndex"`
	ProductID      uuid.UUID       `gorm:"type:uuid;not null;index:idx_inventory_items_product_branch_status,priority:1"`
	BranchID       uuid.UUID       `gorm:"type:uuid;not null;index:idx_inventory_items_product_branch_status,priority:2"`
	Status         string          `gorm:"type:varchar(20);not null;index:idx_inventory_items_product_branch_status,priority:3"`
	LandingCost    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	BranchCost     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	WriteOffReason string          `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (InventoryItemModel) TableName() string {
	return "inventory_items"
}

// ToDomain converts the persistence model to a domain Item
func (m *InventoryItemModel) ToDomain() *inventory.Item {
	return &inventory.Item{
		BaseAggregateRoot: m.ToAggregateRoot(),
		SerialNo:          m.SerialNo,
		ProductID:         m.ProductID,
		BranchID:          m.BranchID,
		Status:            inventory.ItemStatus(m.Status),
		LandingCost:       m.LandingCost,
		BranchCost:        m.BranchCost,
		WriteOffReason:    m.WriteOffReason,
	}
}

// FromDomain populates the persistence model from a domain Item
func (m *InventoryItemModel) FromDomain(i *inventory.Item) {
	m.FromDomainAggregateRoot(i.BaseAggregateRoot)
	m.SerialNo = i.SerialNo
	m.ProductID = i.ProductID
	m.BranchID = i.BranchID
	m.Status = string(i.Status)
	m.LandingCost = i.LandingCost
	m.BranchCost = i.BranchCost
	m.WriteOffReason = i.WriteOffReason
}

// InventoryItemModelFromDomain creates a new persistence model from a domain Item
func InventoryItemModelFromDomain(i *inventory.Item) *InventoryItemModel {
	m := &InventoryItemModel{}
	m.FromDomain(i)
	return m
}

// StockCounterModel stores the bulk hold count of one (product, branch) pair
type StockCounterModel struct {
	ProductID uuid.UUID `gorm:"type:uuid;primaryKey"`
	BranchID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	HeldCount int64     `gorm:"not null;default:0;check:chk_stock_counters_held,held_count >= 0"`
	Version   int       `gorm:"not null;default:1"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StockCounterModel) TableName() string {
	return "stock_counters"
}

// ToDomain converts the persistence model to a domain StockCounter
func (m *StockCounterModel) ToDomain() *inventory.StockCounter {
	return &inventory.StockCounter{
		ProductID: m.ProductID,
		BranchID:  m.BranchID,
		HeldCount: m.HeldCount,
		Version:   m.Version,
		UpdatedAt: m.UpdatedAt,
	}
}

// StockCounterModelFromDomain creates a persistence model from a domain StockCounter
func StockCounterModelFromDomain(c *inventory.StockCounter) *StockCounterModel {
	return &StockCounterModel{
		ProductID: c.ProductID,
		BranchID:  c.BranchID,
		HeldCount: c.HeldCount,
		Version:   c.Version,
		UpdatedAt: c.UpdatedAt,
	}
}
