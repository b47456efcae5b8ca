package inventory

import (
	"time"

	"github.com/erp/retailcore/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemResponse represents a serialized item in API responses
type ItemResponse struct {
	ID             uuid.UUID       `json:"id"`
	SerialNo       string          `json:"serial_no"`
	ProductID      uuid.UUID       `json:"product_id"`
	BranchID       uuid.UUID       `json:"branch_id"`
	Status         string          `json:"status"`
	LandingCost    decimal.Decimal `json:"landing_cost"`
	BranchCost     decimal.Decimal `json:"branch_cost"`
	WriteOffReason string          `json:"write_off_reason,omitempty"`
	Version        int             `json:"version"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ToItemResponse converts a domain Item
func ToItemResponse(i *inventory.Item) ItemResponse {
	return ItemResponse{
		ID:             i.ID,
		SerialNo:       i.SerialNo,
		ProductID:      i.ProductID,
		BranchID:       i.BranchID,
		Status:         string(i.Status),
		LandingCost:    i.LandingCost,
		BranchCost:     i.BranchCost,
		WriteOffReason: i.WriteOffReason,
		Version:        i.Version,
		CreatedAt:      i.CreatedAt,
		UpdatedAt:      i.UpdatedAt,
	}
}

// StockLevelResponse is the availability view of a (product, branch) pair
type StockLevelResponse struct {
	ProductID uuid.UUID `json:"product_id"`
	BranchID  uuid.UUID `json:"branch_id"`
	Physical  int64     `json:"physical_count"`
	Reserved  int64     `json:"reserved_count"`
	Available int64     `json:"available_count"`
}

// ToStockLevelResponse converts a domain StockLevel
func ToStockLevelResponse(l inventory.StockLevel) StockLevelResponse {
	return StockLevelResponse{
		ProductID: l.ProductID,
		BranchID:  l.BranchID,
		Physical:  l.Physical,
		Reserved:  l.Reserved,
		Available: l.Available,
	}
}

// ReceiveStockRequest registers one serialized unit at a branch
type ReceiveStockRequest struct {
	ProductID   uuid.UUID       `json:"product_id" binding:"required"`
	BranchID    uuid.UUID       `json:"branch_id" binding:"required"`
	SerialNo    string          `json:"serial_no" binding:"required,max=100"`
	LandingCost decimal.Decimal `json:"landing_cost" binding:"decimal_nonnegative"`
	BranchCost  decimal.Decimal `json:"branch_cost" binding:"decimal_nonnegative"`
}

// TransitionItemRequest is a compare-and-swap status change
type TransitionItemRequest struct {
	FromStatus string `json:"from_status" binding:"required"`
	ToStatus   string `json:"to_status" binding:"required"`
}

// WriteOffRequest marks an item DAMAGED
type WriteOffRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// ReservationRequest places or releases a bulk hold
type ReservationRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	BranchID  uuid.UUID `json:"branch_id" binding:"required"`
	Quantity  int64     `json:"quantity" binding:"required,min=1"`
}

// ItemListFilter represents filter options for item listings
type ItemListFilter struct {
	ProductID *uuid.UUID `form:"-"`
	BranchID  *uuid.UUID `form:"-"`
	Status    string     `form:"status" binding:"omitempty,oneof=AVAILABLE RESERVED IN_TRANSIT SOLD DAMAGED"`
	Page      int        `form:"page" binding:"omitempty,min=1"`
	PageSize  int        `form:"page_size" binding:"omitempty,min=1,max=500"`
	OrderBy   string     `form:"order_by"`
	OrderDir  string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}
