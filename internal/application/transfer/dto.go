package transfer

import (
	"time"

	"github.com/erp/retailcore/internal/domain/transfer"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateTransferRequest proposes moving serialized items between branches
type CreateTransferRequest struct {
	FromBranchID uuid.UUID           `json:"from_branch_id" binding:"required"`
	ToBranchID   uuid.UUID           `json:"to_branch_id" binding:"required"`
	Items        []CreateTransferItem `json:"items" binding:"required,min=1,dive"`
	Notes        string              `json:"notes" binding:"max=1000"`
}

// CreateTransferItem is one serial and the price the destination pays for it
type CreateTransferItem struct {
	SerialNo      string          `json:"serial_no" binding:"required,max=100"`
	TransferPrice decimal.Decimal `json:"transfer_price" binding:"decimal_nonnegative"`
}

// RejectTransferRequest declines a pending transfer
type RejectTransferRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// CancelTransferRequest withdraws a pending or approved transfer
type CancelTransferRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// TransferListFilter represents filter options for transfer listings
type TransferListFilter struct {
	Status       string     `form:"status" binding:"omitempty,oneof=PENDING APPROVED REJECTED IN_TRANSIT COMPLETED CANCELLED"`
	FromBranchID *uuid.UUID `form:"-"`
	ToBranchID   *uuid.UUID `form:"-"`
	BranchID     *uuid.UUID `form:"-"`
	CreatedFrom  *time.Time `form:"created_from" time_format:"2006-01-02T15:04:05Z07:00"`
	CreatedTo    *time.Time `form:"created_to" time_format:"2006-01-02T15:04:05Z07:00"`
	Page         int        `form:"page" binding:"omitempty,min=1"`
	PageSize     int        `form:"page_size" binding:"omitempty,min=1,max=500"`
	OrderBy      string     `form:"order_by"`
	OrderDir     string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// TransferLineResponse is one item of a transfer
type TransferLineResponse struct {
	ItemID        uuid.UUID       `json:"item_id"`
	SerialNo      string          `json:"serial_no"`
	ProductID     uuid.UUID       `json:"product_id"`
	BranchCost    decimal.Decimal `json:"branch_cost"`
	TransferPrice decimal.Decimal `json:"transfer_price"`
}

// TransferResponse represents a transfer in API responses
type TransferResponse struct {
	ID              uuid.UUID              `json:"id"`
	TransferNo      string                 `json:"transfer_no"`
	FromBranchID    uuid.UUID              `json:"from_branch_id"`
	ToBranchID      uuid.UUID              `json:"to_branch_id"`
	Status          string                 `json:"status"`
	Items           []TransferLineResponse `json:"items"`
	Notes           string                 `json:"notes,omitempty"`
	RejectionReason string                 `json:"rejection_reason,omitempty"`
	CancelReason    string                 `json:"cancel_reason,omitempty"`
	RequestedBy     string                 `json:"requested_by,omitempty"`
	ApprovedBy      string                 `json:"approved_by,omitempty"`
	RejectedBy      string                 `json:"rejected_by,omitempty"`
	DispatchedBy    string                 `json:"dispatched_by,omitempty"`
	CompletedBy     string                 `json:"completed_by,omitempty"`
	CancelledBy     string                 `json:"cancelled_by,omitempty"`
	ApprovedAt      *time.Time             `json:"approved_at,omitempty"`
	RejectedAt      *time.Time             `json:"rejected_at,omitempty"`
	DispatchedAt    *time.Time             `json:"dispatched_at,omitempty"`
	CompletedAt     *time.Time             `json:"completed_at,omitempty"`
	CancelledAt     *time.Time             `json:"cancelled_at,omitempty"`
	Profit          decimal.Decimal        `json:"profit"`
	PoolShare       decimal.Decimal        `json:"pool_share"`
	MasterShare     decimal.Decimal        `json:"master_share"`
	Version         int                    `json:"version"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

// ToTransferResponse converts a domain Transfer
func ToTransferResponse(t *transfer.Transfer) TransferResponse {
	lines := make([]TransferLineResponse, len(t.Lines))
	for i, l := range t.Lines {
		lines[i] = TransferLineResponse{
			ItemID:        l.ItemID,
			SerialNo:      l.SerialNo,
			ProductID:     l.ProductID,
			BranchCost:    l.BranchCost,
			TransferPrice: l.TransferPrice,
		}
	}
	return TransferResponse{
		ID:              t.ID,
		TransferNo:      t.TransferNo,
		FromBranchID:    t.FromBranchID,
		ToBranchID:      t.ToBranchID,
		Status:          string(t.Status),
		Items:           lines,
		Notes:           t.Notes,
		RejectionReason: t.RejectionReason,
		CancelReason:    t.CancelReason,
		RequestedBy:     t.RequestedBy,
		ApprovedBy:      t.ApprovedBy,
		RejectedBy:      t.RejectedBy,
		DispatchedBy:    t.DispatchedBy,
		CompletedBy:     t.CompletedBy,
		CancelledBy:     t.CancelledBy,
		ApprovedAt:      t.ApprovedAt,
		RejectedAt:      t.RejectedAt,
		DispatchedAt:    t.DispatchedAt,
		CompletedAt:     t.CompletedAt,
		CancelledAt:     t.CancelledAt,
		Profit:          t.Profit,
		PoolShare:       t.PoolShare,
		MasterShare:     t.MasterShare,
		Version:         t.Version,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

// TransitionResponse is one row of a transfer's history
type TransitionResponse struct {
	FromStatus string    `json:"from_status,omitempty"`
	ToStatus   string    `json:"to_status"`
	ActorID    string    `json:"actor_id,omitempty"`
	Note       string    `json:"note,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ToTransitionResponses converts history rows
func ToTransitionResponses(history []transfer.Transition) []TransitionResponse {
	out := make([]TransitionResponse, len(history))
	for i, h := range history {
		out[i] = TransitionResponse{
			FromStatus: string(h.FromStatus),
			ToStatus:   string(h.ToStatus),
			ActorID:    h.ActorID,
			Note:       h.Note,
			OccurredAt: h.OccurredAt,
		}
	}
	return out
}
