package transfer

import (
	"github.com/erp/retailcore/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const AggregateTypeTransfer = "Transfer"

const (
	EventTypeTransferCreated    = "TransferCreated"
	EventTypeTransferApproved   = "TransferApproved"
	EventTypeTransferRejected   = "TransferRejected"
	EventTypeTransferDispatched = "TransferDispatched"
	EventTypeTransferCompleted  = "TransferCompleted"
	EventTypeTransferCancelled  = "TransferCancelled"
)

// TransferCreatedEvent is raised when a transfer is requested
type TransferCreatedEvent struct {
	shared.BaseDomainEvent
	TransferNo   string    `json:"transfer_no"`
	FromBranchID uuid.UUID `json:"from_branch_id"`
	ToBranchID   uuid.UUID `json:"to_branch_id"`
	ItemCount    int       `json:"item_count"`
	RequestedBy  string    `json:"requested_by"`
}

func NewTransferCreatedEvent(t *Transfer) *TransferCreatedEvent {
	return &TransferCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransferCreated, AggregateTypeTransfer, t.ID),
		TransferNo:      t.TransferNo,
		FromBranchID:    t.FromBranchID,
		ToBranchID:      t.ToBranchID,
		ItemCount:       len(t.Lines),
		RequestedBy:     t.RequestedBy,
	}
}

// TransferStatusEvent covers approve, reject, dispatch and cancel
type TransferStatusEvent struct {
	shared.BaseDomainEvent
	TransferNo string `json:"transfer_no"`
	Status     Status `json:"status"`
	ActorID    string `json:"actor_id"`
	Note       string `json:"note,omitempty"`
}

func NewTransferStatusEvent(eventType string, t *Transfer, actorID, note string) *TransferStatusEvent {
	return &TransferStatusEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeTransfer, t.ID),
		TransferNo:      t.TransferNo,
		Status:          t.Status,
		ActorID:         actorID,
		Note:            note,
	}
}

// TransferCompletedEvent carries the settlement posted on completion
type TransferCompletedEvent struct {
	shared.BaseDomainEvent
	TransferNo   string          `json:"transfer_no"`
	FromBranchID uuid.UUID       `json:"from_branch_id"`
	ToBranchID   uuid.UUID       `json:"to_branch_id"`
	ItemCount    int             `json:"item_count"`
	Profit       decimal.Decimal `json:"profit"`
	PoolShare    decimal.Decimal `json:"pool_share"`
	MasterShare  decimal.Decimal `json:"master_share"`
}

func NewTransferCompletedEvent(t *Transfer) *TransferCompletedEvent {
	return &TransferCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransferCompleted, AggregateTypeTransfer, t.ID),
		TransferNo:      t.TransferNo,
		FromBranchID:    t.FromBranchID,
		ToBranchID:      t.ToBranchID,
		ItemCount:       len(t.Lines),
		Profit:          t.Profit,
		PoolShare:       t.PoolShare,
		MasterShare:     t.MasterShare,
	}
}

// StatusEventTypes lists the event types carried by TransferStatusEvent
func StatusEventTypes() []string {
	return []string{EventTypeTransferApproved, EventTypeTransferRejected, EventTypeTransferDispatched, EventTypeTransferCancelled}
}
