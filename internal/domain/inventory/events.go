package inventory

import (
	"github.com/erp/retailcore/internal/domain/shared"
	"github.com/google/uuid"
)

const AggregateTypeItem = "InventoryItem"

const (
	EventTypeItemReceived      = "ItemReceived"
	EventTypeItemStatusChanged = "ItemStatusChanged"
	EventTypeItemRelocated     = "ItemRelocated"
)

// ItemReceivedEvent is raised when an item enters stock
type ItemReceivedEvent struct {
	shared.BaseDomainEvent
	SerialNo  string    `json:"serial_no"`
	ProductID uuid.UUID `json:"product_id"`
	BranchID  uuid.UUID `json:"branch_id"`
}

func NewItemReceivedEvent(item *Item) *ItemReceivedEvent {
	return &ItemReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeItemReceived, AggregateTypeItem, item.ID),
		SerialNo:        item.SerialNo,
		ProductID:       item.ProductID,
		BranchID:        item.BranchID,
	}
}

// ItemStatusChangedEvent is raised on every status transition
type ItemStatusChangedEvent struct {
	shared.BaseDomainEvent
	SerialNo   string     `json:"serial_no"`
	BranchID   uuid.UUID  `json:"branch_id"`
	FromStatus ItemStatus `json:"from_status"`
	ToStatus   ItemStatus `json:"to_status"`
}

func NewItemStatusChangedEvent(item *Item, from, to ItemStatus) *ItemStatusChangedEvent {
	return &ItemStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeItemStatusChanged, AggregateTypeItem, item.ID),
		SerialNo:        item.SerialNo,
		BranchID:        item.BranchID,
		FromStatus:      from,
		ToStatus:        to,
	}
}

// ItemRelocatedEvent is raised when a transferred item arrives at its destination
type ItemRelocatedEvent struct {
	shared.BaseDomainEvent
	SerialNo     string    `json:"serial_no"`
	FromBranchID uuid.UUID `json:"from_branch_id"`
	ToBranchID   uuid.UUID `json:"to_branch_id"`
}

func NewItemRelocatedEvent(item *Item, from uuid.UUID) *ItemRelocatedEvent {
	return &ItemRelocatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeItemRelocated, AggregateTypeItem, item.ID),
		SerialNo:        item.SerialNo,
		FromBranchID:    from,
		ToBranchID:      item.BranchID,
	}
}
