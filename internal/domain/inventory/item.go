package inventory

import (
	"strings"

	"github.com/erp/retailcore/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemStatus is the lifecycle state of a serialized inventory item
type ItemStatus string

const (
	StatusAvailable ItemStatus = "AVAILABLE"
	StatusReserved  ItemStatus = "RESERVED"
	StatusInTransit ItemStatus = "IN_TRANSIT"
	StatusSold      ItemStatus = "SOLD"
	StatusDamaged   ItemStatus = "DAMAGED"
)

// AllStatuses lists every item status
var AllStatuses = []ItemStatus{StatusAvailable, StatusReserved, StatusInTransit, StatusSold, StatusDamaged}

// allowedTransitions is the item status graph. DAMAGED is reachable from any
// non-terminal status and is handled separately.
var allowedTransitions = map[ItemStatus][]ItemStatus{
	StatusAvailable: {StatusReserved, StatusInTransit},
	StatusReserved:  {StatusAvailable, StatusInTransit},
	StatusInTransit: {StatusSold, StatusAvailable},
}

// IsValid reports whether s is a known status
func (s ItemStatus) IsValid() bool {
	for _, v := range AllStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s
func (s ItemStatus) IsTerminal() bool {
	return s == StatusSold || s == StatusDamaged
}

// ParseItemStatus parses a status name case-insensitively
func ParseItemStatus(s string) (ItemStatus, error) {
	st := ItemStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", shared.NewDomainErrorf(shared.CodeValidation, "unknown item status %q", s)
	}
	return st, nil
}

// CanTransition reports whether from -> to is a legal move
func CanTransition(from, to ItemStatus) bool {
	if from.IsTerminal() || !to.IsValid() || from == to {
		return false
	}
	if to == StatusDamaged {
		return true
	}
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Item is a single serialized unit of stock held by one branch
type Item struct {
	shared.BaseAggregateRoot
	SerialNo       string
	ProductID      uuid.UUID
	BranchID       uuid.UUID
	Status         ItemStatus
	LandingCost    decimal.Decimal
	BranchCost     decimal.Decimal
	WriteOffReason string
}

// NewItem creates an AVAILABLE item on stock receipt
func NewItem(serialNo string, productID, branchID uuid.UUID, landingCost, branchCost decimal.Decimal) (*Item, error) {
	serialNo = strings.TrimSpace(serialNo)
	if serialNo == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "serial number is required")
	}
	if productID == uuid.Nil || branchID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "product and branch are required")
	}
	if landingCost.IsNegative() || branchCost.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeValidation, "costs cannot be negative")
	}

	item := &Item{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SerialNo:          serialNo,
		ProductID:         productID,
		BranchID:          branchID,
		Status:            StatusAvailable,
		LandingCost:       landingCost,
		BranchCost:        branchCost,
	}
	item.AddDomainEvent(NewItemReceivedEvent(item))
	return item, nil
}

// Transition moves the item from an observed status to a new one.
// A mismatch between the observed and current status is STALE_STATE.
func (i *Item) Transition(from, to ItemStatus) error {
	if i.Status != from {
		return shared.NewDomainErrorf(shared.CodeStaleState,
			"item %s is %s, not %s", i.SerialNo, i.Status, from)
	}
	if !CanTransition(from, to) {
		return shared.NewDomainErrorf(shared.CodeInvalidState,
			"item %s cannot move from %s to %s", i.SerialNo, from, to)
	}

	i.Status = to
	i.IncrementVersion()
	i.AddDomainEvent(NewItemStatusChangedEvent(i, from, to))
	return nil
}

// ArriveAt completes a transfer leg: an IN_TRANSIT item becomes AVAILABLE
// at the destination branch, keeping its identity and serial.
func (i *Item) ArriveAt(branchID uuid.UUID) error {
	if i.Status != StatusInTransit {
		return shared.NewDomainErrorf(shared.CodeStaleState,
			"item %s is %s, not %s", i.SerialNo, i.Status, StatusInTransit)
	}
	from := i.BranchID
	i.BranchID = branchID
	i.Status = StatusAvailable
	i.IncrementVersion()
	i.AddDomainEvent(NewItemRelocatedEvent(i, from))
	return nil
}

// WriteOff marks a non-terminal item DAMAGED. The row is kept for audit.
func (i *Item) WriteOff(observed ItemStatus, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return shared.NewDomainError(shared.CodeValidation, "write-off reason is required")
	}
	if err := i.Transition(observed, StatusDamaged); err != nil {
		return err
	}
	i.WriteOffReason = reason
	return nil
}
