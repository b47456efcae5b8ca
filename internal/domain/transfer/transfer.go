package transfer

import (
	"strings"
	"time"

	"github.com/erp/retailcore/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the workflow state of a transfer
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusInTransit Status = "IN_TRANSIT"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// IsTerminal reports whether no transition leaves s
func (s Status) IsTerminal() bool {
	return s == StatusRejected || s == StatusCompleted || s == StatusCancelled
}

// ParseStatus parses a status name case-insensitively
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case StatusPending, StatusApproved, StatusRejected, StatusInTransit, StatusCompleted, StatusCancelled:
		return st, nil
	}
	return "", shared.NewDomainErrorf(shared.CodeValidation, "unknown transfer status %q", s)
}

// Line references one serialized item moving with the transfer.
// The item itself stays owned by inventory.
type Line struct {
	ItemID        uuid.UUID
	SerialNo      string
	ProductID     uuid.UUID
	BranchCost    decimal.Decimal
	TransferPrice decimal.Decimal
}

// Transition is one entry of the transfer's own history
type Transition struct {
	ID         uuid.UUID
	TransferID uuid.UUID
	FromStatus Status
	ToStatus   Status
	ActorID    string
	Note       string
	OccurredAt time.Time
}

// Transfer moves serialized items from one branch to another
type Transfer struct {
	shared.BaseAggregateRoot
	TransferNo      string
	FromBranchID    uuid.UUID
	ToBranchID      uuid.UUID
	Status          Status
	Lines           []Line
	Notes           string
	RejectionReason string
	CancelReason    string
	RequestedBy     string
	ApprovedBy      string
	RejectedBy      string
	DispatchedBy    string
	CompletedBy     string
	CancelledBy     string
	ApprovedAt      *time.Time
	RejectedAt      *time.Time
	DispatchedAt    *time.Time
	CompletedAt     *time.Time
	CancelledAt     *time.Time
	Profit          decimal.Decimal
	PoolShare       decimal.Decimal
	MasterShare     decimal.Decimal

	pendingTransitions []Transition
}

// NewTransfer creates a PENDING transfer proposal. No stock is touched.
func NewTransfer(transferNo string, from, to uuid.UUID, lines []Line, notes, actorID string) (*Transfer, error) {
	if from == uuid.Nil || to == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "source and destination branch are required")
	}
	if from == to {
		return nil, shared.NewDomainError(shared.CodeValidation, "source and destination branch must differ")
	}
	if len(lines) == 0 {
		return nil, shared.NewDomainError(shared.CodeValidation, "a transfer needs at least one item")
	}
	seen := make(map[string]bool, len(lines))
	for _, l := range lines {
		if seen[l.SerialNo] {
			return nil, shared.NewDomainErrorf(shared.CodeValidation, "serial %s listed twice", l.SerialNo)
		}
		seen[l.SerialNo] = true
		if l.TransferPrice.IsNegative() {
			return nil, shared.NewDomainErrorf(shared.CodeValidation, "transfer price of %s cannot be negative", l.SerialNo)
		}
	}

	t := &Transfer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		TransferNo:        transferNo,
		FromBranchID:      from,
		ToBranchID:        to,
		Status:            StatusPending,
		Lines:             lines,
		Notes:             strings.TrimSpace(notes),
		RequestedBy:       actorID,
	}
	t.record("", StatusPending, actorID, t.Notes)
	t.AddDomainEvent(NewTransferCreatedEvent(t))
	return t, nil
}

// Approve accepts a pending transfer
func (t *Transfer) Approve(actorID string) error {
	if err := t.require("approve", StatusPending); err != nil {
		return err
	}
	now := shared.Now()
	t.ApprovedBy = actorID
	t.ApprovedAt = &now
	t.moveTo(StatusApproved, actorID, "")
	t.AddDomainEvent(NewTransferStatusEvent(EventTypeTransferApproved, t, actorID, ""))
	return nil
}

// Reject declines a pending transfer; a reason is mandatory
func (t *Transfer) Reject(actorID, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewDomainError(shared.CodeValidation, "rejection reason is required")
	}
	if err := t.require("reject", StatusPending); err != nil {
		return err
	}
	now := shared.Now()
	t.RejectedBy = actorID
	t.RejectedAt = &now
	t.RejectionReason = reason
	t.moveTo(StatusRejected, actorID, reason)
	t.AddDomainEvent(NewTransferStatusEvent(EventTypeTransferRejected, t, actorID, reason))
	return nil
}

// Dispatch marks an approved transfer as shipped. Stock is moved by the caller.
func (t *Transfer) Dispatch(actorID string) error {
	if err := t.require("dispatch", StatusApproved); err != nil {
		return err
	}
	now := shared.Now()
	t.DispatchedBy = actorID
	t.DispatchedAt = &now
	t.moveTo(StatusInTransit, actorID, "")
	t.AddDomainEvent(NewTransferStatusEvent(EventTypeTransferDispatched, t, actorID, ""))
	return nil
}

// Complete closes an in-transit transfer and records its settlement.
// A second call fails with ALREADY_COMPLETED and changes nothing.
func (t *Transfer) Complete(actorID string, s Settlement) error {
	if t.Status == StatusCompleted {
		return shared.NewDomainErrorf(shared.CodeAlreadyCompleted, "transfer %s is already completed", t.TransferNo)
	}
	if err := t.require("complete", StatusInTransit); err != nil {
		return err
	}
	now := shared.Now()
	t.CompletedBy = actorID
	t.CompletedAt = &now
	t.Profit = s.Profit
	t.PoolShare = s.PoolShare
	t.MasterShare = s.MasterShare
	t.moveTo(StatusCompleted, actorID, "")
	t.AddDomainEvent(NewTransferCompletedEvent(t))
	return nil
}

// Cancel withdraws a pending or approved transfer
func (t *Transfer) Cancel(actorID, reason string) error {
	if err := t.require("cancel", StatusPending, StatusApproved); err != nil {
		return err
	}
	now := shared.Now()
	t.CancelledBy = actorID
	t.CancelledAt = &now
	t.CancelReason = strings.TrimSpace(reason)
	t.moveTo(StatusCancelled, actorID, t.CancelReason)
	t.AddDomainEvent(NewTransferStatusEvent(EventTypeTransferCancelled, t, actorID, t.CancelReason))
	return nil
}

// ItemIDs returns the referenced item ids in line order
func (t *Transfer) ItemIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(t.Lines))
	for i, l := range t.Lines {
		ids[i] = l.ItemID
	}
	return ids
}

// PendingTransitions returns history rows not yet persisted
func (t *Transfer) PendingTransitions() []Transition {
	return t.pendingTransitions
}

// ClearPendingTransitions is called by the repository after persisting history
func (t *Transfer) ClearPendingTransitions() {
	t.pendingTransitions = nil
}

func (t *Transfer) require(op string, allowed ...Status) error {
	for _, s := range allowed {
		if t.Status == s {
			return nil
		}
	}
	return shared.NewDomainErrorf(shared.CodeInvalidState, "cannot %s transfer %s in status %s", op, t.TransferNo, t.Status)
}

func (t *Transfer) moveTo(to Status, actorID, note string) {
	from := t.Status
	t.Status = to
	t.IncrementVersion()
	t.record(from, to, actorID, note)
}

func (t *Transfer) record(from, to Status, actorID, note string) {
	t.pendingTransitions = append(t.pendingTransitions, Transition{
		ID:         uuid.New(),
		TransferID: t.ID,
		FromStatus: from,
		ToStatus:   to,
		ActorID:    actorID,
		Note:       note,
		OccurredAt: shared.Now(),
	})
}
