package ledger

import (
	"github.com/erp/retailcore/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const AggregateTypeAccount = "LedgerAccount"

const EventTypeEntryPosted = "LedgerEntryPosted"

// EntryPostedEvent is raised for every appended entry
type EntryPostedEvent struct {
	shared.BaseDomainEvent
	EntryID        uuid.UUID       `json:"entry_id"`
	OwnerKind      OwnerKind       `json:"owner_kind"`
	OwnerID        uuid.UUID       `json:"owner_id"`
	EntryType      EntryType       `json:"entry_type"`
	Debit          decimal.Decimal `json:"debit"`
	Credit         decimal.Decimal `json:"credit"`
	RunningBalance decimal.Decimal `json:"running_balance"`
	ReferenceID    string          `json:"reference_id"`
}

func NewEntryPostedEvent(a *Account, e *Entry) *EntryPostedEvent {
	return &EntryPostedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeEntryPosted, AggregateTypeAccount, a.ID),
		EntryID:         e.ID,
		OwnerKind:       e.OwnerKind,
		OwnerID:         e.OwnerID,
		EntryType:       e.EntryType,
		Debit:           e.Debit,
		Credit:          e.Credit,
		RunningBalance:  e.RunningBalance,
		ReferenceID:     e.ReferenceID,
	}
}
