// Package ledger models the append-only books of record kept per branch,
// per supplier and for the investor pool.
package ledger

import (
	"strings"
	"time"

	"github.com/erp/retailcore/internal/domain/shared"
	"github.com/erp/retailcore/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OwnerKind identifies what a ledger account belongs to
type OwnerKind string

const (
	OwnerBranch       OwnerKind = "BRANCH"
	OwnerSupplier     OwnerKind = "SUPPLIER"
	OwnerInvestorPool OwnerKind = "INVESTOR_POOL"
)

// IsValid reports whether k is a known owner kind
func (k OwnerKind) IsValid() bool {
	return k == OwnerBranch || k == OwnerSupplier || k == OwnerInvestorPool
}

// ParseOwnerKind accepts "branch", "branches", "SUPPLIER", ...
func ParseOwnerKind(s string) (OwnerKind, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	switch v {
	case "BRANCH", "BRANCHES":
		return OwnerBranch, nil
	case "SUPPLIER", "SUPPLIERS":
		return OwnerSupplier, nil
	case "INVESTOR_POOL", "INVESTOR-POOL", "POOL":
		return OwnerInvestorPool, nil
	}
	return "", shared.NewDomainErrorf(shared.CodeValidation, "unknown ledger owner kind %q", s)
}

// EntryType classifies the business event behind an entry
type EntryType string

const (
	EntrySale       EntryType = "SALE"
	EntryExpense    EntryType = "EXPENSE"
	EntryPayment    EntryType = "PAYMENT"
	EntryAdjustment EntryType = "ADJUSTMENT"
	EntryTransfer   EntryType = "TRANSFER"
	EntryPurchase   EntryType = "PURCHASE"
	EntryReversal   EntryType = "REVERSAL"
)

var postableTypes = map[EntryType]bool{
	EntrySale: true, EntryExpense: true, EntryPayment: true,
	EntryAdjustment: true, EntryTransfer: true, EntryPurchase: true,
}

// ParseEntryType parses a postable entry type. REVERSAL is produced only by Reverse.
func ParseEntryType(s string) (EntryType, error) {
	t := EntryType(strings.ToUpper(strings.TrimSpace(s)))
	if !postableTypes[t] {
		return "", shared.NewDomainErrorf(shared.CodeValidation, "unknown entry type %q", s)
	}
	return t, nil
}

// Direction says which side of the entry carries the amount
type Direction string

const (
	Debit  Direction = "DEBIT"
	Credit Direction = "CREDIT"
)

// ParseDirection parses DEBIT or CREDIT
func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToUpper(strings.TrimSpace(s)))
	if d != Debit && d != Credit {
		return "", shared.NewDomainErrorf(shared.CodeValidation, "direction must be DEBIT or CREDIT, got %q", s)
	}
	return d, nil
}

// Opposite returns the other side
func (d Direction) Opposite() Direction {
	if d == Debit {
		return Credit
	}
	return Debit
}

// Posting is a request to append one entry to an account
type Posting struct {
	EntryType   EntryType
	Amount      decimal.Decimal
	Direction   Direction
	ReferenceID string
	Description string
	ActorID     string
	reversalOf  *uuid.UUID
}

// Entry is an immutable journal line. RunningBalance is fixed when the entry is written.
type Entry struct {
	ID             uuid.UUID
	AccountID      uuid.UUID
	OwnerKind      OwnerKind
	OwnerID        uuid.UUID
	Sequence       int64
	EntryType      EntryType
	Debit          decimal.Decimal
	Credit         decimal.Decimal
	RunningBalance decimal.Decimal
	ReferenceID    string
	Description    string
	ReversalOf     *uuid.UUID
	CreatedBy      string
	CreatedAt      time.Time
}

// Direction returns the side that carries the amount
func (e *Entry) Direction() Direction {
	if e.Debit.IsPositive() {
		return Debit
	}
	return Credit
}

// Amount returns the non-zero side
func (e *Entry) Amount() decimal.Decimal {
	if e.Debit.IsPositive() {
		return e.Debit
	}
	return e.Credit
}

// Account is the per-owner ledger aggregate. Balance and EntryCount always
// equal the running balance and sequence of the newest entry.
type Account struct {
	shared.BaseAggregateRoot
	OwnerKind  OwnerKind
	OwnerID    uuid.UUID
	Name       string
	Balance    decimal.Decimal
	EntryCount int64
}

// NewAccount opens an empty ledger account for an owner
func NewAccount(kind OwnerKind, ownerID uuid.UUID, name string) (*Account, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainErrorf(shared.CodeValidation, "unknown owner kind %q", kind)
	}
	if ownerID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "owner id is required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "account name is required")
	}
	return &Account{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OwnerKind:         kind,
		OwnerID:           ownerID,
		Name:              name,
		Balance:           decimal.Zero,
	}, nil
}

// Post appends one entry and advances the running balance.
// Amounts are rounded to currency precision; a non-positive result is INVALID_AMOUNT.
func (a *Account) Post(p Posting) (*Entry, error) {
	amount := valueobject.RoundCurrency(p.Amount)
	if !amount.IsPositive() {
		return nil, shared.NewDomainErrorf(shared.CodeInvalidAmount, "amount must be greater than zero, got %s", p.Amount)
	}
	if p.Direction != Debit && p.Direction != Credit {
		return nil, shared.NewDomainErrorf(shared.CodeValidation, "invalid direction %q", p.Direction)
	}
	if !postableTypes[p.EntryType] && !(p.EntryType == EntryReversal && p.reversalOf != nil) {
		return nil, shared.NewDomainErrorf(shared.CodeValidation, "invalid entry type %q", p.EntryType)
	}

	entry := &Entry{
		ID:          uuid.New(),
		AccountID:   a.ID,
		OwnerKind:   a.OwnerKind,
		OwnerID:     a.OwnerID,
		Sequence:    a.EntryCount + 1,
		EntryType:   p.EntryType,
		Debit:       decimal.Zero,
		Credit:      decimal.Zero,
		ReferenceID: p.ReferenceID,
		Description: p.Description,
		ReversalOf:  p.reversalOf,
		CreatedBy:   p.ActorID,
		CreatedAt:   shared.Now(),
	}
	if p.Direction == Debit {
		entry.Debit = amount
	} else {
		entry.Credit = amount
	}
	entry.RunningBalance = a.Balance.Add(entry.Credit).Sub(entry.Debit)

	a.Balance = entry.RunningBalance
	a.EntryCount = entry.Sequence
	a.IncrementVersion()
	a.AddDomainEvent(NewEntryPostedEvent(a, entry))
	return entry, nil
}

// Reverse posts the opposite of an earlier entry. The original stays untouched.
func (a *Account) Reverse(original *Entry, reason, actorID string) (*Entry, error) {
	if original.AccountID != a.ID {
		return nil, shared.NewDomainError(shared.CodeValidation, "entry belongs to another account")
	}
	if original.EntryType == EntryReversal {
		return nil, shared.NewDomainError(shared.CodeInvalidState, "a reversal entry cannot be reversed")
	}
	if strings.TrimSpace(reason) == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "reversal reason is required")
	}
	id := original.ID
	return a.Post(Posting{
		EntryType:   EntryReversal,
		Amount:      original.Amount(),
		Direction:   original.Direction().Opposite(),
		ReferenceID: original.ID.String(),
		Description: reason,
		ActorID:     actorID,
		reversalOf:  &id,
	})
}

// Summary aggregates an account over an optional window
type Summary struct {
	AccountID      uuid.UUID
	OwnerKind      OwnerKind
	OwnerID        uuid.UUID
	TotalDebit     decimal.Decimal
	TotalCredit    decimal.Decimal
	OpeningBalance decimal.Decimal
	ClosingBalance decimal.Decimal
	EntryCount     int64
	Window         shared.TimeRange
}

// Totals are the raw sums a repository returns for a window
type Totals struct {
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
	EntryCount  int64
}

// NewSummary combines the opening balance and window totals.
// Closing balance equals the running balance of the last entry in the window.
func NewSummary(a *Account, window shared.TimeRange, opening decimal.Decimal, t Totals) Summary {
	return Summary{
		AccountID:      a.ID,
		OwnerKind:      a.OwnerKind,
		OwnerID:        a.OwnerID,
		TotalDebit:     t.TotalDebit,
		TotalCredit:    t.TotalCredit,
		OpeningBalance: opening,
		ClosingBalance: opening.Add(t.TotalCredit).Sub(t.TotalDebit),
		EntryCount:     t.EntryCount,
		Window:         window,
	}
}
