package ledger

import (
	"time"

	"github.com/erp/retailcore/internal/domain/ledger"
	"github.com/erp/retailcore/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountResponse represents a ledger account in API responses
type AccountResponse struct {
	ID         uuid.UUID       `json:"id"`
	OwnerKind  string          `json:"owner_kind"`
	OwnerID    uuid.UUID       `json:"owner_id"`
	Name       string          `json:"name"`
	Balance    decimal.Decimal `json:"balance"`
	EntryCount int64           `json:"entry_count"`
	Version    int             `json:"version"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// ToAccountResponse converts a domain Account
func ToAccountResponse(a *ledger.Account) AccountResponse {
	return AccountResponse{
		ID:         a.ID,
		OwnerKind:  string(a.OwnerKind),
		OwnerID:    a.OwnerID,
		Name:       a.Name,
		Balance:    a.Balance,
		EntryCount: a.EntryCount,
		Version:    a.Version,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

// EntryResponse represents a ledger entry in API responses
type EntryResponse struct {
	ID             uuid.UUID       `json:"id"`
	AccountID      uuid.UUID       `json:"account_id"`
	OwnerKind      string          `json:"owner_kind"`
	OwnerID        uuid.UUID       `json:"owner_id"`
	Sequence       int64           `json:"sequence"`
	EntryType      string          `json:"entry_type"`
	Debit          decimal.Decimal `json:"debit"`
	Credit         decimal.Decimal `json:"credit"`
	RunningBalance decimal.Decimal `json:"running_balance"`
	ReferenceID    string          `json:"reference_id,omitempty"`
	Description    string          `json:"description,omitempty"`
	ReversalOf     *uuid.UUID      `json:"reversal_of,omitempty"`
	CreatedBy      string          `json:"created_by,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// ToEntryResponse converts a domain Entry
func ToEntryResponse(e *ledger.Entry) EntryResponse {
	return EntryResponse{
		ID:             e.ID,
		AccountID:      e.AccountID,
		OwnerKind:      string(e.OwnerKind),
		OwnerID:        e.OwnerID,
		Sequence:       e.Sequence,
		EntryType:      string(e.EntryType),
		Debit:          e.Debit,
		Credit:         e.Credit,
		RunningBalance: e.RunningBalance,
		ReferenceID:    e.ReferenceID,
		Description:    e.Description,
		ReversalOf:     e.ReversalOf,
		CreatedBy:      e.CreatedBy,
		CreatedAt:      e.CreatedAt,
	}
}

// SummaryResponse aggregates an account over a window
type SummaryResponse struct {
	AccountID      uuid.UUID       `json:"account_id"`
	OwnerKind      string          `json:"owner_kind"`
	OwnerID        uuid.UUID       `json:"owner_id"`
	TotalDebit     decimal.Decimal `json:"total_debit"`
	TotalCredit    decimal.Decimal `json:"total_credit"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
	EntryCount     int64           `json:"entry_count"`
	From           *time.Time      `json:"from,omitempty"`
	To             *time.Time      `json:"to,omitempty"`
}

// ToSummaryResponse converts a domain Summary
func ToSummaryResponse(s ledger.Summary) SummaryResponse {
	return SummaryResponse{
		AccountID:      s.AccountID,
		OwnerKind:      string(s.OwnerKind),
		OwnerID:        s.OwnerID,
		TotalDebit:     s.TotalDebit,
		TotalCredit:    s.TotalCredit,
		OpeningBalance: s.OpeningBalance,
		ClosingBalance: s.ClosingBalance,
		EntryCount:     s.EntryCount,
		From:           s.Window.From,
		To:             s.Window.To,
	}
}

// OpenAccountRequest opens a ledger for an owner
type OpenAccountRequest struct {
	OwnerID uuid.UUID `json:"owner_id" binding:"required"`
	Name    string    `json:"name" binding:"required,max=200"`
}

// PostEntryRequest appends one entry to an owner's ledger
type PostEntryRequest struct {
	EntryType   string          `json:"entry_type" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"decimal_positive"`
	Direction   string          `json:"direction" binding:"required,oneof=DEBIT CREDIT debit credit"`
	ReferenceID string          `json:"reference_id" binding:"max=100"`
	Description string          `json:"description" binding:"max=500"`
}

// ReverseEntryRequest reverses a posted entry
type ReverseEntryRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// EntryQuery selects a window and page of entries
type EntryQuery struct {
	From     *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To       *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	Page     int        `form:"page" binding:"omitempty,min=1"`
	PageSize int        `form:"page_size" binding:"omitempty,min=1,max=500"`
}

// Window returns the query's time range
func (q EntryQuery) Window() shared.TimeRange {
	return shared.TimeRange{From: q.From, To: q.To}
}

// Filter returns the normalized page of the query
func (q EntryQuery) Filter() shared.Filter {
	return shared.Filter{Page: q.Page, PageSize: q.PageSize}.Normalize()
}

// AccountListFilter pages through the accounts of one kind
type AccountListFilter struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=500"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}
