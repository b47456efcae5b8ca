package models

import (
	"time"

	"github.com/erp/retailcore/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerAccountModel is the persistence model for a ledger Account.
// Balance and EntryCount mirror the newest entry.
type LedgerAccountModel struct {
	AggregateModel
	OwnerKind  string          `gorm:"type:varchar(20);not null;uniqueIndex:idx_ledger_accounts_owner,priority:1"`
	OwnerID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_ledger_accounts_owner,priority:2"`
	Name       string          `gorm:"type:varchar(200);not null"`
	Balance    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	EntryCount int64           `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (LedgerAccountModel) TableName() string {
	return "ledger_accounts"
}

// ToDomain converts the persistence model to a domain Account
func (m *LedgerAccountModel) ToDomain() *ledger.Account {
	return &ledger.Account{
		BaseAggregateRoot: m.ToAggregateRoot(),
		OwnerKind:         ledger.OwnerKind(m.OwnerKind),
		OwnerID:           m.OwnerID,
		Name:              m.Name,
		Balance:           m.Balance,
		EntryCount:        m.EntryCount,
	}
}

// LedgerAccountModelFromDomain creates a persistence model from a domain Account
func LedgerAccountModelFromDomain(a *ledger.Account) *LedgerAccountModel {
	m := &LedgerAccountModel{
		OwnerKind:  string(a.OwnerKind),
		OwnerID:    a.OwnerID,
		Name:       a.Name,
		Balance:    a.Balance,
		EntryCount: a.EntryCount,
	}
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	return m
}

// LedgerEntryModel is an immutable journal line. The repository only inserts.
type LedgerEntryModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key"`
	AccountID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_ledger_entries_account_seq,priority:1"`
	Sequence       int64           `gorm:"not null;uniqueIndex:idx_ledger_entries_account_seq,priority:2"`
	OwnerKind      string          `gorm:"type:varchar(20);not null;index:idx_ledger_entries_kind_created,priority:1"`
	OwnerID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	EntryType      string          `gorm:"type:varchar(20);not null"`
	Debit          decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Credit         decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	RunningBalance decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	ReferenceID    string          `gorm:"type:varchar(100);index"`
	Description    string          `gorm:"type:varchar(500)"`
	ReversalOf     *uuid.UUID      `gorm:"type:uuid;uniqueIndex"`
	CreatedBy      string          `gorm:"type:varchar(100)"`
	CreatedAt      time.Time       `gorm:"not null;index:idx_ledger_entries_kind_created,priority:2"`
}

// TableName returns the table name for GORM
func (LedgerEntryModel) TableName() string {
	return "ledger_entries"
}

// ToDomain converts the persistence model to a domain Entry
func (m *LedgerEntryModel) ToDomain() *ledger.Entry {
	return &ledger.Entry{
		ID:             m.ID,
		AccountID:      m.AccountID,
		OwnerKind:      ledger.OwnerKind(m.OwnerKind),
		OwnerID:        m.OwnerID,
		Sequence:       m.Sequence,
		EntryType:      ledger.EntryType(m.EntryType),
		Debit:          m.Debit,
		Credit:         m.Credit,
		RunningBalance: m.RunningBalance,
		ReferenceID:    m.ReferenceID,
		Description:    m.Description,
		ReversalOf:     m.ReversalOf,
		CreatedBy:      m.CreatedBy,
		CreatedAt:      m.CreatedAt,
	}
}

// LedgerEntryModelFromDomain creates a persistence model from a domain Entry
func LedgerEntryModelFromDomain(e *ledger.Entry) *LedgerEntryModel {
	return &LedgerEntryModel{
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
