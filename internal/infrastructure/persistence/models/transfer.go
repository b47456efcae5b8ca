package models

import (
	"time"

	"github.com/erp/retailcore/internal/domain/transfer"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransferModel is the persistence model for the Transfer aggregate root
type TransferModel struct {
	AggregateModel
	TransferNo      string          `gorm:"type:varchar(40);not null;uniqueIndex"`
	FromBranchID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	ToBranchID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	Status          string          `gorm:"type:varchar(20);not null;index"`
	Notes           string          `gorm:"type:text"`
	RejectionReason string          `gorm:"type:varchar(500)"`
	CancelReason    string          `gorm:"type:varchar(500)"`
	RequestedBy     string          `gorm:"type:varchar(100)"`
	ApprovedBy      string          `gorm:"type:varchar(100)"`
	RejectedBy      string          `gorm:"type:varchar(100)"`
	DispatchedBy    string          `gorm:"type:varchar(100)"`
	CompletedBy     string          `gorm:"type:varchar(100)"`
	CancelledBy     string          `gorm:"type:varchar(100)"`
	ApprovedAt      *time.Time
	RejectedAt      *time.Time
	DispatchedAt    *time.Time
	CompletedAt     *time.Time
	CancelledAt     *time.Time
	Profit          decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0"`
	PoolShare       decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0"`
	MasterShare     decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0"`
	Lines           []TransferLineModel `gorm:"foreignKey:TransferID;references:ID"`
}

// TableName returns the table name for GORM
func (TransferModel) TableName() string {
	return "transfers"
}

// ToDomain converts the persistence model to a domain Transfer
func (m *TransferModel) ToDomain() *transfer.Transfer {
	t := &transfer.Transfer{
		BaseAggregateRoot: m.ToAggregateRoot(),
		TransferNo:        m.TransferNo,
		FromBranchID:      m.FromBranchID,
		ToBranchID:        m.ToBranchID,
		Status:            transfer.Status(m.Status),
		Notes:             m.Notes,
		RejectionReason:   m.RejectionReason,
		CancelReason:      m.CancelReason,
		RequestedBy:       m.RequestedBy,
		ApprovedBy:        m.ApprovedBy,
		RejectedBy:        m.RejectedBy,
		DispatchedBy:      m.DispatchedBy,
		CompletedBy:       m.CompletedBy,
		CancelledBy:       m.CancelledBy,
		ApprovedAt:        m.ApprovedAt,
		RejectedAt:        m.RejectedAt,
		DispatchedAt:      m.DispatchedAt,
		CompletedAt:       m.CompletedAt,
		CancelledAt:       m.CancelledAt,
		Profit:            m.Profit,
		PoolShare:         m.PoolShare,
		MasterShare:       m.MasterShare,
		Lines:             make([]transfer.Line, len(m.Lines)),
	}
	for i, l := range m.Lines {
		t.Lines[i] = l.ToDomain()
	}
	return t
}

// FromDomain populates the model (without lines) from a domain Transfer
func (m *TransferModel) FromDomain(t *transfer.Transfer) {
	m.FromDomainAggregateRoot(t.BaseAggregateRoot)
	m.TransferNo = t.TransferNo
	m.FromBranchID = t.FromBranchID
	m.ToBranchID = t.ToBranchID
	m.Status = string(t.Status)
	m.Notes = t.Notes
	m.RejectionReason = t.RejectionReason
	m.CancelReason = t.CancelReason
	m.RequestedBy = t.RequestedBy
	m.ApprovedBy = t.ApprovedBy
	m.RejectedBy = t.RejectedBy
	m.DispatchedBy = t.DispatchedBy
	m.CompletedBy = t.CompletedBy
	m.CancelledBy = t.CancelledBy
	m.ApprovedAt = t.ApprovedAt
	m.RejectedAt = t.RejectedAt
	m.DispatchedAt = t.DispatchedAt
	m.CompletedAt = t.CompletedAt
	m.CancelledAt = t.CancelledAt
	m.Profit = t.Profit
	m.PoolShare = t.PoolShare
	m.MasterShare = t.MasterShare
}

// TransferLineModel references one item moving with a transfer
type TransferLineModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key"`
	TransferID    uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_transfer_lines_transfer_item,priority:1"`
	LineNo        int             `gorm:"not null"`
	ItemID        uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_transfer_lines_transfer_item,priority:2"`
	SerialNo      string          `gorm:"type:varchar(100);not null"`
	ProductID     uuid.UUID       `gorm:"type:uuid;not null"`
	BranchCost    decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	TransferPrice decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (TransferLineModel) TableName() string {
	return "transfer_lines"
}

// ToDomain converts the persistence model to a domain Line
func (m *TransferLineModel) ToDomain() transfer.Line {
	return transfer.Line{
		ItemID:        m.ItemID,
		SerialNo:      m.SerialNo,
		ProductID:     m.ProductID,
		BranchCost:    m.BranchCost,
		TransferPrice: m.TransferPrice,
	}
}

// TransferLineModelsFromDomain converts the lines of t, numbering them in order
func TransferLineModelsFromDomain(t *transfer.Transfer) []TransferLineModel {
	lines := make([]TransferLineModel, len(t.Lines))
	for i, l := range t.Lines {
		lines[i] = TransferLineModel{
			ID:            uuid.New(),
			TransferID:    t.ID,
			LineNo:        i + 1,
			ItemID:        l.ItemID,
			SerialNo:      l.SerialNo,
			ProductID:     l.ProductID,
			BranchCost:    l.BranchCost,
			TransferPrice: l.TransferPrice,
		}
	}
	return lines
}

// TransferTransitionModel is one row of a transfer's append-only history
type TransferTransitionModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key"`
	TransferID uuid.UUID `gorm:"type:uuid;not null;index"`
	FromStatus string    `gorm:"type:varchar(20)"`
	ToStatus   string    `gorm:"type:varchar(20);not null"`
	ActorID    string    `gorm:"type:varchar(100)"`
	Note       string    `gorm:"type:varchar(500)"`
	OccurredAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TransferTransitionModel) TableName() string {
	return "transfer_transitions"
}

// ToDomain converts the persistence model to a domain Transition
func (m *TransferTransitionModel) ToDomain() transfer.Transition {
	return transfer.Transition{
		ID:         m.ID,
		TransferID: m.TransferID,
		FromStatus: transfer.Status(m.FromStatus),
		ToStatus:   transfer.Status(m.ToStatus),
		ActorID:    m.ActorID,
		Note:       m.Note,
		OccurredAt: m.OccurredAt,
	}
}

// TransferTransitionModelFromDomain creates a persistence model from a domain Transition
func TransferTransitionModelFromDomain(tr transfer.Transition) *TransferTransitionModel {
	return &TransferTransitionModel{
		ID:         tr.ID,
		TransferID: tr.TransferID,
		FromStatus: string(tr.FromStatus),
		ToStatus:   string(tr.ToStatus),
		ActorID:    tr.ActorID,
		Note:       tr.Note,
		OccurredAt: tr.OccurredAt,
	}
}
