package transfer

import (
	"context"
	"time"

	"github.com/erp/retailcore/internal/domain/shared"
	"github.com/google/uuid"
)

// Filter narrows transfer listings
type Filter struct {
	shared.Filter
	Status       *Status
	FromBranchID *uuid.UUID
	ToBranchID   *uuid.UUID
	// BranchID matches transfers where the branch is either side
	BranchID    *uuid.UUID
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// Repository persists transfers with their lines and history
type Repository interface {
	// FindByID returns a transfer with its lines or NOT_FOUND
	FindByID(ctx context.Context, id uuid.UUID) (*Transfer, error)
	// FindByNo returns a transfer by its transfer number or NOT_FOUND
	FindByNo(ctx context.Context, transferNo string) (*Transfer, error)
	// FindAll returns a page of transfers (with lines) and the total count
	FindAll(ctx context.Context, filter Filter) ([]*Transfer, int64, error)
	// Create inserts the transfer, its lines and pending history
	Create(ctx context.Context, t *Transfer) error
	// SaveWithLock updates the transfer if the stored version is t.Version-1
	// and appends pending history; a mismatch yields STALE_STATE
	SaveWithLock(ctx context.Context, t *Transfer) error
	// History returns the transition history oldest first
	History(ctx context.Context, id uuid.UUID) ([]Transition, error)
}

// NumberGenerator issues unique, sortable transfer numbers
type NumberGenerator interface {
	NextTransferNo() string
}
