package inventory

import (
	"context"

	"github.com/erp/retailcore/internal/domain/shared"
	"github.com/google/uuid"
)

// ItemFilter narrows item listings
type ItemFilter struct {
	shared.Filter
	ProductID *uuid.UUID
	BranchID  *uuid.UUID
	Status    *ItemStatus
}

// ItemRepository persists serialized items
type ItemRepository interface {
	// FindByID returns an item or NOT_FOUND
	FindByID(ctx context.Context, id uuid.UUID) (*Item, error)
	// FindBySerial returns an item by its unique serial number or NOT_FOUND
	FindBySerial(ctx context.Context, serialNo string) (*Item, error)
	// FindBySerials returns every item whose serial is in the list; missing serials are simply absent
	FindBySerials(ctx context.Context, serials []string) ([]*Item, error)
	// FindByIDs returns every item whose id is in the list
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Item, error)
	// FindAll returns a page of items and the total count
	FindAll(ctx context.Context, filter ItemFilter) ([]*Item, int64, error)
	// Create inserts a new item; a duplicate serial yields ALREADY_EXISTS
	Create(ctx context.Context, item *Item) error
	// SaveTransition persists a mutated item only if the stored row still has
	// the expected status and branch and the previous version.
	// A mismatch yields STALE_STATE.
	SaveTransition(ctx context.Context, item *Item, expectedStatus ItemStatus, expectedBranch uuid.UUID) error
	// CountByStatus returns item counts per status for a (product, branch) pair
	CountByStatus(ctx context.Context, productID, branchID uuid.UUID) (StatusCounts, error)
}

// ShipmentLookup finds the dispatched transfer carrying an item
type ShipmentLookup interface {
	// InTransitTransferNo returns the number of the IN_TRANSIT transfer whose
	// lines include the item, or "" when there is none
	InTransitTransferNo(ctx context.Context, itemID uuid.UUID) (string, error)
}

// StockCounterRepository persists per-pair reservation counters
type StockCounterRepository interface {
	// GetOrCreate returns the counter for the pair, inserting an empty one if absent
	GetOrCreate(ctx context.Context, productID, branchID uuid.UUID) (*StockCounter, error)
	// Find returns the counter for the pair or NOT_FOUND
	Find(ctx context.Context, productID, branchID uuid.UUID) (*StockCounter, error)
	// Save writes the counter if the stored version is counter.Version-1.
	// A mismatch yields CONCURRENCY_CONFLICT.
	Save(ctx context.Context, counter *StockCounter) error
}
