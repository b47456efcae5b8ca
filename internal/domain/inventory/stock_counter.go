package inventory

import (
	"time"

	"github.com/erp/retailcore/internal/domain/shared"
	"github.com/google/uuid"
)

// StockCounter holds the per (product, branch) bulk reservation count.
// Physical stock is never stored here; it is derived from item statuses.
// Every stock mutation for the pair bumps Version so that concurrent writers
// of the same pair serialize on a compare-and-swap.
type StockCounter struct {
	ProductID uuid.UUID
	BranchID  uuid.UUID
	HeldCount int64
	Version   int
	UpdatedAt time.Time
}

// NewStockCounter creates an empty counter at version 1
func NewStockCounter(productID, branchID uuid.UUID) *StockCounter {
	return &StockCounter{
		ProductID: productID,
		BranchID:  branchID,
		Version:   1,
		UpdatedAt: shared.Now(),
	}
}

// StatusCounts is the number of items per status for one (product, branch) pair
type StatusCounts map[ItemStatus]int64

// StockLevel is the reported view of a (product, branch) pair
type StockLevel struct {
	ProductID uuid.UUID
	BranchID  uuid.UUID
	Physical  int64
	Reserved  int64
	Available int64
}

// Level computes physical, reserved and available counts.
// physical = AVAILABLE + RESERVED, reserved = RESERVED + holds, available = AVAILABLE - holds.
func (c *StockCounter) Level(counts StatusCounts) StockLevel {
	physical := counts[StatusAvailable] + counts[StatusReserved]
	reserved := counts[StatusReserved] + c.HeldCount
	return StockLevel{
		ProductID: c.ProductID,
		BranchID:  c.BranchID,
		Physical:  physical,
		Reserved:  reserved,
		Available: physical - reserved,
	}
}

// Reserve places a bulk hold of qty units. availableItems is the number of
// AVAILABLE items at the pair as read in the same transaction.
func (c *StockCounter) Reserve(qty, availableItems int64) error {
	if qty <= 0 {
		return shared.NewDomainError(shared.CodeValidation, "reservation quantity must be positive")
	}
	if availableItems-c.HeldCount < qty {
		return shared.NewDomainErrorf(shared.CodeInsufficientStock,
			"requested %d, available %d", qty, availableItems-c.HeldCount)
	}
	c.HeldCount += qty
	c.bump()
	return nil
}

// Release removes qty units of bulk hold
func (c *StockCounter) Release(qty int64) error {
	if qty <= 0 {
		return shared.NewDomainError(shared.CodeValidation, "release quantity must be positive")
	}
	if c.HeldCount-qty < 0 {
		return shared.NewDomainErrorf(shared.CodeInvalidState,
			"cannot release %d, only %d reserved", qty, c.HeldCount)
	}
	c.HeldCount -= qty
	c.bump()
	return nil
}

// Withdraw checks that taking n AVAILABLE items out of the pair keeps
// availability non-negative, and records the mutation.
func (c *StockCounter) Withdraw(n, availableItems int64) error {
	if availableItems-n < c.HeldCount {
		return shared.NewDomainErrorf(shared.CodeInsufficientStock,
			"withdrawing %d would leave %d available against %d reserved",
			n, availableItems-n, c.HeldCount)
	}
	c.bump()
	return nil
}

// Deposit records that items were added to the pair
func (c *StockCounter) Deposit() {
	c.bump()
}

func (c *StockCounter) bump() {
	c.Version++
	c.UpdatedAt = shared.Now()
}
