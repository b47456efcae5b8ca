package inventory

import (
	"context"
	"fmt"

	"github.com/erp/retailcore/internal/domain/shared"
	"github.com/google/uuid"
)

// StockKeeper applies item mutations together with the availability rule
// for the affected (product, branch) pairs. It is built over transaction
// scoped repositories, so a whole batch commits or rolls back as one unit.
type StockKeeper struct {
	items    ItemRepository
	counters StockCounterRepository
}

// NewStockKeeper creates a StockKeeper over the given repositories
func NewStockKeeper(items ItemRepository, counters StockCounterRepository) *StockKeeper {
	return &StockKeeper{items: items, counters: counters}
}

type stockPair struct {
	productID uuid.UUID
	branchID  uuid.UUID
}

// Transition performs a compare-and-swap status change on one item
func (k *StockKeeper) Transition(ctx context.Context, item *Item, from, to ItemStatus) error {
	branch := item.BranchID
	if err := item.Transition(from, to); err != nil {
		return err
	}
	if from == StatusAvailable {
		if err := k.withdraw(ctx, stockPair{item.ProductID, branch}, 1); err != nil {
			return err
		}
	} else if to == StatusAvailable {
		if err := k.deposit(ctx, stockPair{item.ProductID, branch}); err != nil {
			return err
		}
	}
	return k.items.SaveTransition(ctx, item, from, branch)
}

// WriteOff marks an item DAMAGED from whatever status it holds now.
// Taking an AVAILABLE item out is subject to the availability rule.
func (k *StockKeeper) WriteOff(ctx context.Context, item *Item, reason string) error {
	from, branch := item.Status, item.BranchID
	if err := item.WriteOff(from, reason); err != nil {
		return err
	}
	if from == StatusAvailable {
		if err := k.withdraw(ctx, stockPair{item.ProductID, branch}, 1); err != nil {
			return err
		}
	}
	return k.items.SaveTransition(ctx, item, from, branch)
}

// Dispatch moves every item AVAILABLE -> IN_TRANSIT out of fromBranch.
// Any item that is no longer AVAILABLE at fromBranch fails the whole batch
// with INSUFFICIENT_STOCK; callers must run this inside one transaction.
func (k *StockKeeper) Dispatch(ctx context.Context, items []*Item, fromBranch uuid.UUID) error {
	perPair := make(map[stockPair]int64)
	order := make([]stockPair, 0)
	for _, item := range items {
		if item.Status != StatusAvailable || item.BranchID != fromBranch {
			return shared.NewDomainErrorf(shared.CodeInsufficientStock,
				"item %s is no longer available at the source branch (status %s)", item.SerialNo, item.Status)
		}
		p := stockPair{item.ProductID, item.BranchID}
		if _, seen := perPair[p]; !seen {
			order = append(order, p)
		}
		perPair[p]++
	}

	for _, p := range order {
		if err := k.withdraw(ctx, p, perPair[p]); err != nil {
			return err
		}
	}

	for _, item := range items {
		if err := item.Transition(StatusAvailable, StatusInTransit); err != nil {
			return err
		}
		if err := k.items.SaveTransition(ctx, item, StatusAvailable, fromBranch); err != nil {
			if shared.IsCode(err, shared.CodeStaleState) {
				return shared.NewDomainErrorf(shared.CodeInsufficientStock,
					"item %s changed while dispatching", item.SerialNo)
			}
			return err
		}
	}
	return nil
}

// Receive moves every IN_TRANSIT item from fromBranch to toBranch as AVAILABLE
func (k *StockKeeper) Receive(ctx context.Context, items []*Item, fromBranch, toBranch uuid.UUID) error {
	deposited := make(map[stockPair]bool)
	for _, item := range items {
		if item.BranchID != fromBranch {
			return shared.NewDomainErrorf(shared.CodeStaleState,
				"item %s is held by another branch", item.SerialNo)
		}
		if err := item.ArriveAt(toBranch); err != nil {
			return err
		}
		if err := k.items.SaveTransition(ctx, item, StatusInTransit, fromBranch); err != nil {
			return err
		}
		p := stockPair{item.ProductID, toBranch}
		if !deposited[p] {
			if err := k.deposit(ctx, p); err != nil {
				return err
			}
			deposited[p] = true
		}
	}
	return nil
}

// Level returns the current stock level of a pair
func (k *StockKeeper) Level(ctx context.Context, productID, branchID uuid.UUID) (StockLevel, error) {
	counts, err := k.items.CountByStatus(ctx, productID, branchID)
	if err != nil {
		return StockLevel{}, err
	}
	counter, err := k.counters.Find(ctx, productID, branchID)
	if err != nil {
		if !shared.IsCode(err, shared.CodeNotFound) {
			return StockLevel{}, err
		}
		counter = NewStockCounter(productID, branchID)
	}
	return counter.Level(counts), nil
}

// Reserve places a bulk hold on a pair
func (k *StockKeeper) Reserve(ctx context.Context, productID, branchID uuid.UUID, qty int64) (StockLevel, error) {
	counter, counts, err := k.load(ctx, stockPair{productID, branchID})
	if err != nil {
		return StockLevel{}, err
	}
	if err := counter.Reserve(qty, counts[StatusAvailable]); err != nil {
		return StockLevel{}, err
	}
	if err := k.counters.Save(ctx, counter); err != nil {
		return StockLevel{}, err
	}
	return counter.Level(counts), nil
}

// Release removes a bulk hold from a pair
func (k *StockKeeper) Release(ctx context.Context, productID, branchID uuid.UUID, qty int64) (StockLevel, error) {
	counter, counts, err := k.load(ctx, stockPair{productID, branchID})
	if err != nil {
		return StockLevel{}, err
	}
	if err := counter.Release(qty); err != nil {
		return StockLevel{}, err
	}
	if err := k.counters.Save(ctx, counter); err != nil {
		return StockLevel{}, err
	}
	return counter.Level(counts), nil
}

// Deposit records new stock at a pair, serializing with other writers of the pair
func (k *StockKeeper) Deposit(ctx context.Context, productID, branchID uuid.UUID) error {
	return k.deposit(ctx, stockPair{productID, branchID})
}

func (k *StockKeeper) withdraw(ctx context.Context, p stockPair, n int64) error {
	counter, counts, err := k.load(ctx, p)
	if err != nil {
		return err
	}
	if err := counter.Withdraw(n, counts[StatusAvailable]); err != nil {
		return err
	}
	return k.counters.Save(ctx, counter)
}

func (k *StockKeeper) deposit(ctx context.Context, p stockPair) error {
	counter, err := k.counters.GetOrCreate(ctx, p.productID, p.branchID)
	if err != nil {
		return err
	}
	counter.Deposit()
	return k.counters.Save(ctx, counter)
}

func (k *StockKeeper) load(ctx context.Context, p stockPair) (*StockCounter, StatusCounts, error) {
	counter, err := k.counters.GetOrCreate(ctx, p.productID, p.branchID)
	if err != nil {
		return nil, nil, fmt.Errorf("load stock counter: %w", err)
	}
	counts, err := k.items.CountByStatus(ctx, p.productID, p.branchID)
	if err != nil {
		return nil, nil, fmt.Errorf("count items: %w", err)
	}
	return counter, counts, nil
}
