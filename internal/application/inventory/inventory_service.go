package inventory

import (
	"context"
	"strings"

	"github.com/erp/retailcore/internal/application/common"
	"github.com/erp/retailcore/internal/domain/inventory"
	"github.com/erp/retailcore/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InventoryService is the only writer of physical stock state
type InventoryService struct {
	txScope TransactionScope
	exec    *common.Executor
}

// NewInventoryService creates a new InventoryService
func NewInventoryService(txScope TransactionScope, exec *common.Executor) *InventoryService {
	return &InventoryService{txScope: txScope, exec: exec}
}

func keeperFor(repos TransactionalRepositories) *inventory.StockKeeper {
	return inventory.NewStockKeeper(repos.ItemRepo(), repos.CounterRepo())
}

// ReceiveStock creates an AVAILABLE item at a branch
func (s *InventoryService) ReceiveStock(ctx context.Context, req ReceiveStockRequest) (*ItemResponse, error) {
	var resp ItemResponse
	err := s.exec.RunWithRetry(ctx, "inventory.receive_stock", func(ctx context.Context) error {
		item, err := inventory.NewItem(req.SerialNo, req.ProductID, req.BranchID, req.LandingCost, req.BranchCost)
		if err != nil {
			return err
		}
		return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			if err := repos.ItemRepo().Create(ctx, item); err != nil {
				return err
			}
			if err := keeperFor(repos).Deposit(ctx, item.ProductID, item.BranchID); err != nil {
				return err
			}
			resp = ToItemResponse(item)
			return common.PublishPending(ctx, repos.Outbox(), item)
		})
	})
	if err != nil {
		return nil, err
	}
	s.exec.Metrics().RecordItemTransitions(ctx, string(inventory.StatusAvailable), 1)
	s.exec.Logger(ctx).Info("stock received",
		zap.String("item_id", resp.ID.String()),
		zap.String("serial_no", resp.SerialNo),
		zap.String("branch_id", resp.BranchID.String()),
	)
	return &resp, nil
}

// GetItem returns an item by id
func (s *InventoryService) GetItem(ctx context.Context, id uuid.UUID) (*ItemResponse, error) {
	return s.readItem(ctx, "inventory.get_item", func(ctx context.Context, repo inventory.ItemRepository) (*inventory.Item, error) {
		return repo.FindByID(ctx, id)
	})
}

// GetItemBySerial returns an item by serial number
func (s *InventoryService) GetItemBySerial(ctx context.Context, serialNo string) (*ItemResponse, error) {
	return s.readItem(ctx, "inventory.get_item_by_serial", func(ctx context.Context, repo inventory.ItemRepository) (*inventory.Item, error) {
		return repo.FindBySerial(ctx, strings.TrimSpace(serialNo))
	})
}

func (s *InventoryService) readItem(ctx context.Context, op string, find func(context.Context, inventory.ItemRepository) (*inventory.Item, error)) (*ItemResponse, error) {
	var resp ItemResponse
	err := s.exec.Run(ctx, op, func(ctx context.Context) error {
		return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			item, err := find(ctx, repos.ItemRepo())
			if err != nil {
				return err
			}
			resp = ToItemResponse(item)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListItems returns a page of items
func (s *InventoryService) ListItems(ctx context.Context, f ItemListFilter) (shared.Paginated[ItemResponse], error) {
	filter := inventory.ItemFilter{
		Filter: shared.Filter{
			Page:     f.Page,
			PageSize: f.PageSize,
			OrderBy:  f.OrderBy,
			OrderDir: f.OrderDir,
		}.Normalize(),
		ProductID: f.ProductID,
		BranchID:  f.BranchID,
	}
	if f.Status != "" {
		st, err := inventory.ParseItemStatus(f.Status)
		if err != nil {
			return shared.Paginated[ItemResponse]{}, err
		}
		filter.Status = &st
	}

	var page shared.Paginated[ItemResponse]
	err := s.exec.Run(ctx, "inventory.list_items", func(ctx context.Context) error {
		return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			items, total, err := repos.ItemRepo().FindAll(ctx, filter)
			if err != nil {
				return err
			}
			out := make([]ItemResponse, len(items))
			for i, it := range items {
				out[i] = ToItemResponse(it)
			}
			page = shared.NewPaginated(out, total, filter.Page, filter.PageSize)
			return nil
		})
	})
	return page, err
}

// TransitionItem performs a compare-and-swap status change
func (s *InventoryService) TransitionItem(ctx context.Context, id uuid.UUID, req TransitionItemRequest) (*ItemResponse, error) {
	from, err := inventory.ParseItemStatus(req.FromStatus)
	if err != nil {
		return nil, err
	}
	to, err := inventory.ParseItemStatus(req.ToStatus)
	if err != nil {
		return nil, err
	}

	resp, err := s.mutateItem(ctx, "inventory.transition_item", id, func(ctx context.Context, keeper *inventory.StockKeeper, item *inventory.Item) error {
		return keeper.Transition(ctx, item, from, to)
	})
	if err != nil {
		return nil, err
	}
	s.exec.Metrics().RecordItemTransitions(ctx, string(to), 1)
	s.exec.Logger(ctx).Info("item transitioned",
		zap.String("item_id", id.String()),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	return resp, nil
}

// WriteOff marks an item DAMAGED from its current status
func (s *InventoryService) WriteOff(ctx context.Context, id uuid.UUID, req WriteOffRequest) (*ItemResponse, error) {
	resp, err := s.mutateItem(ctx, "inventory.write_off", id, func(ctx context.Context, keeper *inventory.StockKeeper, item *inventory.Item) error {
		return keeper.WriteOff(ctx, item, req.Reason)
	})
	if err != nil {
		return nil, err
	}
	s.exec.Metrics().RecordItemTransitions(ctx, string(inventory.StatusDamaged), 1)
	s.exec.Logger(ctx).Info("item written off",
		zap.String("item_id", id.String()),
		zap.String("reason", req.Reason),
	)
	return resp, nil
}

func (s *InventoryService) mutateItem(ctx context.Context, op string, id uuid.UUID, mutate func(context.Context, *inventory.StockKeeper, *inventory.Item) error) (*ItemResponse, error) {
	var resp ItemResponse
	err := s.exec.RunWithRetry(ctx, op, func(ctx context.Context) error {
		return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			item, err := repos.ItemRepo().FindByID(ctx, id)
			if err != nil {
				return err
			}
			if item.Status == inventory.StatusInTransit {
				transferNo, err := repos.Shipments().InTransitTransferNo(ctx, item.ID)
				if err != nil {
					return err
				}
				if transferNo != "" {
					return shared.NewDomainErrorf(shared.CodeInvalidState,
						"item %s is carried by transfer %s and moves only through it", item.SerialNo, transferNo)
				}
			}
			if err := mutate(ctx, keeperFor(repos), item); err != nil {
				return err
			}
			resp = ToItemResponse(item)
			return common.PublishPending(ctx, repos.Outbox(), item)
		})
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Reserve places a bulk hold of qty units
func (s *InventoryService) Reserve(ctx context.Context, req ReservationRequest) (*StockLevelResponse, error) {
	return s.adjustHold(ctx, "inventory.reserve", req, (*inventory.StockKeeper).Reserve)
}

// Release removes a bulk hold of qty units
func (s *InventoryService) Release(ctx context.Context, req ReservationRequest) (*StockLevelResponse, error) {
	return s.adjustHold(ctx, "inventory.release", req, (*inventory.StockKeeper).Release)
}

type holdFunc func(*inventory.StockKeeper, context.Context, uuid.UUID, uuid.UUID, int64) (inventory.StockLevel, error)

func (s *InventoryService) adjustHold(ctx context.Context, op string, req ReservationRequest, apply holdFunc) (*StockLevelResponse, error) {
	var resp StockLevelResponse
	err := s.exec.RunWithRetry(ctx, op, func(ctx context.Context) error {
		return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			level, err := apply(keeperFor(repos), ctx, req.ProductID, req.BranchID, req.Quantity)
			if err != nil {
				return err
			}
			resp = ToStockLevelResponse(level)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	s.exec.Logger(ctx).Info("stock hold adjusted",
		zap.String("operation", op),
		zap.String("product_id", req.ProductID.String()),
		zap.String("branch_id", req.BranchID.String()),
		zap.Int64("quantity", req.Quantity),
		zap.Int64("available", resp.Available),
	)
	return &resp, nil
}

// GetAvailableCount returns physical, reserved and available counts of a pair
func (s *InventoryService) GetAvailableCount(ctx context.Context, productID, branchID uuid.UUID) (*StockLevelResponse, error) {
	var resp StockLevelResponse
	err := s.exec.Run(ctx, "inventory.get_available_count", func(ctx context.Context) error {
		return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			level, err := keeperFor(repos).Level(ctx, productID, branchID)
			if err != nil {
				return err
			}
			resp = ToStockLevelResponse(level)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
