package persistence

import (
	"context"
	"fmt"

	"github.com/erp/retailcore/internal/domain/inventory"
	"github.com/erp/retailcore/internal/domain/shared"
	"github.com/erp/retailcore/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormItemRepository implements inventory.ItemRepository using GORM
type GormItemRepository struct {
	db *gorm.DB
}

// NewGormItemRepository creates a new GormItemRepository
func NewGormItemRepository(db *gorm.DB) *GormItemRepository {
	return &GormItemRepository{db: db}
}

// FindByID finds an item by its ID
func (r *GormItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Item, error) {
	var model models.InventoryItemModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "inventory item")
	}
	return model.ToDomain(), nil
}

// FindBySerial finds an item by its serial number
func (r *GormItemRepository) FindBySerial(ctx context.Context, serialNo string) (*inventory.Item, error) {
	var model models.InventoryItemModel
	if err := r.db.WithContext(ctx).First(&model, "serial_no = ?", serialNo).Error; err != nil {
		return nil, translateError(err, "inventory item")
	}
	return model.ToDomain(), nil
}

// FindBySerials returns the items carrying any of the given serials
func (r *GormItemRepository) FindBySerials(ctx context.Context, serials []string) ([]*inventory.Item, error) {
	if len(serials) == 0 {
		return nil, nil
	}
	var rows []models.InventoryItemModel
	if err := r.db.WithContext(ctx).Where("serial_no IN ?", serials).Find(&rows).Error; err != nil {
		return nil, translateError(err, "inventory items")
	}
	return itemsToDomain(rows), nil
}

// FindByIDs returns the items with any of the given ids
func (r *GormItemRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*inventory.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.InventoryItemModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, translateError(err, "inventory items")
	}
	return itemsToDomain(rows), nil
}

// FindAll returns a page of items matching filter and the total count
func (r *GormItemRepository) FindAll(ctx context.Context, filter inventory.ItemFilter) ([]*inventory.Item, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.InventoryItemModel{})
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.BranchID != nil {
		query = query.Where("branch_id = ?", *filter.BranchID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}

	query = query.Session(&gorm.Session{})
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "inventory items")
	}

	var rows []models.InventoryItemModel
	if err := applyPaging(query, filter.Filter, ItemSortFields, "created_at").Find(&rows).Error; err != nil {
		return nil, 0, translateError(err, "inventory items")
	}
	return itemsToDomain(rows), total, nil
}

// Create inserts a new item
func (r *GormItemRepository) Create(ctx context.Context, item *inventory.Item) error {
	if err := r.db.WithContext(ctx).Create(models.InventoryItemModelFromDomain(item)).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.NewDomainErrorf(shared.CodeAlreadyExists, "serial %s already exists", item.SerialNo)
		}
		return fmt.Errorf("create inventory item: %w", translateError(err, "inventory item"))
	}
	return nil
}

// SaveTransition writes the item's status, branch and version as a
// compare-and-swap on the previously observed row
func (r *GormItemRepository) SaveTransition(ctx context.Context, item *inventory.Item, expectedStatus inventory.ItemStatus, expectedBranch uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.InventoryItemModel{}).
		Where("id = ? AND version = ? AND status = ? AND branch_id = ?",
			item.ID, item.Version-1, string(expectedStatus), expectedBranch).
		Updates(map[string]any{
			"status":           string(item.Status),
			"branch_id":        item.BranchID,
			"write_off_reason": item.WriteOffReason,
			"version":          item.Version,
			"updated_at":       item.UpdatedAt,
		})
	if result.Error != nil {
		return translateError(result.Error, "inventory item")
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainErrorf(shared.CodeStaleState,
			"item %s changed since it was read", item.SerialNo)
	}
	return nil
}

// CountByStatus returns item counts per status for a (product, branch) pair
func (r *GormItemRepository) CountByStatus(ctx context.Context, productID, branchID uuid.UUID) (inventory.StatusCounts, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.InventoryItemModel{}).
		Select("status, count(*) AS count").
		Where("product_id = ? AND branch_id = ?", productID, branchID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, translateError(err, "inventory items")
	}
	counts := make(inventory.StatusCounts, len(rows))
	for _, row := range rows {
		counts[inventory.ItemStatus(row.Status)] = row.Count
	}
	return counts, nil
}

func itemsToDomain(rows []models.InventoryItemModel) []*inventory.Item {
	items := make([]*inventory.Item, len(rows))
	for i := range rows {
		items[i] = rows[i].ToDomain()
	}
	return items
}

// GormStockCounterRepository implements inventory.StockCounterRepository using GORM
type GormStockCounterRepository struct {
	db *gorm.DB
}

// NewGormStockCounterRepository creates a new GormStockCounterRepository
func NewGormStockCounterRepository(db *gorm.DB) *GormStockCounterRepository {
	return &GormStockCounterRepository{db: db}
}

// Find returns the counter of a pair
func (r *GormStockCounterRepository) Find(ctx context.Context, productID, branchID uuid.UUID) (*inventory.StockCounter, error) {
	var model models.StockCounterModel
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND branch_id = ?", productID, branchID).
		First(&model).Error; err != nil {
		return nil, translateError(err, "stock counter")
	}
	return model.ToDomain(), nil
}

// GetOrCreate returns the counter of a pair, inserting an empty one first if needed
func (r *GormStockCounterRepository) GetOrCreate(ctx context.Context, productID, branchID uuid.UUID) (*inventory.StockCounter, error) {
	counter, err := r.Find(ctx, productID, branchID)
	if err == nil || !shared.IsCode(err, shared.CodeNotFound) {
		return counter, err
	}

	fresh := models.StockCounterModelFromDomain(inventory.NewStockCounter(productID, branchID))
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(fresh).Error; err != nil {
		return nil, fmt.Errorf("create stock counter: %w", translateError(err, "stock counter"))
	}
	return r.Find(ctx, productID, branchID)
}

// Save writes the counter if the stored version is counter.Version-1
func (r *GormStockCounterRepository) Save(ctx context.Context, counter *inventory.StockCounter) error {
	result := r.db.WithContext(ctx).
		Model(&models.StockCounterModel{}).
		Where("product_id = ? AND branch_id = ? AND version = ?", counter.ProductID, counter.BranchID, counter.Version-1).
		Updates(map[string]any{
			"held_count": counter.HeldCount,
			"version":    counter.Version,
			"updated_at": counter.UpdatedAt,
		})
	if result.Error != nil {
		return translateError(result.Error, "stock counter")
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError(shared.CodeConcurrencyConflict,
			"stock counter was modified by another transaction")
	}
	return nil
}

var (
	_ inventory.ItemRepository         = (*GormItemRepository)(nil)
	_ inventory.StockCounterRepository = (*GormStockCounterRepository)(nil)
)
