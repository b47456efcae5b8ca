package persistence

import (
	"context"
	"fmt"

	"github.com/erp/retailcore/internal/domain/shared"
	"github.com/erp/retailcore/internal/domain/transfer"
	"github.com/erp/retailcore/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTransferRepository implements transfer.Repository using GORM
type GormTransferRepository struct {
	db *gorm.DB
}

// NewGormTransferRepository creates a new GormTransferRepository
func NewGormTransferRepository(db *gorm.DB) *GormTransferRepository {
	return &GormTransferRepository{db: db}
}

func preloadLines(db *gorm.DB) *gorm.DB {
	return db.Preload("Lines", func(db *gorm.DB) *gorm.DB {
		return db.Order("line_no ASC")
	})
}

// FindByID finds a transfer with its lines
func (r *GormTransferRepository) FindByID(ctx context.Context, id uuid.UUID) (*transfer.Transfer, error) {
	var model models.TransferModel
	if err := preloadLines(r.db.WithContext(ctx)).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "transfer")
	}
	return model.ToDomain(), nil
}

// FindByNo finds a transfer by its transfer number
func (r *GormTransferRepository) FindByNo(ctx context.Context, transferNo string) (*transfer.Transfer, error) {
	var model models.TransferModel
	if err := preloadLines(r.db.WithContext(ctx)).First(&model, "transfer_no = ?", transferNo).Error; err != nil {
		return nil, translateError(err, "transfer")
	}
	return model.ToDomain(), nil
}

// InTransitTransferNo returns the number of the IN_TRANSIT transfer carrying itemID
func (r *GormTransferRepository) InTransitTransferNo(ctx context.Context, itemID uuid.UUID) (string, error) {
	var numbers []string
	err := r.db.WithContext(ctx).Model(&models.TransferModel{}).
		Joins("JOIN transfer_lines ON transfer_lines.transfer_id = transfers.id").
		Where("transfer_lines.item_id = ? AND transfers.status = ?", itemID, string(transfer.StatusInTransit)).
		Limit(1).
		Pluck("transfers.transfer_no", &numbers).Error
	if err != nil {
		return "", translateError(err, "transfer")
	}
	if len(numbers) == 0 {
		return "", nil
	}
	return numbers[0], nil
}

// FindAll returns a page of transfers matching filter and the total count
func (r *GormTransferRepository) FindAll(ctx context.Context, filter transfer.Filter) ([]*transfer.Transfer, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.TransferModel{})
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.FromBranchID != nil {
		query = query.Where("from_branch_id = ?", *filter.FromBranchID)
	}
	if filter.ToBranchID != nil {
		query = query.Where("to_branch_id = ?", *filter.ToBranchID)
	}
	if filter.BranchID != nil {
		query = query.Where("from_branch_id = ? OR to_branch_id = ?", *filter.BranchID, *filter.BranchID)
	}
	query = applyWindow(query, "created_at", shared.TimeRange{From: filter.CreatedFrom, To: filter.CreatedTo})

	query = query.Session(&gorm.Session{})
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "transfers")
	}

	var rows []models.TransferModel
	if err := applyPaging(preloadLines(query), filter.Filter, TransferSortFields, "created_at").Find(&rows).Error; err != nil {
		return nil, 0, translateError(err, "transfers")
	}
	transfers := make([]*transfer.Transfer, len(rows))
	for i := range rows {
		transfers[i] = rows[i].ToDomain()
	}
	return transfers, total, nil
}

// Create inserts the transfer, its lines and its first history row
func (r *GormTransferRepository) Create(ctx context.Context, t *transfer.Transfer) error {
	db := r.db.WithContext(ctx)
	model := &models.TransferModel{}
	model.FromDomain(t)
	if err := db.Omit(clause.Associations).Create(model).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.NewDomainErrorf(shared.CodeAlreadyExists, "transfer %s already exists", t.TransferNo)
		}
		return fmt.Errorf("create transfer: %w", translateError(err, "transfer"))
	}
	lines := models.TransferLineModelsFromDomain(t)
	if len(lines) > 0 {
		if err := db.Create(&lines).Error; err != nil {
			return fmt.Errorf("create transfer lines: %w", translateError(err, "transfer line"))
		}
	}
	return r.appendHistory(ctx, t)
}

// SaveWithLock updates the transfer with optimistic locking and appends its
// pending history rows
func (r *GormTransferRepository) SaveWithLock(ctx context.Context, t *transfer.Transfer) error {
	model := &models.TransferModel{}
	model.FromDomain(t)

	result := r.db.WithContext(ctx).
		Model(&models.TransferModel{}).
		Where("id = ? AND version = ?", t.ID, t.Version-1).
		Updates(map[string]any{
			"status":           model.Status,
			"rejection_reason": model.RejectionReason,
			"cancel_reason":    model.CancelReason,
			"approved_by":      model.ApprovedBy,
			"rejected_by":      model.RejectedBy,
			"dispatched_by":    model.DispatchedBy,
			"completed_by":     model.CompletedBy,
			"cancelled_by":     model.CancelledBy,
			"approved_at":      model.ApprovedAt,
			"rejected_at":      model.RejectedAt,
			"dispatched_at":    model.DispatchedAt,
			"completed_at":     model.CompletedAt,
			"cancelled_at":     model.CancelledAt,
			"profit":           model.Profit,
			"pool_share":       model.PoolShare,
			"master_share":     model.MasterShare,
			"version":          model.Version,
			"updated_at":       model.UpdatedAt,
		})
	if result.Error != nil {
		return translateError(result.Error, "transfer")
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainErrorf(shared.CodeStaleState,
			"transfer %s was modified by another transaction", t.TransferNo)
	}
	return r.appendHistory(ctx, t)
}

// History returns the transition history oldest first
func (r *GormTransferRepository) History(ctx context.Context, id uuid.UUID) ([]transfer.Transition, error) {
	var rows []models.TransferTransitionModel
	if err := r.db.WithContext(ctx).
		Where("transfer_id = ?", id).
		Order("occurred_at ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err, "transfer history")
	}
	history := make([]transfer.Transition, len(rows))
	for i := range rows {
		history[i] = rows[i].ToDomain()
	}
	return history, nil
}

func (r *GormTransferRepository) appendHistory(ctx context.Context, t *transfer.Transfer) error {
	pending := t.PendingTransitions()
	if len(pending) == 0 {
		return nil
	}
	rows := make([]*models.TransferTransitionModel, len(pending))
	for i, tr := range pending {
		rows[i] = models.TransferTransitionModelFromDomain(tr)
	}
	if err := r.db.WithContext(ctx).Create(rows).Error; err != nil {
		return fmt.Errorf("append transfer history: %w", translateError(err, "transfer history"))
	}
	t.ClearPendingTransitions()
	return nil
}

var _ transfer.Repository = (*GormTransferRepository)(nil)
