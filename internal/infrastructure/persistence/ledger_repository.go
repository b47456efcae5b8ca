package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/retailcore/internal/domain/ledger"
	"github.com/erp/retailcore/internal/domain/shared"
	"github.com/erp/retailcore/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormAccountRepository implements ledger.AccountRepository using GORM
type GormAccountRepository struct {
	db *gorm.DB
}

// NewGormAccountRepository creates a new GormAccountRepository
func NewGormAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{db: db}
}

// FindByOwner finds the account of an owner
func (r *GormAccountRepository) FindByOwner(ctx context.Context, kind ledger.OwnerKind, ownerID uuid.UUID) (*ledger.Account, error) {
	var model models.LedgerAccountModel
	if err := r.db.WithContext(ctx).
		Where("owner_kind = ? AND owner_id = ?", string(kind), ownerID).
		First(&model).Error; err != nil {
		return nil, translateError(err, "ledger account")
	}
	return model.ToDomain(), nil
}

// FindByID finds an account by its ID
func (r *GormAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Account, error) {
	var model models.LedgerAccountModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "ledger account")
	}
	return model.ToDomain(), nil
}

// Create inserts a new account
func (r *GormAccountRepository) Create(ctx context.Context, account *ledger.Account) error {
	if err := r.db.WithContext(ctx).Create(models.LedgerAccountModelFromDomain(account)).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.NewDomainErrorf(shared.CodeAlreadyExists,
				"%s ledger for owner %s already exists", account.OwnerKind, account.OwnerID)
		}
		return fmt.Errorf("create ledger account: %w", translateError(err, "ledger account"))
	}
	return nil
}

// SaveWithLock writes balance and sequence with optimistic locking
func (r *GormAccountRepository) SaveWithLock(ctx context.Context, account *ledger.Account) error {
	result := r.db.WithContext(ctx).
		Model(&models.LedgerAccountModel{}).
		Where("id = ? AND version = ?", account.ID, account.Version-1).
		Updates(map[string]any{
			"balance":     account.Balance,
			"entry_count": account.EntryCount,
			"version":     account.Version,
			"updated_at":  account.UpdatedAt,
		})
	if result.Error != nil {
		return translateError(result.Error, "ledger account")
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainErrorf(shared.CodeConcurrencyConflict,
			"ledger account %s was modified by another transaction", account.ID)
	}
	return nil
}

// List returns accounts of a kind
func (r *GormAccountRepository) List(ctx context.Context, kind ledger.OwnerKind, filter shared.Filter) ([]*ledger.Account, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.LedgerAccountModel{}).Where("owner_kind = ?", string(kind))

	query = query.Session(&gorm.Session{})
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "ledger accounts")
	}
	var rows []models.LedgerAccountModel
	if err := applyPaging(query, filter, AccountSortFields, "created_at").Find(&rows).Error; err != nil {
		return nil, 0, translateError(err, "ledger accounts")
	}
	accounts := make([]*ledger.Account, len(rows))
	for i := range rows {
		accounts[i] = rows[i].ToDomain()
	}
	return accounts, total, nil
}

// GormEntryRepository implements ledger.EntryRepository using GORM.
// Entries are inserted and read, never updated or deleted.
type GormEntryRepository struct {
	db *gorm.DB
}

// NewGormEntryRepository creates a new GormEntryRepository
func NewGormEntryRepository(db *gorm.DB) *GormEntryRepository {
	return &GormEntryRepository{db: db}
}

// Append inserts an entry
func (r *GormEntryRepository) Append(ctx context.Context, entry *ledger.Entry) error {
	if err := r.db.WithContext(ctx).Create(models.LedgerEntryModelFromDomain(entry)).Error; err != nil {
		if isUniqueViolation(err) {
			if entry.ReversalOf != nil {
				return shared.NewDomainErrorf(shared.CodeInvalidState, "entry %s is already reversed", *entry.ReversalOf)
			}
			return shared.NewDomainErrorf(shared.CodeConcurrencyConflict,
				"sequence %d of account %s is already taken", entry.Sequence, entry.AccountID)
		}
		return fmt.Errorf("append ledger entry: %w", translateError(err, "ledger entry"))
	}
	return nil
}

// FindByID finds an entry by its ID
func (r *GormEntryRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Entry, error) {
	var model models.LedgerEntryModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "ledger entry")
	}
	return model.ToDomain(), nil
}

// FindReversalOf finds the entry that reverses id
func (r *GormEntryRepository) FindReversalOf(ctx context.Context, id uuid.UUID) (*ledger.Entry, error) {
	var model models.LedgerEntryModel
	if err := r.db.WithContext(ctx).First(&model, "reversal_of = ?", id).Error; err != nil {
		return nil, translateError(err, "reversal entry")
	}
	return model.ToDomain(), nil
}

// FindByAccount returns entries of an account in sequence order
func (r *GormEntryRepository) FindByAccount(ctx context.Context, accountID uuid.UUID, window shared.TimeRange, filter shared.Filter) ([]*ledger.Entry, int64, error) {
	query := applyWindow(
		r.db.WithContext(ctx).Model(&models.LedgerEntryModel{}).Where("account_id = ?", accountID),
		"created_at", window,
	)

	query = query.Session(&gorm.Session{})
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "ledger entries")
	}

	f := filter.Normalize()
	var rows []models.LedgerEntryModel
	if err := query.Order("sequence ASC").Offset(f.Offset()).Limit(f.PageSize).Find(&rows).Error; err != nil {
		return nil, 0, translateError(err, "ledger entries")
	}
	return entriesToDomain(rows), total, nil
}

// FindByReference returns every entry carrying referenceID
func (r *GormEntryRepository) FindByReference(ctx context.Context, referenceID string) ([]*ledger.Entry, error) {
	var rows []models.LedgerEntryModel
	if err := r.db.WithContext(ctx).
		Where("reference_id = ?", referenceID).
		Order("created_at ASC, sequence ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err, "ledger entries")
	}
	return entriesToDomain(rows), nil
}

// Totals sums debits and credits of an account within window
func (r *GormEntryRepository) Totals(ctx context.Context, accountID uuid.UUID, window shared.TimeRange) (ledger.Totals, error) {
	var row struct {
		TotalDebit  decimal.Decimal
		TotalCredit decimal.Decimal
		EntryCount  int64
	}
	err := applyWindow(
		r.db.WithContext(ctx).Model(&models.LedgerEntryModel{}).Where("account_id = ?", accountID),
		"created_at", window,
	).
		Select("COALESCE(SUM(debit), 0) AS total_debit, COALESCE(SUM(credit), 0) AS total_credit, COUNT(*) AS entry_count").
		Scan(&row).Error
	if err != nil {
		return ledger.Totals{}, translateError(err, "ledger entries")
	}
	return ledger.Totals{
		TotalDebit:  row.TotalDebit.Round(2),
		TotalCredit: row.TotalCredit.Round(2),
		EntryCount:  row.EntryCount,
	}, nil
}

// BalanceBefore returns the running balance of the newest entry created before t
func (r *GormEntryRepository) BalanceBefore(ctx context.Context, accountID uuid.UUID, t time.Time) (decimal.Decimal, error) {
	var model models.LedgerEntryModel
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND created_at < ?", accountID, t.UTC()).
		Order("sequence DESC").
		First(&model).Error
	if err != nil {
		if shared.IsCode(translateError(err, "ledger entry"), shared.CodeNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, translateError(err, "ledger entry")
	}
	return model.RunningBalance, nil
}

// NetByKind returns Σ(credit - debit) across every account of a kind in window
func (r *GormEntryRepository) NetByKind(ctx context.Context, kind ledger.OwnerKind, window shared.TimeRange) (decimal.Decimal, error) {
	var row struct {
		Net decimal.Decimal
	}
	err := applyWindow(
		r.db.WithContext(ctx).Model(&models.LedgerEntryModel{}).Where("owner_kind = ?", string(kind)),
		"created_at", window,
	).
		Select("COALESCE(SUM(credit), 0) - COALESCE(SUM(debit), 0) AS net").
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, translateError(err, "ledger entries")
	}
	return row.Net.Round(2), nil
}

func applyWindow(query *gorm.DB, column string, window shared.TimeRange) *gorm.DB {
	if window.From != nil {
		query = query.Where(column+" >= ?", window.From.UTC())
	}
	if window.To != nil {
		query = query.Where(column+" < ?", window.To.UTC())
	}
	return query
}

func entriesToDomain(rows []models.LedgerEntryModel) []*ledger.Entry {
	entries := make([]*ledger.Entry, len(rows))
	for i := range rows {
		entries[i] = rows[i].ToDomain()
	}
	return entries
}

var (
	_ ledger.AccountRepository = (*GormAccountRepository)(nil)
	_ ledger.EntryRepository   = (*GormEntryRepository)(nil)
)
