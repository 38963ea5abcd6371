package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/kestrel-systems/fleetcore/internal/domain/ledger"
)

// GormTransactionRepository implements ledger.TransactionRepository over
// the fleet's single-agent transaction log. Adapted from the teacher's
// GormTransactionRepository, which scoped every query by playerID; this
// core runs one agent per process (spec.md §3), so that scoping is
// dropped and every query runs over the whole table.
type GormTransactionRepository struct {
	db *gorm.DB
}

func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

func (r *GormTransactionRepository) Create(ctx context.Context, tx *ledger.Transaction) error {
	model := transactionToRecord(tx)
	if result := r.db.WithContext(ctx).Create(model); result.Error != nil {
		return fmt.Errorf("create transaction: %w", result.Error)
	}
	return nil
}

func (r *GormTransactionRepository) FindByID(ctx context.Context, id ledger.TransactionID) (*ledger.Transaction, error) {
	var record TransactionRecord
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&record)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, &ledger.ErrTransactionNotFound{ID: id.String()}
		}
		return nil, fmt.Errorf("find transaction: %w", result.Error)
	}
	return recordToTransaction(&record)
}

func (r *GormTransactionRepository) Find(ctx context.Context, opts ledger.QueryOptions) ([]*ledger.Transaction, error) {
	query := r.applyFilters(r.db.WithContext(ctx), opts)

	orderBy := "timestamp DESC"
	if opts.OrderBy != "" {
		orderBy = opts.OrderBy
	}
	query = query.Order(orderBy)

	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		query = query.Offset(opts.Offset)
	}

	var records []TransactionRecord
	if result := query.Find(&records); result.Error != nil {
		return nil, fmt.Errorf("find transactions: %w", result.Error)
	}

	transactions := make([]*ledger.Transaction, len(records))
	for i, record := range records {
		tx, err := recordToTransaction(&record)
		if err != nil {
			return nil, fmt.Errorf("decode transaction record: %w", err)
		}
		transactions[i] = tx
	}
	return transactions, nil
}

func (r *GormTransactionRepository) Count(ctx context.Context, opts ledger.QueryOptions) (int, error) {
	query := r.applyFilters(r.db.WithContext(ctx).Model(&TransactionRecord{}), opts)
	var count int64
	if result := query.Count(&count); result.Error != nil {
		return 0, fmt.Errorf("count transactions: %w", result.Error)
	}
	return int(count), nil
}

func (r *GormTransactionRepository) applyFilters(query *gorm.DB, opts ledger.QueryOptions) *gorm.DB {
	if opts.StartDate != nil {
		query = query.Where("timestamp >= ?", *opts.StartDate)
	}
	if opts.EndDate != nil {
		query = query.Where("timestamp <= ?", *opts.EndDate)
	}
	if opts.Category != nil {
		query = query.Where("category = ?", opts.Category.String())
	}
	if opts.TransactionType != nil {
		query = query.Where("transaction_type = ?", opts.TransactionType.String())
	}
	if opts.RelatedEntityType != nil {
		query = query.Where("related_entity_type = ?", *opts.RelatedEntityType)
	}
	if opts.RelatedEntityID != nil {
		query = query.Where("related_entity_id = ?", *opts.RelatedEntityID)
	}
	return query
}

func recordToTransaction(record *TransactionRecord) (*ledger.Transaction, error) {
	id, err := ledger.NewTransactionIDFromString(record.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid transaction id in database: %w", err)
	}
	transactionType, err := ledger.ParseTransactionType(record.TransactionType)
	if err != nil {
		return nil, fmt.Errorf("invalid transaction type in database: %w", err)
	}
	category, err := ledger.ParseCategory(record.Category)
	if err != nil {
		return nil, fmt.Errorf("invalid category in database: %w", err)
	}
	return ledger.ReconstructTransaction(
		id,
		record.Timestamp,
		transactionType,
		category,
		record.Amount,
		record.BalanceBefore,
		record.BalanceAfter,
		record.Description,
		nil,
		record.RelatedEntityType,
		record.RelatedEntityID,
		record.OperationType,
	), nil
}

func transactionToRecord(tx *ledger.Transaction) *TransactionRecord {
	return &TransactionRecord{
		ID:                tx.ID().String(),
		Timestamp:         tx.Timestamp(),
		TransactionType:   tx.TransactionType().String(),
		Category:          tx.Category().String(),
		Amount:            tx.Amount(),
		BalanceBefore:     tx.BalanceBefore(),
		BalanceAfter:      tx.BalanceAfter(),
		Description:       tx.Description(),
		RelatedEntityType: tx.RelatedEntityType(),
		RelatedEntityID:   tx.RelatedEntityID(),
		OperationType:     tx.OperationType(),
	}
}
