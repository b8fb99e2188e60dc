package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"walletpay/internal/models/db_models"
	"walletpay/pkg/utils"
)

type TransactionFilter struct {
	Status   string
	Currency string
	Page     int
	PageSize int
}

type TransactionRepository interface {
	Create(ctx context.Context, txn *db_models.Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*db_models.Transaction, error)
	// Update persists txn only if the stored row is still in status expected.
	Update(ctx context.Context, txn *db_models.Transaction, expected db_models.TransactionStatus) error
	List(ctx context.Context, filter TransactionFilter) ([]db_models.Transaction, int64, error)
}

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, txn *db_models.Transaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *transactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*db_models.Transaction, error) {
	var txn db_models.Transaction
	err := r.db.WithContext(ctx).First(&txn, "id = ?", id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &txn, nil
}

func (r *transactionRepository) Update(ctx context.Context, txn *db_models.Transaction, expected db_models.TransactionStatus) error {
	res := r.db.WithContext(ctx).
		Model(txn).
		Where("status = ?", expected).
		Select("*").
		Omit("id", "created_at").
		Updates(txn)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: transaction %s is no longer %s", utils.ErrStaleRecord, txn.ID, expected)
	}
	return nil
}

func (r *transactionRepository) List(ctx context.Context, filter TransactionFilter) ([]db_models.Transaction, int64, error) {
	filtered := func(db *gorm.DB) *gorm.DB {
		if filter.Status != "" {
			db = db.Where("status = ?", filter.Status)
		}
		if filter.Currency != "" {
			db = db.Where("currency = ?", filter.Currency)
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&db_models.Transaction{}).Scopes(filtered).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var txns []db_models.Transaction
	offset := (filter.Page - 1) * filter.PageSize
	err := r.db.WithContext(ctx).
		Scopes(filtered).
		Order("created_at DESC").
		Offset(offset).
		Limit(filter.PageSize).
		Find(&txns).Error
	if err != nil {
		return nil, 0, err
	}

	return txns, total, nil
}
