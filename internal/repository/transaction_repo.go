package repository

import (
	"context"
	"time"

	"go-inventory-ledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransactionRepository is append-only: there is no update or delete.
type TransactionRepository interface {
	WithTx(tx *gorm.DB) TransactionRepository
	Append(ctx context.Context, entry *model.Transaction) error
	FindByID(ctx context.Context, id uint64) (*model.Transaction, error)
	FindRecent(ctx context.Context, limit int) ([]model.Transaction, error)
	FindByProduct(ctx context.Context, productID uuid.UUID, limit int) ([]model.Transaction, error)
	// FindLog returns a product's full history in commit order.
	FindLog(ctx context.Context, productID uuid.UUID) ([]model.Transaction, error)
	FindBetween(ctx context.Context, startDate, endDate time.Time) ([]model.Transaction, error)
}

type transactionRepo struct {
	db *gorm.DB
}

func NewTransactionRepo(db *gorm.DB) TransactionRepository {
	return &transactionRepo{db}
}

func (r *transactionRepo) WithTx(tx *gorm.DB) TransactionRepository {
	return &transactionRepo{tx}
}

func (r *transactionRepo) Append(ctx context.Context, entry *model.Transaction) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *transactionRepo) FindByID(ctx context.Context, id uint64) (*model.Transaction, error) {
	var entry model.Transaction
	if err := r.db.WithContext(ctx).First(&entry, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *transactionRepo) FindRecent(ctx context.Context, limit int) ([]model.Transaction, error) {
	var entries []model.Transaction
	err := r.db.WithContext(ctx).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

func (r *transactionRepo) FindByProduct(ctx context.Context, productID uuid.UUID, limit int) ([]model.Transaction, error) {
	var entries []model.Transaction
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

func (r *transactionRepo) FindLog(ctx context.Context, productID uuid.UUID) ([]model.Transaction, error) {
	var entries []model.Transaction
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("id ASC").
		Find(&entries).Error
	return entries, err
}

func (r *transactionRepo) FindBetween(ctx context.Context, startDate, endDate time.Time) ([]model.Transaction, error) {
	var entries []model.Transaction
	err := r.db.WithContext(ctx).
		Where("created_at BETWEEN ? AND ?", startDate, endDate).
		Order("created_at ASC").Order("id ASC").
		Find(&entries).Error
	return entries, err
}
