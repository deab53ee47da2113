package repository

import (
	"context"
	"errors"
	"time"

	"go-inventory-ledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrStockConflict means a guarded quantity update matched no row: the product
// vanished or the change would have taken stock below zero.
var ErrStockConflict = errors.New("stock update rejected by guard")

// ProductFilter narrows FindAll; nil fields are ignored and the rest are ANDed.
type ProductFilter struct {
	CategoryID  *uuid.UUID
	SupplierID  *uuid.UUID
	WarehouseID *uuid.UUID
}

type ProductRepository interface {
	WithTx(tx *gorm.DB) ProductRepository
	Create(ctx context.Context, product *model.Product) error
	FindAll(ctx context.Context, filter ProductFilter) ([]model.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	// FindByIDWithArchived also returns archived products, whose history is kept.
	FindByIDWithArchived(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindBySKU(ctx context.Context, sku string) (*model.Product, error)
	// SKUTaken and BarcodeTaken include archived products: their keys stay reserved.
	SKUTaken(ctx context.Context, sku string, exclude *uuid.UUID) (bool, error)
	BarcodeTaken(ctx context.Context, barcode string, exclude *uuid.UUID) (bool, error)
	LockByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	UpdateDetails(ctx context.Context, product *model.Product) error
	// ApplyDelta is the only write path for quantity.
	ApplyDelta(ctx context.Context, id uuid.UUID, delta int, at time.Time, updatedBy string) error
	Archive(ctx context.Context, id uuid.UUID, deletedBy string) error
	FindLowStock(ctx context.Context) ([]model.Product, error)
	Count(ctx context.Context) (int64, error)
	CountLowStock(ctx context.Context) (int64, error)
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) WithTx(tx *gorm.DB) ProductRepository {
	return &productRepo{tx}
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *productRepo) FindAll(ctx context.Context, filter ProductFilter) ([]model.Product, error) {
	q := r.db.WithContext(ctx).Model(&model.Product{})
	if filter.CategoryID != nil {
		q = q.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.SupplierID != nil {
		q = q.Where("supplier_id = ?", *filter.SupplierID)
	}
	if filter.WarehouseID != nil {
		q = q.Where("warehouse_id = ?", *filter.WarehouseID)
	}

	var products []model.Product
	err := q.Order("sku ASC").Find(&products).Error
	return products, err
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) FindByIDWithArchived(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).Unscoped().First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) FindBySKU(ctx context.Context, sku string) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).First(&product, "sku = ?", sku).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) SKUTaken(ctx context.Context, sku string, exclude *uuid.UUID) (bool, error) {
	return r.taken(ctx, "sku", sku, exclude)
}

func (r *productRepo) BarcodeTaken(ctx context.Context, barcode string, exclude *uuid.UUID) (bool, error) {
	return r.taken(ctx, "barcode", barcode, exclude)
}

func (r *productRepo) taken(ctx context.Context, column, value string, exclude *uuid.UUID) (bool, error) {
	q := r.db.WithContext(ctx).Unscoped().Model(&model.Product{}).Where(column+" = ?", value)
	if exclude != nil {
		q = q.Where("id <> ?", *exclude)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// LockByID reads the product with FOR UPDATE (ignored by SQLite, whose
// writers are already serialized).
func (r *productRepo) LockByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&product, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// UpdateDetails writes every catalog field except quantity and the ledger
// bookkeeping columns.
func (r *productRepo) UpdateDetails(ctx context.Context, product *model.Product) error {
	res := r.db.WithContext(ctx).Model(product).
		Select("Barcode", "Name", "Description", "MinStock", "Price",
			"CategoryID", "SupplierID", "WarehouseID", "BatchNumber", "ExpiryDate", "UpdatedBy", "UpdatedAt").
		Updates(product)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *productRepo) ApplyDelta(ctx context.Context, id uuid.UUID, delta int, at time.Time, updatedBy string) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND quantity + ? >= 0", id, delta).
		Updates(map[string]interface{}{
			"quantity":         gorm.Expr("quantity + ?", delta),
			"last_movement_at": at,
			"updated_by":       updatedBy,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return ErrStockConflict
	}
	return nil
}

func (r *productRepo) Archive(ctx context.Context, id uuid.UUID, deletedBy string) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).Updates(map[string]interface{}{
		"deleted_at": time.Now().UTC(),
		"deleted_by": deletedBy,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *productRepo) FindLowStock(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Where("quantity <= min_stock").
		Order("sku ASC").
		Find(&products).Error
	return products, err
}

func (r *productRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).Count(&n).Error
	return n, err
}

func (r *productRepo) CountLowStock(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).Where("quantity <= min_stock").Count(&n).Error
	return n, err
}
