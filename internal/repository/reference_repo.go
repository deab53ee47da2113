package repository

import (
	"context"
	"time"

	"go-inventory-ledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Reference is the set of catalog entities products may link to.
type Reference interface {
	model.Category | model.Supplier | model.Warehouse
}

// ReferenceRepository stores one kind of catalog reference entity.
type ReferenceRepository[T Reference] interface {
	WithTx(tx *gorm.DB) ReferenceRepository[T]
	Create(ctx context.Context, entity *T) error
	FindAll(ctx context.Context) ([]T, error)
	FindByID(ctx context.Context, id uuid.UUID) (*T, error)
	// LockShared reads the row FOR SHARE: products linking to it are being
	// written, so a concurrent delete must wait.
	LockShared(ctx context.Context, id uuid.UUID) (*T, error)
	// LockExclusive reads the row FOR UPDATE ahead of a delete.
	LockExclusive(ctx context.Context, id uuid.UUID) (*T, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	SoftDelete(ctx context.Context, id uuid.UUID, deletedBy string) error
	Count(ctx context.Context) (int64, error)
	// ProductRefs counts active products linking to id through column.
	ProductRefs(ctx context.Context, id uuid.UUID) (int64, error)
}

type referenceRepo[T Reference] struct {
	db        *gorm.DB
	refColumn string
}

func NewCategoryRepo(db *gorm.DB) ReferenceRepository[model.Category] {
	return &referenceRepo[model.Category]{db: db, refColumn: "category_id"}
}

func NewSupplierRepo(db *gorm.DB) ReferenceRepository[model.Supplier] {
	return &referenceRepo[model.Supplier]{db: db, refColumn: "supplier_id"}
}

func NewWarehouseRepo(db *gorm.DB) ReferenceRepository[model.Warehouse] {
	return &referenceRepo[model.Warehouse]{db: db, refColumn: "warehouse_id"}
}

func (r *referenceRepo[T]) WithTx(tx *gorm.DB) ReferenceRepository[T] {
	return &referenceRepo[T]{db: tx, refColumn: r.refColumn}
}

func (r *referenceRepo[T]) Create(ctx context.Context, entity *T) error {
	return r.db.WithContext(ctx).Create(entity).Error
}

func (r *referenceRepo[T]) FindAll(ctx context.Context) ([]T, error) {
	var entities []T
	err := r.db.WithContext(ctx).Order("name ASC").Find(&entities).Error
	return entities, err
}

func (r *referenceRepo[T]) FindByID(ctx context.Context, id uuid.UUID) (*T, error) {
	var entity T
	if err := r.db.WithContext(ctx).First(&entity, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &entity, nil
}

func (r *referenceRepo[T]) LockShared(ctx context.Context, id uuid.UUID) (*T, error) {
	return r.lock(ctx, id, "SHARE")
}

func (r *referenceRepo[T]) LockExclusive(ctx context.Context, id uuid.UUID) (*T, error) {
	return r.lock(ctx, id, "UPDATE")
}

func (r *referenceRepo[T]) lock(ctx context.Context, id uuid.UUID, strength string) (*T, error) {
	var entity T
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: strength}).
		First(&entity, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

func (r *referenceRepo[T]) Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *referenceRepo[T]) SoftDelete(ctx context.Context, id uuid.UUID, deletedBy string) error {
	res := r.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Updates(map[string]interface{}{
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

func (r *referenceRepo[T]) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(new(T)).Count(&n).Error
	return n, err
}

func (r *referenceRepo[T]) ProductRefs(ctx context.Context, id uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).
		Where(r.refColumn+" = ?", id).
		Count(&n).Error
	return n, err
}
