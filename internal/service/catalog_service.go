package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CatalogService interface {
	CreateCategory(ctx context.Context, req *CategoryRequest, actor string) (*model.Category, error)
	CreateSupplier(ctx context.Context, req *SupplierRequest, actor string) (*model.Supplier, error)
	CreateWarehouse(ctx context.Context, req *WarehouseRequest, actor string) (*model.Warehouse, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, req *CategoryRequest, actor string) (*model.Category, error)
	UpdateSupplier(ctx context.Context, id uuid.UUID, req *SupplierRequest, actor string) (*model.Supplier, error)
	UpdateWarehouse(ctx context.Context, id uuid.UUID, req *WarehouseRequest, actor string) (*model.Warehouse, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	ListSuppliers(ctx context.Context) ([]model.Supplier, error)
	ListWarehouses(ctx context.Context) ([]model.Warehouse, error)

	CreateProduct(ctx context.Context, req *CreateProductRequest, actor string) (*model.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, req *UpdateProductRequest, actor string) (*model.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error)
	GetProductBySKU(ctx context.Context, sku string) (*model.Product, error)
	ListProducts(ctx context.Context, filter ProductFilterRequest) ([]model.Product, error)

	// DeleteEntity soft-deletes a reference entity, or archives a product.
	DeleteEntity(ctx context.Context, kind model.EntityKind, id uuid.UUID, actor string) error
	SeedDefaults(ctx context.Context) error
}

type CatalogOptions struct {
	DefaultMinStock int
}

type catalogService struct {
	db            *gorm.DB
	productRepo   repository.ProductRepository
	categoryRepo  repository.ReferenceRepository[model.Category]
	supplierRepo  repository.ReferenceRepository[model.Supplier]
	warehouseRepo repository.ReferenceRepository[model.Warehouse]
	notifier      Notifier
	logger        *zap.Logger
	opts          CatalogOptions
}

func NewCatalogService(
	db *gorm.DB,
	pRepo repository.ProductRepository,
	cRepo repository.ReferenceRepository[model.Category],
	sRepo repository.ReferenceRepository[model.Supplier],
	wRepo repository.ReferenceRepository[model.Warehouse],
	notifier Notifier,
	logger *zap.Logger,
	opts CatalogOptions,
) CatalogService {
	if notifier == nil {
		notifier = NopNotifier
	}
	return &catalogService{
		db:            db,
		productRepo:   pRepo,
		categoryRepo:  cRepo,
		supplierRepo:  sRepo,
		warehouseRepo: wRepo,
		notifier:      notifier,
		logger:        logger,
		opts:          opts,
	}
}

// ---- reference entities ----

func (s *catalogService) CreateCategory(ctx context.Context, req *CategoryRequest, actor string) (*model.Category, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	category := &model.Category{Name: strings.TrimSpace(req.Name), Description: req.Description}
	category.CreatedBy, category.UpdatedBy = actor, actor
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}
	s.logger.Info("Category created", zap.String("id", category.ID.String()), zap.String("name", category.Name))
	return category, nil
}

func (s *catalogService) CreateSupplier(ctx context.Context, req *SupplierRequest, actor string) (*model.Supplier, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	supplier := &model.Supplier{
		Name:    strings.TrimSpace(req.Name),
		Contact: req.Contact,
		Email:   req.Email,
		Phone:   req.Phone,
	}
	supplier.CreatedBy, supplier.UpdatedBy = actor, actor
	if err := s.supplierRepo.Create(ctx, supplier); err != nil {
		return nil, err
	}
	s.logger.Info("Supplier created", zap.String("id", supplier.ID.String()), zap.String("name", supplier.Name))
	return supplier, nil
}

func (s *catalogService) CreateWarehouse(ctx context.Context, req *WarehouseRequest, actor string) (*model.Warehouse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	warehouse := &model.Warehouse{Name: strings.TrimSpace(req.Name), Location: req.Location}
	warehouse.CreatedBy, warehouse.UpdatedBy = actor, actor
	if err := s.warehouseRepo.Create(ctx, warehouse); err != nil {
		return nil, err
	}
	s.logger.Info("Warehouse created", zap.String("id", warehouse.ID.String()), zap.String("name", warehouse.Name))
	return warehouse, nil
}

func (s *catalogService) UpdateCategory(ctx context.Context, id uuid.UUID, req *CategoryRequest, actor string) (*model.Category, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	err := s.categoryRepo.Update(ctx, id, map[string]interface{}{
		"name":        strings.TrimSpace(req.Name),
		"description": req.Description,
		"updated_by":  actor,
	})
	if err != nil {
		return nil, notFoundOr(err, "category", id)
	}
	return s.categoryRepo.FindByID(ctx, id)
}

func (s *catalogService) UpdateSupplier(ctx context.Context, id uuid.UUID, req *SupplierRequest, actor string) (*model.Supplier, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	err := s.supplierRepo.Update(ctx, id, map[string]interface{}{
		"name":       strings.TrimSpace(req.Name),
		"contact":    req.Contact,
		"email":      req.Email,
		"phone":      req.Phone,
		"updated_by": actor,
	})
	if err != nil {
		return nil, notFoundOr(err, "supplier", id)
	}
	return s.supplierRepo.FindByID(ctx, id)
}

func (s *catalogService) UpdateWarehouse(ctx context.Context, id uuid.UUID, req *WarehouseRequest, actor string) (*model.Warehouse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	err := s.warehouseRepo.Update(ctx, id, map[string]interface{}{
		"name":       strings.TrimSpace(req.Name),
		"location":   req.Location,
		"updated_by": actor,
	})
	if err != nil {
		return nil, notFoundOr(err, "warehouse", id)
	}
	return s.warehouseRepo.FindByID(ctx, id)
}

func (s *catalogService) ListCategories(ctx context.Context) ([]model.Category, error) {
	return s.categoryRepo.FindAll(ctx)
}

func (s *catalogService) ListSuppliers(ctx context.Context) ([]model.Supplier, error) {
	return s.supplierRepo.FindAll(ctx)
}

func (s *catalogService) ListWarehouses(ctx context.Context) ([]model.Warehouse, error) {
	return s.warehouseRepo.FindAll(ctx)
}

// ---- products ----

// productLinks are the parsed optional foreign keys of a product request.
type productLinks struct {
	category, supplier, warehouse *uuid.UUID
}

func (s *catalogService) CreateProduct(ctx context.Context, req *CreateProductRequest, actor string) (*model.Product, error) {
	// 1. Shape checks, before any invariant logic
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if err := checkPrice(req.Price); err != nil {
		return nil, err
	}
	var links productLinks
	var err error
	if links.category, err = parseRef("category_id", req.CategoryID); err != nil {
		return nil, err
	}
	if links.supplier, err = parseRef("supplier_id", req.SupplierID); err != nil {
		return nil, err
	}
	if links.warehouse, err = parseRef("warehouse_id", req.WarehouseID); err != nil {
		return nil, err
	}
	expiry, err := parseExpiry(req.ExpiryDate)
	if err != nil {
		return nil, err
	}

	product := &model.Product{
		SKU:         strings.TrimSpace(req.SKU),
		Barcode:     optionalString(req.Barcode),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Quantity:    0,
		MinStock:    s.opts.DefaultMinStock,
		Price:       decimal.Zero,
		CategoryID:  links.category,
		SupplierID:  links.supplier,
		WarehouseID: links.warehouse,
		BatchNumber: optionalString(req.BatchNumber),
		ExpiryDate:  expiry,
	}
	if req.MinStock != nil {
		product.MinStock = *req.MinStock
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	product.CreatedBy, product.UpdatedBy = actor, actor

	// 2. Uniqueness and references, checked and written in one transaction
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkUnique(ctx, tx, product, nil); err != nil {
			return err
		}
		if err := s.checkLinks(ctx, tx, links); err != nil {
			return err
		}
		if err := s.productRepo.WithTx(tx).Create(ctx, product); err != nil {
			if isDuplicate(err) {
				return fmt.Errorf("%w: sku %q or barcode already exists", ErrDuplicateKey, product.SKU)
			}
			return err
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("Product rejected", zap.String("sku", product.SKU), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("sku", product.SKU))
	s.publish(ctx, model.NewStockEvent(model.ActionProductCreated, product, actor,
		fmt.Sprintf("%s created product '%s'", actor, product.Name)))

	return product, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, id uuid.UUID, req *UpdateProductRequest, actor string) (*model.Product, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if err := checkPrice(req.Price); err != nil {
		return nil, err
	}

	var updated *model.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.productRepo.WithTx(tx).LockByID(ctx, id)
		if err != nil {
			return notFoundOr(err, "product", id)
		}

		// Links: nil keeps the current value, blank clears it.
		links := productLinks{existing.CategoryID, existing.SupplierID, existing.WarehouseID}
		changed := productLinks{}
		if req.CategoryID != nil {
			if links.category, err = parseRef("category_id", req.CategoryID); err != nil {
				return err
			}
			changed.category = links.category
		}
		if req.SupplierID != nil {
			if links.supplier, err = parseRef("supplier_id", req.SupplierID); err != nil {
				return err
			}
			changed.supplier = links.supplier
		}
		if req.WarehouseID != nil {
			if links.warehouse, err = parseRef("warehouse_id", req.WarehouseID); err != nil {
				return err
			}
			changed.warehouse = links.warehouse
		}
		if err := s.checkLinks(ctx, tx, changed); err != nil {
			return err
		}
		existing.CategoryID, existing.SupplierID, existing.WarehouseID = links.category, links.supplier, links.warehouse

		if req.Barcode != nil {
			existing.Barcode = optionalString(req.Barcode)
		}
		if req.Name != nil {
			existing.Name = strings.TrimSpace(*req.Name)
		}
		if req.Description != nil {
			existing.Description = *req.Description
		}
		if req.MinStock != nil {
			existing.MinStock = *req.MinStock
		}
		if req.Price != nil {
			existing.Price = *req.Price
		}
		if req.BatchNumber != nil {
			existing.BatchNumber = optionalString(req.BatchNumber)
		}
		if req.ExpiryDate != nil {
			if existing.ExpiryDate, err = parseExpiry(req.ExpiryDate); err != nil {
				return err
			}
		}
		existing.UpdatedBy = actor

		if err := s.checkUnique(ctx, tx, existing, &existing.ID); err != nil {
			return err
		}
		if err := s.productRepo.WithTx(tx).UpdateDetails(ctx, existing); err != nil {
			if isDuplicate(err) {
				return fmt.Errorf("%w: barcode already exists", ErrDuplicateKey)
			}
			return err
		}
		updated = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Product updated", zap.String("product_id", id.String()))
	s.publish(ctx, model.NewStockEvent(model.ActionProductUpdated, updated, actor,
		fmt.Sprintf("%s updated product '%s'", actor, updated.Name)))
	return updated, nil
}

func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "product", id)
	}
	return product, nil
}

func (s *catalogService) GetProductBySKU(ctx context.Context, sku string) (*model.Product, error) {
	product, err := s.productRepo.FindBySKU(ctx, strings.TrimSpace(sku))
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: product with sku %q", ErrNotFound, sku)
		}
		return nil, err
	}
	return product, nil
}

func (s *catalogService) ListProducts(ctx context.Context, req ProductFilterRequest) ([]model.Product, error) {
	filter, err := req.parse()
	if err != nil {
		return nil, err
	}
	return s.productRepo.FindAll(ctx, filter)
}

// checkUnique rejects a SKU or barcode already used by another product,
// archived ones included.
func (s *catalogService) checkUnique(ctx context.Context, tx *gorm.DB, p *model.Product, self *uuid.UUID) error {
	repo := s.productRepo.WithTx(tx)
	if self == nil {
		taken, err := repo.SKUTaken(ctx, p.SKU, nil)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: sku %q already exists", ErrDuplicateKey, p.SKU)
		}
	}
	if p.Barcode != nil {
		taken, err := repo.BarcodeTaken(ctx, *p.Barcode, self)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: barcode %q already exists", ErrDuplicateKey, *p.Barcode)
		}
	}
	return nil
}

// checkLinks share-locks every referenced entity so it cannot be deleted
// before the product row commits.
func (s *catalogService) checkLinks(ctx context.Context, tx *gorm.DB, links productLinks) error {
	if links.category != nil {
		if _, err := s.categoryRepo.WithTx(tx).LockShared(ctx, *links.category); err != nil {
			return referenceOr(err, "category", *links.category)
		}
	}
	if links.supplier != nil {
		if _, err := s.supplierRepo.WithTx(tx).LockShared(ctx, *links.supplier); err != nil {
			return referenceOr(err, "supplier", *links.supplier)
		}
	}
	if links.warehouse != nil {
		if _, err := s.warehouseRepo.WithTx(tx).LockShared(ctx, *links.warehouse); err != nil {
			return referenceOr(err, "warehouse", *links.warehouse)
		}
	}
	return nil
}

// ---- deletion ----

func (s *catalogService) DeleteEntity(ctx context.Context, kind model.EntityKind, id uuid.UUID, actor string) error {
	var err error
	switch kind {
	case model.KindCategory:
		err = deleteReference(ctx, s.db, s.categoryRepo, kind, id, actor)
	case model.KindSupplier:
		err = deleteReference(ctx, s.db, s.supplierRepo, kind, id, actor)
	case model.KindWarehouse:
		err = deleteReference(ctx, s.db, s.warehouseRepo, kind, id, actor)
	case model.KindProduct:
		return s.archiveProduct(ctx, id, actor)
	default:
		return fmt.Errorf("%w: unknown entity kind %q", ErrValidation, kind)
	}
	if err != nil {
		return err
	}
	s.logger.Info("Catalog entity deleted", zap.String("kind", string(kind)), zap.String("id", id.String()))
	return nil
}

// deleteReference locks the entity first so no product can link to it between
// the reference count and the delete.
func deleteReference[T repository.Reference](
	ctx context.Context,
	db *gorm.DB,
	repo repository.ReferenceRepository[T],
	kind model.EntityKind,
	id uuid.UUID,
	actor string,
) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := repo.WithTx(tx)
		if _, err := r.LockExclusive(ctx, id); err != nil {
			return notFoundOr(err, string(kind), id)
		}
		refs, err := r.ProductRefs(ctx, id)
		if err != nil {
			return err
		}
		if refs > 0 {
			return fmt.Errorf("%w: %s %s is used by %d product(s)", ErrReferentialConflict, kind, id, refs)
		}
		return r.SoftDelete(ctx, id, actor)
	})
}

// archiveProduct hides the product but keeps it and its transactions; the
// ledger is never truncated.
func (s *catalogService) archiveProduct(ctx context.Context, id uuid.UUID, actor string) error {
	var archived *model.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.productRepo.WithTx(tx)
		product, err := repo.LockByID(ctx, id)
		if err != nil {
			return notFoundOr(err, "product", id)
		}
		if err := repo.Archive(ctx, id, actor); err != nil {
			return err
		}
		archived = product
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Product archived", zap.String("product_id", id.String()), zap.String("sku", archived.SKU))
	s.publish(ctx, model.NewStockEvent(model.ActionProductArchived, archived, actor,
		fmt.Sprintf("%s archived product '%s'", actor, archived.Name)))
	return nil
}

// SeedDefaults creates the default categories when the catalog has none.
func (s *catalogService) SeedDefaults(ctx context.Context) error {
	n, err := s.categoryRepo.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	for _, c := range model.DefaultCategories {
		category := c
		category.CreatedBy, category.UpdatedBy = "system", "system"
		if err := s.categoryRepo.Create(ctx, &category); err != nil {
			return err
		}
	}
	s.logger.Info("Default categories seeded", zap.Int("count", len(model.DefaultCategories)))
	return nil
}

func (s *catalogService) publish(ctx context.Context, event model.StockEvent) {
	if err := s.notifier.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish stock event", zap.String("action", event.Action), zap.Error(err))
	}
}

func notFoundOr(err error, what string, id uuid.UUID) error {
	if isNotFound(err) {
		return fmt.Errorf("%w: %s %s", ErrNotFound, what, id)
	}
	return err
}

func referenceOr(err error, what string, id uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s %s does not exist", ErrInvalidReference, what, id)
	}
	return err
}
