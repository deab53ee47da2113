package service

import (
	"fmt"
	"strings"
	"time"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CategoryRequest struct {
	Name        string `json:"name" form:"name" validate:"notblank,max=100"`
	Description string `json:"description" form:"description"`
}

type SupplierRequest struct {
	Name    string `json:"name" form:"name" validate:"notblank,max=100"`
	Contact string `json:"contact" form:"contact" validate:"max=100"`
	Email   string `json:"email" form:"email" validate:"omitempty,email,max=100"`
	Phone   string `json:"phone" form:"phone" validate:"max=20"`
}

type WarehouseRequest struct {
	Name     string `json:"name" form:"name" validate:"notblank,max=100"`
	Location string `json:"location" form:"location" validate:"max=200"`
}

// CreateProductRequest carries ids as strings so a malformed id surfaces as
// ErrInvalidReference instead of a decoding failure. There is no quantity
// field: stock only enters through the ledger.
type CreateProductRequest struct {
	SKU         string           `json:"sku" validate:"notblank,max=50"`
	Barcode     *string          `json:"barcode" validate:"omitempty,max=100"`
	Name        string           `json:"name" validate:"notblank,max=200"`
	Description string           `json:"description"`
	MinStock    *int             `json:"min_stock" validate:"omitempty,gte=0"`
	Price       *decimal.Decimal `json:"price"`
	CategoryID  *string          `json:"category_id"`
	SupplierID  *string          `json:"supplier_id"`
	WarehouseID *string          `json:"warehouse_id"`
	BatchNumber *string          `json:"batch_number" validate:"omitempty,max=100"`
	ExpiryDate  *string          `json:"expiry_date" validate:"omitempty,datetime=2006-01-02"`
}

// UpdateProductRequest is a partial update: nil leaves a field unchanged and an
// empty string clears an optional field or link.
type UpdateProductRequest struct {
	Barcode     *string          `json:"barcode" validate:"omitempty,max=100"`
	Name        *string          `json:"name" validate:"omitnil,notblank,max=200"`
	Description *string          `json:"description"`
	MinStock    *int             `json:"min_stock" validate:"omitempty,gte=0"`
	Price       *decimal.Decimal `json:"price"`
	CategoryID  *string          `json:"category_id"`
	SupplierID  *string          `json:"supplier_id"`
	WarehouseID *string          `json:"warehouse_id"`
	BatchNumber *string          `json:"batch_number" validate:"omitempty,max=100"`
	ExpiryDate  *string          `json:"expiry_date"`
}

type ProductFilterRequest struct {
	CategoryID  string `query:"category_id"`
	SupplierID  string `query:"supplier_id"`
	WarehouseID string `query:"warehouse_id"`
}

// MaxStockQuantity bounds both a single movement and a product's stock, so
// quantities and replayed sums stay far from integer overflow.
const MaxStockQuantity = 1_000_000_000

type MovementRequest struct {
	ProductID string `json:"product_id" form:"product_id" validate:"required"`
	Type      string `json:"type" form:"type" validate:"required,oneof=IN OUT"`
	Quantity  int    `json:"quantity" form:"quantity" validate:"gt=0,lte=1000000000"`
	Notes     string `json:"notes" form:"notes" validate:"max=1000"`
}

// validationError turns validator output into one of the service error kinds.
// Quantity and reference fields get their own kinds so they are never
// confused with invariant violations.
func validationError(errs []*validator.ErrorResponse) error {
	if len(errs) == 0 {
		return nil
	}
	first := errs[0]
	switch first.Field {
	case "Quantity":
		return fmt.Errorf("%w: failed on '%s'", ErrInvalidQuantity, first.Tag)
	case "Type":
		return ErrInvalidMovementType
	case "ProductID", "CategoryID", "SupplierID", "WarehouseID":
		return fmt.Errorf("%w: %s is required", ErrInvalidReference, strings.ToLower(first.Field))
	}
	return fmt.Errorf("%w: field '%s' failed on tag '%s'", ErrValidation, first.FailedField, first.Tag)
}

func validateRequest(req interface{}) error {
	return validationError(validator.ValidateStruct(req))
}

// parseRef parses an optional id. A nil or blank value means "no link".
func parseRef(field string, raw *string) (*uuid.UUID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	id, err := uuid.Parse(strings.TrimSpace(*raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %s %q is not a valid id", ErrInvalidReference, field, *raw)
	}
	return &id, nil
}

// ParseID parses a path or form id; failures are ErrInvalidReference.
func ParseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q is not a valid id", ErrInvalidReference, raw)
	}
	return id, nil
}

func (f ProductFilterRequest) parse() (filter repository.ProductFilter, err error) {
	if filter.CategoryID, err = parseRef("category_id", &f.CategoryID); err != nil {
		return
	}
	if filter.SupplierID, err = parseRef("supplier_id", &f.SupplierID); err != nil {
		return
	}
	filter.WarehouseID, err = parseRef("warehouse_id", &f.WarehouseID)
	return
}

// optionalString trims s and maps blank to nil.
func optionalString(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func parseExpiry(raw *string) (*time.Time, error) {
	v := optionalString(raw)
	if v == nil {
		return nil, nil
	}
	t, err := time.ParseInLocation("2006-01-02", *v, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%w: expiry_date must be YYYY-MM-DD", ErrValidation)
	}
	return &t, nil
}

func checkPrice(price *decimal.Decimal) error {
	if price != nil && price.IsNegative() {
		return fmt.Errorf("%w: price must be >= 0", ErrValidation)
	}
	return nil
}

func normalizeMovementType(t string) model.TransactionType {
	return model.TransactionType(strings.ToUpper(strings.TrimSpace(t)))
}
