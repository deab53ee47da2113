package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a stocked item. Quantity is owned by the ledger: it only changes
// when a Transaction commits, never through a catalog update.
type Product struct {
	BaseModel
	SKU         string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"sku"`
	Barcode     *string         `gorm:"type:varchar(100);uniqueIndex" json:"barcode,omitempty"`
	Name        string          `gorm:"type:varchar(200);not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Quantity    int             `gorm:"not null;default:0;check:chk_products_quantity,quantity >= 0" json:"quantity"`
	MinStock    int             `gorm:"not null" json:"min_stock"`
	Price       decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"price"`

	// Explicit foreign keys only; names are resolved through the catalog.
	CategoryID  *uuid.UUID `gorm:"type:uuid;index" json:"category_id,omitempty"`
	SupplierID  *uuid.UUID `gorm:"type:uuid;index" json:"supplier_id,omitempty"`
	WarehouseID *uuid.UUID `gorm:"type:uuid;index" json:"warehouse_id,omitempty"`

	BatchNumber    *string    `gorm:"type:varchar(100)" json:"batch_number,omitempty"`
	ExpiryDate     *time.Time `json:"expiry_date,omitempty"`
	LastMovementAt *time.Time `json:"last_movement_at,omitempty"`
}

// IsLowStock reports whether the product is at or below its threshold.
func (p *Product) IsLowStock() bool {
	return p.Quantity <= p.MinStock
}

// Value is quantity × price.
func (p *Product) Value() decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(int64(p.Quantity)))
}

// LowStockItem is the wire shape of the low-stock endpoint.
type LowStockItem struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	SKU      string    `json:"sku"`
	Quantity int       `json:"quantity"`
	MinStock int       `json:"min_stock"`
}

func (p *Product) ToLowStockItem() LowStockItem {
	return LowStockItem{
		ID:       p.ID,
		Name:     p.Name,
		SKU:      p.SKU,
		Quantity: p.Quantity,
		MinStock: p.MinStock,
	}
}
