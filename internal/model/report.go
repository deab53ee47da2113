package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UnassignedBucket labels products with no linked category/supplier/warehouse.
const UnassignedBucket = "Unassigned"

// GroupTotal is one bucket of a grouping aggregate. ID is nil for the
// unassigned bucket.
type GroupTotal struct {
	ID       *uuid.UUID      `json:"id"`
	Name     string          `json:"name"`
	Products int             `json:"products"`
	Quantity int             `json:"quantity"`
	Value    decimal.Decimal `json:"value"`
}

// InventoryRow is a product with its links resolved to names, the source of
// report tables and the spreadsheet export.
type InventoryRow struct {
	ID         uuid.UUID       `json:"id"`
	SKU        string          `json:"sku"`
	Barcode    string          `json:"barcode"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	MinStock   int             `json:"min_stock"`
	Price      decimal.Decimal `json:"price"`
	TotalValue decimal.Decimal `json:"total_value"`
	Category   string          `json:"category"`
	Supplier   string          `json:"supplier"`
	Warehouse  string          `json:"warehouse"`
	LowStock   bool            `json:"low_stock"`
}

// StockMovementData is the per-day IN/OUT rollup used by charts.
type StockMovementData struct {
	Date     string `json:"date"`
	Inbound  int    `json:"inbound"`
	Outbound int    `json:"outbound"`
}

// DashboardStats is the overview read in one snapshot.
type DashboardStats struct {
	TotalProducts  int64           `json:"total_products"`
	LowStockCount  int64           `json:"low_stock_count"`
	TotalValuation decimal.Decimal `json:"total_valuation"`
	Categories     int64           `json:"categories"`
	Suppliers      int64           `json:"suppliers"`
	Warehouses     int64           `json:"warehouses"`
}

// Reconciliation compares a product's stored quantity with a replay of its log.
type Reconciliation struct {
	ProductID    uuid.UUID `json:"product_id"`
	SKU          string    `json:"sku"`
	Stored       int       `json:"stored"`
	Replayed     int       `json:"replayed"`
	Transactions int       `json:"transactions"`
	NegativeSeen bool      `json:"negative_seen"`
}

// Consistent reports whether the replay matches and never went negative.
func (r Reconciliation) Consistent() bool {
	return r.Stored == r.Replayed && !r.NegativeSeen
}
