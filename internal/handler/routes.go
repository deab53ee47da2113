package handler

import (
	"go-inventory-ledger/internal/app"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Register mounts the REST API on r.
func Register(r fiber.Router, a *app.App, logger *zap.Logger) {
	catalog := NewCatalogHandler(a.Catalog, logger)
	inventory := NewInventoryHandler(a.Catalog, a.Ledger, a.Reports, logger)
	reports := NewReportHandler(a.Reports, a.Ledger, logger)

	r.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Path kept from the first release
	r.Get("/api/low-stock", inventory.GetLowStock)

	api := r.Group("/api/v1")

	// Product Routes
	api.Get("/products", inventory.GetProducts)
	api.Get("/products/sku/:sku", inventory.GetProductBySKU)
	api.Get("/products/:id", inventory.GetProduct)
	api.Get("/products/:id/history", inventory.GetProductHistory)
	api.Post("/products", inventory.CreateProduct)
	api.Put("/products/:id", inventory.UpdateProduct)
	api.Delete("/products/:id", inventory.DeleteProduct)

	// Transaction Routes
	api.Get("/transactions", inventory.GetTransactions)
	api.Get("/transactions/:id", inventory.GetTransaction)
	api.Post("/transactions", inventory.CreateTransaction)
	api.Get("/low-stock", inventory.GetLowStock)

	// Catalog Routes
	api.Get("/categories", catalog.GetCategories)
	api.Post("/categories", catalog.CreateCategory)
	api.Put("/categories/:id", catalog.UpdateCategory)
	api.Delete("/categories/:id", catalog.DeleteCategory)

	api.Get("/suppliers", catalog.GetSuppliers)
	api.Post("/suppliers", catalog.CreateSupplier)
	api.Put("/suppliers/:id", catalog.UpdateSupplier)
	api.Delete("/suppliers/:id", catalog.DeleteSupplier)

	api.Get("/warehouses", catalog.GetWarehouses)
	api.Post("/warehouses", catalog.CreateWarehouse)
	api.Put("/warehouses/:id", catalog.UpdateWarehouse)
	api.Delete("/warehouses/:id", catalog.DeleteWarehouse)

	// Report Routes
	rep := api.Group("/reports")
	rep.Get("/summary", reports.GetSummary)
	rep.Get("/valuation", reports.GetValuation)
	rep.Get("/by-category", reports.GetByCategory)
	rep.Get("/by-supplier", reports.GetBySupplier)
	rep.Get("/by-warehouse", reports.GetByWarehouse)
	rep.Get("/stock-movement", reports.GetStockMovement)
	rep.Get("/inventory", reports.GetInventory)
	rep.Get("/charts", reports.GetCharts)

	api.Get("/export/excel", reports.ExportExcel)
	api.Get("/verify", reports.Verify)
}
