package handler

import (
	"fmt"
	"strconv"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type InventoryHandler struct {
	catalog service.CatalogService
	ledger  service.LedgerService
	reports service.ReportService
	logger  *zap.Logger
}

func NewInventoryHandler(catalog service.CatalogService, ledger service.LedgerService, reports service.ReportService, logger *zap.Logger) *InventoryHandler {
	return &InventoryHandler{catalog: catalog, ledger: ledger, reports: reports, logger: logger}
}

// createProductBody accepts an optional opening stock, booked as an IN
// movement so the ledger stays the only source of quantity. The movement is
// a separate commit: if it fails the product still exists, and the response
// is 201 with a "warning" so the client can retry the movement alone.
type createProductBody struct {
	service.CreateProductRequest
	InitialQuantity int `json:"initial_quantity"`
}

func (h *InventoryHandler) CreateProduct(c *fiber.Ctx) error {
	var body createProductBody
	if err := c.BodyParser(&body); err != nil {
		return parseError(c, h.logger, err)
	}
	if body.InitialQuantity < 0 || body.InitialQuantity > service.MaxStockQuantity {
		return respond(c, h.logger, fmt.Errorf("%w: initial_quantity must be between 0 and %d",
			service.ErrInvalidQuantity, service.MaxStockQuantity))
	}

	actor := getActor(c)
	ctx := c.UserContext()
	product, err := h.catalog.CreateProduct(ctx, &body.CreateProductRequest, actor)
	if err != nil {
		return respond(c, h.logger, err)
	}

	if body.InitialQuantity > 0 {
		_, err := h.ledger.ApplyMovement(ctx, &service.MovementRequest{
			ProductID: product.ID.String(),
			Type:      string(model.TxIn),
			Quantity:  body.InitialQuantity,
			Notes:     "Opening balance",
		}, actor)
		if err != nil {
			h.logger.Error("Opening balance failed",
				zap.String("product_id", product.ID.String()),
				zap.Int("initial_quantity", body.InitialQuantity),
				zap.Error(err))
			return c.Status(fiber.StatusCreated).JSON(fiber.Map{
				"message": "Product created",
				"warning": "Opening balance was not recorded; post it as an IN transaction",
				"data":    product,
			})
		}
		if product, err = h.catalog.GetProduct(ctx, product.ID); err != nil {
			return respond(c, h.logger, err)
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Product created", "data": product})
}

func (h *InventoryHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := service.ParseID(c.Params("id"))
	if err != nil {
		return respond(c, h.logger, err)
	}
	var req service.UpdateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return parseError(c, h.logger, err)
	}

	updated, err := h.catalog.UpdateProduct(c.UserContext(), id, &req, getActor(c))
	if err != nil {
		return respond(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"message": "Product updated", "data": updated})
}

// DeleteProduct archives the product; its transactions are kept.
func (h *InventoryHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := service.ParseID(c.Params("id"))
	if err != nil {
		return respond(c, h.logger, err)
	}
	if err := h.catalog.DeleteEntity(c.UserContext(), model.KindProduct, id, getActor(c)); err != nil {
		return respond(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"message": "Product archived"})
}

// GetProducts lists products; category_id, supplier_id and warehouse_id
// query filters are ANDed.
func (h *InventoryHandler) GetProducts(c *fiber.Ctx) error {
	var filter service.ProductFilterRequest
	if err := c.QueryParser(&filter); err != nil {
		return badBody(c)
	}
	products, err := h.catalog.ListProducts(c.UserContext(), filter)
	if err != nil {
		return respond(c, h.logger, err)
	}
	if products == nil {
		products = []model.Product{}
	}
	return c.JSON(products)
}

func (h *InventoryHandler) GetProduct(c *fiber.Ctx) error {
	id, err := service.ParseID(c.Params("id"))
	if err != nil {
		return respond(c, h.logger, err)
	}
	product, err := h.catalog.GetProduct(c.UserContext(), id)
	if err != nil {
		return respond(c, h.logger, err)
	}
	return c.JSON(product)
}

func (h *InventoryHandler) GetProductBySKU(c *fiber.Ctx) error {
	product, err := h.catalog.GetProductBySKU(c.UserContext(), c.Params("sku"))
	if err != nil {
		return respond(c, h.logger, err)
	}
	return c.JSON(product)
}

// GetProductHistory returns a product's movements, newest first.
// Query params: limit (default 100)
func (h *InventoryHandler) GetProductHistory(c *fiber.Ctx) error {
	id, err := service.ParseID(c.Params("id"))
	if err != nil {
		return respond(c, h.logger, err)
	}
	history, err := h.ledger.ProductHistory(c.UserContext(), id, c.QueryInt("limit", 0))
	if err != nil {
		return respond(c, h.logger, err)
	}
	if history == nil {
		history = []model.Transaction{}
	}
	return c.JSON(history)
}

func (h *InventoryHandler) CreateTransaction(c *fiber.Ctx) error {
	var req service.MovementRequest
	if err := c.BodyParser(&req); err != nil {
		return parseError(c, h.logger, err)
	}

	entry, err := h.ledger.ApplyMovement(c.UserContext(), &req, getActor(c))
	if err != nil {
		return respond(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Transaction recorded", "data": entry})
}

// GetTransactions returns the newest movements first.
// Query params: limit (default from RECENT_TRANSACTIONS_LIMIT)
func (h *InventoryHandler) GetTransactions(c *fiber.Ctx) error {
	entries, err := h.reports.RecentTransactions(c.UserContext(), c.QueryInt("limit", 0))
	if err != nil {
		return respond(c, h.logger, err)
	}
	return c.JSON(entries)
}

func (h *InventoryHandler) GetTransaction(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return respond(c, h.logger, fmt.Errorf("%w: invalid transaction id %q", service.ErrInvalidReference, c.Params("id")))
	}
	entry, err := h.ledger.GetTransaction(c.UserContext(), id)
	if err != nil {
		return respond(c, h.logger, err)
	}
	return c.JSON(entry)
}

// GetLowStock returns [{id, name, sku, quantity, min_stock}] for every
// product at or below its threshold.
func (h *InventoryHandler) GetLowStock(c *fiber.Ctx) error {
	products, err := h.reports.LowStock(c.UserContext())
	if err != nil {
		return respond(c, h.logger, err)
	}
	items := make([]model.LowStockItem, 0, len(products))
	for i := range products {
		items = append(items, products[i].ToLowStockItem())
	}
	return c.JSON(items)
}
