package handler

import (
	"context"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CatalogHandler serves categories, suppliers and warehouses.
type CatalogHandler struct {
	service service.CatalogService
	logger  *zap.Logger
}

func NewCatalogHandler(s service.CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{service: s, logger: logger}
}

func createEntity[Req, T any](c *fiber.Ctx, logger *zap.Logger, fn func(context.Context, *Req, string) (*T, error), label string) error {
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	entity, err := fn(c.UserContext(), &req, getActor(c))
	if err != nil {
		return respond(c, logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": label + " created", "data": entity})
}

func updateEntity[Req, T any](c *fiber.Ctx, logger *zap.Logger, fn func(context.Context, uuid.UUID, *Req, string) (*T, error), label string) error {
	id, err := service.ParseID(c.Params("id"))
	if err != nil {
		return respond(c, logger, err)
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	entity, err := fn(c.UserContext(), id, &req, getActor(c))
	if err != nil {
		return respond(c, logger, err)
	}
	return c.JSON(fiber.Map{"message": label + " updated", "data": entity})
}

func (h *CatalogHandler) deleteEntity(c *fiber.Ctx, kind model.EntityKind, label string) error {
	id, err := service.ParseID(c.Params("id"))
	if err != nil {
		return respond(c, h.logger, err)
	}
	if err := h.service.DeleteEntity(c.UserContext(), kind, id, getActor(c)); err != nil {
		return respond(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"message": label + " deleted"})
}

func list[T any](c *fiber.Ctx, logger *zap.Logger, fn func(ctx context.Context) ([]T, error)) error {
	items, err := fn(c.UserContext())
	if err != nil {
		return respond(c, logger, err)
	}
	if items == nil {
		items = []T{}
	}
	return c.JSON(items)
}

func (h *CatalogHandler) GetCategories(c *fiber.Ctx) error {
	return list(c, h.logger, h.service.ListCategories)
}

func (h *CatalogHandler) CreateCategory(c *fiber.Ctx) error {
	return createEntity(c, h.logger, h.service.CreateCategory, "Category")
}

func (h *CatalogHandler) UpdateCategory(c *fiber.Ctx) error {
	return updateEntity(c, h.logger, h.service.UpdateCategory, "Category")
}

func (h *CatalogHandler) DeleteCategory(c *fiber.Ctx) error {
	return h.deleteEntity(c, model.KindCategory, "Category")
}

func (h *CatalogHandler) GetSuppliers(c *fiber.Ctx) error {
	return list(c, h.logger, h.service.ListSuppliers)
}

func (h *CatalogHandler) CreateSupplier(c *fiber.Ctx) error {
	return createEntity(c, h.logger, h.service.CreateSupplier, "Supplier")
}

func (h *CatalogHandler) UpdateSupplier(c *fiber.Ctx) error {
	return updateEntity(c, h.logger, h.service.UpdateSupplier, "Supplier")
}

func (h *CatalogHandler) DeleteSupplier(c *fiber.Ctx) error {
	return h.deleteEntity(c, model.KindSupplier, "Supplier")
}

func (h *CatalogHandler) GetWarehouses(c *fiber.Ctx) error {
	return list(c, h.logger, h.service.ListWarehouses)
}

func (h *CatalogHandler) CreateWarehouse(c *fiber.Ctx) error {
	return createEntity(c, h.logger, h.service.CreateWarehouse, "Warehouse")
}

func (h *CatalogHandler) UpdateWarehouse(c *fiber.Ctx) error {
	return updateEntity(c, h.logger, h.service.UpdateWarehouse, "Warehouse")
}

func (h *CatalogHandler) DeleteWarehouse(c *fiber.Ctx) error {
	return h.deleteEntity(c, model.KindWarehouse, "Warehouse")
}
