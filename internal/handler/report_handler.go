package handler

import (
	"bytes"
	"context"
	"time"

	"go-inventory-ledger/internal/export"
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ReportHandler struct {
	reports service.ReportService
	ledger  service.LedgerService
	logger  *zap.Logger
	now     func() time.Time
}

func NewReportHandler(reports service.ReportService, ledger service.LedgerService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{reports: reports, ledger: ledger, logger: logger, now: time.Now}
}

// GetSummary returns overview statistics
func (h *ReportHandler) GetSummary(c *fiber.Ctx) error {
	stats, err := h.reports.Summary(c.UserContext())
	if err != nil {
		return respond(c, h.logger, err)
	}
	return c.JSON(stats)
}

func (h *ReportHandler) GetValuation(c *fiber.Ctx) error {
	total, err := h.reports.TotalValue(c.UserContext())
	if err != nil {
		return respond(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"total_value": total})
}

func (h *ReportHandler) GetByCategory(c *fiber.Ctx) error {
	return h.groups(c, h.reports.GroupByCategory)
}

func (h *ReportHandler) GetBySupplier(c *fiber.Ctx) error {
	return h.groups(c, h.reports.GroupBySupplier)
}

func (h *ReportHandler) GetByWarehouse(c *fiber.Ctx) error {
	return h.groups(c, h.reports.GroupByWarehouse)
}

func (h *ReportHandler) groups(c *fiber.Ctx, fn func(ctx context.Context) ([]model.GroupTotal, error)) error {
	groups, err := fn(c.UserContext())
	if err != nil {
		return respond(c, h.logger, err)
	}
	return c.JSON(groups)
}

// GetStockMovement returns stock movement data for charts
// Query params: days (default 7, at most 366)
func (h *ReportHandler) GetStockMovement(c *fiber.Ctx) error {
	days := c.QueryInt("days", 7)
	if days <= 0 {
		days = 7
	}
	if days > service.MaxMovementDays {
		days = service.MaxMovementDays
	}

	data, err := h.reports.StockMovement(c.UserContext(), days)
	if err != nil {
		return respond(c, h.logger, err)
	}
	return c.JSON(fiber.Map{
		"period": days,
		"data":   data,
	})
}

func (h *ReportHandler) GetInventory(c *fiber.Ctx) error {
	rows, err := h.reports.InventoryReport(c.UserContext())
	if err != nil {
		return respond(c, h.logger, err)
	}
	return c.JSON(rows)
}

// GetCharts returns quantity by category and value by warehouse, built from
// the grouping aggregates.
func (h *ReportHandler) GetCharts(c *fiber.Ctx) error {
	ctx := c.UserContext()
	byCategory, err := h.reports.GroupByCategory(ctx)
	if err != nil {
		return respond(c, h.logger, err)
	}
	byWarehouse, err := h.reports.GroupByWarehouse(ctx)
	if err != nil {
		return respond(c, h.logger, err)
	}
	return c.JSON(export.BuildCharts(byCategory, byWarehouse))
}

func (h *ReportHandler) ExportExcel(c *fiber.Ctx) error {
	rows, err := h.reports.InventoryReport(c.UserContext())
	if err != nil {
		return respond(c, h.logger, err)
	}

	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, rows); err != nil {
		return respond(c, h.logger, err)
	}

	c.Attachment(export.Filename(h.now()))
	c.Set(fiber.HeaderContentType, export.ContentType)
	return c.Send(buf.Bytes())
}

// Verify replays the ledger. Query params: product_id (optional, one product)
func (h *ReportHandler) Verify(c *fiber.Ctx) error {
	ctx := c.UserContext()
	var results []model.Reconciliation
	if raw := c.Query("product_id"); raw != "" {
		id, err := service.ParseID(raw)
		if err != nil {
			return respond(c, h.logger, err)
		}
		rec, err := h.ledger.Verify(ctx, id)
		if err != nil {
			return respond(c, h.logger, err)
		}
		results = append(results, *rec)
	} else {
		all, err := h.ledger.VerifyAll(ctx)
		if err != nil {
			return respond(c, h.logger, err)
		}
		results = all
	}

	consistent := true
	for _, r := range results {
		if !r.Consistent() {
			consistent = false
		}
	}
	if results == nil {
		results = []model.Reconciliation{}
	}
	return c.JSON(fiber.Map{"consistent": consistent, "results": results})
}
