package export

import (
	"fmt"
	"io"
	"time"

	"go-inventory-ledger/internal/model"

	"github.com/xuri/excelize/v2"
)

const (
	SheetName   = "Inventory Report"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	headerFill  = "366092"
)

var Headers = []string{
	"SKU", "Barcode", "Name", "Quantity", "Min stock",
	"Price", "Total value", "Category", "Supplier", "Warehouse",
}

// Filename is the download name of a report generated at now.
func Filename(now time.Time) string {
	return fmt.Sprintf("inventory_report_%s.xlsx", now.Format("20060102_150405"))
}

// WriteWorkbook writes one header row and one row per product to w.
func WriteWorkbook(w io.Writer, rows []model.InventoryRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}

	header := make([]interface{}, len(Headers))
	for i, h := range Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return err
	}
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{headerFill}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(Headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, "A1", last, style); err != nil {
		return err
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{
			r.SKU,
			r.Barcode,
			r.Name,
			r.Quantity,
			r.MinStock,
			r.Price.InexactFloat64(),
			r.TotalValue.InexactFloat64(),
			r.Category,
			r.Supplier,
			r.Warehouse,
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return err
		}
	}

	_, err = f.WriteTo(w)
	return err
}
