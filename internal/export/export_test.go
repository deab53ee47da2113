package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"go-inventory-ledger/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleRows() []model.InventoryRow {
	return []model.InventoryRow{
		{
			ID: uuid.New(), SKU: "A1", Barcode: "123", Name: "Widget",
			Quantity: 4, MinStock: 2,
			Price: decimal.RequireFromString("2.5"), TotalValue: decimal.RequireFromString("10"),
			Category: "Tools", Warehouse: "North",
		},
		{
			ID: uuid.New(), SKU: "B2", Name: "Gadget",
			Quantity: 0, MinStock: 5,
			Price: decimal.RequireFromString("7"), TotalValue: decimal.Zero,
			LowStock: true,
		},
	}
}

func TestWriteWorkbook(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, sampleRows()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, []string{SheetName}, f.GetSheetList())
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, Headers, rows[0])
	require.Equal(t, []string{"A1", "123", "Widget", "4", "2", "2.5", "10", "Tools", "", "North"}, rows[1])
	require.Equal(t, "B2", rows[2][0])
	require.Equal(t, "0", rows[2][3])

	styleID, err := f.GetCellStyle(SheetName, "J1")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	require.True(t, style.Font.Bold)
}

func TestWriteWorkbookEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestFilename(t *testing.T) {
	at := time.Date(2026, 4, 5, 6, 7, 8, 0, time.UTC)
	require.Equal(t, "inventory_report_20260405_060708.xlsx", Filename(at))
}

func TestBuildCharts(t *testing.T) {
	byCategory := []model.GroupTotal{
		{Name: "Tools", Quantity: 5, Value: decimal.RequireFromString("18")},
		{Name: model.UnassignedBucket, Quantity: 3, Value: decimal.RequireFromString("3")},
	}
	byWarehouse := []model.GroupTotal{
		{Name: "North", Quantity: 7, Value: decimal.RequireFromString("11.5")},
	}

	charts := BuildCharts(byCategory, byWarehouse)
	require.Equal(t, []string{"Tools", model.UnassignedBucket}, charts.Category.Labels)
	require.Equal(t, []float64{5, 3}, charts.Category.Values)
	require.Equal(t, []string{"North"}, charts.Warehouse.Labels)
	require.Equal(t, []float64{11.5}, charts.Warehouse.Values)

	empty := BuildCharts(nil, nil)
	require.NotNil(t, empty.Category.Labels)
	require.Empty(t, empty.Warehouse.Values)
}

func TestRenderTables(t *testing.T) {
	var buf bytes.Buffer
	RenderInventory(&buf, sampleRows())
	out := buf.String()
	require.Contains(t, out, "Widget")
	require.Contains(t, out, "10.00")

	buf.Reset()
	RenderReconciliation(&buf, []model.Reconciliation{
		{SKU: "A1", Stored: 4, Replayed: 4, Transactions: 2},
		{SKU: "B2", Stored: 3, Replayed: 1, Transactions: 1},
	})
	out = buf.String()
	require.Equal(t, 1, strings.Count(out, "MISMATCH"))
}
