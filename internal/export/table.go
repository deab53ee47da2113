package export

import (
	"io"
	"strconv"

	"go-inventory-ledger/internal/model"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	if title != "" {
		t.SetTitle(title)
	}
	return t
}

// RenderInventory prints the inventory report with a value total footer.
func RenderInventory(w io.Writer, rows []model.InventoryRow) {
	t := newTable(w, SheetName)
	header := table.Row{}
	for _, h := range Headers {
		header = append(header, h)
	}
	t.AppendHeader(header)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
	})

	var total float64
	for _, r := range rows {
		t.AppendRow(table.Row{
			r.SKU, r.Barcode, r.Name, r.Quantity, r.MinStock,
			r.Price.StringFixed(2), r.TotalValue.StringFixed(2),
			r.Category, r.Supplier, r.Warehouse,
		})
		total += r.TotalValue.InexactFloat64()
	}
	t.AppendFooter(table.Row{"", "", "", "", "", "Total", strconv.FormatFloat(total, 'f', 2, 64)})
	t.Render()
}

// RenderGroups prints one grouping aggregate.
func RenderGroups(w io.Writer, title string, groups []model.GroupTotal) {
	t := newTable(w, title)
	t.AppendHeader(table.Row{"Name", "Products", "Quantity", "Value"})
	for _, g := range groups {
		t.AppendRow(table.Row{g.Name, g.Products, g.Quantity, g.Value.StringFixed(2)})
	}
	t.Render()
}

// RenderLowStock prints the low-stock list.
func RenderLowStock(w io.Writer, items []model.LowStockItem) {
	t := newTable(w, "Low stock")
	t.AppendHeader(table.Row{"SKU", "Name", "Quantity", "Min stock"})
	for _, it := range items {
		t.AppendRow(table.Row{it.SKU, it.Name, it.Quantity, it.MinStock})
	}
	t.Render()
}

// RenderReconciliation prints ledger verification results.
func RenderReconciliation(w io.Writer, results []model.Reconciliation) {
	t := newTable(w, "Ledger verification")
	t.AppendHeader(table.Row{"SKU", "Stored", "Replayed", "Transactions", "Status"})
	for _, r := range results {
		status := "ok"
		if !r.Consistent() {
			status = "MISMATCH"
		}
		t.AppendRow(table.Row{r.SKU, r.Stored, r.Replayed, r.Transactions, status})
	}
	t.Render()
}
