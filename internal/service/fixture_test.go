package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/pkg/database"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []model.StockEvent
}

func (n *recordingNotifier) Publish(_ context.Context, event model.StockEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *recordingNotifier) actions() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.Action)
	}
	return out
}

type fixture struct {
	db      *gorm.DB
	catalog CatalogService
	ledger  LedgerService
	reports ReportService
	events  *recordingNotifier
}

type fixtureOptions struct {
	now      func() time.Time
	notifier Notifier
}

// newFixture wires the services over a private in-memory SQLite database.
func newFixture(t *testing.T, opts ...func(*fixtureOptions)) *fixture {
	t.Helper()
	var o fixtureOptions
	for _, fn := range opts {
		fn(&o)
	}

	db, err := database.Open(database.Options{Driver: "sqlite", DSN: ":memory:", LogLevel: "silent"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })

	productRepo := repository.NewProductRepo(db)
	txRepo := repository.NewTransactionRepo(db)
	categoryRepo := repository.NewCategoryRepo(db)
	supplierRepo := repository.NewSupplierRepo(db)
	warehouseRepo := repository.NewWarehouseRepo(db)
	events := &recordingNotifier{}
	logger := zap.NewNop()
	var notifier Notifier = events
	if o.notifier != nil {
		notifier = o.notifier
	}

	return &fixture{
		db:      db,
		catalog: NewCatalogService(db, productRepo, categoryRepo, supplierRepo, warehouseRepo, notifier, logger, CatalogOptions{DefaultMinStock: 10}),
		ledger:  NewLedgerService(db, productRepo, txRepo, notifier, logger, LedgerOptions{Now: o.now}),
		reports: NewReportService(db, productRepo, txRepo, categoryRepo, supplierRepo, warehouseRepo, ReportOptions{Now: o.now}),
		events:  events,
	}
}

func withNow(now func() time.Time) func(*fixtureOptions) {
	return func(o *fixtureOptions) { o.now = now }
}

func withNotifier(n Notifier) func(*fixtureOptions) {
	return func(o *fixtureOptions) { o.notifier = n }
}

func ptr[T any](v T) *T { return &v }

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// product creates a product with the given threshold and price.
func (f *fixture) product(t *testing.T, sku string, minStock int, price string) *model.Product {
	t.Helper()
	p, err := f.catalog.CreateProduct(context.Background(), &CreateProductRequest{
		SKU:      sku,
		Name:     "Product " + sku,
		MinStock: ptr(minStock),
		Price:    dec(price),
	}, "tester")
	require.NoError(t, err)
	return p
}

func (f *fixture) move(t *testing.T, p *model.Product, typ model.TransactionType, qty int) *model.Transaction {
	t.Helper()
	entry, err := f.ledger.ApplyMovement(context.Background(), &MovementRequest{
		ProductID: p.ID.String(),
		Type:      string(typ),
		Quantity:  qty,
	}, "tester")
	require.NoError(t, err)
	return entry
}

func (f *fixture) quantity(t *testing.T, p *model.Product) int {
	t.Helper()
	got, err := f.catalog.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	return got.Quantity
}

func (f *fixture) warehouse(t *testing.T, name string) *model.Warehouse {
	t.Helper()
	w, err := f.catalog.CreateWarehouse(context.Background(), &WarehouseRequest{Name: name, Location: fmt.Sprintf("%s street", name)}, "tester")
	require.NoError(t, err)
	return w
}

func (f *fixture) category(t *testing.T, name string) *model.Category {
	t.Helper()
	c, err := f.catalog.CreateCategory(context.Background(), &CategoryRequest{Name: name}, "tester")
	require.NoError(t, err)
	return c
}
