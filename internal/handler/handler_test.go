package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"go-inventory-ledger/internal/app"
	"go-inventory-ledger/internal/export"
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/service"
	"go-inventory-ledger/pkg/database"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) *fiber.App {
	t.Helper()
	db, err := database.Open(database.Options{Driver: "sqlite", DSN: ":memory:", LogLevel: "silent"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })

	a := app.New(db, app.Options{DefaultMinStock: 10}, zap.NewNop())
	server := fiber.New()
	Register(server, a, zap.NewNop())
	return server
}

func call(t *testing.T, server *fiber.App, method, path string, body interface{}) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(ActorHeader, "tester")

	resp, err := server.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

type envelope[T any] struct {
	Message string `json:"message"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
	Warning string `json:"warning"`
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

func createProduct(t *testing.T, server *fiber.App, body fiber.Map) model.Product {
	t.Helper()
	status, data := call(t, server, http.MethodPost, "/api/v1/products", body)
	require.Equal(t, http.StatusCreated, status, string(data))
	return decode[envelope[model.Product]](t, data).Data
}

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		service.ErrNotFound:            http.StatusNotFound,
		service.ErrDuplicateKey:        http.StatusConflict,
		service.ErrReferentialConflict: http.StatusConflict,
		service.ErrInsufficientStock:   http.StatusConflict,
		service.ErrInvalidReference:    http.StatusUnprocessableEntity,
		service.ErrInvalidQuantity:     http.StatusUnprocessableEntity,
		service.ErrInvalidMovementType: http.StatusUnprocessableEntity,
		service.ErrValidation:          http.StatusBadRequest,
		errors.New("disk full"):        http.StatusInternalServerError,
	}
	for err, want := range cases {
		require.Equal(t, want, statusFor(fmt.Errorf("wrapped: %w", err)), err.Error())
	}
}

func TestProductAndTransactionFlow(t *testing.T) {
	server := newTestServer(t)

	p := createProduct(t, server, fiber.Map{"sku": "A1", "name": "Widget", "min_stock": 5, "price": "2.50"})
	require.Equal(t, 0, p.Quantity)

	status, data := call(t, server, http.MethodPost, "/api/v1/transactions", fiber.Map{"product_id": p.ID.String(), "type": "IN", "quantity": 10})
	require.Equal(t, http.StatusCreated, status, string(data))

	status, data = call(t, server, http.MethodPost, "/api/v1/transactions", fiber.Map{"product_id": p.ID.String(), "type": "OUT", "quantity": 7})
	require.Equal(t, http.StatusCreated, status, string(data))
	entry := decode[envelope[model.Transaction]](t, data).Data
	require.Equal(t, 3, entry.BalanceAfter)

	status, data = call(t, server, http.MethodPost, "/api/v1/transactions", fiber.Map{"product_id": p.ID.String(), "type": "OUT", "quantity": 4})
	require.Equal(t, http.StatusConflict, status)
	require.Contains(t, decode[envelope[any]](t, data).Error, "insufficient stock")

	status, _ = call(t, server, http.MethodPost, "/api/v1/transactions", fiber.Map{"product_id": p.ID.String(), "type": "IN", "quantity": 0})
	require.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = call(t, server, http.MethodPost, "/api/v1/transactions", fiber.Map{"product_id": p.ID.String(), "type": "SWAP", "quantity": 1})
	require.Equal(t, http.StatusUnprocessableEntity, status)

	status, data = call(t, server, http.MethodGet, "/api/v1/products/"+p.ID.String(), nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, 3, decode[model.Product](t, data).Quantity)

	status, data = call(t, server, http.MethodGet, "/api/low-stock", nil)
	require.Equal(t, http.StatusOK, status)
	var items []map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &items))
	require.Len(t, items, 1)
	require.Equal(t, "A1", items[0]["sku"])
	require.EqualValues(t, 3, items[0]["quantity"])
	require.EqualValues(t, 5, items[0]["min_stock"])
	require.ElementsMatch(t, []string{"id", "name", "sku", "quantity", "min_stock"}, keys(items[0]))

	status, data = call(t, server, http.MethodGet, "/api/v1/transactions?limit=1", nil)
	require.Equal(t, http.StatusOK, status)
	recent := decode[[]model.Transaction](t, data)
	require.Len(t, recent, 1)
	require.Equal(t, entry.ID, recent[0].ID)

	status, _ = call(t, server, http.MethodGet, fmt.Sprintf("/api/v1/transactions/%d", entry.ID), nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = call(t, server, http.MethodGet, "/api/v1/transactions/abc", nil)
	require.Equal(t, http.StatusUnprocessableEntity, status)

	status, data = call(t, server, http.MethodGet, "/api/v1/verify", nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, true, decode[map[string]interface{}](t, data)["consistent"])
}

func keys(m map[string]interface{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestCreateProductWithOpeningBalance(t *testing.T) {
	server := newTestServer(t)
	p := createProduct(t, server, fiber.Map{"sku": "OB", "name": "Stocked", "initial_quantity": 12})
	require.Equal(t, 12, p.Quantity)

	status, data := call(t, server, http.MethodGet, "/api/v1/products/"+p.ID.String()+"/history", nil)
	require.Equal(t, http.StatusOK, status)
	history := decode[[]model.Transaction](t, data)
	require.Len(t, history, 1)
	require.Equal(t, "Opening balance", history[0].Notes)

	status, _ = call(t, server, http.MethodPost, "/api/v1/products", fiber.Map{"sku": "NEG", "name": "Bad", "initial_quantity": -1})
	require.Equal(t, http.StatusUnprocessableEntity, status)

	// Out-of-range or non-numeric opening stock is rejected before the
	// product is created.
	status, _ = call(t, server, http.MethodPost, "/api/v1/products", fiber.Map{"sku": "HUGE", "name": "Bad", "initial_quantity": service.MaxStockQuantity + 1})
	require.Equal(t, http.StatusUnprocessableEntity, status)
	status, _ = call(t, server, http.MethodPost, "/api/v1/products", fiber.Map{"sku": "TEXT", "name": "Bad", "initial_quantity": "ten"})
	require.Equal(t, http.StatusUnprocessableEntity, status)
	for _, sku := range []string{"NEG", "HUGE", "TEXT"} {
		status, _ = call(t, server, http.MethodGet, "/api/v1/products/sku/"+sku, nil)
		require.Equal(t, http.StatusNotFound, status, sku)
	}
}

// brokenLedger fails every movement.
type brokenLedger struct {
	service.LedgerService
}

func (brokenLedger) ApplyMovement(context.Context, *service.MovementRequest, string) (*model.Transaction, error) {
	return nil, errors.New("database is gone")
}

func TestCreateProductOpeningBalanceFailure(t *testing.T) {
	db, err := database.Open(database.Options{Driver: "sqlite", DSN: ":memory:", LogLevel: "silent"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	a := app.New(db, app.Options{DefaultMinStock: 10}, zap.NewNop())

	h := NewInventoryHandler(a.Catalog, brokenLedger{a.Ledger}, a.Reports, zap.NewNop())
	server := fiber.New()
	server.Post("/products", h.CreateProduct)

	status, data := call(t, server, http.MethodPost, "/products", fiber.Map{"sku": "OB-FAIL", "name": "Half", "initial_quantity": 5})
	require.Equal(t, http.StatusCreated, status, string(data))
	body := decode[envelope[model.Product]](t, data)
	require.NotEmpty(t, body.Warning)
	require.Equal(t, "OB-FAIL", body.Data.SKU)
	require.Equal(t, 0, body.Data.Quantity)

	stored, err := a.Catalog.GetProductBySKU(context.Background(), "OB-FAIL")
	require.NoError(t, err)
	require.Equal(t, 0, stored.Quantity)
}

func TestUncoercibleFields(t *testing.T) {
	server := newTestServer(t)
	p := createProduct(t, server, fiber.Map{"sku": "CO", "name": "Coerce"})

	for _, qty := range []interface{}{"abc", 2.5, true} {
		status, data := call(t, server, http.MethodPost, "/api/v1/transactions", fiber.Map{"product_id": p.ID.String(), "type": "IN", "quantity": qty})
		require.Equal(t, http.StatusUnprocessableEntity, status, string(data))
		require.Contains(t, decode[envelope[any]](t, data).Error, "whole number")
	}

	status, data := call(t, server, http.MethodPost, "/api/v1/transactions", fiber.Map{"product_id": 42, "type": "IN", "quantity": 1})
	require.Equal(t, http.StatusUnprocessableEntity, status, string(data))

	status, _ = call(t, server, http.MethodPost, "/api/v1/transactions", fiber.Map{"product_id": p.ID.String(), "type": "IN", "quantity": service.MaxStockQuantity + 1})
	require.Equal(t, http.StatusUnprocessableEntity, status)

	status, data = call(t, server, http.MethodGet, "/api/v1/products/"+p.ID.String(), nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, 0, decode[model.Product](t, data).Quantity)
}

func TestCatalogErrors(t *testing.T) {
	server := newTestServer(t)

	status, data := call(t, server, http.MethodPost, "/api/v1/warehouses", fiber.Map{"name": "Main", "location": "Dock 1"})
	require.Equal(t, http.StatusCreated, status)
	w := decode[envelope[model.Warehouse]](t, data).Data

	createProduct(t, server, fiber.Map{"sku": "W1", "name": "Boxed", "warehouse_id": w.ID.String()})

	status, _ = call(t, server, http.MethodPost, "/api/v1/products", fiber.Map{"sku": "W1", "name": "Again"})
	require.Equal(t, http.StatusConflict, status)

	status, _ = call(t, server, http.MethodPost, "/api/v1/products", fiber.Map{"sku": "W2", "name": "Ghost", "supplier_id": "00000000-0000-0000-0000-000000000001"})
	require.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = call(t, server, http.MethodPost, "/api/v1/products", fiber.Map{"sku": "W3", "name": ""})
	require.Equal(t, http.StatusBadRequest, status)

	status, _ = call(t, server, http.MethodDelete, "/api/v1/warehouses/"+w.ID.String(), nil)
	require.Equal(t, http.StatusConflict, status)

	status, _ = call(t, server, http.MethodGet, "/api/v1/products/not-a-uuid", nil)
	require.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = call(t, server, http.MethodGet, "/api/v1/products/sku/NOPE", nil)
	require.Equal(t, http.StatusNotFound, status)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/categories", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := server.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestFiltersAndReports(t *testing.T) {
	server := newTestServer(t)

	status, data := call(t, server, http.MethodPost, "/api/v1/categories", fiber.Map{"name": "Tools"})
	require.Equal(t, http.StatusCreated, status)
	tools := decode[envelope[model.Category]](t, data).Data

	createProduct(t, server, fiber.Map{"sku": "A", "name": "Hammer", "price": 2, "category_id": tools.ID.String(), "initial_quantity": 4})
	createProduct(t, server, fiber.Map{"sku": "B", "name": "Loose", "price": 1, "initial_quantity": 3})

	status, data = call(t, server, http.MethodGet, "/api/v1/products?category_id="+tools.ID.String(), nil)
	require.Equal(t, http.StatusOK, status)
	filtered := decode[[]model.Product](t, data)
	require.Len(t, filtered, 1)
	require.Equal(t, "A", filtered[0].SKU)

	status, data = call(t, server, http.MethodGet, "/api/v1/reports/by-category", nil)
	require.Equal(t, http.StatusOK, status)
	groups := decode[[]model.GroupTotal](t, data)
	require.Len(t, groups, 2)
	require.Equal(t, "Tools", groups[0].Name)
	require.Equal(t, model.UnassignedBucket, groups[1].Name)

	status, data = call(t, server, http.MethodGet, "/api/v1/reports/charts", nil)
	require.Equal(t, http.StatusOK, status)
	charts := decode[export.Charts](t, data)
	require.Equal(t, []string{"Tools", model.UnassignedBucket}, charts.Category.Labels)
	require.Equal(t, []float64{4, 3}, charts.Category.Values)
	require.Equal(t, []float64{11}, charts.Warehouse.Values)

	status, data = call(t, server, http.MethodGet, "/api/v1/reports/summary", nil)
	require.Equal(t, http.StatusOK, status)
	stats := decode[model.DashboardStats](t, data)
	require.EqualValues(t, 2, stats.TotalProducts)
	require.EqualValues(t, 2, stats.LowStockCount)

	status, data = call(t, server, http.MethodGet, "/api/v1/reports/stock-movement?days=3", nil)
	require.Equal(t, http.StatusOK, status)
	movement := decode[map[string]interface{}](t, data)
	require.EqualValues(t, 3, movement["period"])

	status, data = call(t, server, http.MethodGet, "/api/v1/reports/stock-movement?days=4611686018427387904", nil)
	require.Equal(t, http.StatusOK, status, string(data))
	movement = decode[map[string]interface{}](t, data)
	require.EqualValues(t, service.MaxMovementDays, movement["period"])
	require.Len(t, movement["data"], service.MaxMovementDays)

	status, _ = call(t, server, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, status)
}

func TestExportExcel(t *testing.T) {
	server := newTestServer(t)
	createProduct(t, server, fiber.Map{"sku": "X1", "name": "Exported", "price": "1.5", "initial_quantity": 2})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/export/excel", nil)
	resp, err := server.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, export.ContentType, resp.Header.Get("Content-Type"))
	require.Contains(t, resp.Header.Get("Content-Disposition"), "inventory_report_")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(body, []byte("PK")))
}

func TestConcurrentOutOverHTTP(t *testing.T) {
	server := newTestServer(t)
	p := createProduct(t, server, fiber.Map{"sku": "RACE", "name": "Contended", "initial_quantity": 10})

	var wg sync.WaitGroup
	statuses := make([]int, 2)
	for i := range statuses {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			statuses[i], _ = call(t, server, http.MethodPost, "/api/v1/transactions", fiber.Map{"product_id": p.ID.String(), "type": "OUT", "quantity": 8})
		}(i)
	}
	wg.Wait()
	require.ElementsMatch(t, []int{http.StatusCreated, http.StatusConflict}, statuses)
}
