package app

import (
	"context"
	"testing"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/service"
	"go-inventory-ledger/pkg/config"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOpenSeedsAndCloses(t *testing.T) {
	ctx := context.Background()
	a, err := Open(ctx, Options{
		DBDriver:        "sqlite",
		DSN:             ":memory:",
		DBLogLevel:      "silent",
		SeedDefaults:    true,
		DefaultMinStock: 3,
	}, zap.NewNop())
	require.NoError(t, err)

	categories, err := a.Catalog.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, len(model.DefaultCategories))

	p, err := a.Catalog.CreateProduct(ctx, &service.CreateProductRequest{SKU: "APP-1", Name: "Lamp"}, "tester")
	require.NoError(t, err)
	require.Equal(t, 3, p.MinStock)

	_, err = a.Ledger.ApplyMovement(ctx, &service.MovementRequest{ProductID: p.ID.String(), Type: "IN", Quantity: 2}, "tester")
	require.NoError(t, err)

	low, err := a.Reports.LowStock(ctx)
	require.NoError(t, err)
	require.Len(t, low, 1)

	require.NoError(t, a.Close())
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Options{DBDriver: "oracle"}, zap.NewNop())
	require.Error(t, err)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := &config.Config{
		DBDriver:                "sqlite",
		SQLitePath:              "stock.db",
		DBLogLevel:              "error",
		SeedDefaults:            true,
		DefaultMinStock:         7,
		RecentTransactionsLimit: 25,
	}
	opts := OptionsFromConfig(cfg)
	require.Equal(t, "stock.db", opts.DSN)
	require.Equal(t, 7, opts.DefaultMinStock)
	require.Equal(t, 25, opts.RecentLimit)
	require.True(t, opts.SeedDefaults)
}
