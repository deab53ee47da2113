package app

import (
	"context"
	"fmt"
	"time"

	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/internal/service"
	"go-inventory-ledger/pkg/config"
	"go-inventory-ledger/pkg/database"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Options configures Open. Zero values fall back to the service defaults.
type Options struct {
	DBDriver        string
	DSN             string
	DBLogLevel      string
	SeedDefaults    bool
	DefaultMinStock int
	RecentLimit     int
	Notifier        service.Notifier
	Now             func() time.Time
}

// OptionsFromConfig maps runtime configuration onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		DBDriver:        cfg.DBDriver,
		DSN:             cfg.DSN(),
		DBLogLevel:      cfg.DBLogLevel,
		SeedDefaults:    cfg.SeedDefaults,
		DefaultMinStock: cfg.DefaultMinStock,
		RecentLimit:     cfg.RecentTransactionsLimit,
	}
}

// App owns the database handle and the services built on it. Open it once,
// use the services, then Close it.
type App struct {
	DB      *gorm.DB
	Catalog service.CatalogService
	Ledger  service.LedgerService
	Reports service.ReportService
	logger  *zap.Logger
}

// Open connects, migrates, optionally seeds the default categories and wires
// the services.
func Open(ctx context.Context, opts Options, logger *zap.Logger) (*App, error) {
	db, err := database.Open(database.Options{Driver: opts.DBDriver, DSN: opts.DSN, LogLevel: opts.DBLogLevel})
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("migrate: %w", err)
	}

	a := New(db, opts, logger)
	if opts.SeedDefaults {
		if err := a.Catalog.SeedDefaults(ctx); err != nil {
			_ = database.Close(db)
			return nil, fmt.Errorf("seed defaults: %w", err)
		}
	}
	logger.Info("Database ready", zap.String("driver", opts.DBDriver))
	return a, nil
}

// New wires the services over an already migrated database.
func New(db *gorm.DB, opts Options, logger *zap.Logger) *App {
	productRepo := repository.NewProductRepo(db)
	txRepo := repository.NewTransactionRepo(db)
	categoryRepo := repository.NewCategoryRepo(db)
	supplierRepo := repository.NewSupplierRepo(db)
	warehouseRepo := repository.NewWarehouseRepo(db)

	return &App{
		DB: db,
		Catalog: service.NewCatalogService(db, productRepo, categoryRepo, supplierRepo, warehouseRepo,
			opts.Notifier, logger, service.CatalogOptions{DefaultMinStock: opts.DefaultMinStock}),
		Ledger: service.NewLedgerService(db, productRepo, txRepo, opts.Notifier, logger,
			service.LedgerOptions{Now: opts.Now}),
		Reports: service.NewReportService(db, productRepo, txRepo, categoryRepo, supplierRepo, warehouseRepo,
			service.ReportOptions{RecentLimit: opts.RecentLimit, Now: opts.Now}),
		logger: logger,
	}
}

func (a *App) Close() error {
	a.logger.Info("Closing database")
	return database.Close(a.DB)
}
