package service

import (
	"context"
	"sort"
	"time"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const maxRecentTransactions = 1000

// MaxMovementDays caps the StockMovement window.
const MaxMovementDays = 366

// ReportService computes every aggregate on read from the catalog and the
// ledger. Nothing is cached, so results always reflect the last commit.
type ReportService interface {
	LowStock(ctx context.Context) ([]model.Product, error)
	TotalValue(ctx context.Context) (decimal.Decimal, error)
	GroupByCategory(ctx context.Context) ([]model.GroupTotal, error)
	GroupBySupplier(ctx context.Context) ([]model.GroupTotal, error)
	GroupByWarehouse(ctx context.Context) ([]model.GroupTotal, error)
	RecentTransactions(ctx context.Context, limit int) ([]model.Transaction, error)
	StockMovement(ctx context.Context, days int) ([]model.StockMovementData, error)
	Summary(ctx context.Context) (*model.DashboardStats, error)
	InventoryReport(ctx context.Context) ([]model.InventoryRow, error)
}

type ReportOptions struct {
	RecentLimit int
	Now         func() time.Time
}

type reportService struct {
	db            *gorm.DB
	productRepo   repository.ProductRepository
	txRepo        repository.TransactionRepository
	categoryRepo  repository.ReferenceRepository[model.Category]
	supplierRepo  repository.ReferenceRepository[model.Supplier]
	warehouseRepo repository.ReferenceRepository[model.Warehouse]
	opts          ReportOptions
}

func NewReportService(
	db *gorm.DB,
	pRepo repository.ProductRepository,
	tRepo repository.TransactionRepository,
	cRepo repository.ReferenceRepository[model.Category],
	sRepo repository.ReferenceRepository[model.Supplier],
	wRepo repository.ReferenceRepository[model.Warehouse],
	opts ReportOptions,
) ReportService {
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = 100
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &reportService{
		db:            db,
		productRepo:   pRepo,
		txRepo:        tRepo,
		categoryRepo:  cRepo,
		supplierRepo:  sRepo,
		warehouseRepo: wRepo,
		opts:          opts,
	}
}

// LowStock returns every active product with quantity <= min_stock.
func (s *reportService) LowStock(ctx context.Context) ([]model.Product, error) {
	products, err := s.productRepo.FindLowStock(ctx)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []model.Product{}
	}
	return products, nil
}

func (s *reportService) TotalValue(ctx context.Context) (decimal.Decimal, error) {
	products, err := s.productRepo.FindAll(ctx, repository.ProductFilter{})
	if err != nil {
		return decimal.Zero, err
	}
	return totalValue(products), nil
}

func totalValue(products []model.Product) decimal.Decimal {
	total := decimal.Zero
	for i := range products {
		total = total.Add(products[i].Value())
	}
	return total
}

func (s *reportService) GroupByCategory(ctx context.Context) ([]model.GroupTotal, error) {
	return s.groupBy(ctx, func(tx *gorm.DB) (map[uuid.UUID]string, error) {
		return namesOf(ctx, s.categoryRepo.WithTx(tx), func(c *model.Category) (uuid.UUID, string) { return c.ID, c.Name })
	}, func(p *model.Product) *uuid.UUID { return p.CategoryID })
}

func (s *reportService) GroupBySupplier(ctx context.Context) ([]model.GroupTotal, error) {
	return s.groupBy(ctx, func(tx *gorm.DB) (map[uuid.UUID]string, error) {
		return namesOf(ctx, s.supplierRepo.WithTx(tx), func(c *model.Supplier) (uuid.UUID, string) { return c.ID, c.Name })
	}, func(p *model.Product) *uuid.UUID { return p.SupplierID })
}

func (s *reportService) GroupByWarehouse(ctx context.Context) ([]model.GroupTotal, error) {
	return s.groupBy(ctx, func(tx *gorm.DB) (map[uuid.UUID]string, error) {
		return namesOf(ctx, s.warehouseRepo.WithTx(tx), func(c *model.Warehouse) (uuid.UUID, string) { return c.ID, c.Name })
	}, func(p *model.Product) *uuid.UUID { return p.WarehouseID })
}

// groupBy buckets active products by one link. Products without the link go
// to the Unassigned bucket, which sorts last.
func (s *reportService) groupBy(
	ctx context.Context,
	loadNames func(tx *gorm.DB) (map[uuid.UUID]string, error),
	key func(p *model.Product) *uuid.UUID,
) ([]model.GroupTotal, error) {
	var (
		products []model.Product
		names    map[uuid.UUID]string
	)
	err := readSnapshot(ctx, s.db, func(tx *gorm.DB) error {
		var err error
		if products, err = s.productRepo.WithTx(tx).FindAll(ctx, repository.ProductFilter{}); err != nil {
			return err
		}
		names, err = loadNames(tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return groupProducts(products, names, key), nil
}

func groupProducts(products []model.Product, names map[uuid.UUID]string, key func(p *model.Product) *uuid.UUID) []model.GroupTotal {
	buckets := make(map[uuid.UUID]*model.GroupTotal)
	var unassigned *model.GroupTotal

	for i := range products {
		p := &products[i]
		var g *model.GroupTotal
		id := key(p)
		name, known := "", false
		if id != nil {
			name, known = names[*id]
		}
		if !known {
			if unassigned == nil {
				unassigned = &model.GroupTotal{Name: model.UnassignedBucket, Value: decimal.Zero}
			}
			g = unassigned
		} else {
			g = buckets[*id]
			if g == nil {
				bucketID := *id
				g = &model.GroupTotal{ID: &bucketID, Name: name, Value: decimal.Zero}
				buckets[*id] = g
			}
		}
		g.Products++
		g.Quantity += p.Quantity
		g.Value = g.Value.Add(p.Value())
	}

	out := make([]model.GroupTotal, 0, len(buckets)+1)
	for _, g := range buckets {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	if unassigned != nil {
		out = append(out, *unassigned)
	}
	return out
}

func namesOf[T repository.Reference](ctx context.Context, repo repository.ReferenceRepository[T], pick func(*T) (uuid.UUID, string)) (map[uuid.UUID]string, error) {
	entities, err := repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(entities))
	for i := range entities {
		id, name := pick(&entities[i])
		names[id] = name
	}
	return names, nil
}

// RecentTransactions returns the newest movements first. limit <= 0 uses the
// configured default.
func (s *reportService) RecentTransactions(ctx context.Context, limit int) ([]model.Transaction, error) {
	if limit <= 0 {
		limit = s.opts.RecentLimit
	}
	if limit > maxRecentTransactions {
		limit = maxRecentTransactions
	}
	entries, err := s.txRepo.FindRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []model.Transaction{}
	}
	return entries, nil
}

// StockMovement returns one IN/OUT total per UTC day for the last `days`
// days, today included, oldest first. days is clamped to MaxMovementDays.
func (s *reportService) StockMovement(ctx context.Context, days int) ([]model.StockMovementData, error) {
	if days <= 0 {
		days = 7
	}
	if days > MaxMovementDays {
		days = MaxMovementDays
	}
	now := s.opts.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start := today.AddDate(0, 0, -(days - 1))

	entries, err := s.txRepo.FindBetween(ctx, start, now)
	if err != nil {
		return nil, err
	}

	results := make([]model.StockMovementData, days)
	index := make(map[string]int, days)
	for i := 0; i < days; i++ {
		date := start.AddDate(0, 0, i).Format("2006-01-02")
		results[i].Date = date
		index[date] = i
	}
	for _, e := range entries {
		i, ok := index[e.CreatedAt.UTC().Format("2006-01-02")]
		if !ok {
			continue
		}
		if e.Type == model.TxIn {
			results[i].Inbound += e.Quantity
		} else {
			results[i].Outbound += e.Quantity
		}
	}
	return results, nil
}

// Summary reads the dashboard figures from a single snapshot.
func (s *reportService) Summary(ctx context.Context) (*model.DashboardStats, error) {
	var stats model.DashboardStats
	err := readSnapshot(ctx, s.db, func(tx *gorm.DB) error {
		products, err := s.productRepo.WithTx(tx).FindAll(ctx, repository.ProductFilter{})
		if err != nil {
			return err
		}
		stats.TotalProducts = int64(len(products))
		for i := range products {
			if products[i].IsLowStock() {
				stats.LowStockCount++
			}
		}
		stats.TotalValuation = totalValue(products)

		if stats.Categories, err = s.categoryRepo.WithTx(tx).Count(ctx); err != nil {
			return err
		}
		if stats.Suppliers, err = s.supplierRepo.WithTx(tx).Count(ctx); err != nil {
			return err
		}
		stats.Warehouses, err = s.warehouseRepo.WithTx(tx).Count(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// InventoryReport resolves each product's links to names and computes its
// value; this is the row source of the report table and the spreadsheet.
func (s *reportService) InventoryReport(ctx context.Context) ([]model.InventoryRow, error) {
	var (
		products                      []model.Product
		categories, suppliers, stores map[uuid.UUID]string
	)
	err := readSnapshot(ctx, s.db, func(tx *gorm.DB) error {
		var err error
		if products, err = s.productRepo.WithTx(tx).FindAll(ctx, repository.ProductFilter{}); err != nil {
			return err
		}
		if categories, err = namesOf(ctx, s.categoryRepo.WithTx(tx), func(c *model.Category) (uuid.UUID, string) { return c.ID, c.Name }); err != nil {
			return err
		}
		if suppliers, err = namesOf(ctx, s.supplierRepo.WithTx(tx), func(c *model.Supplier) (uuid.UUID, string) { return c.ID, c.Name }); err != nil {
			return err
		}
		stores, err = namesOf(ctx, s.warehouseRepo.WithTx(tx), func(c *model.Warehouse) (uuid.UUID, string) { return c.ID, c.Name })
		return err
	})
	if err != nil {
		return nil, err
	}

	rows := make([]model.InventoryRow, 0, len(products))
	for i := range products {
		p := &products[i]
		row := model.InventoryRow{
			ID:         p.ID,
			SKU:        p.SKU,
			Name:       p.Name,
			Quantity:   p.Quantity,
			MinStock:   p.MinStock,
			Price:      p.Price,
			TotalValue: p.Value(),
			Category:   lookupName(categories, p.CategoryID),
			Supplier:   lookupName(suppliers, p.SupplierID),
			Warehouse:  lookupName(stores, p.WarehouseID),
			LowStock:   p.IsLowStock(),
		}
		if p.Barcode != nil {
			row.Barcode = *p.Barcode
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func lookupName(names map[uuid.UUID]string, id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return names[*id]
}
