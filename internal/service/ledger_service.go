package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LedgerService is the only writer of Product.Quantity. Every change is a
// committed Transaction, so quantity can always be rebuilt from the log.
type LedgerService interface {
	ApplyMovement(ctx context.Context, req *MovementRequest, actor string) (*model.Transaction, error)
	GetTransaction(ctx context.Context, id uint64) (*model.Transaction, error)
	ProductHistory(ctx context.Context, productID uuid.UUID, limit int) ([]model.Transaction, error)
	Verify(ctx context.Context, productID uuid.UUID) (*model.Reconciliation, error)
	VerifyAll(ctx context.Context) ([]model.Reconciliation, error)
}

type LedgerOptions struct {
	// Now overrides the wall clock (tests).
	Now func() time.Time
	// HistoryLimit caps ProductHistory when the caller passes no limit.
	HistoryLimit int
}

type ledgerService struct {
	db          *gorm.DB
	productRepo repository.ProductRepository
	txRepo      repository.TransactionRepository
	notifier    Notifier
	logger      *zap.Logger
	locks       *keyedMutex
	clock       *ledgerClock
	opts        LedgerOptions
}

func NewLedgerService(
	db *gorm.DB,
	pRepo repository.ProductRepository,
	tRepo repository.TransactionRepository,
	notifier Notifier,
	logger *zap.Logger,
	opts LedgerOptions,
) LedgerService {
	if notifier == nil {
		notifier = NopNotifier
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 100
	}
	return &ledgerService{
		db:          db,
		productRepo: pRepo,
		txRepo:      tRepo,
		notifier:    notifier,
		logger:      logger,
		locks:       newKeyedMutex(),
		clock:       newLedgerClock(opts.Now),
		opts:        opts,
	}
}

// ApplyMovement validates and commits one IN/OUT movement. Events go out
// after the product lock is released, so subscribers never hold up writers.
func (s *ledgerService) ApplyMovement(ctx context.Context, req *MovementRequest, actor string) (*model.Transaction, error) {
	// 1. Validate input
	req.Type = string(normalizeMovementType(req.Type))
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	productID, err := ParseID(req.ProductID)
	if err != nil {
		return nil, err
	}

	// 2. Commit under the product lock
	entry, product, err := s.commit(ctx, productID, model.TransactionType(req.Type), req, actor)
	if err != nil {
		s.logger.Warn("Movement rejected",
			zap.String("product_id", productID.String()),
			zap.String("type", req.Type),
			zap.Int("quantity", req.Quantity),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Movement committed",
		zap.Uint64("transaction_id", entry.ID),
		zap.String("product_id", productID.String()),
		zap.String("type", string(entry.Type)),
		zap.Int("quantity", entry.Quantity),
		zap.Int("balance_after", entry.BalanceAfter))

	// 3. Broadcast only after commit
	s.announce(ctx, product, entry, actor)
	return entry, nil
}

// commit holds the product lock from the stock check through commit and
// releases it on every path.
func (s *ledgerService) commit(ctx context.Context, productID uuid.UUID, txType model.TransactionType, req *MovementRequest, actor string) (*model.Transaction, *model.Product, error) {
	unlock := s.locks.Lock(productID)
	defer unlock()

	var (
		entry   *model.Transaction
		product *model.Product
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := s.productRepo.WithTx(tx)

		p, err := products.LockByID(ctx, productID)
		if err != nil {
			return notFoundOr(err, "product", productID)
		}

		if txType == model.TxIn && p.Quantity > MaxStockQuantity-req.Quantity {
			return fmt.Errorf("%w: %s has %d, adding %d exceeds the limit of %d",
				ErrInvalidQuantity, p.SKU, p.Quantity, req.Quantity, MaxStockQuantity)
		}
		delta := txType.Sign() * req.Quantity
		newQuantity := p.Quantity + delta
		if newQuantity < 0 {
			return fmt.Errorf("%w: %s has %d, requested %d", ErrInsufficientStock, p.SKU, p.Quantity, req.Quantity)
		}

		at := s.clock.Next(p.LastMovementAt)
		if err := products.ApplyDelta(ctx, productID, delta, at, actor); err != nil {
			if errors.Is(err, repository.ErrStockConflict) {
				return fmt.Errorf("%w: %s changed concurrently", ErrInsufficientStock, p.SKU)
			}
			return err
		}

		e := &model.Transaction{
			ProductID:    productID,
			Type:         txType,
			Quantity:     req.Quantity,
			Notes:        req.Notes,
			BalanceAfter: newQuantity,
			UnitPrice:    p.Price,
			TotalAmount:  p.Price.Mul(decimal.NewFromInt(int64(req.Quantity))),
			CreatedBy:    actor,
			CreatedAt:    at,
		}
		if err := s.txRepo.WithTx(tx).Append(ctx, e); err != nil {
			return err
		}

		p.Quantity = newQuantity
		p.LastMovementAt = &at
		entry, product = e, p
		return nil
	})
	return entry, product, err
}

func (s *ledgerService) announce(ctx context.Context, p *model.Product, e *model.Transaction, actor string) {
	verb := "added"
	if e.Type == model.TxOut {
		verb = "removed"
	}
	event := model.NewStockEvent(model.ActionTransactionCreated, p, actor,
		fmt.Sprintf("%s %s %d units of '%s' (%s)", actor, verb, e.Quantity, p.Name, e.Type))
	event.Transaction = &model.EventTransaction{ID: e.ID, Type: e.Type, Quantity: e.Quantity}
	s.publish(ctx, event)

	if e.Type == model.TxOut && p.IsLowStock() {
		alert := model.NewStockEvent(model.ActionLowStock, p, actor,
			fmt.Sprintf("'%s' is low on stock: %d left (minimum %d)", p.Name, p.Quantity, p.MinStock))
		s.publish(ctx, alert)
	}
}

func (s *ledgerService) publish(ctx context.Context, event model.StockEvent) {
	if err := s.notifier.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish stock event", zap.String("action", event.Action), zap.Error(err))
	}
}

func (s *ledgerService) GetTransaction(ctx context.Context, id uint64) (*model.Transaction, error) {
	entry, err := s.txRepo.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: transaction %d", ErrNotFound, id)
		}
		return nil, err
	}
	return entry, nil
}

// ProductHistory returns the newest movements of a product, archived or not.
func (s *ledgerService) ProductHistory(ctx context.Context, productID uuid.UUID, limit int) ([]model.Transaction, error) {
	if limit <= 0 || limit > s.opts.HistoryLimit {
		limit = s.opts.HistoryLimit
	}
	if _, err := s.productRepo.FindByIDWithArchived(ctx, productID); err != nil {
		return nil, notFoundOr(err, "product", productID)
	}
	return s.txRepo.FindByProduct(ctx, productID, limit)
}

// Verify replays a product's log in commit order and compares the result
// with the stored quantity.
func (s *ledgerService) Verify(ctx context.Context, productID uuid.UUID) (*model.Reconciliation, error) {
	var rec *model.Reconciliation
	err := readSnapshot(ctx, s.db, func(tx *gorm.DB) error {
		p, err := s.productRepo.WithTx(tx).FindByIDWithArchived(ctx, productID)
		if err != nil {
			return notFoundOr(err, "product", productID)
		}
		r, err := s.replay(ctx, tx, p)
		if err != nil {
			return err
		}
		rec = &r
		return nil
	})
	return rec, err
}

// VerifyAll reconciles every active product in one snapshot and returns all
// results; callers filter on Consistent.
func (s *ledgerService) VerifyAll(ctx context.Context) ([]model.Reconciliation, error) {
	var out []model.Reconciliation
	err := readSnapshot(ctx, s.db, func(tx *gorm.DB) error {
		products, err := s.productRepo.WithTx(tx).FindAll(ctx, repository.ProductFilter{})
		if err != nil {
			return err
		}
		for i := range products {
			r, err := s.replay(ctx, tx, &products[i])
			if err != nil {
				return err
			}
			out = append(out, r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, r := range out {
		if !r.Consistent() {
			s.logger.Error("Ledger mismatch",
				zap.String("product_id", r.ProductID.String()),
				zap.Int("stored", r.Stored),
				zap.Int("replayed", r.Replayed))
		}
	}
	return out, nil
}

func (s *ledgerService) replay(ctx context.Context, tx *gorm.DB, p *model.Product) (model.Reconciliation, error) {
	entries, err := s.txRepo.WithTx(tx).FindLog(ctx, p.ID)
	if err != nil {
		return model.Reconciliation{}, err
	}
	rec := model.Reconciliation{ProductID: p.ID, SKU: p.SKU, Stored: p.Quantity, Transactions: len(entries)}
	for _, e := range entries {
		rec.Replayed += e.Delta()
		if rec.Replayed < 0 {
			rec.NegativeSeen = true
		}
	}
	return rec, nil
}
