package events

import (
	"context"
	"errors"

	"go-inventory-ledger/internal/model"
)

// Publisher matches service.Notifier without importing the service package.
type Publisher interface {
	Publish(ctx context.Context, event model.StockEvent) error
}

// Multi delivers each event to every publisher, even when an earlier one
// fails, and joins the errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, event model.StockEvent) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
