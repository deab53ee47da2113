package service

import (
	"context"

	"go-inventory-ledger/internal/model"
)

// Notifier receives stock events after the change they describe has committed.
type Notifier interface {
	Publish(ctx context.Context, event model.StockEvent) error
}

type nopNotifier struct{}

func (nopNotifier) Publish(context.Context, model.StockEvent) error { return nil }

// NopNotifier drops every event.
var NopNotifier Notifier = nopNotifier{}
