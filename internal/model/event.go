package model

import (
	"time"

	"github.com/google/uuid"
)

// Stock event actions.
const (
	ActionProductCreated     = "product_created"
	ActionProductUpdated     = "product_updated"
	ActionProductArchived    = "product_archived"
	ActionTransactionCreated = "transaction_created"
	ActionLowStock           = "low_stock"
)

// StockEvent is published after a commit to websocket clients and Kafka.
type StockEvent struct {
	Type        string            `json:"type"`
	Action      string            `json:"action"`
	Product     EventProduct      `json:"product"`
	Transaction *EventTransaction `json:"transaction,omitempty"`
	Actor       string            `json:"actor"`
	Message     string            `json:"message"`
	Timestamp   time.Time         `json:"timestamp"`
}

type EventProduct struct {
	ID       uuid.UUID `json:"id"`
	SKU      string    `json:"sku"`
	Name     string    `json:"name"`
	Quantity int       `json:"quantity"`
	MinStock int       `json:"min_stock"`
}

type EventTransaction struct {
	ID       uint64          `json:"id"`
	Type     TransactionType `json:"type"`
	Quantity int             `json:"quantity"`
}

// NewStockEvent fills the envelope fields common to every event.
func NewStockEvent(action string, p *Product, actor, message string) StockEvent {
	return StockEvent{
		Type:   "stock_update",
		Action: action,
		Product: EventProduct{
			ID:       p.ID,
			SKU:      p.SKU,
			Name:     p.Name,
			Quantity: p.Quantity,
			MinStock: p.MinStock,
		},
		Actor:     actor,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}
