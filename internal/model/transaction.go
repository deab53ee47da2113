package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TransactionType string

const (
	TxIn  TransactionType = "IN"
	TxOut TransactionType = "OUT"
)

// Sign returns +1 for IN and -1 for OUT.
func (t TransactionType) Sign() int {
	if t == TxOut {
		return -1
	}
	return 1
}

func (t TransactionType) Valid() bool {
	return t == TxIn || t == TxOut
}

var ErrTransactionImmutable = errors.New("committed transactions cannot be modified")

// Transaction is one committed stock movement. Rows are append-only;
// corrections are made with a compensating movement.
type Transaction struct {
	ID           uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Type         TransactionType `gorm:"type:varchar(10);not null" json:"type"`
	Quantity     int             `gorm:"not null" json:"quantity"`
	Notes        string          `gorm:"type:text" json:"notes"`
	BalanceAfter int             `gorm:"not null" json:"balance_after"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"unit_price"`
	TotalAmount  decimal.Decimal `gorm:"type:decimal(16,2);not null" json:"total_amount"` // Snapshot price * quantity
	CreatedBy    string          `gorm:"type:varchar(255)" json:"created_by"`
	CreatedAt    time.Time       `gorm:"not null;index" json:"created_at"`
}

// Delta is the signed quantity change this transaction applied.
func (t *Transaction) Delta() int {
	return t.Type.Sign() * t.Quantity
}

func (t *Transaction) BeforeUpdate(tx *gorm.DB) error {
	return ErrTransactionImmutable
}

func (t *Transaction) BeforeDelete(tx *gorm.DB) error {
	return ErrTransactionImmutable
}
