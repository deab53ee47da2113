package database

import (
	"go-inventory-ledger/internal/model"

	"gorm.io/gorm"
)

// Migrate creates or updates the schema for every persisted entity.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Category{},
		&model.Supplier{},
		&model.Warehouse{},
		&model.Product{},
		&model.Transaction{},
	)
}
