package service

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

// readSnapshot runs fn inside one read transaction so multi-query reads see a
// single committed state. Postgres gets REPEATABLE READ; SQLite transactions
// are already serializable.
func readSnapshot(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	var opts []*sql.TxOptions
	if db.Dialector.Name() == "postgres" {
		opts = append(opts, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	}
	return db.WithContext(ctx).Transaction(fn, opts...)
}
