package persistence

import (
	"context"

	"gorm.io/gorm"
)

// txKey carries an open transaction through the context so repositories
// called inside a unit of work join it transparently.
type txKey struct{}

// GormTransactionManager implements shared.TransactionManager on GORM.
type GormTransactionManager struct {
	db *gorm.DB
}

// NewGormTransactionManager creates a transaction manager.
func NewGormTransactionManager(db *gorm.DB) *GormTransactionManager {
	return &GormTransactionManager{db: db}
}

// WithTransaction runs fn inside a single database transaction. Every
// repository call made with the derived context writes through the same
// transaction; fn returning an error rolls everything back.
func (m *GormTransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// dbFromContext returns the transaction carried by the context, or the
// fallback handle bound to the context when no transaction is open.
func dbFromContext(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return fallback.WithContext(ctx)
}
