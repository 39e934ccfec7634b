// Package repo holds the embeddable foundation shared by the domain
// repositories.
package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base carries the GORM handle for a repository and its transaction-rebinding
// behavior, so each domain repo only defines queries.
type Base struct {
	db *gorm.DB
}

// NewBase wraps a GORM connection.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the handle bound to ctx.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// WithTx returns a Base bound to tx; a nil tx keeps the current handle.
func (b Base) WithTx(tx *gorm.DB) Base {
	if tx == nil {
		return b
	}
	return Base{db: tx}
}
