// Package repo holds the pieces every GORM repository embeds.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/civictrack/civictrack-backend/pkg/pagination"
)

// Base carries the connection a repository queries through. It is either
// the pool or an open transaction.
type Base struct {
	conn *gorm.DB
}

func NewBase(conn *gorm.DB) Base {
	return Base{conn: conn}
}

// DB returns the connection with ctx attached for cancellation and tracing.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.conn
	}
	return b.conn.WithContext(ctx)
}

// WithTx rebinds the base to tx; the receiver is left untouched.
func (b Base) WithTx(tx *gorm.DB) Base {
	b.conn = tx
	return b
}

// Exists reports whether model has at least one row matching the query.
func (b Base) Exists(ctx context.Context, model any, query string, args ...any) (bool, error) {
	var n int64
	err := b.DB(ctx).Model(model).Where(query, args...).Limit(1).Count(&n).Error
	return n > 0, err
}

// Page runs query twice: once to count every match and once to load the
// requested page in the given order. query must return a fresh statement
// on each call.
func Page[T any](query func() *gorm.DB, page pagination.Params, order ...string) ([]T, int64, error) {
	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	rows := make([]T, 0)
	if total == 0 {
		return rows, 0, nil
	}
	page = pagination.Normalize(page)
	stmt := query()
	for _, o := range order {
		stmt = stmt.Order(o)
	}
	if err := stmt.Offset(page.Offset()).Limit(page.Limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
