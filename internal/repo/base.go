// Package repo holds the gorm plumbing shared by the domain repositories.
package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base carries the connection a repository runs on: the pool, or a
// transaction after Bind.
type Base struct {
	conn *gorm.DB
}

func NewBase(conn *gorm.DB) Base {
	return Base{conn: conn}
}

// Bind returns a copy running on tx. A nil tx keeps the current connection.
func (b Base) Bind(tx *gorm.DB) Base {
	if tx != nil {
		b.conn = tx
	}
	return b
}

// DB returns the connection carrying ctx for cancellation and tracing.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.conn
	}
	return b.conn.WithContext(ctx)
}

// ByID loads the row with primary key id into dest after preloading the
// named associations. A missing row yields gorm.ErrRecordNotFound.
func (b Base) ByID(ctx context.Context, dest any, id uint64, preload ...string) error {
	q := b.DB(ctx)
	for _, assoc := range preload {
		q = q.Preload(assoc)
	}
	return q.First(dest, "id = ?", id).Error
}
