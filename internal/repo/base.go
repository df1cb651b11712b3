package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base is embedded by the simple domain repositories so they all resolve
// their connection the same way.
type Base struct {
	conn *gorm.DB
}

// NewBase wraps a GORM connection for embedding.
func NewBase(conn *gorm.DB) Base {
	return Base{conn: conn}
}

// DB returns the connection scoped to ctx. A nil ctx returns the raw
// connection, which keeps constructor-time statements usable.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.conn
	}
	return b.conn.WithContext(ctx)
}
