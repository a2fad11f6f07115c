package service

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Session is the authenticated operator context every terminal operation runs
// under. It is resolved once by the auth middleware; services never parse
// tokens themselves.
type Session struct {
	UserID     uuid.UUID
	Username   string
	Role       string
	RegisterID uuid.UUID
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}
