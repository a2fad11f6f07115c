package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the slim catalog entry the terminal sells from. Catalog
// maintenance (and stock accounting) lives in the back office; the register
// only resolves names and unit prices from it.
type Product struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Barcode   string          `gorm:"uniqueIndex;not null"`
	Name      string          `gorm:"index;not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Active    bool            `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
