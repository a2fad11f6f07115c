package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Return statuses. A settled return is terminal and never mutated again.
const (
	ReturnPending = "PENDING"
	ReturnSettled = "SETTLED"
)

// ReturnTransaction refunds merchandise within a shift, either linked to an
// original paid receipt (quantity-ceiling validated) or ad hoc.
type ReturnTransaction struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ShiftID uuid.UUID `gorm:"type:uuid;not null;index"`
	// OriginalReceiptID is nil for ad hoc (no-receipt) returns.
	OriginalReceiptID *uuid.UUID `gorm:"type:uuid;index"`
	Reason            *string
	Status            string          `gorm:"type:varchar(20);not null;default:'PENDING'"`
	RefundAmount      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// Settlement fields, written exactly once.
	PaymentMethodID *uuid.UUID       `gorm:"type:uuid"`
	SettledAmount   *decimal.Decimal `gorm:"type:decimal(12,2)"`
	IdempotencyKey  *string          `gorm:"uniqueIndex"`
	SettledAt       *time.Time
	CreatedAt       time.Time

	Lines []ReturnLine `gorm:"foreignKey:ReturnID"`
}

// ReturnLine is one returned product. RefundAmount already includes the
// proportional share of any original line discount.
type ReturnLine struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ReturnID     uuid.UUID       `gorm:"type:uuid;index;not null"`
	ProductID    uuid.UUID       `gorm:"type:uuid;not null"`
	ProductName  string          `gorm:"not null"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Quantity     int             `gorm:"not null"`
	RefundAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt    time.Time
}
