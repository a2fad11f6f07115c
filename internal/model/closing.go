package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ShiftClosing is the immutable reconciliation snapshot produced exactly once
// when a shift closes. It is independent of any later change to payment-method
// configuration: method names and kinds are copied into the per-method rows.
type ShiftClosing struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ShiftID       uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null"`
	RegisterID    uuid.UUID       `gorm:"type:uuid;not null"`
	CashierID     uuid.UUID       `gorm:"type:uuid;not null"`
	OpenedAt      time.Time
	ClosedAt      time.Time
	InitialAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	FinalAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalSales    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalReturns  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalNet      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Notes         *string
	// PDFPath is filled by the closing-report worker after rendering.
	PDFPath   *string `gorm:"column:pdf_path"`
	CreatedAt time.Time

	MethodTotals []ShiftClosingMethodTotal `gorm:"foreignKey:ClosingID"`
}

// ShiftClosingMethodTotal is one payment method's reconciliation row:
// total = sales − returns. For the cash method, total equals
// finalAmount − initialAmount; non-cash totals are informational only.
type ShiftClosingMethodTotal struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ClosingID       uuid.UUID       `gorm:"type:uuid;index;not null"`
	PaymentMethodID uuid.UUID       `gorm:"type:uuid;not null"`
	MethodName      string          `gorm:"not null"`
	MethodKind      string          `gorm:"type:varchar(20);not null"`
	Sales           decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Returns         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Total           decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}
