package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Receipt statuses.
const (
	ReceiptDraft     = "DRAFT"
	ReceiptPaid      = "PAID"
	ReceiptCancelled = "CANCELLED"
)

// NormalizeReceiptStatus maps boundary input onto the canonical enumeration.
func NormalizeReceiptStatus(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Receipt is a sale: freely editable while DRAFT, immutable once PAID or
// CANCELLED. Totals are derived from the items and recomputed on every line
// mutation — they are never independently stored state that can drift.
type Receipt struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Number  int       `gorm:"uniqueIndex;not null"`
	ShiftID uuid.UUID `gorm:"type:uuid;not null;index"`
	Status  string    `gorm:"type:varchar(20);not null;default:'DRAFT'"`
	// Version increments on every line mutation; payment carries the version it
	// read so a stale pay attempt is rejected instead of silently merged.
	Version       int             `gorm:"not null;default:0"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DiscountTotal decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	FinalAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// Settlement fields, written exactly once when the receipt becomes PAID.
	PaymentMethodID *uuid.UUID       `gorm:"type:uuid"`
	TenderedAmount  *decimal.Decimal `gorm:"type:decimal(12,2)"`
	ChangeAmount    *decimal.Decimal `gorm:"type:decimal(12,2)"`
	IdempotencyKey  *string          `gorm:"uniqueIndex"`
	PaidAt          *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Items []ReceiptItem `gorm:"foreignKey:ReceiptID"`
}

// ReceiptItem is one line of a receipt. LineAmount, DiscountAmount and
// FinalAmount are derived; Recalculate is the only writer.
type ReceiptItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ReceiptID uuid.UUID `gorm:"type:uuid;index;not null"`
	ProductID uuid.UUID `gorm:"type:uuid;not null"`
	// ProductName is denormalized at add time so paid receipts survive catalog edits.
	ProductName     string          `gorm:"not null"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Quantity        int             `gorm:"not null"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	DiscountAmount  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	LineAmount      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	FinalAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

var oneHundred = decimal.NewFromInt(100)

// Recalculate recomputes the item's derived amounts from unit price, quantity
// and discount percent:
//
//	lineAmount     = unitPrice × quantity
//	discountAmount = lineAmount × discountPercent / 100
//	finalAmount    = lineAmount − discountAmount
func (it *ReceiptItem) Recalculate() {
	it.LineAmount = it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))).Round(2)
	it.DiscountAmount = it.LineAmount.Mul(it.DiscountPercent).Div(oneHundred).Round(2)
	it.FinalAmount = it.LineAmount.Sub(it.DiscountAmount)
}

// Recalculate recomputes the receipt totals as a pure function of its items.
func (r *Receipt) Recalculate() {
	subtotal := decimal.Zero
	discount := decimal.Zero
	final := decimal.Zero
	for i := range r.Items {
		it := &r.Items[i]
		subtotal = subtotal.Add(it.LineAmount)
		discount = discount.Add(it.DiscountAmount)
		final = final.Add(it.FinalAmount)
	}
	r.Subtotal = subtotal
	r.DiscountTotal = discount
	r.FinalAmount = final
}
