package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Shift statuses. One canonical uppercase enumeration; request input is
// normalized at the boundary via NormalizeShiftStatus.
const (
	ShiftStatusOpen    = "OPEN"
	ShiftStatusClosing = "CLOSING"
	ShiftStatusClosed  = "CLOSED"
	// ShiftStatusInterrupted is set by the back office on abandoned shifts; no
	// local operation produces it.
	ShiftStatusInterrupted = "INTERRUPTED"
)

// NormalizeShiftStatus maps boundary input ("open", "Open"…) onto the canonical
// enumeration. Unknown values are returned uppercased for the caller to reject.
func NormalizeShiftStatus(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// CashShift is a bounded working session of one cashier on one register.
// CurrentAmount tracks cash only: every completed cash sale adds its final
// amount, every settled cash return subtracts its refund. Non-cash methods
// never touch it.
type CashShift struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RegisterID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	CashierID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Status        string          `gorm:"type:varchar(20);not null;default:'OPEN'"`
	InitialAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CurrentAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// FinalAmount is captured from CurrentAmount at the OPEN→CLOSING edge and
	// never changes afterwards.
	FinalAmount *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Notes       *string
	OpenedAt    time.Time
	ClosedAt    *time.Time

	Movements []ShiftMovement `gorm:"foreignKey:ShiftID"`
}

// IsOpen reports whether receipt/return activity is still allowed. CLOSING is
// a hard cut-off: the closing snapshot must not drift after it is computed.
func (s *CashShift) IsOpen() bool { return s.Status == ShiftStatusOpen }

// Shift movement kinds. Sales and returns are distinct ledger columns — a
// return is never recorded as a negated sale, preserving audit granularity
// for the closing report.
const (
	MovementSale   = "SALE"
	MovementReturn = "RETURN"
)

// ShiftMovement is an immutable event in the shift's per-method ledger.
// Movements are NEVER modified or deleted.
type ShiftMovement struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ShiftID         uuid.UUID       `gorm:"type:uuid;index;not null"`
	Kind            string          `gorm:"type:varchar(20);not null"`
	PaymentMethodID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// ReceiptID / ReturnID link the movement to its originating transaction.
	ReceiptID *uuid.UUID `gorm:"type:uuid"`
	ReturnID  *uuid.UUID `gorm:"type:uuid"`
	CreatedAt time.Time
}
