package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CashRegister is a physical point-of-sale terminal tied to one shop.
// Immutable after creation; activation is toggled by the back office.
type CashRegister struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"not null"`
	ShopID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Active    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time
}

// Payment method kinds. Cash is the only kind that moves the physical drawer;
// card/qr/custom are exact-tender and never produce change.
const (
	MethodKindCash   = "cash"
	MethodKindCard   = "card"
	MethodKindQR     = "qr"
	MethodKindCustom = "custom"
)

// PaymentMethod holds the running balance of one tender channel (cash drawer,
// card float, QR wallet…). Balances are mutated only by payment reconciliation
// and return settlement.
type PaymentMethod struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name string    `gorm:"not null"`
	Kind string    `gorm:"type:varchar(20);not null"`
	// RegisterID assigns the method to one register; nil with Shared=true means
	// the method is available on every register of the shop.
	RegisterID     *uuid.UUID      `gorm:"type:uuid;index"`
	Shared         bool            `gorm:"not null;default:false"`
	CurrentBalance decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Active         bool            `gorm:"not null;default:true"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsCash reports whether this method moves the physical drawer.
func (m *PaymentMethod) IsCash() bool { return m.Kind == MethodKindCash }

// AvailableOn reports whether the method can be used on the given register.
func (m *PaymentMethod) AvailableOn(registerID uuid.UUID) bool {
	if !m.Active {
		return false
	}
	if m.Shared {
		return true
	}
	return m.RegisterID != nil && *m.RegisterID == registerID
}
