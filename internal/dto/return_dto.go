package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// ReturnLineRequest describes one returned product. UnitPrice is only consulted
// for ad hoc returns; receipt-linked returns price lines from the original sale.
type ReturnLineRequest struct {
	ProductID string           `json:"product_id" validate:"required,uuid"`
	Quantity  int              `json:"quantity"   validate:"required,min=1"`
	UnitPrice *decimal.Decimal `json:"unit_price" validate:"omitempty"`
}

// CreateReturnRequest creates a return. With ReceiptNumber set, every line is
// validated against the original sale's remaining quantity; without it the
// return is free-form.
type CreateReturnRequest struct {
	ReceiptNumber *int                `json:"receipt_number" validate:"omitempty,min=1"`
	Lines         []ReturnLineRequest `json:"lines"          validate:"required,min=1,dive"`
	Reason        *string             `json:"reason"         validate:"omitempty,max=500"`
}

type SettleReturnRequest struct {
	PaymentMethodID string          `json:"payment_method_id" validate:"required,uuid"`
	Amount          decimal.Decimal `json:"amount"            validate:"required"`
	IdempotencyKey  string          `json:"idempotency_key"   validate:"required,min=8,max=64"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ReturnLineResponse struct {
	ProductID    string          `json:"product_id"`
	ProductName  string          `json:"product_name"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Quantity     int             `json:"quantity"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
}

type ReturnResponse struct {
	ID                string               `json:"id"`
	ShiftID           string               `json:"shift_id"`
	OriginalReceiptID *string              `json:"original_receipt_id"`
	Status            string               `json:"status"`
	Lines             []ReturnLineResponse `json:"lines"`
	Reason            *string              `json:"reason"`
	RefundAmount      decimal.Decimal      `json:"refund_amount"`
	PaymentMethodID   *string              `json:"payment_method_id"`
	SettledAmount     *decimal.Decimal     `json:"settled_amount"`
	CreatedAt         string               `json:"created_at"`
}
