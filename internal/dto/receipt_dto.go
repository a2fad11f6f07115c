package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	// Quantity defaults to 1 when omitted.
	Quantity int `json:"quantity" validate:"omitempty,min=1"`
}

type UpdateQuantityRequest struct {
	// Quantity ≤ 0 removes the line.
	Quantity int `json:"quantity"`
}

type ApplyDiscountRequest struct {
	DiscountPercent decimal.Decimal `json:"discount_percent" validate:"required"`
}

type PayReceiptRequest struct {
	PaymentMethodID string          `json:"payment_method_id" validate:"required,uuid"`
	TenderedAmount  decimal.Decimal `json:"tendered_amount"   validate:"required"`
	// IdempotencyKey lets the server deduplicate a retried pay attempt instead
	// of committing a second payment.
	IdempotencyKey string `json:"idempotency_key" validate:"required,min=8,max=64"`
	// ReceiptVersion is the version the terminal last read; a mismatch means the
	// receipt changed underneath and the attempt is rejected outright.
	ReceiptVersion int `json:"receipt_version" validate:"min=0"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ReceiptItemResponse struct {
	ID              string          `json:"id"`
	ProductID       string          `json:"product_id"`
	ProductName     string          `json:"product_name"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Quantity        int             `json:"quantity"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	LineAmount      decimal.Decimal `json:"line_amount"`
	FinalAmount     decimal.Decimal `json:"final_amount"`
}

type ReceiptResponse struct {
	ID            string                `json:"id"`
	Number        int                   `json:"number"`
	ShiftID       string                `json:"shift_id"`
	Status        string                `json:"status"`
	Version       int                   `json:"version"`
	Items         []ReceiptItemResponse `json:"items"`
	Subtotal      decimal.Decimal       `json:"subtotal"`
	DiscountTotal decimal.Decimal       `json:"discount_total"`
	FinalAmount   decimal.Decimal       `json:"final_amount"`
	CreatedAt     string                `json:"created_at"`
}

type PaymentResponse struct {
	Receipt        ReceiptResponse `json:"receipt"`
	TenderedAmount decimal.Decimal `json:"tendered_amount"`
	ChangeAmount   decimal.Decimal `json:"change_amount"`
}
