package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OpenShiftRequest struct {
	InitialAmount decimal.Decimal `json:"initial_amount" validate:"min=0"`
}

type CloseShiftRequest struct {
	Notes *string `json:"notes" validate:"omitempty,max=500"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ShiftResponse struct {
	ID            string           `json:"id"`
	RegisterID    string           `json:"register_id"`
	CashierID     string           `json:"cashier_id"`
	Status        string           `json:"status"`
	InitialAmount decimal.Decimal  `json:"initial_amount"`
	CurrentAmount decimal.Decimal  `json:"current_amount"`
	FinalAmount   *decimal.Decimal `json:"final_amount"`
	Notes         *string          `json:"notes"`
	OpenedAt      string           `json:"opened_at"`
	ClosedAt      *string          `json:"closed_at"`
}

// MethodTotalResponse is one payment method's reconciliation row in the
// closing report: total = sales − returns.
type MethodTotalResponse struct {
	PaymentMethodID string          `json:"payment_method_id"`
	MethodName      string          `json:"method_name"`
	MethodKind      string          `json:"method_kind"`
	Sales           decimal.Decimal `json:"sales"`
	Returns         decimal.Decimal `json:"returns"`
	Total           decimal.Decimal `json:"total"`
}

type ClosingReportResponse struct {
	ShiftID       string                `json:"shift_id"`
	RegisterID    string                `json:"register_id"`
	CashierID     string                `json:"cashier_id"`
	OpenedAt      string                `json:"opened_at"`
	ClosedAt      string                `json:"closed_at"`
	InitialAmount decimal.Decimal       `json:"initial_amount"`
	FinalAmount   decimal.Decimal       `json:"final_amount"`
	MethodTotals  []MethodTotalResponse `json:"method_totals"`
	TotalSales    decimal.Decimal       `json:"total_sales"`
	TotalReturns  decimal.Decimal       `json:"total_returns"`
	TotalNet      decimal.Decimal       `json:"total_net"`
	Notes         *string               `json:"notes"`
}

type ShiftListResponse struct {
	Data  []ShiftResponse `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}
