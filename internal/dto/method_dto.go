package dto

import "github.com/shopspring/decimal"

type PaymentMethodResponse struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Kind           string          `json:"kind"`
	RegisterID     *string         `json:"register_id"`
	Shared         bool            `json:"shared"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	Active         bool            `json:"active"`
}

type ProductResponse struct {
	ID        string          `json:"id"`
	Barcode   string          `json:"barcode"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Active    bool            `json:"active"`
}
