package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CheckoutItemRequest struct {
	ProductID uint `json:"product_id" validate:"required"`
	Quantity  int  `json:"quantity"   validate:"required,gt=0"`
}

type PaymentRequest struct {
	Method string          `json:"method" validate:"required,oneof=cash credit-card debit-card pix"`
	Amount decimal.Decimal `json:"amount" validate:"required,gt=0"`
}

type CheckoutRequest struct {
	Items           []CheckoutItemRequest `json:"items"    validate:"required,min=1,dive"`
	Payments        []PaymentRequest      `json:"payments" validate:"required,min=1,dive"`
	Discount        decimal.Decimal       `json:"discount"  validate:"min=0"`
	Surcharge       decimal.Decimal       `json:"surcharge" validate:"min=0"`
	CustomerName    *string               `json:"customer_name"`
	CustomerContact *string               `json:"customer_contact"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SaleItemResponse struct {
	ID        uint            `json:"id"`
	ProductID uint            `json:"product_id"`
	Product   string          `json:"product,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type SalePaymentResponse struct {
	Method      string           `json:"method"`
	Amount      decimal.Decimal  `json:"amount"`
	ChangeGiven *decimal.Decimal `json:"change_given,omitempty"`
}

type SaleResponse struct {
	ID            uint                  `json:"id"`
	CreatedAt     string                `json:"created_at"`
	Subtotal      decimal.Decimal       `json:"subtotal"`
	Discount      decimal.Decimal       `json:"discount"`
	Surcharge     decimal.Decimal       `json:"surcharge"`
	FinalTotal    decimal.Decimal       `json:"final_total"`
	AdjustedTotal *decimal.Decimal      `json:"adjusted_total,omitempty"`
	Status        *string               `json:"status,omitempty"`
	Operator      string                `json:"operator"`
	SessionID     *uint                 `json:"session_id"`
	Items         []SaleItemResponse    `json:"items"`
	Payments      []SalePaymentResponse `json:"payments"`
	Change        decimal.Decimal       `json:"change"`
}
