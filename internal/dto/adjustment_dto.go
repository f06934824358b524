package dto

import (
	"github.com/shopspring/decimal"

	"github.com/wmakeouthill/Mercearia-R-V-sub000/internal/model"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateAdjustmentRequest struct {
	Type       string `json:"type"         validate:"required,oneof=return exchange"`
	SaleItemID uint   `json:"sale_item_id" validate:"required"`
	Quantity   int    `json:"quantity"     validate:"required,gt=0"`

	PaymentMethod        *string          `json:"payment_method"`
	ReplacementProductID *uint            `json:"replacement_product_id"`
	PriceDifference      *decimal.Decimal `json:"price_difference"`
	// PaymentBreakdown is a forwarded (method, amount) split; it is stored on
	// the adjustment row as compact JSON for the audit trail.
	PaymentBreakdown []model.PaymentShare `json:"payment_breakdown"`
	Notes            *string              `json:"notes"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type AdjustmentResponse struct {
	AdjustmentID      uint             `json:"adjustment_id"`
	AdjustedTotal     decimal.Decimal  `json:"adjusted_total"`
	RemainingQuantity int              `json:"remaining_quantity"`
	Status            *string          `json:"status,omitempty"`
	Returned          []string         `json:"returned"`
	RefundAmount      *decimal.Decimal `json:"refund_amount,omitempty"`
}
