package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Adjustment types.
const (
	AdjustmentReturn   = "return"
	AdjustmentExchange = "exchange"
)

// SaleAdjustment records a post-sale return or exchange against one sale item.
// Rows are append-only; the summed return quantity against an item must never
// exceed the item's original quantity (enforced by the adjustment processor).
type SaleAdjustment struct {
	ID          uint   `gorm:"primaryKey"`
	SaleOrderID uint   `gorm:"not null;index"`
	SaleItemID  uint   `gorm:"not null;index"`
	Type        string `gorm:"type:varchar(10);not null"`
	Quantity    int    `gorm:"not null"`

	ReplacementProductID *uint
	PriceDifference      *decimal.Decimal `gorm:"type:decimal(12,2)"`
	PaymentMethod        *string          `gorm:"type:varchar(20)"`
	// PaymentBreakdown is a JSON-encoded list of {method, amount} pairs
	// forwarded by the client, kept for the audit trail.
	PaymentBreakdown *string
	Operator         string `gorm:"not null"`
	Notes            *string
	CreatedAt        time.Time

	SaleOrder *SaleOrder `gorm:"foreignKey:SaleOrderID"`
	SaleItem  *SaleItem  `gorm:"foreignKey:SaleItemID"`
}

func (SaleAdjustment) TableName() string { return "sale_adjustments" }

// PaymentShare is one (method, amount) pair of a forwarded payment breakdown.
type PaymentShare struct {
	Method string          `json:"method"`
	Amount decimal.Decimal `json:"amount"`
}
