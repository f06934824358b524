package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Supported payment methods.
const (
	PaymentCash       = "cash"
	PaymentCreditCard = "credit-card"
	PaymentDebitCard  = "debit-card"
	PaymentPix        = "pix"
)

// SaleStatusReturned marks an order whose every item has been fully returned.
const SaleStatusReturned = "RETURNED"

// SaleOrder is a completed multi-item, multi-payment checkout. It is the
// aggregate root for its items and payments: they are created atomically with
// the order and have no lifecycle of their own. Only adjustments may alter the
// order after creation (AdjustedTotal / Status).
type SaleOrder struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time

	Subtotal   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Discount   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Surcharge  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	FinalTotal decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// AdjustedTotal is the net total after returns; nil until the first
	// adjustment lands.
	AdjustedTotal *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Status        *string          `gorm:"type:varchar(20)"`

	CustomerName    *string
	CustomerContact *string
	Operator        string `gorm:"not null"`
	// SessionID is nullable: force-delete unlinks orders from their session.
	SessionID *uint `gorm:"index"`

	Items    []SaleItem    `gorm:"foreignKey:SaleOrderID"`
	Payments []SalePayment `gorm:"foreignKey:SaleOrderID"`
	Session  *CashSession  `gorm:"foreignKey:SessionID"`
}

func (SaleOrder) TableName() string { return "sale_orders" }

type SaleItem struct {
	ID          uint            `gorm:"primaryKey"`
	SaleOrderID uint            `gorm:"not null;index"`
	ProductID   uint            `gorm:"not null;index"`
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	Product *Product `gorm:"foreignKey:ProductID"`
}

func (SaleItem) TableName() string { return "sale_items" }

type SalePayment struct {
	ID          uint            `gorm:"primaryKey"`
	SaleOrderID uint            `gorm:"not null;index"`
	Method      string          `gorm:"type:varchar(20);not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ChangeGiven *decimal.Decimal `gorm:"type:decimal(12,2)"`
}

func (SalePayment) TableName() string { return "sale_payments" }

// ValidPaymentMethod reports whether m is one of the supported methods.
func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentCash, PaymentCreditCard, PaymentDebitCard, PaymentPix:
		return true
	}
	return false
}
