package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the minimal inventory record the register depends on: checkout
// decrements Stock, adjustments restore it. The full catalog lives elsewhere.
type Product struct {
	ID        uint            `gorm:"primaryKey"`
	Name      string          `gorm:"index;not null"`
	Barcode   *string         `gorm:"uniqueIndex"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Stock     int             `gorm:"not null;default:0"`
	Active    bool            `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Product) TableName() string { return "products" }
