package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Movement kinds. Amounts are always positive; the kind carries the sign.
const (
	MovementEntrada  = "entrada"
	MovementRetirada = "retirada"
)

// CashMovement is a manual cash entry or withdrawal, or a compensating entry
// machine-generated by the adjustment processor. Movements are NEVER updated;
// only an administrator may delete one.
type CashMovement struct {
	ID          uint            `gorm:"primaryKey"`
	Kind        string          `gorm:"type:varchar(10);not null;index"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Description string          `gorm:"not null"`
	Reason      string
	UserID      uint `gorm:"not null"`
	// Operator is set instead of a human recorder when the movement was
	// emitted by a sale adjustment.
	Operator *string
	// SessionID is nullable: rows unlinked by a force-delete survive without
	// an owning session.
	SessionID *uint `gorm:"index"`
	CreatedAt time.Time

	User    *User        `gorm:"foreignKey:UserID"`
	Session *CashSession `gorm:"foreignKey:SessionID"`
}

func (CashMovement) TableName() string { return "cash_movements" }
