package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CashSession represents one open-to-close period of the physical cash drawer.
// At most one row may have IsOpen=true at any time — this invariant is enforced
// with a SELECT ... FOR UPDATE lookup, never with an application mutex, because
// several process instances may share the database.
type CashSession struct {
	ID         uint `gorm:"primaryKey"`
	IsOpen     bool `gorm:"not null;index;default:false"`
	OpenedByID uint `gorm:"not null"`
	ClosedByID *uint
	OpenedAt   time.Time
	ClosedAt   *time.Time

	OpeningFloat decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// ExpectedBalance is computed exactly once, at close:
	// openingFloat + entradas - retiradas + cash sale payments.
	// It is frozen afterwards, even if rows are re-linked later.
	ExpectedBalance *decimal.Decimal `gorm:"type:decimal(12,2)"`
	CountedBalance  *decimal.Decimal `gorm:"type:decimal(12,2)"`
	// Variance = CountedBalance - ExpectedBalance
	Variance *decimal.Decimal `gorm:"type:decimal(12,2)"`
	// CumulativeVariance / CumulativeDeficit are prefix sums over all sessions
	// ordered by id, materialized when this session closes.
	CumulativeVariance *decimal.Decimal `gorm:"type:decimal(12,2)"`
	CumulativeDeficit  *decimal.Decimal `gorm:"type:decimal(12,2)"`

	// OpenRule / CloseRule are the mandatory time-of-day policy strings
	// (e.g. "08:00"), copied from the previous session on open.
	OpenRule   string `gorm:"type:varchar(20);not null;default:''"`
	CloseRule  string `gorm:"type:varchar(20);not null;default:''"`
	TerminalID *string
	Notes      *string

	// Version guards flows that skip the pessimistic lock (schedule-policy
	// updates) against lost updates.
	Version int `gorm:"not null;default:0"`

	OpenedBy *User `gorm:"foreignKey:OpenedByID"`
	ClosedBy *User `gorm:"foreignKey:ClosedByID"`
}

func (CashSession) TableName() string { return "cash_sessions" }
