package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateMovementRequest struct {
	Kind        string          `json:"kind"        validate:"required,oneof=entrada retirada"`
	Amount      decimal.Decimal `json:"amount"      validate:"required,gt=0"`
	Description string          `json:"description" validate:"required,min=3"`
	Reason      string          `json:"reason"`
}

// LedgerFilter selects rows from the merged manual-movement / sale-payment
// ledger. FromTime/ToTime are "HH:MM" time-of-day bounds.
type LedgerFilter struct {
	Kind     string `form:"kind"`   // entrada | retirada | sale
	Method   string `form:"method"` // cash | credit-card | debit-card | pix
	FromTime string `form:"from_time"`
	ToTime   string `form:"to_time"`
	Page     int    `form:"page"`
	Limit    int    `form:"limit"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type MovementResponse struct {
	ID          uint            `json:"id"`
	Kind        string          `json:"kind"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Reason      string          `json:"reason,omitempty"`
	UserID      uint            `json:"user_id"`
	Operator    *string         `json:"operator,omitempty"`
	SessionID   *uint           `json:"session_id"`
	CreatedAt   string          `json:"created_at"`
}

// LedgerRow is one merged ledger entry: either a manual movement or one
// synthetic row per (sale order × payment) pair, so a two-payment sale shows
// up twice and method filters can include sale revenue.
type LedgerRow struct {
	Source      string          `json:"source"` // manual | sale
	ID          uint            `json:"id"`
	Kind        string          `json:"kind"` // entrada | retirada | sale
	Method      *string         `json:"method,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	SessionID   *uint           `json:"session_id"`
	CreatedAt   string          `json:"created_at"`
}

// LedgerResponse carries running sums over the FILTERED set, not the whole
// history.
type LedgerResponse struct {
	Data           []LedgerRow     `json:"data"`
	TotalEntradas  decimal.Decimal `json:"total_entradas"`
	TotalRetiradas decimal.Decimal `json:"total_retiradas"`
	TotalSales     decimal.Decimal `json:"total_sales"`
	Total          int             `json:"total"`
	Page           int             `json:"page"`
	Limit          int             `json:"limit"`
}
