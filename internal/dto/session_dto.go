package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// OpeningFloat is a pointer so that an absent field is distinguishable from
// zero — the register may legitimately open with an empty drawer.
type OpenSessionRequest struct {
	OpeningFloat *decimal.Decimal `json:"opening_float" validate:"required"`
	TerminalID   *string          `json:"terminal_id"`
}

type CloseSessionRequest struct {
	// SessionID targets an explicit session; when omitted the currently open
	// session is resolved under lock.
	SessionID      *uint            `json:"session_id"`
	CountedBalance *decimal.Decimal `json:"counted_balance" validate:"required"`
	Notes          *string          `json:"notes"`
}

type SchedulePolicyRequest struct {
	OpenRule  string `json:"open_rule"  validate:"required"`
	CloseRule string `json:"close_rule" validate:"required"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SessionResponse struct {
	ID                 uint             `json:"id"`
	IsOpen             bool             `json:"is_open"`
	OpenedBy           uint             `json:"opened_by"`
	ClosedBy           *uint            `json:"closed_by"`
	OpenedAt           string           `json:"opened_at"`
	ClosedAt           *string          `json:"closed_at"`
	OpeningFloat       decimal.Decimal  `json:"opening_float"`
	ExpectedBalance    *decimal.Decimal `json:"expected_balance"`
	CountedBalance     *decimal.Decimal `json:"counted_balance"`
	Variance           *decimal.Decimal `json:"variance"`
	CumulativeVariance *decimal.Decimal `json:"cumulative_variance"`
	CumulativeDeficit  *decimal.Decimal `json:"cumulative_deficit"`
	OpenRule           string           `json:"open_rule"`
	CloseRule          string           `json:"close_rule"`
	TerminalID         *string          `json:"terminal_id"`
	Notes              *string          `json:"notes"`
}

// SessionSummary annotates a session with the prefix-sum metrics recomputed
// from the full ordered history on every request.
type SessionSummary struct {
	SessionResponse
	CumulativeVarianceBefore decimal.Decimal `json:"cumulative_variance_before"`
	CumulativeVarianceAll    decimal.Decimal `json:"cumulative_variance_all"`
	SameDayVariance          decimal.Decimal `json:"same_day_variance"`
	SameDayOpeningFloat      decimal.Decimal `json:"same_day_opening_float"`
}

type SessionListResponse struct {
	Data  []SessionSummary `json:"data"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

type ReconciliationResponse struct {
	Session        SessionResponse            `json:"session"`
	Movements      []MovementResponse         `json:"movements"`
	Sales          []SaleResponse             `json:"sales"`
	TotalsByMethod map[string]decimal.Decimal `json:"totals_by_method"`
	TotalEntradas  decimal.Decimal            `json:"total_entradas"`
	TotalRetiradas decimal.Decimal            `json:"total_retiradas"`

	CumulativeVarianceBefore decimal.Decimal `json:"cumulative_variance_before"`
	CumulativeVarianceAll    decimal.Decimal `json:"cumulative_variance_all"`
	SameDayVariance          decimal.Decimal `json:"same_day_variance"`
	SameDayOpeningFloat      decimal.Decimal `json:"same_day_opening_float"`
}
