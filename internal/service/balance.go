package service

import (
	"github.com/shopspring/decimal"

	"github.com/wmakeouthill/Mercearia-R-V-sub000/internal/model"
)

// ExpectedBalance computes the cash a session's drawer should contain:
// opening float, plus manual entradas, minus manual retiradas, plus the cash
// payments of every sale linked to the session. Pure aggregation — evaluated
// once at close time and frozen afterwards.
func ExpectedBalance(openingFloat decimal.Decimal, movements []model.CashMovement, payments []model.SalePayment) decimal.Decimal {
	total := openingFloat
	for _, m := range movements {
		switch m.Kind {
		case model.MovementEntrada:
			total = total.Add(m.Amount)
		case model.MovementRetirada:
			total = total.Sub(m.Amount)
		}
	}
	for _, p := range payments {
		if p.Method == model.PaymentCash {
			total = total.Add(p.Amount)
		}
	}
	return total
}

// SessionMetrics are the prefix-sum reconciliation metrics of one session over
// the ordered history.
type SessionMetrics struct {
	// CumulativeBefore is the variance sum over sessions with a smaller id.
	CumulativeBefore decimal.Decimal
	// CumulativeVariance includes the session itself.
	CumulativeVariance decimal.Decimal
	// CumulativeDeficit is the running excess of negative variance over
	// positive variance up to and including the session, floored at zero.
	CumulativeDeficit decimal.Decimal
}

// PrefixMetrics scans sessions (which MUST be ordered ascending by id) once
// and returns the metrics for every session. Sessions without a variance
// (still open, or never closed) contribute zero.
func PrefixMetrics(ordered []model.CashSession) map[uint]SessionMetrics {
	out := make(map[uint]SessionMetrics, len(ordered))
	cum := decimal.Zero
	deficit := decimal.Zero
	for _, s := range ordered {
		variance := decimal.Zero
		if s.Variance != nil {
			variance = *s.Variance
		}
		before := cum
		cum = cum.Add(variance)
		// A shortfall (negative variance) grows the deficit; a surplus
		// recovers it, but never below zero.
		deficit = deficit.Sub(variance)
		if deficit.IsNegative() {
			deficit = decimal.Zero
		}
		out[s.ID] = SessionMetrics{
			CumulativeBefore:   before,
			CumulativeVariance: cum,
			CumulativeDeficit:  deficit,
		}
	}
	return out
}

// SameDayAggregates sums variance and opening float across every session whose
// open or close date falls on day (format "2006-01-02"). Matching is by
// calendar date only, not session identity.
func SameDayAggregates(ordered []model.CashSession, day string) (variance, openingFloat decimal.Decimal) {
	variance = decimal.Zero
	openingFloat = decimal.Zero
	for _, s := range ordered {
		matches := s.OpenedAt.Format("2006-01-02") == day
		if !matches && s.ClosedAt != nil {
			matches = s.ClosedAt.Format("2006-01-02") == day
		}
		if !matches {
			continue
		}
		if s.Variance != nil {
			variance = variance.Add(*s.Variance)
		}
		openingFloat = openingFloat.Add(s.OpeningFloat)
	}
	return variance, openingFloat
}
