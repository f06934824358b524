package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/wmakeouthill/Mercearia-R-V-sub000/internal/apierror"
	"github.com/wmakeouthill/Mercearia-R-V-sub000/internal/dto"
	"github.com/wmakeouthill/Mercearia-R-V-sub000/internal/model"
	"github.com/wmakeouthill/Mercearia-R-V-sub000/internal/repository"
)

// ReportService assembles reconciliation and ledger views. These are read
// paths: they take no locks, and internal computation failures degrade to
// empty sections instead of blocking register operation.
type ReportService interface {
	Reconciliation(ctx context.Context, sessionID uint) (*dto.ReconciliationResponse, error)
	ListSessions(ctx context.Context, page, limit int) (*dto.SessionListResponse, error)
	Ledger(ctx context.Context, filter dto.LedgerFilter) *dto.LedgerResponse
}

type reportService struct {
	sessions  repository.SessionRepository
	movements repository.MovementRepository
	sales     repository.SaleRepository
}

func NewReportService(
	sessions repository.SessionRepository,
	movements repository.MovementRepository,
	sales repository.SaleRepository,
) ReportService {
	return &reportService{sessions: sessions, movements: movements, sales: sales}
}

// ── Reconciliation ────────────────────────────────────────────────────────────

func (s *reportService) Reconciliation(ctx context.Context, sessionID uint) (*dto.ReconciliationResponse, error) {
	sess, err := s.sessions.FindByID(ctx, sessionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound(fmt.Sprintf("cash session %d not found", sessionID))
	}
	if err != nil {
		return nil, err
	}

	resp := &dto.ReconciliationResponse{
		Session:        *sessionToResponse(sess),
		Movements:      []dto.MovementResponse{},
		Sales:          []dto.SaleResponse{},
		TotalsByMethod: map[string]decimal.Decimal{},
		TotalEntradas:  decimal.Zero,
		TotalRetiradas: decimal.Zero,
	}

	movements, err := s.movements.ListBySession(ctx, sessionID)
	if err != nil {
		log.Warn().Err(err).Uint("session_id", sessionID).Msg("reconciliation: movement listing failed")
		movements = nil
	}
	for i := range movements {
		resp.Movements = append(resp.Movements, movementToResponse(&movements[i]))
		switch movements[i].Kind {
		case model.MovementEntrada:
			resp.TotalEntradas = resp.TotalEntradas.Add(movements[i].Amount)
		case model.MovementRetirada:
			resp.TotalRetiradas = resp.TotalRetiradas.Add(movements[i].Amount)
		}
	}

	orders, err := s.sales.ListBySession(ctx, sessionID)
	if err != nil {
		log.Warn().Err(err).Uint("session_id", sessionID).Msg("reconciliation: sale listing failed")
		orders = nil
	}
	for i := range orders {
		resp.Sales = append(resp.Sales, *saleToResponse(&orders[i]))
		for _, p := range orders[i].Payments {
			resp.TotalsByMethod[p.Method] = resp.TotalsByMethod[p.Method].Add(p.Amount)
		}
	}

	ordered, err := s.sessions.ListOrdered(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("reconciliation: session history scan failed")
		return resp, nil
	}
	metrics := PrefixMetrics(ordered)
	resp.CumulativeVarianceBefore = metrics[sessionID].CumulativeBefore
	if len(ordered) > 0 {
		resp.CumulativeVarianceAll = metrics[ordered[len(ordered)-1].ID].CumulativeVariance
	}
	day := sess.OpenedAt.Format("2006-01-02")
	resp.SameDayVariance, resp.SameDayOpeningFloat = SameDayAggregates(ordered, day)

	return resp, nil
}

// ── ListSessions ──────────────────────────────────────────────────────────────
// The per-session metrics are recomputed from one full ordered scan per
// request; the materialized fields written at close time must agree with
// these at steady state.

func (s *reportService) ListSessions(ctx context.Context, page, limit int) (*dto.SessionListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	sessions, total, err := s.sessions.List(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	ordered, err := s.sessions.ListOrdered(ctx)
	if err != nil {
		return nil, err
	}
	metrics := PrefixMetrics(ordered)
	cumulativeAll := decimal.Zero
	if len(ordered) > 0 {
		cumulativeAll = metrics[ordered[len(ordered)-1].ID].CumulativeVariance
	}

	data := make([]dto.SessionSummary, 0, len(sessions))
	for i := range sessions {
		sess := &sessions[i]
		day := sess.OpenedAt.Format("2006-01-02")
		sameVar, sameFloat := SameDayAggregates(ordered, day)
		data = append(data, dto.SessionSummary{
			SessionResponse:          *sessionToResponse(sess),
			CumulativeVarianceBefore: metrics[sess.ID].CumulativeBefore,
			CumulativeVarianceAll:    cumulativeAll,
			SameDayVariance:          sameVar,
			SameDayOpeningFloat:      sameFloat,
		})
	}
	return &dto.SessionListResponse{Data: data, Total: total, Page: page, Limit: limit}, nil
}

// ── Ledger ────────────────────────────────────────────────────────────────────
// Merges manual movements with one synthetic row per (sale × payment) pair so
// that "filter by payment method" includes sale revenue. Running sums cover
// the FILTERED set, not the whole history. Defensive: failures yield an empty
// page rather than an error.

func (s *reportService) Ledger(ctx context.Context, filter dto.LedgerFilter) *dto.LedgerResponse {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 200 {
		filter.Limit = 50
	}
	resp := &dto.LedgerResponse{
		Data:           []dto.LedgerRow{},
		TotalEntradas:  decimal.Zero,
		TotalRetiradas: decimal.Zero,
		TotalSales:     decimal.Zero,
		Page:           filter.Page,
		Limit:          filter.Limit,
	}

	movements, err := s.movements.ListAll(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("ledger: movement listing failed")
		return resp
	}
	orders, err := s.sales.ListAll(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("ledger: sale listing failed")
		return resp
	}

	type entry struct {
		row dto.LedgerRow
		at  time.Time
	}
	var entries []entry
	for i := range movements {
		m := &movements[i]
		entries = append(entries, entry{
			at: m.CreatedAt,
			row: dto.LedgerRow{
				Source:      "manual",
				ID:          m.ID,
				Kind:        m.Kind,
				Amount:      m.Amount,
				Description: m.Description,
				SessionID:   m.SessionID,
				CreatedAt:   m.CreatedAt.UTC().Format(tsLayout),
			},
		})
	}
	for i := range orders {
		o := &orders[i]
		for j := range o.Payments {
			p := &o.Payments[j]
			method := p.Method
			entries = append(entries, entry{
				at: o.CreatedAt,
				row: dto.LedgerRow{
					Source:      "sale",
					ID:          o.ID,
					Kind:        "sale",
					Method:      &method,
					Amount:      p.Amount,
					Description: fmt.Sprintf("sale #%d (%s)", o.ID, p.Method),
					SessionID:   o.SessionID,
					CreatedAt:   o.CreatedAt.UTC().Format(tsLayout),
				},
			})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].at.After(entries[j].at) })

	var filtered []dto.LedgerRow
	for _, e := range entries {
		if filter.Kind != "" && e.row.Kind != filter.Kind {
			continue
		}
		if filter.Method != "" && (e.row.Method == nil || *e.row.Method != filter.Method) {
			continue
		}
		if !withinTimeOfDay(e.at, filter.FromTime, filter.ToTime) {
			continue
		}
		switch e.row.Kind {
		case model.MovementEntrada:
			resp.TotalEntradas = resp.TotalEntradas.Add(e.row.Amount)
		case model.MovementRetirada:
			resp.TotalRetiradas = resp.TotalRetiradas.Add(e.row.Amount)
		default:
			resp.TotalSales = resp.TotalSales.Add(e.row.Amount)
		}
		filtered = append(filtered, e.row)
	}

	resp.Total = len(filtered)
	start := (filter.Page - 1) * filter.Limit
	if start < len(filtered) {
		end := start + filter.Limit
		if end > len(filtered) {
			end = len(filtered)
		}
		resp.Data = filtered[start:end]
	}
	return resp
}

// withinTimeOfDay checks t's local clock time against optional "HH:MM" bounds.
// Malformed bounds are ignored.
func withinTimeOfDay(t time.Time, from, to string) bool {
	minutes := t.Hour()*60 + t.Minute()
	if from != "" {
		if f, err := time.Parse("15:04", from); err == nil {
			if minutes < f.Hour()*60+f.Minute() {
				return false
			}
		}
	}
	if to != "" {
		if u, err := time.Parse("15:04", to); err == nil {
			if minutes > u.Hour()*60+u.Minute() {
				return false
			}
		}
	}
	return true
}
