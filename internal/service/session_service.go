package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/wmakeouthill/Mercearia-R-V-sub000/internal/apierror"
	"github.com/wmakeouthill/Mercearia-R-V-sub000/internal/dto"
	"github.com/wmakeouthill/Mercearia-R-V-sub000/internal/model"
	"github.com/wmakeouthill/Mercearia-R-V-sub000/internal/repository"
	"github.com/wmakeouthill/Mercearia-R-V-sub000/internal/worker"
)

type SessionService interface {
	Open(ctx context.Context, actor Actor, req dto.OpenSessionRequest) (*dto.SessionResponse, error)
	Close(ctx context.Context, actor Actor, req dto.CloseSessionRequest) (*dto.SessionResponse, error)
	Status(ctx context.Context) *dto.SessionResponse
	ConfigureSchedulePolicy(ctx context.Context, actor Actor, req dto.SchedulePolicyRequest) (*dto.SessionResponse, error)
	DeleteSession(ctx context.Context, actor Actor, id uint) error
	ForceDeleteSession(ctx context.Context, actor Actor, id uint) error

	RecordMovement(ctx context.Context, actor Actor, req dto.CreateMovementRequest) (*dto.MovementResponse, error)
	DeleteMovement(ctx context.Context, actor Actor, id uint) error
}

type sessionService struct {
	sessions   repository.SessionRepository
	movements  repository.MovementRepository
	sales      repository.SaleRepository
	audit      repository.AuditRepository
	dispatcher *worker.Dispatcher
}

func NewSessionService(
	sessions repository.SessionRepository,
	movements repository.MovementRepository,
	sales repository.SaleRepository,
	audit repository.AuditRepository,
	dispatcher *worker.Dispatcher,
) SessionService {
	return &sessionService{
		sessions:   sessions,
		movements:  movements,
		sales:      sales,
		audit:      audit,
		dispatcher: dispatcher,
	}
}

// ── Open ──────────────────────────────────────────────────────────────────────
// A new session is always a fresh row; previous sessions are never reopened.
// The open-session lookup runs under FOR UPDATE so two concurrent opens cannot
// both observe "no open session".

func (s *sessionService) Open(ctx context.Context, actor Actor, req dto.OpenSessionRequest) (*dto.SessionResponse, error) {
	if !actor.ControlsCash() {
		return nil, apierror.Forbidden("cash control permission required")
	}
	if req.OpeningFloat == nil {
		return nil, apierror.InvalidInput("opening float is required")
	}
	if req.OpeningFloat.IsNegative() {
		return nil, apierror.InvalidInput("opening float cannot be negative")
	}

	sess := &model.CashSession{
		IsOpen:       true,
		OpenedByID:   actor.ID,
		OpenedAt:     time.Now(),
		OpeningFloat: *req.OpeningFloat,
		TerminalID:   req.TerminalID,
	}
	// Time-of-day policy carries over from the previous session; balances do not.
	if prev, err := s.sessions.FindLatest(ctx); err == nil {
		sess.OpenRule = prev.OpenRule
		sess.CloseRule = prev.CloseRule
	}

	txErr := runTx(ctx, s.sessions.DB(), func(tx *gorm.DB) error {
		existing, err := s.sessions.FindOpenLocked(ctx, tx)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if existing != nil {
			return apierror.Conflict(fmt.Sprintf("cash session %d is already open", existing.ID))
		}
		return s.sessions.Create(ctx, tx, sess)
	})
	if txErr != nil {
		return nil, txErr
	}
	return sessionToResponse(sess), nil
}

// ── Close ─────────────────────────────────────────────────────────────────────
// Resolves the target under FOR UPDATE, computes the expected balance from the
// rows linked at this moment, and materializes the prefix-sum metrics.

func (s *sessionService) Close(ctx context.Context, actor Actor, req dto.CloseSessionRequest) (*dto.SessionResponse, error) {
	if !actor.ControlsCash() {
		return nil, apierror.Forbidden("cash control permission required")
	}
	if req.CountedBalance == nil {
		return nil, apierror.InvalidInput("counted balance is required")
	}

	var sess *model.CashSession
	txErr := runTx(ctx, s.sessions.DB(), func(tx *gorm.DB) error {
		var err error
		if req.SessionID != nil {
			sess, err = s.sessions.FindByIDLocked(ctx, tx, *req.SessionID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierror.NotFound(fmt.Sprintf("cash session %d not found", *req.SessionID))
			}
		} else {
			sess, err = s.sessions.FindOpenLocked(ctx, tx)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierror.InvalidState("no open cash session")
			}
		}
		if err != nil {
			return err
		}
		if !sess.IsOpen {
			return apierror.InvalidState(fmt.Sprintf("cash session %d is already closed", sess.ID))
		}

		movements, err := s.movements.ListBySessionTx(tx, sess.ID)
		if err != nil {
			return err
		}
		orders, err := s.sales.ListBySessionTx(tx, sess.ID)
		if err != nil {
			return err
		}
		var payments []model.SalePayment
		for _, o := range orders {
			payments = append(payments, o.Payments...)
		}

		expected := ExpectedBalance(sess.OpeningFloat, movements, payments)
		variance := req.CountedBalance.Sub(expected)

		now := time.Now()
		closedBy := actor.ID
		sess.IsOpen = false
		sess.ClosedByID = &closedBy
		sess.ClosedAt = &now
		sess.ExpectedBalance = &expected
		sess.CountedBalance = req.CountedBalance
		sess.Variance = &variance
		sess.Notes = req.Notes
		sess.Version++

		// Materialize the prefix metrics over the whole history. Closed rows
		// are immutable and the only open row is locked by this transaction,
		// so the unlocked scan is stable.
		ordered, err := s.sessions.ListOrdered(ctx)
		if err != nil {
			return err
		}
		for i := range ordered {
			if ordered[i].ID == sess.ID {
				ordered[i].Variance = &variance
			}
		}
		m := PrefixMetrics(ordered)[sess.ID]
		cv, cd := m.CumulativeVariance, m.CumulativeDeficit
		sess.CumulativeVariance = &cv
		sess.CumulativeDeficit = &cd

		return s.sessions.Update(ctx, tx, sess)
	})
	if txErr != nil {
		return nil, txErr
	}

	// Best-effort summary mail for the back office.
	if s.dispatcher != nil {
		_ = s.dispatcher.EnqueueClosingSummary(ctx, worker.ClosingSummaryPayload{
			SessionID:       sess.ID,
			ClosedBy:        actor.Name,
			ClosedAt:        sess.ClosedAt.Format(time.RFC3339),
			ExpectedBalance: sess.ExpectedBalance.String(),
			CountedBalance:  sess.CountedBalance.String(),
			Variance:        sess.Variance.String(),
		})
	}
	return sessionToResponse(sess), nil
}

// ── Status ────────────────────────────────────────────────────────────────────
// Never errors: a shop that has never opened its register reports a synthetic
// closed session with id 1.

func (s *sessionService) Status(ctx context.Context) *dto.SessionResponse {
	latest, err := s.sessions.FindLatest(ctx)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn().Err(err).Msg("session status lookup failed, reporting default")
		}
		return sessionToResponse(&model.CashSession{ID: 1, IsOpen: false, OpeningFloat: decimal.Zero})
	}
	return sessionToResponse(latest)
}

// ── ConfigureSchedulePolicy ───────────────────────────────────────────────────
// Policy updates skip the pessimistic lock; the optimistic version counter
// turns a concurrent write into a Conflict instead of a silent overwrite.

func (s *sessionService) ConfigureSchedulePolicy(ctx context.Context, actor Actor, req dto.SchedulePolicyRequest) (*dto.SessionResponse, error) {
	if !actor.IsAdmin() {
		return nil, apierror.Forbidden("administrator role required")
	}

	latest, err := s.sessions.FindLatest(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// No history yet: seed a closed row carrying the policy.
		seed := &model.CashSession{
			IsOpen:       false,
			OpenedByID:   actor.ID,
			OpenedAt:     time.Now(),
			OpeningFloat: decimal.Zero,
			OpenRule:     req.OpenRule,
			CloseRule:    req.CloseRule,
		}
		if err := s.sessions.Create(ctx, s.sessions.DB(), seed); err != nil {
			return nil, err
		}
		return sessionToResponse(seed), nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.sessions.UpdatePolicy(ctx, latest.ID, latest.Version, req.OpenRule, req.CloseRule)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, apierror.Conflict("session was modified concurrently, retry the policy update")
	}
	latest.OpenRule = req.OpenRule
	latest.CloseRule = req.CloseRule
	latest.Version++
	return sessionToResponse(latest), nil
}

// ── DeleteSession ─────────────────────────────────────────────────────────────

func (s *sessionService) DeleteSession(ctx context.Context, actor Actor, id uint) error {
	if !actor.IsAdmin() {
		return apierror.Forbidden("administrator role required")
	}
	return runTx(ctx, s.sessions.DB(), func(tx *gorm.DB) error {
		sess, err := s.sessions.FindByIDLocked(ctx, tx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierror.NotFound(fmt.Sprintf("cash session %d not found", id))
		}
		if err != nil {
			return err
		}
		if sess.IsOpen {
			return apierror.InvalidState("cannot delete an open cash session")
		}
		nMov, err := s.movements.CountBySessionTx(tx, id)
		if err != nil {
			return err
		}
		nSales, err := s.sales.CountBySessionTx(tx, id)
		if err != nil {
			return err
		}
		if nMov > 0 || nSales > 0 {
			return apierror.Conflict(fmt.Sprintf(
				"session %d still has %d movements and %d sale orders linked; unlink them first or force-delete", id, nMov, nSales))
		}
		return s.sessions.Delete(ctx, tx, id)
	})
}

// ── ForceDeleteSession ────────────────────────────────────────────────────────
// Unlinks every referencing row, writes one audit record with the unlink
// counts, then removes the session. Open sessions are still refused.

func (s *sessionService) ForceDeleteSession(ctx context.Context, actor Actor, id uint) error {
	if !actor.IsAdmin() {
		return apierror.Forbidden("administrator role required")
	}
	var audit *model.AuditRecord
	txErr := runTx(ctx, s.sessions.DB(), func(tx *gorm.DB) error {
		sess, err := s.sessions.FindByIDLocked(ctx, tx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierror.NotFound(fmt.Sprintf("cash session %d not found", id))
		}
		if err != nil {
			return err
		}
		if sess.IsOpen {
			return apierror.InvalidState("cannot delete an open cash session")
		}

		nMov, err := s.movements.UnlinkSessionTx(tx, id)
		if err != nil {
			return err
		}
		nSales, err := s.sales.UnlinkSessionTx(tx, id)
		if err != nil {
			return err
		}

		target := id
		audit = &model.AuditRecord{
			ActorID: actor.ID,
			Action:  "session.force_delete",
			Observation: fmt.Sprintf(
				"unlinked %d movements and %d sale orders before deleting session %d", nMov, nSales, id),
			TargetID: &target,
		}
		if err := s.audit.CreateTx(tx, audit); err != nil {
			return err
		}
		return s.sessions.Delete(ctx, tx, id)
	})
	if txErr != nil {
		return txErr
	}

	// Best-effort async export to the external audit sink.
	if s.dispatcher != nil && audit != nil {
		_ = s.dispatcher.EnqueueAuditExport(ctx, worker.AuditExportPayload{
			AuditID:     audit.ID,
			ActorID:     audit.ActorID,
			Action:      audit.Action,
			Observation: audit.Observation,
			TargetID:    audit.TargetID,
		})
	}
	return nil
}

// ── RecordMovement ────────────────────────────────────────────────────────────
// Manual entrada/retirada against the currently open session.

func (s *sessionService) RecordMovement(ctx context.Context, actor Actor, req dto.CreateMovementRequest) (*dto.MovementResponse, error) {
	if !actor.ControlsCash() {
		return nil, apierror.Forbidden("cash control permission required")
	}
	if req.Kind != model.MovementEntrada && req.Kind != model.MovementRetirada {
		return nil, apierror.InvalidInput("kind must be entrada or retirada")
	}
	if !req.Amount.IsPositive() {
		return nil, apierror.InvalidInput("amount must be greater than zero")
	}

	open, err := s.sessions.FindOpen(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.InvalidState("no open cash session")
	}
	if err != nil {
		return nil, err
	}

	mov := &model.CashMovement{
		Kind:        req.Kind,
		Amount:      req.Amount,
		Description: req.Description,
		Reason:      req.Reason,
		UserID:      actor.ID,
		SessionID:   &open.ID,
		CreatedAt:   time.Now(),
	}
	if err := s.movements.Create(ctx, mov); err != nil {
		return nil, err
	}
	resp := movementToResponse(mov)
	return &resp, nil
}

// ── DeleteMovement ────────────────────────────────────────────────────────────

func (s *sessionService) DeleteMovement(ctx context.Context, actor Actor, id uint) error {
	if !actor.IsAdmin() {
		return apierror.Forbidden("administrator role required")
	}
	mov, err := s.movements.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apierror.NotFound(fmt.Sprintf("movement %d not found", id))
	}
	if err != nil {
		return err
	}
	if err := s.movements.Delete(ctx, mov.ID); err != nil {
		return err
	}

	target := mov.ID
	rec := &model.AuditRecord{
		ActorID:     actor.ID,
		Action:      "movement.delete",
		Observation: fmt.Sprintf("deleted %s movement of %s (%s)", mov.Kind, mov.Amount.StringFixed(2), mov.Description),
		TargetID:    &target,
	}
	if err := s.audit.Create(ctx, rec); err != nil {
		log.Warn().Err(err).Uint("movement_id", id).Msg("audit record for movement deletion failed")
	}
	return nil
}
