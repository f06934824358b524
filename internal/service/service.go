package service

import (
	"context"

	"gorm.io/gorm"

	"github.com/wmakeouthill/Mercearia-R-V-sub000/internal/dto"
	"github.com/wmakeouthill/Mercearia-R-V-sub000/internal/model"
)

// Actor is the identity/permission snapshot of the current request, derived
// from the JWT claims. The services treat it as an opaque capability check.
type Actor struct {
	ID                     uint
	Name                   string
	Role                   string
	CanControlCashRegister bool
}

func (a Actor) IsAdmin() bool { return a.Role == model.RoleAdmin }

// ControlsCash reports whether the actor may open/close sessions and record
// movements. Admins hold the capability implicitly.
func (a Actor) ControlsCash() bool { return a.CanControlCashRegister || a.IsAdmin() }

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

const tsLayout = "2006-01-02T15:04:05Z"

// ── DTO mapping ───────────────────────────────────────────────────────────────

func sessionToResponse(s *model.CashSession) *dto.SessionResponse {
	resp := &dto.SessionResponse{
		ID:                 s.ID,
		IsOpen:             s.IsOpen,
		OpenedBy:           s.OpenedByID,
		ClosedBy:           s.ClosedByID,
		OpenedAt:           s.OpenedAt.UTC().Format(tsLayout),
		OpeningFloat:       s.OpeningFloat,
		ExpectedBalance:    s.ExpectedBalance,
		CountedBalance:     s.CountedBalance,
		Variance:           s.Variance,
		CumulativeVariance: s.CumulativeVariance,
		CumulativeDeficit:  s.CumulativeDeficit,
		OpenRule:           s.OpenRule,
		CloseRule:          s.CloseRule,
		TerminalID:         s.TerminalID,
		Notes:              s.Notes,
	}
	if s.ClosedAt != nil {
		t := s.ClosedAt.UTC().Format(tsLayout)
		resp.ClosedAt = &t
	}
	return resp
}

func movementToResponse(m *model.CashMovement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:          m.ID,
		Kind:        m.Kind,
		Amount:      m.Amount,
		Description: m.Description,
		Reason:      m.Reason,
		UserID:      m.UserID,
		Operator:    m.Operator,
		SessionID:   m.SessionID,
		CreatedAt:   m.CreatedAt.UTC().Format(tsLayout),
	}
}

func saleToResponse(o *model.SaleOrder) *dto.SaleResponse {
	items := make([]dto.SaleItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		name := ""
		if item.Product != nil {
			name = item.Product.Name
		}
		items = append(items, dto.SaleItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Product:   name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal,
		})
	}
	payments := make([]dto.SalePaymentResponse, 0, len(o.Payments))
	for _, p := range o.Payments {
		payments = append(payments, dto.SalePaymentResponse{
			Method:      p.Method,
			Amount:      p.Amount,
			ChangeGiven: p.ChangeGiven,
		})
	}
	return &dto.SaleResponse{
		ID:            o.ID,
		CreatedAt:     o.CreatedAt.UTC().Format(tsLayout),
		Subtotal:      o.Subtotal,
		Discount:      o.Discount,
		Surcharge:     o.Surcharge,
		FinalTotal:    o.FinalTotal,
		AdjustedTotal: o.AdjustedTotal,
		Status:        o.Status,
		Operator:      o.Operator,
		SessionID:     o.SessionID,
		Items:         items,
		Payments:      payments,
	}
}
