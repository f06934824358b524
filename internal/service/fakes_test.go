package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/wmakeouthill/Mercearia-R-V-sub000/internal/model"
)

// ─── In-memory SessionRepository ─────────────────────────────────────────────

type memSessionRepo struct {
	sessions []*model.CashSession
	nextID   uint
}

func newMemSessionRepo() *memSessionRepo { return &memSessionRepo{nextID: 1} }

func (r *memSessionRepo) DB() *gorm.DB { return nil }

func (r *memSessionRepo) Create(_ context.Context, _ *gorm.DB, s *model.CashSession) error {
	s.ID = r.nextID
	r.nextID++
	r.sessions = append(r.sessions, s)
	return nil
}

func (r *memSessionRepo) Update(_ context.Context, _ *gorm.DB, s *model.CashSession) error {
	for i := range r.sessions {
		if r.sessions[i].ID == s.ID {
			r.sessions[i] = s
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *memSessionRepo) Delete(_ context.Context, _ *gorm.DB, id uint) error {
	for i := range r.sessions {
		if r.sessions[i].ID == id {
			r.sessions = append(r.sessions[:i], r.sessions[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *memSessionRepo) FindByID(_ context.Context, id uint) (*model.CashSession, error) {
	for _, s := range r.sessions {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memSessionRepo) FindByIDLocked(ctx context.Context, _ *gorm.DB, id uint) (*model.CashSession, error) {
	return r.FindByID(ctx, id)
}

func (r *memSessionRepo) FindLatest(_ context.Context) (*model.CashSession, error) {
	if len(r.sessions) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	latest := r.sessions[0]
	for _, s := range r.sessions {
		if s.ID > latest.ID {
			latest = s
		}
	}
	return latest, nil
}

func (r *memSessionRepo) FindOpen(_ context.Context) (*model.CashSession, error) {
	for _, s := range r.sessions {
		if s.IsOpen {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memSessionRepo) FindOpenLocked(ctx context.Context, _ *gorm.DB) (*model.CashSession, error) {
	return r.FindOpen(ctx)
}

func (r *memSessionRepo) ListOrdered(_ context.Context) ([]model.CashSession, error) {
	out := make([]model.CashSession, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, *s)
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].ID < out[i].ID {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (r *memSessionRepo) List(ctx context.Context, page, limit int) ([]model.CashSession, int64, error) {
	ordered, _ := r.ListOrdered(ctx)
	// Newest first, like the SQL implementation.
	for i, j := 0, len(ordered)-1; i < j; i, j = i+1, j-1 {
		ordered[i], ordered[j] = ordered[j], ordered[i]
	}
	total := int64(len(ordered))
	start := (page - 1) * limit
	if start >= len(ordered) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(ordered) {
		end = len(ordered)
	}
	return ordered[start:end], total, nil
}

func (r *memSessionRepo) UpdatePolicy(_ context.Context, id uint, version int, openRule, closeRule string) (int64, error) {
	for _, s := range r.sessions {
		if s.ID == id && s.Version == version {
			s.OpenRule = openRule
			s.CloseRule = closeRule
			s.Version++
			return 1, nil
		}
	}
	return 0, nil
}

// ─── In-memory MovementRepository ────────────────────────────────────────────

type memMovementRepo struct {
	movements []*model.CashMovement
	nextID    uint
}

func newMemMovementRepo() *memMovementRepo { return &memMovementRepo{nextID: 1} }

func (r *memMovementRepo) Create(_ context.Context, m *model.CashMovement) error {
	m.ID = r.nextID
	r.nextID++
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	r.movements = append(r.movements, m)
	return nil
}

func (r *memMovementRepo) CreateTx(_ *gorm.DB, m *model.CashMovement) error {
	return r.Create(context.Background(), m)
}

func (r *memMovementRepo) FindByID(_ context.Context, id uint) (*model.CashMovement, error) {
	for _, m := range r.movements {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memMovementRepo) Delete(_ context.Context, id uint) error {
	for i := range r.movements {
		if r.movements[i].ID == id {
			r.movements = append(r.movements[:i], r.movements[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *memMovementRepo) ListBySession(_ context.Context, sessionID uint) ([]model.CashMovement, error) {
	var out []model.CashMovement
	for _, m := range r.movements {
		if m.SessionID != nil && *m.SessionID == sessionID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *memMovementRepo) ListBySessionTx(_ *gorm.DB, sessionID uint) ([]model.CashMovement, error) {
	return r.ListBySession(context.Background(), sessionID)
}

func (r *memMovementRepo) ListAll(_ context.Context) ([]model.CashMovement, error) {
	out := make([]model.CashMovement, 0, len(r.movements))
	for _, m := range r.movements {
		out = append(out, *m)
	}
	return out, nil
}

func (r *memMovementRepo) CountBySessionTx(tx *gorm.DB, sessionID uint) (int64, error) {
	list, _ := r.ListBySessionTx(tx, sessionID)
	return int64(len(list)), nil
}

func (r *memMovementRepo) UnlinkSessionTx(_ *gorm.DB, sessionID uint) (int64, error) {
	var n int64
	for _, m := range r.movements {
		if m.SessionID != nil && *m.SessionID == sessionID {
			m.SessionID = nil
			n++
		}
	}
	return n, nil
}

// ─── In-memory SaleRepository ────────────────────────────────────────────────

type memSaleRepo struct {
	orders     []*model.SaleOrder
	nextID     uint
	nextItemID uint
}

func newMemSaleRepo() *memSaleRepo { return &memSaleRepo{nextID: 1, nextItemID: 1} }

func (r *memSaleRepo) DB() *gorm.DB { return nil }

func (r *memSaleRepo) Create(_ context.Context, _ *gorm.DB, o *model.SaleOrder) error {
	o.ID = r.nextID
	r.nextID++
	for i := range o.Items {
		o.Items[i].ID = r.nextItemID
		o.Items[i].SaleOrderID = o.ID
		r.nextItemID++
	}
	for i := range o.Payments {
		o.Payments[i].SaleOrderID = o.ID
	}
	r.orders = append(r.orders, o)
	return nil
}

func (r *memSaleRepo) FindByID(_ context.Context, id uint) (*model.SaleOrder, error) {
	for _, o := range r.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memSaleRepo) FindByIDTx(_ *gorm.DB, id uint) (*model.SaleOrder, error) {
	return r.FindByID(context.Background(), id)
}

func (r *memSaleRepo) ListBySession(_ context.Context, sessionID uint) ([]model.SaleOrder, error) {
	var out []model.SaleOrder
	for _, o := range r.orders {
		if o.SessionID != nil && *o.SessionID == sessionID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *memSaleRepo) ListBySessionTx(_ *gorm.DB, sessionID uint) ([]model.SaleOrder, error) {
	return r.ListBySession(context.Background(), sessionID)
}

func (r *memSaleRepo) ListAll(_ context.Context) ([]model.SaleOrder, error) {
	out := make([]model.SaleOrder, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (r *memSaleRepo) UpdateAdjustedTx(_ *gorm.DB, id uint, adjustedTotal decimal.Decimal, status *string) error {
	for _, o := range r.orders {
		if o.ID == id {
			t := adjustedTotal
			o.AdjustedTotal = &t
			if status != nil {
				o.Status = status
			}
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *memSaleRepo) CountBySessionTx(tx *gorm.DB, sessionID uint) (int64, error) {
	list, _ := r.ListBySessionTx(tx, sessionID)
	return int64(len(list)), nil
}

func (r *memSaleRepo) UnlinkSessionTx(_ *gorm.DB, sessionID uint) (int64, error) {
	var n int64
	for _, o := range r.orders {
		if o.SessionID != nil && *o.SessionID == sessionID {
			o.SessionID = nil
			n++
		}
	}
	return n, nil
}

// ─── In-memory AdjustmentRepository ──────────────────────────────────────────

type memAdjustmentRepo struct {
	adjustments []*model.SaleAdjustment
	nextID      uint
}

func newMemAdjustmentRepo() *memAdjustmentRepo { return &memAdjustmentRepo{nextID: 1} }

func (r *memAdjustmentRepo) CreateTx(_ *gorm.DB, a *model.SaleAdjustment) error {
	a.ID = r.nextID
	r.nextID++
	r.adjustments = append(r.adjustments, a)
	return nil
}

func (r *memAdjustmentRepo) ListByOrder(_ context.Context, saleOrderID uint) ([]model.SaleAdjustment, error) {
	var out []model.SaleAdjustment
	for _, a := range r.adjustments {
		if a.SaleOrderID == saleOrderID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *memAdjustmentRepo) SumReturnedQuantityTx(_ *gorm.DB, saleItemID uint) (int, error) {
	total := 0
	for _, a := range r.adjustments {
		if a.SaleItemID == saleItemID && a.Type == model.AdjustmentReturn {
			total += a.Quantity
		}
	}
	return total, nil
}

func (r *memAdjustmentRepo) SumReturnedByOrderTx(_ *gorm.DB, saleOrderID uint) (map[uint]int, error) {
	sums := make(map[uint]int)
	for _, a := range r.adjustments {
		if a.SaleOrderID == saleOrderID && a.Type == model.AdjustmentReturn {
			sums[a.SaleItemID] += a.Quantity
		}
	}
	return sums, nil
}

// ─── In-memory ProductRepository ─────────────────────────────────────────────

type memProductRepo struct {
	products map[uint]*model.Product
}

func newMemProductRepo(products ...*model.Product) *memProductRepo {
	r := &memProductRepo{products: make(map[uint]*model.Product)}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

func (r *memProductRepo) FindByID(_ context.Context, id uint) (*model.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *memProductRepo) FindByIDTx(_ *gorm.DB, id uint) (*model.Product, error) {
	return r.FindByID(context.Background(), id)
}

func (r *memProductRepo) List(_ context.Context) ([]model.Product, error) {
	var out []model.Product
	for _, p := range r.products {
		if p.Active {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *memProductRepo) AdjustStockTx(_ *gorm.DB, id uint, delta int) error {
	p, ok := r.products[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Stock += delta
	return nil
}

// ─── In-memory AuditRepository ───────────────────────────────────────────────

type memAuditRepo struct {
	records []*model.AuditRecord
	nextID  uint
}

func newMemAuditRepo() *memAuditRepo { return &memAuditRepo{nextID: 1} }

func (r *memAuditRepo) CreateTx(_ *gorm.DB, rec *model.AuditRecord) error {
	rec.ID = r.nextID
	r.nextID++
	r.records = append(r.records, rec)
	return nil
}

func (r *memAuditRepo) Create(_ context.Context, rec *model.AuditRecord) error {
	return r.CreateTx(nil, rec)
}

func (r *memAuditRepo) List(_ context.Context, _, _ int) ([]model.AuditRecord, int64, error) {
	out := make([]model.AuditRecord, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, *rec)
	}
	return out, int64(len(out)), nil
}

// ─── Common fixtures ─────────────────────────────────────────────────────────

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var (
	adminActor   = Actor{ID: 1, Name: "Alice Admin", Role: model.RoleAdmin}
	cashierActor = Actor{ID: 2, Name: "Carol Cashier", Role: model.RoleCashier, CanControlCashRegister: true}
	clerkActor   = Actor{ID: 3, Name: "Bob Clerk", Role: model.RoleCashier} // no cash control
)
