package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wmakeouthill/Mercearia-R-V-sub000/internal/model"
)

// SessionRepository persists cash sessions. The *Locked variants take a live
// transaction and issue SELECT ... FOR UPDATE, serializing concurrent
// open/close/delete transitions on the singleton-open-session invariant.
type SessionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, s *model.CashSession) error
	Update(ctx context.Context, tx *gorm.DB, s *model.CashSession) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	FindByID(ctx context.Context, id uint) (*model.CashSession, error)
	FindLatest(ctx context.Context) (*model.CashSession, error)
	FindOpenLocked(ctx context.Context, tx *gorm.DB) (*model.CashSession, error)
	FindByIDLocked(ctx context.Context, tx *gorm.DB, id uint) (*model.CashSession, error)
	// FindOpen is the UNLOCKED lookup used by checkout/adjustment attachment.
	// It may race with a concurrent close; that race is accepted.
	FindOpen(ctx context.Context) (*model.CashSession, error)

	// ListOrdered returns the full session history ascending by id — the
	// authoritative input for prefix-sum metrics.
	ListOrdered(ctx context.Context) ([]model.CashSession, error)
	List(ctx context.Context, page, limit int) ([]model.CashSession, int64, error)

	// UpdatePolicy is a compare-and-swap on the optimistic version counter.
	// It returns the number of rows updated; zero means a concurrent write won.
	UpdatePolicy(ctx context.Context, id uint, version int, openRule, closeRule string) (int64, error)

	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type sessionRepo struct{ db *gorm.DB }

func NewSessionRepository(db *gorm.DB) SessionRepository { return &sessionRepo{db: db} }

func (r *sessionRepo) DB() *gorm.DB { return r.db }

func (r *sessionRepo) Create(ctx context.Context, tx *gorm.DB, s *model.CashSession) error {
	return tx.WithContext(ctx).Create(s).Error
}

func (r *sessionRepo) Update(ctx context.Context, tx *gorm.DB, s *model.CashSession) error {
	return tx.WithContext(ctx).Save(s).Error
}

func (r *sessionRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	return tx.WithContext(ctx).Delete(&model.CashSession{}, id).Error
}

func (r *sessionRepo) FindByID(ctx context.Context, id uint) (*model.CashSession, error) {
	var s model.CashSession
	err := r.db.WithContext(ctx).First(&s, id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) FindLatest(ctx context.Context) (*model.CashSession, error) {
	var s model.CashSession
	err := r.db.WithContext(ctx).Order("id DESC").First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) FindOpenLocked(ctx context.Context, tx *gorm.DB) (*model.CashSession, error) {
	var s model.CashSession
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("is_open = ?", true).
		Order("id DESC").
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) FindByIDLocked(ctx context.Context, tx *gorm.DB, id uint) (*model.CashSession, error) {
	var s model.CashSession
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&s, id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) FindOpen(ctx context.Context) (*model.CashSession, error) {
	var s model.CashSession
	err := r.db.WithContext(ctx).
		Where("is_open = ?", true).
		Order("id DESC").
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) ListOrdered(ctx context.Context) ([]model.CashSession, error) {
	var sessions []model.CashSession
	err := r.db.WithContext(ctx).Order("id ASC").Find(&sessions).Error
	return sessions, err
}

func (r *sessionRepo) List(ctx context.Context, page, limit int) ([]model.CashSession, int64, error) {
	var sessions []model.CashSession
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.CashSession{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := r.db.WithContext(ctx).
		Order("id DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&sessions).Error
	return sessions, total, err
}

func (r *sessionRepo) UpdatePolicy(ctx context.Context, id uint, version int, openRule, closeRule string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.CashSession{}).
		Where("id = ? AND version = ?", id, version).
		Updates(map[string]interface{}{
			"open_rule":  openRule,
			"close_rule": closeRule,
			"version":    version + 1,
		})
	return res.RowsAffected, res.Error
}
