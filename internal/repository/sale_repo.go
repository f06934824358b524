package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/wmakeouthill/Mercearia-R-V-sub000/internal/model"
)

type SaleRepository interface {
	Create(ctx context.Context, tx *gorm.DB, o *model.SaleOrder) error
	FindByID(ctx context.Context, id uint) (*model.SaleOrder, error)
	FindByIDTx(tx *gorm.DB, id uint) (*model.SaleOrder, error)

	ListBySession(ctx context.Context, sessionID uint) ([]model.SaleOrder, error)
	ListBySessionTx(tx *gorm.DB, sessionID uint) ([]model.SaleOrder, error)
	ListAll(ctx context.Context) ([]model.SaleOrder, error)

	// UpdateAdjustedTx stores the recomputed net total and, when status is
	// non-nil, the terminal status marker.
	UpdateAdjustedTx(tx *gorm.DB, id uint, adjustedTotal decimal.Decimal, status *string) error

	CountBySessionTx(tx *gorm.DB, sessionID uint) (int64, error)
	UnlinkSessionTx(tx *gorm.DB, sessionID uint) (int64, error)

	DB() *gorm.DB
}

type saleRepo struct{ db *gorm.DB }

func NewSaleRepository(db *gorm.DB) SaleRepository { return &saleRepo{db: db} }

func (r *saleRepo) DB() *gorm.DB { return r.db }

func (r *saleRepo) Create(ctx context.Context, tx *gorm.DB, o *model.SaleOrder) error {
	return tx.WithContext(ctx).Create(o).Error
}

func (r *saleRepo) FindByID(ctx context.Context, id uint) (*model.SaleOrder, error) {
	var o model.SaleOrder
	err := r.db.WithContext(ctx).
		Preload("Items.Product").Preload("Payments").
		First(&o, id).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *saleRepo) FindByIDTx(tx *gorm.DB, id uint) (*model.SaleOrder, error) {
	var o model.SaleOrder
	err := tx.Preload("Items.Product").Preload("Payments").First(&o, id).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *saleRepo) ListBySession(ctx context.Context, sessionID uint) ([]model.SaleOrder, error) {
	var orders []model.SaleOrder
	err := r.db.WithContext(ctx).
		Preload("Items.Product").Preload("Payments").
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&orders).Error
	return orders, err
}

func (r *saleRepo) ListBySessionTx(tx *gorm.DB, sessionID uint) ([]model.SaleOrder, error) {
	var orders []model.SaleOrder
	err := tx.Preload("Payments").
		Where("session_id = ?", sessionID).
		Find(&orders).Error
	return orders, err
}

func (r *saleRepo) ListAll(ctx context.Context) ([]model.SaleOrder, error) {
	var orders []model.SaleOrder
	err := r.db.WithContext(ctx).
		Preload("Payments").
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

func (r *saleRepo) UpdateAdjustedTx(tx *gorm.DB, id uint, adjustedTotal decimal.Decimal, status *string) error {
	updates := map[string]interface{}{"adjusted_total": adjustedTotal}
	if status != nil {
		updates["status"] = *status
	}
	return tx.Model(&model.SaleOrder{}).Where("id = ?", id).Updates(updates).Error
}

func (r *saleRepo) CountBySessionTx(tx *gorm.DB, sessionID uint) (int64, error) {
	var n int64
	err := tx.Model(&model.SaleOrder{}).Where("session_id = ?", sessionID).Count(&n).Error
	return n, err
}

func (r *saleRepo) UnlinkSessionTx(tx *gorm.DB, sessionID uint) (int64, error) {
	res := tx.Model(&model.SaleOrder{}).
		Where("session_id = ?", sessionID).
		Update("session_id", nil)
	return res.RowsAffected, res.Error
}
