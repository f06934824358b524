package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/wmakeouthill/Mercearia-R-V-sub000/internal/model"
)

type AdjustmentRepository interface {
	CreateTx(tx *gorm.DB, a *model.SaleAdjustment) error
	ListByOrder(ctx context.Context, saleOrderID uint) ([]model.SaleAdjustment, error)
	// SumReturnedQuantityTx sums the quantities of prior return-type
	// adjustments against the item, inside the caller's transaction.
	SumReturnedQuantityTx(tx *gorm.DB, saleItemID uint) (int, error)
	SumReturnedByOrderTx(tx *gorm.DB, saleOrderID uint) (map[uint]int, error)
}

type adjustmentRepo struct{ db *gorm.DB }

func NewAdjustmentRepository(db *gorm.DB) AdjustmentRepository { return &adjustmentRepo{db: db} }

func (r *adjustmentRepo) CreateTx(tx *gorm.DB, a *model.SaleAdjustment) error {
	return tx.Create(a).Error
}

func (r *adjustmentRepo) ListByOrder(ctx context.Context, saleOrderID uint) ([]model.SaleAdjustment, error) {
	var adjs []model.SaleAdjustment
	err := r.db.WithContext(ctx).
		Where("sale_order_id = ?", saleOrderID).
		Order("created_at ASC").
		Find(&adjs).Error
	return adjs, err
}

func (r *adjustmentRepo) SumReturnedQuantityTx(tx *gorm.DB, saleItemID uint) (int, error) {
	var total int
	err := tx.Model(&model.SaleAdjustment{}).
		Where("sale_item_id = ? AND type = ?", saleItemID, model.AdjustmentReturn).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error
	return total, err
}

func (r *adjustmentRepo) SumReturnedByOrderTx(tx *gorm.DB, saleOrderID uint) (map[uint]int, error) {
	var rows []struct {
		SaleItemID uint
		Total      int
	}
	err := tx.Model(&model.SaleAdjustment{}).
		Where("sale_order_id = ? AND type = ?", saleOrderID, model.AdjustmentReturn).
		Select("sale_item_id, COALESCE(SUM(quantity), 0) AS total").
		Group("sale_item_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	sums := make(map[uint]int, len(rows))
	for _, row := range rows {
		sums[row.SaleItemID] = row.Total
	}
	return sums, nil
}
