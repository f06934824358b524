package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/wmakeouthill/Mercearia-R-V-sub000/internal/model"
)

type ProductRepository interface {
	FindByID(ctx context.Context, id uint) (*model.Product, error)
	FindByIDTx(tx *gorm.DB, id uint) (*model.Product, error)
	List(ctx context.Context) ([]model.Product, error)
	// AdjustStockTx applies a relative stock delta atomically inside the
	// caller's transaction (negative for checkout, positive for restock).
	AdjustStockTx(tx *gorm.DB, id uint, delta int) error
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) FindByID(ctx context.Context, id uint) (*model.Product, error) {
	var p model.Product
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) FindByIDTx(tx *gorm.DB, id uint) (*model.Product, error) {
	var p model.Product
	if err := tx.First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) List(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).Where("active = ?", true).Order("name ASC").Find(&products).Error
	return products, err
}

func (r *productRepo) AdjustStockTx(tx *gorm.DB, id uint, delta int) error {
	return tx.Model(&model.Product{}).
		Where("id = ?", id).
		Update("stock", gorm.Expr("stock + ?", delta)).Error
}
