package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/wmakeouthill/Mercearia-R-V-sub000/internal/model"
)

type MovementRepository interface {
	Create(ctx context.Context, m *model.CashMovement) error
	CreateTx(tx *gorm.DB, m *model.CashMovement) error
	FindByID(ctx context.Context, id uint) (*model.CashMovement, error)
	Delete(ctx context.Context, id uint) error

	ListBySession(ctx context.Context, sessionID uint) ([]model.CashMovement, error)
	ListBySessionTx(tx *gorm.DB, sessionID uint) ([]model.CashMovement, error)
	ListAll(ctx context.Context) ([]model.CashMovement, error)

	CountBySessionTx(tx *gorm.DB, sessionID uint) (int64, error)
	// UnlinkSessionTx nulls the session reference of every movement owned by
	// sessionID and returns how many rows were touched.
	UnlinkSessionTx(tx *gorm.DB, sessionID uint) (int64, error)
}

type movementRepo struct{ db *gorm.DB }

func NewMovementRepository(db *gorm.DB) MovementRepository { return &movementRepo{db: db} }

func (r *movementRepo) Create(ctx context.Context, m *model.CashMovement) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *movementRepo) CreateTx(tx *gorm.DB, m *model.CashMovement) error {
	return tx.Create(m).Error
}

func (r *movementRepo) FindByID(ctx context.Context, id uint) (*model.CashMovement, error) {
	var m model.CashMovement
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *movementRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&model.CashMovement{}, id).Error
}

func (r *movementRepo) ListBySession(ctx context.Context, sessionID uint) ([]model.CashMovement, error) {
	var movs []model.CashMovement
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&movs).Error
	return movs, err
}

func (r *movementRepo) ListBySessionTx(tx *gorm.DB, sessionID uint) ([]model.CashMovement, error) {
	var movs []model.CashMovement
	err := tx.Where("session_id = ?", sessionID).Order("created_at ASC").Find(&movs).Error
	return movs, err
}

func (r *movementRepo) ListAll(ctx context.Context) ([]model.CashMovement, error) {
	var movs []model.CashMovement
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&movs).Error
	return movs, err
}

func (r *movementRepo) CountBySessionTx(tx *gorm.DB, sessionID uint) (int64, error) {
	var n int64
	err := tx.Model(&model.CashMovement{}).Where("session_id = ?", sessionID).Count(&n).Error
	return n, err
}

func (r *movementRepo) UnlinkSessionTx(tx *gorm.DB, sessionID uint) (int64, error) {
	res := tx.Model(&model.CashMovement{}).
		Where("session_id = ?", sessionID).
		Update("session_id", nil)
	return res.RowsAffected, res.Error
}
