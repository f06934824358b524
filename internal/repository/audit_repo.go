package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/wmakeouthill/Mercearia-R-V-sub000/internal/model"
)

type AuditRepository interface {
	CreateTx(tx *gorm.DB, rec *model.AuditRecord) error
	Create(ctx context.Context, rec *model.AuditRecord) error
	List(ctx context.Context, page, limit int) ([]model.AuditRecord, int64, error)
}

type auditRepo struct{ db *gorm.DB }

func NewAuditRepository(db *gorm.DB) AuditRepository { return &auditRepo{db: db} }

func (r *auditRepo) CreateTx(tx *gorm.DB, rec *model.AuditRecord) error {
	return tx.Create(rec).Error
}

func (r *auditRepo) Create(ctx context.Context, rec *model.AuditRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *auditRepo) List(ctx context.Context, page, limit int) ([]model.AuditRecord, int64, error) {
	var recs []model.AuditRecord
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.AuditRecord{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := r.db.WithContext(ctx).
		Order("id DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&recs).Error
	return recs, total, err
}
