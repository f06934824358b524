package infra

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wmakeouthill/Mercearia-R-V-sub000/internal/model"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate to
// create / update all tables, then applies the partial index that GORM cannot
// express.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := db.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.CashSession{},
		&model.CashMovement{},
		&model.SaleOrder{},
		&model.SaleItem{},
		&model.SalePayment{},
		&model.SaleAdjustment{},
		&model.AuditRecord{},
	); err != nil {
		return nil, fmt.Errorf("AutoMigrate: %w", err)
	}

	// At most one open session may exist; the row-level locks in the service
	// layer enforce this at runtime, the partial unique index enforces it in
	// the schema.
	if err := db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_cash_sessions_open
		 ON cash_sessions (is_open) WHERE is_open`,
	).Error; err != nil {
		return nil, fmt.Errorf("open-session index: %w", err)
	}

	return db, nil
}
