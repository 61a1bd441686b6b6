package infra

import (
	"fmt"

	"cashrecon/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens a GORM connection backed by pgx. With autoMigrate set it
// also creates the tables and applies the idempotent patches GORM cannot
// express. Without it the schema is expected to exist already; a missing table
// surfaces later as reconciliation.ErrStoreUnavailable.
func NewDatabase(dsn string, autoMigrate bool) (*gorm.DB, error) {
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

	if autoMigrate {
		if err := RunMigrations(db); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// RunMigrations creates every table the service reads or writes, then applies
// the schema patches. Also used by the integration tests.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.DailySnapshot{},
		&model.Sale{},
		&model.CreditPayment{},
		&model.Expense{},
		&model.Invoice{},
		&model.User{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot handle on its
// own. Each statement is guarded so re-running on a patched DB is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// snapshot amounts must never be negative, even when written by hand
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_daily_snapshots_non_negative') THEN
		    ALTER TABLE daily_snapshots ADD CONSTRAINT chk_daily_snapshots_non_negative
		      CHECK (COALESCE(cash_local, 0) >= 0 AND COALESCE(cash_ref, 0) >= 0
		         AND COALESCE(evc, 0) >= 0 AND COALESCE(wallet2, 0) >= 0
		         AND COALESCE(merchant, 0) >= 0);
		  END IF;
		END $$`,
		// partial index for the day-window query over completed sales
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_sales_completed_created_at') THEN
		    CREATE INDEX idx_sales_completed_created_at
		        ON sales (created_at)
		        WHERE status = 'completed';
		  END IF;
		END $$`,
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_users_role') THEN
		    ALTER TABLE users ADD CONSTRAINT chk_users_role CHECK (role IN ('operator', 'admin'));
		  END IF;
		END $$`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}
