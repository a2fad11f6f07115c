package infra

import (
	"fmt"

	"shoptill/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate to
// create / update all tables, then applies the idempotent SQL patches that GORM
// cannot express (the receipt number sequence and partial unique indexes).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
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
		&model.CashRegister{},
		&model.PaymentMethod{},
		&model.Product{},
		&model.CashShift{},
		&model.ShiftMovement{},
		&model.Receipt{},
		&model.ReceiptItem{},
		&model.ReturnTransaction{},
		&model.ReturnLine{},
		&model.ShiftClosing{},
		&model.ShiftClosingMethodTotal{},
	); err != nil {
		return nil, fmt.Errorf("AutoMigrate: %w", err)
	}

	if err := applySchemaPatches(db); err != nil {
		return nil, fmt.Errorf("schema patches: %w", err)
	}

	return db, nil
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot express.
// Each statement uses IF NOT EXISTS semantics so re-running is safe.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// Receipt numbers come from a dedicated sequence so they stay gapless
		// within a single connection and strictly increasing across registers.
		{"receipt number sequence",
			`CREATE SEQUENCE IF NOT EXISTS receipt_number_seq START 1`},

		// One OPEN shift per register and per cashier. The service checks first,
		// these indexes win any race it loses.
		{"single open shift per register", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_one_open_shift_per_register') THEN
    CREATE UNIQUE INDEX idx_one_open_shift_per_register
        ON cash_shifts (register_id)
        WHERE status = 'OPEN';
  END IF;
END $$`},
		{"single open shift per cashier", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_one_open_shift_per_cashier') THEN
    CREATE UNIQUE INDEX idx_one_open_shift_per_cashier
        ON cash_shifts (cashier_id)
        WHERE status = 'OPEN';
  END IF;
END $$`},

		// One in-flight draft per shift; ensureDraft relies on it.
		{"single draft receipt per shift", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_one_draft_receipt_per_shift') THEN
    CREATE UNIQUE INDEX idx_one_draft_receipt_per_shift
        ON receipts (shift_id)
        WHERE status = 'DRAFT';
  END IF;
END $$`},

		// Closing report worker scans for snapshots whose PDF never rendered.
		{"pending closing pdf index", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_closings_pending_pdf') THEN
    CREATE INDEX idx_closings_pending_pdf
        ON shift_closings (created_at)
        WHERE pdf_path IS NULL;
  END IF;
END $$`},
	}

	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
