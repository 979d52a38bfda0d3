package database

import (
	"fmt"

	"gorm.io/gorm"
)

// EnsureSchema applies (idempotent) hardening migrations on top of
// AutoMigrate:
// - Money column types (NUMERIC(12,2))
// - Indexes (vouchers, ledger entries, eligible-invoice scans)
// - Foreign key: payment_vouchers.invoice_id → purchase_invoices.id (RESTRICT)
// - CHECK constraints guarding the balance invariants at the storage layer
func EnsureSchema() error {
	return DB.Transaction(func(tx *gorm.DB) error {
		// --- Enforce money columns as NUMERIC(12,2) (idempotent ALTERs) ---
		alters := []string{
			`ALTER TABLE purchase_invoices      ALTER COLUMN total_amount    TYPE numeric(12,2)`,
			`ALTER TABLE purchase_invoices      ALTER COLUMN paid_amount     TYPE numeric(12,2)`,
			`ALTER TABLE purchase_invoices      ALTER COLUMN due_amount      TYPE numeric(12,2)`,
			`ALTER TABLE purchase_invoice_items ALTER COLUMN unit_price      TYPE numeric(12,2)`,
			`ALTER TABLE purchase_invoice_items ALTER COLUMN net_price       TYPE numeric(12,2)`,
			`ALTER TABLE payment_vouchers       ALTER COLUMN amount          TYPE numeric(12,2)`,
			`ALTER TABLE ledger_entries         ALTER COLUMN amount          TYPE numeric(12,2)`,
			`ALTER TABLE vendors                ALTER COLUMN current_balance TYPE numeric(12,2)`,
			`ALTER TABLE chart_of_accounts      ALTER COLUMN current_balance TYPE numeric(12,2)`,
		}
		for _, stmt := range alters {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("money type migration failed on: %s - %w", stmt, err)
			}
		}

		// --- Composite / helpful indexes (idempotent) ---
		indexes := []string{
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_vouchers_company_number ON payment_vouchers (company_id, voucher_number)`,
			`CREATE INDEX IF NOT EXISTS idx_vouchers_company_payment_date ON payment_vouchers (company_id, payment_date)`,
			`CREATE INDEX IF NOT EXISTS idx_ledger_reference ON ledger_entries (reference_type, reference_id)`,
			`CREATE INDEX IF NOT EXISTS idx_invoices_company_status_due ON purchase_invoices (company_id, status, due_date)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_sequences_company_name ON voucher_sequences (company_id, name)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_idempotency_keys_company_key ON idempotency_keys (company_id, key)`,
		}
		for _, stmt := range indexes {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("index migration failed on: %s - %w", stmt, err)
			}
		}

		// --- Foreign key: payment_vouchers.invoice_id -> purchase_invoices.id ---
		fk := `
DO $$
BEGIN
	IF NOT EXISTS (
		SELECT 1
		FROM pg_constraint
		WHERE conrelid = 'payment_vouchers'::regclass
		  AND conname  = 'fk_payment_vouchers_invoice'
	) THEN
		ALTER TABLE payment_vouchers
		ADD CONSTRAINT fk_payment_vouchers_invoice
		FOREIGN KEY (invoice_id)
		REFERENCES purchase_invoices(id)
		ON UPDATE RESTRICT
		ON DELETE RESTRICT;
	END IF;
END $$;`
		if err := tx.Exec(fk).Error; err != nil {
			return fmt.Errorf("foreign key migration failed: %w", err)
		}

		// --- CHECK constraints backing the balance invariants ---
		checks := []string{
			// Voucher amount strictly positive
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'payment_vouchers'::regclass
					  AND conname  = 'chk_payment_vouchers_amount_pos'
				) THEN
					ALTER TABLE payment_vouchers
					ADD CONSTRAINT chk_payment_vouchers_amount_pos
					CHECK (amount > 0);
				END IF;
			END $$;`,
			// No overdrawn invoice can ever be stored
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'purchase_invoices'::regclass
					  AND conname  = 'chk_purchase_invoices_due_nonneg'
				) THEN
					ALTER TABLE purchase_invoices
					ADD CONSTRAINT chk_purchase_invoices_due_nonneg
					CHECK (due_amount >= 0);
				END IF;
			END $$;`,
			// paid + due must reconcile with total
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'purchase_invoices'::regclass
					  AND conname  = 'chk_purchase_invoices_balance'
				) THEN
					ALTER TABLE purchase_invoices
					ADD CONSTRAINT chk_purchase_invoices_balance
					CHECK (paid_amount + due_amount = total_amount);
				END IF;
			END $$;`,
			// Ledger entry magnitudes are positive
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'ledger_entries'::regclass
					  AND conname  = 'chk_ledger_entries_amount_pos'
				) THEN
					ALTER TABLE ledger_entries
					ADD CONSTRAINT chk_ledger_entries_amount_pos
					CHECK (amount > 0);
				END IF;
			END $$;`,
		}
		for _, stmt := range checks {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("check constraint migration failed: %w", err)
			}
		}

		return nil
	})
}
