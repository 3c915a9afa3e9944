package database

import (
	"fmt"

	"gorm.io/gorm"
)

// Migrate applies schema migrations and, on Postgres, the constraints
// AutoMigrate cannot express:
// - CHECK constraints (non-negative execution cost, positive ledger ids)
// - composite unique index on client_automations (client_id, automation_id)
// - supporting indexes for the ledger folds and execution history reads
func Migrate() error {
	if err := AutoMigrate(); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}

	if DB.Dialector.Name() != "postgres" {
		// sqlite (tests) gets the AutoMigrate-level schema only; the
		// composite unique index comes from the model tags there.
		return nil
	}

	return DB.Transaction(func(tx *gorm.DB) error {
		indexes := []string{
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_client_automations_pair ON client_automations (client_id, automation_id)`,
			`CREATE INDEX IF NOT EXISTS idx_credits_user ON credits (user_id)`,
			`CREATE INDEX IF NOT EXISTS idx_client_credits_client ON client_credits (client_id)`,
			`CREATE INDEX IF NOT EXISTS idx_executions_automation_started ON executions (automation_id, started_at)`,
			`CREATE INDEX IF NOT EXISTS idx_client_executions_client_started ON client_executions (client_id, started_at)`,
		}
		for _, stmt := range indexes {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("index migration failed on: %s - %w", stmt, err)
			}
		}

		checks := []string{
			// Non-negative per-execution cost
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'automations'::regclass
					  AND conname  = 'chk_automations_credits_nonneg'
				) THEN
					ALTER TABLE automations
					ADD CONSTRAINT chk_automations_credits_nonneg
					CHECK (credits_per_execution >= 0);
				END IF;
			END $$;`,
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'client_automations'::regclass
					  AND conname  = 'chk_client_automations_credits_nonneg'
				) THEN
					ALTER TABLE client_automations
					ADD CONSTRAINT chk_client_automations_credits_nonneg
					CHECK (credits_per_execution >= 0);
				END IF;
			END $$;`,
			// Executions never record a negative charge
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'executions'::regclass
					  AND conname  = 'chk_executions_credits_nonneg'
				) THEN
					ALTER TABLE executions
					ADD CONSTRAINT chk_executions_credits_nonneg
					CHECK (credits_used >= 0);
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
