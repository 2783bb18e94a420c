package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate creates the messaging schema when absent. Statements are
// idempotent so the service can run it unconditionally at startup.
//
// users, doctor_patient and caregiver_elder are owned by the account and
// assignment workflows; they are created here only so a fresh database can
// serve the messaging core in development.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
			display_name text NOT NULL,
			role text NOT NULL CHECK (role IN ('doctor', 'caregiver', 'elder'))
		)`,
		`CREATE TABLE IF NOT EXISTS doctor_patient (
			id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
			doctor_id uuid NOT NULL REFERENCES users(id),
			patient_id uuid NOT NULL REFERENCES users(id),
			active boolean NOT NULL DEFAULT true,
			created_at timestamptz NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS caregiver_elder (
			id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
			caregiver_id uuid NOT NULL REFERENCES users(id),
			elder_id uuid NOT NULL REFERENCES users(id),
			active boolean NOT NULL DEFAULT true,
			created_at timestamptz NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
			sender_id uuid NOT NULL REFERENCES users(id),
			recipient_id uuid NOT NULL REFERENCES users(id),
			content text NOT NULL,
			created_at timestamptz NOT NULL DEFAULT now(),
			read boolean NOT NULL DEFAULT false
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_pair
			ON messages (sender_id, recipient_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_unread
			ON messages (recipient_id) WHERE read = false`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: migrate: %w", err)
		}
	}
	return nil
}
