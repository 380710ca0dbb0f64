package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS patients (
		run  TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		age  INT  NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS doctors (
		run       TEXT PRIMARY KEY,
		name      TEXT NOT NULL,
		specialty TEXT NOT NULL,
		capacity  INT  NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS appointments (
		id           BIGINT PRIMARY KEY,
		patient_run  TEXT NOT NULL REFERENCES patients(run),
		doctor_run   TEXT NOT NULL REFERENCES doctors(run),
		status       TEXT NOT NULL,
		scheduled_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_appointments_doctor ON appointments (doctor_run)`,
	`CREATE INDEX IF NOT EXISTS idx_appointments_overdue ON appointments (scheduled_at) WHERE status = 'reserved'`,
	`CREATE TABLE IF NOT EXISTS event_logs (
		id             BIGSERIAL PRIMARY KEY,
		event_type     TEXT NOT NULL,
		appointment_id BIGINT,
		payload        JSONB,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// Migrate creates the schema if it does not exist yet. Statements are
// idempotent, so running it on every startup is safe.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement: %w", err)
		}
	}
	return nil
}
