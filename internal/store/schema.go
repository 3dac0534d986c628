package store

import (
	"context"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS employees (
	employee_id  TEXT PRIMARY KEY,
	full_name    TEXT NOT NULL DEFAULT '',
	base_salary  NUMERIC(14, 2) CHECK (base_salary IS NULL OR base_salary >= 0),
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS attendance_records (
	id           UUID PRIMARY KEY,
	employee_id  TEXT NOT NULL,
	work_date    DATE NOT NULL,
	login_time   TIMESTAMPTZ,
	logout_time  TIMESTAMPTZ,
	status       TEXT NOT NULL,
	remarks      TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (employee_id, work_date),
	CHECK (logout_time IS NULL OR login_time IS NOT NULL)
);

CREATE INDEX IF NOT EXISTS idx_attendance_records_date ON attendance_records (work_date);
`

// Migrate creates the attendance tables when they do not exist yet.
func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.Client.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
