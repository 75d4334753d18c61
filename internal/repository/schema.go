package repository

import (
	"context"
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS parking_rates (
	vehicle_type TEXT PRIMARY KEY,
	hourly_rate DOUBLE PRECISION NOT NULL CHECK (hourly_rate >= 0)
);

CREATE TABLE IF NOT EXISTS tickets (
	id UUID PRIMARY KEY,
	license_plate TEXT NOT NULL,
	vehicle_type TEXT NOT NULL,
	spot TEXT NOT NULL,
	hours DOUBLE PRECISION NOT NULL CHECK (hours > 0),
	price DOUBLE PRECISION NOT NULL,
	entry_time TIMESTAMPTZ NOT NULL,
	exit_time TIMESTAMPTZ,
	fine_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
	status TEXT NOT NULL DEFAULT 'active',
	pass_holder BOOLEAN NOT NULL DEFAULT FALSE,
	customer_name TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL DEFAULT '',
	shift_id UUID
);
CREATE INDEX IF NOT EXISTS tickets_plate_status_idx ON tickets (license_plate, status);
CREATE INDEX IF NOT EXISTS tickets_entry_time_idx ON tickets (entry_time);

CREATE TABLE IF NOT EXISTS parking_spots (
	spot TEXT PRIMARY KEY,
	ticket_id UUID
);

CREATE TABLE IF NOT EXISTS monthly_passes (
	id UUID PRIMARY KEY,
	customer_name TEXT NOT NULL,
	vehicle_plate TEXT NOT NULL,
	phone TEXT NOT NULL DEFAULT '',
	start_time TIMESTAMPTZ NOT NULL,
	end_time TIMESTAMPTZ NOT NULL,
	status TEXT NOT NULL DEFAULT 'active'
);
CREATE INDEX IF NOT EXISTS monthly_passes_plate_idx ON monthly_passes (vehicle_plate);

CREATE TABLE IF NOT EXISTS vehicle_history (
	license_plate TEXT PRIMARY KEY,
	visit_count INTEGER NOT NULL DEFAULT 0,
	total_spent DOUBLE PRECISION NOT NULL DEFAULT 0,
	first_visit TIMESTAMPTZ NOT NULL,
	last_visit TIMESTAMPTZ NOT NULL,
	loyalty_points BIGINT NOT NULL DEFAULT 0,
	tier TEXT NOT NULL DEFAULT 'regular'
);

CREATE TABLE IF NOT EXISTS shifts (
	id UUID PRIMARY KEY,
	officer_id TEXT NOT NULL,
	start_time TIMESTAMPTZ NOT NULL,
	end_time TIMESTAMPTZ,
	cash_collected DOUBLE PRECISION NOT NULL DEFAULT 0,
	tickets_issued INTEGER NOT NULL DEFAULT 0,
	notes TEXT NOT NULL DEFAULT ''
);
CREATE UNIQUE INDEX IF NOT EXISTS shifts_one_open_per_officer ON shifts (officer_id) WHERE end_time IS NULL;

CREATE TABLE IF NOT EXISTS applied_events (
	consumer TEXT NOT NULL,
	event_key TEXT NOT NULL,
	PRIMARY KEY (consumer, event_key)
);

CREATE TABLE IF NOT EXISTS users (
	id UUID PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	role TEXT NOT NULL
);
`

// Migrate creates any missing tables and indexes.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
