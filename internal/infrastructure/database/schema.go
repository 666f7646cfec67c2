package database

import (
	"context"
	"fmt"
)

// schema contains the gateway database schema.
//
// Statements are idempotent (IF NOT EXISTS) so Setup can run on every
// startup without version bookkeeping. The dev gateway owns its schema
// outright; there is no upgrade path to preserve.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS devices (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		name            TEXT NOT NULL,
		type            TEXT NOT NULL,
		location        TEXT NOT NULL,
		active          INTEGER NOT NULL DEFAULT 1,
		battery_level   INTEGER,
		signal_strength INTEGER,
		last_seen       TIMESTAMP NOT NULL,
		created_at      TIMESTAMP NOT NULL,
		updated_at      TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_devices_type ON devices(type)`,
	`CREATE INDEX IF NOT EXISTS idx_devices_active ON devices(active)`,

	`CREATE TABLE IF NOT EXISTS sensor_data (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		device_id   INTEGER NOT NULL REFERENCES devices(id) ON DELETE CASCADE,
		sensor_type TEXT NOT NULL,
		value       REAL NOT NULL,
		unit        TEXT NOT NULL,
		timestamp   TIMESTAMP NOT NULL,
		created_at  TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sensor_data_device_type_ts
		ON sensor_data(device_id, sensor_type, timestamp)`,
	`CREATE INDEX IF NOT EXISTS idx_sensor_data_type ON sensor_data(sensor_type)`,
}

// Setup applies the gateway schema to the database.
// It is safe to call on every startup.
func (db *DB) Setup(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return nil
}
