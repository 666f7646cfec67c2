package device

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Repository defines the interface for device persistence operations.
// This abstraction allows for different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
type Repository interface {
	// GetByID retrieves a device by its unique identifier.
	// Returns ErrNotFound if the device does not exist.
	GetByID(ctx context.Context, id int64) (*Device, error)

	// List retrieves all devices ordered by name.
	List(ctx context.Context) ([]Device, error)

	// ListByType retrieves all devices of a specific type.
	ListByType(ctx context.Context, t DeviceType) ([]Device, error)

	// ListByIDs retrieves the devices with the given IDs, ordered by name.
	// Unknown IDs are silently skipped.
	ListByIDs(ctx context.Context, ids []int64) ([]Device, error)

	// Create inserts a new device and assigns its ID.
	Create(ctx context.Context, d *Device) error

	// Update modifies an existing device.
	// Returns ErrNotFound if the device does not exist.
	Update(ctx context.Context, d *Device) error

	// Delete removes a device by ID.
	// Returns ErrNotFound if the device does not exist.
	Delete(ctx context.Context, id int64) error

	// Heartbeat refreshes last_seen and, when non-nil, the reported
	// battery level and signal strength.
	// Returns ErrNotFound if the device does not exist.
	Heartbeat(ctx context.Context, id int64, battery, signal *int, seen time.Time) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
// The db parameter should be an open SQLite connection.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const deviceColumns = `id, name, type, location, active, battery_level, signal_strength,
	last_seen, created_at, updated_at`

// GetByID retrieves a device by its unique identifier.
func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE id = ?`

	row := r.db.QueryRowContext(ctx, query, id)
	d, err := scanDevice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying device by id: %w", err)
	}
	return d, nil
}

// List retrieves all devices ordered by name.
func (r *SQLiteRepository) List(ctx context.Context) ([]Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices ORDER BY name`
	return r.queryDevices(ctx, query)
}

// ListByType retrieves all devices of a specific type.
func (r *SQLiteRepository) ListByType(ctx context.Context, t DeviceType) ([]Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE type = ? ORDER BY name`
	return r.queryDevices(ctx, query, string(t))
}

// ListByIDs retrieves the devices with the given IDs, ordered by name.
func (r *SQLiteRepository) ListByIDs(ctx context.Context, ids []int64) ([]Device, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]byte, 0, len(ids)*2-1)
	args := make([]any, 0, len(ids))
	for i, id := range ids {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
		args = append(args, id)
	}

	query := `SELECT ` + deviceColumns + ` FROM devices WHERE id IN (` +
		string(placeholders) + `) ORDER BY name`
	return r.queryDevices(ctx, query, args...)
}

// Create inserts a new device and assigns its ID.
func (r *SQLiteRepository) Create(ctx context.Context, d *Device) error {
	if err := Validate(d); err != nil {
		return err
	}

	now := time.Now().UTC()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	if d.LastSeen.IsZero() {
		d.LastSeen = now
	}
	d.UpdatedAt = now

	query := `
		INSERT INTO devices (
			name, type, location, active, battery_level, signal_strength,
			last_seen, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		d.Name,
		string(d.Type),
		d.Location,
		boolToInt(d.Active),
		nullableInt(d.BatteryLevel),
		nullableInt(d.SignalStrength),
		d.LastSeen.UTC().Format(time.RFC3339),
		d.CreatedAt.Format(time.RFC3339),
		d.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting device: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading inserted device id: %w", err)
	}
	d.ID = id

	return nil
}

// Update modifies an existing device.
func (r *SQLiteRepository) Update(ctx context.Context, d *Device) error {
	if err := Validate(d); err != nil {
		return err
	}

	d.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE devices SET
			name = ?, type = ?, location = ?, active = ?,
			battery_level = ?, signal_strength = ?, last_seen = ?, updated_at = ?
		WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		d.Name,
		string(d.Type),
		d.Location,
		boolToInt(d.Active),
		nullableInt(d.BatteryLevel),
		nullableInt(d.SignalStrength),
		d.LastSeen.UTC().Format(time.RFC3339),
		d.UpdatedAt.Format(time.RFC3339),
		d.ID,
	)
	if err != nil {
		return fmt.Errorf("updating device: %w", err)
	}

	return requireRowAffected(result)
}

// Delete removes a device by ID.
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM devices WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting device: %w", err)
	}
	return requireRowAffected(result)
}

// Heartbeat refreshes last_seen and optionally battery/signal readings.
func (r *SQLiteRepository) Heartbeat(ctx context.Context, id int64, battery, signal *int, seen time.Time) error {
	if err := validatePercentage("battery_level", battery); err != nil {
		return err
	}
	if err := validatePercentage("signal_strength", signal); err != nil {
		return err
	}

	query := `
		UPDATE devices SET
			last_seen = ?,
			battery_level = COALESCE(?, battery_level),
			signal_strength = COALESCE(?, signal_strength),
			updated_at = ?
		WHERE id = ?`

	now := time.Now().UTC().Format(time.RFC3339)
	result, err := r.db.ExecContext(ctx, query,
		seen.UTC().Format(time.RFC3339),
		nullableInt(battery),
		nullableInt(signal),
		now,
		id,
	)
	if err != nil {
		return fmt.Errorf("updating device heartbeat: %w", err)
	}
	return requireRowAffected(result)
}

// queryDevices runs a query expected to return device rows.
func (r *SQLiteRepository) queryDevices(ctx context.Context, query string, args ...any) ([]Device, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying devices: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only iteration

	var devices []Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning device row: %w", err)
		}
		devices = append(devices, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating device rows: %w", err)
	}

	return devices, nil
}

// scanner abstracts sql.Row and sql.Rows for shared scanning logic.
type scanner interface {
	Scan(dest ...any) error
}

// scanDevice scans a single device row.
func scanDevice(s scanner) (*Device, error) {
	var (
		dev              Device
		typeStr          string
		active           int
		battery, signal  sql.NullInt64
		lastSeen         string
		created, updated string
	)

	err := s.Scan(
		&dev.ID,
		&dev.Name,
		&typeStr,
		&dev.Location,
		&active,
		&battery,
		&signal,
		&lastSeen,
		&created,
		&updated,
	)
	if err != nil {
		return nil, err
	}

	dev.Type = DeviceType(typeStr)
	dev.Active = active != 0
	if battery.Valid {
		v := int(battery.Int64)
		dev.BatteryLevel = &v
	}
	if signal.Valid {
		v := int(signal.Int64)
		dev.SignalStrength = &v
	}

	if dev.LastSeen, err = parseTimestamp(lastSeen); err != nil {
		return nil, fmt.Errorf("parsing last_seen: %w", err)
	}
	if dev.CreatedAt, err = parseTimestamp(created); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if dev.UpdatedAt, err = parseTimestamp(updated); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &dev, nil
}

// parseTimestamp parses an RFC3339 timestamp stored as TEXT.
func parseTimestamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// requireRowAffected converts a zero-row result into ErrNotFound.
func requireRowAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// boolToInt converts a bool to SQLite's integer representation.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// nullableInt converts *int to a driver-friendly nullable value.
func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
