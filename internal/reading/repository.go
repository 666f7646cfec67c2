package reading

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Repository defines the interface for sensor reading persistence.
type Repository interface {
	// Insert stores a new reading and assigns its ID.
	// The unit is derived from the sensor type before storage.
	Insert(ctx context.Context, r *Reading) error

	// Find retrieves readings matching the query, ordered ascending by
	// timestamp. Zero query fields are unconstrained.
	Find(ctx context.Context, q Query) ([]Reading, error)

	// SensorTypes returns the distinct sensor types present in the store.
	SensorTypes(ctx context.Context) ([]SensorType, error)

	// DeviceIDsBySensorType returns the distinct device IDs that have
	// reported the given sensor type.
	DeviceIDsBySensorType(ctx context.Context, t SensorType) ([]int64, error)

	// LatestByDevice returns the most recent reading for a device.
	// Returns ErrNotFound if the device has no readings.
	LatestByDevice(ctx context.Context, deviceID int64) (*Reading, error)

	// Average returns the mean value for a sensor type within a window.
	// Returns ErrNotFound when no readings match.
	Average(ctx context.Context, t SensorType, start, end time.Time) (float64, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed reading repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const readingColumns = `id, device_id, sensor_type, value, unit, timestamp`

// Insert stores a new reading and assigns its ID.
func (r *SQLiteRepository) Insert(ctx context.Context, rd *Reading) error {
	if err := validate(rd); err != nil {
		return err
	}

	rd.Unit = rd.SensorType.Unit()

	query := `
		INSERT INTO sensor_data (device_id, sensor_type, value, unit, timestamp, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		rd.DeviceID,
		string(rd.SensorType),
		rd.Value,
		string(rd.Unit),
		rd.Timestamp.UTC().Format(time.RFC3339),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting reading: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading inserted reading id: %w", err)
	}
	rd.ID = id

	return nil
}

// Find retrieves readings matching the query, ordered ascending by timestamp.
func (r *SQLiteRepository) Find(ctx context.Context, q Query) ([]Reading, error) {
	query := `SELECT ` + readingColumns + ` FROM sensor_data WHERE 1=1`
	var args []any

	if q.DeviceID != 0 {
		query += ` AND device_id = ?`
		args = append(args, q.DeviceID)
	}
	if q.SensorType != "" {
		query += ` AND sensor_type = ?`
		args = append(args, string(q.SensorType))
	}
	if !q.Start.IsZero() {
		query += ` AND timestamp >= ?`
		args = append(args, q.Start.UTC().Format(time.RFC3339))
	}
	if !q.End.IsZero() {
		query += ` AND timestamp <= ?`
		args = append(args, q.End.UTC().Format(time.RFC3339))
	}

	query += ` ORDER BY timestamp ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying readings: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only iteration

	var readings []Reading
	for rows.Next() {
		rd, err := scanReading(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning reading row: %w", err)
		}
		readings = append(readings, *rd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reading rows: %w", err)
	}

	return readings, nil
}

// SensorTypes returns the distinct sensor types present in the store.
func (r *SQLiteRepository) SensorTypes(ctx context.Context) ([]SensorType, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT sensor_type FROM sensor_data ORDER BY sensor_type`)
	if err != nil {
		return nil, fmt.Errorf("querying sensor types: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only iteration

	var types []SensorType
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scanning sensor type: %w", err)
		}
		types = append(types, SensorType(t))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sensor types: %w", err)
	}

	return types, nil
}

// DeviceIDsBySensorType returns the distinct device IDs reporting a type.
func (r *SQLiteRepository) DeviceIDsBySensorType(ctx context.Context, t SensorType) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT device_id FROM sensor_data WHERE sensor_type = ? ORDER BY device_id`,
		string(t))
	if err != nil {
		return nil, fmt.Errorf("querying devices by sensor type: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only iteration

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning device id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating device ids: %w", err)
	}

	return ids, nil
}

// LatestByDevice returns the most recent reading for a device.
func (r *SQLiteRepository) LatestByDevice(ctx context.Context, deviceID int64) (*Reading, error) {
	query := `SELECT ` + readingColumns + ` FROM sensor_data
		WHERE device_id = ? ORDER BY timestamp DESC LIMIT 1`

	rd, err := scanReading(r.db.QueryRowContext(ctx, query, deviceID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying latest reading: %w", err)
	}
	return rd, nil
}

// Average returns the mean value for a sensor type within a window.
func (r *SQLiteRepository) Average(ctx context.Context, t SensorType, start, end time.Time) (float64, error) {
	query := `SELECT AVG(value) FROM sensor_data
		WHERE sensor_type = ? AND timestamp >= ? AND timestamp <= ?`

	var avg sql.NullFloat64
	err := r.db.QueryRowContext(ctx, query,
		string(t),
		start.UTC().Format(time.RFC3339),
		end.UTC().Format(time.RFC3339),
	).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("querying average: %w", err)
	}
	if !avg.Valid {
		return 0, ErrNotFound
	}
	return avg.Float64, nil
}

// validate checks a reading before insertion.
func validate(rd *Reading) error {
	if rd.DeviceID <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDeviceID, rd.DeviceID)
	}
	if !rd.SensorType.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidSensorType, rd.SensorType)
	}
	if rd.Timestamp.IsZero() {
		return ErrInvalidTimestamp
	}
	return nil
}

// scanner abstracts sql.Row and sql.Rows for shared scanning logic.
type scanner interface {
	Scan(dest ...any) error
}

// scanReading scans a single reading row.
func scanReading(s scanner) (*Reading, error) {
	var (
		rd       Reading
		typeStr  string
		unitStr  string
		tsString string
	)

	err := s.Scan(&rd.ID, &rd.DeviceID, &typeStr, &rd.Value, &unitStr, &tsString)
	if err != nil {
		return nil, err
	}

	rd.SensorType = SensorType(typeStr)
	rd.Unit = Unit(unitStr)
	if rd.Timestamp, err = time.Parse(time.RFC3339, tsString); err != nil {
		return nil, fmt.Errorf("parsing timestamp: %w", err)
	}

	return &rd, nil
}
