package reading

import "errors"

// Domain errors for the reading package.
var (
	// ErrNotFound is returned when no reading matches a point lookup.
	ErrNotFound = errors.New("reading: not found")

	// ErrInvalidSensorType is returned when a sensor type is not recognised.
	ErrInvalidSensorType = errors.New("reading: invalid sensor type")

	// ErrInvalidDeviceID is returned when a reading references no device.
	ErrInvalidDeviceID = errors.New("reading: invalid device id")

	// ErrInvalidTimestamp is returned when a reading carries no capture time.
	ErrInvalidTimestamp = errors.New("reading: invalid timestamp")
)
