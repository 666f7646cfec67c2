package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrNotFound) {
//	    // handle not found case
//	}
var (
	// ErrNotFound is returned when a device ID does not exist.
	ErrNotFound = errors.New("device: not found")

	// ErrInvalidName is returned when a device name is empty or too long.
	ErrInvalidName = errors.New("device: invalid name")

	// ErrInvalidType is returned when a device type is not recognised.
	ErrInvalidType = errors.New("device: invalid type")

	// ErrInvalidLocation is returned when a location is empty or too long.
	ErrInvalidLocation = errors.New("device: invalid location")

	// ErrInvalidPercentage is returned when a battery level or signal
	// strength is outside 0-100.
	ErrInvalidPercentage = errors.New("device: percentage out of range")
)
