package device

import "fmt"

// Validation constants.
const (
	maxNameLength     = 100
	maxLocationLength = 200
)

// validDeviceTypes provides O(1) membership checks.
var validDeviceTypes map[DeviceType]struct{}

func init() {
	validDeviceTypes = make(map[DeviceType]struct{}, len(AllDeviceTypes()))
	for _, t := range AllDeviceTypes() {
		validDeviceTypes[t] = struct{}{}
	}
}

// Validate checks a device for structural errors.
// Returns an error describing the first validation failure found.
func Validate(d *Device) error {
	if d == nil {
		return fmt.Errorf("%w: device is nil", ErrInvalidName)
	}

	if d.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidName)
	}
	if len(d.Name) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidName, maxNameLength)
	}

	if !d.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, d.Type)
	}

	if d.Location == "" {
		return fmt.Errorf("%w: location is required", ErrInvalidLocation)
	}
	if len(d.Location) > maxLocationLength {
		return fmt.Errorf("%w: location exceeds %d characters", ErrInvalidLocation, maxLocationLength)
	}

	if err := validatePercentage("battery_level", d.BatteryLevel); err != nil {
		return err
	}
	if err := validatePercentage("signal_strength", d.SignalStrength); err != nil {
		return err
	}

	return nil
}

func validatePercentage(field string, v *int) error {
	if v == nil {
		return nil
	}
	if *v < 0 || *v > 100 {
		return fmt.Errorf("%w: %s must be 0-100, got %d", ErrInvalidPercentage, field, *v)
	}
	return nil
}
