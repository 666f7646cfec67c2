package device

import "time"

// Device represents a monitored IoT endpoint in the city network.
// JSON field names follow the gateway wire format.
type Device struct {
	// Identity. The ID is assigned by the gateway and is stable for the
	// lifetime of the device; clients never invent or recycle one.
	ID   int64  `json:"id"`
	Name string `json:"name"`

	// Classification. Immutable after creation.
	Type DeviceType `json:"type"`

	// Location is free-text, user-editable.
	Location string `json:"location"`

	// Operational state. Active is toggled through the gateway.
	Active bool `json:"active"`

	// Telemetry health, reported by the device itself via heartbeat.
	// Percentages 0-100; nil when the device has never reported one.
	BatteryLevel   *int `json:"batteryLevel,omitempty"`
	SignalStrength *int `json:"signalStrength,omitempty"`

	// LastSeen is refreshed by heartbeats and accepted readings.
	LastSeen time.Time `json:"lastSeen"`

	// Timestamps, gateway-maintained.
	CreatedAt time.Time `json:"createdAt,omitzero"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// Clone creates an independent copy of the Device.
// Pointer fields are duplicated so modifications to the copy do not
// affect the original. This is essential for store isolation.
func (d *Device) Clone() *Device {
	if d == nil {
		return nil
	}

	cpy := *d

	if d.BatteryLevel != nil {
		v := *d.BatteryLevel
		cpy.BatteryLevel = &v
	}
	if d.SignalStrength != nil {
		v := *d.SignalStrength
		cpy.SignalStrength = &v
	}

	return &cpy
}

// DeviceType represents the category of city infrastructure a device
// belongs to. The set is closed; the gateway rejects unknown types.
type DeviceType string //nolint:revive // device.DeviceType is clearer than device.Type in calling code

const (
	TypeTrafficLight   DeviceType = "TRAFFIC_LIGHT"
	TypeAirQuality     DeviceType = "AIR_QUALITY"
	TypeStreetLight    DeviceType = "STREET_LIGHT"
	TypeWaterLevel     DeviceType = "WATER_LEVEL"
	TypeNoiseSensor    DeviceType = "NOISE_SENSOR"
	TypeWeatherSensor  DeviceType = "WEATHER_SENSOR"
	TypeSecurityCamera DeviceType = "SECURITY_CAMERA"
	TypeParkingSensor  DeviceType = "PARKING_SENSOR"
	TypeWasteSensor    DeviceType = "WASTE_SENSOR"
	TypeSolarPanel     DeviceType = "SOLAR_PANEL"
)

// AllDeviceTypes returns every recognised device type.
func AllDeviceTypes() []DeviceType {
	return []DeviceType{
		TypeTrafficLight,
		TypeAirQuality,
		TypeStreetLight,
		TypeWaterLevel,
		TypeNoiseSensor,
		TypeWeatherSensor,
		TypeSecurityCamera,
		TypeParkingSensor,
		TypeWasteSensor,
		TypeSolarPanel,
	}
}

// Valid reports whether t is a recognised device type.
func (t DeviceType) Valid() bool {
	_, ok := validDeviceTypes[t]
	return ok
}
