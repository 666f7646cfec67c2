package reading

import "time"

// Reading is one timestamped measurement emitted by a device for a given
// sensor type. JSON field names follow the gateway wire format.
type Reading struct {
	// ID is gateway-assigned and unique across all readings.
	ID int64 `json:"id"`

	// DeviceID references the device that captured the measurement.
	DeviceID int64 `json:"deviceId"`

	SensorType SensorType `json:"sensorType"`
	Value      float64    `json:"value"`

	// Unit is derived from SensorType and carried on the wire for
	// display convenience; it is not stored authoritatively.
	Unit Unit `json:"unit"`

	// Timestamp is the instant of capture, not of ingestion.
	Timestamp time.Time `json:"timestamp"`
}

// SensorType identifies the kind of measurement. The set is closed;
// the gateway rejects unknown types.
type SensorType string

const (
	SensorTemperature SensorType = "TEMPERATURE"
	SensorHumidity    SensorType = "HUMIDITY"
	SensorAirQuality  SensorType = "AIR_QUALITY"
	SensorNoise       SensorType = "NOISE"
	SensorLight       SensorType = "LIGHT"
	SensorMotion      SensorType = "MOTION"
)

// AllSensorTypes returns every recognised sensor type.
func AllSensorTypes() []SensorType {
	return []SensorType{
		SensorTemperature,
		SensorHumidity,
		SensorAirQuality,
		SensorNoise,
		SensorLight,
		SensorMotion,
	}
}

// Valid reports whether t is a recognised sensor type.
func (t SensorType) Valid() bool {
	_, ok := sensorUnits[t]
	return ok
}

// Unit is the measurement unit derived from a sensor type.
type Unit string

const (
	UnitCelsius    Unit = "CELSIUS"
	UnitPercentage Unit = "PERCENTAGE"
	UnitPPM        Unit = "PPM"
	UnitDecibel    Unit = "DB"
	UnitLux        Unit = "LUX"
	UnitBoolean    Unit = "BOOLEAN"
)

// sensorUnits maps each sensor type to its measurement unit.
var sensorUnits = map[SensorType]Unit{
	SensorTemperature: UnitCelsius,
	SensorHumidity:    UnitPercentage,
	SensorAirQuality:  UnitPPM,
	SensorNoise:       UnitDecibel,
	SensorLight:       UnitLux,
	SensorMotion:      UnitBoolean,
}

// Unit returns the measurement unit for the sensor type.
// Unknown types map to the empty unit.
func (t SensorType) Unit() Unit {
	return sensorUnits[t]
}

// Query describes a reading range lookup. Zero fields are unconstrained.
type Query struct {
	DeviceID   int64
	SensorType SensorType
	Start      time.Time
	End        time.Time
}
