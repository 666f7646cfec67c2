// Package display maps device and sensor types to the icons and
// labels shown in dashboards and CLI output.
package display

import (
	"github.com/citysense/citysense-core/internal/device"
	"github.com/citysense/citysense-core/internal/reading"
)

var deviceIcons = map[device.DeviceType]string{
	device.TypeTrafficLight:   "🚦",
	device.TypeAirQuality:     "🌫",
	device.TypeStreetLight:    "💡",
	device.TypeWaterLevel:     "🌊",
	device.TypeNoiseSensor:    "🔊",
	device.TypeWeatherSensor:  "🌤",
	device.TypeSecurityCamera: "📷",
	device.TypeParkingSensor:  "🅿",
	device.TypeWasteSensor:    "🗑",
	device.TypeSolarPanel:     "☀",
}

var deviceLabels = map[device.DeviceType]string{
	device.TypeTrafficLight:   "Traffic Light",
	device.TypeAirQuality:     "Air Quality Monitor",
	device.TypeStreetLight:    "Street Light",
	device.TypeWaterLevel:     "Water Level Sensor",
	device.TypeNoiseSensor:    "Noise Sensor",
	device.TypeWeatherSensor:  "Weather Station",
	device.TypeSecurityCamera: "Security Camera",
	device.TypeParkingSensor:  "Parking Sensor",
	device.TypeWasteSensor:    "Waste Bin Sensor",
	device.TypeSolarPanel:     "Solar Panel",
}

var sensorIcons = map[reading.SensorType]string{
	reading.SensorTemperature: "🌡",
	reading.SensorHumidity:    "💧",
	reading.SensorAirQuality:  "🌫",
	reading.SensorNoise:       "🔊",
	reading.SensorLight:       "💡",
	reading.SensorMotion:      "🏃",
}

var sensorLabels = map[reading.SensorType]string{
	reading.SensorTemperature: "Temperature",
	reading.SensorHumidity:    "Humidity",
	reading.SensorAirQuality:  "Air Quality",
	reading.SensorNoise:       "Noise Level",
	reading.SensorLight:       "Light Level",
	reading.SensorMotion:      "Motion",
}

// DeviceIcon returns the icon for a device type, with a generic
// fallback for unknown types.
func DeviceIcon(t device.DeviceType) string {
	if icon, ok := deviceIcons[t]; ok {
		return icon
	}
	return "📟"
}

// DeviceLabel returns the human-readable name for a device type.
func DeviceLabel(t device.DeviceType) string {
	if label, ok := deviceLabels[t]; ok {
		return label
	}
	return string(t)
}

// SensorIcon returns the icon for a sensor type.
func SensorIcon(t reading.SensorType) string {
	if icon, ok := sensorIcons[t]; ok {
		return icon
	}
	return "📈"
}

// SensorLabel returns the human-readable name for a sensor type.
func SensorLabel(t reading.SensorType) string {
	if label, ok := sensorLabels[t]; ok {
		return label
	}
	return string(t)
}
