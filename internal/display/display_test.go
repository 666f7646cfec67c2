package display

import (
	"testing"

	"github.com/citysense/citysense-core/internal/device"
	"github.com/citysense/citysense-core/internal/reading"
)

func TestDeviceLabelsCoverAllTypes(t *testing.T) {
	for _, dt := range device.AllDeviceTypes() {
		if DeviceLabel(dt) == string(dt) {
			t.Errorf("DeviceLabel(%s) fell back to raw type", dt)
		}
		if DeviceIcon(dt) == "📟" {
			t.Errorf("DeviceIcon(%s) fell back to generic icon", dt)
		}
	}
}

func TestUnknownTypeFallbacks(t *testing.T) {
	if got := DeviceLabel("MYSTERY"); got != "MYSTERY" {
		t.Errorf("DeviceLabel(MYSTERY) = %q", got)
	}
	if got := DeviceIcon("MYSTERY"); got != "📟" {
		t.Errorf("DeviceIcon(MYSTERY) = %q", got)
	}
	if got := SensorLabel("MYSTERY"); got != "MYSTERY" {
		t.Errorf("SensorLabel(MYSTERY) = %q", got)
	}
	if got := SensorIcon("MYSTERY"); got != "📈" {
		t.Errorf("SensorIcon(MYSTERY) = %q", got)
	}
}

func TestSensorLabels(t *testing.T) {
	if got := SensorLabel(reading.SensorTemperature); got != "Temperature" {
		t.Errorf("SensorLabel(TEMPERATURE) = %q", got)
	}
	if got := SensorIcon(reading.SensorNoise); got != "🔊" {
		t.Errorf("SensorIcon(NOISE) = %q", got)
	}
}
