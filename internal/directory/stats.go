package directory

import "github.com/citysense/citysense-core/internal/device"

// lowBatteryThreshold marks devices needing a battery swap.
const lowBatteryThreshold = 20

// FleetStats summarises the health of the device fleet.
type FleetStats struct {
	Total      int                       `json:"total"`
	Active     int                       `json:"active"`
	Offline    int                       `json:"offline"`
	LowBattery int                       `json:"lowBattery"`
	ByType     map[device.DeviceType]int `json:"byType"`
}

// Stats computes fleet statistics over the given devices. Devices with
// no battery reading do not count as low battery.
func Stats(devices []device.Device) FleetStats {
	stats := FleetStats{
		Total:  len(devices),
		ByType: make(map[device.DeviceType]int),
	}

	for _, d := range devices {
		if d.Active {
			stats.Active++
		} else {
			stats.Offline++
		}
		if d.BatteryLevel != nil && *d.BatteryLevel < lowBatteryThreshold {
			stats.LowBattery++
		}
		stats.ByType[d.Type]++
	}
	return stats
}
