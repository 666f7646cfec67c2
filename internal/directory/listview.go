package directory

import (
	"sort"
	"strings"

	"github.com/citysense/citysense-core/internal/device"
)

// SortKey selects the ordering applied by Query.
type SortKey string

const (
	SortByName     SortKey = "name"
	SortByType     SortKey = "type"
	SortByLocation SortKey = "location"
	SortByBattery  SortKey = "battery"
	SortByLastSeen SortKey = "lastSeen"
)

// Query describes a filtered, sorted view over the device snapshot.
// Zero values mean "no constraint": an empty Search matches everything,
// an empty Type matches all types, a nil Active matches both states.
type Query struct {
	Search string
	Type   device.DeviceType
	Active *bool
	SortBy SortKey
}

// Apply produces the view for q over the given devices. The input slice
// is never modified; filtering runs before sorting.
func Apply(devices []device.Device, q Query) []device.Device {
	search := strings.ToLower(strings.TrimSpace(q.Search))

	out := make([]device.Device, 0, len(devices))
	for _, d := range devices {
		if q.Type != "" && d.Type != q.Type {
			continue
		}
		if q.Active != nil && d.Active != *q.Active {
			continue
		}
		if search != "" && !matchesSearch(&d, search) {
			continue
		}
		out = append(out, d)
	}

	sortDevices(out, q.SortBy)
	return out
}

// matchesSearch checks the name and location fields case-insensitively.
func matchesSearch(d *device.Device, search string) bool {
	return strings.Contains(strings.ToLower(d.Name), search) ||
		strings.Contains(strings.ToLower(d.Location), search)
}

func sortDevices(devices []device.Device, key SortKey) {
	switch key {
	case SortByType:
		sortFold(devices, func(d *device.Device) string { return string(d.Type) })
	case SortByLocation:
		sortFold(devices, func(d *device.Device) string { return d.Location })
	case SortByBattery:
		// Highest battery first; unknown battery sorts last.
		sort.SliceStable(devices, func(i, j int) bool {
			return batteryOf(&devices[i]) > batteryOf(&devices[j])
		})
	case SortByLastSeen:
		// Most recently seen first.
		sort.SliceStable(devices, func(i, j int) bool {
			return devices[i].LastSeen.After(devices[j].LastSeen)
		})
	default:
		sortFold(devices, func(d *device.Device) string { return d.Name })
	}
}

// sortFold sorts ascending by a case-folded string key.
func sortFold(devices []device.Device, key func(*device.Device) string) {
	sort.SliceStable(devices, func(i, j int) bool {
		return strings.ToLower(key(&devices[i])) < strings.ToLower(key(&devices[j]))
	})
}

func batteryOf(d *device.Device) int {
	if d.BatteryLevel == nil {
		return 0
	}
	return *d.BatteryLevel
}
