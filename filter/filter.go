package filter

import (
	"strconv"
	"time"

	"inventory-analytics/types"
	"inventory-analytics/warranty"
)

type matchFunc func(device types.Device, value string, now time.Time) bool

// One matcher per dimension. The array is sized by the dimension count so a
// new dimension without a matcher shows up as a nil entry in tests.
var matchers = [types.DimensionCount]matchFunc{
	types.DimensionDeviceModel: func(device types.Device, value string, _ time.Time) bool {
		return device.DeviceModel == value
	},
	types.DimensionRemoteOffice: func(device types.Device, value string, _ time.Time) bool {
		return device.RemoteOffice == value
	},
	types.DimensionWarrantyStatus: func(device types.Device, value string, now time.Time) bool {
		status, err := types.ParseWarrantyStatus(value)
		if err != nil {
			// Unrecognized status values leave the set unfiltered
			return true
		}
		return warranty.ClassifyTwoState(device.WarrantyExpiry, now) == status
	},
	types.DimensionTechAssigned: func(device types.Device, value string, _ time.Time) bool {
		return device.TechAssigned == value
	},
}

// Match reports whether device passes the (dim, value) predicate at now.
func Match(dim types.FilterDimension, value string, device types.Device, now time.Time) bool {
	if !dim.IsValid() {
		return true
	}
	return matchers[dim](device, value, now)
}

// Apply returns the devices in order that pass the filter state. An empty
// state returns every device.
func Apply(devices []types.Device, state types.FilterState, now time.Time) []types.Device {
	if !state.Active() {
		return devices
	}
	dim, value := *state.Dimension, *state.Value
	filtered := make([]types.Device, 0, len(devices))
	for _, device := range devices {
		if Match(dim, value, device, now) {
			filtered = append(filtered, device)
		}
	}
	return filtered
}

// Label is the banner text shown above the device list.
func Label(state types.FilterState, count int) string {
	if !state.Active() {
		return "All Devices (" + strconv.Itoa(count) + " total)"
	}
	return "Filtered by " + state.Dimension.DisplayName() + ": \"" + *state.Value + "\" (" + strconv.Itoa(count) + " devices)"
}
