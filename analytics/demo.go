package analytics

import (
	"time"

	"inventory-analytics/aggregate"
	"inventory-analytics/types"
	"inventory-analytics/warranty"
)

// DemoStats summarizes a collection against the scenario windows of the demo
// dataset. The expiring windows overlap.
func (builder *Builder) DemoStats(devices []types.Device, now time.Time) types.DemoStats {
	stats := types.DemoStats{
		Total:       len(devices),
		Models:      aggregate.Distinct(devices, aggregate.ByModel),
		Offices:     aggregate.Distinct(devices, aggregate.ByOffice),
		Technicians: aggregate.Distinct(devices, aggregate.ByTechnician),
	}
	for _, device := range devices {
		state := warranty.ClassifyFourState(device.WarrantyExpiry, now, builder.Horizons.Performance)
		switch state {
		case types.StateUnknown:
			stats.Unknown++
		case types.StateExpired:
			stats.Expired++
		case types.StateExpiringSoon:
			stats.ExpiringSixMonths++
		case types.StateActive:
			stats.LongTerm++
		}
		if warranty.ExpiresWithin(device.WarrantyExpiry, now, builder.Horizons.Insight) {
			stats.ExpiringSoon++
		}
	}
	return stats
}
