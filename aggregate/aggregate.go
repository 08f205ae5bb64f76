package aggregate

import (
	"slices"
	"time"

	"inventory-analytics/types"
	"inventory-analytics/warranty"
)

type KeyFunc func(types.Device) string

// Key functions for the grouping dimensions, with the per-field default.
var (
	ByModel      KeyFunc = types.Device.Model
	ByOffice     KeyFunc = types.Device.Office
	ByTechnician KeyFunc = types.Device.Technician
)

// KeyFor returns the grouping function for a device field dimension. Warranty
// status is not a device field and has no key function.
func KeyFor(dim types.FilterDimension) (KeyFunc, bool) {
	switch dim {
	case types.DimensionDeviceModel:
		return ByModel, true
	case types.DimensionRemoteOffice:
		return ByOffice, true
	case types.DimensionTechAssigned:
		return ByTechnician, true
	default:
		return nil, false
	}
}

// Aggregate builds a frequency table over keyFn, sorted by count descending.
// Keys with equal counts keep the order in which they were first seen.
func Aggregate(devices []types.Device, keyFn KeyFunc) types.AggregationResult {
	index := make(map[string]int)
	entries := make([]types.AggregationEntry, 0)
	for _, device := range devices {
		key := keyFn(device)
		if i, ok := index[key]; ok {
			entries[i].Count++
			continue
		}
		index[key] = len(entries)
		entries = append(entries, types.AggregationEntry{Key: key, Count: 1})
	}

	slices.SortStableFunc(entries, func(a, b types.AggregationEntry) int {
		return b.Count - a.Count
	})

	total := len(devices)
	for i := range entries {
		entries[i].Percentage = Percentage(entries[i].Count, total)
	}
	return types.AggregationResult{Entries: entries, Total: total}
}

// Percentage is count/total*100 with 0/0 defined as 0.
func Percentage(count int, total int) float64 {
	return warranty.Percent(count, total)
}

// Distinct counts the unique keys in devices.
func Distinct(devices []types.Device, keyFn KeyFunc) int {
	seen := make(map[string]struct{}, len(devices))
	for _, device := range devices {
		seen[keyFn(device)] = struct{}{}
	}
	return len(seen)
}

// Group partitions devices by keyFn into four-state counts, keeping groups in
// first-seen order.
func Group(devices []types.Device, keyFn KeyFunc, now time.Time, horizon time.Duration) []types.GroupPerformance {
	index := make(map[string]int)
	groups := make([]types.GroupPerformance, 0)
	for _, device := range devices {
		key := keyFn(device)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, types.GroupPerformance{Name: key})
		}
		groups[i].Add(warranty.ClassifyFourState(device.WarrantyExpiry, now, horizon))
	}
	for i := range groups {
		groups[i].Score = warranty.Score(groups[i].StateCounts)
	}
	return groups
}

// Partition counts devices in each four-state bucket.
func Partition(devices []types.Device, now time.Time, horizon time.Duration) types.StateCounts {
	var counts types.StateCounts
	for _, device := range devices {
		counts.Add(warranty.ClassifyFourState(device.WarrantyExpiry, now, horizon))
	}
	return counts
}

// StatusCounts counts devices in each two-state bucket, in chart order.
func StatusCounts(devices []types.Device, now time.Time) []types.StatusCount {
	tally := make(map[types.WarrantyStatus]int, len(types.WarrantyStatusOrder))
	for _, device := range devices {
		tally[warranty.ClassifyTwoState(device.WarrantyExpiry, now)]++
	}
	counts := make([]types.StatusCount, 0, len(types.WarrantyStatusOrder))
	for _, status := range types.WarrantyStatusOrder {
		counts = append(counts, types.StatusCount{Status: status, Count: tally[status]})
	}
	return counts
}
