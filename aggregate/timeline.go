package aggregate

import (
	"slices"
	"time"

	"inventory-analytics/types"
)

const (
	bucketKeyLayout   = "2006-01"
	bucketLabelLayout = "Jan 2006"
	peakLabelLayout   = "January 2006"
)

// Timeline buckets known expiry dates by calendar month, oldest first. The
// bucket with the highest count is flagged as the peak; among equal counts the
// earliest month wins.
func Timeline(devices []types.Device) types.Timeline {
	counts := make(map[string]int)
	for _, device := range devices {
		if device.WarrantyExpiry == nil {
			continue
		}
		counts[device.WarrantyExpiry.Format(bucketKeyLayout)]++
	}

	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	timeline := types.Timeline{Buckets: make([]types.TimelineBucket, 0, len(keys))}
	peak := -1
	for i, key := range keys {
		timeline.Buckets = append(timeline.Buckets, types.TimelineBucket{
			Key:   key,
			Label: BucketLabel(key, bucketLabelLayout),
			Count: counts[key],
		})
		if peak < 0 || counts[key] > timeline.Buckets[peak].Count {
			peak = i
		}
	}
	if peak >= 0 {
		timeline.Buckets[peak].Peak = true
		peakBucket := timeline.Buckets[peak]
		timeline.Peak = &peakBucket
	}
	return timeline
}

// BucketLabel renders a YYYY-MM key with the given layout. Malformed keys are
// returned unchanged.
func BucketLabel(key string, layout string) string {
	month, err := time.Parse(bucketKeyLayout, key)
	if err != nil {
		return key
	}
	return month.Format(layout)
}

func PeakLabel(key string) string {
	return BucketLabel(key, peakLabelLayout)
}
