package warranty

import (
	"math"
	"time"

	"inventory-analytics/types"
)

const Day = 24 * time.Hour

// Default horizons. Insights use the 30 and 90 day windows, performance
// scoring uses the six month one.
const (
	ThirtyDays = 30 * Day
	NinetyDays = 90 * Day
	SixMonths  = 180 * Day
)

// ClassifyFourState buckets an expiry against now and a horizon. A nil expiry
// is Unknown, a past expiry is Expired, an expiry no later than now+horizon is
// ExpiringSoon, anything after that is Active.
func ClassifyFourState(expiry *time.Time, now time.Time, horizon time.Duration) types.WarrantyState {
	if expiry == nil {
		return types.StateUnknown
	}
	if expiry.Before(now) {
		return types.StateExpired
	}
	if !expiry.After(now.Add(horizon)) {
		return types.StateExpiringSoon
	}
	return types.StateActive
}

// ClassifyTwoState is the coarser partition: any expiry at or after now is
// Active.
func ClassifyTwoState(expiry *time.Time, now time.Time) types.WarrantyStatus {
	if expiry == nil {
		return types.StatusUnknown
	}
	if expiry.Before(now) {
		return types.StatusExpired
	}
	return types.StatusActive
}

// ExpiresWithin reports whether expiry falls in [now, now+window].
func ExpiresWithin(expiry *time.Time, now time.Time, window time.Duration) bool {
	if expiry == nil || expiry.Before(now) {
		return false
	}
	return !expiry.After(now.Add(window))
}

// DaysUntil returns floor((expiry - now) / 24h). Negative values are days
// since expiry.
func DaysUntil(expiry time.Time, now time.Time) int {
	return int(math.Floor(float64(expiry.Sub(now)) / float64(Day)))
}

// DaysSince returns floor((now - expiry) / 24h).
func DaysSince(expiry time.Time, now time.Time) int {
	return int(math.Floor(float64(now.Sub(expiry)) / float64(Day)))
}

// Score is the share of a group whose warranty is still valid, as a
// percentage. An empty group scores 0.
func Score(counts types.StateCounts) float64 {
	return Percent(counts.Active+counts.ExpiringSoon, counts.Total)
}

// Percent returns part/total*100, or 0 when total is 0.
func Percent(part int, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
