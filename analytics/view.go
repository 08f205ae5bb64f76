package analytics

import (
	"fmt"
	"strconv"
	"time"

	"inventory-analytics/aggregate"
	"inventory-analytics/types"
	"inventory-analytics/warranty"
)

// Horizons are the windows used by the view. Insight windows overlap on
// purpose; Performance is the expiring-soon horizon of the four-state split.
type Horizons struct {
	Insight     time.Duration
	Quarter     time.Duration
	Performance time.Duration
}

var DefaultHorizons = Horizons{
	Insight:     warranty.ThirtyDays,
	Quarter:     warranty.NinetyDays,
	Performance: warranty.SixMonths,
}

// Insight severity thresholds
const quarterWarningThreshold = 10

type Builder struct {
	Horizons Horizons
}

func NewBuilder(horizons Horizons) *Builder {
	if horizons.Insight <= 0 {
		horizons.Insight = DefaultHorizons.Insight
	}
	if horizons.Quarter <= 0 {
		horizons.Quarter = DefaultHorizons.Quarter
	}
	if horizons.Performance <= 0 {
		horizons.Performance = DefaultHorizons.Performance
	}
	return &Builder{Horizons: horizons}
}

// BuildView computes the full analytics bundle with the default horizons.
func BuildView(devices []types.Device, now time.Time) types.AnalyticsView {
	return NewBuilder(DefaultHorizons).BuildView(devices, now)
}

func (builder *Builder) BuildView(devices []types.Device, now time.Time) types.AnalyticsView {
	byModel := dimensionKey(types.DimensionDeviceModel)
	byOffice := dimensionKey(types.DimensionRemoteOffice)
	byTechnician := dimensionKey(types.DimensionTechAssigned)
	models := aggregate.Aggregate(devices, byModel)
	offices := aggregate.Aggregate(devices, byOffice)
	technicians := aggregate.Aggregate(devices, byTechnician)

	return types.AnalyticsView{
		GeneratedAt:           now,
		Insights:              builder.Insights(devices, models, now),
		Summary:               Summarize(devices, now),
		Models:                breakdown(types.DimensionDeviceModel, models, "Most common model"),
		Offices:               breakdown(types.DimensionRemoteOffice, offices, "Largest office"),
		Technicians:           breakdown(types.DimensionTechAssigned, technicians, "Most devices assigned to"),
		WarrantyStatus:        StatusBreakdown(devices, now),
		Timeline:              timelineWithInfo(devices),
		TechnicianPerformance: Performance(aggregate.Group(devices, byTechnician, now, builder.Horizons.Performance)),
		OfficePerformance:     Performance(aggregate.Group(devices, byOffice, now, builder.Horizons.Performance)),
	}
}

// dimensionKey panics for dimensions without a device field; callers only
// pass grouping dimensions.
func dimensionKey(dim types.FilterDimension) aggregate.KeyFunc {
	keyFn, ok := aggregate.KeyFor(dim)
	if !ok {
		panic("no key function for dimension " + dim.String())
	}
	return keyFn
}

// Insights returns the four insight cards in display order. models must be the
// model aggregation of devices.
func (builder *Builder) Insights(devices []types.Device, models types.AggregationResult, now time.Time) []types.Insight {
	var expiringSoon, expiringQuarter, expired int
	for _, device := range devices {
		if warranty.ExpiresWithin(device.WarrantyExpiry, now, builder.Horizons.Insight) {
			expiringSoon++
		}
		if warranty.ExpiresWithin(device.WarrantyExpiry, now, builder.Horizons.Quarter) {
			expiringQuarter++
		}
		if warranty.ClassifyTwoState(device.WarrantyExpiry, now) == types.StatusExpired {
			expired++
		}
	}

	dominant := types.AggregationEntry{Key: types.UnknownValue}
	if len(models.Entries) > 0 {
		dominant = models.Entries[0]
	}
	share := aggregate.Percentage(dominant.Count, len(devices))

	soonDays := strconv.Itoa(wholeDays(builder.Horizons.Insight))
	quarterDays := strconv.Itoa(wholeDays(builder.Horizons.Quarter))

	return []types.Insight{
		{
			Kind:     types.InsightExpiring30Days,
			Count:    expiringSoon,
			Severity: severityIf(expiringSoon > 0, types.SeverityDanger),
			Text:     "devices have warranties expiring within the next " + soonDays + " days. Immediate action recommended for renewal or replacement planning.",
		},
		{
			Kind:     types.InsightExpiring90Days,
			Count:    expiringQuarter,
			Severity: severityIf(expiringQuarter > quarterWarningThreshold, types.SeverityWarning),
			Text:     "devices will need warranty attention in the next " + quarterDays + " days. Start planning procurement cycles now.",
		},
		{
			Kind:     types.InsightDominantModel,
			Count:    dominant.Count,
			Subject:  dominant.Key,
			Share:    share,
			Severity: types.SeverityInfo,
			Text:     fmt.Sprintf("devices are %s models (%.1f%% of inventory). Consider bulk warranty negotiations.", dominant.Key, share),
		},
		{
			Kind:     types.InsightExpired,
			Count:    expired,
			Severity: severityIf(expired > 0, types.SeverityDanger),
			Text:     "devices currently have expired warranties and may be operating without coverage. Priority attention needed.",
		},
	}
}

func severityIf(cond bool, severity types.Severity) types.Severity {
	if cond {
		return severity
	}
	return types.SeveritySuccess
}

func wholeDays(d time.Duration) int {
	return int(d / warranty.Day)
}

// Summarize counts the collection and splits it by two-state warranty status.
func Summarize(devices []types.Device, now time.Time) types.Summary {
	summary := types.Summary{
		TotalDevices:      len(devices),
		UniqueModels:      aggregate.Distinct(devices, aggregate.ByModel),
		UniqueOffices:     aggregate.Distinct(devices, aggregate.ByOffice),
		UniqueTechnicians: aggregate.Distinct(devices, aggregate.ByTechnician),
	}
	for _, device := range devices {
		switch warranty.ClassifyTwoState(device.WarrantyExpiry, now) {
		case types.StatusActive:
			summary.ActiveWarranties++
		case types.StatusExpired:
			summary.ExpiredWarranties++
		default:
			summary.UnknownWarranties++
		}
	}
	return summary
}

func breakdown(dim types.FilterDimension, result types.AggregationResult, label string) types.DimensionBreakdown {
	out := types.DimensionBreakdown{Dimension: dim, Result: result}
	if len(result.Entries) > 0 {
		top := result.Entries[0]
		out.Info = fmt.Sprintf("%s: %s (%d devices, %.1f%%)", label, top.Key, top.Count, top.Percentage)
	}
	return out
}

func StatusBreakdown(devices []types.Device, now time.Time) types.WarrantyStatusBreakdown {
	counts := aggregate.StatusCounts(devices, now)
	expired := 0
	for _, count := range counts {
		if count.Status == types.StatusExpired {
			expired = count.Count
		}
	}
	share := aggregate.Percentage(expired, len(devices))
	return types.WarrantyStatusBreakdown{
		Counts:            counts,
		ExpiredPercentage: share,
		Info:              fmt.Sprintf("%d devices (%.1f%%) have expired warranties and may need attention.", expired, share),
	}
}

func timelineWithInfo(devices []types.Device) types.Timeline {
	timeline := aggregate.Timeline(devices)
	if timeline.Peak != nil {
		timeline.Info = "Peak expiry month: " + aggregate.PeakLabel(timeline.Peak.Key) + " with " + strconv.Itoa(timeline.Peak.Count) + " warranties expiring."
	}
	return timeline
}

// Performance picks the best and worst scoring groups. Ties keep the group
// seen first.
func Performance(groups []types.GroupPerformance) types.PerformanceTable {
	table := types.PerformanceTable{Groups: groups}
	if len(groups) == 0 {
		return table
	}
	best, worst := 0, 0
	for i := 1; i < len(groups); i++ {
		if groups[i].Score > groups[best].Score {
			best = i
		}
		if groups[i].Score < groups[worst].Score {
			worst = i
		}
	}
	bestGroup, worstGroup := groups[best], groups[worst]
	table.Best = &bestGroup
	table.Worst = &worstGroup
	table.Info = fmt.Sprintf("Best performer: %s (%.1f%% valid warranties) | Needs attention: %s (%.1f%% valid warranties)",
		bestGroup.Name, bestGroup.Score, worstGroup.Name, worstGroup.Score)
	return table
}
