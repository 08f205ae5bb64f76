package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventory-analytics/types"
	"inventory-analytics/warranty"
)

var testNow = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

func expiry(t time.Time) *time.Time { return &t }

func device(name, model, office, tech string, exp *time.Time) types.Device {
	return types.Device{ComputerName: name, DeviceModel: model, RemoteOffice: office, TechAssigned: tech, WarrantyExpiry: exp}
}

func TestAggregateSingleKey(t *testing.T) {
	devices := make([]types.Device, 0, 10)
	for i := range 10 {
		devices = append(devices, device("PC-"+string(rune('A'+i)), "X", "HQ", "Bob", nil))
	}
	result := Aggregate(devices, ByModel)
	require.Len(t, result.Entries, 1)
	assert.Equal(t, "X", result.Entries[0].Key)
	assert.Equal(t, 10, result.Entries[0].Count)
	assert.InDelta(t, 100.0, result.Entries[0].Percentage, 1e-9)
	assert.Equal(t, 10, result.Total)
}

func TestAggregateStableTies(t *testing.T) {
	devices := []types.Device{
		device("1", "B", "", "", nil),
		device("2", "A", "", "", nil),
		device("3", "C", "", "", nil),
		device("4", "C", "", "", nil),
		device("5", "A", "", "", nil),
		device("6", "B", "", "", nil),
		device("7", "D", "", "", nil),
	}
	result := Aggregate(devices, ByModel)
	keys := make([]string, 0, len(result.Entries))
	for _, entry := range result.Entries {
		keys = append(keys, entry.Key)
	}
	// B, A and C all have two, in first-seen order; D trails.
	assert.Equal(t, []string{"B", "A", "C", "D"}, keys)
}

func TestAggregateDefaults(t *testing.T) {
	devices := []types.Device{
		device("1", "", "", "", nil),
		device("2", "X", "HQ", "Bob", nil),
	}
	assert.Equal(t, "Unknown", Aggregate(devices, ByModel).Entries[0].Key)
	assert.Equal(t, "Unknown", Aggregate(devices, ByOffice).Entries[0].Key)
	assert.Equal(t, "Unassigned", Aggregate(devices, ByTechnician).Entries[0].Key)
}

func TestAggregateEmpty(t *testing.T) {
	result := Aggregate(nil, ByModel)
	assert.Empty(t, result.Entries)
	assert.Equal(t, 0, result.Total)
	assert.Equal(t, 0.0, Percentage(0, 0))
	assert.Equal(t, 0, Distinct(nil, ByOffice))
	assert.Empty(t, Timeline(nil).Buckets)
	assert.Nil(t, Timeline(nil).Peak)
}

func TestAggregateConservesCount(t *testing.T) {
	devices := []types.Device{
		device("1", "X", "HQ", "Bob", nil),
		device("2", "Y", "HQ", "", nil),
		device("3", "", "Branch", "Ann", nil),
		device("4", "X", "", "Bob", nil),
		device("5", "Z", "Branch", "Ann", nil),
	}
	for _, keyFn := range []KeyFunc{ByModel, ByOffice, ByTechnician} {
		sum := 0
		for _, entry := range Aggregate(devices, keyFn).Entries {
			sum += entry.Count
		}
		assert.Equal(t, len(devices), sum)
	}
}

func TestKeyFor(t *testing.T) {
	_, ok := KeyFor(types.DimensionWarrantyStatus)
	assert.False(t, ok)
	keyFn, ok := KeyFor(types.DimensionRemoteOffice)
	require.True(t, ok)
	assert.Equal(t, "HQ", keyFn(device("1", "", "HQ", "", nil)))
}

func TestGroupPartitionsExactly(t *testing.T) {
	devices := []types.Device{
		device("1", "X", "HQ", "Bob", expiry(testNow.AddDate(2, 0, 0))),
		device("2", "X", "HQ", "Bob", expiry(testNow.AddDate(1, 0, 0))),
		device("3", "X", "HQ", "Bob", expiry(testNow.AddDate(0, 2, 0))),
		device("4", "X", "HQ", "Bob", expiry(testNow.AddDate(0, 0, -3))),
		device("5", "X", "Branch", "Ann", nil),
	}
	groups := Group(devices, ByTechnician, testNow, warranty.SixMonths)
	require.Len(t, groups, 2)

	bob := groups[0]
	assert.Equal(t, "Bob", bob.Name)
	assert.Equal(t, types.StateCounts{Total: 4, Active: 2, ExpiringSoon: 1, Expired: 1}, bob.StateCounts)
	assert.InDelta(t, 75.0, bob.Score, 1e-9)

	ann := groups[1]
	assert.Equal(t, types.StateCounts{Total: 1, Unknown: 1}, ann.StateCounts)
	assert.Equal(t, 0.0, ann.Score)

	for _, group := range groups {
		assert.Equal(t, group.Total, group.Active+group.ExpiringSoon+group.Expired+group.Unknown)
	}
	counts := Partition(devices, testNow, warranty.SixMonths)
	assert.Equal(t, len(devices), counts.Active+counts.ExpiringSoon+counts.Expired+counts.Unknown)
}

func TestStatusCountsScenario(t *testing.T) {
	devices := []types.Device{
		device("PC-1", "", "", "", expiry(time.Date(2099, time.January, 1, 0, 0, 0, 0, time.UTC))),
		device("PC-2", "", "", "", nil),
		device("PC-3", "", "", "", expiry(time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC))),
	}
	counts := StatusCounts(devices, testNow)
	assert.Equal(t, []types.StatusCount{
		{Status: types.StatusActive, Count: 1},
		{Status: types.StatusExpired, Count: 1},
		{Status: types.StatusUnknown, Count: 1},
	}, counts)
}

func TestTimeline(t *testing.T) {
	devices := []types.Device{
		device("1", "", "", "", expiry(time.Date(2024, time.March, 3, 0, 0, 0, 0, time.UTC))),
		device("2", "", "", "", expiry(time.Date(2024, time.January, 9, 0, 0, 0, 0, time.UTC))),
		device("3", "", "", "", expiry(time.Date(2024, time.March, 30, 0, 0, 0, 0, time.UTC))),
		device("4", "", "", "", nil),
		device("5", "", "", "", expiry(time.Date(2023, time.December, 1, 0, 0, 0, 0, time.UTC))),
		device("6", "", "", "", expiry(time.Date(2023, time.December, 2, 0, 0, 0, 0, time.UTC))),
	}
	timeline := Timeline(devices)
	require.Len(t, timeline.Buckets, 3)
	assert.Equal(t, "2023-12", timeline.Buckets[0].Key)
	assert.Equal(t, "Dec 2023", timeline.Buckets[0].Label)
	assert.Equal(t, "2024-01", timeline.Buckets[1].Key)
	assert.Equal(t, "2024-03", timeline.Buckets[2].Key)

	// December and March tie at two, the earlier month is the peak.
	require.NotNil(t, timeline.Peak)
	assert.Equal(t, "2023-12", timeline.Peak.Key)
	assert.True(t, timeline.Buckets[0].Peak)
	assert.False(t, timeline.Buckets[2].Peak)
	assert.Equal(t, "December 2023", PeakLabel(timeline.Peak.Key))
	assert.Equal(t, "bad", BucketLabel("bad", bucketLabelLayout))
}
