package types

import "time"

type Severity string

const (
	SeverityDanger  Severity = "danger"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
)

type InsightKind string

const (
	InsightExpiring30Days InsightKind = "expiring30Days"
	InsightExpiring90Days InsightKind = "expiring90Days"
	InsightDominantModel  InsightKind = "dominantModel"
	InsightExpired        InsightKind = "expired"
)

type Insight struct {
	Kind     InsightKind `json:"kind"`
	Count    int         `json:"number"`
	Subject  string      `json:"subject,omitempty"`
	Share    float64     `json:"share"`
	Severity Severity    `json:"type"`
	Text     string      `json:"text"`
}

type Summary struct {
	TotalDevices      int `json:"totalDevices"`
	UniqueModels      int `json:"uniqueModels"`
	UniqueOffices     int `json:"uniqueOffices"`
	UniqueTechnicians int `json:"uniqueTechnicians"`
	ActiveWarranties  int `json:"activeWarranties"`
	ExpiredWarranties int `json:"expiredWarranties"`
	UnknownWarranties int `json:"unknownWarranties"`
}

type AggregationEntry struct {
	Key        string  `json:"key"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// AggregationResult is a frequency table sorted by count descending. Total is
// the size of the collection it was computed over.
type AggregationResult struct {
	Entries []AggregationEntry `json:"entries"`
	Total   int                `json:"total"`
}

type DimensionBreakdown struct {
	Dimension FilterDimension   `json:"dimension"`
	Result    AggregationResult `json:"result"`
	Info      string            `json:"info"`
}

type StatusCount struct {
	Status WarrantyStatus `json:"status"`
	Count  int            `json:"count"`
}

type WarrantyStatusBreakdown struct {
	Counts            []StatusCount `json:"counts"`
	ExpiredPercentage float64       `json:"expiredPercentage"`
	Info              string        `json:"info"`
}

type TimelineBucket struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Count int    `json:"count"`
	Peak  bool   `json:"peak"`
}

type Timeline struct {
	Buckets []TimelineBucket `json:"buckets"`
	Peak    *TimelineBucket  `json:"peak"`
	Info    string           `json:"info"`
}

// StateCounts is a four-state partition of a device group.
type StateCounts struct {
	Total        int `json:"total"`
	Active       int `json:"active"`
	ExpiringSoon int `json:"expiringSoon"`
	Expired      int `json:"expired"`
	Unknown      int `json:"unknown"`
}

func (counts *StateCounts) Add(state WarrantyState) {
	counts.Total++
	switch state {
	case StateActive:
		counts.Active++
	case StateExpiringSoon:
		counts.ExpiringSoon++
	case StateExpired:
		counts.Expired++
	default:
		counts.Unknown++
	}
}

type GroupPerformance struct {
	Name string `json:"name"`
	StateCounts
	Score float64 `json:"score"`
}

type PerformanceTable struct {
	Groups []GroupPerformance `json:"groups"`
	Best   *GroupPerformance  `json:"best"`
	Worst  *GroupPerformance  `json:"worst"`
	Info   string             `json:"info"`
}

type AnalyticsView struct {
	GeneratedAt           time.Time               `json:"generatedAt"`
	Insights              []Insight               `json:"insights"`
	Summary               Summary                 `json:"summary"`
	Models                DimensionBreakdown      `json:"models"`
	Offices               DimensionBreakdown      `json:"offices"`
	Technicians           DimensionBreakdown      `json:"technicians"`
	WarrantyStatus        WarrantyStatusBreakdown `json:"warrantyStatus"`
	Timeline              Timeline                `json:"timeline"`
	TechnicianPerformance PerformanceTable        `json:"technicianPerformance"`
	OfficePerformance     PerformanceTable        `json:"officePerformance"`
}

// ExpiryDevice is a device listed in a detail report. Days counts whole days
// since expiry for expired devices and until expiry otherwise.
type ExpiryDevice struct {
	ComputerName   string    `json:"computerName"`
	DeviceModel    string    `json:"deviceModel"`
	RemoteOffice   string    `json:"remoteOffice"`
	TechAssigned   string    `json:"techAssigned"`
	WarrantyExpiry time.Time `json:"warrantyExpiry"`
	Days           int       `json:"days"`
}

type TechnicianReport struct {
	Technician string `json:"technician"`
	StateCounts
	Score               float64            `json:"score"`
	UrgentScore         float64            `json:"urgentScore"`
	ExpiredRate         float64            `json:"expiredRate"`
	Offices             []GroupPerformance `json:"offices"`
	ExpiredDevices      []ExpiryDevice     `json:"expiredDevices"`
	ExpiringSoonDevices []ExpiryDevice     `json:"expiringSoonDevices"`
}

type OfficeReport struct {
	Office string `json:"office"`
	StateCounts
	NeedsAttention      int                `json:"needsAttention"`
	Technicians         []GroupPerformance `json:"technicians"`
	ExpiredDevices      []ExpiryDevice     `json:"expiredDevices"`
	ExpiringSoonDevices []ExpiryDevice     `json:"expiringSoonDevices"`
}

type DemoStats struct {
	Total             int `json:"total"`
	Expired           int `json:"expired"`
	ExpiringSoon      int `json:"expiringSoon"`
	ExpiringSixMonths int `json:"expiringSixMonths"`
	LongTerm          int `json:"longTerm"`
	Unknown           int `json:"unknown"`
	Models            int `json:"models"`
	Offices           int `json:"offices"`
	Technicians       int `json:"technicians"`
}

type DemoValidation struct {
	Valid  bool     `json:"valid"`
	Issues []string `json:"issues"`
}
