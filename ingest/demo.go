package ingest

import (
	"fmt"
	"strings"
	"time"

	"inventory-analytics/aggregate"
	"inventory-analytics/types"
	"inventory-analytics/warranty"
)

type DemoOffice struct {
	Name       string `json:"name"`
	Count      int    `json:"count"`
	Technician string `json:"technician"`
}

type DemoTechnician struct {
	Name        string `json:"name"`
	Region      string `json:"region"`
	DeviceCount int    `json:"deviceCount"`
}

type DemoScenario struct {
	Type        string `json:"type"`
	Count       int    `json:"count"`
	Description string `json:"description"`
	// first and span bound the expiry offset in days from today
	first int
	span  int
}

type DemoConfiguration struct {
	TotalComputers      int              `json:"totalComputers"`
	ComputerNamePattern string           `json:"computerNamePattern"`
	ModelPrefix         string           `json:"modelPrefix"`
	Models              []string         `json:"dellModels"`
	Offices             []DemoOffice     `json:"offices"`
	Technicians         []DemoTechnician `json:"technicians"`
	Scenarios           []DemoScenario   `json:"warrantyScenarios"`
}

// DemoConfig describes the curated demo inventory. Office counts add up to
// TotalComputers and so do scenario counts.
var DemoConfig = DemoConfiguration{
	TotalComputers:      150,
	ComputerNamePattern: "PC-0001 to PC-0150",
	ModelPrefix:         "Dell OptiPlex",
	Models: []string{
		"Dell OptiPlex 7090",
		"Dell OptiPlex 5090",
		"Dell OptiPlex 3090",
		"Dell OptiPlex 7080",
		"Dell OptiPlex 5080",
	},
	Offices: []DemoOffice{
		{Name: "New York HQ", Count: 25, Technician: "Mike Johnson"},
		{Name: "Chicago Office", Count: 20, Technician: "David Rodriguez"},
		{Name: "Los Angeles Branch", Count: 18, Technician: "Sarah Chen"},
		{Name: "Houston Center", Count: 15, Technician: "Lisa Thompson"},
		{Name: "Boston Office", Count: 12, Technician: "Mike Johnson"},
		{Name: "Phoenix Branch", Count: 12, Technician: "Sarah Chen"},
		{Name: "Atlanta Office", Count: 12, Technician: "Lisa Thompson"},
		{Name: "Seattle Branch", Count: 12, Technician: "Sarah Chen"},
		{Name: "Denver Office", Count: 12, Technician: "David Rodriguez"},
		{Name: "Miami Branch", Count: 12, Technician: "Lisa Thompson"},
	},
	Technicians: []DemoTechnician{
		{Name: "Mike Johnson", Region: "East Coast", DeviceCount: 37},
		{Name: "Sarah Chen", Region: "West Coast", DeviceCount: 42},
		{Name: "David Rodriguez", Region: "Central", DeviceCount: 32},
		{Name: "Lisa Thompson", Region: "South", DeviceCount: 39},
	},
	Scenarios: []DemoScenario{
		{Type: "expired", Count: 20, Description: "Expired warranties (red alerts)", first: -365, span: 364},
		{Type: "expiring_soon", Count: 25, Description: "Expiring within 30 days", first: 1, span: 29},
		{Type: "expiring_medium", Count: 30, Description: "Expiring in 3-6 months", first: 95, span: 80},
		{Type: "long_term", Count: 75, Description: "12+ months remaining", first: 400, span: 700},
	},
}

// Stride used to spread scenarios across offices. It must be coprime with the
// total device count.
const demoStride = 7

// DemoRecords generates the demo inventory relative to today. Offsets are
// whole days from the start of the current UTC day, so the output only
// depends on the date of now.
func DemoRecords(now time.Time) []types.RawRecord {
	cfg := DemoConfig
	today := now.UTC().Truncate(warranty.Day)

	records := make([]types.RawRecord, 0, cfg.TotalComputers)
	i := 0
	for _, office := range cfg.Offices {
		for range office.Count {
			expiry := today.Add(time.Duration(demoOffsetDays(cfg.Scenarios, (i*demoStride)%cfg.TotalComputers)) * warranty.Day).Format("2006-01-02")
			records = append(records, types.RawRecord{
				ComputerName:   fmt.Sprintf("PC-%04d", i+1),
				DeviceModel:    cfg.Models[i%len(cfg.Models)],
				RemoteOffice:   office.Name,
				WarrantyExpiry: &expiry,
				TechAssigned:   office.Technician,
			})
			i++
		}
	}
	return records
}

// demoOffsetDays maps a slot in [0, total) to a day offset inside the
// scenario that owns the slot.
func demoOffsetDays(scenarios []DemoScenario, slot int) int {
	for _, scenario := range scenarios {
		if slot < scenario.Count {
			return scenario.first + (slot*13)%(scenario.span+1)
		}
		slot -= scenario.Count
	}
	last := scenarios[len(scenarios)-1]
	return last.first
}

// ValidateDemo checks a collection against the demo configuration.
func ValidateDemo(devices []types.Device) types.DemoValidation {
	cfg := DemoConfig
	validation := types.DemoValidation{Valid: true, Issues: make([]string, 0)}
	fail := func(issue string) {
		validation.Valid = false
		validation.Issues = append(validation.Issues, issue)
	}

	if len(devices) != cfg.TotalComputers {
		fail(fmt.Sprintf("Expected %d computers, got %d", cfg.TotalComputers, len(devices)))
	}

	nonDell := 0
	for _, device := range devices {
		if !strings.HasPrefix(device.DeviceModel, cfg.ModelPrefix) {
			nonDell++
		}
	}
	if nonDell > 0 {
		fail(fmt.Sprintf("Found %d non-Dell devices", nonDell))
	}

	if technicians := aggregate.Distinct(devices, aggregate.ByTechnician); technicians != len(cfg.Technicians) {
		fail(fmt.Sprintf("Expected %d technicians, found %d", len(cfg.Technicians), technicians))
	}
	if offices := aggregate.Distinct(devices, aggregate.ByOffice); offices != len(cfg.Offices) {
		fail(fmt.Sprintf("Expected %d offices, found %d", len(cfg.Offices), offices))
	}
	return validation
}
