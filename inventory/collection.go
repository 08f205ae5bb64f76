package inventory

import (
	"slices"
	"strings"
	"time"

	"inventory-analytics/types"
)

// Collection is an immutable, ordered set of devices produced by one
// ingestion. Order is the order records were read in.
type Collection struct {
	devices  []types.Device
	source   string
	loadedAt time.Time
}

type LoadReport struct {
	Source   string    `json:"source"`
	Loaded   int       `json:"loaded"`
	Dropped  int       `json:"dropped"`
	LoadedAt time.Time `json:"loadedAt"`
}

// NewCollection turns raw records into devices. Records without a computer
// name, or with the placeholder name "Unknown", are dropped.
func NewCollection(source string, records []types.RawRecord, loadedAt time.Time) (*Collection, LoadReport) {
	return defaultNormalizer.NewCollection(source, records, loadedAt)
}

func (normalizer Normalizer) NewCollection(source string, records []types.RawRecord, loadedAt time.Time) (*Collection, LoadReport) {
	devices := make([]types.Device, 0, len(records))
	dropped := 0
	for _, record := range records {
		device, ok := normalizer.ToDevice(record)
		if !ok {
			dropped++
			continue
		}
		devices = append(devices, device)
	}

	collection := &Collection{devices: devices, source: source, loadedAt: loadedAt}
	return collection, LoadReport{Source: source, Loaded: len(devices), Dropped: dropped, LoadedAt: loadedAt}
}

// ToDevice applies field defaults and date normalization to a single record.
func (normalizer Normalizer) ToDevice(record types.RawRecord) (types.Device, bool) {
	name := strings.TrimSpace(record.ComputerName)
	if name == "" || name == types.UnknownValue {
		return types.Device{}, false
	}
	return types.Device{
		ComputerName:   name,
		DeviceModel:    defaultString(record.DeviceModel, types.UnknownValue),
		RemoteOffice:   defaultString(record.RemoteOffice, types.UnknownValue),
		TechAssigned:   defaultString(record.TechAssigned, types.UnassignedValue),
		WarrantyExpiry: normalizer.Normalize(record.WarrantyExpiry),
	}, true
}

func defaultString(value string, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	return value
}

// Devices returns a copy of the devices in load order.
func (collection *Collection) Devices() []types.Device {
	if collection == nil {
		return nil
	}
	return slices.Clone(collection.devices)
}

func (collection *Collection) Len() int {
	if collection == nil {
		return 0
	}
	return len(collection.devices)
}

func (collection *Collection) Source() string {
	if collection == nil {
		return ""
	}
	return collection.source
}

func (collection *Collection) LoadedAt() time.Time {
	if collection == nil {
		return time.Time{}
	}
	return collection.loadedAt
}
