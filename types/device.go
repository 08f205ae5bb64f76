package types

import "time"

const (
	UnknownValue    = "Unknown"
	UnassignedValue = "Unassigned"
)

// RawRecord is one inventory row as handed over by a reader, before the expiry
// date is normalized. A nil WarrantyExpiry means the cell was empty.
type RawRecord struct {
	ComputerName   string  `json:"computerName"`
	DeviceModel    string  `json:"deviceModel"`
	RemoteOffice   string  `json:"remoteOffice"`
	WarrantyExpiry *string `json:"warrantyExpiry"`
	TechAssigned   string  `json:"techAssigned"`
}

// Device is the canonical inventory record. WarrantyExpiry is nil when the
// expiry is unknown.
type Device struct {
	ComputerName   string     `json:"computerName"`
	DeviceModel    string     `json:"deviceModel"`
	RemoteOffice   string     `json:"remoteOffice"`
	TechAssigned   string     `json:"techAssigned"`
	WarrantyExpiry *time.Time `json:"warrantyExpiry"`
}

// Model, Office and Technician return the grouping value of a device with the
// per-field default applied.
func (device Device) Model() string {
	if device.DeviceModel == "" {
		return UnknownValue
	}
	return device.DeviceModel
}

func (device Device) Office() string {
	if device.RemoteOffice == "" {
		return UnknownValue
	}
	return device.RemoteOffice
}

func (device Device) Technician() string {
	if device.TechAssigned == "" {
		return UnassignedValue
	}
	return device.TechAssigned
}

type IngestResult struct {
	Success bool     `json:"success"`
	Data    []Device `json:"data"`
	Message string   `json:"message"`
	Dropped int      `json:"dropped"`
}
