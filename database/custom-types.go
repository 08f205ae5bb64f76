package database

import (
	"database/sql"
	"time"

	"inventory-analytics/types"
)

func ToStringPtr(v sql.NullString) *string {
	if v.Valid {
		return &v.String
	}
	return nil
}

func ToTimePtr(v sql.NullTime) *time.Time {
	if v.Valid {
		return &v.Time
	}
	return nil
}

func ToNullString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

func ToNullTime(p *time.Time) sql.NullTime {
	if p == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *p, Valid: true}
}

func nullStringValue(v sql.NullString) string {
	if v.Valid {
		return v.String
	}
	return ""
}

// ToRawRecord converts a stored row into the reader format. The expiry is
// rendered as RFC 3339 in UTC so the time of day survives normalization.
func (row InventoryTable) ToRawRecord() types.RawRecord {
	record := types.RawRecord{
		ComputerName: row.ComputerName,
		DeviceModel:  nullStringValue(row.DeviceModel),
		RemoteOffice: nullStringValue(row.RemoteOffice),
		TechAssigned: nullStringValue(row.TechAssigned),
	}
	if expiry := ToTimePtr(row.WarrantyExpiry); expiry != nil {
		formatted := expiry.UTC().Format(time.RFC3339Nano)
		record.WarrantyExpiry = &formatted
	}
	return record
}

// FromDevice builds the stored row for a device at a collection position.
func FromDevice(position int, device types.Device) InventoryTable {
	return InventoryTable{
		Position:       int64(position),
		ComputerName:   device.ComputerName,
		DeviceModel:    ToNullString(device.DeviceModel),
		RemoteOffice:   ToNullString(device.RemoteOffice),
		WarrantyExpiry: ToNullTime(device.WarrantyExpiry),
		TechAssigned:   ToNullString(device.TechAssigned),
	}
}
