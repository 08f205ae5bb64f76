package types

import "time"

type ExportRow struct {
	ComputerName    string         `json:"computerName"`
	DeviceModel     string         `json:"deviceModel"`
	RemoteOffice    string         `json:"remoteOffice"`
	TechAssigned    string         `json:"techAssigned"`
	WarrantyStatus  WarrantyStatus `json:"warrantyStatus"`
	WarrantyExpiry  *time.Time     `json:"warrantyExpiry"`
	DaysUntilExpiry *int           `json:"daysUntilExpiry"`
	DaysInfo        string         `json:"daysUntilOrSinceExpiry"`
}

type TechSummaryRow struct {
	Technician string  `json:"technician"`
	Devices    int     `json:"devices"`
	Expired    int     `json:"expired"`
	Rate       float64 `json:"rate"`
	Line       string  `json:"line"`
}

type TechSummary struct {
	Title       string           `json:"title"`
	GeneratedAt time.Time        `json:"generatedAt"`
	FileName    string           `json:"fileName"`
	Rows        []TechSummaryRow `json:"rows"`
}
