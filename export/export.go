package export

import (
	"errors"
	"strconv"
	"time"

	"inventory-analytics/types"
	"inventory-analytics/warranty"
)

var ErrNoData = errors.New("no data to export")

// DateLayout renders file name dates and exported expiry dates.
const DateLayout = "2006-01-02"

const techSummaryTitle = "Technician Performance Summary"

// Rows projects devices into export rows in collection order.
func Rows(devices []types.Device, now time.Time) []types.ExportRow {
	rows := make([]types.ExportRow, 0, len(devices))
	for _, device := range devices {
		rows = append(rows, Row(device, now))
	}
	return rows
}

// Row renders one device with its two-state warranty status. Day counts are
// floored, so an expiry earlier today counts as one day ago.
func Row(device types.Device, now time.Time) types.ExportRow {
	row := types.ExportRow{
		ComputerName:   device.ComputerName,
		DeviceModel:    device.DeviceModel,
		RemoteOffice:   device.RemoteOffice,
		TechAssigned:   device.Technician(),
		WarrantyStatus: warranty.ClassifyTwoState(device.WarrantyExpiry, now),
	}
	if device.WarrantyExpiry == nil {
		return row
	}

	expiry := *device.WarrantyExpiry
	days := warranty.DaysUntil(expiry, now)
	row.WarrantyExpiry = &expiry
	row.DaysUntilExpiry = &days
	if row.WarrantyStatus == types.StatusExpired {
		row.DaysInfo = strconv.Itoa(-days) + " days ago"
	} else {
		row.DaysInfo = strconv.Itoa(days) + " days remaining"
	}
	return row
}

func CSVFileName(now time.Time) string {
	return "computer_inventory_with_techs_" + now.Format(DateLayout) + ".csv"
}

func ReportFileName(now time.Time) string {
	return "Computer_Inventory_Report_" + now.Format(DateLayout) + ".pdf"
}

// TechSummary builds the per-technician lines of the printable report, in the
// order technicians first appear.
func TechSummary(devices []types.Device, now time.Time) (types.TechSummary, error) {
	if len(devices) == 0 {
		return types.TechSummary{}, ErrNoData
	}

	index := make(map[string]int)
	rows := make([]types.TechSummaryRow, 0)
	for _, device := range devices {
		tech := device.Technician()
		i, ok := index[tech]
		if !ok {
			i = len(rows)
			index[tech] = i
			rows = append(rows, types.TechSummaryRow{Technician: tech})
		}
		rows[i].Devices++
		if warranty.ClassifyTwoState(device.WarrantyExpiry, now) == types.StatusExpired {
			rows[i].Expired++
		}
	}

	for i := range rows {
		rows[i].Rate = warranty.Percent(rows[i].Expired, rows[i].Devices)
		rows[i].Line = rows[i].Technician + ": " + strconv.Itoa(rows[i].Devices) + " devices, " +
			strconv.Itoa(rows[i].Expired) + " expired (" + strconv.FormatFloat(rows[i].Rate, 'f', 1, 64) + "%)"
	}

	return types.TechSummary{
		Title:       techSummaryTitle,
		GeneratedAt: now,
		FileName:    ReportFileName(now),
		Rows:        rows,
	}, nil
}
