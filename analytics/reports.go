package analytics

import (
	"errors"
	"fmt"
	"time"

	"inventory-analytics/aggregate"
	"inventory-analytics/types"
	"inventory-analytics/warranty"
)

var ErrNotFound = errors.New("no devices found")

// TechnicianReport details the devices assigned to one technician.
func (builder *Builder) TechnicianReport(devices []types.Device, technician string, now time.Time) (types.TechnicianReport, error) {
	assigned := selectDevices(devices, func(device types.Device) bool { return device.Technician() == technician })
	if len(assigned) == 0 {
		return types.TechnicianReport{}, fmt.Errorf("%w for technician %s", ErrNotFound, technician)
	}
	horizon := builder.Horizons.Performance

	expired, expiringSoon := expiryLists(assigned, now, horizon)
	report := types.TechnicianReport{
		Technician:          technician,
		StateCounts:         aggregate.Partition(assigned, now, horizon),
		Offices:             aggregate.Group(assigned, aggregate.ByOffice, now, horizon),
		ExpiredDevices:      expired,
		ExpiringSoonDevices: expiringSoon,
	}
	report.Score = warranty.Score(report.StateCounts)
	report.UrgentScore = warranty.Percent(report.Active, report.Total)
	report.ExpiredRate = warranty.Percent(report.Expired, report.Total)
	return report, nil
}

// OfficeReport details the devices at one office.
func (builder *Builder) OfficeReport(devices []types.Device, office string, now time.Time) (types.OfficeReport, error) {
	located := selectDevices(devices, func(device types.Device) bool { return device.Office() == office })
	if len(located) == 0 {
		return types.OfficeReport{}, fmt.Errorf("%w for office %s", ErrNotFound, office)
	}
	horizon := builder.Horizons.Performance

	expired, expiringSoon := expiryLists(located, now, horizon)
	report := types.OfficeReport{
		Office:              office,
		StateCounts:         aggregate.Partition(located, now, horizon),
		Technicians:         aggregate.Group(located, aggregate.ByTechnician, now, horizon),
		ExpiredDevices:      expired,
		ExpiringSoonDevices: expiringSoon,
	}
	report.NeedsAttention = report.Expired + report.ExpiringSoon
	return report, nil
}

func selectDevices(devices []types.Device, keep func(types.Device) bool) []types.Device {
	selected := make([]types.Device, 0)
	for _, device := range devices {
		if keep(device) {
			selected = append(selected, device)
		}
	}
	return selected
}

func expiryLists(devices []types.Device, now time.Time, horizon time.Duration) (expired []types.ExpiryDevice, expiringSoon []types.ExpiryDevice) {
	expired = make([]types.ExpiryDevice, 0)
	expiringSoon = make([]types.ExpiryDevice, 0)
	for _, device := range devices {
		switch warranty.ClassifyFourState(device.WarrantyExpiry, now, horizon) {
		case types.StateExpired:
			expired = append(expired, expiryDevice(device, warranty.DaysSince(*device.WarrantyExpiry, now)))
		case types.StateExpiringSoon:
			expiringSoon = append(expiringSoon, expiryDevice(device, warranty.DaysUntil(*device.WarrantyExpiry, now)))
		}
	}
	return expired, expiringSoon
}

func expiryDevice(device types.Device, days int) types.ExpiryDevice {
	return types.ExpiryDevice{
		ComputerName:   device.ComputerName,
		DeviceModel:    device.DeviceModel,
		RemoteOffice:   device.RemoteOffice,
		TechAssigned:   device.Technician(),
		WarrantyExpiry: *device.WarrantyExpiry,
		Days:           days,
	}
}
