package ingest

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"inventory-analytics/analytics"
	"inventory-analytics/inventory"
	"inventory-analytics/types"
)

var testNow = time.Date(2024, time.January, 1, 15, 30, 0, 0, time.UTC)

func workbookBytes(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	file := excelize.NewFile()
	defer file.Close()
	for i, row := range rows {
		axis, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, file.SetSheetRow("Sheet1", axis, &row))
	}
	buf, err := file.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestValidateFileName(t *testing.T) {
	tests := []struct {
		name string
		file string
		want error
	}{
		{name: "xlsx", file: "inventory.xlsx", want: nil},
		{name: "uppercase extension", file: "INVENTORY.XLSX", want: nil},
		{name: "empty", file: "", want: ErrNoFileSelected},
		{name: "csv", file: "inventory.csv", want: ErrInvalidFileType},
		{name: "legacy xls", file: "inventory.xls", want: ErrInvalidFileType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFileName(tt.file)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestReadWorkbook(t *testing.T) {
	buf := workbookBytes(t, [][]any{
		{"Computer Name", "Device Model", "Remote Office", "Warranty Expiry", "Tech Assigned"},
		{"PC-1", "Dell OptiPlex 7090", "New York HQ", time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC), "Mike Johnson"},
		{"PC-2", "Dell OptiPlex 5090", "Chicago Office", "2023-06-01"},
		{"", "Orphan Model", "Nowhere", "2025-01-01", "Nobody"},
		{"PC-3"},
	})

	records, err := ReadWorkbook(buf, "inventory.xlsx")
	require.NoError(t, err)
	require.Len(t, records, 4)

	require.NotNil(t, records[0].WarrantyExpiry)
	assert.Equal(t, "2024-03-15", *records[0].WarrantyExpiry)
	assert.Equal(t, "Mike Johnson", records[0].TechAssigned)

	require.NotNil(t, records[1].WarrantyExpiry)
	assert.Equal(t, "2023-06-01", *records[1].WarrantyExpiry)
	assert.Empty(t, records[1].TechAssigned)

	assert.Equal(t, types.UnknownValue, records[2].ComputerName)
	assert.Nil(t, records[3].WarrantyExpiry)

	collection, report := inventory.NewCollection("upload", records, testNow)
	assert.Equal(t, 3, collection.Len())
	assert.Equal(t, 1, report.Dropped)

	devices := collection.Devices()
	assert.Equal(t, "Unassigned", devices[1].TechAssigned)
	assert.Equal(t, types.UnknownValue, devices[2].DeviceModel)
	assert.Equal(t, time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC), *devices[0].WarrantyExpiry)
}

func TestReadWorkbookRejectsBadInput(t *testing.T) {
	_, err := ReadWorkbook(strings.NewReader("irrelevant"), "inventory.csv")
	assert.ErrorIs(t, err, ErrInvalidFileType)

	_, err = ReadWorkbook(strings.NewReader("not a zip"), "inventory.xlsx")
	assert.Error(t, err)
}

func TestUploadMessage(t *testing.T) {
	assert.Equal(t, "Successfully processed 3 records with technician assignments", UploadMessage(3))
}

func TestDecodeRecords(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    int
		wantErr error
	}{
		{name: "array", body: `[{"computerName":"PC-1","warrantyExpiry":"2024-01-01"},{"computerName":"PC-2","warrantyExpiry":null}]`, want: 2},
		{name: "envelope", body: `{"records":[{"computerName":"PC-1","techAssigned":"Bob"}]}`, want: 1},
		{name: "empty body", body: "  ", wantErr: ErrNoRecords},
		{name: "empty array", body: `[]`, wantErr: ErrNoRecords},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := DecodeRecords(strings.NewReader(tt.body))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, records, tt.want)
		})
	}

	_, err := DecodeRecords(strings.NewReader(`[{"computerName": 5}]`))
	assert.Error(t, err)
}

func TestDecodeRecordsNullExpiry(t *testing.T) {
	records, err := DecodeRecords(strings.NewReader(`[{"computerName":"PC-1","warrantyExpiry":null},{"computerName":"PC-2","warrantyExpiry":"None"}]`))
	require.NoError(t, err)
	assert.Nil(t, records[0].WarrantyExpiry)
	require.NotNil(t, records[1].WarrantyExpiry)
	assert.Nil(t, inventory.NormalizeExpiry(records[1].WarrantyExpiry))
}

func TestDemoRecords(t *testing.T) {
	records := DemoRecords(testNow)
	require.Len(t, records, 150)
	assert.Equal(t, "PC-0001", records[0].ComputerName)
	assert.Equal(t, "PC-0150", records[149].ComputerName)
	assert.Equal(t, "New York HQ", records[0].RemoteOffice)
	assert.Equal(t, "Miami Branch", records[149].RemoteOffice)

	assert.Equal(t, records, DemoRecords(testNow.Add(5*time.Hour)))

	collection, report := inventory.NewCollection("demo", records, testNow)
	assert.Zero(t, report.Dropped)
	devices := collection.Devices()

	validation := ValidateDemo(devices)
	assert.True(t, validation.Valid)
	assert.Empty(t, validation.Issues)

	stats := analytics.NewBuilder(analytics.DefaultHorizons).DemoStats(devices, testNow)
	assert.Equal(t, types.DemoStats{
		Total:             150,
		Expired:           20,
		ExpiringSoon:      25,
		ExpiringSixMonths: 55,
		LongTerm:          75,
		Unknown:           0,
		Models:            5,
		Offices:           10,
		Technicians:       4,
	}, stats)

	perTech := make(map[string]int)
	for _, device := range devices {
		perTech[device.TechAssigned]++
	}
	for _, tech := range DemoConfig.Technicians {
		assert.Equal(t, tech.DeviceCount, perTech[tech.Name], tech.Name)
	}
}

func TestValidateDemoIssues(t *testing.T) {
	devices := []types.Device{
		{ComputerName: "PC-1", DeviceModel: "HP EliteDesk", RemoteOffice: "HQ", TechAssigned: "Bob"},
		{ComputerName: "PC-2", DeviceModel: "Dell OptiPlex 7090", RemoteOffice: "HQ", TechAssigned: "Bob"},
	}
	validation := ValidateDemo(devices)
	assert.False(t, validation.Valid)
	assert.Equal(t, []string{
		"Expected 150 computers, got 2",
		"Found 1 non-Dell devices",
		"Expected 4 technicians, found 1",
		"Expected 10 offices, found 1",
	}, validation.Issues)
}
