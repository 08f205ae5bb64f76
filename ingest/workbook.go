package ingest

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"inventory-analytics/types"
)

// Upload errors. The messages are shown to the uploader as is.
var (
	ErrNoFile          = errors.New("No file provided")
	ErrNoFileSelected  = errors.New("No file selected")
	ErrInvalidFileType = errors.New("Please upload a valid .xlsx file")
	ErrEmptyWorkbook   = errors.New("workbook has no sheets")
)

const workbookExtension = ".xlsx"

// Limits on the decompressed workbook parts
const (
	unzipSizeLimit    = 256 << 20
	unzipXMLSizeLimit = 64 << 20
)

// Column positions in the upload sheet
const (
	colComputerName = iota
	colDeviceModel
	colRemoteOffice
	colWarrantyExpiry
	colTechAssigned
)

// ValidateFileName checks the name of an uploaded workbook.
func ValidateFileName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrNoFileSelected
	}
	if !strings.EqualFold(filepath.Ext(name), workbookExtension) {
		return ErrInvalidFileType
	}
	return nil
}

// ReadWorkbook reads inventory rows from the first sheet of an xlsx workbook.
// The first row is a header; the rest are read by column position. Numeric
// expiry cells are Excel serial dates and are rendered as YYYY-MM-DD.
func ReadWorkbook(r io.Reader, fileName string) ([]types.RawRecord, error) {
	if err := ValidateFileName(fileName); err != nil {
		return nil, err
	}

	workbook, err := excelize.OpenReader(r, excelize.Options{
		UnzipSizeLimit:    unzipSizeLimit,
		UnzipXMLSizeLimit: unzipXMLSizeLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot open workbook: %w", err)
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyWorkbook
	}

	rows, err := workbook.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("cannot read sheet %s: %w", sheets[0], err)
	}

	date1904 := false
	if props, err := workbook.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	records := make([]types.RawRecord, 0, max(len(rows)-1, 0))
	for i, row := range rows {
		if i == 0 || isBlankRow(row) {
			continue
		}
		record := types.RawRecord{
			ComputerName: cell(row, colComputerName),
			DeviceModel:  cell(row, colDeviceModel),
			RemoteOffice: cell(row, colRemoteOffice),
			TechAssigned: cell(row, colTechAssigned),
		}
		if expiry := cell(row, colWarrantyExpiry); expiry != "" {
			expiry = serialDateToString(expiry, date1904)
			record.WarrantyExpiry = &expiry
		}
		if record.ComputerName == "" {
			record.ComputerName = types.UnknownValue
		}
		records = append(records, record)
	}
	return records, nil
}

func cell(row []string, col int) string {
	if col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

func isBlankRow(row []string) bool {
	for _, value := range row {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}

// serialDateToString converts an Excel serial date to YYYY-MM-DD. Values that
// are not numbers are returned unchanged.
func serialDateToString(value string, date1904 bool) string {
	serial, err := strconv.ParseFloat(value, 64)
	if err != nil || serial <= 0 {
		return value
	}
	expiry, err := excelize.ExcelDateToTime(serial, date1904)
	if err != nil {
		return value
	}
	return expiry.Format("2006-01-02")
}

// UploadMessage is the success message of a workbook upload that kept
// records devices.
func UploadMessage(records int) string {
	return "Successfully processed " + strconv.Itoa(records) + " records with technician assignments"
}
