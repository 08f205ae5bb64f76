package export

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"inventory-analytics/types"
)

var csvHeader = []string{
	"Computer Name",
	"Device Model",
	"Remote Office",
	"Tech Assigned",
	"Warranty Status",
	"Warranty Expiry Date",
	"Days Until/Since Expiry",
}

// WriteCSV writes the header followed by one line per row. Data fields are
// always quoted, the header never is.
func WriteCSV(ctx context.Context, w io.Writer, rows []types.ExportRow) error {
	if ctx.Err() != nil {
		return fmt.Errorf("context error in WriteCSV: %w", ctx.Err())
	}
	if len(rows) == 0 {
		return ErrNoData
	}

	buf := bufio.NewWriter(w)
	if _, err := buf.WriteString(strings.Join(csvHeader, ",") + "\n"); err != nil {
		return fmt.Errorf("error writing CSV header: %w", err)
	}

	for i, row := range rows {
		if i%500 == 0 && ctx.Err() != nil {
			return fmt.Errorf("context error in WriteCSV: %w", ctx.Err())
		}
		record := []string{
			row.ComputerName,
			row.DeviceModel,
			row.RemoteOffice,
			row.TechAssigned,
			row.WarrantyStatus.String(),
			ptrTimeToString(row.WarrantyExpiry),
			row.DaysInfo,
		}
		if _, err := buf.WriteString(quoteRecord(record) + "\n"); err != nil {
			return fmt.Errorf("error writing CSV row %d: %w", i, err)
		}
	}

	if err := buf.Flush(); err != nil {
		return fmt.Errorf("error flushing CSV writer: %w", err)
	}
	return nil
}

// ConvertDevicesToCSV renders the export of devices as a string.
func ConvertDevicesToCSV(ctx context.Context, devices []types.Device, now time.Time) (string, error) {
	if len(devices) == 0 {
		return "", ErrNoData
	}
	var out strings.Builder
	if err := WriteCSV(ctx, &out, Rows(devices, now)); err != nil {
		if errors.Is(err, ErrNoData) {
			return "", err
		}
		return "", fmt.Errorf("cannot convert devices to CSV: %w", err)
	}
	return out.String(), nil
}

func quoteRecord(fields []string) string {
	quoted := make([]string, len(fields))
	for i, field := range fields {
		quoted[i] = `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
	}
	return strings.Join(quoted, ",")
}

func ptrTimeToString(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayout)
}
