package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"inventory-analytics/types"
)

var ErrNotConfigured = errors.New("database is not configured")

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo { return &Repo{DB: db} }

// EnsureSchema creates the inventory table when it does not exist yet.
func (repo *Repo) EnsureSchema(ctx context.Context) error {
	if repo == nil || repo.DB == nil {
		return ErrNotConfigured
	}
	if _, err := repo.DB.ExecContext(ctx, inventoryTableSchema); err != nil {
		return fmt.Errorf("cannot create inventory schema: %w", err)
	}
	return nil
}

// GetInventoryRecords returns the stored inventory in collection order.
func (repo *Repo) GetInventoryRecords(ctx context.Context) ([]types.RawRecord, error) {
	if repo == nil || repo.DB == nil {
		return nil, ErrNotConfigured
	}
	sqlQuery := `SELECT position, computer_name, device_model, remote_office, warranty_expiry, tech_assigned
	FROM warranty_inventory
	ORDER BY position ASC, id ASC;`

	rows, err := repo.DB.QueryContext(ctx, sqlQuery)
	if err != nil {
		return nil, fmt.Errorf("cannot query inventory: %w", err)
	}
	defer rows.Close()

	records := make([]types.RawRecord, 0)
	for rows.Next() {
		var row InventoryTable
		if err := rows.Scan(
			&row.Position,
			&row.ComputerName,
			&row.DeviceModel,
			&row.RemoteOffice,
			&row.WarrantyExpiry,
			&row.TechAssigned,
		); err != nil {
			return nil, fmt.Errorf("cannot scan inventory row: %w", err)
		}
		records = append(records, row.ToRawRecord())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating inventory rows: %w", err)
	}
	return records, nil
}
