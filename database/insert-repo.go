package database

import (
	"context"
	"errors"
	"fmt"

	"inventory-analytics/types"
)

// ReplaceInventory stores devices as the new inventory, replacing every
// existing row in one transaction.
func (repo *Repo) ReplaceInventory(ctx context.Context, devices []types.Device) (int64, error) {
	if repo == nil || repo.DB == nil {
		return 0, ErrNotConfigured
	}
	if len(devices) == 0 {
		return 0, errors.New("no devices to store")
	}

	tx, err := repo.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("cannot begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM warranty_inventory;`); err != nil {
		return 0, fmt.Errorf("cannot clear inventory: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO warranty_inventory
	(position, computer_name, device_model, remote_office, warranty_expiry, tech_assigned)
	VALUES ($1, $2, $3, $4, $5, $6);`)
	if err != nil {
		return 0, fmt.Errorf("cannot prepare inventory insert: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for i, device := range devices {
		row := FromDevice(i, device)
		result, err := stmt.ExecContext(ctx, row.Position, row.ComputerName, row.DeviceModel, row.RemoteOffice, row.WarrantyExpiry, row.TechAssigned)
		if err != nil {
			return 0, fmt.Errorf("cannot insert device %s: %w", device.ComputerName, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("cannot read rows affected: %w", err)
		}
		inserted += affected
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("cannot commit inventory: %w", err)
	}
	return inserted, nil
}
