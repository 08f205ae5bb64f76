package database

import "database/sql"

const inventoryTableSchema = `
CREATE TABLE IF NOT EXISTS warranty_inventory (
	id BIGSERIAL PRIMARY KEY,
	position INTEGER NOT NULL,
	computer_name TEXT NOT NULL,
	device_model TEXT,
	remote_office TEXT,
	warranty_expiry TIMESTAMPTZ,
	tech_assigned TEXT,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS warranty_inventory_position_idx ON warranty_inventory (position);
`

// InventoryTable is one row of warranty_inventory.
type InventoryTable struct {
	Position       int64          `json:"position"`
	ComputerName   string         `json:"computer_name"`
	DeviceModel    sql.NullString `json:"device_model"`
	RemoteOffice   sql.NullString `json:"remote_office"`
	WarrantyExpiry sql.NullTime   `json:"warranty_expiry"`
	TechAssigned   sql.NullString `json:"tech_assigned"`
}
