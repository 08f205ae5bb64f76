package database

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"

	"inventory-analytics/types"
)

// InventoryReader is the part of Repo the source needs.
type InventoryReader interface {
	GetInventoryRecords(ctx context.Context) ([]types.RawRecord, error)
}

// InventorySource loads the stored inventory. Concurrent loads share one
// query; each caller gets its own copy of the records.
type InventorySource struct {
	reader InventoryReader
	group  singleflight.Group
}

func NewInventorySource(reader InventoryReader) *InventorySource {
	return &InventorySource{reader: reader}
}

const inventoryLoadKey = "warranty_inventory"

func (source *InventorySource) Load(ctx context.Context) ([]types.RawRecord, bool, error) {
	if source == nil || source.reader == nil {
		return nil, false, ErrNotConfigured
	}
	result, err, shared := source.group.Do(inventoryLoadKey, func() (any, error) {
		return source.reader.GetInventoryRecords(ctx)
	})
	if err != nil {
		return nil, shared, fmt.Errorf("cannot load inventory from database: %w", err)
	}
	records, ok := result.([]types.RawRecord)
	if !ok {
		return nil, shared, fmt.Errorf("unexpected inventory result type %T", result)
	}
	out := make([]types.RawRecord, len(records))
	copy(out, records)
	return out, shared, nil
}
