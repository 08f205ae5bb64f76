package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	json "github.com/goccy/go-json"

	"inventory-analytics/types"
)

var ErrNoRecords = errors.New("request contains no records")

type recordEnvelope struct {
	Records []types.RawRecord `json:"records"`
}

// DecodeRecords reads raw records from JSON, either a bare array or an object
// with a records field. An empty expiry string decodes as a present but empty
// value and is normalized to unknown later.
func DecodeRecords(r io.Reader) ([]types.RawRecord, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("cannot read records: %w", err)
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, ErrNoRecords
	}

	var records []types.RawRecord
	if body[0] == '[' {
		if err := json.Unmarshal(body, &records); err != nil {
			return nil, fmt.Errorf("cannot decode record array: %w", err)
		}
	} else {
		var envelope recordEnvelope
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, fmt.Errorf("cannot decode record object: %w", err)
		}
		records = envelope.Records
	}

	if len(records) == 0 {
		return nil, ErrNoRecords
	}
	return records, nil
}
