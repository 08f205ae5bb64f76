package types

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// WarrantyState is the four-way partition used for performance scoring.
type WarrantyState int

const (
	StateUnknown WarrantyState = iota
	StateExpired
	StateExpiringSoon
	StateActive
)

var warrantyStateNames = map[WarrantyState]string{
	StateUnknown:      "unknown",
	StateExpired:      "expired",
	StateExpiringSoon: "expiringSoon",
	StateActive:       "active",
}

func (state WarrantyState) IsValid() bool {
	_, ok := warrantyStateNames[state]
	return ok
}

func (state WarrantyState) String() string {
	if name, ok := warrantyStateNames[state]; ok {
		return name
	}
	return "invalid"
}

func (state WarrantyState) MarshalJSON() ([]byte, error) {
	return json.Marshal(state.String())
}

// WarrantyStatus is the coarse partition used by filtering, the summary panel
// and export: any known expiry that has not passed counts as Active.
type WarrantyStatus int

const (
	StatusUnknown WarrantyStatus = iota
	StatusExpired
	StatusActive
)

var WarrantyStatusMap = map[string]WarrantyStatus{
	"Active":  StatusActive,
	"Expired": StatusExpired,
	"Unknown": StatusUnknown,
}

// WarrantyStatusOrder is the presentation order of the status chart.
var WarrantyStatusOrder = []WarrantyStatus{StatusActive, StatusExpired, StatusUnknown}

func ParseWarrantyStatus(s string) (WarrantyStatus, error) {
	if status, ok := WarrantyStatusMap[s]; ok {
		return status, nil
	}
	return StatusUnknown, fmt.Errorf("invalid warranty status: %s", s)
}

func (status WarrantyStatus) String() string {
	for name, val := range WarrantyStatusMap {
		if val == status {
			return name
		}
	}
	return "Invalid"
}

func (status WarrantyStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(status.String())
}

func (status *WarrantyStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParseWarrantyStatus(str)
	if err != nil {
		return err
	}
	*status = parsed
	return nil
}
