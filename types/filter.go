package types

import (
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
)

var ErrUnknownDimension = errors.New("unknown filter dimension")

// FilterDimension is the closed set of device attributes a filter can target.
type FilterDimension int

const (
	DimensionDeviceModel FilterDimension = iota
	DimensionRemoteOffice
	DimensionWarrantyStatus
	DimensionTechAssigned
	DimensionCount
)

type dimensionInfo struct {
	key         string
	displayName string
}

var dimensionTable = [DimensionCount]dimensionInfo{
	DimensionDeviceModel:    {key: "deviceModel", displayName: "Device Model"},
	DimensionRemoteOffice:   {key: "remoteOffice", displayName: "Office"},
	DimensionWarrantyStatus: {key: "warrantyStatus", displayName: "Warranty Status"},
	DimensionTechAssigned:   {key: "techAssigned", displayName: "Technician"},
}

func ParseFilterDimension(s string) (FilterDimension, error) {
	s = strings.TrimSpace(s)
	for i, info := range dimensionTable {
		if info.key == s {
			return FilterDimension(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownDimension, s)
}

func (dim FilterDimension) IsValid() bool {
	return dim >= 0 && dim < DimensionCount
}

func (dim FilterDimension) String() string {
	if !dim.IsValid() {
		return "invalid"
	}
	return dimensionTable[dim].key
}

// DisplayName is the label shown next to an active filter.
func (dim FilterDimension) DisplayName() string {
	if !dim.IsValid() {
		return dim.String()
	}
	return dimensionTable[dim].displayName
}

func (dim FilterDimension) MarshalJSON() ([]byte, error) {
	return json.Marshal(dim.String())
}

func (dim *FilterDimension) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParseFilterDimension(str)
	if err != nil {
		return err
	}
	*dim = parsed
	return nil
}

// FilterState is the single active filter. Both fields nil means unfiltered.
type FilterState struct {
	Dimension *FilterDimension `json:"dimension"`
	Value     *string          `json:"value"`
}

func (state FilterState) Active() bool {
	return state.Dimension != nil && state.Value != nil
}

func (state FilterState) Matches(dim FilterDimension, value string) bool {
	return state.Active() && *state.Dimension == dim && *state.Value == value
}

type FilterRequest struct {
	Dimension FilterDimension `json:"dimension"`
	Value     string          `json:"value"`
}
