package types

import "time"

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type AnalyticsResponse struct {
	Source   string        `json:"source"`
	LoadedAt time.Time     `json:"loadedAt"`
	Filter   FilterState   `json:"filter"`
	Label    string        `json:"label"`
	View     AnalyticsView `json:"view"`
}

type FilterResponse struct {
	Transition string        `json:"transition"`
	Filter     FilterState   `json:"filter"`
	Label      string        `json:"label"`
	Devices    []Device      `json:"devices"`
	View       AnalyticsView `json:"view"`
}

type DevicesResponse struct {
	Filter  FilterState `json:"filter"`
	Label   string      `json:"label"`
	Count   int         `json:"count"`
	Devices []Device    `json:"devices"`
}

type DemoStatsResponse struct {
	Stats      DemoStats      `json:"stats"`
	Validation DemoValidation `json:"validation"`
}

type SaveResponse struct {
	Success bool   `json:"success"`
	Stored  int64  `json:"stored"`
	Message string `json:"message"`
}
