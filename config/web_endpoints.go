package config

import (
	"fmt"
	"strings"
)

type WebEndpointConfig struct {
	AllowedMethods []string
	EndpointType   string // "api" or "file"
	LimiterType    string // "web", "api" or "file"
	MaxBodyBytes   int64
	ContentType    string
}

// Endpoint patterns as registered on the mux. Middleware looks the request's
// matched pattern up in this table.
const (
	HealthPattern          = "GET /health"
	UploadPattern          = "POST /upload"
	DemoPattern            = "POST /api/demo"
	RecordsPattern         = "POST /api/records"
	DatabaseLoadPattern    = "POST /api/database/load"
	DatabaseSavePattern    = "POST /api/database/save"
	AnalyticsPattern       = "GET /api/analytics"
	ApplyFilterPattern     = "POST /api/filter"
	ClearFilterPattern     = "DELETE /api/filter"
	DevicesPattern         = "GET /api/devices"
	TechnicianPattern      = "GET /api/technicians/{name}"
	OfficePattern          = "GET /api/offices/{name}"
	ExportCSVPattern       = "GET /api/export/csv"
	ExportSummaryPattern   = "GET /api/export/summary"
	DemoStatsPattern       = "GET /api/demo/stats"
	jsonContentType        = "application/json; charset=utf-8"
	csvContentType         = "text/csv; charset=utf-8"
	defaultMaxRequestBytes = 64 << 10
)

func InitWebEndpoints(appState *AppState, appConfig *AppConfiguration) {
	if appState == nil || appConfig == nil {
		return
	}
	jsonBody := appConfig.MaxJSONBytes
	endpoints := map[string]WebEndpointConfig{
		HealthPattern:        {EndpointType: "api", LimiterType: "web", MaxBodyBytes: defaultMaxRequestBytes, ContentType: jsonContentType},
		UploadPattern:        {EndpointType: "file", LimiterType: "file", MaxBodyBytes: appConfig.MaxUploadBytes, ContentType: jsonContentType},
		DemoPattern:          {EndpointType: "api", LimiterType: "api", MaxBodyBytes: defaultMaxRequestBytes, ContentType: jsonContentType},
		RecordsPattern:       {EndpointType: "api", LimiterType: "api", MaxBodyBytes: jsonBody, ContentType: jsonContentType},
		DatabaseLoadPattern:  {EndpointType: "api", LimiterType: "api", MaxBodyBytes: defaultMaxRequestBytes, ContentType: jsonContentType},
		DatabaseSavePattern:  {EndpointType: "api", LimiterType: "api", MaxBodyBytes: defaultMaxRequestBytes, ContentType: jsonContentType},
		AnalyticsPattern:     {EndpointType: "api", LimiterType: "api", MaxBodyBytes: defaultMaxRequestBytes, ContentType: jsonContentType},
		ApplyFilterPattern:   {EndpointType: "api", LimiterType: "api", MaxBodyBytes: defaultMaxRequestBytes, ContentType: jsonContentType},
		ClearFilterPattern:   {EndpointType: "api", LimiterType: "api", MaxBodyBytes: defaultMaxRequestBytes, ContentType: jsonContentType},
		DevicesPattern:       {EndpointType: "api", LimiterType: "api", MaxBodyBytes: defaultMaxRequestBytes, ContentType: jsonContentType},
		TechnicianPattern:    {EndpointType: "api", LimiterType: "api", MaxBodyBytes: defaultMaxRequestBytes, ContentType: jsonContentType},
		OfficePattern:        {EndpointType: "api", LimiterType: "api", MaxBodyBytes: defaultMaxRequestBytes, ContentType: jsonContentType},
		ExportCSVPattern:     {EndpointType: "file", LimiterType: "file", MaxBodyBytes: defaultMaxRequestBytes, ContentType: csvContentType},
		ExportSummaryPattern: {EndpointType: "api", LimiterType: "api", MaxBodyBytes: defaultMaxRequestBytes, ContentType: jsonContentType},
		DemoStatsPattern:     {EndpointType: "api", LimiterType: "api", MaxBodyBytes: defaultMaxRequestBytes, ContentType: jsonContentType},
	}
	for pattern, endpoint := range endpoints {
		method, _, _ := strings.Cut(pattern, " ")
		endpoint.AllowedMethods = []string{method}
		if endpoint.MaxBodyBytes <= 0 {
			endpoint.MaxBodyBytes = defaultMaxRequestBytes
		}
		appState.webEndpoints.Store(pattern, &endpoint)
	}
}

func GetWebEndpointConfig(endpointPattern string) (*WebEndpointConfig, error) {
	appState, err := GetAppState()
	if err != nil {
		return nil, fmt.Errorf("error getting app state in GetWebEndpointConfig: %w", err)
	}
	value, ok := appState.webEndpoints.Load(endpointPattern)
	if !ok {
		return nil, fmt.Errorf("endpoint not found in config: %s", endpointPattern)
	}
	endpointData, ok := value.(*WebEndpointConfig)
	if !ok || endpointData == nil {
		return nil, fmt.Errorf("invalid/missing endpoint data for: %s", endpointPattern)
	}
	endpointCopy := *endpointData
	return &endpointCopy, nil
}

func GetWebEndpointAllowedMethods(webEndpoint *WebEndpointConfig) ([]string, error) {
	if webEndpoint == nil {
		return nil, fmt.Errorf("web endpoint config is nil in GetWebEndpointAllowedMethods")
	}
	if len(webEndpoint.AllowedMethods) == 0 {
		return nil, fmt.Errorf("allowed methods field is empty for endpoint")
	}
	return webEndpoint.AllowedMethods, nil
}

func GetWebEndpointContentType(webEndpoint *WebEndpointConfig) (string, error) {
	if webEndpoint == nil {
		return "", fmt.Errorf("web endpoint config is nil in GetWebEndpointContentType")
	}
	if strings.TrimSpace(webEndpoint.ContentType) == "" {
		return "", fmt.Errorf("content type field is empty for endpoint")
	}
	return webEndpoint.ContentType, nil
}
