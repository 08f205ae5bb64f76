package webserver

import (
	"net/http"
	"slices"

	"inventory-analytics/config"
	"inventory-analytics/endpoints"
	"inventory-analytics/middleware"
)

// Mux handlers
type muxChain []func(http.Handler) http.Handler

func (chain muxChain) thenFunc(handle http.HandlerFunc) http.Handler {
	return chain.then(handle)
}

func (chain muxChain) then(handle http.Handler) http.Handler {
	for _, fn := range slices.Backward(chain) {
		handle = fn(handle)
	}
	return handle
}

// NewMux registers every endpoint behind its middleware chain. Patterns come
// from the endpoint registry, which the chain looks requests up in.
func NewMux() *http.ServeMux {
	baseChain := muxChain{
		middleware.StoreLoggerMiddleware,
		middleware.PanicRecoveryMiddleware,
		middleware.WebEndpointConfigMiddleware,
		middleware.LimitRequestSizeMiddleware,
		middleware.StoreClientIPMiddleware,
		middleware.CheckIPBlockedMiddleware,
		middleware.RateLimitMiddleware,
		middleware.RequestTimeoutMiddleware,
		middleware.HTTPMethodMiddleware,
		middleware.CheckHeadersMiddleware,
		middleware.SetHeadersMiddleware,
	}
	workspaceChain := append(slices.Clone(baseChain), middleware.WorkspaceMiddleware)

	mux := http.NewServeMux()
	mux.Handle(config.HealthPattern, baseChain.thenFunc(endpoints.GetHealth))

	mux.Handle(config.UploadPattern, workspaceChain.thenFunc(endpoints.PostUpload))
	mux.Handle(config.DemoPattern, workspaceChain.thenFunc(endpoints.PostDemo))
	mux.Handle(config.RecordsPattern, workspaceChain.thenFunc(endpoints.PostRecords))
	mux.Handle(config.DatabaseLoadPattern, workspaceChain.thenFunc(endpoints.PostDatabaseLoad))
	mux.Handle(config.DatabaseSavePattern, workspaceChain.thenFunc(endpoints.PostDatabaseSave))
	mux.Handle(config.ApplyFilterPattern, workspaceChain.thenFunc(endpoints.PostApplyFilter))
	mux.Handle(config.ClearFilterPattern, workspaceChain.thenFunc(endpoints.DeleteFilter))

	mux.Handle(config.AnalyticsPattern, workspaceChain.thenFunc(endpoints.GetAnalytics))
	mux.Handle(config.DevicesPattern, workspaceChain.thenFunc(endpoints.GetDevices))
	mux.Handle(config.TechnicianPattern, workspaceChain.thenFunc(endpoints.GetTechnicianReport))
	mux.Handle(config.OfficePattern, workspaceChain.thenFunc(endpoints.GetOfficeReport))
	mux.Handle(config.ExportCSVPattern, workspaceChain.thenFunc(endpoints.GetExportCSV))
	mux.Handle(config.ExportSummaryPattern, workspaceChain.thenFunc(endpoints.GetExportSummary))
	mux.Handle(config.DemoStatsPattern, workspaceChain.thenFunc(endpoints.GetDemoStats))
	return mux
}
