package endpoints

import (
	"errors"
	"net/http"
	"strings"

	"inventory-analytics/analytics"
	"inventory-analytics/export"
	"inventory-analytics/ingest"
	"inventory-analytics/middleware"
	"inventory-analytics/types"
)

func GetHealth(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, req, http.StatusOK, types.HealthResponse{Status: "healthy", Timestamp: clock()})
}

func GetAnalytics(w http.ResponseWriter, req *http.Request) {
	requestInfo, ok := requestInfoOrFail(w, req)
	if !ok {
		return
	}
	snapshot := requestInfo.Workspace.Engine.Snapshot(requestInfo.Now)
	writeJSON(w, req, http.StatusOK, types.AnalyticsResponse{
		Source:   snapshot.Collection.Source(),
		LoadedAt: snapshot.Collection.LoadedAt(),
		Filter:   snapshot.State,
		Label:    filterLabel(snapshot),
		View:     requestInfo.Builder.BuildView(snapshot.Devices, requestInfo.Now),
	})
}

func GetDevices(w http.ResponseWriter, req *http.Request) {
	requestInfo, ok := requestInfoOrFail(w, req)
	if !ok {
		return
	}
	snapshot := requestInfo.Workspace.Engine.Snapshot(requestInfo.Now)
	devices := snapshot.Devices
	if devices == nil {
		devices = []types.Device{}
	}
	writeJSON(w, req, http.StatusOK, types.DevicesResponse{
		Filter:  snapshot.State,
		Label:   filterLabel(snapshot),
		Count:   len(devices),
		Devices: devices,
	})
}

func GetTechnicianReport(w http.ResponseWriter, req *http.Request) {
	requestInfo, ok := requestInfoOrFail(w, req)
	if !ok {
		return
	}
	name := strings.TrimSpace(req.PathValue("name"))
	devices := requestInfo.Workspace.Engine.Collection().Devices()
	report, err := requestInfo.Builder.TechnicianReport(devices, name, requestInfo.Now)
	if errors.Is(err, analytics.ErrNotFound) {
		writeError(w, http.StatusNotFound, "No devices found for technician: "+name)
		return
	}
	if err != nil {
		requestInfo.Log.HTTPError(req, "Cannot build technician report: "+err.Error())
		middleware.WriteJsonError(w, http.StatusInternalServerError)
		return
	}
	writeJSON(w, req, http.StatusOK, report)
}

func GetOfficeReport(w http.ResponseWriter, req *http.Request) {
	requestInfo, ok := requestInfoOrFail(w, req)
	if !ok {
		return
	}
	name := strings.TrimSpace(req.PathValue("name"))
	devices := requestInfo.Workspace.Engine.Collection().Devices()
	report, err := requestInfo.Builder.OfficeReport(devices, name, requestInfo.Now)
	if errors.Is(err, analytics.ErrNotFound) {
		writeError(w, http.StatusNotFound, "No devices found for office: "+name)
		return
	}
	if err != nil {
		requestInfo.Log.HTTPError(req, "Cannot build office report: "+err.Error())
		middleware.WriteJsonError(w, http.StatusInternalServerError)
		return
	}
	writeJSON(w, req, http.StatusOK, report)
}

// GetExportCSV exports the whole collection, not the filtered subset.
func GetExportCSV(w http.ResponseWriter, req *http.Request) {
	requestInfo, ok := requestInfoOrFail(w, req)
	if !ok {
		return
	}
	devices := requestInfo.Workspace.Engine.Collection().Devices()
	csv, err := export.ConvertDevicesToCSV(req.Context(), devices, requestInfo.Now)
	if errors.Is(err, export.ErrNoData) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		requestInfo.Log.HTTPError(req, "Cannot build CSV export: "+err.Error())
		middleware.WriteJsonError(w, http.StatusInternalServerError)
		return
	}
	fileName := export.CSVFileName(requestInfo.Now)
	middleware.SetEndpointContentType(w, req)
	w.Header().Set("Content-Disposition", `attachment; filename="`+fileName+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(csv)); err != nil {
		requestInfo.Log.HTTPWarning(req, "Cannot write CSV export: "+err.Error())
	}
}

func GetExportSummary(w http.ResponseWriter, req *http.Request) {
	requestInfo, ok := requestInfoOrFail(w, req)
	if !ok {
		return
	}
	devices := requestInfo.Workspace.Engine.Collection().Devices()
	summary, err := export.TechSummary(devices, requestInfo.Now)
	if errors.Is(err, export.ErrNoData) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		requestInfo.Log.HTTPError(req, "Cannot build technician summary: "+err.Error())
		middleware.WriteJsonError(w, http.StatusInternalServerError)
		return
	}
	writeJSON(w, req, http.StatusOK, summary)
}

func GetDemoStats(w http.ResponseWriter, req *http.Request) {
	requestInfo, ok := requestInfoOrFail(w, req)
	if !ok {
		return
	}
	devices := requestInfo.Workspace.Engine.Collection().Devices()
	writeJSON(w, req, http.StatusOK, types.DemoStatsResponse{
		Stats:      requestInfo.Builder.DemoStats(devices, requestInfo.Now),
		Validation: ingest.ValidateDemo(devices),
	})
}
