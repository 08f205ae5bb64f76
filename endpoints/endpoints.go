package endpoints

import (
	"errors"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"inventory-analytics/analytics"
	"inventory-analytics/config"
	"inventory-analytics/filter"
	"inventory-analytics/inventory"
	"inventory-analytics/logger"
	"inventory-analytics/middleware"
	"inventory-analytics/types"
)

// clock is the time source for every handler.
var clock = time.Now

// RequestInfo is what most handlers pull out of the request context.
type RequestInfo struct {
	Log       logger.Logger
	Workspace *config.Workspace
	Now       time.Time
	Builder   *analytics.Builder
}

func GetRequestInfo(req *http.Request) (RequestInfo, error) {
	log := middleware.GetLoggerFromRequest(req)
	workspace, ok := middleware.GetWorkspaceFromRequestContext(req)
	if !ok {
		return RequestInfo{Log: log}, errors.New("no workspace stored in context")
	}
	return RequestInfo{
		Log:       log,
		Workspace: workspace,
		Now:       clock(),
		Builder:   analytics.NewBuilder(config.GetHorizons()),
	}, nil
}

// requestInfoOrFail writes a 500 when the request context is incomplete.
func requestInfoOrFail(w http.ResponseWriter, req *http.Request) (RequestInfo, bool) {
	requestInfo, err := GetRequestInfo(req)
	if err != nil {
		requestInfo.Log.HTTPError(req, "Cannot get request info: "+err.Error())
		middleware.WriteJsonError(w, http.StatusInternalServerError)
		return requestInfo, false
	}
	return requestInfo, true
}

func writeJSON(w http.ResponseWriter, req *http.Request, status int, v any) {
	middleware.SetEndpointContentType(w, req)
	if err := middleware.WriteJson(w, status, v); err != nil {
		middleware.GetLoggerFromRequest(req).HTTPWarning(req, "Cannot write JSON response: "+err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	middleware.WriteJsonErrorMessage(w, status, msg)
}

// decodeJSONBody decodes the request body into v and maps size errors to 413.
func decodeJSONBody(w http.ResponseWriter, req *http.Request, v any) bool {
	log := middleware.GetLoggerFromRequest(req)
	defer req.Body.Close()
	body, err := io.ReadAll(req.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			log.HTTPWarning(req, "Request body exceeds maximum allowed bytes: "+maxBytesErr.Error())
			middleware.WriteJsonError(w, http.StatusRequestEntityTooLarge)
			return false
		}
		log.HTTPWarning(req, "Cannot read request body: "+err.Error())
		middleware.WriteJsonError(w, http.StatusBadRequest)
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		log.HTTPWarning(req, "Cannot decode JSON body: "+err.Error())
		writeError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// loadRecords replaces the workspace collection and writes the ingest result.
// message is built from the number of devices kept after dropped rows.
func loadRecords(w http.ResponseWriter, req *http.Request, requestInfo RequestInfo, source string, records []types.RawRecord, message func(loaded int) string) {
	collection, report := inventory.NewCollection(source, records, requestInfo.Now)
	requestInfo.Workspace.Engine.Load(collection)
	requestInfo.Log.HTTPInfo(req, "Loaded inventory into workspace "+requestInfo.Workspace.ID.String(),
		"source", source, "loaded", report.Loaded, "dropped", report.Dropped)
	writeJSON(w, req, http.StatusOK, types.IngestResult{
		Success: true,
		Data:    collection.Devices(),
		Message: message(report.Loaded),
		Dropped: report.Dropped,
	})
}

func filterLabel(snapshot filter.Snapshot) string {
	return filter.Label(snapshot.State, len(snapshot.Devices))
}
