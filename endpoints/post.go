package endpoints

import (
	"errors"
	"net/http"
	"strconv"

	"inventory-analytics/config"
	"inventory-analytics/database"
	"inventory-analytics/ingest"
	"inventory-analytics/middleware"
	"inventory-analytics/types"
)

// multipart parts beyond this stay on disk
const maxUploadMemory = 8 << 20

func PostUpload(w http.ResponseWriter, req *http.Request) {
	requestInfo, ok := requestInfoOrFail(w, req)
	if !ok {
		return
	}
	log := requestInfo.Log

	if err := req.ParseMultipartForm(maxUploadMemory); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			log.HTTPWarning(req, "Request body is not multipart form data: "+err.Error())
			writeError(w, http.StatusBadRequest, ingest.ErrNoFile.Error())
			return
		}
		if errors.Is(err, http.ErrMissingBoundary) {
			log.HTTPWarning(req, "Multipart form data missing boundary: "+err.Error())
			middleware.WriteJsonError(w, http.StatusBadRequest)
			return
		}
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			log.HTTPWarning(req, "Upload too large: "+maxBytesErr.Error())
			middleware.WriteJsonError(w, http.StatusRequestEntityTooLarge)
			return
		}
		log.HTTPWarning(req, "Cannot parse multipart form: "+err.Error())
		middleware.WriteJsonError(w, http.StatusBadRequest)
		return
	}
	defer req.MultipartForm.RemoveAll()

	file, header, err := req.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			log.HTTPInfo(req, "Upload without a file part")
			writeError(w, http.StatusBadRequest, ingest.ErrNoFile.Error())
			return
		}
		log.HTTPWarning(req, "Cannot read uploaded file: "+err.Error())
		middleware.WriteJsonError(w, http.StatusBadRequest)
		return
	}
	defer file.Close()

	if err := ingest.ValidateFileName(header.Filename); err != nil {
		log.HTTPInfo(req, "Rejected upload '"+header.Filename+"': "+err.Error())
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := ingest.ReadWorkbook(file, header.Filename)
	if err != nil {
		log.HTTPWarning(req, "Error processing file '"+header.Filename+"': "+err.Error())
		writeError(w, http.StatusBadRequest, "Error processing file: "+err.Error())
		return
	}
	loadRecords(w, req, requestInfo, "upload:"+header.Filename, records, ingest.UploadMessage)
}

func PostDemo(w http.ResponseWriter, req *http.Request) {
	requestInfo, ok := requestInfoOrFail(w, req)
	if !ok {
		return
	}
	records := ingest.DemoRecords(requestInfo.Now)
	loadRecords(w, req, requestInfo, "demo", records, func(loaded int) string {
		return "Loaded " + strconv.Itoa(loaded) + " demo records"
	})
}

func PostRecords(w http.ResponseWriter, req *http.Request) {
	requestInfo, ok := requestInfoOrFail(w, req)
	if !ok {
		return
	}
	defer req.Body.Close()
	records, err := ingest.DecodeRecords(req.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			requestInfo.Log.HTTPWarning(req, "Records body too large: "+maxBytesErr.Error())
			middleware.WriteJsonError(w, http.StatusRequestEntityTooLarge)
			return
		}
		requestInfo.Log.HTTPWarning(req, "Cannot decode records: "+err.Error())
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	loadRecords(w, req, requestInfo, "records", records, func(loaded int) string {
		return "Successfully processed " + strconv.Itoa(loaded) + " records"
	})
}

func PostDatabaseLoad(w http.ResponseWriter, req *http.Request) {
	requestInfo, ok := requestInfoOrFail(w, req)
	if !ok {
		return
	}
	log := requestInfo.Log

	source, err := config.GetInventorySource()
	if err != nil {
		log.HTTPInfo(req, "Database load requested without a database: "+err.Error())
		writeError(w, http.StatusServiceUnavailable, database.ErrNotConfigured.Error())
		return
	}
	records, shared, err := source.Load(req.Context())
	if err != nil {
		log.HTTPError(req, "Cannot load inventory from database: "+err.Error())
		middleware.WriteJsonError(w, http.StatusInternalServerError)
		return
	}
	if shared {
		log.HTTPDebug(req, "Database load shared with a concurrent request")
	}
	loadRecords(w, req, requestInfo, "database", records, func(loaded int) string {
		return "Loaded " + strconv.Itoa(loaded) + " records from database"
	})
}

func PostDatabaseSave(w http.ResponseWriter, req *http.Request) {
	requestInfo, ok := requestInfoOrFail(w, req)
	if !ok {
		return
	}
	log := requestInfo.Log

	db, err := config.GetDatabaseConn()
	if err != nil {
		log.HTTPInfo(req, "Database save requested without a database: "+err.Error())
		writeError(w, http.StatusServiceUnavailable, database.ErrNotConfigured.Error())
		return
	}
	devices := requestInfo.Workspace.Engine.Collection().Devices()
	if len(devices) == 0 {
		writeError(w, http.StatusBadRequest, "No data to save")
		return
	}
	stored, err := database.NewRepo(db).ReplaceInventory(req.Context(), devices)
	if err != nil {
		log.HTTPError(req, "Cannot store inventory in database: "+err.Error())
		middleware.WriteJsonError(w, http.StatusInternalServerError)
		return
	}
	log.HTTPInfo(req, "Stored inventory in database", "stored", stored)
	writeJSON(w, req, http.StatusOK, types.SaveResponse{
		Success: true,
		Stored:  stored,
		Message: "Saved " + strconv.FormatInt(stored, 10) + " devices to database",
	})
}

func PostApplyFilter(w http.ResponseWriter, req *http.Request) {
	requestInfo, ok := requestInfoOrFail(w, req)
	if !ok {
		return
	}
	var filterRequest types.FilterRequest
	if !decodeJSONBody(w, req, &filterRequest) {
		return
	}
	snapshot, transition, err := requestInfo.Workspace.Engine.ApplyFilter(filterRequest.Dimension, filterRequest.Value, requestInfo.Now)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	requestInfo.Log.HTTPDebug(req, "Filter "+string(transition), "dimension", filterRequest.Dimension.String(), "value", filterRequest.Value)
	writeJSON(w, req, http.StatusOK, types.FilterResponse{
		Transition: string(transition),
		Filter:     snapshot.State,
		Label:      filterLabel(snapshot),
		Devices:    snapshot.Devices,
		View:       requestInfo.Builder.BuildView(snapshot.Devices, requestInfo.Now),
	})
}
