package endpoints

import (
	"net/http"

	"inventory-analytics/filter"
	"inventory-analytics/types"
)

func DeleteFilter(w http.ResponseWriter, req *http.Request) {
	requestInfo, ok := requestInfoOrFail(w, req)
	if !ok {
		return
	}
	snapshot := requestInfo.Workspace.Engine.ClearFilter(requestInfo.Now)
	writeJSON(w, req, http.StatusOK, types.FilterResponse{
		Transition: string(filter.TransitionCleared),
		Filter:     snapshot.State,
		Label:      filterLabel(snapshot),
		Devices:    snapshot.Devices,
		View:       requestInfo.Builder.BuildView(snapshot.Devices, requestInfo.Now),
	})
}
