package api

import (
	"net/http"

	"github.com/YouWantToPinch/dashboard-api/internal/resource"
)

func (cfg *APIConfig) endpBatchUpdateWidgets(w http.ResponseWriter, r *http.Request) {
	type rqSchema struct {
		Widgets []resource.LayoutItem `json:"widgets"`
	}

	rqPayload, err := decodePayload[rqSchema](w, r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, errInvalidPayload.Error(), err)
		return
	}

	widgets, err := resource.BatchLayout(r.Context(), cfg.services.Widgets, userIDFromContext(r.Context()), rqPayload.Widgets)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Error updating widgets", err)
		return
	}
	respondWithSuccess(w, http.StatusOK, envelope{"widgets": widgets})
}
