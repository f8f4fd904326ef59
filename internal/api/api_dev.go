package api

import (
	"net/http"
)

func (cfg *APIConfig) endpResetStore(w http.ResponseWriter, r *http.Request) {
	if !cfg.isDev() {
		respondWithText(w, http.StatusForbidden, "")
		return
	}

	if err := cfg.store.Reset(r.Context()); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Could not reset store", err)
		return
	}

	respondWithText(w, http.StatusOK, "Successfully deleted all documents.")
}

func (cfg *APIConfig) endpGetTotalUserCount(w http.ResponseWriter, r *http.Request) {
	if !cfg.isDev() {
		respondWithText(w, http.StatusForbidden, "")
		return
	}

	count, err := cfg.store.Users.Count(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Could not count users", err)
		return
	}

	type resp struct {
		Count int64 `json:"count"`
	}
	respondWithJSON(w, http.StatusOK, resp{Count: count})
}
