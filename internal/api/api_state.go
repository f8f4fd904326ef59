package api

import (
	"net/http"
)

const serviceVersion = "1.0.0"

func (cfg *APIConfig) endpHealth(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "Server is running",
	})
}

func (cfg *APIConfig) endpBanner(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"message": "Social Dashboard API Server",
		"version": serviceVersion,
		"endpoints": map[string]string{
			"auth":      "/api/auth",
			"tasks":     "/api/tasks",
			"notes":     "/api/notes",
			"bookmarks": "/api/bookmarks",
			"events":    "/api/events",
			"widgets":   "/api/widgets",
			"health":    "/api/health",
		},
	})
}
