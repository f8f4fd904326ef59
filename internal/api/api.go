// Package api handles routes and their associated handlers
package api

import (
	"net/http"

	"github.com/YouWantToPinch/dashboard-api/internal/blob"
)

// SetupMux registers every route and wraps the mux in the shared
// middleware chain.
func SetupMux(cfg *APIConfig) http.Handler {
	mux := http.NewServeMux()

	// middleware
	mdAuth := cfg.middlewareAuthenticate

	// REGISTER API HANDLERS
	// ======================

	// Admin & State
	mux.HandleFunc("GET /{$}", cfg.endpBanner)
	mux.HandleFunc("GET /api/health", cfg.endpHealth)
	mux.HandleFunc("POST /admin/reset", cfg.endpResetStore)
	mux.HandleFunc("GET /admin/users/count", cfg.endpGetTotalUserCount)
	// User authentication
	mux.HandleFunc("POST /api/auth/register", cfg.endpRegisterUser)
	mux.HandleFunc("POST /api/auth/login", cfg.endpLoginUser)
	mux.HandleFunc("GET /api/auth/me", mdAuth(cfg.endpGetMe))
	mux.HandleFunc("PUT /api/auth/profile", mdAuth(cfg.endpUpdateProfile))
	mux.HandleFunc("PUT /api/auth/change-password", mdAuth(cfg.endpChangePassword))
	mux.HandleFunc("PUT /api/auth/avatar", mdAuth(cfg.endpUploadAvatar))
	// Resources
	newResourceHandlers(cfg.services.Tasks).register(mux, mdAuth)
	newResourceHandlers(cfg.services.Notes).register(mux, mdAuth)
	newResourceHandlers(cfg.services.Bookmarks).register(mux, mdAuth)
	newResourceHandlers(cfg.services.Events).register(mux, mdAuth)
	newResourceHandlers(cfg.services.Widgets).register(mux, mdAuth)
	mux.HandleFunc("PUT /api/widgets/batch/update", mdAuth(cfg.endpBatchUpdateWidgets))
	// Realtime
	mux.HandleFunc("GET /socket", cfg.endpSocket)
	// Static uploads
	if cfg.avatars != nil {
		files := http.FileServer(http.Dir(cfg.avatars.Root()))
		mux.Handle("GET "+blob.PublicPrefix+"/", http.StripPrefix(blob.PublicPrefix, files))
	}

	return cfg.middlewareRecover(cfg.middlewareLogRequests(cfg.middlewareCORS(mux)))
}
