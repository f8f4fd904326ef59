package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/YouWantToPinch/dashboard-api/internal/auth"
)

func (cfg *APIConfig) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || cfg.origins[origin]
		},
	}
}

// endpSocket upgrades an authenticated request to a realtime session.
// Only this route accepts ?token=, since browsers cannot set headers on
// websocket upgrades.
func (cfg *APIConfig) endpSocket(w http.ResponseWriter, r *http.Request) {
	tokenString, err := auth.TokenFromRequest(r)
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, "Not authorized, token failed", err)
		return
	}
	userID, err := cfg.authenticate(r.Context(), tokenString)
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, "Not authorized, token failed", err)
		return
	}

	conn, err := cfg.upgrader().Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the client
		cfg.logger.Warn("socket upgrade failed", slog.Any("err", err))
		return
	}
	cfg.hub.Serve(conn, userID)
}
