package api

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/YouWantToPinch/dashboard-api/internal/auth"
	"github.com/YouWantToPinch/dashboard-api/internal/store"
)

// ================= MIDDLEWARE ================= //

type ctxKey string

const ctxUserID = ctxKey("user_id")

// middlewareAuthenticate resolves the bearer token to a user that still
// exists before passing the request on.
func (cfg *APIConfig) middlewareAuthenticate(next http.HandlerFunc) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, err := auth.GetBearerToken(r.Header)
		if err != nil {
			respondWithError(w, http.StatusUnauthorized, "Not authorized, token failed", err)
			return
		}
		userID, err := cfg.authenticate(r.Context(), tokenString)
		if err != nil {
			respondWithError(w, http.StatusUnauthorized, "Not authorized, token failed", err)
			return
		}
		ctx := context.WithValue(r.Context(), ctxUserID, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// authenticate resolves a token to a user that still exists.
func (cfg *APIConfig) authenticate(ctx context.Context, tokenString string) (uuid.UUID, error) {
	userID, err := cfg.tokens.Verify(tokenString)
	if err != nil {
		return uuid.Nil, err
	}
	if _, err := cfg.store.Users.Get(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return uuid.Nil, errors.New("token names an unknown user")
		}
		return uuid.Nil, err
	}
	return userID, nil
}

// statusRecorder remembers the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Unwrap() http.ResponseWriter {
	return rec.ResponseWriter
}

// Hijack is needed by the websocket upgrade.
func (rec *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rec.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	rec.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (cfg *APIConfig) middlewareLogRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		cfg.logger.Info("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("duration", time.Since(start)),
		)
	})
}

func (cfg *APIConfig) middlewareRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				cfg.logger.Error("handler panicked",
					slog.Any("panic", v),
					slog.String("stack", string(debug.Stack())),
				)
				respondWithError(w, http.StatusInternalServerError, "Internal Server Error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// middlewareCORS echoes allowed origins with credentials and answers
// preflight requests itself.
func (cfg *APIConfig) middlewareCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && cfg.origins[origin] {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
			h.Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ============== HELPERS =================

func getContextKeyValueAsUUID(ctx context.Context, key ctxKey) uuid.UUID {
	v, ok := ctx.Value(key).(uuid.UUID)
	if !ok {
		slog.Warn("failed to retrieve key from context", slog.String("key", string(key)))
		return uuid.Nil
	}
	return v
}

func userIDFromContext(ctx context.Context) uuid.UUID {
	return getContextKeyValueAsUUID(ctx, ctxUserID)
}
