package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/YouWantToPinch/dashboard-api/internal/resource"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

var errInvalidPayload = errors.New("invalid request payload")

func decodePayload[T any](w http.ResponseWriter, r *http.Request) (T, error) {
	var v T
	defer r.Body.Close()
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&v)
	if err != nil {
		return v, fmt.Errorf("%w: %v", errInvalidPayload, err)
	}
	return v, nil
}

// envelope is the body of every JSON response.
type envelope map[string]any

type errorResponse struct {
	Success bool                  `json:"success"`
	Message string                `json:"message,omitempty"`
	Errors  []resource.FieldError `json:"errors,omitempty"`
}

func makeStatusCodeMsg(code int) string {
	return fmt.Sprintf("%d %s", code, http.StatusText(code))
}

// respondWithError answers with msg and logs err. Server errors never
// expose err to the client.
func respondWithError(w http.ResponseWriter, code int, msg string, err error) {
	logMessage := makeStatusCodeMsg(code)
	if msg != "" {
		logMessage += "; " + msg
	}
	attrs := []any{slog.Int("status", code)}
	if err != nil {
		attrs = append(attrs, slog.Any("err", err))
	}
	if code >= http.StatusInternalServerError {
		slog.Error(logMessage, attrs...)
	} else {
		slog.Debug(logMessage, attrs...)
	}

	respondWithJSON(w, code, errorResponse{Message: msg})
}

func respondWithValidation(w http.ResponseWriter, verr *resource.ValidationError) {
	msgs := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		msgs = append(msgs, f.Message)
	}
	respondWithJSON(w, http.StatusBadRequest, errorResponse{
		Message: strings.Join(msgs, ", "),
		Errors:  verr.Fields,
	})
}

// respondWithSuccess adds success:true to payload.
func respondWithSuccess(w http.ResponseWriter, code int, payload envelope) {
	if payload == nil {
		payload = envelope{}
	}
	payload["success"] = true
	respondWithJSON(w, code, payload)
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("could not marshal JSON for response", slog.Any("err", err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(data); err != nil {
		slog.Error("could not write JSON response", slog.Any("err", err))
	}
}

func respondWithText(w http.ResponseWriter, code int, msg string) {
	if msg == "" {
		msg = makeStatusCodeMsg(code)
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	if _, err := w.Write([]byte(msg)); err != nil {
		slog.Error(err.Error())
	}
}

// parseUUIDFromPath reads a path parameter as a UUID.
func parseUUIDFromPath(pathParam string, r *http.Request) (uuid.UUID, error) {
	raw := r.PathValue(pathParam)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("value '%s' for path parameter '%s' could not be parsed as UUID: %w", raw, pathParam, err)
	}
	return id, nil
}

// capitalize turns a kind name into a message subject: task -> Task.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
