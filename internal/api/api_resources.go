package api

import (
	"errors"
	"net/http"

	"github.com/YouWantToPinch/dashboard-api/internal/model"
	"github.com/YouWantToPinch/dashboard-api/internal/resource"
)

// resourceHandlers serves the five routes every resource kind shares.
type resourceHandlers[D model.Document] struct {
	svc *resource.Service[D]
	// singular and plural response keys: task, tasks
	one, many string
}

func newResourceHandlers[D model.Document](svc *resource.Service[D]) resourceHandlers[D] {
	kind := svc.Kind()
	return resourceHandlers[D]{svc: svc, one: string(kind), many: kind.Plural()}
}

func (h resourceHandlers[D]) endpList(w http.ResponseWriter, r *http.Request) {
	docs, err := h.svc.List(r.Context(), userIDFromContext(r.Context()), r.URL.Query())
	if err != nil {
		h.respondWithServiceError(w, err, "fetching", h.many, "access")
		return
	}
	respondWithSuccess(w, http.StatusOK, envelope{"count": len(docs), h.many: docs})
}

func (h resourceHandlers[D]) endpGet(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDFromPath("id", r)
	if err != nil {
		h.respondNotFound(w, err)
		return
	}
	doc, err := h.svc.Get(r.Context(), userIDFromContext(r.Context()), id)
	if err != nil {
		h.respondWithServiceError(w, err, "fetching", h.one, "access")
		return
	}
	respondWithSuccess(w, http.StatusOK, envelope{h.one: doc})
}

func (h resourceHandlers[D]) endpCreate(w http.ResponseWriter, r *http.Request) {
	payload, err := decodePayload[resource.Patch](w, r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, errInvalidPayload.Error(), err)
		return
	}
	doc, err := h.svc.Create(r.Context(), userIDFromContext(r.Context()), payload)
	if err != nil {
		h.respondWithServiceError(w, err, "creating", h.one, "access")
		return
	}
	respondWithSuccess(w, http.StatusCreated, envelope{h.one: doc})
}

func (h resourceHandlers[D]) endpUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDFromPath("id", r)
	if err != nil {
		h.respondNotFound(w, err)
		return
	}
	payload, err := decodePayload[resource.Patch](w, r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, errInvalidPayload.Error(), err)
		return
	}
	doc, err := h.svc.Update(r.Context(), userIDFromContext(r.Context()), id, payload)
	if err != nil {
		h.respondWithServiceError(w, err, "updating", h.one, "update")
		return
	}
	respondWithSuccess(w, http.StatusOK, envelope{h.one: doc})
}

func (h resourceHandlers[D]) endpDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDFromPath("id", r)
	if err != nil {
		h.respondNotFound(w, err)
		return
	}
	if err := h.svc.Delete(r.Context(), userIDFromContext(r.Context()), id); err != nil {
		h.respondWithServiceError(w, err, "deleting", h.one, "delete")
		return
	}
	respondWithSuccess(w, http.StatusOK, envelope{"message": capitalize(h.one) + " deleted successfully"})
}

func (h resourceHandlers[D]) respondNotFound(w http.ResponseWriter, err error) {
	respondWithError(w, http.StatusNotFound, capitalize(h.one)+" not found", err)
}

// respondWithServiceError maps the resource error taxonomy onto statuses.
// denied names the refused action in 403 messages.
func (h resourceHandlers[D]) respondWithServiceError(w http.ResponseWriter, err error, verb, subject, denied string) {
	var verr *resource.ValidationError
	switch {
	case errors.As(err, &verr):
		respondWithValidation(w, verr)
	case errors.Is(err, resource.ErrNotFound):
		h.respondNotFound(w, err)
	case errors.Is(err, resource.ErrForbidden):
		respondWithError(w, http.StatusForbidden, "Not authorized to "+denied+" this "+h.one, err)
	default:
		respondWithError(w, http.StatusInternalServerError, "Error "+verb+" "+subject, err)
	}
}

func (h resourceHandlers[D]) register(mux *http.ServeMux, mdAuth func(http.HandlerFunc) http.HandlerFunc) {
	base := "/api/" + h.many
	mux.HandleFunc("GET "+base, mdAuth(h.endpList))
	mux.HandleFunc("POST "+base, mdAuth(h.endpCreate))
	mux.HandleFunc("GET "+base+"/{id}", mdAuth(h.endpGet))
	mux.HandleFunc("PUT "+base+"/{id}", mdAuth(h.endpUpdate))
	mux.HandleFunc("DELETE "+base+"/{id}", mdAuth(h.endpDelete))
}
