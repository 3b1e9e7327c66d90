package api

import (
	"errors"
	"net/http"

	"github.com/hookfreight/hookfreight"
	"github.com/hookfreight/hookfreight/endpoint"
	"github.com/hookfreight/hookfreight/id"
)

func (h *Router) createEndpoint(w http.ResponseWriter, r *http.Request) {
	appID, err := id.ParseAppID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}

	var in endpoint.Input
	if err := decodeJSON(r, &in); err != nil {
		writeValidationError(w, fieldError{Field: "body", Code: "invalid_json", Message: "request body must be valid JSON"})
		return
	}

	ep, err := h.svc.Endpoints().Create(r.Context(), appID, in)
	if err != nil {
		var verr *endpoint.ValidationError
		if errors.As(err, &verr) {
			writeValidationError(w, fieldError{Field: verr.Field, Code: "invalid", Message: verr.Message})
			return
		}
		h.logger.ErrorContext(r.Context(), "create endpoint failed", "error", err)
		writeInternalError(w)
		return
	}
	writeJSON(w, http.StatusCreated, "endpoint_created", ep)
}

func (h *Router) getEndpoint(w http.ResponseWriter, r *http.Request) {
	epID, err := id.ParseEndpointID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}

	ep, err := h.svc.Endpoints().Get(r.Context(), epID)
	if err != nil {
		if errors.Is(err, hookfreight.ErrEndpointNotFound) {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}
		h.logger.ErrorContext(r.Context(), "get endpoint failed", "error", err)
		writeInternalError(w)
		return
	}
	writeJSON(w, http.StatusOK, "ok", ep)
}

func (h *Router) updateEndpoint(w http.ResponseWriter, r *http.Request) {
	epID, err := id.ParseEndpointID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}

	var in endpoint.Input
	if err := decodeJSON(r, &in); err != nil {
		writeValidationError(w, fieldError{Field: "body", Code: "invalid_json", Message: "request body must be valid JSON"})
		return
	}

	ep, err := h.svc.Endpoints().Update(r.Context(), epID, in)
	if err != nil {
		if errors.Is(err, hookfreight.ErrEndpointNotFound) {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}
		h.logger.ErrorContext(r.Context(), "update endpoint failed", "error", err)
		writeInternalError(w)
		return
	}
	writeJSON(w, http.StatusOK, "endpoint_updated", ep)
}

func (h *Router) deleteEndpoint(w http.ResponseWriter, r *http.Request) {
	epID, err := id.ParseEndpointID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}

	if err := h.svc.Endpoints().Delete(r.Context(), epID); err != nil {
		if errors.Is(err, hookfreight.ErrEndpointNotFound) {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}
		h.logger.ErrorContext(r.Context(), "delete endpoint failed", "error", err)
		writeInternalError(w)
		return
	}
	writeJSON(w, http.StatusOK, "endpoint_deleted", nil)
}

func (h *Router) listEndpoints(w http.ResponseWriter, r *http.Request) {
	appID, err := id.ParseAppID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}

	opts := endpoint.ListOpts{
		Offset: queryInt(r, "offset", 0),
		Limit:  queryInt(r, "limit", 20),
	}

	eps, err := h.svc.Endpoints().List(r.Context(), appID, opts)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list endpoints failed", "error", err)
		writeInternalError(w)
		return
	}
	writeJSON(w, http.StatusOK, "ok", eps)
}
