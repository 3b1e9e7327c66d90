package api

import (
	"errors"
	"net/http"

	"github.com/hookfreight/hookfreight"
	"github.com/hookfreight/hookfreight/app"
	"github.com/hookfreight/hookfreight/id"
)

type createAppRequest struct {
	Name string `json:"name"`
}

func (h *Router) createApp(w http.ResponseWriter, r *http.Request) {
	var req createAppRequest
	if err := decodeJSON(r, &req); err != nil {
		writeValidationError(w, fieldError{Field: "body", Code: "invalid_json", Message: "request body must be valid JSON"})
		return
	}

	a, err := h.svc.Apps().Create(r.Context(), req.Name)
	if err != nil {
		var verr *app.ValidationError
		if errors.As(err, &verr) {
			writeValidationError(w, fieldError{Field: verr.Field, Code: "invalid", Message: verr.Message})
			return
		}
		h.logger.ErrorContext(r.Context(), "create app failed", "error", err)
		writeInternalError(w)
		return
	}
	writeJSON(w, http.StatusCreated, "app_created", a)
}

func (h *Router) getApp(w http.ResponseWriter, r *http.Request) {
	appID, err := id.ParseAppID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}

	a, err := h.svc.Apps().Get(r.Context(), appID)
	if err != nil {
		if errors.Is(err, hookfreight.ErrAppNotFound) {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}
		h.logger.ErrorContext(r.Context(), "get app failed", "error", err)
		writeInternalError(w)
		return
	}
	writeJSON(w, http.StatusOK, "ok", a)
}

func (h *Router) listApps(w http.ResponseWriter, r *http.Request) {
	opts := app.ListOpts{
		Offset: queryInt(r, "offset", 0),
		Limit:  queryInt(r, "limit", 20),
	}

	apps, err := h.svc.Apps().List(r.Context(), opts)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list apps failed", "error", err)
		writeInternalError(w)
		return
	}
	writeJSON(w, http.StatusOK, "ok", apps)
}

func (h *Router) deleteApp(w http.ResponseWriter, r *http.Request) {
	appID, err := id.ParseAppID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}

	if err := h.svc.Apps().Delete(r.Context(), appID); err != nil {
		if errors.Is(err, hookfreight.ErrAppNotFound) {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}
		h.logger.ErrorContext(r.Context(), "delete app failed", "error", err)
		writeInternalError(w)
		return
	}
	writeJSON(w, http.StatusOK, "app_deleted", nil)
}
