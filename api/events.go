package api

import (
	"errors"
	"net/http"

	"github.com/hookfreight/hookfreight"
	"github.com/hookfreight/hookfreight/event"
	"github.com/hookfreight/hookfreight/id"
)

// eventView is the human-facing projection of an event: the stored fields
// plus a best-effort decode of its body. The decode is never used by the
// delivery pipeline, only by this read path.
type eventView struct {
	*event.Event
	Decoded event.DecodedBody `json:"decoded_body"`
}

func (h *Router) listEvents(w http.ResponseWriter, r *http.Request) {
	epID, err := id.ParseEndpointID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}

	opts := event.ListOpts{
		Offset: queryInt(r, "offset", 0),
		Limit:  queryInt(r, "limit", 20),
	}

	page, err := h.svc.Store().ListByEndpoint(r.Context(), epID, opts)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list events failed", "error", err)
		writeInternalError(w)
		return
	}

	views := make([]eventView, 0, len(page.Events))
	for _, evt := range page.Events {
		views = append(views, eventView{Event: evt, Decoded: event.DecodeBody(evt)})
	}

	writeJSON(w, http.StatusOK, "ok", map[string]any{
		"events":   views,
		"has_next": page.HasNext,
	})
}

func (h *Router) getEvent(w http.ResponseWriter, r *http.Request) {
	evtID, err := id.ParseEventID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}

	evt, err := h.svc.Store().Get(r.Context(), evtID)
	if err != nil {
		if errors.Is(err, hookfreight.ErrEventNotFound) {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}
		h.logger.ErrorContext(r.Context(), "get event failed", "error", err)
		writeInternalError(w)
		return
	}

	writeJSON(w, http.StatusOK, "ok", eventView{Event: evt, Decoded: event.DecodeBody(evt)})
}
