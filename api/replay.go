package api

import (
	"errors"
	"net/http"

	"github.com/hookfreight/hookfreight"
	"github.com/hookfreight/hookfreight/id"
)

// replayDelivery enqueues a brand-new retry chain rooted at an existing
// delivery. It never re-runs the original attempt in place — a replay is a
// new delivery record, linked to its root via parent_delivery_id.
func (h *Router) replayDelivery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	delID, err := id.ParseDeliveryID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}

	d, err := h.svc.Store().GetDelivery(ctx, delID)
	if err != nil {
		if errors.Is(err, hookfreight.ErrDeliveryNotFound) {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}
		h.logger.ErrorContext(ctx, "replay: lookup delivery failed", "error", err)
		writeInternalError(w)
		return
	}

	if err := h.svc.Queue().EnqueueRetry(ctx, d.ID, d.EventID, d.EndpointID); err != nil {
		h.logger.ErrorContext(ctx, "replay: enqueue retry failed", "error", err, "delivery_id", d.ID)
		writeInternalError(w)
		return
	}

	writeJSON(w, http.StatusAccepted, "replay_scheduled", nil)
}
