package api

import (
	"errors"
	"net/http"

	"github.com/hookfreight/hookfreight"
	"github.com/hookfreight/hookfreight/delivery"
	"github.com/hookfreight/hookfreight/id"
)

// deliveryView is the human-facing projection of a delivery: the stored
// fields plus a best-effort decode of its response body. The decode is
// never used by the delivery pipeline, only by this read path.
type deliveryView struct {
	*delivery.Delivery
	DecodedResponseBody delivery.ProjectedBody `json:"decoded_response_body"`
}

func newDeliveryView(d *delivery.Delivery) deliveryView {
	return deliveryView{Delivery: d, DecodedResponseBody: delivery.ProjectResponseBody(d)}
}

func (h *Router) listDeliveries(w http.ResponseWriter, r *http.Request) {
	evtID, err := id.ParseEventID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}

	opts := delivery.ListOpts{
		Offset: queryInt(r, "offset", 0),
		Limit:  queryInt(r, "limit", 20),
	}

	page, err := h.svc.Store().ListDeliveriesByEvent(r.Context(), evtID, opts)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list deliveries failed", "error", err)
		writeInternalError(w)
		return
	}

	views := make([]deliveryView, 0, len(page.Deliveries))
	for _, d := range page.Deliveries {
		views = append(views, newDeliveryView(d))
	}

	writeJSON(w, http.StatusOK, "ok", map[string]any{
		"deliveries": views,
		"has_next":   page.HasNext,
	})
}

func (h *Router) getDelivery(w http.ResponseWriter, r *http.Request) {
	delID, err := id.ParseDeliveryID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}

	d, err := h.svc.Store().GetDelivery(r.Context(), delID)
	if err != nil {
		if errors.Is(err, hookfreight.ErrDeliveryNotFound) {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}
		h.logger.ErrorContext(r.Context(), "get delivery failed", "error", err)
		writeInternalError(w)
		return
	}

	chain, err := delivery.ListChain(r.Context(), h.svc.Store(), d)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "load delivery chain failed", "error", err)
		writeInternalError(w)
		return
	}
	chainViews := make([]deliveryView, 0, len(chain))
	for _, link := range chain {
		chainViews = append(chainViews, newDeliveryView(link))
	}

	writeJSON(w, http.StatusOK, "ok", map[string]any{
		"delivery": newDeliveryView(d),
		"chain":    chainViews,
	})
}

func (h *Router) getStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Queue().Stats(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "get stats failed", "error", err)
		writeInternalError(w)
		return
	}
	writeJSON(w, http.StatusOK, "ok", stats)
}
