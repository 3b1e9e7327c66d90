// Package api provides the HTTP surface for HookFreight: the ingest path
// and the supplemental app/endpoint/event/delivery management API.
package api

import (
	"log/slog"
	"net/http"

	"github.com/hookfreight/hookfreight"
)

// managementPrefixes are the first path segment of every management/read
// route. Any request whose first segment is not one of these is routed to
// the ingest mux instead.
var managementPrefixes = map[string]bool{
	"apps":       true,
	"endpoints":  true,
	"events":     true,
	"deliveries": true,
	"stats":      true,
}

// Router is the top-level HTTP handler: it dispatches to one of two
// independent http.ServeMux trees so that no middleware registered on the
// management mux can ever run in front of the ingest handler. The capture
// path must see the exact bytes that arrived on the wire.
type Router struct {
	svc        *hookfreight.Service
	management http.Handler
	ingest     *http.ServeMux
	logger     *slog.Logger
}

// NewRouter builds the combined ingest + management router for svc.
func NewRouter(svc *hookfreight.Service) *Router {
	logger := svc.Logger()

	mgmt := http.NewServeMux()
	h := &Router{svc: svc, logger: logger}
	h.registerManagementRoutes(mgmt)

	ingest := http.NewServeMux()
	ingest.HandleFunc("/{hookToken}", h.ingestHandler)

	h.management = withMiddleware(logger, mgmt)
	h.ingest = ingest
	return h
}

// ServeHTTP implements http.Handler.
func (h *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if firstSegment(r.URL.Path) != "" && managementPrefixes[firstSegment(r.URL.Path)] {
		h.management.ServeHTTP(w, r)
		return
	}
	h.ingest.ServeHTTP(w, r)
}

func (h *Router) registerManagementRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /apps", h.createApp)
	mux.HandleFunc("GET /apps", h.listApps)
	mux.HandleFunc("GET /apps/{id}", h.getApp)
	mux.HandleFunc("DELETE /apps/{id}", h.deleteApp)

	mux.HandleFunc("POST /apps/{id}/endpoints", h.createEndpoint)
	mux.HandleFunc("GET /apps/{id}/endpoints", h.listEndpoints)
	mux.HandleFunc("GET /endpoints/{id}", h.getEndpoint)
	mux.HandleFunc("PATCH /endpoints/{id}", h.updateEndpoint)
	mux.HandleFunc("DELETE /endpoints/{id}", h.deleteEndpoint)

	mux.HandleFunc("GET /endpoints/{id}/events", h.listEvents)
	mux.HandleFunc("GET /events/{id}", h.getEvent)

	mux.HandleFunc("GET /events/{id}/deliveries", h.listDeliveries)
	mux.HandleFunc("GET /deliveries/{id}", h.getDelivery)
	mux.HandleFunc("POST /deliveries/{id}/replay", h.replayDelivery)

	mux.HandleFunc("GET /stats", h.getStats)
}

func firstSegment(path string) string {
	path = path[1:] // strip leading "/"
	for i, c := range path {
		if c == '/' {
			return path[:i]
		}
	}
	return path
}
