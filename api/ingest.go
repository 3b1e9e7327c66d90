package api

import (
	"errors"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/hookfreight/hookfreight"
	"github.com/hookfreight/hookfreight/event"
)

// ingestHandler captures an inbound webhook request and schedules its
// delivery. It is registered on the ingest-only mux, outside of any
// body-consuming middleware: the bytes this handler sees are exactly the
// bytes that arrived on the wire.
func (h *Router) ingestHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	hookToken := r.PathValue("hookToken")

	// §4.1 step 1: uppercase the method, then check it against the
	// allow-list, so a lowercase method (some clients send one) isn't
	// rejected on a technicality it wouldn't otherwise fail.
	method := strings.ToUpper(r.Method)
	if !event.AllowedMethods[method] {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return
	}

	ep, err := h.svc.Store().ByHookToken(ctx, hookToken)
	if err != nil {
		if errors.Is(err, hookfreight.ErrEndpointNotFound) {
			writeError(w, http.StatusNotFound, "endpoint_not_found")
			return
		}
		h.logger.ErrorContext(ctx, "ingest: lookup endpoint failed", "error", err)
		writeInternalError(w)
		return
	}
	if !ep.IsActive {
		writeError(w, http.StatusNotFound, "endpoint_not_found")
		return
	}

	maxBodyBytes := h.svc.Config().MaxBodyBytes
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		h.logger.ErrorContext(ctx, "ingest: read body failed", "error", err)
		writeInternalError(w)
		return
	}
	if int64(len(body)) > maxBodyBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large")
		return
	}

	evt := event.Capture(event.CaptureInput{
		EndpointID:  ep.ID,
		Method:      method,
		OriginalURL: originalURL(r),
		SourceURL:   sourceURL(r),
		Path:        r.URL.Path,
		Query:       map[string][]string(r.URL.Query()),
		Headers:     r.Header.Clone(),
		Body:        body,
		SourceIP:    clientIP(r),
		UserAgent:   r.UserAgent(),
	})

	if err := h.svc.Store().Append(ctx, evt); err != nil {
		h.logger.ErrorContext(ctx, "ingest: append event failed", "error", err, "event_id", evt.ID)
		writeInternalError(w)
		return
	}

	if m := h.svc.Metrics(); m != nil {
		m.RecordCapture()
	}

	if err := h.svc.Queue().Enqueue(ctx, evt.ID, ep.ID); err != nil {
		// The event is durably recorded; failing to enqueue is logged but
		// never surfaced to the caller, who already got their event captured.
		h.logger.ErrorContext(ctx, "ingest: enqueue delivery failed", "error", err, "event_id", evt.ID)
	}

	writeJSON(w, http.StatusOK, "event_created", nil)
}

// originalURL reconstructs the destination URL as the producer addressed
// it: X-Forwarded-Proto/Host when present (the process sits behind a
// reverse proxy in every realistic deployment), else the request's own.
// Per §4.1 step 4, a chained proxy may append multiple comma-separated
// values ("host1, host2"); only the first, trimmed, is the original.
func originalURL(r *http.Request) string {
	scheme := "http"
	if proto := firstForwardedValue(r.Header.Get("X-Forwarded-Proto")); proto != "" {
		scheme = proto
	} else if r.TLS != nil {
		scheme = "https"
	}

	host := r.Host
	if fwd := firstForwardedValue(r.Header.Get("X-Forwarded-Host")); fwd != "" {
		host = fwd
	}

	u := *r.URL
	u.Scheme = scheme
	u.Host = host
	return u.String()
}

// firstForwardedValue returns the first comma-separated token of a
// forwarding header, trimmed, empty if the header itself was empty.
func firstForwardedValue(header string) string {
	if header == "" {
		return ""
	}
	first, _, _ := strings.Cut(header, ",")
	return strings.TrimSpace(first)
}

// sourceURL returns the first non-empty of Origin, Referer, or
// X-Webhook-Source.
func sourceURL(r *http.Request) string {
	for _, h := range []string{"Origin", "Referer", "X-Webhook-Source"} {
		if v := r.Header.Get(h); v != "" {
			return v
		}
	}
	return ""
}

// clientIP returns the request's remote address with any port stripped.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}
