// Package event defines the Event entity: one captured inbound HTTP
// request, stored verbatim, plus the capture logic that builds one from
// request fields the transport layer has already extracted.
package event

import (
	"net/http"
	"time"

	"github.com/hookfreight/hookfreight/id"
	"github.com/hookfreight/hookfreight/internal/entity"
)

// AllowedMethods is the set of HTTP methods the ingest path accepts.
//
// GET is included even though webhook producers overwhelmingly POST —
// preserved rather than "corrected" (see SPEC_FULL.md REDESIGN FLAGS).
var AllowedMethods = map[string]bool{
	http.MethodGet:   true,
	http.MethodPost:  true,
	http.MethodPut:   true,
	http.MethodPatch: true,
}

// Event represents one captured inbound HTTP request, stored verbatim.
//
// Events are append-only: once written, no field mutates.
type Event struct {
	entity.Entity

	// ID is the unique public id for this event.
	ID id.ID `json:"id"`

	// Seq is a monotonically increasing internal sequence number assigned
	// by the store on insert. It exists solely to break ties in listings
	// when two events share the same ReceivedAt millisecond; it is never
	// exposed across an external boundary.
	Seq int64 `json:"-"`

	// EndpointID identifies the endpoint this event was captured through.
	EndpointID id.ID `json:"endpoint_id"`

	// ReceivedAt is the server clock time the request was captured.
	ReceivedAt time.Time `json:"received_at"`

	// Method is the uppercased HTTP method, one of AllowedMethods.
	Method string `json:"method"`

	// OriginalURL is the reconstructed destination URL (scheme+host from
	// X-Forwarded-* when present, else the connection's own) plus the
	// original path and query.
	OriginalURL string `json:"original_url"`

	// SourceURL is the first non-empty of Origin, Referer, X-Webhook-Source.
	SourceURL string `json:"source_url,omitempty"`

	// Path is the request path.
	Path string `json:"path"`

	// Query maps query parameter names to their values (a single value is
	// still represented as a one-element slice so multi-value params round
	// trip without a shape change).
	Query map[string][]string `json:"query"`

	// Headers is a case-insensitive multimap of the captured request headers.
	Headers http.Header `json:"headers"`

	// Body holds the exact bytes received over the wire. Never re-serialized.
	Body []byte `json:"body"`

	// SourceIP is the client's remote address.
	SourceIP string `json:"source_ip"`

	// UserAgent is the captured User-Agent header value.
	UserAgent string `json:"user_agent"`

	// SizeBytes always equals len(Body).
	SizeBytes int `json:"size_bytes"`
}

// ListOpts configures pagination for event listing by endpoint.
type ListOpts struct {
	Offset int
	Limit  int
}

// Page is a page of events plus whether more results exist beyond it.
type Page struct {
	Events  []*Event
	HasNext bool
}

// ClampListOpts enforces the spec's pagination bounds: limit in [1, 50],
// offset >= 0, defaulting limit to 20 when unset.
func ClampListOpts(opts ListOpts) ListOpts {
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 50 {
		opts.Limit = 50
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	return opts
}
