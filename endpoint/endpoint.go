// Package endpoint defines the Endpoint entity: one inbound webhook URL and
// its forwarding configuration.
//
// The capture-and-delivery core only ever reads endpoints (through
// Registry); the CRUD surface (Service) is a supplemental management layer
// so the system is runnable end to end.
package endpoint

import (
	"time"

	"github.com/hookfreight/hookfreight/id"
	"github.com/hookfreight/hookfreight/internal/entity"
)

// DefaultHTTPTimeoutMs is applied when an endpoint does not specify one.
const DefaultHTTPTimeoutMs = 10_000

// MaxHTTPTimeoutMs caps the configurable per-endpoint forward timeout.
const MaxHTTPTimeoutMs = 120_000

// Authentication is a single static header/value pair added to every
// outbound forward for this endpoint, overriding any copied header of the
// same name.
type Authentication struct {
	HeaderName  string `json:"header_name"`
	HeaderValue string `json:"header_value"`
}

// Endpoint represents one inbound webhook URL plus its forwarding configuration.
type Endpoint struct {
	entity.Entity

	// ID is the unique public id for this endpoint.
	ID id.ID `json:"id"`

	// AppID is the owning app.
	AppID id.ID `json:"app_id"`

	// HookToken is the immutable, globally unique, URL-safe token embedded
	// in the ingest URL path: 24 lowercase hex characters.
	HookToken string `json:"hook_token"`

	// ForwardURL is the destination the captured request is forwarded to.
	// May be empty, in which case forwarding is a no-op failure.
	ForwardURL string `json:"forward_url"`

	// ForwardingEnabled gates whether captured events are forwarded at all.
	ForwardingEnabled bool `json:"forwarding_enabled"`

	// Authentication, if set, is applied to every outbound forward.
	Authentication *Authentication `json:"authentication,omitempty"`

	// HTTPTimeoutMs bounds both the headers and body phases of the outbound
	// forward. Positive, default 10000, capped at 120000.
	HTTPTimeoutMs int `json:"http_timeout_ms"`

	// IsActive gates whether the endpoint accepts captures at all.
	IsActive bool `json:"is_active"`

	// UpdatedAt tracks the last modification time.
	UpdatedAt time.Time `json:"updated_at"`
}

// Timeout returns HTTPTimeoutMs as a time.Duration, clamped to the valid range.
func (e *Endpoint) Timeout() time.Duration {
	ms := e.HTTPTimeoutMs
	if ms <= 0 {
		ms = DefaultHTTPTimeoutMs
	}
	if ms > MaxHTTPTimeoutMs {
		ms = MaxHTTPTimeoutMs
	}
	return time.Duration(ms) * time.Millisecond
}

// ListOpts configures pagination for endpoint listing.
type ListOpts struct {
	Offset int
	Limit  int
}
