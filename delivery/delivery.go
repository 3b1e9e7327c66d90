// Package delivery defines the Delivery entity — one forwarding attempt
// and its outcome — plus the sender, outcome classifier, and worker pool
// that execute attempts drained from the scheduler.
package delivery

import (
	"net/http"

	"github.com/hookfreight/hookfreight/id"
	"github.com/hookfreight/hookfreight/internal/entity"
)

// Status is the outcome of one delivery attempt.
type Status string

const (
	// StatusDelivered means the destination responded 2xx.
	StatusDelivered Status = "delivered"

	// StatusFailed means the attempt failed: a 4xx/5xx response, a
	// transport error, or a guard rejection (missing referent,
	// forwarding disabled, self-forward).
	StatusFailed Status = "failed"

	// StatusTimeout means the attempt was aborted by http_timeout_ms
	// with no response received.
	StatusTimeout Status = "timeout"
)

// Delivery is a single, immutable record of one forwarding attempt.
type Delivery struct {
	entity.Entity

	// ID is the unique public id for this delivery.
	ID id.ID `json:"id"`

	// EventID is the event this attempt forwarded.
	EventID id.ID `json:"event_id"`

	// EndpointID is the endpoint this attempt targeted, denormalized from
	// the event's endpoint for listing without a join.
	EndpointID id.ID `json:"endpoint_id"`

	// ParentDeliveryID is the previous attempt in this retry chain, if any.
	ParentDeliveryID *id.ID `json:"parent_delivery_id,omitempty"`

	// Status is the classified outcome of this attempt.
	Status Status `json:"status"`

	// DestinationURL is a snapshot of the endpoint's forward_url at attempt time.
	DestinationURL string `json:"destination_url"`

	// ResponseStatus is the destination's HTTP status, absent on transport
	// failure or timeout.
	ResponseStatus *int `json:"response_status,omitempty"`

	// ResponseHeaders is the destination's response headers, absent on
	// transport failure or timeout.
	ResponseHeaders http.Header `json:"response_headers,omitempty"`

	// ResponseBody is the destination's response body, capped in size.
	ResponseBody []byte `json:"response_body,omitempty"`

	// DurationMs is wall-clock time from just before dispatch until the
	// response headers arrive or the request fails; reading the response
	// body is not included.
	DurationMs int `json:"duration_ms"`

	// ErrorMessage explains a failed or timed-out attempt.
	ErrorMessage string `json:"error_message,omitempty"`
}

// ListOpts configures pagination for delivery listing by event.
type ListOpts struct {
	Offset int
	Limit  int
}

// Page is a page of deliveries plus whether more results exist beyond it.
type Page struct {
	Deliveries []*Delivery
	HasNext    bool
}

// ClampListOpts enforces the spec's pagination bounds for deliveries: limit
// in [1, 1000], offset >= 0, defaulting limit to 20 when unset.
func ClampListOpts(opts ListOpts) ListOpts {
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 1000 {
		opts.Limit = 1000
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	return opts
}

// maxResponseBodyBytes caps how much of a destination's response body is
// retained in the ledger.
const maxResponseBodyBytes = 1024
