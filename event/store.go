package event

import (
	"context"

	"github.com/hookfreight/hookfreight/id"
)

// Store defines the persistence contract for captured events.
type Store interface {
	// Append persists an event. Must be durable before returning; the
	// caller treats a successful Append as the recovery point for
	// scheduling delivery.
	Append(ctx context.Context, evt *Event) error

	// Get returns an event by id.
	Get(ctx context.Context, evtID id.ID) (*Event, error)

	// ListByEndpoint returns a page of events for one endpoint, ordered by
	// (received_at DESC, internal sequence DESC).
	ListByEndpoint(ctx context.Context, epID id.ID, opts ListOpts) (Page, error)
}
