package delivery

import (
	"context"

	"github.com/hookfreight/hookfreight/id"
)

// Store defines the persistence contract for the append-only delivery
// ledger. Methods are named distinctly from event.Store's Append/Get so a
// single backend can implement both without a method-signature collision.
type Store interface {
	// AppendDelivery writes a new attempt. The pair (event_id,
	// parent_delivery_id) must be unique; a concurrent duplicate insert
	// must fail rather than silently overwrite.
	AppendDelivery(ctx context.Context, d *Delivery) error

	// GetDelivery returns a delivery by id.
	GetDelivery(ctx context.Context, delID id.ID) (*Delivery, error)

	// ListDeliveriesByEvent returns attempts for one event, ordered by
	// created_at descending.
	ListDeliveriesByEvent(ctx context.Context, evtID id.ID, opts ListOpts) (Page, error)
}
