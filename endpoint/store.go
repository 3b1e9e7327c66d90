package endpoint

import (
	"context"

	"github.com/hookfreight/hookfreight/id"
)

// Registry is the read-only contract the capture-and-delivery core depends
// on. It never mutates endpoints.
type Registry interface {
	// ByHookToken returns the endpoint owning the given hook token, or
	// hookfreight.ErrEndpointNotFound if none matches.
	ByHookToken(ctx context.Context, hookToken string) (*Endpoint, error)

	// ByID returns an endpoint by its public id.
	ByID(ctx context.Context, epID id.ID) (*Endpoint, error)
}

// Store defines the full persistence contract for endpoints, composing the
// read-only Registry the core uses with the CRUD surface the supplemental
// management API uses.
type Store interface {
	Registry

	// CreateEndpoint persists a new endpoint. hook_token must be unique.
	CreateEndpoint(ctx context.Context, ep *Endpoint) error

	// UpdateEndpoint modifies an existing endpoint. hook_token is never updated.
	UpdateEndpoint(ctx context.Context, ep *Endpoint) error

	// DeleteEndpoint removes a single endpoint (not its events/deliveries).
	DeleteEndpoint(ctx context.Context, epID id.ID) error

	// ListByApp returns endpoints owned by an app, paginated.
	ListByApp(ctx context.Context, appID id.ID, opts ListOpts) ([]*Endpoint, error)

	// ListEndpointIDsByApp returns one batch of the ids of endpoints owned
	// by an app: at most batchSize ids, starting at offset.
	ListEndpointIDsByApp(ctx context.Context, appID id.ID, offset, batchSize int) ([]id.ID, error)
}
