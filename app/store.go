package app

import (
	"context"

	"github.com/hookfreight/hookfreight/id"
)

// Store defines the persistence contract for apps.
//
// CascadeDeleteApp is the one operation the core pipeline cares about:
// deleting an app must remove its endpoints' events (and, transitively,
// their deliveries may be garbage-collected later) before the endpoints
// themselves, per the ownership chain App -> Endpoint -> Event -> Delivery.
type Store interface {
	// CreateApp persists a new app.
	CreateApp(ctx context.Context, a *App) error

	// GetApp returns an app by id.
	GetApp(ctx context.Context, appID id.ID) (*App, error)

	// ListApps returns apps, paginated.
	ListApps(ctx context.Context, opts ListOpts) ([]*App, error)

	// CascadeDeleteApp deletes an app and cascades the deletion to its
	// endpoints and their events. The deletion is not split into batches
	// of endpoint ids: each step removes all of the app's matching rows at
	// once. The operation is safe to retry after a partial failure: each
	// step only removes rows that still exist.
	CascadeDeleteApp(ctx context.Context, appID id.ID) error
}
