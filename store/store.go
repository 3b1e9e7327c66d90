// Package store defines the aggregate persistence contract the service
// wires against: the union of the App, Endpoint, Event, and Delivery
// store interfaces plus lifecycle operations. A single backend
// implementation typically satisfies all of it, backed by one database,
// but nothing in the domain packages requires that.
package store

import (
	"context"

	"github.com/hookfreight/hookfreight/app"
	"github.com/hookfreight/hookfreight/delivery"
	"github.com/hookfreight/hookfreight/endpoint"
	"github.com/hookfreight/hookfreight/event"
)

// Store is the full primary-store contract: App/Endpoint/Event/Delivery
// persistence plus lifecycle management. It does not include the durable
// job queue — that is scheduler.Queue, a separate store by design (see
// SPEC_FULL §2).
type Store interface {
	app.Store
	endpoint.Store
	event.Store
	delivery.Store

	// Migrate brings the schema up to date. A no-op for schemaless backends.
	Migrate(ctx context.Context) error

	// Ping verifies connectivity.
	Ping(ctx context.Context) error

	// Close releases resources held by the store.
	Close() error
}
