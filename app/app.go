// Package app defines the App entity: a logical grouping of endpoints
// (e.g. one per environment) that owns them and cascades deletion to them.
//
// Apps and their CRUD surface sit outside the capture-and-delivery core the
// rest of this module implements; the core never mutates an App, it only
// exists so the cascade-delete rule in the data model has a concrete owner.
package app

import (
	"time"

	"github.com/hookfreight/hookfreight/id"
	"github.com/hookfreight/hookfreight/internal/entity"
)

// App is a logical grouping of endpoints.
type App struct {
	entity.Entity

	// ID is the unique public id for this app.
	ID id.ID `json:"id"`

	// Name is a human-readable label.
	Name string `json:"name"`

	// UpdatedAt tracks the last modification time.
	UpdatedAt time.Time `json:"updated_at"`
}

// ListOpts configures pagination for app listing.
type ListOpts struct {
	Offset int
	Limit  int
}
