package app

import (
	"context"
	"log/slog"

	"github.com/hookfreight/hookfreight/id"
	"github.com/hookfreight/hookfreight/internal/entity"
)

// Service provides app management operations.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService creates a new app service.
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// ValidationError indicates invalid input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "app validation: " + e.Field + ": " + e.Message
}

// Create registers a new app.
func (svc *Service) Create(ctx context.Context, name string) (*App, error) {
	if name == "" {
		return nil, &ValidationError{Field: "name", Message: "required"}
	}

	now := entity.New()
	a := &App{
		Entity:    now,
		ID:        id.NewAppID(),
		Name:      name,
		UpdatedAt: now.CreatedAt,
	}

	if err := svc.store.CreateApp(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Get returns an app by id.
func (svc *Service) Get(ctx context.Context, appID id.ID) (*App, error) {
	return svc.store.GetApp(ctx, appID)
}

// List returns apps, paginated.
func (svc *Service) List(ctx context.Context, opts ListOpts) ([]*App, error) {
	opts = clampListOpts(opts)
	return svc.store.ListApps(ctx, opts)
}

// Delete removes an app and cascades the deletion to its endpoints and events.
func (svc *Service) Delete(ctx context.Context, appID id.ID) error {
	svc.logger.InfoContext(ctx, "cascading app delete", "app_id", appID)
	return svc.store.CascadeDeleteApp(ctx, appID)
}

func clampListOpts(opts ListOpts) ListOpts {
	if opts.Limit <= 0 || opts.Limit > 50 {
		opts.Limit = 20
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	return opts
}
