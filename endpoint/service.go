package endpoint

import (
	"context"
	"log/slog"

	"github.com/hookfreight/hookfreight/id"
	"github.com/hookfreight/hookfreight/internal/entity"
)

// Service provides endpoint management operations.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService creates a new endpoint service.
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
	return "endpoint validation: " + e.Field + ": " + e.Message
}

// Create registers a new webhook endpoint under appID, minting a fresh
// immutable hook token. Retries token generation on the rare collision.
func (svc *Service) Create(ctx context.Context, appID id.ID, in Input) (*Endpoint, error) {
	timeout := in.HTTPTimeoutMs
	if timeout < 0 {
		return nil, &ValidationError{Field: "http_timeout_ms", Message: "must be positive"}
	}
	if timeout == 0 {
		timeout = DefaultHTTPTimeoutMs
	}
	if timeout > MaxHTTPTimeoutMs {
		timeout = MaxHTTPTimeoutMs
	}

	forwardingEnabled := true
	if in.ForwardingEnabled != nil {
		forwardingEnabled = *in.ForwardingEnabled
	}

	now := entity.New()
	ep := &Endpoint{
		Entity:            now,
		ID:                id.NewEndpointID(),
		AppID:             appID,
		ForwardURL:        in.ForwardURL,
		ForwardingEnabled: forwardingEnabled,
		Authentication:    in.Authentication,
		HTTPTimeoutMs:     timeout,
		IsActive:          true,
		UpdatedAt:         now.CreatedAt,
	}

	const maxTokenAttempts = 5
	var lastErr error
	for attempt := 0; attempt < maxTokenAttempts; attempt++ {
		ep.HookToken = GenerateHookToken()
		if err := svc.store.CreateEndpoint(ctx, ep); err != nil {
			lastErr = err
			continue
		}
		return ep, nil
	}
	return nil, lastErr
}

// Get returns an endpoint by id.
func (svc *Service) Get(ctx context.Context, epID id.ID) (*Endpoint, error) {
	return svc.store.ByID(ctx, epID)
}

// Update modifies an existing endpoint's forwarding configuration.
func (svc *Service) Update(ctx context.Context, epID id.ID, in Input) (*Endpoint, error) {
	ep, err := svc.store.ByID(ctx, epID)
	if err != nil {
		return nil, err
	}

	if in.ForwardURL != "" {
		ep.ForwardURL = in.ForwardURL
	}
	if in.ForwardingEnabled != nil {
		ep.ForwardingEnabled = *in.ForwardingEnabled
	}
	if in.Authentication != nil {
		ep.Authentication = in.Authentication
	}
	if in.HTTPTimeoutMs > 0 {
		timeout := in.HTTPTimeoutMs
		if timeout > MaxHTTPTimeoutMs {
			timeout = MaxHTTPTimeoutMs
		}
		ep.HTTPTimeoutMs = timeout
	}
	if in.IsActive != nil {
		ep.IsActive = *in.IsActive
	}

	if err := svc.store.UpdateEndpoint(ctx, ep); err != nil {
		return nil, err
	}
	return ep, nil
}

// Delete removes an endpoint.
func (svc *Service) Delete(ctx context.Context, epID id.ID) error {
	return svc.store.DeleteEndpoint(ctx, epID)
}

// List returns endpoints owned by an app.
func (svc *Service) List(ctx context.Context, appID id.ID, opts ListOpts) ([]*Endpoint, error) {
	return svc.store.ListByApp(ctx, appID, opts)
}
