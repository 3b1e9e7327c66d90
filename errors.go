package hookfreight

import "errors"

// Sentinel errors returned by HookFreight core operations.
var (
	// ErrNoStore is returned when a Service is created without a store.
	ErrNoStore = errors.New("hookfreight: store is required")

	// ErrNoQueue is returned when a Service is created without a scheduler queue.
	ErrNoQueue = errors.New("hookfreight: scheduler queue is required")

	// ErrAppNotFound is returned when an app cannot be found.
	ErrAppNotFound = errors.New("hookfreight: app not found")

	// ErrEndpointNotFound is returned when an endpoint cannot be found.
	ErrEndpointNotFound = errors.New("hookfreight: endpoint not found")

	// ErrEventNotFound is returned when an event cannot be found.
	ErrEventNotFound = errors.New("hookfreight: event not found")

	// ErrDeliveryNotFound is returned when a delivery cannot be found.
	ErrDeliveryNotFound = errors.New("hookfreight: delivery not found")

	// ErrDuplicateHookToken is returned when an endpoint's hook_token already exists.
	ErrDuplicateHookToken = errors.New("hookfreight: hook token already assigned")

	// ErrDuplicateDelivery is returned when a (event_id, parent_delivery_id) pair
	// already has a delivery recorded.
	ErrDuplicateDelivery = errors.New("hookfreight: duplicate delivery for event/parent pair")

	// ErrMethodNotAllowed is returned when the ingest method is not in the allow-list.
	ErrMethodNotAllowed = errors.New("hookfreight: method not allowed")

	// ErrPayloadTooLarge is returned when a captured body exceeds the configured cap.
	ErrPayloadTooLarge = errors.New("hookfreight: payload too large")

	// ErrStoreClosed is returned when a store operation is attempted after Close.
	ErrStoreClosed = errors.New("hookfreight: store is closed")

	// ErrQueueClosed is returned when a queue operation is attempted after Close.
	ErrQueueClosed = errors.New("hookfreight: queue is closed")
)
