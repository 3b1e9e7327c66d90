// Package scheduler defines the durable job queue that schedules delivery
// attempts. It is deliberately ignorant of HTTP forwarding, retry-outcome
// classification, and persistence of delivery records — those live in the
// delivery package. The scheduler only tracks which (event, endpoint) pairs
// owe an attempt, when the next attempt is due, and how many have been
// made, so it survives a process restart with its queued work intact.
package scheduler

import (
	"context"
	"time"

	"github.com/hookfreight/hookfreight/id"
)

// Job is one scheduled delivery attempt. A Job's ID is an idempotency key:
// automatic enqueues from capture use "delivery-{event_id}" so a duplicate
// ingest of the same event never produces a second retry chain; manual
// retries use "retry-{delivery_id}-{now_ms}".
type Job struct {
	ID               string
	EventID          id.ID
	EndpointID       id.ID
	ParentDeliveryID *id.ID

	// Attempt counts how many times this job has been dequeued and
	// processed so far. Zero on first dequeue.
	Attempt int

	NotBefore  time.Time
	EnqueuedAt time.Time
}

// Stats reports queue depth across states, per SPEC_FULL §4.3's
// observability requirement.
type Stats struct {
	Waiting   int `json:"waiting"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Delayed   int `json:"delayed"`
}

// Queue is the durable job queue contract. Implementations must survive
// process restart: jobs enqueued before a crash must still be dequeuable
// afterward.
type Queue interface {
	// Enqueue submits a delivery job for a freshly captured event, using
	// idempotency key "delivery-{event_id}". A duplicate call for the same
	// event is a no-op, not an error.
	Enqueue(ctx context.Context, eventID, endpointID id.ID) error

	// EnqueueRetry submits a brand-new job chain rooted at an existing
	// delivery, for manual replay. Idempotency key is
	// "retry-{delivery_id}-{now_ms}", so repeated replay clicks each start
	// their own chain rather than colliding.
	EnqueueRetry(ctx context.Context, deliveryID, eventID, endpointID id.ID) error

	// Dequeue claims and returns the next job whose NotBefore has elapsed,
	// or ok=false if none is ready. The job moves from waiting to active.
	Dequeue(ctx context.Context) (job *Job, ok bool, err error)

	// Complete marks a job done — either delivered or terminally failed —
	// removing it from the active set and counting it as completed or
	// failed. The job itself is not kept once it is complete.
	Complete(ctx context.Context, jobID string, failed bool) error

	// Retry re-enqueues job for another attempt after delay, stamping the
	// given parent delivery id so the next attempt links into the chain.
	Retry(ctx context.Context, job *Job, parentDeliveryID id.ID, delay time.Duration) error

	// Stats reports current queue depth.
	Stats(ctx context.Context) (Stats, error)

	// Close releases resources held by the queue.
	Close() error
}

// BackoffDelay returns the exponential backoff before attempt n (1-indexed):
// 1000 * 2^(n-1) milliseconds, per SPEC_FULL §4.3.
func BackoffDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	ms := int64(1000)
	for i := 1; i < attempt; i++ {
		ms *= 2
	}
	return time.Duration(ms) * time.Millisecond
}
