// Package hookfreight is a self-hosted webhook relay: it exposes per-tenant
// capture URLs, persists every inbound HTTP request verbatim, forwards each
// captured request to a configured destination with retries, and records
// every delivery attempt for inspection and manual replay.
//
// The core pipeline is:
//
//	inbound request -> event.Store (durable) -> scheduler.Queue.Enqueue
//	  -> delivery.Engine dequeues -> HTTP forward -> delivery.Store.AppendDelivery
//	  -> outcome completes the job or re-enqueues it with backoff
//
// Quick start with the in-memory store and queue:
//
//	svc, err := hookfreight.New(
//	    hookfreight.WithStore(memorystore.New()),
//	    hookfreight.WithQueue(memoryqueue.New()),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svc.Start(ctx)
//	defer svc.Stop(ctx)
package hookfreight
