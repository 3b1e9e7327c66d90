package delivery_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hookfreight/hookfreight/delivery"
	"github.com/hookfreight/hookfreight/endpoint"
	"github.com/hookfreight/hookfreight/event"
	"github.com/hookfreight/hookfreight/id"
	"github.com/hookfreight/hookfreight/observability"
	memoryqueue "github.com/hookfreight/hookfreight/scheduler/memory"
	memorystore "github.com/hookfreight/hookfreight/store/memory"
)

// waitFor polls cond until it returns true or the timeout elapses.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}

func TestEngineDeliversCapturedEventEndToEnd(t *testing.T) {
	var received int32

	dest := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&received, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer dest.Close()

	st := memorystore.New()
	queue := memoryqueue.New()

	ctx := context.Background()

	ep := &endpoint.Endpoint{
		ID:                id.NewEndpointID(),
		AppID:             id.NewAppID(),
		HookToken:         endpoint.GenerateHookToken(),
		ForwardURL:        dest.URL,
		ForwardingEnabled: true,
		IsActive:          true,
		HTTPTimeoutMs:     endpoint.DefaultHTTPTimeoutMs,
	}
	if err := st.CreateEndpoint(ctx, ep); err != nil {
		t.Fatalf("CreateEndpoint: %v", err)
	}

	evt := event.Capture(event.CaptureInput{
		EndpointID: ep.ID,
		Method:     http.MethodPost,
		Path:       "/" + ep.HookToken,
		Body:       []byte(`{"ok":true}`),
		Headers:    http.Header{},
	})
	if err := st.Append(ctx, evt); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := queue.Enqueue(ctx, evt.ID, ep.ID); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	engine := delivery.NewEngine(queue, st, st, st, delivery.EngineConfig{
		Concurrency:  2,
		MaxRetries:   3,
		PollInterval: 10 * time.Millisecond,
		BaseURL:      "http://hookfreight.invalid",
	}, nil)

	engine.Start(ctx)
	defer engine.Stop(ctx)

	waitFor(t, 2*time.Second, func() bool { return atomic.LoadInt32(&received) == 1 })

	page, err := st.ListDeliveriesByEvent(ctx, evt.ID, delivery.ListOpts{})
	if err != nil {
		t.Fatalf("ListDeliveriesByEvent: %v", err)
	}
	if len(page.Deliveries) != 1 {
		t.Fatalf("len(Deliveries) = %d, want 1", len(page.Deliveries))
	}
	if page.Deliveries[0].Status != delivery.StatusDelivered {
		t.Fatalf("Status = %q, want delivered", page.Deliveries[0].Status)
	}
}

func TestEngineRetriesOnFailureAndLinksChain(t *testing.T) {
	var attempts int32

	dest := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&attempts, 1)
		if n == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer dest.Close()

	st := memorystore.New()
	queue := memoryqueue.New()
	ctx := context.Background()

	ep := &endpoint.Endpoint{
		ID:                id.NewEndpointID(),
		AppID:             id.NewAppID(),
		HookToken:         endpoint.GenerateHookToken(),
		ForwardURL:        dest.URL,
		ForwardingEnabled: true,
		IsActive:          true,
		HTTPTimeoutMs:     endpoint.DefaultHTTPTimeoutMs,
	}
	if err := st.CreateEndpoint(ctx, ep); err != nil {
		t.Fatalf("CreateEndpoint: %v", err)
	}

	evt := event.Capture(event.CaptureInput{
		EndpointID: ep.ID,
		Method:     http.MethodPost,
		Path:       "/" + ep.HookToken,
		Body:       []byte(`{}`),
		Headers:    http.Header{},
	})
	if err := st.Append(ctx, evt); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := queue.Enqueue(ctx, evt.ID, ep.ID); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	engine := delivery.NewEngine(queue, st, st, st, delivery.EngineConfig{
		Concurrency:  1,
		MaxRetries:   3,
		PollInterval: 10 * time.Millisecond,
		BaseURL:      "http://hookfreight.invalid",
	}, nil)

	engine.Start(ctx)
	defer engine.Stop(ctx)

	waitFor(t, 3*time.Second, func() bool { return atomic.LoadInt32(&attempts) == 2 })

	var page delivery.Page
	waitFor(t, 3*time.Second, func() bool {
		p, err := st.ListDeliveriesByEvent(ctx, evt.ID, delivery.ListOpts{Limit: 10})
		if err != nil {
			t.Fatalf("ListDeliveriesByEvent: %v", err)
		}
		page = p
		return len(page.Deliveries) == 2
	})

	var delivered, failed *delivery.Delivery
	for _, d := range page.Deliveries {
		switch d.Status {
		case delivery.StatusDelivered:
			delivered = d
		case delivery.StatusFailed:
			failed = d
		}
	}
	if failed == nil || delivered == nil {
		t.Fatalf("expected one failed and one delivered attempt, got %+v", page.Deliveries)
	}
	if delivered.ParentDeliveryID == nil || *delivered.ParentDeliveryID != failed.ID {
		t.Fatalf("delivered.ParentDeliveryID = %v, want %v", delivered.ParentDeliveryID, failed.ID)
	}
}

// TestEngineStopsAfterMaxRetries covers the boundary the off-by-one bug
// missed: a destination that always fails must produce exactly MaxRetries
// delivery records, not MaxRetries+1.
func TestEngineStopsAfterMaxRetries(t *testing.T) {
	var attempts int32

	dest := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer dest.Close()

	st := memorystore.New()
	queue := memoryqueue.New()
	ctx := context.Background()

	const maxRetries = 3

	ep := &endpoint.Endpoint{
		ID:                id.NewEndpointID(),
		AppID:             id.NewAppID(),
		HookToken:         endpoint.GenerateHookToken(),
		ForwardURL:        dest.URL,
		ForwardingEnabled: true,
		IsActive:          true,
		HTTPTimeoutMs:     endpoint.DefaultHTTPTimeoutMs,
	}
	if err := st.CreateEndpoint(ctx, ep); err != nil {
		t.Fatalf("CreateEndpoint: %v", err)
	}

	evt := event.Capture(event.CaptureInput{
		EndpointID: ep.ID,
		Method:     http.MethodPost,
		Path:       "/" + ep.HookToken,
		Body:       []byte(`{}`),
		Headers:    http.Header{},
	})
	if err := st.Append(ctx, evt); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := queue.Enqueue(ctx, evt.ID, ep.ID); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	engine := delivery.NewEngine(queue, st, st, st, delivery.EngineConfig{
		Concurrency:  1,
		MaxRetries:   maxRetries,
		PollInterval: 10 * time.Millisecond,
		BaseURL:      "http://hookfreight.invalid",
	}, nil)

	engine.Start(ctx)
	defer engine.Stop(ctx)

	// Backoff delays before the 2nd and 3rd attempts are 1000ms and 2000ms,
	// so give this comfortable headroom past the ~3s floor.
	waitFor(t, 6*time.Second, func() bool { return atomic.LoadInt32(&attempts) == maxRetries })

	// No further attempt should follow once MaxRetries is reached.
	time.Sleep(200 * time.Millisecond)
	if got := atomic.LoadInt32(&attempts); got != maxRetries {
		t.Fatalf("attempts = %d, want exactly %d (no attempt past MaxRetries)", got, maxRetries)
	}

	page, err := st.ListDeliveriesByEvent(ctx, evt.ID, delivery.ListOpts{Limit: 10})
	if err != nil {
		t.Fatalf("ListDeliveriesByEvent: %v", err)
	}
	if len(page.Deliveries) != maxRetries {
		t.Fatalf("len(Deliveries) = %d, want %d", len(page.Deliveries), maxRetries)
	}
	for _, d := range page.Deliveries {
		if d.Status != delivery.StatusFailed {
			t.Fatalf("Status = %q, want failed for every attempt", d.Status)
		}
	}
}

// TestEngineRecordsQueueDepthMetrics covers the "decorative gauges" finding:
// QueueWaiting/QueueActive must actually be sampled from the queue, not just
// declared.
func TestEngineRecordsQueueDepthMetrics(t *testing.T) {
	dest := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer dest.Close()

	st := memorystore.New()
	queue := memoryqueue.New()
	ctx := context.Background()

	ep := &endpoint.Endpoint{
		ID:                id.NewEndpointID(),
		AppID:             id.NewAppID(),
		HookToken:         endpoint.GenerateHookToken(),
		ForwardURL:        dest.URL,
		ForwardingEnabled: true,
		IsActive:          true,
		HTTPTimeoutMs:     endpoint.DefaultHTTPTimeoutMs,
	}
	if err := st.CreateEndpoint(ctx, ep); err != nil {
		t.Fatalf("CreateEndpoint: %v", err)
	}
	evt := event.Capture(event.CaptureInput{
		EndpointID: ep.ID,
		Method:     http.MethodPost,
		Path:       "/" + ep.HookToken,
		Body:       []byte(`{}`),
		Headers:    http.Header{},
	})
	if err := st.Append(ctx, evt); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := queue.Enqueue(ctx, evt.ID, ep.ID); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)

	engine := delivery.NewEngine(queue, st, st, st, delivery.EngineConfig{
		Concurrency:  1,
		MaxRetries:   3,
		PollInterval: 10 * time.Millisecond,
		BaseURL:      "http://hookfreight.invalid",
		Metrics:      metrics,
	}, nil)

	engine.Start(ctx)
	defer engine.Stop(ctx)

	waitFor(t, 2*time.Second, func() bool {
		families, err := reg.Gather()
		if err != nil {
			t.Fatalf("gather: %v", err)
		}
		for _, f := range families {
			if f.GetName() == "hookfreight_queue_waiting" {
				return true
			}
		}
		return false
	})
}
