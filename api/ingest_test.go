package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hookfreight/hookfreight"
	"github.com/hookfreight/hookfreight/api"
	"github.com/hookfreight/hookfreight/endpoint"
	"github.com/hookfreight/hookfreight/event"
	"github.com/hookfreight/hookfreight/observability"
	memoryqueue "github.com/hookfreight/hookfreight/scheduler/memory"
	memorystore "github.com/hookfreight/hookfreight/store/memory"
)

// testService builds a Service backed by the in-memory store and queue,
// with its delivery engine left unstarted — these tests exercise capture
// and the read API, not the forwarding pipeline.
func testService(t *testing.T) *hookfreight.Service {
	t.Helper()

	svc, err := hookfreight.New(
		hookfreight.WithStore(memorystore.New()),
		hookfreight.WithQueue(memoryqueue.New()),
		hookfreight.WithLogger(slog.Default()),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return svc
}

func doRequest(t *testing.T, method, url string, body []byte) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, url, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	return resp
}

func decodeEnvelope(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var env map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

// waitFor polls cond until it returns true or the timeout elapses.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}

func TestIngestCapturesEventAndReturns200(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	a, err := svc.Apps().Create(ctx, "test app")
	if err != nil {
		t.Fatalf("create app: %v", err)
	}
	ep, err := svc.Endpoints().Create(ctx, a.ID, endpoint.Input{ForwardURL: "http://example.invalid/hook"})
	if err != nil {
		t.Fatalf("create endpoint: %v", err)
	}

	srv := httptest.NewServer(api.NewRouter(svc))
	defer srv.Close()

	resp := doRequest(t, http.MethodPost, srv.URL+"/"+ep.HookToken, []byte(`{"hello":"world"}`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	env := decodeEnvelope(t, resp)
	if env["message"] != "event_created" {
		t.Fatalf("message = %v, want event_created", env["message"])
	}

	events, err := svc.Store().ListByEndpoint(ctx, ep.ID, event.ListOpts{})
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events.Events) != 1 {
		t.Fatalf("len(Events) = %d, want 1", len(events.Events))
	}
	if string(events.Events[0].Body) != `{"hello":"world"}` {
		t.Fatalf("Body = %q, want verbatim capture", events.Events[0].Body)
	}
}

func TestIngestUnknownTokenReturns404(t *testing.T) {
	svc := testService(t)
	srv := httptest.NewServer(api.NewRouter(svc))
	defer srv.Close()

	resp := doRequest(t, http.MethodPost, srv.URL+"/000000000000000000000000", []byte(`{}`))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	env := decodeEnvelope(t, resp)
	if env["message"] != "endpoint_not_found" {
		t.Fatalf("message = %v, want endpoint_not_found", env["message"])
	}
}

func TestIngestDisallowedMethodReturns405(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	a, _ := svc.Apps().Create(ctx, "test app")
	ep, _ := svc.Endpoints().Create(ctx, a.ID, endpoint.Input{ForwardURL: "http://example.invalid/hook"})

	srv := httptest.NewServer(api.NewRouter(svc))
	defer srv.Close()

	resp := doRequest(t, http.MethodDelete, srv.URL+"/"+ep.HookToken, nil)
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", resp.StatusCode)
	}
}

func TestIngestRecordsCaptureMetric(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)

	svc, err := hookfreight.New(
		hookfreight.WithStore(memorystore.New()),
		hookfreight.WithQueue(memoryqueue.New()),
		hookfreight.WithMetrics(metrics),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := context.Background()
	a, _ := svc.Apps().Create(ctx, "test app")
	ep, _ := svc.Endpoints().Create(ctx, a.ID, endpoint.Input{ForwardURL: "http://example.invalid/hook"})

	srv := httptest.NewServer(api.NewRouter(svc))
	defer srv.Close()

	resp := doRequest(t, http.MethodPost, srv.URL+"/"+ep.HookToken, []byte(`{}`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	resp.Body.Close()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, f := range families {
		if f.GetName() == "hookfreight_events_captured_total" {
			if got := f.GetMetric()[0].GetCounter().GetValue(); got != 1 {
				t.Fatalf("hookfreight_events_captured_total = %f, want 1", got)
			}
			return
		}
	}
	t.Fatal("hookfreight_events_captured_total metric not found")
}

func TestIngestAllowsGETPerRedesignFlag(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	a, _ := svc.Apps().Create(ctx, "test app")
	ep, _ := svc.Endpoints().Create(ctx, a.ID, endpoint.Input{ForwardURL: "http://example.invalid/hook"})

	srv := httptest.NewServer(api.NewRouter(svc))
	defer srv.Close()

	resp := doRequest(t, http.MethodGet, srv.URL+"/"+ep.HookToken+"?a=1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 (GET is an intentionally allowed ingest method)", resp.StatusCode)
	}
}
