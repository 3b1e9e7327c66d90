package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hookfreight/hookfreight"
	"github.com/hookfreight/hookfreight/api"
	"github.com/hookfreight/hookfreight/delivery"
	"github.com/hookfreight/hookfreight/endpoint"
	memoryqueue "github.com/hookfreight/hookfreight/scheduler/memory"
	memorystore "github.com/hookfreight/hookfreight/store/memory"
)

func TestEventsAndDeliveriesReadAPIAndReplay(t *testing.T) {
	var calls int32
	dest := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer dest.Close()

	svc, err := hookfreight.New(
		hookfreight.WithStore(memorystore.New()),
		hookfreight.WithQueue(memoryqueue.New()),
		hookfreight.WithConcurrency(2),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := context.Background()
	a, err := svc.Apps().Create(ctx, "acme")
	if err != nil {
		t.Fatalf("create app: %v", err)
	}
	ep, err := svc.Endpoints().Create(ctx, a.ID, endpoint.Input{ForwardURL: dest.URL})
	if err != nil {
		t.Fatalf("create endpoint: %v", err)
	}

	svc.Start(ctx)
	defer svc.Stop(ctx)

	srv := httptest.NewServer(api.NewRouter(svc))
	defer srv.Close()

	resp := doRequest(t, http.MethodPost, srv.URL+"/"+ep.HookToken, []byte(`{}`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ingest: status = %d, want 200", resp.StatusCode)
	}
	resp.Body.Close()

	waitFor(t, 2*time.Second, func() bool { return atomic.LoadInt32(&calls) == 1 })

	var eventID string
	waitFor(t, 2*time.Second, func() bool {
		resp := doRequest(t, http.MethodGet, srv.URL+"/endpoints/"+ep.ID.String()+"/events", nil)
		env := decodeEnvelope(t, resp)
		data, _ := env["data"].(map[string]any)
		events, _ := data["events"].([]any)
		if len(events) != 1 {
			return false
		}
		eventID, _ = events[0].(map[string]any)["id"].(string)
		return eventID != ""
	})

	var deliveryID string
	waitFor(t, 2*time.Second, func() bool {
		resp := doRequest(t, http.MethodGet, srv.URL+"/events/"+eventID+"/deliveries", nil)
		env := decodeEnvelope(t, resp)
		data, _ := env["data"].(map[string]any)
		deliveries, _ := data["deliveries"].([]any)
		if len(deliveries) != 1 {
			return false
		}
		d := deliveries[0].(map[string]any)
		if d["status"] != string(delivery.StatusDelivered) {
			return false
		}
		deliveryID, _ = d["id"].(string)
		return deliveryID != ""
	})

	resp = doRequest(t, http.MethodGet, srv.URL+"/deliveries/"+deliveryID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get delivery: status = %d, want 200", resp.StatusCode)
	}
	env := decodeEnvelope(t, resp)
	data, _ := env["data"].(map[string]any)
	delView, _ := data["delivery"].(map[string]any)
	if delView["id"] != deliveryID {
		t.Fatalf("delivery.id = %v, want %q", delView["id"], deliveryID)
	}
	chain, _ := data["chain"].([]any)
	if len(chain) != 1 {
		t.Fatalf("len(chain) = %d, want 1 (single delivered attempt)", len(chain))
	}

	resp = doRequest(t, http.MethodPost, srv.URL+"/deliveries/"+deliveryID+"/replay", nil)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("replay: status = %d, want 202", resp.StatusCode)
	}
	env = decodeEnvelope(t, resp)
	if env["message"] != "replay_scheduled" {
		t.Fatalf("replay: message = %v, want replay_scheduled", env["message"])
	}

	waitFor(t, 2*time.Second, func() bool { return atomic.LoadInt32(&calls) == 2 })

	waitFor(t, 2*time.Second, func() bool {
		resp := doRequest(t, http.MethodGet, srv.URL+"/events/"+eventID+"/deliveries", nil)
		env := decodeEnvelope(t, resp)
		data, _ := env["data"].(map[string]any)
		deliveries, _ := data["deliveries"].([]any)
		return len(deliveries) == 2
	})
}
