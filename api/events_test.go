package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hookfreight/hookfreight/api"
	"github.com/hookfreight/hookfreight/endpoint"
)

func TestGetEventDecodesJSONBody(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	a, err := svc.Apps().Create(ctx, "acme")
	if err != nil {
		t.Fatalf("create app: %v", err)
	}
	ep, err := svc.Endpoints().Create(ctx, a.ID, endpoint.Input{ForwardURL: "http://example.invalid/hook"})
	if err != nil {
		t.Fatalf("create endpoint: %v", err)
	}

	srv := httptest.NewServer(api.NewRouter(svc))
	defer srv.Close()

	resp := doRequest(t, http.MethodPost, srv.URL+"/"+ep.HookToken, []byte(`{"order_id":"ORD-1"}`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ingest: status = %d, want 200", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doRequest(t, http.MethodGet, srv.URL+"/endpoints/"+ep.ID.String()+"/events", nil)
	env := decodeEnvelope(t, resp)
	data := env["data"].(map[string]any)
	events := data["events"].([]any)
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}
	view := events[0].(map[string]any)
	eventID := view["id"].(string)

	resp = doRequest(t, http.MethodGet, srv.URL+"/events/"+eventID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get event: status = %d, want 200", resp.StatusCode)
	}
	env = decodeEnvelope(t, resp)
	detail := env["data"].(map[string]any)
	decoded := detail["decoded_body"].(map[string]any)
	parsed, _ := decoded["json"].(map[string]any)
	if parsed == nil || parsed["order_id"] != "ORD-1" {
		t.Fatalf("decoded_body.json = %v, want order_id ORD-1", decoded["json"])
	}
}
