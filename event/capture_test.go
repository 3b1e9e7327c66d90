package event

import (
	"net/http"
	"testing"

	"github.com/hookfreight/hookfreight/id"
)

func TestCaptureUppercasesMethodAndSizesBody(t *testing.T) {
	epID := id.NewEndpointID()
	body := []byte(`{"hello":"world"}`)

	evt := Capture(CaptureInput{
		EndpointID:  epID,
		Method:      "post",
		OriginalURL: "https://relay.example.com/h/abc123",
		SourceURL:   "https://upstream.example.com/webhooks",
		Path:        "/h/abc123",
		Query:       map[string][]string{"retry": {"0"}},
		Headers:     http.Header{"Content-Type": []string{"application/json"}},
		Body:        body,
		SourceIP:    "203.0.113.5",
		UserAgent:   "curl/8.0",
	})

	if evt.Method != "POST" {
		t.Fatalf("Method = %q, want POST", evt.Method)
	}
	if evt.EndpointID != epID {
		t.Fatalf("EndpointID = %v, want %v", evt.EndpointID, epID)
	}
	if evt.SizeBytes != len(body) {
		t.Fatalf("SizeBytes = %d, want %d", evt.SizeBytes, len(body))
	}
	if string(evt.Body) != string(body) {
		t.Fatalf("Body mutated: got %q, want %q", evt.Body, body)
	}
	if evt.ID.IsNil() {
		t.Fatal("Capture must mint a non-nil event id")
	}
	if evt.ReceivedAt.IsZero() {
		t.Fatal("Capture must set ReceivedAt")
	}
}

func TestCapturePreservesEmptyBody(t *testing.T) {
	evt := Capture(CaptureInput{
		EndpointID: id.NewEndpointID(),
		Method:     "GET",
		Headers:    http.Header{},
	})
	if evt.SizeBytes != 0 {
		t.Fatalf("SizeBytes = %d, want 0", evt.SizeBytes)
	}
	if evt.Body != nil && len(evt.Body) != 0 {
		t.Fatalf("Body = %v, want empty", evt.Body)
	}
}
