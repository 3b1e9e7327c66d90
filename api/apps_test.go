package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hookfreight/hookfreight/api"
	"github.com/hookfreight/hookfreight/id"
)

func TestAppsCRUD(t *testing.T) {
	svc := testService(t)
	srv := httptest.NewServer(api.NewRouter(svc))
	defer srv.Close()

	resp := doRequest(t, http.MethodPost, srv.URL+"/apps", []byte(`{"name":"acme"}`))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: status = %d, want 201", resp.StatusCode)
	}
	env := decodeEnvelope(t, resp)
	created, _ := env["data"].(map[string]any)
	if created == nil || created["name"] != "acme" {
		t.Fatalf("create: data = %v, want name=acme", env["data"])
	}
	appID, _ := created["id"].(string)
	if appID == "" {
		t.Fatal("create: expected non-empty app id")
	}

	resp = doRequest(t, http.MethodGet, srv.URL+"/apps/"+appID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get: status = %d, want 200", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doRequest(t, http.MethodGet, srv.URL+"/apps", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list: status = %d, want 200", resp.StatusCode)
	}
	env = decodeEnvelope(t, resp)
	list, _ := env["data"].([]any)
	if len(list) != 1 {
		t.Fatalf("list: len(data) = %d, want 1", len(list))
	}

	resp = doRequest(t, http.MethodDelete, srv.URL+"/apps/"+appID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete: status = %d, want 200", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doRequest(t, http.MethodGet, srv.URL+"/apps/"+appID, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after delete: status = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestCreateAppValidationError(t *testing.T) {
	svc := testService(t)
	srv := httptest.NewServer(api.NewRouter(svc))
	defer srv.Close()

	resp := doRequest(t, http.MethodPost, srv.URL+"/apps", []byte(`{"name":""}`))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	defer resp.Body.Close()

	var env map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env["message"] != "validation_error" {
		t.Fatalf("message = %v, want validation_error", env["message"])
	}
}

func TestGetAppNotFound(t *testing.T) {
	svc := testService(t)
	srv := httptest.NewServer(api.NewRouter(svc))
	defer srv.Close()

	resp := doRequest(t, http.MethodGet, srv.URL+"/apps/"+id.NewAppID().String(), nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()
}
