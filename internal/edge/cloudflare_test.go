package edge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *CloudflareProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p := NewCloudflareProvider("test-token", "zone-1")
	p.baseURL = srv.URL
	return p
}

func TestCloudflareProvider_AddDomain(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/zones/zone-1/custom_hostnames" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-token" {
			t.Errorf("missing bearer token, got %q", auth)
		}

		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		if body["hostname"] != "shop.example.com" {
			t.Errorf("hostname = %v", body["hostname"])
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"result":  map[string]string{"id": "ch-123", "hostname": "shop.example.com", "status": "pending"},
		})
	})

	result := p.AddDomain(context.Background(), "shop.example.com", "")
	if !result.Success {
		t.Fatalf("AddDomain failed: %s", result.Error)
	}
	if result.ProviderDomainID != "ch-123" {
		t.Errorf("providerDomainId = %q, want ch-123", result.ProviderDomainID)
	}
}

func TestCloudflareProvider_AddDomain_APIError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"errors":  []map[string]interface{}{{"code": 1407, "message": "duplicate custom hostname"}},
		})
	})

	result := p.AddDomain(context.Background(), "shop.example.com", "")
	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Error == "" {
		t.Error("failure must carry the provider error message")
	}
}

func TestCloudflareProvider_RemoveDomain_NotFoundIsSuccess(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	result := p.RemoveDomain(context.Background(), "ch-gone")
	if !result.Success {
		t.Errorf("removing an absent hostname should succeed, got %s", result.Error)
	}
}

func TestCloudflareProvider_GetDomainStatus(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/zones/zone-1/custom_hostnames/ch-123" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"result":  map[string]string{"id": "ch-123", "status": "active"},
		})
	})

	result := p.GetDomainStatus(context.Background(), "ch-123")
	if !result.Success || result.Status != "active" {
		t.Errorf("status = %+v, want active", result)
	}
}

func TestFromConfig(t *testing.T) {
	if p := FromConfig("", ""); p.Configured() {
		t.Error("empty credentials should yield an unconfigured provider")
	}
	if p := FromConfig("token", "zone"); !p.Configured() {
		t.Error("full credentials should yield a configured provider")
	}
}
