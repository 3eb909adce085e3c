package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iamdhrv/bigbluebutton/pkg/mapping"
	"github.com/iamdhrv/bigbluebutton/pkg/store"
	"github.com/iamdhrv/bigbluebutton/pkg/store/memory"
)

func newTestRegistry(t *testing.T) *mapping.Registry {
	t.Helper()
	return mapping.NewRegistry(memory.NewMemoryStore(), store.NewKeys(""), nil)
}

func TestHealth_ReturnsOK(t *testing.T) {
	handler := NewMappingsHandler(nil)
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	handler.Health(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	var resp Response
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.Status != "healthy" {
		t.Errorf("Expected status 'healthy', got '%s'", resp.Status)
	}

	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("Expected Data to be a map, got %T", resp.Data)
	}

	if data["service"] != "bbb-webhooks" {
		t.Errorf("Expected service 'bbb-webhooks', got '%s'", data["service"])
	}
}

func TestList_NoRegistry_Returns503(t *testing.T) {
	handler := NewMappingsHandler(nil)
	req := httptest.NewRequest("GET", "/mappings", nil)
	w := httptest.NewRecorder()

	handler.List(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
	}
}

func TestList_ReturnsMappingsSortedByID(t *testing.T) {
	registry := newTestRegistry(t)
	ctx := context.Background()

	if _, err := registry.AddMapping(ctx, "w_b", "ext-b", "meeting-1"); err != nil {
		t.Fatalf("AddMapping failed: %v", err)
	}
	if _, err := registry.AddMapping(ctx, "w_a", "ext-a", "meeting-1"); err != nil {
		t.Fatalf("AddMapping failed: %v", err)
	}

	router := NewRouter(registry)
	req := httptest.NewRequest("GET", "/mappings", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Count    int               `json:"count"`
			Mappings []mapping.Mapping `json:"mappings"`
		} `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.Data.Count != 2 {
		t.Errorf("Expected 2 mappings, got %d", resp.Data.Count)
	}
	if len(resp.Data.Mappings) != 2 {
		t.Fatalf("Expected 2 mappings in payload, got %d", len(resp.Data.Mappings))
	}
	if resp.Data.Mappings[0].ID >= resp.Data.Mappings[1].ID {
		t.Errorf("Expected mappings sorted by id, got %d then %d",
			resp.Data.Mappings[0].ID, resp.Data.Mappings[1].ID)
	}
	if resp.Data.Mappings[0].InternalUserID != "w_b" {
		t.Errorf("Expected first mapping to be 'w_b', got '%s'", resp.Data.Mappings[0].InternalUserID)
	}
}

func TestGet_ReturnsMapping(t *testing.T) {
	registry := newTestRegistry(t)
	ctx := context.Background()

	if _, err := registry.AddMapping(ctx, "w_abc", "ext-user-1", "meeting-1"); err != nil {
		t.Fatalf("AddMapping failed: %v", err)
	}

	router := NewRouter(registry)
	req := httptest.NewRequest("GET", "/mappings/w_abc", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	var resp struct {
		Status string          `json:"status"`
		Data   mapping.Mapping `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.Data.ExternalUserID != "ext-user-1" {
		t.Errorf("Expected external user id 'ext-user-1', got '%s'", resp.Data.ExternalUserID)
	}
	if resp.Data.MeetingID != "meeting-1" {
		t.Errorf("Expected meeting id 'meeting-1', got '%s'", resp.Data.MeetingID)
	}
}

func TestGet_UnknownUser_Returns404(t *testing.T) {
	registry := newTestRegistry(t)

	router := NewRouter(registry)
	req := httptest.NewRequest("GET", "/mappings/w_missing", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status %d, got %d", http.StatusNotFound, w.Code)
	}

	var resp Response
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.Status != "error" {
		t.Errorf("Expected status 'error', got '%s'", resp.Status)
	}
}

func TestRoot_RedirectsToHealth(t *testing.T) {
	router := NewRouter(newTestRegistry(t))
	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusTemporaryRedirect {
		t.Errorf("Expected status %d, got %d", http.StatusTemporaryRedirect, w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/health" {
		t.Errorf("Expected redirect to /health, got '%s'", loc)
	}
}
