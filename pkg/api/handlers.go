package api

import (
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/iamdhrv/bigbluebutton/pkg/mapping"
)

// MappingsHandler serves the read-only user mapping endpoints.
//
// All endpoints are unauthenticated and answer from the in-memory index,
// so they never touch the persistent store.
type MappingsHandler struct {
	registry *mapping.Registry
}

// NewMappingsHandler creates a new mappings handler.
//
// The registry may be nil, in which case the mapping endpoints return
// 503 Service Unavailable and only the liveness probe succeeds.
func NewMappingsHandler(registry *mapping.Registry) *MappingsHandler {
	return &MappingsHandler{registry: registry}
}

// Health handles GET /health - simple liveness probe.
//
// Returns 200 OK as long as the HTTP server is responsive, plus the
// current number of live mappings when the registry is available.
func (h *MappingsHandler) Health(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{
		"service": "bbb-webhooks",
	}
	if h.registry != nil {
		data["mappings"] = len(h.registry.ListAll())
	}
	JSON(w, http.StatusOK, HealthyResponse(data))
}

// List handles GET /mappings - returns all live user mappings.
//
// Mappings are sorted by id so output is stable across calls.
func (h *MappingsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.registry == nil {
		JSON(w, http.StatusServiceUnavailable, ErrorResponse("registry not initialized"))
		return
	}

	mappings := h.registry.ListAll()
	sort.Slice(mappings, func(i, j int) bool {
		return mappings[i].ID < mappings[j].ID
	})

	JSON(w, http.StatusOK, OKResponse(map[string]any{
		"count":    len(mappings),
		"mappings": mappings,
	}))
}

// Get handles GET /mappings/{internalUserID} - single mapping lookup.
//
// Returns 404 Not Found when no mapping exists for the internal user id.
func (h *MappingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.registry == nil {
		JSON(w, http.StatusServiceUnavailable, ErrorResponse("registry not initialized"))
		return
	}

	internalUserID := chi.URLParam(r, "internalUserID")
	m, ok := h.registry.Get(internalUserID)
	if !ok {
		JSON(w, http.StatusNotFound, ErrorResponse("no mapping for internal user id"))
		return
	}

	JSON(w, http.StatusOK, OKResponse(m))
}
