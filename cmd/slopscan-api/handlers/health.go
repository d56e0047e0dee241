package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/harshakrishna15/SlopScan/internal/observability"
)

// HealthHandler reports liveness plus catalog and recognizer state.
type HealthHandler struct {
	logger    *observability.Logger
	catalog   Catalog
	service   string
	breaker   func() string
	embedding func() string
}

// NewHealthHandler creates a health handler. breaker and embedding may be nil.
func NewHealthHandler(logger *observability.Logger, catalog Catalog, service string, breaker, embedding func() string) *HealthHandler {
	return &HealthHandler{logger: logger, catalog: catalog, service: service, breaker: breaker, embedding: embedding}
}

// Health handles GET /api/health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":  "ok",
		"service": h.service,
	}
	if h.breaker != nil {
		resp["recognizer"] = h.breaker()
	}
	if h.embedding != nil {
		resp["embedding"] = h.embedding()
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	n, err := h.catalog.Count(ctx)
	if err != nil {
		h.logger.WithContext(r.Context()).Warn().Err(err).Msg("catalog count failed")
		resp["status"] = "degraded"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	resp["products"] = n

	writeJSON(w, http.StatusOK, resp)
}
