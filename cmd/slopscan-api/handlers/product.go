package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/harshakrishna15/SlopScan/internal/domain"
	"github.com/harshakrishna15/SlopScan/internal/observability"
	"github.com/harshakrishna15/SlopScan/internal/recommend"
	"github.com/harshakrishna15/SlopScan/internal/vectorstore"
)

// ProductHandler serves catalog lookups and recommendations.
type ProductHandler struct {
	logger      *observability.Logger
	catalog     Catalog
	recommender Recommender
}

// NewProductHandler creates a new product handler.
func NewProductHandler(logger *observability.Logger, catalog Catalog, recommender Recommender) *ProductHandler {
	return &ProductHandler{
		logger:      logger,
		catalog:     catalog,
		recommender: recommender,
	}
}

// Get handles GET /api/product/{code}.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(chi.URLParam(r, "code"))

	p, _, err := h.catalog.Get(r.Context(), code)
	if errors.Is(err, vectorstore.ErrNotFound) {
		writeError(w, http.StatusNotFound, "product not found", "")
		return
	}
	if err != nil {
		writeDomainError(w, h.logger, r, "product lookup failed", err)
		return
	}

	h.logger.WithContext(r.Context()).Debug().
		Str("product_code", code).
		Str("product_name", p.Name).
		Msg("Product lookup")

	writeJSON(w, http.StatusOK, p.Fields())
}

// RecommendByCode handles GET /api/recommend/{code}.
func (h *ProductHandler) RecommendByCode(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(chi.URLParam(r, "code"))

	alts, err := h.recommender.ForProduct(r.Context(), code)
	if err != nil {
		writeDomainError(w, h.logger, r, "recommend failed", err)
		return
	}

	writeJSON(w, http.StatusOK, productViews(alts))
}

// RecommendFromSource handles POST /api/recommend.
func (h *ProductHandler) RecommendFromSource(w http.ResponseWriter, r *http.Request) {
	var src recommend.Source
	if err := json.NewDecoder(r.Body).Decode(&src); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if strings.TrimSpace(src.Name) == "" {
		writeDomainError(w, h.logger, r, "invalid source", domain.ValidationError("product_name is required", nil))
		return
	}

	alts, err := h.recommender.ForSource(r.Context(), src)
	if err != nil {
		writeDomainError(w, h.logger, r, "recommend failed", err)
		return
	}

	writeJSON(w, http.StatusOK, productViews(alts))
}
