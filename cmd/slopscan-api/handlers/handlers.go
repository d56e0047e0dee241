// Package handlers provides HTTP handlers for the SlopScan API.
package handlers

import (
	"context"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/harshakrishna15/SlopScan/internal/catalog"
	"github.com/harshakrishna15/SlopScan/internal/domain"
	"github.com/harshakrishna15/SlopScan/internal/identify"
	"github.com/harshakrishna15/SlopScan/internal/observability"
	"github.com/harshakrishna15/SlopScan/internal/recommend"
)

// Identifier turns an image into a ranked match.
type Identifier interface {
	Identify(ctx context.Context, image []byte) (*identify.Result, error)
}

// Recommender finds alternatives to a product.
type Recommender interface {
	ForProduct(ctx context.Context, code string) ([]catalog.Product, error)
	ForSource(ctx context.Context, src recommend.Source) ([]catalog.Product, error)
}

// Catalog is the read side of the vector store.
type Catalog interface {
	Get(ctx context.Context, code string) (*catalog.Product, []float32, error)
	Count(ctx context.Context) (int64, error)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message, detail string) {
	resp := map[string]string{
		"error":   http.StatusText(status),
		"message": message,
	}
	if detail != "" {
		resp["detail"] = detail
	}
	writeJSON(w, status, resp)
}

// statusFor maps a domain error kind to an HTTP status.
func statusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindRecognition, domain.KindEmbedding, domain.KindSearch:
		return http.StatusBadGateway
	case domain.KindConfig:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeDomainError logs err and writes the mapped response. Server-side
// failures keep their detail out of the body.
func writeDomainError(w http.ResponseWriter, logger *observability.Logger, r *http.Request, message string, err error) {
	status := statusFor(err)
	log := logger.WithContext(r.Context())

	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("kind", string(domain.KindOf(err))).Msg(message)
		detail := ""
		if status == http.StatusBadGateway {
			detail = err.Error()
		}
		writeError(w, status, message, detail)
		return
	}

	log.Debug().Err(err).Msg(message)
	writeError(w, status, message, err.Error())
}

func productViews(products []catalog.Product) []map[string]any {
	out := make([]map[string]any, len(products))
	for i, p := range products {
		out[i] = p.Fields()
	}
	return out
}
