package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/harshakrishna15/SlopScan/cmd/slopscan-api/handlers"
	"github.com/harshakrishna15/SlopScan/cmd/slopscan-api/middleware"
	"github.com/harshakrishna15/SlopScan/internal/app"
	"github.com/harshakrishna15/SlopScan/internal/config"
	"github.com/harshakrishna15/SlopScan/internal/observability"
)

// Services are the handler dependencies behind the router.
type Services struct {
	Identifier      handlers.Identifier
	Recommender     handlers.Recommender
	Catalog         handlers.Catalog
	RecognizerState func() string
	EmbeddingStatus func() string
}

// ServicesFromApp adapts a wired App to the router's dependencies.
func ServicesFromApp(a *app.App) Services {
	return Services{
		Identifier:      a.Identify,
		Recommender:     a.Recommend,
		Catalog:         a.Store,
		RecognizerState: a.RecognizerState,
		EmbeddingStatus: a.EmbeddingStatus,
	}
}

// NewRouter creates the main API router with all routes configured.
func NewRouter(logger *observability.Logger, cfg config.ServerConfig, serviceName string, svc Services) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.TraceID)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	if cfg.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(cfg.RequestTimeout))
	}

	healthHandler := handlers.NewHealthHandler(logger, svc.Catalog, serviceName, svc.RecognizerState, svc.EmbeddingStatus)
	identifyHandler := handlers.NewIdentifyHandler(logger, svc.Identifier, cfg.MaxUploadBytes)
	productHandler := handlers.NewProductHandler(logger, svc.Catalog, svc.Recommender)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler.Health)
		r.Post("/identify", identifyHandler.Identify)
		r.Get("/product/{code}", productHandler.Get)

		r.Route("/recommend", func(r chi.Router) {
			r.Post("/", productHandler.RecommendFromSource)
			r.Get("/{code}", productHandler.RecommendByCode)
		})
	})

	return r
}
