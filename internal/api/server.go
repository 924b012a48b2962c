// Package api serves the sizing service over HTTP.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sells-group/solar-crm/internal/catalog"
	"github.com/sells-group/solar-crm/internal/metrics"
	"github.com/sells-group/solar-crm/internal/resilience"
	"github.com/sells-group/solar-crm/internal/service"
)

// Options configures the HTTP surface.
type Options struct {
	AllowedOrigins []string
	MaxBodyBytes   int64
}

// Server holds the handlers' dependencies.
type Server struct {
	svc      *service.Service
	catalog  *catalog.Catalog
	metrics  *metrics.Collector
	breakers *resilience.Registry
	opts     Options
}

// NewServer creates a Server. The catalog, collector and breaker registry are
// optional.
func NewServer(svc *service.Service, cat *catalog.Catalog, mc *metrics.Collector, breakers *resilience.Registry, opts Options) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	return &Server{
		svc:      svc,
		catalog:  cat,
		metrics:  mc,
		breakers: breakers,
		opts:     opts,
	}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", HeaderRequestID},
		ExposedHeaders: []string{HeaderRequestID},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/catalog/panels", s.handleCatalog)
		r.Post("/solar/insights", s.handleInsight)
		r.Post("/solar/recompute", s.handleRecompute)
	})

	return r
}
