package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Routes returns the Command Interface routes, relative to their mount point.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/thoughts", func(r chi.Router) {
		r.Get("/", s.ListThoughts)
		r.Post("/", s.UpsertThought)
		r.Get("/search", s.SearchThoughts)
		r.Get("/near", s.NearestThoughts)
		r.Get("/count", s.CountThoughts)
	})

	r.Route("/connections", func(r chi.Router) {
		r.Get("/", s.ListConnections)
		r.Post("/", s.UpsertConnection)
		r.Post("/among", s.ConnectionsAmong)
	})

	r.Get("/sessions", s.ListSessions)
	r.Get("/version", s.Version)

	r.Route("/clusters", func(r chi.Router) {
		r.Get("/", s.ListClusters)
		r.Post("/recompute", s.RecomputeClusters)
	})

	r.Route("/forge", func(r chi.Router) {
		r.Get("/available", s.ForgeAvailable)
		r.Get("/context", s.ForgeContext)
	})

	return r
}

// Handler returns the full HTTP surface: /api, /health, /metrics and, when
// mcpHandler is not nil, /mcp.
func (s *Server) Handler(mcpHandler http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(Logger(s.logger))

	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())
	if mcpHandler != nil {
		r.Handle("/mcp", mcpHandler)
		r.Handle("/mcp/*", mcpHandler)
	}
	r.Mount("/api", s.Routes())

	return r
}

// Logger logs one line per request.
func Logger(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("HTTP Request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("requestID", chimiddleware.GetReqID(r.Context())),
			)
		})
	}
}
