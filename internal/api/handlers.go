package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/wagnerlima/memory-cloud/mind-mcp/internal/forge"
	"github.com/wagnerlima/memory-cloud/mind-mcp/internal/models"
	"github.com/wagnerlima/memory-cloud/mind-mcp/internal/validate"
)

// DefaultNearLimit is used by /thoughts/near when no limit is given.
const DefaultNearLimit = 10

// MaxBodySize caps JSON request bodies.
const MaxBodySize = 1 << 20

// Store is the persistent store surface exposed over HTTP.
type Store interface {
	ListThoughts() ([]models.Thought, error)
	UpsertThought(t models.Thought) error
	Search(text string) ([]models.Thought, error)
	Nearest(p models.Position, radius float64, limit int) ([]models.Thought, error)
	ThoughtCount() (int64, error)
	ListConnections() ([]models.Connection, error)
	UpsertConnection(c models.Connection) error
	ConnectionsAmong(ids []string) ([]models.Connection, error)
	ListSessions() ([]models.Session, error)
	Version() (models.Version, error)
	ListClusters() ([]models.Cluster, error)
}

// ClusterEngine rebuilds the stored cluster set.
type ClusterEngine interface {
	Recompute() ([]models.Cluster, error)
}

// ContextSource answers external context queries.
type ContextSource interface {
	Available() bool
	Search(query string) forge.Context
}

// Server holds the Command Interface dependencies.
type Server struct {
	store    Store
	clusters ClusterEngine
	forge    ContextSource
	logger   *zap.Logger
}

// New creates a Command Interface server.
func New(store Store, clusters ClusterEngine, ctxSource ContextSource, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{store: store, clusters: clusters, forge: ctxSource, logger: logger}
}

// AmongRequest is the body of POST /connections/among.
type AmongRequest struct {
	IDs []string `json:"ids" validate:"required"`
}

// CountResponse is returned by GET /thoughts/count.
type CountResponse struct {
	Count int64 `json:"count"`
}

// AvailableResponse is returned by GET /forge/available.
type AvailableResponse struct {
	Available bool `json:"available"`
}

// ListThoughts handles GET /thoughts
func (s *Server) ListThoughts(w http.ResponseWriter, r *http.Request) {
	thoughts, err := s.store.ListThoughts()
	if err != nil {
		s.storageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, thoughts)
}

// UpsertThought handles POST /thoughts
func (s *Server) UpsertThought(w http.ResponseWriter, r *http.Request) {
	var t models.Thought
	if !decodeBody(w, r, &t) {
		return
	}
	if err := s.store.UpsertThought(t); err != nil {
		s.storageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// SearchThoughts handles GET /thoughts/search?q=
func (s *Server) SearchThoughts(w http.ResponseWriter, r *http.Request) {
	thoughts, err := s.store.Search(r.URL.Query().Get("q"))
	if err != nil {
		s.storageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, thoughts)
}

// NearestThoughts handles GET /thoughts/near?x=&y=&z=&radius=&limit=
func (s *Server) NearestThoughts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var p models.Position
	var radius float64
	for _, f := range []struct {
		name string
		dst  *float64
	}{
		{"x", &p.X}, {"y", &p.Y}, {"z", &p.Z}, {"radius", &radius},
	} {
		v, err := strconv.ParseFloat(q.Get(f.name), 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid "+f.name+" parameter")
			return
		}
		*f.dst = v
	}

	limit := DefaultNearLimit
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit parameter")
			return
		}
		limit = n
	}

	thoughts, err := s.store.Nearest(p, radius, limit)
	if err != nil {
		s.storageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, thoughts)
}

// CountThoughts handles GET /thoughts/count
func (s *Server) CountThoughts(w http.ResponseWriter, r *http.Request) {
	n, err := s.store.ThoughtCount()
	if err != nil {
		s.storageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: n})
}

// ListConnections handles GET /connections
func (s *Server) ListConnections(w http.ResponseWriter, r *http.Request) {
	conns, err := s.store.ListConnections()
	if err != nil {
		s.storageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, conns)
}

// UpsertConnection handles POST /connections
func (s *Server) UpsertConnection(w http.ResponseWriter, r *http.Request) {
	var c models.Connection
	if !decodeBody(w, r, &c) {
		return
	}
	if err := s.store.UpsertConnection(c); err != nil {
		s.storageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// ConnectionsAmong handles POST /connections/among
func (s *Server) ConnectionsAmong(w http.ResponseWriter, r *http.Request) {
	var req AmongRequest
	if !decodeBody(w, r, &req) {
		return
	}
	conns, err := s.store.ConnectionsAmong(req.IDs)
	if err != nil {
		s.storageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, conns)
}

// ListSessions handles GET /sessions
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.store.ListSessions()
	if err != nil {
		s.storageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

// Version handles GET /version
func (s *Server) Version(w http.ResponseWriter, r *http.Request) {
	v, err := s.store.Version()
	if err != nil {
		s.storageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// ListClusters handles GET /clusters
func (s *Server) ListClusters(w http.ResponseWriter, r *http.Request) {
	clusters, err := s.store.ListClusters()
	if err != nil {
		s.storageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, clusters)
}

// RecomputeClusters handles POST /clusters/recompute
func (s *Server) RecomputeClusters(w http.ResponseWriter, r *http.Request) {
	clusters, err := s.clusters.Recompute()
	if err != nil {
		s.storageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, clusters)
}

// ForgeAvailable handles GET /forge/available
func (s *Server) ForgeAvailable(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, AvailableResponse{Available: s.forge.Available()})
}

// ForgeContext handles GET /forge/context?q=
func (s *Server) ForgeContext(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.forge.Search(r.URL.Query().Get("q")))
}

// HealthCheck handles GET /health
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) storageError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	writeError(w, http.StatusInternalServerError, err.Error())
}

// decodeBody decodes and validates the JSON body into dst, writing a 400 (413
// past MaxBodySize) and returning false on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
