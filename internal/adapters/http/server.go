package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aretw0/arbiter/internal/logging"
	"github.com/aretw0/arbiter/internal/presentation/graph"
	"github.com/aretw0/arbiter/pkg/domain"
	"github.com/aretw0/arbiter/pkg/fsm"
	"github.com/aretw0/arbiter/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server serves the admin endpoints of an arbiter process.
type Server struct {
	states   []fsm.StateInfo
	results  ports.ResultStore
	gatherer prometheus.Gatherer
	version  string
	logger   *slog.Logger
}

// Option configures the admin Server.
type Option func(*Server)

// WithGraph exposes the described state machine on /graph.
func WithGraph(states []fsm.StateInfo) Option {
	return func(s *Server) {
		s.states = states
	}
}

// WithResults exposes stored results on /results.
func WithResults(store ports.ResultStore) Option {
	return func(s *Server) {
		s.results = store
	}
}

// WithGatherer exposes metrics on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithVersion sets the version reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler creates the admin HTTP handler. Endpoints whose backing option
// was not given answer 404.
func NewHandler(opts ...Option) http.Handler {
	s := &Server{version: "dev", logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	if s.states != nil {
		r.Get("/graph", s.GetGraph)
	}
	if s.results != nil {
		r.Route("/results", func(r chi.Router) {
			r.Get("/", s.ListResults)
			r.Get("/{runID}", s.GetResult)
		})
	}
	return r
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "arbiter-admin",
		"version": s.version,
	})
}

// GetGraph handles GET /graph with the Mermaid source of the state machine.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(graph.GenerateMermaid(s.states, nil)))
}

// ListResults handles GET /results.
func (s *Server) ListResults(w http.ResponseWriter, r *http.Request) {
	runs, err := s.results.List(r.Context())
	if err != nil {
		s.logger.Error("list results", "err", err)
		http.Error(w, "failed to list results", http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"runs": runs})
}

// GetResult handles GET /results/{runID}.
func (s *Server) GetResult(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	result, err := s.results.Load(r.Context(), runID)
	if errors.Is(err, domain.ErrRunNotFound) {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("load result", "run_id", runID, "err", err)
		http.Error(w, "failed to load result", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("encode response", "err", err)
	}
}
