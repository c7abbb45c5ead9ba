// Package httpserver exposes the compiler and the run lifecycle over HTTP,
// for admin surfaces that embed neither.
package httpserver

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/canopyhq/canopy/internal/logging"
	"github.com/canopyhq/canopy/pkg/compiler"
	"github.com/canopyhq/canopy/pkg/domain"
	"github.com/canopyhq/canopy/pkg/observability"
	"github.com/canopyhq/canopy/pkg/ports"
	"github.com/canopyhq/canopy/pkg/registry"
	"github.com/canopyhq/canopy/pkg/stream"
)

// Server routes compile and run requests. Runs are proxied: the backend's
// event stream is parsed frame by frame and re-emitted to the client as
// SSE, so malformed frames are filtered out at this hop.
type Server struct {
	service  ports.RunService
	store    ports.RunStore
	registry *registry.Registry
	logger   *slog.Logger
	metrics  *observability.Metrics
	promReg  *prometheus.Registry
}

type Option func(*Server)

// WithStore enables the run listing and lookup endpoints.
func WithStore(store ports.RunStore) Option {
	return func(s *Server) {
		s.store = store
	}
}

// WithRegistry replaces the node kind registry used by /compile.
func WithRegistry(reg *registry.Registry) Option {
	return func(s *Server) {
		s.registry = reg
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithPrometheus mounts /metrics backed by the given registry and counts
// proxied and dropped frames on it.
func WithPrometheus(reg *prometheus.Registry) Option {
	return func(s *Server) {
		s.promReg = reg
		s.metrics = observability.New(reg)
	}
}

// New creates a server for the given backend service.
func New(service ports.RunService, opts ...Option) *Server {
	s := &Server{
		service:  service,
		registry: registry.Builtin(),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.health)
	r.Post("/compile", s.compile)
	r.Post("/runs", s.createRun)
	if s.store != nil {
		r.Get("/runs", s.listRuns)
		r.Get("/runs/{runID}", s.getRun)
	}
	if s.promReg != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.promReg, promhttp.HandlerOpts{}))
	}

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type compileRequest struct {
	Nodes       []domain.Node `json:"nodes"`
	Edges       []domain.Edge `json:"edges"`
	SpecVersion string        `json:"spec_version,omitempty"`
}

// compile handles POST /compile: nodes and edges in, a fully derived
// GraphSpec out.
func (s *Server) compile(w http.ResponseWriter, r *http.Request) {
	var req compileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("compile: invalid request body", "err", err)
		return
	}

	spec := compiler.Compile(req.Nodes, req.Edges, compiler.Options{
		Registry:    s.registry,
		SpecVersion: req.SpecVersion,
	})

	// Dangling references pass through compilation; report them to the
	// caller without failing the request.
	resp := struct {
		domain.GraphSpec
		Warnings []string `json:"warnings,omitempty"`
	}{GraphSpec: spec}
	if err := compiler.CheckEdges(spec.Nodes, spec.Edges); err != nil {
		resp.Warnings = append(resp.Warnings, err.Error())
	}

	writeJSON(w, http.StatusOK, resp)
}

// createRun handles POST /runs: it submits the run to the backend and
// re-emits the parsed event stream as SSE.
func (s *Server) createRun(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("createRun: streaming not supported")
		return
	}

	var req ports.RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("createRun: invalid request body", "err", err)
		return
	}

	body, err := s.service.CreateRun(r.Context(), req)
	if err != nil {
		http.Error(w, fmt.Sprintf("Run submission failed: %v", err), http.StatusBadGateway)
		s.logger.Error("createRun: backend submission failed", "err", err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	dec := stream.NewFrameDecoder(body)
	for {
		frame, err := dec.Next()
		if err != nil {
			// Natural end, pause, or client disconnect; either way the
			// stream terminates here.
			fmt.Fprint(w, "data: [DONE]\n\n")
			flusher.Flush()
			return
		}

		ev, perr := stream.ParseEvent(frame)
		if perr != nil {
			s.metrics.ObserveMalformed()
			s.logger.Warn("createRun: dropping malformed frame", "err", perr)
			continue
		}
		s.metrics.ObserveEvent(string(ev.Type))

		fmt.Fprintf(w, "data: %s\n\n", frame)
		flusher.Flush()
	}
}

// listRuns handles GET /runs.
func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	ids, err := s.store.List(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("List error: %v", err), http.StatusInternalServerError)
		s.logger.Error("listRuns failed", "err", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"runs": ids})
}

// getRun handles GET /runs/{runID}.
func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	rec, err := s.store.Load(r.Context(), runID)
	if err != nil {
		if err == domain.ErrRunNotFound {
			http.Error(w, "Run not found", http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("Load error: %v", err), http.StatusInternalServerError)
		s.logger.Error("getRun failed", "err", err, "run_id", runID)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}
