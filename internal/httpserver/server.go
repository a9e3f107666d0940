// Package httpserver exposes the state of the scheduled pipeline over HTTP:
// liveness, readiness after the first successful run, Prometheus metrics and
// the report of the latest run.
package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/1996-tech/MERRA-2-Weather-Data/internal/pipeline"
)

const (
	readTimeout  = 10 * time.Second
	writeTimeout = 10 * time.Second
	idleTimeout  = 60 * time.Second

	readinessTimeout = 2 * time.Second
)

// Status is implemented by the scheduled pipeline.
type Status interface {
	CheckReadiness(ctx context.Context) error
	LastReport() (pipeline.Report, bool)
}

// Server serves /healthz, /readyz, /metrics and /report.
type Server struct {
	httpServer *http.Server
	status     Status
	logger     *slog.Logger
}

type stateResponse struct {
	Status  string     `json:"status"`
	Error   string     `json:"error,omitempty"`
	LastRun *time.Time `json:"last_run,omitempty"`
}

// NewServer creates a Server listening on addr. Metrics are those collected
// by gatherer.
func NewServer(addr string, status Status, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	mux := http.NewServeMux()
	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			IdleTimeout:  idleTimeout,
		},
		status: status,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", s.healthz)
	mux.HandleFunc("GET /readyz", s.readyz)
	mux.HandleFunc("GET /report", s.report)
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return s
}

// Start listens until Shutdown, then returns http.ErrServerClosed.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown drains connections within the deadline of ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP routes a request without a listener, as tests do.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, stateResponse{Status: "alive"})
}

// readyz answers 503 until a run has completed, then 200 with the start
// time of the latest successful run.
func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	if err := s.status.CheckReadiness(ctx); err != nil {
		s.writeJSON(w, http.StatusServiceUnavailable, stateResponse{Status: "waiting for first run", Error: err.Error()})
		return
	}
	resp := stateResponse{Status: "ready"}
	if report, ok := s.status.LastReport(); ok {
		resp.LastRun = &report.StartedAt
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// report returns the latest run report. ?variable=NAME narrows it to one
// variable.
func (s *Server) report(w http.ResponseWriter, r *http.Request) {
	report, ok := s.status.LastReport()
	if !ok {
		s.writeJSON(w, http.StatusNotFound, stateResponse{Status: "no completed run"})
		return
	}

	name := r.URL.Query().Get("variable")
	if name == "" {
		s.writeJSON(w, http.StatusOK, report)
		return
	}
	for _, v := range report.Variables {
		if v.Variable == name {
			s.writeJSON(w, http.StatusOK, v)
			return
		}
	}
	s.writeJSON(w, http.StatusNotFound, stateResponse{Status: "variable not in report", Error: name})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("response not written", "err", err)
	}
}
