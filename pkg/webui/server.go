// Package webui serves the operator's HTTP JSON API: one endpoint per interview action plus
// report history, usage metrics, logs and secrets.
package webui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"talentscout/pkg/logx"
	"talentscout/pkg/metrics"
	"talentscout/pkg/persistence"
	"talentscout/pkg/session"
	"talentscout/pkg/version"
	"talentscout/pkg/workflow"
)

// ReportArchive is the read side of the report archive.
type ReportArchive interface {
	List(ctx context.Context, limit int) ([]persistence.Summary, error)
	Get(ctx context.Context, id string) (*persistence.Entry, error)
	Delete(ctx context.Context, id string) error
}

// UsageQuerier looks up model usage for a session.
type UsageQuerier interface {
	GetSessionUsage(ctx context.Context, sessionID string) (*metrics.Usage, error)
	GetSessionUsageByStage(ctx context.Context, sessionID string) ([]*metrics.Usage, error)
}

// Server represents the web UI HTTP server.
type Server struct {
	sessions *session.Manager
	reports  ReportArchive
	usage    UsageQuerier
	gatherer prometheus.Gatherer
	logger   *logx.Logger
	workDir  string
}

// NewServer creates a new web UI server.
func NewServer(sessions *session.Manager, workDir string) *Server {
	return &Server{
		sessions: sessions,
		workDir:  workDir,
		logger:   logx.NewLogger("webui"),
	}
}

// SetReportArchive enables the report history endpoints.
func (s *Server) SetReportArchive(reports ReportArchive) {
	s.reports = reports
}

// SetUsageQuerier enables the per-session usage endpoint.
func (s *Server) SetUsageQuerier(usage UsageQuerier) {
	s.usage = usage
}

// SetGatherer exposes g on /metrics.
func (s *Server) SetGatherer(g prometheus.Gatherer) {
	s.gatherer = g
}

// RegisterRoutes sets up HTTP routes for the API.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/healthz", s.handleHealth)
	mux.HandleFunc("GET /api/logs", s.handleLogs)

	mux.HandleFunc("GET /api/sessions", s.handleSessionList)
	mux.HandleFunc("POST /api/sessions", s.handleSessionCreate)
	mux.HandleFunc("GET /api/sessions/{id}", s.handleSessionGet)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleSessionDelete)
	mux.HandleFunc("POST /api/sessions/{id}/resume", s.handleResume)
	mux.HandleFunc("POST /api/sessions/{id}/profile", s.handleProfile)
	mux.HandleFunc("POST /api/sessions/{id}/start", s.handleStart)
	mux.HandleFunc("POST /api/sessions/{id}/answer", s.handleAnswer)
	mux.HandleFunc("PUT /api/sessions/{id}/drawing", s.handleDrawingSet)
	mux.HandleFunc("DELETE /api/sessions/{id}/drawing", s.handleDrawingClear)
	mux.HandleFunc("POST /api/sessions/{id}/advance", s.handleAdvance)
	mux.HandleFunc("POST /api/sessions/{id}/report", s.handleReport)
	mux.HandleFunc("GET /api/sessions/{id}/usage", s.handleUsage)

	mux.HandleFunc("GET /api/reports", s.handleReportList)
	mux.HandleFunc("GET /api/reports/{id}", s.handleReportGet)
	mux.HandleFunc("DELETE /api/reports/{id}", s.handleReportDelete)

	mux.HandleFunc("GET /api/config", s.handleConfigGet)
	mux.HandleFunc("PUT /api/config/models", s.handleConfigModels)
	mux.HandleFunc("PUT /api/config/interview", s.handleConfigInterview)

	mux.HandleFunc("GET /api/secrets", s.handleSecretsList)
	mux.HandleFunc("POST /api/secrets", s.handleSecretsSet)
	mux.HandleFunc("DELETE /api/secrets/{name}", s.handleSecretsDelete)

	if s.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
}

// handleHealth implements GET /api/healthz.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}

// handleLogs implements GET /api/logs?component=&since=.
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var since time.Time
	if sinceStr := query.Get("since"); sinceStr != "" {
		var err error
		since, err = time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			http.Error(w, "Invalid since parameter (use RFC3339)", http.StatusBadRequest)
			return
		}
	}

	logs := logx.GetRecentLogEntries(query.Get("component"), since)
	if len(logs) > 1000 {
		logs = logs[len(logs)-1000:]
	}
	s.writeJSON(w, http.StatusOK, logs)
}

// StartServer serves the API on host:port until ctx is cancelled.
func (s *Server) StartServer(ctx context.Context, host string, port int) error {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)

	addr := fmt.Sprintf("%s:%d", host, port)
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("🌐 Starting web UI server on http://%s", addr)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Server error: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		s.logger.Info("Shutting down web UI server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		//nolint:contextcheck // Parent context is cancelled; we need a fresh context for shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("HTTP server shutdown failed: %v", err)
		}
	}()

	return nil
}

// errorResponse is the body of every failed API call.
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Stage string `json:"stage,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response: %v", err)
	}
}

// writeError maps workflow errors to HTTP statuses. Other errors are 500s.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var wfErr *workflow.Error
	if !errors.As(err, &wfErr) {
		s.logger.Error("Request failed: %v", err)
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	status := http.StatusInternalServerError
	switch wfErr.Kind {
	case workflow.KindValidation:
		status = http.StatusBadRequest
	case workflow.KindParse:
		status = http.StatusUnprocessableEntity
	case workflow.KindIllegal:
		status = http.StatusConflict
	case workflow.KindBusy:
		status = http.StatusLocked
	case workflow.KindSchema, workflow.KindTransport:
		status = http.StatusBadGateway
	}
	s.writeJSON(w, status, errorResponse{
		Error: err.Error(),
		Kind:  wfErr.Kind.String(),
		Stage: string(wfErr.Stage),
	})
}
