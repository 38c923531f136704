package webui

import (
	"errors"
	"net/http"
	"strconv"

	"talentscout/pkg/persistence"
)

const defaultReportLimit = 50

func (s *Server) requireArchive(w http.ResponseWriter) bool {
	if s.reports == nil {
		s.writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "report archive is disabled"})
		return false
	}
	return true
}

// handleReportList implements GET /api/reports?limit=N, newest first.
func (s *Server) handleReportList(w http.ResponseWriter, r *http.Request) {
	if !s.requireArchive(w) {
		return
	}
	limit := defaultReportLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}

	summaries, err := s.reports.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if summaries == nil {
		summaries = []persistence.Summary{}
	}
	s.writeJSON(w, http.StatusOK, summaries)
}

// handleReportGet implements GET /api/reports/{id}.
func (s *Server) handleReportGet(w http.ResponseWriter, r *http.Request) {
	if !s.requireArchive(w) {
		return
	}
	entry, err := s.reports.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, persistence.ErrNotFound) {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, entry)
}

// handleReportDelete implements DELETE /api/reports/{id}.
func (s *Server) handleReportDelete(w http.ResponseWriter, r *http.Request) {
	if !s.requireArchive(w) {
		return
	}
	err := s.reports.Delete(r.Context(), r.PathValue("id"))
	if errors.Is(err, persistence.ErrNotFound) {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
