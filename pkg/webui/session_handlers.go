package webui

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"

	"talentscout/pkg/agent/llm"
	"talentscout/pkg/intake"
	"talentscout/pkg/session"
)

// maxUploadBytes caps resume and drawing uploads.
const maxUploadBytes = 10 << 20

type textRequest struct {
	Text string `json:"text"`
}

type overviewResponse struct {
	Overview string `json:"overview"`
}

// lookup resolves the {id} path value, writing a 404 when the session is unknown.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return nil, false
	}
	return sess, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUploadBytes)).Decode(v); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON: " + err.Error()})
		return false
	}
	return true
}

// handleSessionList implements GET /api/sessions.
func (s *Server) handleSessionList(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.sessions.List())
}

// handleSessionCreate implements POST /api/sessions.
func (s *Server) handleSessionCreate(w http.ResponseWriter, _ *http.Request) {
	sess := s.sessions.Create()
	s.writeJSON(w, http.StatusCreated, sess.Snapshot())
}

// handleSessionGet implements GET /api/sessions/{id}.
func (s *Server) handleSessionGet(w http.ResponseWriter, r *http.Request) {
	if sess, ok := s.lookup(w, r); ok {
		s.writeJSON(w, http.StatusOK, sess.Snapshot())
	}
}

// handleSessionDelete implements DELETE /api/sessions/{id}.
func (s *Server) handleSessionDelete(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.Delete(r.PathValue("id")) {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: session.ErrNotFound.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleResume implements POST /api/sessions/{id}/resume. The body is either JSON
// {"text": ...} or a PDF (application/pdf). The response is a draft profile.
func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var (
		profile *intake.Profile
		err     error
	)
	if mediaType(r) == "application/pdf" {
		data, readErr := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
		if readErr != nil {
			s.writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: readErr.Error()})
			return
		}
		profile, err = sess.AnalyzeResumePDF(r.Context(), data)
	} else {
		var req textRequest
		if !s.decode(w, r, &req) {
			return
		}
		profile, err = sess.AnalyzeResume(r.Context(), req.Text)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, profile)
}

// handleProfile implements POST /api/sessions/{id}/profile.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var p intake.Profile
	if !s.decode(w, r, &p) {
		return
	}
	overview, err := sess.SubmitProfile(r.Context(), p)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, overviewResponse{Overview: string(overview)})
}

// handleStart implements POST /api/sessions/{id}/start.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if err := sess.StartInterview(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sess.Snapshot())
}

// handleAnswer implements POST /api/sessions/{id}/answer.
func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req textRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := sess.SubmitAnswer(r.Context(), req.Text); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sess.Snapshot())
}

// handleDrawingSet implements PUT /api/sessions/{id}/drawing with the raw image as body.
func (s *Server) handleDrawingSet(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		s.writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: err.Error()})
		return
	}
	if len(data) == 0 {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "drawing is empty"})
		return
	}
	if err := sess.SetDrawing(r.Context(), llm.Image{MIMEType: mediaType(r), Data: data}); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sess.Snapshot())
}

// handleDrawingClear implements DELETE /api/sessions/{id}/drawing.
func (s *Server) handleDrawingClear(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if err := sess.SetDrawing(r.Context(), llm.Image{}); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sess.Snapshot())
}

// handleAdvance implements POST /api/sessions/{id}/advance.
func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if err := sess.ConfirmAdvance(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sess.Snapshot())
}

// handleReport implements POST /api/sessions/{id}/report.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	rep, err := sess.RequestReport(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rep)
}

// handleUsage implements GET /api/sessions/{id}/usage[?by=stage].
func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	if s.usage == nil {
		s.writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "metrics querying is not configured"})
		return
	}
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var (
		result any
		err    error
	)
	if r.URL.Query().Get("by") == "stage" {
		result, err = s.usage.GetSessionUsageByStage(r.Context(), sess.ID())
	} else {
		result, err = s.usage.GetSessionUsage(r.Context(), sess.ID())
	}
	if err != nil {
		s.logger.Warn("⚠️ Usage query failed for %s: %v", sess.ID(), err)
		s.writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func mediaType(r *http.Request) string {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(ct))
	}
	return mt
}

