package webui

import (
	"encoding/json"
	"net/http"

	"talentscout/pkg/config"
)

// configResponse is the editable part of the project config.
type configResponse struct {
	Models          *config.ModelsConfig    `json:"models"`
	Interview       *config.InterviewConfig `json:"interview"`
	RestartRequired bool                    `json:"restart_required,omitempty"`
}

// handleConfigGet implements GET /api/config.
func (s *Server) handleConfigGet(w http.ResponseWriter, _ *http.Request) {
	cfg, err := config.GetConfig()
	if err != nil {
		s.writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, configResponse{Models: cfg.Models, Interview: cfg.Interview})
}

// handleConfigModels implements PUT /api/config/models.
// Running sessions keep their clients; the new models apply from the next start.
func (s *Server) handleConfigModels(w http.ResponseWriter, r *http.Request) {
	var models config.ModelsConfig
	if !s.decodeConfig(w, r, &models) {
		return
	}
	if err := config.UpdateModels(&models); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	s.logger.Info("⚙️  Models updated: interview=%s vision=%s report=%s", models.Interview, models.Vision, models.Report)
	s.writeUpdatedConfig(w)
}

// handleConfigInterview implements PUT /api/config/interview.
func (s *Server) handleConfigInterview(w http.ResponseWriter, r *http.Request) {
	var interview config.InterviewConfig
	if !s.decodeConfig(w, r, &interview) {
		return
	}
	if err := config.UpdateInterview(&interview); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	s.logger.Info("⚙️  Interview settings updated: %d questions", interview.QuestionCount())
	s.writeUpdatedConfig(w)
}

func (s *Server) decodeConfig(w http.ResponseWriter, r *http.Request, v any) bool {
	if _, err := config.GetConfig(); err != nil {
		s.writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON: " + err.Error()})
		return false
	}
	return true
}

func (s *Server) writeUpdatedConfig(w http.ResponseWriter) {
	cfg, err := config.GetConfig()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, configResponse{Models: cfg.Models, Interview: cfg.Interview, RestartRequired: true})
}
