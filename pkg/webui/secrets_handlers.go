package webui

import (
	"encoding/json"
	"net/http"
	"strings"

	"talentscout/pkg/config"
)

// SecretEntry represents a secret for the API response (name only, no value).
type SecretEntry struct {
	Name string `json:"name"`
}

type secretResponse struct {
	Name    string `json:"name"`
	Success bool   `json:"success"`
}

// handleSecretsList implements GET /api/secrets.
// Returns secret names only, sorted.
func (s *Server) handleSecretsList(w http.ResponseWriter, _ *http.Request) {
	names := config.GetDecryptedSecretNames()
	entries := make([]SecretEntry, 0, len(names))
	for _, name := range names {
		entries = append(entries, SecretEntry{Name: name})
	}
	s.writeJSON(w, http.StatusOK, entries)
	s.logger.Debug("Served secrets list: %d secrets", len(entries))
}

// handleSecretsSet implements POST /api/secrets.
// The secret is kept in memory and, when a project password is known, saved encrypted.
func (s *Server) handleSecretsSet(w http.ResponseWriter, r *http.Request) {
	var reqBody struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if reqBody.Name == "" {
		http.Error(w, "Secret name is required", http.StatusBadRequest)
		return
	}
	if reqBody.Value == "" {
		http.Error(w, "Secret value is required", http.StatusBadRequest)
		return
	}
	if sanitizeSecretName(reqBody.Name) != reqBody.Name {
		http.Error(w, "Secret name must contain only alphanumeric characters and underscores", http.StatusBadRequest)
		return
	}

	if err := config.SetSecret(reqBody.Name, reqBody.Value); err != nil {
		s.logger.Error("Failed to set secret: %v", err)
		http.Error(w, "Failed to set secret", http.StatusInternalServerError)
		return
	}
	s.persistSecrets()

	s.writeJSON(w, http.StatusOK, secretResponse{Success: true, Name: reqBody.Name})
	s.logger.Info("🔑 Secret %q set", reqBody.Name)
}

// handleSecretsDelete implements DELETE /api/secrets/{name}.
func (s *Server) handleSecretsDelete(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := config.DeleteSecret(name); err != nil {
		s.logger.Error("Failed to delete secret: %v", err)
		http.Error(w, "Failed to delete secret", http.StatusInternalServerError)
		return
	}
	s.persistSecrets()

	s.writeJSON(w, http.StatusOK, secretResponse{Success: true, Name: name})
	s.logger.Info("🔑 Secret %q deleted", name)
}

// persistSecrets writes the in-memory secrets to disk. Failures only log: the change
// is still live in memory.
func (s *Server) persistSecrets() {
	password := config.GetProjectPassword()
	if password == "" {
		s.logger.Warn("No project password set - secrets kept in memory only")
		return
	}
	if err := config.SaveSecretsToFile(s.workDir, password); err != nil {
		s.logger.Error("Failed to persist secrets to file: %v", err)
	}
}

// sanitizeSecretName ensures secret name contains only valid characters.
func sanitizeSecretName(name string) string {
	var result strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			result.WriteRune(r)
		}
	}
	return result.String()
}
