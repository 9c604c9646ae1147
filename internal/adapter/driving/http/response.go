package httphandler

import (
	"encoding/json"
	"net/http"

	"github.com/ericfisherdev/repoconfig/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body. Details carries the
// individual problems of a rejected config.
type errorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// RepositoryConfigBody is the JSON representation of a repository config,
// used both in responses and in the update request.
type RepositoryConfigBody struct {
	GeminiAPIKey     string `json:"geminiApiKey"`
	ClaudeAPIKey     string `json:"claudeApiKey"`
	GitHubToken      string `json:"githubToken"`
	ChecklistPath    string `json:"checklistPath"`
	MaxReviewComment int    `json:"maxReviewComment"`
	ReviewLevel      string `json:"reviewLevel"`
	Mode             string `json:"mode"`
	AutoTrigger      bool   `json:"autoTrigger"`
}

// RepositoryResponse is the JSON representation of a repository.
type RepositoryResponse struct {
	ID          int64                `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Language    string               `json:"language"`
	Stars       int                  `json:"stars"`
	Config      RepositoryConfigBody `json:"config"`
}

// UpdateConfigRequest is the JSON body for the update config endpoint.
// Config is a pointer so a missing key can be told apart from an empty object.
type UpdateConfigRequest struct {
	Config *RepositoryConfigBody `json:"config"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// toRepositoryResponse converts a domain Repository to its JSON representation.
func toRepositoryResponse(repo model.Repository) RepositoryResponse {
	return RepositoryResponse{
		ID:          repo.ID,
		Name:        repo.Name,
		Description: repo.Description,
		Language:    repo.Language,
		Stars:       repo.Stars,
		Config:      toRepositoryConfigBody(repo.Config),
	}
}

func toRepositoryConfigBody(c model.RepositoryConfig) RepositoryConfigBody {
	return RepositoryConfigBody{
		GeminiAPIKey:     c.GeminiAPIKey,
		ClaudeAPIKey:     c.ClaudeAPIKey,
		GitHubToken:      c.GitHubToken,
		ChecklistPath:    c.ChecklistPath,
		MaxReviewComment: c.MaxReviewComment,
		ReviewLevel:      string(c.ReviewLevel),
		Mode:             c.Mode,
		AutoTrigger:      c.AutoTrigger,
	}
}

// toModel converts the request body into the domain config value.
func (b RepositoryConfigBody) toModel() model.RepositoryConfig {
	return model.RepositoryConfig{
		GeminiAPIKey:     b.GeminiAPIKey,
		ClaudeAPIKey:     b.ClaudeAPIKey,
		GitHubToken:      b.GitHubToken,
		ChecklistPath:    b.ChecklistPath,
		MaxReviewComment: b.MaxReviewComment,
		ReviewLevel:      model.ReviewLevel(b.ReviewLevel),
		Mode:             b.Mode,
		AutoTrigger:      b.AutoTrigger,
	}
}
