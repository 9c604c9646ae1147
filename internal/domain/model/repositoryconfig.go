package model

import (
	"fmt"
	"log/slog"
	"strings"
)

// Bounds for RepositoryConfig.MaxReviewComment. Zero means "not set".
const (
	MinReviewComments = 1
	MaxReviewComments = 50
)

const redacted = "[REDACTED]"

// RepositoryConfig holds the settings for the automated code-review
// integration of one repository. It is replaced wholesale on update; fields
// left out by the caller are not merged from the previous value.
type RepositoryConfig struct {
	GeminiAPIKey     string      `json:"geminiApiKey"`
	ClaudeAPIKey     string      `json:"claudeApiKey"`
	GitHubToken      string      `json:"githubToken"`
	ChecklistPath    string      `json:"checklistPath"`
	MaxReviewComment int         `json:"maxReviewComment"`
	ReviewLevel      ReviewLevel `json:"reviewLevel"`
	Mode             string      `json:"mode"`
	AutoTrigger      bool        `json:"autoTrigger"`
}

// ValidationError lists every problem found in a RepositoryConfig.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid repository config: " + strings.Join(e.Problems, "; ")
}

// Validate checks the config against the rules the edit form advertises:
// the three credentials are required, MaxReviewComment is unset or within
// [MinReviewComments, MaxReviewComments], and ReviewLevel is enumerated.
// Returns a *ValidationError, or nil when the config is acceptable.
func (c RepositoryConfig) Validate() error {
	var problems []string

	required := []struct {
		field string
		value string
	}{
		{"geminiApiKey", c.GeminiAPIKey},
		{"claudeApiKey", c.ClaudeAPIKey},
		{"githubToken", c.GitHubToken},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			problems = append(problems, r.field+" is required")
		}
	}

	if c.MaxReviewComment != 0 &&
		(c.MaxReviewComment < MinReviewComments || c.MaxReviewComment > MaxReviewComments) {
		problems = append(problems, fmt.Sprintf("maxReviewComment must be between %d and %d, got %d",
			MinReviewComments, MaxReviewComments, c.MaxReviewComment))
	}

	if !c.ReviewLevel.IsValid() {
		problems = append(problems, fmt.Sprintf("reviewLevel must be one of %s, got %q",
			joinLevels(), string(c.ReviewLevel)))
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// LogValue implements slog.LogValuer so credentials never reach the logs.
func (c RepositoryConfig) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("geminiApiKey", redact(c.GeminiAPIKey)),
		slog.String("claudeApiKey", redact(c.ClaudeAPIKey)),
		slog.String("githubToken", redact(c.GitHubToken)),
		slog.String("checklistPath", c.ChecklistPath),
		slog.Int("maxReviewComment", c.MaxReviewComment),
		slog.String("reviewLevel", string(c.ReviewLevel)),
		slog.String("mode", c.Mode),
		slog.Bool("autoTrigger", c.AutoTrigger),
	)
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	return redacted
}

func joinLevels() string {
	names := make([]string, 0, len(ReviewLevels))
	for _, l := range ReviewLevels {
		names = append(names, string(l))
	}
	return strings.Join(names, ", ")
}
