package httphandler_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/repoconfig/internal/adapter/driven/jsonfile"
	httphandler "github.com/ericfisherdev/repoconfig/internal/adapter/driving/http"
	"github.com/ericfisherdev/repoconfig/internal/application"
	"github.com/ericfisherdev/repoconfig/internal/domain/model"
	"github.com/ericfisherdev/repoconfig/internal/domain/port/driven"
)

// --- Mock implementations ---

type mockRepositoryStore struct {
	repos     []model.Repository
	listErr   error
	getErr    error
	updateErr error

	updateCalls int
}

func (m *mockRepositoryStore) List(_ context.Context) ([]model.Repository, error) {
	return m.repos, m.listErr
}

func (m *mockRepositoryStore) Get(_ context.Context, id int64) (model.Repository, error) {
	if m.getErr != nil {
		return model.Repository{}, m.getErr
	}
	for _, r := range m.repos {
		if r.ID == id {
			return r, nil
		}
	}
	return model.Repository{}, fmt.Errorf("get repository %d: %w", id, driven.ErrRepositoryNotFound)
}

func (m *mockRepositoryStore) UpdateConfig(_ context.Context, id int64, cfg model.RepositoryConfig) (model.Repository, error) {
	m.updateCalls++
	if m.updateErr != nil {
		return model.Repository{}, m.updateErr
	}
	for i := range m.repos {
		if m.repos[i].ID == id {
			m.repos[i].Config = cfg
			return m.repos[i], nil
		}
	}
	return model.Repository{}, fmt.Errorf("update repository %d: %w", id, driven.ErrRepositoryNotFound)
}

// --- Test helpers ---

var devOrigins = []string{"http://localhost:5173", "http://localhost:5174"}

func setupMux(store driven.RepositoryStore) http.Handler {
	svc := application.NewRepositoryService(store, slog.Default())
	h := httphandler.NewHandler(svc, slog.Default())
	mux := http.NewServeMux()
	httphandler.RegisterAPIRoutes(mux, h)
	return httphandler.ApplyMiddleware(mux, slog.Default(), devOrigins)
}

func sampleRepos() []model.Repository {
	return []model.Repository{
		{
			ID: 1, Name: "payment-gateway", Description: "Payments", Language: "Go", Stars: 12,
			Config: model.RepositoryConfig{
				GeminiAPIKey: "g1", ClaudeAPIKey: "c1", GitHubToken: "t1",
				ChecklistPath: "docs/checklist.md", MaxReviewComment: 20,
				ReviewLevel: model.ReviewLevelLow, Mode: "default", AutoTrigger: false,
			},
		},
		{
			ID: 2, Name: "mobile-app", Description: "Mobile", Language: "Kotlin", Stars: 3,
			Config: model.RepositoryConfig{
				GeminiAPIKey: "g2", ClaudeAPIKey: "c2", GitHubToken: "t2",
				ReviewLevel: model.ReviewLevelNitpick,
			},
		},
	}
}

const criticalBody = `{"config":{
	"geminiApiKey":"g-new","claudeApiKey":"c-new","githubToken":"t-new",
	"checklistPath":"review.md","maxReviewComment":30,
	"reviewLevel":"CRITICAL","mode":"strict","autoTrigger":true}}`

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	err := json.NewDecoder(rec.Body).Decode(v)
	require.NoError(t, err)
}

func doRequest(handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// --- Tests ---

func TestListRepositories(t *testing.T) {
	tests := []struct {
		name       string
		store      *mockRepositoryStore
		wantStatus int
		wantIDs    []float64
	}{
		{
			name:       "empty list",
			store:      &mockRepositoryStore{repos: nil},
			wantStatus: http.StatusOK,
			wantIDs:    []float64{},
		},
		{
			name:       "seed order preserved",
			store:      &mockRepositoryStore{repos: sampleRepos()},
			wantStatus: http.StatusOK,
			wantIDs:    []float64{1, 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(setupMux(tt.store), http.MethodGet, "/api/repositories", "")

			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp []map[string]any
			decodeJSON(t, rec, &resp)
			require.NotNil(t, resp)

			ids := make([]float64, 0, len(resp))
			for _, r := range resp {
				ids = append(ids, r["id"].(float64))
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestListRepositories_Shape(t *testing.T) {
	rec := doRequest(setupMux(&mockRepositoryStore{repos: sampleRepos()}), http.MethodGet, "/api/repositories", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []map[string]any
	decodeJSON(t, rec, &resp)
	require.Len(t, resp, 2)

	first := resp[0]
	assert.Equal(t, "payment-gateway", first["name"])
	assert.Equal(t, "Payments", first["description"])
	assert.Equal(t, "Go", first["language"])
	assert.Equal(t, float64(12), first["stars"])

	cfg := first["config"].(map[string]any)
	assert.Equal(t, "g1", cfg["geminiApiKey"])
	assert.Equal(t, "c1", cfg["claudeApiKey"])
	assert.Equal(t, "t1", cfg["githubToken"])
	assert.Equal(t, "docs/checklist.md", cfg["checklistPath"])
	assert.Equal(t, float64(20), cfg["maxReviewComment"])
	assert.Equal(t, "LOW", cfg["reviewLevel"])
	assert.Equal(t, "default", cfg["mode"])
	assert.Equal(t, false, cfg["autoTrigger"])
}

func TestListRepositories_StoreError(t *testing.T) {
	store := &mockRepositoryStore{listErr: errors.New("boom")}
	rec := doRequest(setupMux(store), http.MethodGet, "/api/repositories", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var resp map[string]string
	decodeJSON(t, rec, &resp)
	assert.Equal(t, "internal server error", resp["error"])
}

func TestGetRepository(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantError  string
	}{
		{name: "found", path: "/api/repositories/2", wantStatus: http.StatusOK},
		{name: "not found", path: "/api/repositories/9999", wantStatus: http.StatusNotFound, wantError: "Repository with ID 9999 not found"},
		{name: "non-numeric id", path: "/api/repositories/abc", wantStatus: http.StatusBadRequest, wantError: "invalid repository ID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(setupMux(&mockRepositoryStore{repos: sampleRepos()}), http.MethodGet, tt.path, "")
			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp map[string]any
			decodeJSON(t, rec, &resp)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, resp["error"])
				return
			}
			assert.Equal(t, float64(2), resp["id"])
			assert.Equal(t, "mobile-app", resp["name"])
		})
	}
}

func TestUpdateRepositoryConfig(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		body        string
		store       *mockRepositoryStore
		wantStatus  int
		wantError   string
		wantDetails []string
		wantCalls   int
	}{
		{
			name:       "success",
			path:       "/api/repositories/1",
			body:       criticalBody,
			store:      &mockRepositoryStore{repos: sampleRepos()},
			wantStatus: http.StatusOK,
			wantCalls:  1,
		},
		{
			name:       "unknown id",
			path:       "/api/repositories/9999",
			body:       criticalBody,
			store:      &mockRepositoryStore{repos: sampleRepos()},
			wantStatus: http.StatusNotFound,
			wantError:  "Repository with ID 9999 not found",
			wantCalls:  1,
		},
		{
			name:       "non-numeric id",
			path:       "/api/repositories/one",
			body:       criticalBody,
			store:      &mockRepositoryStore{repos: sampleRepos()},
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid repository ID",
		},
		{
			name:       "malformed json",
			path:       "/api/repositories/1",
			body:       `{"config":`,
			store:      &mockRepositoryStore{repos: sampleRepos()},
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid request body",
		},
		{
			name:       "wrong field type",
			path:       "/api/repositories/1",
			body:       `{"config":{"maxReviewComment":"ten"}}`,
			store:      &mockRepositoryStore{repos: sampleRepos()},
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid request body",
		},
		{
			name:       "missing config",
			path:       "/api/repositories/1",
			body:       `{"reviewLevel":"LOW"}`,
			store:      &mockRepositoryStore{repos: sampleRepos()},
			wantStatus: http.StatusBadRequest,
			wantError:  "config is required",
		},
		{
			name: "invalid config",
			path: "/api/repositories/1",
			body: `{"config":{"geminiApiKey":"g","claudeApiKey":"c","githubToken":"",
				"maxReviewComment":99,"reviewLevel":"HIGH"}}`,
			store:      &mockRepositoryStore{repos: sampleRepos()},
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid repository config",
			wantDetails: []string{
				"githubToken is required",
				"maxReviewComment must be between 1 and 50, got 99",
				`reviewLevel must be one of CRITICAL, MEDIUM, LOW, NITPICK, got "HIGH"`,
			},
		},
		{
			name:       "persist failure",
			path:       "/api/repositories/1",
			body:       criticalBody,
			store:      &mockRepositoryStore{repos: sampleRepos(), updateErr: errors.New("read-only file system")},
			wantStatus: http.StatusInternalServerError,
			wantError:  "internal server error",
			wantCalls:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(setupMux(tt.store), http.MethodPatch, tt.path, tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCalls, tt.store.updateCalls)

			if tt.wantError != "" {
				var resp struct {
					Error   string   `json:"error"`
					Details []string `json:"details"`
				}
				decodeJSON(t, rec, &resp)
				assert.Equal(t, tt.wantError, resp.Error)
				assert.Equal(t, tt.wantDetails, resp.Details)
				return
			}

			var resp httphandler.RepositoryResponse
			decodeJSON(t, rec, &resp)
			assert.Equal(t, int64(1), resp.ID)
			assert.Equal(t, "payment-gateway", resp.Name)
			assert.Equal(t, "CRITICAL", resp.Config.ReviewLevel)
			assert.True(t, resp.Config.AutoTrigger)
			assert.Equal(t, 30, resp.Config.MaxReviewComment)
		})
	}
}

func TestUnsupportedMethod(t *testing.T) {
	rec := doRequest(setupMux(&mockRepositoryStore{}), http.MethodDelete, "/api/repositories/1", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealth(t *testing.T) {
	rec := doRequest(setupMux(&mockRepositoryStore{}), http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp httphandler.HealthResponse
	decodeJSON(t, rec, &resp)
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.Time)
}

func TestCORS(t *testing.T) {
	handler := setupMux(&mockRepositoryStore{repos: sampleRepos()})

	t.Run("preflight from dev origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/repositories/1", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
		req.Header.Set("Access-Control-Request-Headers", "content-type")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("simple request from dev origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/repositories", nil)
		req.Header.Set("Origin", "http://localhost:5174")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "http://localhost:5174", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("foreign origin gets no CORS headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/repositories", nil)
		req.Header.Set("Origin", "http://evil.example")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

// TestUpdateRepositoryConfig_JSONFileStore runs the list → patch → list flow
// against the real file-backed store.
func TestUpdateRepositoryConfig_JSONFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repositories.json")
	seed, err := jsonfile.EncodeDocument(sampleRepos())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, seed, 0o644))

	store, err := jsonfile.Open(path)
	require.NoError(t, err)
	handler := setupMux(store)

	rec := doRequest(handler, http.MethodPatch, "/api/repositories/1", criticalBody)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(handler, http.MethodGet, "/api/repositories", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []httphandler.RepositoryResponse
	decodeJSON(t, rec, &listed)
	require.Len(t, listed, 2)
	assert.Equal(t, "CRITICAL", listed[0].Config.ReviewLevel)
	assert.Equal(t, "strict", listed[0].Config.Mode)

	onDisk, err := jsonfile.ReadDocument(path)
	require.NoError(t, err)
	assert.Equal(t, model.ReviewLevelCritical, onDisk[0].Config.ReviewLevel)
	assert.True(t, onDisk[0].Config.AutoTrigger)

	before, err := os.ReadFile(path)
	require.NoError(t, err)
	rec = doRequest(handler, http.MethodPatch, "/api/repositories/9999", criticalBody)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}
