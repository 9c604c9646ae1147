// Package httphandler is the REST API driving adapter for repository configs.
package httphandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ericfisherdev/repoconfig/internal/application"
	"github.com/ericfisherdev/repoconfig/internal/domain/model"
	"github.com/ericfisherdev/repoconfig/internal/domain/port/driven"
)

// APIPrefix is the path prefix shared by every REST endpoint.
const APIPrefix = "/api"

// maxBodyBytes caps the size of a PATCH body.
const maxBodyBytes = 1 << 20

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	repoSvc *application.RepositoryService
	logger  *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(repoSvc *application.RepositoryService, logger *slog.Logger) *Handler {
	return &Handler{
		repoSvc: repoSvc,
		logger:  logger,
	}
}

// RegisterAPIRoutes registers all REST endpoints on mux under APIPrefix.
func RegisterAPIRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET "+APIPrefix+"/repositories", h.ListRepositories)
	mux.HandleFunc("GET "+APIPrefix+"/repositories/{id}", h.GetRepository)
	mux.HandleFunc("PATCH "+APIPrefix+"/repositories/{id}", h.UpdateRepositoryConfig)
	mux.HandleFunc("GET "+APIPrefix+"/health", h.Health)
}

// ListRepositories returns every repository in seed order.
func (h *Handler) ListRepositories(w http.ResponseWriter, r *http.Request) {
	repos, err := h.repoSvc.ListRepositories(r.Context())
	if err != nil {
		h.logger.Error("failed to list repositories", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]RepositoryResponse, 0, len(repos))
	for _, repo := range repos {
		resp = append(resp, toRepositoryResponse(repo))
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetRepository returns a single repository by ID.
func (h *Handler) GetRepository(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	repo, err := h.repoSvc.GetRepository(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, "failed to get repository", id, err)
		return
	}

	writeJSON(w, http.StatusOK, toRepositoryResponse(repo))
}

// UpdateRepositoryConfig replaces the config of a repository with the one in
// the request body and returns the updated repository.
func (h *Handler) UpdateRepositoryConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req UpdateConfigRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Config == nil {
		writeError(w, http.StatusBadRequest, "config is required")
		return
	}

	repo, err := h.repoSvc.UpdateRepositoryConfig(r.Context(), id, req.Config.toModel())
	if err != nil {
		var vErr *model.ValidationError
		if errors.As(err, &vErr) {
			writeJSON(w, http.StatusBadRequest, errorResponse{
				Error:   "invalid repository config",
				Details: vErr.Problems,
			})
			return
		}
		h.writeStoreError(w, "failed to update repository config", id, err)
		return
	}

	writeJSON(w, http.StatusOK, toRepositoryResponse(repo))
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// writeStoreError maps a store error to 404 for unknown IDs and 500 otherwise.
func (h *Handler) writeStoreError(w http.ResponseWriter, msg string, id int64, err error) {
	if errors.Is(err, driven.ErrRepositoryNotFound) {
		writeError(w, http.StatusNotFound, notFoundMessage(id))
		return
	}

	h.logger.Error(msg, "repository_id", id, "error", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// parseID reads the {id} path value. On failure it writes a 400 and returns false.
func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid repository ID")
		return 0, false
	}
	return id, true
}

func notFoundMessage(id int64) string {
	return fmt.Sprintf("Repository with ID %d not found", id)
}
