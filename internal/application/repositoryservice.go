package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ericfisherdev/repoconfig/internal/domain/model"
	"github.com/ericfisherdev/repoconfig/internal/domain/port/driven"
	"github.com/ericfisherdev/repoconfig/internal/metrics"
)

// RepositoryService is the use-case layer between the HTTP API and the
// RepositoryStore port. It validates configs before they reach the store,
// which persists whatever it is given.
type RepositoryService struct {
	store  driven.RepositoryStore
	logger *slog.Logger
}

// NewRepositoryService creates a RepositoryService with the required dependencies.
func NewRepositoryService(store driven.RepositoryStore, logger *slog.Logger) *RepositoryService {
	return &RepositoryService{
		store:  store,
		logger: logger,
	}
}

// ListRepositories returns every repository in seed order.
func (s *RepositoryService) ListRepositories(ctx context.Context) ([]model.Repository, error) {
	return s.store.List(ctx)
}

// GetRepository returns the repository with the given ID, or an error
// wrapping driven.ErrRepositoryNotFound.
func (s *RepositoryService) GetRepository(ctx context.Context, id int64) (model.Repository, error) {
	return s.store.Get(ctx, id)
}

// UpdateRepositoryConfig validates cfg and replaces the config of repository
// id with it. A *model.ValidationError is returned without touching the store.
func (s *RepositoryService) UpdateRepositoryConfig(ctx context.Context, id int64, cfg model.RepositoryConfig) (model.Repository, error) {
	if err := cfg.Validate(); err != nil {
		metrics.IncConfigUpdate(metrics.ResultInvalid)
		s.logger.Info("rejected repository config", "repository_id", id, "error", err)
		return model.Repository{}, err
	}

	repo, err := s.store.UpdateConfig(ctx, id, cfg)
	switch {
	case errors.Is(err, driven.ErrRepositoryNotFound):
		metrics.IncConfigUpdate(metrics.ResultNotFound)
		return model.Repository{}, err
	case err != nil:
		metrics.IncConfigUpdate(metrics.ResultError)
		return model.Repository{}, err
	}

	metrics.IncConfigUpdate(metrics.ResultOK)
	s.logger.Info("repository config updated", "repository_id", id, "config", cfg)

	return repo, nil
}
