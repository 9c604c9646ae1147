package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/repoconfig/internal/domain/model"
)

// ErrRepositoryNotFound indicates no repository has the requested ID.
var ErrRepositoryNotFound = errors.New("repository not found")

// RepositoryStore defines the driven port for repository persistence. The
// store is the sole writer of the persisted collection.
//
// Get and UpdateConfig return ErrRepositoryNotFound (wrapped) when the ID is
// unknown; UpdateConfig performs no write in that case. UpdateConfig replaces
// the whole config and persists the full collection before returning; if the
// persist step fails the store keeps its previous state.
type RepositoryStore interface {
	List(ctx context.Context) ([]model.Repository, error)
	Get(ctx context.Context, id int64) (model.Repository, error)
	UpdateConfig(ctx context.Context, id int64, cfg model.RepositoryConfig) (model.Repository, error)
}
