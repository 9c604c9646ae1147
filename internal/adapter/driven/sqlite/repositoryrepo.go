package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ericfisherdev/repoconfig/internal/domain/model"
	"github.com/ericfisherdev/repoconfig/internal/domain/port/driven"
	"github.com/ericfisherdev/repoconfig/internal/metrics"
)

const backendName = "sqlite"

// Compile-time interface satisfaction check.
var _ driven.RepositoryStore = (*RepositoryRepo)(nil)

// RepositoryRepo is the SQLite implementation of the RepositoryStore port.
// Seed order is kept in the position column.
type RepositoryRepo struct {
	db *DB
}

// NewRepositoryRepo creates a new RepositoryRepo backed by the given DB.
func NewRepositoryRepo(db *DB) *RepositoryRepo {
	return &RepositoryRepo{db: db}
}

const selectColumns = `
	id, name, description, language, stars,
	gemini_api_key, claude_api_key, github_token, checklist_path,
	max_review_comment, review_level, mode, auto_trigger
`

// Seed inserts repos in order when the table is empty and returns the number
// of rows inserted. A non-empty table is left untouched and 0 is returned.
func (r *RepositoryRepo) Seed(ctx context.Context, repos []model.Repository) (int, error) {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin seed: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM repositories`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count repositories: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	const query = `
		INSERT INTO repositories (
			id, position, name, description, language, stars,
			gemini_api_key, claude_api_key, github_token, checklist_path,
			max_review_comment, review_level, mode, auto_trigger
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	for i, repo := range repos {
		c := repo.Config
		_, err := tx.ExecContext(ctx, query,
			repo.ID, i, repo.Name, repo.Description, repo.Language, repo.Stars,
			c.GeminiAPIKey, c.ClaudeAPIKey, c.GitHubToken, c.ChecklistPath,
			c.MaxReviewComment, string(c.ReviewLevel), c.Mode, c.AutoTrigger,
		)
		if err != nil {
			return 0, fmt.Errorf("seed repository %d: %w", repo.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit seed: %w", err)
	}

	return len(repos), nil
}

// List returns all repositories in seed order.
func (r *RepositoryRepo) List(ctx context.Context) ([]model.Repository, error) {
	query := `SELECT ` + selectColumns + ` FROM repositories ORDER BY position`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list repositories: %w", err)
	}
	defer rows.Close()

	repos := []model.Repository{}
	for rows.Next() {
		repo, err := scanRepository(rows)
		if err != nil {
			return nil, fmt.Errorf("scan repository: %w", err)
		}
		repos = append(repos, repo)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate repositories: %w", err)
	}

	return repos, nil
}

// Get retrieves a repository by ID.
func (r *RepositoryRepo) Get(ctx context.Context, id int64) (model.Repository, error) {
	query := `SELECT ` + selectColumns + ` FROM repositories WHERE id = ?`

	repo, err := scanRepository(r.db.Reader.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Repository{}, fmt.Errorf("get repository %d: %w", id, driven.ErrRepositoryNotFound)
	}
	if err != nil {
		return model.Repository{}, fmt.Errorf("get repository %d: %w", id, err)
	}

	return repo, nil
}

// UpdateConfig replaces every config column of repository id and returns the
// updated row. Update and read-back share one transaction on the writer.
func (r *RepositoryRepo) UpdateConfig(ctx context.Context, id int64, cfg model.RepositoryConfig) (model.Repository, error) {
	repo, err := r.updateConfig(ctx, id, cfg)
	switch {
	case errors.Is(err, driven.ErrRepositoryNotFound):
		// Nothing was written.
	case err != nil:
		metrics.IncStoreWrite(backendName, metrics.ResultError)
	default:
		metrics.IncStoreWrite(backendName, metrics.ResultOK)
	}
	return repo, err
}

func (r *RepositoryRepo) updateConfig(ctx context.Context, id int64, cfg model.RepositoryConfig) (model.Repository, error) {
	const update = `
		UPDATE repositories SET
			gemini_api_key = ?,
			claude_api_key = ?,
			github_token = ?,
			checklist_path = ?,
			max_review_comment = ?,
			review_level = ?,
			mode = ?,
			auto_trigger = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return model.Repository{}, fmt.Errorf("begin update repository %d: %w", id, err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, update,
		cfg.GeminiAPIKey, cfg.ClaudeAPIKey, cfg.GitHubToken, cfg.ChecklistPath,
		cfg.MaxReviewComment, string(cfg.ReviewLevel), cfg.Mode, cfg.AutoTrigger,
		id,
	)
	if err != nil {
		return model.Repository{}, fmt.Errorf("update repository %d: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return model.Repository{}, fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return model.Repository{}, fmt.Errorf("update repository %d: %w", id, driven.ErrRepositoryNotFound)
	}

	query := `SELECT ` + selectColumns + ` FROM repositories WHERE id = ?`
	repo, err := scanRepository(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		return model.Repository{}, fmt.Errorf("read back repository %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return model.Repository{}, fmt.Errorf("commit update repository %d: %w", id, err)
	}

	return repo, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRepository(s scanner) (model.Repository, error) {
	var repo model.Repository
	var level string
	c := &repo.Config

	err := s.Scan(
		&repo.ID, &repo.Name, &repo.Description, &repo.Language, &repo.Stars,
		&c.GeminiAPIKey, &c.ClaudeAPIKey, &c.GitHubToken, &c.ChecklistPath,
		&c.MaxReviewComment, &level, &c.Mode, &c.AutoTrigger,
	)
	if err != nil {
		return model.Repository{}, err
	}
	c.ReviewLevel = model.ReviewLevel(level)

	return repo, nil
}
