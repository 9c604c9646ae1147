package model

// Repository is a tracked code-hosting project with its review-automation
// settings attached. ID is assigned by the seed document and never changes.
type Repository struct {
	ID          int64            `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Language    string           `json:"language"`
	Stars       int              `json:"stars"`
	Config      RepositoryConfig `json:"config"`
}
