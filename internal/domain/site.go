package domain

import (
	"time"

	"github.com/google/uuid"
)

// Site is one published site belonging to a workspace. Its Domain field
// mirrors the workspace's active custom domain, or the platform default
// host when none is verified.
type Site struct {
	ID          uuid.UUID  `json:"id"`
	WorkspaceID uuid.UUID  `json:"workspace_id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Domain      string     `json:"domain"`
	Published   bool       `json:"published"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
