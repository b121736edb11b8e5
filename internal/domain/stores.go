package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type WorkspaceStore interface {
	Create(ctx context.Context, w *Workspace) error
	GetByID(ctx context.Context, id uuid.UUID) (*Workspace, error)
	Update(ctx context.Context, w *Workspace) error
	// UpdateDomainConfig persists only the custom-domain fields.
	UpdateDomainConfig(ctx context.Context, id uuid.UUID, cfg DomainConfig) error
	// FindByDomain returns the workspace currently holding the given custom
	// domain, or store.ErrNotFound.
	FindByDomain(ctx context.Context, domain string) (*Workspace, error)
}

type SiteStore interface {
	Create(ctx context.Context, s *Site) error
	GetByID(ctx context.Context, id uuid.UUID, workspaceID uuid.UUID) (*Site, error)
	// ListActive returns all non-deleted sites of a workspace.
	ListActive(ctx context.Context, workspaceID uuid.UUID) ([]Site, error)
	Update(ctx context.Context, s *Site) error
	SoftDelete(ctx context.Context, id uuid.UUID, workspaceID uuid.UUID) error
	// UpdateDomain rewrites a single site's serving domain.
	UpdateDomain(ctx context.Context, id uuid.UUID, domain string) error
}

type MemberStore interface {
	Create(ctx context.Context, m *Member) error
	GetByAPIKeyHash(ctx context.Context, apiKeyHash string) (*Member, error)
	ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]Member, error)
}

// DomainClaimStore reserves a candidate host for a workspace while the
// provisioning flow runs, narrowing the check-then-write uniqueness race.
type DomainClaimStore interface {
	// Claim reserves domain for workspaceID for ttl. Returns
	// store.ErrConflict when another workspace holds a live claim.
	// Re-claiming one's own domain refreshes the expiry.
	Claim(ctx context.Context, domain string, workspaceID uuid.UUID, ttl time.Duration) error
	// Release drops the claim if held by workspaceID.
	Release(ctx context.Context, domain string, workspaceID uuid.UUID) error
}
