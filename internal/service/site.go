package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ottiehq/ottie-server/internal/domain"
	"github.com/ottiehq/ottie-server/internal/store"
)

// SiteService is thin CRUD over a workspace's sites. New sites serve from
// the workspace's verified custom domain when one exists, otherwise from
// their platform default host.
type SiteService struct {
	sites        domain.SiteStore
	workspaces   domain.WorkspaceStore
	platformHost string
	logger       *zap.Logger
}

func NewSiteService(sites domain.SiteStore, workspaces domain.WorkspaceStore, platformHost string, logger *zap.Logger) *SiteService {
	return &SiteService{
		sites:        sites,
		workspaces:   workspaces,
		platformHost: platformHost,
		logger:       logger,
	}
}

func (s *SiteService) Create(ctx context.Context, workspaceID uuid.UUID, name, slug string) (*domain.Site, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrSiteNameEmpty
	}
	if !slugRe.MatchString(slug) {
		return nil, ErrSiteSlugInvalid
	}

	ws, err := s.workspaces.GetByID(ctx, workspaceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrWorkspaceNotFound
		}
		return nil, err
	}

	serving := slug + "." + s.platformHost
	if ws.DomainConfig.Verified && ws.DomainConfig.Domain != nil {
		serving = *ws.DomainConfig.Domain
	}

	site := &domain.Site{
		WorkspaceID: workspaceID,
		Name:        name,
		Slug:        slug,
		Domain:      serving,
	}
	if err := s.sites.Create(ctx, site); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrSlugTaken
		}
		return nil, err
	}
	return site, nil
}

func (s *SiteService) List(ctx context.Context, workspaceID uuid.UUID) ([]domain.Site, error) {
	return s.sites.ListActive(ctx, workspaceID)
}

func (s *SiteService) Get(ctx context.Context, id uuid.UUID, workspaceID uuid.UUID) (*domain.Site, error) {
	site, err := s.sites.GetByID(ctx, id, workspaceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSiteNotFound
		}
		return nil, err
	}
	return site, nil
}

// SitePatch carries the updatable site fields. The slug is fixed at
// creation so published URLs never move silently.
type SitePatch struct {
	Name      *string `json:"name"`
	Published *bool   `json:"published"`
}

func (s *SiteService) Update(ctx context.Context, id uuid.UUID, workspaceID uuid.UUID, patch SitePatch) (*domain.Site, error) {
	site, err := s.Get(ctx, id, workspaceID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, ErrSiteNameEmpty
		}
		site.Name = name
	}
	if patch.Published != nil {
		site.Published = *patch.Published
	}

	if err := s.sites.Update(ctx, site); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSiteNotFound
		}
		return nil, err
	}
	return site, nil
}

func (s *SiteService) Delete(ctx context.Context, id uuid.UUID, workspaceID uuid.UUID, role domain.Role) error {
	if !role.CanManageDomain() {
		return ErrForbidden
	}
	if err := s.sites.SoftDelete(ctx, id, workspaceID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrSiteNotFound
		}
		return err
	}
	return nil
}
