package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ottiehq/ottie-server/internal/domain"
	"github.com/ottiehq/ottie-server/internal/store"
)

// DetachDomain removes the workspace's custom domain on behalf of an
// owner or admin.
func (s *DomainService) DetachDomain(ctx context.Context, workspaceID uuid.UUID, role domain.Role) error {
	if !role.CanManageDomain() {
		return ErrForbidden
	}
	return s.DetachDomainInternal(ctx, workspaceID)
}

// DetachDomainInternal removes the custom domain without a role check; the
// plan-downgrade path uses it directly.
//
// Removal is idempotent and never partially fails from the caller's point
// of view: registrar cleanup and site reverts are best-effort, and the call
// succeeds once the local domain state is cleared. A stuck registrar
// record must not block a tenant from clearing local state; the residue is
// a harmless orphaned registration.
func (s *DomainService) DetachDomainInternal(ctx context.Context, workspaceID uuid.UUID) error {
	ws, err := s.workspaces.GetByID(ctx, workspaceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrWorkspaceNotFound
		}
		return err
	}

	if ws.DomainConfig.Domain == nil {
		if !ws.DomainConfig.IsEmpty() {
			if err := s.workspaces.UpdateDomainConfig(ctx, workspaceID, domain.DomainConfig{}); err != nil {
				return fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
			}
		}
		return nil
	}
	host := *ws.DomainConfig.Domain

	for _, h := range []string{host, "www." + host} {
		if err := s.registrar.RemoveDomain(ctx, h); err != nil && !domain.IsRegistrarNotFound(err) {
			s.logger.Warn("registrar removal failed, continuing",
				zap.String("host", h),
				zap.Error(err),
			)
		}
	}

	s.revertSiteDomains(ctx, workspaceID)

	if err := s.workspaces.UpdateDomainConfig(ctx, workspaceID, domain.DomainConfig{}); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
	}

	s.releaseClaim(ctx, host, workspaceID)

	s.logger.Info("custom domain detached",
		zap.String("workspace_id", workspaceID.String()),
		zap.String("domain", host),
	)
	return nil
}

// revertSiteDomains points every active site back at its platform default
// host. Best-effort, like propagation.
func (s *DomainService) revertSiteDomains(ctx context.Context, workspaceID uuid.UUID) {
	sites, err := s.sites.ListActive(ctx, workspaceID)
	if err != nil {
		s.logger.Warn("failed to list sites for domain revert",
			zap.String("workspace_id", workspaceID.String()),
			zap.Error(err),
		)
		return
	}
	for _, site := range sites {
		def := s.defaultSiteHost(site)
		if site.Domain == def {
			continue
		}
		if err := s.sites.UpdateDomain(ctx, site.ID, def); err != nil {
			s.logger.Warn("failed to revert site domain",
				zap.String("site_id", site.ID.String()),
				zap.Error(err),
			)
		}
	}
}
