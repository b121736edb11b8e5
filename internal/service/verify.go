package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ottiehq/ottie-server/internal/domain"
	"github.com/ottiehq/ottie-server/internal/store"
)

// VerifyDomain checks whether the workspace's custom domain has correct
// DNS. The domain is verified only when the registrar reports it verified
// and its configuration is not flagged misconfigured; an unreadable
// configuration fails closed. On success the verified state is committed
// and the domain is propagated onto every active site of the workspace.
//
// Safe to call repeatedly; failure leaves no side effects.
func (s *DomainService) VerifyDomain(ctx context.Context, workspaceID uuid.UUID, role domain.Role) error {
	if !role.CanManageDomain() {
		return ErrForbidden
	}

	ws, err := s.workspaces.GetByID(ctx, workspaceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrWorkspaceNotFound
		}
		return err
	}
	if ws.DomainConfig.Domain == nil {
		return ErrNoDomainConfigured
	}
	host := *ws.DomainConfig.Domain

	rec, err := s.registrar.GetDomain(ctx, host)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRegistrarUnavailable, err)
	}

	dnsCfg, err := s.registrar.GetDomainConfig(ctx, host)
	if err != nil {
		// Misconfigured-unknown: the verified check below fails closed.
		s.logger.Warn("dns config lookup failed during verification",
			zap.String("domain", host),
			zap.Error(err),
		)
		dnsCfg = nil
	}

	if !rec.Verified || dnsCfg == nil || dnsCfg.Misconfigured {
		var reasons []string
		for _, v := range rec.Verification {
			if v.Reason != "" {
				reasons = append(reasons, v.Reason)
			}
		}
		return &NotVerifiedError{Reasons: reasons}
	}

	now := time.Now().UTC()
	cfg := ws.DomainConfig
	cfg.Registered = true
	cfg.Verified = true
	cfg.VerifiedAt = &now
	if hints := deriveInstructions(host, dnsCfg); len(hints) > 0 {
		cfg.DNSInstructions = hints
	}
	if err := s.workspaces.UpdateDomainConfig(ctx, workspaceID, cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
	}

	s.propagateSiteDomains(ctx, workspaceID, host)

	s.logger.Info("custom domain verified",
		zap.String("workspace_id", workspaceID.String()),
		zap.String("domain", host),
	)
	return nil
}

// propagateSiteDomains points every active site of the workspace at the
// verified custom domain. Best-effort: site-table trouble must not fail
// domain verification.
func (s *DomainService) propagateSiteDomains(ctx context.Context, workspaceID uuid.UUID, host string) {
	sites, err := s.sites.ListActive(ctx, workspaceID)
	if err != nil {
		s.logger.Warn("failed to list sites for domain propagation",
			zap.String("workspace_id", workspaceID.String()),
			zap.Error(err),
		)
		return
	}
	for _, site := range sites {
		if site.Domain == host {
			continue
		}
		if err := s.sites.UpdateDomain(ctx, site.ID, host); err != nil {
			s.logger.Warn("failed to update site domain",
				zap.String("site_id", site.ID.String()),
				zap.String("domain", host),
				zap.Error(err),
			)
		}
	}
}
