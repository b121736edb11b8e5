package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/ottiehq/ottie-server/internal/domain"
	"github.com/ottiehq/ottie-server/internal/store"
)

const (
	// dnsConfigFetchAttempts is the total number of DNS-config fetch
	// attempts after registering a host; the registrar's configuration can
	// lag a registration by a few seconds.
	dnsConfigFetchAttempts = 3
	// dnsConfigFetchDelay is the constant wait between fetch attempts.
	dnsConfigFetchDelay = 2 * time.Second
	// domainClaimTTL bounds how long a candidate host stays reserved while
	// a provisioning attempt is in flight.
	domainClaimTTL = 2 * time.Minute

	claimReleaseTimeout = 5 * time.Second
)

// DomainServiceConfig carries the environment-derived values the domain
// flows need, passed explicitly instead of read ambiently.
type DomainServiceConfig struct {
	// PlatformHost is the default serving host, e.g. "ottie.site".
	PlatformHost string
	// RollbackTimeout bounds saga compensations; zero means the default.
	RollbackTimeout time.Duration
	// DNSRetryDelay overrides the wait between DNS-config fetch attempts;
	// zero means the default 2s.
	DNSRetryDelay time.Duration
}

// DomainService orchestrates the custom-domain lifecycle: the provisioning
// saga, DNS verification and removal.
type DomainService struct {
	workspaces domain.WorkspaceStore
	sites      domain.SiteStore
	claims     domain.DomainClaimStore
	registrar  domain.RegistrarClient
	cfg        DomainServiceConfig
	logger     *zap.Logger
}

func NewDomainService(
	workspaces domain.WorkspaceStore,
	sites domain.SiteStore,
	claims domain.DomainClaimStore,
	registrar domain.RegistrarClient,
	cfg DomainServiceConfig,
	logger *zap.Logger,
) *DomainService {
	return &DomainService{
		workspaces: workspaces,
		sites:      sites,
		claims:     claims,
		registrar:  registrar,
		cfg:        cfg,
		logger:     logger,
	}
}

// AttachDomain runs the provisioning saga for a workspace custom domain:
// validate, check uniqueness, register the bare and www hosts with the
// registrar, derive DNS instructions and persist the provisional state.
// Any step failure unwinds the registrar mutations already made. The
// returned instructions tell the tenant which DNS records to create.
//
// The domain is persisted unverified regardless of what the registrar
// already reports; VerifyDomain must confirm DNS independently.
func (s *DomainService) AttachDomain(ctx context.Context, workspaceID uuid.UUID, role domain.Role, rawDomain string) ([]domain.DNSRecordHint, error) {
	if !role.CanManageDomain() {
		return nil, ErrForbidden
	}

	ws, err := s.workspaces.GetByID(ctx, workspaceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrWorkspaceNotFound
		}
		return nil, err
	}
	if !ws.Plan.AllowsCustomDomain() {
		return nil, ErrPlanRestricted
	}

	host := NormalizeDomain(rawDomain)
	if err := ValidateDomainShape(host); err != nil {
		return nil, err
	}
	wwwHost := "www." + host

	// Advisory uniqueness check against the record store.
	if other, err := s.workspaces.FindByDomain(ctx, host); err == nil {
		if other.ID != ws.ID {
			return nil, ErrAlreadyInUse
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	// Reserve the host while the saga runs so a concurrent attach of the
	// same domain from another workspace serializes here.
	if err := s.claims.Claim(ctx, host, ws.ID, domainClaimTTL); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrAlreadyInUse
		}
		return nil, err
	}
	defer s.releaseClaim(ctx, host, ws.ID)

	prior := ws.DomainConfig
	ownsHost := prior.Registered && prior.Domain != nil && *prior.Domain == host

	// Pre-flight against the registrar, which is the authoritative guard
	// right before any shared external state is mutated.
	for _, h := range []string{host, wwwHost} {
		_, err := s.registrar.GetDomain(ctx, h)
		switch {
		case err == nil:
			if !ownsHost {
				return nil, ErrAlreadyInUse
			}
		case domain.IsRegistrarNotFound(err):
			// free to register
		default:
			return nil, fmt.Errorf("%w: %v", ErrRegistrarUnavailable, err)
		}
	}

	var hints []domain.DNSRecordHint

	sg := newSaga(s.logger, s.cfg.RollbackTimeout)
	sg.add("register host",
		func(ctx context.Context) error { return s.addDomainTolerant(ctx, host, ownsHost) },
		func(ctx context.Context) error { return s.registrar.RemoveDomain(ctx, host) },
	)
	sg.add("register www host",
		func(ctx context.Context) error { return s.addDomainTolerant(ctx, wwwHost, ownsHost) },
		func(ctx context.Context) error { return s.registrar.RemoveDomain(ctx, wwwHost) },
	)
	sg.add("derive dns instructions",
		func(ctx context.Context) error {
			derived, err := s.fetchInstructions(ctx, host)
			if err != nil {
				return err
			}
			hints = derived
			return nil
		},
		func(ctx context.Context) error {
			return s.workspaces.UpdateDomainConfig(ctx, workspaceID, prior)
		},
	)
	sg.add("persist domain config",
		func(ctx context.Context) error {
			cfg := domain.DomainConfig{
				Domain:          &host,
				Registered:      true,
				DNSInstructions: hints,
			}
			if err := s.workspaces.UpdateDomainConfig(ctx, workspaceID, cfg); err != nil {
				return fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
			}
			return nil
		},
		nil,
	)

	if err := sg.execute(ctx); err != nil {
		return nil, err
	}

	s.logger.Info("custom domain attached",
		zap.String("workspace_id", workspaceID.String()),
		zap.String("domain", host),
	)
	return hints, nil
}

// addDomainTolerant registers a host, treating "already exists" as success
// when the registration is known to be this workspace's own.
func (s *DomainService) addDomainTolerant(ctx context.Context, host string, owned bool) error {
	_, err := s.registrar.AddDomain(ctx, host)
	if err == nil {
		return nil
	}
	if domain.IsRegistrarAlreadyExists(err) {
		if owned {
			return nil
		}
		return ErrAlreadyInUse
	}
	return fmt.Errorf("%w: %v", ErrRegistrarUnavailable, err)
}

// fetchInstructions retrieves the registrar's DNS configuration for a
// freshly registered host and translates it into tenant instructions.
// The config can lag the registration, so transient failures are retried;
// a not-found or forbidden response is terminal.
func (s *DomainService) fetchInstructions(ctx context.Context, host string) ([]domain.DNSRecordHint, error) {
	var dnsCfg *domain.DomainDNSConfig

	delay := s.cfg.DNSRetryDelay
	if delay <= 0 {
		delay = dnsConfigFetchDelay
	}
	backoff := retry.WithMaxRetries(dnsConfigFetchAttempts-1, retry.NewConstant(delay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		c, err := s.registrar.GetDomainConfig(ctx, host)
		if err != nil {
			if domain.IsRegistrarNotFound(err) || domain.IsRegistrarForbidden(err) {
				return err
			}
			return retry.RetryableError(err)
		}
		dnsCfg = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRegistrarUnavailable, err)
	}

	hints := deriveInstructions(host, dnsCfg)
	if len(hints) == 0 {
		return nil, fmt.Errorf("%w: registrar returned no usable dns targets", ErrRegistrarUnavailable)
	}
	return hints, nil
}

// deriveInstructions translates a registrar DNS config into the record
// hints shown to the tenant: one for the bare subdomain label and one for
// its www form, both pointing at the same target. CNAME targets are
// preferred over A records.
func deriveInstructions(host string, cfg *domain.DomainDNSConfig) []domain.DNSRecordHint {
	var recordType, target string
	switch {
	case len(cfg.RecommendedCNAME) > 0:
		recordType, target = "CNAME", cfg.RecommendedCNAME[0]
	case len(cfg.RecommendedIPv4) > 0:
		recordType, target = "A", cfg.RecommendedIPv4[0]
	default:
		return nil
	}

	bareLabel := strings.SplitN(host, ".", 2)[0]
	return []domain.DNSRecordHint{
		{
			RecordType: recordType,
			HostLabel:  bareLabel,
			Value:      target,
			Purpose:    fmt.Sprintf("routes %s to your workspace", host),
		},
		{
			RecordType: recordType,
			HostLabel:  "www." + bareLabel,
			Value:      target,
			Purpose:    fmt.Sprintf("routes www.%s to your workspace", host),
		},
	}
}

// releaseClaim drops the provisioning reservation on a detached context so
// caller cancellation cannot leak a claim row until expiry.
func (s *DomainService) releaseClaim(ctx context.Context, host string, workspaceID uuid.UUID) {
	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), claimReleaseTimeout)
	defer cancel()

	if err := s.claims.Release(releaseCtx, host, workspaceID); err != nil {
		s.logger.Warn("failed to release domain claim",
			zap.String("domain", host),
			zap.Error(err),
		)
	}
}

// defaultSiteHost is the platform host a site serves from when the
// workspace has no verified custom domain.
func (s *DomainService) defaultSiteHost(site domain.Site) string {
	return site.Slug + "." + s.cfg.PlatformHost
}
