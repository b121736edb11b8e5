package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ottiehq/ottie-server/internal/domain"
)

type domainFixture struct {
	svc        *DomainService
	workspaces *memWorkspaceStore
	sites      *memSiteStore
	claims     *memClaimStore
	registrar  *mockRegistrar
}

func setupDomainTest(t *testing.T, plan domain.Plan) (*domainFixture, *domain.Workspace) {
	t.Helper()

	f := &domainFixture{
		workspaces: newMemWorkspaceStore(),
		sites:      newMemSiteStore(),
		claims:     newMemClaimStore(),
		registrar:  newMockRegistrar(),
	}
	f.svc = NewDomainService(f.workspaces, f.sites, f.claims, f.registrar, DomainServiceConfig{
		PlatformHost: "ottie.site",
		// Keep retry waits out of the test run.
		DNSRetryDelay: time.Millisecond,
	}, zap.NewNop())

	ws := &domain.Workspace{Name: "Acme", Slug: "acme", Plan: plan}
	if err := f.workspaces.Create(context.Background(), ws); err != nil {
		t.Fatalf("create workspace: %v", err)
	}
	return f, ws
}

func TestAttachDomain_Success(t *testing.T) {
	f, ws := setupDomainTest(t, domain.PlanPro)
	ctx := context.Background()

	hints, err := f.svc.AttachDomain(ctx, ws.ID, domain.RoleOwner, "Listings.Example.com ")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(hints) != 2 {
		t.Fatalf("expected 2 dns hints, got %d", len(hints))
	}
	if hints[0].RecordType != "CNAME" || hints[0].HostLabel != "listings" {
		t.Errorf("unexpected first hint: %+v", hints[0])
	}
	if hints[1].HostLabel != "www.listings" {
		t.Errorf("unexpected second hint: %+v", hints[1])
	}
	if hints[0].Value != hints[1].Value {
		t.Error("both hints should share the same target")
	}

	if !f.registrar.registered("listings.example.com") {
		t.Error("bare host not registered")
	}
	if !f.registrar.registered("www.listings.example.com") {
		t.Error("www host not registered")
	}

	got, _ := f.workspaces.GetByID(ctx, ws.ID)
	cfg := got.DomainConfig
	if cfg.Domain == nil || *cfg.Domain != "listings.example.com" {
		t.Fatalf("domain not persisted: %+v", cfg)
	}
	if !cfg.Registered {
		t.Error("expected registered=true")
	}
	if cfg.Verified || cfg.VerifiedAt != nil {
		t.Error("attach must never mark the domain verified")
	}
	if len(cfg.DNSInstructions) != 2 {
		t.Errorf("expected persisted instructions, got %d", len(cfg.DNSInstructions))
	}

	if len(f.claims.claims) != 0 {
		t.Error("claim should be released after the saga")
	}
}

func TestAttachDomain_PrefersCNAMEOverA(t *testing.T) {
	f, ws := setupDomainTest(t, domain.PlanPro)
	f.registrar.cname = []string{"cname.ottie.site"}
	f.registrar.ipv4 = []string{"203.0.113.7"}

	hints, err := f.svc.AttachDomain(context.Background(), ws.ID, domain.RoleOwner, "shop.acme.io")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if hints[0].RecordType != "CNAME" || hints[0].Value != "cname.ottie.site" {
		t.Fatalf("expected CNAME hint, got %+v", hints[0])
	}
}

func TestAttachDomain_FallsBackToARecord(t *testing.T) {
	f, ws := setupDomainTest(t, domain.PlanPro)
	f.registrar.cname = nil
	f.registrar.ipv4 = []string{"203.0.113.7"}

	hints, err := f.svc.AttachDomain(context.Background(), ws.ID, domain.RoleOwner, "shop.acme.io")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if hints[0].RecordType != "A" || hints[0].Value != "203.0.113.7" {
		t.Fatalf("expected A hint, got %+v", hints[0])
	}
}

func TestAttachDomain_AgentForbidden(t *testing.T) {
	f, ws := setupDomainTest(t, domain.PlanPro)

	_, err := f.svc.AttachDomain(context.Background(), ws.ID, domain.RoleAgent, "shop.acme.io")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if len(f.registrar.addCalls) != 0 {
		t.Error("registrar must not be touched on a role failure")
	}
}

func TestAttachDomain_FreePlanRestricted(t *testing.T) {
	f, ws := setupDomainTest(t, domain.PlanFree)

	_, err := f.svc.AttachDomain(context.Background(), ws.ID, domain.RoleOwner, "shop.acme.io")
	if !errors.Is(err, ErrPlanRestricted) {
		t.Fatalf("expected ErrPlanRestricted, got %v", err)
	}
}

func TestAttachDomain_ValidationFailureTouchesNothing(t *testing.T) {
	f, ws := setupDomainTest(t, domain.PlanPro)

	for _, raw := range []string{"example.com", "app.ottie.com", "bad..name.io"} {
		_, err := f.svc.AttachDomain(context.Background(), ws.ID, domain.RoleOwner, raw)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("AttachDomain(%q): expected *ValidationError, got %v", raw, err)
		}
	}
	if len(f.registrar.addCalls)+len(f.registrar.getCalls) != 0 {
		t.Error("registrar must not be touched on validation failure")
	}
	if len(f.claims.claims) != 0 {
		t.Error("no claim may be taken for an invalid domain")
	}
}

func TestAttachDomain_TakenByAnotherWorkspace(t *testing.T) {
	f, ws := setupDomainTest(t, domain.PlanPro)
	ctx := context.Background()

	other := &domain.Workspace{Name: "Rival", Slug: "rival", Plan: domain.PlanPro}
	if err := f.workspaces.Create(ctx, other); err != nil {
		t.Fatal(err)
	}
	taken := "shop.acme.io"
	if err := f.workspaces.UpdateDomainConfig(ctx, other.ID, domain.DomainConfig{Domain: &taken, Registered: true}); err != nil {
		t.Fatal(err)
	}

	_, err := f.svc.AttachDomain(ctx, ws.ID, domain.RoleOwner, taken)
	if !errors.Is(err, ErrAlreadyInUse) {
		t.Fatalf("expected ErrAlreadyInUse, got %v", err)
	}
	if len(f.registrar.addCalls) != 0 {
		t.Error("registrar must not be mutated when the domain is already held")
	}
}

func TestAttachDomain_ClaimConflict(t *testing.T) {
	f, ws := setupDomainTest(t, domain.PlanPro)
	ctx := context.Background()

	// Another workspace holds a live provisioning claim.
	if err := f.claims.Claim(ctx, "shop.acme.io", uuid.New(), time.Minute); err != nil {
		t.Fatal(err)
	}

	_, err := f.svc.AttachDomain(ctx, ws.ID, domain.RoleOwner, "shop.acme.io")
	if !errors.Is(err, ErrAlreadyInUse) {
		t.Fatalf("expected ErrAlreadyInUse, got %v", err)
	}
}

func TestAttachDomain_PreflightFindsForeignRegistration(t *testing.T) {
	f, ws := setupDomainTest(t, domain.PlanPro)
	f.registrar.hosts["shop.acme.io"] = true

	_, err := f.svc.AttachDomain(context.Background(), ws.ID, domain.RoleOwner, "shop.acme.io")
	if !errors.Is(err, ErrAlreadyInUse) {
		t.Fatalf("expected ErrAlreadyInUse, got %v", err)
	}
	if len(f.registrar.addCalls) != 0 {
		t.Error("no registration may be attempted after a failed pre-flight")
	}
}

func TestAttachDomain_WWWRegistrationFailureRollsBackBareHost(t *testing.T) {
	f, ws := setupDomainTest(t, domain.PlanPro)
	f.registrar.addErrs["www.shop.acme.io"] = &domain.RegistrarError{Code: "internal_error", Status: 500}

	_, err := f.svc.AttachDomain(context.Background(), ws.ID, domain.RoleOwner, "shop.acme.io")
	if !errors.Is(err, ErrRegistrarUnavailable) {
		t.Fatalf("expected ErrRegistrarUnavailable, got %v", err)
	}
	if f.registrar.registered("shop.acme.io") {
		t.Error("bare host registration should be compensated")
	}

	got, _ := f.workspaces.GetByID(context.Background(), ws.ID)
	if !got.DomainConfig.IsEmpty() {
		t.Errorf("domain config should stay empty, got %+v", got.DomainConfig)
	}
	if len(f.claims.claims) != 0 {
		t.Error("claim should be released after rollback")
	}
}

func TestAttachDomain_DNSConfigRetriesThenSucceeds(t *testing.T) {
	f, ws := setupDomainTest(t, domain.PlanPro)
	f.registrar.configErr = &domain.RegistrarError{Code: "internal_error", Status: 500}
	f.registrar.configErrCount = 2 // first two fetches fail, third succeeds

	hints, err := f.svc.AttachDomain(context.Background(), ws.ID, domain.RoleOwner, "shop.acme.io")
	if err != nil {
		t.Fatalf("expected retries to recover, got %v", err)
	}
	if len(hints) != 2 {
		t.Fatalf("expected hints after recovery, got %d", len(hints))
	}
	if len(f.registrar.configCalls) != 3 {
		t.Fatalf("expected 3 config fetch attempts, got %d", len(f.registrar.configCalls))
	}
}

func TestAttachDomain_DNSConfigExhaustionRollsBackRegistrations(t *testing.T) {
	f, ws := setupDomainTest(t, domain.PlanPro)
	f.registrar.configErr = &domain.RegistrarError{Code: "internal_error", Status: 500}
	f.registrar.configErrCount = -1 // never recovers

	_, err := f.svc.AttachDomain(context.Background(), ws.ID, domain.RoleOwner, "shop.acme.io")
	if !errors.Is(err, ErrRegistrarUnavailable) {
		t.Fatalf("expected ErrRegistrarUnavailable, got %v", err)
	}
	if len(f.registrar.configCalls) != 3 {
		t.Fatalf("expected exactly 3 fetch attempts, got %d", len(f.registrar.configCalls))
	}
	if f.registrar.registered("shop.acme.io") || f.registrar.registered("www.shop.acme.io") {
		t.Error("both registrations should be compensated after fetch exhaustion")
	}

	got, _ := f.workspaces.GetByID(context.Background(), ws.ID)
	if !got.DomainConfig.IsEmpty() {
		t.Errorf("domain config should be restored, got %+v", got.DomainConfig)
	}
}

func TestAttachDomain_ForbiddenConfigFetchIsTerminal(t *testing.T) {
	f, ws := setupDomainTest(t, domain.PlanPro)
	f.registrar.configErr = &domain.RegistrarError{Code: domain.RegistrarCodeForbidden, Status: 403}
	f.registrar.configErrCount = -1

	_, err := f.svc.AttachDomain(context.Background(), ws.ID, domain.RoleOwner, "shop.acme.io")
	if !errors.Is(err, ErrRegistrarUnavailable) {
		t.Fatalf("expected ErrRegistrarUnavailable, got %v", err)
	}
	if len(f.registrar.configCalls) != 1 {
		t.Fatalf("forbidden must not be retried, got %d attempts", len(f.registrar.configCalls))
	}
}

func TestAttachDomain_ReattachOwnDomainIsIdempotent(t *testing.T) {
	f, ws := setupDomainTest(t, domain.PlanPro)
	ctx := context.Background()

	if _, err := f.svc.AttachDomain(ctx, ws.ID, domain.RoleOwner, "shop.acme.io"); err != nil {
		t.Fatalf("first attach: %v", err)
	}
	hints, err := f.svc.AttachDomain(ctx, ws.ID, domain.RoleOwner, "shop.acme.io")
	if err != nil {
		t.Fatalf("second attach: %v", err)
	}
	if len(hints) != 2 {
		t.Fatalf("expected hints on re-attach, got %d", len(hints))
	}

	got, _ := f.workspaces.GetByID(ctx, ws.ID)
	if got.DomainConfig.Verified {
		t.Error("re-attach must reset verification state")
	}
}

func TestAttachDomain_PersistFailureRollsBackEverything(t *testing.T) {
	f, ws := setupDomainTest(t, domain.PlanPro)
	f.workspaces.updateDomainConfigErr = errors.New("write timeout")

	_, err := f.svc.AttachDomain(context.Background(), ws.ID, domain.RoleOwner, "shop.acme.io")
	if !errors.Is(err, ErrPersistenceFailure) {
		t.Fatalf("expected ErrPersistenceFailure, got %v", err)
	}
	if f.registrar.registered("shop.acme.io") || f.registrar.registered("www.shop.acme.io") {
		t.Error("registrations should be compensated after persist failure")
	}

	got, _ := f.workspaces.GetByID(context.Background(), ws.ID)
	if !got.DomainConfig.IsEmpty() {
		t.Errorf("domain config should be restored, got %+v", got.DomainConfig)
	}
}

func TestAttachDomain_WorkspaceNotFound(t *testing.T) {
	f, _ := setupDomainTest(t, domain.PlanPro)

	_, err := f.svc.AttachDomain(context.Background(), uuid.New(), domain.RoleOwner, "shop.acme.io")
	if !errors.Is(err, ErrWorkspaceNotFound) {
		t.Fatalf("expected ErrWorkspaceNotFound, got %v", err)
	}
}
