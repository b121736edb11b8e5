package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ottiehq/ottie-server/internal/domain"
	"github.com/ottiehq/ottie-server/internal/store"
)

// memWorkspaceStore implements domain.WorkspaceStore for testing.
type memWorkspaceStore struct {
	mu         sync.Mutex
	workspaces map[uuid.UUID]*domain.Workspace

	// updateDomainConfigErr fails the next UpdateDomainConfig call once.
	updateDomainConfigErr error
}

func newMemWorkspaceStore() *memWorkspaceStore {
	return &memWorkspaceStore{workspaces: make(map[uuid.UUID]*domain.Workspace)}
}

func (m *memWorkspaceStore) Create(ctx context.Context, w *domain.Workspace) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w.ID = uuid.New()
	w.CreatedAt = time.Now()
	w.UpdatedAt = w.CreatedAt
	cp := *w
	m.workspaces[w.ID] = &cp
	return nil
}

func (m *memWorkspaceStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Workspace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.workspaces[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (m *memWorkspaceStore) Update(ctx context.Context, w *domain.Workspace) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.workspaces[w.ID]
	if !ok {
		return store.ErrNotFound
	}
	cur.Name = w.Name
	cur.Plan = w.Plan
	return nil
}

func (m *memWorkspaceStore) UpdateDomainConfig(ctx context.Context, id uuid.UUID, cfg domain.DomainConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateDomainConfigErr != nil {
		err := m.updateDomainConfigErr
		m.updateDomainConfigErr = nil
		return err
	}
	w, ok := m.workspaces[id]
	if !ok {
		return store.ErrNotFound
	}
	w.DomainConfig = cfg
	return nil
}

func (m *memWorkspaceStore) FindByDomain(ctx context.Context, d string) (*domain.Workspace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.workspaces {
		if w.DomainConfig.Domain != nil && *w.DomainConfig.Domain == d {
			cp := *w
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

// memSiteStore implements domain.SiteStore for testing.
type memSiteStore struct {
	mu    sync.Mutex
	sites map[uuid.UUID]*domain.Site

	listErr         error
	updateDomainErr error
}

func newMemSiteStore() *memSiteStore {
	return &memSiteStore{sites: make(map[uuid.UUID]*domain.Site)}
}

func (m *memSiteStore) Create(ctx context.Context, s *domain.Site) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.sites {
		if other.WorkspaceID == s.WorkspaceID && other.Slug == s.Slug && other.DeletedAt == nil {
			return store.ErrConflict
		}
	}
	s.ID = uuid.New()
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	cp := *s
	m.sites[s.ID] = &cp
	return nil
}

func (m *memSiteStore) GetByID(ctx context.Context, id uuid.UUID, workspaceID uuid.UUID) (*domain.Site, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sites[id]
	if !ok || s.WorkspaceID != workspaceID || s.DeletedAt != nil {
		return nil, store.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memSiteStore) ListActive(ctx context.Context, workspaceID uuid.UUID) ([]domain.Site, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []domain.Site
	for _, s := range m.sites {
		if s.WorkspaceID == workspaceID && s.DeletedAt == nil {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *memSiteStore) Update(ctx context.Context, s *domain.Site) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.sites[s.ID]
	if !ok || cur.WorkspaceID != s.WorkspaceID || cur.DeletedAt != nil {
		return store.ErrNotFound
	}
	cur.Name = s.Name
	cur.Published = s.Published
	return nil
}

func (m *memSiteStore) SoftDelete(ctx context.Context, id uuid.UUID, workspaceID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sites[id]
	if !ok || s.WorkspaceID != workspaceID || s.DeletedAt != nil {
		return store.ErrNotFound
	}
	now := time.Now()
	s.DeletedAt = &now
	return nil
}

func (m *memSiteStore) UpdateDomain(ctx context.Context, id uuid.UUID, d string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateDomainErr != nil {
		return m.updateDomainErr
	}
	s, ok := m.sites[id]
	if !ok || s.DeletedAt != nil {
		return store.ErrNotFound
	}
	s.Domain = d
	return nil
}

// memClaimStore implements domain.DomainClaimStore for testing.
type memClaimStore struct {
	mu     sync.Mutex
	claims map[string]claimRow
}

type claimRow struct {
	workspaceID uuid.UUID
	expiresAt   time.Time
}

func newMemClaimStore() *memClaimStore {
	return &memClaimStore{claims: make(map[string]claimRow)}
}

func (m *memClaimStore) Claim(ctx context.Context, d string, workspaceID uuid.UUID, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if row, ok := m.claims[d]; ok && row.workspaceID != workspaceID && row.expiresAt.After(time.Now()) {
		return store.ErrConflict
	}
	m.claims[d] = claimRow{workspaceID: workspaceID, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (m *memClaimStore) Release(ctx context.Context, d string, workspaceID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if row, ok := m.claims[d]; ok && row.workspaceID == workspaceID {
		delete(m.claims, d)
	}
	return nil
}

// memMemberStore implements domain.MemberStore for testing.
type memMemberStore struct {
	mu      sync.Mutex
	members map[uuid.UUID]*domain.Member
}

func newMemMemberStore() *memMemberStore {
	return &memMemberStore{members: make(map[uuid.UUID]*domain.Member)}
}

func (m *memMemberStore) Create(ctx context.Context, mem *domain.Member) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mem.ID = uuid.New()
	cp := *mem
	m.members[mem.ID] = &cp
	return nil
}

func (m *memMemberStore) GetByAPIKeyHash(ctx context.Context, hash string) (*domain.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, mem := range m.members {
		if mem.APIKeyHash == hash {
			cp := *mem
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memMemberStore) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]domain.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Member
	for _, mem := range m.members {
		if mem.WorkspaceID == workspaceID {
			out = append(out, *mem)
		}
	}
	return out, nil
}

// mockRegistrar is a configurable registrar for exercising saga paths.
type mockRegistrar struct {
	mu    sync.Mutex
	hosts map[string]bool

	verified      bool
	misconfigured bool
	cname         []string
	ipv4          []string

	addErrs   map[string]error // forced AddDomain failures per host
	getErr    error
	removeErr error

	// configErr fails GetDomainConfig; configErrCount limits how many
	// calls fail (negative means always).
	configErr      error
	configErrCount int

	addCalls    []string
	getCalls    []string
	removeCalls []string
	configCalls []string
}

func newMockRegistrar() *mockRegistrar {
	return &mockRegistrar{
		hosts:   make(map[string]bool),
		addErrs: make(map[string]error),
		cname:   []string{"cname.ottie.site"},
	}
}

func (m *mockRegistrar) AddDomain(ctx context.Context, host string) (*domain.DomainRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addCalls = append(m.addCalls, host)
	if err := m.addErrs[host]; err != nil {
		return nil, err
	}
	if m.hosts[host] {
		return nil, &domain.RegistrarError{Code: domain.RegistrarCodeAlreadyExists}
	}
	m.hosts[host] = true
	return &domain.DomainRecord{Name: host, Verified: m.verified}, nil
}

func (m *mockRegistrar) RemoveDomain(ctx context.Context, host string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeCalls = append(m.removeCalls, host)
	if m.removeErr != nil {
		return m.removeErr
	}
	delete(m.hosts, host)
	return nil
}

func (m *mockRegistrar) GetDomain(ctx context.Context, host string) (*domain.DomainRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls = append(m.getCalls, host)
	if m.getErr != nil {
		return nil, m.getErr
	}
	if !m.hosts[host] {
		return nil, &domain.RegistrarError{Code: domain.RegistrarCodeNotFound}
	}
	rec := &domain.DomainRecord{Name: host, Verified: m.verified}
	if !m.verified {
		rec.Verification = []domain.VerificationReason{
			{Type: "CNAME", Domain: host, Reason: "CNAME for " + host + " not found"},
		}
	}
	return rec, nil
}

func (m *mockRegistrar) GetDomainConfig(ctx context.Context, host string) (*domain.DomainDNSConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configCalls = append(m.configCalls, host)
	if m.configErr != nil && m.configErrCount != 0 {
		if m.configErrCount > 0 {
			m.configErrCount--
		}
		return nil, m.configErr
	}
	if !m.hosts[host] {
		return nil, &domain.RegistrarError{Code: domain.RegistrarCodeNotFound}
	}
	return &domain.DomainDNSConfig{
		Misconfigured:    m.misconfigured,
		RecommendedCNAME: m.cname,
		RecommendedIPv4:  m.ipv4,
	}, nil
}

func (m *mockRegistrar) registered(host string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hosts[host]
}
