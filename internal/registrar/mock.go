package registrar

import (
	"context"
	"sync"

	"github.com/ottiehq/ottie-server/internal/domain"
)

// MockClient is an in-memory registrar for local development and testing.
// Set the state fields to control verification outcomes.
type MockClient struct {
	mu    sync.Mutex
	hosts map[string]bool

	// Verified marks every registered host as DNS-verified.
	Verified bool
	// Misconfigured flags the DNS config of every host.
	Misconfigured bool
	// CNAMETarget is the recommended CNAME value. Defaults to a mock target.
	CNAMETarget string
}

func NewMockClient() *MockClient {
	return &MockClient{
		hosts:       make(map[string]bool),
		CNAMETarget: "cname.mock.invalid",
	}
}

func (m *MockClient) AddDomain(ctx context.Context, host string) (*domain.DomainRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hosts[host] {
		return nil, &domain.RegistrarError{Code: domain.RegistrarCodeAlreadyExists, Message: host + " is already registered"}
	}
	m.hosts[host] = true
	return &domain.DomainRecord{Name: host, Verified: m.Verified}, nil
}

func (m *MockClient) RemoveDomain(ctx context.Context, host string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.hosts, host)
	return nil
}

func (m *MockClient) GetDomain(ctx context.Context, host string) (*domain.DomainRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.hosts[host] {
		return nil, &domain.RegistrarError{Code: domain.RegistrarCodeNotFound, Message: host + " is not registered"}
	}
	rec := &domain.DomainRecord{Name: host, Verified: m.Verified}
	if !m.Verified {
		rec.Verification = []domain.VerificationReason{
			{Type: "CNAME", Domain: host, Value: m.CNAMETarget, Reason: "DNS record for " + host + " does not point at the platform yet"},
		}
	}
	return rec, nil
}

func (m *MockClient) GetDomainConfig(ctx context.Context, host string) (*domain.DomainDNSConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.hosts[host] {
		return nil, &domain.RegistrarError{Code: domain.RegistrarCodeNotFound, Message: host + " is not registered"}
	}
	return &domain.DomainDNSConfig{
		Misconfigured:    m.Misconfigured,
		RecommendedCNAME: []string{m.CNAMETarget},
	}, nil
}

// Registered reports whether a host is currently registered. Test helper.
func (m *MockClient) Registered(host string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hosts[host]
}
