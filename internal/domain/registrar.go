package domain

import (
	"context"
	"errors"
	"fmt"
)

// Registrar error codes as reported by the upstream domain API.
const (
	RegistrarCodeAlreadyExists = "domain_already_exists"
	RegistrarCodeNotFound      = "not_found"
	RegistrarCodeForbidden     = "forbidden"
)

// RegistrarError is a typed failure from the registrar API.
type RegistrarError struct {
	Code    string
	Message string
	Status  int
}

func (e *RegistrarError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("registrar: %s", e.Code)
	}
	return fmt.Sprintf("registrar: %s: %s", e.Code, e.Message)
}

// AlreadyExists reports whether the error means the host is already
// registered upstream. Callers treat this as idempotent success when the
// registration belongs to them.
func (e *RegistrarError) AlreadyExists() bool {
	return e.Code == RegistrarCodeAlreadyExists
}

func registrarCode(err error) string {
	var re *RegistrarError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// IsRegistrarAlreadyExists reports whether err is an already-exists registrar error.
func IsRegistrarAlreadyExists(err error) bool {
	return registrarCode(err) == RegistrarCodeAlreadyExists
}

// IsRegistrarNotFound reports whether err is a not-found registrar error.
func IsRegistrarNotFound(err error) bool {
	return registrarCode(err) == RegistrarCodeNotFound
}

// IsRegistrarForbidden reports whether err is a forbidden registrar error.
func IsRegistrarForbidden(err error) bool {
	return registrarCode(err) == RegistrarCodeForbidden
}

// VerificationReason is one unmet verification requirement reported by the
// registrar for a registered domain.
type VerificationReason struct {
	Type   string `json:"type"`
	Domain string `json:"domain"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

// DomainRecord is the registrar's view of one registered host.
type DomainRecord struct {
	Name         string               `json:"name"`
	Verified     bool                 `json:"verified"`
	Verification []VerificationReason `json:"verification,omitempty"`
}

// DomainDNSConfig describes how a registered host should be pointed at the
// platform, with candidate values ranked best-first.
type DomainDNSConfig struct {
	Misconfigured    bool     `json:"misconfigured"`
	RecommendedCNAME []string `json:"recommended_cname"`
	RecommendedIPv4  []string `json:"recommended_ipv4"`
}

// RegistrarClient is the contract against the third-party domain API.
// Implemented by internal/registrar, mocked in tests.
type RegistrarClient interface {
	// AddDomain registers a host. If the host already exists the returned
	// error satisfies IsRegistrarAlreadyExists rather than being fatal.
	AddDomain(ctx context.Context, host string) (*DomainRecord, error)
	// RemoveDomain deregisters a host. A "not found" upstream response is
	// reported as success.
	RemoveDomain(ctx context.Context, host string) error
	GetDomain(ctx context.Context, host string) (*DomainRecord, error)
	// GetDomainConfig may fail transiently right after AddDomain while the
	// registrar is still materializing the configuration.
	GetDomainConfig(ctx context.Context, host string) (*DomainDNSConfig, error)
}
