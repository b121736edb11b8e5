package domain

import (
	"time"

	"github.com/google/uuid"
)

// Plan is the billing plan a workspace is on.
type Plan string

const (
	PlanFree     Plan = "free"
	PlanPro      Plan = "pro"
	PlanBusiness Plan = "business"
)

func ValidPlan(p string) bool {
	switch Plan(p) {
	case PlanFree, PlanPro, PlanBusiness:
		return true
	}
	return false
}

// AllowsCustomDomain reports whether the plan carries the custom-domain entitlement.
func (p Plan) AllowsCustomDomain() bool {
	return p == PlanPro || p == PlanBusiness
}

// Role is the acting user's resolved role within a workspace.
// Credential checking happens outside the core; services only see the role.
type Role string

const (
	RoleOwner Role = "owner"
	RoleAdmin Role = "admin"
	RoleAgent Role = "agent"
)

func ValidRole(r string) bool {
	switch Role(r) {
	case RoleOwner, RoleAdmin, RoleAgent:
		return true
	}
	return false
}

// CanManageDomain reports whether the role may attach, verify or detach
// the workspace custom domain.
func (r Role) CanManageDomain() bool {
	return r == RoleOwner || r == RoleAdmin
}

// DNSRecordHint is one instruction telling the tenant what DNS record to
// create to point their domain at the platform.
type DNSRecordHint struct {
	RecordType string `json:"record_type"` // "CNAME" or "A"
	HostLabel  string `json:"host_label"`
	Value      string `json:"value"`
	Purpose    string `json:"purpose"`
}

// DomainConfig is the persistent state of one workspace's custom-domain
// attempt. Only the provisioning, verification and removal flows write it.
type DomainConfig struct {
	Domain          *string         `json:"domain"` // normalized, no www. prefix
	Registered      bool            `json:"registered"`
	Verified        bool            `json:"verified"`
	VerifiedAt      *time.Time      `json:"verified_at"`
	DNSInstructions []DNSRecordHint `json:"dns_instructions"`
}

// IsEmpty reports whether no domain attempt is in flight or committed.
func (c DomainConfig) IsEmpty() bool {
	return c.Domain == nil && !c.Registered && !c.Verified && c.VerifiedAt == nil && len(c.DNSInstructions) == 0
}

type Workspace struct {
	ID           uuid.UUID    `json:"id"`
	Name         string       `json:"name"`
	Slug         string       `json:"slug"`
	Plan         Plan         `json:"plan"`
	DomainConfig DomainConfig `json:"domain_config"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

type Member struct {
	ID          uuid.UUID `json:"id"`
	WorkspaceID uuid.UUID `json:"workspace_id"`
	Email       string    `json:"email"`
	Role        Role      `json:"role"`
	APIKeyHash  string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
