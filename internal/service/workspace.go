package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ottiehq/ottie-server/internal/domain"
	"github.com/ottiehq/ottie-server/internal/store"
)

var slugRe = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,38}[a-z0-9])?$`)

var (
	ErrWorkspaceNameEmpty = errors.New("workspace name is required")
)

// WorkspaceService handles workspace lifecycle and plan changes. Dropping
// to a plan without the custom-domain entitlement detaches the domain the
// same way a user-initiated removal would.
type WorkspaceService struct {
	workspaces domain.WorkspaceStore
	members    domain.MemberStore
	domains    *DomainService
	logger     *zap.Logger
}

func NewWorkspaceService(workspaces domain.WorkspaceStore, members domain.MemberStore, domains *DomainService, logger *zap.Logger) *WorkspaceService {
	return &WorkspaceService{
		workspaces: workspaces,
		members:    members,
		domains:    domains,
		logger:     logger,
	}
}

// Create bootstraps a workspace with its owner member. The caller supplies
// the already-hashed API key for the owner.
func (s *WorkspaceService) Create(ctx context.Context, name, slug, ownerEmail, apiKeyHash string) (*domain.Workspace, *domain.Member, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil, ErrWorkspaceNameEmpty
	}
	if !slugRe.MatchString(slug) {
		return nil, nil, ErrSiteSlugInvalid
	}

	ws := &domain.Workspace{Name: name, Slug: slug, Plan: domain.PlanFree}
	if err := s.workspaces.Create(ctx, ws); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, nil, ErrSlugTaken
		}
		return nil, nil, err
	}

	owner := &domain.Member{
		WorkspaceID: ws.ID,
		Email:       strings.ToLower(strings.TrimSpace(ownerEmail)),
		Role:        domain.RoleOwner,
		APIKeyHash:  apiKeyHash,
	}
	if err := s.members.Create(ctx, owner); err != nil {
		return nil, nil, err
	}

	s.logger.Info("workspace created",
		zap.String("workspace_id", ws.ID.String()),
		zap.String("slug", ws.Slug),
	)
	return ws, owner, nil
}

func (s *WorkspaceService) Get(ctx context.Context, id uuid.UUID) (*domain.Workspace, error) {
	ws, err := s.workspaces.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrWorkspaceNotFound
		}
		return nil, err
	}
	return ws, nil
}

func (s *WorkspaceService) UpdateName(ctx context.Context, id uuid.UUID, role domain.Role, name string) (*domain.Workspace, error) {
	if !role.CanManageDomain() {
		return nil, ErrForbidden
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrWorkspaceNameEmpty
	}

	ws, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ws.Name = name
	if err := s.workspaces.Update(ctx, ws); err != nil {
		return nil, err
	}
	return ws, nil
}

// UpdatePlan changes the workspace plan. Only the owner may change plans.
// Downgrading off a custom-domain plan triggers domain removal before the
// new plan is persisted.
func (s *WorkspaceService) UpdatePlan(ctx context.Context, id uuid.UUID, role domain.Role, plan domain.Plan) (*domain.Workspace, error) {
	if role != domain.RoleOwner {
		return nil, ErrForbidden
	}
	if !domain.ValidPlan(string(plan)) {
		return nil, ErrInvalidPlan
	}

	ws, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if ws.Plan == plan {
		return ws, nil
	}

	if !plan.AllowsCustomDomain() && ws.DomainConfig.Domain != nil {
		if err := s.domains.DetachDomainInternal(ctx, id); err != nil {
			return nil, err
		}
	}

	ws.Plan = plan
	if err := s.workspaces.Update(ctx, ws); err != nil {
		return nil, err
	}

	s.logger.Info("workspace plan changed",
		zap.String("workspace_id", id.String()),
		zap.String("plan", string(plan)),
	)
	return ws, nil
}

func (s *WorkspaceService) ListMembers(ctx context.Context, workspaceID uuid.UUID, role domain.Role) ([]domain.Member, error) {
	if !domain.ValidRole(string(role)) {
		return nil, ErrForbidden
	}
	return s.members.ListByWorkspace(ctx, workspaceID)
}
