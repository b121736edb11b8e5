package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ottiehq/ottie-server/internal/domain"
)

type WorkspaceStore struct {
	db *pgxpool.Pool
}

func NewWorkspaceStore(db *pgxpool.Pool) *WorkspaceStore {
	return &WorkspaceStore{db: db}
}

const workspaceColumns = `id, name, slug, plan, domain, domain_registered,
	 domain_verified, domain_verified_at, dns_instructions, created_at, updated_at`

func scanWorkspace(row pgx.Row) (*domain.Workspace, error) {
	w := &domain.Workspace{}
	err := row.Scan(
		&w.ID, &w.Name, &w.Slug, &w.Plan,
		&w.DomainConfig.Domain, &w.DomainConfig.Registered,
		&w.DomainConfig.Verified, &w.DomainConfig.VerifiedAt,
		&w.DomainConfig.DNSInstructions,
		&w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return w, nil
}

func (s *WorkspaceStore) Create(ctx context.Context, w *domain.Workspace) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO workspaces (name, slug, plan)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		w.Name, w.Slug, w.Plan,
	).Scan(&w.ID, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *WorkspaceStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Workspace, error) {
	return scanWorkspace(s.db.QueryRow(ctx,
		`SELECT `+workspaceColumns+` FROM workspaces WHERE id = $1`, id))
}

func (s *WorkspaceStore) Update(ctx context.Context, w *domain.Workspace) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE workspaces SET name = $2, plan = $3, updated_at = now()
		 WHERE id = $1`,
		w.ID, w.Name, w.Plan,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *WorkspaceStore) UpdateDomainConfig(ctx context.Context, id uuid.UUID, cfg domain.DomainConfig) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE workspaces
		 SET domain = $2, domain_registered = $3, domain_verified = $4,
		     domain_verified_at = $5, dns_instructions = $6, updated_at = now()
		 WHERE id = $1`,
		id, cfg.Domain, cfg.Registered, cfg.Verified, cfg.VerifiedAt, cfg.DNSInstructions,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *WorkspaceStore) FindByDomain(ctx context.Context, d string) (*domain.Workspace, error) {
	return scanWorkspace(s.db.QueryRow(ctx,
		`SELECT `+workspaceColumns+` FROM workspaces WHERE domain = $1`, d))
}
