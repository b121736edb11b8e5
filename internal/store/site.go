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

type SiteStore struct {
	db *pgxpool.Pool
}

func NewSiteStore(db *pgxpool.Pool) *SiteStore {
	return &SiteStore{db: db}
}

func (s *SiteStore) Create(ctx context.Context, site *domain.Site) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO sites (workspace_id, name, slug, domain, published)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		site.WorkspaceID, site.Name, site.Slug, site.Domain, site.Published,
	).Scan(&site.ID, &site.CreatedAt, &site.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *SiteStore) GetByID(ctx context.Context, id uuid.UUID, workspaceID uuid.UUID) (*domain.Site, error) {
	site := &domain.Site{}
	err := s.db.QueryRow(ctx,
		`SELECT id, workspace_id, name, slug, domain, published, deleted_at, created_at, updated_at
		 FROM sites WHERE id = $1 AND workspace_id = $2 AND deleted_at IS NULL`,
		id, workspaceID,
	).Scan(&site.ID, &site.WorkspaceID, &site.Name, &site.Slug, &site.Domain,
		&site.Published, &site.DeletedAt, &site.CreatedAt, &site.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return site, nil
}

func (s *SiteStore) ListActive(ctx context.Context, workspaceID uuid.UUID) ([]domain.Site, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, workspace_id, name, slug, domain, published, deleted_at, created_at, updated_at
		 FROM sites WHERE workspace_id = $1 AND deleted_at IS NULL
		 ORDER BY created_at`,
		workspaceID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sites []domain.Site
	for rows.Next() {
		var site domain.Site
		if err := rows.Scan(&site.ID, &site.WorkspaceID, &site.Name, &site.Slug, &site.Domain,
			&site.Published, &site.DeletedAt, &site.CreatedAt, &site.UpdatedAt); err != nil {
			return nil, err
		}
		sites = append(sites, site)
	}
	return sites, rows.Err()
}

func (s *SiteStore) Update(ctx context.Context, site *domain.Site) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE sites SET name = $3, slug = $4, published = $5, updated_at = now()
		 WHERE id = $1 AND workspace_id = $2 AND deleted_at IS NULL`,
		site.ID, site.WorkspaceID, site.Name, site.Slug, site.Published,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SiteStore) SoftDelete(ctx context.Context, id uuid.UUID, workspaceID uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE sites SET deleted_at = now(), updated_at = now()
		 WHERE id = $1 AND workspace_id = $2 AND deleted_at IS NULL`,
		id, workspaceID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SiteStore) UpdateDomain(ctx context.Context, id uuid.UUID, d string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE sites SET domain = $2, updated_at = now()
		 WHERE id = $1 AND deleted_at IS NULL`,
		id, d,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
