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

type MemberStore struct {
	db *pgxpool.Pool
}

func NewMemberStore(db *pgxpool.Pool) *MemberStore {
	return &MemberStore{db: db}
}

func (s *MemberStore) Create(ctx context.Context, m *domain.Member) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO members (workspace_id, email, role, api_key_hash)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		m.WorkspaceID, m.Email, m.Role, m.APIKeyHash,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *MemberStore) GetByAPIKeyHash(ctx context.Context, apiKeyHash string) (*domain.Member, error) {
	m := &domain.Member{}
	err := s.db.QueryRow(ctx,
		`SELECT id, workspace_id, email, role, api_key_hash, created_at, updated_at
		 FROM members WHERE api_key_hash = $1`,
		apiKeyHash,
	).Scan(&m.ID, &m.WorkspaceID, &m.Email, &m.Role, &m.APIKeyHash, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

func (s *MemberStore) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]domain.Member, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, workspace_id, email, role, api_key_hash, created_at, updated_at
		 FROM members WHERE workspace_id = $1 ORDER BY created_at`,
		workspaceID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []domain.Member
	for rows.Next() {
		var m domain.Member
		if err := rows.Scan(&m.ID, &m.WorkspaceID, &m.Email, &m.Role, &m.APIKeyHash,
			&m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}
