package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DomainClaimStore reserves candidate hosts in Postgres. The upsert only
// steals a row whose previous claim has expired or belongs to the same
// workspace, so two workspaces racing for one host serialize on the row.
type DomainClaimStore struct {
	db *pgxpool.Pool
}

func NewDomainClaimStore(db *pgxpool.Pool) *DomainClaimStore {
	return &DomainClaimStore{db: db}
}

func (s *DomainClaimStore) Claim(ctx context.Context, d string, workspaceID uuid.UUID, ttl time.Duration) error {
	tag, err := s.db.Exec(ctx,
		`INSERT INTO domain_claims (domain, workspace_id, expires_at)
		 VALUES ($1, $2, now() + make_interval(secs => $3))
		 ON CONFLICT (domain) DO UPDATE
		 SET workspace_id = EXCLUDED.workspace_id, expires_at = EXCLUDED.expires_at
		 WHERE domain_claims.workspace_id = EXCLUDED.workspace_id
		    OR domain_claims.expires_at < now()`,
		d, workspaceID, ttl.Seconds(),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}

func (s *DomainClaimStore) Release(ctx context.Context, d string, workspaceID uuid.UUID) error {
	_, err := s.db.Exec(ctx,
		`DELETE FROM domain_claims WHERE domain = $1 AND workspace_id = $2`,
		d, workspaceID,
	)
	return err
}
