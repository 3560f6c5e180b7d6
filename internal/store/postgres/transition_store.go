package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/liyaqa/platform/internal/models"
)

// TransitionStore implements store.TransitionStore using PostgreSQL. The
// guarded tenant update and the audit insert run in one transaction so a
// failure on either side rolls both back.
type TransitionStore struct {
	pool *pgxpool.Pool
}

// NewTransitionStore creates a new PostgreSQL-backed transition store.
func NewTransitionStore(pool *pgxpool.Pool) *TransitionStore {
	return &TransitionStore{
		pool: pool,
	}
}

// Transition persists the modified tenant and appends the audit row.
func (s *TransitionStore) Transition(ctx context.Context, tenant *models.Tenant, entry *models.DeactivationLog) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transition: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := updateTenant(ctx, tx, tenant); err != nil {
		return err
	}

	if err := appendDeactivationLog(ctx, tx, entry); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transition: %w", err)
	}

	tenant.Version++

	log.Debug().
		Str("tenant_id", tenant.TenantID.String()).
		Str("status", string(tenant.Status)).
		Msg("Applied tenant transition")

	return nil
}
