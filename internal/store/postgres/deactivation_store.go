package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/liyaqa/platform/internal/models"
	"github.com/liyaqa/platform/internal/store"
)

// DeactivationLogStore implements store.DeactivationLogStore using
// PostgreSQL. The table is append-only; there is no update or delete path.
type DeactivationLogStore struct {
	pool *pgxpool.Pool
}

// NewDeactivationLogStore creates a new PostgreSQL-backed audit log store.
func NewDeactivationLogStore(pool *pgxpool.Pool) *DeactivationLogStore {
	return &DeactivationLogStore{
		pool: pool,
	}
}

// Append writes one audit row.
func (s *DeactivationLogStore) Append(ctx context.Context, entry *models.DeactivationLog) error {
	return appendDeactivationLog(ctx, s.pool, entry)
}

func appendDeactivationLog(ctx context.Context, q querier, entry *models.DeactivationLog) error {
	query := `
		INSERT INTO deactivation_log (
			log_id, tenant_id, reason, notes,
			previous_status, new_status, performed_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := q.Exec(ctx, query,
		entry.LogID,
		entry.TenantID,
		entry.Reason,
		entry.Notes,
		entry.PreviousStatus,
		entry.NewStatus,
		entry.PerformedBy,
		entry.Timestamp,
	)

	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrTenantNotFound
		}
		return fmt.Errorf("failed to append deactivation log: %w", err)
	}

	return nil
}

// ListByTenant returns a tenant's audit rows, newest first.
func (s *DeactivationLogStore) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*models.DeactivationLog, error) {
	query := `
		SELECT log_id, tenant_id, reason, notes,
			previous_status, new_status, performed_by, created_at
		FROM deactivation_log
		WHERE tenant_id = $1
		ORDER BY created_at DESC
	`

	rows, err := s.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list deactivation log: %w", err)
	}
	defer rows.Close()

	var entries []*models.DeactivationLog
	for rows.Next() {
		var entry models.DeactivationLog
		err := rows.Scan(
			&entry.LogID,
			&entry.TenantID,
			&entry.Reason,
			&entry.Notes,
			&entry.PreviousStatus,
			&entry.NewStatus,
			&entry.PerformedBy,
			&entry.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deactivation log entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating deactivation log: %w", err)
	}

	return entries, nil
}
