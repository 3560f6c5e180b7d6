package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/liyaqa/platform/internal/models"
	"github.com/liyaqa/platform/internal/store"
)

// ChecklistStore implements store.ChecklistStore using PostgreSQL.
type ChecklistStore struct {
	pool *pgxpool.Pool
}

// NewChecklistStore creates a new PostgreSQL-backed checklist store.
func NewChecklistStore(pool *pgxpool.Pool) *ChecklistStore {
	return &ChecklistStore{
		pool: pool,
	}
}

// CreateAll persists the seeded checklist in one batch insert.
func (s *ChecklistStore) CreateAll(ctx context.Context, items []*models.ChecklistItem) error {
	batch := &pgx.Batch{}
	query := `
		INSERT INTO onboarding_checklist (
			item_id, tenant_id, step, completed, completed_at, notes, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT ON CONSTRAINT onboarding_checklist_tenant_step_key DO NOTHING
	`

	for _, item := range items {
		batch.Queue(query,
			item.ItemID,
			item.TenantID,
			item.Step,
			item.Completed,
			item.CompletedAt,
			item.Notes,
			item.CreatedAt,
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range items {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to seed checklist: %w", err)
		}
	}

	return nil
}

// GetByTenantAndStep retrieves one checklist item.
func (s *ChecklistStore) GetByTenantAndStep(ctx context.Context, tenantID uuid.UUID, step models.OnboardingStep) (*models.ChecklistItem, error) {
	query := `
		SELECT item_id, tenant_id, step, completed, completed_at, notes, created_at
		FROM onboarding_checklist
		WHERE tenant_id = $1 AND step = $2
	`

	var item models.ChecklistItem
	err := s.pool.QueryRow(ctx, query, tenantID, step).Scan(
		&item.ItemID,
		&item.TenantID,
		&item.Step,
		&item.Completed,
		&item.CompletedAt,
		&item.Notes,
		&item.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrChecklistItemNotFound
		}
		return nil, fmt.Errorf("failed to get checklist item: %w", err)
	}

	return &item, nil
}

// Update persists a completed checklist item. Completion is monotonic:
// the guard keeps a concurrent repeat call from overwriting the first
// completion timestamp.
func (s *ChecklistStore) Update(ctx context.Context, item *models.ChecklistItem) error {
	query := `
		UPDATE onboarding_checklist SET
			completed = $3,
			completed_at = $4,
			notes = $5
		WHERE item_id = $1 AND tenant_id = $2 AND completed = FALSE
	`

	result, err := s.pool.Exec(ctx, query,
		item.ItemID,
		item.TenantID,
		item.Completed,
		item.CompletedAt,
		item.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to update checklist item: %w", err)
	}

	if result.RowsAffected() == 0 {
		// Either the item doesn't exist, or it was already completed by
		// a concurrent call; the latter is a no-op by design.
		existing, err := s.GetByTenantAndStep(ctx, item.TenantID, item.Step)
		if err != nil {
			return err
		}
		*item = *existing
	}

	return nil
}

// ListByTenant returns all checklist items for a tenant in step order.
func (s *ChecklistStore) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*models.ChecklistItem, error) {
	query := `
		SELECT item_id, tenant_id, step, completed, completed_at, notes, created_at
		FROM onboarding_checklist
		WHERE tenant_id = $1
		ORDER BY item_id
	`

	rows, err := s.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list checklist items: %w", err)
	}
	defer rows.Close()

	var items []*models.ChecklistItem
	for rows.Next() {
		var item models.ChecklistItem
		err := rows.Scan(
			&item.ItemID,
			&item.TenantID,
			&item.Step,
			&item.Completed,
			&item.CompletedAt,
			&item.Notes,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan checklist item: %w", err)
		}
		items = append(items, &item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating checklist items: %w", err)
	}

	return items, nil
}

// CountCompleted returns the number of completed steps for a tenant.
func (s *ChecklistStore) CountCompleted(ctx context.Context, tenantID uuid.UUID) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM onboarding_checklist
		WHERE tenant_id = $1 AND completed = TRUE
	`, tenantID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count completed steps: %w", err)
	}
	return count, nil
}
