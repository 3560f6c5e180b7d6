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

// DealStore implements store.DealStore using PostgreSQL. The lifecycle
// orchestrator only reads deals; the sales pipeline owns the writes.
type DealStore struct {
	pool *pgxpool.Pool
}

// NewDealStore creates a new PostgreSQL-backed deal store.
func NewDealStore(pool *pgxpool.Pool) *DealStore {
	return &DealStore{
		pool: pool,
	}
}

// Get retrieves a deal by ID.
func (s *DealStore) Get(ctx context.Context, dealID uuid.UUID) (*models.Deal, error) {
	query := `
		SELECT deal_id, stage, facility_name, contact_name, contact_email,
			converted_organization_id, closed_at, created_at
		FROM deals
		WHERE deal_id = $1
	`

	var deal models.Deal
	err := s.pool.QueryRow(ctx, query, dealID).Scan(
		&deal.DealID,
		&deal.Stage,
		&deal.FacilityName,
		&deal.ContactName,
		&deal.ContactEmail,
		&deal.ConvertedOrganizationID,
		&deal.ClosedAt,
		&deal.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrDealNotFound
		}
		return nil, fmt.Errorf("failed to get deal: %w", err)
	}

	return &deal, nil
}
