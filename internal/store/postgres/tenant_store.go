package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/liyaqa/platform/internal/models"
	"github.com/liyaqa/platform/internal/store"
)

// TenantStore implements store.TenantStore using PostgreSQL.
type TenantStore struct {
	pool *pgxpool.Pool
}

// NewTenantStore creates a new PostgreSQL-backed tenant store.
// It shares the connection pool with the other stores.
func NewTenantStore(pool *pgxpool.Pool) *TenantStore {
	return &TenantStore{
		pool: pool,
	}
}

const tenantColumns = `
	tenant_id, facility_name, contact_email, subdomain, deal_id,
	organization_id, club_id, status, onboarded_by, onboarded_at,
	deactivated_at, data_retention_until, version, created_at, updated_at
`

// Create creates a new tenant in the database.
func (s *TenantStore) Create(ctx context.Context, tenant *models.Tenant) error {
	query := `
		INSERT INTO tenants (` + tenantColumns + `) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
		)
	`

	_, err := s.pool.Exec(ctx, query,
		tenant.TenantID,
		tenant.FacilityName,
		tenant.ContactEmail,
		tenant.Subdomain,
		tenant.DealID,
		tenant.OrganizationID,
		tenant.ClubID,
		tenant.Status,
		tenant.OnboardedBy,
		tenant.OnboardedAt,
		tenant.DeactivatedAt,
		tenant.DataRetentionUntil,
		tenant.Version,
		tenant.CreatedAt,
		tenant.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err, "") {
			return store.ErrTenantAlreadyExists
		}
		return fmt.Errorf("failed to create tenant: %w", err)
	}

	log.Debug().
		Str("tenant_id", tenant.TenantID.String()).
		Str("facility_name", tenant.FacilityName).
		Msg("Created tenant")

	return nil
}

// Get retrieves a tenant by ID.
func (s *TenantStore) Get(ctx context.Context, tenantID uuid.UUID) (*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE tenant_id = $1`
	return s.scanOne(s.pool.QueryRow(ctx, query, tenantID))
}

// GetByDealID retrieves the tenant provisioned from a deal.
func (s *TenantStore) GetByDealID(ctx context.Context, dealID uuid.UUID) (*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE deal_id = $1`
	return s.scanOne(s.pool.QueryRow(ctx, query, dealID))
}

// querier is the subset of pool and transaction the write helpers use.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Update persists a modified tenant. The WHERE clause carries the version
// the caller read; zero rows affected means either the tenant is gone or
// a concurrent writer got there first.
func (s *TenantStore) Update(ctx context.Context, tenant *models.Tenant) error {
	if err := updateTenant(ctx, s.pool, tenant); err != nil {
		return err
	}

	tenant.Version++

	log.Debug().
		Str("tenant_id", tenant.TenantID.String()).
		Str("status", string(tenant.Status)).
		Msg("Updated tenant")

	return nil
}

// updateTenant runs the guarded UPDATE against q. The caller bumps the
// in-memory Version only once the write is known to be durable.
func updateTenant(ctx context.Context, q querier, tenant *models.Tenant) error {
	tenant.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE tenants SET
			facility_name = $3,
			contact_email = $4,
			subdomain = $5,
			organization_id = $6,
			club_id = $7,
			status = $8,
			onboarded_by = $9,
			onboarded_at = $10,
			deactivated_at = $11,
			data_retention_until = $12,
			version = version + 1,
			updated_at = $13
		WHERE tenant_id = $1 AND version = $2
	`

	result, err := q.Exec(ctx, query,
		tenant.TenantID,
		tenant.Version,
		tenant.FacilityName,
		tenant.ContactEmail,
		tenant.Subdomain,
		tenant.OrganizationID,
		tenant.ClubID,
		tenant.Status,
		tenant.OnboardedBy,
		tenant.OnboardedAt,
		tenant.DeactivatedAt,
		tenant.DataRetentionUntil,
		tenant.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update tenant: %w", err)
	}

	if result.RowsAffected() == 0 {
		var exists bool
		if err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tenants WHERE tenant_id = $1)`, tenant.TenantID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check tenant after stale update: %w", err)
		}
		if !exists {
			return store.ErrTenantNotFound
		}
		return store.ErrTenantConflict
	}

	return nil
}

// ExistsBySubdomain reports whether any tenant has claimed the subdomain.
func (s *TenantStore) ExistsBySubdomain(ctx context.Context, subdomain string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tenants WHERE subdomain = $1)`, subdomain).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check subdomain: %w", err)
	}
	return exists, nil
}

// Exists reports whether the tenant id is known.
func (s *TenantStore) Exists(ctx context.Context, tenantID uuid.UUID) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tenants WHERE tenant_id = $1)`, tenantID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check tenant: %w", err)
	}
	return exists, nil
}

// List returns tenants, optionally filtered by status, newest first.
func (s *TenantStore) List(ctx context.Context, status *models.TenantStatus) ([]*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants`
	args := []any{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []*models.Tenant
	for rows.Next() {
		tenant, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, tenant)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tenants: %w", err)
	}

	return tenants, nil
}

func (s *TenantStore) scanOne(row pgx.Row) (*models.Tenant, error) {
	tenant, err := scanTenant(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrTenantNotFound
		}
		return nil, err
	}
	return tenant, nil
}

func scanTenant(row pgx.Row) (*models.Tenant, error) {
	var tenant models.Tenant
	err := row.Scan(
		&tenant.TenantID,
		&tenant.FacilityName,
		&tenant.ContactEmail,
		&tenant.Subdomain,
		&tenant.DealID,
		&tenant.OrganizationID,
		&tenant.ClubID,
		&tenant.Status,
		&tenant.OnboardedBy,
		&tenant.OnboardedAt,
		&tenant.DeactivatedAt,
		&tenant.DataRetentionUntil,
		&tenant.Version,
		&tenant.CreatedAt,
		&tenant.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan tenant: %w", err)
	}
	return &tenant, nil
}
