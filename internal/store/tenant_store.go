package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/liyaqa/platform/internal/models"
)

// Sentinel errors for tenant store operations
var (
	ErrTenantNotFound      = errors.New("tenant not found")
	ErrTenantAlreadyExists = errors.New("tenant already exists")

	// ErrTenantConflict is returned when an update carries a stale version.
	// The caller must re-read the row before retrying; no mutation happened.
	ErrTenantConflict = errors.New("tenant version conflict")
)

// TenantStore defines the interface for tenant storage operations.
// Updates are guarded by the tenant's Version field so that concurrent
// read-check-write cycles on the same tenant cannot both succeed against
// a stale read, even across multiple service instances.
type TenantStore interface {
	// Create persists a new tenant.
	// Returns ErrTenantAlreadyExists on a duplicate id, subdomain, or deal id.
	Create(ctx context.Context, tenant *models.Tenant) error

	// Get retrieves a tenant by id.
	// Returns ErrTenantNotFound if the tenant doesn't exist.
	Get(ctx context.Context, tenantID uuid.UUID) (*models.Tenant, error)

	// Update persists a modified tenant, incrementing its version.
	// Returns ErrTenantConflict if the stored version no longer matches,
	// ErrTenantNotFound if the tenant doesn't exist.
	Update(ctx context.Context, tenant *models.Tenant) error

	// GetByDealID retrieves the tenant provisioned from a deal.
	// Returns ErrTenantNotFound if no tenant exists for the deal.
	GetByDealID(ctx context.Context, dealID uuid.UUID) (*models.Tenant, error)

	// ExistsBySubdomain reports whether any tenant has claimed the subdomain.
	ExistsBySubdomain(ctx context.Context, subdomain string) (bool, error)

	// Exists reports whether the tenant id is known.
	Exists(ctx context.Context, tenantID uuid.UUID) (bool, error)

	// List returns tenants, optionally filtered by status, newest first.
	List(ctx context.Context, status *models.TenantStatus) ([]*models.Tenant, error)
}
