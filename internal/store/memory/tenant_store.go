package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/liyaqa/platform/internal/models"
	"github.com/liyaqa/platform/internal/store"
)

// TenantStore implements store.TenantStore using in-memory storage.
// This implementation is for testing only - data is lost on restart.
type TenantStore struct {
	mu sync.RWMutex

	tenants map[uuid.UUID]*models.Tenant // tenant_id -> Tenant
}

// NewTenantStore creates a new in-memory tenant store.
func NewTenantStore() *TenantStore {
	return &TenantStore{
		tenants: make(map[uuid.UUID]*models.Tenant),
	}
}

// Create creates a new tenant in memory.
func (s *TenantStore) Create(ctx context.Context, tenant *models.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tenants[tenant.TenantID]; exists {
		return store.ErrTenantAlreadyExists
	}

	// Uniqueness checks the postgres schema enforces via indexes
	for _, existing := range s.tenants {
		if tenant.Subdomain != nil && existing.Subdomain != nil && *existing.Subdomain == *tenant.Subdomain {
			return store.ErrTenantAlreadyExists
		}
		if tenant.DealID != nil && existing.DealID != nil && *existing.DealID == *tenant.DealID {
			return store.ErrTenantAlreadyExists
		}
	}

	// Clone to avoid external modifications
	clone := *tenant
	s.tenants[tenant.TenantID] = &clone

	return nil
}

// Get retrieves a tenant by ID.
func (s *TenantStore) Get(ctx context.Context, tenantID uuid.UUID) (*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tenant, exists := s.tenants[tenantID]
	if !exists {
		return nil, store.ErrTenantNotFound
	}

	clone := *tenant
	return &clone, nil
}

// Update persists a modified tenant, enforcing the optimistic version check.
func (s *TenantStore) Update(ctx context.Context, tenant *models.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.tenants[tenant.TenantID]
	if !exists {
		return store.ErrTenantNotFound
	}

	if existing.Version != tenant.Version {
		return store.ErrTenantConflict
	}

	tenant.Version++
	tenant.UpdatedAt = time.Now().UTC()

	clone := *tenant
	s.tenants[tenant.TenantID] = &clone

	return nil
}

// GetByDealID retrieves the tenant provisioned from a deal.
func (s *TenantStore) GetByDealID(ctx context.Context, dealID uuid.UUID) (*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, tenant := range s.tenants {
		if tenant.DealID != nil && *tenant.DealID == dealID {
			clone := *tenant
			return &clone, nil
		}
	}

	return nil, store.ErrTenantNotFound
}

// ExistsBySubdomain reports whether any tenant has claimed the subdomain.
func (s *TenantStore) ExistsBySubdomain(ctx context.Context, subdomain string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, tenant := range s.tenants {
		if tenant.Subdomain != nil && *tenant.Subdomain == subdomain {
			return true, nil
		}
	}

	return false, nil
}

// Exists reports whether the tenant id is known.
func (s *TenantStore) Exists(ctx context.Context, tenantID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.tenants[tenantID]
	return exists, nil
}

// List returns tenants, optionally filtered by status, newest first.
func (s *TenantStore) List(ctx context.Context, status *models.TenantStatus) ([]*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Tenant
	for _, tenant := range s.tenants {
		if status != nil && tenant.Status != *status {
			continue
		}
		clone := *tenant
		result = append(result, &clone)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}
