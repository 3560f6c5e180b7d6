package memory

import (
	"context"
	"time"

	"github.com/liyaqa/platform/internal/models"
	"github.com/liyaqa/platform/internal/store"
)

// TransitionStore implements store.TransitionStore over the in-memory
// tenant and deactivation log stores. Both mutexes are held for the
// whole write so the tenant update and the audit row land together.
type TransitionStore struct {
	tenants *TenantStore
	logs    *DeactivationLogStore
}

// NewTransitionStore creates an in-memory transition store backed by the
// given tenant and deactivation log stores.
func NewTransitionStore(tenants *TenantStore, logs *DeactivationLogStore) *TransitionStore {
	return &TransitionStore{
		tenants: tenants,
		logs:    logs,
	}
}

// Transition persists the modified tenant and appends the audit row.
func (s *TransitionStore) Transition(ctx context.Context, tenant *models.Tenant, entry *models.DeactivationLog) error {
	s.tenants.mu.Lock()
	defer s.tenants.mu.Unlock()
	s.logs.mu.Lock()
	defer s.logs.mu.Unlock()

	existing, exists := s.tenants.tenants[tenant.TenantID]
	if !exists {
		return store.ErrTenantNotFound
	}

	if existing.Version != tenant.Version {
		return store.ErrTenantConflict
	}

	tenant.Version++
	tenant.UpdatedAt = time.Now().UTC()

	tenantClone := *tenant
	s.tenants.tenants[tenant.TenantID] = &tenantClone

	entryClone := *entry
	s.logs.entries = append(s.logs.entries, &entryClone)

	return nil
}
