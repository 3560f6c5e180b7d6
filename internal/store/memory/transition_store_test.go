package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/liyaqa/platform/internal/models"
	"github.com/liyaqa/platform/internal/store"
)

func newAuditEntry(t *testing.T, tenant *models.Tenant) *models.DeactivationLog {
	t.Helper()
	entry, err := models.NewDeactivationLog(
		tenant.TenantID, models.ReasonNonPayment, nil,
		models.TenantStatusActive, models.TenantStatusSuspended,
		uuid.Must(uuid.NewV7()),
	)
	require.NoError(t, err)
	return entry
}

func TestTransitionStore(t *testing.T) {
	ctx := context.Background()

	t.Run("writes tenant and audit row together", func(t *testing.T) {
		tenants := NewTenantStore()
		logs := NewDeactivationLogStore()
		st := NewTransitionStore(tenants, logs)

		tenant := newTenant(t)
		require.NoError(t, tenants.Create(ctx, tenant))

		tenant.Status = models.TenantStatusSuspended
		require.NoError(t, st.Transition(ctx, tenant, newAuditEntry(t, tenant)))
		require.Equal(t, int64(2), tenant.Version)

		got, err := tenants.Get(ctx, tenant.TenantID)
		require.NoError(t, err)
		require.Equal(t, models.TenantStatusSuspended, got.Status)
		require.Equal(t, int64(2), got.Version)

		history, err := logs.ListByTenant(ctx, tenant.TenantID)
		require.NoError(t, err)
		require.Len(t, history, 1)
	})

	t.Run("stale version writes nothing", func(t *testing.T) {
		tenants := NewTenantStore()
		logs := NewDeactivationLogStore()
		st := NewTransitionStore(tenants, logs)

		tenant := newTenant(t)
		require.NoError(t, tenants.Create(ctx, tenant))

		stale, err := tenants.Get(ctx, tenant.TenantID)
		require.NoError(t, err)

		require.NoError(t, tenants.Update(ctx, tenant))

		stale.Status = models.TenantStatusSuspended
		require.ErrorIs(t, st.Transition(ctx, stale, newAuditEntry(t, stale)), store.ErrTenantConflict)

		got, err := tenants.Get(ctx, tenant.TenantID)
		require.NoError(t, err)
		require.Equal(t, models.TenantStatusProvisioning, got.Status)

		history, err := logs.ListByTenant(ctx, tenant.TenantID)
		require.NoError(t, err)
		require.Empty(t, history)
	})

	t.Run("unknown tenant", func(t *testing.T) {
		tenants := NewTenantStore()
		logs := NewDeactivationLogStore()
		st := NewTransitionStore(tenants, logs)

		tenant := newTenant(t)
		err := st.Transition(ctx, tenant, newAuditEntry(t, tenant))
		require.ErrorIs(t, err, store.ErrTenantNotFound)
	})
}
