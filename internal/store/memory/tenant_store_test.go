package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/liyaqa/platform/internal/models"
	"github.com/liyaqa/platform/internal/store"
)

func newTenant(t *testing.T) *models.Tenant {
	t.Helper()
	tenant, err := models.NewTenant("Iron Works Gym", "owner@ironworks.example")
	require.NoError(t, err)
	return tenant
}

func TestTenantStoreCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		st := NewTenantStore()
		tenant := newTenant(t)

		require.NoError(t, st.Create(ctx, tenant))

		got, err := st.Get(ctx, tenant.TenantID)
		require.NoError(t, err)
		require.Equal(t, tenant.TenantID, got.TenantID)
		require.Equal(t, tenant.FacilityName, got.FacilityName)
	})

	t.Run("duplicate subdomain rejected", func(t *testing.T) {
		st := NewTenantStore()
		subdomain := "ironworks"

		first := newTenant(t)
		first.Subdomain = &subdomain
		require.NoError(t, st.Create(ctx, first))

		second := newTenant(t)
		second.Subdomain = &subdomain
		require.ErrorIs(t, st.Create(ctx, second), store.ErrTenantAlreadyExists)
	})

	t.Run("duplicate deal rejected", func(t *testing.T) {
		st := NewTenantStore()
		dealID := uuid.Must(uuid.NewV7())

		first := newTenant(t)
		first.DealID = &dealID
		require.NoError(t, st.Create(ctx, first))

		second := newTenant(t)
		second.DealID = &dealID
		require.ErrorIs(t, st.Create(ctx, second), store.ErrTenantAlreadyExists)
	})

	t.Run("nil subdomains do not collide", func(t *testing.T) {
		st := NewTenantStore()
		require.NoError(t, st.Create(ctx, newTenant(t)))
		require.NoError(t, st.Create(ctx, newTenant(t)))
	})
}

func TestTenantStoreUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("update increments version", func(t *testing.T) {
		st := NewTenantStore()
		tenant := newTenant(t)
		require.NoError(t, st.Create(ctx, tenant))

		tenant.FacilityName = "Iron Works Gym North"
		require.NoError(t, st.Update(ctx, tenant))
		require.Equal(t, int64(2), tenant.Version)

		got, err := st.Get(ctx, tenant.TenantID)
		require.NoError(t, err)
		require.Equal(t, "Iron Works Gym North", got.FacilityName)
		require.Equal(t, int64(2), got.Version)
	})

	t.Run("stale version rejected", func(t *testing.T) {
		st := NewTenantStore()
		tenant := newTenant(t)
		require.NoError(t, st.Create(ctx, tenant))

		// Two readers pick up version 1.
		a, err := st.Get(ctx, tenant.TenantID)
		require.NoError(t, err)
		b, err := st.Get(ctx, tenant.TenantID)
		require.NoError(t, err)

		require.NoError(t, st.Update(ctx, a))
		require.ErrorIs(t, st.Update(ctx, b), store.ErrTenantConflict)
	})

	t.Run("unknown tenant", func(t *testing.T) {
		st := NewTenantStore()
		require.ErrorIs(t, st.Update(ctx, newTenant(t)), store.ErrTenantNotFound)
	})
}

func TestTenantStoreGetByDealID(t *testing.T) {
	ctx := context.Background()
	st := NewTenantStore()

	dealID := uuid.Must(uuid.NewV7())
	tenant := newTenant(t)
	tenant.DealID = &dealID
	require.NoError(t, st.Create(ctx, tenant))

	got, err := st.GetByDealID(ctx, dealID)
	require.NoError(t, err)
	require.Equal(t, tenant.TenantID, got.TenantID)

	_, err = st.GetByDealID(ctx, uuid.Must(uuid.NewV7()))
	require.ErrorIs(t, err, store.ErrTenantNotFound)
}

func TestTenantStoreList(t *testing.T) {
	ctx := context.Background()
	st := NewTenantStore()

	active := newTenant(t)
	require.NoError(t, active.ChangeStatus(models.TenantStatusActive))
	require.NoError(t, st.Create(ctx, active))

	provisioning := newTenant(t)
	require.NoError(t, st.Create(ctx, provisioning))

	all, err := st.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)

	status := models.TenantStatusActive
	filtered, err := st.List(ctx, &status)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	require.Equal(t, active.TenantID, filtered[0].TenantID)
}

func TestTenantStoreCloneIsolation(t *testing.T) {
	ctx := context.Background()
	st := NewTenantStore()

	tenant := newTenant(t)
	require.NoError(t, st.Create(ctx, tenant))

	// Mutating a returned tenant must not leak into the store.
	got, err := st.Get(ctx, tenant.TenantID)
	require.NoError(t, err)
	got.FacilityName = "mutated"

	fresh, err := st.Get(ctx, tenant.TenantID)
	require.NoError(t, err)
	require.Equal(t, "Iron Works Gym", fresh.FacilityName)
}
