package tenant

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/liyaqa/platform/internal/models"
	"github.com/liyaqa/platform/internal/store"
	"github.com/liyaqa/platform/internal/store/memory"
)

type offboardingFixture struct {
	tenants       *memory.TenantStore
	logs          *memory.DeactivationLogStore
	exports       *memory.ExportStore
	subscriptions *memory.SubscriptionStore
	actor         uuid.UUID
	svc           *OffboardingService
}

func newOffboardingFixture() *offboardingFixture {
	f := &offboardingFixture{
		tenants:       memory.NewTenantStore(),
		logs:          memory.NewDeactivationLogStore(),
		exports:       memory.NewExportStore(),
		subscriptions: memory.NewSubscriptionStore(),
		actor:         uuid.Must(uuid.NewV7()),
	}
	f.svc = NewOffboardingService(
		f.tenants, f.logs,
		memory.NewTransitionStore(f.tenants, f.logs),
		f.exports, f.subscriptions,
		StaticActorResolver{ActorID: f.actor},
		NewLogSink(zerolog.Nop()),
		0,
	)
	return f
}

// failingTransitionStore rejects every transition.
type failingTransitionStore struct {
	err error
}

func (s *failingTransitionStore) Transition(ctx context.Context, tenant *models.Tenant, entry *models.DeactivationLog) error {
	return s.err
}

// activeTenant seeds an ACTIVE tenant with an onboarded organization.
func (f *offboardingFixture) activeTenant(t *testing.T) *models.Tenant {
	t.Helper()

	tenant, err := models.NewTenant("Iron Works Gym", "owner@ironworks.example")
	require.NoError(t, err)
	orgID := uuid.Must(uuid.NewV7())
	clubID := uuid.Must(uuid.NewV7())
	tenant.AttachOnboardingResult(orgID, clubID)
	require.NoError(t, tenant.ChangeStatus(models.TenantStatusActive))
	require.NoError(t, f.tenants.Create(context.Background(), tenant))
	return tenant
}

// completedExport runs a job for the tenant through to COMPLETED.
func (f *offboardingFixture) completedExport(t *testing.T, tenantID uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	job, err := f.svc.RequestDataExport(ctx, tenantID, models.ExportFormatJSON)
	require.NoError(t, err)

	claimed, err := f.exports.Claim(ctx)
	require.NoError(t, err)
	require.Equal(t, job.JobID, claimed.JobID)
	require.NoError(t, claimed.Complete("exports/archive.json.zst", 1024))
	require.NoError(t, f.exports.Update(ctx, claimed))
}

func TestSuspendTenant(t *testing.T) {
	ctx := context.Background()
	cmd := SuspendTenantCommand{Reason: models.ReasonNonPayment}

	t.Run("suspends active tenant with audit row", func(t *testing.T) {
		f := newOffboardingFixture()
		tenant := f.activeTenant(t)

		suspended, err := f.svc.SuspendTenant(ctx, tenant.TenantID, cmd)
		require.NoError(t, err)
		require.Equal(t, models.TenantStatusSuspended, suspended.Status)

		history, err := f.logs.ListByTenant(ctx, tenant.TenantID)
		require.NoError(t, err)
		require.Len(t, history, 1)
		require.Equal(t, models.ReasonNonPayment, history[0].Reason)
		require.Equal(t, models.TenantStatusActive, history[0].PreviousStatus)
		require.Equal(t, models.TenantStatusSuspended, history[0].NewStatus)
		require.Equal(t, f.actor, history[0].PerformedBy)
	})

	t.Run("rejects provisioning tenant", func(t *testing.T) {
		f := newOffboardingFixture()

		tenant, err := models.NewTenant("Half Built Gym", "owner@halfbuilt.example")
		require.NoError(t, err)
		require.NoError(t, f.tenants.Create(ctx, tenant))

		_, err = f.svc.SuspendTenant(ctx, tenant.TenantID, cmd)
		var invalid *models.InvalidTransitionError
		require.ErrorAs(t, err, &invalid)

		stored, err := f.tenants.Get(ctx, tenant.TenantID)
		require.NoError(t, err)
		require.Equal(t, models.TenantStatusProvisioning, stored.Status)
	})

	t.Run("failed write leaves tenant and history untouched", func(t *testing.T) {
		f := newOffboardingFixture()
		tenant := f.activeTenant(t)

		writeErr := errors.New("write failed")
		f.svc = NewOffboardingService(
			f.tenants, f.logs,
			&failingTransitionStore{err: writeErr},
			f.exports, f.subscriptions,
			StaticActorResolver{ActorID: f.actor},
			NewLogSink(zerolog.Nop()),
			0,
		)

		_, err := f.svc.SuspendTenant(ctx, tenant.TenantID, cmd)
		require.ErrorIs(t, err, writeErr)

		stored, err := f.tenants.Get(ctx, tenant.TenantID)
		require.NoError(t, err)
		require.Equal(t, models.TenantStatusActive, stored.Status)

		history, err := f.logs.ListByTenant(ctx, tenant.TenantID)
		require.NoError(t, err)
		require.Empty(t, history)
	})

	t.Run("rejects non-active tenant", func(t *testing.T) {
		f := newOffboardingFixture()
		tenant := f.activeTenant(t)

		_, err := f.svc.SuspendTenant(ctx, tenant.TenantID, cmd)
		require.NoError(t, err)

		// Already suspended.
		_, err = f.svc.SuspendTenant(ctx, tenant.TenantID, cmd)
		var invalid *models.InvalidTransitionError
		require.ErrorAs(t, err, &invalid)

		history, err := f.logs.ListByTenant(ctx, tenant.TenantID)
		require.NoError(t, err)
		require.Len(t, history, 1)
	})

	t.Run("unknown tenant", func(t *testing.T) {
		f := newOffboardingFixture()

		_, err := f.svc.SuspendTenant(ctx, uuid.Must(uuid.NewV7()), cmd)
		require.ErrorIs(t, err, store.ErrTenantNotFound)
	})
}

func TestDeactivateTenant(t *testing.T) {
	ctx := context.Background()
	cmd := DeactivateTenantCommand{Reason: models.ReasonContractEnded}

	t.Run("deactivates active tenant", func(t *testing.T) {
		f := newOffboardingFixture()
		tenant := f.activeTenant(t)

		deactivated, err := f.svc.DeactivateTenant(ctx, tenant.TenantID, cmd)
		require.NoError(t, err)
		require.Equal(t, models.TenantStatusDeactivated, deactivated.Status)
		require.NotNil(t, deactivated.DeactivatedAt)
	})

	t.Run("deactivates suspended tenant", func(t *testing.T) {
		f := newOffboardingFixture()
		tenant := f.activeTenant(t)
		_, err := f.svc.SuspendTenant(ctx, tenant.TenantID, SuspendTenantCommand{Reason: models.ReasonNonPayment})
		require.NoError(t, err)

		deactivated, err := f.svc.DeactivateTenant(ctx, tenant.TenantID, cmd)
		require.NoError(t, err)
		require.Equal(t, models.TenantStatusDeactivated, deactivated.Status)

		history, err := f.logs.ListByTenant(ctx, tenant.TenantID)
		require.NoError(t, err)
		require.Len(t, history, 2)
	})

	t.Run("blocked by active subscription", func(t *testing.T) {
		f := newOffboardingFixture()
		tenant := f.activeTenant(t)
		f.subscriptions.SetActive(*tenant.OrganizationID, true)

		_, err := f.svc.DeactivateTenant(ctx, tenant.TenantID, cmd)
		require.ErrorIs(t, err, ErrActiveSubscriptionExists)

		unchanged, err := f.tenants.Get(ctx, tenant.TenantID)
		require.NoError(t, err)
		require.Equal(t, models.TenantStatusActive, unchanged.Status)

		history, err := f.logs.ListByTenant(ctx, tenant.TenantID)
		require.NoError(t, err)
		require.Empty(t, history)

		// Cancelling the subscription unblocks deactivation.
		f.subscriptions.SetActive(*tenant.OrganizationID, false)
		_, err = f.svc.DeactivateTenant(ctx, tenant.TenantID, cmd)
		require.NoError(t, err)
	})

	t.Run("rejects provisioning tenant", func(t *testing.T) {
		f := newOffboardingFixture()
		tenant, err := models.NewTenant("Iron Works Gym", "owner@ironworks.example")
		require.NoError(t, err)
		require.NoError(t, f.tenants.Create(ctx, tenant))

		_, err = f.svc.DeactivateTenant(ctx, tenant.TenantID, cmd)
		var invalid *models.InvalidTransitionError
		require.ErrorAs(t, err, &invalid)
	})
}

func TestRequestDataExport(t *testing.T) {
	ctx := context.Background()

	t.Run("creates pending job", func(t *testing.T) {
		f := newOffboardingFixture()
		tenant := f.activeTenant(t)

		job, err := f.svc.RequestDataExport(ctx, tenant.TenantID, models.ExportFormatJSON)
		require.NoError(t, err)
		require.Equal(t, models.ExportStatusPending, job.Status)
		require.Equal(t, f.actor, job.RequestedBy)
	})

	t.Run("rejects second outstanding job", func(t *testing.T) {
		f := newOffboardingFixture()
		tenant := f.activeTenant(t)

		_, err := f.svc.RequestDataExport(ctx, tenant.TenantID, models.ExportFormatJSON)
		require.NoError(t, err)

		_, err = f.svc.RequestDataExport(ctx, tenant.TenantID, models.ExportFormatCSV)
		require.ErrorIs(t, err, ErrExportInProgress)
	})

	t.Run("failed job no longer blocks", func(t *testing.T) {
		f := newOffboardingFixture()
		tenant := f.activeTenant(t)

		_, err := f.svc.RequestDataExport(ctx, tenant.TenantID, models.ExportFormatJSON)
		require.NoError(t, err)

		claimed, err := f.exports.Claim(ctx)
		require.NoError(t, err)
		require.NoError(t, claimed.Fail("disk full"))
		require.NoError(t, f.exports.Update(ctx, claimed))

		_, err = f.svc.RequestDataExport(ctx, tenant.TenantID, models.ExportFormatJSON)
		require.NoError(t, err)
	})

	t.Run("unknown tenant", func(t *testing.T) {
		f := newOffboardingFixture()

		_, err := f.svc.RequestDataExport(ctx, uuid.Must(uuid.NewV7()), models.ExportFormatJSON)
		require.ErrorIs(t, err, store.ErrTenantNotFound)
	})
}

func TestArchiveTenant(t *testing.T) {
	ctx := context.Background()

	t.Run("archives deactivated tenant with completed export", func(t *testing.T) {
		f := newOffboardingFixture()
		tenant := f.activeTenant(t)
		_, err := f.svc.DeactivateTenant(ctx, tenant.TenantID, DeactivateTenantCommand{Reason: models.ReasonContractEnded})
		require.NoError(t, err)
		f.completedExport(t, tenant.TenantID)

		archived, err := f.svc.ArchiveTenant(ctx, tenant.TenantID)
		require.NoError(t, err)
		require.Equal(t, models.TenantStatusArchived, archived.Status)
		require.NotNil(t, archived.DataRetentionUntil)
		require.WithinDuration(t, time.Now().UTC().Add(DefaultRetention), *archived.DataRetentionUntil, time.Minute)
	})

	t.Run("requires completed export", func(t *testing.T) {
		f := newOffboardingFixture()
		tenant := f.activeTenant(t)
		_, err := f.svc.DeactivateTenant(ctx, tenant.TenantID, DeactivateTenantCommand{Reason: models.ReasonContractEnded})
		require.NoError(t, err)

		_, err = f.svc.ArchiveTenant(ctx, tenant.TenantID)
		require.ErrorIs(t, err, ErrExportRequired)

		unchanged, err := f.tenants.Get(ctx, tenant.TenantID)
		require.NoError(t, err)
		require.Equal(t, models.TenantStatusDeactivated, unchanged.Status)
	})

	t.Run("requires deactivated status", func(t *testing.T) {
		f := newOffboardingFixture()
		tenant := f.activeTenant(t)
		f.completedExport(t, tenant.TenantID)

		_, err := f.svc.ArchiveTenant(ctx, tenant.TenantID)
		var invalid *models.InvalidTransitionError
		require.ErrorAs(t, err, &invalid)
	})
}

func TestGetDeactivationHistory(t *testing.T) {
	ctx := context.Background()

	t.Run("newest first", func(t *testing.T) {
		f := newOffboardingFixture()
		tenant := f.activeTenant(t)

		_, err := f.svc.SuspendTenant(ctx, tenant.TenantID, SuspendTenantCommand{Reason: models.ReasonNonPayment})
		require.NoError(t, err)
		_, err = f.svc.DeactivateTenant(ctx, tenant.TenantID, DeactivateTenantCommand{Reason: models.ReasonContractEnded})
		require.NoError(t, err)

		history, err := f.svc.GetDeactivationHistory(ctx, tenant.TenantID)
		require.NoError(t, err)
		require.Len(t, history, 2)
		require.Equal(t, models.TenantStatusDeactivated, history[0].NewStatus)
		require.Equal(t, models.TenantStatusSuspended, history[1].NewStatus)
	})

	t.Run("unknown tenant", func(t *testing.T) {
		f := newOffboardingFixture()

		_, err := f.svc.GetDeactivationHistory(ctx, uuid.Must(uuid.NewV7()))
		require.ErrorIs(t, err, store.ErrTenantNotFound)
	})

	t.Run("empty history for known tenant", func(t *testing.T) {
		f := newOffboardingFixture()
		tenant := f.activeTenant(t)

		history, err := f.svc.GetDeactivationHistory(ctx, tenant.TenantID)
		require.NoError(t, err)
		require.Empty(t, history)
	})
}

// TestFullOffboardingLifecycle walks one tenant through the whole
// offboarding sequence end to end.
func TestFullOffboardingLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newOffboardingFixture()
	tenant := f.activeTenant(t)

	_, err := f.svc.SuspendTenant(ctx, tenant.TenantID, SuspendTenantCommand{Reason: models.ReasonNonPayment})
	require.NoError(t, err)

	_, err = f.svc.DeactivateTenant(ctx, tenant.TenantID, DeactivateTenantCommand{Reason: models.ReasonClientRequest})
	require.NoError(t, err)

	// Archival blocked until an export completes.
	_, err = f.svc.ArchiveTenant(ctx, tenant.TenantID)
	require.ErrorIs(t, err, ErrExportRequired)

	f.completedExport(t, tenant.TenantID)

	archived, err := f.svc.ArchiveTenant(ctx, tenant.TenantID)
	require.NoError(t, err)
	require.Equal(t, models.TenantStatusArchived, archived.Status)

	history, err := f.svc.GetDeactivationHistory(ctx, tenant.TenantID)
	require.NoError(t, err)
	require.Len(t, history, 2)

	exports, err := f.svc.GetDataExports(ctx, tenant.TenantID)
	require.NoError(t, err)
	require.Len(t, exports, 1)
	require.Equal(t, models.ExportStatusCompleted, exports[0].Status)
}
