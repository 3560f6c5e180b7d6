package tenant

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/liyaqa/platform/internal/models"
	"github.com/liyaqa/platform/internal/store"
)

// SuspendTenantCommand suspends an ACTIVE tenant.
type SuspendTenantCommand struct {
	Reason models.DeactivationReason
	Notes  *string
}

// DeactivateTenantCommand deactivates an ACTIVE or SUSPENDED tenant.
type DeactivateTenantCommand struct {
	Reason models.DeactivationReason
	Notes  *string
}

// OffboardingService walks tenants through suspension, deactivation,
// mandatory data export, and archival. All precondition checks run
// before any mutation; a failed call leaves the tenant exactly as it was.
type OffboardingService struct {
	tenants       store.TenantStore
	logs          store.DeactivationLogStore
	transitions   store.TransitionStore
	exports       store.ExportStore
	subscriptions store.SubscriptionStore
	actors        ActorResolver
	events        EventSink

	// retention is how long archived tenant data is kept before cleanup.
	retention time.Duration
}

// DefaultRetention is applied when no retention period is configured.
const DefaultRetention = 90 * 24 * time.Hour

// NewOffboardingService wires the offboarding orchestrator.
func NewOffboardingService(
	tenants store.TenantStore,
	logs store.DeactivationLogStore,
	transitions store.TransitionStore,
	exports store.ExportStore,
	subscriptions store.SubscriptionStore,
	actors ActorResolver,
	events EventSink,
	retention time.Duration,
) *OffboardingService {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &OffboardingService{
		tenants:       tenants,
		logs:          logs,
		transitions:   transitions,
		exports:       exports,
		subscriptions: subscriptions,
		actors:        actors,
		events:        events,
		retention:     retention,
	}
}

// SuspendTenant moves an ACTIVE tenant to SUSPENDED and appends an audit
// row. Any other current status yields an invalid-transition error.
func (s *OffboardingService) SuspendTenant(ctx context.Context, tenantID uuid.UUID, cmd SuspendTenantCommand) (*models.Tenant, error) {
	tenant, err := s.tenants.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if tenant.Status != models.TenantStatusActive {
		return nil, &models.InvalidTransitionError{From: tenant.Status, To: models.TenantStatusSuspended}
	}

	return s.transition(ctx, tenant, models.TenantStatusSuspended, cmd.Reason, cmd.Notes)
}

// DeactivateTenant moves an ACTIVE or SUSPENDED tenant to DEACTIVATED.
// Fails with ErrActiveSubscriptionExists while the tenant's organization
// still has an active paid subscription; no mutation happens in that case.
func (s *OffboardingService) DeactivateTenant(ctx context.Context, tenantID uuid.UUID, cmd DeactivateTenantCommand) (*models.Tenant, error) {
	tenant, err := s.tenants.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if tenant.Status != models.TenantStatusActive && tenant.Status != models.TenantStatusSuspended {
		return nil, &models.InvalidTransitionError{From: tenant.Status, To: models.TenantStatusDeactivated}
	}

	if tenant.OrganizationID != nil {
		active, err := s.subscriptions.ExistsActiveByOrganization(ctx, *tenant.OrganizationID)
		if err != nil {
			return nil, fmt.Errorf("failed to check subscriptions: %w", err)
		}
		if active {
			return nil, fmt.Errorf("organization %s: %w", tenant.OrganizationID, ErrActiveSubscriptionExists)
		}
	}

	return s.transition(ctx, tenant, models.TenantStatusDeactivated, cmd.Reason, cmd.Notes)
}

// RequestDataExport creates a PENDING export job for the tenant. The job
// is executed asynchronously by the export worker; this call only
// enforces the single-outstanding-job invariant and records the request.
func (s *OffboardingService) RequestDataExport(ctx context.Context, tenantID uuid.UUID, format models.ExportFormat) (*models.ExportJob, error) {
	exists, err := s.tenants.Exists(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to check tenant: %w", err)
	}
	if !exists {
		return nil, store.ErrTenantNotFound
	}

	outstanding, err := s.exports.ExistsOutstanding(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to check outstanding exports: %w", err)
	}
	if outstanding {
		return nil, fmt.Errorf("tenant %s: %w", tenantID, ErrExportInProgress)
	}

	job, err := models.NewExportJob(tenantID, format, s.actors.CurrentActor(ctx))
	if err != nil {
		return nil, err
	}

	if err := s.exports.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create export job: %w", err)
	}

	return job, nil
}

// ArchiveTenant moves a DEACTIVATED tenant to ARCHIVED and stamps the
// data retention horizon. Requires at least one COMPLETED export job,
// else fails with ErrExportRequired.
func (s *OffboardingService) ArchiveTenant(ctx context.Context, tenantID uuid.UUID) (*models.Tenant, error) {
	tenant, err := s.tenants.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if tenant.Status != models.TenantStatusDeactivated {
		return nil, &models.InvalidTransitionError{From: tenant.Status, To: models.TenantStatusArchived}
	}

	completed, err := s.exports.ListByTenantAndStatus(ctx, tenantID, models.ExportStatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to check export jobs: %w", err)
	}
	if len(completed) == 0 {
		return nil, fmt.Errorf("tenant %s: %w", tenantID, ErrExportRequired)
	}

	previous := tenant.Status
	if err := tenant.Archive(s.retention); err != nil {
		return nil, err
	}

	if err := s.tenants.Update(ctx, tenant); err != nil {
		return nil, err
	}

	s.events.TenantStatusChanged(ctx, StatusChangedEvent{
		TenantID:       tenant.TenantID,
		PreviousStatus: previous,
		NewStatus:      tenant.Status,
		OccurredAt:     time.Now().UTC(),
	})

	return tenant, nil
}

// GetDeactivationHistory returns the tenant's audit rows, newest first.
// Tenant existence is checked explicitly so an unknown tenant is
// distinguishable from one with no history yet.
func (s *OffboardingService) GetDeactivationHistory(ctx context.Context, tenantID uuid.UUID) ([]*models.DeactivationLog, error) {
	exists, err := s.tenants.Exists(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to check tenant: %w", err)
	}
	if !exists {
		return nil, store.ErrTenantNotFound
	}

	return s.logs.ListByTenant(ctx, tenantID)
}

// GetDataExports returns all export jobs for a tenant, newest first.
// Fails with store.ErrTenantNotFound for an unknown tenant.
func (s *OffboardingService) GetDataExports(ctx context.Context, tenantID uuid.UUID) ([]*models.ExportJob, error) {
	exists, err := s.tenants.Exists(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to check tenant: %w", err)
	}
	if !exists {
		return nil, store.ErrTenantNotFound
	}

	return s.exports.ListByTenant(ctx, tenantID)
}

// GetDataExport retrieves one export job.
func (s *OffboardingService) GetDataExport(ctx context.Context, jobID uuid.UUID) (*models.ExportJob, error) {
	return s.exports.Get(ctx, jobID)
}

// transition applies a validated offboarding status change: the guarded
// tenant update and its audit row in one atomic write, then the
// status-changed event. A failed write leaves the stored tenant as it was.
func (s *OffboardingService) transition(ctx context.Context, tenant *models.Tenant, next models.TenantStatus, reason models.DeactivationReason, notes *string) (*models.Tenant, error) {
	previous := tenant.Status
	if err := tenant.ChangeStatus(next); err != nil {
		return nil, err
	}

	entry, err := models.NewDeactivationLog(tenant.TenantID, reason, notes, previous, next, s.actors.CurrentActor(ctx))
	if err != nil {
		return nil, err
	}

	if err := s.transitions.Transition(ctx, tenant, entry); err != nil {
		return nil, err
	}

	s.events.TenantStatusChanged(ctx, StatusChangedEvent{
		TenantID:       tenant.TenantID,
		PreviousStatus: previous,
		NewStatus:      next,
		OccurredAt:     time.Now().UTC(),
	})

	return tenant, nil
}
