package tenant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/liyaqa/platform/internal/models"
	"github.com/liyaqa/platform/internal/store"
)

// OnboardCommand is the request to the onboarding collaborator.
type OnboardCommand struct {
	FacilityName     string
	AdminEmail       string
	AdminPassword    string
	AdminDisplayName string
}

// OnboardResult identifies the aggregates the collaborator created.
type OnboardResult struct {
	OrganizationID uuid.UUID
	ClubID         uuid.UUID
	AdminUserID    uuid.UUID
}

// OnboardingProvider creates the customer-side organization, default
// club, and admin user for a new tenant. Implementations must be safe to
// call more than once for the same admin email: a repeat call returns
// the previously created aggregates instead of duplicating them.
type OnboardingProvider interface {
	Onboard(ctx context.Context, cmd OnboardCommand) (*OnboardResult, error)
}

// ProvisionTenantCommand creates a standalone tenant.
type ProvisionTenantCommand struct {
	FacilityName string
	ContactEmail string
	Subdomain    *string
}

// ProvisionFromDealCommand turns a WON deal into a tenant.
type ProvisionFromDealCommand struct {
	AdminEmail       string
	AdminPassword    string
	AdminDisplayName string
}

// Progress summarizes a tenant's onboarding checklist.
type Progress struct {
	TotalSteps     int
	CompletedSteps int
	Percentage     int
	Items          []*models.ChecklistItem
}

// ProvisioningService orchestrates tenant creation: it seeds the
// onboarding checklist, drives the onboarding collaborator, auto-completes
// checklist steps as side effects land, and publishes lifecycle events.
type ProvisioningService struct {
	tenants    store.TenantStore
	checklist  store.ChecklistStore
	deals      store.DealStore
	onboarding OnboardingProvider
	actors     ActorResolver
	events     EventSink
}

// NewProvisioningService wires the provisioning orchestrator.
func NewProvisioningService(
	tenants store.TenantStore,
	checklist store.ChecklistStore,
	deals store.DealStore,
	onboarding OnboardingProvider,
	actors ActorResolver,
	events EventSink,
) *ProvisioningService {
	return &ProvisioningService{
		tenants:    tenants,
		checklist:  checklist,
		deals:      deals,
		onboarding: onboarding,
		actors:     actors,
		events:     events,
	}
}

// ProvisionTenant creates a tenant in PROVISIONING, seeds the checklist,
// and auto-completes TENANT_CREATED.
// Returns store.ErrTenantAlreadyExists if the subdomain is taken.
func (s *ProvisioningService) ProvisionTenant(ctx context.Context, cmd ProvisionTenantCommand) (*models.Tenant, error) {
	if cmd.Subdomain != nil {
		taken, err := s.tenants.ExistsBySubdomain(ctx, *cmd.Subdomain)
		if err != nil {
			return nil, fmt.Errorf("failed to check subdomain: %w", err)
		}
		if taken {
			return nil, fmt.Errorf("subdomain %q: %w", *cmd.Subdomain, store.ErrTenantAlreadyExists)
		}
	}

	tenant, err := models.NewTenant(cmd.FacilityName, cmd.ContactEmail)
	if err != nil {
		return nil, err
	}
	tenant.Subdomain = cmd.Subdomain
	actor := s.actors.CurrentActor(ctx)
	tenant.OnboardedBy = &actor

	if err := s.createWithChecklist(ctx, tenant); err != nil {
		return nil, err
	}

	s.events.TenantProvisioned(ctx, ProvisionedEvent{
		TenantID:     tenant.TenantID,
		FacilityName: tenant.FacilityName,
		OccurredAt:   time.Now().UTC(),
	})

	return tenant, nil
}

// ProvisionFromDeal provisions a tenant from a WON deal. The operation is
// idempotent on dealID: a tenant that is already fully provisioned is
// returned unchanged, and a tenant left half-provisioned by an earlier
// collaborator failure is resumed rather than duplicated.
func (s *ProvisioningService) ProvisionFromDeal(ctx context.Context, dealID uuid.UUID, cmd ProvisionFromDealCommand) (*models.Tenant, error) {
	existing, err := s.tenants.GetByDealID(ctx, dealID)
	switch {
	case err == nil:
		if existing.OrganizationID != nil {
			// Fully provisioned on an earlier call.
			return existing, nil
		}
		// Half-provisioned: re-run the collaborator step only.
		return s.resumeOnboarding(ctx, existing, cmd)
	case errors.Is(err, store.ErrTenantNotFound):
		// First call for this deal, fall through.
	default:
		return nil, fmt.Errorf("failed to look up tenant by deal: %w", err)
	}

	deal, err := s.deals.Get(ctx, dealID)
	if err != nil {
		return nil, err
	}
	if !deal.IsWon() {
		return nil, fmt.Errorf("deal %s in stage %s: %w", dealID, deal.Stage, ErrDealNotWon)
	}

	tenant, err := models.NewTenant(deal.FacilityName, deal.ContactEmail)
	if err != nil {
		return nil, err
	}
	tenant.DealID = &dealID
	actor := s.actors.CurrentActor(ctx)
	tenant.OnboardedBy = &actor

	if err := s.createWithChecklist(ctx, tenant); err != nil {
		if errors.Is(err, store.ErrTenantAlreadyExists) {
			// Lost a provisioning race for the same deal; the winner's
			// row is the tenant for this deal.
			return s.tenants.GetByDealID(ctx, dealID)
		}
		return nil, err
	}

	return s.resumeOnboarding(ctx, tenant, cmd)
}

// resumeOnboarding runs the onboarding collaborator for a PROVISIONING
// tenant and records the created aggregates. On collaborator failure the
// tenant stays as-is and the error is surfaced; nothing is rolled back.
// DEAL_WON is re-attempted on every pass so a checklist write that was
// missed on an earlier call is caught up on the retry.
func (s *ProvisioningService) resumeOnboarding(ctx context.Context, tenant *models.Tenant, cmd ProvisionFromDealCommand) (*models.Tenant, error) {
	s.autoComplete(ctx, tenant.TenantID, models.StepDealWon)

	result, err := s.onboarding.Onboard(ctx, OnboardCommand{
		FacilityName:     tenant.FacilityName,
		AdminEmail:       cmd.AdminEmail,
		AdminPassword:    cmd.AdminPassword,
		AdminDisplayName: cmd.AdminDisplayName,
	})
	if err != nil {
		return nil, &CollaboratorError{Err: err}
	}

	tenant.AttachOnboardingResult(result.OrganizationID, result.ClubID)
	if err := s.tenants.Update(ctx, tenant); err != nil {
		if !errors.Is(err, store.ErrTenantConflict) {
			return nil, fmt.Errorf("failed to record onboarding result: %w", err)
		}
		// Concurrent writer touched the row between our read and write.
		// Re-read and attach once more; a second conflict is surfaced.
		fresh, getErr := s.tenants.Get(ctx, tenant.TenantID)
		if getErr != nil {
			return nil, fmt.Errorf("failed to re-read tenant after conflict: %w", getErr)
		}
		fresh.AttachOnboardingResult(result.OrganizationID, result.ClubID)
		if err := s.tenants.Update(ctx, fresh); err != nil {
			return nil, fmt.Errorf("failed to record onboarding result: %w", err)
		}
		tenant = fresh
	}

	s.autoComplete(ctx, tenant.TenantID, models.StepAdminAccountCreated)

	s.events.TenantProvisioned(ctx, ProvisionedEvent{
		TenantID:     tenant.TenantID,
		FacilityName: tenant.FacilityName,
		DealID:       tenant.DealID,
		OccurredAt:   time.Now().UTC(),
	})

	return s.tenants.Get(ctx, tenant.TenantID)
}

// ChangeTenantStatus validates the transition against the status table,
// persists, and publishes a status-changed event.
func (s *ProvisioningService) ChangeTenantStatus(ctx context.Context, tenantID uuid.UUID, newStatus models.TenantStatus) (*models.Tenant, error) {
	tenant, err := s.tenants.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	previous := tenant.Status
	if err := tenant.ChangeStatus(newStatus); err != nil {
		return nil, err
	}

	if err := s.tenants.Update(ctx, tenant); err != nil {
		return nil, err
	}

	s.events.TenantStatusChanged(ctx, StatusChangedEvent{
		TenantID:       tenant.TenantID,
		PreviousStatus: previous,
		NewStatus:      newStatus,
		OccurredAt:     time.Now().UTC(),
	})

	return tenant, nil
}

// CompleteOnboardingStep marks a checklist step complete. Completion is
// idempotent; a repeat call returns the existing record unchanged.
// Returns store.ErrTenantNotFound for an unknown tenant.
func (s *ProvisioningService) CompleteOnboardingStep(ctx context.Context, tenantID uuid.UUID, step models.OnboardingStep, notes *string) (*models.ChecklistItem, error) {
	exists, err := s.tenants.Exists(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to check tenant: %w", err)
	}
	if !exists {
		return nil, store.ErrTenantNotFound
	}

	item, err := s.checklist.GetByTenantAndStep(ctx, tenantID, step)
	if err != nil {
		return nil, err
	}

	if !item.Complete(notes) {
		return item, nil
	}

	if err := s.checklist.Update(ctx, item); err != nil {
		return nil, err
	}

	return item, nil
}

// GetOnboardingProgress returns the checklist with completion counters.
// Returns store.ErrTenantNotFound for an unknown tenant.
func (s *ProvisioningService) GetOnboardingProgress(ctx context.Context, tenantID uuid.UUID) (*Progress, error) {
	exists, err := s.tenants.Exists(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to check tenant: %w", err)
	}
	if !exists {
		return nil, store.ErrTenantNotFound
	}

	items, err := s.checklist.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	completed, err := s.checklist.CountCompleted(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to count completed steps: %w", err)
	}

	total := len(models.OnboardingSteps)
	percentage := 0
	if total > 0 {
		percentage = completed * 100 / total
	}

	return &Progress{
		TotalSteps:     total,
		CompletedSteps: completed,
		Percentage:     percentage,
		Items:          items,
	}, nil
}

// GetTenant retrieves a tenant by id.
func (s *ProvisioningService) GetTenant(ctx context.Context, tenantID uuid.UUID) (*models.Tenant, error) {
	return s.tenants.Get(ctx, tenantID)
}

// ListTenants returns tenants, optionally filtered by status.
func (s *ProvisioningService) ListTenants(ctx context.Context, status *models.TenantStatus) ([]*models.Tenant, error) {
	return s.tenants.List(ctx, status)
}

// createWithChecklist persists the tenant, seeds its checklist, and
// auto-completes TENANT_CREATED.
func (s *ProvisioningService) createWithChecklist(ctx context.Context, tenant *models.Tenant) error {
	if err := s.tenants.Create(ctx, tenant); err != nil {
		return err
	}

	items, err := models.NewChecklist(tenant.TenantID)
	if err != nil {
		return err
	}
	if err := s.checklist.CreateAll(ctx, items); err != nil {
		return fmt.Errorf("failed to seed checklist: %w", err)
	}

	s.autoComplete(ctx, tenant.TenantID, models.StepTenantCreated)

	return nil
}

// autoComplete marks a step done as a provisioning side effect. It must
// tolerate repeat invocation; a failure is logged but never fails the
// provisioning operation that triggered it.
func (s *ProvisioningService) autoComplete(ctx context.Context, tenantID uuid.UUID, step models.OnboardingStep) {
	item, err := s.checklist.GetByTenantAndStep(ctx, tenantID, step)
	if err != nil {
		log.Warn().Err(err).
			Str("tenant_id", tenantID.String()).
			Str("step", string(step)).
			Msg("Failed to load checklist step for auto-completion")
		return
	}

	if !item.Complete(nil) {
		return
	}

	if err := s.checklist.Update(ctx, item); err != nil {
		log.Warn().Err(err).
			Str("tenant_id", tenantID.String()).
			Str("step", string(step)).
			Msg("Failed to auto-complete checklist step")
	}
}
