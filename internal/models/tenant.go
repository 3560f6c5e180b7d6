package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TenantStatus represents a tenant's position in its lifecycle.
// Statuses are persisted as strings, never ordinals.
type TenantStatus string

const (
	TenantStatusProvisioning TenantStatus = "PROVISIONING"
	TenantStatusActive       TenantStatus = "ACTIVE"
	TenantStatusSuspended    TenantStatus = "SUSPENDED"
	TenantStatusDeactivated  TenantStatus = "DEACTIVATED"
	TenantStatusArchived     TenantStatus = "ARCHIVED"
)

// tenantTransitions is the single source of truth for legal status changes.
// Both the provisioning and offboarding services consult this table through
// Tenant.ChangeStatus; no service re-derives legality on its own.
var tenantTransitions = map[TenantStatus][]TenantStatus{
	TenantStatusProvisioning: {TenantStatusActive},
	TenantStatusActive:       {TenantStatusSuspended, TenantStatusDeactivated},
	TenantStatusSuspended:    {TenantStatusActive, TenantStatusDeactivated},
	TenantStatusDeactivated:  {TenantStatusArchived},
	TenantStatusArchived:     {},
}

// IsValid returns true if the status is one of the known lifecycle statuses.
func (s TenantStatus) IsValid() bool {
	_, ok := tenantTransitions[s]
	return ok
}

// CanTransitionTo returns true if the move from s to next is in the transition table.
func (s TenantStatus) CanTransitionTo(next TenantStatus) bool {
	for _, allowed := range tenantTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// InvalidTransitionError is returned when a status change is not in the
// transition table. The tenant is left unchanged.
type InvalidTransitionError struct {
	From TenantStatus
	To   TenantStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid tenant status transition: %s -> %s", e.From, e.To)
}

// Tenant is the aggregate root for a provisioned facility/customer.
// Tenants are never hard-deleted; the terminal state is ARCHIVED.
type Tenant struct {
	TenantID     uuid.UUID // UUIDv7
	FacilityName string
	ContactEmail string
	Subdomain    *string // globally unique when set

	// Sales attribution. At most one tenant per deal; this is the
	// idempotency key for provisioning from a deal.
	DealID *uuid.UUID

	// Set once the onboarding collaborator succeeds.
	OrganizationID *uuid.UUID
	ClubID         *uuid.UUID

	Status TenantStatus

	OnboardedBy        *uuid.UUID
	OnboardedAt        *time.Time
	DeactivatedAt      *time.Time
	DataRetentionUntil *time.Time

	// Version guards concurrent read-modify-write cycles. Stores reject
	// updates whose version does not match the stored row.
	Version int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewTenant creates a tenant in PROVISIONING.
func NewTenant(facilityName, contactEmail string) (*Tenant, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate tenant id: %w", err)
	}

	now := time.Now().UTC()
	return &Tenant{
		TenantID:     id,
		FacilityName: facilityName,
		ContactEmail: contactEmail,
		Status:       TenantStatusProvisioning,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ChangeStatus moves the tenant to next after validating against the
// transition table. On the PROVISIONING -> ACTIVE transition it stamps
// OnboardedAt; on a transition to DEACTIVATED it stamps DeactivatedAt.
// Returns *InvalidTransitionError and leaves the tenant untouched when
// the move is not legal.
func (t *Tenant) ChangeStatus(next TenantStatus) error {
	if !t.Status.CanTransitionTo(next) {
		return &InvalidTransitionError{From: t.Status, To: next}
	}

	now := time.Now().UTC()
	if t.Status == TenantStatusProvisioning && next == TenantStatusActive {
		t.OnboardedAt = &now
	}
	if next == TenantStatusDeactivated {
		t.DeactivatedAt = &now
	}

	t.Status = next
	t.UpdatedAt = now
	return nil
}

// Archive transitions the tenant to ARCHIVED and stamps the retention
// horizon. The caller is responsible for the completed-export precondition.
func (t *Tenant) Archive(retention time.Duration) error {
	if err := t.ChangeStatus(TenantStatusArchived); err != nil {
		return err
	}
	until := time.Now().UTC().Add(retention)
	t.DataRetentionUntil = &until
	return nil
}

// AttachOnboardingResult records the organization and club created by the
// onboarding collaborator.
func (t *Tenant) AttachOnboardingResult(organizationID, clubID uuid.UUID) {
	t.OrganizationID = &organizationID
	t.ClubID = &clubID
	t.UpdatedAt = time.Now().UTC()
}
