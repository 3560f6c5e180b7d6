package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/liyaqa/platform/internal/models"
)

// ErrChecklistItemNotFound is returned when no row exists for a
// (tenant, step) pair.
var ErrChecklistItemNotFound = errors.New("checklist item not found")

// ChecklistStore defines the interface for onboarding checklist storage.
type ChecklistStore interface {
	// CreateAll persists the seeded checklist in one batch.
	CreateAll(ctx context.Context, items []*models.ChecklistItem) error

	// GetByTenantAndStep retrieves one checklist item.
	// Returns ErrChecklistItemNotFound if the pair is unknown.
	GetByTenantAndStep(ctx context.Context, tenantID uuid.UUID, step models.OnboardingStep) (*models.ChecklistItem, error)

	// Update persists a modified checklist item.
	// Returns ErrChecklistItemNotFound if the item doesn't exist.
	Update(ctx context.Context, item *models.ChecklistItem) error

	// ListByTenant returns all checklist items for a tenant in step order.
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*models.ChecklistItem, error)

	// CountCompleted returns the number of completed steps for a tenant.
	CountCompleted(ctx context.Context, tenantID uuid.UUID) (int, error)
}
