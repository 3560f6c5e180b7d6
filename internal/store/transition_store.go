package store

import (
	"context"

	"github.com/liyaqa/platform/internal/models"
)

// TransitionStore applies an offboarding status change together with its
// audit row in one atomic write. Either the tenant update and the
// deactivation log entry both land, or neither does; a failed call leaves
// the stored tenant untouched.
type TransitionStore interface {
	// Transition persists the modified tenant and appends the audit row.
	// Returns ErrTenantConflict if the tenant's stored version no longer
	// matches, ErrTenantNotFound if the tenant doesn't exist.
	Transition(ctx context.Context, tenant *models.Tenant, entry *models.DeactivationLog) error
}
