package tenant

import (
	"errors"
	"fmt"

	"github.com/liyaqa/platform/internal/models"
	"github.com/liyaqa/platform/internal/store"
)

// Precondition errors. All checks run before any mutation, so a caller
// receiving one of these may safely retry.
var (
	// ErrDealNotWon is returned when provisioning from a deal that has
	// not reached the WON stage.
	ErrDealNotWon = errors.New("deal is not in WON stage")

	// ErrActiveSubscriptionExists blocks deactivation while the tenant's
	// organization still has an active paid subscription.
	ErrActiveSubscriptionExists = errors.New("organization has an active subscription")

	// ErrExportInProgress is returned when a data export is requested
	// while another one is still PENDING or IN_PROGRESS.
	ErrExportInProgress = errors.New("data export already in progress")

	// ErrExportRequired blocks archival until at least one export job
	// has COMPLETED for the tenant.
	ErrExportRequired = errors.New("completed data export required before archival")
)

// CollaboratorError wraps a failure of the onboarding collaborator. The
// tenant is intentionally left in PROVISIONING; retrying the same deal
// resumes provisioning rather than duplicating it.
type CollaboratorError struct {
	Err error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("onboarding collaborator failed: %v", e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// ErrorCode maps an error to a stable, user-visible code so the API
// layer can render a specific message per kind.
func ErrorCode(err error) string {
	var invalid *models.InvalidTransitionError
	var collaborator *CollaboratorError

	switch {
	case errors.Is(err, store.ErrTenantNotFound):
		return "TENANT_NOT_FOUND"
	case errors.Is(err, store.ErrDealNotFound):
		return "DEAL_NOT_FOUND"
	case errors.Is(err, store.ErrExportJobNotFound):
		return "EXPORT_JOB_NOT_FOUND"
	case errors.Is(err, store.ErrChecklistItemNotFound):
		return "ONBOARDING_STEP_NOT_FOUND"
	case errors.Is(err, store.ErrTenantAlreadyExists):
		return "TENANT_ALREADY_EXISTS"
	case errors.Is(err, store.ErrTenantConflict):
		return "TENANT_CONFLICT"
	case errors.Is(err, ErrDealNotWon):
		return "DEAL_NOT_WON"
	case errors.Is(err, ErrActiveSubscriptionExists):
		return "ACTIVE_SUBSCRIPTION_EXISTS"
	case errors.Is(err, ErrExportInProgress), errors.Is(err, store.ErrExportOutstanding):
		return "DATA_EXPORT_IN_PROGRESS"
	case errors.Is(err, ErrExportRequired):
		return "DATA_EXPORT_REQUIRED"
	case errors.As(err, &invalid):
		return "INVALID_STATUS_TRANSITION"
	case errors.As(err, &collaborator):
		return "ONBOARDING_FAILED"
	default:
		return "INTERNAL"
	}
}
