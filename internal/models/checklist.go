package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OnboardingStep identifies one step of the onboarding checklist.
// The set is closed and string-keyed so stored rows stay compatible
// when steps are added later.
type OnboardingStep string

const (
	StepDealWon               OnboardingStep = "DEAL_WON"
	StepTenantCreated         OnboardingStep = "TENANT_CREATED"
	StepAdminAccountCreated   OnboardingStep = "ADMIN_ACCOUNT_CREATED"
	StepSubscriptionActivated OnboardingStep = "SUBSCRIPTION_ACTIVATED"
	StepInitialConfigDone     OnboardingStep = "INITIAL_CONFIG_DONE"
	StepDataImported          OnboardingStep = "DATA_IMPORTED"
	StepTrainingScheduled     OnboardingStep = "TRAINING_SCHEDULED"
	StepGoLive                OnboardingStep = "GO_LIVE"
)

// OnboardingSteps lists every known step in checklist order.
var OnboardingSteps = []OnboardingStep{
	StepDealWon,
	StepTenantCreated,
	StepAdminAccountCreated,
	StepSubscriptionActivated,
	StepInitialConfigDone,
	StepDataImported,
	StepTrainingScheduled,
	StepGoLive,
}

// IsValid returns true if the step is one of the known onboarding steps.
func (s OnboardingStep) IsValid() bool {
	for _, known := range OnboardingSteps {
		if known == s {
			return true
		}
	}
	return false
}

// ChecklistItem tracks one onboarding step for one tenant.
// The (TenantID, Step) pair is unique; completion is monotonic.
type ChecklistItem struct {
	ItemID      uuid.UUID // UUIDv7
	TenantID    uuid.UUID
	Step        OnboardingStep
	Completed   bool
	CompletedAt *time.Time
	Notes       *string
	CreatedAt   time.Time
}

// NewChecklist returns one incomplete item per known step for the tenant.
// Called exactly once at tenant creation.
func NewChecklist(tenantID uuid.UUID) ([]*ChecklistItem, error) {
	now := time.Now().UTC()
	items := make([]*ChecklistItem, 0, len(OnboardingSteps))
	for _, step := range OnboardingSteps {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("failed to generate checklist item id: %w", err)
		}
		items = append(items, &ChecklistItem{
			ItemID:    id,
			TenantID:  tenantID,
			Step:      step,
			CreatedAt: now,
		})
	}
	return items, nil
}

// Complete marks the item done with the current timestamp. Completion is
// idempotent: a second call is a no-op and the first CompletedAt is kept.
// Returns true if the call changed the item.
func (i *ChecklistItem) Complete(notes *string) bool {
	if i.Completed {
		return false
	}
	now := time.Now().UTC()
	i.Completed = true
	i.CompletedAt = &now
	if notes != nil {
		i.Notes = notes
	}
	return true
}
