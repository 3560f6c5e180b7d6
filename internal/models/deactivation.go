package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DeactivationReason is the closed taxonomy for suspension and
// deactivation events.
type DeactivationReason string

const (
	ReasonClientRequest DeactivationReason = "CLIENT_REQUEST"
	ReasonNonPayment    DeactivationReason = "NON_PAYMENT"
	ReasonContractEnded DeactivationReason = "CONTRACT_ENDED"
	ReasonFraud         DeactivationReason = "FRAUD"
	ReasonOther         DeactivationReason = "OTHER"
)

// IsValid returns true for a known deactivation reason.
func (r DeactivationReason) IsValid() bool {
	switch r {
	case ReasonClientRequest, ReasonNonPayment, ReasonContractEnded, ReasonFraud, ReasonOther:
		return true
	}
	return false
}

// DeactivationLog is one append-only audit row for a status-changing
// offboarding event. Rows are never mutated or deleted.
type DeactivationLog struct {
	LogID          uuid.UUID // UUIDv7
	TenantID       uuid.UUID
	Reason         DeactivationReason
	Notes          *string
	PreviousStatus TenantStatus
	NewStatus      TenantStatus
	PerformedBy    uuid.UUID
	Timestamp      time.Time
}

// NewDeactivationLog records a single offboarding event.
func NewDeactivationLog(tenantID uuid.UUID, reason DeactivationReason, notes *string, previous, next TenantStatus, performedBy uuid.UUID) (*DeactivationLog, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate deactivation log id: %w", err)
	}
	return &DeactivationLog{
		LogID:          id,
		TenantID:       tenantID,
		Reason:         reason,
		Notes:          notes,
		PreviousStatus: previous,
		NewStatus:      next,
		PerformedBy:    performedBy,
		Timestamp:      time.Now().UTC(),
	}, nil
}
