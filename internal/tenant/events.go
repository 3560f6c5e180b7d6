package tenant

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/liyaqa/platform/internal/models"
)

// ProvisionedEvent is emitted once a tenant has been fully provisioned.
// Downstream subscribers (billing activation, welcome email, analytics)
// consume it; the orchestrator does not depend on their outcomes.
type ProvisionedEvent struct {
	TenantID     uuid.UUID
	FacilityName string
	DealID       *uuid.UUID
	OccurredAt   time.Time
}

// StatusChangedEvent is emitted on every successful status transition.
type StatusChangedEvent struct {
	TenantID       uuid.UUID
	PreviousStatus models.TenantStatus
	NewStatus      models.TenantStatus
	OccurredAt     time.Time
}

// EventSink receives lifecycle events. Publishing is fire-and-forget:
// implementations must not block the calling operation and sink failures
// never fail the operation that produced the event.
type EventSink interface {
	TenantProvisioned(ctx context.Context, event ProvisionedEvent)
	TenantStatusChanged(ctx context.Context, event StatusChangedEvent)
}

// LogSink is an EventSink that writes events to the structured log. It is
// the default sink; deployments with a broker wrap or replace it.
type LogSink struct {
	logger zerolog.Logger
}

// NewLogSink creates an EventSink backed by the given logger.
func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) TenantProvisioned(ctx context.Context, event ProvisionedEvent) {
	entry := s.logger.Info().
		Str("event", "tenant_provisioned").
		Str("tenant_id", event.TenantID.String()).
		Str("facility_name", event.FacilityName)
	if event.DealID != nil {
		entry = entry.Str("deal_id", event.DealID.String())
	}
	entry.Msg("Tenant provisioned")
}

func (s *LogSink) TenantStatusChanged(ctx context.Context, event StatusChangedEvent) {
	s.logger.Info().
		Str("event", "tenant_status_changed").
		Str("tenant_id", event.TenantID.String()).
		Str("previous_status", string(event.PreviousStatus)).
		Str("new_status", string(event.NewStatus)).
		Msg("Tenant status changed")
}
