package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/liyaqa/platform/internal/models"
)

// DeactivationLogStore defines the interface for the append-only audit
// trail of suspension and deactivation events. There is no update or
// delete: rows are immutable once written.
type DeactivationLogStore interface {
	// Append writes one audit row.
	Append(ctx context.Context, entry *models.DeactivationLog) error

	// ListByTenant returns a tenant's audit rows, newest first.
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*models.DeactivationLog, error)
}
