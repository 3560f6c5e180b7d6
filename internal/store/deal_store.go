package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/liyaqa/platform/internal/models"
)

// ErrDealNotFound is returned when a deal id is unknown.
var ErrDealNotFound = errors.New("deal not found")

// DealStore is the read-side port onto the sales pipeline. The lifecycle
// orchestrator only ever loads deals; pipeline progression is owned
// elsewhere.
type DealStore interface {
	// Get retrieves a deal by id.
	// Returns ErrDealNotFound if the deal doesn't exist.
	Get(ctx context.Context, dealID uuid.UUID) (*models.Deal, error)
}
