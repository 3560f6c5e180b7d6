package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/liyaqa/platform/internal/models"
)

// Sentinel errors for export job store operations
var (
	ErrExportJobNotFound = errors.New("export job not found")

	// ErrNoPendingExport is returned by Claim when no PENDING job is
	// available for pickup.
	ErrNoPendingExport = errors.New("no pending export job")

	// ErrExportOutstanding is returned by Create when the partial unique
	// index rejects a second outstanding job for the same tenant. It is
	// the race backstop behind the service-level precondition check.
	ErrExportOutstanding = errors.New("outstanding export job exists")
)

// ExportStore defines the interface for data export job storage.
type ExportStore interface {
	// Create persists a new export job.
	Create(ctx context.Context, job *models.ExportJob) error

	// Get retrieves an export job by id.
	// Returns ErrExportJobNotFound if the job doesn't exist.
	Get(ctx context.Context, jobID uuid.UUID) (*models.ExportJob, error)

	// Update persists a modified export job.
	// Returns ErrExportJobNotFound if the job doesn't exist.
	Update(ctx context.Context, job *models.ExportJob) error

	// ListByTenant returns all export jobs for a tenant, newest first.
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*models.ExportJob, error)

	// ListByTenantAndStatus returns a tenant's jobs in the given status.
	ListByTenantAndStatus(ctx context.Context, tenantID uuid.UUID, status models.ExportStatus) ([]*models.ExportJob, error)

	// ExistsOutstanding reports whether the tenant has a job in
	// PENDING or IN_PROGRESS.
	ExistsOutstanding(ctx context.Context, tenantID uuid.UUID) (bool, error)

	// Claim atomically picks one PENDING job and moves it to IN_PROGRESS
	// so that no two workers run the same export.
	// Returns ErrNoPendingExport when the queue is empty.
	Claim(ctx context.Context) (*models.ExportJob, error)
}
