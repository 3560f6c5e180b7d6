package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ExportFormat selects the serialization used for a data export.
type ExportFormat string

const (
	ExportFormatJSON ExportFormat = "JSON"
	ExportFormatCSV  ExportFormat = "CSV"
)

// IsValid returns true for a known export format.
func (f ExportFormat) IsValid() bool {
	return f == ExportFormatJSON || f == ExportFormatCSV
}

// ExportStatus tracks the asynchronous lifecycle of an export job.
type ExportStatus string

const (
	ExportStatusPending    ExportStatus = "PENDING"
	ExportStatusInProgress ExportStatus = "IN_PROGRESS"
	ExportStatusCompleted  ExportStatus = "COMPLETED"
	ExportStatusFailed     ExportStatus = "FAILED"
)

// ExportJob is an asynchronous task producing a downloadable copy of a
// tenant's data. At most one job per tenant may be PENDING or IN_PROGRESS
// at a time, and archival requires at least one COMPLETED job.
type ExportJob struct {
	JobID       uuid.UUID // UUIDv7
	TenantID    uuid.UUID
	Format      ExportFormat
	Status      ExportStatus
	RequestedBy uuid.UUID
	Error       *string

	StartedAt   *time.Time
	CompletedAt *time.Time

	// Populated once the job reaches COMPLETED.
	DownloadURL *string
	SizeBytes   *int64

	CreatedAt time.Time
}

// NewExportJob creates a PENDING export job.
func NewExportJob(tenantID uuid.UUID, format ExportFormat, requestedBy uuid.UUID) (*ExportJob, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate export job id: %w", err)
	}
	return &ExportJob{
		JobID:       id,
		TenantID:    tenantID,
		Format:      format,
		Status:      ExportStatusPending,
		RequestedBy: requestedBy,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// Start moves the job from PENDING to IN_PROGRESS.
func (j *ExportJob) Start() error {
	if j.Status != ExportStatusPending {
		return fmt.Errorf("cannot start export job in status %s", j.Status)
	}
	now := time.Now().UTC()
	j.Status = ExportStatusInProgress
	j.StartedAt = &now
	return nil
}

// Complete records the produced artifact and moves the job to COMPLETED.
func (j *ExportJob) Complete(downloadURL string, sizeBytes int64) error {
	if j.Status != ExportStatusInProgress {
		return fmt.Errorf("cannot complete export job in status %s", j.Status)
	}
	now := time.Now().UTC()
	j.Status = ExportStatusCompleted
	j.CompletedAt = &now
	j.DownloadURL = &downloadURL
	j.SizeBytes = &sizeBytes
	return nil
}

// Fail moves the job to FAILED with the failure message. A FAILED job no
// longer blocks a new export request.
func (j *ExportJob) Fail(reason string) error {
	if j.Status != ExportStatusInProgress && j.Status != ExportStatusPending {
		return fmt.Errorf("cannot fail export job in status %s", j.Status)
	}
	now := time.Now().UTC()
	j.Status = ExportStatusFailed
	j.CompletedAt = &now
	j.Error = &reason
	return nil
}

// IsOutstanding returns true while the job blocks a new export request.
func (j *ExportJob) IsOutstanding() bool {
	return j.Status == ExportStatusPending || j.Status == ExportStatusInProgress
}
