package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/liyaqa/platform/internal/models"
	"github.com/liyaqa/platform/internal/store"
)

// ExportStore implements store.ExportStore using PostgreSQL.
type ExportStore struct {
	pool *pgxpool.Pool
}

// NewExportStore creates a new PostgreSQL-backed export job store.
func NewExportStore(pool *pgxpool.Pool) *ExportStore {
	return &ExportStore{
		pool: pool,
	}
}

const exportColumns = `
	job_id, tenant_id, format, status, requested_by, error,
	started_at, completed_at, download_url, size_bytes, created_at
`

// Create persists a new export job. The partial unique index on
// outstanding jobs is the backstop for the one-outstanding-job invariant
// under concurrent requests.
func (s *ExportStore) Create(ctx context.Context, job *models.ExportJob) error {
	query := `
		INSERT INTO export_jobs (` + exportColumns + `) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
	`

	_, err := s.pool.Exec(ctx, query,
		job.JobID,
		job.TenantID,
		job.Format,
		job.Status,
		job.RequestedBy,
		job.Error,
		job.StartedAt,
		job.CompletedAt,
		job.DownloadURL,
		job.SizeBytes,
		job.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err, "export_jobs_outstanding_key") {
			return fmt.Errorf("tenant %s: %w", job.TenantID, store.ErrExportOutstanding)
		}
		if isForeignKeyViolation(err) {
			return store.ErrTenantNotFound
		}
		return fmt.Errorf("failed to create export job: %w", err)
	}

	log.Debug().
		Str("job_id", job.JobID.String()).
		Str("tenant_id", job.TenantID.String()).
		Str("format", string(job.Format)).
		Msg("Created export job")

	return nil
}

// Get retrieves an export job by ID.
func (s *ExportStore) Get(ctx context.Context, jobID uuid.UUID) (*models.ExportJob, error) {
	query := `SELECT ` + exportColumns + ` FROM export_jobs WHERE job_id = $1`

	job, err := scanExportJob(s.pool.QueryRow(ctx, query, jobID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrExportJobNotFound
		}
		return nil, err
	}
	return job, nil
}

// Update persists a modified export job.
func (s *ExportStore) Update(ctx context.Context, job *models.ExportJob) error {
	query := `
		UPDATE export_jobs SET
			status = $2,
			error = $3,
			started_at = $4,
			completed_at = $5,
			download_url = $6,
			size_bytes = $7
		WHERE job_id = $1
	`

	result, err := s.pool.Exec(ctx, query,
		job.JobID,
		job.Status,
		job.Error,
		job.StartedAt,
		job.CompletedAt,
		job.DownloadURL,
		job.SizeBytes,
	)
	if err != nil {
		return fmt.Errorf("failed to update export job: %w", err)
	}

	if result.RowsAffected() == 0 {
		return store.ErrExportJobNotFound
	}

	return nil
}

// ListByTenant returns all export jobs for a tenant, newest first.
func (s *ExportStore) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*models.ExportJob, error) {
	query := `SELECT ` + exportColumns + ` FROM export_jobs WHERE tenant_id = $1 ORDER BY created_at DESC`
	return s.list(ctx, query, tenantID)
}

// ListByTenantAndStatus returns a tenant's jobs in the given status.
func (s *ExportStore) ListByTenantAndStatus(ctx context.Context, tenantID uuid.UUID, status models.ExportStatus) ([]*models.ExportJob, error) {
	query := `SELECT ` + exportColumns + ` FROM export_jobs WHERE tenant_id = $1 AND status = $2 ORDER BY created_at DESC`
	return s.list(ctx, query, tenantID, status)
}

// ExistsOutstanding reports whether the tenant has a PENDING or
// IN_PROGRESS job.
func (s *ExportStore) ExistsOutstanding(ctx context.Context, tenantID uuid.UUID) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM export_jobs
			WHERE tenant_id = $1 AND status IN ('PENDING', 'IN_PROGRESS')
		)
	`, tenantID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check outstanding exports: %w", err)
	}
	return exists, nil
}

// Claim picks the oldest PENDING job and moves it to IN_PROGRESS using
// SELECT FOR UPDATE SKIP LOCKED, so concurrent workers never claim the
// same job.
func (s *ExportStore) Claim(ctx context.Context) (*models.ExportJob, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin claim transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback is safe to call after commit

	query := `
		SELECT ` + exportColumns + `
		FROM export_jobs
		WHERE status = 'PENDING'
		ORDER BY created_at
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	`

	job, err := scanExportJob(tx.QueryRow(ctx, query))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNoPendingExport
		}
		return nil, err
	}

	now := time.Now().UTC()
	job.Status = models.ExportStatusInProgress
	job.StartedAt = &now

	if _, err := tx.Exec(ctx, `
		UPDATE export_jobs SET status = 'IN_PROGRESS', started_at = $2 WHERE job_id = $1
	`, job.JobID, now); err != nil {
		return nil, fmt.Errorf("failed to claim export job: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit claim: %w", err)
	}

	log.Debug().
		Str("job_id", job.JobID.String()).
		Str("tenant_id", job.TenantID.String()).
		Msg("Claimed export job")

	return job, nil
}

func (s *ExportStore) list(ctx context.Context, query string, args ...any) ([]*models.ExportJob, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list export jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.ExportJob
	for rows.Next() {
		job, err := scanExportJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating export jobs: %w", err)
	}

	return jobs, nil
}

func scanExportJob(row pgx.Row) (*models.ExportJob, error) {
	var job models.ExportJob
	err := row.Scan(
		&job.JobID,
		&job.TenantID,
		&job.Format,
		&job.Status,
		&job.RequestedBy,
		&job.Error,
		&job.StartedAt,
		&job.CompletedAt,
		&job.DownloadURL,
		&job.SizeBytes,
		&job.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan export job: %w", err)
	}
	return &job, nil
}
