package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/liyaqa/platform/internal/models"
	"github.com/liyaqa/platform/internal/store"
)

// ExportStore implements store.ExportStore using in-memory storage.
// This implementation is for testing only - data is lost on restart.
type ExportStore struct {
	mu sync.Mutex

	jobs map[uuid.UUID]*models.ExportJob // job_id -> ExportJob
}

// NewExportStore creates a new in-memory export job store.
func NewExportStore() *ExportStore {
	return &ExportStore{
		jobs: make(map[uuid.UUID]*models.ExportJob),
	}
}

// Create persists a new export job.
func (s *ExportStore) Create(ctx context.Context, job *models.ExportJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *job
	s.jobs[job.JobID] = &clone

	return nil
}

// Get retrieves an export job by ID.
func (s *ExportStore) Get(ctx context.Context, jobID uuid.UUID) (*models.ExportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return nil, store.ErrExportJobNotFound
	}

	clone := *job
	return &clone, nil
}

// Update persists a modified export job.
func (s *ExportStore) Update(ctx context.Context, job *models.ExportJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.JobID]; !exists {
		return store.ErrExportJobNotFound
	}

	clone := *job
	s.jobs[job.JobID] = &clone

	return nil
}

// ListByTenant returns all export jobs for a tenant, newest first.
func (s *ExportStore) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*models.ExportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*models.ExportJob
	for _, job := range s.jobs {
		if job.TenantID == tenantID {
			clone := *job
			result = append(result, &clone)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

// ListByTenantAndStatus returns a tenant's jobs in the given status.
func (s *ExportStore) ListByTenantAndStatus(ctx context.Context, tenantID uuid.UUID, status models.ExportStatus) ([]*models.ExportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*models.ExportJob
	for _, job := range s.jobs {
		if job.TenantID == tenantID && job.Status == status {
			clone := *job
			result = append(result, &clone)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

// ExistsOutstanding reports whether the tenant has a PENDING or
// IN_PROGRESS job.
func (s *ExportStore) ExistsOutstanding(ctx context.Context, tenantID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, job := range s.jobs {
		if job.TenantID == tenantID && job.IsOutstanding() {
			return true, nil
		}
	}

	return false, nil
}

// Claim picks the oldest PENDING job and moves it to IN_PROGRESS under
// the store mutex, mirroring the row-locked claim of the postgres store.
func (s *ExportStore) Claim(ctx context.Context) (*models.ExportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var oldest *models.ExportJob
	for _, job := range s.jobs {
		if job.Status != models.ExportStatusPending {
			continue
		}
		if oldest == nil || job.CreatedAt.Before(oldest.CreatedAt) {
			oldest = job
		}
	}

	if oldest == nil {
		return nil, store.ErrNoPendingExport
	}

	if err := oldest.Start(); err != nil {
		return nil, err
	}

	clone := *oldest
	return &clone, nil
}
