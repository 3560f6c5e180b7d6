package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/liyaqa/platform/internal/models"
)

// DeactivationLogStore implements store.DeactivationLogStore using
// in-memory storage. This implementation is for testing only.
type DeactivationLogStore struct {
	mu sync.RWMutex

	entries []*models.DeactivationLog
}

// NewDeactivationLogStore creates a new in-memory deactivation log store.
func NewDeactivationLogStore() *DeactivationLogStore {
	return &DeactivationLogStore{}
}

// Append writes one audit row.
func (s *DeactivationLogStore) Append(ctx context.Context, entry *models.DeactivationLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *entry
	s.entries = append(s.entries, &clone)

	return nil
}

// ListByTenant returns a tenant's audit rows, newest first.
func (s *DeactivationLogStore) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*models.DeactivationLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.DeactivationLog
	for _, entry := range s.entries {
		if entry.TenantID == tenantID {
			clone := *entry
			result = append(result, &clone)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp.After(result[j].Timestamp)
	})

	return result, nil
}
