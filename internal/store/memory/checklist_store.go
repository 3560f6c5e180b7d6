package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/liyaqa/platform/internal/models"
	"github.com/liyaqa/platform/internal/store"
)

type checklistKey struct {
	tenantID uuid.UUID
	step     models.OnboardingStep
}

// ChecklistStore implements store.ChecklistStore using in-memory storage.
// This implementation is for testing only - data is lost on restart.
type ChecklistStore struct {
	mu sync.RWMutex

	items map[checklistKey]*models.ChecklistItem
}

// NewChecklistStore creates a new in-memory checklist store.
func NewChecklistStore() *ChecklistStore {
	return &ChecklistStore{
		items: make(map[checklistKey]*models.ChecklistItem),
	}
}

// CreateAll persists the seeded checklist in one batch.
func (s *ChecklistStore) CreateAll(ctx context.Context, items []*models.ChecklistItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range items {
		clone := *item
		s.items[checklistKey{item.TenantID, item.Step}] = &clone
	}

	return nil
}

// GetByTenantAndStep retrieves one checklist item.
func (s *ChecklistStore) GetByTenantAndStep(ctx context.Context, tenantID uuid.UUID, step models.OnboardingStep) (*models.ChecklistItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.items[checklistKey{tenantID, step}]
	if !exists {
		return nil, store.ErrChecklistItemNotFound
	}

	clone := *item
	return &clone, nil
}

// Update persists a modified checklist item.
func (s *ChecklistStore) Update(ctx context.Context, item *models.ChecklistItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := checklistKey{item.TenantID, item.Step}
	if _, exists := s.items[key]; !exists {
		return store.ErrChecklistItemNotFound
	}

	clone := *item
	s.items[key] = &clone

	return nil
}

// ListByTenant returns all checklist items for a tenant in step order.
func (s *ChecklistStore) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*models.ChecklistItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stepOrder := make(map[models.OnboardingStep]int, len(models.OnboardingSteps))
	for i, step := range models.OnboardingSteps {
		stepOrder[step] = i
	}

	var result []*models.ChecklistItem
	for key, item := range s.items {
		if key.tenantID == tenantID {
			clone := *item
			result = append(result, &clone)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return stepOrder[result[i].Step] < stepOrder[result[j].Step]
	})

	return result, nil
}

// CountCompleted returns the number of completed steps for a tenant.
func (s *ChecklistStore) CountCompleted(ctx context.Context, tenantID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for key, item := range s.items {
		if key.tenantID == tenantID && item.Completed {
			count++
		}
	}

	return count, nil
}
