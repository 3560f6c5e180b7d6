package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/liyaqa/platform/internal/models"
	"github.com/liyaqa/platform/internal/store"
)

// DealStore implements store.DealStore using in-memory storage.
// This implementation is for testing only.
type DealStore struct {
	mu sync.RWMutex

	deals map[uuid.UUID]*models.Deal
}

// NewDealStore creates a new in-memory deal store.
func NewDealStore() *DealStore {
	return &DealStore{
		deals: make(map[uuid.UUID]*models.Deal),
	}
}

// Put stores or replaces a deal. Test helper; the production read path
// only uses Get.
func (s *DealStore) Put(deal *models.Deal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *deal
	s.deals[deal.DealID] = &clone
}

// Get retrieves a deal by ID.
func (s *DealStore) Get(ctx context.Context, dealID uuid.UUID) (*models.Deal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	deal, exists := s.deals[dealID]
	if !exists {
		return nil, store.ErrDealNotFound
	}

	clone := *deal
	return &clone, nil
}
