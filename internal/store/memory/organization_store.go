package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/liyaqa/platform/internal/models"
	"github.com/liyaqa/platform/internal/store"
)

// OrganizationStore implements store.OrganizationStore using in-memory
// storage. This implementation is for testing only.
type OrganizationStore struct {
	mu sync.RWMutex

	organizations map[uuid.UUID]*models.Organization
	clubs         map[uuid.UUID]*models.Club
	users         map[string]*models.AdminUser // lower(email) -> AdminUser
}

// NewOrganizationStore creates a new in-memory organization store.
func NewOrganizationStore() *OrganizationStore {
	return &OrganizationStore{
		organizations: make(map[uuid.UUID]*models.Organization),
		clubs:         make(map[uuid.UUID]*models.Club),
		users:         make(map[string]*models.AdminUser),
	}
}

// CreateOrganization persists a new organization.
func (s *OrganizationStore) CreateOrganization(ctx context.Context, org *models.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *org
	s.organizations[org.OrgID] = &clone

	return nil
}

// CreateClub persists a new club under an organization.
func (s *OrganizationStore) CreateClub(ctx context.Context, club *models.Club) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.organizations[club.OrgID]; !exists {
		return store.ErrOrganizationNotFound
	}

	clone := *club
	s.clubs[club.ClubID] = &clone

	return nil
}

// CreateAdminUser persists the first staff account.
func (s *OrganizationStore) CreateAdminUser(ctx context.Context, user *models.AdminUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(user.Email)
	if _, exists := s.users[key]; exists {
		return store.ErrUserAlreadyExists
	}

	clone := *user
	s.users[key] = &clone

	return nil
}

// GetAdminUserByEmail retrieves an admin user by email.
func (s *OrganizationStore) GetAdminUserByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.users[strings.ToLower(email)]
	if !exists {
		return nil, store.ErrAdminUserNotFound
	}

	clone := *user
	return &clone, nil
}

// GetDefaultClub retrieves the oldest club created for an organization.
func (s *OrganizationStore) GetDefaultClub(ctx context.Context, orgID uuid.UUID) (*models.Club, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var oldest *models.Club
	for _, club := range s.clubs {
		if club.OrgID != orgID {
			continue
		}
		if oldest == nil || club.CreatedAt.Before(oldest.CreatedAt) {
			oldest = club
		}
	}

	if oldest == nil {
		return nil, store.ErrOrganizationNotFound
	}

	clone := *oldest
	return &clone, nil
}

// SubscriptionStore implements store.SubscriptionStore using in-memory
// storage. Tests flip the active set directly.
type SubscriptionStore struct {
	mu sync.RWMutex

	active map[uuid.UUID]bool // org_id -> has active paid subscription
}

// NewSubscriptionStore creates a new in-memory subscription store.
func NewSubscriptionStore() *SubscriptionStore {
	return &SubscriptionStore{
		active: make(map[uuid.UUID]bool),
	}
}

// SetActive marks whether an organization has an active paid subscription.
func (s *SubscriptionStore) SetActive(orgID uuid.UUID, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.active[orgID] = active
}

// ExistsActiveByOrganization reports whether the organization has an
// active paid subscription.
func (s *SubscriptionStore) ExistsActiveByOrganization(ctx context.Context, orgID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.active[orgID], nil
}
