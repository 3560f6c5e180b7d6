package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/liyaqa/platform/internal/models"
)

// Sentinel errors for organization-side store operations
var (
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrAdminUserNotFound    = errors.New("admin user not found")
	ErrUserAlreadyExists    = errors.New("user already exists")
)

// OrganizationStore persists the customer-side aggregates created by
// client onboarding: organizations, their clubs, and admin users.
type OrganizationStore interface {
	// CreateOrganization persists a new organization.
	CreateOrganization(ctx context.Context, org *models.Organization) error

	// CreateClub persists a new club under an organization.
	CreateClub(ctx context.Context, club *models.Club) error

	// CreateAdminUser persists the first staff account.
	// Returns ErrUserAlreadyExists if the email is already taken.
	CreateAdminUser(ctx context.Context, user *models.AdminUser) error

	// GetAdminUserByEmail retrieves an admin user by email.
	// Returns ErrAdminUserNotFound if no user has that email.
	GetAdminUserByEmail(ctx context.Context, email string) (*models.AdminUser, error)

	// GetDefaultClub retrieves the first club created for an organization.
	// Returns ErrOrganizationNotFound if the organization has no clubs.
	GetDefaultClub(ctx context.Context, orgID uuid.UUID) (*models.Club, error)
}

// SubscriptionStore is the port onto billing used to gate deactivation.
type SubscriptionStore interface {
	// ExistsActiveByOrganization reports whether the organization has an
	// active paid subscription.
	ExistsActiveByOrganization(ctx context.Context, orgID uuid.UUID) (bool, error)
}
