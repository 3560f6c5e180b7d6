package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/liyaqa/platform/internal/models"
	"github.com/liyaqa/platform/internal/store"
)

// OrganizationStore implements store.OrganizationStore using PostgreSQL.
type OrganizationStore struct {
	pool *pgxpool.Pool
}

// NewOrganizationStore creates a new PostgreSQL-backed organization store.
func NewOrganizationStore(pool *pgxpool.Pool) *OrganizationStore {
	return &OrganizationStore{
		pool: pool,
	}
}

// CreateOrganization persists a new organization.
func (s *OrganizationStore) CreateOrganization(ctx context.Context, org *models.Organization) error {
	query := `
		INSERT INTO organizations (org_id, name, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.pool.Exec(ctx, query,
		org.OrgID,
		org.Name,
		org.Email,
		org.CreatedAt,
		org.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create organization: %w", err)
	}

	log.Debug().
		Str("org_id", org.OrgID.String()).
		Str("name", org.Name).
		Msg("Created organization")

	return nil
}

// CreateClub persists a new club under an organization.
func (s *OrganizationStore) CreateClub(ctx context.Context, club *models.Club) error {
	query := `
		INSERT INTO clubs (club_id, org_id, name, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := s.pool.Exec(ctx, query,
		club.ClubID,
		club.OrgID,
		club.Name,
		club.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrOrganizationNotFound
		}
		return fmt.Errorf("failed to create club: %w", err)
	}

	return nil
}

// CreateAdminUser persists the first staff account.
func (s *OrganizationStore) CreateAdminUser(ctx context.Context, user *models.AdminUser) error {
	query := `
		INSERT INTO admin_users (user_id, org_id, email, password_hash, display_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.pool.Exec(ctx, query,
		user.UserID,
		user.OrgID,
		user.Email,
		user.PasswordHash,
		user.DisplayName,
		user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "admin_users_email_key") {
			return store.ErrUserAlreadyExists
		}
		if isForeignKeyViolation(err) {
			return store.ErrOrganizationNotFound
		}
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	return nil
}

// GetAdminUserByEmail retrieves an admin user by email.
func (s *OrganizationStore) GetAdminUserByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	query := `
		SELECT user_id, org_id, email, password_hash, display_name, created_at
		FROM admin_users
		WHERE lower(email) = lower($1)
	`

	var user models.AdminUser
	err := s.pool.QueryRow(ctx, query, email).Scan(
		&user.UserID,
		&user.OrgID,
		&user.Email,
		&user.PasswordHash,
		&user.DisplayName,
		&user.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrAdminUserNotFound
		}
		return nil, fmt.Errorf("failed to get admin user: %w", err)
	}

	return &user, nil
}

// GetDefaultClub retrieves the oldest club created for an organization.
func (s *OrganizationStore) GetDefaultClub(ctx context.Context, orgID uuid.UUID) (*models.Club, error) {
	query := `
		SELECT club_id, org_id, name, created_at
		FROM clubs
		WHERE org_id = $1
		ORDER BY created_at
		LIMIT 1
	`

	var club models.Club
	err := s.pool.QueryRow(ctx, query, orgID).Scan(
		&club.ClubID,
		&club.OrgID,
		&club.Name,
		&club.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to get default club: %w", err)
	}

	return &club, nil
}

// SubscriptionStore implements store.SubscriptionStore using PostgreSQL.
type SubscriptionStore struct {
	pool *pgxpool.Pool
}

// NewSubscriptionStore creates a new PostgreSQL-backed subscription store.
func NewSubscriptionStore(pool *pgxpool.Pool) *SubscriptionStore {
	return &SubscriptionStore{
		pool: pool,
	}
}

// ExistsActiveByOrganization reports whether the organization has an
// active paid subscription.
func (s *SubscriptionStore) ExistsActiveByOrganization(ctx context.Context, orgID uuid.UUID) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM client_subscriptions
			WHERE org_id = $1 AND status = 'ACTIVE'
		)
	`, orgID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check active subscriptions: %w", err)
	}
	return exists, nil
}
