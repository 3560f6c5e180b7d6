// Package onboarding creates the customer-side aggregates for a new
// tenant: the organization, its default club, and the first admin user.
package onboarding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/liyaqa/platform/internal/models"
	"github.com/liyaqa/platform/internal/store"
	"github.com/liyaqa/platform/internal/tenant"
)

// Service implements tenant.OnboardingProvider.
//
// Onboard is safe to call repeatedly for the same admin email: when the
// admin user already exists, the previously created aggregates are
// returned instead of new ones. This is what lets a half-provisioned
// tenant resume after a crash between onboarding and persisting its
// organization id.
type Service struct {
	orgs store.OrganizationStore

	// bcryptCost lets tests dial the hash cost down.
	bcryptCost int
}

// NewService creates the onboarding collaborator.
func NewService(orgs store.OrganizationStore) *Service {
	return &Service{
		orgs:       orgs,
		bcryptCost: bcrypt.DefaultCost,
	}
}

// Onboard creates an organization, a default club, and a bcrypt-hashed
// admin user, returning their ids.
func (s *Service) Onboard(ctx context.Context, cmd tenant.OnboardCommand) (*tenant.OnboardResult, error) {
	// Reconciliation path: a previous call may have created everything
	// before its caller could record the result.
	if existing, err := s.orgs.GetAdminUserByEmail(ctx, cmd.AdminEmail); err == nil {
		club, err := s.orgs.GetDefaultClub(ctx, existing.OrgID)
		if err != nil {
			return nil, fmt.Errorf("admin user exists but default club lookup failed: %w", err)
		}
		log.Info().
			Str("admin_email", cmd.AdminEmail).
			Str("org_id", existing.OrgID.String()).
			Msg("Onboarding already completed, returning existing aggregates")
		return &tenant.OnboardResult{
			OrganizationID: existing.OrgID,
			ClubID:         club.ClubID,
			AdminUserID:    existing.UserID,
		}, nil
	} else if !errors.Is(err, store.ErrAdminUserNotFound) {
		return nil, fmt.Errorf("failed to check for existing admin user: %w", err)
	}

	now := time.Now().UTC()

	orgID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate organization id: %w", err)
	}
	org := &models.Organization{
		OrgID:     orgID,
		Name:      cmd.FacilityName,
		Email:     cmd.AdminEmail,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.orgs.CreateOrganization(ctx, org); err != nil {
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	clubID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate club id: %w", err)
	}
	club := &models.Club{
		ClubID:    clubID,
		OrgID:     orgID,
		Name:      cmd.FacilityName,
		CreatedAt: now,
	}
	if err := s.orgs.CreateClub(ctx, club); err != nil {
		return nil, fmt.Errorf("failed to create club: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.AdminPassword), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash admin password: %w", err)
	}

	userID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate admin user id: %w", err)
	}
	user := &models.AdminUser{
		UserID:       userID,
		OrgID:        orgID,
		Email:        cmd.AdminEmail,
		PasswordHash: string(hash),
		DisplayName:  cmd.AdminDisplayName,
		CreatedAt:    now,
	}
	if err := s.orgs.CreateAdminUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create admin user: %w", err)
	}

	log.Info().
		Str("org_id", orgID.String()).
		Str("club_id", clubID.String()).
		Str("admin_email", cmd.AdminEmail).
		Msg("Onboarded new client")

	return &tenant.OnboardResult{
		OrganizationID: orgID,
		ClubID:         clubID,
		AdminUserID:    userID,
	}, nil
}
