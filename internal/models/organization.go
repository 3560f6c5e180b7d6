package models

import (
	"time"

	"github.com/google/uuid"
)

// Organization is the customer-side account created when a tenant is
// onboarded. Each organization owns one or more clubs.
type Organization struct {
	OrgID     uuid.UUID // UUIDv7
	Name      string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Club is a single facility/location belonging to an organization. Every
// onboarded organization starts with one default club.
type Club struct {
	ClubID    uuid.UUID // UUIDv7
	OrgID     uuid.UUID
	Name      string
	CreatedAt time.Time
}

// AdminUser is the first staff account for an onboarded organization.
type AdminUser struct {
	UserID       uuid.UUID // UUIDv7
	OrgID        uuid.UUID
	Email        string
	PasswordHash string // bcrypt
	DisplayName  string
	CreatedAt    time.Time
}
