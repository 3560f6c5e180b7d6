package models

import (
	"time"

	"github.com/google/uuid"
)

// DealStage is the sales-pipeline position of a deal. Only WON deals can
// be turned into tenants; how a deal reaches WON is owned by the sales
// pipeline, not by this module.
type DealStage string

const (
	DealStageLead        DealStage = "LEAD"
	DealStageQualified   DealStage = "QUALIFIED"
	DealStageProposal    DealStage = "PROPOSAL"
	DealStageNegotiation DealStage = "NEGOTIATION"
	DealStageWon         DealStage = "WON"
	DealStageLost        DealStage = "LOST"
)

// Deal is the contract the lifecycle orchestrator requires from the sales
// pipeline: the stage gate plus the fields seeding a new tenant.
type Deal struct {
	DealID       uuid.UUID
	Stage        DealStage
	FacilityName string
	ContactName  string
	ContactEmail string

	// Populated by conversion once a tenant is provisioned from the deal.
	ConvertedOrganizationID *uuid.UUID

	ClosedAt  *time.Time
	CreatedAt time.Time
}

// IsWon returns true once the deal has closed successfully.
func (d *Deal) IsWon() bool {
	return d.Stage == DealStageWon
}
