package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/liyaqa/platform/internal/models"
	"github.com/liyaqa/platform/internal/tenant"
)

// errorResponse is the uniform error body. Code is one of the stable
// error codes from tenant.ErrorCode so clients can branch without
// parsing messages.
type errorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// statusForCode maps stable error codes to HTTP statuses. Precondition
// failures are 422: the request was well-formed but the tenant's current
// state does not allow it.
var statusForCode = map[string]int{
	"TENANT_NOT_FOUND":           http.StatusNotFound,
	"DEAL_NOT_FOUND":             http.StatusNotFound,
	"EXPORT_JOB_NOT_FOUND":       http.StatusNotFound,
	"ONBOARDING_STEP_NOT_FOUND":  http.StatusNotFound,
	"TENANT_ALREADY_EXISTS":      http.StatusConflict,
	"TENANT_CONFLICT":            http.StatusConflict,
	"DEAL_NOT_WON":               http.StatusUnprocessableEntity,
	"INVALID_STATUS_TRANSITION":  http.StatusUnprocessableEntity,
	"ACTIVE_SUBSCRIPTION_EXISTS": http.StatusUnprocessableEntity,
	"DATA_EXPORT_IN_PROGRESS":    http.StatusUnprocessableEntity,
	"DATA_EXPORT_REQUIRED":       http.StatusUnprocessableEntity,
	"ONBOARDING_FAILED":          http.StatusBadGateway,
}

// renderError maps a service error to its HTTP response.
func renderError(c echo.Context, err error) error {
	code := tenant.ErrorCode(err)
	status, ok := statusForCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	return c.JSON(status, errorResponse{Code: code, Error: err.Error()})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, errorResponse{Code: "BAD_REQUEST", Error: msg})
}

type tenantResponse struct {
	TenantID           uuid.UUID           `json:"tenant_id"`
	FacilityName       string              `json:"facility_name"`
	ContactEmail       string              `json:"contact_email"`
	Subdomain          *string             `json:"subdomain,omitempty"`
	DealID             *uuid.UUID          `json:"deal_id,omitempty"`
	OrganizationID     *uuid.UUID          `json:"organization_id,omitempty"`
	ClubID             *uuid.UUID          `json:"club_id,omitempty"`
	Status             models.TenantStatus `json:"status"`
	OnboardedBy        *uuid.UUID          `json:"onboarded_by,omitempty"`
	OnboardedAt        *time.Time          `json:"onboarded_at,omitempty"`
	DeactivatedAt      *time.Time          `json:"deactivated_at,omitempty"`
	DataRetentionUntil *time.Time          `json:"data_retention_until,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

func newTenantResponse(t *models.Tenant) tenantResponse {
	return tenantResponse{
		TenantID:           t.TenantID,
		FacilityName:       t.FacilityName,
		ContactEmail:       t.ContactEmail,
		Subdomain:          t.Subdomain,
		DealID:             t.DealID,
		OrganizationID:     t.OrganizationID,
		ClubID:             t.ClubID,
		Status:             t.Status,
		OnboardedBy:        t.OnboardedBy,
		OnboardedAt:        t.OnboardedAt,
		DeactivatedAt:      t.DeactivatedAt,
		DataRetentionUntil: t.DataRetentionUntil,
		CreatedAt:          t.CreatedAt,
		UpdatedAt:          t.UpdatedAt,
	}
}

type checklistItemResponse struct {
	ItemID      uuid.UUID             `json:"item_id"`
	Step        models.OnboardingStep `json:"step"`
	Completed   bool                  `json:"completed"`
	CompletedAt *time.Time            `json:"completed_at,omitempty"`
	Notes       *string               `json:"notes,omitempty"`
}

func newChecklistItemResponse(item *models.ChecklistItem) checklistItemResponse {
	return checklistItemResponse{
		ItemID:      item.ItemID,
		Step:        item.Step,
		Completed:   item.Completed,
		CompletedAt: item.CompletedAt,
		Notes:       item.Notes,
	}
}

type progressResponse struct {
	TotalSteps     int                     `json:"total_steps"`
	CompletedSteps int                     `json:"completed_steps"`
	Percentage     int                     `json:"percentage"`
	Items          []checklistItemResponse `json:"items"`
}

type exportJobResponse struct {
	JobID       uuid.UUID           `json:"job_id"`
	TenantID    uuid.UUID           `json:"tenant_id"`
	Format      models.ExportFormat `json:"format"`
	Status      models.ExportStatus `json:"status"`
	RequestedBy uuid.UUID           `json:"requested_by"`
	Error       *string             `json:"error,omitempty"`
	StartedAt   *time.Time          `json:"started_at,omitempty"`
	CompletedAt *time.Time          `json:"completed_at,omitempty"`
	DownloadURL *string             `json:"download_url,omitempty"`
	SizeBytes   *int64              `json:"size_bytes,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
}

func newExportJobResponse(job *models.ExportJob) exportJobResponse {
	return exportJobResponse{
		JobID:       job.JobID,
		TenantID:    job.TenantID,
		Format:      job.Format,
		Status:      job.Status,
		RequestedBy: job.RequestedBy,
		Error:       job.Error,
		StartedAt:   job.StartedAt,
		CompletedAt: job.CompletedAt,
		DownloadURL: job.DownloadURL,
		SizeBytes:   job.SizeBytes,
		CreatedAt:   job.CreatedAt,
	}
}

type deactivationLogResponse struct {
	LogID          uuid.UUID                 `json:"log_id"`
	Reason         models.DeactivationReason `json:"reason"`
	Notes          *string                   `json:"notes,omitempty"`
	PreviousStatus models.TenantStatus       `json:"previous_status"`
	NewStatus      models.TenantStatus       `json:"new_status"`
	PerformedBy    uuid.UUID                 `json:"performed_by"`
	Timestamp      time.Time                 `json:"timestamp"`
}

func newDeactivationLogResponse(entry *models.DeactivationLog) deactivationLogResponse {
	return deactivationLogResponse{
		LogID:          entry.LogID,
		Reason:         entry.Reason,
		Notes:          entry.Notes,
		PreviousStatus: entry.PreviousStatus,
		NewStatus:      entry.NewStatus,
		PerformedBy:    entry.PerformedBy,
		Timestamp:      entry.Timestamp,
	}
}
