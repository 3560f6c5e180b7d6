package server

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/liyaqa/platform/internal/models"
	"github.com/liyaqa/platform/internal/tenant"
)

type createTenantRequest struct {
	FacilityName string  `json:"facility_name"`
	ContactEmail string  `json:"contact_email"`
	Subdomain    *string `json:"subdomain,omitempty"`
}

// createTenant handles POST /v1/tenants.
func (s *Server) createTenant(c echo.Context) error {
	var req createTenantRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	req.FacilityName = strings.TrimSpace(req.FacilityName)
	req.ContactEmail = strings.TrimSpace(req.ContactEmail)
	if req.FacilityName == "" {
		return badRequest(c, "facility_name is required")
	}
	if req.ContactEmail == "" {
		return badRequest(c, "contact_email is required")
	}

	created, err := s.provisioning.ProvisionTenant(c.Request().Context(), tenant.ProvisionTenantCommand{
		FacilityName: req.FacilityName,
		ContactEmail: req.ContactEmail,
		Subdomain:    req.Subdomain,
	})
	if err != nil {
		return renderError(c, err)
	}

	return c.JSON(http.StatusCreated, newTenantResponse(created))
}

type provisionFromDealRequest struct {
	AdminEmail       string `json:"admin_email"`
	AdminPassword    string `json:"admin_password"`
	AdminDisplayName string `json:"admin_display_name"`
}

// provisionFromDeal handles POST /v1/tenants/from-deal/:dealId. The
// operation is idempotent: repeating it for the same deal returns the
// existing tenant with 200 instead of creating another one.
func (s *Server) provisionFromDeal(c echo.Context) error {
	dealID, err := uuid.Parse(c.Param("dealId"))
	if err != nil {
		return badRequest(c, "invalid deal id")
	}

	var req provisionFromDealRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if strings.TrimSpace(req.AdminEmail) == "" {
		return badRequest(c, "admin_email is required")
	}
	if req.AdminPassword == "" {
		return badRequest(c, "admin_password is required")
	}

	provisioned, err := s.provisioning.ProvisionFromDeal(c.Request().Context(), dealID, tenant.ProvisionFromDealCommand{
		AdminEmail:       strings.TrimSpace(req.AdminEmail),
		AdminPassword:    req.AdminPassword,
		AdminDisplayName: strings.TrimSpace(req.AdminDisplayName),
	})
	if err != nil {
		return renderError(c, err)
	}

	return c.JSON(http.StatusOK, newTenantResponse(provisioned))
}

// getTenant handles GET /v1/tenants/:id.
func (s *Server) getTenant(c echo.Context) error {
	tenantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid tenant id")
	}

	found, err := s.provisioning.GetTenant(c.Request().Context(), tenantID)
	if err != nil {
		return renderError(c, err)
	}

	return c.JSON(http.StatusOK, newTenantResponse(found))
}

// listTenants handles GET /v1/tenants with an optional status filter.
func (s *Server) listTenants(c echo.Context) error {
	var status *models.TenantStatus
	if raw := c.QueryParam("status"); raw != "" {
		candidate := models.TenantStatus(raw)
		if !candidate.IsValid() {
			return badRequest(c, "invalid status filter")
		}
		status = &candidate
	}

	tenants, err := s.provisioning.ListTenants(c.Request().Context(), status)
	if err != nil {
		return renderError(c, err)
	}

	items := make([]tenantResponse, 0, len(tenants))
	for _, t := range tenants {
		items = append(items, newTenantResponse(t))
	}

	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

type changeStatusRequest struct {
	Status models.TenantStatus `json:"status"`
}

// changeTenantStatus handles PUT /v1/tenants/:id/status.
func (s *Server) changeTenantStatus(c echo.Context) error {
	tenantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid tenant id")
	}

	var req changeStatusRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if !req.Status.IsValid() {
		return badRequest(c, "invalid status")
	}

	updated, err := s.provisioning.ChangeTenantStatus(c.Request().Context(), tenantID, req.Status)
	if err != nil {
		return renderError(c, err)
	}

	return c.JSON(http.StatusOK, newTenantResponse(updated))
}

// getOnboardingProgress handles GET /v1/tenants/:id/onboarding.
func (s *Server) getOnboardingProgress(c echo.Context) error {
	tenantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid tenant id")
	}

	progress, err := s.provisioning.GetOnboardingProgress(c.Request().Context(), tenantID)
	if err != nil {
		return renderError(c, err)
	}

	items := make([]checklistItemResponse, 0, len(progress.Items))
	for _, item := range progress.Items {
		items = append(items, newChecklistItemResponse(item))
	}

	return c.JSON(http.StatusOK, progressResponse{
		TotalSteps:     progress.TotalSteps,
		CompletedSteps: progress.CompletedSteps,
		Percentage:     progress.Percentage,
		Items:          items,
	})
}

type completeStepRequest struct {
	Notes *string `json:"notes,omitempty"`
}

// completeOnboardingStep handles PUT /v1/tenants/:id/onboarding/:step.
// Completing an already completed step is a no-op returning the existing
// record.
func (s *Server) completeOnboardingStep(c echo.Context) error {
	tenantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid tenant id")
	}

	step := models.OnboardingStep(c.Param("step"))
	if !step.IsValid() {
		return badRequest(c, "unknown onboarding step")
	}

	var req completeStepRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	item, err := s.provisioning.CompleteOnboardingStep(c.Request().Context(), tenantID, step, req.Notes)
	if err != nil {
		return renderError(c, err)
	}

	return c.JSON(http.StatusOK, newChecklistItemResponse(item))
}
