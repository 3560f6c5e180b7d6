package server

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/liyaqa/platform/internal/models"
	"github.com/liyaqa/platform/internal/tenant"
)

type offboardRequest struct {
	Reason models.DeactivationReason `json:"reason"`
	Notes  *string                   `json:"notes,omitempty"`
}

// suspendTenant handles POST /v1/tenants/:id/suspend.
func (s *Server) suspendTenant(c echo.Context) error {
	tenantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid tenant id")
	}

	var req offboardRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if !req.Reason.IsValid() {
		return badRequest(c, "unknown reason")
	}

	suspended, err := s.offboarding.SuspendTenant(c.Request().Context(), tenantID, tenant.SuspendTenantCommand{
		Reason: req.Reason,
		Notes:  req.Notes,
	})
	if err != nil {
		return renderError(c, err)
	}

	return c.JSON(http.StatusOK, newTenantResponse(suspended))
}

// deactivateTenant handles POST /v1/tenants/:id/deactivate.
func (s *Server) deactivateTenant(c echo.Context) error {
	tenantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid tenant id")
	}

	var req offboardRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if !req.Reason.IsValid() {
		return badRequest(c, "unknown reason")
	}

	deactivated, err := s.offboarding.DeactivateTenant(c.Request().Context(), tenantID, tenant.DeactivateTenantCommand{
		Reason: req.Reason,
		Notes:  req.Notes,
	})
	if err != nil {
		return renderError(c, err)
	}

	return c.JSON(http.StatusOK, newTenantResponse(deactivated))
}

// archiveTenant handles POST /v1/tenants/:id/archive.
func (s *Server) archiveTenant(c echo.Context) error {
	tenantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid tenant id")
	}

	archived, err := s.offboarding.ArchiveTenant(c.Request().Context(), tenantID)
	if err != nil {
		return renderError(c, err)
	}

	return c.JSON(http.StatusOK, newTenantResponse(archived))
}

// getDeactivationHistory handles GET /v1/tenants/:id/deactivation-history.
func (s *Server) getDeactivationHistory(c echo.Context) error {
	tenantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid tenant id")
	}

	history, err := s.offboarding.GetDeactivationHistory(c.Request().Context(), tenantID)
	if err != nil {
		return renderError(c, err)
	}

	items := make([]deactivationLogResponse, 0, len(history))
	for _, entry := range history {
		items = append(items, newDeactivationLogResponse(entry))
	}

	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

type requestExportRequest struct {
	Format models.ExportFormat `json:"format"`
}

// requestDataExport handles POST /v1/tenants/:id/exports.
func (s *Server) requestDataExport(c echo.Context) error {
	tenantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid tenant id")
	}

	var req requestExportRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Format == "" {
		req.Format = models.ExportFormatJSON
	}
	if !req.Format.IsValid() {
		return badRequest(c, "unknown export format")
	}

	job, err := s.offboarding.RequestDataExport(c.Request().Context(), tenantID, req.Format)
	if err != nil {
		return renderError(c, err)
	}

	return c.JSON(http.StatusAccepted, newExportJobResponse(job))
}

// listDataExports handles GET /v1/tenants/:id/exports.
func (s *Server) listDataExports(c echo.Context) error {
	tenantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid tenant id")
	}

	jobs, err := s.offboarding.GetDataExports(c.Request().Context(), tenantID)
	if err != nil {
		return renderError(c, err)
	}

	items := make([]exportJobResponse, 0, len(jobs))
	for _, job := range jobs {
		items = append(items, newExportJobResponse(job))
	}

	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// getDataExport handles GET /v1/exports/:jobId.
func (s *Server) getDataExport(c echo.Context) error {
	jobID, err := uuid.Parse(c.Param("jobId"))
	if err != nil {
		return badRequest(c, "invalid job id")
	}

	job, err := s.offboarding.GetDataExport(c.Request().Context(), jobID)
	if err != nil {
		return renderError(c, err)
	}

	return c.JSON(http.StatusOK, newExportJobResponse(job))
}
