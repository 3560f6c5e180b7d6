package server

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/liyaqa/platform/internal/logger"
	"github.com/liyaqa/platform/internal/tenant"
)

// actorHeader carries the id of the platform user performing the request.
// It is set by the API gateway after authentication; requests without it
// run unattributed.
const actorHeader = "X-Actor-Id"

// Server wraps the HTTP surface over the tenant lifecycle services.
type Server struct {
	provisioning *tenant.ProvisioningService
	offboarding  *tenant.OffboardingService
}

// NewServer creates a new server with the given services.
func NewServer(provisioning *tenant.ProvisioningService, offboarding *tenant.OffboardingService) *Server {
	return &Server{
		provisioning: provisioning,
		offboarding:  offboarding,
	}
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler(log zerolog.Logger) http.Handler {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(logger.Requests(log))
	e.Use(resolveActor)

	// Health check endpoint for load balancer
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	v1 := e.Group("/v1")

	v1.POST("/tenants", s.createTenant)
	v1.GET("/tenants", s.listTenants)
	v1.GET("/tenants/:id", s.getTenant)
	v1.POST("/tenants/from-deal/:dealId", s.provisionFromDeal)
	v1.PUT("/tenants/:id/status", s.changeTenantStatus)

	v1.GET("/tenants/:id/onboarding", s.getOnboardingProgress)
	v1.PUT("/tenants/:id/onboarding/:step", s.completeOnboardingStep)

	v1.POST("/tenants/:id/suspend", s.suspendTenant)
	v1.POST("/tenants/:id/deactivate", s.deactivateTenant)
	v1.POST("/tenants/:id/archive", s.archiveTenant)
	v1.GET("/tenants/:id/deactivation-history", s.getDeactivationHistory)

	v1.POST("/tenants/:id/exports", s.requestDataExport)
	v1.GET("/tenants/:id/exports", s.listDataExports)
	v1.GET("/exports/:jobId", s.getDataExport)

	return e
}

// resolveActor copies the authenticated actor id from the request header
// into the context for audit stamping.
func resolveActor(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if raw := c.Request().Header.Get(actorHeader); raw != "" {
			if actorID, err := uuid.Parse(raw); err == nil {
				req := c.Request()
				c.SetRequest(req.WithContext(tenant.WithActor(req.Context(), actorID)))
			}
		}
		return next(c)
	}
}
