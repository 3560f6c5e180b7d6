package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/liyaqa/platform/internal/models"
	"github.com/liyaqa/platform/internal/onboarding"
	"github.com/liyaqa/platform/internal/store/memory"
	"github.com/liyaqa/platform/internal/tenant"
)

type serverFixture struct {
	handler       http.Handler
	tenants       *memory.TenantStore
	deals         *memory.DealStore
	exports       *memory.ExportStore
	subscriptions *memory.SubscriptionStore
}

func newServerFixture() *serverFixture {
	f := &serverFixture{
		tenants:       memory.NewTenantStore(),
		deals:         memory.NewDealStore(),
		exports:       memory.NewExportStore(),
		subscriptions: memory.NewSubscriptionStore(),
	}

	checklist := memory.NewChecklistStore()
	logs := memory.NewDeactivationLogStore()
	organizations := memory.NewOrganizationStore()

	actors := tenant.ContextActorResolver{}
	events := tenant.NewLogSink(zerolog.Nop())

	provisioning := tenant.NewProvisioningService(
		f.tenants, checklist, f.deals,
		onboarding.NewService(organizations),
		actors, events,
	)
	offboarding := tenant.NewOffboardingService(
		f.tenants, logs,
		memory.NewTransitionStore(f.tenants, logs),
		f.exports, f.subscriptions,
		actors, events, 0,
	)

	f.handler = NewServer(provisioning, offboarding).Handler(zerolog.Nop())
	return f
}

func (f *serverFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(actorHeader, uuid.Must(uuid.NewV7()).String())

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func (f *serverFixture) createActiveTenant(t *testing.T) uuid.UUID {
	t.Helper()

	rec := f.do(t, http.MethodPost, "/v1/tenants", map[string]any{
		"facility_name": "Iron Works Gym",
		"contact_email": "owner@ironworks.example",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[tenantResponse](t, rec)

	rec = f.do(t, http.MethodPut, fmt.Sprintf("/v1/tenants/%s/status", created.TenantID), map[string]any{
		"status": "ACTIVE",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	return created.TenantID
}

func TestHealth(t *testing.T) {
	f := newServerFixture()
	rec := f.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateTenantEndpoint(t *testing.T) {
	t.Run("creates tenant", func(t *testing.T) {
		f := newServerFixture()
		rec := f.do(t, http.MethodPost, "/v1/tenants", map[string]any{
			"facility_name": "Iron Works Gym",
			"contact_email": "owner@ironworks.example",
			"subdomain":     "ironworks",
		})
		require.Equal(t, http.StatusCreated, rec.Code)

		created := decode[tenantResponse](t, rec)
		require.Equal(t, models.TenantStatusProvisioning, created.Status)
		require.Equal(t, "ironworks", *created.Subdomain)
	})

	t.Run("missing fields rejected", func(t *testing.T) {
		f := newServerFixture()
		rec := f.do(t, http.MethodPost, "/v1/tenants", map[string]any{
			"facility_name": "  ",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("duplicate subdomain conflicts", func(t *testing.T) {
		f := newServerFixture()
		body := map[string]any{
			"facility_name": "Iron Works Gym",
			"contact_email": "owner@ironworks.example",
			"subdomain":     "ironworks",
		}
		require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/v1/tenants", body).Code)

		rec := f.do(t, http.MethodPost, "/v1/tenants", body)
		require.Equal(t, http.StatusConflict, rec.Code)
		require.Equal(t, "TENANT_ALREADY_EXISTS", decode[errorResponse](t, rec).Code)
	})
}

func TestProvisionFromDealEndpoint(t *testing.T) {
	body := map[string]any{
		"admin_email":        "dana@ironworks.example",
		"admin_password":     "s3cret-passw0rd",
		"admin_display_name": "Dana Smith",
	}

	t.Run("provisions and is idempotent", func(t *testing.T) {
		f := newServerFixture()
		deal := &models.Deal{
			DealID:       uuid.Must(uuid.NewV7()),
			Stage:        models.DealStageWon,
			FacilityName: "Iron Works Gym",
			ContactEmail: "dana@ironworks.example",
		}
		f.deals.Put(deal)

		rec := f.do(t, http.MethodPost, "/v1/tenants/from-deal/"+deal.DealID.String(), body)
		require.Equal(t, http.StatusOK, rec.Code)
		first := decode[tenantResponse](t, rec)
		require.NotNil(t, first.OrganizationID)

		rec = f.do(t, http.MethodPost, "/v1/tenants/from-deal/"+deal.DealID.String(), body)
		require.Equal(t, http.StatusOK, rec.Code)
		second := decode[tenantResponse](t, rec)
		require.Equal(t, first.TenantID, second.TenantID)
	})

	t.Run("deal not won", func(t *testing.T) {
		f := newServerFixture()
		deal := &models.Deal{
			DealID:       uuid.Must(uuid.NewV7()),
			Stage:        models.DealStageProposal,
			FacilityName: "Iron Works Gym",
			ContactEmail: "dana@ironworks.example",
		}
		f.deals.Put(deal)

		rec := f.do(t, http.MethodPost, "/v1/tenants/from-deal/"+deal.DealID.String(), body)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		require.Equal(t, "DEAL_NOT_WON", decode[errorResponse](t, rec).Code)
	})

	t.Run("unknown deal", func(t *testing.T) {
		f := newServerFixture()
		rec := f.do(t, http.MethodPost, "/v1/tenants/from-deal/"+uuid.Must(uuid.NewV7()).String(), body)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestStatusEndpoint(t *testing.T) {
	t.Run("invalid transition is 422", func(t *testing.T) {
		f := newServerFixture()
		tenantID := f.createActiveTenant(t)

		rec := f.do(t, http.MethodPut, fmt.Sprintf("/v1/tenants/%s/status", tenantID), map[string]any{
			"status": "ARCHIVED",
		})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		require.Equal(t, "INVALID_STATUS_TRANSITION", decode[errorResponse](t, rec).Code)
	})

	t.Run("unknown tenant is 404", func(t *testing.T) {
		f := newServerFixture()
		rec := f.do(t, http.MethodPut, fmt.Sprintf("/v1/tenants/%s/status", uuid.Must(uuid.NewV7())), map[string]any{
			"status": "ACTIVE",
		})
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestOnboardingEndpoints(t *testing.T) {
	f := newServerFixture()
	tenantID := f.createActiveTenant(t)

	rec := f.do(t, http.MethodPut, fmt.Sprintf("/v1/tenants/%s/onboarding/DATA_IMPORTED", tenantID), map[string]any{
		"notes": "412 members migrated",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	item := decode[checklistItemResponse](t, rec)
	require.True(t, item.Completed)

	rec = f.do(t, http.MethodGet, fmt.Sprintf("/v1/tenants/%s/onboarding", tenantID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	progress := decode[progressResponse](t, rec)
	require.Equal(t, len(models.OnboardingSteps), progress.TotalSteps)
	require.Equal(t, 2, progress.CompletedSteps) // TENANT_CREATED + DATA_IMPORTED

	rec = f.do(t, http.MethodPut, fmt.Sprintf("/v1/tenants/%s/onboarding/NOT_A_STEP", tenantID), nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOffboardingEndpoints(t *testing.T) {
	t.Run("suspend then deactivate then archive", func(t *testing.T) {
		f := newServerFixture()
		tenantID := f.createActiveTenant(t)

		rec := f.do(t, http.MethodPost, fmt.Sprintf("/v1/tenants/%s/suspend", tenantID), map[string]any{
			"reason": "NON_PAYMENT",
		})
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, models.TenantStatusSuspended, decode[tenantResponse](t, rec).Status)

		rec = f.do(t, http.MethodPost, fmt.Sprintf("/v1/tenants/%s/deactivate", tenantID), map[string]any{
			"reason": "CONTRACT_ENDED",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		// Archival requires a completed export.
		rec = f.do(t, http.MethodPost, fmt.Sprintf("/v1/tenants/%s/archive", tenantID), nil)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		require.Equal(t, "DATA_EXPORT_REQUIRED", decode[errorResponse](t, rec).Code)

		rec = f.do(t, http.MethodPost, fmt.Sprintf("/v1/tenants/%s/exports", tenantID), map[string]any{
			"format": "JSON",
		})
		require.Equal(t, http.StatusAccepted, rec.Code)
		job := decode[exportJobResponse](t, rec)

		// A second request is rejected while the first is outstanding.
		rec = f.do(t, http.MethodPost, fmt.Sprintf("/v1/tenants/%s/exports", tenantID), map[string]any{
			"format": "JSON",
		})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		require.Equal(t, "DATA_EXPORT_IN_PROGRESS", decode[errorResponse](t, rec).Code)

		// Complete the export out of band, as the worker would.
		ctx := context.Background()
		claimed, err := f.exports.Claim(ctx)
		require.NoError(t, err)
		require.Equal(t, job.JobID, claimed.JobID)
		require.NoError(t, claimed.Complete("exports/archive.json.zst", 1024))
		require.NoError(t, f.exports.Update(ctx, claimed))

		rec = f.do(t, http.MethodPost, fmt.Sprintf("/v1/tenants/%s/archive", tenantID), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		archived := decode[tenantResponse](t, rec)
		require.Equal(t, models.TenantStatusArchived, archived.Status)
		require.NotNil(t, archived.DataRetentionUntil)

		rec = f.do(t, http.MethodGet, fmt.Sprintf("/v1/tenants/%s/deactivation-history", tenantID), nil)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("suspend provisioning tenant is 422", func(t *testing.T) {
		f := newServerFixture()
		rec := f.do(t, http.MethodPost, "/v1/tenants", map[string]any{
			"facility_name": "Iron Works Gym",
			"contact_email": "owner@ironworks.example",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
		created := decode[tenantResponse](t, rec)

		rec = f.do(t, http.MethodPost, fmt.Sprintf("/v1/tenants/%s/suspend", created.TenantID), map[string]any{
			"reason": "NON_PAYMENT",
		})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}
