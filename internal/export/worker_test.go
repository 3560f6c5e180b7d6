package export

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
	"github.com/liyaqa/platform/internal/models"
	"github.com/liyaqa/platform/internal/store/memory"
)

type workerFixture struct {
	tenants      *memory.TenantStore
	checklist    *memory.ChecklistStore
	exports      *memory.ExportStore
	deactivation *memory.DeactivationLogStore
	worker       *Worker
}

func newWorkerFixture(t *testing.T) *workerFixture {
	t.Helper()
	f := &workerFixture{
		tenants:      memory.NewTenantStore(),
		checklist:    memory.NewChecklistStore(),
		exports:      memory.NewExportStore(),
		deactivation: memory.NewDeactivationLogStore(),
	}
	f.worker = NewWorker(DefaultConfig(t.TempDir()), f.tenants, f.checklist, f.exports, f.deactivation)
	return f
}

func (f *workerFixture) seedTenant(t *testing.T) *models.Tenant {
	t.Helper()
	ctx := context.Background()

	tenant, err := models.NewTenant("Iron Works Gym", "owner@ironworks.example")
	require.NoError(t, err)
	require.NoError(t, f.tenants.Create(ctx, tenant))

	items, err := models.NewChecklist(tenant.TenantID)
	require.NoError(t, err)
	require.NoError(t, f.checklist.CreateAll(ctx, items))

	return tenant
}

func (f *workerFixture) pendingJob(t *testing.T, tenantID uuid.UUID, format models.ExportFormat) *models.ExportJob {
	t.Helper()

	job, err := models.NewExportJob(tenantID, format, uuid.Must(uuid.NewV7()))
	require.NoError(t, err)
	require.NoError(t, f.exports.Create(context.Background(), job))
	return job
}

func decompress(t *testing.T, path string) []byte {
	t.Helper()

	src, err := os.Open(path)
	require.NoError(t, err)
	defer src.Close()

	dec, err := zstd.NewReader(src)
	require.NoError(t, err)
	defer dec.Close()

	data, err := io.ReadAll(dec)
	require.NoError(t, err)
	return data
}

func TestWorkerProcessesJSONExport(t *testing.T) {
	ctx := context.Background()
	f := newWorkerFixture(t)
	tenant := f.seedTenant(t)
	job := f.pendingJob(t, tenant.TenantID, models.ExportFormatJSON)

	require.NoError(t, os.MkdirAll(f.worker.cfg.OutputDir, 0o755))
	f.worker.drain(ctx)

	done, err := f.exports.Get(ctx, job.JobID)
	require.NoError(t, err)
	require.Equal(t, models.ExportStatusCompleted, done.Status)
	require.NotNil(t, done.DownloadURL)
	require.NotNil(t, done.SizeBytes)
	require.Positive(t, *done.SizeBytes)

	// The archive decompresses to the tenant snapshot.
	raw := decompress(t, *done.DownloadURL)
	var snap map[string]any
	require.NoError(t, json.Unmarshal(raw, &snap))
	require.Contains(t, snap, "tenant")
	require.Contains(t, snap, "checklist")
	require.Contains(t, snap, "deactivation_log")
}

func TestWorkerProcessesCSVExport(t *testing.T) {
	ctx := context.Background()
	f := newWorkerFixture(t)
	tenant := f.seedTenant(t)
	job := f.pendingJob(t, tenant.TenantID, models.ExportFormatCSV)

	require.NoError(t, os.MkdirAll(f.worker.cfg.OutputDir, 0o755))
	f.worker.drain(ctx)

	done, err := f.exports.Get(ctx, job.JobID)
	require.NoError(t, err)
	require.Equal(t, models.ExportStatusCompleted, done.Status)

	raw := decompress(t, *done.DownloadURL)
	require.True(t, bytes.HasPrefix(raw, []byte("record_type,")))
	require.Contains(t, string(raw), "tenant,"+tenant.TenantID.String())
	// One header, one tenant row, one row per checklist step.
	lines := bytes.Count(bytes.TrimSpace(raw), []byte("\n")) + 1
	require.Equal(t, 2+len(models.OnboardingSteps), lines)
}

func TestWorkerFailsJobForMissingTenant(t *testing.T) {
	ctx := context.Background()
	f := newWorkerFixture(t)

	// Job references a tenant that was never stored.
	job := f.pendingJob(t, uuid.Must(uuid.NewV7()), models.ExportFormatJSON)

	require.NoError(t, os.MkdirAll(f.worker.cfg.OutputDir, 0o755))
	f.worker.drain(ctx)

	failed, err := f.exports.Get(ctx, job.JobID)
	require.NoError(t, err)
	require.Equal(t, models.ExportStatusFailed, failed.Status)
	require.NotNil(t, failed.Error)
	require.Nil(t, failed.DownloadURL)
}

func TestWorkerDrainsQueueInOrder(t *testing.T) {
	ctx := context.Background()
	f := newWorkerFixture(t)
	first := f.seedTenant(t)
	second := f.seedTenant(t)

	jobA := f.pendingJob(t, first.TenantID, models.ExportFormatJSON)
	jobB := f.pendingJob(t, second.TenantID, models.ExportFormatJSON)

	require.NoError(t, os.MkdirAll(f.worker.cfg.OutputDir, 0o755))
	f.worker.drain(ctx)

	for _, id := range []uuid.UUID{jobA.JobID, jobB.JobID} {
		done, err := f.exports.Get(ctx, id)
		require.NoError(t, err)
		require.Equal(t, models.ExportStatusCompleted, done.Status)
	}
}
