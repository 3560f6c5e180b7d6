package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"
	"github.com/liyaqa/platform/internal/models"
	"github.com/liyaqa/platform/internal/store"
)

// Config configures the export worker.
type Config struct {
	// PollInterval controls how often the worker looks for pending jobs
	PollInterval time.Duration

	// OutputDir is where compressed export archives are written
	OutputDir string

	// MaxRetries bounds store update retries for a claimed job
	MaxRetries uint
}

// DefaultConfig returns sensible worker defaults.
func DefaultConfig(outputDir string) Config {
	return Config{
		PollInterval: 5 * time.Second,
		OutputDir:    outputDir,
		MaxRetries:   5,
	}
}

// Worker claims pending export jobs and materialises tenant data
// snapshots as zstd-compressed archives.
type Worker struct {
	cfg          Config
	tenants      store.TenantStore
	checklist    store.ChecklistStore
	exports      store.ExportStore
	deactivation store.DeactivationLogStore

	doneCh chan struct{}
}

// NewWorker creates an export worker.
func NewWorker(cfg Config, tenants store.TenantStore, checklist store.ChecklistStore, exports store.ExportStore, deactivation store.DeactivationLogStore) *Worker {
	return &Worker{
		cfg:          cfg,
		tenants:      tenants,
		checklist:    checklist,
		exports:      exports,
		deactivation: deactivation,
		doneCh:       make(chan struct{}),
	}
}

// Run polls for pending export jobs until the context is cancelled.
// Each claimed job is processed to completion before the next poll.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.doneCh)

	if err := os.MkdirAll(w.cfg.OutputDir, 0o755); err != nil {
		log.Error().Err(err).Str("dir", w.cfg.OutputDir).Msg("Failed to create export output directory")
		return
	}

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	log.Debug().
		Dur("poll_interval", w.cfg.PollInterval).
		Str("output_dir", w.cfg.OutputDir).
		Msg("Export worker started")

	for {
		select {
		case <-ticker.C:
			w.drain(ctx)

		case <-ctx.Done():
			log.Debug().Msg("Export worker stopping")
			return
		}
	}
}

// Done is closed once Run has returned.
func (w *Worker) Done() <-chan struct{} {
	return w.doneCh
}

// drain claims and processes jobs until no pending work remains.
func (w *Worker) drain(ctx context.Context) {
	for {
		job, err := w.exports.Claim(ctx)
		if err != nil {
			if !errors.Is(err, store.ErrNoPendingExport) {
				log.Error().Err(err).Msg("Failed to claim export job")
			}
			return
		}

		w.process(ctx, job)
	}
}

// process runs a single claimed job through to COMPLETED or FAILED.
func (w *Worker) process(ctx context.Context, job *models.ExportJob) {
	log.Info().
		Str("job_id", job.JobID.String()).
		Str("tenant_id", job.TenantID.String()).
		Str("format", string(job.Format)).
		Msg("Processing export job")

	path, size, err := w.writeArchive(ctx, job)
	if err != nil {
		log.Error().
			Err(err).
			Str("job_id", job.JobID.String()).
			Msg("Export job failed")

		if failErr := job.Fail(err.Error()); failErr != nil {
			log.Error().Err(failErr).Str("job_id", job.JobID.String()).Msg("Failed to mark export job failed")
			return
		}
		w.updateWithRetry(ctx, job)
		return
	}

	if err := job.Complete(path, size); err != nil {
		log.Error().Err(err).Str("job_id", job.JobID.String()).Msg("Failed to mark export job completed")
		return
	}
	w.updateWithRetry(ctx, job)

	log.Info().
		Str("job_id", job.JobID.String()).
		Str("path", path).
		Int64("size_bytes", size).
		Msg("Export job completed")
}

// updateWithRetry persists the terminal job state, retrying transient
// store failures with exponential backoff.
func (w *Worker) updateWithRetry(ctx context.Context, job *models.ExportJob) {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		if err := w.exports.Update(ctx, job); err != nil {
			if errors.Is(err, store.ErrExportJobNotFound) {
				return struct{}{}, backoff.Permanent(err)
			}
			return struct{}{}, err
		}
		return struct{}{}, nil
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(w.cfg.MaxRetries))

	if err != nil {
		log.Error().
			Err(err).
			Str("job_id", job.JobID.String()).
			Msg("Failed to persist export job state")
	}
}

// snapshot is the exported view of a tenant's lifecycle data.
type snapshot struct {
	Tenant       *models.Tenant            `json:"tenant"`
	Checklist    []*models.ChecklistItem   `json:"checklist"`
	Deactivation []*models.DeactivationLog `json:"deactivation_log"`
	ExportedAt   time.Time                 `json:"exported_at"`
}

// writeArchive builds the tenant snapshot and writes it zstd-compressed
// to the output directory. Returns the archive path and size in bytes.
func (w *Worker) writeArchive(ctx context.Context, job *models.ExportJob) (string, int64, error) {
	snap, err := w.buildSnapshot(ctx, job)
	if err != nil {
		return "", 0, err
	}

	ext := "json"
	if job.Format == models.ExportFormatCSV {
		ext = "csv"
	}

	path := filepath.Join(w.cfg.OutputDir, fmt.Sprintf("%s-%s.%s.zst", job.TenantID, job.JobID, ext))
	dst, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create archive: %w", err)
	}
	defer dst.Close()

	// Level 3 = SpeedDefault, good balance of compression and speed
	enc, err := zstd.NewWriter(dst, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return "", 0, fmt.Errorf("failed to create encoder: %w", err)
	}

	if job.Format == models.ExportFormatCSV {
		err = writeCSV(enc, snap)
	} else {
		err = writeJSON(enc, snap)
	}
	if err != nil {
		enc.Close()
		os.Remove(path) // Clean up partial file
		return "", 0, err
	}

	// Close encoder to flush
	if err := enc.Close(); err != nil {
		os.Remove(path)
		return "", 0, fmt.Errorf("failed to flush encoder: %w", err)
	}

	info, err := dst.Stat()
	if err != nil {
		return "", 0, fmt.Errorf("failed to stat archive: %w", err)
	}

	return path, info.Size(), nil
}

// buildSnapshot gathers everything the platform holds for the tenant.
func (w *Worker) buildSnapshot(ctx context.Context, job *models.ExportJob) (*snapshot, error) {
	tenant, err := w.tenants.Get(ctx, job.TenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tenant: %w", err)
	}

	checklist, err := w.checklist.ListByTenant(ctx, job.TenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load checklist: %w", err)
	}

	history, err := w.deactivation.ListByTenant(ctx, job.TenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load deactivation log: %w", err)
	}

	return &snapshot{
		Tenant:       tenant,
		Checklist:    checklist,
		Deactivation: history,
		ExportedAt:   time.Now().UTC(),
	}, nil
}

func writeJSON(dst io.Writer, snap *snapshot) error {
	enc := json.NewEncoder(dst)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return nil
}

// writeCSV flattens the snapshot into sectioned rows. Each row is
// prefixed with its record type so a single file covers all sections.
func writeCSV(dst io.Writer, snap *snapshot) error {
	cw := csv.NewWriter(dst)

	rows := [][]string{
		{"record_type", "id", "field_1", "field_2", "field_3", "occurred_at"},
		{
			"tenant",
			snap.Tenant.TenantID.String(),
			snap.Tenant.FacilityName,
			snap.Tenant.ContactEmail,
			string(snap.Tenant.Status),
			snap.Tenant.CreatedAt.Format(time.RFC3339),
		},
	}

	for _, item := range snap.Checklist {
		rows = append(rows, []string{
			"checklist_item",
			item.ItemID.String(),
			string(item.Step),
			strconv.FormatBool(item.Completed),
			derefString(item.Notes),
			item.CreatedAt.Format(time.RFC3339),
		})
	}

	for _, entry := range snap.Deactivation {
		rows = append(rows, []string{
			"deactivation_log",
			entry.LogID.String(),
			string(entry.Reason),
			derefString(entry.Notes),
			entry.PerformedBy.String(),
			entry.Timestamp.Format(time.RFC3339),
		})
	}

	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
