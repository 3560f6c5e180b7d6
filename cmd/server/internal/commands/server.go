package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/liyaqa/platform/internal/export"
	"github.com/liyaqa/platform/internal/logger"
	"github.com/liyaqa/platform/internal/onboarding"
	"github.com/liyaqa/platform/internal/server"
	"github.com/liyaqa/platform/internal/store"
	memorystore "github.com/liyaqa/platform/internal/store/memory"
	postgresstore "github.com/liyaqa/platform/internal/store/postgres"
	"github.com/liyaqa/platform/internal/tenant"
)

type ServerCmd struct {
	// Server configuration
	Listen string `help:"HTTP server listen address" default:"0.0.0.0:8080" env:"PLATFORM_LISTEN"`

	// Offboarding configuration
	Retention time.Duration `help:"how long archived tenant data is retained" default:"2160h" env:"PLATFORM_DATA_RETENTION"`

	// Export worker configuration
	ExportDir          string        `help:"directory for export archives" default:"exports" env:"PLATFORM_EXPORT_DIR"`
	ExportPollInterval time.Duration `help:"export worker poll interval" default:"5s" env:"PLATFORM_EXPORT_POLL_INTERVAL"`

	// Store configuration
	StoreType     string             `help:"store type (memory or postgres)" default:"memory" env:"PLATFORM_STORE_TYPE" enum:"memory,postgres"`
	PostgresStore PostgresStoreFlags `embed:"" prefix:"postgres-"`
}

type PostgresStoreFlags struct {
	// Connection Configuration
	ConnString string `help:"PostgreSQL connection string" env:"POSTGRES_CONNECTION_STRING"`

	// Connection Pool Configuration
	MaxConns        int32 `help:"maximum number of connections in pool" default:"20"`
	MinConns        int32 `help:"minimum number of connections in pool" default:"2"`
	MaxConnLifetime int32 `help:"maximum connection lifetime in seconds" default:"3600"`
	ConnectTimeout  int32 `help:"connection timeout in seconds" default:"10"`

	// Migration Configuration
	AutoMigrate bool `help:"run database migrations on startup" default:"false" env:"PLATFORM_POSTGRES_AUTO_MIGRATE"`
}

func (c *ServerCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Msg("Starting server")

	var (
		tenants       store.TenantStore
		checklist     store.ChecklistStore
		deals         store.DealStore
		exports       store.ExportStore
		deactivation  store.DeactivationLogStore
		transitions   store.TransitionStore
		organizations store.OrganizationStore
		subscriptions store.SubscriptionStore
	)

	switch c.StoreType {
	case "postgres":
		if c.PostgresStore.ConnString == "" {
			return errors.New("PostgreSQL connection string is required (--postgres-conn-string or POSTGRES_CONNECTION_STRING)")
		}

		// Shared connection pool for all PostgreSQL stores
		pool, err := postgresstore.NewPool(ctx, &postgresstore.PoolConfig{
			ConnString:      c.PostgresStore.ConnString,
			MaxConns:        c.PostgresStore.MaxConns,
			MinConns:        c.PostgresStore.MinConns,
			MaxConnLifetime: time.Duration(c.PostgresStore.MaxConnLifetime) * time.Second,
			ConnectTimeout:  time.Duration(c.PostgresStore.ConnectTimeout) * time.Second,
			AutoMigrate:     c.PostgresStore.AutoMigrate,
		})
		if err != nil {
			return fmt.Errorf("failed to create connection pool: %w", err)
		}
		defer pool.Close()

		tenants = postgresstore.NewTenantStore(pool)
		checklist = postgresstore.NewChecklistStore(pool)
		deals = postgresstore.NewDealStore(pool)
		exports = postgresstore.NewExportStore(pool)
		deactivation = postgresstore.NewDeactivationLogStore(pool)
		transitions = postgresstore.NewTransitionStore(pool)
		organizations = postgresstore.NewOrganizationStore(pool)
		subscriptions = postgresstore.NewSubscriptionStore(pool)

		log.Info().Msg("Using PostgreSQL stores with shared connection pool")

	default:
		memTenants := memorystore.NewTenantStore()
		memLogs := memorystore.NewDeactivationLogStore()

		tenants = memTenants
		checklist = memorystore.NewChecklistStore()
		deals = memorystore.NewDealStore()
		exports = memorystore.NewExportStore()
		deactivation = memLogs
		transitions = memorystore.NewTransitionStore(memTenants, memLogs)
		organizations = memorystore.NewOrganizationStore()
		subscriptions = memorystore.NewSubscriptionStore()

		log.Info().Msg("Using in-memory stores")
	}

	actors := tenant.ContextActorResolver{}
	events := tenant.NewLogSink(log)

	provisioning := tenant.NewProvisioningService(
		tenants, checklist, deals,
		onboarding.NewService(organizations),
		actors, events,
	)
	offboarding := tenant.NewOffboardingService(
		tenants, deactivation, transitions, exports, subscriptions,
		actors, events, c.Retention,
	)

	worker := export.NewWorker(
		export.Config{
			PollInterval: c.ExportPollInterval,
			OutputDir:    c.ExportDir,
			MaxRetries:   5,
		},
		tenants, checklist, exports, deactivation,
	)
	go worker.Run(ctx)

	srv := configureHTTPServer(c.Listen, server.NewServer(provisioning, offboarding).Handler(log))

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", c.Listen).Msg("Starting HTTP server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to shut down server: %w", err)
	}

	// Let the worker finish the job it is on.
	select {
	case <-worker.Done():
	case <-shutdownCtx.Done():
	}

	return nil
}
