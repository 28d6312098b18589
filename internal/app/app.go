// Package app wires together configuration, infrastructure connections, and
// the three runtime modes (api, worker, scheduler) that make up the
// reconnaissance platform.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/corvidreef/reconwatch/internal/audit"
	"github.com/corvidreef/reconwatch/internal/config"
	"github.com/corvidreef/reconwatch/internal/httpserver"
	"github.com/corvidreef/reconwatch/internal/platform"
	"github.com/corvidreef/reconwatch/internal/telemetry"
	"github.com/corvidreef/reconwatch/pkg/dnsresolver"
	"github.com/corvidreef/reconwatch/pkg/inventory"
	"github.com/corvidreef/reconwatch/pkg/pipeline"
	"github.com/corvidreef/reconwatch/pkg/queue"
	"github.com/corvidreef/reconwatch/pkg/retention"
	"github.com/corvidreef/reconwatch/pkg/run"
	"github.com/corvidreef/reconwatch/pkg/scanadapter"
	"github.com/corvidreef/reconwatch/pkg/scheduler"
	"github.com/corvidreef/reconwatch/pkg/target"
	"github.com/corvidreef/reconwatch/pkg/verifier"
	"github.com/corvidreef/reconwatch/pkg/worker"
)

// Run is the main application entry point. It reads config, connects to
// infrastructure, and starts the mode cfg.Mode selects (api, worker, or
// scheduler).
func Run(ctx context.Context, cfg *config.Config) error {
	logger := telemetry.NewLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	logger.Info("starting reconwatch", "mode", cfg.Mode, "listen", cfg.ListenAddr())

	db, err := platform.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	// Redis is optional: when REDIS_URL is set the client is only handed to
	// the API server for its /readyz ping; workers always poll on their interval.
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = platform.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				logger.Error("closing redis", "error", err)
			}
		}()
	} else {
		logger.Info("redis disabled (REDIS_URL not set)")
	}

	if err := platform.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("migrations applied")

	metricsReg := prometheus.NewRegistry()
	metricsReg.MustRegister(telemetry.All()...)

	// Crash-recovery sweep: any job, run or scan left 'running' from a prior
	// process has no live worker and can never complete (spec.md §4.9).
	queueStore := queue.New(db)
	recovered, err := queueStore.RecoverCrashed(ctx)
	if err != nil {
		return fmt.Errorf("recovering crashed jobs: %w", err)
	}
	if recovered > 0 {
		logger.Warn("recovered crashed jobs at startup", "count", recovered)
	}

	switch cfg.Mode {
	case "api":
		return runAPI(ctx, cfg, logger, db, rdb, metricsReg)
	case "worker":
		return runWorker(ctx, cfg, logger, db)
	case "scheduler":
		return runScheduler(ctx, cfg, logger, db)
	default:
		return fmt.Errorf("unknown mode: %s", cfg.Mode)
	}
}

func runAPI(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *pgxpool.Pool, rdb *redis.Client, metricsReg *prometheus.Registry) error {
	auditWriter := audit.NewWriter(db, logger)
	auditWriter.Start(ctx)
	defer auditWriter.Close()

	srv := httpserver.NewServer(cfg, logger, db, rdb, metricsReg)

	targetStore := target.New(db)
	targetHandler := target.NewHandler(targetStore, logger)
	srv.APIRouter.Mount("/targets", targetHandler.Routes())

	runStore := run.New(db)
	runHandler := run.NewHandler(runStore, logger)
	srv.APIRouter.Mount("/targets/{targetID}/runs", runHandler.Routes())
	srv.APIRouter.Mount("/runs", runHandler.DiscardRoutes())

	inventoryStore := inventory.New(db)
	inventoryHandler := inventory.NewHandler(inventoryStore, logger)
	srv.APIRouter.Mount("/targets/{targetID}", inventoryHandler.Routes())

	auditHandler := audit.NewHandler(db, logger)
	srv.APIRouter.Mount("/audit-log", auditHandler.Routes())

	httpSrv := &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      srv,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server listening", "addr", cfg.ListenAddr())
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func runWorker(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *pgxpool.Pool) error {
	auditWriter := audit.NewWriter(db, logger)
	auditWriter.Start(ctx)
	defer auditWriter.Close()

	targetStore := target.New(db)
	runStore := run.New(db)
	queueStore := queue.New(db)
	inventoryStore := inventory.New(db)

	resolver := dnsresolver.New(cfg.DNSUpstreamServers, cfg.DNSConcurrency, logger)

	engine := pipeline.New(inventoryStore, queueStore, runStore, auditWriter, pipeline.Adapters{
		Subfinder:  scanadapter.NewSubfinderAdapter(scanadapter.StaticSource{}),
		DNSResolve: scanadapter.NewDNSResolveAdapter(resolver),
		PortScan:   scanadapter.NewPortScanAdapter(scanadapter.TCPConnectProber{}, 20),
		HTTPProbe:  scanadapter.NewHTTPProbeAdapter(20),
		VulnProbe:  scanadapter.NewVulnProbeAdapter(nil),
	}, logger, db)

	verify := verifier.New(inventoryStore, resolver, db)

	workerID := cfg.WorkerID
	if workerID == "" {
		workerID = "worker"
	}

	pool := &worker.Pool{
		Queue:        queueStore,
		Target:       targetStore,
		Inventory:    inventoryStore,
		Pipeline:     engine,
		Verifier:     verify,
		Logger:       logger,
		WorkerID:     workerID,
		PoolSize:     cfg.WorkerPoolSize,
		GlobalCap:    cfg.MaxConcurrentJobsGlobal,
		PerTargetCap: cfg.MaxConcurrentJobsPerTarget,
		PollInterval: time.Duration(cfg.WorkerPollSeconds) * time.Second,
	}

	retentionStore := retention.New(db)
	go retention.Run(ctx, retentionStore, logger, time.Hour, cfg.RetentionRawOutputDays, cfg.RetentionCompletedRunsDays)

	logger.Info("worker started", "pool_size", cfg.WorkerPoolSize)
	pool.Run(ctx)
	return nil
}

func runScheduler(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *pgxpool.Pool) error {
	schedulerStore := scheduler.New(db)
	interval := time.Duration(cfg.SchedulerPollSeconds) * time.Second

	logger.Info("scheduler started", "poll_interval", interval)
	scheduler.Run(ctx, schedulerStore, logger, interval, cfg.MaxConcurrentJobsGlobal, func(f scheduler.FiredRun) {
		logger.Info("schedule fired", "run_id", f.RunID, "target_id", f.TargetID, "job_id", f.JobID)
	})
	return nil
}
