package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sociometry/pulse/internal/adapters/http/api"
	jobqueue "github.com/sociometry/pulse/internal/adapters/mq/queue"
	"github.com/sociometry/pulse/internal/adapters/repository"
	service "github.com/sociometry/pulse/internal/app"
	"github.com/sociometry/pulse/internal/config"
	"github.com/sociometry/pulse/pkg/logger"
	"github.com/sociometry/pulse/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout           = 10 * time.Second
	writeTimeout          = 30 * time.Second
	idleTimeout           = 60 * time.Second
	readHeaderTimeout     = 5 * time.Second
	shutdownTimeout       = 30 * time.Second
	systemMetricsInterval = 10 * time.Second
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	queue, err := buildQueue(ctx, cfg)
	if err != nil {
		os.Stderr.WriteString("failed to create queue backend: " + err.Error() + "\n")
		return
	}

	store, err := buildStore(cfg)
	if err != nil {
		os.Stderr.WriteString("failed to create store backend: " + err.Error() + "\n")
		return
	}

	// Create and start the service with configuration options
	svc := service.New(
		service.WithLogger(log),
		service.WithQueue(queue),
		service.WithStore(store),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithMaxAttempts(cfg.MaxAttempts),
		service.WithBackoff(time.Duration(cfg.BackoffBaseMS)*time.Millisecond, time.Duration(cfg.BackoffMaxMS)*time.Millisecond),
		service.WithJobTimeout(time.Duration(cfg.JobTimeoutMS)*time.Millisecond),
		service.WithClockSkew(time.Duration(cfg.ClockSkewMS)*time.Millisecond),
		service.WithAnomalyThreshold(cfg.AnomalyThreshold),
		service.WithFatigueLookbackDays(cfg.FatigueLookbackDays),
		service.WithFatigueThreshold(cfg.FatigueThreshold),
		service.WithDedupeSize(cfg.DedupeSize),
		service.WithJournalSize(cfg.JournalSize),
		service.WithRetention(cfg.RetentionDays, cfg.RetentionSchedule),
	)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop()

	// Start system metrics updater
	go startSystemMetricsUpdater(ctx)

	// HTTP mux and routes.
	mux := http.NewServeMux()
	apiServer := api.NewServer(svc, svc)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// buildQueue selects the job queue backend from configuration.
func buildQueue(ctx context.Context, cfg *config.Config) (jobqueue.Queue, error) {
	switch cfg.QueueBackend {
	case config.QueueMemory:
		return jobqueue.NewInMemoryQueue(jobqueue.WithCapacity(cfg.QueueCapacity)), nil
	case config.QueueRedis:
		return jobqueue.NewRedisQueue(ctx, cfg.RedisAddr, jobqueue.WithKey(cfg.RedisKey))
	default:
		return nil, fmt.Errorf("unknown queue backend %q", cfg.QueueBackend)
	}
}

// buildStore selects the fatigue store backend from configuration.
func buildStore(cfg *config.Config) (repository.Store, error) {
	var dialector gorm.Dialector
	switch cfg.StoreBackend {
	case config.StoreMemory:
		return repository.NewMemStore(), nil
	case config.StoreSQLite:
		dialector = sqlite.Open(cfg.StoreDSN)
	case config.StorePostgres:
		dialector = postgres.Open(cfg.StoreDSN)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.StoreBackend, err)
	}
	return repository.NewGormStore(db)
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}
