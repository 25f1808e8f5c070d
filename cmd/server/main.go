package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/JonMunkholm/checkbench/internal/approval"
	"github.com/JonMunkholm/checkbench/internal/config"
	"github.com/JonMunkholm/checkbench/internal/core"
	"github.com/JonMunkholm/checkbench/internal/logging"
	"github.com/JonMunkholm/checkbench/internal/metrics"
	"github.com/JonMunkholm/checkbench/internal/reference"
	"github.com/JonMunkholm/checkbench/internal/web"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Overload lets a local .env win over the shell environment.
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	ctx := context.Background()

	store, closeStore, err := openReference(ctx, &cfg.Reference)
	if err != nil {
		slog.Error("failed to open reference store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	queue := approval.NewQueue(m)
	limiter := core.NewImportLimiter(cfg.Import.MaxConcurrent, cfg.Import.MaxWaitTime)
	wb := core.NewWorkbench(store, queue, limiter, m, core.WorkbenchConfig{
		SessionTTL:     cfg.Workbench.SessionTTL,
		MaxImportBytes: cfg.Import.MaxFileSize,
		LegacyFallback: cfg.Import.LegacyFallback,
	})

	// Background jobs stop on shutdown.
	jobCtx, cancelJobs := context.WithCancel(ctx)
	defer cancelJobs()

	go wb.StartSweeper(jobCtx, cfg.Workbench.SweepInterval)

	server := web.NewServer(jobCtx, cfg, wb, queue, m.Handler())

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := limiter.Status(); status.Active > 0 {
			slog.Info("waiting for imports to complete", "active", status.Active)
			if err := limiter.WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("imports did not complete in time", "error", err)
			} else {
				slog.Info("all imports completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// openReference connects to PostgreSQL when DATABASE_URL is set and falls
// back to the YAML seed file otherwise.
func openReference(ctx context.Context, cfg *config.ReferenceConfig) (core.ReferenceStore, func(), error) {
	if !cfg.UsesDatabase() {
		store, err := reference.LoadYAMLFile(cfg.File)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("reference population loaded", "file", cfg.File, "records", store.Len())
		return store, func() {}, nil
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	if u, err := url.Parse(cfg.DatabaseURL); err == nil {
		slog.Info("connected to reference database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to reference database")
	}
	return reference.NewPostgresStore(pool), pool.Close, nil
}
