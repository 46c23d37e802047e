// Command scheduler runs the cron-driven task scheduler as a long-lived
// process: it reads the job catalog from Postgres, fires each job on its
// own cadence through the command registry, and streams successful
// outcomes into a durable, River-backed result sink. It exposes a small
// unauthenticated ops surface (liveness, readiness, and a hot-reload
// trigger) and nothing else.
package main

import (
	"context"
	"embed"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/cronpipe/pkg/alert"
	"github.com/dmitrymomot/cronpipe/pkg/cache"
	"github.com/dmitrymomot/cronpipe/pkg/catalog"
	"github.com/dmitrymomot/cronpipe/pkg/commands"
	"github.com/dmitrymomot/cronpipe/pkg/db"
	"github.com/dmitrymomot/cronpipe/pkg/health"
	"github.com/dmitrymomot/cronpipe/pkg/job"
	"github.com/dmitrymomot/cronpipe/pkg/logger"
	"github.com/dmitrymomot/cronpipe/pkg/mailer"
	"github.com/dmitrymomot/cronpipe/pkg/mailer/resend"
	"github.com/dmitrymomot/cronpipe/pkg/redis"
	"github.com/dmitrymomot/cronpipe/pkg/scheduler"
	"github.com/dmitrymomot/cronpipe/pkg/sink"
	"github.com/dmitrymomot/cronpipe/pkg/storage"
)

//go:embed migrations/*.sql
var migrations embed.FS

var errSchedulerNotStarted = errors.New("scheduler: catalog has not been loaded yet")

func main() {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Error("failed to parse configuration", slog.Any("error", err))
		os.Exit(1)
	}

	log := logger.NewWithSentry(cfg.Sentry)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool := db.MustOpen(ctx, cfg.DB.ConnectionString,
		db.WithMigrations(migrations),
		db.WithLogger(log),
		db.WithMaxConns(cfg.DB.MaxOpenConns),
		db.WithMinConns(cfg.DB.MinConns),
	)
	defer pool.Close()

	redisClient := redis.MustOpen(ctx, cfg.RedisURL)
	defer func() { _ = redisClient.Close() }()

	jobManager, taskManager := mustBuildTaskManager(ctx, pool, redisClient, log, cfg)
	defer func() { _ = jobManager.Stop(context.Background()) }()

	if err := taskManager.Start(ctx); err != nil {
		log.Error("failed to start task manager", slog.Any("error", err))
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: buildRouter(taskManager, pool, redisClient, log),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server starting", slog.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("http server error", slog.Any("error", err))
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	taskManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown error", slog.Any("error", err))
	}

	log.Info("shutdown complete")
}

// mustBuildTaskManager wires together every external collaborator the
// scheduler core consumes: the Postgres (or YAML, for local dev) catalog,
// the command registry, the shared context commands read from, and the
// result sink (durable queue, optionally wrapped with an S3 archive and a
// retry-exhaustion email alert).
func mustBuildTaskManager(ctx context.Context, pool *pgxpool.Pool, redisClient goredis.UniversalClient, log *slog.Logger, cfg Config) (*job.Manager, *scheduler.TaskManager) {
	var notifier *alert.Notifier
	if cfg.alertingEnabled() {
		renderer, err := alert.NewRenderer()
		if err != nil {
			log.Error("failed to build alert renderer", slog.Any("error", err))
			os.Exit(1)
		}
		sender := resend.New(cfg.Resend)
		m := mailer.New(sender, renderer, mailer.Config{
			FallbackSubject: "Scheduler notification",
			DefaultLayout:   "base.html",
		})
		notifier = alert.NewNotifier(m, cfg.AlertRecipient, cfg.CatalogURL, log)
	}

	jobOpts := append(sink.TaskOptions(pool), job.WithLogger(log))
	jobManager, err := job.NewManager(pool, jobOpts...)
	if err != nil {
		log.Error("failed to build job manager", slog.Any("error", err))
		os.Exit(1)
	}
	if err := jobManager.Start(ctx); err != nil {
		log.Error("failed to start job manager", slog.Any("error", err))
		os.Exit(1)
	}

	var resultSink scheduler.ResultSink = sink.NewQueueSink(jobManager)
	if cfg.archivingEnabled() {
		store, err := storage.New(storage.Config{
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
		})
		if err != nil {
			log.Error("failed to build archive storage", slog.Any("error", err))
			os.Exit(1)
		}
		resultSink = sink.NewArchiving(resultSink, store)
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	pageCache := cache.NewRedis[[]byte](redisClient, nil, cache.WithPrefix("page-cache"))

	shared := commands.Shared{
		DB:    pool,
		Cache: pageCache,
		HTTP:  httpClient,
	}

	var catalogReader scheduler.CatalogReader
	if cfg.CatalogYAMLPath != "" {
		catalogReader = catalog.NewYAML(os.DirFS("."), cfg.CatalogYAMLPath)
	} else {
		catalogReader = catalog.NewPostgres(pool, log)
	}

	opts := []scheduler.Option{
		scheduler.WithLogger(log),
		scheduler.WithMaxConcurrency(cfg.MaxConcurrency),
		scheduler.WithChannelCapacity(cfg.ChannelCap),
	}
	if notifier != nil {
		opts = append(opts, scheduler.WithExhaustionHook(notifier.JobExhausted))
	}

	taskManager := scheduler.NewTaskManager(catalogReader, commands.Build(), resultSink, shared, opts...)
	return jobManager, taskManager
}

// buildRouter assembles the unauthenticated ops surface: liveness,
// readiness (aggregating DB, Redis, and "scheduler has a live
// generation"), and a hot-reload trigger. None of this sits behind auth —
// it is meant for cluster-internal use (private network, deploy hook).
func buildRouter(manager *scheduler.TaskManager, pool *pgxpool.Pool, redisClient goredis.UniversalClient, log *slog.Logger) http.Handler {
	r := chi.NewRouter()

	checks := health.Checks{
		"database": func(ctx context.Context) error { return pool.Ping(ctx) },
		"redis":    redis.Healthcheck(redisClient),
		"scheduler": func(context.Context) error {
			if len(manager.Describe()) == 0 {
				return errSchedulerNotStarted
			}
			return nil
		},
	}

	r.Get("/healthz", health.LivenessHandler())
	r.Get("/readyz", health.ReadinessHandler(checks, health.WithLogger(log)))
	r.Post("/admin/refresh", func(w http.ResponseWriter, req *http.Request) {
		if err := manager.Refresh(req.Context()); err != nil {
			log.Error("refresh failed", slog.Any("error", err))
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	return r
}
