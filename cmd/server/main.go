package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/grachmannico95/rex-docs-be/internal/app"
	"github.com/grachmannico95/rex-docs-be/internal/archive"
	"github.com/grachmannico95/rex-docs-be/internal/config"
	"github.com/grachmannico95/rex-docs-be/internal/eventbus"
	"github.com/grachmannico95/rex-docs-be/internal/handler"
	"github.com/grachmannico95/rex-docs-be/internal/matcher"
	"github.com/grachmannico95/rex-docs-be/internal/records"
	"github.com/grachmannico95/rex-docs-be/internal/server"
	"github.com/grachmannico95/rex-docs-be/internal/service"
	"github.com/grachmannico95/rex-docs-be/internal/session"
	"github.com/grachmannico95/rex-docs-be/internal/submission"
	"github.com/grachmannico95/rex-docs-be/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.New(cfg.Logging.Level)
	defer log.Sync()

	ctx := context.Background()
	log.Info(ctx, "Starting application")

	repos, closeRepos, err := app.OpenRepositories(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal(ctx, "Failed to open repositories",
			"error", err,
		)
	}
	defer closeRepos()

	store, err := app.OpenObjectStore(ctx, cfg.Storage, log)
	if err != nil {
		log.Fatal(ctx, "Failed to open object store",
			"error", err,
		)
	}

	lk, closeLocker, err := app.NewLocker(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal(ctx, "Failed to initialize sync lock",
			"error", err,
		)
	}
	defer closeLocker()

	rules := matcher.DefaultRules()
	if cfg.Matching.RulesFile != "" {
		rules, err = matcher.LoadRules(cfg.Matching.RulesFile)
		if err != nil {
			log.Fatal(ctx, "Failed to load matching rules",
				"file", cfg.Matching.RulesFile,
				"error", err,
			)
		}
	}

	extractor := archive.NewExtractor(store, archive.Config{
		Limits: archive.Limits{
			MaxEntries:    cfg.Archive.MaxEntries,
			MaxEntryBytes: cfg.Archive.MaxEntryBytes,
			MaxTotalBytes: cfg.Archive.MaxTotalBytes,
		},
		AllowedExtensions: cfg.Archive.AllowedExtensions,
		ValidatePDF:       cfg.Archive.ValidatePDF,
	}, log)

	coordinator := submission.NewCoordinator(repos, repos, store, submission.Config{
		Rate:            cfg.Submission.CreditRate,
		CopyConcurrency: cfg.Submission.CopyConcurrency,
		CopyAttempts:    cfg.Submission.CopyAttempts,
	}, log)

	reconciler := app.NewReconciler(repos, lk, cfg.History, log)

	bus := eventbus.New(log, &eventbus.Config{
		ChannelBuffer:  cfg.EventBus.ChannelBufferSize,
		MaxRetries:     cfg.Worker.MaxRetries,
		RetryBaseDelay: cfg.EventBus.RetryBaseDelay,
	})
	log.Info(ctx, "Event bus initialized")

	err = bus.Subscribe(eventbus.EventTypeHistorySync, eventbus.NewHistorySyncConsumer(reconciler, log, cfg.Worker.PoolSize))
	if err != nil {
		log.Fatal(ctx, "Failed to subscribe consumer",
			"error", err,
		)
	}

	err = bus.Start(ctx)
	if err != nil {
		log.Fatal(ctx, "Failed to start event bus",
			"error", err,
		)
	}

	sessions := session.NewManager()
	submissionService := service.NewSubmissionService(
		sessions,
		extractor,
		records.NewParser(log),
		matcher.New(rules, log),
		coordinator,
		repos,
		store,
		log,
	)
	historyService := service.NewHistoryService(bus, log)
	log.Info(ctx, "Services initialized")

	srv := server.New(
		cfg,
		log,
		handler.NewRexHandler(submissionService, log),
		handler.NewHistoryHandler(historyService, log),
		handler.NewHealthHandler(sessions),
	)

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal(ctx, "Failed to start HTTP server",
				"error", err,
			)
		}
	}()

	bgCtx, stopBackground := context.WithCancel(ctx)
	go runEvery(bgCtx, cfg.Session.CleanupInterval, func() {
		submissionService.CleanupExpiredSessions(bgCtx, cfg.Session.MaxAge)
	})
	if cfg.History.Interval > 0 {
		log.Info(ctx, "Scheduled history sync enabled",
			"interval", cfg.History.Interval.String(),
		)
		go runEvery(bgCtx, cfg.History.Interval, func() {
			if _, err := historyService.RequestSync(bgCtx, "", "schedule"); err != nil {
				log.Error(bgCtx, "Failed to schedule history sync", "error", err)
			}
		})
	}

	log.Info(ctx, "Application started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info(ctx, "Received shutdown signal")
	stopBackground()

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()

	// HTTP first so no new work reaches the bus.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "HTTP server shutdown error",
			"error", err,
		)
	}

	if err := bus.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "Event bus shutdown error",
			"error", err,
		)
	}

	log.Info(ctx, "Application stopped gracefully")
}

func runEvery(ctx context.Context, interval time.Duration, fn func()) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}
