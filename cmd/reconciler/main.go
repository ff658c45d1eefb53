package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/grachmannico95/rex-docs-be/internal/app"
	"github.com/grachmannico95/rex-docs-be/internal/config"
	"github.com/grachmannico95/rex-docs-be/internal/domain"
	"github.com/grachmannico95/rex-docs-be/internal/history"
	"github.com/grachmannico95/rex-docs-be/pkg/logger"
)

func main() {
	once := flag.Bool("once", false, "run a single history sync and exit")
	flag.Parse()

	cfg := config.Load()

	log := logger.New(cfg.Logging.Level)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, closeRepos, err := app.OpenRepositories(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal(ctx, "Failed to open repositories",
			"error", err,
		)
	}
	defer closeRepos()

	lk, closeLocker, err := app.NewLocker(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal(ctx, "Failed to initialize sync lock",
			"error", err,
		)
	}
	defer closeLocker()

	reconciler := app.NewReconciler(repos, lk, cfg.History, log)

	if *once || cfg.History.Interval <= 0 {
		if _, err := runOnce(ctx, reconciler, log); err != nil {
			closeLocker()
			closeRepos()
			os.Exit(1)
		}
		return
	}

	log.Info(ctx, "History reconciler started",
		"interval", cfg.History.Interval.String(),
	)

	ticker := time.NewTicker(cfg.History.Interval)
	defer ticker.Stop()

	_, _ = runOnce(ctx, reconciler, log)
	for {
		select {
		case <-ctx.Done():
			log.Info(context.Background(), "History reconciler stopped")
			return
		case <-ticker.C:
			_, _ = runOnce(ctx, reconciler, log)
		}
	}
}

func runOnce(ctx context.Context, reconciler *history.Reconciler, log *logger.Logger) (*history.Summary, error) {
	summary, err := reconciler.Run(ctx)
	switch {
	case errors.Is(err, domain.ErrSyncInProgress):
		log.Info(ctx, "History sync skipped, another run holds the lock")
		return nil, nil
	case err != nil:
		log.Error(ctx, "History sync failed",
			"error", err,
		)
		return summary, err
	}
	return summary, nil
}
