// Package app builds the shared dependencies of the server and reconciler
// binaries from configuration.
package app

import (
	"context"
	"fmt"

	"github.com/grachmannico95/rex-docs-be/internal/config"
	"github.com/grachmannico95/rex-docs-be/internal/domain"
	"github.com/grachmannico95/rex-docs-be/internal/history"
	"github.com/grachmannico95/rex-docs-be/internal/locker"
	"github.com/grachmannico95/rex-docs-be/internal/objectstore"
	"github.com/grachmannico95/rex-docs-be/internal/storage"
	"github.com/grachmannico95/rex-docs-be/pkg/logger"
)

// Repositories is implemented by both storage.MemoryStore and
// storage.GormStore.
type Repositories interface {
	domain.SubmissionRepository
	domain.AccountRepository
	domain.JobRepository
	domain.HistoryRepository
}

func OpenRepositories(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (Repositories, func() error, error) {
	if cfg.DSN == "" {
		log.Warn(ctx, "DATABASE_DSN not set, using in-memory store")
		return storage.NewMemoryStore(), func() error { return nil }, nil
	}

	store, err := storage.NewGormStore(cfg.DSN, cfg.AutoMigrate)
	if err != nil {
		return nil, nil, err
	}
	log.Info(ctx, "Postgres store initialized", "auto_migrate", cfg.AutoMigrate)
	return store, store.Close, nil
}

func OpenObjectStore(ctx context.Context, cfg config.StorageConfig, log *logger.Logger) (objectstore.Store, error) {
	switch cfg.Backend {
	case "minio":
		store, err := objectstore.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			return nil, err
		}
		log.Info(ctx, "MinIO object store initialized", "endpoint", cfg.MinioEndpoint, "bucket", cfg.MinioBucket)
		return store, nil
	case "local", "":
		store, err := objectstore.NewLocalStore(cfg.LocalDir)
		if err != nil {
			return nil, err
		}
		log.Info(ctx, "Local object store initialized", "dir", cfg.LocalDir)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func NewLocker(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (locker.Locker, func() error, error) {
	if cfg.Addr == "" {
		log.Info(ctx, "REDIS_ADDR not set, using in-process sync lock")
		return locker.NewMemoryLocker(), func() error { return nil }, nil
	}

	client := locker.NewRedisClient(cfg.Addr, cfg.Password, cfg.DB)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}
	log.Info(ctx, "Redis sync lock initialized", "addr", cfg.Addr)
	return locker.NewRedisLocker(client, cfg.KeyPrefix), client.Close, nil
}

func NewReconciler(repos Repositories, lk locker.Locker, cfg config.HistoryConfig, log *logger.Logger) *history.Reconciler {
	hcfg := history.DefaultConfig()
	hcfg.Tolerance = cfg.Tolerance
	hcfg.Retention = cfg.Retention
	if cfg.BatchSize > 0 {
		hcfg.BatchSize = cfg.BatchSize
	}
	if cfg.OutputPrefix != "" {
		hcfg.OutputPrefix = cfg.OutputPrefix
	}
	if cfg.OutputExtension != "" {
		hcfg.OutputExtension = cfg.OutputExtension
	}
	if cfg.LockTTL > 0 {
		hcfg.LockTTL = cfg.LockTTL
	}
	return history.NewReconciler(repos, repos, lk, hcfg, log)
}
