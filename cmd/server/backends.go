package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"plume/internal/cache"
	"plume/internal/config"
	"plume/internal/domain/repositories"
	"plume/internal/feed"
	"plume/internal/handler"
	"plume/internal/repository/memory"
	"plume/internal/repository/postgres"
	"plume/internal/storage"
)

// backends are the stores behind the services. Each one falls back to an
// in-process implementation when its endpoint is not configured.
type backends struct {
	creations repositories.CreationRepository
	prefs     repositories.UserPreferencesRepository
	tx        repositories.TransactionManager
	events    repositories.EventPublisher
	blobs     repositories.BlobStore
	guard     repositories.InFlightGuard

	// localBlobs is set when recordings are served by this process
	localBlobs handler.BlobSource
	listener   *postgres.Listener

	pool  *pgxpool.Pool
	redis *redis.Client
}

func (b *backends) Close() {
	if b.redis != nil {
		b.redis.Close()
	}
	if b.pool != nil {
		b.pool.Close()
	}
}

func setupBackends(ctx context.Context, cfg *config.Config, hub *feed.Hub, logger *slog.Logger) (*backends, error) {
	if cfg.Environment == "prod" && cfg.UsesMemoryBackends() {
		return nil, fmt.Errorf("in-memory backends are not allowed in prod: set SUPABASE_DB_URL, STORAGE_ENDPOINT and REDIS_ADDR")
	}

	b := &backends{}

	// Document store
	if cfg.SupabaseDBURL != "" {
		pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
		if err != nil {
			return nil, fmt.Errorf("create connection pool: %w", err)
		}
		b.pool = pool
		logger.Info("database connected", "max_conns", 25, "min_conns", 5)

		tables := postgres.NewTableNames(cfg.TablePrefix)
		if err := postgres.EnsureSchema(ctx, pool, tables); err != nil {
			b.Close()
			return nil, err
		}

		repoConfig := &postgres.RepositoryConfig{
			Pool:   pool,
			Tables: tables,
			Logger: logger,
		}
		b.creations = postgres.NewCreationRepository(repoConfig)
		b.prefs = postgres.NewUserPreferencesRepository(repoConfig)
		b.tx = postgres.NewTransactionManager(pool, logger)
		b.events = postgres.NewNotifier(repoConfig)
		b.listener = postgres.NewListener(repoConfig)
	} else {
		logger.Warn("SUPABASE_DB_URL not set, using in-memory document store")
		b.creations = memory.NewCreationRepository()
		b.prefs = memory.NewUserPreferencesRepository()
		b.tx = memory.NewTransactionManager()
		b.events = hub
	}

	// Object store
	if cfg.StorageEndpoint != "" {
		store, err := storage.NewMinIOStore(ctx, storage.MinIOConfig{
			Endpoint:  cfg.StorageEndpoint,
			AccessKey: cfg.StorageAccessKey,
			SecretKey: cfg.StorageSecretKey,
			Bucket:    cfg.StorageBucket,
			UseSSL:    cfg.StorageUseSSL,
			Region:    cfg.StorageRegion,
			URLTTL:    cfg.AudioURLTTL,
		}, logger)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("connect object store: %w", err)
		}
		b.blobs = store
		logger.Info("object store connected", "endpoint", cfg.StorageEndpoint, "bucket", cfg.StorageBucket)
	} else {
		logger.Warn("STORAGE_ENDPOINT not set, using in-memory object store")
		store := storage.NewMemoryStore("http://localhost:" + cfg.Port + "/blobs")
		b.blobs = store
		b.localBlobs = store
	}

	// In-flight guard
	if cfg.RedisAddr != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		b.redis = client
		b.guard = cache.NewRedisGuard(client, cfg.TablePrefix, logger)
		logger.Info("redis connected", "addr", cfg.RedisAddr)
	} else {
		logger.Warn("REDIS_ADDR not set, using in-memory in-flight guard")
		b.guard = cache.NewMemoryGuard()
	}

	return b, nil
}
