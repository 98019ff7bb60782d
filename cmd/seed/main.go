package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"plume/internal/auth"
	"plume/internal/config"
	"plume/internal/domain/models"
	"plume/internal/domain/repositories"
	"plume/internal/domain/services"
	"plume/internal/repository/postgres"
	"plume/internal/service/creation"
	"plume/internal/storage"
)

// recordingsPrefix is where the server stores audio objects.
const recordingsPrefix = "audio/"

func main() {
	// Parse command-line flags
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed creations")
	clearData := flag.Bool("clear-data", false, "Clear all creations, preferences and recordings (keep schema)")
	withUsers := flag.Bool("with-users", false, "Create the demo artists in Supabase Auth (needs SUPABASE_URL and SUPABASE_KEY)")
	flag.Parse()

	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && (*dropTables || *clearData) {
		log.Fatalf("🚫 BLOCKED: Cannot run destructive operations (--drop-tables or --clear-data) in production environment")
	}
	if cfg.SupabaseDBURL == "" {
		log.Fatalf("SUPABASE_DB_URL is required")
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	if *clearData {
		log.Printf("🧹 Clearing data only (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	} else if *schemaOnly {
		log.Printf("🏗️  Setting up schema only (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	} else {
		log.Printf("🌱 Seeding database (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	}

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *dropTables {
		log.Println("🗑️  Dropping all tables...")
		if err := postgres.DropTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("✅ Tables dropped")
	}

	log.Println("📋 Ensuring database schema is up to date...")
	if err := postgres.EnsureSchema(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("✅ Schema ready")

	if *schemaOnly {
		log.Println("✅ Schema setup complete (schema-only mode)")
		return
	}

	blobs, minioStore := openBlobStore(ctx, cfg, logger)

	if *clearData {
		clearAll(ctx, pool, tables, minioStore)
		return
	}

	authors := demoAuthors(ctx, cfg, *withUsers)

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	creationService := creation.NewService(
		postgres.NewCreationRepository(repoConfig),
		blobs,
		postgres.NewTransactionManager(pool, logger),
		postgres.NewNotifier(repoConfig),
		logger,
	)

	log.Println("⚠️  Clearing existing creations...")
	clearAll(ctx, pool, tables, minioStore)

	log.Println("📝 Seeding creations...")
	seeded := 0
	for i, item := range seedCreations() {
		author := authors[item.author]
		created, err := creationService.SaveText(ctx, author, &services.SaveTextRequest{Title: item.title, Body: item.body})
		if err != nil {
			log.Printf("❌ Failed to create '%s': %v", item.title, err)
			continue
		}

		if item.published {
			published := models.StatusPublished
			if _, err := creationService.Update(ctx, author, created.ID, &services.UpdateCreationRequest{Status: &published}); err != nil {
				log.Printf("❌ Failed to publish '%s': %v", item.title, err)
				continue
			}
		}

		for _, fan := range item.likedBy {
			if _, err := creationService.ToggleLike(ctx, authors[fan], created.ID); err != nil {
				log.Printf("❌ Failed to like '%s': %v", item.title, err)
			}
		}
		for _, c := range item.comments {
			if _, err := creationService.AddComment(ctx, authors[c.author], created.ID, &services.AddCommentRequest{Text: c.text}); err != nil {
				log.Printf("❌ Failed to comment '%s': %v", item.title, err)
			}
		}

		seeded++
		log.Printf("✅ Created creation %d: %s by %s (ID: %s, published: %t)",
			i+1, item.title, author.DisplayName, created.ID, item.published)
	}

	log.Printf("🎉 Seeding complete! %d creations", seeded)
}

// openBlobStore returns the configured object store. The MinIO store is also
// returned on its own so recordings can be pruned.
func openBlobStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repositories.BlobStore, *storage.MinIOStore) {
	if cfg.StorageEndpoint == "" {
		return storage.NewMemoryStore("http://localhost:" + cfg.Port + "/blobs"), nil
	}
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
		log.Fatalf("Failed to connect to object store: %v", err)
	}
	return store, store
}

func clearAll(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, store *storage.MinIOStore) {
	if err := postgres.ClearData(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to clear data: %v", err)
	}
	if store != nil {
		removed, err := store.Prune(ctx, recordingsPrefix)
		if err != nil {
			log.Printf("Warning: Could not prune recordings: %v", err)
		} else {
			log.Printf("🧹 Removed %d recordings", removed)
		}
	}
	log.Println("✅ Data cleared successfully")
}

// demoAuthors returns the seeded artists. With --with-users they are real
// Supabase accounts so the demo can sign in as them.
func demoAuthors(ctx context.Context, cfg *config.Config, withUsers bool) map[string]*models.Identity {
	authors := make(map[string]*models.Identity, len(demoArtists))
	for _, a := range demoArtists {
		authors[a.key] = &models.Identity{UID: a.id, DisplayName: a.name, Email: a.email}
	}
	if !withUsers {
		return authors
	}

	if cfg.SupabaseURL == "" || cfg.SupabaseKey == "" {
		log.Fatalf("--with-users needs SUPABASE_URL and SUPABASE_KEY")
	}
	admin := auth.NewAdminClient(cfg.SupabaseURL, cfg.SupabaseKey)
	for _, a := range demoArtists {
		id, err := admin.EnsureUser(ctx, a.email, demoPassword, a.name)
		if err != nil {
			log.Fatalf("Failed to create demo user %s: %v", a.email, err)
		}
		authors[a.key].UID = id
		log.Printf("👤 Demo artist %s (%s)", a.name, a.email)
	}
	return authors
}
