package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"plume/internal/auth"
	"plume/internal/catalog"
	"plume/internal/config"
	"plume/internal/feed"
	"plume/internal/handler"
	"plume/internal/handler/sse"
	"plume/internal/middleware"
	"plume/internal/service"
	"plume/internal/service/ai"
	"plume/internal/service/creation"
	"plume/internal/stage"
	"plume/internal/tour"
)

// feedBuffer is the per-subscriber event buffer of the live lists.
const feedBuffer = 8

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Setup structured logging
	logOut, closeLog, err := config.LogWriter(cfg.LogDir)
	if err != nil {
		log.Fatalf("Failed to set up log file: %v", err)
	}
	defer closeLog()

	logger := config.NewLogger(cfg.Environment, logOut)
	slog.SetDefault(logger) // Set as default logger

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Identity verification
	var verifier auth.JWTVerifier
	switch {
	case cfg.SupabaseJWKSURL != "":
		verifier, err = auth.NewJWTVerifier(ctx, cfg.SupabaseJWKSURL, logger)
		if err != nil {
			log.Fatalf("Failed to create JWT verifier: %v", err)
		}
	case cfg.Environment == "prod":
		log.Fatalf("SUPABASE_URL is required in prod")
	default:
		verifier = auth.NewDevVerifier(cfg.DevUserID, cfg.DevUserName, logger)
		logger.Warn("DEV MODE: SUPABASE_URL not set, every bearer token is accepted (NEVER use in production!)")
	}
	defer verifier.Close()

	// Stores
	hub := feed.NewHub(feedBuffer, logger)
	stores, err := setupBackends(ctx, cfg, hub, logger)
	if err != nil {
		log.Fatalf("Failed to set up backends: %v", err)
	}
	defer stores.Close()

	// Embedded learning tracks and tour
	cat, err := catalog.Load()
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}

	// AI tools
	generator, err := ai.NewGenerator(cfg)
	if err != nil {
		log.Fatalf("Failed to set up AI generator: %v", err)
	}
	logger.Info("AI generator ready", "provider", generator.Name())

	// Services
	creationService := creation.NewService(stores.creations, stores.blobs, stores.tx, stores.events, logger)
	userPrefsService := service.NewUserPreferencesService(stores.prefs, logger)
	assistant := ai.NewService(generator, cat, logger)
	tourController := tour.NewController(cat.TourSteps(), userPrefsService, logger)

	// Virtual stage
	device := stage.NewClientDevice(logger)
	registry := stage.NewRegistry(device, stage.Options{
		MaxDuration: cfg.StageMaxDuration,
		MaxBytes:    config.MaxRecordingBytes,
		Logger:      logger,
	}, cfg.StageIdleTimeout, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, &handler.Handlers{
		Session:     handler.NewSessionHandler(),
		Creation:    handler.NewCreationHandler(creationService, stores.guard, logger),
		Community:   handler.NewCommunityHandler(creationService, creationService, logger),
		Stream:      handler.NewSSEHandler(hub, creationService, sse.New(cfg.StreamKeepAlive, cfg.StreamRetry), logger),
		Stage:       handler.NewStageHandler(registry, creationService, stores.guard, logger),
		AI:          handler.NewAIHandler(assistant, logger),
		Learning:    handler.NewLearningHandler(cat),
		Tour:        handler.NewTourHandler(tourController, logger),
		Preferences: handler.NewUserPreferencesHandler(userPrefsService, logger),
		Blobs:       stores.localBlobs,
	})

	// Build middleware chain
	var h http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Auth → Routes
	h = middleware.AuthMiddleware(auth.NewResolver(verifier), logger)(h)
	h = middleware.Recovery(logger)(h)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "Last-Event-ID", handler.IdempotencyHeader},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // Disabled to allow long-lived SSE streams
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	// Server, stage clock and change listener share one lifetime: the
	// first to fail stops the others.
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		registry.Run(groupCtx)
		return nil
	})
	if stores.listener != nil {
		group.Go(func() error {
			stores.listener.Run(groupCtx, hub.Dispatch)
			return nil
		})
	}
	group.Go(func() error {
		logger.Info("server listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
