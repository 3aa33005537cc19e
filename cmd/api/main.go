package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pharmago/internal/catalog"
	"pharmago/internal/checkout"
	"pharmago/internal/config"
	"pharmago/internal/database"
	"pharmago/internal/docstore"
	"pharmago/internal/events"
	"pharmago/internal/handler"
	"pharmago/internal/identity"
	"pharmago/internal/model"
	"pharmago/internal/preferences"
	"pharmago/internal/router"
	"pharmago/internal/service"
	"pharmago/internal/session"

	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)
	logger.Info().
		Str("store_backend", cfg.Database.Backend).
		Msg("starting pharmago API server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Document store
	docs, closeDocs, err := openDocstore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeDocs()

	// Pharmacy listings, from S3 when enabled with the bundled file as fallback
	var s3Loader catalog.Loader
	if cfg.S3.Enabled {
		s3Loader, err = catalog.NewS3Loader(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 loader, falling back to local file system only")
		}
	}
	loader := catalog.NewFallbackLoader(s3Loader, catalog.NewFileLoader(logger), cfg.S3.Prefix, cfg.S3.Enabled, logger)

	cat, err := catalog.Load(ctx, loader, cfg.Catalogue.Path, cfg.Catalogue.SearchLatency, logger)
	if err != nil {
		return fmt.Errorf("failed to load pharmacy catalogue: %w", err)
	}

	// Accounts
	identityConfig := identity.DefaultConfig([]byte(cfg.Auth.JWTSecret))
	identityConfig.TokenTTL = cfg.Auth.TokenTTL
	provider, err := identity.NewProvider(docs, identityConfig, logger)
	if err != nil {
		return fmt.Errorf("failed to initialise identity provider: %w", err)
	}

	// Per-user carts, orders and checkout; order IDs are reserved in the shared archive
	registry := session.NewRegistry(
		service.NewOrderArchive(docs, logger),
		checkout.NewTimestampIDGenerator(nil),
		checkout.RealScheduler{},
		&checkout.Config{
			ClearDelay:    cfg.Checkout.ClearDelay,
			MaxIDAttempts: cfg.Checkout.MaxIDAttempts,
		},
		logger,
	)
	defer registry.Close()

	unsubscribe := provider.OnAuthStateChanged(func(userID string, user *model.User) {
		if user == nil && registry.Evict(userID) {
			logger.Debug().Str("user_id", userID).Msg("session evicted after sign-out")
		}
	})
	defer unsubscribe()

	prefs, closePrefs, err := openPreferences(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closePrefs()

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Kafka.Enabled {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		logger.Info().
			Strs("brokers", cfg.Kafka.Brokers).
			Str("topic", cfg.Kafka.Topic).
			Msg("publishing order events to kafka")
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close event publisher")
		}
	}()

	// Services
	storefrontService := service.NewStorefrontService(registry, cat, docs, publisher, logger)
	pharmacyService := service.NewPharmacyService(cat, docs, registry, publisher, cfg.Catalogue.LowStockThreshold, logger)
	catalogService := service.NewCatalogService(cat, cat, docs, logger)
	supportService := service.NewSupportService(docs, cfg.Support.SubmitDelay, logger)

	mux := router.New(router.Handlers{
		Auth:        handler.NewAuthHandler(provider, logger),
		Storefront:  handler.NewStorefrontHandler(storefrontService, logger),
		Catalog:     handler.NewCatalogHandler(catalogService, logger),
		Preferences: handler.NewPreferenceHandler(prefs, logger),
		Pharmacy:    handler.NewPharmacyHandler(pharmacyService, logger),
		Support:     handler.NewSupportHandler(supportService, logger),
	}, provider, cfg.Server.AllowedOrigin, logger)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// openDocstore returns the configured document store and its release func.
func openDocstore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (docstore.Store, func(), error) {
	if cfg.Database.Backend != config.BackendPostgres {
		logger.Info().Msg("using in-memory document store")
		return docstore.NewMemoryStore(logger), func() {}, nil
	}

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := database.Migrate(ctx, pool, logger, docstore.Schema); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return docstore.NewPostgresStore(pool, logger), pool.Close, nil
}

// openPreferences returns the Redis-backed store when enabled, memory otherwise.
func openPreferences(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (preferences.Store, func(), error) {
	if !cfg.Redis.Enabled {
		return preferences.NewMemoryStore(logger), func() {}, nil
	}

	client, err := preferences.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	closeClient := func() {
		if err := client.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close redis client")
		}
	}
	return preferences.NewRedisStore(client, cfg.Redis.Prefix, cfg.Redis.TTL, logger), closeClient, nil
}
