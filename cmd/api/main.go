package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	svix "github.com/svix/svix-webhooks/go"

	"niwaki/internal/adapter/repo"
	"niwaki/internal/content"
	"niwaki/internal/http/handlers"
	httpapi "niwaki/internal/http/httpapi"
	"niwaki/internal/infra"
	"niwaki/internal/infra/clerk"
	"niwaki/internal/infra/geoip"
	"niwaki/internal/middleware"
	"niwaki/internal/providers/gemini"
	"niwaki/internal/storage"
	"niwaki/internal/visualize"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	reporter, err := infra.NewReporter(cfg.SentryDSN, cfg.AppEnv, "api")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise sentry")
	}
	defer reporter.Flush(2 * time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbpool, err := infra.NewDBPool(ctx, cfg, "niwaki-api")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()
	runner := infra.NewSQLRunner(dbpool, logger)

	library, err := content.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load content")
	}

	app := &handlers.App{
		SQL:             runner,
		Logger:          logger,
		Config:          cfg,
		Content:         library,
		LeaderboardRepo: repo.NewLeaderboardRepository(runner),
		Reporter:        reporter,
	}

	switch cfg.StorageDriver {
	case "s3":
		app.Storage, err = storage.NewS3Store(ctx, storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
	default:
		app.Storage, err = storage.NewFileStore(cfg.StoragePath)
	}
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.StorageDriver).Msg("failed to initialise storage")
	}

	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	} else if resolver != nil {
		defer resolver.Close()
		app.Geo = resolver
	}

	if cfg.ClerkWebhookSecret != "" {
		wh, err := svix.NewWebhook(cfg.ClerkWebhookSecret)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid CLERK_WEBHOOK_SECRET")
		}
		app.Webhook = wh
	}

	var verifier middleware.TokenVerifier
	if cfg.ClerkJWKSURL != "" {
		verifier = clerk.NewVerifier(cfg.ClerkIssuer, cfg.ClerkJWKSURL, cfg.ClerkAuthorizedParties)
	} else {
		logger.Warn().Msg("CLERK_ISSUER not set; all requests are anonymous")
	}

	var dispatcher *visualize.Dispatcher
	if cfg.GeminiConfigured() {
		client, err := gemini.New(ctx, gemini.Options{
			APIKey:      cfg.GeminiAPIKey,
			ImageModel:  cfg.GeminiImageModel,
			VisionModel: cfg.GeminiVisionModel,
			Logger:      logger,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create gemini client")
		}
		store, err := visualize.OpenBadgerStore(cfg.VisualizeRetention, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to open job store")
		}
		defer store.Close()

		jobRunner := visualize.NewRunner(store, client, logger, reporter)
		dispatcher = visualize.NewDispatcher(cfg.VisualizeWorkers, cfg.VisualizeQueueSize, jobRunner.Run, logger)
		dispatcher.Start()

		app.Visualizer = visualize.NewService(store, dispatcher, logger)
		app.Generator = client
		app.Analyser = client
	} else {
		logger.Warn().Msg("GEMINI_API_KEY not set; visualiser disabled")
	}

	server := infra.NewHTTPServer(cfg, httpapi.NewRouter(app, verifier))
	logger.Info().Str("addr", server.Addr()).Msg("API listening")
	if err := server.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("http server failed")
	}

	if dispatcher != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		if err := dispatcher.Stop(stopCtx); err != nil {
			logger.Warn().Err(err).Msg("visualiser workers did not stop in time")
		}
		cancel()
	}
	logger.Info().Msg("server stopped")
}
