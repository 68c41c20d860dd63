package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/pubsub/v2"
	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/storage"
	"github.com/rs/zerolog"

	"github.com/dailycast/dailycast/internal/alert"
	"github.com/dailycast/dailycast/internal/api"
	"github.com/dailycast/dailycast/internal/buffer"
	"github.com/dailycast/dailycast/internal/health"
	"github.com/dailycast/dailycast/internal/health/checks"
	"github.com/dailycast/dailycast/internal/telemetry"
	"github.com/dailycast/dailycast/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "dailycast-preflight"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting dailycast preflight worker")

	// Get configuration from environment
	port := envOr("APP_PORT", "8080")
	env := envOr("APP_ENV", "development")
	projectID := os.Getenv("GCP_PROJECT_ID")
	if projectID == "" {
		log.Fatal().Msg("GCP_PROJECT_ID is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry
	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   envOr("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		Enabled:        os.Getenv("OTEL_ENABLED") == "true",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	// GCP clients
	fsClient, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create firestore client")
	}
	defer fsClient.Close()

	gcsClient, err := storage.NewClient(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create storage client")
	}
	defer gcsClient.Close()

	smClient, err := secretmanager.NewClient(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create secret manager client")
	}
	defer smClient.Close()

	psClient, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create pubsub client")
	}
	defer psClient.Close()

	// Service checkers, in the canonical order
	checkers := []health.Checker{
		checks.NewGeminiChecker(checks.GeminiConfig{
			APIKey: os.Getenv("GEMINI_API_KEY"),
			Logger: log,
		}),
		checks.NewYouTubeChecker(checks.YouTubeConfig{
			APIKey:      os.Getenv("YOUTUBE_API_KEY"),
			ChannelID:   os.Getenv("YOUTUBE_CHANNEL_ID"),
			QuotaSource: checks.NewFirestoreQuotaSource(fsClient),
			Logger:      log,
		}),
		checks.NewTwitterChecker(checks.TwitterConfig{
			BearerToken: os.Getenv("TWITTER_BEARER_TOKEN"),
			Logger:      log,
		}),
		checks.NewFirestoreChecker(checks.FirestoreConfig{
			Client: fsClient,
			Logger: log,
		}),
		checks.NewStorageChecker(checks.StorageConfig{
			Client: gcsClient,
			Bucket: envOr("MEDIA_BUCKET", "dailycast-media"),
			Logger: log,
		}),
		checks.NewSecretsChecker(checks.SecretsConfig{
			Client:    smClient,
			ProjectID: projectID,
			Logger:    log,
		}),
	}

	orchestrator, err := health.NewOrchestrator(health.OrchestratorConfig{
		Checkers:   checkers,
		Repository: health.NewFirestoreRepository(fsClient),
		Logger:     log,
		Meter:      tp.Meter,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create orchestrator")
	}

	// Alerting
	dispatcher := alert.NewDispatcher(alert.DispatcherConfig{
		Discord: alert.NewDiscordChannel(alert.DiscordConfig{
			WebhookURL: os.Getenv("DISCORD_WEBHOOK_URL"),
			Logger:     log,
		}),
		Email: alert.NewMailChannel(alert.MailConfig{
			APIKey: os.Getenv("MAIL_API_KEY"),
			From:   envOr("ALERT_MAIL_FROM", "preflight@dailycast.dev"),
			To:     strings.Split(envOr("ALERT_MAIL_TO", "oncall@dailycast.dev"), ","),
			Logger: log,
		}),
		Logger: log,
	})

	// Fallback deployment
	bufferService := buffer.NewService(buffer.ServiceConfig{
		Store:     buffer.NewFirestoreStore(fsClient),
		Publisher: worker.NewTopicPublisher(psClient, envOr("DEPLOY_TOPIC", "publish-jobs")),
		Logger:    log,
	})

	failureHandler := health.NewFailureHandler(health.FailureHandlerConfig{
		Alerts:     dispatcher,
		Deployment: bufferService,
		Logger:     log,
	})

	runner := worker.NewPipelineRunner(worker.PipelineRunnerConfig{
		Gate:     orchestrator,
		Failures: failureHandler,
		Proceed:  worker.NewTopicPublisher(psClient, envOr("PIPELINE_TOPIC", "pipeline-stages")),
		Logger:   log,
	})

	pubsubHandler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
		ProjectID:        projectID,
		SubscriptionName: envOr("TRIGGER_SUBSCRIPTION", "preflight-trigger"),
		Runner:           runner,
		Logger:           log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create pubsub handler")
	}
	defer pubsubHandler.Close()

	go func() {
		if err := pubsubHandler.Start(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("pubsub handler stopped")
		}
	}()

	// Ops HTTP surface
	analyzer := health.NewAnalyzer(health.AnalyzerConfig{
		Repository: health.NewFirestoreRepository(fsClient),
		Logger:     log,
	})
	router := api.NewRouter(api.RouterConfig{
		Version:   Version,
		BuildTime: BuildTime,
		Logger:    log,
		Analyzer:  analyzer,
	})
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	go func() {
		log.Info().Str("port", port).Msg("ops server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("ops server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down preflight worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("ops server forced to shutdown")
	}

	log.Info().Msg("preflight worker stopped")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
