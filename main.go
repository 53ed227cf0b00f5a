package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/securereq/securereq-engine/pkg/auth"
	"github.com/securereq/securereq-engine/pkg/catalog"
	"github.com/securereq/securereq-engine/pkg/config"
	"github.com/securereq/securereq-engine/pkg/crypto"
	"github.com/securereq/securereq-engine/pkg/database"
	"github.com/securereq/securereq-engine/pkg/handlers"
	"github.com/securereq/securereq-engine/pkg/logging"
	"github.com/securereq/securereq-engine/pkg/middleware"
	"github.com/securereq/securereq-engine/pkg/repositories"
	"github.com/securereq/securereq-engine/pkg/retry"
	"github.com/securereq/securereq-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("base_url", cfg.BaseURL),
		zap.String("database", cfg.Database.Host),
		zap.String("llm_provider", cfg.Generation.Provider))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := connectDatabase(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := database.RunMigrations(&cfg.Database, cfg.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	cat, err := catalog.Load()
	if err != nil {
		logger.Fatal("Failed to load compliance catalog", zap.Error(err))
	}

	encryptor, err := crypto.NewTokenEncryptor(cfg.IntegrationTokenKey)
	if err != nil {
		logger.Fatal("Failed to initialize token encryptor", zap.Error(err))
	}

	// Repositories
	projectRepo := repositories.NewProjectRepository(db)
	storyRepo := repositories.NewStoryRepository(db)
	analysisRepo := repositories.NewAnalysisRepository(db)
	complianceRepo := repositories.NewComplianceRepository(db)
	standardRepo := repositories.NewCustomStandardRepository(db)
	webhookRepo := repositories.NewWebhookRepository(db)
	integrationRepo := repositories.NewIntegrationRepository(db)
	genConfigRepo := repositories.NewGenerationConfigRepository(db)
	apiKeyRepo := repositories.NewAPIKeyRepository(db)

	// Services
	projectService := services.NewProjectService(projectRepo, storyRepo, analysisRepo, logger)
	storyService := services.NewStoryService(storyRepo, projectRepo, logger)
	complianceService := services.NewComplianceService(analysisRepo, storyRepo, standardRepo, complianceRepo, cat, logger)
	webhookService := services.NewWebhookService(webhookRepo, projectRepo, nil, cfg.Webhook, logger)
	analyzerService := services.NewAnalyzerService(storyRepo, analysisRepo, standardRepo, genConfigRepo,
		complianceService, webhookService, cfg.Generation, nil, logger)
	bulkService := services.NewBulkService(projectRepo, storyRepo, analyzerService, webhookService,
		cfg.Generation.BulkWorkers, logger)
	standardService := services.NewStandardService(standardRepo, projectRepo, cat, logger)
	integrationService := services.NewIntegrationService(integrationRepo, projectRepo, encryptor, logger)
	genConfigService := services.NewGenerationConfigService(genConfigRepo, cfg.Generation, logger)

	// Authenticated API routes
	api := http.NewServeMux()
	handlers.NewProjectHandler(projectService, logger).RegisterRoutes(api)
	handlers.NewStoryHandler(storyService, logger).RegisterRoutes(api)
	handlers.NewAnalysisHandler(analyzerService, bulkService, logger).RegisterRoutes(api)
	handlers.NewComplianceHandler(complianceService, logger).RegisterRoutes(api)
	handlers.NewStandardHandler(standardService, logger).RegisterRoutes(api)
	handlers.NewWebhookHandler(webhookService, logger).RegisterRoutes(api)
	handlers.NewIntegrationHandler(integrationService, logger).RegisterRoutes(api)
	handlers.NewGenerationConfigHandler(genConfigService, logger).RegisterRoutes(api)

	verifier := auth.NewVerifier(apiKeyRepo, cfg.BootstrapAPIKey, logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	mux.Handle("/api/", verifier.Middleware(api))

	server := &http.Server{
		Addr:         cfg.BindAddr + ":" + cfg.Port,
		Handler:      middleware.RequestLogger(logger)(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // bulk analysis responses can take a while
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		logger.Info("Starting securereq-engine",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}

// connectDatabase retries the initial connection so the engine survives a
// database that comes up after it does (the common case under compose).
func connectDatabase(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*database.DB, error) {
	backoff := &retry.Config{
		MaxRetries:   5,
		InitialDelay: time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
	return retry.DoWithResult(ctx, backoff, func() (*database.DB, error) {
		db, err := database.NewConnection(ctx, &cfg.Database)
		if err != nil {
			logger.Warn("Database not ready, retrying", zap.Error(err))
		}
		return db, err
	})
}
