package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/insurhub/underwriter/internal/application/port"
	"github.com/insurhub/underwriter/internal/application/service"
	"github.com/insurhub/underwriter/internal/config"
	"github.com/insurhub/underwriter/internal/infrastructure/external/aiscore"
	"github.com/insurhub/underwriter/internal/infrastructure/external/openai"
	"github.com/insurhub/underwriter/internal/infrastructure/persistence/repository"
	"github.com/insurhub/underwriter/internal/infrastructure/persistence/sqlite"
	httpserver "github.com/insurhub/underwriter/internal/interfaces/http"
	"github.com/insurhub/underwriter/internal/interfaces/websocket"
	"github.com/insurhub/underwriter/pkg/database"
	"github.com/insurhub/underwriter/pkg/utils"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting insurance underwriting service",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	// Initialize database
	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Initialize repositories
	sqliteDB := sqlite.NewDB(db.DB, logger)
	applicationRepo := repository.NewApplicationRepository(sqliteDB, logger)
	claimRepo := repository.NewClaimRepository(sqliteDB, logger)
	paymentRepo := repository.NewPaymentRepository(sqliteDB, logger)
	notificationRepo := repository.NewNotificationRepository(sqliteDB, logger)
	policyRepo := repository.NewPolicyRepository(sqliteDB, logger)

	// Initialize scoring backend
	var scorer port.AIScorer
	switch cfg.Scoring.Provider {
	case "openai":
		scorer = openai.NewScorer(
			cfg.OpenAI.APIKey,
			cfg.OpenAI.Model,
			cfg.OpenAI.Temperature,
			cfg.OpenAI.Timeout,
			logger,
		)
	default:
		scorer = aiscore.NewClient(cfg.AIService.BaseURL, cfg.AIService.Timeout, logger)
	}

	// Shared infrastructure
	kvLogger := utils.NewZapKV(logger)
	idGen := utils.NewUUIDGenerator()
	clock := utils.SystemClock{}
	lease := service.NewEntityLease()

	// Notification fan-out over websockets
	hub := websocket.NewHub(logger)
	notificationSvc := service.NewNotificationService(notificationRepo, hub, clock, kvLogger)

	// Effect dispatch and workflow services
	dispatcher := service.NewEffectDispatcher(paymentRepo, notificationSvc, sqliteDB, idGen, clock, kvLogger)
	thresholds := cfg.Thresholds.Scoring()
	underwritingSvc := service.NewUnderwritingService(
		applicationRepo,
		policyRepo,
		scorer,
		dispatcher,
		lease,
		thresholds,
		clock,
		kvLogger,
	)
	claimSvc := service.NewClaimService(
		claimRepo,
		applicationRepo,
		paymentRepo,
		scorer,
		dispatcher,
		lease,
		thresholds,
		idGen,
		clock,
		kvLogger,
	)

	// HTTP server
	server := httpserver.NewServer(httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, underwritingSvc, claimSvc, hub, kvLogger)

	// Shut down on interrupt
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}
