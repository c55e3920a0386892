package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/inkwell-ai/inkwell/internal/config"
	"github.com/inkwell-ai/inkwell/internal/database"
	"github.com/inkwell-ai/inkwell/internal/logger"
	"github.com/inkwell-ai/inkwell/internal/queue"
	"github.com/inkwell-ai/inkwell/internal/services/ai"
	"github.com/inkwell-ai/inkwell/internal/workers"
	"go.uber.org/zap"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug mode for AI API logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.WorkerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync(zapLogger)
	}()

	zapLogger.Info("starting_worker",
		zap.Bool("debug_mode", debugMode),
		zap.String("analysis_model", cfg.AnalysisModel),
		zap.Int("prefetch", cfg.RabbitMQPrefetch),
	)

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_database")

	userRepo := database.NewUserRepository(db)
	journalRepo := database.NewJournalRepository(db)
	insightRepo := database.NewInsightRepository(db)
	promptRepo := database.NewPromptRepository(db)
	usageRepo := database.NewUsageRepository(db)

	jobQueue, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_rabbitmq")

	// The worker only runs analysis tasks, so it binds the analysis role
	// alone; transcription traffic never reaches the queue.
	registry := ai.NewRegistry()
	if cfg.AnalysisModel != "" {
		backend := ai.NewOpenAIBackend(cfg.OpenAIKey, cfg.AIBaseURL, cfg.AnalysisModel, zapLogger, debugMode)
		registry.Bind(ai.RoleAnalysis, ai.Binding{
			Backend:            backend,
			SupportsJSONOutput: cfg.AnalysisSupportsJSON,
		})
	} else {
		zapLogger.Fatal("analysis_model_not_configured")
	}

	limiters := map[ai.ModelRole]*ai.RateLimiter{
		ai.RoleAnalysis: ai.NewRateLimiter(cfg.AnalysisLimits.RPM, cfg.AnalysisLimits.RPD, zapLogger),
	}
	ledger := ai.NewLedger(usageRepo, zapLogger)
	dispatcher := ai.NewDispatcher(registry, limiters, ledger, zapLogger)

	analyzer := workers.NewEntryAnalyzer(
		dispatcher,
		journalRepo,
		insightRepo,
		userRepo,
		promptRepo,
		jobQueue,
		zapLogger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Hourly DLQ sweep; poisoned jobs are kept a day for inspection.
	dlqGC := queue.NewGarbageCollector(jobQueue, time.Hour, 24*time.Hour, zapLogger)
	go func() {
		if err := dlqGC.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			zapLogger.Error("dlq_garbage_collector_stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-quit
		zapLogger.Info("worker_shutting_down", zap.String("signal", sig.String()))
		cancel()
	}()

	if err := analyzer.Run(ctx, jobQueue, cfg.RabbitMQPrefetch); err != nil && !errors.Is(err, context.Canceled) {
		zapLogger.Fatal("worker_stopped_with_error", zap.Error(err))
	}

	zapLogger.Info("worker_exited")
}
