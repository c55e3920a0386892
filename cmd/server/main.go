package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/inkwell-ai/inkwell/internal/config"
	"github.com/inkwell-ai/inkwell/internal/database"
	"github.com/inkwell-ai/inkwell/internal/handlers"
	"github.com/inkwell-ai/inkwell/internal/logger"
	"github.com/inkwell-ai/inkwell/internal/middleware"
	"github.com/inkwell-ai/inkwell/internal/queue"
	"github.com/inkwell-ai/inkwell/internal/services/ai"
	"github.com/inkwell-ai/inkwell/internal/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug mode for AI API logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := newLogger(cfg, debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync(zapLogger)
	}()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("analysis_model", cfg.AnalysisModel),
		zap.String("transcription_model", cfg.TranscriptionModel),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	if cfg.OTELEnabled {
		tp, err := telemetry.InitTracer(context.Background(), "inkwell-api", cfg.OTELEndpoint)
		if err != nil {
			zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		} else if tp != nil {
			zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
			defer func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
					zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
				}
			}()
		}
	}

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

	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer migrateCancel()
	if err := db.Migrate(migrateCtx); err != nil {
		zapLogger.Fatal("failed_to_migrate_database", zap.Error(err))
	}

	redisLimiter, err := middleware.NewRedisRateLimiter(cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
	}
	defer func() {
		if err := redisLimiter.Close(); err != nil {
			zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_redis")

	jobQueue := connectQueue(cfg.RabbitMQURL, zapLogger)
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()

	// Repositories
	userRepo := database.NewUserRepository(db)
	journalRepo := database.NewJournalRepository(db)
	insightRepo := database.NewInsightRepository(db)
	promptRepo := database.NewPromptRepository(db)
	analyticsRepo := database.NewAnalyticsRepository(db)
	usageRepo := database.NewUsageRepository(db)
	goalRepo := database.NewGoalRepository(db)

	seedCtx, seedCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer seedCancel()
	if err := promptRepo.Seed(seedCtx); err != nil {
		zapLogger.Fatal("failed_to_seed_prompt_templates", zap.Error(err))
	}

	// AI dispatch
	stack := buildDispatcher(cfg, usageRepo, zapLogger, debugMode)

	// Handlers
	healthChecker := handlers.NewHealthChecker(db, jobQueue, redisLimiter)
	chatHandler := handlers.NewChatHandler(stack.dispatcher, promptRepo)
	journalHandler := handlers.NewJournalHandler(journalRepo, insightRepo, jobQueue, zapLogger)
	ocrHandler := handlers.NewOCRHandler(stack.dispatcher, promptRepo, journalRepo, jobQueue, zapLogger)
	transcribeHandler := handlers.NewTranscribeHandler(stack.dispatcher, promptRepo, journalRepo, jobQueue, zapLogger)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsRepo, promptRepo, stack.dispatcher)
	tokensHandler := handlers.NewTokensHandler(stack.ledger, usageRepo)
	goalsHandler := handlers.NewGoalsHandler(goalRepo)

	r := mux.NewRouter()

	// Middleware, outermost first.
	if cfg.OTELEnabled {
		r.Use(otelmux.Middleware("inkwell-api"))
	}
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(middleware.CORS(cfg.FrontendURL))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(middleware.DefaultRequestTimeout))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.Logging(zapLogger))

	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods("GET")

	// Authenticated API routes. The messaging gateway forwards the user
	// identity in headers; every route below requires it.
	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.Use(middleware.RateLimit(redisLimiter, middleware.DefaultTransportRateLimit))
	burstLimit, err := middleware.BurstLimit(redisLimiter.Client(), "10-S")
	if err != nil {
		zapLogger.Fatal("failed_to_create_burst_limiter", zap.Error(err))
	}
	apiRouter.Use(burstLimit)
	apiRouter.Use(middleware.UserContext(userRepo, cfg.RequireApproval, zapLogger))

	chatHandler.RegisterRoutes(apiRouter)
	journalHandler.RegisterRoutes(apiRouter)
	ocrHandler.RegisterRoutes(apiRouter)
	transcribeHandler.RegisterRoutes(apiRouter)
	analyticsHandler.RegisterRoutes(apiRouter)
	tokensHandler.RegisterRoutes(apiRouter)
	goalsHandler.RegisterRoutes(apiRouter)

	// Preflight requests short-circuit after the CORS middleware sets
	// headers.
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   150 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}

func newLogger(cfg *config.Config, debugMode bool) (*zap.Logger, error) {
	if cfg.PrettyLogs {
		return logger.NewDevelopmentLogger(debugMode)
	}
	return logger.NewProductionLogger(debugMode)
}

// connectQueue dials RabbitMQ with exponential backoff, to ride out broker
// startup delays in containerized deployments.
func connectQueue(amqpURL string, zapLogger *zap.Logger) queue.JobQueue {
	const maxRetries = 10
	const initialDelay = 2 * time.Second

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		jobQueue, err := queue.NewRabbitMQQueue(amqpURL)
		if err == nil {
			zapLogger.Info("connected_to_rabbitmq")
			return jobQueue
		}

		lastErr = err
		delay := initialDelay * time.Duration(1<<uint(attempt))
		if delay > 30*time.Second {
			delay = 30 * time.Second
		}
		zapLogger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries),
			zap.Duration("retry_delay", delay),
			zap.Error(err),
		)
		time.Sleep(delay)
	}

	zapLogger.Fatal("failed_to_connect_to_rabbitmq_after_retries",
		zap.Int("max_retries", maxRetries),
		zap.Error(lastErr),
	)
	return nil
}

// aiStack bundles the dispatcher with the ledger it records into.
type aiStack struct {
	dispatcher *ai.Dispatcher
	ledger     *ai.Ledger
}

// buildDispatcher assembles the model registry, per-role admission limiters,
// usage ledger and dispatcher from configuration.
func buildDispatcher(cfg *config.Config, usageRepo *database.UsageRepository, zapLogger *zap.Logger, debugMode bool) aiStack {
	registry := ai.NewRegistry()

	if cfg.AnalysisModel != "" {
		backend := ai.NewOpenAIBackend(cfg.OpenAIKey, cfg.AIBaseURL, cfg.AnalysisModel, zapLogger, debugMode)
		registry.Bind(ai.RoleAnalysis, ai.Binding{
			Backend:            backend,
			SupportsJSONOutput: cfg.AnalysisSupportsJSON,
		})
	}
	if cfg.TranscriptionModel != "" {
		backend := ai.NewOpenAIBackend(cfg.OpenAIKey, cfg.AIBaseURL, cfg.TranscriptionModel, zapLogger, debugMode)
		registry.Bind(ai.RoleTranscription, ai.Binding{
			Backend:            backend,
			SupportsJSONOutput: cfg.TranscriptionSupportsJSON,
		})
	}

	if len(registry.ConfiguredRoles()) == 0 {
		zapLogger.Warn("no_model_roles_configured_ai_requests_will_fail")
	}

	limiters := map[ai.ModelRole]*ai.RateLimiter{
		ai.RoleAnalysis:      ai.NewRateLimiter(cfg.AnalysisLimits.RPM, cfg.AnalysisLimits.RPD, zapLogger),
		ai.RoleTranscription: ai.NewRateLimiter(cfg.TranscriptionLimits.RPM, cfg.TranscriptionLimits.RPD, zapLogger),
	}

	ledger := ai.NewLedger(usageRepo, zapLogger)
	dispatcher := ai.NewDispatcher(registry, limiters, ledger, zapLogger)

	return aiStack{dispatcher: dispatcher, ledger: ledger}
}
