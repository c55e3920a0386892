package config

import (
	"fmt"
	"os"
	"strconv"
)

// RoleLimits holds the local admission budgets for one model role.
type RoleLimits struct {
	RPM int
	RPD int
}

// Config holds application configuration.
type Config struct {
	DatabaseURL string
	ServerPort  string
	FrontendURL string

	OpenAIKey  string
	AIBaseURL  string
	PrettyLogs bool

	// Per-role model bindings. An empty model name leaves the role
	// unconfigured; at least one role must be bound.
	AnalysisModel             string
	TranscriptionModel        string
	AnalysisSupportsJSON      bool
	TranscriptionSupportsJSON bool

	AnalysisLimits      RoleLimits
	TranscriptionLimits RoleLimits

	// RequireApproval gates all authenticated endpoints on the user's
	// approved flag.
	RequireApproval bool

	EnableHSTS bool

	RedisURL         string
	RabbitMQURL      string
	RabbitMQPrefetch int

	WorkerDebugMode bool
	ServerDebugMode bool

	OTELEnabled  bool
	OTELEndpoint string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),

		OpenAIKey:  getEnv("OPENAI_API_KEY", ""),
		AIBaseURL:  getEnv("AI_BASE_URL", ""),
		PrettyLogs: getEnvBool("PRETTY_LOGS", false),

		AnalysisModel:      getEnv("AI_ANALYSIS_MODEL", "gpt-4o-mini"),
		TranscriptionModel: getEnv("AI_TRANSCRIPTION_MODEL", ""),
		// The analysis model must accept JSON object mode: entry
		// categorization requests structured output and the analysis role is
		// its only candidate.
		AnalysisSupportsJSON:      getEnvBool("AI_ANALYSIS_JSON_OUTPUT", true),
		TranscriptionSupportsJSON: getEnvBool("AI_TRANSCRIPTION_JSON_OUTPUT", true),

		AnalysisLimits: RoleLimits{
			RPM: getEnvInt("AI_ANALYSIS_RPM", 15),
			RPD: getEnvInt("AI_ANALYSIS_RPD", 1500),
		},
		TranscriptionLimits: RoleLimits{
			RPM: getEnvInt("AI_TRANSCRIPTION_RPM", 10),
			RPD: getEnvInt("AI_TRANSCRIPTION_RPD", 1000),
		},

		RequireApproval: getEnvBool("REQUIRE_APPROVAL", true),

		EnableHSTS: getEnvBool("ENABLE_HSTS", false),

		RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RabbitMQURL:      getEnv("RABBITMQ_URL", ""),
		RabbitMQPrefetch: getEnvInt("RABBITMQ_PREFETCH", 1),

		WorkerDebugMode: getEnvBool("WORKER_DEBUG_MODE", false),
		ServerDebugMode: getEnvBool("SERVER_DEBUG_MODE", false),

		OTELEnabled:  getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.OpenAIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if cfg.RabbitMQURL == "" {
		return nil, fmt.Errorf("RABBITMQ_URL is required for journal analysis (AI features require RabbitMQ)")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
