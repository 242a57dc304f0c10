package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Port           string
	Environment    string
	AllowedOrigins string

	// Mnemosyne semantic-memory service. Empty URL disables the client and
	// the engine runs in degraded mode without penalizing confidence.
	MnemosyneURL     string
	MnemosyneTimeout time.Duration

	// External collaborator calls (idea discovery, response generation)
	ExternalCallTimeout time.Duration

	// Session engine tuning
	DefaultContextWindow int
	ConfidencePrior      float64
	FreshnessWindow      time.Duration

	// Retention policy for the volatile session store
	RetentionWindow        time.Duration
	RetentionSweepInterval time.Duration

	// Topic vocabulary + scoring weights (YAML)
	TopicsPath string

	// Ingestion limits
	IngestUserAgent     string
	IngestMaxConcurrent int
	IngestMaxBodySize   int64
	IngestGlobalRate    float64
	IngestPerUserRate   float64
	IngestCacheTTL      time.Duration

	// Idea catalog retention
	IdeaTTL time.Duration
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8100"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000"),

		MnemosyneURL:     getEnv("MNEMOSYNE_URL", ""),
		MnemosyneTimeout: getDurationEnv("MNEMOSYNE_TIMEOUT", 3*time.Second),

		ExternalCallTimeout: getDurationEnv("EXTERNAL_CALL_TIMEOUT", 5*time.Second),

		DefaultContextWindow: getIntEnv("DEFAULT_CONTEXT_WINDOW", 10),
		ConfidencePrior:      getFloatEnv("CONFIDENCE_PRIOR", 0.8),
		FreshnessWindow:      getDurationEnv("FRESHNESS_WINDOW", 24*time.Hour),

		RetentionWindow:        getDurationEnv("RETENTION_WINDOW", 30*24*time.Hour),
		RetentionSweepInterval: getDurationEnv("RETENTION_SWEEP_INTERVAL", 1*time.Hour),

		TopicsPath: getEnv("TOPICS_CONFIG", "config/topics.yaml"),

		IngestUserAgent:     getEnv("INGEST_USER_AGENT", "Aletheia-Bot/1.0 (+https://aletheia.example.com/bot)"),
		IngestMaxConcurrent: getIntEnv("INGEST_MAX_CONCURRENT", 10),
		IngestMaxBodySize:   int64(getIntEnv("INGEST_MAX_BODY_BYTES", 10*1024*1024)),
		IngestGlobalRate:    getFloatEnv("INGEST_GLOBAL_RATE", 10.0),
		IngestPerUserRate:   getFloatEnv("INGEST_PER_USER_RATE", 5.0),
		IngestCacheTTL:      getDurationEnv("INGEST_CACHE_TTL", 1*time.Hour),

		IdeaTTL: getDurationEnv("IDEA_TTL", 7*24*time.Hour),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
