package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds every externally supplied setting. It is constructed once in
// main and passed explicitly to the components that need it.
type Config struct {
	Port string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Document extraction service
	DocExtractAPIKey  string
	DocExtractBaseURL string

	// Anthropic generative capability
	AnthropicAPIKey string
	AnthropicModel  string
	LLMTimeout      time.Duration

	FrontendURL string
}

const defaultAnthropicModel = "claude-sonnet-4-5-20250929"

// Load reads configs/.env if present and builds the Config from environment
// variables with development defaults.
func Load() Config {
	if err := godotenv.Load("configs/.env"); err != nil {
		logrus.Debug("no configs/.env file found")
	}

	timeoutSecs, err := strconv.Atoi(os.Getenv("LLM_TIMEOUT_SECONDS"))
	if err != nil || timeoutSecs <= 0 {
		timeoutSecs = 90
	}

	return Config{
		Port:              envOr("PORT", "8080"),
		DBHost:            envOr("DB_HOST", "localhost"),
		DBPort:            envOr("DB_PORT", "5432"),
		DBUser:            envOr("DB_USER", "postgres"),
		DBPassword:        envOr("DB_PASSWORD", "postgres"),
		DBName:            envOr("DB_NAME", "postgres"),
		DBSSLMode:         envOr("DB_SSLMODE", "disable"),
		DocExtractAPIKey:  os.Getenv("DOCEXTRACT_API_KEY"),
		DocExtractBaseURL: envOr("DOCEXTRACT_BASE_URL", "https://api.va.landing.ai/v1/ade"),
		AnthropicAPIKey:   os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:    envOr("ANTHROPIC_MODEL", defaultAnthropicModel),
		LLMTimeout:        time.Duration(timeoutSecs) * time.Second,
		FrontendURL:       envOr("FRONTEND_URL", "http://localhost:5173"),
	}
}

// DSN builds the postgres connection string.
func (c Config) DSN() string {
	return "postgres://" + c.DBUser + ":" + c.DBPassword + "@" + c.DBHost + ":" + c.DBPort + "/" + c.DBName + "?sslmode=" + c.DBSSLMode
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
