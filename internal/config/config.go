// Package config provides configuration management for tubuyaki.
// It loads settings from environment variables with the TUBUYAKI_ prefix
// and provides sensible defaults for all configuration options.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all configuration settings for the tubuyaki application.
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	LLM       LLMConfig
	Security  SecurityConfig
	Transform TransformConfig
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port int    // Server port (default: 7373)
	Host string // Server host (default: 127.0.0.1)
}

// StorageConfig contains database and storage configuration.
type StorageConfig struct {
	StorageEngine       string // Storage engine type: sqlite, postgres (default: sqlite)
	DataPath            string // Path to data directory for sqlite (default: ./data)
	PostgresDSN         string // PostgreSQL connection string (required for postgres)
	SnapshotDir         string // Directory for sqlite snapshots; empty disables snapshots
	SnapshotIntervalMin int    // Minutes between automatic snapshots (default: 60)
}

// LLMConfig contains LLM provider configuration.
type LLMConfig struct {
	LLMProvider          string // LLM provider: gemini, ollama, openai (default: gemini)
	GeminiAPIKey         string // Gemini API key; empty means no credentials
	GeminiModel          string // Gemini model name (default: gemini-2.0-flash)
	OllamaURL            string // Ollama API URL (default: http://localhost:11434)
	OllamaModel          string // Ollama model name for transforms (default: qwen2.5:7b)
	OllamaEmbeddingModel string // Ollama model name for embeddings (default: nomic-embed-text)
	OpenAIAPIKey         string // OpenAI API key; empty means no credentials
	OpenAIModel          string // OpenAI model name (default: gpt-4o-mini)
	OpenAIEmbeddingModel string // OpenAI embedding model (default: text-embedding-3-small)
}

// SecurityConfig contains security and authentication settings.
type SecurityConfig struct {
	APIToken        string  // API authentication token; empty disables auth
	RateLimitPerSec float64 // Requests per second across all clients (default: 10)
	RateLimitBurst  int     // Burst allowance (default: 20)
}

// TransformConfig contains transform pipeline settings.
type TransformConfig struct {
	// SummaryPolicy selects the prompt variant: "adaptive" allows summaries
	// shorter than three lines and empty idea lists, "strict" requires
	// exactly three of each (default: adaptive).
	SummaryPolicy string
}

// LoadConfig loads configuration from environment variables with sensible
// defaults. All environment variables use the TUBUYAKI_ prefix.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: getEnvInt("TUBUYAKI_PORT", 7373),
			Host: getEnv("TUBUYAKI_HOST", "127.0.0.1"),
		},
		Storage: StorageConfig{
			StorageEngine:       getEnv("TUBUYAKI_STORAGE_ENGINE", "sqlite"),
			DataPath:            getEnv("TUBUYAKI_DATA_PATH", "./data"),
			PostgresDSN:         getEnv("TUBUYAKI_POSTGRES_DSN", ""),
			SnapshotDir:         getEnv("TUBUYAKI_SNAPSHOT_DIR", ""),
			SnapshotIntervalMin: getEnvInt("TUBUYAKI_SNAPSHOT_INTERVAL_MIN", 60),
		},
		LLM: LLMConfig{
			LLMProvider:          getEnv("TUBUYAKI_LLM_PROVIDER", "gemini"),
			GeminiAPIKey:         getEnv("TUBUYAKI_GEMINI_API_KEY", ""),
			GeminiModel:          getEnv("TUBUYAKI_GEMINI_MODEL", "gemini-2.0-flash"),
			OllamaURL:            getEnv("TUBUYAKI_OLLAMA_URL", "http://localhost:11434"),
			OllamaModel:          getEnv("TUBUYAKI_OLLAMA_MODEL", "qwen2.5:7b"),
			OllamaEmbeddingModel: getEnv("TUBUYAKI_EMBEDDING_MODEL", "nomic-embed-text"),
			OpenAIAPIKey:         getEnv("TUBUYAKI_OPENAI_API_KEY", ""),
			OpenAIModel:          getEnv("TUBUYAKI_OPENAI_MODEL", "gpt-4o-mini"),
			OpenAIEmbeddingModel: getEnv("TUBUYAKI_OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
		},
		Security: SecurityConfig{
			APIToken:        getEnv("TUBUYAKI_API_TOKEN", ""),
			RateLimitPerSec: getEnvFloat("TUBUYAKI_RATE_LIMIT_PER_SEC", 10),
			RateLimitBurst:  getEnvInt("TUBUYAKI_RATE_LIMIT_BURST", 20),
		},
		Transform: TransformConfig{
			SummaryPolicy: getEnv("TUBUYAKI_SUMMARY_POLICY", "adaptive"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints that getEnv defaults cannot catch.
func (c *Config) Validate() error {
	switch c.Storage.StorageEngine {
	case "sqlite":
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("config: TUBUYAKI_POSTGRES_DSN is required when storage engine is postgres")
		}
	default:
		return fmt.Errorf("config: unknown storage engine %q", c.Storage.StorageEngine)
	}

	switch c.LLM.LLMProvider {
	case "gemini", "ollama", "openai":
	default:
		return fmt.Errorf("config: unknown LLM provider %q", c.LLM.LLMProvider)
	}

	switch c.Transform.SummaryPolicy {
	case "adaptive", "strict":
	default:
		return fmt.Errorf("config: unknown summary policy %q", c.Transform.SummaryPolicy)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Server.Port)
	}

	if c.Storage.SnapshotDir != "" && c.Storage.SnapshotIntervalMin < 1 {
		return fmt.Errorf("config: snapshot interval must be at least one minute")
	}
	return nil
}

// APIKey returns the credential for the configured provider. Empty means no
// credentials are configured (Ollama needs none and always returns "").
func (c *LLMConfig) APIKey() string {
	switch c.LLMProvider {
	case "gemini":
		return c.GeminiAPIKey
	case "openai":
		return c.OpenAIAPIKey
	default:
		return ""
	}
}

// Model returns the transform model name for the configured provider.
func (c *LLMConfig) Model() string {
	switch c.LLMProvider {
	case "gemini":
		return c.GeminiModel
	case "ollama":
		return c.OllamaModel
	case "openai":
		return c.OpenAIModel
	default:
		return ""
	}
}

// BaseURL returns the provider base URL override, if any.
func (c *LLMConfig) BaseURL() string {
	if c.LLMProvider == "ollama" {
		return c.OllamaURL
	}
	return ""
}

// EmbeddingModel returns the embedding model for the configured provider, or
// empty when the provider has no embedding support.
func (c *LLMConfig) EmbeddingModel() string {
	switch c.LLMProvider {
	case "ollama":
		return c.OllamaEmbeddingModel
	case "openai":
		return c.OpenAIEmbeddingModel
	default:
		return ""
	}
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default value.
// If the environment variable exists but cannot be parsed as an integer,
// it returns the default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat retrieves a float environment variable or returns a default value.
// If the environment variable exists but cannot be parsed as a float,
// it returns the default value.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
