// Package config loads application configuration from environment variables.
// All variables use the OWLET_ prefix.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Cache       CacheConfig
	AI          AIConfig
	Log         LogConfig
	CatalogPath string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int
	Host string
}

// DatabaseConfig holds PostgreSQL connection settings. An empty URL runs
// the server on in-memory stores.
type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
}

// CacheConfig holds Redis connection settings. An empty URL keeps sessions
// and generation locks in process.
type CacheConfig struct {
	URL string
}

// AIConfig holds configuration for all AI providers.
type AIConfig struct {
	OpenAI    OpenAIConfig
	Google    GoogleConfig
	Preferred string // provider name tried first; empty means registration order
}

// OpenAIConfig holds OpenAI provider settings.
type OpenAIConfig struct {
	APIKey string
	Model  string
}

// GoogleConfig holds Google Gemini provider settings.
type GoogleConfig struct {
	APIKey string
	Model  string
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables with OWLET_ prefix.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("OWLET_SERVER_PORT", 8080),
			Host: envStr("OWLET_SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			URL:      envStr("OWLET_DATABASE_URL", ""),
			MaxConns: envInt("OWLET_DATABASE_MAX_CONNS", 25),
			MinConns: envInt("OWLET_DATABASE_MIN_CONNS", 5),
		},
		Cache: CacheConfig{
			URL: envStr("OWLET_CACHE_URL", ""),
		},
		AI: AIConfig{
			OpenAI: OpenAIConfig{
				APIKey: envStr("OWLET_AI_OPENAI_API_KEY", ""),
				Model:  envStr("OWLET_AI_OPENAI_MODEL", ""),
			},
			Google: GoogleConfig{
				APIKey: envStr("OWLET_AI_GOOGLE_API_KEY", ""),
				Model:  envStr("OWLET_AI_GOOGLE_MODEL", ""),
			},
			Preferred: envStr("OWLET_AI_PREFERRED", ""),
		},
		Log: LogConfig{
			Level:  envStr("OWLET_LOG_LEVEL", "info"),
			Format: envStr("OWLET_LOG_FORMAT", "json"),
		},
		CatalogPath: envStr("OWLET_CATALOG_PATH", "./catalog.yaml"),
	}

	return cfg, nil
}

// Validate checks that the configuration is coherent.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("OWLET_SERVER_PORT must be a valid port, got %d", c.Server.Port)
	}

	switch c.AI.Preferred {
	case "", "openai", "google":
	default:
		return fmt.Errorf("OWLET_AI_PREFERRED must be 'openai' or 'google', got %q", c.AI.Preferred)
	}
	if c.AI.Preferred == "openai" && c.AI.OpenAI.APIKey == "" {
		return fmt.Errorf("OWLET_AI_PREFERRED is openai but OWLET_AI_OPENAI_API_KEY is empty")
	}
	if c.AI.Preferred == "google" && c.AI.Google.APIKey == "" {
		return fmt.Errorf("OWLET_AI_PREFERRED is google but OWLET_AI_GOOGLE_API_KEY is empty")
	}

	return nil
}

// HasAIProvider returns true if at least one live AI provider is
// configured. Without one the stub provider handles all generation.
func (c *Config) HasAIProvider() bool {
	return c.AI.OpenAI.APIKey != "" || c.AI.Google.APIKey != ""
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
