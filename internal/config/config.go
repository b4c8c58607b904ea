// Package config loads the application configuration from a TOML file
// with environment variable overrides for credentials. Missing
// required settings fail at startup, not on the first request.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Duration is a time.Duration that decodes from TOML strings like
// "30m" or "12h".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Provider names accepted in the configuration.
const (
	EmbeddingOpenAI = "openai"
	EmbeddingMock   = "mock"

	VectorMemory   = "memory"
	VectorPgvector = "pgvector"

	SessionMemory = "memory"
	SessionRedis  = "redis"
)

// Config is the full application configuration.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Embedding EmbeddingConfig `toml:"embedding"`
	LLM       LLMConfig       `toml:"llm"`
	Vector    VectorConfig    `toml:"vector"`
	Session   SessionConfig   `toml:"session"`
	Catalog   CatalogConfig   `toml:"catalog"`
	Ingest    IngestConfig    `toml:"ingest"`
	Chat      ChatConfig      `toml:"chat"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr           string   `toml:"addr"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// EmbeddingConfig selects and configures the embedding provider. The
// mock provider is used only when named here explicitly; a missing or
// unknown provider is a startup error, never a silent fallback.
type EmbeddingConfig struct {
	Provider   string `toml:"provider"`
	APIKey     string `toml:"api_key"`
	BaseURL    string `toml:"base_url"`
	Model      string `toml:"model"`
	Dimensions int    `toml:"dimensions"`
	BatchSize  int    `toml:"batch_size"`
}

// LLMConfig configures the chat model provider.
type LLMConfig struct {
	APIKey      string  `toml:"api_key"`
	BaseURL     string  `toml:"base_url"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float32 `toml:"temperature"`
}

// VectorConfig selects and configures the vector index.
type VectorConfig struct {
	Provider    string `toml:"provider"`
	DatabaseURL string `toml:"database_url"`
	Table       string `toml:"table"`
}

// SessionConfig selects and configures the session store.
type SessionConfig struct {
	Provider      string   `toml:"provider"`
	RedisAddr     string   `toml:"redis_addr"`
	RedisPassword string   `toml:"redis_password"`
	RedisDB       int      `toml:"redis_db"`
	MaxMessages   int      `toml:"max_messages"`
	TTL           Duration `toml:"ttl"`
}

// CatalogConfig configures the source catalog.
type CatalogConfig struct {
	DataDir string `toml:"data_dir"`
}

// IngestConfig configures the background directory watcher.
type IngestConfig struct {
	Dir          string   `toml:"dir"`
	ScanInterval Duration `toml:"scan_interval"`
}

// ChatConfig tunes the retrieval pipeline.
type ChatConfig struct {
	TopK           int     `toml:"top_k"`
	ScoreThreshold float64 `toml:"score_threshold"`
	HistoryWindow  int     `toml:"history_window"`
	Persona        string  `toml:"persona"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
		},
		Embedding: EmbeddingConfig{Provider: EmbeddingOpenAI},
		Vector:    VectorConfig{Provider: VectorMemory},
		Session:   SessionConfig{Provider: SessionMemory},
	}
}

// Load reads the configuration file at path (or ~/.briefing/config.toml
// when path is empty), merges credential overrides from the
// environment and validates the result. A missing file is fine; a
// malformed one is not.
func Load(path string) (*Config, error) {
	// Local .env is picked up when present; its absence is normal.
	_ = godotenv.Load()

	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, ".briefing", "config.toml")
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults plus environment.
	case err != nil:
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv lets credentials and connection strings come from the
// environment so they stay out of the config file.
func (c *Config) applyEnv() {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		if c.Embedding.APIKey == "" {
			c.Embedding.APIKey = v
		}
		if c.LLM.APIKey == "" {
			c.LLM.APIKey = v
		}
	}
	if v := os.Getenv("BRIEFING_DATABASE_URL"); v != "" {
		c.Vector.DatabaseURL = v
	}
	if v := os.Getenv("BRIEFING_REDIS_ADDR"); v != "" {
		c.Session.RedisAddr = v
	}
	if v := os.Getenv("BRIEFING_REDIS_PASSWORD"); v != "" {
		c.Session.RedisPassword = v
	}
	if v := os.Getenv("BRIEFING_ADDR"); v != "" {
		c.Server.Addr = v
	}
}

// Validate rejects configurations that would fail on the first
// request.
func (c *Config) Validate() error {
	switch c.Embedding.Provider {
	case EmbeddingOpenAI:
		if c.Embedding.APIKey == "" {
			return fmt.Errorf("embedding provider %q requires an API key (set OPENAI_API_KEY)", EmbeddingOpenAI)
		}
	case EmbeddingMock:
		// Explicitly chosen; nothing to check.
	default:
		return fmt.Errorf("unknown embedding provider %q", c.Embedding.Provider)
	}

	if c.LLM.APIKey == "" {
		return fmt.Errorf("llm requires an API key (set OPENAI_API_KEY)")
	}

	switch c.Vector.Provider {
	case VectorMemory:
	case VectorPgvector:
		if c.Vector.DatabaseURL == "" {
			return fmt.Errorf("vector provider %q requires database_url (set BRIEFING_DATABASE_URL)", VectorPgvector)
		}
	default:
		return fmt.Errorf("unknown vector provider %q", c.Vector.Provider)
	}

	switch c.Session.Provider {
	case SessionMemory:
	case SessionRedis:
		if c.Session.RedisAddr == "" {
			return fmt.Errorf("session provider %q requires redis_addr (set BRIEFING_REDIS_ADDR)", SessionRedis)
		}
	default:
		return fmt.Errorf("unknown session provider %q", c.Session.Provider)
	}

	return nil
}
