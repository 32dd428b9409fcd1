// Package config provides configuration management for Minerva.
// It loads settings from environment variables with the MINERVA_ prefix
// and provides sensible defaults for all configuration options. An optional
// YAML file can override the defaults; environment variables win over both.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration settings for the Minerva engine.
type Config struct {
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Engine    EngineConfig    `yaml:"engine"`
}

// StorageConfig contains database and storage configuration.
type StorageConfig struct {
	// Engine selects the backend: sqlite or postgres (default: sqlite).
	Engine string `yaml:"engine"`

	// DataPath is the SQLite database file path (default: ./data/minerva.db).
	DataPath string `yaml:"data_path"`

	// PostgresDSN is the connection string for the postgres engine.
	PostgresDSN string `yaml:"postgres_dsn"`
}

// EmbeddingConfig contains embedding provider configuration.
type EmbeddingConfig struct {
	// Provider selects the embedder: local, ollama, or none (default: local).
	Provider string `yaml:"provider"`

	// OllamaURL is the Ollama API base URL (default: http://localhost:11434).
	OllamaURL string `yaml:"ollama_url"`

	// OllamaModel is the embedding model name (default: nomic-embed-text).
	OllamaModel string `yaml:"ollama_model"`

	// CacheSize bounds the in-process embedding LRU (default: 1024).
	CacheSize int `yaml:"cache_size"`
}

// EngineConfig contains scoring and retrieval tunables. Zero values mean
// "use the engine defaults".
type EngineConfig struct {
	// MaxResults is the default number of memories returned per search
	// (default: 3).
	MaxResults int `yaml:"max_results"`

	// HalfLifeDays controls recency decay in priority scoring (default: 30).
	HalfLifeDays float64 `yaml:"half_life_days"`

	// CleanupThreshold is the priority score below which memories become
	// cleanup candidates (default: 2.0).
	CleanupThreshold float64 `yaml:"cleanup_threshold"`

	// HistoryTurns is how many recent conversation turns fold into the
	// search context (default: 5).
	HistoryTurns int `yaml:"history_turns"`
}

// Load builds the configuration from defaults, an optional YAML file, and
// environment variables, in that order of precedence (lowest first).
// An empty path skips the file overlay; a missing file at an explicit path
// is an error.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the cross-field constraints that defaults alone cannot
// guarantee once file and environment overrides are applied.
func (c *Config) Validate() error {
	switch c.Storage.Engine {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("config: unknown storage engine %q", c.Storage.Engine)
	}
	if c.Storage.Engine == "postgres" && c.Storage.PostgresDSN == "" {
		return fmt.Errorf("config: postgres engine requires MINERVA_POSTGRES_DSN")
	}
	switch c.Embedding.Provider {
	case "local", "ollama", "none":
	default:
		return fmt.Errorf("config: unknown embedding provider %q", c.Embedding.Provider)
	}
	return nil
}

func defaults() *Config {
	return &Config{
		Storage: StorageConfig{
			Engine:   "sqlite",
			DataPath: "./data/minerva.db",
		},
		Embedding: EmbeddingConfig{
			Provider:    "local",
			OllamaURL:   "http://localhost:11434",
			OllamaModel: "nomic-embed-text",
			CacheSize:   1024,
		},
		Engine: EngineConfig{
			MaxResults:       3,
			HalfLifeDays:     30,
			CleanupThreshold: 2.0,
			HistoryTurns:     5,
		},
	}
}

func applyEnv(cfg *Config) {
	cfg.Storage.Engine = getEnv("MINERVA_STORAGE_ENGINE", cfg.Storage.Engine)
	cfg.Storage.DataPath = getEnv("MINERVA_DATA_PATH", cfg.Storage.DataPath)
	cfg.Storage.PostgresDSN = getEnv("MINERVA_POSTGRES_DSN", cfg.Storage.PostgresDSN)

	cfg.Embedding.Provider = getEnv("MINERVA_EMBEDDING_PROVIDER", cfg.Embedding.Provider)
	cfg.Embedding.OllamaURL = getEnv("MINERVA_OLLAMA_URL", cfg.Embedding.OllamaURL)
	cfg.Embedding.OllamaModel = getEnv("MINERVA_EMBEDDING_MODEL", cfg.Embedding.OllamaModel)
	cfg.Embedding.CacheSize = getEnvInt("MINERVA_EMBEDDING_CACHE_SIZE", cfg.Embedding.CacheSize)

	cfg.Engine.MaxResults = getEnvInt("MINERVA_MAX_RESULTS", cfg.Engine.MaxResults)
	cfg.Engine.HalfLifeDays = getEnvFloat("MINERVA_HALF_LIFE_DAYS", cfg.Engine.HalfLifeDays)
	cfg.Engine.CleanupThreshold = getEnvFloat("MINERVA_CLEANUP_THRESHOLD", cfg.Engine.CleanupThreshold)
	cfg.Engine.HistoryTurns = getEnvInt("MINERVA_HISTORY_TURNS", cfg.Engine.HistoryTurns)
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default
// value. If the variable exists but cannot be parsed, it returns the default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat retrieves a float environment variable or returns a default
// value. If the variable exists but cannot be parsed, it returns the default.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
