package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	// Log configuration
	Log LogConfig `mapstructure:"log"`

	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// Store configuration
	Store StoreConfig `mapstructure:"store"`

	// Embedding configuration
	Embedding EmbeddingConfig `mapstructure:"embedding"`

	// NLP configuration
	NLP NLPConfig `mapstructure:"nlp"`

	// Corpus configuration
	Corpus CorpusConfig `mapstructure:"corpus"`

	// Retrieval configuration
	Retrieval RetrievalConfig `mapstructure:"retrieval"`

	// CircuitBreaker configuration
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`

	// Telemetry configuration
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug, release, test
}

// StoreConfig holds chunk store configuration
type StoreConfig struct {
	Backend string `mapstructure:"backend"` // memory, badger
	Path    string `mapstructure:"path"`    // badger data directory
}

// EmbeddingConfig holds embedding configuration
type EmbeddingConfig struct {
	Provider   string `mapstructure:"provider"` // openai, local
	Model      string `mapstructure:"model"`
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"`
	BatchSize  int    `mapstructure:"batch_size"`
	Dimensions int    `mapstructure:"dimensions"`
}

// NLPConfig holds language model configuration
type NLPConfig struct {
	Model       string  `mapstructure:"model"`
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Temperature float32 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	MaxRetries  int     `mapstructure:"max_retries"`
}

// CorpusConfig holds acquisition configuration for both corpora
type CorpusConfig struct {
	ArchiveURL    string `mapstructure:"archive_url"`
	ArchiveRows   int    `mapstructure:"archive_rows"`
	LocalDir      string `mapstructure:"local_dir"`
	DownloadDelay int    `mapstructure:"download_delay"` // in seconds
	MaxFiles      int    `mapstructure:"max_files"`
	MaxChars      int    `mapstructure:"max_chars"`
	GazetteerPath string `mapstructure:"gazetteer_path"` // empty uses the embedded tables
}

// RetrievalConfig holds retrieval pipeline configuration
type RetrievalConfig struct {
	PoolSize         int      `mapstructure:"pool_size"`
	ResultCap        int      `mapstructure:"result_cap"`
	MinResults       int      `mapstructure:"min_results"`
	MinContentLength int      `mapstructure:"min_content_length"`
	Denylist         []string `mapstructure:"denylist"`
	TargetChunkSize  int      `mapstructure:"target_chunk_size"`
	Strategy         string   `mapstructure:"strategy"`
}

// CircuitBreakerConfig holds configuration for circuit breaking
type CircuitBreakerConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	MaxRequests      uint32  `mapstructure:"max_requests"`
	Interval         int     `mapstructure:"interval"` // in seconds
	Timeout          int     `mapstructure:"timeout"`  // in seconds
	ReadyToTripRatio float64 `mapstructure:"ready_to_trip_ratio"`
}

// TelemetryConfig holds telemetry configuration
type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ParquetPath string `mapstructure:"parquet_path"`
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	// Set defaults
	setDefaults()

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Override with environment variables if present
	overrideWithEnv(config)

	return config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Log defaults
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")

	// Server defaults
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "debug")

	// Store defaults
	viper.SetDefault("store.backend", "memory")
	viper.SetDefault("store.path", "./folio_db")

	// Embedding defaults
	viper.SetDefault("embedding.provider", "local")
	viper.SetDefault("embedding.model", "all-MiniLM-L6-v2")
	viper.SetDefault("embedding.batch_size", 100)

	// NLP defaults
	viper.SetDefault("nlp.model", "gpt-4o-mini")
	viper.SetDefault("nlp.temperature", 0.3)
	viper.SetDefault("nlp.max_tokens", 1024)
	viper.SetDefault("nlp.max_retries", 3)

	// Corpus defaults
	viper.SetDefault("corpus.archive_url", "https://archive.org")
	viper.SetDefault("corpus.archive_rows", 5)
	viper.SetDefault("corpus.local_dir", "./books")
	viper.SetDefault("corpus.download_delay", 1)
	viper.SetDefault("corpus.max_files", 2)
	viper.SetDefault("corpus.max_chars", 500000)

	// Retrieval defaults
	viper.SetDefault("retrieval.pool_size", 20)
	viper.SetDefault("retrieval.result_cap", 5)
	viper.SetDefault("retrieval.min_results", 2)
	viper.SetDefault("retrieval.min_content_length", 40)
	viper.SetDefault("retrieval.target_chunk_size", 500)
	viper.SetDefault("retrieval.strategy", "sentence")

	// Telemetry defaults
	home, err := os.UserHomeDir()
	if err == nil {
		defaultPath := fmt.Sprintf("%s/.folio/telemetry", home)
		viper.SetDefault("telemetry.parquet_path", defaultPath)
	}
}

// overrideWithEnv overrides config with environment variables
func overrideWithEnv(config *Config) {
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.NLP.APIKey = apiKey
		if config.Embedding.APIKey == "" {
			config.Embedding.APIKey = apiKey
		}
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		config.NLP.BaseURL = baseURL
	}

	// Store settings
	if backend := os.Getenv("FOLIO_STORE_BACKEND"); backend != "" {
		config.Store.Backend = backend
	}
	if path := os.Getenv("FOLIO_STORE_PATH"); path != "" {
		config.Store.Path = path
	}

	// Corpus settings
	if url := os.Getenv("FOLIO_ARCHIVE_URL"); url != "" {
		config.Corpus.ArchiveURL = url
	}
	if dir := os.Getenv("FOLIO_LOCAL_DIR"); dir != "" {
		config.Corpus.LocalDir = dir
	}

	// Server settings
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		viper.Set("server.port", port)
	}

	// Telemetry settings
	if path := os.Getenv("TELEMETRY_PARQUET_PATH"); path != "" {
		config.Telemetry.ParquetPath = path
	}
}
