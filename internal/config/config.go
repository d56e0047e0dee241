// Package config provides unified configuration loading for SlopScan.
// Supports YAML files, .env files, environment variables, and programmatic overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for SlopScan.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Vector        VectorConfig        `yaml:"vector"`
	Cache         CacheConfig         `yaml:"cache"`
	Embedding     EmbeddingConfig     `yaml:"embedding"`
	Recognition   RecognitionConfig   `yaml:"recognition"`
	Identify      IdentifyConfig      `yaml:"identify"`
	Recommend     RecommendConfig     `yaml:"recommend"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
	MaxUploadBytes   int64         `yaml:"max_upload_bytes"`
	AllowedOrigins   []string      `yaml:"allowed_origins"`
}

// VectorConfig holds nearest-neighbor store settings.
type VectorConfig struct {
	Adapter     string         `yaml:"adapter"` // memory, sqlite or pgvector
	Dimension   int            `yaml:"dimension"`
	SeedIfEmpty bool           `yaml:"seed_if_empty"`
	SQLite      SQLiteConfig   `yaml:"sqlite"`
	PGVector    PGVectorConfig `yaml:"pgvector"`
}

// SQLiteConfig holds SQLite-specific settings.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// PGVectorConfig holds pgvector-specific settings.
type PGVectorConfig struct {
	DSN             string        `yaml:"dsn"`
	Table           string        `yaml:"table"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// CacheConfig holds embedding cache settings.
type CacheConfig struct {
	Driver     string        `yaml:"driver"` // memory or redis
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
	Redis      RedisConfig   `yaml:"redis"`
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// EmbeddingConfig holds text-embedding client settings.
type EmbeddingConfig struct {
	Provider   string        `yaml:"provider"` // openrouter or mock
	BaseURL    string        `yaml:"base_url"`
	APIKey     string        `yaml:"api_key"`
	Model      string        `yaml:"model"`
	Dimension  int           `yaml:"dimension"`
	BatchSize  int           `yaml:"batch_size"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// RecognitionConfig holds vision recognizer settings.
type RecognitionConfig struct {
	BaseURL    string        `yaml:"base_url"`
	APIKey     string        `yaml:"api_key"`
	Model      string        `yaml:"model"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
	MaxGuesses int           `yaml:"max_guesses"`
}

// IdentifyConfig holds identify pipeline settings.
type IdentifyConfig struct {
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	PerGuessTopK        int     `yaml:"per_guess_top_k"`
	MaxCandidates       int     `yaml:"max_candidates"`
	FanoutWorkers       int     `yaml:"fanout_workers"`
}

// RecommendConfig holds recommendation pipeline settings.
type RecommendConfig struct {
	MinEcoscore     string `yaml:"min_ecoscore"`
	ProductPoolSize int    `yaml:"product_pool_size"`
	SourcePoolSize  int    `yaml:"source_pool_size"`
	MaxResults      int    `yaml:"max_results"`
	MatchCategory   bool   `yaml:"match_category"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	ServiceName string `yaml:"service_name"`
}

// Load reads configuration from a YAML file, .env files and the environment.
func Load(path string) (*Config, error) {
	// Missing .env files are fine; real deployments use the environment.
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}

		if cfg.Vector.SQLite.Path != "" && cfg.Vector.SQLite.Path != ":memory:" {
			cfg.Vector.SQLite.Path = ResolveRelativePath(path, cfg.Vector.SQLite.Path)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults for development.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8000,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     60 * time.Second,
			IdleTimeout:      120 * time.Second,
			RequestTimeout:   60 * time.Second,
			GracefulShutdown: 10 * time.Second,
			MaxUploadBytes:   10 << 20,
			AllowedOrigins:   []string{"http://localhost:5173"},
		},
		Vector: VectorConfig{
			Adapter:     "memory",
			Dimension:   384,
			SeedIfEmpty: true,
			SQLite: SQLiteConfig{
				Path: "/tmp/slopscan.db",
			},
			PGVector: PGVectorConfig{
				Table:           "products",
				MaxOpenConns:    25,
				MaxIdleConns:    5,
				ConnMaxLifetime: 5 * time.Minute,
			},
		},
		Cache: CacheConfig{
			Driver:     "memory",
			TTL:        24 * time.Hour,
			MaxEntries: 10000,
			Redis: RedisConfig{
				Addr:     "localhost:6379",
				PoolSize: 10,
			},
		},
		Embedding: EmbeddingConfig{
			Provider:   "openrouter",
			BaseURL:    "https://openrouter.ai/api/v1",
			Model:      "openai/text-embedding-3-small",
			Dimension:  384,
			BatchSize:  256,
			Timeout:    20 * time.Second,
			MaxRetries: 1,
		},
		Recognition: RecognitionConfig{
			BaseURL:    "https://openrouter.ai/api/v1",
			Model:      "google/gemini-2.0-flash-001",
			Timeout:    45 * time.Second,
			MaxRetries: 1,
			MaxGuesses: 5,
		},
		Identify: IdentifyConfig{
			ConfidenceThreshold: 0,
			PerGuessTopK:        3,
			MaxCandidates:       5,
			FanoutWorkers:       5,
		},
		Recommend: RecommendConfig{
			MinEcoscore:     "b",
			ProductPoolSize: 25,
			SourcePoolSize:  60,
			MaxResults:      5,
			MatchCategory:   true,
		},
		Observability: ObservabilityConfig{
			LogLevel:    "info",
			LogFormat:   "json",
			ServiceName: "slopscan",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Vector.Adapter {
	case "memory", "sqlite", "pgvector":
	default:
		return fmt.Errorf("invalid vector adapter: %s", c.Vector.Adapter)
	}

	if c.Vector.Adapter == "pgvector" && c.Vector.PGVector.DSN == "" {
		return fmt.Errorf("pgvector adapter requires vector.pgvector.dsn")
	}

	if c.Vector.Dimension < 1 {
		return fmt.Errorf("vector dimension must be positive")
	}

	if c.Cache.Driver != "memory" && c.Cache.Driver != "redis" {
		return fmt.Errorf("invalid cache driver: %s", c.Cache.Driver)
	}

	if c.Embedding.Provider != "openrouter" && c.Embedding.Provider != "mock" {
		return fmt.Errorf("invalid embedding provider: %s", c.Embedding.Provider)
	}

	if c.Identify.ConfidenceThreshold < 0 || c.Identify.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence_threshold must be between 0 and 1")
	}

	if c.Identify.PerGuessTopK < 1 || c.Identify.MaxCandidates < 1 || c.Identify.FanoutWorkers < 1 {
		return fmt.Errorf("identify sizes must be positive")
	}

	if !isGrade(c.Recommend.MinEcoscore) {
		return fmt.Errorf("invalid min_ecoscore: %q", c.Recommend.MinEcoscore)
	}

	if c.Recommend.ProductPoolSize < 1 || c.Recommend.SourcePoolSize < 1 || c.Recommend.MaxResults < 1 {
		return fmt.Errorf("recommend sizes must be positive")
	}

	return nil
}

// Address returns the host:port the HTTP server listens on.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func isGrade(g string) bool {
	return len(g) == 1 && g[0] >= 'a' && g[0] <= 'e'
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}

	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = splitList(v)
	}

	if v := os.Getenv("VECTOR_ADAPTER"); v != "" {
		cfg.Vector.Adapter = v
	}

	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Vector.SQLite.Path = v
	}

	if v := os.Getenv("POSTGRES_URL"); v != "" {
		cfg.Vector.PGVector.DSN = v
	}

	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Cache.Driver = "redis"
		cfg.Cache.Redis.Addr = strings.TrimPrefix(v, "redis://")
	}

	if v := os.Getenv("OPENROUTER_API_KEY"); v != "" {
		cfg.Embedding.APIKey = v
		cfg.Recognition.APIKey = v
	}

	if v := os.Getenv("EMBEDDING_PROVIDER"); v != "" {
		cfg.Embedding.Provider = v
	}

	if v := os.Getenv("EMBEDDING_MODEL"); v != "" {
		cfg.Embedding.Model = v
	}

	if v := os.Getenv("RECOGNITION_MODEL"); v != "" {
		cfg.Recognition.Model = v
	}

	if v := os.Getenv("CONFIDENCE_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Identify.ConfidenceThreshold = f
		}
	}

	if v := os.Getenv("MIN_ECOSCORE"); v != "" {
		cfg.Recommend.MinEcoscore = strings.ToLower(strings.TrimSpace(v))
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ResolveRelativePath resolves a path relative to the config file location.
func ResolveRelativePath(configPath, targetPath string) string {
	if filepath.IsAbs(targetPath) {
		return targetPath
	}
	return filepath.Join(filepath.Dir(configPath), targetPath)
}
