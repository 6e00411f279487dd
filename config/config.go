package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/matanitah-healthee/slack-bot/rag"
)

// Defaults applied before any file or environment overlay.
const (
	DefaultModel          = "gpt-4o-mini"
	DefaultEmbeddingModel = "text-embedding-3-small"
	DefaultDimension      = 384
	DefaultChunkSize      = 1000
	DefaultChunkOverlap   = 200
	DefaultQueryTimeout   = 30 * time.Second
)

// OpenAIConfig configures the OpenAI provider.
type OpenAIConfig struct {
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	EmbeddingModel string `yaml:"embedding_model"`
	Dimension      int    `yaml:"dimension"`
}

// IngestConfig configures document splitting at ingestion time.
type IngestConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// ManagerConfig configures query routing.
type ManagerConfig struct {
	Enabled      bool          `yaml:"enabled"`
	DefaultAgent string        `yaml:"default_agent"`
	QueryTimeout time.Duration `yaml:"query_timeout"`
}

// StoreConfig points at the retrieval backends.
type StoreConfig struct {
	// PostgresURL enables the pgvector store when set.
	PostgresURL string `yaml:"postgres_url"`
	// SqlitePath enables the SQLite store when set.
	SqlitePath string `yaml:"sqlite_path"`
	// RedisAddr enables the Redis graph store when set.
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
}

// Config is the bot's full configuration.
type Config struct {
	OpenAI    OpenAIConfig        `yaml:"openai"`
	Retrieval rag.RetrievalConfig `yaml:"retrieval"`
	Traversal rag.TraversalConfig `yaml:"traversal"`
	Ingest    IngestConfig        `yaml:"ingest"`
	Manager   ManagerConfig       `yaml:"manager"`
	Store     StoreConfig         `yaml:"store"`
	LogLevel  string              `yaml:"log_level"`
}

// Default returns the configuration defaults.
func Default() *Config {
	return &Config{
		OpenAI: OpenAIConfig{
			Model:          DefaultModel,
			EmbeddingModel: DefaultEmbeddingModel,
			Dimension:      DefaultDimension,
		},
		Retrieval: rag.RetrievalConfig{
			TopK:           rag.DefaultTopK,
			ScoreThreshold: rag.DefaultScoreThreshold,
		},
		Traversal: rag.TraversalConfig{
			MaxDepth: rag.DefaultMaxDepth,
		},
		Ingest: IngestConfig{
			ChunkSize:    DefaultChunkSize,
			ChunkOverlap: DefaultChunkOverlap,
		},
		Manager: ManagerConfig{
			Enabled:      true,
			QueryTimeout: DefaultQueryTimeout,
		},
		LogLevel: "info",
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// environment variables, in that order of precedence (environment wins).
// An empty path skips the file overlay.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays environment variables onto the configuration.
func (c *Config) applyEnv() {
	setString(&c.OpenAI.APIKey, "OPENAI_API_KEY")
	setString(&c.OpenAI.BaseURL, "OPENAI_BASE_URL")
	setString(&c.OpenAI.Model, "OPENAI_MODEL")
	setString(&c.OpenAI.EmbeddingModel, "OPENAI_EMBEDDING_MODEL")
	setInt(&c.OpenAI.Dimension, "EMBEDDING_DIMENSION")

	setInt(&c.Retrieval.TopK, "RETRIEVAL_TOP_K")
	setFloat(&c.Retrieval.ScoreThreshold, "RETRIEVAL_SCORE_THRESHOLD")
	setInt(&c.Traversal.MaxDepth, "TRAVERSAL_MAX_DEPTH")
	setInt(&c.Traversal.MaxNodes, "TRAVERSAL_MAX_NODES")

	setInt(&c.Ingest.ChunkSize, "INGEST_CHUNK_SIZE")
	setInt(&c.Ingest.ChunkOverlap, "INGEST_CHUNK_OVERLAP")

	setString(&c.Manager.DefaultAgent, "DEFAULT_AGENT")
	setDuration(&c.Manager.QueryTimeout, "QUERY_TIMEOUT")
	if v := os.Getenv("AGENTS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Manager.Enabled = b
		}
	}

	setString(&c.Store.PostgresURL, "POSTGRES_URL")
	setString(&c.Store.SqlitePath, "SQLITE_PATH")
	setString(&c.Store.RedisAddr, "REDIS_ADDR")
	setString(&c.Store.RedisPassword, "REDIS_PASSWORD")
	setInt(&c.Store.RedisDB, "REDIS_DB")

	setString(&c.LogLevel, "LOG_LEVEL")
}

// Validate rejects out-of-range values.
func (c *Config) Validate() error {
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval top_k must be positive, got %d", c.Retrieval.TopK)
	}
	if c.Retrieval.ScoreThreshold < -1 || c.Retrieval.ScoreThreshold > 1 {
		return fmt.Errorf("retrieval score_threshold must be within [-1, 1], got %g", c.Retrieval.ScoreThreshold)
	}
	if c.Traversal.MaxDepth < 0 {
		return fmt.Errorf("traversal max_depth must not be negative, got %d", c.Traversal.MaxDepth)
	}
	if c.Ingest.ChunkSize <= 0 {
		return fmt.Errorf("ingest chunk_size must be positive, got %d", c.Ingest.ChunkSize)
	}
	if c.Ingest.ChunkOverlap < 0 || c.Ingest.ChunkOverlap >= c.Ingest.ChunkSize {
		return fmt.Errorf("ingest chunk_overlap must be within [0, chunk_size), got %d", c.Ingest.ChunkOverlap)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
