package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Embedding providers
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderNone   = "none"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	CorpusPath  string `envconfig:"CORPUS_PATH" default:"data/qa_dataset.csv"`
	IndexDir    string `envconfig:"INDEX_DIR" default:"storage/index"`
	TicketsPath string `envconfig:"TICKETS_PATH" default:"storage/tickets.json"`

	// Optional: persist the vector index in Postgres instead of SQLite
	DatabaseURL string `envconfig:"DATABASE_URL"`

	EmbeddingProvider   string        `envconfig:"EMBEDDING_PROVIDER" default:"openai"`
	OpenAIAPIKey        string        `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL       string        `envconfig:"OPENAI_BASE_URL"`
	EmbeddingModel      string        `envconfig:"EMBEDDING_MODEL"`
	EmbeddingDimensions int           `envconfig:"EMBEDDING_DIMENSIONS"`
	OllamaURL           string        `envconfig:"OLLAMA_URL" default:"http://localhost:11434"`
	EmbeddingTimeout    time.Duration `envconfig:"EMBEDDING_TIMEOUT" default:"5s"`

	TopK            int           `envconfig:"TOP_K" default:"5"`
	RefreshInterval time.Duration `envconfig:"REFRESH_INTERVAL" default:"0s"`
	WatchCorpus     bool          `envconfig:"WATCH_CORPUS" default:"false"`

	// Guards /api/ingest and /api/tickets when set
	AdminAPIKey string `envconfig:"ADMIN_API_KEY"`

	// Optional: keep the ticket collection in an S3-compatible bucket
	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"hrassist-tickets"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
	S3TicketKey string `envconfig:"S3_TICKET_KEY" default:"tickets.json"`

	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("HRASSIST", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	cfg.EmbeddingProvider = strings.ToLower(strings.TrimSpace(cfg.EmbeddingProvider))
	switch cfg.EmbeddingProvider {
	case ProviderOpenAI, ProviderOllama, ProviderNone:
	case "":
		cfg.EmbeddingProvider = ProviderNone
	default:
		return nil, fmt.Errorf("failed to process config: unknown EMBEDDING_PROVIDER %q", cfg.EmbeddingProvider)
	}

	if cfg.TopK <= 0 {
		return nil, fmt.Errorf("failed to process config: TOP_K must be positive, got %d", cfg.TopK)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasPostgres() bool {
	return c.DatabaseURL != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

// HasEmbeddings reports whether a usable embedding provider is configured.
// Without one the index stays lexical and retrieval runs on keywords.
func (c *Config) HasEmbeddings() bool {
	switch c.EmbeddingProvider {
	case ProviderOpenAI:
		return c.HasOpenAI()
	case ProviderOllama:
		return c.OllamaURL != ""
	default:
		return false
	}
}
