package admin

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/cloo-solutions/hrassist/internal/config"
	"github.com/cloo-solutions/hrassist/internal/corpus"
	"github.com/cloo-solutions/hrassist/internal/database"
	"github.com/cloo-solutions/hrassist/internal/directory"
	"github.com/cloo-solutions/hrassist/internal/index"
	"github.com/cloo-solutions/hrassist/internal/ollama"
	"github.com/cloo-solutions/hrassist/internal/openai"
	"github.com/cloo-solutions/hrassist/internal/repository"
	"github.com/cloo-solutions/hrassist/internal/service"
	"github.com/cloo-solutions/hrassist/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
)

const sqliteIndexFile = "index.db"

// Runtime is the assembled assistant plus the resources it holds open.
type Runtime struct {
	Config    *config.Config
	Assistant *service.Assistant
	Directory *directory.Directory

	closers []func()
}

// Close releases pools and database handles in reverse order of creation.
func (r *Runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
	r.closers = nil
}

// NewRuntime wires the assistant from cfg. Postgres migrations run unless
// skipMigrations is set.
func NewRuntime(ctx context.Context, cfg *config.Config, skipMigrations bool) (*Runtime, error) {
	rt := &Runtime{Config: cfg, Directory: directory.NewDemo()}

	var pool *pgxpool.Pool
	if cfg.HasPostgres() {
		if !skipMigrations {
			if err := repository.RunMigrations(cfg.DatabaseURL); err != nil {
				return nil, fmt.Errorf("failed to run migrations: %w", err)
			}
		}
		p, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		pool = p
		rt.closers = append(rt.closers, pool.Close)
		log.Println("connected to database")
	}

	embedder := newEmbedder(cfg)

	var vectors index.VectorStore
	if embedder != nil {
		switch {
		case pool != nil:
			vectors = repository.NewIndexRepository(pool)
			log.Println("index: persisting vectors in postgres")
		default:
			path := filepath.Join(cfg.IndexDir, sqliteIndexFile)
			store, err := index.NewSQLiteStore(path)
			if err != nil {
				rt.Close()
				return nil, err
			}
			rt.closers = append(rt.closers, func() { store.Close() })
			vectors = store
			log.Printf("index: persisting vectors in %s", path)
		}
	} else {
		log.Println("index: no embedding provider configured, keyword search only")
	}

	tickets, err := newTicketStore(ctx, cfg, pool)
	if err != nil {
		rt.Close()
		return nil, err
	}

	rt.Assistant = service.NewAssistant(
		service.AssistantConfig{
			CorpusPath:       cfg.CorpusPath,
			TopK:             cfg.TopK,
			EmbeddingTimeout: cfg.EmbeddingTimeout,
		},
		corpus.NewLoader(),
		index.New(embedder, vectors),
		service.NewResolver(nil),
		service.NewEscalationManager(tickets),
		rt.Directory,
	)
	return rt, nil
}

func newEmbedder(cfg *config.Config) index.Embedder {
	if !cfg.HasEmbeddings() {
		return nil
	}
	switch cfg.EmbeddingProvider {
	case config.ProviderOllama:
		log.Printf("embeddings: ollama at %s", cfg.OllamaURL)
		return ollama.NewClient(cfg.OllamaURL, cfg.EmbeddingModel)
	default:
		log.Println("embeddings: openai")
		return openai.NewClientWithConfig(openai.Config{
			APIKey:              cfg.OpenAIAPIKey,
			BaseURL:             cfg.OpenAIBaseURL,
			EmbeddingModel:      cfg.EmbeddingModel,
			EmbeddingDimensions: cfg.EmbeddingDimensions,
		})
	}
}

// newTicketStore picks S3, then Postgres, then the local JSON file.
func newTicketStore(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) (service.TicketStore, error) {
	if cfg.HasS3() {
		client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := client.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("tickets: S3 bucket '%s' ready", cfg.S3Bucket)
		return storage.NewS3TicketStore(client, cfg.S3TicketKey), nil
	}

	if pool != nil {
		log.Println("tickets: stored in postgres")
		return repository.NewTicketRepository(pool), nil
	}

	log.Printf("tickets: stored in %s", cfg.TicketsPath)
	return storage.NewFileTicketStore(cfg.TicketsPath), nil
}
