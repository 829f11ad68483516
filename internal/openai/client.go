// Package openai embeds corpus entries and questions through the OpenAI
// embeddings API, or any server that speaks it.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const (
	DefaultEmbeddingModel      = openai.SmallEmbedding3
	DefaultEmbeddingDimensions = 1536

	// maxBatchSize keeps a corpus build well under the API's input limit.
	maxBatchSize = 256
)

var (
	ErrEmptyText       = errors.New("text cannot be empty")
	ErrWrongDimensions = errors.New("embedding has wrong dimensions")
	ErrShortResponse   = errors.New("embedding response is missing items")
)

// EmbeddingAPI is one embeddings call. Results are in input order.
type EmbeddingAPI interface {
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// Config selects the model and endpoint. BaseURL is empty for api.openai.com.
type Config struct {
	APIKey              string
	BaseURL             string
	EmbeddingModel      string
	EmbeddingDimensions int
}

// Client checks every vector it returns against the configured dimension, so
// a model change cannot silently mix vector sizes in one index.
type Client struct {
	api        EmbeddingAPI
	model      string
	dimensions int
}

func NewClientWithConfig(cfg Config) *Client {
	c := &Client{
		model:      cfg.EmbeddingModel,
		dimensions: cfg.EmbeddingDimensions,
	}
	if c.model == "" {
		c.model = string(DefaultEmbeddingModel)
	}
	if c.dimensions <= 0 {
		c.dimensions = DefaultEmbeddingDimensions
	}
	c.api = newAdapter(cfg.APIKey, cfg.BaseURL, c.model)
	return c
}

func (c *Client) Model() string {
	return c.model
}

// EmbedTexts embeds texts in batches of maxBatchSize.
func (c *Client) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("text %d: %w", i, ErrEmptyText)
		}
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxBatchSize {
		end := min(start+maxBatchSize, len(texts))

		batch, err := c.api.CreateEmbeddings(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("failed to create embedding: %w", err)
		}
		if len(batch) != end-start {
			return nil, ErrShortResponse
		}
		for _, v := range batch {
			switch {
			case v == nil:
				return nil, ErrShortResponse
			case len(v) != c.dimensions:
				return nil, fmt.Errorf("%w: got %d, want %d", ErrWrongDimensions, len(v), c.dimensions)
			}
			out = append(out, v)
		}
	}
	return out, nil
}

type adapter struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

func newAdapter(apiKey, baseURL, model string) *adapter {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return &adapter{
		client: openai.NewClientWithConfig(cfg),
		model:  openai.EmbeddingModel(model),
	}
}

func (a *adapter) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: a.model,
	})
	if err != nil {
		return nil, err
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}
