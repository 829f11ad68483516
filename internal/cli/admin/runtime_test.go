package admin

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cloo-solutions/hrassist/internal/config"
	"github.com/cloo-solutions/hrassist/internal/domain"
	"github.com/cloo-solutions/hrassist/internal/service"
	"github.com/cloo-solutions/hrassist/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func localConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	corpusPath := filepath.Join(dir, "qa.csv")
	require.NoError(t, os.WriteFile(corpusPath, []byte("canonical_question,short_answer,tags\n"+
		"How many vacation days do I get?,Employees get 21 earned leave days per year.,leave\n"), 0o644))

	return &config.Config{
		CorpusPath:        corpusPath,
		IndexDir:          filepath.Join(dir, "index"),
		TicketsPath:       filepath.Join(dir, "tickets.json"),
		EmbeddingProvider: config.ProviderNone,
		EmbeddingTimeout:  time.Second,
		TopK:              5,
	}
}

func TestNewRuntime_LocalOnly(t *testing.T) {
	cfg := localConfig(t)
	ctx := context.Background()

	rt, err := NewRuntime(ctx, cfg, true)
	require.NoError(t, err)
	defer rt.Close()

	report, err := rt.Assistant.Ingest(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Indexed)
	assert.False(t, report.VectorReady)
	assert.NotEmpty(t, report.Warning)

	answer := rt.Assistant.Resolve(ctx, service.ResolveInput{Question: "vacation days"})
	assert.Equal(t, domain.MethodKeywordClean, answer.RetrievalMethod)

	ticket, err := rt.Assistant.CreateTicket(ctx, service.TicketInput{Issue: "Payslip missing", UserID: "EMP001234"})
	require.NoError(t, err)

	stored, err := storage.NewFileTicketStore(cfg.TicketsPath).Load(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, ticket.TicketID, stored[0].TicketID)
}

func TestNewRuntime_CloseIsIdempotent(t *testing.T) {
	rt, err := NewRuntime(context.Background(), localConfig(t), true)
	require.NoError(t, err)

	rt.Close()
	rt.Close()
}

func TestNewTicketStore_FallsBackToFile(t *testing.T) {
	cfg := localConfig(t)

	store, err := newTicketStore(context.Background(), cfg, nil)
	require.NoError(t, err)

	file, ok := store.(*storage.FileTicketStore)
	require.True(t, ok)
	assert.Equal(t, cfg.TicketsPath, file.Path())
}

func TestNewEmbedder(t *testing.T) {
	cfg := localConfig(t)
	assert.Nil(t, newEmbedder(cfg))

	cfg.EmbeddingProvider = config.ProviderOpenAI
	assert.Nil(t, newEmbedder(cfg), "openai without a key stays keyword-only")

	cfg.OpenAIAPIKey = "sk-test"
	e := newEmbedder(cfg)
	require.NotNil(t, e)
	assert.Equal(t, "text-embedding-3-small", e.Model())

	cfg.EmbeddingProvider = config.ProviderOllama
	cfg.OllamaURL = "http://localhost:11434"
	e = newEmbedder(cfg)
	require.NotNil(t, e)
	assert.Equal(t, "nomic-embed-text", e.Model())
}

func TestPrintAnswer(t *testing.T) {
	var out bytes.Buffer
	PrintAnswer(&out, domain.ResolvedAnswer{
		Text:            "Employees get 21 earned leave days per year.",
		ConfidenceScore: 0.8,
		ConfidenceLabel: domain.LabelHigh,
		RetrievalMethod: domain.MethodErrorFallback,
		ShowEscalation:  true,
		Suggestions:     []string{"How do I apply for leave?"},
	})

	assert.Contains(t, out.String(), "High Confidence (0.80) via error_fallback")
	assert.Contains(t, out.String(), "hrassistd ticket")
	assert.Contains(t, out.String(), "  - How do I apply for leave?")
}

func TestPrintTicket(t *testing.T) {
	var out bytes.Buffer
	created := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	PrintTicket(&out, domain.NewTicket("HR-20260301093000-000000-ABCDEF012345", "Payslip missing", "EMP001234", "", 0, created))

	assert.Contains(t, out.String(), "Ticket ID: HR-20260301093000-000000-ABCDEF012345")
	assert.Contains(t, out.String(), "Status:    Open")
	assert.Contains(t, out.String(), "2026-03-01 09:30:00 UTC")
}

func TestIngestCmd_JSONOutput(t *testing.T) {
	cfg := localConfig(t)
	t.Setenv("HRASSIST_CORPUS_PATH", cfg.CorpusPath)
	t.Setenv("HRASSIST_INDEX_DIR", cfg.IndexDir)
	t.Setenv("HRASSIST_TICKETS_PATH", cfg.TicketsPath)
	t.Setenv("HRASSIST_EMBEDDING_PROVIDER", "none")
	t.Setenv("HRASSIST_DATABASE_URL", "")
	t.Setenv("HRASSIST_S3_ENDPOINT", "")

	cmd := IngestCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--output", "--force-rebuild"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), `"indexed": 1`)
	assert.Contains(t, out.String(), `"source": "lexical"`)
}
