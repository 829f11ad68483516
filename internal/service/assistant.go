package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cloo-solutions/hrassist/internal/corpus"
	"github.com/cloo-solutions/hrassist/internal/domain"
	"github.com/cloo-solutions/hrassist/internal/index"
	"github.com/cloo-solutions/hrassist/internal/telemetry"
)

// Health statuses
const (
	HealthStatusHealthy    = "healthy"
	HealthStatusNeedsSetup = "needs_setup"
)

// CorpusLoader reads the Q&A corpus from a file.
type CorpusLoader interface {
	Load(ctx context.Context, path string) (*corpus.Corpus, error)
}

// CorpusIndex is the index the assistant builds and queries.
type CorpusIndex interface {
	SearchIndex
	Build(ctx context.Context, c *corpus.Corpus, opts index.BuildOptions) (index.BuildReport, error)
	Model() string
}

// UserDirectory resolves a user id to a display name, or "unknown".
type UserDirectory interface {
	DisplayName(userID string) string
}

// AssistantConfig holds the assistant's tunables.
type AssistantConfig struct {
	CorpusPath       string
	TopK             int
	EmbeddingTimeout time.Duration
}

// ResolveInput is one question from a user.
type ResolveInput struct {
	Question string
	UserID   string
	TopK     int
}

// IngestReport describes a corpus load and index build.
type IngestReport struct {
	CorpusPath          string        `json:"corpus_path"`
	Identity            string        `json:"identity"`
	Rows                int           `json:"rows"`
	Indexed             int           `json:"indexed"`
	SkippedEmpty        int           `json:"skipped_empty"`
	SkippedContaminated int           `json:"skipped_contaminated"`
	Source              string        `json:"source"`
	Model               string        `json:"model,omitempty"`
	VectorReady         bool          `json:"vector_ready"`
	Duration            time.Duration `json:"duration"`
	Warning             string        `json:"warning,omitempty"`
}

// Health summarizes the state of the corpus and the index.
type Health struct {
	Status       string    `json:"status"`
	CorpusPath   string    `json:"corpus_path"`
	CorpusExists bool      `json:"corpus_exists"`
	IndexReady   bool      `json:"index_ready"`
	VectorReady  bool      `json:"vector_ready"`
	Entries      int       `json:"entries"`
	Skipped      int       `json:"skipped"`
	Identity     string    `json:"identity,omitempty"`
	Model        string    `json:"model,omitempty"`
	BuiltAt      time.Time `json:"built_at,omitempty"`
}

// Assistant is the query-resolution pipeline: retrieve, resolve, escalate.
// Resolve and CreateTicket are the only entry points end users reach.
type Assistant struct {
	cfg        AssistantConfig
	loader     CorpusLoader
	index      CorpusIndex
	retriever  *Retriever
	resolver   *Resolver
	escalation *EscalationManager
	directory  UserDirectory

	ingestMu sync.Mutex
}

func NewAssistant(
	cfg AssistantConfig,
	loader CorpusLoader,
	idx CorpusIndex,
	resolver *Resolver,
	escalation *EscalationManager,
	directory UserDirectory,
) *Assistant {
	if cfg.TopK <= 0 {
		cfg.TopK = index.DefaultTopK
	}
	if resolver == nil {
		resolver = NewResolver(nil)
	}
	return &Assistant{
		cfg:        cfg,
		loader:     loader,
		index:      idx,
		retriever:  NewRetriever(idx, cfg.EmbeddingTimeout),
		resolver:   resolver,
		escalation: escalation,
		directory:  directory,
	}
}

// Resolve answers a question. It always returns a usable answer; failures
// surface as a fallback with escalation offered.
func (a *Assistant) Resolve(ctx context.Context, input ResolveInput) (answer domain.ResolvedAnswer) {
	ctx, span := telemetry.StartSpan(ctx, "Assistant.Resolve", telemetry.Attrs{
		UserID:    input.UserID,
		Operation: "resolve",
	})
	defer span.End()

	question := strings.TrimSpace(input.Question)
	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("resolve panicked: %v", rec)
			log.Printf("assistant: %v", err)
			telemetry.CaptureError(ctx, err)
			answer = a.resolver.errorFallback(question)
		}
		span.RecordAnswer(answer.RetrievalMethod, answer.ConfidenceScore, answer.ShowEscalation)
	}()

	log.Printf("assistant: question from %s: %q", a.displayName(input.UserID), question)

	if question == "" {
		return a.resolver.errorFallback(question)
	}

	k := input.TopK
	if k <= 0 {
		k = a.cfg.TopK
	}

	result := a.retriever.Search(ctx, question, k)
	telemetry.AddBreadcrumb(ctx, "retrieval", fmt.Sprintf("%s search returned %d entries", result.Method, len(result.Entries)))

	answer = a.resolver.Resolve(question, result)
	log.Printf("assistant: answered via %s (confidence %.2f)", answer.RetrievalMethod, answer.ConfidenceScore)
	return answer
}

// ContactHR returns the fixed introduction for users asking for a person.
func (a *Assistant) ContactHR() domain.ResolvedAnswer {
	return a.resolver.ContactAnswer()
}

// CreateTicket escalates an issue to the HR team.
func (a *Assistant) CreateTicket(ctx context.Context, input TicketInput) (*domain.Ticket, error) {
	ctx, span := telemetry.StartSpan(ctx, "Assistant.CreateTicket", telemetry.Attrs{
		UserID:    input.UserID,
		Operation: "create_ticket",
	})
	defer span.End()

	if a.escalation == nil {
		return nil, domain.PersistenceError("ticket store not configured", nil)
	}

	ticket, err := a.escalation.CreateTicket(ctx, input)
	if err != nil {
		if errors.Is(err, domain.ErrPersistence) {
			span.SetError(err)
			log.Printf("assistant: ticket for %s not saved: %v", a.displayName(input.UserID), err)
		}
		return nil, err
	}

	span.SetTag("ticket_id", ticket.TicketID)
	log.Printf("assistant: ticket %s opened by %s", ticket.TicketID, a.displayName(input.UserID))
	return ticket, nil
}

// ListTickets returns every stored ticket.
func (a *Assistant) ListTickets(ctx context.Context) ([]domain.Ticket, error) {
	if a.escalation == nil {
		return nil, domain.PersistenceError("ticket store not configured", nil)
	}
	return a.escalation.ListTickets(ctx)
}

// GetTicket returns one stored ticket or domain.ErrTicketNotFound.
func (a *Assistant) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	if a.escalation == nil {
		return nil, domain.PersistenceError("ticket store not configured", nil)
	}
	return a.escalation.GetTicket(ctx, id)
}

// Ingest reloads the corpus and makes it searchable. force skips any
// published or persisted index. An embedding outage still publishes a
// keyword-searchable index and is reported as a warning.
func (a *Assistant) Ingest(ctx context.Context, force bool) (*IngestReport, error) {
	a.ingestMu.Lock()
	defer a.ingestMu.Unlock()

	return a.ingestLocked(ctx, force)
}

func (a *Assistant) ingestLocked(ctx context.Context, force bool) (*IngestReport, error) {
	ctx, span := telemetry.StartSpan(ctx, "Assistant.Ingest", telemetry.Attrs{
		Operation: "ingest",
	})
	defer span.End()

	c, err := a.loader.Load(ctx, a.cfg.CorpusPath)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	report := &IngestReport{
		CorpusPath:          a.cfg.CorpusPath,
		Identity:            c.Identity,
		Rows:                c.Stats.Rows,
		Indexed:             c.Stats.Indexed,
		SkippedEmpty:        c.Stats.SkippedEmpty,
		SkippedContaminated: c.Stats.SkippedContaminated,
	}

	build, err := a.index.Build(ctx, c, index.BuildOptions{Force: force})
	report.Source = build.Source
	report.Model = build.Model
	report.Duration = build.Duration
	if err != nil {
		if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
			span.SetError(err)
			return nil, err
		}
		telemetry.CaptureError(ctx, err)
		report.Warning = "embeddings unavailable, keyword search only"
		log.Printf("assistant: %v", err)
	}

	snap := a.index.Snapshot()
	report.VectorReady = snap != nil && snap.Embedded && snap.Identity == c.Identity

	log.Printf("assistant: ingested %d entries from %s (source %s, skipped %d)",
		report.Indexed, report.CorpusPath, report.Source, c.Stats.Skipped())
	return report, nil
}

// Refresh rebuilds the index only when the corpus on disk no longer matches
// the published snapshot. It reports whether a rebuild ran.
func (a *Assistant) Refresh(ctx context.Context) (bool, error) {
	a.ingestMu.Lock()
	defer a.ingestMu.Unlock()

	c, err := a.loader.Load(ctx, a.cfg.CorpusPath)
	if err != nil {
		return false, err
	}

	if snap := a.index.Snapshot(); snap != nil && snap.Identity == c.Identity {
		if snap.Embedded || a.index.Model() == "" {
			return false, nil
		}
	}

	if _, err := a.index.Build(ctx, c, index.BuildOptions{}); err != nil && !errors.Is(err, domain.ErrEmbeddingUnavailable) {
		return false, err
	}
	log.Printf("assistant: corpus changed, index refreshed (%d entries)", c.Len())
	return true, nil
}

// Health reports whether the corpus exists and the index is ready.
func (a *Assistant) Health(ctx context.Context) Health {
	h := Health{
		Status:     HealthStatusNeedsSetup,
		CorpusPath: a.cfg.CorpusPath,
		Model:      a.index.Model(),
	}

	if _, err := os.Stat(a.cfg.CorpusPath); err == nil {
		h.CorpusExists = true
	}

	if snap := a.index.Snapshot(); snap != nil {
		h.IndexReady = true
		h.VectorReady = snap.Embedded
		h.Entries = snap.Len()
		h.Skipped = snap.Stats.Skipped()
		h.Identity = snap.Identity
		h.BuiltAt = snap.BuiltAt
	}

	if h.CorpusExists && h.IndexReady {
		h.Status = HealthStatusHealthy
	}
	return h
}

func (a *Assistant) displayName(userID string) string {
	if strings.TrimSpace(userID) == "" {
		return "anonymous"
	}
	if a.directory == nil {
		return userID
	}
	return fmt.Sprintf("%s (%s)", userID, a.directory.DisplayName(userID))
}
