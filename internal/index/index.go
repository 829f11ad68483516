// Package index holds the embedding index over the HR corpus. Every build
// produces an immutable Snapshot that is published with one atomic swap, so a
// query always sees either the previous index or the complete new one.
package index

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cloo-solutions/hrassist/internal/corpus"
	"github.com/cloo-solutions/hrassist/internal/domain"
)

// DefaultTopK is used when a query asks for k <= 0.
const DefaultTopK = 5

// Embedder turns texts into fixed-dimension vectors, in input order.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}

// VectorStore persists vectors keyed by corpus identity and model. Load
// returns domain.ErrIndexNotFound when nothing matches.
type VectorStore interface {
	Load(ctx context.Context, identity, model string) (map[int][]float32, error)
	Save(ctx context.Context, identity, model string, vectors map[int][]float32) error
}

// Build sources reported on BuildReport.
const (
	SourceCurrent   = "current"
	SourcePersisted = "persisted"
	SourceEmbedded  = "embedded"
	SourceLexical   = "lexical"
)

// BuildOptions controls a build.
type BuildOptions struct {
	// Force bypasses the published snapshot and the persisted store.
	Force bool
}

// BuildReport describes the outcome of a build.
type BuildReport struct {
	Identity string        `json:"identity"`
	Model    string        `json:"model,omitempty"`
	Entries  int           `json:"entries"`
	Source   string        `json:"source"`
	Duration time.Duration `json:"duration"`
}

// Index owns the current snapshot. Builds are serialized; queries never
// wait on a build.
type Index struct {
	embedder Embedder
	store    VectorStore

	buildMu sync.Mutex
	current atomic.Pointer[Snapshot]
}

// New creates an Index. A nil embedder yields lexical-only snapshots and a
// nil store disables persistence.
func New(embedder Embedder, store VectorStore) *Index {
	return &Index{
		embedder: embedder,
		store:    store,
	}
}

// Snapshot returns the published snapshot, or nil before the first build.
func (ix *Index) Snapshot() *Snapshot {
	return ix.current.Load()
}

// Model returns the embedding model the index is keyed by.
func (ix *Index) Model() string {
	if ix.embedder == nil {
		return ""
	}
	return ix.embedder.Model()
}

func (ix *Index) publish(s *Snapshot) {
	ix.current.Store(s)
}

// LoadPersisted publishes the stored vectors for c when they exist and still
// match it. It reports whether a snapshot was published.
func (ix *Index) LoadPersisted(ctx context.Context, c *corpus.Corpus) (bool, error) {
	ix.buildMu.Lock()
	defer ix.buildMu.Unlock()

	return ix.loadPersistedLocked(ctx, c)
}

func (ix *Index) loadPersistedLocked(ctx context.Context, c *corpus.Corpus) (bool, error) {
	if ix.store == nil || ix.embedder == nil {
		return false, nil
	}

	model := ix.embedder.Model()
	stored, err := ix.store.Load(ctx, c.Identity, model)
	if errors.Is(err, domain.ErrIndexNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load persisted index: %w", err)
	}

	vectors, ok := alignVectors(c.Entries, stored)
	if !ok {
		log.Printf("index: persisted vectors for %s are stale, rebuilding", shortID(c.Identity))
		return false, nil
	}

	ix.publish(newSnapshot(c, model, vectors))
	return true, nil
}

// Build makes c queryable. Unless opts.Force is set, a matching published or
// persisted index is reused. When embeddings cannot be computed a lexical
// snapshot of c is still published and EmbeddingUnavailableError is returned.
func (ix *Index) Build(ctx context.Context, c *corpus.Corpus, opts BuildOptions) (BuildReport, error) {
	ix.buildMu.Lock()
	defer ix.buildMu.Unlock()

	start := time.Now()
	report := BuildReport{Identity: c.Identity, Model: ix.Model(), Entries: c.Len()}
	finish := func(source string) BuildReport {
		report.Source = source
		report.Duration = time.Since(start)
		return report
	}

	if !opts.Force {
		if cur := ix.current.Load(); cur != nil && cur.Embedded && cur.Identity == c.Identity && cur.Model == report.Model {
			return finish(SourceCurrent), nil
		}

		loaded, err := ix.loadPersistedLocked(ctx, c)
		if err != nil {
			log.Printf("index: %v", err)
		}
		if loaded {
			return finish(SourcePersisted), nil
		}
	}

	if ix.embedder == nil {
		ix.publishLexical(c)
		return finish(SourceLexical), domain.EmbeddingUnavailableError("no embedding provider configured", nil)
	}

	vectors, err := ix.embedEntries(ctx, c.Entries)
	if err != nil {
		ix.publishLexical(c)
		return finish(SourceLexical), domain.EmbeddingUnavailableError("failed to embed corpus", err)
	}

	snap := newSnapshot(c, report.Model, vectors)
	if ix.store != nil {
		if err := ix.store.Save(ctx, c.Identity, report.Model, snap.vectorMap()); err != nil {
			log.Printf("index: failed to persist index %s: %v", shortID(c.Identity), err)
		}
	}
	ix.publish(snap)

	log.Printf("index: built %d vectors for corpus %s in %v", len(vectors), shortID(c.Identity), time.Since(start))
	return finish(SourceEmbedded), nil
}

// publishLexical makes c available to keyword search. A vector snapshot of
// the same corpus is kept, since it is still correct.
func (ix *Index) publishLexical(c *corpus.Corpus) {
	if cur := ix.current.Load(); cur != nil && cur.Embedded && cur.Identity == c.Identity {
		return
	}
	ix.publish(newLexicalSnapshot(c))
}

func (ix *Index) embedEntries(ctx context.Context, entries []domain.CorpusEntry) ([][]float32, error) {
	if len(entries) == 0 {
		return [][]float32{}, nil
	}

	texts := make([]string, len(entries))
	for i := range entries {
		texts[i] = entries[i].EmbeddingText()
	}

	vectors, err := ix.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(entries) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(entries), len(vectors))
	}
	dims := len(vectors[0])
	for i, v := range vectors {
		if len(v) == 0 || len(v) != dims {
			return nil, fmt.Errorf("embedding %d has %d dimensions, expected %d", i, len(v), dims)
		}
	}
	return vectors, nil
}

// Query ranks the published snapshot against text by cosine similarity.
// Ties are broken by row id. It fails with EmbeddingUnavailableError when
// the snapshot has no vectors or the query cannot be embedded.
func (ix *Index) Query(ctx context.Context, text string, k int) (domain.RetrievalResult, error) {
	result := domain.RetrievalResult{Entries: []domain.ScoredEntry{}, Method: domain.RetrievalVector}
	if k <= 0 {
		k = DefaultTopK
	}

	snap := ix.current.Load()
	if snap == nil || !snap.Embedded {
		return result, domain.EmbeddingUnavailableError("vector index not built", nil)
	}
	if len(snap.Entries) == 0 {
		return result, nil
	}
	if ix.embedder == nil {
		return result, domain.EmbeddingUnavailableError("no embedding provider configured", nil)
	}

	vectors, err := ix.embedder.EmbedTexts(ctx, []string{text})
	if err != nil {
		return result, domain.EmbeddingUnavailableError("failed to embed query", err)
	}
	if len(vectors) != 1 || len(vectors[0]) != snap.Dimensions() {
		return result, domain.EmbeddingUnavailableError("query embedding does not match index dimensions", nil)
	}

	result.Entries = snap.rank(vectors[0], k)
	return result, nil
}

func alignVectors(entries []domain.CorpusEntry, stored map[int][]float32) ([][]float32, bool) {
	if len(stored) != len(entries) {
		return nil, false
	}

	out := make([][]float32, len(entries))
	dims := -1
	for i, e := range entries {
		v, ok := stored[e.RowID]
		if !ok || len(v) == 0 {
			return nil, false
		}
		if dims >= 0 && len(v) != dims {
			return nil, false
		}
		dims = len(v)
		out[i] = v
	}
	return out, true
}

func shortID(identity string) string {
	if len(identity) > 12 {
		return identity[:12]
	}
	return identity
}
