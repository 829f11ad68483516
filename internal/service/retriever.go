package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/cloo-solutions/hrassist/internal/domain"
	"github.com/cloo-solutions/hrassist/internal/index"
)

// DefaultEmbeddingTimeout bounds a vector query when none is configured.
const DefaultEmbeddingTimeout = 5 * time.Second

// SearchIndex is the part of index.Index the retriever depends on.
type SearchIndex interface {
	Query(ctx context.Context, text string, k int) (domain.RetrievalResult, error)
	Snapshot() *index.Snapshot
}

// Retriever finds the corpus entries closest to a query. Vector search is
// tried first; any failure of the embedding layer drops to keyword scoring
// over the same snapshot.
type Retriever struct {
	index   SearchIndex
	timeout time.Duration
}

func NewRetriever(idx SearchIndex, timeout time.Duration) *Retriever {
	if timeout <= 0 {
		timeout = DefaultEmbeddingTimeout
	}
	return &Retriever{
		index:   idx,
		timeout: timeout,
	}
}

// Search returns up to k matches, best first. It never fails; an empty or
// missing corpus yields an empty result.
func (r *Retriever) Search(ctx context.Context, query string, k int) domain.RetrievalResult {
	if k <= 0 {
		k = index.DefaultTopK
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.RetrievalResult{Entries: []domain.ScoredEntry{}, Method: domain.RetrievalKeyword}
	}

	queryCtx, cancel := context.WithTimeout(ctx, r.timeout)
	result, err := r.index.Query(queryCtx, query, k)
	cancel()
	if err == nil {
		return result
	}

	log.Printf("retriever: vector search unavailable, using keyword search: %v", err)
	return KeywordSearch(r.index.Snapshot(), query, k)
}

// KeywordSearch scores each entry by how many distinct query terms appear
// in its question and tags. Entries without a match are dropped.
func KeywordSearch(snap *index.Snapshot, query string, k int) domain.RetrievalResult {
	result := domain.RetrievalResult{Entries: []domain.ScoredEntry{}, Method: domain.RetrievalKeyword}
	if snap == nil || len(snap.Entries) == 0 {
		return result
	}

	terms := uniqueTerms(Tokenize(query))
	if len(terms) == 0 {
		return result
	}

	for _, entry := range snap.Entries {
		present := make(map[string]struct{})
		for _, tok := range Tokenize(entry.SearchText()) {
			present[tok] = struct{}{}
		}

		score := 0
		for _, term := range terms {
			if _, ok := present[term]; ok {
				score++
			}
		}
		if score > 0 {
			result.Entries = append(result.Entries, domain.ScoredEntry{Entry: entry, Score: float64(score)})
		}
	}

	result.Entries = domain.RankScored(result.Entries, k)
	return result
}

func uniqueTerms(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
