package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/cloo-solutions/hrassist/internal/corpus"
	"github.com/cloo-solutions/hrassist/internal/domain"
	"github.com/cloo-solutions/hrassist/internal/index"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testVocabulary = []string{"vacation", "leave", "medical", "benefits", "salary", "days", "insurance", "relocation"}

// wordEmbedder embeds text as word counts over a fixed vocabulary.
type wordEmbedder struct{}

func (wordEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		lower := strings.ToLower(text)
		vec := make([]float32, len(testVocabulary))
		for j, word := range testVocabulary {
			vec[j] = float32(strings.Count(lower, word))
		}
		// keeps every vector non-zero
		vec = append(vec, 0.01)
		out[i] = vec
	}
	return out, nil
}

func (wordEmbedder) Model() string { return "word-count" }

// failingEmbedder simulates an unreachable embedding provider.
type failingEmbedder struct{}

func (failingEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errors.New("dial tcp: connection refused")
}

func (failingEmbedder) Model() string { return "offline" }

// blockingEmbedder answers the corpus build but hangs on queries until the
// context is done.
type blockingEmbedder struct {
	wordEmbedder
}

func (b blockingEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 1 {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return b.wordEmbedder.EmbedTexts(ctx, texts)
}

type MockSearchIndex struct {
	mock.Mock
}

func (m *MockSearchIndex) Query(ctx context.Context, text string, k int) (domain.RetrievalResult, error) {
	args := m.Called(ctx, text, k)
	return args.Get(0).(domain.RetrievalResult), args.Error(1)
}

func (m *MockSearchIndex) Snapshot() *index.Snapshot {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*index.Snapshot)
}

type MockTicketStore struct {
	mock.Mock
}

func (m *MockTicketStore) Load(ctx context.Context) ([]domain.Ticket, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Ticket), args.Error(1)
}

func (m *MockTicketStore) Save(ctx context.Context, tickets []domain.Ticket) error {
	args := m.Called(ctx, tickets)
	return args.Error(0)
}

// memoryTicketStore copies on every call so unsynchronized callers would
// lose updates.
type memoryTicketStore struct {
	mu      sync.Mutex
	tickets []domain.Ticket
}

func (s *memoryTicketStore) Load(ctx context.Context) ([]domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Ticket, len(s.tickets))
	copy(out, s.tickets)
	return out, nil
}

func (s *memoryTicketStore) Save(ctx context.Context, tickets []domain.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets = make([]domain.Ticket, len(tickets))
	copy(s.tickets, tickets)
	return nil
}

func buildCorpus(t *testing.T, rows ...[]string) *corpus.Corpus {
	t.Helper()
	c, err := corpus.FromRows(append([][]string{{"canonical_question", "short_answer", "tags"}}, rows...))
	require.NoError(t, err)
	return c
}

func hrRows() [][]string {
	return [][]string{
		{"How many vacation days?", "21 earned leave days per year.", "leave;vacation"},
		{"What medical benefits do I have?", "Group health insurance covers you, your spouse and two children.", "benefits|medical"},
		{"When is salary paid?", "Salary is credited on the last working day of each month.", "pay,salary"},
		{"Is there a relocation budget?", "Context: internal note. Employee: asked about moving.", "relocation"},
	}
}

func builtIndex(t *testing.T, embedder index.Embedder, rows ...[]string) *index.Index {
	t.Helper()
	ix := index.New(embedder, nil)
	_, err := ix.Build(context.Background(), buildCorpus(t, rows...), index.BuildOptions{})
	if embedder != nil {
		if _, ok := embedder.(failingEmbedder); !ok {
			require.NoError(t, err)
		}
	}
	return ix
}
