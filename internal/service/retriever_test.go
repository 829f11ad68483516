package service

import (
	"context"
	"testing"
	"time"

	"github.com/cloo-solutions/hrassist/internal/domain"
	"github.com/cloo-solutions/hrassist/internal/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRetriever_VectorSearch(t *testing.T) {
	ix := builtIndex(t, wordEmbedder{}, hrRows()...)
	r := NewRetriever(ix, time.Second)

	result := r.Search(context.Background(), "vacation days", 5)

	assert.Equal(t, domain.RetrievalVector, result.Method)
	top, ok := result.Top()
	require.True(t, ok)
	assert.Equal(t, "How many vacation days?", top.Entry.Question)
	assert.LessOrEqual(t, len(result.Entries), 3)
}

func TestRetriever_FallsBackWhenEmbeddingsFail(t *testing.T) {
	ix := builtIndex(t, failingEmbedder{}, hrRows()...)
	r := NewRetriever(ix, time.Second)

	result := r.Search(context.Background(), "medical benefits", 5)

	assert.Equal(t, domain.RetrievalKeyword, result.Method)
	top, ok := result.Top()
	require.True(t, ok)
	assert.Equal(t, "What medical benefits do I have?", top.Entry.Question)
	assert.Equal(t, 2.0, top.Score)
}

func TestRetriever_FallsBackOnTimeout(t *testing.T) {
	ix := builtIndex(t, blockingEmbedder{}, hrRows()...)
	r := NewRetriever(ix, 20*time.Millisecond)

	start := time.Now()
	result := r.Search(context.Background(), "salary", 5)

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, domain.RetrievalKeyword, result.Method)
	top, ok := result.Top()
	require.True(t, ok)
	assert.Equal(t, "When is salary paid?", top.Entry.Question)
}

func TestRetriever_EmptyCorpus(t *testing.T) {
	for _, embedder := range []index.Embedder{wordEmbedder{}, failingEmbedder{}, nil} {
		ix := builtIndex(t, embedder)
		r := NewRetriever(ix, time.Second)

		result := r.Search(context.Background(), "vacation", 5)
		assert.True(t, result.Empty())
		assert.NotNil(t, result.Entries)
	}
}

func TestRetriever_NoIndexYet(t *testing.T) {
	r := NewRetriever(index.New(wordEmbedder{}, nil), time.Second)

	result := r.Search(context.Background(), "vacation", 5)
	assert.True(t, result.Empty())
}

func TestRetriever_BlankQuery(t *testing.T) {
	idx := new(MockSearchIndex)
	r := NewRetriever(idx, time.Second)

	result := r.Search(context.Background(), "   ", 5)
	assert.True(t, result.Empty())
	idx.AssertNotCalled(t, "Query", mock.Anything, mock.Anything, mock.Anything)
}

func TestRetriever_DefaultK(t *testing.T) {
	idx := new(MockSearchIndex)
	idx.On("Query", mock.Anything, "leave", index.DefaultTopK).
		Return(domain.RetrievalResult{Entries: []domain.ScoredEntry{}, Method: domain.RetrievalVector}, nil)

	r := NewRetriever(idx, 0)
	r.Search(context.Background(), "leave", 0)

	idx.AssertExpectations(t)
}

func TestRetriever_ContaminatedRowNeverReturned(t *testing.T) {
	for _, embedder := range []index.Embedder{wordEmbedder{}, failingEmbedder{}} {
		ix := builtIndex(t, embedder, hrRows()...)
		r := NewRetriever(ix, time.Second)

		result := r.Search(context.Background(), "relocation budget", 5)
		for _, e := range result.Entries {
			assert.NotContains(t, e.Entry.Answer, "Context:")
			assert.NotEqual(t, "Is there a relocation budget?", e.Entry.Question)
		}
	}
}

func TestKeywordSearch_RankingAndTies(t *testing.T) {
	c := buildCorpus(t,
		[]string{"Leave carry forward", "Up to 30 days of earned leave carry forward.", ""},
		[]string{"Leave encashment", "Earned leave can be encashed at year end.", ""},
		[]string{"Sick leave certificate", "A certificate is needed for 3 or more days.", "sick"},
		[]string{"Office timings", "Core hours are 10am to 4pm.", ""},
	)
	snap := &index.Snapshot{Identity: c.Identity, Entries: c.Entries}

	result := KeywordSearch(snap, "sick LEAVE leave", 10)

	require.Len(t, result.Entries, 3)
	assert.Equal(t, "Sick leave certificate", result.Entries[0].Entry.Question)
	assert.Equal(t, 2.0, result.Entries[0].Score)
	assert.Equal(t, 0, result.Entries[1].Entry.RowID)
	assert.Equal(t, 1, result.Entries[2].Entry.RowID)
	assert.Equal(t, result.Entries[1].Score, result.Entries[2].Score)

	limited := KeywordSearch(snap, "leave", 1)
	require.Len(t, limited.Entries, 1)
	assert.Equal(t, 0, limited.Entries[0].Entry.RowID)
}

func TestKeywordSearch_Deterministic(t *testing.T) {
	c := buildCorpus(t, hrRows()...)
	snap := &index.Snapshot{Identity: c.Identity, Entries: c.Entries}

	first := KeywordSearch(snap, "salary medical vacation", 5)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, KeywordSearch(snap, "salary medical vacation", 5))
	}
}

func TestKeywordSearch_MatchesQuestionAndTagsOnly(t *testing.T) {
	c := buildCorpus(t,
		[]string{"Payslip access", "Download payslips from the payroll portal.", ""},
	)
	snap := &index.Snapshot{Entries: c.Entries}

	assert.True(t, KeywordSearch(snap, "portal", 5).Empty())
	assert.False(t, KeywordSearch(snap, "payslip", 5).Empty())
}
