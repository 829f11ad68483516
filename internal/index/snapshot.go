package index

import (
	"math"
	"time"

	"github.com/cloo-solutions/hrassist/internal/corpus"
	"github.com/cloo-solutions/hrassist/internal/domain"
)

// Snapshot is an immutable view of one corpus. Vectors[i] belongs to
// Entries[i]. A snapshot with Embedded unset only supports keyword search.
type Snapshot struct {
	Identity string
	Model    string
	Source   string
	Entries  []domain.CorpusEntry
	Vectors  [][]float32
	Embedded bool
	Stats    corpus.Stats
	BuiltAt  time.Time
}

func newSnapshot(c *corpus.Corpus, model string, vectors [][]float32) *Snapshot {
	return &Snapshot{
		Identity: c.Identity,
		Model:    model,
		Source:   c.Source,
		Entries:  c.Entries,
		Vectors:  vectors,
		Embedded: true,
		Stats:    c.Stats,
		BuiltAt:  time.Now().UTC(),
	}
}

func newLexicalSnapshot(c *corpus.Corpus) *Snapshot {
	return &Snapshot{
		Identity: c.Identity,
		Source:   c.Source,
		Entries:  c.Entries,
		Stats:    c.Stats,
		BuiltAt:  time.Now().UTC(),
	}
}

// Len returns the number of entries
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Entries)
}

// Dimensions returns the vector size, or 0 for lexical snapshots.
func (s *Snapshot) Dimensions() int {
	if s == nil || len(s.Vectors) == 0 {
		return 0
	}
	return len(s.Vectors[0])
}

func (s *Snapshot) vectorMap() map[int][]float32 {
	out := make(map[int][]float32, len(s.Entries))
	for i, e := range s.Entries {
		out[e.RowID] = s.Vectors[i]
	}
	return out
}

func (s *Snapshot) rank(query []float32, k int) []domain.ScoredEntry {
	scored := make([]domain.ScoredEntry, len(s.Entries))
	for i, e := range s.Entries {
		scored[i] = domain.ScoredEntry{Entry: e, Score: Cosine(query, s.Vectors[i])}
	}
	return domain.RankScored(scored, k)
}

// Cosine returns the cosine similarity of a and b, or 0 when either is a
// zero vector or their lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		av := float64(a[i])
		bv := float64(b[i])
		dot += av * bv
		na += av * av
		nb += bv * bv
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
