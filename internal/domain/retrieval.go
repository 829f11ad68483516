package domain

import "sort"

// RetrievalMethod identifies which search path produced a result.
type RetrievalMethod string

const (
	RetrievalVector  RetrievalMethod = "vector"
	RetrievalKeyword RetrievalMethod = "keyword"
)

// ScoredEntry pairs a corpus entry with its similarity or keyword score.
type ScoredEntry struct {
	Entry CorpusEntry `json:"entry"`
	Score float64     `json:"score"`
}

// RetrievalResult is an ordered list of matches, best first.
type RetrievalResult struct {
	Entries []ScoredEntry   `json:"entries"`
	Method  RetrievalMethod `json:"method"`
}

// Empty reports whether the result holds no matches.
func (r RetrievalResult) Empty() bool {
	return len(r.Entries) == 0
}

// Top returns the best match, if any.
func (r RetrievalResult) Top() (ScoredEntry, bool) {
	if len(r.Entries) == 0 {
		return ScoredEntry{}, false
	}
	return r.Entries[0], true
}

// RankScored sorts by score descending with ties broken by RowID ascending,
// then truncates to k. k <= 0 keeps everything.
func RankScored(entries []ScoredEntry, k int) []ScoredEntry {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Entry.RowID < entries[j].Entry.RowID
	})
	if k > 0 && len(entries) > k {
		entries = entries[:k]
	}
	return entries
}
