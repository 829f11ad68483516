package domain

import (
	"fmt"
	"strings"
)

// Boilerplate markers that disqualify a corpus answer at load time.
const (
	ContextMarker     = "Context:"
	EmployeeMarker    = "Employee:"
	BoilerplatePrefix = "According to our HR materials:"
)

// CorpusEntry is one curated question/answer row. RowID is the position of
// the row in the source and is stable for the lifetime of a corpus.
type CorpusEntry struct {
	RowID    int      `json:"row_id"`
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Tags     []string `json:"tags,omitempty"`
}

// NewCorpusEntry creates a CorpusEntry with trimmed fields
func NewCorpusEntry(rowID int, question, answer string, tags []string) *CorpusEntry {
	return &CorpusEntry{
		RowID:    rowID,
		Question: strings.TrimSpace(question),
		Answer:   strings.TrimSpace(answer),
		Tags:     tags,
	}
}

// EmbeddingText is the text fed to the embedding provider for this entry.
func (e *CorpusEntry) EmbeddingText() string {
	text := "Question: " + e.Question + "\nAnswer: " + e.Answer
	if len(e.Tags) > 0 {
		text += "\nTags: " + strings.Join(e.Tags, ", ")
	}
	return text
}

// SearchText is the text keyword scoring matches against.
func (e *CorpusEntry) SearchText() string {
	if len(e.Tags) == 0 {
		return e.Question
	}
	return e.Question + " " + strings.Join(e.Tags, " ")
}

// IsContaminated reports whether an answer carries leaked scaffolding that
// must keep the row out of the index.
func IsContaminated(answer string) bool {
	lower := strings.ToLower(answer)
	if strings.Contains(lower, strings.ToLower(ContextMarker)) {
		return true
	}
	return strings.HasPrefix(strings.TrimSpace(answer), BoilerplatePrefix)
}

// ValidateCorpusEntry checks that an entry may be indexed. A missing question
// or answer wraps ErrMissingRequiredField; leaked scaffolding wraps
// ErrContaminatedAnswer.
func ValidateCorpusEntry(e *CorpusEntry) error {
	if e == nil {
		return fmt.Errorf("%w: corpus entry is nil", ErrMissingRequiredField)
	}

	if e.RowID < 0 {
		return fmt.Errorf("corpus entry RowID must not be negative")
	}

	if strings.TrimSpace(e.Question) == "" {
		return fmt.Errorf("%w: row %d has no question", ErrMissingRequiredField, e.RowID)
	}

	if strings.TrimSpace(e.Answer) == "" {
		return fmt.Errorf("%w: row %d has no answer", ErrMissingRequiredField, e.RowID)
	}

	if IsContaminated(e.Answer) {
		return fmt.Errorf("%w: row %d", ErrContaminatedAnswer, e.RowID)
	}

	return nil
}
