// Package corpus loads the curated HR question/answer dataset.
package corpus

import (
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cloo-solutions/hrassist/internal/domain"
)

// Column aliases in order of preference.
var (
	questionColumns = []string{"canonical_question", "question"}
	answerColumns   = []string{"short_answer", "answer", "faq_answer"}
	tagColumns      = []string{"tags"}
)

// Stats describes what happened to the raw rows of a source.
type Stats struct {
	Rows                int `json:"rows"`
	Indexed             int `json:"indexed"`
	SkippedEmpty        int `json:"skipped_empty"`
	SkippedContaminated int `json:"skipped_contaminated"`
}

// Skipped is the number of rows kept out of the corpus.
func (s Stats) Skipped() int {
	return s.SkippedEmpty + s.SkippedContaminated
}

// Corpus is an immutable, filtered snapshot of a source file.
type Corpus struct {
	Source   string
	Entries  []domain.CorpusEntry
	Identity string
	Stats    Stats
}

// Len returns the number of indexed entries
func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Entries)
}

// Loader reads corpus files. CSV is parsed natively, XLSX through excelize.
type Loader struct{}

// NewLoader creates a new Loader
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads and filters the corpus at path. Any failure is a DataSourceError
// and nothing is partially loaded.
func (l *Loader) Load(ctx context.Context, path string) (*Corpus, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.DataSourceError("load cancelled", err)
	}

	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		rows, err = readXLSX(path)
	default:
		rows, err = readCSV(path)
	}
	if err != nil {
		return nil, domain.DataSourceError(fmt.Sprintf("failed to read corpus %s", path), err)
	}

	c, err := FromRows(rows)
	if err != nil {
		return nil, domain.DataSourceError(fmt.Sprintf("invalid corpus %s", path), err)
	}
	c.Source = path

	log.Printf("corpus: loaded %s (rows=%d indexed=%d skipped_empty=%d skipped_contaminated=%d)",
		path, c.Stats.Rows, c.Stats.Indexed, c.Stats.SkippedEmpty, c.Stats.SkippedContaminated)

	return c, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var rows [][]string
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse csv: %w", err)
		}
		rows = append(rows, record)
	}
	return rows, nil
}

// FromRows builds a corpus from a header row followed by data rows. Row ids
// are data row positions, so filtered rows leave gaps.
func FromRows(rows [][]string) (*Corpus, error) {
	if len(rows) == 0 {
		return nil, errors.New("missing header row")
	}

	header := rows[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	qCol := findColumn(header, questionColumns)
	aCol := findColumn(header, answerColumns)
	tCol := findColumn(header, tagColumns)
	if qCol < 0 {
		return nil, fmt.Errorf("missing question column (want one of %s)", strings.Join(questionColumns, ", "))
	}
	if aCol < 0 {
		return nil, fmt.Errorf("missing answer column (want one of %s)", strings.Join(answerColumns, ", "))
	}

	c := &Corpus{Entries: []domain.CorpusEntry{}}
	for i, row := range rows[1:] {
		c.Stats.Rows++

		entry := domain.NewCorpusEntry(i, cell(row, qCol), cell(row, aCol), SplitTags(cell(row, tCol)))
		if err := domain.ValidateCorpusEntry(entry); err != nil {
			switch {
			case errors.Is(err, domain.ErrContaminatedAnswer):
				c.Stats.SkippedContaminated++
			default:
				c.Stats.SkippedEmpty++
			}
			continue
		}
		c.Entries = append(c.Entries, *entry)
	}
	c.Stats.Indexed = len(c.Entries)
	c.Identity = Identity(c.Entries)

	return c, nil
}

func findColumn(header []string, names []string) int {
	for _, name := range names {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), name) {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// SplitTags splits a raw tag cell on commas, semicolons or pipes.
func SplitTags(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == '|'
	})

	var tags []string
	for _, f := range fields {
		if tag := strings.TrimSpace(f); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// Identity fingerprints the accepted entries. Equal corpora share an identity,
// and any edit to a row, its position or the row count changes it.
func Identity(entries []domain.CorpusEntry) string {
	h := sha256.New()
	h.Write([]byte(strconv.Itoa(len(entries))))
	for _, e := range entries {
		h.Write([]byte{0})
		h.Write([]byte(strconv.Itoa(e.RowID)))
		h.Write([]byte{0})
		h.Write([]byte(e.Question))
		h.Write([]byte{0})
		h.Write([]byte(e.Answer))
		h.Write([]byte{0})
		h.Write([]byte(strings.Join(e.Tags, "\x1f")))
	}
	return hex.EncodeToString(h.Sum(nil))
}
