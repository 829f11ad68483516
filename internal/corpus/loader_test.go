package corpus

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cloo-solutions/hrassist/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoader_Load_CSV(t *testing.T) {
	path := writeFile(t, "qa.csv", `canonical_question,short_answer,tags
How many vacation days?,21 earned leave days per year.,"leave, vacation"
  ,Orphan answer,
What is the dress code?,Business casual. Context: internal memo,
What is the notice period?,According to our HR materials: 30 days.,
Who approves overtime?,  Your line manager approves overtime.  ,pay
`)

	c, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, c.Entries, 2)
	assert.Equal(t, 0, c.Entries[0].RowID)
	assert.Equal(t, "How many vacation days?", c.Entries[0].Question)
	assert.Equal(t, []string{"leave", "vacation"}, c.Entries[0].Tags)
	assert.Equal(t, 4, c.Entries[1].RowID)
	assert.Equal(t, "Your line manager approves overtime.", c.Entries[1].Answer)

	assert.Equal(t, Stats{Rows: 5, Indexed: 2, SkippedEmpty: 1, SkippedContaminated: 2}, c.Stats)
	assert.Equal(t, 3, c.Stats.Skipped())
	assert.Equal(t, path, c.Source)
	assert.NotEmpty(t, c.Identity)
}

func TestLoader_Load_AlternateColumns(t *testing.T) {
	path := writeFile(t, "qa.csv", "\ufeffQuestion,Answer\nWhat is the leave policy?,Twenty one days of paid leave.\n")

	c, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, c.Entries, 1)
	assert.Equal(t, "What is the leave policy?", c.Entries[0].Question)
	assert.Nil(t, c.Entries[0].Tags)
}

func TestLoader_Load_ContaminatedRowsNeverEntered(t *testing.T) {
	path := writeFile(t, "qa.csv", "question,answer\nA?,Fine answer here.\nB?,Something context: leaked\n")

	c, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)

	for _, e := range c.Entries {
		assert.NotContains(t, e.Answer, "ontext:")
	}
	assert.Equal(t, 1, c.Stats.SkippedContaminated)
}

func TestLoader_Load_MissingFile(t *testing.T) {
	_, err := NewLoader().Load(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDataSource))
}

func TestLoader_Load_MissingColumns(t *testing.T) {
	path := writeFile(t, "qa.csv", "title,body\nx,y\n")

	_, err := NewLoader().Load(context.Background(), path)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDataSource))
	assert.Contains(t, err.Error(), "question column")
}

func TestLoader_Load_MalformedCSV(t *testing.T) {
	path := writeFile(t, "qa.csv", "question,answer\n\"unterminated,answer\n")

	_, err := NewLoader().Load(context.Background(), path)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDataSource))
}

func TestLoader_Load_EmptyFile(t *testing.T) {
	path := writeFile(t, "qa.csv", "")

	_, err := NewLoader().Load(context.Background(), path)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDataSource))
}

func TestLoader_Load_HeaderOnly(t *testing.T) {
	path := writeFile(t, "qa.csv", "question,answer\n")

	c, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 0, c.Len())
	assert.NotEmpty(t, c.Identity)
}

func TestLoader_Load_XLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"canonical_question", "short_answer", "tags"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"What medical benefits do I have?", "Comprehensive medical cover for you and dependents.", "medical;benefits"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"Bad row", "Context: hidden", ""}))

	path := filepath.Join(t.TempDir(), "qa.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	c, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, c.Entries, 1)
	assert.Equal(t, []string{"medical", "benefits"}, c.Entries[0].Tags)
	assert.Equal(t, 1, c.Stats.SkippedContaminated)
}

func TestIdentity(t *testing.T) {
	a := []domain.CorpusEntry{{RowID: 0, Question: "Q", Answer: "A"}}
	b := []domain.CorpusEntry{{RowID: 0, Question: "Q", Answer: "A"}}
	c := []domain.CorpusEntry{{RowID: 0, Question: "Q", Answer: "A2"}}
	d := []domain.CorpusEntry{{RowID: 1, Question: "Q", Answer: "A"}}

	assert.Equal(t, Identity(a), Identity(b))
	assert.NotEqual(t, Identity(a), Identity(c))
	assert.NotEqual(t, Identity(a), Identity(d))
	assert.NotEqual(t, Identity(a), Identity(nil))
}

func TestSplitTags(t *testing.T) {
	assert.Equal(t, []string{"leave", "vacation", "pto"}, SplitTags(" leave, vacation|pto ;"))
	assert.Nil(t, SplitTags(""))
	assert.Nil(t, SplitTags(" , ; "))
}
