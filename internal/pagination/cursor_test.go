package pagination

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	id string
	at time.Time
}

func itemID(i item) string { return i.id }
func itemTime(i item) time.Time { return i.at }

func items(n int) []item {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]item, n)
	for i := range out {
		out[i] = item{id: fmt.Sprintf("HR-%02d", i), at: base.Add(time.Duration(i) * time.Minute)}
	}
	return out
}

func TestCursor_EncodeDecode(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 30, 0, 123456000, time.UTC)

	c, err := DecodeCursor(EncodeCursor("HR-20260301093000-123456-ABCDEF012345", at))
	require.NoError(t, err)
	assert.Equal(t, "HR-20260301093000-123456-ABCDEF012345", c.LastID)
	assert.True(t, at.Equal(c.Timestamp))

	assert.Empty(t, EncodeCursor("", at))

	c, err = DecodeCursor("")
	assert.NoError(t, err)
	assert.Nil(t, c)
}

func TestDecodeCursor_Invalid(t *testing.T) {
	for _, raw := range []string{"%%%", "bm8tcGlwZQ==", "aWR8bm90LWEtdGltZQ=="} {
		_, err := DecodeCursor(raw)
		assert.ErrorIs(t, err, ErrInvalidCursor, raw)
	}
}

func TestParseLimit(t *testing.T) {
	n, err := ParseLimit("")
	require.NoError(t, err)
	assert.Equal(t, DefaultLimit, n)

	n, err = ParseLimit("10")
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	n, err = ParseLimit("5000")
	require.NoError(t, err)
	assert.Equal(t, MaxLimit, n)

	for _, raw := range []string{"0", "-1", "ten"} {
		_, err := ParseLimit(raw)
		assert.ErrorIs(t, err, ErrInvalidLimit, raw)
	}
}

func TestPaginate_WalksAllPages(t *testing.T) {
	all := items(7)
	// reverse so ordering comes from Paginate, not the input
	shuffled := []item{all[6], all[5], all[4], all[3], all[2], all[1], all[0]}

	var seen []string
	var cursor *Cursor
	pages := 0
	for {
		page := Paginate(shuffled, cursor, 3, itemID, itemTime)
		pages++
		for _, it := range page.Items {
			seen = append(seen, it.id)
		}
		if !page.HasMore {
			assert.Empty(t, page.Cursor)
			break
		}
		var err error
		cursor, err = DecodeCursor(page.Cursor)
		require.NoError(t, err)
	}

	assert.Equal(t, 3, pages)
	assert.Equal(t, []string{"HR-00", "HR-01", "HR-02", "HR-03", "HR-04", "HR-05", "HR-06"}, seen)
	assert.Equal(t, "HR-06", shuffled[0].id, "input left untouched")
}

func TestPaginate_SameTimestampOrdersByID(t *testing.T) {
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	in := []item{{"b", at}, {"a", at}, {"c", at}}

	first := Paginate(in, nil, 2, itemID, itemTime)
	require.True(t, first.HasMore)
	assert.Equal(t, "a", first.Items[0].id)
	assert.Equal(t, "b", first.Items[1].id)

	cursor, err := DecodeCursor(first.Cursor)
	require.NoError(t, err)
	second := Paginate(in, cursor, 2, itemID, itemTime)
	require.Len(t, second.Items, 1)
	assert.Equal(t, "c", second.Items[0].id)
	assert.False(t, second.HasMore)
}

func TestPaginate_Empty(t *testing.T) {
	page := Paginate([]item{}, nil, 5, itemID, itemTime)
	assert.Empty(t, page.Items)
	assert.False(t, page.HasMore)
}
