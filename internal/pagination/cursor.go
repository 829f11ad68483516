// Package pagination implements keyset cursors over (timestamp, id) ordered
// collections.
package pagination

import (
	"encoding/base64"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// Cursor is the position of the last item on the previous page.
type Cursor struct {
	LastID    string
	Timestamp time.Time
}

// PageResult is one page of items plus the cursor for the next page.
type PageResult[T any] struct {
	Items   []T
	Cursor  string
	HasMore bool
}

var (
	ErrInvalidCursor = errors.New("invalid cursor format")
	ErrInvalidLimit  = errors.New("limit must be a positive integer")
)

// EncodeCursor creates an opaque cursor from an item id and timestamp.
func EncodeCursor(lastID string, timestamp time.Time) string {
	if lastID == "" {
		return ""
	}
	raw := lastID + "|" + timestamp.UTC().Format(time.RFC3339Nano)
	return base64.URLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor reverses EncodeCursor. An empty cursor decodes to nil.
func DecodeCursor(cursor string) (*Cursor, error) {
	if cursor == "" {
		return nil, nil
	}

	decoded, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	parts := strings.SplitN(string(decoded), "|", 2)
	if len(parts) != 2 || parts[0] == "" {
		return nil, ErrInvalidCursor
	}

	timestamp, err := time.Parse(time.RFC3339Nano, parts[1])
	if err != nil {
		return nil, ErrInvalidCursor
	}

	return &Cursor{
		LastID:    parts[0],
		Timestamp: timestamp,
	}, nil
}

// ParseLimit reads a limit query value. Empty means DefaultLimit; values
// above MaxLimit are clamped.
func ParseLimit(raw string) (int, error) {
	if raw == "" {
		return DefaultLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, ErrInvalidLimit
	}
	if n > MaxLimit {
		n = MaxLimit
	}
	return n, nil
}

// Paginate orders items by (timestamp, id) and returns the page that starts
// after cursor. items is not modified.
func Paginate[T any](items []T, cursor *Cursor, limit int, getID func(T) string, getTimestamp func(T) time.Time) PageResult[T] {
	if limit <= 0 {
		limit = DefaultLimit
	}

	sorted := make([]T, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return before(getTimestamp(sorted[i]), getID(sorted[i]), getTimestamp(sorted[j]), getID(sorted[j]))
	})

	start := 0
	if cursor != nil {
		start = sort.Search(len(sorted), func(i int) bool {
			return before(cursor.Timestamp, cursor.LastID, getTimestamp(sorted[i]), getID(sorted[i]))
		})
	}

	end := start + limit
	if end > len(sorted) {
		end = len(sorted)
	}

	page := PageResult[T]{Items: sorted[start:end], HasMore: end < len(sorted)}
	if page.HasMore {
		last := page.Items[len(page.Items)-1]
		page.Cursor = EncodeCursor(getID(last), getTimestamp(last))
	}
	return page
}

func before(ta time.Time, ida string, tb time.Time, idb string) bool {
	if !ta.Equal(tb) {
		return ta.Before(tb)
	}
	return ida < idb
}
