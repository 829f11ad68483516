package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/cloo-solutions/hrassist/internal/domain"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS index_meta (
	identity   TEXT NOT NULL,
	model      TEXT NOT NULL,
	dimensions INTEGER NOT NULL,
	entries    INTEGER NOT NULL,
	built_at   TEXT NOT NULL,
	PRIMARY KEY (identity, model)
);
CREATE TABLE IF NOT EXISTS index_vectors (
	identity  TEXT NOT NULL,
	model     TEXT NOT NULL,
	row_id    INTEGER NOT NULL,
	embedding BLOB NOT NULL,
	PRIMARY KEY (identity, model, row_id)
);`

// SQLiteStore persists index vectors in a local SQLite file. Only the most
// recent corpus identity is kept per model.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the store at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create index dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index db: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to configure index db: %w", err)
		}
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load returns the vectors stored for identity and model.
func (s *SQLiteStore) Load(ctx context.Context, identity, model string) (map[int][]float32, error) {
	var dims, entries int
	err := s.db.QueryRowContext(ctx,
		`SELECT dimensions, entries FROM index_meta WHERE identity = ? AND model = ?`,
		identity, model,
	).Scan(&dims, &entries)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrIndexNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT row_id, embedding FROM index_vectors WHERE identity = ? AND model = ?`,
		identity, model,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int][]float32, entries)
	for rows.Next() {
		var (
			rowID int
			blob  []byte
		)
		if err := rows.Scan(&rowID, &blob); err != nil {
			return nil, err
		}
		vec := blobToFloats(blob)
		if len(vec) != dims {
			return nil, fmt.Errorf("row %d: stored vector has %d dimensions, expected %d", rowID, len(vec), dims)
		}
		out[rowID] = vec
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

// Save replaces whatever is stored for model with the given vectors.
func (s *SQLiteStore) Save(ctx context.Context, identity, model string, vectors map[int][]float32) error {
	dims := 0
	for _, v := range vectors {
		dims = len(v)
		break
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM index_vectors WHERE model = ?`, model); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM index_meta WHERE model = ?`, model); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO index_vectors (identity, model, row_id, embedding) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for rowID, v := range vectors {
		if len(v) != dims {
			return fmt.Errorf("row %d: vector has %d dimensions, expected %d", rowID, len(v), dims)
		}
		if _, err := stmt.ExecContext(ctx, identity, model, rowID, floatsToBlob(v)); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO index_meta (identity, model, dimensions, entries, built_at) VALUES (?, ?, ?, ?, ?)`,
		identity, model, dims, len(vectors), time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return err
	}

	return tx.Commit()
}

func floatsToBlob(vec []float32) []byte {
	b := make([]byte, len(vec)*4)
	for i, f := range vec {
		bits := math.Float32bits(f)
		b[i*4+0] = byte(bits)
		b[i*4+1] = byte(bits >> 8)
		b[i*4+2] = byte(bits >> 16)
		b[i*4+3] = byte(bits >> 24)
	}
	return b
}

func blobToFloats(b []byte) []float32 {
	if len(b)%4 != 0 {
		return nil
	}
	out := make([]float32, len(b)/4)
	for i := 0; i < len(out); i++ {
		bits := uint32(b[i*4+0]) | uint32(b[i*4+1])<<8 | uint32(b[i*4+2])<<16 | uint32(b[i*4+3])<<24
		out[i] = math.Float32frombits(bits)
	}
	return out
}
