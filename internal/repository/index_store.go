// Package repository holds the Postgres-backed stores.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloo-solutions/hrassist/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// IndexRepository persists index vectors in pgvector columns.
type IndexRepository struct {
	pool *pgxpool.Pool
}

func NewIndexRepository(pool *pgxpool.Pool) *IndexRepository {
	return &IndexRepository{pool: pool}
}

// Load returns the vectors stored for identity and model.
func (r *IndexRepository) Load(ctx context.Context, identity, model string) (map[int][]float32, error) {
	var dims, entries int
	err := r.pool.QueryRow(ctx,
		`SELECT dimensions, entries FROM index_meta WHERE identity = $1 AND model = $2`,
		identity, model,
	).Scan(&dims, &entries)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrIndexNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT row_id, embedding FROM index_vectors WHERE identity = $1 AND model = $2`,
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
			vec   pgvector.Vector
		)
		if err := rows.Scan(&rowID, &vec); err != nil {
			return nil, err
		}
		if len(vec.Slice()) != dims {
			return nil, fmt.Errorf("row %d: stored vector has %d dimensions, expected %d", rowID, len(vec.Slice()), dims)
		}
		out[rowID] = vec.Slice()
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

// Save replaces whatever is stored for model with the given vectors.
func (r *IndexRepository) Save(ctx context.Context, identity, model string, vectors map[int][]float32) error {
	dims := 0
	for _, v := range vectors {
		dims = len(v)
		break
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM index_vectors WHERE model = $1`, model); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM index_meta WHERE model = $1`, model); err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for rowID, v := range vectors {
		if len(v) != dims {
			return fmt.Errorf("row %d: vector has %d dimensions, expected %d", rowID, len(v), dims)
		}
		batch.Queue(
			`INSERT INTO index_vectors (identity, model, row_id, embedding) VALUES ($1, $2, $3, $4)`,
			identity, model, rowID, pgvector.NewVector(v),
		)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO index_meta (identity, model, dimensions, entries) VALUES ($1, $2, $3, $4)`,
		identity, model, dims, len(vectors),
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
