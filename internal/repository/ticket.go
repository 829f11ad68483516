package repository

import (
	"context"

	"github.com/cloo-solutions/hrassist/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TicketRepository keeps the ticket collection in Postgres. Save only
// inserts tickets it has not seen, which keeps the table append-only.
type TicketRepository struct {
	pool *pgxpool.Pool
}

func NewTicketRepository(pool *pgxpool.Pool) *TicketRepository {
	return &TicketRepository{pool: pool}
}

// Load returns every ticket, oldest first.
func (r *TicketRepository) Load(ctx context.Context) ([]domain.Ticket, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT ticket_id, issue, user_id, status, created_at, retrieval_method, confidence_score
		 FROM tickets ORDER BY created_at, ticket_id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := []domain.Ticket{}
	for rows.Next() {
		var t domain.Ticket
		if err := rows.Scan(
			&t.TicketID,
			&t.Issue,
			&t.UserID,
			&t.Status,
			&t.CreatedAt,
			&t.RetrievalMethod,
			&t.ConfidenceScore,
		); err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// Save writes the collection. Existing rows are left untouched.
func (r *TicketRepository) Save(ctx context.Context, tickets []domain.Ticket) error {
	batch := &pgx.Batch{}
	for _, t := range tickets {
		batch.Queue(
			`INSERT INTO tickets (ticket_id, issue, user_id, status, created_at, retrieval_method, confidence_score)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (ticket_id) DO NOTHING`,
			t.TicketID, t.Issue, t.UserID, string(t.Status), t.CreatedAt, t.RetrievalMethod, t.ConfidenceScore,
		)
	}
	if batch.Len() == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
