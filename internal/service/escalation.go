package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/cloo-solutions/hrassist/internal/domain"
	"github.com/google/uuid"
)

const (
	ticketIDPrefix = "HR"
	// maxIDAttempts bounds regeneration when a new id collides with a stored one.
	maxIDAttempts = 5
)

// TicketStore reads and writes the whole ticket collection.
type TicketStore interface {
	Load(ctx context.Context) ([]domain.Ticket, error)
	Save(ctx context.Context, tickets []domain.Ticket) error
}

// TicketInput is a request to escalate to a human.
type TicketInput struct {
	Issue           string
	UserID          string
	RetrievalMethod string
	ConfidenceScore float64
}

// EscalationManager appends tickets to a TicketStore. The load, append, save
// cycle runs under one lock so concurrent tickets are never lost.
type EscalationManager struct {
	store TicketStore
	now   func() time.Time
	newID func(time.Time) string

	mu sync.Mutex
}

func NewEscalationManager(store TicketStore) *EscalationManager {
	return &EscalationManager{
		store: store,
		now:   time.Now,
		newID: NewTicketID,
	}
}

// NewTicketID builds HR-<yyyymmddHHMMSS>-<microseconds>-<random hex> in UTC.
func NewTicketID(t time.Time) string {
	t = t.UTC()
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:12]
	return fmt.Sprintf("%s-%s-%06d-%s", ticketIDPrefix, t.Format("20060102150405"), t.Nanosecond()/1000, suffix)
}

// CreateTicket records a new open ticket. Store failures are returned as
// PersistenceError.
func (m *EscalationManager) CreateTicket(ctx context.Context, input TicketInput) (*domain.Ticket, error) {
	issue := strings.TrimSpace(input.Issue)
	if issue == "" {
		return nil, domain.ErrEmptyIssue
	}
	if input.ConfidenceScore < 0 || input.ConfidenceScore > 1 {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "confidence_score must be between 0 and 1")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	tickets, err := m.store.Load(ctx)
	if err != nil {
		return nil, domain.PersistenceError("failed to load tickets", err)
	}

	existing := make(map[string]struct{}, len(tickets))
	for _, t := range tickets {
		existing[t.TicketID] = struct{}{}
	}

	createdAt := m.now().UTC()
	id := ""
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		candidate := m.newID(createdAt)
		if _, taken := existing[candidate]; !taken {
			id = candidate
			break
		}
	}
	if id == "" {
		return nil, domain.PersistenceError("failed to allocate a unique ticket id", nil)
	}

	ticket := domain.NewTicket(id, issue, strings.TrimSpace(input.UserID), input.RetrievalMethod, input.ConfidenceScore, createdAt)
	if err := domain.ValidateTicket(ticket); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid ticket", err)
	}

	if err := m.store.Save(ctx, append(tickets, *ticket)); err != nil {
		return nil, domain.PersistenceError("failed to save tickets", err)
	}

	log.Printf("escalation: created ticket %s for user %q", ticket.TicketID, ticket.UserID)
	return ticket, nil
}

// ListTickets returns the stored collection, oldest first.
func (m *EscalationManager) ListTickets(ctx context.Context) ([]domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tickets, err := m.store.Load(ctx)
	if err != nil {
		return nil, domain.PersistenceError("failed to load tickets", err)
	}
	return tickets, nil
}

// GetTicket returns one ticket by id.
func (m *EscalationManager) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	tickets, err := m.ListTickets(ctx)
	if err != nil {
		return nil, err
	}
	for i := range tickets {
		if tickets[i].TicketID == id {
			return &tickets[i], nil
		}
	}
	return nil, domain.ErrTicketNotFound
}
