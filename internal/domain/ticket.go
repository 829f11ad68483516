package domain

import (
	"fmt"
	"strings"
	"time"
)

// TicketStatus represents the lifecycle state of an escalation ticket
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "Open"
	TicketStatusInProgress TicketStatus = "InProgress"
	TicketStatusResolved   TicketStatus = "Resolved"
)

// Ticket is a human-support escalation record. Tickets are append-only here;
// status transitions belong to whoever works the queue.
type Ticket struct {
	TicketID        string       `json:"ticket_id"`
	Issue           string       `json:"issue"`
	UserID          string       `json:"user_id"`
	Status          TicketStatus `json:"status"`
	CreatedAt       time.Time    `json:"created_at"`
	RetrievalMethod string       `json:"retrieval_method"`
	ConfidenceScore float64      `json:"confidence_score"`
}

// NewTicket creates an open Ticket
func NewTicket(id, issue, userID, retrievalMethod string, confidence float64, createdAt time.Time) *Ticket {
	return &Ticket{
		TicketID:        id,
		Issue:           issue,
		UserID:          userID,
		Status:          TicketStatusOpen,
		CreatedAt:       createdAt,
		RetrievalMethod: retrievalMethod,
		ConfidenceScore: confidence,
	}
}

// ValidateTicket validates a Ticket instance
func ValidateTicket(t *Ticket) error {
	if t == nil {
		return fmt.Errorf("%w: ticket is nil", ErrMissingRequiredField)
	}

	if t.TicketID == "" {
		return fmt.Errorf("%w: ticket_id", ErrMissingRequiredField)
	}

	if strings.TrimSpace(t.Issue) == "" {
		return fmt.Errorf("%w: issue", ErrMissingRequiredField)
	}

	if !IsValidTicketStatus(t.Status) {
		return fmt.Errorf("%w: %q", ErrInvalidTicketStatus, t.Status)
	}

	if t.ConfidenceScore < 0 || t.ConfidenceScore > 1 {
		return fmt.Errorf("ticket ConfidenceScore out of range: %v", t.ConfidenceScore)
	}

	return nil
}

// IsValidTicketStatus checks if a TicketStatus is valid
func IsValidTicketStatus(s TicketStatus) bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved:
		return true
	}
	return false
}
