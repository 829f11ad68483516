package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cloo-solutions/hrassist/internal/api"
	"github.com/cloo-solutions/hrassist/internal/domain"
	"github.com/cloo-solutions/hrassist/internal/pagination"
	"github.com/cloo-solutions/hrassist/internal/service"
	"github.com/go-chi/chi/v5"
)

const anonymousUser = "anonymous"

// PersistenceFailureMessage is shown when a ticket could not be stored.
const PersistenceFailureMessage = "We could not save your ticket right now. Please try again in a few minutes or contact HR directly."

type TicketService interface {
	CreateTicket(ctx context.Context, input service.TicketInput) (*domain.Ticket, error)
	ListTickets(ctx context.Context) ([]domain.Ticket, error)
	GetTicket(ctx context.Context, id string) (*domain.Ticket, error)
}

type TicketHandler struct {
	svc TicketService
}

func NewTicketHandler(svc TicketService) *TicketHandler {
	return &TicketHandler{svc: svc}
}

type CreateTicketRequest struct {
	Issue           string  `json:"issue"`
	UserID          string  `json:"user_id"`
	RetrievalMethod string  `json:"retrieval_method"`
	ConfidenceScore float64 `json:"confidence_score"`
}

type TicketResponse struct {
	Ticket  *domain.Ticket `json:"ticket"`
	Message string         `json:"message"`
}

// TicketListResponse lists tickets oldest first. Cursor and HasMore are set
// only for paged requests.
type TicketListResponse struct {
	Tickets []domain.Ticket `json:"tickets"`
	Count   int             `json:"count"`
	Cursor  string          `json:"cursor,omitempty"`
	HasMore bool            `json:"has_more"`
}

func (h *TicketHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID := requestUserID(r, req.UserID)
	if userID == "" {
		userID = anonymousUser
	}

	ticket, err := h.svc.CreateTicket(r.Context(), service.TicketInput{
		Issue:           req.Issue,
		UserID:          userID,
		RetrievalMethod: req.RetrievalMethod,
		ConfidenceScore: req.ConfidenceScore,
	})
	if err != nil {
		if errors.Is(err, domain.ErrPersistence) {
			api.Error(w, http.StatusServiceUnavailable, PersistenceFailureMessage)
			return
		}
		api.HandleError(w, err)
		return
	}

	message := fmt.Sprintf("HR ticket created successfully!\n\nTicket ID: %s\nStatus: %s\n\nYou will receive a response within 1-2 hours.",
		ticket.TicketID, ticket.Status)
	api.Success(w, http.StatusCreated, TicketResponse{Ticket: ticket, Message: message})
}

func (h *TicketHandler) List(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.svc.ListTickets(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	query := r.URL.Query()
	if !query.Has("limit") && !query.Has("cursor") {
		api.Success(w, http.StatusOK, TicketListResponse{Tickets: tickets, Count: len(tickets)})
		return
	}

	limit, err := pagination.ParseLimit(query.Get("limit"))
	if err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	cursor, err := pagination.DecodeCursor(query.Get("cursor"))
	if err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	page := pagination.Paginate(tickets, cursor, limit,
		func(t domain.Ticket) string { return t.TicketID },
		func(t domain.Ticket) time.Time { return t.CreatedAt },
	)
	api.Success(w, http.StatusOK, TicketListResponse{
		Tickets: page.Items,
		Count:   len(page.Items),
		Cursor:  page.Cursor,
		HasMore: page.HasMore,
	})
}

func (h *TicketHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	ticket, err := h.svc.GetTicket(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, ticket)
}
