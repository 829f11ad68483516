package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/cloo-solutions/hrassist/internal/api"
	"github.com/cloo-solutions/hrassist/internal/api/middleware"
	"github.com/cloo-solutions/hrassist/internal/domain"
	"github.com/cloo-solutions/hrassist/internal/service"
)

// maxTopK caps the top_k a client may request.
const maxTopK = 50

type ChatService interface {
	Resolve(ctx context.Context, input service.ResolveInput) domain.ResolvedAnswer
	ContactHR() domain.ResolvedAnswer
}

type ChatHandler struct {
	svc ChatService
}

func NewChatHandler(svc ChatService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

type ChatRequest struct {
	Question string `json:"question"`
	UserID   string `json:"user_id"`
	TopK     int    `json:"top_k"`
}

// Chat answers one question. Pipeline failures still produce an answer, so
// only malformed requests are errors.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.TopK < 0 || req.TopK > maxTopK {
		api.Error(w, http.StatusBadRequest, "top_k must be between 0 and 50")
		return
	}

	answer := h.svc.Resolve(r.Context(), service.ResolveInput{
		Question: req.Question,
		UserID:   requestUserID(r, req.UserID),
		TopK:     req.TopK,
	})

	api.Success(w, http.StatusOK, answer)
}

// ContactHR returns the assistant introduction with escalation offered.
func (h *ChatHandler) ContactHR(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, h.svc.ContactHR())
}

// requestUserID prefers the id in the body over the X-User-ID header.
func requestUserID(r *http.Request, bodyUserID string) string {
	if id := strings.TrimSpace(bodyUserID); id != "" {
		return id
	}
	return middleware.GetUserID(r.Context())
}

// decodeOptional decodes a JSON body that may be empty.
func decodeOptional(r *http.Request, v interface{}) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
