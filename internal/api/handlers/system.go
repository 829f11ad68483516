package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cloo-solutions/hrassist/internal/api"
	"github.com/cloo-solutions/hrassist/internal/directory"
	"github.com/cloo-solutions/hrassist/internal/service"
)

// AppName is reported by the health endpoint.
const AppName = "hrassist"

type SystemService interface {
	Ingest(ctx context.Context, force bool) (*service.IngestReport, error)
	Health(ctx context.Context) service.Health
}

type UserValidator interface {
	Validate(userID string) directory.Validation
}

type SystemHandler struct {
	svc     SystemService
	users   UserValidator
	version string
}

func NewSystemHandler(svc SystemService, users UserValidator, version string) *SystemHandler {
	return &SystemHandler{svc: svc, users: users, version: version}
}

type HealthResponse struct {
	App     string `json:"app"`
	Version string `json:"version"`
	service.Health
}

type IngestRequest struct {
	ForceRebuild bool `json:"force_rebuild"`
}

type IngestResponse struct {
	Status  string                `json:"status"`
	Message string                `json:"message"`
	Report  *service.IngestReport `json:"report"`
}

type ValidateUserRequest struct {
	UserID string `json:"user_id"`
}

func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, HealthResponse{
		App:     AppName,
		Version: h.version,
		Health:  h.svc.Health(r.Context()),
	})
}

func (h *SystemHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := decodeOptional(r, &req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	report, err := h.svc.Ingest(r.Context(), req.ForceRebuild)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	mode := "vector search"
	if !report.VectorReady {
		mode = "keyword search"
	}
	api.Success(w, http.StatusOK, IngestResponse{
		Status:  "success",
		Message: fmt.Sprintf("Knowledge base ready: %d entries indexed for %s.", report.Indexed, mode),
		Report:  report,
	})
}

func (h *SystemHandler) ValidateUser(w http.ResponseWriter, r *http.Request) {
	var req ValidateUserRequest
	if err := decodeOptional(r, &req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	api.Success(w, http.StatusOK, h.users.Validate(req.UserID))
}
