package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/habbes/sandstorm/internal/sandbox"
	"github.com/habbes/sandstorm/internal/types"
)

// SandboxHandler groups the sandbox CRUD handlers.
type SandboxHandler struct {
	registry *sandbox.Registry
	logger   *zap.Logger
}

// NewSandboxHandler creates a SandboxHandler.
func NewSandboxHandler(registry *sandbox.Registry, logger *zap.Logger) *SandboxHandler {
	return &SandboxHandler{
		registry: registry,
		logger:   logger.Named("sandbox_handler"),
	}
}

// -----------------------------------------------------------------------------
// Request / response types
// -----------------------------------------------------------------------------

type createSandboxRequest struct {
	Configuration *types.SandboxConfiguration `json:"configuration,omitempty"`
}

type createSandboxResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type sandboxResponse struct {
	ID            string                     `json:"id"`
	Status        string                     `json:"status"`
	PublicIP      string                     `json:"publicIp,omitempty"`
	Configuration types.SandboxConfiguration `json:"configuration"`
	CreatedAt     string                     `json:"createdAt"`
}

type sandboxSummary struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	PublicIP  string `json:"publicIp,omitempty"`
	CreatedAt string `json:"createdAt"`
}

type listSandboxesResponse struct {
	Sandboxes []sandboxSummary `json:"sandboxes"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// -----------------------------------------------------------------------------
// Handlers
// -----------------------------------------------------------------------------

// Create handles POST /api/sandboxes. An empty body (or one without a
// configuration) provisions from the default image, which is built lazily on
// the first such request.
func (h *SandboxHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSandboxRequest
	if r.ContentLength > 0 {
		if !decodeJSON(w, r, &req) {
			return
		}
	}

	info, err := h.registry.Create(r.Context(), req.Configuration)
	if err != nil {
		h.logger.Error("sandbox create failed", zap.Error(err))
		if errors.Is(err, sandbox.ErrProvisioningFailed) {
			ErrInternal(w, err.Error(), "provisioning_failed")
			return
		}
		ErrInternal(w, err.Error(), "internal_error")
		return
	}

	JSON(w, http.StatusCreated, createSandboxResponse{
		ID:     info.ID,
		Status: string(info.Status),
	})
}

// Get handles GET /api/sandboxes/{id}.
func (h *SandboxHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	info, ok := h.registry.Get(id)
	if !ok {
		ErrNotFound(w, "unknown sandbox: "+id)
		return
	}

	// Credentials never leave the orchestrator.
	cfg := info.Config
	cfg.AdminPassword = ""

	JSON(w, http.StatusOK, sandboxResponse{
		ID:            info.ID,
		Status:        string(info.Status),
		PublicIP:      info.PublicIP,
		Configuration: cfg,
		CreatedAt:     info.CreatedAt.UTC().Format(time.RFC3339),
	})
}

// List handles GET /api/sandboxes.
func (h *SandboxHandler) List(w http.ResponseWriter, r *http.Request) {
	infos := h.registry.List()

	resp := listSandboxesResponse{Sandboxes: make([]sandboxSummary, len(infos))}
	for i, info := range infos {
		resp.Sandboxes[i] = sandboxSummary{
			ID:        info.ID,
			Status:    string(info.Status),
			PublicIP:  info.PublicIP,
			CreatedAt: info.CreatedAt.UTC().Format(time.RFC3339),
		}
	}

	JSON(w, http.StatusOK, resp)
}

// Delete handles DELETE /api/sandboxes/{id}. The response acknowledges
// acceptance, not completion: teardown continues in the background.
func (h *SandboxHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if !h.registry.Delete(id) {
		ErrNotFound(w, "unknown sandbox: "+id)
		return
	}

	JSON(w, http.StatusOK, messageResponse{Message: "sandbox deletion accepted"})
}
