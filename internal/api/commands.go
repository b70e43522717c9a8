package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/habbes/sandstorm/internal/dispatch"
	"github.com/habbes/sandstorm/internal/process"
	"github.com/habbes/sandstorm/internal/sandbox"
)

// CommandHandler groups the command lifecycle handlers: submit, status,
// logs, terminate. Results are polled — the submit endpoint returns as soon
// as the command is on the agent's stream, and completion is observed via
// the status endpoint (or the events hub).
type CommandHandler struct {
	sandboxes *sandbox.Registry
	service   *process.Service
	logger    *zap.Logger
}

// NewCommandHandler creates a CommandHandler.
func NewCommandHandler(sandboxes *sandbox.Registry, service *process.Service, logger *zap.Logger) *CommandHandler {
	return &CommandHandler{
		sandboxes: sandboxes,
		service:   service,
		logger:    logger.Named("command_handler"),
	}
}

// -----------------------------------------------------------------------------
// Request / response types
// -----------------------------------------------------------------------------

type submitCommandRequest struct {
	SandboxID string `json:"sandboxId"`
	Command   string `json:"command"`
}

type submitCommandResponse struct {
	ProcessID string `json:"processId"`
	Command   string `json:"command"`
	IsRunning bool   `json:"isRunning"`
}

type commandResultResponse struct {
	ExitCode       int32  `json:"exitCode"`
	StandardOutput string `json:"standardOutput"`
	StandardError  string `json:"standardError"`
	Duration       string `json:"duration"`
}

type commandStatusResponse struct {
	ProcessID string                 `json:"processId"`
	IsRunning bool                   `json:"isRunning"`
	Result    *commandResultResponse `json:"result,omitempty"`
}

type commandLogsResponse struct {
	LogLines []string `json:"logLines"`
}

// -----------------------------------------------------------------------------
// Handlers
// -----------------------------------------------------------------------------

// Submit handles POST /api/sandboxes/{id}/commands. The body's sandboxId is
// optional but must match the URL when present.
func (h *CommandHandler) Submit(w http.ResponseWriter, r *http.Request) {
	sandboxID := chi.URLParam(r, "id")

	var req submitCommandRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.SandboxID != "" && req.SandboxID != sandboxID {
		ErrBadRequest(w, fmt.Sprintf("sandbox id mismatch: body %q vs url %q", req.SandboxID, sandboxID))
		return
	}
	if req.Command == "" {
		ErrBadRequest(w, "command is required")
		return
	}

	if _, ok := h.sandboxes.Get(sandboxID); !ok {
		ErrNotFound(w, "unknown sandbox: "+sandboxID)
		return
	}

	info, err := h.service.SubmitCommand(sandboxID, req.Command)
	if err != nil {
		h.writeDispatchError(w, sandboxID, err)
		return
	}

	JSON(w, http.StatusOK, submitCommandResponse{
		ProcessID: info.ID,
		Command:   info.Command,
		IsRunning: info.Running,
	})
}

// Status handles GET /api/sandboxes/{id}/commands/{pid}/status.
func (h *CommandHandler) Status(w http.ResponseWriter, r *http.Request) {
	sandboxID := chi.URLParam(r, "id")
	processID := chi.URLParam(r, "pid")

	info, ok := h.service.GetStatus(sandboxID, processID)
	if !ok {
		ErrNotFound(w, "unknown process: "+processID)
		return
	}

	resp := commandStatusResponse{
		ProcessID: info.ID,
		IsRunning: info.Running,
	}
	if info.Result != nil {
		resp.Result = &commandResultResponse{
			ExitCode:       info.Result.ExitCode,
			StandardOutput: info.Result.Stdout,
			StandardError:  info.Result.Stderr,
			Duration:       formatDuration(info.Result.Duration),
		}
	}

	JSON(w, http.StatusOK, resp)
}

// Logs handles GET /api/sandboxes/{id}/commands/{pid}/logs. Returns all
// lines accumulated so far, in arrival order.
func (h *CommandHandler) Logs(w http.ResponseWriter, r *http.Request) {
	sandboxID := chi.URLParam(r, "id")
	processID := chi.URLParam(r, "pid")

	lines, ok := h.service.GetLogs(sandboxID, processID)
	if !ok {
		ErrNotFound(w, "unknown process: "+processID)
		return
	}
	if lines == nil {
		lines = []string{}
	}

	JSON(w, http.StatusOK, commandLogsResponse{LogLines: lines})
}

// Terminate handles DELETE /api/sandboxes/{id}/commands/{pid}.
func (h *CommandHandler) Terminate(w http.ResponseWriter, r *http.Request) {
	sandboxID := chi.URLParam(r, "id")
	processID := chi.URLParam(r, "pid")

	ok, err := h.service.Terminate(sandboxID, processID)
	if err != nil {
		h.logger.Error("terminate failed",
			zap.String("process_id", processID),
			zap.Error(err),
		)
		ErrInternal(w, err.Error(), "internal_error")
		return
	}
	if !ok {
		ErrNotFound(w, "unknown process: "+processID)
		return
	}

	JSON(w, http.StatusOK, messageResponse{Message: "termination accepted"})
}

// writeDispatchError maps dispatcher failures onto the REST error taxonomy.
// The failure kind is kept in the diagnostic detail so callers can tell a
// retryable condition (no ready agent yet) from a broken one.
func (h *CommandHandler) writeDispatchError(w http.ResponseWriter, sandboxID string, err error) {
	h.logger.Warn("command dispatch failed",
		zap.String("sandbox_id", sandboxID),
		zap.Error(err),
	)

	switch {
	case errors.Is(err, dispatch.ErrNoReadyAgent):
		ErrInternal(w, "NoReadyAgent: no ready agent for sandbox "+sandboxID, "no_ready_agent")
	case errors.Is(err, dispatch.ErrAgentDisconnected):
		ErrInternal(w, "AgentDisconnected: agent stream lost for sandbox "+sandboxID, "agent_disconnected")
	case errors.Is(err, dispatch.ErrAgentWriteFailed):
		ErrInternal(w, "AgentWriteFailed: could not deliver command to agent", "agent_write_failed")
	case errors.Is(err, dispatch.ErrShutdown):
		ErrInternal(w, "Shutdown: orchestrator is shutting down", "shutdown")
	default:
		ErrInternal(w, err.Error(), "internal_error")
	}
}

// formatDuration renders a duration as HH:MM:SS with a 7-digit fractional
// part (100 ns ticks), e.g. 12ms → "00:00:00.0120000". This is the format
// the status endpoint has always reported and existing clients parse.
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	ticks := (d % time.Second) / (100 * time.Nanosecond)
	return fmt.Sprintf("%02d:%02d:%02d.%07d", h, m, s, ticks)
}
