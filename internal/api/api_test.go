package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/habbes/sandstorm/internal/agentmanager"
	"github.com/habbes/sandstorm/internal/dispatch"
	"github.com/habbes/sandstorm/internal/process"
	"github.com/habbes/sandstorm/internal/sandbox"
	"github.com/habbes/sandstorm/internal/types"
	proto "github.com/habbes/sandstorm/proto"
)

// fakeProvider provisions instantly and remembers nothing it can't answer.
type fakeProvider struct{}

func (fakeProvider) CreateSandbox(_ context.Context, sandboxID string, _ types.SandboxConfiguration, _ string) (sandbox.CreateResult, error) {
	return sandbox.CreateResult{VMHandle: "vm-" + sandboxID, PublicIP: "10.0.0.4"}, nil
}
func (fakeProvider) BuildDefaultImage(context.Context, string) (string, error) {
	return "img-default", nil
}
func (fakeProvider) DeleteSandbox(context.Context, string) error { return nil }

type fakeStream struct {
	mu   sync.Mutex
	sent []*proto.CommandRequest
}

func (f *fakeStream) Send(req *proto.CommandRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, req)
	return nil
}

func (f *fakeStream) last() *proto.CommandRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return nil
	}
	return f.sent[len(f.sent)-1]
}

// harness is a fully wired orchestrator core behind an httptest server,
// with direct handles on the registries so tests can play the agent side.
type harness struct {
	server     *httptest.Server
	agents     *agentmanager.Manager
	dispatcher *dispatch.Dispatcher
	processes  *process.Registry
	sandboxes  *sandbox.Registry
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := zap.NewNop()

	agents := agentmanager.New(agentmanager.Config{Clock: clockwork.NewFakeClock()}, logger)
	dispatcher := dispatch.New(agents, time.Minute, logger)
	processes := process.NewRegistry(logger)
	service := process.NewService(processes, dispatcher, agents, nil, logger)
	sandboxes := sandbox.New(fakeProvider{}, "orch.example:5001", agents, dispatcher, processes, nil, logger)

	router := NewRouter(RouterConfig{
		Sandboxes: sandboxes,
		Processes: service,
		Logger:    logger,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &harness{
		server:     srv,
		agents:     agents,
		dispatcher: dispatcher,
		processes:  processes,
		sandboxes:  sandboxes,
	}
}

// connectAgent registers an agent for the sandbox and attaches a fake
// command stream, making the sandbox dispatchable.
func (h *harness) connectAgent(t *testing.T, sandboxID string) *fakeStream {
	t.Helper()

	agentID := "agent-" + sandboxID
	h.agents.Register(agentID, sandboxID, "vm-1", "1.0.0")

	stream := &fakeStream{}
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = h.agents.AttachDownstream(ctx, agentID, stream) }()
	t.Cleanup(cancel)

	deadline := time.Now().Add(2 * time.Second)
	for h.agents.FindReadyAgent(sandboxID) == "" {
		if time.Now().After(deadline) {
			t.Fatal("agent stream never attached")
		}
		time.Sleep(time.Millisecond)
	}
	return stream
}

func (h *harness) do(t *testing.T, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, h.server.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("%s %s: decode response: %v", method, path, err)
	}
	return resp, decoded
}

func (h *harness) createSandbox(t *testing.T) string {
	t.Helper()
	resp, body := h.do(t, http.MethodPost, "/api/sandboxes", nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create sandbox: status %d", resp.StatusCode)
	}
	id, _ := body["id"].(string)
	if id == "" {
		t.Fatalf("create sandbox: no id in %v", body)
	}
	return id
}

func TestCreateSandbox(t *testing.T) {
	h := newHarness(t)

	resp, body := h.do(t, http.MethodPost, "/api/sandboxes", nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	if body["status"] != string(types.SandboxStatusCreating) {
		t.Errorf("status field = %v, want Creating", body["status"])
	}
}

func TestGetSandbox(t *testing.T) {
	h := newHarness(t)
	id := h.createSandbox(t)

	resp, body := h.do(t, http.MethodGet, "/api/sandboxes/"+id, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body["id"] != id {
		t.Errorf("id = %v", body["id"])
	}
	if _, ok := body["configuration"]; !ok {
		t.Error("configuration missing from sandbox response")
	}

	resp, _ = h.do(t, http.MethodGet, "/api/sandboxes/ghost", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown sandbox status = %d, want 404", resp.StatusCode)
	}
}

func TestListSandboxes(t *testing.T) {
	h := newHarness(t)
	h.createSandbox(t)
	h.createSandbox(t)

	resp, body := h.do(t, http.MethodGet, "/api/sandboxes", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	list, ok := body["sandboxes"].([]any)
	if !ok || len(list) != 2 {
		t.Errorf("sandboxes = %v, want 2 entries", body["sandboxes"])
	}
}

func TestSubmitCommandNoAgent(t *testing.T) {
	h := newHarness(t)
	id := h.createSandbox(t)

	resp, body := h.do(t, http.MethodPost, "/api/sandboxes/"+id+"/commands",
		map[string]string{"sandboxId": id, "command": "echo hi"})
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
	raw, _ := json.Marshal(body)
	if !strings.Contains(string(raw), "NoReadyAgent") {
		t.Errorf("expected NoReadyAgent in detail, got %s", raw)
	}
}

func TestSubmitCommandIDMismatch(t *testing.T) {
	h := newHarness(t)
	id := h.createSandbox(t)

	resp, _ := h.do(t, http.MethodPost, "/api/sandboxes/"+id+"/commands",
		map[string]string{"sandboxId": "other", "command": "echo hi"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestSubmitCommandUnknownSandbox(t *testing.T) {
	h := newHarness(t)

	resp, _ := h.do(t, http.MethodPost, "/api/sandboxes/ghost/commands",
		map[string]string{"command": "echo hi"})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestCommandHappyPath(t *testing.T) {
	h := newHarness(t)
	id := h.createSandbox(t)
	stream := h.connectAgent(t, id)

	// Submit returns immediately with a running process.
	resp, body := h.do(t, http.MethodPost, "/api/sandboxes/"+id+"/commands",
		map[string]string{"sandboxId": id, "command": "echo hi"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("submit status = %d", resp.StatusCode)
	}
	pid, _ := body["processId"].(string)
	if pid == "" {
		t.Fatalf("no processId in %v", body)
	}
	if body["isRunning"] != true || body["command"] != "echo hi" {
		t.Errorf("unexpected submit response: %v", body)
	}

	// The agent saw the request under the same id.
	req := stream.last()
	if req == nil || req.CommandId != pid {
		t.Fatalf("agent stream saw %+v, want %s", req, pid)
	}

	// Status while running: no result yet.
	resp, body = h.do(t, http.MethodGet, fmt.Sprintf("/api/sandboxes/%s/commands/%s/status", id, pid), nil)
	if resp.StatusCode != http.StatusOK || body["isRunning"] != true {
		t.Fatalf("running status = %d %v", resp.StatusCode, body)
	}
	if _, hasResult := body["result"]; hasResult {
		t.Error("running process should not expose a result")
	}

	// Agent reports the result.
	h.dispatcher.Complete(pid, &types.CommandResult{
		ExitCode: 0, Stdout: "hi\n", Duration: 12 * time.Millisecond, Success: true,
	})

	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, body = h.do(t, http.MethodGet, fmt.Sprintf("/api/sandboxes/%s/commands/%s/status", id, pid), nil)
		if body["isRunning"] == false {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("process never completed")
		}
		time.Sleep(time.Millisecond)
	}

	result, ok := body["result"].(map[string]any)
	if !ok {
		t.Fatalf("no result in %v", body)
	}
	if result["exitCode"] != float64(0) || result["standardOutput"] != "hi\n" {
		t.Errorf("unexpected result: %v", result)
	}
	if result["duration"] != "00:00:00.0120000" {
		t.Errorf("duration = %v, want 00:00:00.0120000", result["duration"])
	}
}

func TestCommandLogs(t *testing.T) {
	h := newHarness(t)
	id := h.createSandbox(t)
	h.connectAgent(t, id)

	_, body := h.do(t, http.MethodPost, "/api/sandboxes/"+id+"/commands",
		map[string]string{"command": "echo hi"})
	pid := body["processId"].(string)

	h.processes.AppendLog(id, pid, "hello from the sandbox")

	resp, body := h.do(t, http.MethodGet, fmt.Sprintf("/api/sandboxes/%s/commands/%s/logs", id, pid), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logs status = %d", resp.StatusCode)
	}
	lines, _ := body["logLines"].([]any)
	if len(lines) != 1 || lines[0] != "hello from the sandbox" {
		t.Errorf("logLines = %v", body["logLines"])
	}

	resp, _ = h.do(t, http.MethodGet, fmt.Sprintf("/api/sandboxes/%s/commands/ghost/logs", id), nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown process logs status = %d, want 404", resp.StatusCode)
	}
}

func TestTerminateCommand(t *testing.T) {
	h := newHarness(t)
	id := h.createSandbox(t)
	h.connectAgent(t, id)

	_, body := h.do(t, http.MethodPost, "/api/sandboxes/"+id+"/commands",
		map[string]string{"command": "sleep forever"})
	pid := body["processId"].(string)

	resp, _ := h.do(t, http.MethodDelete, fmt.Sprintf("/api/sandboxes/%s/commands/%s", id, pid), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("terminate status = %d", resp.StatusCode)
	}

	resp, _ = h.do(t, http.MethodDelete, fmt.Sprintf("/api/sandboxes/%s/commands/ghost", id), nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown process terminate status = %d, want 404", resp.StatusCode)
	}
}

func TestDeleteSandboxCancelsInFlight(t *testing.T) {
	h := newHarness(t)
	id := h.createSandbox(t)
	h.connectAgent(t, id)

	_, body := h.do(t, http.MethodPost, "/api/sandboxes/"+id+"/commands",
		map[string]string{"command": "sleep forever"})
	pid := body["processId"].(string)

	resp, _ := h.do(t, http.MethodDelete, "/api/sandboxes/"+id, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}

	// The process belongs to the deleted sandbox: status is gone.
	resp, _ = h.do(t, http.MethodGet, fmt.Sprintf("/api/sandboxes/%s/commands/%s/status", id, pid), nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("post-delete status = %d, want 404", resp.StatusCode)
	}

	// No leaked pending correlation.
	deadline := time.Now().Add(2 * time.Second)
	for h.dispatcher.PendingCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("leaked %d pending entries", h.dispatcher.PendingCount())
		}
		time.Sleep(time.Millisecond)
	}

	resp, _ = h.do(t, http.MethodDelete, "/api/sandboxes/ghost", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown sandbox delete status = %d, want 404", resp.StatusCode)
	}
}

func TestHealthz(t *testing.T) {
	h := newHarness(t)
	resp, body := h.do(t, http.MethodGet, "/healthz", nil)
	if resp.StatusCode != http.StatusOK || body["status"] != "ok" {
		t.Errorf("healthz = %d %v", resp.StatusCode, body)
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00:00.0000000"},
		{12 * time.Millisecond, "00:00:00.0120000"},
		{time.Second + 500*time.Millisecond, "00:00:01.5000000"},
		{90 * time.Minute, "01:30:00.0000000"},
		{250 * time.Nanosecond, "00:00:00.0000002"},
		{-time.Second, "00:00:00.0000000"},
	}
	for _, tc := range cases {
		if got := formatDuration(tc.in); got != tc.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
