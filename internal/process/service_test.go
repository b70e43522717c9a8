package process

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/habbes/sandstorm/internal/agentmanager"
	"github.com/habbes/sandstorm/internal/dispatch"
	"github.com/habbes/sandstorm/internal/types"
	proto "github.com/habbes/sandstorm/proto"
)

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

func (f *fakeStream) find(kind proto.CommandKind) *proto.CommandRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, req := range f.sent {
		if req.Kind == kind {
			return req
		}
	}
	return nil
}

type harness struct {
	agents     *agentmanager.Manager
	dispatcher *dispatch.Dispatcher
	registry   *Registry
	service    *Service
	stream     *fakeStream
}

func newHarness(t *testing.T, defaultTimeout time.Duration) *harness {
	t.Helper()

	agents := agentmanager.New(agentmanager.Config{
		Clock: clockwork.NewFakeClock(),
	}, zap.NewNop())
	dispatcher := dispatch.New(agents, defaultTimeout, zap.NewNop())
	registry := NewRegistry(zap.NewNop())
	service := NewService(registry, dispatcher, agents, nil, zap.NewNop())

	agents.Register("a1", "s1", "v1", "1.0.0")

	stream := &fakeStream{}
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		_ = agents.AttachDownstream(ctx, "a1", stream)
	}()
	t.Cleanup(cancel)

	deadline := time.Now().Add(2 * time.Second)
	for agents.FindReadyAgent("s1") == "" {
		if time.Now().After(deadline) {
			t.Fatal("agent stream never attached")
		}
		time.Sleep(time.Millisecond)
	}

	return &harness{
		agents:     agents,
		dispatcher: dispatcher,
		registry:   registry,
		service:    service,
		stream:     stream,
	}
}

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for " + what)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSubmitCommandRunsToCompletion(t *testing.T) {
	h := newHarness(t, time.Minute)

	info, err := h.service.SubmitCommand("s1", "echo hi")
	if err != nil {
		t.Fatalf("SubmitCommand: %v", err)
	}
	if !info.Running {
		t.Error("submitted command should be running")
	}
	if info.Command != "echo hi" {
		t.Errorf("command = %q", info.Command)
	}

	// The record and the pending correlation share the same id.
	req := h.stream.find(proto.CommandKind_COMMAND_KIND_EXEC)
	if req == nil || req.CommandId != info.ID {
		t.Fatalf("stream saw %+v, want command id %s", req, info.ID)
	}

	h.dispatcher.Complete(info.ID, &types.CommandResult{
		ExitCode: 0, Stdout: "hi\n", Duration: 12 * time.Millisecond, Success: true,
	})

	waitFor(t, func() bool {
		got, _ := h.service.GetStatus("s1", info.ID)
		return !got.Running
	}, "process completion")

	got, _ := h.service.GetStatus("s1", info.ID)
	if got.Result == nil || got.Result.Stdout != "hi\n" {
		t.Errorf("unexpected result: %+v", got.Result)
	}
}

func TestSubmitCommandNoAgent(t *testing.T) {
	h := newHarness(t, time.Minute)

	_, err := h.service.SubmitCommand("unknown-sandbox", "echo hi")
	if !errors.Is(err, dispatch.ErrNoReadyAgent) {
		t.Fatalf("SubmitCommand = %v, want ErrNoReadyAgent", err)
	}
}

func TestSubmitCommandTimeout(t *testing.T) {
	h := newHarness(t, 50*time.Millisecond)

	info, err := h.service.SubmitCommand("s1", "sleep forever")
	if err != nil {
		t.Fatalf("SubmitCommand: %v", err)
	}

	waitFor(t, func() bool {
		got, _ := h.service.GetStatus("s1", info.ID)
		return !got.Running
	}, "timeout completion")

	got, _ := h.service.GetStatus("s1", info.ID)
	if got.Result == nil || got.Result.ExitCode != -1 || got.Result.Stderr != "timeout" {
		t.Errorf("timeout should complete with exit -1 / stderr timeout, got %+v", got.Result)
	}

	// A late agent result is acknowledged but dropped.
	if h.dispatcher.Complete(info.ID, &types.CommandResult{ExitCode: 0}) {
		t.Error("late result found a correlation after timeout")
	}
	got, _ = h.service.GetStatus("s1", info.ID)
	if got.Result.ExitCode != -1 {
		t.Error("late result overwrote the timeout result")
	}
}

func TestTerminate(t *testing.T) {
	h := newHarness(t, time.Minute)

	info, err := h.service.SubmitCommand("s1", "sleep forever")
	if err != nil {
		t.Fatalf("SubmitCommand: %v", err)
	}

	ok, err := h.service.Terminate("s1", info.ID)
	if err != nil || !ok {
		t.Fatalf("Terminate = (%v, %v)", ok, err)
	}

	// The agent received a terminate request referencing the process.
	term := h.stream.find(proto.CommandKind_COMMAND_KIND_TERMINATE)
	if term == nil || term.TargetProcessId != info.ID {
		t.Errorf("terminate request = %+v, want target %s", term, info.ID)
	}

	waitFor(t, func() bool {
		got, _ := h.service.GetStatus("s1", info.ID)
		return !got.Running
	}, "termination")

	got, _ := h.service.GetStatus("s1", info.ID)
	if !got.Terminated {
		t.Error("process should be marked terminated")
	}

	// Terminating again is an idempotent accept.
	if ok, _ := h.service.Terminate("s1", info.ID); !ok {
		t.Error("re-terminating a finished process should still be accepted")
	}
}

func TestTerminateUnknownProcess(t *testing.T) {
	h := newHarness(t, time.Minute)

	ok, err := h.service.Terminate("s1", "ghost")
	if err != nil {
		t.Fatalf("Terminate: %v", err)
	}
	if ok {
		t.Error("terminating an unknown process should report not-found")
	}
}
