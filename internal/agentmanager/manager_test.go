package agentmanager

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/habbes/sandstorm/internal/types"
	proto "github.com/habbes/sandstorm/proto"
)

// fakeStream records sent commands and can be told to fail.
type fakeStream struct {
	mu   sync.Mutex
	sent []*proto.CommandRequest
	err  error
}

func (f *fakeStream) Send(req *proto.CommandRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, req)
	return nil
}

func (f *fakeStream) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func newTestManager(t *testing.T, clock clockwork.Clock) *Manager {
	t.Helper()
	return New(Config{
		HeartbeatInterval: 30 * time.Second,
		StaleThreshold:    2 * time.Minute,
		Clock:             clock,
	}, zap.NewNop())
}

// attach runs AttachDownstream in a goroutine and waits until the stream is
// visible to dispatch. Returns a cancel func that detaches the stream and a
// done channel closed when the attach call returns.
func attach(t *testing.T, m *Manager, agentID string, stream CommandStream) (context.CancelFunc, <-chan struct{}) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := m.AttachDownstream(ctx, agentID, stream); err != nil {
			t.Errorf("AttachDownstream: %v", err)
		}
	}()

	deadline := time.Now().Add(2 * time.Second)
	for {
		if info, ok := m.Get(agentID); ok && info.Streaming {
			return cancel, done
		}
		if time.Now().After(deadline) {
			t.Fatal("stream never attached")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestRegisterIsIdempotent(t *testing.T) {
	clock := clockwork.NewFakeClock()
	m := newTestManager(t, clock)

	m.Register("a1", "s1", "v1", "1.0.0")
	clock.Advance(5 * time.Second)
	m.Register("a1", "s1", "v1", "1.0.0")

	if got := len(m.ListActive()); got != 1 {
		t.Fatalf("expected 1 agent after double register, got %d", got)
	}

	info, _ := m.Get("a1")
	if !info.LastHeartbeat.Equal(clock.Now()) {
		t.Errorf("latest register should win the heartbeat: got %v want %v", info.LastHeartbeat, clock.Now())
	}
	if info.Status != types.AgentStatusReady {
		t.Errorf("status after register = %s, want Ready", info.Status)
	}
}

func TestHeartbeatUnknownAgent(t *testing.T) {
	m := newTestManager(t, clockwork.NewFakeClock())

	if m.Heartbeat("nope", types.AgentStatusReady, nil) {
		t.Error("heartbeat for unknown agent should report false")
	}
}

func TestHeartbeatIsMonotonic(t *testing.T) {
	clock := clockwork.NewFakeClock()
	m := newTestManager(t, clock)
	m.Register("a1", "s1", "v1", "1.0.0")

	clock.Advance(10 * time.Second)
	m.Heartbeat("a1", types.AgentStatusBusy, &types.ResourceUsage{CPUPercent: 50})
	first, _ := m.Get("a1")

	m.Heartbeat("a1", types.AgentStatusReady, nil)
	second, _ := m.Get("a1")

	if second.LastHeartbeat.Before(first.LastHeartbeat) {
		t.Error("last heartbeat moved backwards")
	}
	if second.Usage == nil || second.Usage.CPUPercent != 50 {
		t.Error("nil usage in a later heartbeat should not clear the previous snapshot")
	}
}

func TestFindReadyAgent(t *testing.T) {
	clock := clockwork.NewFakeClock()
	m := newTestManager(t, clock)

	// Registered but not streaming: not dispatchable.
	m.Register("a1", "s1", "v1", "1.0.0")
	if got := m.FindReadyAgent("s1"); got != "" {
		t.Fatalf("agent without stream should not be dispatchable, got %q", got)
	}

	cancel, done := attach(t, m, "a1", &fakeStream{})
	defer func() { cancel(); <-done }()

	if got := m.FindReadyAgent("s1"); got != "a1" {
		t.Fatalf("FindReadyAgent = %q, want a1", got)
	}
	if got := m.FindReadyAgent("other"); got != "" {
		t.Fatalf("FindReadyAgent for unknown sandbox = %q, want none", got)
	}

	// Stale heartbeat excludes the agent without deleting it.
	clock.Advance(3 * time.Minute)
	if got := m.FindReadyAgent("s1"); got != "" {
		t.Fatalf("stale agent should be excluded, got %q", got)
	}
	if _, ok := m.Get("a1"); !ok {
		t.Fatal("stale agent record should persist for reconnection")
	}

	// A fresh heartbeat restores dispatchability.
	m.Heartbeat("a1", types.AgentStatusReady, nil)
	if got := m.FindReadyAgent("s1"); got != "a1" {
		t.Fatalf("agent should be dispatchable again after heartbeat, got %q", got)
	}
}

func TestFindReadyAgentIsDeterministic(t *testing.T) {
	m := newTestManager(t, clockwork.NewFakeClock())

	for _, id := range []string{"b2", "a1", "c3"} {
		m.Register(id, "s1", "vm-"+id, "1.0.0")
		cancel, done := attach(t, m, id, &fakeStream{})
		defer func() { cancel(); <-done }()
	}

	for i := 0; i < 10; i++ {
		if got := m.FindReadyAgent("s1"); got != "a1" {
			t.Fatalf("tie-break should pick smallest agent id, got %q", got)
		}
	}
}

func TestAttachReplacesPreviousStream(t *testing.T) {
	m := newTestManager(t, clockwork.NewFakeClock())
	m.Register("a1", "s1", "v1", "1.0.0")

	old := &fakeStream{}
	_, oldDone := attach(t, m, "a1", old)

	// A reconnect attaches a new stream; the old attach call must return.
	newStream := &fakeStream{}
	cancel2, done2 := attach(t, m, "a1", newStream)
	defer func() { cancel2(); <-done2 }()

	select {
	case <-oldDone:
	case <-time.After(2 * time.Second):
		t.Fatal("old AttachDownstream did not return after being displaced")
	}

	// Sends after the replacement must reach only the new stream.
	if err := m.Send("a1", &proto.CommandRequest{CommandId: "c1"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if old.sentCount() != 0 {
		t.Error("old stream received a command after replacement")
	}
	if newStream.sentCount() != 1 {
		t.Errorf("new stream sent = %d, want 1", newStream.sentCount())
	}
}

func TestReRegisterClearsStream(t *testing.T) {
	m := newTestManager(t, clockwork.NewFakeClock())
	m.Register("a1", "s1", "v1", "1.0.0")

	_, done := attach(t, m, "a1", &fakeStream{})

	m.Register("a1", "s1", "v2", "1.0.1")

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("attach did not return after re-registration")
	}

	if err := m.Send("a1", &proto.CommandRequest{CommandId: "c1"}); !errors.Is(err, ErrNoStream) {
		t.Errorf("Send after re-register = %v, want ErrNoStream", err)
	}
}

func TestSendErrors(t *testing.T) {
	m := newTestManager(t, clockwork.NewFakeClock())

	if err := m.Send("ghost", &proto.CommandRequest{}); !errors.Is(err, ErrNoStream) {
		t.Errorf("Send to unknown agent = %v, want ErrNoStream", err)
	}

	m.Register("a1", "s1", "v1", "1.0.0")
	broken := &fakeStream{err: errors.New("wire down")}
	cancel, done := attach(t, m, "a1", broken)
	defer func() { cancel(); <-done }()

	if err := m.Send("a1", &proto.CommandRequest{}); !errors.Is(err, ErrStreamWrite) {
		t.Errorf("Send over broken stream = %v, want ErrStreamWrite", err)
	}
}

func TestRemoveBySandbox(t *testing.T) {
	m := newTestManager(t, clockwork.NewFakeClock())
	m.Register("a1", "s1", "v1", "1.0.0")
	m.Register("a2", "s2", "v2", "1.0.0")

	_, done := attach(t, m, "a1", &fakeStream{})

	m.RemoveBySandbox("s1")

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("attach did not return after sandbox removal")
	}

	if _, ok := m.Get("a1"); ok {
		t.Error("agent of removed sandbox should be gone")
	}
	if _, ok := m.Get("a2"); !ok {
		t.Error("agent of other sandbox should survive")
	}
}

func TestSweepMarksStaleAgentsUnreachable(t *testing.T) {
	clock := clockwork.NewFakeClock()
	m := newTestManager(t, clock)
	m.Register("a1", "s1", "v1", "1.0.0")
	m.Register("a2", "s1", "v2", "1.0.0")

	sweeper, err := NewSweeper(m, time.Second, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSweeper: %v", err)
	}

	clock.Advance(time.Minute)
	m.Heartbeat("a2", types.AgentStatusReady, nil)
	clock.Advance(90 * time.Second)

	// a1 is now 2m30s silent, a2 only 1m30s.
	sweeper.sweep()

	a1, _ := m.Get("a1")
	if a1.Status != types.AgentStatusUnreachable {
		t.Errorf("a1 status = %s, want Unreachable", a1.Status)
	}
	// a2's heartbeat is only 90s old — under the 2m threshold.
	a2, _ := m.Get("a2")
	if a2.Status == types.AgentStatusUnreachable {
		t.Error("a2 should not be marked unreachable with a fresh heartbeat")
	}
}
