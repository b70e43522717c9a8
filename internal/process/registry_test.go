package process

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/habbes/sandstorm/internal/types"
)

func TestCompleteIsTerminalAndFinal(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	r.Add("p1", "s1", "echo hi")

	info, ok := r.Get("s1", "p1")
	if !ok || !info.Running {
		t.Fatalf("fresh process should be running, got %+v", info)
	}
	if info.Result != nil {
		t.Fatal("running process must not have a result")
	}

	r.Complete("p1", types.CommandResult{ExitCode: 0, Stdout: "hi\n", Duration: 12 * time.Millisecond, Success: true})

	info, _ = r.Get("s1", "p1")
	if info.Running {
		t.Error("completed process still running")
	}
	if info.Result == nil || info.Result.ExitCode != 0 {
		t.Fatalf("missing or wrong result: %+v", info.Result)
	}

	// A later (late) completion must not overwrite the first.
	r.Complete("p1", types.CommandResult{ExitCode: 99})
	info, _ = r.Get("s1", "p1")
	if info.Result.ExitCode != 0 {
		t.Error("late completion overwrote the terminal result")
	}
}

func TestMarkTerminated(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	r.Add("p1", "s1", "sleep 1000")

	r.MarkTerminated("p1")

	info, _ := r.Get("s1", "p1")
	if info.Running || !info.Terminated {
		t.Fatalf("expected terminated process, got %+v", info)
	}
	if info.Result == nil || info.Result.ExitCode != -1 {
		t.Errorf("terminated process should carry exit code -1: %+v", info.Result)
	}

	// Terminated is final — a racing agent result is ignored.
	r.Complete("p1", types.CommandResult{ExitCode: 0, Success: true})
	info, _ = r.Get("s1", "p1")
	if !info.Terminated || info.Result.ExitCode != -1 {
		t.Error("agent result overwrote termination")
	}
}

func TestLogsOnlyWhileRunning(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	r.Add("p1", "s1", "echo hi")

	r.AppendLog("s1", "p1", "line 1")
	r.AppendLog("s1", "p1", "line 2")
	r.Complete("p1", types.CommandResult{ExitCode: 0})
	r.AppendLog("s1", "p1", "too late")

	lines, ok := r.Logs("s1", "p1")
	if !ok {
		t.Fatal("Logs: process not found")
	}
	if len(lines) != 2 || lines[0] != "line 1" || lines[1] != "line 2" {
		t.Errorf("unexpected lines: %v", lines)
	}
}

func TestSandboxScoping(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	r.Add("p1", "s1", "echo hi")

	if _, ok := r.Get("other", "p1"); ok {
		t.Error("process visible through the wrong sandbox")
	}
	if _, ok := r.Logs("other", "p1"); ok {
		t.Error("logs visible through the wrong sandbox")
	}
}

func TestRemoveBySandbox(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	r.Add("p1", "s1", "echo hi")
	r.Add("p2", "s1", "echo ho")
	r.Add("p3", "s2", "echo he")

	r.RemoveBySandbox("s1")

	if _, ok := r.Get("s1", "p1"); ok {
		t.Error("p1 should be gone with its sandbox")
	}
	if _, ok := r.Get("s2", "p3"); !ok {
		t.Error("p3 belongs to another sandbox and should survive")
	}
	if got := len(r.ListBySandbox("s1")); got != 0 {
		t.Errorf("ListBySandbox(s1) = %d entries after removal", got)
	}
}

func TestAgentLogsForUntaggedLines(t *testing.T) {
	r := NewRegistry(zap.NewNop())

	// Untagged lines land on the agent-wide log without a process record.
	r.AppendAgentLog("a1", "booted")
	r.AppendAgentLog("a1", "idle")

	r.mu.RLock()
	got := len(r.agentLogs["a1"])
	r.mu.RUnlock()
	if got != 2 {
		t.Errorf("agent log lines = %d, want 2", got)
	}
}
