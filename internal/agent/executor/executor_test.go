package executor

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

type captureSink struct {
	results chan Result
}

func newCaptureSink() *captureSink {
	return &captureSink{results: make(chan Result, 16)}
}

func (c *captureSink) SendResult(res Result) { c.results <- res }

func (c *captureSink) wait(t *testing.T) Result {
	t.Helper()
	select {
	case res := <-c.results:
		return res
	case <-time.After(10 * time.Second):
		t.Fatal("no result delivered")
		return Result{}
	}
}

type captureLogs struct {
	mu    sync.Mutex
	lines []string
}

func (c *captureLogs) SendLog(commandID, level, message string) {
	c.mu.Lock()
	c.lines = append(c.lines, message)
	c.mu.Unlock()
}

func skipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires /bin/sh")
	}
}

func TestRunCapturesOutputAndExitCode(t *testing.T) {
	skipWithoutShell(t)

	e := New(zap.NewNop())
	sink := newCaptureSink()
	logs := &captureLogs{}

	e.Start(context.Background(), Command{ID: "c1", Command: "echo hi"}, sink, logs)

	res := sink.wait(t)
	if res.CommandID != "c1" {
		t.Errorf("command id = %q", res.CommandID)
	}
	if !res.Success || res.ExitCode != 0 {
		t.Errorf("expected success, got %+v", res)
	}
	if res.Stdout != "hi\n" {
		t.Errorf("stdout = %q", res.Stdout)
	}
	if res.Duration <= 0 {
		t.Error("duration not measured")
	}

	logs.mu.Lock()
	defer logs.mu.Unlock()
	if len(logs.lines) != 1 || logs.lines[0] != "hi" {
		t.Errorf("log lines = %v", logs.lines)
	}
}

func TestRunNonZeroExit(t *testing.T) {
	skipWithoutShell(t)

	e := New(zap.NewNop())
	sink := newCaptureSink()

	e.Start(context.Background(), Command{ID: "c1", Command: "echo oops >&2; exit 3"}, sink, nil)

	res := sink.wait(t)
	if res.Success {
		t.Error("expected failure")
	}
	if res.ExitCode != 3 {
		t.Errorf("exit code = %d, want 3", res.ExitCode)
	}
	if res.Stderr != "oops\n" {
		t.Errorf("stderr = %q", res.Stderr)
	}
}

func TestRunTimeout(t *testing.T) {
	skipWithoutShell(t)

	e := New(zap.NewNop())
	sink := newCaptureSink()

	e.Start(context.Background(), Command{ID: "c1", Command: "sleep 30", Timeout: 100 * time.Millisecond}, sink, nil)

	res := sink.wait(t)
	if res.ExitCode != -1 {
		t.Errorf("exit code = %d, want -1", res.ExitCode)
	}
	if !strings.Contains(res.Stderr, "timeout") {
		t.Errorf("stderr = %q, want timeout marker", res.Stderr)
	}
	if res.Terminated {
		t.Error("timeout should not read as termination")
	}
}

func TestTerminate(t *testing.T) {
	skipWithoutShell(t)

	e := New(zap.NewNop())
	sink := newCaptureSink()

	e.Start(context.Background(), Command{ID: "c1", Command: "sleep 30"}, sink, nil)

	deadline := time.Now().Add(2 * time.Second)
	for e.RunningCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("command never started")
		}
		time.Sleep(time.Millisecond)
	}

	if !e.Terminate("c1") {
		t.Fatal("Terminate did not find the running command")
	}

	res := sink.wait(t)
	if !res.Terminated {
		t.Errorf("expected terminated result, got %+v", res)
	}

	if e.Terminate("c1") {
		t.Error("terminating a finished command should report false")
	}
}

func TestEnvAndWorkingDir(t *testing.T) {
	skipWithoutShell(t)

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "marker.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	e := New(zap.NewNop())
	sink := newCaptureSink()

	e.Start(context.Background(), Command{
		ID:         "c1",
		Command:    "echo $SANDSTORM_TEST_VALUE; ls",
		WorkingDir: dir,
		Env:        map[string]string{"SANDSTORM_TEST_VALUE": "42"},
	}, sink, nil)

	res := sink.wait(t)
	if !res.Success {
		t.Fatalf("command failed: %+v", res)
	}
	if !strings.HasPrefix(res.Stdout, "42\n") {
		t.Errorf("env not applied: %q", res.Stdout)
	}
	if !strings.Contains(res.Stdout, "marker.txt") {
		t.Errorf("working dir not applied: %q", res.Stdout)
	}
}
