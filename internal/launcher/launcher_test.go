package launcher

import (
	"bytes"
	"context"
	"fmt"
	"runtime"
	"strings"
	"testing"
	"time"
)

type testLogger struct {
	logs []string
}

func (l *testLogger) Debugf(format string, args ...interface{}) {
	l.logs = append(l.logs, format)
}

func skipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
}

func TestStart_EmptyCommand(t *testing.T) {
	e := NewExec(true)
	if _, err := e.Start(context.Background(), nil); err == nil {
		t.Error("Expected error for empty argv")
	}
	if _, err := e.Start(context.Background(), []string{""}); err == nil {
		t.Error("Expected error for empty program")
	}
}

func TestStart_MissingBinary(t *testing.T) {
	e := NewExec(true)
	if _, err := e.Start(context.Background(), []string{"/nonexistent/nuview-worker"}); err == nil {
		t.Error("Expected error for missing binary")
	}
}

func TestStart_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewExec(true).Start(ctx, []string{"true"}); err == nil {
		t.Error("Expected error for cancelled context")
	}
}

func TestStart_RunsToCompletion(t *testing.T) {
	skipWithoutShell(t)
	var out bytes.Buffer
	e := NewExec(true)
	e.Stdout = &out
	logger := &testLogger{}
	e.SetLogger(logger)

	h, err := e.Start(context.Background(), []string{"sh", "-c", "echo hello"})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if h.Pid() <= 0 {
		t.Errorf("Expected positive pid, got %d", h.Pid())
	}
	if err := h.Wait(); err != nil {
		t.Errorf("Wait failed: %v", err)
	}
	// second wait returns the same result
	if err := h.Wait(); err != nil {
		t.Errorf("second Wait failed: %v", err)
	}
	if out.String() != "hello\n" {
		t.Errorf("Expected hello, got %q", out.String())
	}
	if err := h.Kill(); err != nil {
		t.Errorf("Kill after exit should be a no-op, got %v", err)
	}
	if len(logger.logs) == 0 {
		t.Error("Expected debug logs")
	}
}

func TestKill_ProcessGroup(t *testing.T) {
	skipWithoutShell(t)
	// the shell forks a sleep that must die with it
	h, err := NewExec(true).Start(context.Background(), []string{"sh", "-c", "sleep 30 & wait"})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := h.Kill(); err != nil {
		t.Fatalf("Kill failed: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- h.Wait() }()
	select {
	case err := <-done:
		if err == nil {
			t.Error("Expected non-nil exit status after SIGKILL")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("process did not exit after Kill")
	}
}

func TestKill_SharedGroup(t *testing.T) {
	skipWithoutShell(t)
	h, err := NewExec(false).Start(context.Background(), []string{"sleep", "30"})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := h.Kill(); err != nil {
		t.Fatalf("Kill failed: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- h.Wait() }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("process did not exit after Kill")
	}
}

func TestSetLogger_IgnoresNil(t *testing.T) {
	e := NewExec(true)
	e.SetLogger(nil)
	if e.Logger == nil {
		t.Error("Expected logger to remain set")
	}
}

func TestStart_StderrReachesWriter(t *testing.T) {
	skipWithoutShell(t)
	var stdout, stderr bytes.Buffer
	e := NewExec(true)
	e.Stdout = &stdout
	e.Stderr = &stderr

	h, err := e.Start(context.Background(), []string{"sh", "-c", "echo drew >&1; echo 'bad token' >&2; exit 1"})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := h.Wait(); err == nil {
		t.Error("Expected non-zero exit status")
	}
	if got := stderr.String(); got != "bad token\n" {
		t.Errorf("Expected child stderr in writer, got %q", got)
	}
	if got := stdout.String(); got != "drew\n" {
		t.Errorf("Expected child stdout in writer, got %q", got)
	}
}

func TestLoggerFunc(t *testing.T) {
	var lines []string
	e := NewExec(false)
	e.SetLogger(LoggerFunc(func(format string, args ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}))

	if _, err := e.Start(context.Background(), []string{"/nonexistent/nuview-worker"}); err == nil {
		t.Fatal("Expected error for missing binary")
	}
	if len(lines) != 2 {
		t.Fatalf("Expected start and failure lines, got %q", lines)
	}
	if !strings.Contains(lines[0], "/nonexistent/nuview-worker") {
		t.Errorf("Expected argv in first line, got %q", lines[0])
	}
}
