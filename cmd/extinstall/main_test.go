package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
)

func TestMainVersion(t *testing.T) {
	var out bytes.Buffer
	if err := execute([]string{"extinstall", "--version"}, &out, &out); err != nil {
		t.Fatalf("execute error: %v", err)
	}
	if !strings.Contains(out.String(), Version) {
		t.Fatalf("expected version output, got %q", out.String())
	}
}

func TestMainUnknownCommand(t *testing.T) {
	var out bytes.Buffer
	err := execute([]string{"extinstall", "unknown"}, &out, &out)
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestRunMainSuccess(t *testing.T) {
	var out bytes.Buffer
	called := false
	runMain([]string{"extinstall", "--version"}, &out, &out, func(code int) {
		called = true
	})
	if called {
		t.Fatalf("unexpected exit")
	}
}

func TestRunMainError(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := 0
	runMain([]string{"extinstall", "unknown"}, &stdout, &stderr, func(exitCode int) {
		code = exitCode
	})
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(stderr.String(), "extinstall: unknown command") {
		t.Fatalf("expected error output, got %q", stderr.String())
	}
	if strings.Contains(stderr.String(), "\x1b[") {
		t.Fatalf("expected no colour for a non-terminal, got %q", stderr.String())
	}
}

func TestRunMainSilentExit(t *testing.T) {
	orig := executeFunc
	t.Cleanup(func() { executeFunc = orig })
	executeFunc = func([]string, io.Writer, io.Writer) error {
		return &SilentExitError{Code: 250}
	}

	var stderr bytes.Buffer
	code := -1
	runMain([]string{"extinstall"}, &stderr, &stderr, func(exitCode int) {
		code = exitCode
	})
	if code != 250 {
		t.Fatalf("expected exit code 250, got %d", code)
	}
	if stderr.Len() != 0 {
		t.Fatalf("expected silent exit, got %q", stderr.String())
	}
}

func TestSilentExitErrorMessage(t *testing.T) {
	err := error(SilentExitError{Code: 3})
	if err.Error() != "exit 3" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	var silent SilentExitError
	if !errors.As(err, &silent) || silent.Code != 3 {
		t.Fatalf("expected SilentExitError, got %v", err)
	}
}

func TestVersionString(t *testing.T) {
	origVersion, origCommit, origBuild := Version, Commit, BuildDate
	t.Cleanup(func() { Version, Commit, BuildDate = origVersion, origCommit, origBuild })

	Version, Commit, BuildDate = "v1.2.0", "unknown", "unknown"
	if got := versionString(); got != "v1.2.0" {
		t.Fatalf("unexpected version %q", got)
	}
	Commit, BuildDate = "abc123", "2026-10-01"
	if got := versionString(); got != "v1.2.0 (commit abc123, built 2026-10-01)" {
		t.Fatalf("unexpected version %q", got)
	}
}

func TestMainCallsExecute(t *testing.T) {
	originalArgs := os.Args
	defer func() { os.Args = originalArgs }()
	orig := executeFunc
	t.Cleanup(func() { executeFunc = orig })

	called := false
	executeFunc = func([]string, io.Writer, io.Writer) error {
		called = true
		return nil
	}
	os.Args = []string{"extinstall", "--version"}
	main()
	if !called {
		t.Fatalf("expected execute to be called")
	}
}
