package main

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"
)

// captureRun runs the CLI with args, redirecting stdout/stderr through
// os.Pipe so run's *os.File signature is exercised the same way main
// calls it.
func captureRun(t *testing.T, args []string) (stdout, stderr string, code int) {
	t.Helper()

	outR, outW, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}

	code = run(args, outW, errW)
	outW.Close()
	errW.Close()

	var outBuf, errBuf bytes.Buffer
	io.Copy(&outBuf, outR)
	io.Copy(&errBuf, errR)
	return outBuf.String(), errBuf.String(), code
}

func TestRunSolvesSmallPlanAndExitsZero(t *testing.T) {
	stdout, stderr, code := captureRun(t, []string{"-n", "1", "-zoom", "1"})
	if code != 0 {
		t.Fatalf("exit code = %d, stderr = %s", code, stderr)
	}
	if !strings.Contains(stdout, "optimized makespan") {
		t.Fatalf("missing optimized makespan line:\n%s", stdout)
	}
	if !strings.Contains(stdout, "strict-serial total") {
		t.Fatalf("missing strict-serial total line:\n%s", stdout)
	}
}

func TestRunSerialOnlySkipsSolver(t *testing.T) {
	stdout, _, code := captureRun(t, []string{"-n", "1", "-serial-only"})
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if strings.Contains(stdout, "optimized makespan") {
		t.Fatalf("serial-only run should not report an optimized makespan:\n%s", stdout)
	}
}

func TestRunEmitsJSONWhenRequested(t *testing.T) {
	stdout, _, code := captureRun(t, []string{"-n", "1", "-json"})
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(stdout, `"mode"`) {
		t.Fatalf("expected JSON envelope in output:\n%s", stdout)
	}
}

func TestRunRejectsNonPositiveN(t *testing.T) {
	_, stderr, code := captureRun(t, []string{"-n", "0"})
	if code == 0 {
		t.Fatal("expected non-zero exit for -n 0")
	}
	if !strings.Contains(stderr, "-n must be") {
		t.Fatalf("expected usage error, got: %s", stderr)
	}
}

func TestRunReportsInfeasibleHorizonCleanly(t *testing.T) {
	_, stderr, code := captureRun(t, []string{"-n", "1", "-horizon", "5"})
	if code == 0 {
		t.Fatal("expected non-zero exit for an impossibly small horizon")
	}
	if stderr == "" {
		t.Fatal("expected a diagnostic on stderr")
	}
}
