package media

import (
	"bytes"
	"context"
	"testing"
)

// fakeRunner records invocations and answers with a caller-supplied
// function, letting pipeline tests script tool behavior without spawning
// processes.
type fakeRunner struct {
	calls [][]string
	onRun func(bin string, args []string) RunResult
}

func (f *fakeRunner) Run(_ context.Context, bin string, args ...string) RunResult {
	call := append([]string{bin}, args...)
	f.calls = append(f.calls, call)
	return f.onRun(bin, args)
}

func TestRunResult_IsSuccess(t *testing.T) {
	tests := []struct {
		exitCode int
		want     bool
	}{
		{0, true},
		{1, false},
		{-1, false},
		{127, false},
	}
	for _, tt := range tests {
		r := RunResult{ExitCode: tt.exitCode}
		if got := r.IsSuccess(); got != tt.want {
			t.Errorf("RunResult{ExitCode: %d}.IsSuccess() = %v, want %v", tt.exitCode, got, tt.want)
		}
	}
}

func TestLimitedWriter_KeepsOnlyTail(t *testing.T) {
	var buf bytes.Buffer
	lw := &limitedWriter{w: &buf, limit: 10}

	lw.Write([]byte("hello"))
	if buf.String() != "hello" {
		t.Errorf("after short write got %q, want %q", buf.String(), "hello")
	}

	lw.Write([]byte(" world of test data"))
	got := buf.String()
	if len(got) > 10 {
		t.Errorf("buffer length %d exceeds limit 10", len(got))
	}

	want := " test data"
	if got != want {
		t.Errorf("after overflow got %q, want %q", got, want)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly-10", 10, "exactly-10"},
		{"this is a longer string", 10, "...ger string"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.maxLen); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
		}
	}
}

func TestResolveTool_PreferredMissing(t *testing.T) {
	if _, err := ResolveTool("/nonexistent/path/to/tool"); err == nil {
		t.Error("ResolveTool with missing preferred path expected error")
	}
}

func TestResolveTool_NoCandidates(t *testing.T) {
	if _, err := ResolveTool("", "definitely-not-a-real-binary-name"); err == nil {
		t.Error("ResolveTool with unknown candidates expected error")
	}
}

func TestFirstLine(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"one\n", "one"},
		{"one\ntwo\n", "one"},
		{"  padded  \nnext", "padded"},
	}
	for _, tt := range tests {
		if got := firstLine(tt.in); got != tt.want {
			t.Errorf("firstLine(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
