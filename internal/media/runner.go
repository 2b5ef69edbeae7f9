package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"time"
)

const (
	maxStdoutBytes = 64 * 1024 // resolved URLs and probe lines are small
	maxStderrBytes = 8 * 1024  // 8 KB tail of stderr kept for diagnostics
)

// RunResult captures one external tool invocation. A process that could not
// be spawned at all is reported as ExitCode -1 with the spawn error in
// StderrTail; callers treat it exactly like a non-zero exit.
type RunResult struct {
	ExitCode   int
	Stdout     string
	StderrTail string
	Duration   time.Duration
}

func (r RunResult) IsSuccess() bool {
	return r.ExitCode == 0
}

// Runner executes external media tools (yt-dlp, ffmpeg) as subprocesses.
// Spawn, wait, collect output, get exit code: that is the whole contract.
type Runner interface {
	Run(ctx context.Context, bin string, args ...string) RunResult
}

// ExecRunner is the production Runner backed by os/exec. The context bounds
// the process lifetime; an expired context kills the process.
type ExecRunner struct {
	logger *slog.Logger
}

func NewExecRunner(logger *slog.Logger) *ExecRunner {
	return &ExecRunner{logger: logger}
}

func (r *ExecRunner) Run(ctx context.Context, bin string, args ...string) RunResult {
	start := time.Now()

	cmd := exec.CommandContext(ctx, bin, args...)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = io.Writer(&limitedWriter{w: &stdoutBuf, limit: maxStdoutBytes})
	cmd.Stderr = io.Writer(&limitedWriter{w: &stderrBuf, limit: maxStderrBytes})

	r.logger.Debug("executing tool", "bin", bin, "args", args)

	err := cmd.Run()
	elapsed := time.Since(start)

	exitCode := 0
	stderrTail := stderrBuf.String()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			// spawn failure: binary missing, not executable, etc.
			exitCode = -1
			if stderrTail == "" {
				stderrTail = err.Error()
			}
		}
	}

	if exitCode != 0 {
		r.logger.Warn("tool invocation failed",
			"bin", bin,
			"exit_code", exitCode,
			"duration_ms", elapsed.Milliseconds(),
			"stderr_tail", truncate(stderrTail, 512),
		)
	} else {
		r.logger.Debug("tool invocation succeeded",
			"bin", bin,
			"duration_ms", elapsed.Milliseconds(),
		)
	}

	return RunResult{
		ExitCode:   exitCode,
		Stdout:     stdoutBuf.String(),
		StderrTail: stderrTail,
		Duration:   elapsed,
	}
}

// ResolveTool finds a usable binary, preferring an explicitly configured
// path over a PATH lookup of the candidate names.
func ResolveTool(preferred string, names ...string) (string, error) {
	if preferred != "" {
		if p, err := exec.LookPath(preferred); err == nil {
			return p, nil
		}
		return "", fmt.Errorf("configured tool %q not found", preferred)
	}
	for _, name := range names {
		if p, err := exec.LookPath(name); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("no binary found on PATH (tried %v)", names)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return "..." + s[len(s)-maxLen:]
}

// limitedWriter is an io.Writer that keeps only the last `limit` bytes.
type limitedWriter struct {
	w     *bytes.Buffer
	limit int
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	lw.w.Write(p)
	if lw.w.Len() > lw.limit {
		// Keep only the tail
		b := lw.w.Bytes()
		lw.w.Reset()
		lw.w.Write(b[len(b)-lw.limit:])
	}
	return n, nil
}
