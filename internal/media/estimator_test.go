package media

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/slicetube/slicetube/internal/platform"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEstimator(runner Runner) *Estimator {
	return NewEstimator(EstimatorConfig{
		Ytdlp:        "yt-dlp",
		ProbeTimeout: time.Second,
		Logger:       testLogger(),
	}, runner)
}

func ytRef(t *testing.T) platform.VideoReference {
	t.Helper()
	ref, ok := platform.Classify("https://youtube.com/watch?v=abc123")
	if !ok {
		t.Fatal("classify failed")
	}
	return ref
}

func TestEstimate_AudioFixedRate(t *testing.T) {
	runner := &fakeRunner{onRun: func(string, []string) RunResult {
		t.Fatal("audio estimate must not probe the source")
		return RunResult{}
	}}
	est := newTestEstimator(runner)

	got, err := est.Estimate(context.Background(), ytRef(t), TimeRange{Start: 5, End: 15}, FormatAudio)
	if err != nil {
		t.Fatalf("Estimate error: %v", err)
	}
	// 192000 bits/s * 10 s / 8 * 1.05
	if got.Bytes != 252000 {
		t.Errorf("audio estimate = %d bytes, want 252000", got.Bytes)
	}
	if got.Size != "246.1 KB" {
		t.Errorf("audio estimate size = %q, want %q", got.Size, "246.1 KB")
	}
}

func TestEstimate_VideoFromProbedBitrate(t *testing.T) {
	runner := &fakeRunner{onRun: func(bin string, args []string) RunResult {
		return RunResult{ExitCode: 0, Stdout: "137,123456789,2000\n"}
	}}
	est := newTestEstimator(runner)

	got, err := est.Estimate(context.Background(), ytRef(t), TimeRange{Start: 10, End: 20}, FormatVideo)
	if err != nil {
		t.Fatalf("Estimate error: %v", err)
	}
	// 2000 kbps * 1000 * 10 s / 8 * 1.05
	if got.Bytes != 2625000 {
		t.Errorf("video estimate = %d bytes, want 2625000", got.Bytes)
	}
}

func TestEstimate_ProbeFailure(t *testing.T) {
	runner := &fakeRunner{onRun: func(string, []string) RunResult {
		return RunResult{ExitCode: 1, StderrTail: "ERROR: unavailable"}
	}}
	est := newTestEstimator(runner)

	_, err := est.Estimate(context.Background(), ytRef(t), TimeRange{Start: 0, End: 10}, FormatVideo)
	var estErr *EstimateError
	if !errors.As(err, &estErr) {
		t.Fatalf("expected EstimateError, got %v", err)
	}
}

func TestEstimate_ProbeUsesBoundedQuality(t *testing.T) {
	runner := &fakeRunner{onRun: func(string, []string) RunResult {
		return RunResult{ExitCode: 0, Stdout: "18,NA,1500"}
	}}
	est := newTestEstimator(runner)

	if _, err := est.Estimate(context.Background(), ytRef(t), TimeRange{Start: 0, End: 1}, FormatVideo); err != nil {
		t.Fatalf("Estimate error: %v", err)
	}

	if len(runner.calls) != 1 {
		t.Fatalf("expected 1 probe call, got %d", len(runner.calls))
	}
	args := runner.calls[0]
	found := false
	for _, a := range args {
		if a == formatProbe1080 {
			found = true
		}
	}
	if !found {
		t.Errorf("probe args missing bounded-quality format expression: %v", args)
	}
}

func TestParseProbeBitrate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want float64
	}{
		{"plain", "137,12345,2000", 2000},
		{"fractional", "137,12345,1874.517", 1874.517},
		{"unparsable tbr", "137,12345,NA", 0},
		{"missing fields", "137", 0},
		{"empty", "", 0},
		{"multi line", "137,1,2500\n251,2,130\n", 2500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseProbeBitrate(tt.in); got != tt.want {
				t.Errorf("parseProbeBitrate(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatSize_Boundaries(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1024 * 1024, "1.0 MB"},
		{2625000, "2.5 MB"},
		{1024 * 1024 * 1024, "1.0 GB"},
	}
	for _, tt := range tests {
		if got := FormatSize(tt.bytes); got != tt.want {
			t.Errorf("FormatSize(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}
