package media

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/slicetube/slicetube/internal/platform"
)

const (
	// Probe expression: best stream within a 1080p ceiling in a standard
	// container. Only the reported bitrate is consumed.
	formatProbe1080 = "bestvideo[height<=1080][ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best"
	probeTemplate   = "%(format_id)s,%(filesize,filesize_approx)s,%(tbr)s"

	// Audio exports are encoded at a fixed target rate regardless of the
	// source bitrate.
	audioBitrateKbps = 192

	// Flat multiplier modeling container overhead.
	containerOverhead = 1.05
)

// Estimate is a predicted output size: the raw byte count and its
// human-readable rendering.
type Estimate struct {
	Bytes int64  `json:"bytes"`
	Size  string `json:"size"`
}

// EstimatorConfig holds the Estimator's tool settings.
type EstimatorConfig struct {
	Ytdlp        string
	ProbeTimeout time.Duration
	Logger       *slog.Logger
}

// Estimator predicts trimmed-output byte sizes without performing any cut.
type Estimator struct {
	cfg    EstimatorConfig
	runner Runner
}

func NewEstimator(cfg EstimatorConfig, runner Runner) *Estimator {
	return &Estimator{cfg: cfg, runner: runner}
}

// Estimate predicts the output size for cutting rng out of ref in the given
// format. Video estimates probe the source's encoded bitrate; audio
// estimates assume the fixed target encode rate.
func (e *Estimator) Estimate(ctx context.Context, ref platform.VideoReference, rng TimeRange, format Format) (Estimate, error) {
	duration := rng.Duration()

	var kbps float64
	if format == FormatAudio {
		kbps = audioBitrateKbps
	} else {
		probed, err := e.probeBitrate(ctx, ref.RawURL)
		if err != nil {
			return Estimate{}, err
		}
		kbps = probed
	}

	bytes := kbps * 1000 * duration / 8 * containerOverhead
	rounded := int64(math.Round(bytes))

	return Estimate{
		Bytes: rounded,
		Size:  FormatSize(rounded),
	}, nil
}

// probeBitrate returns the encoded bitrate (kbit/s) of the best stream
// matching the probe expression.
func (e *Estimator) probeBitrate(ctx context.Context, url string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.ProbeTimeout)
	defer cancel()

	result := e.runner.Run(ctx, e.cfg.Ytdlp,
		"--format", formatProbe1080,
		"--print", probeTemplate,
		"--no-warnings",
		url,
	)
	if !result.IsSuccess() {
		return 0, &EstimateError{Reason: fmt.Sprintf("yt-dlp exited %d: %s", result.ExitCode, result.StderrTail)}
	}

	kbps := parseProbeBitrate(result.Stdout)
	e.cfg.Logger.Debug("probed source bitrate", "kbps", kbps)
	return kbps, nil
}

// parseProbeBitrate pulls the tbr field out of the probe's
// "format_id,filesize,tbr" line. An unparsable field degrades to 0, which
// produces a zero-byte estimate rather than an error.
func parseProbeBitrate(stdout string) float64 {
	line := firstLine(stdout)
	fields := strings.Split(line, ",")
	if len(fields) < 3 {
		return 0
	}
	kbps, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
	if err != nil {
		return 0
	}
	return kbps
}

// FormatSize renders a byte count with one decimal place at 1024
// thresholds. Below 1 KB the raw byte count is shown.
func FormatSize(bytes int64) string {
	switch {
	case bytes < 1024:
		return fmt.Sprintf("%d B", bytes)
	case bytes < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	case bytes < 1024*1024*1024:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
	default:
		return fmt.Sprintf("%.1f GB", float64(bytes)/(1024*1024*1024))
	}
}
