package media

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/slicetube/slicetube/internal/platform"
)

// ffmpeg rejects stream copy with this diagnostic when the container or
// codec cannot be cut without re-encoding; it is the only failure that
// earns a fallback attempt.
const streamCopySignature = "Error while copying"

// ExporterConfig holds the Exporter's tool and filesystem settings.
type ExporterConfig struct {
	FFmpeg     string
	TempDir    string
	CutTimeout time.Duration
	Logger     *slog.Logger
}

// Exporter produces trimmed artifacts. Per call it resolves the source,
// attempts a fast stream-copy cut, falls back to a re-encode when stream
// copy is rejected (video only), and owns the lifecycle of every temp file
// it touches.
type Exporter struct {
	cfg     ExporterConfig
	locator *Locator
	runner  Runner
}

func NewExporter(cfg ExporterConfig, locator *Locator, runner Runner) *Exporter {
	return &Exporter{cfg: cfg, locator: locator, runner: runner}
}

// Export cuts rng out of ref and returns the finished artifact. No temp
// file survives this call on any branch.
func (e *Exporter) Export(ctx context.Context, ref platform.VideoReference, rng TimeRange, format Format) (*Artifact, error) {
	src, err := e.locator.Locate(ctx, ref, PurposeExport)
	if err != nil {
		return nil, err
	}

	input := src.URL
	if src.Kind == SourceLocalFile {
		input = src.Path
	}

	ext := ".mp4"
	if format == FormatAudio {
		ext = ".mp3"
	}
	outPath := filepath.Join(e.cfg.TempDir, uuid.NewString()+ext)

	result := e.runCut(ctx, fastCutArgs(input, rng, format, outPath))

	if !result.IsSuccess() && format == FormatVideo && strings.Contains(result.StderrTail, streamCopySignature) {
		e.cfg.Logger.Warn("stream copy rejected, retrying with re-encode",
			"exit_code", result.ExitCode)
		result = e.runCut(ctx, transcodeArgs(input, rng, outPath))
	}

	// The downloaded input is single-use; drop it as soon as the toolchain
	// is done with it, before judging the outcome.
	if src.Kind == SourceLocalFile {
		if err := os.Remove(src.Path); err != nil && !os.IsNotExist(err) {
			e.cfg.Logger.Warn("failed to remove input temp file", "error", err)
		}
	}

	if !result.IsSuccess() {
		removeQuiet(outPath, e.cfg.Logger)
		return nil, &ExportError{Message: fmt.Sprintf("ffmpeg exited %d: %s", result.ExitCode, result.StderrTail)}
	}

	data, err := os.ReadFile(outPath)
	removeQuiet(outPath, e.cfg.Logger)
	if err != nil {
		return nil, &ExportError{Message: fmt.Sprintf("read output: %v", err)}
	}

	contentType, filename := "video/mp4", "trimmed.mp4"
	if format == FormatAudio {
		contentType, filename = "audio/mpeg", "trimmed.mp3"
	}

	e.cfg.Logger.Info("export complete",
		"platform", ref.Platform,
		"format", format,
		"clip_seconds", rng.Duration(),
		"size", humanize.Bytes(uint64(len(data))),
	)

	return &Artifact{
		Data:        data,
		ContentType: contentType,
		Filename:    filename,
	}, nil
}

func (e *Exporter) runCut(ctx context.Context, args []string) RunResult {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.CutTimeout)
	defer cancel()
	return e.runner.Run(ctx, e.cfg.FFmpeg, args...)
}

// fastCutArgs builds the seek-then-duration trim. Video uses stream copy;
// audio always encodes to mp3 at a fixed VBR quality.
func fastCutArgs(input string, rng TimeRange, format Format, outPath string) []string {
	args := []string{
		"-y",
		"-ss", formatSeconds(rng.Start),
		"-i", input,
		"-t", formatSeconds(rng.Duration()),
	}
	if format == FormatAudio {
		args = append(args,
			"-vn",
			"-c:a", "libmp3lame",
			"-q:a", "2",
			"-metadata", "title=Trimmed with SliceTube",
			outPath,
		)
	} else {
		args = append(args,
			"-c", "copy",
			"-avoid_negative_ts", "make_zero",
			"-movflags", "+faststart",
			outPath,
		)
	}
	return args
}

// transcodeArgs builds the full re-encode used when stream copy is
// rejected: fixed-quality x264 video, standard-rate AAC audio.
func transcodeArgs(input string, rng TimeRange, outPath string) []string {
	return []string{
		"-y",
		"-ss", formatSeconds(rng.Start),
		"-i", input,
		"-t", formatSeconds(rng.Duration()),
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "23",
		"-c:a", "aac",
		"-b:a", "192k",
		"-movflags", "+faststart",
		outPath,
	}
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func removeQuiet(path string, logger *slog.Logger) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.Warn("failed to remove temp file", "path", filepath.Base(path), "error", err)
	}
}
