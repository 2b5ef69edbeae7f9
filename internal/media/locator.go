package media

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/slicetube/slicetube/internal/logging"
	"github.com/slicetube/slicetube/internal/platform"
)

// yt-dlp format selection expressions. The tool is a black box: given a
// source URL and one of these expressions it emits a playable URL on stdout
// (or writes a file) and exits 0, or emits diagnostics on stderr and exits
// non-zero.
const (
	// Progressive mp4 for direct-URL export; stream copy can cut these
	// without re-encoding.
	formatProgressiveMP4 = "best[ext=mp4]/bestvideo[ext=mp4]+bestaudio[ext=m4a]"
	// H264-only best for opaque-platform downloads.
	formatBestH264 = "best[vcodec^=h264]"
	// H264-preferred for preview playback; falls through to anything
	// playable when no h264 rendition exists.
	formatPreviewH264 = "bestvideo[vcodec^=h264]+bestaudio/best[vcodec^=h264]/best"

	tiktokExtractorArgs = "tiktok:api_hostname=api16-normal-c-useast1a.tiktokv.com"
)

// TikTok's CDN rejects fetches missing this header set.
const (
	tiktokReferer   = "https://www.tiktok.com/"
	tiktokUserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 14_8 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.1.2 Mobile/15E148 Safari/604.1"
)

// OpaqueFetchHeaders returns the header set that must accompany every fetch
// of an opaque-platform media URL.
func OpaqueFetchHeaders() map[string]string {
	return map[string]string{
		"Referer":    tiktokReferer,
		"User-Agent": tiktokUserAgent,
	}
}

// LocatorConfig holds the Locator's tool and filesystem settings.
type LocatorConfig struct {
	Ytdlp           string // resolved yt-dlp binary path
	TempDir         string // directory for downloaded source files
	ResolveTimeout  time.Duration
	DownloadTimeout time.Duration
	Logger          *slog.Logger
}

// Locator resolves a classified video reference into processable media:
// a direct remote URL when the platform's CDN allows it, or a downloaded
// local temp file when it does not. Each call resolves fresh; nothing is
// cached between calls.
type Locator struct {
	cfg    LocatorConfig
	runner Runner
}

func NewLocator(cfg LocatorConfig, runner Runner) *Locator {
	return &Locator{cfg: cfg, runner: runner}
}

// Locate resolves ref for the given purpose. A SourceLocalFile result is
// owned by the caller, which must delete it exactly once.
func (l *Locator) Locate(ctx context.Context, ref platform.VideoReference, purpose Purpose) (ResolvedSource, error) {
	if purpose == PurposePreview {
		return l.resolvePreview(ctx, ref)
	}
	if ref.IsOpaque() {
		return l.download(ctx, ref)
	}
	return l.resolveDirect(ctx, ref)
}

// resolveDirect asks yt-dlp for one progressive stream URL on stdout.
func (l *Locator) resolveDirect(ctx context.Context, ref platform.VideoReference) (ResolvedSource, error) {
	ctx, cancel := context.WithTimeout(ctx, l.cfg.ResolveTimeout)
	defer cancel()

	result := l.runner.Run(ctx, l.cfg.Ytdlp,
		"--format", formatProgressiveMP4,
		"--get-url",
		"--no-warnings",
		ref.RawURL,
	)
	if !result.IsSuccess() {
		return ResolvedSource{}, &LocatorError{Reason: fmt.Sprintf("yt-dlp exited %d: %s", result.ExitCode, result.StderrTail)}
	}

	url := firstLine(result.Stdout)
	if url == "" {
		return ResolvedSource{}, &LocatorError{Reason: "yt-dlp produced no URL"}
	}

	l.cfg.Logger.Info("resolved direct source",
		"platform", ref.Platform,
		"url", logging.SanitizeURL(url),
	)
	return ResolvedSource{Kind: SourceRemoteURL, URL: url}, nil
}

// resolvePreview asks yt-dlp for an H264-preferred playback URL. Opaque
// platforms additionally get the mandatory CDN header set attached.
func (l *Locator) resolvePreview(ctx context.Context, ref platform.VideoReference) (ResolvedSource, error) {
	ctx, cancel := context.WithTimeout(ctx, l.cfg.ResolveTimeout)
	defer cancel()

	result := l.runner.Run(ctx, l.cfg.Ytdlp,
		"--format", formatPreviewH264,
		"--get-url",
		"--no-warnings",
		"--no-playlist",
		"--extractor-args", tiktokExtractorArgs,
		"--add-header", "User-Agent: "+tiktokUserAgent,
		"--add-header", "Accept: text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"--add-header", "Accept-Language: en-us",
		"--add-header", "Accept-Encoding: gzip, deflate, br",
		ref.RawURL,
	)
	if !result.IsSuccess() {
		return ResolvedSource{}, &LocatorError{Reason: fmt.Sprintf("yt-dlp exited %d: %s", result.ExitCode, result.StderrTail)}
	}

	url := firstLine(result.Stdout)
	if url == "" {
		return ResolvedSource{}, &LocatorError{Reason: "yt-dlp produced no URL"}
	}

	src := ResolvedSource{Kind: SourceRemoteURL, URL: url}
	if ref.IsOpaque() {
		src.Headers = OpaqueFetchHeaders()
	}

	l.cfg.Logger.Info("resolved preview source",
		"platform", ref.Platform,
		"url", logging.SanitizeURL(url),
		"headers", len(src.Headers),
	)
	return src, nil
}

// download materializes the full source into a uniquely named temp file.
// Ownership of the file transfers to the caller on success; a partial file
// from a failed download is removed here.
func (l *Locator) download(ctx context.Context, ref platform.VideoReference) (ResolvedSource, error) {
	ctx, cancel := context.WithTimeout(ctx, l.cfg.DownloadTimeout)
	defer cancel()

	path := filepath.Join(l.cfg.TempDir, uuid.NewString()+"_input.mp4")

	result := l.runner.Run(ctx, l.cfg.Ytdlp,
		"--format", formatBestH264,
		"--no-warnings",
		"--no-playlist",
		"-o", path,
		ref.RawURL,
	)
	if !result.IsSuccess() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			l.cfg.Logger.Warn("failed to remove partial download", "error", err)
		}
		return ResolvedSource{}, &LocatorError{Reason: fmt.Sprintf("yt-dlp exited %d: %s", result.ExitCode, result.StderrTail)}
	}

	l.cfg.Logger.Info("downloaded source",
		"platform", ref.Platform,
		"duration_ms", result.Duration.Milliseconds(),
	)
	return ResolvedSource{Kind: SourceLocalFile, Path: path}, nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i != -1 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
