// Package session coordinates a single user's trim workflow: the selected
// range, debounced size estimates, and the single-flight export trigger.
// A Session is an explicitly constructed object handed to UI bindings; it
// is not process-wide state.
package session

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/slicetube/slicetube/internal/media"
	"github.com/slicetube/slicetube/internal/platform"
)

// DefaultQuietWindow is the debounce interval: range edits inside it
// collapse into one estimate pair.
const DefaultQuietWindow = 500 * time.Millisecond

// Estimator is the size-estimate dependency (satisfied by *media.Estimator).
type Estimator interface {
	Estimate(ctx context.Context, ref platform.VideoReference, rng media.TimeRange, format media.Format) (media.Estimate, error)
}

// Exporter is the segment-export dependency (satisfied by *media.Exporter).
type Exporter interface {
	Export(ctx context.Context, ref platform.VideoReference, rng media.TimeRange, format media.Format) (*media.Artifact, error)
}

// Saver delivers a finished artifact to the user under its suggested
// filename.
type Saver func(artifact *media.Artifact) error

// SizeEstimate is the current {video, audio} size pair. A nil entry means
// unknown or stale, never zero.
type SizeEstimate struct {
	Video *string
	Audio *string
}

type Config struct {
	Estimator   Estimator
	Exporter    Exporter
	Save        Saver
	QuietWindow time.Duration // zero means DefaultQuietWindow
	Logger      *slog.Logger
}

type Session struct {
	estimator Estimator
	exporter  Exporter
	save      Saver
	quiet     time.Duration
	logger    *slog.Logger

	mu           sync.Mutex
	ref          *platform.VideoReference
	duration     float64
	start, end   float64
	isProcessing bool
	lastError    string
	estimate     SizeEstimate
	seq          uint64
	timer        *time.Timer
}

func New(cfg Config) *Session {
	quiet := cfg.QuietWindow
	if quiet == 0 {
		quiet = DefaultQuietWindow
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Session{
		estimator: cfg.Estimator,
		exporter:  cfg.Exporter,
		save:      cfg.Save,
		quiet:     quiet,
		logger:    logger,
	}
}

// LoadURL classifies a freshly submitted URL and resets the session state
// around it. A false return is the user-facing "invalid URL" condition.
func (s *Session) LoadURL(rawURL string) bool {
	ref, ok := platform.Classify(rawURL)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.invalidateLocked()
	s.duration = 0
	s.start = 0
	s.end = 0
	s.lastError = ""
	if !ok {
		s.ref = nil
		return false
	}
	s.ref = &ref
	return true
}

// SetDuration records the playback duration once metadata has loaded and
// resets the range to the full video.
func (s *Session) SetDuration(duration float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.duration = duration
	s.start = 0
	s.end = duration
	s.invalidateLocked()
}

// SetStart clamps the new start into [0, end-1] and schedules a
// re-estimate.
func (s *Session) SetStart(start float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.start = max(0, min(start, s.end-1))
	s.scheduleEstimateLocked()
}

// SetEnd clamps the new end into [start+1, duration] and schedules a
// re-estimate.
func (s *Session) SetEnd(end float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.end = min(s.duration, max(end, s.start+1))
	s.scheduleEstimateLocked()
}

// SetRange applies both edges of a drag in one call.
func (s *Session) SetRange(start, end float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.start = max(0, min(start, s.end-1))
	s.end = min(s.duration, max(end, s.start+1))
	s.scheduleEstimateLocked()
}

// Range returns the current clamped trim window.
func (s *Session) Range() media.TimeRange {
	s.mu.Lock()
	defer s.mu.Unlock()
	return media.TimeRange{Start: s.start, End: s.end}
}

// Estimate returns the current size pair; nil entries are unknown/stale.
func (s *Session) Estimate() SizeEstimate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.estimate
}

func (s *Session) IsProcessing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isProcessing
}

func (s *Session) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// invalidateLocked discards the current estimate pair and supersedes any
// in-flight estimate calls.
func (s *Session) invalidateLocked() {
	s.seq++
	s.estimate = SizeEstimate{}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// scheduleEstimateLocked restarts the quiet-window timer. Only one pending
// timer exists at a time; each edit cancels and restarts it.
func (s *Session) scheduleEstimateLocked() {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.quiet, s.fireEstimate)
}

// fireEstimate runs one video+audio estimate pair concurrently and applies
// the results atomically. A pair that was superseded while in flight is
// discarded, so a slow early response can never overwrite a newer one.
func (s *Session) fireEstimate() {
	s.mu.Lock()
	if s.ref == nil || s.duration == 0 || s.start == s.end {
		s.estimate = SizeEstimate{}
		s.mu.Unlock()
		return
	}
	s.seq++
	mySeq := s.seq
	ref := *s.ref
	rng := media.TimeRange{Start: s.start, End: s.end}
	s.mu.Unlock()

	var video, audio *string
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		video = s.estimateOne(ref, rng, media.FormatVideo)
	}()
	go func() {
		defer wg.Done()
		audio = s.estimateOne(ref, rng, media.FormatAudio)
	}()
	wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seq != mySeq {
		// superseded while in flight
		return
	}
	s.estimate = SizeEstimate{Video: video, Audio: audio}
}

// estimateOne returns the formatted size, or nil on failure: a failed
// estimate degrades to "unavailable" without disturbing its sibling.
func (s *Session) estimateOne(ref platform.VideoReference, rng media.TimeRange, format media.Format) *string {
	est, err := s.estimator.Estimate(context.Background(), ref, rng, format)
	if err != nil {
		s.logger.Debug("size estimate unavailable", "format", format, "error", err)
		return nil
	}
	return &est.Size
}

// Export runs one export for the current range. It is a no-op while a
// previous export is still in flight; on success the artifact is handed to
// the Saver, on failure the error message is retained for the UI.
func (s *Session) Export(ctx context.Context, format media.Format) error {
	s.mu.Lock()
	if s.isProcessing || s.ref == nil {
		s.mu.Unlock()
		return nil
	}
	s.isProcessing = true
	s.lastError = ""
	ref := *s.ref
	rng := media.TimeRange{Start: s.start, End: s.end}
	s.mu.Unlock()

	artifact, err := s.exporter.Export(ctx, ref, rng, format)
	if err == nil && s.save != nil {
		err = s.save(artifact)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.isProcessing = false
	if err != nil {
		s.lastError = err.Error()
		return err
	}
	return nil
}
