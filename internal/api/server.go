package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/slicetube/slicetube/internal/history"
	"github.com/slicetube/slicetube/internal/media"
	"github.com/slicetube/slicetube/internal/platform"
)

// SourceLocator resolves or downloads playable media (satisfied by
// *media.Locator).
type SourceLocator interface {
	Locate(ctx context.Context, ref platform.VideoReference, purpose media.Purpose) (media.ResolvedSource, error)
}

// SizeEstimator predicts export sizes (satisfied by *media.Estimator).
type SizeEstimator interface {
	Estimate(ctx context.Context, ref platform.VideoReference, rng media.TimeRange, format media.Format) (media.Estimate, error)
}

// SegmentExporter produces trimmed artifacts (satisfied by *media.Exporter).
type SegmentExporter interface {
	Export(ctx context.Context, ref platform.VideoReference, rng media.TimeRange, format media.Format) (*media.Artifact, error)
}

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

type ServerConfig struct {
	Port      int
	Locator   SourceLocator
	Estimator SizeEstimator
	Exporter  SegmentExporter
	History   history.Repository
	Logger    *slog.Logger
	StartTime time.Time
}

func NewServer(cfg ServerConfig) *Server {
	router := NewRouter(cfg)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("127.0.0.1:%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 0,
			IdleTimeout:  60 * time.Second,
		},
		logger: cfg.Logger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}
