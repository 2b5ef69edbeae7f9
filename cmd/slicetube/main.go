package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/slicetube/slicetube/internal/api"
	"github.com/slicetube/slicetube/internal/config"
	"github.com/slicetube/slicetube/internal/db"
	"github.com/slicetube/slicetube/internal/history"
	"github.com/slicetube/slicetube/internal/logging"
	"github.com/slicetube/slicetube/internal/media"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	startTime := time.Now()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	if err := os.MkdirAll(cfg.TempDir(), 0755); err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting slicetube", "version", config.Version, "data_dir", cfg.DataDir())

	ytdlp, err := media.ResolveTool(cfg.YtdlpPath(), "yt-dlp", "youtube-dl")
	if err != nil {
		return fmt.Errorf("yt-dlp unavailable: %w", err)
	}
	ffmpeg, err := media.ResolveTool(cfg.FFmpegPath(), "ffmpeg")
	if err != nil {
		return fmt.Errorf("ffmpeg unavailable: %w", err)
	}
	logger.Info("external tools resolved", "ytdlp", ytdlp, "ffmpeg", ffmpeg)

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := history.NewRepository(database.Conn())

	runner := media.NewExecRunner(logger)

	locator := media.NewLocator(media.LocatorConfig{
		Ytdlp:           ytdlp,
		TempDir:         cfg.TempDir(),
		ResolveTimeout:  cfg.ResolveTimeout(),
		DownloadTimeout: cfg.DownloadTimeout(),
		Logger:          logger,
	}, runner)

	estimator := media.NewEstimator(media.EstimatorConfig{
		Ytdlp:        ytdlp,
		ProbeTimeout: cfg.ProbeTimeout(),
		Logger:       logger,
	}, runner)

	exporter := media.NewExporter(media.ExporterConfig{
		FFmpeg:     ffmpeg,
		TempDir:    cfg.TempDir(),
		CutTimeout: cfg.CutTimeout(),
		Logger:     logger,
	}, locator, runner)

	apiServer := api.NewServer(api.ServerConfig{
		Port:      cfg.Port(),
		Locator:   locator,
		Estimator: estimator,
		Exporter:  exporter,
		History:   repo,
		Logger:    logger,
		StartTime: startTime,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("received shutdown signal", "signal", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}
