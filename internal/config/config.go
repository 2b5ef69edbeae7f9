// Package config provides configuration management for the SliceTube service.
// Configuration is loaded from environment variables with sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	// Default values
	DefaultPort     = 8690
	DefaultLogLevel = "info"
	DefaultDataDir  = ".slicetube"

	// Environment variable names
	EnvPort     = "SLICETUBE_PORT"
	EnvLogLevel = "SLICETUBE_LOG_LEVEL"
	EnvDataDir  = "SLICETUBE_DATA_DIR"
	EnvTempDir  = "SLICETUBE_TMP_DIR"
	EnvYtdlp    = "SLICETUBE_YTDLP"
	EnvFFmpeg   = "SLICETUBE_FFMPEG"

	// Database filename
	DBFilename = "slicetube.db"

	// Tool timeout defaults. The external tools get a bounded wall-clock
	// budget; an expired context kills the process.
	DefaultProbeTimeout    = 30  // seconds
	DefaultResolveTimeout  = 60  // seconds
	DefaultDownloadTimeout = 600 // 10 minutes
	DefaultCutTimeout      = 600 // 10 minutes
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	TempDir() string
	YtdlpPath() string
	FFmpegPath() string
	ProbeTimeout() time.Duration
	ResolveTimeout() time.Duration
	DownloadTimeout() time.Duration
	CutTimeout() time.Duration
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port     int
	logLevel string
	dataDir  string
	tempDir  string
	ytdlp    string
	ffmpeg   string
}

// New creates a new EnvConfig with defaults and environment variable overrides
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:     DefaultPort,
		logLevel: DefaultLogLevel,
		dataDir:  defaultDataDir(),
		tempDir:  os.TempDir(),
	}

	// Override port from environment
	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	// Override log level from environment
	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	// Override data directory from environment
	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	// Override temp directory from environment
	if td := os.Getenv(EnvTempDir); td != "" {
		cfg.tempDir = td
	}

	cfg.ytdlp = os.Getenv(EnvYtdlp)
	cfg.ffmpeg = os.Getenv(EnvFFmpeg)

	return cfg, nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// TempDir returns the directory for transient download/cut artifacts
func (c *EnvConfig) TempDir() string {
	return c.tempDir
}

// YtdlpPath returns the configured yt-dlp binary path; empty means auto-detect
func (c *EnvConfig) YtdlpPath() string {
	return c.ytdlp
}

// FFmpegPath returns the configured ffmpeg binary path; empty means auto-detect
func (c *EnvConfig) FFmpegPath() string {
	return c.ffmpeg
}

func (c *EnvConfig) ProbeTimeout() time.Duration {
	return time.Duration(DefaultProbeTimeout) * time.Second
}

func (c *EnvConfig) ResolveTimeout() time.Duration {
	return time.Duration(DefaultResolveTimeout) * time.Second
}

func (c *EnvConfig) DownloadTimeout() time.Duration {
	return time.Duration(DefaultDownloadTimeout) * time.Second
}

func (c *EnvConfig) CutTimeout() time.Duration {
	return time.Duration(DefaultCutTimeout) * time.Second
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
