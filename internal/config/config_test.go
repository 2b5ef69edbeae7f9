package config

import (
	"os"
	"testing"
	"time"
)

func TestPort_Default(t *testing.T) {
	os.Unsetenv(EnvPort)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port() != DefaultPort {
		t.Errorf("default Port = %d, want %d", cfg.Port(), DefaultPort)
	}
}

func TestPort_FromEnv(t *testing.T) {
	os.Setenv(EnvPort, "9999")
	defer os.Unsetenv(EnvPort)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port() != 9999 {
		t.Errorf("Port = %d, want 9999", cfg.Port())
	}
}

func TestPort_Invalid(t *testing.T) {
	tests := []string{"not-a-number", "0", "65536", "-1"}
	for _, v := range tests {
		os.Setenv(EnvPort, v)
		if _, err := New(); err == nil {
			t.Errorf("New() with %s=%q expected error", EnvPort, v)
		}
	}
	os.Unsetenv(EnvPort)
}

func TestTempDir_Default(t *testing.T) {
	os.Unsetenv(EnvTempDir)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.TempDir() != os.TempDir() {
		t.Errorf("default TempDir = %q, want %q", cfg.TempDir(), os.TempDir())
	}
}

func TestTempDir_FromEnv(t *testing.T) {
	os.Setenv(EnvTempDir, "/var/tmp/slicetube")
	defer os.Unsetenv(EnvTempDir)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.TempDir() != "/var/tmp/slicetube" {
		t.Errorf("TempDir = %q, want /var/tmp/slicetube", cfg.TempDir())
	}
}

func TestToolPaths_FromEnv(t *testing.T) {
	os.Setenv(EnvYtdlp, "/opt/bin/yt-dlp")
	os.Setenv(EnvFFmpeg, "/opt/bin/ffmpeg")
	defer os.Unsetenv(EnvYtdlp)
	defer os.Unsetenv(EnvFFmpeg)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.YtdlpPath() != "/opt/bin/yt-dlp" {
		t.Errorf("YtdlpPath = %q", cfg.YtdlpPath())
	}
	if cfg.FFmpegPath() != "/opt/bin/ffmpeg" {
		t.Errorf("FFmpegPath = %q", cfg.FFmpegPath())
	}
}

func TestTimeouts_Bounded(t *testing.T) {
	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ProbeTimeout() != 30*time.Second {
		t.Errorf("ProbeTimeout = %v", cfg.ProbeTimeout())
	}
	if cfg.CutTimeout() != 10*time.Minute {
		t.Errorf("CutTimeout = %v", cfg.CutTimeout())
	}
	if cfg.DownloadTimeout() <= 0 || cfg.ResolveTimeout() <= 0 {
		t.Error("timeouts must be positive")
	}
}

func TestDBPath_UnderDataDir(t *testing.T) {
	os.Setenv(EnvDataDir, "/srv/slicetube")
	defer os.Unsetenv(EnvDataDir)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DBPath() != "/srv/slicetube/"+DBFilename {
		t.Errorf("DBPath = %q", cfg.DBPath())
	}
}
