package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SD_HTTP_ADDR", "SD_TICK_INTERVAL", "SD_FEED_INTERVAL", "SD_RECONNECT_DELAY",
		"SD_SOURCE_VIDEO", "SD_HLS_DIR", "SD_STATE_FILE", "SD_NATS_URL", "SD_BOUNDS_FILE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	c, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if c.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q", c.HTTPAddr)
	}
	if c.TickInterval != 3*time.Second {
		t.Errorf("TickInterval = %v", c.TickInterval)
	}
	if c.FeedInterval != time.Second {
		t.Errorf("FeedInterval = %v", c.FeedInterval)
	}
	if c.ReconnectDelay != 3*time.Second {
		t.Errorf("ReconnectDelay = %v", c.ReconnectDelay)
	}
	if c.HLSDir != "data/hls" {
		t.Errorf("HLSDir = %q", c.HLSDir)
	}
	if c.Bounds != DefaultBounds() {
		t.Errorf("Bounds = %+v", c.Bounds)
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("SD_HTTP_ADDR", ":9191")
	t.Setenv("SD_TICK_INTERVAL", "500ms")
	t.Setenv("SD_SOURCE_VIDEO", "/media/darshan.mp4")
	t.Setenv("SD_NATS_URL", "nats://localhost:4222")

	c, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if c.HTTPAddr != ":9191" {
		t.Errorf("HTTPAddr = %q", c.HTTPAddr)
	}
	if c.TickInterval != 500*time.Millisecond {
		t.Errorf("TickInterval = %v", c.TickInterval)
	}
	if c.SourceVideo != "/media/darshan.mp4" {
		t.Errorf("SourceVideo = %q", c.SourceVideo)
	}
	if c.NATSURL != "nats://localhost:4222" {
		t.Errorf("NATSURL = %q", c.NATSURL)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv("SD_TICK_INTERVAL", "three seconds")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unparseable duration")
	}
}

func TestLoadBoundsFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bounds.toml")
	body := "footfall_min = 1000\nfootfall_max = 8000\ndensity_delta = 12\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SD_BOUNDS_FILE", path)

	c, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if c.Bounds.FootfallMin != 1000 || c.Bounds.FootfallMax != 8000 {
		t.Errorf("footfall bounds = %d..%d", c.Bounds.FootfallMin, c.Bounds.FootfallMax)
	}
	if c.Bounds.DensityDelta != 12 {
		t.Errorf("DensityDelta = %d", c.Bounds.DensityDelta)
	}
	// Fields the file omits keep their defaults.
	if c.Bounds.QueueDelta != DefaultBounds().QueueDelta {
		t.Errorf("QueueDelta = %d, want default", c.Bounds.QueueDelta)
	}
}

func TestLoadRejectsInvertedFootfallBounds(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bounds.toml")
	if err := os.WriteFile(path, []byte("footfall_min = 9000\nfootfall_max = 100\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SD_BOUNDS_FILE", path)

	if _, err := Load(); err == nil {
		t.Fatal("expected error for inverted footfall bounds")
	}
}
