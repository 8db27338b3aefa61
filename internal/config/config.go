package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all recognized server options.
type Config struct {
	HTTPAddr       string        // SD_HTTP_ADDR (default ":8080")
	TickInterval   time.Duration // SD_TICK_INTERVAL (default 3s)
	FeedInterval   time.Duration // SD_FEED_INTERVAL (default 1s)
	ReconnectDelay time.Duration // SD_RECONNECT_DELAY (default 3s; client-side agents)
	SourceVideo    string        // SD_SOURCE_VIDEO (path to looped source media; empty = streaming disabled)
	HLSDir         string        // SD_HLS_DIR (default "data/hls")
	StateFile      string        // SD_STATE_FILE (optional flat-file snapshot; empty = no persistence)
	NATSURL        string        // SD_NATS_URL (optional, empty = no events)
	BoundsFile     string        // SD_BOUNDS_FILE (optional TOML overriding simulation bounds)

	Bounds Bounds
}

// Bounds are the closed ranges and walk magnitudes the simulation uses.
// Every numeric field the ticker perturbs is clamped into one of these.
type Bounds struct {
	FootfallMin      int `toml:"footfall_min"`
	FootfallMax      int `toml:"footfall_max"`
	FootfallDeltaLo  int `toml:"footfall_delta_lo"`
	FootfallDeltaHi  int `toml:"footfall_delta_hi"`
	DensityDelta     int `toml:"density_delta"`
	CongestionMin    int `toml:"congestion_min"`
	CongestionMax    int `toml:"congestion_max"`
	CongestionDelta  int `toml:"congestion_delta"`
	RateDelta        int `toml:"rate_delta"`
	QueueDelta       int `toml:"queue_delta"`
	HealthDelta      int `toml:"health_delta"`
}

// DefaultBounds returns the ranges the dashboard shipped with.
func DefaultBounds() Bounds {
	return Bounds{
		FootfallMin:     5000,
		FootfallMax:     20000,
		FootfallDeltaLo: -30,
		FootfallDeltaHi: 100,
		DensityDelta:    5,
		CongestionMin:   10,
		CongestionMax:   90,
		CongestionDelta: 7,
		RateDelta:       6,
		QueueDelta:      25,
		HealthDelta:     5,
	}
}

// Load reads configuration from the environment, then overlays the bounds
// file when one is configured.
func Load() (*Config, error) {
	c := &Config{
		HTTPAddr:    envOrDefault("SD_HTTP_ADDR", ":8080"),
		SourceVideo: os.Getenv("SD_SOURCE_VIDEO"),
		HLSDir:      envOrDefault("SD_HLS_DIR", "data/hls"),
		StateFile:   os.Getenv("SD_STATE_FILE"),
		NATSURL:     os.Getenv("SD_NATS_URL"),
		BoundsFile:  os.Getenv("SD_BOUNDS_FILE"),
		Bounds:      DefaultBounds(),
	}

	var err error
	if c.TickInterval, err = durationEnv("SD_TICK_INTERVAL", 3*time.Second); err != nil {
		return nil, err
	}
	if c.FeedInterval, err = durationEnv("SD_FEED_INTERVAL", time.Second); err != nil {
		return nil, err
	}
	if c.ReconnectDelay, err = durationEnv("SD_RECONNECT_DELAY", 3*time.Second); err != nil {
		return nil, err
	}

	if c.BoundsFile != "" {
		if _, err := toml.DecodeFile(c.BoundsFile, &c.Bounds); err != nil {
			return nil, fmt.Errorf("SD_BOUNDS_FILE: %w", err)
		}
	}
	if c.Bounds.FootfallMin >= c.Bounds.FootfallMax {
		return nil, fmt.Errorf("bounds: footfall_min must be below footfall_max")
	}

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
