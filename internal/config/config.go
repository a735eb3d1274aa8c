package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/alfredjeanlab/proofgraph/internal/layout"
)

type Config struct {
	LogLevel  slog.Level // PROOFGRAPH_LOG_LEVEL (default "info")
	LogFormat string     // PROOFGRAPH_LOG_FORMAT ("text" or "json", default "text")
	NATSURL   string     // PROOFGRAPH_NATS_URL (optional, empty = no events)

	// Remote plan and result sources
	S3Region   string // PROOFGRAPH_S3_REGION (default "us-east-1")
	S3Endpoint string // PROOFGRAPH_S3_ENDPOINT (custom endpoint for MinIO)

	// External verifier
	Verifier        string        // PROOFGRAPH_VERIFIER (default "vehicle")
	VerifierTimeout time.Duration // PROOFGRAPH_VERIFIER_TIMEOUT (default 30m; 0 = no limit)

	LayoutFile string        // PROOFGRAPH_LAYOUT_FILE (optional TOML overrides)
	Layout     layout.Config // defaults merged with LayoutFile
}

func Load() (*Config, error) {
	c := &Config{
		LogFormat:  strings.ToLower(envOrDefault("PROOFGRAPH_LOG_FORMAT", "text")),
		NATSURL:    os.Getenv("PROOFGRAPH_NATS_URL"),
		S3Region:   envOrDefault("PROOFGRAPH_S3_REGION", "us-east-1"),
		S3Endpoint: os.Getenv("PROOFGRAPH_S3_ENDPOINT"),
		Verifier:   envOrDefault("PROOFGRAPH_VERIFIER", "vehicle"),
		LayoutFile: os.Getenv("PROOFGRAPH_LAYOUT_FILE"),
		Layout:     layout.DefaultConfig(),
	}

	if err := c.LogLevel.UnmarshalText([]byte(envOrDefault("PROOFGRAPH_LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("PROOFGRAPH_LOG_LEVEL: %w", err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return nil, fmt.Errorf("PROOFGRAPH_LOG_FORMAT: must be text or json, got %q", c.LogFormat)
	}

	timeoutStr := envOrDefault("PROOFGRAPH_VERIFIER_TIMEOUT", "30m")
	d, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("PROOFGRAPH_VERIFIER_TIMEOUT: %w", err)
	}
	c.VerifierTimeout = d

	if c.LayoutFile != "" {
		lc, err := LoadLayout(c.LayoutFile)
		if err != nil {
			return nil, fmt.Errorf("PROOFGRAPH_LAYOUT_FILE: %w", err)
		}
		c.Layout = lc
	}

	return c, nil
}

// LoadLayout reads layout overrides from a TOML file. Keys missing from the
// file keep their default values.
func LoadLayout(path string) (layout.Config, error) {
	lc := layout.DefaultConfig()
	md, err := toml.DecodeFile(path, &lc)
	if err != nil {
		return layout.Config{}, fmt.Errorf("reading %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return layout.Config{}, fmt.Errorf("%s: unknown layout keys %v", path, undecoded)
	}
	if err := lc.Validate(); err != nil {
		return layout.Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return lc, nil
}

// Logger builds the process logger from LogLevel and LogFormat.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
