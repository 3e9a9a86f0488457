package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	MediaDir string `toml:"media_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
}

// Grouping tunes the stack grouping engine.
type Grouping struct {
	// BracketWindowMS is the largest capture gap, in milliseconds, between
	// consecutive frames of one exposure bracket.
	BracketWindowMS int `toml:"bracket_window_ms"`
}

// Ingest limits upload batches.
type Ingest struct {
	MaxBatchFiles int `toml:"max_batch_files"`
	MaxFileMiB    int `toml:"max_file_mib"`
}

// Directives configures retouch cost advisories.
type Directives struct {
	Currency string `toml:"currency"`
	// Surcharges overrides the per-flag surcharge in minor currency units
	// (cents). Keys are retouch flag names such as "day_to_dusk".
	Surcharges map[string]int64 `toml:"surcharges"`
}

// Backend selects where authoritative job state lives.
type Backend struct {
	Mode           string `toml:"mode"`
	URL            string `toml:"url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	APIToken       string `toml:"api_token"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Lichtwerk.
//
// Configuration sections by subsystem:
//   - Paths: data, media, and log directories plus the API bind address
//   - Grouping: bracket detection window
//   - Ingest: upload batch limits
//   - Directives: currency and retouch surcharges for cost advisories
//   - Backend: sqlite (local store) or http (remote lichtwerkd)
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Grouping   Grouping   `toml:"grouping"`
	Ingest     Ingest     `toml:"ingest"`
	Directives Directives `toml:"directives"`
	Backend    Backend    `toml:"backend"`
	Logging    Logging    `toml:"logging"`
}

// Load reads the configuration at path, or the first existing candidate
// when path is empty, then applies defaults, environment overrides and
// validation. It reports the resolved file and whether it existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolved, exists, err := locate(path)
	if err != nil {
		return nil, "", false, err
	}
	if exists {
		if err := decodeFile(resolved, &cfg); err != nil {
			return nil, "", false, err
		}
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return fmt.Errorf("parse config %s:%d:%d: %w", path, row, col, err)
		}
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// EnsureDirectories creates the data, media and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.MediaDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "lichtwerk.db")
}

// LockPath returns the daemon single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "lichtwerkd.lock")
}

// LogPath returns the daemon log file location.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "lichtwerk.log")
}

// BracketWindow returns the grouping window as a duration.
func (c *Config) BracketWindow() time.Duration {
	return time.Duration(c.Grouping.BracketWindowMS) * time.Millisecond
}

// BackendTimeout returns the HTTP backend request timeout.
func (c *Config) BackendTimeout() time.Duration {
	return time.Duration(c.Backend.TimeoutSeconds) * time.Second
}

// MaxFileBytes returns the per-file upload limit in bytes.
func (c *Config) MaxFileBytes() int64 {
	return int64(c.Ingest.MaxFileMiB) << 20
}
