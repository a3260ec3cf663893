// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Environment variables read by FromEnv.
const (
	EnvScanLimit   = "CODEX_SEARCH_SCAN_LIMIT"
	EnvResume      = "CODEX_SEARCH_RESUME"
	EnvSessionsDir = "CODEX_SEARCH_SESSIONS_DIR"
)

// DefaultResumeCommand resumes a session with the Codex CLI. {uuid} is
// replaced with the selected session's uuid.
const DefaultResumeCommand = "codex --search resume {uuid}"

// Config holds search and ingestion settings.
type Config struct {
	// Limit is the maximum number of results returned or displayed.
	// Default: 20
	Limit int

	// ContextChars is the snippet half-width in characters.
	// Default: 60
	ContextChars int

	// DebounceInterval is the minimum time between two ranking jobs.
	// Default: 80ms
	DebounceInterval time.Duration

	// IngestCapPerTick bounds how many sessions one pipeline tick ingests.
	// Default: 20
	IngestCapPerTick int

	// IndexTickBudget is the coarse index work done per pipeline tick, in
	// chunks.
	// Default: 1
	IndexTickBudget int

	// PollInterval is how often the interactive surface ticks the pipeline.
	// Default: 30ms
	PollInterval time.Duration

	// MatchCacheSize is the number of cached per-session text matches.
	// Default: 4096
	MatchCacheSize int

	// ScanLimit is the maximum number of session files loaded, newest first.
	// Default: 400
	ScanLimit int

	// ExpandedScanLimit is the scan limit used when a batch search finds
	// fewer results than requested.
	// Default: 1000
	ExpandedScanLimit int

	// PreviewChars caps the per-message preview length.
	// Default: 240
	PreviewChars int

	// SessionsDir is the root of the session transcript tree.
	// Default: ~/.codex/sessions
	SessionsDir string

	// ResumeCommand is the shell command run for a selected session.
	// Default: DefaultResumeCommand
	ResumeCommand string

	// CacheDir enables the on-disk parse cache when set.
	// Default: "" (disabled)
	CacheDir string

	// Watch keeps discovery running and streams newly created session files.
	// Default: false
	Watch bool

	// WatchDebounce coalesces bursts of file events per path.
	// Default: 300ms
	WatchDebounce time.Duration
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithLimit sets the result limit.
func WithLimit(limit int) ConfigOption {
	return func(c *Config) {
		c.Limit = limit
	}
}

// WithContextChars sets the snippet half-width.
func WithContextChars(chars int) ConfigOption {
	return func(c *Config) {
		c.ContextChars = chars
	}
}

// WithDebounceInterval sets the minimum time between ranking jobs.
func WithDebounceInterval(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.DebounceInterval = d
	}
}

// WithIngestCap sets how many sessions one pipeline tick ingests.
func WithIngestCap(n int) ConfigOption {
	return func(c *Config) {
		c.IngestCapPerTick = n
	}
}

// WithIndexTickBudget sets the coarse index work per tick.
func WithIndexTickBudget(n int) ConfigOption {
	return func(c *Config) {
		c.IndexTickBudget = n
	}
}

// WithPollInterval sets the interactive tick cadence.
func WithPollInterval(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.PollInterval = d
	}
}

// WithMatchCacheSize sets the match cache capacity. Zero disables it.
func WithMatchCacheSize(n int) ConfigOption {
	return func(c *Config) {
		c.MatchCacheSize = n
	}
}

// WithScanLimit sets the maximum number of session files loaded.
func WithScanLimit(n int) ConfigOption {
	return func(c *Config) {
		c.ScanLimit = n
	}
}

// WithPreviewChars sets the per-message preview length.
func WithPreviewChars(n int) ConfigOption {
	return func(c *Config) {
		c.PreviewChars = n
	}
}

// WithSessionsDir sets the sessions root.
func WithSessionsDir(dir string) ConfigOption {
	return func(c *Config) {
		c.SessionsDir = dir
	}
}

// WithResumeCommand sets the resume command template.
func WithResumeCommand(cmd string) ConfigOption {
	return func(c *Config) {
		c.ResumeCommand = cmd
	}
}

// WithCacheDir enables the parse cache under dir.
func WithCacheDir(dir string) ConfigOption {
	return func(c *Config) {
		c.CacheDir = dir
	}
}

// WithWatch enables streaming of newly created session files.
func WithWatch(watch bool) ConfigOption {
	return func(c *Config) {
		c.Watch = watch
	}
}

// FromEnv applies the CODEX_SEARCH_* variables found through getenv.
// Unparsable numbers are ignored.
func FromEnv(getenv func(string) string) ConfigOption {
	return func(c *Config) {
		if v := getenv(EnvScanLimit); v != "" {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n >= 0 {
				c.ScanLimit = n
			}
		}
		if v := getenv(EnvResume); v != "" {
			c.ResumeCommand = v
		}
		if v := getenv(EnvSessionsDir); v != "" {
			c.SessionsDir = v
		}
	}
}

// Default returns a Config with the default values. SessionsDir is left
// empty when the home directory cannot be determined.
func Default() *Config {
	sessionsDir, _ := DefaultSessionsDir()
	return &Config{
		Limit:             20,
		ContextChars:      60,
		DebounceInterval:  80 * time.Millisecond,
		IngestCapPerTick:  20,
		IndexTickBudget:   1,
		PollInterval:      30 * time.Millisecond,
		MatchCacheSize:    4096,
		ScanLimit:         400,
		ExpandedScanLimit: 1000,
		PreviewChars:      240,
		SessionsDir:       sessionsDir,
		ResumeCommand:     DefaultResumeCommand,
		WatchDebounce:     300 * time.Millisecond,
	}
}

// New creates a Config with the default values and applies the provided
// options in order.
func New(opts ...ConfigOption) *Config {
	cfg := Default()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// DefaultSessionsDir returns ~/.codex/sessions.
func DefaultSessionsDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoHomeDir, err)
	}
	return filepath.Join(home, ".codex", "sessions"), nil
}

// Normalize expands a leading ~ in directory settings.
func (c *Config) Normalize() {
	c.SessionsDir = expandHome(c.SessionsDir)
	c.CacheDir = expandHome(c.CacheDir)
}

// Validate checks that the configuration is usable. It normalizes the
// configuration first.
func (c *Config) Validate() error {
	c.Normalize()

	switch {
	case c.Limit < 1:
		return fmt.Errorf("%w: limit must be positive", ErrInvalidConfig)
	case c.ContextChars < 1:
		return fmt.Errorf("%w: context chars must be positive", ErrInvalidConfig)
	case c.DebounceInterval < 0:
		return fmt.Errorf("%w: debounce interval cannot be negative", ErrInvalidConfig)
	case c.IngestCapPerTick < 1:
		return fmt.Errorf("%w: ingest cap must be positive", ErrInvalidConfig)
	case c.IndexTickBudget < 1:
		return fmt.Errorf("%w: index tick budget must be positive", ErrInvalidConfig)
	case c.PollInterval <= 0:
		return fmt.Errorf("%w: poll interval must be positive", ErrInvalidConfig)
	case c.MatchCacheSize < 0:
		return fmt.Errorf("%w: match cache size cannot be negative", ErrInvalidConfig)
	case c.ScanLimit < 0:
		return fmt.Errorf("%w: scan limit cannot be negative", ErrInvalidConfig)
	case c.PreviewChars < 1:
		return fmt.Errorf("%w: preview chars must be positive", ErrInvalidConfig)
	case c.SessionsDir == "":
		return fmt.Errorf("%w: sessions dir is required", ErrInvalidConfig)
	case strings.TrimSpace(c.ResumeCommand) == "":
		return fmt.Errorf("%w: resume command is required", ErrInvalidConfig)
	case c.Watch && c.WatchDebounce <= 0:
		return fmt.Errorf("%w: watch debounce must be positive", ErrInvalidConfig)
	}
	return nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
