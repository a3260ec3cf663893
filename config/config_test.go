package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.NotNil(t, cfg)
	assert.Equal(t, 20, cfg.Limit)
	assert.Equal(t, 60, cfg.ContextChars)
	assert.Equal(t, 80*time.Millisecond, cfg.DebounceInterval)
	assert.Equal(t, 20, cfg.IngestCapPerTick)
	assert.Equal(t, 1, cfg.IndexTickBudget)
	assert.Equal(t, 30*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 4096, cfg.MatchCacheSize)
	assert.Equal(t, 400, cfg.ScanLimit)
	assert.Equal(t, 1000, cfg.ExpandedScanLimit)
	assert.Equal(t, 240, cfg.PreviewChars)
	assert.Equal(t, DefaultResumeCommand, cfg.ResumeCommand)
	assert.Empty(t, cfg.CacheDir)
	assert.False(t, cfg.Watch)

	if home, err := os.UserHomeDir(); err == nil {
		assert.Equal(t, filepath.Join(home, ".codex", "sessions"), cfg.SessionsDir)
	}
}

func TestNew(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := New()
		assert.Equal(t, Default(), cfg)
	})

	t.Run("with multiple options", func(t *testing.T) {
		cfg := New(
			WithLimit(5),
			WithContextChars(10),
			WithDebounceInterval(time.Second),
			WithIngestCap(3),
			WithIndexTickBudget(2),
			WithPollInterval(time.Millisecond),
			WithMatchCacheSize(0),
			WithScanLimit(50),
			WithPreviewChars(80),
			WithSessionsDir("/tmp/sessions"),
			WithResumeCommand("echo {uuid}"),
			WithCacheDir("/tmp/cache"),
			WithWatch(true),
		)

		assert.Equal(t, 5, cfg.Limit)
		assert.Equal(t, 10, cfg.ContextChars)
		assert.Equal(t, time.Second, cfg.DebounceInterval)
		assert.Equal(t, 3, cfg.IngestCapPerTick)
		assert.Equal(t, 2, cfg.IndexTickBudget)
		assert.Equal(t, time.Millisecond, cfg.PollInterval)
		assert.Zero(t, cfg.MatchCacheSize)
		assert.Equal(t, 50, cfg.ScanLimit)
		assert.Equal(t, 80, cfg.PreviewChars)
		assert.Equal(t, "/tmp/sessions", cfg.SessionsDir)
		assert.Equal(t, "echo {uuid}", cfg.ResumeCommand)
		assert.Equal(t, "/tmp/cache", cfg.CacheDir)
		assert.True(t, cfg.Watch)
		require.NoError(t, cfg.Validate())
	})

	t.Run("later options win", func(t *testing.T) {
		cfg := New(WithLimit(5), WithLimit(7))
		assert.Equal(t, 7, cfg.Limit)
	})
}

func TestFromEnv(t *testing.T) {
	env := func(vars map[string]string) func(string) string {
		return func(key string) string { return vars[key] }
	}

	t.Run("applies every variable", func(t *testing.T) {
		cfg := New(FromEnv(env(map[string]string{
			EnvScanLimit:   "25",
			EnvResume:      "my-codex resume {uuid}",
			EnvSessionsDir: "/data/sessions",
		})))

		assert.Equal(t, 25, cfg.ScanLimit)
		assert.Equal(t, "my-codex resume {uuid}", cfg.ResumeCommand)
		assert.Equal(t, "/data/sessions", cfg.SessionsDir)
	})

	t.Run("invalid scan limit is ignored", func(t *testing.T) {
		for _, v := range []string{"lots", "-3", "1.5"} {
			cfg := New(FromEnv(env(map[string]string{EnvScanLimit: v})))
			assert.Equal(t, 400, cfg.ScanLimit, v)
		}
	})

	t.Run("flags applied after the environment win", func(t *testing.T) {
		cfg := New(
			FromEnv(env(map[string]string{EnvScanLimit: "25"})),
			WithScanLimit(30),
		)
		assert.Equal(t, 30, cfg.ScanLimit)
	})

	t.Run("unset variables keep defaults", func(t *testing.T) {
		cfg := New(FromEnv(env(nil)))
		assert.Equal(t, Default(), cfg)
	})
}

func TestConfig_Normalize(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	cfg := New(WithSessionsDir("~/sessions"), WithCacheDir("~"))
	cfg.Normalize()

	assert.Equal(t, filepath.Join(home, "sessions"), cfg.SessionsDir)
	assert.Equal(t, home, cfg.CacheDir)

	cfg = New(WithSessionsDir("~other/sessions"))
	cfg.Normalize()
	assert.Equal(t, "~other/sessions", cfg.SessionsDir)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    []ConfigOption
		wantErr bool
	}{
		{name: "defaults", opts: []ConfigOption{WithSessionsDir("/s")}},
		{name: "zero limit", opts: []ConfigOption{WithSessionsDir("/s"), WithLimit(0)}, wantErr: true},
		{name: "zero context", opts: []ConfigOption{WithSessionsDir("/s"), WithContextChars(0)}, wantErr: true},
		{name: "negative debounce", opts: []ConfigOption{WithSessionsDir("/s"), WithDebounceInterval(-time.Millisecond)}, wantErr: true},
		{name: "zero debounce", opts: []ConfigOption{WithSessionsDir("/s"), WithDebounceInterval(0)}},
		{name: "zero ingest cap", opts: []ConfigOption{WithSessionsDir("/s"), WithIngestCap(0)}, wantErr: true},
		{name: "zero index budget", opts: []ConfigOption{WithSessionsDir("/s"), WithIndexTickBudget(0)}, wantErr: true},
		{name: "zero poll interval", opts: []ConfigOption{WithSessionsDir("/s"), WithPollInterval(0)}, wantErr: true},
		{name: "negative cache size", opts: []ConfigOption{WithSessionsDir("/s"), WithMatchCacheSize(-1)}, wantErr: true},
		{name: "negative scan limit", opts: []ConfigOption{WithSessionsDir("/s"), WithScanLimit(-1)}, wantErr: true},
		{name: "zero preview", opts: []ConfigOption{WithSessionsDir("/s"), WithPreviewChars(0)}, wantErr: true},
		{name: "missing sessions dir", opts: []ConfigOption{WithSessionsDir("")}, wantErr: true},
		{name: "blank resume command", opts: []ConfigOption{WithSessionsDir("/s"), WithResumeCommand("  ")}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.opts...).Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidConfig))
				return
			}
			assert.NoError(t, err)
		})
	}
}
