package codexsearch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zippoxer/codex-search/config"
	"github.com/zippoxer/codex-search/ingestion"
)

func writeSession(t *testing.T, root, uuid, text string, age time.Duration) {
	t.Helper()
	path := filepath.Join(root, "2025", "06", "01", fmt.Sprintf("rollout-2025-06-01T10-00-00-%s.jsonl", uuid))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	line := fmt.Sprintf(`{"type":"response_item","payload":{"type":"message","role":"user","content":[{"type":"input_text","text":%q}]}}`, text)
	require.NoError(t, os.WriteFile(path, []byte(line+"\n"), 0o644))
	mtime := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	writeSession(t, root, "aaaa", "fix the login bug", 3*time.Hour)
	writeSession(t, root, "bbbb", "update docs", 2*time.Hour)
	writeSession(t, root, "cccc", "log rotate", time.Hour)
	return config.New(config.WithSessionsDir(root), config.WithDebounceInterval(time.Millisecond))
}

func TestNewEngine(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		_, err := NewEngine(nil)
		assert.ErrorIs(t, err, ErrConfigRequired)
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Limit = 0
		_, err := NewEngine(cfg)
		assert.ErrorIs(t, err, config.ErrInvalidConfig)
	})

	t.Run("cache directory", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.CacheDir = filepath.Join(t.TempDir(), "cache")
		engine, err := NewEngine(cfg)
		require.NoError(t, err)
		require.NotNil(t, engine.cache)

		_, err = engine.CollectSessions(context.Background())
		require.NoError(t, err)
		count, err := engine.cache.CountSessions(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 3, count)
		require.NoError(t, engine.Close())
	})

	t.Run("cache path is a file", func(t *testing.T) {
		cfg := testConfig(t)
		file := filepath.Join(t.TempDir(), "not_a_dir")
		require.NoError(t, os.WriteFile(file, []byte("test"), 0o644))
		cfg.CacheDir = file
		engine, err := NewEngine(cfg)
		assert.Error(t, err)
		assert.Nil(t, engine)
	})
}

func TestEngine_Search(t *testing.T) {
	engine, err := NewEngine(testConfig(t))
	require.NoError(t, err)
	defer engine.Close()

	results, err := engine.Search(context.Background(), "login")
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "aaaa", results[0].Session.UUID)

	all, err := engine.Search(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.True(t, engine.RootExists())
}

func TestEngine_CollectSessionsWithLimit(t *testing.T) {
	engine, err := NewEngine(testConfig(t))
	require.NoError(t, err)
	defer engine.Close()

	sessions, err := engine.CollectSessionsWithLimit(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "cccc", sessions[0].UUID)
}

func TestEngine_NewPipeline(t *testing.T) {
	engine, err := NewEngine(testConfig(t))
	require.NoError(t, err)
	defer engine.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p, err := engine.NewPipeline(ctx, "docs", ingestion.WithEmptyStatus("nothing here"))
	require.NoError(t, err)
	defer p.Release()

	deadline := time.Now().Add(2 * time.Second)
	for !(p.Finished() && len(p.Results()) == 1) {
		require.True(t, time.Now().Before(deadline), "pipeline never settled: %+v", p.Stats())
		p.Tick()
		time.Sleep(time.Millisecond)
	}
	assert.Equal(t, "bbbb", p.Results()[0].Session.UUID)
	assert.Equal(t, "indexed 3/3", p.Status())
}

func TestEngine_Close(t *testing.T) {
	engine, err := NewEngine(testConfig(t))
	require.NoError(t, err)

	require.NoError(t, engine.Close())
	require.NoError(t, engine.Close())

	_, err = engine.CollectSessions(context.Background())
	assert.ErrorIs(t, err, ErrEngineClosed)
}
