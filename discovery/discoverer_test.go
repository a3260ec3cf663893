package discovery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zippoxer/codex-search/core"
	"github.com/zippoxer/codex-search/storage"
	"github.com/zippoxer/codex-search/storage/badger"
)

var baseModTime = time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)

func userLine(text string) string {
	return fmt.Sprintf(`{"type":"response_item","payload":{"type":"message","role":"user","content":[{"type":"input_text","text":%q}]}}`, text)
}

// writeLog writes a session log under root and backdates it by age.
func writeLog(t *testing.T, root, rel string, age time.Duration, lines ...string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	mtime := baseModTime.Add(-age)
	require.NoError(t, os.Chtimes(path, mtime, mtime))
	return path
}

func sessionFixtures(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeLog(t, root, "2025/04/01/rollout-2025-04-01T10-00-00-aaaa.jsonl", 3*time.Hour, userLine("fix the login bug"))
	writeLog(t, root, "2025/04/01/rollout-2025-04-01T11-00-00-bbbb.jsonl", 2*time.Hour, userLine("update docs"))
	writeLog(t, root, "2025/04/01/rollout-2025-04-01T12-00-00-cccc.JSONL", time.Hour, userLine("log rotate"))
	writeLog(t, root, "2025/04/01/empty-2025-04-01T12-30-00-dddd.jsonl", 30*time.Minute,
		userLine("<user_instructions>be terse</user_instructions>"))
	writeLog(t, root, "2025/04/01/notes.txt", 0, "not a session")
	return root
}

func uuids(sessions []*core.Session) []string {
	out := make([]string, len(sessions))
	for i, s := range sessions {
		out[i] = s.UUID
	}
	return out
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		root    string
		opts    []Option
		wantErr error
	}{
		{name: "defaults", root: "/tmp"},
		{name: "empty root", root: "", wantErr: ErrRootRequired},
		{name: "negative scan limit", root: "/tmp", opts: []Option{WithScanLimit(-1)}, wantErr: ErrInvalidScanLimit},
		{name: "negative preview", root: "/tmp", opts: []Option{WithPreviewChars(-1)}, wantErr: ErrInvalidPreviewChars},
		{name: "zero workers", root: "/tmp", opts: []Option{WithWorkers(0)}, wantErr: ErrInvalidWorkers},
		{name: "nil logger", root: "/tmp", opts: []Option{WithLogger(nil)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := New(tt.root, tt.opts...)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, DefaultScanLimit, d.ScanLimit())
			assert.NotNil(t, d.logger)
		})
	}
}

func TestWithWatch(t *testing.T) {
	tests := []struct {
		name         string
		opts         []Option
		wantWatching bool
		wantDebounce time.Duration
	}{
		{name: "off by default", wantDebounce: DefaultWatchDebounce},
		{name: "default debounce", opts: []Option{WithWatch(0)}, wantWatching: true, wantDebounce: DefaultWatchDebounce},
		{name: "custom debounce", opts: []Option{WithWatch(50 * time.Millisecond)}, wantWatching: true, wantDebounce: 50 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := New(t.TempDir(), tt.opts...)
			require.NoError(t, err)
			assert.Equal(t, tt.wantWatching, d.Watching())
			assert.Equal(t, tt.wantDebounce, d.watchDebounce)

			wide, err := d.Widen(10)
			require.NoError(t, err)
			assert.Equal(t, tt.wantWatching, wide.Watching())
		})
	}
}

func TestDiscoverer_Paths(t *testing.T) {
	root := sessionFixtures(t)
	ctx := context.Background()

	t.Run("newest first and jsonl only", func(t *testing.T) {
		d, err := New(root)
		require.NoError(t, err)

		paths, err := d.Paths(ctx)
		require.NoError(t, err)
		require.Len(t, paths, 4)
		assert.Contains(t, paths[0], "dddd")
		assert.Contains(t, paths[1], "cccc")
		assert.Contains(t, paths[3], "aaaa")
	})

	t.Run("scan limit keeps the newest", func(t *testing.T) {
		d, err := New(root, WithScanLimit(2))
		require.NoError(t, err)

		paths, err := d.Paths(ctx)
		require.NoError(t, err)
		require.Len(t, paths, 2)
		assert.Contains(t, paths[1], "cccc")

		wide, err := d.Widen(10)
		require.NoError(t, err)
		paths, err = wide.Paths(ctx)
		require.NoError(t, err)
		assert.Len(t, paths, 4)
		assert.Equal(t, 2, d.ScanLimit())
	})

	t.Run("missing root", func(t *testing.T) {
		d, err := New(filepath.Join(root, "nope"))
		require.NoError(t, err)
		assert.False(t, d.RootExists())

		paths, err := d.Paths(ctx)
		require.NoError(t, err)
		assert.Empty(t, paths)
	})

	t.Run("depth limit", func(t *testing.T) {
		deep := t.TempDir()
		writeLog(t, deep, "1/2/3/4/5/6/7/in-2025-01-01T00-00-00-0001.jsonl", 0, userLine("x"))
		writeLog(t, deep, "1/2/3/4/5/6/7/8/out-2025-01-01T00-00-00-0002.jsonl", 0, userLine("y"))
		d, err := New(deep)
		require.NoError(t, err)

		paths, err := d.Paths(ctx)
		require.NoError(t, err)
		require.Len(t, paths, 1)
		assert.Contains(t, paths[0], "0001")
	})
}

func TestDiscoverer_Collect(t *testing.T) {
	root := sessionFixtures(t)
	var loaded atomic.Int32
	d, err := New(root, WithWorkers(3), WithProgress(func(string) { loaded.Add(1) }))
	require.NoError(t, err)

	sessions, err := d.Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"cccc", "bbbb", "aaaa"}, uuids(sessions))
	assert.Equal(t, int32(4), loaded.Load(), "every path reports progress, empty ones included")

	s := sessions[0]
	assert.Equal(t, "rollout", s.Label)
	assert.True(t, s.UpdatedAt.Equal(baseModTime.Add(-time.Hour)))
	assert.Equal(t, time.Date(2025, 4, 1, 12, 0, 0, 0, time.Local).Unix(), s.CreatedAt.Unix())
}

func TestDiscoverer_CollectCancelled(t *testing.T) {
	root := sessionFixtures(t)
	d, err := New(root)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = d.Collect(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDiscoverer_Load(t *testing.T) {
	root := sessionFixtures(t)
	ctx := context.Background()

	t.Run("not a log", func(t *testing.T) {
		d, err := New(root)
		require.NoError(t, err)
		_, err = d.Load(ctx, filepath.Join(root, "2025/04/01/notes.txt"))
		assert.ErrorIs(t, err, ErrNotSessionLog)
	})

	t.Run("meta only", func(t *testing.T) {
		d, err := New(root)
		require.NoError(t, err)
		_, err = d.Load(ctx, filepath.Join(root, "2025/04/01/empty-2025-04-01T12-30-00-dddd.jsonl"))
		assert.ErrorIs(t, err, core.ErrNoMessages)
	})

	t.Run("cache is filled and invalidated", func(t *testing.T) {
		cache, err := badger.NewMemoryCache()
		require.NoError(t, err)
		defer cache.Close()

		d, err := New(root, WithCache(cache))
		require.NoError(t, err)

		path := filepath.Join(root, "2025/04/01/rollout-2025-04-01T11-00-00-bbbb.jsonl")
		first, err := d.Load(ctx, path)
		require.NoError(t, err)

		count, err := cache.CountSessions(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		info, err := os.Stat(path)
		require.NoError(t, err)
		cached, err := cache.GetSession(ctx, storage.FileStamp{
			Path: path, ModTime: info.ModTime(), Size: info.Size(), PreviewChars: DefaultPreviewChars,
		})
		require.NoError(t, err)
		assert.Equal(t, first.SearchBlob, cached.SearchBlob)

		writeLog(t, root, "2025/04/01/rollout-2025-04-01T11-00-00-bbbb.jsonl", 0,
			userLine("update docs"), userLine("and the changelog"))
		second, err := d.Load(ctx, path)
		require.NoError(t, err)
		assert.Len(t, second.Messages, 2)
	})
}
