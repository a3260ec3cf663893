package discovery

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/zippoxer/codex-search/core"
	"github.com/zippoxer/codex-search/storage"
)

const (
	// DefaultScanLimit is the number of newest session files considered.
	DefaultScanLimit = 400

	// DefaultPreviewChars caps message previews.
	DefaultPreviewChars = 240

	// DefaultWatchDebounce is how long a file must stay quiet before a watch
	// event for it is processed.
	DefaultWatchDebounce = 300 * time.Millisecond

	maxWalkDepth = 8
)

// Discoverer loads sessions from one sessions directory.
type Discoverer struct {
	root          string
	scanLimit     int
	previewChars  int
	workers       int
	cache         storage.SessionCache
	watchEnabled  bool
	watchDebounce time.Duration
	onLoaded      func(path string)
	logger        *slog.Logger
}

type Option func(*Discoverer) error

// WithScanLimit sets how many of the newest files are considered.
func WithScanLimit(limit int) Option {
	return func(d *Discoverer) error {
		if limit < 0 {
			return ErrInvalidScanLimit
		}
		d.scanLimit = limit
		return nil
	}
}

// WithPreviewChars sets the message preview length in characters.
func WithPreviewChars(chars int) Option {
	return func(d *Discoverer) error {
		if chars < 0 {
			return ErrInvalidPreviewChars
		}
		d.previewChars = chars
		return nil
	}
}

// WithWorkers sets how many files Collect parses concurrently.
// Default is GOMAXPROCS.
func WithWorkers(workers int) Option {
	return func(d *Discoverer) error {
		if workers < 1 {
			return ErrInvalidWorkers
		}
		d.workers = workers
		return nil
	}
}

// WithCache consults cache before parsing a file and stores fresh parses in it.
func WithCache(cache storage.SessionCache) Option {
	return func(d *Discoverer) error {
		d.cache = cache
		return nil
	}
}

// WithWatch keeps streams open after the initial paths and emits sessions for
// log files created or written under the root. A debounce of zero or less
// uses DefaultWatchDebounce.
func WithWatch(debounce time.Duration) Option {
	return func(d *Discoverer) error {
		if debounce <= 0 {
			debounce = DefaultWatchDebounce
		}
		d.watchEnabled = true
		d.watchDebounce = debounce
		return nil
	}
}

// WithProgress registers a callback invoked once per processed path, whether
// or not it produced a session. It may be called from several goroutines.
func WithProgress(fn func(path string)) Option {
	return func(d *Discoverer) error {
		d.onLoaded = fn
		return nil
	}
}

// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(d *Discoverer) error {
		if logger == nil {
			logger = slog.Default()
		}
		d.logger = logger
		return nil
	}
}

func New(root string, opts ...Option) (*Discoverer, error) {
	if root == "" {
		return nil, ErrRootRequired
	}
	d := &Discoverer{
		root:          filepath.Clean(root),
		scanLimit:     DefaultScanLimit,
		previewChars:  DefaultPreviewChars,
		workers:       runtime.GOMAXPROCS(0),
		watchDebounce: DefaultWatchDebounce,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}

	return d, nil
}

// Root returns the sessions directory.
func (d *Discoverer) Root() string {
	return d.root
}

// RootExists reports whether the sessions directory exists.
func (d *Discoverer) RootExists() bool {
	info, err := os.Stat(d.root)
	return err == nil && info.IsDir()
}

// ScanLimit returns the configured scan limit.
func (d *Discoverer) ScanLimit() int {
	return d.scanLimit
}

// Watching reports whether streams keep watching the root for new logs.
func (d *Discoverer) Watching() bool {
	return d.watchEnabled
}

// Widen returns a copy of d that considers limit files.
func (d *Discoverer) Widen(limit int) (*Discoverer, error) {
	if limit < 0 {
		return nil, ErrInvalidScanLimit
	}
	clone := *d
	clone.scanLimit = limit
	return &clone, nil
}

type pathEntry struct {
	path    string
	modTime time.Time
}

// Paths walks the root and returns up to ScanLimit session logs, most
// recently modified first. A missing root yields no paths.
func (d *Discoverer) Paths(ctx context.Context) ([]string, error) {
	if !d.RootExists() {
		d.logger.Debug("sessions directory missing", "root", d.root)
		return nil, nil
	}

	baseDepth := strings.Count(d.root, string(filepath.Separator))
	var entries []pathEntry
	err := filepath.WalkDir(d.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped, the walk goes on.
			if entry != nil && entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if entry.IsDir() {
			if strings.Count(path, string(filepath.Separator))-baseDepth >= maxWalkDepth {
				return fs.SkipDir
			}
			return nil
		}
		if !entry.Type().IsRegular() || !IsSessionLog(path) {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return nil
		}
		entries = append(entries, pathEntry{path: path, modTime: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", d.root, err)
	}

	slices.SortStableFunc(entries, func(a, b pathEntry) int {
		return b.modTime.Compare(a.modTime)
	})
	if len(entries) > d.scanLimit {
		entries = entries[:d.scanLimit]
	}

	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.path
	}
	return paths, nil
}

// IsSessionLog reports whether path has a .jsonl extension, in any case.
func IsSessionLog(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".jsonl")
}

// Load parses the session stored at path, going through the cache when one
// is configured. A file without retained messages returns an error wrapping
// core.ErrNoMessages.
func (d *Discoverer) Load(ctx context.Context, path string) (*core.Session, error) {
	if !IsSessionLog(path) {
		return nil, fmt.Errorf("%w: %s", ErrNotSessionLog, path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading session metadata: %w", err)
	}
	stamp := storage.FileStamp{
		Path:         path,
		ModTime:      info.ModTime(),
		Size:         info.Size(),
		PreviewChars: d.previewChars,
	}

	if d.cache != nil {
		session, err := d.cache.GetSession(ctx, stamp)
		switch {
		case err == nil:
			return session, nil
		case errors.Is(err, storage.ErrNotFound), errors.Is(err, storage.ErrStale),
			errors.Is(err, storage.ErrUnsupportedVersion):
		default:
			d.logger.Warn("error reading session cache", "path", path, "err", err)
		}
	}

	session, err := LoadFile(path, info.ModTime(), d.previewChars)
	if err != nil {
		return nil, err
	}

	if d.cache != nil {
		if err := d.cache.PutSession(ctx, stamp, session); err != nil {
			d.logger.Warn("error writing session cache", "path", path, "err", err)
		}
	}
	return session, nil
}

// load wraps Load for batch callers: failures are logged and reported as a
// nil session.
func (d *Discoverer) load(ctx context.Context, path string) *core.Session {
	defer d.loaded(path)
	session, err := d.Load(ctx, path)
	switch {
	case err == nil:
		return session
	case errors.Is(err, core.ErrNoMessages):
		d.logger.Debug("skipping session without messages", "path", path)
	case ctx.Err() != nil:
	default:
		d.logger.Warn("error loading session", "path", path, "err", err)
	}
	return nil
}

func (d *Discoverer) loaded(path string) {
	if d.onLoaded != nil {
		d.onLoaded(path)
	}
}

// Collect walks the root and parses the resulting paths.
func (d *Discoverer) Collect(ctx context.Context) ([]*core.Session, error) {
	paths, err := d.Paths(ctx)
	if err != nil {
		return nil, err
	}
	return d.CollectPaths(ctx, paths)
}

// CollectPaths parses paths in parallel. The returned sessions keep the
// order of paths; files that fail or hold no messages are left out.
func (d *Discoverer) CollectPaths(ctx context.Context, paths []string) ([]*core.Session, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	pool, err := ants.NewPool(min(d.workers, len(paths)))
	if err != nil {
		return nil, fmt.Errorf("creating parse pool: %w", err)
	}
	defer pool.Release()

	slots := make([]*core.Session, len(paths))
	var wg sync.WaitGroup
	for i, path := range paths {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			slots[i] = d.load(ctx, path)
		})
		if submitErr != nil {
			wg.Done()
			d.logger.Error("error submitting parse task", "path", path, "err", submitErr)
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sessions := make([]*core.Session, 0, len(slots))
	for _, s := range slots {
		if s != nil {
			sessions = append(sessions, s)
		}
	}
	d.logger.Debug("collected sessions", "paths", len(paths), "sessions", len(sessions))
	return sessions, nil
}
