package codexsearch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/zippoxer/codex-search/config"
	"github.com/zippoxer/codex-search/core"
	"github.com/zippoxer/codex-search/discovery"
	"github.com/zippoxer/codex-search/ingestion"
	"github.com/zippoxer/codex-search/search"
	"github.com/zippoxer/codex-search/storage"
	"github.com/zippoxer/codex-search/storage/badger"
)

// Engine discovers sessions and builds searchers and pipelines over them.
type Engine struct {
	cfg        *config.Config
	cache      storage.SessionCache
	ownsCache  bool
	discoverer *discovery.Discoverer
	logger     *slog.Logger

	mu     sync.Mutex
	closed bool
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	logger   *slog.Logger
	cache    storage.SessionCache
	progress func(path string)
}

// WithLogger sets the logger handed to every component. Default is slog.Default().
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// WithSessionCache uses cache instead of opening one from Config.CacheDir.
// The engine does not close a cache it was given.
func WithSessionCache(cache storage.SessionCache) EngineOption {
	return func(o *engineOptions) {
		o.cache = cache
	}
}

// WithProgress is called once per session file processed.
func WithProgress(fn func(path string)) EngineOption {
	return func(o *engineOptions) {
		o.progress = fn
	}
}

// NewEngine validates cfg and prepares discovery. When cfg.CacheDir is set
// a badger parse cache is opened there.
func NewEngine(cfg *config.Config, opts ...EngineOption) (*Engine, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &engineOptions{}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	e := &Engine{
		cfg:    cfg,
		cache:  options.cache,
		logger: options.logger,
	}

	if e.cache == nil && cfg.CacheDir != "" {
		cache, err := badger.NewSessionCache(cfg.CacheDir, e.logger)
		if err != nil {
			return nil, fmt.Errorf("opening session cache: %w", err)
		}
		e.cache = cache
		e.ownsCache = true
	}

	discoveryOpts := []discovery.Option{
		discovery.WithScanLimit(cfg.ScanLimit),
		discovery.WithPreviewChars(cfg.PreviewChars),
		discovery.WithCache(e.cache),
		discovery.WithProgress(options.progress),
		discovery.WithLogger(e.logger),
	}
	if cfg.Watch {
		discoveryOpts = append(discoveryOpts, discovery.WithWatch(cfg.WatchDebounce))
	}
	d, err := discovery.New(cfg.SessionsDir, discoveryOpts...)
	if err != nil {
		e.closeCache()
		return nil, err
	}
	e.discoverer = d

	return e, nil
}

func (e *Engine) closeCache() {
	if e.ownsCache && e.cache != nil {
		if err := e.cache.Close(); err != nil {
			e.logger.Error("error closing session cache", "err", err)
		}
	}
}

// Close releases the parse cache if the engine opened it.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true

	if e.ownsCache && e.cache != nil {
		if err := e.cache.Close(); err != nil {
			e.logger.Error("error closing session cache", "err", err)
			return err
		}
	}
	return nil
}

func (e *Engine) check() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrEngineClosed
	}
	return nil
}

// Config returns the engine's validated configuration.
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// SessionsRoot returns the sessions directory.
func (e *Engine) SessionsRoot() string {
	return e.discoverer.Root()
}

// RootExists reports whether the sessions directory exists.
func (e *Engine) RootExists() bool {
	return e.discoverer.RootExists()
}

// CollectSessions loads the newest Config.ScanLimit sessions.
func (e *Engine) CollectSessions(ctx context.Context) ([]*core.Session, error) {
	return e.CollectSessionsWithLimit(ctx, e.cfg.ScanLimit)
}

// CollectSessionsWithLimit loads the newest scanLimit sessions.
func (e *Engine) CollectSessionsWithLimit(ctx context.Context, scanLimit int) ([]*core.Session, error) {
	if err := e.check(); err != nil {
		return nil, err
	}
	d, err := e.discoverer.Widen(scanLimit)
	if err != nil {
		return nil, err
	}
	return d.Collect(ctx)
}

// StreamSessions starts loading the newest Config.ScanLimit sessions in the
// background. With Config.Watch the stream stays open until ctx is done.
func (e *Engine) StreamSessions(ctx context.Context) (*discovery.Stream, error) {
	return e.StreamSessionsWithLimit(ctx, e.cfg.ScanLimit)
}

// StreamSessionsWithLimit is StreamSessions with an explicit scan limit.
func (e *Engine) StreamSessionsWithLimit(ctx context.Context, scanLimit int) (*discovery.Stream, error) {
	if err := e.check(); err != nil {
		return nil, err
	}
	d, err := e.discoverer.Widen(scanLimit)
	if err != nil {
		return nil, err
	}
	paths, err := d.Paths(ctx)
	if err != nil {
		return nil, err
	}
	return d.Stream(ctx, paths), nil
}

// NewSearcher returns a batch searcher configured from Config. opts are
// applied after the configured defaults.
func (e *Engine) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	base := []search.Option{
		search.WithLimit(e.cfg.Limit),
		search.WithContextChars(e.cfg.ContextChars),
		search.WithLogger(e.logger),
	}
	return search.NewSearcher(append(base, opts...)...)
}

// NewPipeline streams sessions into a new live pipeline. The pipeline must
// be released by the caller; cancelling ctx stops the stream.
func (e *Engine) NewPipeline(ctx context.Context, query string, opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	stream, err := e.StreamSessions(ctx)
	if err != nil {
		return nil, err
	}
	base := []ingestion.Option{
		ingestion.WithConfig(e.cfg),
		ingestion.WithLogger(e.logger),
		ingestion.WithTotalHint(stream.Total()),
	}
	return ingestion.NewPipeline(stream.Sessions(), query, append(base, opts...)...)
}

// Search loads sessions and ranks them against query in one pass.
func (e *Engine) Search(ctx context.Context, query string) ([]*core.SearchResult, error) {
	sessions, err := e.CollectSessions(ctx)
	if err != nil {
		return nil, err
	}
	searcher, err := e.NewSearcher()
	if err != nil {
		return nil, err
	}
	return searcher.Search(sessions, query), nil
}
