package search

import (
	"log/slog"
	"slices"
	"time"

	"github.com/zippoxer/codex-search/core"
)

// Searcher ranks finite session collections with fixed settings. A Searcher
// may be shared; every call builds its own Scorer.
type Searcher struct {
	limit        int
	contextChars int
	clock        func() time.Time
	cache        *MatchCache
	logger       *slog.Logger
}

type Option func(*Searcher) error

// WithLimit sets how many results Search returns. Default is 20.
func WithLimit(limit int) Option {
	return func(s *Searcher) error {
		if limit < 1 {
			return ErrInvalidLimit
		}
		s.limit = limit
		return nil
	}
}

// WithContextChars sets the snippet half-width. Default is DefaultContextChars.
func WithContextChars(chars int) Option {
	return func(s *Searcher) error {
		if chars < 1 {
			return ErrInvalidContext
		}
		s.contextChars = chars
		return nil
	}
}

// WithClock sets the time source for recency bonuses. Default is time.Now.
func WithClock(clock func() time.Time) Option {
	return func(s *Searcher) error {
		if clock == nil {
			return ErrClockRequired
		}
		s.clock = clock
		return nil
	}
}

// WithMatchCache memoizes text matches across calls.
func WithMatchCache(cache *MatchCache) Option {
	return func(s *Searcher) error {
		s.cache = cache
		return nil
	}
}

// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

func NewSearcher(opts ...Option) (*Searcher, error) {
	s := &Searcher{
		limit:        20,
		contextChars: DefaultContextChars,
		clock:        time.Now,
		logger:       slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Limit returns the configured result limit.
func (s *Searcher) Limit() int {
	return s.limit
}

// Search ranks a finite batch. Sessions are visited newest file first so
// results with equal timestamps and scores come out in a stable order.
func (s *Searcher) Search(sessions []*core.Session, query string) []*core.SearchResult {
	return s.SearchWithMonitor(sessions, query, nil)
}

func (s *Searcher) SearchWithMonitor(sessions []*core.Session, query string, monitor RankMonitor) []*core.SearchResult {
	ordered := slices.Clone(sessions)
	slices.SortStableFunc(ordered, func(a, b *core.Session) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return s.rank(ordered, query, s.limit, monitor)
}

// Rank scores candidates in the order given and keeps the best limit.
func (s *Searcher) Rank(candidates []*core.Session, query string, limit int) []*core.SearchResult {
	return s.rank(candidates, query, limit, nil)
}

func (s *Searcher) rank(candidates []*core.Session, query string, limit int, monitor RankMonitor) []*core.SearchResult {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	start := time.Now()
	scorer := NewScorer(query,
		WithNow(s.clock()),
		WithSnippetContext(s.contextChars),
		WithCache(s.cache),
	)
	results := rankWith(scorer, candidates, limit, monitor)

	s.logger.Debug("ranked sessions",
		"query", scorer.Query(),
		"candidates", len(candidates),
		"results", len(results),
		"elapsed", time.Since(start))
	return results
}
