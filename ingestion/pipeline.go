package ingestion

import (
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/zippoxer/codex-search/config"
	"github.com/zippoxer/codex-search/core"
	"github.com/zippoxer/codex-search/index"
	"github.com/zippoxer/codex-search/search"
	"golang.org/x/time/rate"
)

// Stats counts pipeline activity since construction.
type Stats struct {
	Ingested   int
	Filtered   int
	Duplicates int
	Dispatched int
	Dropped    int // jobs replaced before the worker picked them up
	Applied    int
	Discarded  int // results that arrived after a newer job was dispatched
}

// Pipeline orchestrates live ranking over a stream of sessions.
type Pipeline struct {
	stream      <-chan *core.Session
	cfg         *config.Config
	clock       func() time.Time
	filter      func(*core.Session) bool
	rank        RankFunc
	cache       *search.MatchCache
	totalHint   int
	emptyStatus string
	logger      *slog.Logger

	index    *index.Index
	limiter  *rate.Limiter
	worker   *worker
	progress *ProgressTracker

	sessions []*core.Session
	seen     map[core.ID]struct{}
	results  []*core.SearchResult

	query          string
	lastQuery      string
	queryDirty     bool
	resultsDirty   bool
	streamFinished bool

	// generation increases on every ingest or query edit. A job records the
	// generation it was built from; applying it only clears resultsDirty when
	// nothing changed since.
	generation    uint64
	dispatchedGen uint64
	nextJobID     uint64
	pendingJobID  uint64
	haveResults   bool
	stats         Stats
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithConfig sets limits and intervals. Default is config.Default().
func WithConfig(cfg *config.Config) Option {
	return func(p *Pipeline) error {
		if cfg == nil {
			return ErrConfigRequired
		}
		p.cfg = cfg
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithClock sets the time source for debouncing and recency.
// Default is time.Now.
func WithClock(clock func() time.Time) Option {
	return func(p *Pipeline) error {
		if clock == nil {
			return ErrClockRequired
		}
		p.clock = clock
		return nil
	}
}

// WithTotalHint sets the number of sessions the stream is expected to
// deliver. Zero means unknown.
func WithTotalHint(total int) Option {
	return func(p *Pipeline) error {
		if total < 0 {
			return ErrInvalidTotal
		}
		p.totalHint = total
		return nil
	}
}

// WithFilter drops sessions for which keep returns false at ingestion.
func WithFilter(keep func(*core.Session) bool) Option {
	return func(p *Pipeline) error {
		p.filter = keep
		return nil
	}
}

// WithEmptyStatus sets the status shown when the stream finishes without
// delivering any session. Default is "no sessions".
func WithEmptyStatus(status string) Option {
	return func(p *Pipeline) error {
		p.emptyStatus = status
		return nil
	}
}

// WithMatchCache shares a match cache with the ranking worker. By default a
// cache of config.MatchCacheSize entries is created.
func WithMatchCache(cache *search.MatchCache) Option {
	return func(p *Pipeline) error {
		p.cache = cache
		return nil
	}
}

// WithRankFunc replaces the ranking function run by the worker.
func WithRankFunc(rank RankFunc) Option {
	return func(p *Pipeline) error {
		if rank == nil {
			return ErrRankerRequired
		}
		p.rank = rank
		return nil
	}
}

// NewPipeline creates a pipeline reading sessions from stream. The stream
// signals completion by being closed. query is the initial query.
func NewPipeline(stream <-chan *core.Session, query string, opts ...Option) (*Pipeline, error) {
	if stream == nil {
		return nil, ErrStreamRequired
	}

	p := &Pipeline{
		stream:       stream,
		cfg:          config.Default(),
		clock:        time.Now,
		emptyStatus:  "no sessions",
		logger:       slog.Default(),
		seen:         make(map[core.ID]struct{}),
		query:        query,
		queryDirty:   true,
		resultsDirty: true,
		generation:   1,
		nextJobID:    1,
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	idx, err := index.New(index.WithLogger(p.logger))
	if err != nil {
		return nil, err
	}
	p.index = idx

	if p.rank == nil {
		if p.cache == nil && p.cfg.MatchCacheSize > 0 {
			if p.cache, err = search.NewMatchCache(p.cfg.MatchCacheSize); err != nil {
				return nil, err
			}
		}
		searcher, err := search.NewSearcher(
			search.WithLimit(p.cfg.Limit),
			search.WithContextChars(p.cfg.ContextChars),
			search.WithClock(p.clock),
			search.WithMatchCache(p.cache),
			search.WithLogger(p.logger),
		)
		if err != nil {
			return nil, err
		}
		p.rank = searcher.Rank
	}

	// The first rebuild waits a full interval after construction.
	p.limiter = rate.NewLimiter(rate.Every(p.cfg.DebounceInterval), 1)
	p.limiter.AllowN(p.clock(), 1)

	p.progress = NewProgressTracker(nil, p.totalHint, p.cfg.IngestCapPerTick)
	p.progress.Start()

	w, err := newWorker(p.rank, p.logger)
	if err != nil {
		return nil, err
	}
	p.worker = w

	return p, nil
}

// SetQuery replaces the query. The change takes effect on the next Tick.
func (p *Pipeline) SetQuery(query string) {
	if query == p.query {
		return
	}
	p.query = query
	p.queryDirty = true
	p.markDirty()
}

// Query returns the current query.
func (p *Pipeline) Query() string {
	return p.query
}

// Tick advances the pipeline by one step. It never blocks and reports
// whether the displayed results were replaced.
func (p *Pipeline) Tick() bool {
	applied := p.applyResults()
	p.ingest()

	if p.queryDirty {
		appendHint := len(p.query) > len(p.lastQuery) && strings.HasPrefix(p.query, p.lastQuery)
		p.index.Reparse(p.query, appendHint)
		p.lastQuery = p.query
		p.queryDirty = false
		p.resultsDirty = true
	}

	status := p.index.Tick(p.cfg.IndexTickBudget)

	pending := p.resultsDirty && p.generation != p.dispatchedGen
	if (pending || status.Changed) && p.limiter.AllowN(p.clock(), 1) {
		p.dispatch()
	}

	return applied
}

// Results returns the most recently applied ranking.
func (p *Pipeline) Results() []*core.SearchResult {
	return p.results
}

// Sessions returns the ingested sessions in ingestion order.
func (p *Pipeline) Sessions() []*core.Session {
	return p.sessions
}

// Finished reports whether the stream has been closed and drained.
func (p *Pipeline) Finished() bool {
	return p.streamFinished
}

// Progress returns the ingestion progress tracker.
func (p *Pipeline) Progress() *ProgressTracker {
	return p.progress
}

// Stats returns activity counters.
func (p *Pipeline) Stats() Stats {
	return p.stats
}

// Status describes the pipeline state for display: "indexing X/Y" (or
// "indexing X" without a total hint) or "indexed X/Y" while results exist,
// "no matches" once a finished stream yields nothing for the query, and the
// empty status when the stream delivered no sessions at all.
func (p *Pipeline) Status() string {
	if p.streamFinished && len(p.sessions) == 0 {
		return p.emptyStatus
	}
	if p.streamFinished && p.haveResults && !p.resultsDirty && len(p.results) == 0 {
		return "no matches"
	}
	return p.progress.Label(p.streamFinished)
}

// Release stops the ranking worker. It does not wait for an in-flight job.
// The pipeline should not be ticked after calling Release.
func (p *Pipeline) Release() {
	if p.worker != nil {
		p.worker.release()
	}
}

func (p *Pipeline) markDirty() {
	p.resultsDirty = true
	p.generation++
}

func (p *Pipeline) applyResults() bool {
	applied := false
	for {
		r, ok := p.worker.poll()
		if !ok {
			return applied
		}
		if r.id != p.pendingJobID {
			p.stats.Discarded++
			p.logger.Debug("discarded stale ranking", "job", r.id, "pending", p.pendingJobID)
			continue
		}

		p.results = r.results
		p.haveResults = true
		p.pendingJobID = 0
		if r.generation == p.generation {
			p.resultsDirty = false
		}
		p.stats.Applied++
		applied = true
		p.logger.Debug("applied ranking",
			"job", r.id,
			"results", len(r.results),
			"elapsed", r.elapsed)
	}
}

func (p *Pipeline) ingest() {
	if p.streamFinished {
		return
	}

	for taken := 0; taken < p.cfg.IngestCapPerTick; {
		var session *core.Session
		select {
		case s, ok := <-p.stream:
			if !ok {
				p.streamFinished = true
				p.logger.Debug("session stream finished", "ingested", len(p.sessions))
				return
			}
			session = s
		default:
			return
		}

		if session == nil {
			continue
		}
		if p.filter != nil && !p.filter(session) {
			p.stats.Filtered++
			continue
		}
		if _, dup := p.seen[session.ID()]; dup {
			p.stats.Duplicates++
			continue
		}

		if err := p.index.Push(session); err != nil {
			p.logger.Error("error indexing session", "uuid", session.UUID, "err", err)
			continue
		}
		p.seen[session.ID()] = struct{}{}
		p.sessions = append(p.sessions, session)
		p.progress.Increment(1)
		p.stats.Ingested++
		p.markDirty()
		taken++
	}
}

func (p *Pipeline) dispatch() {
	var candidates []*core.Session
	if strings.TrimSpace(p.query) == "" {
		candidates = slices.Clip(p.sessions[:min(p.cfg.Limit, len(p.sessions))])
	} else {
		candidates = slices.Clip(p.sessions)
	}

	id := p.nextJobID
	p.nextJobID++
	p.pendingJobID = id
	p.dispatchedGen = p.generation

	if p.worker.dispatch(job{
		id:         id,
		generation: p.generation,
		query:      p.query,
		candidates: candidates,
		limit:      p.cfg.Limit,
	}) {
		p.stats.Dropped++
	}
	p.stats.Dispatched++

	p.logger.Debug("dispatched ranking",
		"job", id,
		"query", p.query,
		"candidates", len(candidates))
}
