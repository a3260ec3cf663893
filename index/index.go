package index

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/sahilm/fuzzy"
	"github.com/zippoxer/codex-search/core"
)

// DefaultChunkSize is how many sessions one unit of tick budget evaluates.
const DefaultChunkSize = 256

// Status reports the outcome of a Tick.
type Status struct {
	// Changed is true when matched membership changed since the previous Tick.
	Changed bool
	// Running is true while sessions are still queued for evaluation.
	Running bool
}

// Index is an incremental fuzzy index. Sessions are stored once in an arena
// and addressed by their position, which is also their ingestion order.
type Index struct {
	mu sync.Mutex

	items   []*core.Session
	matched []bool
	queued  []bool
	queue   []int

	pattern   string
	chunkSize int
	changed   bool
	logger    *slog.Logger
}

type Option func(*Index) error

// WithChunkSize sets how many sessions one unit of tick budget evaluates.
func WithChunkSize(size int) Option {
	return func(idx *Index) error {
		if size < 1 {
			return ErrInvalidChunkSize
		}
		idx.chunkSize = size
		return nil
	}
}

// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(idx *Index) error {
		if logger == nil {
			logger = slog.Default()
		}
		idx.logger = logger
		return nil
	}
}

func New(opts ...Option) (*Index, error) {
	idx := &Index{
		chunkSize: DefaultChunkSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(idx); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

// Push registers a session. It is evaluated against the active pattern on a
// later Tick.
func (idx *Index) Push(session *core.Session) error {
	if session == nil {
		return ErrNilSession
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	handle := len(idx.items)
	idx.items = append(idx.items, session)
	idx.matched = append(idx.matched, false)
	idx.queued = append(idx.queued, false)
	idx.enqueue(handle)
	return nil
}

// Reparse replaces the active pattern. appendHint tells the index the new
// pattern strictly extends the previous one, so sessions that did not match
// before can be skipped. Any other edit re-evaluates every session.
func (idx *Index) Reparse(pattern string, appendHint bool) {
	pattern = strings.TrimSpace(pattern)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if pattern == idx.pattern {
		return
	}

	narrow := appendHint && idx.pattern != "" && strings.HasPrefix(pattern, idx.pattern)
	idx.pattern = pattern

	for handle := range idx.items {
		if narrow && !idx.matched[handle] {
			continue
		}
		idx.enqueue(handle)
	}

	idx.logger.Debug("index reparsed",
		"pattern", pattern,
		"narrow", narrow,
		"queued", len(idx.queue))
}

// Tick evaluates up to budget chunks of queued sessions.
func (idx *Index) Tick(budget int) Status {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	n := min(max(budget, 0)*idx.chunkSize, len(idx.queue))
	if n > 0 {
		batch := idx.queue[:n]
		idx.evaluate(batch)
		for _, handle := range batch {
			idx.queued[handle] = false
		}
		idx.queue = idx.queue[n:]
		if len(idx.queue) == 0 {
			idx.queue = nil
		}
	}

	status := Status{Changed: idx.changed, Running: len(idx.queue) > 0}
	idx.changed = false
	return status
}

// Snapshot returns the currently matched sessions in ingestion order.
func (idx *Index) Snapshot() []*core.Session {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	var out []*core.Session
	for handle, ok := range idx.matched {
		if ok {
			out = append(out, idx.items[handle])
		}
	}
	return out
}

// Len returns the number of registered sessions.
func (idx *Index) Len() int {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return len(idx.items)
}

// Pattern returns the active pattern.
func (idx *Index) Pattern() string {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.pattern
}

func (idx *Index) enqueue(handle int) {
	if idx.queued[handle] {
		return
	}
	idx.queued[handle] = true
	idx.queue = append(idx.queue, handle)
}

func (idx *Index) evaluate(batch []int) {
	hits := make(map[int]struct{}, len(batch))
	if idx.pattern == "" {
		for i := range batch {
			hits[i] = struct{}{}
		}
	} else {
		for _, m := range fuzzy.FindFromNoSort(idx.pattern, batchSource{items: idx.items, handles: batch}) {
			hits[m.Index] = struct{}{}
		}
	}

	for i, handle := range batch {
		_, hit := hits[i]
		if idx.matched[handle] != hit {
			idx.matched[handle] = hit
			idx.changed = true
		}
	}
}

// batchSource exposes a subset of the arena to fuzzy.FindFromNoSort.
type batchSource struct {
	items   []*core.Session
	handles []int
}

func (b batchSource) String(i int) string {
	return b.items[b.handles[i]].SearchBlob
}

func (b batchSource) Len() int {
	return len(b.handles)
}
