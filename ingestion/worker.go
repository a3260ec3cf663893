package ingestion

import (
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/zippoxer/codex-search/core"
)

// RankFunc ranks candidates against query and keeps at most limit results.
type RankFunc func(candidates []*core.Session, query string, limit int) []*core.SearchResult

type job struct {
	id         uint64
	generation uint64
	query      string
	candidates []*core.Session
	limit      int
}

type jobResult struct {
	id         uint64
	generation uint64
	results    []*core.SearchResult
	elapsed    time.Duration
}

// worker ranks jobs on a single pooled goroutine. Its job queue is a one-slot
// mailbox: a job that has not been picked up yet is replaced by the next one.
type worker struct {
	pool    *ants.Pool
	rank    RankFunc
	jobs    chan job
	results chan jobResult
	done    chan struct{}
	once    sync.Once
	logger  *slog.Logger
}

func newWorker(rank RankFunc, logger *slog.Logger) (*worker, error) {
	pool, err := ants.NewPool(1)
	if err != nil {
		return nil, err
	}

	w := &worker{
		pool:    pool,
		rank:    rank,
		jobs:    make(chan job, 1),
		results: make(chan jobResult, 4),
		done:    make(chan struct{}),
		logger:  logger,
	}
	if err := pool.Submit(w.loop); err != nil {
		pool.Release()
		return nil, err
	}
	return w, nil
}

// dispatch queues j, dropping an undelivered older job. It reports whether a
// job was dropped. Only the orchestrator sends, so the slot is free after
// the drain.
func (w *worker) dispatch(j job) (dropped bool) {
	select {
	case stale := <-w.jobs:
		w.logger.Debug("dropped undelivered job", "job", stale.id, "superseded_by", j.id)
		dropped = true
	default:
	}
	select {
	case w.jobs <- j:
	case <-w.done:
	}
	return dropped
}

// poll returns a finished result without blocking.
func (w *worker) poll() (jobResult, bool) {
	select {
	case r := <-w.results:
		return r, true
	default:
		return jobResult{}, false
	}
}

func (w *worker) loop() {
	for {
		select {
		case <-w.done:
			return
		case j := <-w.jobs:
			start := time.Now()
			results := w.rank(j.candidates, j.query, j.limit)
			r := jobResult{
				id:         j.id,
				generation: j.generation,
				results:    results,
				elapsed:    time.Since(start),
			}
			select {
			case w.results <- r:
			case <-w.done:
				return
			}
		}
	}
}

// release stops the worker without waiting for an in-flight ranking; its
// result is dropped.
func (w *worker) release() {
	w.once.Do(func() {
		close(w.done)
		w.pool.Release()
	})
}
