package discovery

import (
	"context"
	"sync"

	"github.com/zippoxer/codex-search/core"
	"golang.org/x/sync/errgroup"
)

// Stream delivers sessions one at a time, in path order. The channel is
// closed once every path has been processed, or, in watch mode, once the
// context is cancelled.
type Stream struct {
	sessions <-chan *core.Session
	total    int
	done     chan struct{}
	err      error
}

// Sessions returns the receiving end of the stream.
func (s *Stream) Sessions() <-chan *core.Session {
	return s.sessions
}

// Total is the number of paths the stream started with. It is an upper
// bound on the initial sessions, not a count of what will be delivered.
func (s *Stream) Total() int {
	return s.total
}

// Wait blocks until the stream is closed and returns the first error of
// its producers.
func (s *Stream) Wait() error {
	<-s.done
	return s.err
}

type pathSet struct {
	mu    sync.Mutex
	paths map[string]struct{}
}

// claim marks path as emitted. It returns false when it already was.
func (p *pathSet) claim(path string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.paths[path]; ok {
		return false
	}
	p.paths[path] = struct{}{}
	return true
}

// Stream loads paths in the background and sends each resulting session on
// the returned stream. Unreadable files and files without messages are
// skipped. With WithWatch the stream then stays open and also emits sessions
// for log files created or written under the root that have not been
// emitted yet.
func (d *Discoverer) Stream(ctx context.Context, paths []string) *Stream {
	out := make(chan *core.Session, max(len(paths), 1))
	s := &Stream{
		sessions: out,
		total:    len(paths),
		done:     make(chan struct{}),
	}
	emitted := &pathSet{paths: make(map[string]struct{}, len(paths))}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for _, path := range paths {
			if gctx.Err() != nil {
				return nil
			}
			session := d.load(gctx, path)
			if session == nil || !emitted.claim(path) {
				continue
			}
			select {
			case out <- session:
			case <-gctx.Done():
				return nil
			}
		}
		d.logger.Debug("initial sessions streamed", "paths", len(paths))
		return nil
	})

	if d.watchEnabled {
		g.Go(func() error {
			return d.watch(gctx, func(path string) {
				session := d.load(gctx, path)
				if session == nil || !emitted.claim(path) {
					return
				}
				d.logger.Debug("session discovered", "path", path, "uuid", session.UUID)
				select {
				case out <- session:
				case <-gctx.Done():
				}
			})
		})
	}

	go func() {
		s.err = g.Wait()
		close(out)
		close(s.done)
	}()
	return s
}
