package discovery

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debouncer delays a callback per path until events for that path stop for
// delay. New events reset the path's timer.
type debouncer struct {
	mu       sync.Mutex
	pending  map[string]*time.Timer
	delay    time.Duration
	fire     func(path string)
	stopping atomic.Bool
}

func newDebouncer(delay time.Duration, fire func(path string)) *debouncer {
	return &debouncer{
		pending: make(map[string]*time.Timer),
		delay:   delay,
		fire:    fire,
	}
}

// Queue schedules path. It returns false once Stop has been called.
func (d *debouncer) Queue(path string) bool {
	if d.stopping.Load() {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopping.Load() {
		return false
	}

	if timer, ok := d.pending[path]; ok {
		timer.Reset(d.delay)
		return true
	}
	d.pending[path] = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		delete(d.pending, path)
		d.mu.Unlock()
		if !d.stopping.Load() {
			d.fire(path)
		}
	})
	return true
}

// Stop cancels every pending callback.
func (d *debouncer) Stop() {
	d.stopping.Store(true)
	d.mu.Lock()
	defer d.mu.Unlock()
	for path, timer := range d.pending {
		timer.Stop()
		delete(d.pending, path)
	}
}

// watch reports session logs created or written under the root to onChange
// until ctx is done. onChange is called from the watch goroutine only. A
// root that cannot be watched is logged and watch returns immediately.
func (d *Discoverer) watch(ctx context.Context, onChange func(path string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := d.addRecursive(watcher, d.root, nil); err != nil {
		d.logger.Warn("error watching sessions directory", "root", d.root, "err", err)
		return nil
	}

	// Timers fire on their own goroutines; onChange always runs on this one.
	ready := make(chan string)
	deb := newDebouncer(d.watchDebounce, func(path string) {
		select {
		case ready <- path:
		case <-ctx.Done():
		}
	})
	defer deb.Stop()

	d.logger.Debug("watching sessions directory", "root", d.root)
	for {
		select {
		case <-ctx.Done():
			return nil
		case path := <-ready:
			onChange(path)
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			d.handleEvent(watcher, deb, event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			d.logger.Warn("watcher error", "err", err)
		}
	}
}

func (d *Discoverer) handleEvent(watcher *fsnotify.Watcher, deb *debouncer, event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	if event.Has(fsnotify.Create) {
		info, err := os.Stat(event.Name)
		if err == nil && info.IsDir() {
			// Files written before the directory was watched are queued too.
			if err := d.addRecursive(watcher, event.Name, deb.Queue); err != nil {
				d.logger.Warn("error watching directory", "path", event.Name, "err", err)
			}
			return
		}
	}

	if IsSessionLog(event.Name) {
		deb.Queue(event.Name)
	}
}

// addRecursive watches dir and every directory below it. Session logs found
// on the way are passed to found when it is not nil.
func (d *Discoverer) addRecursive(watcher *fsnotify.Watcher, dir string, found func(string) bool) error {
	return filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !entry.IsDir() {
			if found != nil && IsSessionLog(path) {
				found(path)
			}
			return nil
		}
		if err := watcher.Add(path); err != nil {
			if path == dir {
				return err
			}
			if !errors.Is(err, fs.ErrNotExist) {
				d.logger.Warn("error watching directory", "path", path, "err", err)
			}
		}
		return nil
	})
}
