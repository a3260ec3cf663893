package ingestion

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker counts ingested sessions against an expected total. The
// total is a hint: when more sessions arrive than expected it grows with
// them, and a zero total means unknown.
type ProgressTracker struct {
	writer         io.Writer
	total          int
	current        int
	reportInterval int
	lastReported   int
	startTime      time.Time
	started        bool
	mu             sync.Mutex
}

// NewProgressTracker creates a tracker. writer may be nil for a silent
// tracker; otherwise a progress line is written every reportInterval items.
func NewProgressTracker(writer io.Writer, total, reportInterval int) *ProgressTracker {
	return &ProgressTracker{
		writer:         writer,
		total:          total,
		reportInterval: max(reportInterval, 1),
	}
}

// Start begins tracking progress.
func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.startTime = time.Now()
	p.started = true
	p.current = 0
	p.lastReported = 0
}

// Increment increases the current progress by delta.
func (p *ProgressTracker) Increment(delta int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	p.current += delta
	if p.current-p.lastReported >= p.reportInterval {
		p.report()
		p.lastReported = p.current
	}
}

// Finish prints the final progress line.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	p.report()
	if p.writer != nil {
		fmt.Fprintln(p.writer)
	}
}

// Current returns the number of items counted so far.
func (p *ProgressTracker) Current() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Total returns the expected total, never less than Current.
func (p *ProgressTracker) Total() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return max(p.total, p.current)
}

// Elapsed returns the time elapsed since Start was called.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return 0
	}

	return time.Since(p.startTime)
}

// Label renders "indexing X/Y" while work remains and "indexed X/Y" once
// finished is true or the total is reached. Without a total it renders
// "indexing X" until finished.
func (p *ProgressTracker) Label(finished bool) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.total == 0 && !finished {
		return fmt.Sprintf("indexing %d", p.current)
	}
	total := max(p.total, p.current)
	if finished || p.current >= total {
		return fmt.Sprintf("indexed %d/%d", p.current, total)
	}
	return fmt.Sprintf("indexing %d/%d", p.current, total)
}

// report prints the current progress. Must be called with lock held.
func (p *ProgressTracker) report() {
	if p.writer == nil {
		return
	}

	rate := float64(p.current) / time.Since(p.startTime).Seconds()
	if p.total == 0 {
		fmt.Fprintf(p.writer, "\rloading sessions: %d - %.1f sessions/s", p.current, rate)
		return
	}

	total := max(p.total, p.current)

	percentage := 0.0
	if total > 0 {
		percentage = float64(p.current) / float64(total) * 100.0
	}

	fmt.Fprintf(p.writer, "\rloading sessions: %d/%d (%.1f%%) - %.1f sessions/s",
		p.current, total, percentage, rate)
}
