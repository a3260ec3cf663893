package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/zippoxer/codex-search/core"
	"github.com/zippoxer/codex-search/search"
)

type benchRun struct {
	SearchMs int64   `json:"search_ms"`
	TopUUID  *string `json:"top_uuid"`
	Matched  int     `json:"matched"`
	Rejected int     `json:"rejected"`
}

type benchReport struct {
	RootExists    bool       `json:"root_exists"`
	SessionsRoot  string     `json:"sessions_root"`
	SessionsCount int        `json:"sessions_count"`
	Query         string     `json:"query"`
	Limit         int        `json:"limit"`
	Iterations    int        `json:"iterations"`
	Runs          []benchRun `json:"runs"`
	AvgSearchMs   float64    `json:"avg_search_ms"`
}

// countingMonitor tallies one ranking pass.
type countingMonitor struct {
	matched  int
	rejected int
}

var _ search.RankMonitor = (*countingMonitor)(nil)

func (m *countingMonitor) Start(_ string, _ int)         {}
func (m *countingMonitor) Rejected(_ *core.Session)      { m.rejected++ }
func (m *countingMonitor) Matched(_ *core.SearchResult)  { m.matched++ }
func (m *countingMonitor) Finish(_ []*core.SearchResult) {}

// bench ranks the loaded sessions iterations times and prints timings as
// JSON.
func (b *batch) bench(ctx context.Context, iterations int) error {
	if iterations < 0 {
		return fmt.Errorf("bench iterations cannot be negative: %d", iterations)
	}
	if err := b.open(); err != nil {
		return err
	}
	defer b.engine.Close()

	sessions, err := b.collect(ctx, b.cfg.ScanLimit)
	if err != nil {
		return err
	}
	searcher, err := b.engine.NewSearcher()
	if err != nil {
		return err
	}

	report := benchReport{
		RootExists:    b.engine.RootExists(),
		SessionsRoot:  b.engine.SessionsRoot(),
		SessionsCount: len(sessions),
		Query:         b.query,
		Limit:         b.cfg.Limit,
		Iterations:    iterations,
		Runs:          make([]benchRun, 0, iterations),
	}

	var total int64
	for range iterations {
		monitor := &countingMonitor{}
		start := time.Now()
		results := searcher.SearchWithMonitor(sessions, b.query, monitor)
		elapsed := time.Since(start).Milliseconds()

		run := benchRun{
			SearchMs: elapsed,
			Matched:  monitor.matched,
			Rejected: monitor.rejected,
		}
		if len(results) > 0 {
			uuid := results[0].Session.UUID
			run.TopUUID = &uuid
		}
		report.Runs = append(report.Runs, run)
		total += elapsed
	}
	if iterations > 0 {
		report.AvgSearchMs = float64(total) / float64(iterations)
	}

	enc := json.NewEncoder(b.env.stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encoding bench report: %w", err)
	}
	return nil
}
