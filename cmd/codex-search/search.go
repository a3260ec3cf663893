package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"
	codexsearch "github.com/zippoxer/codex-search"
	"github.com/zippoxer/codex-search/config"
	"github.com/zippoxer/codex-search/core"
	"github.com/zippoxer/codex-search/discovery"
	"github.com/zippoxer/codex-search/ingestion"
	"github.com/zippoxer/codex-search/render"
)

const progressReportInterval = 25

func searchCommand(c *cli.Context, env *environment) error {
	cfg, err := buildConfig(c, env.getenv)
	if err != nil {
		return err
	}
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))

	var cwd string
	if c.Bool("cwd") {
		wd, err := env.getwd()
		if err != nil {
			return fmt.Errorf("reading current directory: %w", err)
		}
		cwd = wd
		cfg.ScanLimit = max(cfg.ScanLimit, cfg.ExpandedScanLimit)
	}

	wantsTUI := !(c.Bool("json") || c.Bool("list") || c.Bool("no-tui"))
	hasTTY := env.hasTTY()
	if !c.Bool("bench") && wantsTUI && hasTTY {
		var keep func(*core.Session) bool
		if cwd != "" {
			keep = discovery.CWDFilter(cwd)
		}
		return interactiveCommand(c, env, cfg, query, keep)
	}
	if wantsTUI && !c.Bool("bench") {
		fmt.Fprintln(env.stderr, "Interactive TUI disabled: standard streams are not attached to a TTY. Falling back to list output.")
	}

	b := &batch{
		env:   env,
		cfg:   cfg,
		query: query,
		cwd:   cwd,
		json:  c.Bool("json"),
	}
	if c.Bool("bench") {
		return b.bench(c.Context, c.Int("bench-iters"))
	}
	return b.run(c.Context)
}

// batch is a one-shot search printed as a list or JSON.
type batch struct {
	env   *environment
	cfg   *config.Config
	query string
	cwd   string
	json  bool

	engine   *codexsearch.Engine
	tracker  *ingestion.ProgressTracker
	expanded bool
}

func (b *batch) open() error {
	opts := []codexsearch.EngineOption{}
	if b.env.stderrTTY() {
		b.tracker = ingestion.NewProgressTracker(b.env.stderr, 0, progressReportInterval)
		opts = append(opts, codexsearch.WithProgress(func(string) { b.tracker.Increment(1) }))
	}
	engine, err := codexsearch.NewEngine(b.cfg, opts...)
	if err != nil {
		return err
	}
	b.engine = engine
	return nil
}

func (b *batch) collect(ctx context.Context, scanLimit int) ([]*core.Session, error) {
	if b.tracker != nil {
		b.tracker.Start()
		defer b.tracker.Finish()
	}
	sessions, err := b.engine.CollectSessionsWithLimit(ctx, scanLimit)
	if err != nil {
		return nil, err
	}
	if b.cwd == "" {
		return sessions, nil
	}
	return discovery.FilterByCWD(sessions, b.cwd), nil
}

// expand reloads over the expanded scan window, at most once and only for
// a non-empty list query over an existing root.
func (b *batch) expand(ctx context.Context) ([]*core.Session, bool, error) {
	if b.expanded || b.json || b.query == "" || !b.engine.RootExists() {
		return nil, false, nil
	}
	b.expanded = true
	sessions, err := b.collect(ctx, b.cfg.ExpandedScanLimit)
	if err != nil {
		return nil, false, err
	}
	return sessions, true, nil
}

func (b *batch) run(ctx context.Context) error {
	if err := b.open(); err != nil {
		return err
	}
	defer b.engine.Close()

	sessions, err := b.collect(ctx, b.cfg.ScanLimit)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		wider, ok, err := b.expand(ctx)
		if err != nil {
			return err
		}
		if ok {
			sessions = wider
		}
	}
	if len(sessions) == 0 {
		return b.empty()
	}

	searcher, err := b.engine.NewSearcher()
	if err != nil {
		return err
	}
	results := searcher.Search(sessions, b.query)
	if len(results) == 0 {
		wider, ok, err := b.expand(ctx)
		if err != nil {
			return err
		}
		if ok {
			results = searcher.Search(wider, b.query)
		}
	}

	if b.json {
		return render.WriteJSON(b.env.stdout, results)
	}
	return render.WriteList(b.env.stdout, results, b.env.now())
}

func (b *batch) empty() error {
	if b.json {
		_, err := fmt.Fprintln(b.env.stdout, "[]")
		return err
	}
	root := b.engine.SessionsRoot()
	if b.engine.RootExists() {
		fmt.Fprintf(b.env.stderr, "no sessions discovered under %s\n", root)
	} else {
		fmt.Fprintf(b.env.stderr, "sessions directory %s does not exist\n", root)
	}
	return nil
}
