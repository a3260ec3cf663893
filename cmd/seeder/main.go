package main

import (
	"bufio"
	"context"
	"fmt"
	"iter"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/urfave/cli/v2"
)

// prompts seed user turns when no --src file is given.
var prompts = []string{
	"fix the flaky login test in the auth package",
	"why does the rate limiter drop requests after a deploy",
	"add pagination to the sessions endpoint",
	"refactor the config loader to support env overrides",
	"the docker build fails on arm64, can you look",
	"write a migration that backfills the created_at column",
	"bump the grpc dependency and fix the breaking changes",
	"explain how the cache invalidation works in storage",
	"add a --json flag to the export command",
	"the websocket reconnect loop spins at 100% cpu",
	"rename the billing module to invoicing",
	"make the search results stable when timestamps tie",
	"add structured logging to the worker pool",
	"investigate the memory leak in the image resizer",
	"set up golangci-lint in CI",
	"why is the p99 latency of the checkout handler so high",
	"port the bash release script to a Makefile target",
	"add retries with backoff to the webhook sender",
	"the TUI flickers when the terminal is resized",
	"document the public API of the parser package",
}

// replies seed assistant turns.
var replies = []string{
	"I traced the failure to a shared fixture that is mutated by a parallel test.",
	"The limiter refills from a clock that resets on restart; I switched it to a monotonic source.",
	"Added cursor based pagination with a default page size of 50.",
	"The loader now applies defaults, then the environment, then flags.",
	"The base image has no arm64 variant; I moved to the multi-arch tag.",
	"The migration runs in batches of 1000 rows to keep locks short.",
	"Most breaking changes were renamed options; the tests pass again.",
	"Entries are keyed by path and mtime, so a rewrite invalidates them.",
	"The export command now accepts --json and writes an indented array.",
	"The loop never waited between attempts; I added a jittered backoff.",
	"Renamed the package and updated every import path.",
	"Ties now fall back to score and then to file order.",
	"Each worker logs its job id and duration at debug level.",
	"The resizer kept decoded frames in a global map that was never pruned.",
	"CI runs golangci-lint with the repository config on every push.",
	"Most of the time goes to a synchronous call to the fraud service.",
	"The Makefile target reproduces the script step by step.",
	"Retries use exponential backoff capped at thirty seconds.",
	"Resizes triggered a full redraw; the view now reuses its layout.",
	"Every exported identifier in the parser now has a doc comment.",
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := &cli.App{
		Name:  "seeder",
		Usage: "Generate a synthetic Codex sessions tree for benchmarks",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "out",
				Aliases:  []string{"o"},
				Usage:    "Directory to write sessions into",
				Required: true,
			},
			&cli.IntFlag{
				Name:    "sessions",
				Aliases: []string{"n"},
				Usage:   "Number of session files to write",
				Value:   200,
			},
			&cli.IntFlag{
				Name:  "turns",
				Usage: "User/assistant exchanges per session",
				Value: 6,
			},
			&cli.StringFlag{
				Name:  "src",
				Usage: "File of user prompts, one per line",
			},
			&cli.StringSliceFlag{
				Name:  "cwd",
				Usage: "Working directories to record in session metadata",
				Value: cli.NewStringSlice("/home/dev/app", "/home/dev/infra"),
			},
			&cli.Uint64Flag{
				Name:  "seed",
				Usage: "Random seed",
				Value: 1,
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Files written concurrently",
				Value: 8,
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Set logging level (debug, info, warn, error)",
				Value: "info",
			},
		},
		Before: setupLogger,
		Action: seedCommand,
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func seedCommand(c *cli.Context) error {
	source := linesFromSlice(prompts)
	if path := c.String("src"); path != "" {
		lines, err := linesFromFile(path)
		if err != nil {
			return fmt.Errorf("reading prompts: %w", err)
		}
		source = lines
	}

	g := &generator{
		root:     c.String("out"),
		sessions: c.Int("sessions"),
		turns:    c.Int("turns"),
		prompts:  collect(source),
		replies:  replies,
		cwds:     c.StringSlice("cwd"),
		seed:     c.Uint64("seed"),
		workers:  c.Int("workers"),
	}
	written, err := g.Generate(c.Context)
	if err != nil {
		return err
	}
	slog.Info("seeded sessions", "root", g.root, "files", written)
	return nil
}

// linesFromFile returns an iterator over the non-empty lines of a file.
func linesFromFile(filename string) (iter.Seq[string], error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	return func(yield func(string) bool) {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			if scanner.Text() == "" {
				continue
			}
			if !yield(scanner.Text()) {
				return
			}
		}
	}, nil
}

// linesFromSlice returns an iterator over a slice of strings.
func linesFromSlice(lines []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, line := range lines {
			if !yield(line) {
				return
			}
		}
	}
}

func collect(seq iter.Seq[string]) []string {
	var out []string
	for s := range seq {
		out = append(out, s)
	}
	return out
}

func setupLogger(c *cli.Context) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.String("log-level"))); err != nil {
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", c.String("log-level"))
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
