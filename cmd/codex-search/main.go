// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
	"github.com/zippoxer/codex-search/config"
)

const logFileKey = "log-file"

// environment is what the commands read from and write to outside of flags.
type environment struct {
	stdout    io.Writer
	stderr    io.Writer
	getenv    func(string) string
	getwd     func() (string, error)
	now       func() time.Time
	hasTTY    func() bool
	stderrTTY func() bool
}

func osEnvironment() *environment {
	return &environment{
		stdout: os.Stdout,
		stderr: os.Stderr,
		getenv: os.Getenv,
		getwd:  os.Getwd,
		now:    time.Now,
		hasTTY: func() bool {
			return isTerminal(os.Stdin) && isTerminal(os.Stdout)
		},
		stderrTTY: func() bool {
			return isTerminal(os.Stderr)
		},
	}
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newApp(osEnvironment()).RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(env *environment) *cli.App {
	return &cli.App{
		Name:      "codex-search",
		Usage:     "Fuzzy search over Codex session transcripts",
		ArgsUsage: "[query...]",
		Writer:    env.stdout,
		ErrWriter: env.stderr,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Usage:   "Number of results to return",
				Value:   20,
			},
			&cli.BoolFlag{
				Name:  "list",
				Usage: "Print results as a plain text list (disables the TUI)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Emit results as JSON (disables the TUI)",
			},
			&cli.BoolFlag{
				Name:  "no-tui",
				Usage: "Disable the interactive TUI even without other output flags",
			},
			&cli.BoolFlag{
				Name:  "cwd",
				Usage: "Restrict results to sessions tied to the current working directory",
			},
			&cli.IntFlag{
				Name:  "scan-limit",
				Usage: "Maximum number of session files to scan, newest first",
			},
			&cli.StringFlag{
				Name:  "sessions-dir",
				Usage: "Sessions directory (default ~/.codex/sessions)",
			},
			&cli.StringFlag{
				Name:  "resume-command",
				Usage: "Command run when a session is selected; {uuid} is replaced",
			},
			&cli.IntFlag{
				Name:  "preview-limit",
				Usage: "Per-message preview length in characters",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Print the resume command instead of running it",
			},
			&cli.BoolFlag{
				Name:  "bench",
				Usage: "Run a headless benchmark and emit JSON metrics",
			},
			&cli.IntFlag{
				Name:  "bench-iters",
				Usage: "Benchmark iterations per query",
				Value: 5,
			},
			&cli.IntFlag{
				Name:  "context",
				Usage: "Snippet context in characters on each side of a match",
				Value: 60,
			},
			&cli.StringFlag{
				Name:  "cache-dir",
				Usage: "Directory of the on-disk parse cache (disabled when empty)",
			},
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "Pick up new session files while the TUI is open",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Set logging level (debug, info, warn, error)",
				Value: "warn",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Write logs to this file instead of stderr",
			},
		},
		Before: func(c *cli.Context) error {
			return setupLogger(c, env.stderr)
		},
		After: closeLogFile,
		Action: func(c *cli.Context) error {
			return searchCommand(c, env)
		},
	}
}

// buildConfig layers defaults, CODEX_SEARCH_* variables and flags, in that
// order, and validates the result.
func buildConfig(c *cli.Context, getenv func(string) string) (*config.Config, error) {
	opts := []config.ConfigOption{
		config.FromEnv(getenv),
		config.WithLimit(c.Int("limit")),
		config.WithContextChars(c.Int("context")),
		config.WithWatch(c.Bool("watch")),
	}
	if c.IsSet("scan-limit") {
		opts = append(opts, config.WithScanLimit(c.Int("scan-limit")))
	}
	if c.IsSet("preview-limit") {
		opts = append(opts, config.WithPreviewChars(c.Int("preview-limit")))
	}
	if dir := c.String("sessions-dir"); dir != "" {
		opts = append(opts, config.WithSessionsDir(dir))
	}
	if cmd := c.String("resume-command"); cmd != "" {
		opts = append(opts, config.WithResumeCommand(cmd))
	}
	if dir := c.String("cache-dir"); dir != "" {
		opts = append(opts, config.WithCacheDir(dir))
	}

	cfg := config.New(opts...)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", s)
}

func setupLogger(c *cli.Context, stderr io.Writer) error {
	level, err := parseLevel(c.String("log-level"))
	if err != nil {
		return err
	}

	out := stderr
	if path := c.String("log-file"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		c.App.Metadata[logFileKey] = f
		out = f
	}

	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

func closeLogFile(c *cli.Context) error {
	f, ok := c.App.Metadata[logFileKey].(*os.File)
	if !ok {
		return nil
	}
	delete(c.App.Metadata, logFileKey)
	return f.Close()
}

// hasLogFile reports whether logs go to a file rather than the terminal.
func hasLogFile(c *cli.Context) bool {
	_, ok := c.App.Metadata[logFileKey].(*os.File)
	return ok
}
