package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/urfave/cli/v2"
	codexsearch "github.com/zippoxer/codex-search"
	"github.com/zippoxer/codex-search/config"
	"github.com/zippoxer/codex-search/core"
	"github.com/zippoxer/codex-search/ingestion"
	"github.com/zippoxer/codex-search/tui"
)

func interactiveCommand(c *cli.Context, env *environment, cfg *config.Config, query string, keep func(*core.Session) bool) error {
	// Log lines would tear the alternate screen.
	logger := slog.Default()
	if !hasLogFile(c) {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	engine, err := codexsearch.NewEngine(cfg, codexsearch.WithLogger(logger))
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	opts := []ingestion.Option{ingestion.WithEmptyStatus(emptyStatus(engine))}
	if keep != nil {
		opts = append(opts, ingestion.WithFilter(keep))
	}
	pipeline, err := engine.NewPipeline(ctx, query, opts...)
	if err != nil {
		return err
	}

	uuid, err := tui.Run(ctx, pipeline, tui.WithPollInterval(cfg.PollInterval), tui.WithClock(env.now))
	if err != nil {
		return err
	}
	cancel()
	if uuid == "" {
		return nil
	}

	command := resumeCommand(cfg.ResumeCommand, uuid)
	if c.Bool("dry-run") {
		_, err := fmt.Fprintln(env.stdout, command)
		return err
	}
	return runResume(c.Context, env, command)
}

func emptyStatus(engine *codexsearch.Engine) string {
	if !engine.RootExists() {
		return fmt.Sprintf("Sessions directory %s does not exist", engine.SessionsRoot())
	}
	return fmt.Sprintf("No Codex sessions found under %s", engine.SessionsRoot())
}

func resumeCommand(template, uuid string) string {
	return strings.ReplaceAll(template, "{uuid}", uuid)
}

// runResume runs command through the user's shell attached to the terminal.
func runResume(ctx context.Context, env *environment, command string) error {
	shell := env.getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}

	cmd := exec.CommandContext(ctx, shell, "-c", command)
	cmd.Stdin = os.Stdin
	cmd.Stdout = env.stdout
	cmd.Stderr = env.stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("resume command %q failed: %w", command, err)
	}
	return nil
}
