package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/zippoxer/codex-search/ingestion"
)

// Run shows the search screen on the terminal until the user selects a
// session or quits. It returns the selected uuid, or "" when nothing was
// selected. The pipeline is released before Run returns.
func Run(ctx context.Context, p *ingestion.Pipeline, opts ...Option) (string, error) {
	defer p.Release()

	program := tea.NewProgram(New(p, opts...), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := program.Run()
	if err != nil {
		return "", fmt.Errorf("running search screen: %w", err)
	}

	m, ok := final.(Model)
	if !ok {
		return "", nil
	}
	return m.Choice(), nil
}
