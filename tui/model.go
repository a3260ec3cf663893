package tui

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/zippoxer/codex-search/core"
	"github.com/zippoxer/codex-search/ingestion"
	"github.com/zippoxer/codex-search/render"
)

const (
	// DefaultPollInterval is how often the pipeline is ticked.
	DefaultPollInterval = 30 * time.Millisecond

	updatedWidth = 12
	rowHeight    = 3 // two preview lines and a separator
	chromeHeight = 5 // search box, title and status lines
	minPageJump  = 5
)

type tickMsg time.Time

// Model is the bubbletea model of the search screen.
type Model struct {
	pipeline *ingestion.Pipeline
	input    textinput.Model
	keys     keyMap
	poll     time.Duration
	now      func() time.Time

	selected int
	offset   int
	width    int
	height   int

	choice   string
	quitting bool
}

// Option configures a Model.
type Option func(*Model)

// WithPollInterval sets the tick cadence. Values below one millisecond are
// ignored.
func WithPollInterval(d time.Duration) Option {
	return func(m *Model) {
		if d >= time.Millisecond {
			m.poll = d
		}
	}
}

// WithClock sets the time source for relative timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Model) {
		if now != nil {
			m.now = now
		}
	}
}

// New builds a model driving p. The query field starts with p's query.
func New(p *ingestion.Pipeline, opts ...Option) Model {
	input := textinput.New()
	input.Prompt = "> "
	input.PromptStyle = promptStyle
	input.Placeholder = "search sessions"
	input.SetValue(p.Query())
	input.CursorEnd()
	input.Focus()

	m := Model{
		pipeline: p,
		input:    input,
		keys:     defaultKeys,
		poll:     DefaultPollInterval,
		now:      time.Now,
		width:    100,
		height:   30,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Choice returns the uuid of the selected session, or "" when the user quit.
func (m Model) Choice() string {
	return m.choice
}

// Selected returns the index of the highlighted result.
func (m Model) Selected() int {
	return m.selected
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.poll, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.tick())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.clamp()
		return m, nil

	case tickMsg:
		m.pipeline.Tick()
		m.clamp()
		return m, m.tick()

	case tea.KeyMsg:
		return m.updateKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	results := m.pipeline.Results()
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Select):
		if m.selected < len(results) {
			m.choice = results[m.selected].Session.UUID
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.selected--
	case key.Matches(msg, m.keys.Down):
		m.selected++
	case key.Matches(msg, m.keys.PageUp):
		m.selected -= pageJump(len(results))
	case key.Matches(msg, m.keys.PageDown):
		m.selected += pageJump(len(results))
	case key.Matches(msg, m.keys.Home):
		m.selected = 0
	case key.Matches(msg, m.keys.End):
		m.selected = len(results) - 1

	case key.Matches(msg, m.keys.ClearQuery):
		m.input.SetValue("")
		m.pipeline.SetQuery("")

	case key.Matches(msg, m.keys.DeleteWord):
		m.input.SetValue(truncateLastWord(m.input.Value()))
		m.input.CursorEnd()
		m.pipeline.SetQuery(m.input.Value())

	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.pipeline.SetQuery(m.input.Value())
		return m, cmd
	}

	m.clamp()
	return m, nil
}

func pageJump(n int) int {
	return max(n/5, minPageJump)
}

// truncateLastWord drops trailing whitespace, then the last word, then the
// whitespace before it.
func truncateLastWord(s string) string {
	s = strings.TrimRightFunc(s, unicode.IsSpace)
	if i := strings.LastIndexFunc(s, unicode.IsSpace); i >= 0 {
		return strings.TrimRightFunc(s[:i], unicode.IsSpace)
	}
	return ""
}

func (m *Model) clamp() {
	n := len(m.pipeline.Results())
	m.selected = max(0, min(m.selected, n-1))

	visible := m.visibleResults()
	if m.selected < m.offset {
		m.offset = m.selected
	}
	if m.selected >= m.offset+visible {
		m.offset = m.selected - visible + 1
	}
	m.offset = max(0, min(m.offset, n-1))
}

func (m Model) visibleResults() int {
	return max(1, (m.height-chromeHeight)/rowHeight)
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(searchBoxStyle.Width(max(m.width-2, 10)).Render(m.input.View()))
	b.WriteString("\n")

	results := m.pipeline.Results()
	progress := m.pipeline.Progress()
	total := max(progress.Total(), len(m.pipeline.Sessions()))
	b.WriteString(titleStyle.Render(fmt.Sprintf("Results: %d shown • %d/%d indexed",
		len(results), len(m.pipeline.Sessions()), total)))
	b.WriteString("\n")

	now := m.now()
	previewWidth := max(m.width-updatedWidth-3, minPreviewWidth)
	end := min(m.offset+m.visibleResults(), len(results))
	for i := m.offset; i < end; i++ {
		b.WriteString(m.renderResult(results[i], i == m.selected, previewWidth, now))
		if i+1 < end {
			b.WriteString(separatorStyle.Render(strings.Repeat("─", updatedWidth+previewWidth)))
			b.WriteString("\n")
		}
	}

	b.WriteString(statusStyle.Render("Enter: open • Esc: quit • " + m.pipeline.Status()))
	return b.String()
}

func (m Model) renderResult(r *core.SearchResult, selected bool, width int, now time.Time) string {
	lines := previewLines(r, width, m.pipeline.Query())

	marker := "  "
	if selected {
		marker = "▶ "
	}
	updated := fmt.Sprintf("%-*s", updatedWidth-2, render.FormatRelative(r.MatchTimestamp(), now))

	first := marker + updatedStyle.Render(updated) + " " + renderSnippet(lines[0])
	second := strings.Repeat(" ", updatedWidth) + " " + renderSnippet(lines[1])
	if selected {
		first = selectedStyle.Render(first)
	}
	return lipgloss.JoinVertical(lipgloss.Left, first, second) + "\n"
}

func renderSnippet(s core.Snippet) string {
	var b strings.Builder
	for _, seg := range s.Segments {
		if seg.Highlighted {
			b.WriteString(highlightStyle.Render(seg.Text))
			continue
		}
		b.WriteString(seg.Text)
	}
	return b.String()
}
