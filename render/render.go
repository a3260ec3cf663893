package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/zippoxer/codex-search/core"
)

const (
	boldOn  = "\x1b[1m"
	boldOff = "\x1b[0m"
)

// FormatTimestamp renders t in local time as 2006-01-02 15:04.
func FormatTimestamp(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}

// FormatTimeOfDay renders t in local time as 15:04.
func FormatTimeOfDay(t time.Time) string {
	return t.Local().Format("15:04")
}

// FormatRelative describes how long before now t happened, at most two
// units deep: "42s ago", "3h 5m ago", "2d 1h ago". Times at or after now are
// "just now".
func FormatRelative(t, now time.Time) string {
	secs := int64(now.Sub(t) / time.Second)
	if secs <= 0 {
		return "just now"
	}

	minutes := secs / 60
	if minutes == 0 {
		return fmt.Sprintf("%ds ago", secs)
	}

	hours := minutes / 60
	if hours == 0 {
		return fmt.Sprintf("%dm ago", minutes)
	}

	days := hours / 24
	if days == 0 {
		if rem := minutes % 60; rem != 0 {
			return fmt.Sprintf("%dh %dm ago", hours, rem)
		}
		return fmt.Sprintf("%dh ago", hours)
	}

	if rem := hours % 24; rem != 0 {
		return fmt.Sprintf("%dd %dh ago", days, rem)
	}
	return fmt.Sprintf("%dd ago", days)
}

// RoleLabel names the author of a matched message: "you", "codex", or
// "session" when no message matched.
func RoleLabel(m *core.Message) string {
	if m == nil {
		return "session"
	}
	switch m.Role {
	case core.RoleUser:
		return "you"
	case core.RoleAssistant:
		return "codex"
	}
	return "session"
}

// SnippetLine joins snippet segments, wrapping highlighted ones in ANSI bold.
func SnippetLine(s core.Snippet) string {
	var b strings.Builder
	for _, seg := range s.Segments {
		if seg.Highlighted {
			b.WriteString(boldOn)
			b.WriteString(seg.Text)
			b.WriteString(boldOff)
			continue
		}
		b.WriteString(seg.Text)
	}
	return b.String()
}

// ResultHeader is the tab-separated first line of a list entry:
// uuid, timestamp, relative age, time of day, label and author.
func ResultHeader(r *core.SearchResult, now time.Time) string {
	anchor := r.MatchTimestamp()
	return fmt.Sprintf("%s\t%s\t%s\t%s\t%s (%s)",
		r.Session.UUID,
		FormatTimestamp(anchor),
		FormatRelative(anchor, now),
		FormatTimeOfDay(anchor),
		r.Session.Label,
		RoleLabel(r.MatchedMessage))
}

// WriteList writes each result as its header line followed by an indented
// snippet line.
func WriteList(w io.Writer, results []*core.SearchResult, now time.Time) error {
	for _, r := range results {
		if _, err := fmt.Fprintf(w, "%s\n    %s\n", ResultHeader(r, now), SnippetLine(r.Snippet)); err != nil {
			return err
		}
	}
	return nil
}

// WriteJSON writes results as an indented JSON array. No results is "[]".
func WriteJSON(w io.Writer, results []*core.SearchResult) error {
	if results == nil {
		results = []*core.SearchResult{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	return nil
}
