package tui

import (
	"strings"
	"unicode"

	"github.com/zippoxer/codex-search/core"
)

const (
	minPreviewWidth  = 20
	minPreviewWindow = 80
	ellipsis         = '…'
)

type markedRune struct {
	r           rune
	highlighted bool
}

// previewLines lays the matched text of r out on two lines of at most width
// runes, centred on the first literal occurrence of query when there is one.
// Runs of whitespace are collapsed so transcript formatting does not eat the
// two lines.
func previewLines(r *core.SearchResult, width int, query string) [2]core.Snippet {
	width = max(width, minPreviewWidth)
	window := max(width*2, minPreviewWindow)

	source := r.Session.Label
	if r.MatchedMessage != nil {
		source = r.MatchedMessage.FullText
	}
	runes := []rune(source)

	start, end := 0, min(len(runes), window)
	matchStart, matchEnd := 0, 0
	if needle := foldRunes([]rune(strings.TrimSpace(query))); len(needle) > 0 {
		if at := indexRunes(foldRunes(runes), needle); at >= 0 {
			matchStart, matchEnd = at, at+len(needle)
			start = max(0, min(at-(window-len(needle))/2, len(runes)-window))
			end = min(start+window, len(runes))
		}
	}

	marked := make([]markedRune, 0, end-start+2)
	if start > 0 {
		marked = append(marked, markedRune{r: ellipsis})
	}
	for i := start; i < end; i++ {
		marked = append(marked, markedRune{r: runes[i], highlighted: i >= matchStart && i < matchEnd})
	}
	if end < len(runes) {
		marked = append(marked, markedRune{r: ellipsis})
	}

	first, second := splitTwoLines(collapseSpace(marked), width)
	return [2]core.Snippet{toSnippet(first), toSnippet(second)}
}

func foldRunes(rs []rune) []rune {
	out := make([]rune, len(rs))
	for i, r := range rs {
		out[i] = unicode.ToLower(r)
	}
	return out
}

func indexRunes(haystack, needle []rune) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

func collapseSpace(in []markedRune) []markedRune {
	out := make([]markedRune, 0, len(in))
	lastSpace := true // drops leading whitespace
	for _, m := range in {
		if unicode.IsSpace(m.r) {
			if !lastSpace {
				out = append(out, markedRune{r: ' ', highlighted: m.highlighted})
			}
			lastSpace = true
			continue
		}
		out = append(out, m)
		lastSpace = false
	}
	if n := len(out); n > 0 && out[n-1].r == ' ' {
		out = out[:n-1]
	}
	return out
}

// splitTwoLines breaks after the last space within the first width runes,
// or hard at width when there is none. The second line is cut at width with
// an ellipsis.
func splitTwoLines(in []markedRune, width int) ([]markedRune, []markedRune) {
	if len(in) <= width {
		return in, nil
	}
	split := width
	for i := width; i > 0; i-- {
		if in[i-1].r == ' ' {
			split = i
			break
		}
	}
	first, second := in[:split], in[split:]
	if len(second) > width {
		second = append(second[:width-1:width-1], markedRune{r: ellipsis})
	}
	return first, second
}

func toSnippet(in []markedRune) core.Snippet {
	var s core.Snippet
	var b strings.Builder
	highlighted := false
	flush := func() {
		if b.Len() > 0 {
			s.Segments = append(s.Segments, core.SnippetSegment{Text: b.String(), Highlighted: highlighted})
			b.Reset()
		}
	}
	for _, m := range in {
		if m.highlighted != highlighted {
			flush()
			highlighted = m.highlighted
		}
		b.WriteRune(m.r)
	}
	flush()
	return s
}
