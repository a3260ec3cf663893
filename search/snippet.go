package search

import (
	"strings"

	"github.com/zippoxer/codex-search/core"
)

// DefaultContextChars is the snippet half-width on each side of a match.
const DefaultContextChars = 60

// ExtractSnippet renders the text around the first case-insensitive
// occurrence of query. Positions are counted in runes. Each side receives up
// to contextChars runes; when one side runs short, its remainder is offered to
// the other side.
func ExtractSnippet(text, query string, contextChars int) core.Snippet {
	if text == "" {
		return core.PlainSnippet("")
	}
	contextChars = max(contextChars, 0)

	runes := []rune(text)
	if query == "" {
		return leadingSnippet(runes, contextChars)
	}

	needle := foldRunes([]rune(query))
	start := indexRunes(foldRunes(runes), needle)
	if start < 0 {
		return leadingSnippet(runes, contextChars)
	}
	end := min(start+len(needle), len(runes))

	availLeft := start
	availRight := len(runes) - end
	leftTake := min(contextChars, availLeft)
	rightTake := min(contextChars, availRight)
	if leftTake < contextChars {
		rightTake = min(rightTake+contextChars-leftTake, availRight)
	}
	if rightTake < contextChars {
		leftTake = min(leftTake+contextChars-rightTake, availLeft)
	}

	from := start - leftTake
	to := min(end+rightTake, len(runes))

	segments := make([]core.SnippetSegment, 0, 5)
	if from > 0 {
		segments = append(segments, core.SnippetSegment{Text: core.Ellipsis})
	}
	if from < start {
		segments = append(segments, core.SnippetSegment{Text: normalizeWhitespace(string(runes[from:start]))})
	}
	segments = append(segments, core.SnippetSegment{
		Text:        strings.TrimSpace(normalizeWhitespace(string(runes[start:end]))),
		Highlighted: true,
	})
	if end < to {
		segments = append(segments, core.SnippetSegment{Text: normalizeWhitespace(string(runes[end:to]))})
	}
	if to < len(runes) {
		segments = append(segments, core.SnippetSegment{Text: core.Ellipsis})
	}
	return core.Snippet{Segments: segments}
}

func leadingSnippet(runes []rune, contextChars int) core.Snippet {
	n := min(len(runes), 2*contextChars)
	return core.PlainSnippet(strings.TrimSpace(normalizeWhitespace(string(runes[:n]))))
}
