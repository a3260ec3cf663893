package search

import (
	"strings"
	"time"

	"github.com/zippoxer/codex-search/core"
)

const (
	blobWeight  = 2
	labelWeight = 3
	uuidWeight  = 1

	containsBonus        = 10000
	messageContainsBonus = 6000
)

// textMatch is the query-dependent part of a session's score.
type textMatch struct {
	matched bool
	base    int64
	best    int // index into Session.Messages, -1 when the session has none
	snippet core.Snippet
}

// Scorer scores sessions against one query. It owns a matcher buffer, so a
// Scorer belongs to a single goroutine; build one per ranking pass.
type Scorer struct {
	query         string
	folded        string
	pattern       []rune
	caseSensitive bool
	now           time.Time
	contextChars  int
	cache         *MatchCache
	matcher       matcher
}

// ScorerOption configures a Scorer.
type ScorerOption func(*Scorer)

// WithNow fixes the reference time for recency bonuses. Default is time.Now()
// at construction.
func WithNow(now time.Time) ScorerOption {
	return func(s *Scorer) {
		s.now = now
	}
}

// WithSnippetContext sets the snippet half-width in runes.
func WithSnippetContext(chars int) ScorerOption {
	return func(s *Scorer) {
		if chars > 0 {
			s.contextChars = chars
		}
	}
}

// WithCache shares a MatchCache with the scorer. The cache outlives scorers.
func WithCache(cache *MatchCache) ScorerOption {
	return func(s *Scorer) {
		s.cache = cache
	}
}

// NewScorer prepares query for scoring. Surrounding whitespace is ignored; a
// blank query matches every session.
func NewScorer(query string, opts ...ScorerOption) *Scorer {
	query = strings.TrimSpace(query)
	s := &Scorer{
		query:        query,
		folded:       strings.ToLower(query),
		now:          time.Now(),
		contextChars: DefaultContextChars,
	}
	for _, opt := range opts {
		opt(s)
	}
	if query != "" {
		s.pattern, s.caseSensitive = compilePattern(query)
	}
	return s
}

// Query returns the trimmed query.
func (s *Scorer) Query() string {
	return s.query
}

// IsEmpty reports whether the query is blank.
func (s *Scorer) IsEmpty() bool {
	return s.query == ""
}

// Score returns the session's result, or false when the session does not
// match the query.
func (s *Scorer) Score(session *core.Session) (*core.SearchResult, bool) {
	if s.IsEmpty() {
		return s.scoreEmpty(session), true
	}

	tm := s.textMatch(session)
	if !tm.matched {
		return nil, false
	}

	result := &core.SearchResult{
		Session: session,
		Snippet: tm.snippet,
	}
	if tm.best >= 0 {
		result.MatchedMessage = &session.Messages[tm.best]
	}
	result.Score = tm.base + RecencyBonus(result.MatchTimestamp(), s.now)
	return result, true
}

func (s *Scorer) scoreEmpty(session *core.Session) *core.SearchResult {
	msg := session.FirstMessage()
	source := session.Label
	if msg != nil {
		source = msg.FullText
	}
	return &core.SearchResult{
		Session:        session,
		MatchedMessage: msg,
		Score:          RecencyBonus(session.Anchor(), s.now),
		Snippet:        ExtractSnippet(source, "", s.contextChars),
	}
}

func (s *Scorer) textMatch(session *core.Session) textMatch {
	if s.cache != nil {
		if tm, ok := s.cache.get(session, s.query, s.contextChars); ok {
			return tm
		}
	}
	tm := s.computeTextMatch(session)
	if s.cache != nil {
		s.cache.add(session, s.query, s.contextChars, tm)
	}
	return tm
}

func (s *Scorer) computeTextMatch(session *core.Session) textMatch {
	blobScore, blobOK := s.fuzzy(session.SearchBlob)
	labelScore, labelOK := s.fuzzy(session.Label)
	uuidScore, uuidOK := s.fuzzy(session.UUID)

	labelContains := strings.Contains(session.FoldedLabel(), s.folded)
	blobContains := strings.Contains(session.FoldedBlob(), s.folded)
	contains := labelContains || blobContains || strings.Contains(session.FoldedUUID(), s.folded)

	if !blobOK && !labelOK && !uuidOK && !contains {
		return textMatch{best: -1}
	}

	best := -1
	var bestValue int64
	for i := range session.Messages {
		msg := &session.Messages[i]
		value, _ := s.fuzzy(msg.FullText)
		if strings.Contains(msg.Folded(), s.folded) {
			value += messageContainsBonus
		}
		if best < 0 || value > bestValue {
			best, bestValue = i, value
		}
	}

	base := blobWeight*blobScore + labelWeight*labelScore + uuidWeight*uuidScore
	if contains {
		base += containsBonus
	}
	if best >= 0 && bestValue > 0 {
		base += bestValue
	}

	var source string
	switch {
	case best >= 0:
		source = session.Messages[best].FullText
	case labelContains:
		source = session.Label
	case blobContains:
		source = session.SearchBlob
	default:
		source = session.Label
	}

	return textMatch{
		matched: true,
		base:    base,
		best:    best,
		snippet: ExtractSnippet(source, s.query, s.contextChars),
	}
}

func (s *Scorer) fuzzy(text string) (int64, bool) {
	score, ok := s.matcher.score(text, s.pattern, s.caseSensitive)
	return int64(score), ok
}
