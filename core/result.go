package core

import (
	"encoding/json"
	"strings"
	"time"
)

// SnippetSegment is a run of snippet text, highlighted when it is the query match.
type SnippetSegment struct {
	Text        string `json:"text"`
	Highlighted bool   `json:"highlighted"`
}

// Snippet is an excerpt of a session rendered around the query match.
type Snippet struct {
	Segments []SnippetSegment
}

// PlainSnippet returns a snippet made of one non-highlighted segment.
func PlainSnippet(text string) Snippet {
	return Snippet{Segments: []SnippetSegment{{Text: text}}}
}

// String concatenates the segment texts.
func (s Snippet) String() string {
	var b strings.Builder
	for _, seg := range s.Segments {
		b.WriteString(seg.Text)
	}
	return b.String()
}

// Highlighted returns the text of the highlighted segments.
func (s Snippet) Highlighted() string {
	var b strings.Builder
	for _, seg := range s.Segments {
		if seg.Highlighted {
			b.WriteString(seg.Text)
		}
	}
	return b.String()
}

func (s Snippet) MarshalJSON() ([]byte, error) {
	if s.Segments == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.Segments)
}

func (s *Snippet) UnmarshalJSON(b []byte) error {
	return json.Unmarshal(b, &s.Segments)
}

// SearchResult is one ranked hit. Results are produced per ranking pass and
// never mutated.
type SearchResult struct {
	Session        *Session
	MatchedMessage *Message
	Score          int64
	Snippet        Snippet
}

// MatchTimestamp resolves the result's anchor: the matched message's
// timestamp, else the session's latest message time, else its updated_at.
func (r *SearchResult) MatchTimestamp() time.Time {
	if r.MatchedMessage != nil && r.MatchedMessage.HasTimestamp() {
		return r.MatchedMessage.Timestamp
	}
	return r.Session.Anchor()
}

type messageJSON struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp,omitzero"`
}

type resultJSON struct {
	UUID              string       `json:"uuid"`
	Label             string       `json:"label"`
	Path              string       `json:"path"`
	UpdatedAt         time.Time    `json:"updated_at"`
	CreatedAt         time.Time    `json:"created_at,omitzero"`
	LatestMessageTime time.Time    `json:"latest_message_time,omitzero"`
	CWD               string       `json:"cwd,omitempty"`
	MatchTimestamp    time.Time    `json:"match_timestamp"`
	MatchedMessage    *messageJSON `json:"matched_message,omitempty"`
	Score             int64        `json:"score"`
	Snippet           Snippet      `json:"snippet"`
}

// MarshalJSON flattens the result into the stable output shape consumed by
// scripts: session identity fields next to score, matched message and snippet.
func (r *SearchResult) MarshalJSON() ([]byte, error) {
	out := resultJSON{
		UUID:              r.Session.UUID,
		Label:             r.Session.Label,
		Path:              r.Session.Path,
		UpdatedAt:         r.Session.UpdatedAt,
		CreatedAt:         r.Session.CreatedAt,
		LatestMessageTime: r.Session.LatestMessageTime,
		CWD:               r.Session.CWD,
		MatchTimestamp:    r.MatchTimestamp(),
		Score:             r.Score,
		Snippet:           r.Snippet,
	}
	if m := r.MatchedMessage; m != nil {
		out.MatchedMessage = &messageJSON{Role: m.Role, Text: m.Text, Timestamp: m.Timestamp}
	}
	return json.Marshal(out)
}
