package core

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantSame bool
	}{
		{
			name:     "same content produces same ID",
			content:  "019a2b3c-0000-7000-8000-000000000001",
			wantSame: true,
		},
		{
			name:     "empty string",
			content:  "",
			wantSame: true,
		},
		{
			name:     "long content",
			content:  strings.Repeat("session ", 200),
			wantSame: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if tt.wantSame && id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent("content1")
	id2 := IDFromContent("content2")

	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestNewSession(t *testing.T) {
	updated := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	early := updated.Add(-2 * time.Hour)
	late := updated.Add(-1 * time.Hour)

	t.Run("drops meta messages and builds blob", func(t *testing.T) {
		s, err := NewSession(SessionInfo{UUID: "abc-123", Label: "rollout", UpdatedAt: updated}, []Message{
			NewMessage(RoleUser, "<environment_context>cwd=/tmp</environment_context>", early, 240),
			NewMessage(RoleUser, "fix the login bug", early, 240),
			NewMessage(RoleAssistant, "done, see auth.go", late, 240),
		})
		if err != nil {
			t.Fatalf("NewSession() error = %v", err)
		}
		if len(s.Messages) != 2 {
			t.Fatalf("len(Messages) = %d, want 2", len(s.Messages))
		}
		want := "fix the login bug\ndone, see auth.go\nrollout\nabc-123"
		if s.SearchBlob != want {
			t.Errorf("SearchBlob = %q, want %q", s.SearchBlob, want)
		}
		if !s.LatestMessageTime.Equal(late) {
			t.Errorf("LatestMessageTime = %v, want %v", s.LatestMessageTime, late)
		}
		if s.ID() != IDFromContent("abc-123") {
			t.Errorf("ID() does not match uuid hash")
		}
	})

	t.Run("only meta messages is rejected", func(t *testing.T) {
		_, err := NewSession(SessionInfo{UUID: "abc", UpdatedAt: updated}, []Message{
			NewMessage(RoleUser, "  <user_instructions>be terse</user_instructions>", time.Time{}, 240),
		})
		if err == nil {
			t.Fatal("NewSession() error = nil, want ErrNoMessages")
		}
		if !errors.Is(err, ErrNoMessages) {
			t.Errorf("NewSession() error = %v, want %v", err, ErrNoMessages)
		}
	})

	t.Run("folded variants are lowercase", func(t *testing.T) {
		s, err := NewSession(SessionInfo{UUID: "ABC", Label: "Refactor Auth", UpdatedAt: updated}, []Message{
			NewMessage(RoleUser, "Update DOCS", time.Time{}, 240),
		})
		if err != nil {
			t.Fatalf("NewSession() error = %v", err)
		}
		if s.FoldedLabel() != "refactor auth" || s.FoldedUUID() != "abc" {
			t.Errorf("folded label/uuid = %q/%q", s.FoldedLabel(), s.FoldedUUID())
		}
		if s.Messages[0].Folded() != "update docs" {
			t.Errorf("message Folded() = %q", s.Messages[0].Folded())
		}
		if !s.Anchor().Equal(updated) {
			t.Errorf("Anchor() = %v, want updated_at %v", s.Anchor(), updated)
		}
	})
}

func TestBuildSearchBlob_RespectsLimit(t *testing.T) {
	big := strings.Repeat("x", SearchBlobLimit-10)
	msgs := []Message{
		NewMessage(RoleUser, big, time.Time{}, 10),
		NewMessage(RoleUser, "this one does not fit", time.Time{}, 10),
		NewMessage(RoleUser, "tiny", time.Time{}, 10),
	}

	blob := BuildSearchBlob(msgs, "label", "uuid")
	if strings.Contains(blob, "does not fit") {
		t.Error("blob includes a message past the limit")
	}
	if !strings.HasSuffix(blob, "\ntiny\nlabel\nuuid") {
		t.Errorf("blob suffix = %q", blob[len(blob)-30:])
	}
}

func TestMakePreview(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
		want  string
	}{
		{name: "short text kept", text: "  hello  ", limit: 10, want: "hello"},
		{name: "exact fit", text: "hello", limit: 5, want: "hello"},
		{name: "truncated with ellipsis", text: "hello world", limit: 6, want: "hello…"},
		{name: "zero limit", text: "hello", limit: 0, want: ""},
		{name: "multibyte", text: "日本語のテキスト", limit: 4, want: "日本語…"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MakePreview(tt.text, tt.limit)
			if got != tt.want {
				t.Errorf("MakePreview() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTruncateBytes(t *testing.T) {
	s := "aé" // 'é' is two bytes
	got := TruncateBytes(s, 2)
	if got != "a" {
		t.Errorf("TruncateBytes() = %q, want %q", got, "a")
	}
	if !utf8.ValidString(got) {
		t.Error("TruncateBytes() split a rune")
	}
}

func TestIsMetaText(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"<user_instructions>x", true},
		{"\n  <environment_context>", true},
		{"<assistant_memory>", true},
		{"<user_action>resume</user_action>", true},
		{"please read <user_instructions>", false},
		{"plain text", false},
	}
	for _, tt := range tests {
		if got := IsMetaText(tt.text); got != tt.want {
			t.Errorf("IsMetaText(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestSearchResult_MatchTimestamp(t *testing.T) {
	updated := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	latest := updated.Add(-time.Hour)
	msgTime := updated.Add(-2 * time.Hour)

	withTimes, _ := NewSession(SessionInfo{UUID: "a", UpdatedAt: updated}, []Message{
		NewMessage(RoleUser, "one", msgTime, 10),
		NewMessage(RoleUser, "two", latest, 10),
	})
	noTimes, _ := NewSession(SessionInfo{UUID: "b", UpdatedAt: updated}, []Message{
		NewMessage(RoleUser, "one", time.Time{}, 10),
	})

	tests := []struct {
		name   string
		result SearchResult
		want   time.Time
	}{
		{"matched message wins", SearchResult{Session: withTimes, MatchedMessage: &withTimes.Messages[0]}, msgTime},
		{"latest message fallback", SearchResult{Session: withTimes}, latest},
		{"updated_at fallback", SearchResult{Session: noTimes, MatchedMessage: &noTimes.Messages[0]}, updated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.MatchTimestamp(); !got.Equal(tt.want) {
				t.Errorf("MatchTimestamp() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSearchResult_MarshalJSON(t *testing.T) {
	updated := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s, err := NewSession(SessionInfo{UUID: "u-1", Label: "rollout", UpdatedAt: updated}, []Message{
		NewMessage(RoleAssistant, "fixed the login bug", time.Time{}, 240),
	})
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	r := &SearchResult{
		Session:        s,
		MatchedMessage: &s.Messages[0],
		Score:          42,
		Snippet: Snippet{Segments: []SnippetSegment{
			{Text: "fixed the "},
			{Text: "login", Highlighted: true},
		}},
	}

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	for _, key := range []string{"uuid", "label", "updated_at", "matched_message", "score", "snippet"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("missing key %q in %s", key, data)
		}
	}
	if _, ok := decoded["cwd"]; ok {
		t.Errorf("empty cwd should be omitted: %s", data)
	}
	msg := decoded["matched_message"].(map[string]any)
	if msg["role"] != "assistant" {
		t.Errorf("matched_message.role = %v, want assistant", msg["role"])
	}
	segs := decoded["snippet"].([]any)
	if len(segs) != 2 || segs[1].(map[string]any)["highlighted"] != true {
		t.Errorf("snippet = %v", segs)
	}
}

func TestSnippet_String(t *testing.T) {
	s := Snippet{Segments: []SnippetSegment{{Text: "…"}, {Text: "a "}, {Text: "b", Highlighted: true}, {Text: " c"}}}
	if s.String() != "…a b c" {
		t.Errorf("String() = %q", s.String())
	}
	if s.Highlighted() != "b" {
		t.Errorf("Highlighted() = %q", s.Highlighted())
	}
}
