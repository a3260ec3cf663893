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

package core

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// SearchBlobLimit caps the message portion of a session's search blob.
	SearchBlobLimit = 64 * 1024

	// MaxMessageBytes caps a single message's full text.
	MaxMessageBytes = 256 * 1024

	// Ellipsis marks truncated text in previews and snippets.
	Ellipsis = "…"
)

var metaMarkers = []string{
	"<user_instructions>",
	"<environment_context>",
	"<system_instructions>",
	"<developer_instructions>",
	"<assistant_memory>",
	"<user_action>",
}

// IsMetaText reports whether text opens with a system or environment marker tag.
func IsMetaText(text string) bool {
	trimmed := strings.TrimLeftFunc(text, unicode.IsSpace)
	for _, marker := range metaMarkers {
		if strings.HasPrefix(trimmed, marker) {
			return true
		}
	}
	return false
}

// MakePreview trims text and cuts it to at most limit runes, ending in an
// ellipsis when something was dropped.
func MakePreview(text string, limit int) string {
	trimmed := strings.TrimSpace(text)
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(trimmed) <= limit {
		return trimmed
	}

	var b strings.Builder
	n := 0
	for _, r := range trimmed {
		if n == limit-1 {
			break
		}
		b.WriteRune(r)
		n++
	}
	b.WriteString(Ellipsis)
	return b.String()
}

// TruncateBytes cuts s to at most max bytes without splitting a rune.
func TruncateBytes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// BuildSearchBlob joins message texts with newlines while the blob stays
// under SearchBlobLimit, then appends the label and uuid.
func BuildSearchBlob(messages []Message, label, uuid string) string {
	var b strings.Builder
	for i := range messages {
		text := messages[i].FullText
		if IsMetaText(text) {
			continue
		}
		if b.Len()+len(text)+1 >= SearchBlobLimit {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(text)
	}
	if b.Len() > 0 {
		b.WriteByte('\n')
	}
	b.WriteString(label)
	b.WriteByte('\n')
	b.WriteString(uuid)
	return b.String()
}
