package core

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a stable handle for a session, derived from its uuid.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Role identifies who authored a message.
type Role int

const (
	// RoleUser represents the human side of the conversation.
	RoleUser Role = iota + 1
	// RoleAssistant represents the agent side of the conversation.
	RoleAssistant
)

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAssistant:
		return "assistant"
	default:
		return "unknown"
	}
}

// ParseRole maps a transcript role string to a Role.
func ParseRole(s string) (Role, error) {
	switch s {
	case "user":
		return RoleUser, nil
	case "assistant":
		return RoleAssistant, nil
	default:
		return 0, ErrInvalidRole
	}
}

func (r Role) MarshalText() ([]byte, error) {
	if err := ValidateRole(r); err != nil {
		return nil, err
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Message is a single retained turn of a session.
type Message struct {
	Role      Role
	Text      string    // display preview, already truncated
	FullText  string    // authoritative content
	Timestamp time.Time // zero when the transcript carries none

	folded string
}

// NewMessage builds a message, capping the full text and deriving the preview.
func NewMessage(role Role, fullText string, timestamp time.Time, previewChars int) Message {
	fullText = TruncateBytes(fullText, MaxMessageBytes)
	return Message{
		Role:      role,
		Text:      MakePreview(fullText, previewChars),
		FullText:  fullText,
		Timestamp: timestamp,
		folded:    strings.ToLower(fullText),
	}
}

// HasTimestamp reports whether the message carries its own timestamp.
func (m *Message) HasTimestamp() bool {
	return !m.Timestamp.IsZero()
}

// Folded returns the lowercased full text.
func (m *Message) Folded() string {
	return foldOr(m.folded, m.FullText)
}

// SessionInfo carries the identity and file metadata of a session.
type SessionInfo struct {
	UUID      string
	Label     string
	Path      string
	CreatedAt time.Time
	UpdatedAt time.Time
	CWD       string
}

// Session is one conversation transcript. It is never mutated after NewSession.
type Session struct {
	UUID              string
	Label             string
	Path              string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	LatestMessageTime time.Time
	CWD               string
	Messages          []Message
	SearchBlob        string

	id          ID
	blobFolded  string
	labelFolded string
	uuidFolded  string
}

// NewSession drops meta messages, builds the search blob and validates the
// result. Sessions left without messages are rejected with ErrNoMessages.
func NewSession(info SessionInfo, messages []Message) (*Session, error) {
	kept := make([]Message, 0, len(messages))
	for _, m := range messages {
		if IsMetaText(m.FullText) {
			continue
		}
		if m.folded == "" {
			m.folded = strings.ToLower(m.FullText)
		}
		kept = append(kept, m)
	}

	s := &Session{
		UUID:      info.UUID,
		Label:     info.Label,
		Path:      info.Path,
		CreatedAt: info.CreatedAt,
		UpdatedAt: info.UpdatedAt,
		CWD:       info.CWD,
		Messages:  kept,
	}
	if err := ValidateSession(s); err != nil {
		return nil, err
	}

	for i := range kept {
		if kept[i].Timestamp.After(s.LatestMessageTime) {
			s.LatestMessageTime = kept[i].Timestamp
		}
	}
	s.SearchBlob = BuildSearchBlob(kept, s.Label, s.UUID)
	s.id = IDFromContent(s.UUID)
	s.blobFolded = strings.ToLower(s.SearchBlob)
	s.labelFolded = strings.ToLower(s.Label)
	s.uuidFolded = strings.ToLower(s.UUID)
	return s, nil
}

// ID returns the content-derived handle of the session.
func (s *Session) ID() ID {
	if s.id == 0 {
		return IDFromContent(s.UUID)
	}
	return s.id
}

func (s *Session) FoldedBlob() string  { return foldOr(s.blobFolded, s.SearchBlob) }
func (s *Session) FoldedLabel() string { return foldOr(s.labelFolded, s.Label) }
func (s *Session) FoldedUUID() string  { return foldOr(s.uuidFolded, s.UUID) }

// Anchor returns the latest message time, or the file modification time.
func (s *Session) Anchor() time.Time {
	if !s.LatestMessageTime.IsZero() {
		return s.LatestMessageTime
	}
	return s.UpdatedAt
}

// FirstMessage returns the first retained message, or nil.
func (s *Session) FirstMessage() *Message {
	if len(s.Messages) == 0 {
		return nil
	}
	return &s.Messages[0]
}

func foldOr(folded, raw string) string {
	if folded == "" && raw != "" {
		return strings.ToLower(raw)
	}
	return folded
}
