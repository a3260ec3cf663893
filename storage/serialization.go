package storage

import (
	"fmt"

	"github.com/zippoxer/codex-search/core"
)

// recordVersion is bumped whenever the stored shape or the parse rules change.
// It is written as the first byte of every record.
const recordVersion byte = 2

// MarshalSession serializes a session together with the stamp it was parsed
// from. Only full message texts are stored; previews, the search blob and
// folded variants are derived again on load.
func MarshalSession(stamp FileStamp, session *core.Session) ([]byte, error) {
	rec := sessionRecord{
		ModTime:      stamp.ModTime,
		Size:         stamp.Size,
		PreviewChars: stamp.PreviewChars,
		UUID:         session.UUID,
		Label:        session.Label,
		Path:         session.Path,
		CreatedAt:    session.CreatedAt,
		UpdatedAt:    session.UpdatedAt,
		CWD:          session.CWD,
		Messages:     make([]messageRecord, len(session.Messages)),
	}
	for i, m := range session.Messages {
		if err := core.ValidateRole(m.Role); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
		}
		rec.Messages[i] = messageRecord{Role: m.Role, Text: m.FullText, Timestamp: m.Timestamp}
	}

	buf := make([]byte, 1+sessionRecordMUS.Size(rec))
	buf[0] = recordVersion
	sessionRecordMUS.Marshal(rec, buf[1:])
	return buf, nil
}

// UnmarshalSession rebuilds a session stored by MarshalSession. It returns
// ErrStale when the record was written for a different stamp.
func UnmarshalSession(stamp FileStamp, data []byte) (*core.Session, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty record", ErrSerializationFailed)
	}
	if data[0] != recordVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, data[0])
	}

	rec, n, err := sessionRecordMUS.Unmarshal(data[1:])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	if extra := len(data) - 1 - n; extra != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrSerializationFailed, extra)
	}

	stored := FileStamp{Path: rec.Path, ModTime: rec.ModTime, Size: rec.Size, PreviewChars: rec.PreviewChars}
	if !stored.Matches(stamp) {
		return nil, ErrStale
	}

	messages := make([]core.Message, len(rec.Messages))
	for i, m := range rec.Messages {
		messages[i] = core.NewMessage(m.Role, m.Text, m.Timestamp, rec.PreviewChars)
	}

	session, err := core.NewSession(core.SessionInfo{
		UUID:      rec.UUID,
		Label:     rec.Label,
		Path:      rec.Path,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
		CWD:       rec.CWD,
	}, messages)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return session, nil
}
